package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookup_NonUUIDIsNotFound(t *testing.T) {
	// no pool: a malformed id must be answered before any query
	s := &PGStore{}
	for _, id := range []string{"", "ghost", "u-alice", "1234"} {
		_, err := s.Lookup(context.Background(), id)
		assert.ErrorIs(t, err, ErrNotFound, id)
	}
}
