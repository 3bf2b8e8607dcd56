package main

import (
	"testing"

	"toolshub/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReorderArgs(t *testing.T) {
	got := reorderArgs([]string{"alice", "-role", "admin", "-display=Alice A", "-config", "x.yaml"})
	assert.Equal(t, []string{"-role", "admin", "-display=Alice A", "-config", "x.yaml", "alice"}, got)

	assert.Equal(t, []string{"bob"}, reorderArgs([]string{"bob"}))
}

func TestValidRole(t *testing.T) {
	assert.True(t, validRole("user"))
	assert.True(t, validRole("admin"))
	assert.False(t, validRole("moderator"))
}

func TestResolveDBURL(t *testing.T) {
	var cfg config.Config
	cfg.Defaults()

	u, err := resolveDBURL(&cfg, "postgres://o@h/db")
	require.NoError(t, err)
	assert.Equal(t, "postgres://o@h/db", u)

	u, err = resolveDBURL(&cfg, "  ")
	require.NoError(t, err)
	assert.Contains(t, u, "/toolshub")
}
