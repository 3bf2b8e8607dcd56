package dbinit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplaceDBName(t *testing.T) {
	got, err := replaceDBName("postgres://u:p@db:5432/postgres?sslmode=disable", "toolshub")
	require.NoError(t, err)
	assert.Equal(t, "postgres://u:p@db:5432/toolshub?sslmode=disable", got)

	got, err = replaceDBName("postgres://u@db:5432/postgres", "toolshub")
	require.NoError(t, err)
	assert.Equal(t, "postgres://u@db:5432/toolshub", got)

	_, err = replaceDBName("nodb", "toolshub")
	assert.Error(t, err)
}

func TestMigrationFilesSorted(t *testing.T) {
	files, err := migrationFiles(migrationsFS)
	require.NoError(t, err)
	require.NotEmpty(t, files)
	assert.Equal(t, "0001_users.sql", files[0])
}
