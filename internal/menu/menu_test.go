package menu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsActive(t *testing.T) {
	assert.True(t, IsActive("/docs", "/docs"))
	assert.False(t, IsActive("/home", "/docs"))
	assert.False(t, IsActive("/docs/", "/docs"))
}

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestDefaults_KeepsConfiguredEntries(t *testing.T) {
	c := Config{Items: []Item{{Title: "Docs", Path: "/docs"}}}
	c.Defaults()

	assert.Equal(t, "Toolshub", c.AppName)
	assert.Equal(t, []Item{{Title: "Docs", Path: "/docs"}}, c.Items)
	assert.Empty(t, c.Apps)
}

func TestValidate(t *testing.T) {
	c := Config{
		Items: []Item{
			{Title: "Docs", Path: "/docs"},
			{Title: "", Path: "/blank"},
			{Title: "Docs", Path: "/docs2"},
		},
		Apps: []App{
			{Title: "Docs", Path: "apps/docs"},
		},
	}
	err := c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "items[1]: empty title")
	assert.Contains(t, err.Error(), `items[2]: duplicate title "Docs"`)
	assert.Contains(t, err.Error(), `apps[0]: path "apps/docs" must start with /`)
	assert.NotContains(t, err.Error(), "apps[0]: duplicate")
}

func TestLookup(t *testing.T) {
	c := Default()

	title, desc, ok := c.Lookup("/apps/chat")
	require.True(t, ok)
	assert.Equal(t, "Chat", title)
	assert.Equal(t, "Talk to an assistant", desc)

	title, _, ok = c.Lookup("/docs")
	require.True(t, ok)
	assert.Equal(t, "Docs", title)

	_, _, ok = c.Lookup("/nope")
	assert.False(t, ok)
}
