package prompts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanmeadows/langbridge/internal/langgraph"
)

func withUserDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	prev := UserDir
	UserDir = func() string { return dir }
	t.Cleanup(func() { UserDir = prev })
	return dir
}

func TestLoadBuiltins(t *testing.T) {
	withUserDir(t)

	for _, name := range []string{"default", "analyst", "analyst.md"} {
		t.Run(name, func(t *testing.T) {
			p, err := Load(name)
			require.NoError(t, err)
			assert.True(t, p.Builtin)
			assert.Equal(t, langgraph.RoleSystem, p.Role)
		})
	}
}

func TestLoadNonExistent(t *testing.T) {
	withUserDir(t)

	_, err := Load("nonexistent")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "loading preset")
}

func TestDefaultPresetHasNoMessages(t *testing.T) {
	withUserDir(t)

	p, err := Load("default")
	require.NoError(t, err)
	msgs, err := p.Messages(nil)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestAnalystRender(t *testing.T) {
	withUserDir(t)

	p, err := Load("analyst")
	require.NoError(t, err)
	assert.Equal(t, []string{"finance", "stocks"}, p.Tags)

	text, err := p.Render(map[string]string{"ticker": "NVDA"})
	require.NoError(t, err)
	assert.Contains(t, text, "the current focus is NVDA")

	text, err = p.Render(nil)
	require.NoError(t, err)
	assert.NotContains(t, text, "current focus")

	msgs, err := p.Messages(nil)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, langgraph.RoleSystem, msgs[0].Role)
	assert.Contains(t, msgs[0].Text(), "financial analyst")
}

func TestUserPresetShadowsBuiltin(t *testing.T) {
	dir := withUserDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "analyst.md"),
		[]byte("---\nname: analyst\ndescription: mine\n---\nBe terse.\n"), 0644))

	p, err := Load("analyst")
	require.NoError(t, err)
	assert.False(t, p.Builtin)
	assert.Equal(t, "mine", p.Description)

	text, err := p.Render(nil)
	require.NoError(t, err)
	assert.Equal(t, "Be terse.", text)
}

func TestSaveAndList(t *testing.T) {
	withUserDir(t)

	require.NoError(t, Save(&Preset{
		Name: "brief",
		Role: langgraph.RoleSystem,
		Body: "Answer in one sentence.\n",
	}))

	presets, err := List()
	require.NoError(t, err)

	var names []string
	for _, p := range presets {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"analyst", "brief", "default"}, names)

	p, err := Load("brief")
	require.NoError(t, err)
	assert.False(t, p.Builtin)
	assert.Contains(t, p.Body, "Answer in one sentence.")
}

func TestRenderBadTemplate(t *testing.T) {
	p := &Preset{Name: "broken", Role: langgraph.RoleSystem, Body: "{{.unclosed"}
	_, err := p.Render(nil)
	assert.Error(t, err)
}

func TestRenderMissingKeysAreEmpty(t *testing.T) {
	p := &Preset{Name: "greet", Body: "Hello {{.name}}!{{.missing}}{{if .ticker}} Ticker {{.ticker}}.{{end}}"}

	got, err := p.Render(map[string]string{"name": "Ada"})
	require.NoError(t, err)
	assert.Equal(t, "Hello Ada!", got)
	assert.NotContains(t, got, "<no value>")

	got, err = p.Render(nil)
	require.NoError(t, err)
	assert.Equal(t, "Hello !", got)
}
