package agents

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const plannerDoc = `---
id: planner
name: Planner
description: Breaks work into steps
---

# Planner

Plans before coding.
`

func writeAgents(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func TestLoadAll(t *testing.T) {
	ctx := context.Background()

	t.Run("loads frontmatter definitions", func(t *testing.T) {
		dir := writeAgents(t, map[string]string{"planner.md": plannerDoc})

		p, err := NewProcessor(WithAgentDirs(dir))
		require.NoError(t, err)

		definitions, err := p.LoadAll(ctx)
		require.NoError(t, err)
		require.Len(t, definitions, 1)
		assert.Equal(t, "Planner", definitions["planner"].Name)
		assert.Equal(t, "Breaks work into steps", definitions["planner"].Description)
	})

	t.Run("id falls back to file name", func(t *testing.T) {
		dir := writeAgents(t, map[string]string{"coder.md": "---\nname: Coder\n---\n\nWrites code.\n"})

		p, err := NewProcessor(WithAgentDirs(dir))
		require.NoError(t, err)

		definitions, err := p.LoadAll(ctx)
		require.NoError(t, err)
		assert.Contains(t, definitions, "coder")
	})

	t.Run("earlier directories shadow later ones", func(t *testing.T) {
		first := writeAgents(t, map[string]string{"planner.md": plannerDoc})
		second := writeAgents(t, map[string]string{"planner.md": "---\nid: planner\nname: Other\n---\n\nBody.\n"})

		p, err := NewProcessor(WithAgentDirs(first, second))
		require.NoError(t, err)

		definitions, err := p.LoadAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, "Planner", definitions["planner"].Name)
	})

	t.Run("missing directories are tolerated", func(t *testing.T) {
		p, err := NewProcessor(WithAgentDirs(filepath.Join(t.TempDir(), "nope")))
		require.NoError(t, err)

		definitions, err := p.LoadAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, definitions)
	})
}

func TestIDs(t *testing.T) {
	dir := writeAgents(t, map[string]string{
		"planner.md": plannerDoc,
		"coder.md":   "---\nid: coder\nname: Coder\n---\n\nBody.\n",
	})

	p, err := NewProcessor(WithAgentDirs(dir))
	require.NoError(t, err)

	ids, err := p.IDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"coder", "planner"}, ids)
}
