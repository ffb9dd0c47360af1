package compile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/stackforge/stackforge/pkg/constraints"
	"github.com/stackforge/stackforge/pkg/matrix"
	"github.com/stackforge/stackforge/pkg/pkgversion"
)

func conflictMatrix(t *testing.T) *matrix.Matrix {
	t.Helper()

	m, err := matrix.Merge([]matrix.RawSource{
		{
			Source: matrix.SkillSource{Name: matrix.PublicSourceName, Kind: matrix.SourceKindPublic},
			Categories: []matrix.Category{
				{ID: "framework", Name: "Framework", Exclusive: true},
				{ID: "database", Name: "Database"},
			},
			Skills: []*matrix.Skill{
				{ID: "react", Name: "React", Category: "framework",
					ConflictsWith: []matrix.Relation{{SkillID: "vue", Reason: "pick one"}}},
				{ID: "vue", Name: "Vue", Category: "framework"},
				{ID: "postgres", Name: "PostgreSQL", Category: "database"},
			},
		},
	}, nil)
	require.NoError(t, err)
	return m
}

func newTestCompiler(t *testing.T, dir string) *Compiler {
	t.Helper()
	m := conflictMatrix(t)
	engine := constraints.New(m)
	return NewCompiler(m, engine, pkgversion.NewFileStore(dir))
}

func TestCompile(t *testing.T) {
	ctx := context.Background()

	t.Run("writes manifest and hash file", func(t *testing.T) {
		dir := t.TempDir()
		compiler := newTestCompiler(t, dir)

		result, err := compiler.Compile(ctx, Request{
			Name:   "web",
			Skills: []string{"react", "postgres"},
			Agents: []string{"coder"},
		})
		require.NoError(t, err)
		assert.Equal(t, "1.0.0", result.State.Version)
		assert.Equal(t, []string{"postgres", "react"}, result.Manifest.Skills)

		manifestBytes, err := os.ReadFile(filepath.Join(dir, "web", "PACKAGE.yaml"))
		require.NoError(t, err)
		var manifest Manifest
		require.NoError(t, yaml.Unmarshal(manifestBytes, &manifest))
		assert.Equal(t, "web", manifest.Name)
		assert.Equal(t, "1.0.0", manifest.Version)
		assert.NotEmpty(t, manifest.BuildID)

		hashBytes, err := os.ReadFile(filepath.Join(dir, "web", ".contenthash"))
		require.NoError(t, err)
		assert.NotEmpty(t, hashBytes)
	})

	t.Run("prebuilt stack config keeps preload flags in the manifest", func(t *testing.T) {
		dir := t.TempDir()
		compiler := newTestCompiler(t, dir)
		m := conflictMatrix(t)

		stackCfg := Config{"coder": {
			"framework": {{ID: "react"}},
			"database":  {{ID: "postgres"}},
		}}
		prebuilt := ResolveAgentSkillsFromStack(ctx, stackCfg, m)
		require.True(t, prebuilt["coder"]["framework"][0].Preloaded)

		result, err := compiler.Compile(ctx, Request{
			Name:   "web",
			Skills: []string{"react", "postgres"},
			Agents: []string{"coder"},
			Config: prebuilt,
		})
		require.NoError(t, err)
		assert.True(t, result.Manifest.Agents["coder"]["framework"][0].Preloaded)

		manifestBytes, err := os.ReadFile(filepath.Join(dir, "web", "PACKAGE.yaml"))
		require.NoError(t, err)
		var manifest Manifest
		require.NoError(t, yaml.Unmarshal(manifestBytes, &manifest))
		assert.True(t, manifest.Agents["coder"]["framework"][0].Preloaded)
		assert.True(t, manifest.Agents["coder"]["database"][0].Preloaded)
	})

	t.Run("recompiling identical content keeps the version", func(t *testing.T) {
		dir := t.TempDir()
		compiler := newTestCompiler(t, dir)
		req := Request{Name: "web", Skills: []string{"react"}, Agents: []string{"coder"}}

		first, err := compiler.Compile(ctx, req)
		require.NoError(t, err)
		second, err := compiler.Compile(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, first.State, second.State)
	})

	t.Run("changed selection bumps only the major component", func(t *testing.T) {
		dir := t.TempDir()
		compiler := newTestCompiler(t, dir)

		_, err := compiler.Compile(ctx, Request{Name: "web", Skills: []string{"react"}, Agents: []string{"coder"}})
		require.NoError(t, err)

		second, err := compiler.Compile(ctx, Request{Name: "web", Skills: []string{"react", "postgres"}, Agents: []string{"coder"}})
		require.NoError(t, err)
		assert.Equal(t, "2.0.0", second.State.Version)

		third, err := compiler.Compile(ctx, Request{Name: "web", Skills: []string{"vue"}, Agents: []string{"coder"}})
		require.NoError(t, err)
		assert.Equal(t, "3.0.0", third.State.Version)
	})

	t.Run("selection order does not affect the version", func(t *testing.T) {
		dir := t.TempDir()
		compiler := newTestCompiler(t, dir)

		first, err := compiler.Compile(ctx, Request{Name: "web", Skills: []string{"react", "postgres"}, Agents: []string{"coder"}})
		require.NoError(t, err)
		second, err := compiler.Compile(ctx, Request{Name: "web", Skills: []string{"postgres", "react"}, Agents: []string{"coder"}})
		require.NoError(t, err)
		assert.Equal(t, first.State.Version, second.State.Version)
	})

	t.Run("validation errors abort the compile", func(t *testing.T) {
		compiler := newTestCompiler(t, t.TempDir())

		_, err := compiler.Compile(ctx, Request{Name: "web", Skills: []string{"react", "vue"}, Agents: []string{"coder"}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "selection is not valid")
		assert.Contains(t, err.Error(), "pick one")
	})

	t.Run("warnings do not block", func(t *testing.T) {
		compiler := newTestCompiler(t, t.TempDir())

		result, err := compiler.Compile(ctx, Request{Name: "web", Skills: []string{"react"}, Agents: []string{"coder"}})
		require.NoError(t, err)
		assert.True(t, result.Validation.Valid)
	})

	t.Run("missing name or agents is rejected", func(t *testing.T) {
		compiler := newTestCompiler(t, t.TempDir())

		_, err := compiler.Compile(ctx, Request{Skills: []string{"react"}, Agents: []string{"coder"}})
		assert.Error(t, err)

		_, err = compiler.Compile(ctx, Request{Name: "web", Skills: []string{"react"}})
		assert.Error(t, err)
	})
}
