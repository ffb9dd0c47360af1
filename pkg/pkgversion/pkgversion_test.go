package pkgversion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentHash(t *testing.T) {
	t.Run("deterministic across runs", func(t *testing.T) {
		a := ContentHash("web", "a web stack", []string{"react", "postgres"}, []string{"coder"})
		b := ContentHash("web", "a web stack", []string{"react", "postgres"}, []string{"coder"})
		assert.Equal(t, a, b)
	})

	t.Run("independent of id order", func(t *testing.T) {
		a := ContentHash("web", "", []string{"react", "postgres"}, []string{"coder", "planner"})
		b := ContentHash("web", "", []string{"postgres", "react"}, []string{"planner", "coder"})
		assert.Equal(t, a, b)
	})

	t.Run("sensitive to every field", func(t *testing.T) {
		base := ContentHash("web", "desc", []string{"react"}, []string{"coder"})
		assert.NotEqual(t, base, ContentHash("api", "desc", []string{"react"}, []string{"coder"}))
		assert.NotEqual(t, base, ContentHash("web", "other", []string{"react"}, []string{"coder"}))
		assert.NotEqual(t, base, ContentHash("web", "desc", []string{"vue"}, []string{"coder"}))
		assert.NotEqual(t, base, ContentHash("web", "desc", []string{"react"}, []string{"planner"}))
	})

	t.Run("does not mutate its inputs", func(t *testing.T) {
		skills := []string{"z", "a"}
		ContentHash("web", "", skills, nil)
		assert.Equal(t, []string{"z", "a"}, skills)
	})
}

func TestNext(t *testing.T) {
	t.Run("no prior state assigns the default version", func(t *testing.T) {
		state, err := Next(nil, "abc")
		require.NoError(t, err)
		assert.Equal(t, State{Version: "1.0.0", ContentHash: "abc"}, state)
	})

	t.Run("unchanged hash keeps the version", func(t *testing.T) {
		prev := State{Version: "3.0.0", ContentHash: "abc"}
		state, err := Next(&prev, "abc")
		require.NoError(t, err)
		assert.Equal(t, prev, state)
	})

	t.Run("changed hash bumps only the major component", func(t *testing.T) {
		prev := State{Version: "3.0.0", ContentHash: "abc"}
		state, err := Next(&prev, "def")
		require.NoError(t, err)
		assert.Equal(t, "4.0.0", state.Version)
		assert.Equal(t, "def", state.ContentHash)
	})

	t.Run("never resets to the default", func(t *testing.T) {
		state := State{Version: DefaultVersion, ContentHash: "h0"}
		for i, hash := range []string{"h1", "h2", "h3"} {
			next, err := Next(&state, hash)
			require.NoError(t, err)
			assert.Equal(t, []string{"2.0.0", "3.0.0", "4.0.0"}[i], next.Version)
			state = next
		}
	})

	t.Run("malformed prior version is an error", func(t *testing.T) {
		prev := State{Version: "not-a-version", ContentHash: "abc"}
		_, err := Next(&prev, "def")
		assert.Error(t, err)
	})
}

func TestFileStore(t *testing.T) {
	t.Run("load before any save yields nil state", func(t *testing.T) {
		store := NewFileStore(t.TempDir())
		state, err := store.Load("web")
		require.NoError(t, err)
		assert.Nil(t, state)
	})

	t.Run("save and load round-trip", func(t *testing.T) {
		store := NewFileStore(t.TempDir())
		saved := State{Version: "2.0.0", ContentHash: "cafe"}
		manifest := []byte("name: web\nversion: 2.0.0\n")
		require.NoError(t, store.Save("web", saved, manifest))

		loaded, err := store.Load("web")
		require.NoError(t, err)
		require.NotNil(t, loaded)
		assert.Equal(t, saved, *loaded)
	})

	t.Run("packages are isolated", func(t *testing.T) {
		store := NewFileStore(t.TempDir())
		require.NoError(t, store.Save("web", State{Version: "1.0.0", ContentHash: "a"}, []byte("name: web\nversion: 1.0.0\n")))

		state, err := store.Load("api")
		require.NoError(t, err)
		assert.Nil(t, state)
	})
}
