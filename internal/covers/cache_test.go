package covers

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_GetCover(t *testing.T) {
	t.Run("fetches and caches on miss", func(t *testing.T) {
		var hits int
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits++
			w.Write([]byte("jpeg-bytes"))
		}))
		defer server.Close()

		cache, err := NewCache(t.TempDir())
		require.NoError(t, err)

		path, err := cache.GetCover(1, server.URL+"/cover.jpg")
		require.NoError(t, err)
		require.NotEmpty(t, path)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "jpeg-bytes", string(data))

		// Second call must come from disk
		again, err := cache.GetCover(1, server.URL+"/cover.jpg")
		require.NoError(t, err)
		assert.Equal(t, path, again)
		assert.Equal(t, 1, hits)
	})

	t.Run("empty URL yields empty path", func(t *testing.T) {
		cache, err := NewCache(t.TempDir())
		require.NoError(t, err)

		path, err := cache.GetCover(1, "")
		require.NoError(t, err)
		assert.Empty(t, path)
	})

	t.Run("upstream failure is surfaced", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		cache, err := NewCache(t.TempDir())
		require.NoError(t, err)

		_, err = cache.GetCover(1, server.URL+"/missing.jpg")
		assert.Error(t, err)
	})

	t.Run("changed URL gets a fresh cache entry", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(r.URL.Path))
		}))
		defer server.Close()

		cache, err := NewCache(t.TempDir())
		require.NoError(t, err)

		first, err := cache.GetCover(1, server.URL+"/a.jpg")
		require.NoError(t, err)
		second, err := cache.GetCover(1, server.URL+"/b.jpg")
		require.NoError(t, err)
		assert.NotEqual(t, first, second)
	})
}

func TestCache_InvalidateCover(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("jpeg-bytes"))
	}))
	defer server.Close()

	dir := t.TempDir()
	cache, err := NewCache(dir)
	require.NoError(t, err)

	path, err := cache.GetCover(7, server.URL+"/cover.jpg")
	require.NoError(t, err)

	require.NoError(t, cache.InvalidateCover(7))

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	matches, err := filepath.Glob(filepath.Join(dir, "cover_7_*"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}
