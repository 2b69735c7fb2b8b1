package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"meal.jpg", "meal.jpg"},
		{"../../etc/passwd.png", "passwd.png"},
		{"..\\..\\windows\\system32.png", "system32.png"},
		{"my meal photo.jpg", "my_meal_photo.jpg"},
		{"....", "upload"},
		{"", "upload"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeFilename(tt.in), "input %q", tt.in)
	}
}

func TestLocal_Save(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocal(dir, "http://localhost:8080/")
	require.NoError(t, err)

	t.Run("should store under a collision-prefixed safe name", func(t *testing.T) {
		name, url, err := store.Save(context.Background(), "../../etc/passwd.png", []byte("img"))
		require.NoError(t, err)

		assert.True(t, strings.HasSuffix(name, "_passwd.png"), "got %q", name)
		assert.NotContains(t, name, "..")
		assert.Equal(t, "http://localhost:8080/api/v1/food/files/"+name, url)

		// File must land inside the upload directory only.
		data, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err)
		assert.Equal(t, []byte("img"), data)

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})

	t.Run("should give distinct names to identical uploads", func(t *testing.T) {
		a, _, err := store.Save(context.Background(), "meal.jpg", []byte("one"))
		require.NoError(t, err)
		b, _, err := store.Save(context.Background(), "meal.jpg", []byte("two"))
		require.NoError(t, err)
		assert.NotEqual(t, a, b)
	})
}

func TestLocal_Open(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocal(dir, "http://localhost:8080")
	require.NoError(t, err)

	name, _, err := store.Save(context.Background(), "meal.jpg", []byte("img"))
	require.NoError(t, err)

	t.Run("should open a stored file", func(t *testing.T) {
		path, err := store.Open(name)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, name), path)
	})

	t.Run("should refuse traversal names", func(t *testing.T) {
		_, err := store.Open("../secret.txt")
		assert.Error(t, err)
	})

	t.Run("should miss on unknown files", func(t *testing.T) {
		_, err := store.Open("nope.jpg")
		assert.Error(t, err)
	})
}
