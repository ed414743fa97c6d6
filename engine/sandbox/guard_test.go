package sandbox

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dataworks/dataworks/engine/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGuard(t *testing.T) (*Guard, string) {
	t.Helper()
	parent := t.TempDir()
	root := filepath.Join(parent, "data")
	require.NoError(t, os.MkdirAll(root, 0o755))
	guard, err := New(root)
	require.NoError(t, err)
	return guard, guard.Root()
}

func requireDenied(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	coreErr, ok := core.AsError(err)
	require.True(t, ok)
	assert.Equal(t, CodeAccessDenied, coreErr.Code)
}

func TestGuard_Resolve(t *testing.T) {
	t.Run("Should accept a file directly under the root", func(t *testing.T) {
		guard, root := newGuard(t)
		resolved, err := guard.Resolve(filepath.Join(root, "x"))
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(root, "x"), resolved)
	})

	t.Run("Should accept relative paths", func(t *testing.T) {
		guard, root := newGuard(t)
		resolved, err := guard.Resolve("nested/out.json")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(root, "nested", "out.json"), resolved)
	})

	t.Run("Should accept the root itself", func(t *testing.T) {
		guard, root := newGuard(t)
		resolved, err := guard.Resolve(root)
		require.NoError(t, err)
		assert.Equal(t, root, resolved)
	})

	t.Run("Should reject parent traversal", func(t *testing.T) {
		guard, root := newGuard(t)
		_, err := guard.Resolve(root + "/../etc/passwd")
		requireDenied(t, err)
	})

	t.Run("Should reject relative traversal", func(t *testing.T) {
		guard, _ := newGuard(t)
		_, err := guard.Resolve("../../etc/passwd")
		requireDenied(t, err)
	})

	t.Run("Should reject sibling directory sharing the root prefix", func(t *testing.T) {
		guard, root := newGuard(t)
		_, err := guard.Resolve(root + "2/x")
		requireDenied(t, err)
	})

	t.Run("Should reject unrelated absolute paths", func(t *testing.T) {
		guard, _ := newGuard(t)
		_, err := guard.Resolve("/etc/passwd")
		requireDenied(t, err)
	})

	t.Run("Should reject symlinks escaping the root", func(t *testing.T) {
		guard, root := newGuard(t)
		outside := t.TempDir()
		require.NoError(t, os.Symlink(outside, filepath.Join(root, "escape")))
		_, err := guard.Resolve("escape/secret.txt")
		requireDenied(t, err)
	})

	t.Run("Should accept symlinks that stay inside the root", func(t *testing.T) {
		guard, root := newGuard(t)
		require.NoError(t, os.MkdirAll(filepath.Join(root, "real"), 0o755))
		require.NoError(t, os.Symlink(filepath.Join(root, "real"), filepath.Join(root, "alias")))
		resolved, err := guard.Resolve("alias/file.txt")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(root, "real", "file.txt"), resolved)
	})

	t.Run("Should accept in-root paths nested under a regular file", func(t *testing.T) {
		guard, root := newGuard(t)
		require.NoError(t, os.WriteFile(filepath.Join(root, "file.txt"), []byte("x"), 0o644))
		resolved, err := guard.Resolve("file.txt/child")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(root, "file.txt", "child"), resolved)
	})

	t.Run("Should reject empty paths", func(t *testing.T) {
		guard, _ := newGuard(t)
		_, err := guard.Resolve("  ")
		requireDenied(t, err)
	})
}

func TestGuard_Join(t *testing.T) {
	t.Run("Should resolve joined parts under the root", func(t *testing.T) {
		guard, root := newGuard(t)
		resolved, err := guard.Join("repo", "commit.txt")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(root, "repo", "commit.txt"), resolved)
	})
}

func TestNew(t *testing.T) {
	t.Run("Should reject an empty root", func(t *testing.T) {
		_, err := New("")
		require.Error(t, err)
	})

	t.Run("Should allow a root that does not exist yet", func(t *testing.T) {
		root := filepath.Join(t.TempDir(), "later")
		guard, err := New(root)
		require.NoError(t, err)
		resolved, err := guard.Resolve("a.txt")
		require.NoError(t, err)
		assert.Equal(t, "a.txt", filepath.Base(resolved))
	})
}

func TestContains(t *testing.T) {
	t.Run("Should compare by path components", func(t *testing.T) {
		assert.True(t, Contains("/data", "/data"))
		assert.True(t, Contains("/data", "/data/x"))
		assert.False(t, Contains("/data", "/data2/x"))
		assert.False(t, Contains("/data", "/etc/passwd"))
		assert.True(t, Contains("/data", "/data/..x"))
	})
}
