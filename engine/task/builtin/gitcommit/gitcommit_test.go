package gitcommit

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/dataworks/dataworks/engine/task"
	"github.com/dataworks/dataworks/pkg/config"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEnv(t *testing.T, backend, repoURL string) task.Environment {
	t.Helper()
	cfg := config.Default()
	cfg.Data.Root = t.TempDir()
	cfg.Tasks.Git.Backend = backend
	cfg.Tasks.Git.RepoURL = repoURL
	cfg.Tasks.Git.Timeout = time.Minute
	env, err := task.NewEnvironment(cfg)
	require.NoError(t, err)
	return env
}

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git executable not available")
	}
}

func initSourceRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("# source\n"), 0o644))
	worktree, err := repo.Worktree()
	require.NoError(t, err)
	_, err = worktree.Add("README.md")
	require.NoError(t, err)
	_, err = worktree.Commit("Initial commit", &git.CommitOptions{
		Author: &object.Signature{Name: "Source", Email: "source@example.com", When: time.Now()},
	})
	require.NoError(t, err)
	return dir
}

func commitMessages(t *testing.T, dir string) []string {
	t.Helper()
	repo, err := git.PlainOpen(dir)
	require.NoError(t, err)
	iter, err := repo.Log(&git.LogOptions{})
	require.NoError(t, err)
	var messages []string
	require.NoError(t, iter.ForEach(func(c *object.Commit) error {
		messages = append(messages, c.Message)
		return nil
	}))
	return messages
}

func TestCloneAndCommit(t *testing.T) {
	for _, backend := range []string{BackendCLI, BackendGoGit} {
		t.Run("Should clone and commit the marker with the "+backend+" backend", func(t *testing.T) {
			requireGit(t)
			source := initSourceRepo(t)
			env := newEnv(t, backend, source)
			envelope, err := Definition(env).Execute(t.Context())
			require.NoError(t, err)
			assert.Equal(t, "B4 executed: repository cloned and commit made.", envelope.Message)

			repoDir := filepath.Join(env.Guard.Root(), RepoDir)
			data, err := os.ReadFile(filepath.Join(repoDir, MarkerFile))
			require.NoError(t, err)
			assert.Equal(t, MarkerContent, string(data))
			messages := commitMessages(t, repoDir)
			require.Len(t, messages, 2)
			assert.Contains(t, messages[0], CommitMessage)
		})

		t.Run("Should start from a fresh clone on rerun with the "+backend+" backend", func(t *testing.T) {
			requireGit(t)
			source := initSourceRepo(t)
			env := newEnv(t, backend, source)
			def := Definition(env)
			_, err := def.Execute(t.Context())
			require.NoError(t, err)
			stray := filepath.Join(env.Guard.Root(), RepoDir, "stray.txt")
			require.NoError(t, os.WriteFile(stray, []byte("x"), 0o644))
			_, err = def.Execute(t.Context())
			require.NoError(t, err)
			assert.NoFileExists(t, stray)
			messages := commitMessages(t, filepath.Join(env.Guard.Root(), RepoDir))
			require.Len(t, messages, 2)
			assert.Contains(t, messages[0], CommitMessage)
		})
	}

	t.Run("Should report a failed clone as an external call failure", func(t *testing.T) {
		requireGit(t)
		env := newEnv(t, BackendCLI, filepath.Join(t.TempDir(), "missing"))
		_, err := Definition(env).Execute(t.Context())
		require.Error(t, err)
		assert.Equal(t, task.CodeExternalCallFailed, task.ErrorCode(err))
		assert.NoFileExists(t, filepath.Join(env.Guard.Root(), RepoDir, MarkerFile))
	})

	t.Run("Should not commit when the clone fails", func(t *testing.T) {
		env := newEnv(t, BackendCLI, "unused")
		backend := &fakeBackend{cloneErr: task.ExternalCallFailed(errors.New("boom"), nil)}
		_, err := Definition(env, WithBackend(backend)).Execute(t.Context())
		assert.Equal(t, task.CodeExternalCallFailed, task.ErrorCode(err))
		assert.False(t, backend.committed)
	})

	t.Run("Should keep the previous clone when git is missing", func(t *testing.T) {
		env := newEnv(t, BackendCLI, "unused")
		env.Config.Tasks.Git.Binary = filepath.Join(t.TempDir(), "no-such-git")
		keep := filepath.Join(env.Guard.Root(), RepoDir, "keep.txt")
		require.NoError(t, os.MkdirAll(filepath.Dir(keep), 0o755))
		require.NoError(t, os.WriteFile(keep, []byte("previous"), 0o644))
		def := Definition(env)
		require.NotNil(t, def.Precondition)

		err := def.Precondition(t.Context())
		assert.Equal(t, task.CodePreconditionFailed, task.ErrorCode(err))
		assert.ErrorContains(t, err, "no-such-git")
		_, err = def.Execute(t.Context())
		assert.Equal(t, task.CodePreconditionFailed, task.ErrorCode(err))
		assert.FileExists(t, keep)
	})

	t.Run("Should report a missing git through the invoker before resetting", func(t *testing.T) {
		env := newEnv(t, BackendCLI, "unused")
		env.Config.Tasks.Git.Binary = filepath.Join(t.TempDir(), "no-such-git")
		keep := filepath.Join(env.Guard.Root(), RepoDir, "keep.txt")
		require.NoError(t, os.MkdirAll(filepath.Dir(keep), 0o755))
		require.NoError(t, os.WriteFile(keep, []byte("previous"), 0o644))
		reg := task.NewRegistry()
		require.NoError(t, reg.Register(Definition(env)))

		_, err := task.NewInvoker(reg).Run(t.Context(), Alias)
		assert.Equal(t, task.CodePreconditionFailed, task.ErrorCode(err))
		assert.FileExists(t, keep)
	})

	t.Run("Should pass the configured author to the backend", func(t *testing.T) {
		env := newEnv(t, BackendCLI, "unused")
		backend := &fakeBackend{}
		_, err := Definition(env, WithBackend(backend)).Execute(t.Context())
		require.NoError(t, err)
		assert.True(t, backend.committed)
		assert.Equal(t, Signature{Name: "DataWorks Agent", Email: "agent@dataworks.local"}, backend.author)
		assert.Equal(t, MarkerFile, backend.file)
	})
}

func TestCLIBackend(t *testing.T) {
	t.Run("Should fail when the binary cannot be started", func(t *testing.T) {
		cfg := config.Default().Tasks.Git
		cfg.Binary = filepath.Join(t.TempDir(), "no-such-git")
		err := NewCLIBackend(cfg).Clone(t.Context(), "https://example.com/repo.git", t.TempDir())
		assert.Equal(t, task.CodeExternalCallFailed, task.ErrorCode(err))
	})

	t.Run("Should be unavailable when the binary is not on PATH", func(t *testing.T) {
		cfg := config.Default().Tasks.Git
		cfg.Binary = filepath.Join(t.TempDir(), "no-such-git")
		err := NewCLIBackend(cfg).Available(t.Context())
		assert.Equal(t, task.CodePreconditionFailed, task.ErrorCode(err))
	})
}

func TestGoGitBackend(t *testing.T) {
	t.Run("Should always be available", func(t *testing.T) {
		assert.NoError(t, NewGoGitBackend(config.Default().Tasks.Git).Available(t.Context()))
	})


	t.Run("Should commit a file into an existing repository", func(t *testing.T) {
		dir := initSourceRepo(t)
		require.NoError(t, os.WriteFile(filepath.Join(dir, MarkerFile), []byte(MarkerContent), 0o644))
		backend := NewGoGitBackend(config.Default().Tasks.Git)
		err := backend.Commit(t.Context(), dir, MarkerFile, CommitMessage, Signature{Name: "A", Email: "a@example.com"})
		require.NoError(t, err)
		messages := commitMessages(t, dir)
		require.Len(t, messages, 2)
		assert.Contains(t, messages[0], CommitMessage)
	})

	t.Run("Should fail to commit outside a repository", func(t *testing.T) {
		backend := NewGoGitBackend(config.Default().Tasks.Git)
		err := backend.Commit(t.Context(), t.TempDir(), MarkerFile, CommitMessage, Signature{})
		assert.Equal(t, task.CodeExternalCallFailed, task.ErrorCode(err))
	})
}

func TestNewBackend(t *testing.T) {
	t.Run("Should select backends by name", func(t *testing.T) {
		cfg := config.Default().Tasks.Git
		b, err := NewBackend(cfg)
		require.NoError(t, err)
		assert.Equal(t, BackendCLI, b.Name())
		cfg.Backend = BackendGoGit
		b, err = NewBackend(cfg)
		require.NoError(t, err)
		assert.Equal(t, BackendGoGit, b.Name())
		cfg.Backend = "svn"
		_, err = NewBackend(cfg)
		assert.Error(t, err)
	})
}

type fakeBackend struct {
	cloneErr  error
	committed bool
	file      string
	author    Signature
}

func (f *fakeBackend) Name() string { return "fake" }

func (f *fakeBackend) Available(context.Context) error { return nil }

func (f *fakeBackend) Clone(_ context.Context, _ string, dir string) error {
	if f.cloneErr != nil {
		return f.cloneErr
	}
	return os.MkdirAll(dir, 0o755)
}

func (f *fakeBackend) Commit(_ context.Context, _, file, _ string, author Signature) error {
	f.committed = true
	f.file = file
	f.author = author
	return nil
}
