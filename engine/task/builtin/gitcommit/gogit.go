package gitcommit

import (
	"context"
	"fmt"
	"time"

	"github.com/dataworks/dataworks/engine/task"
	"github.com/dataworks/dataworks/pkg/config"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// GoGitBackend performs clone and commit in-process.
type GoGitBackend struct {
	timeout time.Duration
}

func NewGoGitBackend(cfg config.GitConfig) *GoGitBackend {
	return &GoGitBackend{timeout: cfg.Timeout}
}

func (b *GoGitBackend) Name() string {
	return BackendGoGit
}

// Available always succeeds since go-git needs no external tool.
func (b *GoGitBackend) Available(context.Context) error {
	return nil
}

func (b *GoGitBackend) Clone(ctx context.Context, url, dir string) error {
	cloneCtx, cancel := commandContext(ctx, b.timeout)
	defer cancel()
	_, err := git.PlainCloneContext(cloneCtx, dir, false, &git.CloneOptions{URL: url})
	if err != nil {
		return task.ExternalCallFailed(fmt.Errorf("failed to clone repository: %w", err), map[string]any{"url": url})
	}
	return nil
}

func (b *GoGitBackend) Commit(_ context.Context, dir, file, message string, author Signature) error {
	details := map[string]any{"dir": dir, "file": file}
	repo, err := git.PlainOpen(dir)
	if err != nil {
		return task.ExternalCallFailed(fmt.Errorf("failed to open repository: %w", err), details)
	}
	worktree, err := repo.Worktree()
	if err != nil {
		return task.ExternalCallFailed(fmt.Errorf("failed to open worktree: %w", err), details)
	}
	if _, err := worktree.Add(file); err != nil {
		return task.ExternalCallFailed(fmt.Errorf("failed to stage %s: %w", file, err), details)
	}
	_, err = worktree.Commit(message, &git.CommitOptions{
		Author: &object.Signature{Name: author.Name, Email: author.Email, When: time.Now()},
	})
	if err != nil {
		return task.ExternalCallFailed(fmt.Errorf("failed to commit: %w", err), details)
	}
	return nil
}
