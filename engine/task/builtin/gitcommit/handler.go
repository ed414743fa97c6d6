package gitcommit

import (
	"context"
	"path"

	"github.com/dataworks/dataworks/engine/task"
	"github.com/dataworks/dataworks/pkg/logger"
)

const (
	TaskID        = "clone_and_commit"
	Alias         = "B4"
	RepoDir       = "repo"
	MarkerFile    = "commit.txt"
	MarkerContent = "Automated commit by DataWorks agent.\n"
	CommitMessage = "Automated commit"
)

type Option func(*options)

type options struct {
	backend Backend
}

// WithBackend replaces the backend selected by configuration.
func WithBackend(b Backend) Option {
	return func(o *options) {
		o.backend = b
	}
}

// Definition clones the configured repository into repo/ and commits a
// marker file. Any previous clone is removed first so reruns start clean.
// The backend must be available before the previous clone is touched.
func Definition(env task.Environment, opts ...Option) task.Definition {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	resolve := func() (Backend, error) {
		if o.backend != nil {
			return o.backend, nil
		}
		backend, err := NewBackend(env.Config.Tasks.Git)
		if err != nil {
			return nil, task.Internal(err, map[string]any{"backend": env.Config.Tasks.Git.Backend})
		}
		return backend, nil
	}
	return task.Definition{
		ID:          TaskID,
		Aliases:     []string{Alias},
		Description: "Clone a git repository and commit a marker file.",
		Outputs:     []string{RepoDir, path.Join(RepoDir, MarkerFile)},
		Precondition: func(ctx context.Context) error {
			backend, err := resolve()
			if err != nil {
				return err
			}
			return backend.Available(ctx)
		},
		Execute: func(ctx context.Context) (*task.Envelope, error) {
			backend, err := resolve()
			if err != nil {
				return nil, err
			}
			return execute(ctx, env, backend)
		},
	}
}

func execute(ctx context.Context, env task.Environment, backend Backend) (*task.Envelope, error) {
	log := logger.FromContext(ctx)
	cfg := env.Config.Tasks.Git
	if err := backend.Available(ctx); err != nil {
		return nil, err
	}
	dir, err := task.ResetDir(ctx, env.Guard, RepoDir)
	if err != nil {
		return nil, err
	}
	log.Info("Cloning repository", "url", cfg.RepoURL, "dir", dir, "backend", backend.Name())
	if err := backend.Clone(ctx, cfg.RepoURL, dir); err != nil {
		return nil, err
	}
	if _, err := task.WriteArtifact(ctx, env.Guard, path.Join(RepoDir, MarkerFile), []byte(MarkerContent)); err != nil {
		return nil, err
	}
	author := Signature{Name: cfg.AuthorName, Email: cfg.AuthorEmail}
	if err := backend.Commit(ctx, dir, MarkerFile, CommitMessage, author); err != nil {
		return nil, err
	}
	log.Info("Committed marker file", "dir", dir, "file", MarkerFile)
	return &task.Envelope{Message: Alias + " executed: repository cloned and commit made."}, nil
}
