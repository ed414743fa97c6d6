package gitcommit

import (
	"context"
	"fmt"

	"github.com/dataworks/dataworks/pkg/config"
)

const (
	BackendCLI   = "cli"
	BackendGoGit = "gogit"
)

// Signature identifies the author of the marker commit.
type Signature struct {
	Name  string
	Email string
}

// Backend performs the version-control operations of the task. Available
// reports PreconditionFailed when the backend cannot run. Clone and Commit
// failures are reported as ExternalCallFailed.
type Backend interface {
	Name() string
	Available(ctx context.Context) error
	Clone(ctx context.Context, url, dir string) error
	Commit(ctx context.Context, dir, file, message string, author Signature) error
}

// NewBackend selects the backend named by cfg.Backend.
func NewBackend(cfg config.GitConfig) (Backend, error) {
	switch cfg.Backend {
	case "", BackendCLI:
		return NewCLIBackend(cfg), nil
	case BackendGoGit:
		return NewGoGitBackend(cfg), nil
	default:
		return nil, fmt.Errorf("unknown git backend %q", cfg.Backend)
	}
}
