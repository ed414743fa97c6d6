package task

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dataworks/dataworks/engine/sandbox"
	"github.com/dataworks/dataworks/pkg/config"
)

// Envelope is the uniform success result of a task run.
type Envelope struct {
	Message string `json:"message"`
	Result  any    `json:"result,omitempty"`
}

// Definition describes a registered task. Execute takes no arguments beyond
// the context: every input is fixed when the definition is built.
type Definition struct {
	ID           string
	Aliases      []string
	Description  string
	Outputs      []string
	Precondition func(ctx context.Context) error
	Execute      func(ctx context.Context) (*Envelope, error)
}

// Validate checks the definition can be registered.
func (d *Definition) Validate() error {
	if strings.TrimSpace(d.ID) == "" {
		return errors.New("task id is required")
	}
	if d.Execute == nil {
		return fmt.Errorf("task %s: execute function is required", d.ID)
	}
	for _, alias := range d.Aliases {
		if strings.TrimSpace(alias) == "" {
			return fmt.Errorf("task %s: empty alias", d.ID)
		}
	}
	return nil
}

// Environment carries the process-wide collaborators a definition is built from.
type Environment struct {
	Guard  *sandbox.Guard
	Config *config.Config
}

// NewEnvironment builds the guard for cfg.Data.Root.
func NewEnvironment(cfg *config.Config) (Environment, error) {
	if cfg == nil {
		return Environment{}, errors.New("configuration is required")
	}
	guard, err := sandbox.New(cfg.Data.Root)
	if err != nil {
		return Environment{}, fmt.Errorf("failed to create data root guard: %w", err)
	}
	return Environment{Guard: guard, Config: cfg}, nil
}
