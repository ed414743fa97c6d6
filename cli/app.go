package cli

import (
	"fmt"

	"github.com/dataworks/dataworks/engine/task"
	"github.com/dataworks/dataworks/engine/task/catalog"
	"github.com/dataworks/dataworks/pkg/config"
	"github.com/dataworks/dataworks/pkg/runlock"
)

// newInvoker builds the catalog for cfg and serializes runs with the data
// root lock file.
func newInvoker(cfg *config.Config) (*task.Invoker, error) {
	env, err := task.NewEnvironment(cfg)
	if err != nil {
		return nil, err
	}
	registry, err := catalog.NewRegistry(env)
	if err != nil {
		return nil, err
	}
	lockPath, err := env.Guard.Resolve(cfg.Data.LockFile)
	if err != nil {
		return nil, err
	}
	lock, err := runlock.New(lockPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create run lock: %w", err)
	}
	return task.NewInvoker(registry, task.WithLocker(lock)), nil
}
