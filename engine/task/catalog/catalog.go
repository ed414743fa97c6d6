// Package catalog assembles the built-in task definitions.
package catalog

import (
	"fmt"

	"github.com/dataworks/dataworks/engine/task"
	"github.com/dataworks/dataworks/engine/task/builtin/csvfilter"
	"github.com/dataworks/dataworks/engine/task/builtin/fetch"
	"github.com/dataworks/dataworks/engine/task/builtin/gitcommit"
	"github.com/dataworks/dataworks/engine/task/builtin/imageresize"
	"github.com/dataworks/dataworks/engine/task/builtin/markdown"
	"github.com/dataworks/dataworks/engine/task/builtin/scrape"
	"github.com/dataworks/dataworks/engine/task/builtin/sqlquery"
	"github.com/dataworks/dataworks/engine/task/builtin/transcribe"
)

// DefinitionProvider builds a definition from the shared environment.
type DefinitionProvider func(task.Environment) task.Definition

// Providers returns the built-in providers in catalog order.
func Providers() []DefinitionProvider {
	return []DefinitionProvider{
		fetch.Definition,
		func(env task.Environment) task.Definition { return gitcommit.Definition(env) },
		sqlquery.Definition,
		scrape.Definition,
		imageresize.Definition,
		func(env task.Environment) task.Definition { return transcribe.Definition(env) },
		markdown.Definition,
		csvfilter.Definition,
	}
}

// Definitions builds every built-in definition for env.
func Definitions(env task.Environment) []task.Definition {
	providers := Providers()
	defs := make([]task.Definition, 0, len(providers))
	for _, provider := range providers {
		defs = append(defs, provider(env))
	}
	return defs
}

// NewRegistry registers every built-in definition plus any extra ones.
func NewRegistry(env task.Environment, extra ...task.Definition) (*task.Registry, error) {
	registry := task.NewRegistry()
	for _, def := range append(Definitions(env), extra...) {
		if err := registry.Register(def); err != nil {
			return nil, fmt.Errorf("failed to register task %s: %w", def.ID, err)
		}
	}
	return registry, nil
}
