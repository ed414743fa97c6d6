package markdown

import (
	"context"
	"fmt"
	"os"

	"github.com/dataworks/dataworks/engine/task"
	"github.com/dataworks/dataworks/pkg/logger"
	gomarkdown "github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

const (
	TaskID     = "convert_markdown"
	Alias      = "B9"
	InputFile  = "format.md"
	OutputFile = "format.html"
)

const extensions = parser.CommonExtensions |
	parser.Footnotes |
	parser.DefinitionLists |
	parser.Attributes |
	parser.SuperSubscript

// Definition renders format.md to format.html.
func Definition(env task.Environment) task.Definition {
	return task.Definition{
		ID:          TaskID,
		Aliases:     []string{Alias},
		Description: "Convert a Markdown document to HTML.",
		Outputs:     []string{OutputFile},
		Precondition: func(context.Context) error {
			_, err := task.RequireFile(env.Guard, InputFile)
			return err
		},
		Execute: func(ctx context.Context) (*task.Envelope, error) {
			return execute(ctx, env)
		},
	}
}

func execute(ctx context.Context, env task.Environment) (*task.Envelope, error) {
	srcPath, err := task.RequireFile(env.Guard, InputFile)
	if err != nil {
		return nil, err
	}
	source, err := os.ReadFile(srcPath)
	if err != nil {
		return nil, task.Internal(fmt.Errorf("failed to read markdown: %w", err), map[string]any{"path": srcPath})
	}
	rendered := Render(source)
	path, err := task.WriteArtifact(ctx, env.Guard, OutputFile, rendered)
	if err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Info("Converted markdown", "source", srcPath, "path", path, "bytes", len(rendered))
	return &task.Envelope{Message: Alias + " executed: Markdown converted to HTML."}, nil
}

// Render converts Markdown with tables, fenced code, footnotes, definition
// lists and attributes enabled. Fenced code carries a language-* class.
func Render(source []byte) []byte {
	p := parser.NewWithExtensions(extensions)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	return gomarkdown.ToHTML(gomarkdown.NormalizeNewlines(source), p, renderer)
}
