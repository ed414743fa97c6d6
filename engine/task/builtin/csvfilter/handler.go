package csvfilter

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"

	"github.com/dataworks/dataworks/engine/task"
	"github.com/dataworks/dataworks/pkg/logger"
)

const (
	TaskID       = "filter_csv"
	Alias        = "B10"
	InputFile    = "sample.csv"
	OutputFile   = "filtered.json"
	FilterColumn = "role"
	FilterValue  = "user"
)

var sampleHeader = []string{"name", "role"}

var sampleRows = [][]string{
	{"Alice", "admin"},
	{"Bob", "user"},
	{"Charlie", "user"},
}

// Definition keeps the rows of sample.csv whose role is "user". The sample
// dataset is created when the source is absent.
func Definition(env task.Environment) task.Definition {
	return task.Definition{
		ID:          TaskID,
		Aliases:     []string{Alias},
		Description: "Filter a CSV file by role and return the rows as JSON.",
		Outputs:     []string{OutputFile},
		Execute: func(ctx context.Context) (*task.Envelope, error) {
			return execute(ctx, env)
		},
	}
}

func execute(ctx context.Context, env task.Environment) (*task.Envelope, error) {
	log := logger.FromContext(ctx)
	srcPath, exists, err := task.FileExists(env.Guard, InputFile)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := writeSample(ctx, env); err != nil {
			return nil, err
		}
		log.Info("Created sample dataset", "path", srcPath)
	}
	file, err := os.Open(srcPath)
	if err != nil {
		return nil, task.Internal(fmt.Errorf("failed to open csv: %w", err), map[string]any{"path": srcPath})
	}
	defer file.Close()
	table, err := ReadTable(file)
	if err != nil {
		return nil, task.InvalidInput(err, map[string]any{"path": srcPath})
	}
	kept, err := table.Filter(FilterColumn, FilterValue)
	if err != nil {
		return nil, task.InvalidInput(err, map[string]any{"path": srcPath})
	}
	encoded, err := json.MarshalIndent(kept.Records(), "", "  ")
	if err != nil {
		return nil, task.Internal(fmt.Errorf("failed to encode rows: %w", err), nil)
	}
	path, err := task.WriteArtifact(ctx, env.Guard, OutputFile, encoded)
	if err != nil {
		return nil, err
	}
	log.Info("Filtered CSV", "source", srcPath, "kept", len(kept.Rows), "total", len(table.Rows), "path", path)
	return &task.Envelope{
		Message: Alias + " executed: CSV filtered and JSON output saved.",
		Result:  json.RawMessage(encoded),
	}, nil
}

func writeSample(ctx context.Context, env task.Environment) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(sampleHeader); err != nil {
		return task.Internal(fmt.Errorf("failed to write sample header: %w", err), nil)
	}
	if err := w.WriteAll(sampleRows); err != nil {
		return task.Internal(fmt.Errorf("failed to write sample rows: %w", err), nil)
	}
	_, err := task.WriteArtifact(ctx, env.Guard, InputFile, buf.Bytes())
	return err
}
