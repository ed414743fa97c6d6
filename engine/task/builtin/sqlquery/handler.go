package sqlquery

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/url"

	sq "github.com/Masterminds/squirrel"
	"github.com/dataworks/dataworks/engine/task"
	"github.com/dataworks/dataworks/pkg/logger"
	// Register modernc SQLite driver with database/sql.
	_ "modernc.org/sqlite"
)

const (
	TaskID       = "run_sql_query"
	Alias        = "B5"
	DatabaseFile = "ticket-sales.db"
	OutputFile   = "sql_query_result.txt"
	SourceTable  = "tickets"
	RowLimit     = 5
)

// Definition runs a fixed read query against the ticket database.
func Definition(env task.Environment) task.Definition {
	return task.Definition{
		ID:          TaskID,
		Aliases:     []string{Alias},
		Description: "Run a read-only SQL query and save the rows.",
		Outputs:     []string{OutputFile},
		Precondition: func(context.Context) error {
			_, err := task.RequireFile(env.Guard, DatabaseFile)
			return err
		},
		Execute: func(ctx context.Context) (*task.Envelope, error) {
			return execute(ctx, env)
		},
	}
}

// Query returns the statement the task executes.
func Query() (string, []any, error) {
	return sq.Select("*").From(SourceTable).Limit(RowLimit).ToSql()
}

func execute(ctx context.Context, env task.Environment) (*task.Envelope, error) {
	dbPath, err := task.RequireFile(env.Guard, DatabaseFile)
	if err != nil {
		return nil, err
	}
	query, args, err := Query()
	if err != nil {
		return nil, task.Internal(fmt.Errorf("failed to build query: %w", err), nil)
	}
	rows, err := fetchRows(ctx, dbPath, query, args)
	if err != nil {
		return nil, err
	}
	encoded, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return nil, task.Internal(fmt.Errorf("failed to encode rows: %w", err), nil)
	}
	path, err := task.WriteArtifact(ctx, env.Guard, OutputFile, encoded)
	if err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Info("Ran SQL query", "query", query, "rows", len(rows), "path", path)
	return &task.Envelope{Message: Alias + " executed: SQL query run."}, nil
}

func readOnlyDSN(path string) string {
	u := url.URL{Scheme: "file", Path: path, RawQuery: "mode=ro"}
	return u.String()
}

func fetchRows(ctx context.Context, dbPath, query string, args []any) ([][]any, error) {
	db, err := sql.Open("sqlite", readOnlyDSN(dbPath))
	if err != nil {
		return nil, task.Internal(fmt.Errorf("sqlite: open database: %w", err), map[string]any{"path": dbPath})
	}
	defer db.Close()
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, task.Internal(fmt.Errorf("sqlite: query failed: %w", err), map[string]any{"query": query})
	}
	defer rows.Close()
	columns, err := rows.Columns()
	if err != nil {
		return nil, task.Internal(fmt.Errorf("sqlite: read columns: %w", err), nil)
	}
	result := make([][]any, 0, RowLimit)
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, task.Internal(fmt.Errorf("sqlite: scan row: %w", err), nil)
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		result = append(result, values)
	}
	if err := rows.Err(); err != nil {
		return nil, task.Internal(fmt.Errorf("sqlite: iterate rows: %w", err), nil)
	}
	return result, nil
}
