package fetch

import (
	"context"
	"errors"

	"github.com/dataworks/dataworks/engine/task"
	"github.com/dataworks/dataworks/pkg/logger"
	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
)

const (
	TaskID     = "fetch_api_data"
	Alias      = "B3"
	OutputFile = "api_data.json"
)

var prettyOptions = &pretty.Options{Width: 80, Prefix: "", Indent: "  ", SortKeys: false}

// Definition fetches a JSON document and stores it pretty-printed.
func Definition(env task.Environment) task.Definition {
	client := task.NewHTTPClient(env.Config.HTTP)
	url := env.Config.Tasks.Fetch.URL
	return task.Definition{
		ID:          TaskID,
		Aliases:     []string{Alias},
		Description: "Fetch a JSON resource over HTTP and save it.",
		Outputs:     []string{OutputFile},
		Execute: func(ctx context.Context) (*task.Envelope, error) {
			return execute(ctx, env, client, url)
		},
	}
}

func execute(ctx context.Context, env task.Environment, client *resty.Client, url string) (*task.Envelope, error) {
	resp, err := task.Get(ctx, client, url)
	if err != nil {
		return nil, err
	}
	body := resp.Body()
	if !gjson.ValidBytes(body) {
		return nil, task.ExternalCallFailed(
			errors.New("response body is not valid JSON"),
			map[string]any{"url": url, "bytes": len(body)},
		)
	}
	path, err := task.WriteArtifact(ctx, env.Guard, OutputFile, pretty.PrettyOptions(body, prettyOptions))
	if err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Info("Fetched API data", "url", url, "path", path, "bytes", len(body))
	return &task.Envelope{Message: Alias + " executed: API data fetched."}, nil
}
