package task

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dataworks/dataworks/pkg/config"
	"github.com/go-resty/resty/v2"
)

// NewHTTPClient returns a resty client bounded by the configured timeout.
func NewHTTPClient(cfg config.HTTPConfig) *resty.Client {
	client := resty.New().SetTimeout(cfg.Timeout)
	if cfg.UserAgent != "" {
		client.SetHeader("User-Agent", cfg.UserAgent)
	}
	return client
}

// Get issues a GET and requires a 200 response.
func Get(ctx context.Context, client *resty.Client, url string) (*resty.Response, error) {
	resp, err := client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, ExternalCallFailed(fmt.Errorf("GET %s failed: %w", url, err), map[string]any{"url": url})
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, ExternalCallFailed(
			fmt.Errorf("GET %s returned %s", url, resp.Status()),
			map[string]any{"url": url, "status_code": resp.StatusCode()},
		)
	}
	return resp, nil
}
