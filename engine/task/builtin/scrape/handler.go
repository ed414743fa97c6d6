package scrape

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/dataworks/dataworks/engine/task"
	"github.com/dataworks/dataworks/pkg/logger"
	"github.com/go-resty/resty/v2"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	TaskID     = "scrape_website"
	Alias      = "B6"
	OutputFile = "scraped.txt"
	NoTitle    = "No title"
)

// Definition downloads a page and stores its title.
func Definition(env task.Environment) task.Definition {
	client := task.NewHTTPClient(env.Config.HTTP)
	url := env.Config.Tasks.Scrape.URL
	return task.Definition{
		ID:          TaskID,
		Aliases:     []string{Alias},
		Description: "Scrape a web page and save its title.",
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
	title, err := ExtractTitle(resp.Body())
	if err != nil {
		return nil, task.ExternalCallFailed(fmt.Errorf("failed to parse %s: %w", url, err), map[string]any{"url": url})
	}
	path, err := task.WriteArtifact(ctx, env.Guard, OutputFile, []byte("Title: "+title+"\n"))
	if err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Info("Scraped website", "url", url, "title", title, "path", path)
	return &task.Envelope{Message: Alias + " executed: website scraped."}, nil
}

// ExtractTitle returns the text of the first <title> element, or NoTitle.
func ExtractTitle(markup []byte) (string, error) {
	doc, err := html.Parse(bytes.NewReader(markup))
	if err != nil {
		return "", err
	}
	node := findTitle(doc)
	if node == nil {
		return NoTitle, nil
	}
	var sb strings.Builder
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == html.TextNode {
			sb.WriteString(child.Data)
		}
	}
	return sb.String(), nil
}

func findTitle(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == atom.Title {
		return n
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if found := findTitle(child); found != nil {
			return found
		}
	}
	return nil
}
