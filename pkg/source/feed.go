package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/antchfx/xmlquery"
)

const (
	feedEntryExpr = `//*[local-name()='item' or local-name()='entry']`
	feedBodyExpr  = `*[local-name()='description' or local-name()='summary' or local-name()='content']`
	feedTitleExpr = `*[local-name()='title']`
)

// FeedSource reads the entries of an RSS or Atom feed. Each entry
// contributes its description or summary, falling back to its title.
type FeedSource struct {
	URL    string
	Client *http.Client
}

func (s *FeedSource) Name() string { return "feed:" + s.URL }

func (s *FeedSource) Fetch(ctx context.Context) ([]string, error) {
	body, err := get(ctx, s.Client, s.URL, nil)
	if err != nil {
		return nil, err
	}
	defer func(body io.ReadCloser) {
		_ = body.Close()
	}(body)
	return parseFeed(body)
}

func parseFeed(r io.Reader) ([]string, error) {
	doc, err := xmlquery.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("could not parse feed: %w", err)
	}
	entries, err := xmlquery.QueryAll(doc, feedEntryExpr)
	if err != nil {
		return nil, err
	}

	texts := make([]string, 0, len(entries))
	for _, entry := range entries {
		if text := entryText(entry); text != "" {
			texts = append(texts, text)
		}
	}
	return texts, nil
}

func entryText(entry *xmlquery.Node) string {
	for _, expr := range []string{feedBodyExpr, feedTitleExpr} {
		node, err := xmlquery.Query(entry, expr)
		if err != nil || node == nil {
			continue
		}
		if text := strings.TrimSpace(htmlText(node.InnerText())); text != "" {
			return text
		}
	}
	return ""
}
