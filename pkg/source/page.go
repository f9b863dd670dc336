package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// PageSource scrapes the text of matching elements from a web page. An
// element matches when its tag equals Element and it carries every attribute
// in Attributes; "class" matches any one of the element's classes.
type PageSource struct {
	URL        string
	Element    string
	Attributes map[string]string
	Client     *http.Client
}

func (s *PageSource) Name() string { return "page:" + s.URL }

func (s *PageSource) Fetch(ctx context.Context) ([]string, error) {
	body, err := get(ctx, s.Client, s.URL, nil)
	if err != nil {
		return nil, err
	}
	defer func(body io.ReadCloser) {
		_ = body.Close()
	}(body)
	return s.parse(body)
}

func (s *PageSource) parse(r io.Reader) ([]string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("could not parse page: %w", err)
	}

	var texts []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && s.matches(n) {
			var sb strings.Builder
			extractText(n, &sb)
			if text := strings.TrimSpace(sb.String()); text != "" {
				texts = append(texts, text)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return texts, nil
}

func (s *PageSource) matches(n *html.Node) bool {
	if !strings.EqualFold(n.Data, s.Element) {
		return false
	}
	for key, want := range s.Attributes {
		got, ok := getAttr(n, key)
		if !ok {
			return false
		}
		if key == "class" {
			if !slices.Contains(strings.Fields(got), want) {
				return false
			}
		} else if got != want {
			return false
		}
	}
	return true
}

func extractText(n *html.Node, sb *strings.Builder) {
	switch n.Type {
	case html.TextNode:
		sb.WriteString(n.Data)
		return
	case html.ElementNode:
		if n.Data == "script" || n.Data == "style" {
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		extractText(c, sb)
	}
	if n.Type == html.ElementNode && (n.Data == "br" || n.Data == "p" || n.Data == "div") {
		sb.WriteByte(' ')
	}
}

// htmlText returns the text content of an HTML fragment such as a Mastodon
// status or a feed description. Text without markup is returned as is.
func htmlText(fragment string) string {
	if !strings.ContainsRune(fragment, '<') {
		return fragment
	}
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), body)
	if err != nil {
		return fragment
	}
	var sb strings.Builder
	for _, n := range nodes {
		extractText(n, &sb)
	}
	return strings.TrimSpace(sb.String())
}

func getAttr(n *html.Node, key string) (string, bool) {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val, true
		}
	}
	return "", false
}
