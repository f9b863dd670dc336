// Package publish delivers finished posts to social networks.
package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// DefaultTimeout bounds a single HTTP request made by a publisher.
const DefaultTimeout = 30 * time.Second

// Publisher posts a text to one destination.
type Publisher interface {
	Name() string
	Publish(ctx context.Context, text string) error
}

// PublishAll sends text to every publisher in turn and returns the failures
// keyed by publisher name. A failed publisher does not stop the others.
func PublishAll(ctx context.Context, publishers []Publisher, text string, logger *slog.Logger) map[string]error {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	failures := make(map[string]error)
	for _, p := range publishers {
		if err := p.Publish(ctx, text); err != nil {
			failures[p.Name()] = err
			logger.ErrorContext(ctx, "Publish failed",
				slog.String("publisher", p.Name()),
				slog.String("error", err.Error()),
			)
			continue
		}
		logger.InfoContext(ctx, "Post published",
			slog.String("publisher", p.Name()),
			slog.Int("length", len(text)),
		)
	}
	return failures
}

// DryRun logs posts instead of sending them.
type DryRun struct {
	Logger *slog.Logger
}

func (d *DryRun) Name() string { return "dry-run" }

func (d *DryRun) Publish(ctx context.Context, text string) error {
	if d.Logger != nil {
		d.Logger.InfoContext(ctx, "Would have posted", slog.String("text", text))
	}
	return nil
}

// StatusError is returned when a destination answers with a non-2xx status.
type StatusError struct {
	Method string
	URL    string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.URL, e.Code, e.Body)
}

func httpClient(c *http.Client) *http.Client {
	if c != nil {
		return c
	}
	return &http.Client{Timeout: DefaultTimeout}
}

// postJSON sends body as JSON and decodes a 2xx response into out when out
// is not nil.
func postJSON(ctx context.Context, client *http.Client, url string, header http.Header, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}

	resp, err := httpClient(client).Do(req)
	if err != nil {
		return err
	}
	defer func(body io.ReadCloser) {
		_ = body.Close()
	}(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Method: http.MethodPost, URL: url, Code: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}
	if out == nil {
		return nil
	}
	if err = json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("could not decode response from %s: %w", url, err)
	}
	return nil
}
