package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultTimeout bounds a single HTTP request made by a provider.
const DefaultTimeout = 30 * time.Second

const userAgent = "ebooks/1.0"

func httpClient(c *http.Client) *http.Client {
	if c != nil {
		return c
	}
	return &http.Client{Timeout: DefaultTimeout}
}

// get performs a GET request and returns the body of a 2xx response.
func get(ctx context.Context, client *http.Client, url string, header http.Header) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	for k, v := range header {
		req.Header[k] = v
	}

	resp, err := httpClient(client).Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		_ = resp.Body.Close()
		return nil, fmt.Errorf("GET %s: %s: %s", url, resp.Status, strings.TrimSpace(string(body)))
	}
	return resp.Body, nil
}

func getJSON(ctx context.Context, client *http.Client, url string, header http.Header, out any) error {
	body, err := get(ctx, client, url, header)
	if err != nil {
		return err
	}
	defer func(body io.ReadCloser) {
		_ = body.Close()
	}(body)

	if err = json.NewDecoder(body).Decode(out); err != nil {
		return fmt.Errorf("could not decode response from %s: %w", url, err)
	}
	return nil
}

// normalizeHandle strips the list brackets, quotes and leading @ that
// account settings often carry.
func normalizeHandle(handle string) string {
	return strings.TrimLeft(strings.Trim(handle, `[]"' `), "@")
}
