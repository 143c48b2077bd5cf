package lcdrpc

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/rpc/v2/json2"
)

// Client calls a display server. Errors reported by the server are returned
// as *json2.Error.
type Client struct {
	url string
	hc  *http.Client
}

// NewClient returns a client for the server at url, e.g.
// "http://127.0.0.1:3030". hc may be nil to use http.DefaultClient.
func NewClient(url string, hc *http.Client) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{url: url, hc: hc}
}

// Write writes s at position pos.
func (c *Client) Write(ctx context.Context, pos int, s string) (string, error) {
	return c.call(ctx, "write", WriteParams{Position: pos, String: s})
}

// Clear blanks the display.
func (c *Client) Clear(ctx context.Context) (string, error) {
	return c.call(ctx, "clear", nil)
}

// Reset re-initializes the display.
func (c *Client) Reset(ctx context.Context) (string, error) {
	return c.call(ctx, "reset", nil)
}

// Call invokes any method with raw params. It is meant for tools that need
// to send what the typed methods cannot, such as malformed params.
func (c *Client) Call(ctx context.Context, method string, params any) (string, error) {
	return c.call(ctx, method, params)
}

func (c *Client) call(ctx context.Context, method string, params any) (string, error) {
	body, err := json2.EncodeClientRequest(method, params)
	if err != nil {
		return "", fmt.Errorf("lcdrpc: encode %s: %w", method, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("lcdrpc: %s: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("lcdrpc: %s: %w", method, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("lcdrpc: %s: unexpected status %s", method, resp.Status)
	}

	var result string
	if err := json2.DecodeClientResponse(resp.Body, &result); err != nil {
		return "", err
	}
	return result, nil
}
