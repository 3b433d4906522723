package dbsp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

const maxResponseBytes = 4 << 20

// Successful responses are 200 through 202 inclusive.
const (
	minSuccessStatus = http.StatusOK
	maxSuccessStatus = http.StatusAccepted
)

// checkResponse converts a completed exchange into nil or a *ServerError.
func checkResponse(op string, status int, body []byte) error {
	if status >= minSuccessStatus && status <= maxSuccessStatus {
		return nil
	}
	return &ServerError{Op: op, Status: status, Message: errorMessage(status, body)}
}

func errorMessage(status int, body []byte) string {
	trimmed := bytes.TrimSpace(body)
	var payload errorResponse
	if err := json.Unmarshal(trimmed, &payload); err == nil && strings.TrimSpace(payload.Message) != "" {
		return strings.TrimSpace(payload.Message)
	}
	if len(trimmed) > 0 {
		return string(trimmed)
	}
	if text := http.StatusText(status); text != "" {
		return strings.ToLower(text)
	}
	return "empty response"
}

// call performs one request/response round trip. body, when non-nil, is sent
// as JSON; dest, when non-nil, receives the decoded success payload.
func (c *Connection) call(ctx context.Context, op, method, path string, body, dest any) error {
	reqURL := c.baseURL.ResolveReference(&url.URL{Path: path})

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return fmt.Errorf("%s: create request: %w", op, err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	started := c.clock.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("request failed",
			slog.String("op", op),
			slog.String("method", method),
			slog.String("path", path),
			slog.String("request_id", requestID),
			slog.String("error", err.Error()),
		)
		return &ServerError{Op: op, Message: err.Error(), Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &ServerError{Op: op, Status: resp.StatusCode, Message: "read response: " + err.Error(), Err: err}
	}

	c.logger.Debug("request completed",
		slog.String("op", op),
		slog.String("method", method),
		slog.String("path", path),
		slog.String("request_id", requestID),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", c.clock.Since(started)),
	)

	if err := checkResponse(op, resp.StatusCode, payload); err != nil {
		return err
	}
	if dest == nil {
		return nil
	}
	if err := json.Unmarshal(payload, dest); err != nil {
		return &ProtocolError{Op: op + ": decode response", Value: truncate(string(payload), 200)}
	}
	return nil
}

func parseBaseURL(address string) (*url.URL, error) {
	trimmed := strings.TrimSpace(address)
	if trimmed == "" {
		trimmed = defaultAddress
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse server address %q: %w", address, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse server address %q: missing host", address)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
