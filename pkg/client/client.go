// Package client issues streaming chat requests to the advisor API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/folio/pkg/llm"
)

const (
	chatPath = "/chat"

	// RequestIDHeader carries a per-request UUID for correlating client and
	// server logs.
	RequestIDHeader = "X-Request-ID"

	// maxErrorBody bounds how much of a rejected response is read.
	maxErrorBody = 64 * 1024

	unknownErrorDetail = "Unknown error"
)

// ErrNoBody is returned when a successful response has no readable body.
var ErrNoBody = errors.New("no response body")

// StatusError is returned when the chat endpoint answers with a non-2xx
// status. Detail is the server's "detail" message when one was provided.
type StatusError struct {
	StatusCode int
	Detail     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("chat request rejected with status %d: %s", e.StatusCode, e.Detail)
}

// Config is the client configuration.
type Config struct {
	// BaseURL is the API root, e.g. "http://localhost:8000/api/v1".
	BaseURL string

	// Timeout bounds the whole exchange, including streaming the body.
	// Zero means no timeout.
	Timeout time.Duration

	// HTTPClient overrides the default http.Client. Timeout is ignored when
	// it is set.
	HTTPClient *http.Client
}

// Client talks to the streaming chat endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// New creates a Client.
func New(cfg Config, logger *slog.Logger) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			// LLM responses can be slow
			Timeout: cfg.Timeout,
		}
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: httpClient,
		logger:     logger.With(slog.String("module", "client")),
	}
}

// StreamChat POSTs req and returns the streaming response body. The caller
// must close the body. Non-2xx responses are returned as *StatusError with
// the body already consumed and closed.
func (c *Client) StreamChat(ctx context.Context, req llm.ChatRequest) (io.ReadCloser, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	requestID := uuid.NewString()
	url := c.baseURL + chatPath

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set(RequestIDHeader, requestID)

	c.logger.Debug("sending chat request",
		slog.String("url", url),
		slog.String("request_id", requestID),
		slog.Int("message_count", len(req.Messages)),
		slog.Bool("portfolio_context", req.PortfolioContext != nil),
	)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("sending chat request: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

		c.logger.Warn("chat request rejected",
			slog.String("request_id", requestID),
			slog.Int("status", resp.StatusCode),
		)
		return nil, &StatusError{
			StatusCode: resp.StatusCode,
			Detail:     errorDetail(respBody),
		}
	}

	if resp.Body == nil || resp.Body == http.NoBody {
		return nil, ErrNoBody
	}

	return resp.Body, nil
}

// errorDetail extracts the human-readable "detail" from an error body.
// Validation failures carry a list of objects with "msg" fields; those are
// joined. Anything unparsable falls back to a generic message.
func errorDetail(body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Detail) == 0 {
		return unknownErrorDetail
	}

	var detail string
	if err := json.Unmarshal(payload.Detail, &detail); err == nil && detail != "" {
		return detail
	}

	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(payload.Detail, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, item := range items {
			if item.Msg != "" {
				msgs = append(msgs, item.Msg)
			}
		}
		if len(msgs) > 0 {
			return strings.Join(msgs, "; ")
		}
	}

	return unknownErrorDetail
}
