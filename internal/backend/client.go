package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"washdesk/internal/config"

	"github.com/rs/zerolog"
	circuit "github.com/rubyist/circuitbreaker"
)

// Client is the gateway to the car-wash REST backend. The backend is the
// system of record; this process never persists booking state of its own.
type Client struct {
	baseURL string
	apiKey  string
	http    *circuit.HTTPClient
	timeout time.Duration
	logger  zerolog.Logger
}

func NewClient(cfg config.BackendConfig, logger *zerolog.Logger) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	var clientLogger zerolog.Logger
	if logger != nil {
		clientLogger = logger.With().Str("component", "backend").Logger()
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		http:    circuit.NewHTTPClient(timeout, cfg.BreakerThreshold, nil),
		timeout: timeout,
		logger:  clientLogger,
	}
}

// envelope is the backend's uniform response wrapper. Success is exactly
// status.remarks == "success"; anything else is a RemarkError.
type envelope struct {
	Status struct {
		Remarks string `json:"remarks"`
		Message string `json:"message"`
	} `json:"status"`
	Payload json.RawMessage `json:"payload"`
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("method", method).Str("path", path).Msg("backend request failed")
		return fmt.Errorf("failed to reach backend: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read backend response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	c.logger.Debug().
		Str("method", method).
		Str("path", path).
		Int("http_status", resp.StatusCode).
		Str("remarks", env.Status.Remarks).
		Dur("duration", time.Since(start)).
		Msg("backend request")

	if env.Status.Remarks != "success" {
		return &RemarkError{Remarks: env.Status.Remarks, Message: env.Status.Message}
	}

	if out != nil {
		if len(env.Payload) == 0 {
			return fmt.Errorf("%w: missing payload", ErrMalformedPayload)
		}
		if err := json.Unmarshal(env.Payload, out); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
		}
	}

	return nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) put(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPut, path, body, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

func (c *Client) delete(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}
