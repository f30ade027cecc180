// Package backend talks to the reservation REST API.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tablebook/reservation-client/internal/api/metrics"
	"github.com/tablebook/reservation-client/internal/core/domain"
	"github.com/tablebook/reservation-client/internal/pkg/validation"
)

const maxErrorBody = 64 << 10

// Client is the shared HTTP plumbing of the auth and reservation clients.
type Client struct {
	baseURL  string
	http     *http.Client
	log      zerolog.Logger
	validate *validation.Validator
}

// NewClient builds a Client rooted at baseURL (e.g. http://localhost:5000/api).
// A nil httpClient gets a 15s timeout default.
func NewClient(baseURL string, httpClient *http.Client, log zerolog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     httpClient,
		log:      log,
		validate: validation.New(),
	}
}

// request describes one REST call. Route is the templated path used as the
// metrics label; Path is the concrete one.
type request struct {
	Method      string
	Route       string
	Path        string
	Token       string
	Body        any
	RawBody     io.Reader
	ContentType string
}

// do executes req and decodes a 2xx JSON body into out (when non-nil).
// Failures are *domain.APIError.
func (c *Client) do(ctx context.Context, req request, out any) error {
	body := req.RawBody
	contentType := req.ContentType
	if req.Body != nil {
		raw, err := json.Marshal(req.Body)
		if err != nil {
			return fmt.Errorf("encode %s body: %w", req.Route, err)
		}
		body = bytes.NewReader(raw)
		contentType = "application/json"
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.baseURL+req.Path, body)
	if err != nil {
		return fmt.Errorf("build %s request: %w", req.Route, err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if req.Token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.Token)
	}

	endpoint := req.Method + " " + req.Route
	start := time.Now()
	resp, err := c.http.Do(httpReq)
	metrics.BackendRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		c.log.Warn().Err(err).Str("endpoint", endpoint).Msg("backend unreachable")
		return &domain.APIError{Status: 0, Message: domain.NetworkErrorMessage, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := errorMessage(resp)
		c.log.Debug().Int("status", resp.StatusCode).Str("endpoint", endpoint).Str("message", msg).Msg("backend rejected request")
		return &domain.APIError{Status: resp.StatusCode, Message: msg}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return &domain.APIError{Status: resp.StatusCode, Message: "Invalid response from server", Err: err}
	}
	return nil
}

// errorMessage extracts the backend's message or error field, falling back to
// the status text.
func errorMessage(resp *http.Response) string {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var envelope struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil {
		if envelope.Message != "" {
			return envelope.Message
		}
		if envelope.Error != "" {
			return envelope.Error
		}
	}
	return http.StatusText(resp.StatusCode)
}

type messageResponse struct {
	Message string `json:"message"`
}

// Ping reports whether the backend answers HTTP at all. Any status counts as
// reachable.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL+"/", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}
