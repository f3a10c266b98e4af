// Package client is the HTTP and websocket side of the messaging core. It
// implements the data-fetch interfaces the core packages depend on against
// the messaging API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"storefront-messaging/internal/models"
)

const defaultTimeout = 30 * time.Second

var tracer = otel.Tracer("storefront-messaging/client")

// Client talks to the messaging API on behalf of one signed-in user.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client

	mu   sync.Mutex
	user *models.CurrentUser
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithToken sets the bearer token sent with every request.
func WithToken(token string) ClientOption {
	return func(c *Client) {
		c.token = token
	}
}

func New(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// APIError is a failed envelope. It unwraps to the models sentinel for its
// code, so callers can use errors.Is(err, models.ErrNotFound).
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("messaging API error: %s (status: %d, code: %s)", e.Message, e.Status, e.Code)
}

func (e *APIError) Unwrap() error {
	return models.ErrorForCode(e.Code)
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body any) (*http.Request, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

// call builds, sends and decodes one request.
func (c *Client) call(ctx context.Context, method, path string, query url.Values, body, out any) error {
	req, err := c.newRequest(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	ctx, span := tracer.Start(req.Context(), req.Method+" "+req.URL.Path)
	defer span.End()
	req = req.WithContext(ctx)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport")
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	var env models.Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		if resp.StatusCode >= 400 {
			return &APIError{Status: resp.StatusCode, Code: codeForStatus(resp.StatusCode), Message: strings.TrimSpace(string(body))}
		}
		return fmt.Errorf("decoding response: %w", err)
	}

	if !env.Success || resp.StatusCode >= 400 {
		apiErr := &APIError{Status: resp.StatusCode, Code: codeForStatus(resp.StatusCode)}
		if env.Error != nil {
			apiErr.Code = env.Error.Code
			apiErr.Message = env.Error.Message
		}
		span.SetStatus(codes.Error, apiErr.Code)
		return apiErr
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusNotFound:
		return models.CodeNotFound
	case http.StatusUnauthorized:
		return models.CodeUnauthorized
	case http.StatusForbidden:
		return models.CodeForbidden
	case http.StatusBadRequest:
		return models.CodeInvalidRequest
	}
	return models.CodeInternal
}
