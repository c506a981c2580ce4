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

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/khoahotran/internmatch-client/internal/config"
	"github.com/khoahotran/internmatch-client/pkg/apperror"
	"github.com/khoahotran/internmatch-client/pkg/logger"
)

// maxErrorBody bounds how much of an error response is read for its message.
const maxErrorBody = 64 << 10

// Client talks to the InternMatch REST API. It implements
// service.ProfileGateway and service.AuthGateway. Requests are never retried.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     logger.Logger
}

func NewClient(cfg config.Config, log logger.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.API.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout:   cfg.API.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: log.With(zap.String("component", "backend_client")),
	}
}

// WithHTTPClient swaps the underlying HTTP client, e.g. for httptest servers.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

func (c *Client) url(path string) string {
	return c.baseURL + path
}

type request struct {
	method      string
	path        string
	token       string
	body        io.Reader
	contentType string
}

func jsonRequest(method, path, token string, payload any) (request, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return request{}, apperror.NewInternal("encode request body", err)
	}
	return request{
		method:      method,
		path:        path,
		token:       token,
		body:        bytes.NewReader(raw),
		contentType: "application/json",
	}, nil
}

// do sends req and returns the successful response. Any non-2xx status is
// classified and returned as an error; the caller closes the body.
func (c *Client) do(ctx context.Context, req request) (*http.Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, req.method, c.url(req.path), req.body)
	if err != nil {
		return nil, apperror.NewInternal("build request", err)
	}
	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	}
	if req.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.token)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		c.logger.Warn("Backend unreachable", zap.String("method", req.method), zap.String("path", req.path), zap.Error(err))
		return nil, apperror.NewNetwork(fmt.Sprintf("%s %s", req.method, req.path), err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer resp.Body.Close()

	appErr := apperror.FromHTTPStatus(resp.StatusCode, serverMessage(resp.Body))
	appErr.Details = fmt.Sprintf("%s %s: %s", req.method, req.path, http.StatusText(resp.StatusCode))
	c.logger.Debug("Backend rejected request",
		zap.String("method", req.method),
		zap.String("path", req.path),
		zap.Int("status", resp.StatusCode),
	)
	return nil, appErr
}

// serverMessage extracts a human-readable message from an error body such as
// {"message": "..."} or {"error": "..."}.
func serverMessage(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var parsed struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return ""
	}
	if parsed.Message != "" {
		return parsed.Message
	}
	return parsed.Error
}

func (c *Client) doJSON(ctx context.Context, req request, out any) error {
	resp, err := c.do(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperror.NewConflictOrServer(resp.StatusCode, "The server returned an unreadable response", err.Error())
	}
	return nil
}
