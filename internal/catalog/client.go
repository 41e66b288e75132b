// Package catalog is a client for the TMDb v3 REST API. It knows how to turn
// an Endpoint into an authenticated request, how to classify the response
// status into the core error taxonomy, and how to decode JSON payloads.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/vadimtrunov/CineShelf/internal/core"
	"github.com/vadimtrunov/CineShelf/internal/httpclient"
)

// DefaultBaseURL is the TMDb v3 API root.
const DefaultBaseURL = "https://api.themoviedb.org/3"

// Config holds catalog client settings.
type Config struct {
	BaseURL string
	// Token is the TMDb v4 read access token sent as a Bearer credential.
	Token string
	HTTP  httpclient.Config
}

// Client issues requests against the catalog API.
type Client struct {
	baseURL *url.URL
	token   string
	http    *httpclient.Client
	logger  *slog.Logger
}

// New creates a catalog client. It fails only when the base URL is unusable.
func New(cfg Config, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	raw := cfg.BaseURL
	if raw == "" {
		raw = DefaultBaseURL
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", raw, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q: must be an absolute http(s) URL", raw)
	}
	return &Client{
		baseURL: u,
		token:   cfg.Token,
		http:    httpclient.New(cfg.HTTP, logger),
		logger:  logger,
	}, nil
}

// Fetch performs ep and decodes the JSON response body into out.
// Failures are returned as *core.Error.
func (c *Client) Fetch(ctx context.Context, ep Endpoint, out any) error {
	req, err := c.newRequest(ctx, ep)
	if err != nil {
		return err
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return &core.Error{Kind: core.KindTransport, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &core.Error{Kind: core.KindInvalidResponse, StatusCode: resp.StatusCode, Err: err}
	}

	c.logger.Debug("catalog request",
		slog.String("method", ep.Method),
		slog.String("path", ep.Path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("elapsed", time.Since(start)),
	)

	if cerr := classifyStatus(resp.StatusCode); cerr != nil {
		if cerr.IsUnauthorized() {
			c.logger.Warn("catalog rejected the access token, check tmdb.api_key",
				slog.String("path", ep.Path), slog.Int("status", resp.StatusCode))
		}
		return cerr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		c.logger.Warn("catalog response could not be decoded",
			slog.String("path", ep.Path),
			slog.String("error", err.Error()),
		)
		return &core.Error{Kind: core.KindDecode, StatusCode: resp.StatusCode, Err: err}
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, ep Endpoint) (*http.Request, error) {
	method := ep.Method
	if method == "" {
		method = http.MethodGet
	}

	u := c.baseURL.JoinPath(ep.Path)
	if len(ep.Query) > 0 {
		u.RawQuery = ep.Query.Encode()
	}

	var body io.Reader = http.NoBody
	if ep.Body != nil {
		data, err := json.Marshal(ep.Body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// classifyStatus maps a non-2xx status to the error taxonomy.
func classifyStatus(status int) *core.Error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusTooManyRequests:
		return &core.Error{Kind: core.KindRateLimited, StatusCode: status}
	case status >= 400 && status < 600:
		return &core.Error{Kind: core.KindStatus, StatusCode: status}
	default:
		return &core.Error{Kind: core.KindUnknown, StatusCode: status}
	}
}
