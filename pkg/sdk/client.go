package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Sentinel errors mapped from the API error envelope. Use errors.Is() to check.
var (
	ErrBadRequest       = errors.New("bad request")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrRepoNotFound     = errors.New("repository not found")
	ErrRepoAccessDenied = errors.New("repository access denied")
	ErrProviderFailure  = errors.New("upstream provider failure")
	ErrServerError      = errors.New("server error")
)

// Client is the reposcout API client.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Option configures the Client.
type Option interface {
	apply(*Client)
}

type optionFunc func(*Client)

func (f optionFunc) apply(c *Client) { f(c) }

// WithAPIKey sets the bearer token sent with every request.
func WithAPIKey(key string) Option {
	return optionFunc(func(c *Client) {
		c.apiKey = key
	})
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return optionFunc(func(c *Client) {
		c.httpClient = hc
	})
}

// WithTimeout sets the per-request timeout. Default: 120s — search responses
// include sequential README backfill and can legitimately take a while.
func WithTimeout(d time.Duration) Option {
	return optionFunc(func(c *Client) {
		c.httpClient.Timeout = d
	})
}

// New creates a reposcout API client.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
	for _, o := range opts {
		o.apply(c)
	}
	return c
}

// Search runs a repository search with query expansion and relevance ranking.
func (c *Client) Search(ctx context.Context, req SearchRequest) (SearchResponse, error) {
	var resp SearchResponse
	if err := c.post(ctx, "/search", req, &resp); err != nil {
		return SearchResponse{}, err
	}
	return resp, nil
}

// Diagram synthesizes a Mermaid diagram for one repository.
func (c *Client) Diagram(ctx context.Context, owner, repo string) (DiagramResponse, error) {
	body := struct {
		Owner string `json:"owner"`
		Repo  string `json:"repo"`
	}{Owner: owner, Repo: repo}

	var resp DiagramResponse
	if err := c.post(ctx, "/diagram", body, &resp); err != nil {
		return DiagramResponse{}, err
	}
	return resp, nil
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// decodeError maps the API error envelope to a sentinel error.
func decodeError(resp *http.Response) error {
	var envelope struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&envelope)

	sentinel := sentinelForStatus(resp.StatusCode)
	if envelope.Message != "" {
		return fmt.Errorf("%s: %w", envelope.Message, sentinel)
	}
	return fmt.Errorf("status %d: %w", resp.StatusCode, sentinel)
}

func sentinelForStatus(status int) error {
	switch status {
	case http.StatusBadRequest:
		return ErrBadRequest
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrRepoNotFound
	case http.StatusForbidden:
		return ErrRepoAccessDenied
	case http.StatusBadGateway:
		return ErrProviderFailure
	default:
		return ErrServerError
	}
}
