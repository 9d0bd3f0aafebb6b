package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/reposcout/internal/domain"
	"github.com/kailas-cloud/reposcout/internal/metrics"
)

// Preview fetch placeholders. These are response values, not errors: a missing
// README must not fail the repository it belongs to.
const (
	PreviewNotFound     = "No README found"
	PreviewAccessDenied = "README available (add GitHub token for preview)"

	previewLength = 100
)

// Client talks to the GitHub REST API: repository search, README previews,
// and recursive tree listings.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	logger     *zap.Logger
}

// Config holds GitHub client settings.
type Config struct {
	BaseURL string
	Token   string // optional, raises rate limits and unlocks private previews
	Timeout time.Duration
	Logger  *zap.Logger
}

// NewClient creates a GitHub API client.
func NewClient(cfg *Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      cfg.Token,
		logger:     logger,
	}
}

// searchResponse mirrors the GitHub repository search payload.
type searchResponse struct {
	TotalCount int        `json:"total_count"`
	Items      []repoItem `json:"items"`
}

type repoItem struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	FullName    string   `json:"full_name"`
	Description string   `json:"description"`
	Topics      []string `json:"topics"`
	Stars       int      `json:"stargazers_count"`
	Forks       int      `json:"forks_count"`
	Language    string   `json:"language"`
	HTMLURL     string   `json:"html_url"`
	UpdatedAt   string   `json:"updated_at"`
	Owner       struct {
		Login string `json:"login"`
	} `json:"owner"`
}

// SearchRepos searches repositories sorted by stars descending.
// Returns the parsed records and the provider's total match count.
func (c *Client) SearchRepos(ctx context.Context, query string, perPage int) ([]domain.Repo, int, error) {
	if perPage > 100 {
		perPage = 100 // provider page limit
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("sort", "stars")
	params.Set("order", "desc")
	params.Set("per_page", strconv.Itoa(perPage))

	var resp searchResponse
	if err := c.getJSON(ctx, "search", "/search/repositories?"+params.Encode(), &resp); err != nil {
		return nil, 0, fmt.Errorf("search repositories %q: %w", query, err)
	}

	repos := make([]domain.Repo, 0, len(resp.Items))
	for _, item := range resp.Items {
		repos = append(repos, domain.Repo{
			ID:          item.ID,
			Owner:       item.Owner.Login,
			Name:        item.Name,
			FullName:    item.FullName,
			Description: item.Description,
			Topics:      item.Topics,
			Stars:       item.Stars,
			Forks:       item.Forks,
			Language:    item.Language,
			HTMLURL:     item.HTMLURL,
			UpdatedAt:   item.UpdatedAt,
		})
	}
	return repos, resp.TotalCount, nil
}

// ReadmePreview fetches the repository README and returns its first
// characters with newlines collapsed to spaces. A missing or inaccessible
// README yields a placeholder string, not an error.
func (c *Client) ReadmePreview(ctx context.Context, owner, repo string) (string, error) {
	var payload struct {
		Content string `json:"content"`
	}

	path := fmt.Sprintf("/repos/%s/%s/readme", url.PathEscape(owner), url.PathEscape(repo))
	err := c.getJSON(ctx, "readme", path, &payload)
	switch {
	case err == nil:
	case isStatus(err, http.StatusNotFound):
		return PreviewNotFound, nil
	case isStatus(err, http.StatusForbidden):
		return PreviewAccessDenied, nil
	default:
		return "", fmt.Errorf("fetch readme %s/%s: %w", owner, repo, err)
	}

	// GitHub wraps base64 content in line breaks.
	raw, err := base64.StdEncoding.DecodeString(strings.Join(strings.Fields(payload.Content), ""))
	if err != nil {
		return "", fmt.Errorf("decode readme %s/%s: %w", owner, repo, err)
	}

	preview := []rune(string(raw))
	if len(preview) > previewLength {
		preview = preview[:previewLength]
	}
	return strings.TrimSpace(strings.ReplaceAll(string(preview), "\n", " ")), nil
}

// treeResponse mirrors the GitHub git tree payload.
type treeResponse struct {
	Tree []struct {
		Path string `json:"path"`
		Type string `json:"type"`
		Size int64  `json:"size"`
	} `json:"tree"`
}

// Tree fetches the full recursive file listing of the default branch.
// Only blob entries are returned; directories are dropped.
func (c *Client) Tree(ctx context.Context, owner, repo string) ([]domain.FileEntry, error) {
	path := fmt.Sprintf("/repos/%s/%s/git/trees/HEAD?recursive=1",
		url.PathEscape(owner), url.PathEscape(repo))

	var resp treeResponse
	err := c.getJSON(ctx, "tree", path, &resp)
	switch {
	case err == nil:
	case isStatus(err, http.StatusNotFound):
		return nil, fmt.Errorf("tree %s/%s: %w", owner, repo, domain.ErrRepoNotFound)
	case isStatus(err, http.StatusForbidden):
		return nil, fmt.Errorf("tree %s/%s: %w", owner, repo, domain.ErrRepoAccessDenied)
	default:
		return nil, fmt.Errorf("fetch tree %s/%s: %w", owner, repo, err)
	}

	files := make([]domain.FileEntry, 0, len(resp.Tree))
	for _, item := range resp.Tree {
		if item.Type != "blob" {
			continue
		}
		files = append(files, domain.FileEntry{Path: item.Path, Size: item.Size})
	}
	return files, nil
}

// statusError carries a non-2xx response status for errors.As matching at call sites.
type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("github API status %d: %s", e.status, e.body)
}

func isStatus(err error, status int) bool {
	var se *statusError
	return errors.As(err, &se) && se.status == status
}

// getJSON performs one GET request and decodes the JSON body, recording
// per-operation metrics and wrapping provider failures.
func (c *Client) getJSON(ctx context.Context, operation, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if c.token != "" {
		req.Header.Set("Authorization", "token "+c.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		metrics.GitHubRequestsTotal.WithLabelValues(operation, "error").Inc()
		return fmt.Errorf("%w: %w", domain.ErrSearchProviderError, err)
	}
	defer func() { _ = resp.Body.Close() }()

	metrics.GitHubRequestDuration.WithLabelValues(operation).Observe(duration.Seconds())

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		metrics.GitHubRequestsTotal.WithLabelValues(operation, strconv.Itoa(resp.StatusCode)).Inc()
		c.logger.Debug("github request failed",
			zap.String("operation", operation),
			zap.Int("status", resp.StatusCode),
		)
		return fmt.Errorf("%w: %w", domain.ErrSearchProviderError,
			&statusError{status: resp.StatusCode, body: readSnippet(resp)})
	}

	metrics.GitHubRequestsTotal.WithLabelValues(operation, "success").Inc()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s response: %w", domain.ErrSearchProviderError, operation, err)
	}
	return nil
}

// readSnippet reads a short prefix of the response body for error messages.
func readSnippet(resp *http.Response) string {
	buf := make([]byte, 256)
	n, _ := resp.Body.Read(buf)
	return strings.TrimSpace(string(buf[:n]))
}
