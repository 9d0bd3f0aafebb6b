package openrouter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/reposcout/internal/domain"
	"github.com/kailas-cloud/reposcout/internal/metrics"
)

// Generator produces text completions via an OpenAI-compatible API
// (OpenRouter by default). It implements domain.Generator.
type Generator struct {
	client  *openai.Client
	model   string
	referer string
	title   string
	logger  *zap.Logger
}

// Config holds the generation provider settings.
type Config struct {
	APIKey  string // empty leaves the generator unconfigured
	BaseURL string
	Model   string
	Referer string // OpenRouter attribution headers
	Title   string
	Logger  *zap.Logger
}

// NewGenerator creates an OpenAI-compatible text-generation provider.
// Without an API key the generator stays unconfigured and every Generate
// call fails with domain.ErrGenerationNotConfigured.
func NewGenerator(cfg *Config) *Generator {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	g := &Generator{
		model:   cfg.Model,
		referer: cfg.Referer,
		title:   cfg.Title,
		logger:  logger,
	}
	if cfg.APIKey == "" {
		return g
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = cfg.BaseURL
	clientCfg.HTTPClient = &http.Client{
		Transport: &attributionTransport{referer: cfg.Referer, title: cfg.Title},
	}
	g.client = openai.NewClientWithConfig(clientCfg)
	return g
}

// Configured implements domain.Generator.
func (g *Generator) Configured() bool { return g.client != nil }

// Generate implements domain.Generator. Returns a single chat completion.
func (g *Generator) Generate(ctx context.Context, req domain.GenerationRequest) (string, error) {
	if g.client == nil {
		return "", domain.ErrGenerationNotConfigured
	}

	apiReq := openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.System},
			{Role: openai.ChatMessageRoleUser, Content: req.User},
		},
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}

	start := time.Now()

	resp, err := g.client.CreateChatCompletion(ctx, apiReq)

	duration := time.Since(start)

	if err != nil {
		metrics.GenerationRequestsTotal.WithLabelValues(g.model, "error").Inc()
		return "", parseAPIError(err)
	}

	if len(resp.Choices) == 0 {
		metrics.GenerationRequestsTotal.WithLabelValues(g.model, "error").Inc()
		return "", fmt.Errorf("empty completion response: %w", domain.ErrGenerationFailed)
	}

	metrics.GenerationRequestsTotal.WithLabelValues(g.model, "success").Inc()
	metrics.GenerationRequestDuration.WithLabelValues(g.model).Observe(duration.Seconds())

	if resp.Usage.TotalTokens > 0 {
		metrics.GenerationTokensTotal.WithLabelValues(g.model, "prompt").
			Add(float64(resp.Usage.PromptTokens))
		metrics.GenerationTokensTotal.WithLabelValues(g.model, "completion").
			Add(float64(resp.Usage.CompletionTokens))
	}

	return resp.Choices[0].Message.Content, nil
}

// attributionTransport adds the OpenRouter app attribution headers to every request.
type attributionTransport struct {
	referer string
	title   string
}

func (t *attributionTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.referer != "" {
		req.Header.Set("HTTP-Referer", t.referer)
	}
	if t.title != "" {
		req.Header.Set("X-Title", t.title)
	}
	return http.DefaultTransport.RoundTrip(req)
}

// parseAPIError extracts a human-readable error from the API response.
// All errors are wrapped with domain.ErrGenerationFailed so callers can
// degrade to their fallback value.
func parseAPIError(err error) error {
	wrap := domain.ErrGenerationFailed

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		detail := extractMessage(reqErr.Body)
		if detail != "" {
			return fmt.Errorf("generation API error %d: %s: %w",
				reqErr.HTTPStatusCode, detail, wrap)
		}
		return fmt.Errorf("generation API error %d: %s: %w",
			reqErr.HTTPStatusCode, string(reqErr.Body), wrap)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("generation API error %d: %s: %w",
			apiErr.HTTPStatusCode, apiErr.Message, wrap)
	}

	return fmt.Errorf("generation request failed: %w", wrap)
}

// extractMessage extracts the "error.message" field from a JSON error body
// (OpenRouter error format).
func extractMessage(body []byte) string {
	var parsed struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Error.Message != "" {
		return parsed.Error.Message
	}
	return ""
}
