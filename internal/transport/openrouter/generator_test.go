package openrouter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/reposcout/internal/domain"
	"github.com/kailas-cloud/reposcout/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterProviderMetrics()
	os.Exit(m.Run())
}

// chatCompletionResponse mirrors the OpenAI-compatible chat completion payload.
type chatCompletionResponse struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

func TestGenerator_Generate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("unexpected auth header: %s", r.Header.Get("Authorization"))
		}
		if r.Header.Get("HTTP-Referer") != "https://reposcout.local" {
			t.Errorf("missing attribution referer header")
		}
		if r.Header.Get("X-Title") != "reposcout" {
			t.Errorf("missing attribution title header")
		}

		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
			MaxTokens int `json:"max_tokens"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Model != "test-model" {
			t.Errorf("model = %q", req.Model)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" || req.Messages[1].Role != "user" {
			t.Errorf("unexpected messages: %+v", req.Messages)
		}
		if req.MaxTokens != 50 {
			t.Errorf("max_tokens = %d, want 50", req.MaxTokens)
		}

		resp := chatCompletionResponse{ID: "cmpl-1", Object: "chat.completion"}
		resp.Choices = append(resp.Choices, struct {
			Index   int `json:"index"`
			Message struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"message"`
		}{})
		resp.Choices[0].Message.Role = "assistant"
		resp.Choices[0].Message.Content = "bird detection\naudio classification\nsound recognition"
		resp.Usage.PromptTokens = 80
		resp.Usage.CompletionTokens = 12
		resp.Usage.TotalTokens = 92

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	gen := NewGenerator(&Config{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "test-model",
		Referer: "https://reposcout.local",
		Title:   "reposcout",
		Logger:  zap.NewNop(),
	})
	if !gen.Configured() {
		t.Fatal("expected generator to be configured")
	}

	out, err := gen.Generate(context.Background(), domain.GenerationRequest{
		System:      "expand the query",
		User:        "detect bird sound",
		MaxTokens:   50,
		Temperature: 0.3,
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if out != "bird detection\naudio classification\nsound recognition" {
		t.Errorf("unexpected completion: %q", out)
	}
}

func TestGenerator_NotConfigured(t *testing.T) {
	gen := NewGenerator(&Config{Model: "test-model"})

	if gen.Configured() {
		t.Error("expected unconfigured generator")
	}

	_, err := gen.Generate(context.Background(), domain.GenerationRequest{User: "x"})
	if !errors.Is(err, domain.ErrGenerationNotConfigured) {
		t.Fatalf("expected ErrGenerationNotConfigured, got %v", err)
	}
}

func TestGenerator_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = w.Write([]byte(`{"error":{"message":"insufficient credits"}}`))
	}))
	defer server.Close()

	gen := NewGenerator(&Config{APIKey: "k", BaseURL: server.URL, Model: "m", Logger: zap.NewNop()})

	_, err := gen.Generate(context.Background(), domain.GenerationRequest{User: "x"})
	if !errors.Is(err, domain.ErrGenerationFailed) {
		t.Fatalf("expected ErrGenerationFailed, got %v", err)
	}
}

func TestGenerator_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"cmpl-1","object":"chat.completion","choices":[]}`))
	}))
	defer server.Close()

	gen := NewGenerator(&Config{APIKey: "k", BaseURL: server.URL, Model: "m", Logger: zap.NewNop()})

	_, err := gen.Generate(context.Background(), domain.GenerationRequest{User: "x"})
	if !errors.Is(err, domain.ErrGenerationFailed) {
		t.Fatalf("expected ErrGenerationFailed, got %v", err)
	}
}
