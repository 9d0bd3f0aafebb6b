package expand

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/reposcout/internal/domain"
	"github.com/kailas-cloud/reposcout/internal/logger"
)

// MaxVariations is the number of alternative search phrases requested
// from the generation provider.
const MaxVariations = 3

const systemPrompt = `
You are a GitHub search query optimizer. Generate 3 different search variations for the same natural language request to maximize repository discovery.

Rules:
1. Generate exactly 3 variations, each 2-3 words
2. Each variation should approach the same concept from different angles
3. Use different technical terminology and synonyms
4. Remove unnecessary words like "I want", "find", "solution", "help me"
5. Focus on core functionality, implementation, and related concepts

Format: Return the 3 variations separated by newlines, nothing else.

Examples:
- "I want to find a solution to detect bird sound" →
bird detection
audio classification
sound recognition

- "help me build a web scraper" →
web scraper
html parser
data extraction

- "looking for machine learning models for text" →
machine learning
text classification
natural language

Generate 3 search variations, one per line:
`

// Service turns one free-text phrase into up to three short search keyword
// variations. Expansion is best-effort: without a configured generator, or on
// any provider failure, the original phrase is returned unchanged.
type Service struct {
	gen domain.Generator
}

// New creates a query expansion service.
func New(gen domain.Generator) *Service {
	return &Service{gen: gen}
}

// Expand returns 1 to 3 search phrases derived from the input. Never fails.
func (s *Service) Expand(ctx context.Context, phrase string) []string {
	fallback := []string{phrase}

	if s.gen == nil || !s.gen.Configured() {
		return fallback
	}

	out, err := s.gen.Generate(ctx, domain.GenerationRequest{
		System:      systemPrompt,
		User:        phrase,
		MaxTokens:   50,
		Temperature: 0.3,
	})
	if err != nil {
		logger.FromContext(ctx).Warn("query expansion failed, using original phrase",
			zap.String("phrase", phrase),
			zap.Error(err),
		)
		return fallback
	}

	variations := make([]string, 0, MaxVariations)
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		variations = append(variations, line)
		if len(variations) == MaxVariations {
			break
		}
	}
	if len(variations) == 0 {
		return fallback
	}
	return variations
}
