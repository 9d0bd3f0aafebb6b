package diagram

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/reposcout/internal/domain"
	"github.com/kailas-cloud/reposcout/internal/logger"
)

// defaultMaxFiles bounds the serialized tree fed to the generation provider.
const defaultMaxFiles = 50

const systemPrompt = `
You are a Mermaid diagram generator. Create a flowchart diagram that represents the architecture and file structure of a software project.

Rules:
1. Generate a Mermaid flowchart (graph TD format)
2. Show main directories as nodes
3. Group related files under their directories
4. Use meaningful node IDs (A, B, C, etc.)
5. Show relationships between components
6. Keep it simple and readable (max 15-20 nodes)
7. Focus on important files like configs, main source files, tests, docs
8. Use descriptive labels in square brackets
9. IMPORTANT: Use individual connections only (A --> B), never use & operator
10. Each connection must be on its own line

Example format:
graph TD
    A[Project Root] --> B[src/]
    A --> C[tests/]
    B --> D[main.py]
    B --> E[utils.py]
    C --> F[test_main.py]
    D --> E

Return only the Mermaid diagram code, nothing else. Do not use markdown code blocks.
`

// Diagram is one synthesized repository diagram.
type Diagram struct {
	Repository string
	FileCount  int
	Source     string
}

// Service turns a repository file listing into a Mermaid diagram via the
// generation provider, degrading to a deterministic stub when the provider
// is unconfigured or failing.
type Service struct {
	trees    TreeFetcher
	gen      domain.Generator
	maxFiles int
}

// New creates a diagram service.
func New(trees TreeFetcher, gen domain.Generator) *Service {
	return &Service{trees: trees, gen: gen, maxFiles: defaultMaxFiles}
}

// WithMaxFiles overrides how many file entries are fed to the provider.
func (s *Service) WithMaxFiles(n int) *Service {
	if n > 0 {
		s.maxFiles = n
	}
	return s
}

// Generate fetches the repository tree and synthesizes a diagram for it.
func (s *Service) Generate(ctx context.Context, owner, repo string) (Diagram, error) {
	files, err := s.trees.Tree(ctx, owner, repo)
	if err != nil {
		return Diagram{}, fmt.Errorf("fetch tree: %w", err)
	}
	if len(files) == 0 {
		return Diagram{}, fmt.Errorf("%s/%s: %w", owner, repo, domain.ErrEmptyTree)
	}

	name := owner + "/" + repo
	return Diagram{
		Repository: name,
		FileCount:  len(files),
		Source:     s.Synthesize(ctx, name, files),
	}, nil
}

// Synthesize builds the directory tree, serializes it, and asks the provider
// for a Mermaid flowchart. Provider failures degrade to a stub diagram
// instead of an error.
func (s *Service) Synthesize(ctx context.Context, repoName string, files []domain.FileEntry) string {
	if s.gen == nil || !s.gen.Configured() {
		return fmt.Sprintf("graph TD\n    A[%s] --> B[No API key configured]", repoName)
	}

	structure := domain.BuildTree(files, s.maxFiles).Serialize()

	out, err := s.gen.Generate(ctx, domain.GenerationRequest{
		System:      systemPrompt,
		User:        fmt.Sprintf("Repository: %s\n\nFile structure:\n%s", repoName, structure),
		MaxTokens:   400,
		Temperature: 0.3,
	})
	if err != nil {
		logger.FromContext(ctx).Warn("diagram generation failed, using stub",
			zap.String("repository", repoName),
			zap.Error(err),
		)
		return errorStub(repoName, err)
	}

	return RepairMermaid(out)
}

// errorStub names the repository and carries a truncated error detail so the
// rendered diagram explains itself.
func errorStub(repoName string, err error) string {
	detail := err.Error()
	if len(detail) > 50 {
		detail = detail[:50]
	}
	return fmt.Sprintf(
		"graph TD\n    A[%s] --> B[Error generating diagram]\n    B --> C[%s...]",
		repoName, detail,
	)
}

// RepairMermaid post-processes raw model output into valid Mermaid source:
// strips markdown code fences, rewrites the invalid "A & B --> C" multi-source
// form into one connection per line, and ensures the graph directive is present.
func RepairMermaid(raw string) string {
	text := strings.TrimSpace(raw)

	if strings.HasPrefix(text, "```mermaid") {
		text = strings.ReplaceAll(text, "```mermaid", "")
		text = strings.ReplaceAll(text, "```", "")
		text = strings.TrimSpace(text)
	} else if strings.HasPrefix(text, "```") {
		text = strings.ReplaceAll(text, "```", "")
		text = strings.TrimSpace(text)
	}

	lines := strings.Split(text, "\n")
	fixed := make([]string, 0, len(lines))
	for _, line := range lines {
		if !strings.Contains(line, "&") || !strings.Contains(line, "-->") {
			fixed = append(fixed, line)
			continue
		}
		parts := strings.Split(line, "-->")
		if len(parts) != 2 {
			fixed = append(fixed, line)
			continue
		}
		left := strings.TrimSpace(parts[0])
		right := strings.TrimSpace(parts[1])
		if !strings.Contains(left, "&") {
			fixed = append(fixed, line)
			continue
		}
		for _, source := range strings.Split(left, "&") {
			fixed = append(fixed, fmt.Sprintf("    %s --> %s", strings.TrimSpace(source), right))
		}
	}
	text = strings.Join(fixed, "\n")

	if !strings.HasPrefix(text, "graph") {
		text = "graph TD\n" + text
	}
	return text
}
