package diagram

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kailas-cloud/reposcout/internal/domain"
)

type mockTrees struct {
	files []domain.FileEntry
	err   error
}

func (m *mockTrees) Tree(_ context.Context, _, _ string) ([]domain.FileEntry, error) {
	return m.files, m.err
}

type mockGenerator struct {
	configured bool
	output     string
	err        error
	lastReq    domain.GenerationRequest
}

func (m *mockGenerator) Configured() bool { return m.configured }

func (m *mockGenerator) Generate(_ context.Context, req domain.GenerationRequest) (string, error) {
	m.lastReq = req
	if m.err != nil {
		return "", m.err
	}
	return m.output, nil
}

func TestRepairMermaid_SplitsMultiSourceConnections(t *testing.T) {
	got := RepairMermaid("graph TD\n    A & B --> C")

	lines := strings.Split(got, "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d:\n%s", len(lines), got)
	}
	if lines[1] != "    A --> C" || lines[2] != "    B --> C" {
		t.Errorf("bad split:\n%s", got)
	}
	for _, line := range lines {
		if strings.Contains(line, "&") {
			t.Errorf("output still contains the & operator: %q", line)
		}
	}
}

func TestRepairMermaid_StripsCodeFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"mermaid fence", "```mermaid\ngraph TD\n    A --> B\n```"},
		{"bare fence", "```\ngraph TD\n    A --> B\n```"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RepairMermaid(tt.in)
			if strings.Contains(got, "```") {
				t.Errorf("fence marker survived:\n%s", got)
			}
			if !strings.HasPrefix(got, "graph TD") {
				t.Errorf("expected graph directive first:\n%s", got)
			}
		})
	}
}

func TestRepairMermaid_PrependsDirective(t *testing.T) {
	got := RepairMermaid("    A[Root] --> B[src/]")
	if !strings.HasPrefix(got, "graph TD\n") {
		t.Errorf("missing graph directive:\n%s", got)
	}
}

func TestRepairMermaid_KeepsValidLines(t *testing.T) {
	in := "graph TD\n    A --> B\n    B --> C"
	if got := RepairMermaid(in); got != in {
		t.Errorf("valid input modified:\ngot:\n%s\nwant:\n%s", got, in)
	}
}

func TestSynthesize_NotConfiguredStub(t *testing.T) {
	svc := New(&mockTrees{}, &mockGenerator{configured: false})

	got := svc.Synthesize(context.Background(), "owner/repo", []domain.FileEntry{{Path: "main.go"}})
	if !strings.HasPrefix(got, "graph TD") {
		t.Errorf("stub is not a diagram:\n%s", got)
	}
	if !strings.Contains(got, "owner/repo") || !strings.Contains(got, "No API key configured") {
		t.Errorf("stub should name the repository and the missing key:\n%s", got)
	}
}

func TestSynthesize_ErrorStub(t *testing.T) {
	gen := &mockGenerator{configured: true, err: errors.New(strings.Repeat("x", 120))}
	svc := New(&mockTrees{}, gen)

	got := svc.Synthesize(context.Background(), "owner/repo", []domain.FileEntry{{Path: "main.go"}})
	if !strings.Contains(got, "Error generating diagram") {
		t.Errorf("expected error stub:\n%s", got)
	}
	// Detail is truncated to 50 characters plus the ellipsis.
	if strings.Contains(got, strings.Repeat("x", 51)) {
		t.Errorf("error detail not truncated:\n%s", got)
	}
}

func TestSynthesize_SendsSerializedTree(t *testing.T) {
	gen := &mockGenerator{configured: true, output: "graph TD\n    A --> B"}
	svc := New(&mockTrees{}, gen)

	files := []domain.FileEntry{
		{Path: "src/main.go", Size: 100},
		{Path: "README.md", Size: 5},
	}
	_ = svc.Synthesize(context.Background(), "o/r", files)

	if !strings.Contains(gen.lastReq.User, "Repository: o/r") {
		t.Errorf("prompt missing repository name:\n%s", gen.lastReq.User)
	}
	if !strings.Contains(gen.lastReq.User, "src/") || !strings.Contains(gen.lastReq.User, "  main.go (100 bytes)") {
		t.Errorf("prompt missing serialized structure:\n%s", gen.lastReq.User)
	}
}

func TestSynthesize_LimitsFiles(t *testing.T) {
	gen := &mockGenerator{configured: true, output: "graph TD\n    A --> B"}
	svc := New(&mockTrees{}, gen).WithMaxFiles(1)

	files := []domain.FileEntry{
		{Path: "kept.go", Size: 1},
		{Path: "cut.go", Size: 1},
	}
	_ = svc.Synthesize(context.Background(), "o/r", files)

	if strings.Contains(gen.lastReq.User, "cut.go") {
		t.Errorf("file beyond the limit leaked into the prompt:\n%s", gen.lastReq.User)
	}
}

func TestGenerate_EmptyTree(t *testing.T) {
	svc := New(&mockTrees{files: nil}, &mockGenerator{configured: true})

	_, err := svc.Generate(context.Background(), "owner", "repo")
	if !errors.Is(err, domain.ErrEmptyTree) {
		t.Fatalf("expected ErrEmptyTree, got %v", err)
	}
}

func TestGenerate_TreeFetchError(t *testing.T) {
	svc := New(&mockTrees{err: domain.ErrRepoNotFound}, &mockGenerator{configured: true})

	_, err := svc.Generate(context.Background(), "owner", "repo")
	if !errors.Is(err, domain.ErrRepoNotFound) {
		t.Fatalf("expected ErrRepoNotFound, got %v", err)
	}
}

func TestGenerate_Success(t *testing.T) {
	gen := &mockGenerator{configured: true, output: "graph TD\n    A --> B"}
	svc := New(&mockTrees{files: []domain.FileEntry{{Path: "main.go", Size: 10}}}, gen)

	d, err := svc.Generate(context.Background(), "owner", "repo")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Repository != "owner/repo" {
		t.Errorf("Repository = %q", d.Repository)
	}
	if d.FileCount != 1 {
		t.Errorf("FileCount = %d, want 1", d.FileCount)
	}
	if !strings.HasPrefix(d.Source, "graph TD") {
		t.Errorf("Source = %q", d.Source)
	}
}
