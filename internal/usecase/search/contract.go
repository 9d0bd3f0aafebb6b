package search

import (
	"context"

	"github.com/kailas-cloud/reposcout/internal/domain"
)

// RepoSearcher issues one query against the repository search provider.
type RepoSearcher interface {
	SearchRepos(ctx context.Context, query string, perPage int) ([]domain.Repo, int, error)
}

// PreviewFetcher fetches a short README excerpt for one repository.
type PreviewFetcher interface {
	ReadmePreview(ctx context.Context, owner, repo string) (string, error)
}

// Expander produces search phrase variations from the original query.
type Expander interface {
	Expand(ctx context.Context, phrase string) []string
}
