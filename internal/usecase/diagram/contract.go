package diagram

import (
	"context"

	"github.com/kailas-cloud/reposcout/internal/domain"
)

// TreeFetcher lists a repository's files (blobs only, recursive).
type TreeFetcher interface {
	Tree(ctx context.Context, owner, repo string) ([]domain.FileEntry, error)
}
