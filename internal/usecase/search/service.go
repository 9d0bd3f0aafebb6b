package search

import (
	"context"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/reposcout/internal/domain"
	"github.com/kailas-cloud/reposcout/internal/logger"
)

// PreviewUnavailable is substituted for a repository whose README fetch failed.
// A single broken preview never fails the whole search.
const PreviewUnavailable = "README fetch failed"

// Default merge parameters, overridable via WithLimits / WithPreviewDelay.
const (
	defaultPerVariation = 15
	defaultLimit        = 10
	defaultMaxLimit     = 30
	defaultPreviewDelay = 200 * time.Millisecond
)

// Request is one search call.
type Request struct {
	Query             string
	PreferredLanguage string
	Limit             int // 0 means the service default
}

// Result is a merged, ranked, truncated search outcome.
type Result struct {
	Variations  []string
	TotalUnique int
	Repos       []domain.Repo
}

// Service expands the query, fans the variations out to the search provider,
// merges and re-ranks the unique results, and backfills README previews for
// the surviving top entries.
type Service struct {
	searcher     RepoSearcher
	previews     PreviewFetcher
	expander     Expander
	perVariation int
	defaultLimit int
	maxLimit     int
	previewDelay time.Duration
}

// New creates a search service.
func New(searcher RepoSearcher, previews PreviewFetcher, expander Expander) *Service {
	return &Service{
		searcher:     searcher,
		previews:     previews,
		expander:     expander,
		perVariation: defaultPerVariation,
		defaultLimit: defaultLimit,
		maxLimit:     defaultMaxLimit,
		previewDelay: defaultPreviewDelay,
	}
}

// WithLimits overrides the per-variation fetch size and the final result limits.
func (s *Service) WithLimits(perVariation, defaultLimit, maxLimit int) *Service {
	if perVariation > 0 {
		s.perVariation = perVariation
	}
	if defaultLimit > 0 {
		s.defaultLimit = defaultLimit
	}
	if maxLimit > 0 {
		s.maxLimit = maxLimit
	}
	return s
}

// WithPreviewDelay overrides the pacing between README preview fetches.
// The delay keeps sequential content requests under the provider rate limit.
func (s *Service) WithPreviewDelay(d time.Duration) *Service {
	if d >= 0 {
		s.previewDelay = d
	}
	return s
}

// Search runs the full pipeline for one query.
func (s *Service) Search(ctx context.Context, req Request) (Result, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return Result{}, domain.ErrEmptyQuery
	}

	limit := req.Limit
	if limit <= 0 {
		limit = s.defaultLimit
	}
	if limit > s.maxLimit {
		limit = s.maxLimit
	}

	log := logger.FromContext(ctx)

	variations := s.expander.Expand(ctx, query)
	log.Debug("query expanded",
		zap.String("query", query),
		zap.Strings("variations", variations),
	)

	// Variation searches are independent, so they run concurrently. Results
	// are collected per variation and merged in variation order below, which
	// keeps dedup and origin tagging deterministic.
	perVariation := make([][]domain.Repo, len(variations))
	g, gctx := errgroup.WithContext(ctx)
	for i, variation := range variations {
		i, variation := i, variation
		g.Go(func() error {
			repos, _, err := s.searcher.SearchRepos(gctx, variation, s.perVariation)
			if err != nil {
				// Failure policy: a broken variation is skipped, the
				// others still contribute.
				log.Warn("variation search failed, skipping",
					zap.String("variation", variation),
					zap.Error(err),
				)
				return nil
			}
			perVariation[i] = repos
			return nil
		})
	}
	_ = g.Wait()

	seen := make(map[int64]struct{})
	var unique []domain.Repo
	for i, repos := range perVariation {
		for _, repo := range repos {
			if _, ok := seen[repo.ID]; ok {
				continue
			}
			seen[repo.ID] = struct{}{}
			repo.FoundVia = variations[i]
			repo.Relevance = Score(query, repo, req.PreferredLanguage)
			unique = append(unique, repo)
		}
	}

	// Rank the full unique set before cutting to the limit.
	sort.SliceStable(unique, func(i, j int) bool {
		if unique[i].Relevance != unique[j].Relevance {
			return unique[i].Relevance > unique[j].Relevance
		}
		return unique[i].Stars > unique[j].Stars
	})

	totalUnique := len(unique)
	items := unique
	if len(items) > limit {
		items = items[:limit]
	}

	s.backfillPreviews(ctx, items)

	return Result{
		Variations:  variations,
		TotalUnique: totalUnique,
		Repos:       items,
	}, nil
}

// backfillPreviews fetches README previews for the truncated top results only,
// sequentially with pacing between requests (none after the last one).
func (s *Service) backfillPreviews(ctx context.Context, repos []domain.Repo) {
	log := logger.FromContext(ctx)

	for i := range repos {
		preview, err := s.previews.ReadmePreview(ctx, repos[i].Owner, repos[i].Name)
		if err != nil {
			log.Warn("preview fetch failed",
				zap.String("repo", repos[i].FullName),
				zap.Error(err),
			)
			preview = PreviewUnavailable
		}
		repos[i].ReadmePreview = preview

		if i == len(repos)-1 || s.previewDelay == 0 {
			continue
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(s.previewDelay):
		}
	}
}
