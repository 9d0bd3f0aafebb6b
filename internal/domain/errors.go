package domain

import "errors"

var (
	// ErrEmptyQuery signals a missing or blank search query.
	ErrEmptyQuery = errors.New("empty query")
	// ErrRepoNotFound signals a missing repository.
	ErrRepoNotFound = errors.New("repository not found")
	// ErrRepoAccessDenied signals a 403 from the repository provider.
	ErrRepoAccessDenied = errors.New("repository access denied")
	// ErrSearchProviderError signals a repository search provider failure.
	ErrSearchProviderError = errors.New("search provider error")
	// ErrEmptyTree signals a repository with no file entries.
	ErrEmptyTree = errors.New("no files found in repository")
	// ErrGenerationNotConfigured signals a text-generation provider without credentials.
	ErrGenerationNotConfigured = errors.New("generation provider not configured")
	// ErrGenerationFailed signals a text-generation provider failure.
	ErrGenerationFailed = errors.New("generation provider error")
)
