package domain

// Repo is a single repository record from the search provider.
// Relevance, FoundVia, and ReadmePreview are attached during merging;
// everything else comes straight from the provider response.
type Repo struct {
	ID            int64
	Owner         string
	Name          string
	FullName      string
	Description   string
	Topics        []string
	Stars         int
	Forks         int
	Language      string
	HTMLURL       string
	UpdatedAt     string
	ReadmePreview string
	FoundVia      string
	Relevance     float64
}
