package sdk

// SearchRequest is one repository search call.
type SearchRequest struct {
	Query             string `json:"query"`
	PreferredLanguage string `json:"preferred_language,omitempty"`
	Limit             int    `json:"limit,omitempty"`
}

// Repository is one ranked search result.
type Repository struct {
	ID            int64    `json:"id"`
	Owner         string   `json:"owner"`
	Name          string   `json:"name"`
	FullName      string   `json:"full_name"`
	Description   string   `json:"description,omitempty"`
	Topics        []string `json:"topics,omitempty"`
	Stars         int      `json:"stars"`
	Forks         int      `json:"forks"`
	Language      string   `json:"language,omitempty"`
	HTMLURL       string   `json:"html_url"`
	UpdatedAt     string   `json:"updated_at,omitempty"`
	ReadmePreview string   `json:"readme_preview,omitempty"`
	FoundVia      string   `json:"found_via_query"`
	Relevance     float64  `json:"semantic_relevance"`
}

// SearchResponse is the ranked, merged search outcome.
type SearchResponse struct {
	OriginalQuery    string       `json:"original_query"`
	SearchVariations []string     `json:"search_variations"`
	TotalCount       int          `json:"total_count"`
	Repositories     []Repository `json:"repositories"`
}

// DiagramResponse is one synthesized repository diagram.
type DiagramResponse struct {
	Repository string `json:"repository"`
	FileCount  int    `json:"file_count"`
	Diagram    string `json:"diagram"`
}
