package search

import (
	"math"
	"strings"

	"github.com/kailas-cloud/reposcout/internal/domain"
)

// Scoring weights. The raw score is normalized against MaxRawScore, an
// empirical ceiling tuned against real queries. Changing it changes every
// reported relevance value, so treat it as part of the API contract.
const (
	MaxRawScore = 20.0

	nameWeight    = 3
	descWeight    = 2
	topicWeight   = 2
	previewWeight = 1
	phraseBonus   = 5
	languageBonus = 3

	maxStarsBonus = 2.0
	starsPerPoint = 1000.0
)

// Score computes the relevance of a repository to the original query as a
// number in [0, 1] rounded to two decimals. All matching is case-insensitive;
// the query is tokenized on whitespace with duplicates collapsed, repository
// fields are matched by substring containment. Side-effect free, missing
// fields score as empty text.
func Score(query string, repo domain.Repo, preferredLanguage string) float64 {
	queryLower := strings.ToLower(query)
	tokens := tokenSet(queryLower)

	name := strings.ToLower(repo.Name)
	desc := strings.ToLower(repo.Description)
	topics := strings.ToLower(strings.Join(repo.Topics, " "))
	preview := strings.ToLower(repo.ReadmePreview)
	allText := name + " " + desc + " " + topics + " " + preview
	repoWords := tokenSet(allText)

	var overlap, weighted int
	for token := range tokens {
		if _, ok := repoWords[token]; ok {
			overlap++
		}
		if strings.Contains(name, token) {
			weighted += nameWeight
		}
		if strings.Contains(desc, token) {
			weighted += descWeight
		}
		if strings.Contains(topics, token) {
			weighted += topicWeight
		}
		if strings.Contains(preview, token) {
			weighted += previewWeight
		}
	}

	var bonus int
	if len(tokens) > 1 && strings.Contains(allText, queryLower) {
		bonus += phraseBonus
	}
	if preferredLanguage != "" && repo.Language != "" &&
		strings.EqualFold(repo.Language, preferredLanguage) {
		bonus += languageBonus
	}

	starsBonus := math.Min(float64(repo.Stars)/starsPerPoint, maxStarsBonus)

	raw := float64(overlap+weighted+bonus) + starsBonus
	normalized := math.Min(raw/MaxRawScore, 1.0)
	return math.Round(normalized*100) / 100
}

func tokenSet(text string) map[string]struct{} {
	words := strings.Fields(text)
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
