package service

import "github.com/yeonho/movie-suggester-go/internal/domain"

const fallbackReasonPrefix = "Live recommendations are temporarily unavailable, so here is a reliable pick: "

type fallbackEntry struct {
	title       string
	genres      []string
	year        int
	reason      string
	description string
	kind        domain.ContentKind
}

// The fixed local catalog returned when the LLM pipeline cannot produce
// usable output. The /suggest contract is "always returns something
// usable", never an error page.
var fallbackCatalog = []fallbackEntry{
	{
		title:       "The Shawshank Redemption",
		genres:      []string{"drama"},
		year:        1994,
		reason:      "timeless classic about hope and redemption.",
		description: "Epic drama about friendship and perseverance in prison",
		kind:        domain.KindMovie,
	},
	{
		title:       "Inception",
		genres:      []string{"sci-fi", "thriller"},
		year:        2010,
		reason:      "mind-bending sci-fi thriller.",
		description: "Complex heist film set within layered dreams",
		kind:        domain.KindMovie,
	},
	{
		title:       "Spirited Away",
		genres:      []string{"animated", "adventure"},
		year:        2001,
		reason:      "magical animated masterpiece.",
		description: "Enchanting tale of a girl in a supernatural world",
		kind:        domain.KindMovie,
	},
}

// FallbackSuggestions returns a fresh copy of the local catalog, with each
// reason tagged to explain the degraded mode.
func FallbackSuggestions() []domain.Suggestion {
	suggestions := make([]domain.Suggestion, len(fallbackCatalog))
	for i, entry := range fallbackCatalog {
		year := entry.year
		genres := make([]string, len(entry.genres))
		copy(genres, entry.genres)

		suggestions[i] = domain.Suggestion{
			Title:       entry.title,
			Genres:      genres,
			Year:        &year,
			Reason:      fallbackReasonPrefix + entry.reason,
			Description: entry.description,
			Kind:        entry.kind,
		}
	}
	return suggestions
}
