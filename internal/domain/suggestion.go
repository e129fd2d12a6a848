package domain

// ContentKind classifies what a suggestion refers to. Chat marks a purely
// conversational reply that carries no catalog item.
type ContentKind string

const (
	KindMovie  ContentKind = "movie"
	KindSeries ContentKind = "series"
	KindChat   ContentKind = "chat"
)

// ParseContentKind maps a model-emitted content_type value to a ContentKind.
// Unknown values default to KindMovie.
func ParseContentKind(raw string) ContentKind {
	switch ContentKind(raw) {
	case KindMovie, KindSeries, KindChat:
		return ContentKind(raw)
	default:
		return KindMovie
	}
}

// DraftSuggestion is a parsed-but-not-yet-enriched suggestion record.
type DraftSuggestion struct {
	Title       string
	Genres      []string
	Year        *int
	Reason      string
	Description string
	Kind        ContentKind
}

// Suggestion is the enriched record returned to callers. Optional fields
// stay nil when the metadata lookup failed or was skipped.
type Suggestion struct {
	Title          string      `json:"title"`
	Genres         []string    `json:"genre"`
	Year           *int        `json:"year,omitempty"`
	Reason         string      `json:"reason"`
	Description    string      `json:"description"`
	Kind           ContentKind `json:"content_type"`
	ExternalID     *string     `json:"external_id,omitempty"`
	ExternalRating *float64    `json:"external_rating,omitempty"`
	CanonicalTitle *string     `json:"canonical_title,omitempty"`
	PosterURL      *string     `json:"poster_url,omitempty"`
}

// FromDraft builds a Suggestion carrying only the draft's own fields.
func FromDraft(d DraftSuggestion) Suggestion {
	genres := d.Genres
	if genres == nil {
		genres = []string{}
	}
	return Suggestion{
		Title:       d.Title,
		Genres:      genres,
		Year:        d.Year,
		Reason:      d.Reason,
		Description: d.Description,
		Kind:        d.Kind,
	}
}

// SuggestionRequest is the caller-facing request body.
type SuggestionRequest struct {
	Prompt string `json:"prompt"`
}

// SuggestionResponse preserves the order produced by the parser.
type SuggestionResponse struct {
	Suggestions []Suggestion `json:"suggestions"`
}
