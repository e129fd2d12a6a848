package domain

// TitleMetadata is the best-match record returned by the metadata provider
// for a title query. All fields except ID may be absent.
type TitleMetadata struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Year      *int     `json:"year,omitempty"`
	Rating    *float64 `json:"rating,omitempty"`
	PosterURL *string  `json:"poster_url,omitempty"`
	Kind      string   `json:"kind"`
}
