package constants

import "time"

var PromptLimits = struct {
	MinPromptLength int
	MaxPromptLength int
	MinYear         int
	MaxYearSlack    int
}{
	MinPromptLength: 1,
	MaxPromptLength: 2000,
	MinYear:         1870, // oldest plausible release year
	MaxYearSlack:    10,   // announced titles may sit a few years out
}

var LLMConfig = struct {
	RequestTimeout  time.Duration
	MaxOutputTokens int
	Temperature     float32
	TopP            float32
	TopK            int
}{
	RequestTimeout:  30 * time.Second,
	MaxOutputTokens: 2048,
	Temperature:     0.7,
	TopP:            0.8,
	TopK:            40,
}

var EnrichConfig = struct {
	MaxConcurrent int
	LookupTimeout time.Duration
}{
	MaxConcurrent: 5,
	LookupTimeout: 5 * time.Second,
}

var APIConfig = struct {
	MetadataBaseURL string
	MetadataTimeout time.Duration
}{
	MetadataBaseURL: "https://api.imdbapi.dev",
	MetadataTimeout: 8 * time.Second,
}

var RetryConfig = struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Jitter      time.Duration
}{
	MaxAttempts: 3,
	BaseDelay:   500 * time.Millisecond,
	Jitter:      250 * time.Millisecond,
}

var CacheTTL = struct {
	TitleLookup time.Duration
}{
	TitleLookup: 20 * time.Minute,
}

var RatingBounds = struct {
	Min float64
	Max float64
}{
	Min: 0,
	Max: 10,
}
