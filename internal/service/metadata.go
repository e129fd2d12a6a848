package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/yeonho/movie-suggester-go/internal/constants"
	"github.com/yeonho/movie-suggester-go/internal/domain"
	"github.com/yeonho/movie-suggester-go/internal/service/cache"
	"github.com/yeonho/movie-suggester-go/internal/util"
	"github.com/yeonho/movie-suggester-go/pkg/errors"
	"go.uber.org/zap"
)

// MetadataProvider is the single metadata capability used by the enricher:
// one best-match record per title query, or nil when nothing matches.
type MetadataProvider interface {
	Lookup(ctx context.Context, title string) (*domain.TitleMetadata, error)
}

// imdbTitleRaw mirrors the shape returned by the imdbapi.dev search endpoint.
type imdbTitleRaw struct {
	ID           string `json:"id"`
	Type         string `json:"type"`
	PrimaryTitle string `json:"primaryTitle"`
	StartYear    *int   `json:"startYear,omitempty"`
	PrimaryImage *struct {
		URL string `json:"url"`
	} `json:"primaryImage,omitempty"`
	Rating *struct {
		AggregateRating *float64 `json:"aggregateRating,omitempty"`
	} `json:"rating,omitempty"`
}

type imdbSearchResponse struct {
	Titles []imdbTitleRaw `json:"titles"`
}

// IMDBService queries imdbapi.dev for poster and rating metadata.
type IMDBService struct {
	httpClient *http.Client
	baseURL    string
	cache      *cache.Service
	logger     *zap.Logger
}

// NewIMDBService creates a metadata client. cacheSvc may be nil, in which
// case every lookup goes to the API.
func NewIMDBService(baseURL string, timeout time.Duration, cacheSvc *cache.Service, logger *zap.Logger) *IMDBService {
	if baseURL == "" {
		baseURL = constants.APIConfig.MetadataBaseURL
	}
	if timeout <= 0 {
		timeout = constants.APIConfig.MetadataTimeout
	}

	return &IMDBService{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		cache:   cacheSvc,
		logger:  logger,
	}
}

// Lookup returns the best-match record for a title, or nil when the
// provider knows nothing about it.
func (s *IMDBService) Lookup(ctx context.Context, title string) (*domain.TitleMetadata, error) {
	searchTitle := util.CleanTitle(title)
	if searchTitle == "" {
		searchTitle = strings.TrimSpace(title)
	}
	if searchTitle == "" {
		return nil, nil
	}

	cacheKey := "title_lookup:" + strings.ToLower(searchTitle)
	if s.cache != nil {
		var cached domain.TitleMetadata
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil && cached.ID != "" {
			return &cached, nil
		}
	}

	params := url.Values{}
	params.Set("query", searchTitle)
	params.Set("limit", "1")

	body, err := s.doRequest(ctx, "/search/titles", params)
	if err != nil {
		s.logger.Warn("Metadata search failed",
			zap.String("title", searchTitle),
			zap.Error(err),
		)
		return nil, err
	}

	var decoded imdbSearchResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, errors.NewAPIError("invalid metadata response", 502, map[string]any{
			"title": searchTitle,
		}).WithCause(err)
	}

	if len(decoded.Titles) == 0 {
		s.logger.Debug("No metadata match", zap.String("title", searchTitle))
		return nil, nil
	}

	meta := mapTitleResponse(&decoded.Titles[0])

	if s.cache != nil {
		_ = s.cache.Set(ctx, cacheKey, meta, constants.CacheTTL.TitleLookup)
	}

	return meta, nil
}

// doRequest performs a GET with bounded retries and exponential backoff.
func (s *IMDBService) doRequest(ctx context.Context, path string, params url.Values) ([]byte, error) {
	reqURL := s.baseURL + path
	if params != nil {
		reqURL += "?" + params.Encode()
	}

	var lastErr error

	for attempt := 0; attempt < constants.RetryConfig.MaxAttempts; attempt++ {
		if attempt > 0 {
			delay := computeDelay(attempt - 1)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := s.httpClient.Do(req)
		if err != nil {
			lastErr = err
			s.logger.Warn("Metadata request failed, retrying",
				zap.Error(err),
				zap.Int("attempt", attempt+1),
			)
			continue
		}

		// Read body and close immediately (not defer in loop!)
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			lastErr = errors.NewAPIError(fmt.Sprintf("metadata server error: %d", resp.StatusCode), resp.StatusCode, nil)
			continue
		}

		if resp.StatusCode >= 400 {
			return nil, errors.NewAPIError(fmt.Sprintf("metadata client error: %d", resp.StatusCode), resp.StatusCode, map[string]any{
				"url": reqURL,
			})
		}

		return body, nil
	}

	if lastErr != nil {
		return nil, lastErr
	}

	return nil, errors.NewAPIError("metadata request failed after all retries", 502, nil)
}

func computeDelay(attempt int) time.Duration {
	jitter := time.Duration(rand.Float64() * float64(constants.RetryConfig.Jitter))
	base := constants.RetryConfig.BaseDelay * time.Duration(math.Pow(2, float64(attempt)))
	return base + jitter
}

func mapTitleResponse(raw *imdbTitleRaw) *domain.TitleMetadata {
	meta := &domain.TitleMetadata{
		ID:    raw.ID,
		Title: strings.TrimSpace(raw.PrimaryTitle),
		Kind:  raw.Type,
	}

	if raw.StartYear != nil {
		year := *raw.StartYear
		meta.Year = &year
	}

	if raw.Rating != nil && raw.Rating.AggregateRating != nil {
		rating := *raw.Rating.AggregateRating
		meta.Rating = &rating
	}

	if raw.PrimaryImage != nil && strings.HasPrefix(raw.PrimaryImage.URL, "http") {
		posterURL := raw.PrimaryImage.URL
		meta.PosterURL = &posterURL
	}

	return meta
}
