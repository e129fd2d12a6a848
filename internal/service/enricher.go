package service

import (
	"context"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"
	"github.com/yeonho/movie-suggester-go/internal/constants"
	"github.com/yeonho/movie-suggester-go/internal/domain"
	"github.com/yeonho/movie-suggester-go/pkg/errors"
	"go.uber.org/zap"
)

// MetadataEnricher attaches poster/rating metadata to non-chat drafts with
// a bounded concurrent fan-out. A failed or timed-out lookup leaves that
// suggestion's optional fields absent; it never fails the batch.
type MetadataEnricher struct {
	provider      MetadataProvider
	logger        *zap.Logger
	concurrency   int
	lookupTimeout time.Duration
}

func NewMetadataEnricher(provider MetadataProvider, logger *zap.Logger) *MetadataEnricher {
	return &MetadataEnricher{
		provider:      provider,
		logger:        logger,
		concurrency:   constants.EnrichConfig.MaxConcurrent,
		lookupTimeout: constants.EnrichConfig.LookupTimeout,
	}
}

// Enrich resolves metadata for each draft. Results are merged back in the
// original draft order regardless of lookup completion order; chat drafts
// pass through without any lookup.
func (e *MetadataEnricher) Enrich(ctx context.Context, drafts []domain.DraftSuggestion) []domain.Suggestion {
	suggestions := make([]domain.Suggestion, len(drafts))
	resultsMu := sync.Mutex{}

	p := pool.New().WithMaxGoroutines(e.concurrency)

	for idx, draft := range drafts {
		idx, draft := idx, draft

		if draft.Kind == domain.KindChat {
			suggestions[idx] = domain.FromDraft(draft)
			continue
		}

		p.Go(func() {
			result := e.enrichOne(ctx, draft)
			resultsMu.Lock()
			suggestions[idx] = result
			resultsMu.Unlock()
		})
	}

	p.Wait()

	return suggestions
}

func (e *MetadataEnricher) enrichOne(ctx context.Context, draft domain.DraftSuggestion) domain.Suggestion {
	suggestion := domain.FromDraft(draft)

	lookupCtx, cancel := context.WithTimeout(ctx, e.lookupTimeout)
	defer cancel()

	meta, err := e.provider.Lookup(lookupCtx, draft.Title)
	if err != nil {
		enrichErr := errors.NewEnrichmentError(draft.Title, err)
		e.logger.Warn("Enrichment lookup failed",
			zap.String("title", draft.Title),
			zap.Error(enrichErr),
		)
		return suggestion
	}

	if meta == nil {
		e.logger.Debug("No metadata for title", zap.String("title", draft.Title))
		return suggestion
	}

	applyMetadata(&suggestion, meta)
	return suggestion
}

// applyMetadata adds provider fields to the suggestion. Fields are only
// ever added, never removed; an out-of-range rating is discarded rather
// than clamped.
func applyMetadata(s *domain.Suggestion, meta *domain.TitleMetadata) {
	if meta.ID != "" {
		id := meta.ID
		s.ExternalID = &id
	}

	if meta.Rating != nil {
		rating := *meta.Rating
		if rating >= constants.RatingBounds.Min && rating <= constants.RatingBounds.Max {
			s.ExternalRating = &rating
		}
	}

	if meta.Title != "" {
		canonical := meta.Title
		s.CanonicalTitle = &canonical
	}

	if meta.PosterURL != nil {
		posterURL := *meta.PosterURL
		s.PosterURL = &posterURL
	}

	if s.Year == nil && meta.Year != nil {
		year := *meta.Year
		s.Year = &year
	}
}
