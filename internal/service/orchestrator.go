package service

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/yeonho/movie-suggester-go/internal/constants"
	"github.com/yeonho/movie-suggester-go/internal/domain"
	"github.com/yeonho/movie-suggester-go/internal/prompt"
	"github.com/yeonho/movie-suggester-go/internal/util"
	errs "github.com/yeonho/movie-suggester-go/pkg/errors"
	"go.uber.org/zap"
)

// SuggestionOrchestrator coordinates the pipeline: build prompt, invoke
// the model, parse, enrich, assemble. On any upstream or parse failure it
// degrades to the local fallback catalog instead of surfacing the error;
// only validation and incomplete-stream errors reach the caller.
type SuggestionOrchestrator struct {
	gateway  *LLMGateway
	enricher *MetadataEnricher
	logger   *zap.Logger
}

func NewSuggestionOrchestrator(gateway *LLMGateway, enricher *MetadataEnricher, logger *zap.Logger) *SuggestionOrchestrator {
	return &SuggestionOrchestrator{
		gateway:  gateway,
		enricher: enricher,
		logger:   logger,
	}
}

// ValidateRequest sanitizes and validates the request prompt, returning
// the cleaned prompt text. Runs before any external call.
func ValidateRequest(req domain.SuggestionRequest) (string, error) {
	cleaned := util.SanitizeInput(req.Prompt)

	err := validation.Validate(cleaned,
		validation.Required,
		validation.RuneLength(constants.PromptLimits.MinPromptLength, constants.PromptLimits.MaxPromptLength),
	)
	if err != nil {
		return "", errs.NewValidationError(
			"prompt must be between 1 and 2000 characters",
			"prompt",
			len(cleaned),
		)
	}

	return cleaned, nil
}

// Suggest runs the single-shot pipeline.
func (o *SuggestionOrchestrator) Suggest(ctx context.Context, req domain.SuggestionRequest) (*domain.SuggestionResponse, error) {
	userPrompt, err := ValidateRequest(req)
	if err != nil {
		return nil, err
	}

	payload := prompt.Build(userPrompt)

	raw, err := o.gateway.Complete(ctx, payload)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return o.fallbackResponse(err), nil
	}

	return o.assemble(ctx, raw), nil
}

// SuggestStream runs the streaming pipeline, forwarding chunks and status
// labels to the caller as they arrive. An incomplete stream is returned as
// an error; the caller must not treat the partial text as a result.
func (o *SuggestionOrchestrator) SuggestStream(ctx context.Context, req domain.SuggestionRequest, onChunk, onStatus func(string)) (*domain.SuggestionResponse, error) {
	userPrompt, err := ValidateRequest(req)
	if err != nil {
		return nil, err
	}

	payload := prompt.Build(userPrompt)

	raw, err := o.gateway.Stream(ctx, payload, onChunk, onStatus)
	if err != nil {
		if errs.IsIncompleteStream(err) {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return o.fallbackResponse(err), nil
	}

	return o.assemble(ctx, raw), nil
}

// assemble parses raw model output and enriches the drafts. Parse failure
// degrades to the fallback catalog.
func (o *SuggestionOrchestrator) assemble(ctx context.Context, raw string) *domain.SuggestionResponse {
	drafts, err := prompt.Parse(raw)
	if err != nil {
		o.logger.Warn("Model output unusable, using fallback catalog", zap.Error(err))
		return o.fallbackResponse(err)
	}

	suggestions := o.enricher.Enrich(ctx, drafts)

	o.logger.Info("Suggestions assembled",
		zap.Int("count", len(suggestions)),
		zap.String("provider", o.gateway.ProviderName()),
	)

	return &domain.SuggestionResponse{Suggestions: suggestions}
}

func (o *SuggestionOrchestrator) fallbackResponse(cause error) *domain.SuggestionResponse {
	o.logger.Warn("Degrading to fallback catalog", zap.Error(cause))
	return &domain.SuggestionResponse{Suggestions: FallbackSuggestions()}
}
