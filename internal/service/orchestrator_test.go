package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/yeonho/movie-suggester-go/internal/domain"
	errs "github.com/yeonho/movie-suggester-go/pkg/errors"
	"go.uber.org/zap"
)

const goodModelOutput = `[
	{"title": "Arrival", "genre": ["sci-fi", "drama"], "year": 2016, "reason": "Thoughtful first-contact story.", "description": "Linguist decodes an alien language", "content_type": "movie"},
	{"title": "Severance", "genre": ["sci-fi", "thriller"], "year": 2022, "reason": "Unsettling workplace mystery.", "description": "Employees split work and home memories", "content_type": "series"}
]`

func newTestOrchestrator(provider LLMProvider, meta MetadataProvider) *SuggestionOrchestrator {
	gateway := NewLLMGateway(provider, time.Second, zap.NewNop())
	enricher := NewMetadataEnricher(meta, zap.NewNop())
	return NewSuggestionOrchestrator(gateway, enricher, zap.NewNop())
}

func TestValidateRequest(t *testing.T) {
	cases := []struct {
		name    string
		prompt  string
		wantErr bool
		cleaned string
	}{
		{"valid", "something with spies", false, "something with spies"},
		{"empty", "", true, ""},
		{"whitespace only", "   \t\n  ", true, ""},
		{"control chars collapse", "spy\x00\x01 thriller", false, "spy thriller"},
		{"too long", strings.Repeat("a", 2001), true, ""},
		{"at limit", strings.Repeat("a", 2000), false, strings.Repeat("a", 2000)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cleaned, err := ValidateRequest(domain.SuggestionRequest{Prompt: tc.prompt})
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected validation error")
				}
				var validationErr *errs.ValidationError
				if !errors.As(err, &validationErr) {
					t.Fatalf("expected ValidationError, got %T", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cleaned != tc.cleaned {
				t.Errorf("expected cleaned %q, got %q", tc.cleaned, cleaned)
			}
		})
	}
}

func TestSuggestRejectsInvalidPromptBeforeModelCall(t *testing.T) {
	provider := &fakeProvider{completeText: goodModelOutput}
	orchestrator := newTestOrchestrator(provider, &fakeMetadataProvider{})

	_, err := orchestrator.Suggest(context.Background(), domain.SuggestionRequest{Prompt: "  "})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if provider.completeCalls != 0 {
		t.Errorf("invalid request must not reach the provider, got %d calls", provider.completeCalls)
	}
}

func TestSuggestHappyPath(t *testing.T) {
	provider := &fakeProvider{completeText: goodModelOutput}
	meta := &fakeMetadataProvider{
		results: map[string]*domain.TitleMetadata{
			"Arrival": {ID: "tt2543164", Title: "Arrival", Rating: floatPtr(7.9), PosterURL: strPtr("https://img.example/arrival.jpg")},
		},
	}
	orchestrator := newTestOrchestrator(provider, meta)

	resp, err := orchestrator.Suggest(context.Background(), domain.SuggestionRequest{Prompt: "smart sci-fi"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Suggestions) != 2 {
		t.Fatalf("expected 2 suggestions, got %d", len(resp.Suggestions))
	}

	first := resp.Suggestions[0]
	if first.Title != "Arrival" || first.Kind != domain.KindMovie {
		t.Errorf("unexpected first suggestion: %+v", first)
	}
	if first.ExternalID == nil || *first.ExternalID != "tt2543164" {
		t.Errorf("expected enriched external id, got %+v", first)
	}
	if first.PosterURL == nil {
		t.Error("expected poster URL from metadata")
	}
	if resp.Suggestions[1].Kind != domain.KindSeries {
		t.Errorf("unexpected second kind: %q", resp.Suggestions[1].Kind)
	}
	if resp.Suggestions[1].ExternalID != nil {
		t.Error("no-result lookup must leave external id absent")
	}
}

func TestSuggestAllLookupsResolvedGivesFullyEnrichedResponse(t *testing.T) {
	provider := &fakeProvider{completeText: `[
		{"title": "Coco", "genre": ["animated"], "year": 2017, "reason": "Warm family story with music.", "description": "Boy journeys to the Land of the Dead", "content_type": "movie"},
		{"title": "Kubo and the Two Strings", "genre": ["animated"], "year": 2016, "reason": "Gorgeous stop-motion adventure.", "description": "Boy with a magic shamisen", "content_type": "movie"}
	]`}
	meta := &fakeMetadataProvider{
		results: map[string]*domain.TitleMetadata{
			"Coco":                     {ID: "tt2380307", Title: "Coco", PosterURL: strPtr("https://img.example/coco.jpg")},
			"Kubo and the Two Strings": {ID: "tt4302938", Title: "Kubo and the Two Strings", PosterURL: strPtr("https://img.example/kubo.jpg")},
		},
	}
	orchestrator := newTestOrchestrator(provider, meta)

	resp, err := orchestrator.Suggest(context.Background(), domain.SuggestionRequest{Prompt: "I want animated movies like Coco"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Suggestions) != 2 {
		t.Fatalf("expected 2 suggestions, got %d", len(resp.Suggestions))
	}
	for _, s := range resp.Suggestions {
		if s.Kind != domain.KindMovie {
			t.Errorf("%s: expected movie kind, got %q", s.Title, s.Kind)
		}
		if s.PosterURL == nil {
			t.Errorf("%s: expected a poster URL", s.Title)
		}
	}
}

func TestSuggestDegradesToFallbackOnUpstreamFailure(t *testing.T) {
	provider := &fakeProvider{completeErr: errors.New("connection refused")}
	orchestrator := newTestOrchestrator(provider, &fakeMetadataProvider{})

	resp, err := orchestrator.Suggest(context.Background(), domain.SuggestionRequest{Prompt: "anything"})
	if err != nil {
		t.Fatalf("degraded mode must not surface an error, got %v", err)
	}
	assertFallbackResponse(t, resp)
}

func TestSuggestDegradesToFallbackOnTimeout(t *testing.T) {
	provider := &fakeProvider{blockOnCtx: true}
	gateway := NewLLMGateway(provider, 20*time.Millisecond, zap.NewNop())
	enricher := NewMetadataEnricher(&fakeMetadataProvider{}, zap.NewNop())
	orchestrator := NewSuggestionOrchestrator(gateway, enricher, zap.NewNop())

	resp, err := orchestrator.Suggest(context.Background(), domain.SuggestionRequest{Prompt: "anything"})
	if err != nil {
		t.Fatalf("timeout must degrade, not error, got %v", err)
	}
	assertFallbackResponse(t, resp)
}

func TestSuggestDegradesToFallbackOnUnparseableOutput(t *testing.T) {
	provider := &fakeProvider{completeText: "I am sorry, I cannot recommend anything today."}
	orchestrator := newTestOrchestrator(provider, &fakeMetadataProvider{})

	resp, err := orchestrator.Suggest(context.Background(), domain.SuggestionRequest{Prompt: "anything"})
	if err != nil {
		t.Fatalf("parse failure must degrade, not error, got %v", err)
	}
	assertFallbackResponse(t, resp)
}

func TestSuggestPropagatesCallerCancellation(t *testing.T) {
	provider := &fakeProvider{blockOnCtx: true}
	orchestrator := newTestOrchestrator(provider, &fakeMetadataProvider{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := orchestrator.Suggest(ctx, domain.SuggestionRequest{Prompt: "anything"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestSuggestChatReply(t *testing.T) {
	provider := &fakeProvider{completeText: `[{"title": "Chat Response", "genre": [], "year": 0, "reason": "Hi! Tell me what you like to watch.", "description": "", "content_type": "chat"}]`}
	meta := &fakeMetadataProvider{}
	orchestrator := newTestOrchestrator(provider, meta)

	resp, err := orchestrator.Suggest(context.Background(), domain.SuggestionRequest{Prompt: "hello"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Suggestions) != 1 {
		t.Fatalf("expected 1 suggestion, got %d", len(resp.Suggestions))
	}
	if resp.Suggestions[0].Kind != domain.KindChat {
		t.Errorf("expected chat kind, got %q", resp.Suggestions[0].Kind)
	}
	if meta.lookupCount() != 0 {
		t.Errorf("chat reply must not trigger metadata lookups, saw %d", meta.lookupCount())
	}
}

func TestSuggestStreamForwardsChunksAndAssembles(t *testing.T) {
	provider := &fakeProvider{streamChunks: splitIntoChunks(goodModelOutput, 40)}
	meta := &fakeMetadataProvider{}
	orchestrator := newTestOrchestrator(provider, meta)

	var chunks []string
	var statuses []string
	resp, err := orchestrator.SuggestStream(context.Background(), domain.SuggestionRequest{Prompt: "smart sci-fi"},
		func(chunk string) { chunks = append(chunks, chunk) },
		func(status string) { statuses = append(statuses, status) },
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if strings.Join(chunks, "") != goodModelOutput {
		t.Error("concatenated chunks must equal the full model output")
	}
	if len(statuses) == 0 || statuses[0] != StatusConnecting {
		t.Errorf("expected connecting status first, got %v", statuses)
	}
	if len(resp.Suggestions) != 2 {
		t.Fatalf("expected 2 suggestions, got %d", len(resp.Suggestions))
	}
}

func TestSuggestStreamSurfacesIncompleteStream(t *testing.T) {
	provider := &fakeProvider{
		streamChunks: []string{`[{"title": "Arr`},
		streamErr:    errs.NewIncompleteStreamError("stream ended without finish signal", nil),
	}
	orchestrator := newTestOrchestrator(provider, &fakeMetadataProvider{})

	resp, err := orchestrator.SuggestStream(context.Background(), domain.SuggestionRequest{Prompt: "anything"}, nil, nil)
	if !errs.IsIncompleteStream(err) {
		t.Fatalf("expected incomplete stream error, got %v", err)
	}
	if resp != nil {
		t.Error("partial output must never become a response")
	}
}

func TestSuggestStreamDegradesToFallbackOnUpstreamFailure(t *testing.T) {
	provider := &fakeProvider{streamErr: errors.New("connection refused")}
	orchestrator := newTestOrchestrator(provider, &fakeMetadataProvider{})

	resp, err := orchestrator.SuggestStream(context.Background(), domain.SuggestionRequest{Prompt: "anything"}, nil, nil)
	if err != nil {
		t.Fatalf("degraded mode must not surface an error, got %v", err)
	}
	assertFallbackResponse(t, resp)
}

func assertFallbackResponse(t *testing.T, resp *domain.SuggestionResponse) {
	t.Helper()

	if resp == nil {
		t.Fatal("expected a response")
	}
	if len(resp.Suggestions) != 3 {
		t.Fatalf("expected the 3 catalog entries, got %d", len(resp.Suggestions))
	}
	titles := map[string]bool{}
	for _, s := range resp.Suggestions {
		titles[s.Title] = true
		if !strings.HasPrefix(s.Reason, fallbackReasonPrefix) {
			t.Errorf("fallback reason missing degradation notice: %q", s.Reason)
		}
		if s.Kind != domain.KindMovie {
			t.Errorf("fallback entries are movies, got %q", s.Kind)
		}
	}
	for _, want := range []string{"The Shawshank Redemption", "Inception", "Spirited Away"} {
		if !titles[want] {
			t.Errorf("missing fallback title %q", want)
		}
	}
}

func splitIntoChunks(s string, size int) []string {
	var chunks []string
	for len(s) > size {
		chunks = append(chunks, s[:size])
		s = s[size:]
	}
	if s != "" {
		chunks = append(chunks, s)
	}
	return chunks
}
