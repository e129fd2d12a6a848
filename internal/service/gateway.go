package service

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/yeonho/movie-suggester-go/internal/prompt"
	"github.com/yeonho/movie-suggester-go/internal/util"
	errs "github.com/yeonho/movie-suggester-go/pkg/errors"
	"go.uber.org/zap"
)

var rateLimitCodePattern = regexp.MustCompile(`\b429\b`)

var serverCodePattern = regexp.MustCompile(`"code":\s*(\d{3})`)

// Stream lifecycle labels delivered via onStatus.
const (
	StatusConnecting = "connecting"
	StatusGenerating = "generating"
)

// LLMGateway owns the external model invocation. It applies the overall
// request deadline and classifies provider failures; it never retries a
// generation call (a partial generation is not safely retryable) and never
// fails on malformed model content, which is the parser's concern.
type LLMGateway struct {
	provider LLMProvider
	timeout  time.Duration
	breaker  *util.CircuitBreaker
	logger   *zap.Logger
}

func NewLLMGateway(provider LLMProvider, timeout time.Duration, logger *zap.Logger) *LLMGateway {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &LLMGateway{
		provider: provider,
		timeout:  timeout,
		breaker:  util.NewCircuitBreaker(3, 30*time.Second, logger),
		logger:   logger,
	}
}

// Complete sends the payload and waits for the full completion text.
func (g *LLMGateway) Complete(ctx context.Context, payload prompt.Payload) (string, error) {
	if !g.breaker.CanExecute() {
		return "", errs.NewUpstreamError("model provider circuit open", nil)
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	text, err := g.provider.Complete(ctx, payload)
	if err != nil {
		// A caller abort is not a provider failure and must not count
		// toward breaker state.
		if errors.Is(err, context.Canceled) {
			return "", err
		}
		classified := g.classify(err)
		g.recordOutcome(classified)
		return "", classified
	}

	g.breaker.RecordSuccess()
	return text, nil
}

// Stream opens a streaming generation, forwarding each fragment to onChunk
// in generation order and coarse lifecycle signals to onStatus. The full
// concatenated text is returned once the provider signals completion; a
// stream that ends without that signal is an incomplete-stream error and
// the partial concatenation must not be used.
func (g *LLMGateway) Stream(ctx context.Context, payload prompt.Payload, onChunk func(string), onStatus func(string)) (string, error) {
	if onChunk == nil {
		onChunk = func(string) {}
	}
	if onStatus == nil {
		onStatus = func(string) {}
	}

	if !g.breaker.CanExecute() {
		return "", errs.NewUpstreamError("model provider circuit open", nil)
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	onStatus(StatusConnecting)

	first := true
	text, err := g.provider.Stream(ctx, payload, func(chunk string) {
		if first {
			first = false
			onStatus(StatusGenerating)
		}
		onChunk(chunk)
	})
	if err != nil {
		if errs.IsIncompleteStream(err) {
			g.breaker.RecordFailure(0)
			return "", err
		}
		if errors.Is(err, context.Canceled) {
			return "", err
		}
		classified := g.classify(err)
		g.recordOutcome(classified)
		return "", classified
	}

	g.breaker.RecordSuccess()
	return text, nil
}

func (g *LLMGateway) ProviderName() string {
	return g.provider.Name()
}

func (g *LLMGateway) recordOutcome(err error) {
	if errs.IsQuota(err) || errs.IsTimeout(err) || errs.HasCode(err, errs.CodeUpstream) {
		g.breaker.RecordFailure(0)
	}
}

// classify maps a raw provider error onto the gateway's failure taxonomy.
func (g *LLMGateway) classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		g.logger.Warn("Model call exceeded deadline",
			zap.String("provider", g.provider.Name()),
			zap.Duration("timeout", g.timeout),
		)
		return errs.NewTimeoutError("model call timed out", err)
	}

	if isRateLimitError(err) {
		g.logger.Warn("Model provider rate limited",
			zap.String("provider", g.provider.Name()),
			zap.Error(err),
		)
		return errs.NewQuotaError("model provider quota exhausted", err)
	}

	g.logger.Error("Model call failed",
		zap.String("provider", g.provider.Name()),
		zap.Error(err),
	)
	return errs.NewUpstreamError("model call failed", err)
}

func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}

	msg := err.Error()
	if rateLimitCodePattern.MatchString(msg) {
		return true
	}
	if strings.Contains(msg, "Rate limit") || strings.Contains(msg, "rate limit") || strings.Contains(msg, "quota") {
		return true
	}

	if matches := serverCodePattern.FindStringSubmatch(msg); len(matches) > 1 {
		if code, convErr := strconv.Atoi(matches[1]); convErr == nil {
			return code == 429
		}
	}

	return false
}
