// Package analyzer turns collected logs into structured health verdicts by
// prompting an LLM and defensively parsing its replies.
package analyzer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/fleetlens/fleetlens/pkg/models"
)

// maxRetries is the number of additional LLM attempts after the first
const maxRetries = 2

// CompletionClient is the slice of the LLM client the analyzer needs
type CompletionClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Analyzer produces per-log and per-client verdicts. It never returns an
// error from its public operations; irrecoverable failures become verdicts
// with severity error and confidence 0.
type Analyzer struct {
	llm          CompletionClient
	systemPrompt string
	retryDelay   time.Duration
	limiter      *rate.Limiter
}

// Option configures an Analyzer
type Option func(*Analyzer)

// WithRetryDelay sets the fixed delay between LLM retry attempts
func WithRetryDelay(d time.Duration) Option {
	return func(a *Analyzer) { a.retryDelay = d }
}

// WithRateLimit paces LLM request admission to r requests per second.
// This replaces a per-call sleep: concurrent analyses queue on the limiter
// instead of hammering the endpoint.
func WithRateLimit(r rate.Limit) Option {
	return func(a *Analyzer) { a.limiter = rate.NewLimiter(r, 1) }
}

// New creates an Analyzer using the given completion client
func New(llm CompletionClient, systemPrompt string, opts ...Option) *Analyzer {
	a := &Analyzer{
		llm:          llm,
		systemPrompt: systemPrompt,
		retryDelay:   2 * time.Second,
		limiter:      rate.NewLimiter(rate.Limit(1), 1),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// AnalyzeLog analyzes one collected log source. Sources that failed to
// collect, or collected only whitespace, are synthesized into an error
// verdict without spending an LLM call.
func (a *Analyzer) AnalyzeLog(ctx context.Context, src models.LogSourceResult) models.LogAnalysisResult {
	if !src.Success || strings.TrimSpace(src.Content) == "" {
		return models.NewLogAnalysis(
			src.Source,
			fmt.Sprintf("Failed to collect log: %s", src.Error),
			[]string{"Log collection failed"},
			[]string{"Check file permissions and network connectivity"},
			models.SeverityError,
			1.0,
		)
	}

	prompt := buildPrompt(a.systemPrompt, src)

	response, err := a.callWithRetry(ctx, prompt)
	if err != nil {
		log.Error().Err(err).Str("source", src.Source).Msg("analysis failed after retries")
		return models.NewLogAnalysis(
			src.Source,
			fmt.Sprintf("Analysis failed: %v", err),
			[]string{fmt.Sprintf("Analysis error: %v", err)},
			[]string{"Retry analysis or check LLM endpoint"},
			models.SeverityError,
			0.0,
		)
	}

	return parseResponse(src.Source, response)
}

// callWithRetry issues the completion with up to maxRetries additional
// attempts, a fixed delay apart. Each attempt first waits on the rate
// limiter so concurrent analyses are paced.
func (a *Analyzer) callWithRetry(ctx context.Context, prompt string) (string, error) {
	var response string

	operation := func() error {
		if err := a.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}
		out, err := a.llm.Complete(ctx, prompt)
		if err != nil {
			log.Warn().Err(err).Msg("LLM call failed, will retry")
			return err
		}
		response = out
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(a.retryDelay), maxRetries),
		ctx,
	)
	if err := backoff.Retry(operation, policy); err != nil {
		return "", err
	}
	return response, nil
}
