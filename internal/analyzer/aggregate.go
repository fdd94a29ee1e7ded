package analyzer

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fleetlens/fleetlens/pkg/models"
)

// maxActionItems caps the aggregated action-item list per client
const maxActionItems = 10

// AnalyzeCollection analyzes every log in a client's collection and
// aggregates the verdicts into one client result. Per-log analyses are
// independent and run concurrently; the output keeps collection order.
func (a *Analyzer) AnalyzeCollection(ctx context.Context, col models.ClientLogCollection) models.ClientAnalysisResult {
	if !col.Success {
		return models.ClientAnalysisResult{
			ClientName:    col.ClientName,
			Hostname:      col.Hostname,
			OverallStatus: models.StatusCritical,
			LogAnalyses:   []models.LogAnalysisResult{},
			Summary:       fmt.Sprintf("Log collection failed: %s", strings.Join(col.Errors, ", ")),
			ActionItems:   []string{"Fix log collection issues before analysis"},
			Timestamp:     time.Now(),
		}
	}

	analyses := make([]models.LogAnalysisResult, len(col.LogResults))
	var wg sync.WaitGroup
	for i, src := range col.LogResults {
		wg.Add(1)
		go func(i int, src models.LogSourceResult) {
			defer wg.Done()
			analyses[i] = a.AnalyzeLog(ctx, src)
		}(i, src)
	}
	wg.Wait()

	summary := a.generateSummary(ctx, col, analyses)

	result := models.ClientAnalysisResult{
		ClientName:    col.ClientName,
		Hostname:      col.Hostname,
		OverallStatus: OverallStatus(analyses),
		LogAnalyses:   analyses,
		Summary:       summary,
		ActionItems:   ActionItems(analyses),
		Timestamp:     time.Now(),
	}

	log.Info().
		Str("client", col.ClientName).
		Str("status", string(result.OverallStatus)).
		Int("logs", len(analyses)).
		Msg("client analysis complete")

	return result
}

// OverallStatus escalates per-log severities into the client status.
// Zero verdicts is critical: health cannot be asserted without evidence.
func OverallStatus(analyses []models.LogAnalysisResult) models.Status {
	if len(analyses) == 0 {
		return models.StatusCritical
	}
	worst := models.SeverityInfo
	for _, a := range analyses {
		if a.Severity.AtLeast(worst) {
			worst = a.Severity
		}
	}
	switch worst {
	case models.SeverityCritical:
		return models.StatusCritical
	case models.SeverityError, models.SeverityWarning:
		return models.StatusIssues
	default:
		return models.StatusHealthy
	}
}

// ActionItems flattens recommendations across verdicts, deduplicates
// preserving first-seen order, and caps the list.
func ActionItems(analyses []models.LogAnalysisResult) []string {
	items := []string{}
	seen := make(map[string]bool)
	for _, a := range analyses {
		for _, rec := range a.Recommendations {
			if rec == "" || seen[rec] {
				continue
			}
			seen[rec] = true
			items = append(items, rec)
			if len(items) == maxActionItems {
				return items
			}
		}
	}
	return items
}

// generateSummary asks the LLM for a short executive narrative; a call
// failure falls back to a deterministic templated sentence so summary
// generation never blocks completion.
func (a *Analyzer) generateSummary(ctx context.Context, col models.ClientLogCollection, analyses []models.LogAnalysisResult) string {
	prompt := buildSummaryPrompt(col, analyses)

	if err := a.limiter.Wait(ctx); err == nil {
		if summary, err := a.llm.Complete(ctx, prompt); err == nil {
			return strings.TrimSpace(summary)
		} else {
			log.Warn().Err(err).Str("client", col.ClientName).Msg("summary generation failed, using fallback")
		}
	}

	return fallbackSummary(col, analyses)
}

// fallbackSummary builds the templated sentence used when the LLM is
// unavailable for the narrative.
func fallbackSummary(col models.ClientLogCollection, analyses []models.LogAnalysisResult) string {
	stats := models.CollectionStats(col, analyses)
	return fmt.Sprintf("Analysis completed for %d/%d logs. Found %d critical issues, %d errors, %d warnings.",
		stats.SuccessfulLogs, stats.TotalLogs, stats.CriticalCount, stats.ErrorCount, stats.WarningCount)
}
