// Package orchestrator runs the collection and analysis pipeline across
// many clients. It is the last line of defense for failure isolation:
// whatever goes wrong inside one client's pipeline, the output always has
// exactly one entry per requested client, in input order.
package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/fleetlens/fleetlens/internal/analyzer"
	"github.com/fleetlens/fleetlens/internal/collector"
	"github.com/fleetlens/fleetlens/internal/resultcache"
	"github.com/fleetlens/fleetlens/pkg/models"
)

// Orchestrator wires the collector and analyzer together
type Orchestrator struct {
	collector *collector.Collector
	analyzer  *analyzer.Analyzer
	cache     *resultcache.Cache
}

// New creates an orchestrator. The cache may be nil when callers do not
// need results kept (one-shot CLI runs).
func New(c *collector.Collector, a *analyzer.Analyzer, cache *resultcache.Cache) *Orchestrator {
	return &Orchestrator{collector: c, analyzer: a, cache: cache}
}

// CollectOnly runs collection without analysis for the named clients
func (o *Orchestrator) CollectOnly(ctx context.Context, clientNames []string) []models.ClientLogCollection {
	return o.collector.CollectMany(ctx, clientNames)
}

// Run collects and analyzes the named clients. Collections fan out first;
// once available, one analysis task per client runs concurrently. A panic
// inside a client's analysis is converted into a synthetic critical result
// naming the failure.
func (o *Orchestrator) Run(ctx context.Context, clientNames []string) []models.ClientAnalysisResult {
	collections := o.collector.CollectMany(ctx, clientNames)

	results := make([]models.ClientAnalysisResult, len(collections))
	var wg sync.WaitGroup
	for i, col := range collections {
		wg.Add(1)
		go func(i int, col models.ClientLogCollection) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					log.Error().Str("client", col.ClientName).Interface("panic", r).Msg("analysis panicked")
					results[i] = failedResult(col, fmt.Sprintf("Analysis failed: %v", r))
				}
			}()
			results[i] = o.analyzer.AnalyzeCollection(ctx, col)
		}(i, col)
	}
	wg.Wait()

	if o.cache != nil {
		for _, r := range results {
			o.cache.PutClient(r)
		}
	}

	return results
}

// StartRun launches Run in the background and records its lifecycle in the
// cache under a fresh request ID, which it returns immediately.
func (o *Orchestrator) StartRun(ctx context.Context, clientNames []string) string {
	requestID := uuid.NewString()
	startedAt := time.Now()

	o.cache.PutRun(resultcache.RunRecord{
		RequestID: requestID,
		State:     resultcache.RunRunning,
		Clients:   clientNames,
		StartedAt: startedAt,
	})

	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error().Str("request_id", requestID).Interface("panic", r).Msg("analysis run panicked")
				o.cache.PutRun(resultcache.RunRecord{
					RequestID: requestID,
					State:     resultcache.RunFailed,
					Clients:   clientNames,
					Error:     fmt.Sprintf("run failed: %v", r),
					StartedAt: startedAt,
				})
			}
		}()

		results := o.Run(ctx, clientNames)
		o.cache.PutRun(resultcache.RunRecord{
			RequestID: requestID,
			State:     resultcache.RunCompleted,
			Clients:   clientNames,
			Results:   results,
			StartedAt: startedAt,
		})
	}()

	return requestID
}

// failedResult is the synthetic critical result for an escaped failure
func failedResult(col models.ClientLogCollection, summary string) models.ClientAnalysisResult {
	return models.ClientAnalysisResult{
		ClientName:    col.ClientName,
		Hostname:      col.Hostname,
		OverallStatus: models.StatusCritical,
		LogAnalyses:   []models.LogAnalysisResult{},
		Summary:       summary,
		ActionItems:   []string{"Retry analysis"},
		Timestamp:     time.Now(),
	}
}
