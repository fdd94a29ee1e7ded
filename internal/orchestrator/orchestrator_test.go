package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/fleetlens/fleetlens/internal/analyzer"
	"github.com/fleetlens/fleetlens/internal/collector"
	"github.com/fleetlens/fleetlens/internal/config"
	"github.com/fleetlens/fleetlens/internal/resultcache"
	"github.com/fleetlens/fleetlens/internal/transport"
	"github.com/fleetlens/fleetlens/pkg/models"
)

type stubTransport struct{}

func (stubTransport) ReadTail(ctx context.Context, target transport.Target, path string, maxLines int) transport.TailResult {
	return transport.TailResult{Success: true, Content: "2026-08-29 ok", LinesRead: 1, TotalLines: 1}
}

func (stubTransport) Execute(ctx context.Context, target transport.Target, command string) transport.ExecResult {
	return transport.ExecResult{Success: true, Stdout: "done\n"}
}

func (stubTransport) ExportUpdateLog(ctx context.Context, target transport.Target, outputPath string) transport.ExecResult {
	return transport.ExecResult{Success: true, Stdout: "update log\n"}
}

func (stubTransport) QueryEventLog(ctx context.Context, target transport.Target, q transport.EventQuery) transport.ExecResult {
	return transport.ExecResult{Success: true, Stdout: "[]\n"}
}

type stubLLM struct{}

func (stubLLM) Complete(ctx context.Context, prompt string) (string, error) {
	return `{"analysis": "No anomalies found.", "issues_found": [], "recommendations": [], "severity": "info", "confidence": 0.9}`, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Credentials: map[string]config.Credential{
			"lab": {Username: "admin", Password: "pw", Domain: "LAB"},
		},
		Clients: []config.Client{
			{
				Name:        "ws-01",
				Hostname:    "localhost",
				Credentials: "lab",
				LogPaths:    map[string][]string{"sccm": {"C$/Windows/CCM/Logs/cas.log"}},
			},
			{
				Name:        "ws-02",
				Hostname:    "localhost",
				Credentials: "lab",
				LogPaths:    map[string][]string{"sccm": {"C$/Windows/CCM/Logs/cas.log"}},
			},
		},
		TailLines: 2000,
	}
}

func newTestOrchestrator(t *testing.T, cache *resultcache.Cache) *Orchestrator {
	t.Helper()
	col := collector.New(testConfig(), stubTransport{})
	an := analyzer.New(stubLLM{}, "", analyzer.WithRetryDelay(time.Millisecond), analyzer.WithRateLimit(rate.Inf))
	return New(col, an, cache)
}

func TestRun_OneResultPerClientInOrder(t *testing.T) {
	o := newTestOrchestrator(t, nil)

	results := o.Run(context.Background(), []string{"ws-01", "ghost", "ws-02"})

	require.Len(t, results, 3)
	assert.Equal(t, "ws-01", results[0].ClientName)
	assert.Equal(t, "ghost", results[1].ClientName)
	assert.Equal(t, "ws-02", results[2].ClientName)

	assert.Equal(t, models.StatusHealthy, results[0].OverallStatus)
	assert.Equal(t, models.StatusCritical, results[1].OverallStatus)
}

func TestRun_CachesPerClientResults(t *testing.T) {
	cache, err := resultcache.New(16)
	require.NoError(t, err)
	o := newTestOrchestrator(t, cache)

	o.Run(context.Background(), []string{"ws-01"})

	res, ok := cache.GetClient("ws-01")
	require.True(t, ok)
	assert.Equal(t, models.StatusHealthy, res.OverallStatus)
}

func TestCollectOnly_NoAnalysis(t *testing.T) {
	o := newTestOrchestrator(t, nil)

	cols := o.CollectOnly(context.Background(), []string{"ws-01"})

	require.Len(t, cols, 1)
	assert.True(t, cols[0].Success)
	require.Len(t, cols[0].LogResults, 1)
	assert.Equal(t, "FILE:C$/Windows/CCM/Logs/cas.log", cols[0].LogResults[0].Source)
}

func TestStartRun_Lifecycle(t *testing.T) {
	cache, err := resultcache.New(16)
	require.NoError(t, err)
	o := newTestOrchestrator(t, cache)

	requestID := o.StartRun(context.Background(), []string{"ws-01"})
	require.NotEmpty(t, requestID)

	rec, ok := cache.GetRun(requestID)
	require.True(t, ok)
	assert.Equal(t, []string{"ws-01"}, rec.Clients)
	assert.False(t, rec.StartedAt.IsZero())

	require.Eventually(t, func() bool {
		rec, ok := cache.GetRun(requestID)
		return ok && rec.State == resultcache.RunCompleted
	}, 5*time.Second, 10*time.Millisecond)

	rec, _ = cache.GetRun(requestID)
	require.Len(t, rec.Results, 1)
	assert.Equal(t, "ws-01", rec.Results[0].ClientName)
}
