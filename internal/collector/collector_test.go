package collector

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetlens/fleetlens/internal/config"
	"github.com/fleetlens/fleetlens/internal/transport"
)

// fakeTransport scripts per-path tail outcomes and records command dispatch
type fakeTransport struct {
	tails        map[string]transport.TailResult
	execs        map[string]transport.ExecResult
	updateCalls  []string
	eventQueries []transport.EventQuery
	genericCmds  []string
}

func (f *fakeTransport) ReadTail(ctx context.Context, target transport.Target, path string, maxLines int) transport.TailResult {
	if result, ok := f.tails[path]; ok {
		return result
	}
	return transport.TailResult{Error: "file not found: " + path}
}

func (f *fakeTransport) Execute(ctx context.Context, target transport.Target, command string) transport.ExecResult {
	f.genericCmds = append(f.genericCmds, command)
	if result, ok := f.execs[command]; ok {
		return result
	}
	return transport.ExecResult{Success: true, Stdout: "output\nline two\n"}
}

func (f *fakeTransport) ExportUpdateLog(ctx context.Context, target transport.Target, outputPath string) transport.ExecResult {
	f.updateCalls = append(f.updateCalls, outputPath)
	return transport.ExecResult{Success: true, Stdout: "update log content\n"}
}

func (f *fakeTransport) QueryEventLog(ctx context.Context, target transport.Target, q transport.EventQuery) transport.ExecResult {
	f.eventQueries = append(f.eventQueries, q)
	return transport.ExecResult{Success: true, Stdout: `[{"Id": 41}]` + "\n"}
}

func testConfig(t *testing.T, clients []config.Client) *config.Config {
	t.Helper()
	cfg := &config.Config{
		Credentials: map[string]config.Credential{
			"lab": {Username: "admin", Password: "secret", Domain: "LAB"},
		},
		Clients:   clients,
		TailLines: 2000,
	}
	return cfg
}

func TestCollect_PartialFileFailure(t *testing.T) {
	cfg := testConfig(t, []config.Client{{
		Name:        "ws-01",
		Hostname:    "host-01",
		Credentials: "lab",
		LogPaths: map[string][]string{
			"sccm": {"C$/Windows/CCM/Logs/cas.log", "C$/Windows/CCM/Logs/missing.log", "C$/Windows/CCM/Logs/WUAHandler.log"},
		},
	}})

	ft := &fakeTransport{tails: map[string]transport.TailResult{
		"C$/Windows/CCM/Logs/cas.log":        {Success: true, Content: "cas content", LinesRead: 1},
		"C$/Windows/CCM/Logs/WUAHandler.log": {Success: true, Content: "wua content", LinesRead: 1},
	}}

	col := New(cfg, ft).Collect(context.Background(), "ws-01")

	require.Len(t, col.LogResults, 3)
	failures := 0
	for _, r := range col.LogResults {
		if !r.Success {
			failures++
			assert.Empty(t, r.Content)
			assert.NotEmpty(t, r.Error)
		}
	}
	assert.Equal(t, 1, failures)
	assert.Len(t, col.Errors, 1)
	assert.False(t, col.Success, "a recorded per-path error makes the collection unsuccessful")
}

func TestCollect_UnknownClient(t *testing.T) {
	cfg := testConfig(t, nil)

	col := New(cfg, &fakeTransport{}).Collect(context.Background(), "ghost")

	assert.False(t, col.Success)
	assert.Equal(t, "unknown", col.Hostname)
	require.Len(t, col.Errors, 1)
	assert.Contains(t, col.Errors[0], "'ghost' not found")
	assert.Empty(t, col.LogResults)
}

func TestCollect_UnknownCredentials(t *testing.T) {
	cfg := testConfig(t, []config.Client{{
		Name:        "ws-01",
		Hostname:    "host-01",
		Credentials: "nonexistent",
	}})

	col := New(cfg, &fakeTransport{}).Collect(context.Background(), "ws-01")

	assert.False(t, col.Success)
	assert.Equal(t, "host-01", col.Hostname)
	require.Len(t, col.Errors, 1)
	assert.Contains(t, col.Errors[0], "Credentials 'nonexistent' not found")
}

func TestCollect_AllSourcesFailedIsNotSuccess(t *testing.T) {
	cfg := testConfig(t, []config.Client{{
		Name:        "ws-01",
		Hostname:    "host-01",
		Credentials: "lab",
		LogPaths:    map[string][]string{"sys": {"C$/missing1.log", "C$/missing2.log"}},
	}})

	col := New(cfg, &fakeTransport{}).Collect(context.Background(), "ws-01")

	assert.False(t, col.Success)
	assert.Len(t, col.LogResults, 2)
	assert.Len(t, col.Errors, 2)
}

func TestCollect_CommandDispatch(t *testing.T) {
	client := config.Client{
		Name:        "ws-01",
		Hostname:    "host-01",
		Credentials: "lab",
		Commands: []string{
			"Get-WindowsUpdateLog",
			"Get-WinEvent -LogName Application -MaxEvents 50 | Where-Object { $_.Id -in @(1000, 1001) }",
			"Get-Service | Where-Object Status -eq 'Stopped'",
		},
	}
	cfg := testConfig(t, []config.Client{client})

	ft := &fakeTransport{}
	col := New(cfg, ft).Collect(context.Background(), "ws-01")

	require.Len(t, col.LogResults, 3)
	assert.True(t, col.Success)

	require.Len(t, ft.updateCalls, 1)
	assert.Equal(t, config.DefaultUpdateLogPath, ft.updateCalls[0])

	require.Len(t, ft.eventQueries, 1)
	assert.Equal(t, "Application", ft.eventQueries[0].LogName)
	assert.Equal(t, 50, ft.eventQueries[0].MaxEvents)
	assert.Equal(t, []int{1000, 1001}, ft.eventQueries[0].EventIDs)

	require.Len(t, ft.genericCmds, 1)
	assert.Contains(t, ft.genericCmds[0], "Get-Service")
}

func TestCollect_CommandLineCount(t *testing.T) {
	client := config.Client{
		Name:        "ws-01",
		Hostname:    "host-01",
		Credentials: "lab",
		Commands:    []string{"Get-Process"},
	}
	cfg := testConfig(t, []config.Client{client})

	ft := &fakeTransport{}
	col := New(cfg, ft).Collect(context.Background(), "ws-01")

	require.Len(t, col.LogResults, 1)
	assert.Equal(t, 2, col.LogResults[0].LineCount, "line count is derived from newlines in stdout")
}

func TestCollectMany_PreservesInputOrder(t *testing.T) {
	cfg := testConfig(t, []config.Client{
		{Name: "b", Hostname: "host-b", Credentials: "lab", LogPaths: map[string][]string{"sys": {"C$/a.log"}}},
		{Name: "a", Hostname: "host-a", Credentials: "lab", LogPaths: map[string][]string{"sys": {"C$/a.log"}}},
	})
	ft := &fakeTransport{tails: map[string]transport.TailResult{
		"C$/a.log": {Success: true, Content: "x", LinesRead: 1},
	}}

	collections := New(cfg, ft).CollectMany(context.Background(), []string{"a", "ghost", "b"})

	require.Len(t, collections, 3)
	assert.Equal(t, "a", collections[0].ClientName)
	assert.Equal(t, "ghost", collections[1].ClientName)
	assert.Equal(t, "b", collections[2].ClientName)
	assert.True(t, collections[0].Success)
	assert.False(t, collections[1].Success)
	assert.True(t, collections[2].Success)
}
