package transport

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadTail_TailsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cas.log")
	require.NoError(t, os.WriteFile(path, []byte("one\ntwo\nthree\nfour\nfive"), 0o644))

	l := NewLocal()
	res := l.ReadTail(context.Background(), Target{Hostname: "localhost"}, path, 2)

	assert.True(t, res.Success)
	assert.Equal(t, "four\nfive", res.Content)
	assert.Equal(t, 2, res.LinesRead)
	assert.Equal(t, 5, res.TotalLines)
}

func TestReadTail_ShorterThanLimit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "small.log")
	require.NoError(t, os.WriteFile(path, []byte("only line"), 0o644))

	res := NewLocal().ReadTail(context.Background(), Target{Hostname: "127.0.0.1"}, path, 2000)

	assert.True(t, res.Success)
	assert.Equal(t, "only line", res.Content)
	assert.Equal(t, 1, res.TotalLines)
}

func TestReadTail_MissingFile(t *testing.T) {
	res := NewLocal().ReadTail(context.Background(), Target{Hostname: "localhost"}, filepath.Join(t.TempDir(), "gone.log"), 100)

	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Error)
}

func TestReadTail_CancelledContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cas.log")
	require.NoError(t, os.WriteFile(path, []byte("line"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := NewLocal().ReadTail(ctx, Target{Hostname: "localhost"}, path, 100)

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "context canceled")
}

func TestReadTail_RejectsRemoteHost(t *testing.T) {
	res := NewLocal().ReadTail(context.Background(), Target{Hostname: "ws-01.lab.local"}, "C$/Windows/CCM/Logs/cas.log", 100)

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "remote host")
}

func TestExecute_RejectsRemoteHost(t *testing.T) {
	res := NewLocal().Execute(context.Background(), Target{Hostname: "ws-01"}, "Get-Date")

	assert.False(t, res.Success)
	assert.Equal(t, -1, res.ExitCode)
	assert.Contains(t, res.Stderr, "remote host")
}

func TestBuildEventQueryCommand_Full(t *testing.T) {
	cmd := BuildEventQueryCommand(EventQuery{
		LogName:   "Application",
		MaxEvents: 50,
		EventIDs:  []int{1000, 1001},
		Provider:  "Windows Update",
	})

	assert.Contains(t, cmd, "LogName='Application'")
	assert.Contains(t, cmd, "ID=@(1000,1001)")
	assert.Contains(t, cmd, "-MaxEvents 50")
	assert.Contains(t, cmd, "$_.ProviderName -like '*Windows Update*'")
	assert.True(t, strings.HasSuffix(cmd, "ConvertTo-Json -Depth 3"))
}

func TestBuildEventQueryCommand_Defaults(t *testing.T) {
	cmd := BuildEventQueryCommand(EventQuery{})

	assert.Contains(t, cmd, "LogName='System'")
	assert.Contains(t, cmd, "-MaxEvents 100")
	assert.NotContains(t, cmd, "ID=@")
	assert.NotContains(t, cmd, "Where-Object")
}
