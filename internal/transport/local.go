package transport

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultCallTimeout bounds every local transport operation. A call that
// exceeds it is reported as a failure, not a process abort.
const DefaultCallTimeout = 60 * time.Second

// Local implements Transport against the machine the process runs on.
// Remote targets are rejected; the remote backends live behind the same
// interface.
type Local struct {
	Timeout time.Duration
}

// NewLocal creates a local transport with the default per-call timeout
func NewLocal() *Local {
	return &Local{Timeout: DefaultCallTimeout}
}

func (l *Local) timeout() time.Duration {
	if l.Timeout > 0 {
		return l.Timeout
	}
	return DefaultCallTimeout
}

func isLocalhost(hostname string) bool {
	return hostname == "localhost" || hostname == "127.0.0.1"
}

// localPath converts share-style paths (C$/foo/bar) to local filesystem paths
func localPath(path string) string {
	if runtime.GOOS != "windows" {
		return path
	}
	if strings.HasPrefix(path, "C$/") {
		return "C:\\" + strings.ReplaceAll(strings.TrimPrefix(path, "C$/"), "/", "\\")
	}
	return strings.ReplaceAll(path, "/", "\\")
}

// ReadTail reads the last maxLines lines of a local file. The read runs
// under the per-call timeout; a file on a hung network mount is reported
// as a failure, same as a timed-out command.
func (l *Local) ReadTail(ctx context.Context, target Target, path string, maxLines int) TailResult {
	if !isLocalhost(target.Hostname) {
		return TailResult{Error: fmt.Sprintf("local transport cannot reach remote host %q", target.Hostname)}
	}

	ctx, cancel := context.WithTimeout(ctx, l.timeout())
	defer cancel()

	data, err := readFileContext(ctx, localPath(path))
	if err != nil {
		return TailResult{Error: err.Error()}
	}

	lines := strings.Split(string(data), "\n")
	total := len(lines)
	if maxLines > 0 && total > maxLines {
		lines = lines[total-maxLines:]
	}

	return TailResult{
		Success:    true,
		Content:    strings.Join(lines, "\n"),
		LinesRead:  len(lines),
		TotalLines: total,
	}
}

// readFileContext reads a whole file, abandoning the wait when ctx ends.
// The read itself cannot be interrupted, so on timeout the goroutine is
// left to finish and its result is dropped.
func readFileContext(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	type readResult struct {
		data []byte
		err  error
	}
	ch := make(chan readResult, 1)
	go func() {
		data, err := os.ReadFile(path)
		ch <- readResult{data, err}
	}()

	select {
	case r := <-ch:
		return r.data, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Execute runs a command through the local shell. On Windows the command
// goes through PowerShell, matching how the fleet commands are written.
func (l *Local) Execute(ctx context.Context, target Target, command string) ExecResult {
	if !isLocalhost(target.Hostname) {
		return ExecResult{Stderr: fmt.Sprintf("local transport cannot reach remote host %q", target.Hostname), ExitCode: -1}
	}
	return l.run(ctx, command)
}

// ExportUpdateLog decodes the Windows Update ETL traces into a text log at
// outputPath, then tails it so the caller gets the content directly.
func (l *Local) ExportUpdateLog(ctx context.Context, target Target, outputPath string) ExecResult {
	if !isLocalhost(target.Hostname) {
		return ExecResult{Stderr: fmt.Sprintf("local transport cannot reach remote host %q", target.Hostname), ExitCode: -1}
	}

	export := l.run(ctx, fmt.Sprintf("Get-WindowsUpdateLog -LogPath '%s'", outputPath))
	if !export.Success {
		return export
	}

	tail := l.ReadTail(ctx, target, outputPath, 2000)
	if !tail.Success {
		return ExecResult{Stderr: tail.Error, ExitCode: -1}
	}
	return ExecResult{Success: true, Stdout: tail.Content}
}

// QueryEventLog composes a Get-WinEvent filter query that returns events as
// JSON on stdout.
func (l *Local) QueryEventLog(ctx context.Context, target Target, q EventQuery) ExecResult {
	if !isLocalhost(target.Hostname) {
		return ExecResult{Stderr: fmt.Sprintf("local transport cannot reach remote host %q", target.Hostname), ExitCode: -1}
	}
	return l.run(ctx, BuildEventQueryCommand(q))
}

// BuildEventQueryCommand renders an EventQuery as a PowerShell pipeline
func BuildEventQueryCommand(q EventQuery) string {
	logName := q.LogName
	if logName == "" {
		logName = "System"
	}
	maxEvents := q.MaxEvents
	if maxEvents <= 0 {
		maxEvents = 100
	}

	filter := fmt.Sprintf("LogName='%s'", logName)
	if len(q.EventIDs) > 0 {
		ids := make([]string, len(q.EventIDs))
		for i, id := range q.EventIDs {
			ids[i] = strconv.Itoa(id)
		}
		filter += fmt.Sprintf("; ID=@(%s)", strings.Join(ids, ","))
	}

	cmd := fmt.Sprintf("Get-WinEvent -FilterHashtable @{%s} -MaxEvents %d -ErrorAction Stop", filter, maxEvents)
	if q.Provider != "" {
		cmd += fmt.Sprintf(" | Where-Object { $_.ProviderName -like '*%s*' }", q.Provider)
	}
	cmd += " | Select-Object TimeCreated, Id, LevelDisplayName, ProviderName, Message | ConvertTo-Json -Depth 3"
	return cmd
}

func (l *Local) run(ctx context.Context, command string) ExecResult {
	ctx, cancel := context.WithTimeout(ctx, l.timeout())
	defer cancel()

	var cmd *exec.Cmd
	if runtime.GOOS == "windows" {
		cmd = exec.CommandContext(ctx, "powershell", "-NoProfile", "-NonInteractive", "-Command", command)
	} else {
		cmd = exec.CommandContext(ctx, "sh", "-c", command)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := ExecResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	switch {
	case err == nil:
		result.Success = true
	case ctx.Err() == context.DeadlineExceeded:
		result.ExitCode = -1
		if result.Stderr == "" {
			result.Stderr = "command timed out"
		}
	default:
		result.ExitCode = -1
		if cmd.ProcessState != nil {
			result.ExitCode = cmd.ProcessState.ExitCode()
		}
		if result.Stderr == "" {
			result.Stderr = err.Error()
		}
		log.Debug().Str("command", command).Int("exit_code", result.ExitCode).Msg("local command failed")
	}

	return result
}
