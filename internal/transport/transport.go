// Package transport defines the contract for reading logs and running
// commands on fleet machines. Every operation is non-throwing: all failure
// modes surface through the Success and Error fields of the result structs,
// so callers can record a failure per source without unwinding.
package transport

import "context"

// Target identifies the machine an operation runs against
type Target struct {
	Hostname string
	Username string
	Password string
	Domain   string
}

// TailResult is the outcome of reading the tail of a file
type TailResult struct {
	Success    bool
	Content    string
	LinesRead  int
	TotalLines int
	Error      string
}

// ExecResult is the outcome of running a command
type ExecResult struct {
	Success  bool
	Stdout   string
	Stderr   string
	ExitCode int
}

// EventQuery describes a structured event-log query
type EventQuery struct {
	LogName   string
	MaxEvents int
	EventIDs  []int
	Provider  string
}

// Transport performs the actual I/O against a machine. Implementations
// cover local execution, file-share reads, and remote command execution;
// the collector treats them uniformly.
type Transport interface {
	// ReadTail returns the last maxLines lines of a file
	ReadTail(ctx context.Context, target Target, path string, maxLines int) TailResult

	// Execute runs a command verbatim
	Execute(ctx context.Context, target Target, command string) ExecResult

	// ExportUpdateLog runs the Windows Update Log export-then-tail sequence,
	// writing the decoded log to outputPath before reading it back
	ExportUpdateLog(ctx context.Context, target Target, outputPath string) ExecResult

	// QueryEventLog runs a structured event-log query; stdout carries
	// JSON-serialized event records
	QueryEventLog(ctx context.Context, target Target, q EventQuery) ExecResult
}
