package models

import "time"

// LogSourceResult is the outcome of collecting one log source.
// A failed result always has empty content and a non-empty error.
type LogSourceResult struct {
	Source    string    `json:"source"`
	Success   bool      `json:"success"`
	Content   string    `json:"content"`
	Error     string    `json:"error,omitempty"`
	LineCount int       `json:"line_count"`
	Timestamp time.Time `json:"timestamp"`
}

// NewSourceResult builds a successful source result
func NewSourceResult(source, content string, lineCount int) LogSourceResult {
	return LogSourceResult{
		Source:    source,
		Success:   true,
		Content:   content,
		LineCount: lineCount,
		Timestamp: time.Now(),
	}
}

// NewSourceFailure builds a failed source result. Content is dropped so the
// failed-implies-empty invariant holds even when the transport returned
// partial output.
func NewSourceFailure(source, errMsg string) LogSourceResult {
	if errMsg == "" {
		errMsg = "unknown collection error"
	}
	return LogSourceResult{
		Source:    source,
		Success:   false,
		Error:     errMsg,
		Timestamp: time.Now(),
	}
}

// ClientLogCollection is the outcome of collecting all sources for one client
type ClientLogCollection struct {
	ClientName string            `json:"client_name"`
	Hostname   string            `json:"hostname"`
	Success    bool              `json:"success"`
	LogResults []LogSourceResult `json:"log_results"`
	Errors     []string          `json:"errors"`
	Timestamp  time.Time         `json:"timestamp"`
}

// NewClientLogCollection builds a collection and computes the overall
// success flag: no collection-level errors and at least one source succeeded.
// A client whose sources all failed is not successful even when no error
// string was recorded at the collection level.
func NewClientLogCollection(clientName, hostname string, results []LogSourceResult, errors []string) ClientLogCollection {
	anyOK := false
	for _, r := range results {
		if r.Success {
			anyOK = true
			break
		}
	}
	return ClientLogCollection{
		ClientName: clientName,
		Hostname:   hostname,
		Success:    len(errors) == 0 && anyOK,
		LogResults: results,
		Errors:     errors,
		Timestamp:  time.Now(),
	}
}

// FailedCollection builds a collection that never got to its sources,
// e.g. when the client or its credentials are missing from configuration.
func FailedCollection(clientName, hostname string, errors ...string) ClientLogCollection {
	return ClientLogCollection{
		ClientName: clientName,
		Hostname:   hostname,
		Success:    false,
		LogResults: []LogSourceResult{},
		Errors:     errors,
		Timestamp:  time.Now(),
	}
}

// Stats summarizes collection and analysis counts for one client
type Stats struct {
	TotalLogs      int `json:"total_logs"`
	SuccessfulLogs int `json:"successful_logs"`
	CriticalCount  int `json:"critical_count"`
	ErrorCount     int `json:"error_count"`
	WarningCount   int `json:"warning_count"`
}

// CollectionStats counts per-source outcomes and per-verdict severities
func CollectionStats(col ClientLogCollection, analyses []LogAnalysisResult) Stats {
	s := Stats{TotalLogs: len(col.LogResults)}
	for _, r := range col.LogResults {
		if r.Success {
			s.SuccessfulLogs++
		}
	}
	for _, a := range analyses {
		switch a.Severity {
		case SeverityCritical:
			s.CriticalCount++
		case SeverityError:
			s.ErrorCount++
		case SeverityWarning:
			s.WarningCount++
		}
	}
	return s
}
