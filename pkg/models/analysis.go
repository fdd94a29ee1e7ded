package models

import "time"

// LogAnalysisResult is the LLM verdict for a single log source.
// Confidence is always populated; parse failures produce defaulted values
// rather than absent ones.
type LogAnalysisResult struct {
	Source          string    `json:"source"`
	Analysis        string    `json:"analysis"`
	IssuesFound     []string  `json:"issues_found"`
	Recommendations []string  `json:"recommendations"`
	Severity        Severity  `json:"severity"`
	Confidence      float64   `json:"confidence"`
	Timestamp       time.Time `json:"timestamp"`
}

// NewLogAnalysis builds a verdict, normalizing nil slices and out-of-range
// confidence so callers can rely on the invariants.
func NewLogAnalysis(source, analysis string, issues, recommendations []string, severity Severity, confidence float64) LogAnalysisResult {
	if issues == nil {
		issues = []string{}
	}
	if recommendations == nil {
		recommendations = []string{}
	}
	if !severity.Valid() {
		severity = SeverityInfo
	}
	if confidence < 0 {
		confidence = 0
	} else if confidence > 1 {
		confidence = 1
	}
	return LogAnalysisResult{
		Source:          source,
		Analysis:        analysis,
		IssuesFound:     issues,
		Recommendations: recommendations,
		Severity:        severity,
		Confidence:      confidence,
		Timestamp:       time.Now(),
	}
}

// ClientAnalysisResult is the aggregated verdict for one client.
// Constructed once per run; a later run supersedes it rather than
// mutating it.
type ClientAnalysisResult struct {
	ClientName    string              `json:"client_name"`
	Hostname      string              `json:"hostname"`
	OverallStatus Status              `json:"overall_status"`
	LogAnalyses   []LogAnalysisResult `json:"log_analyses"`
	Summary       string              `json:"summary"`
	ActionItems   []string            `json:"action_items"`
	Timestamp     time.Time           `json:"timestamp"`
}

// HasIssues returns true if the client is not healthy
func (r ClientAnalysisResult) HasIssues() bool {
	return r.OverallStatus != StatusHealthy
}
