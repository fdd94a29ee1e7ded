package models

// Severity classifies a single log verdict
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// severityRank orders severities for escalation comparisons
var severityRank = map[Severity]int{
	SeverityInfo:     0,
	SeverityWarning:  1,
	SeverityError:    2,
	SeverityCritical: 3,
}

// Rank returns the ordinal position of the severity. Unknown severities
// rank as info so a garbled LLM reply can never escalate a client.
func (s Severity) Rank() int {
	return severityRank[s]
}

// AtLeast returns true if s is as severe or more severe than other
func (s Severity) AtLeast(other Severity) bool {
	return s.Rank() >= other.Rank()
}

// Valid returns true if s is one of the four known severities
func (s Severity) Valid() bool {
	_, ok := severityRank[s]
	return ok
}

// Status is the aggregated health verdict for a client
type Status string

const (
	StatusHealthy  Status = "healthy"
	StatusIssues   Status = "issues"
	StatusCritical Status = "critical"
)
