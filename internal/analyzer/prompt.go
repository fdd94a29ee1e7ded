package analyzer

import (
	"fmt"
	"strings"

	"github.com/fleetlens/fleetlens/pkg/models"
)

// maxLogChars bounds how much log content goes into one prompt so a large
// tail cannot blow the model's context window.
const maxLogChars = 8000

const defaultSystemPrompt = `You are an expert Windows systems engineer analyzing diagnostic logs from deployed machines. Identify failures, their causes, and concrete remediation steps. Always include exact error codes, file paths, service names, and component versions when the log provides them.`

// logCategory selects the category-specific instruction block for a source
type logCategory struct {
	label        string
	instructions string
}

var (
	categoryUpdateHandler = logCategory{
		label: "SCCM Windows Update Agent Handler",
		instructions: `Focus on:
- Windows Update installation failures
- Update agent errors and warnings
- Communication issues with WSUS/Windows Update
- Installation progress and completion status`,
	}

	categoryContentAccess = logCategory{
		label: "SCCM Content Access Service",
		instructions: `Focus on:
- Content download failures
- Distribution point connectivity issues
- Content validation errors
- Cache management problems`,
	}

	categoryServicing = logCategory{
		label: "Component-Based Servicing (CBS.log)",
		instructions: `Focus specifically on:
- Package installation failures with exact package names, versions, and error codes
- TrustedInstaller service operations and permission errors
- Component store corruption with specific file paths and manifest issues
- SxS assembly conflicts with detailed version information
- System file corruption with specific .dll/.exe/.sys file names
- Dependency resolution problems with component hierarchies
- DISM operation failures and servicing stack issues
- WinSxS store problems and cleanup operations
- Registry operations and permissions errors
- File system operations and access denied errors

Include specific details:
- Error codes (0x hex values, HRESULT codes)
- File paths and registry keys
- Package GUIDs and version numbers
- Timestamps and operation sequences
- Service names and process IDs`,
	}

	categoryUpdateExport = logCategory{
		label: "Windows Update Log",
		instructions: `Focus on:
- Update download and installation errors
- Agent communication issues
- Reboot requirements and failures
- Update rollback scenarios`,
	}

	categoryEventLog = logCategory{
		label: "Windows Event Log",
		instructions: `Focus on:
- Critical system events
- Application and service failures
- Security-related events
- Hardware and driver issues`,
	}

	categoryGeneric = logCategory{
		label: "Windows System Log",
		instructions: `Focus on:
- Error and warning messages
- System component failures
- Configuration issues
- Performance problems`,
	}
)

// classifySource picks the instruction category from the source identifier
func classifySource(source string) logCategory {
	s := strings.ToLower(source)
	switch {
	case strings.Contains(s, "wuahandler"):
		return categoryUpdateHandler
	case strings.Contains(s, "cas.log"):
		return categoryContentAccess
	case strings.Contains(s, "cbs.log"):
		return categoryServicing
	case strings.Contains(s, "windowsupdate") || strings.Contains(s, "get-windowsupdatelog"):
		return categoryUpdateExport
	case strings.Contains(s, "powershell") && strings.Contains(s, "winevent"):
		return categoryEventLog
	default:
		return categoryGeneric
	}
}

// buildPrompt assembles the analysis prompt for one collected log: system
// prompt prefix, category label and instructions, the strict JSON output
// contract, and the truncated log content.
func buildPrompt(systemPrompt string, src models.LogSourceResult) string {
	if systemPrompt == "" {
		systemPrompt = defaultSystemPrompt
	}
	category := classifySource(src.Source)

	content := src.Content
	if len(content) > maxLogChars {
		content = content[:maxLogChars]
	}

	var sb strings.Builder
	sb.WriteString(systemPrompt)
	sb.WriteString("\n\nLOG TYPE: ")
	sb.WriteString(category.label)
	sb.WriteString("\n\n")
	sb.WriteString(category.instructions)
	sb.WriteString(`

CRITICAL: You must respond ONLY with a valid JSON object. DO NOT include markdown code blocks, explanations, prefixes like "Here is the JSON object:", or any other text. Your response must start with { and end with }.

Required JSON format:
{
    "analysis": "Comprehensive technical analysis with specific error codes, file paths, registry keys, and component versions.",
    "issues_found": ["List specific issues found with technical details"],
    "recommendations": ["List specific actionable recommendations with exact commands and technical details"],
    "severity": "info|warning|error|critical",
    "confidence": 0.85
}

ANALYSIS INSTRUCTIONS:
1. Follow the instruction block above for technical depth and specificity
2. For CBS logs: include package names, versions, error codes, file paths, registry keys
3. For Event logs: include specific error codes, service names, process IDs
4. Include a confidence level between 0.0 and 1.0

RESPOND WITH ONLY THE JSON OBJECT - NO OTHER TEXT:

LOG CONTENT TO ANALYZE:
---
`)
	sb.WriteString(content)
	sb.WriteString("\n---")
	return sb.String()
}

// buildSummaryPrompt builds the compact executive-summary prompt from
// per-client counts and the leading issues of each verdict.
func buildSummaryPrompt(col models.ClientLogCollection, analyses []models.LogAnalysisResult) string {
	stats := models.CollectionStats(col, analyses)

	var sb strings.Builder
	sb.WriteString("Create a concise executive summary for Windows deployment log analysis.\n\n")
	fmt.Fprintf(&sb, "CLIENT: %s (%s)\n", col.ClientName, col.Hostname)
	fmt.Fprintf(&sb, "LOGS ANALYZED: %d/%d successful\n", stats.SuccessfulLogs, stats.TotalLogs)
	fmt.Fprintf(&sb, "ISSUES FOUND: %d critical, %d errors, %d warnings\n", stats.CriticalCount, stats.ErrorCount, stats.WarningCount)
	sb.WriteString("\nKEY FINDINGS:\n")

	for _, a := range analyses {
		if len(a.IssuesFound) == 0 {
			continue
		}
		issues := a.IssuesFound
		if len(issues) > 2 {
			issues = issues[:2]
		}
		fmt.Fprintf(&sb, "\n%s: %s", a.Source, strings.Join(issues, ", "))
	}

	sb.WriteString("\n\nProvide a 2-3 sentence executive summary highlighting the most critical issues and overall system health.")
	return sb.String()
}
