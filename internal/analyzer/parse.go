package analyzer

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fleetlens/fleetlens/pkg/models"
)

// verdictDefaults applied when the reply omits fields
const (
	defaultAnalysis   = "No analysis provided"
	defaultConfidence = 0.5
)

// parseResponse turns free-form LLM reply text into a structured verdict.
// Extraction strategies run in order: fenced code block, brace-matched
// object, whole response. The extracted candidate is repaired (missing
// closing braces, unescaped Windows-path backslashes) before decoding.
// When no strategy yields valid JSON the heuristic text fallback takes over.
func parseResponse(source, response string) models.LogAnalysisResult {
	response = strings.TrimSpace(response)

	if jsonStr := extractJSON(response); jsonStr != "" {
		repaired := repairJSON(jsonStr)
		if verdict, ok := decodeVerdict(source, repaired); ok {
			return verdict
		}
	}

	return heuristicVerdict(source, response)
}

// extractJSON locates the JSON object inside a reply that may wrap it in a
// fenced code block or surrounding prose. Returns "" when no candidate is
// found.
func extractJSON(response string) string {
	// fenced code block, labeled or not
	if idx := strings.Index(response, "```json"); idx >= 0 {
		rest := response[idx+len("```json"):]
		if end := strings.Index(rest, "```"); end >= 0 {
			return strings.TrimSpace(rest[:end])
		}
		return strings.TrimSpace(rest)
	}
	if idx := strings.Index(response, "```"); idx >= 0 && strings.Contains(response, "{") {
		rest := response[idx+3:]
		if end := strings.Index(rest, "```"); end >= 0 {
			if candidate := strings.TrimSpace(rest[:end]); strings.HasPrefix(candidate, "{") {
				return candidate
			}
		}
	}

	// brace-matched object embedded in prose
	start := strings.Index(response, "{")
	if start < 0 {
		return ""
	}
	depth := 0
	for i := start; i < len(response); i++ {
		switch response[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return response[start : i+1]
			}
		}
	}

	// unbalanced braces: return from the first brace onward and let the
	// repair pass close it
	return response[start:]
}

// repairJSON fixes the two malformations the model produces most often:
// a truncated trailing object and unescaped backslashes in Windows paths.
// Returns the input unchanged when it already parses.
func repairJSON(jsonStr string) string {
	if json.Valid([]byte(jsonStr)) {
		return jsonStr
	}

	processed := strings.TrimSpace(jsonStr)

	if strings.HasPrefix(processed, "{") && !strings.HasSuffix(processed, "}") {
		opens := strings.Count(processed, "{")
		closes := strings.Count(processed, "}")
		if opens > closes {
			processed += strings.Repeat("}", opens-closes)
		}
	}

	processed = escapeLoneBackslashes(processed)

	if json.Valid([]byte(processed)) {
		return processed
	}
	return jsonStr
}

// escapeLoneBackslashes walks the document and, inside each quoted string,
// doubles any backslash that does not begin a valid JSON escape sequence.
func escapeLoneBackslashes(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	inString := false
	for i := 0; i < len(s); i++ {
		ch := s[i]

		if !inString {
			b.WriteByte(ch)
			if ch == '"' {
				inString = true
			}
			continue
		}

		switch ch {
		case '"':
			inString = false
			b.WriteByte(ch)
		case '\\':
			if i+1 < len(s) && isEscapeChar(s[i+1]) {
				b.WriteByte(ch)
				b.WriteByte(s[i+1])
				i++
			} else {
				b.WriteString(`\\`)
			}
		default:
			b.WriteByte(ch)
		}
	}

	return b.String()
}

func isEscapeChar(c byte) bool {
	switch c {
	case '"', '\\', '/', 'b', 'f', 'n', 'r', 't', 'u':
		return true
	}
	return false
}

// decodeVerdict unmarshals a JSON candidate into a verdict, applying
// defaults for missing fields and stringifying non-string list entries.
func decodeVerdict(source, jsonStr string) (models.LogAnalysisResult, bool) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(jsonStr), &raw); err != nil {
		return models.LogAnalysisResult{}, false
	}

	analysis := stringField(raw, "analysis", defaultAnalysis)
	issues := stringList(raw["issues_found"])
	recommendations := stringList(raw["recommendations"])
	severity := models.Severity(stringField(raw, "severity", string(models.SeverityInfo)))
	confidence := floatField(raw, "confidence", defaultConfidence)

	return models.NewLogAnalysis(source, analysis, issues, recommendations, severity, confidence), true
}

func stringField(raw map[string]any, key, fallback string) string {
	if v, ok := raw[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

func floatField(raw map[string]any, key string, fallback float64) float64 {
	switch v := raw[key].(type) {
	case float64:
		return v
	case string:
		var f float64
		if _, err := fmt.Sscanf(v, "%f", &f); err == nil {
			return f
		}
	}
	return fallback
}

// stringList converts a decoded JSON array into strings, rendering
// non-string entries (the model sometimes emits objects) as JSON text.
func stringList(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		switch t := item.(type) {
		case string:
			out = append(out, t)
		default:
			if rendered, err := json.Marshal(t); err == nil {
				out = append(out, string(rendered))
			} else {
				out = append(out, fmt.Sprintf("%v", t))
			}
		}
	}
	return out
}

// heuristicVerdict derives a best-effort verdict from a reply that carried
// no parseable JSON. Severity escalates on failure keywords, list-marker
// lines are bucketed into issues and recommendations, and confidence stays
// low to signal that this path was taken.
func heuristicVerdict(source, response string) models.LogAnalysisResult {
	lower := strings.ToLower(response)

	severity := models.SeverityInfo
	confidence := 0.3
	switch {
	case strings.Contains(lower, "error") || strings.Contains(lower, "failed"):
		severity = models.SeverityError
		confidence = 0.6
	case strings.Contains(lower, "warning") || strings.Contains(lower, "issue"):
		severity = models.SeverityWarning
		confidence = 0.5
	}

	var issues, recommendations []string
	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		if !isListMarker(line) {
			continue
		}
		text := strings.TrimLeft(line, "•-*0123456789. ")
		lowerLine := strings.ToLower(line)
		switch {
		case strings.Contains(lowerLine, "recommend"):
			recommendations = append(recommendations, text)
		case strings.Contains(lowerLine, "error") || strings.Contains(lowerLine, "issue") ||
			strings.Contains(lowerLine, "problem") || strings.Contains(lowerLine, "fail"):
			issues = append(issues, text)
		}
	}

	if len(issues) == 0 {
		issues = []string{"Could not parse structured JSON response"}
	}
	if len(recommendations) == 0 {
		recommendations = []string{"Check LLM prompt and response format"}
	}

	analysis := response
	if len(analysis) > 500 {
		analysis = analysis[:500] + "..."
	}

	return models.NewLogAnalysis(source, "Parsed from raw response: "+analysis, issues, recommendations, severity, confidence)
}

func isListMarker(line string) bool {
	if line == "" {
		return false
	}
	if strings.HasPrefix(line, "•") || strings.HasPrefix(line, "-") || strings.HasPrefix(line, "*") {
		return true
	}
	if line[0] >= '1' && line[0] <= '9' && len(line) > 1 && line[1] == '.' {
		return true
	}
	return false
}
