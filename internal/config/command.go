package config

import (
	"strconv"
	"strings"
)

// CommandKind tags how a configured command template is executed
type CommandKind int

const (
	// KindGeneric runs the command verbatim through the transport
	KindGeneric CommandKind = iota
	// KindUpdateLog routes to the dedicated Windows Update Log export
	KindUpdateLog
	// KindEventQuery routes to a structured event-log query
	KindEventQuery
)

// DefaultUpdateLogPath is where the update-log export writes before tailing
const DefaultUpdateLogPath = `C:\Windows\Temp\WindowsUpdate.log`

const (
	defaultEventLogName = "System"
	defaultMaxEvents    = 100
	labelPrefixLen      = 50
)

// CommandSpec is a command template resolved into an executable descriptor.
// Resolution happens once at configuration load so the collector never
// re-parses command text per execution.
type CommandSpec struct {
	Kind  CommandKind
	Raw   string
	Label string

	// event query parameters, set when Kind == KindEventQuery
	LogName   string
	MaxEvents int
	EventIDs  []int
	Provider  string

	// update log export path, set when Kind == KindUpdateLog
	OutputPath string
}

// ResolveCommands resolves all raw command templates for a client
func ResolveCommands(raw []string) []CommandSpec {
	specs := make([]CommandSpec, len(raw))
	for i, cmd := range raw {
		specs[i] = ResolveCommand(cmd)
	}
	return specs
}

// ResolveCommand classifies one command template. Commands invoking the
// Windows Update Log export or an event-log query get dedicated descriptors
// with their parameters extracted; everything else passes through verbatim.
func ResolveCommand(raw string) CommandSpec {
	spec := CommandSpec{Kind: KindGeneric, Raw: raw, Label: commandLabel(raw)}

	switch {
	case strings.Contains(raw, "Get-WindowsUpdateLog"):
		spec.Kind = KindUpdateLog
		spec.OutputPath = DefaultUpdateLogPath

	case strings.Contains(raw, "Get-WinEvent"):
		spec.Kind = KindEventQuery
		spec.LogName = parseLogName(raw)
		spec.MaxEvents = parseMaxEvents(raw)
		spec.EventIDs = parseEventIDs(raw)
		spec.Provider = parseProviderFilter(raw)
	}

	return spec
}

// commandLabel builds the source identifier for a command: the capability
// name plus a truncated prefix of the command text.
func commandLabel(raw string) string {
	prefix := raw
	if len(prefix) > labelPrefixLen {
		prefix = prefix[:labelPrefixLen]
	}
	return "PowerShell:" + prefix
}

func parseLogName(raw string) string {
	if strings.Contains(raw, "Application") {
		return "Application"
	}
	return defaultEventLogName
}

func parseMaxEvents(raw string) int {
	idx := strings.Index(raw, "MaxEvents")
	if idx < 0 {
		return defaultMaxEvents
	}
	rest := strings.TrimLeft(raw[idx+len("MaxEvents"):], " \t")
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return defaultMaxEvents
	}
	if n, err := strconv.Atoi(strings.TrimRight(fields[0], ";|")); err == nil && n > 0 {
		return n
	}
	return defaultMaxEvents
}

// parseEventIDs extracts numeric IDs embedded as @(id,id,...)
func parseEventIDs(raw string) []int {
	start := strings.Index(raw, "@(")
	if start < 0 {
		return nil
	}
	end := strings.Index(raw[start:], ")")
	if end < 0 {
		return nil
	}
	var ids []int
	for _, part := range strings.Split(raw[start+2:start+end], ",") {
		if n, err := strconv.Atoi(strings.TrimSpace(part)); err == nil {
			ids = append(ids, n)
		}
	}
	return ids
}

// parseProviderFilter extracts the provider substring from a
// `Source -like '...'` clause, with wildcards and quotes stripped.
func parseProviderFilter(raw string) string {
	idx := strings.Index(raw, "Source -like")
	if idx < 0 {
		return ""
	}
	rest := strings.TrimSpace(raw[idx+len("Source -like"):])
	if rest == "" {
		return ""
	}
	if rest[0] == '\'' || rest[0] == '"' {
		if end := strings.IndexByte(rest[1:], rest[0]); end >= 0 {
			rest = rest[1 : 1+end]
		}
	} else if fields := strings.Fields(rest); len(fields) > 0 {
		rest = fields[0]
	}
	rest = strings.Trim(rest, `'"`)
	return strings.Trim(rest, "*")
}
