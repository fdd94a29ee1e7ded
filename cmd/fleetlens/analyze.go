package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/fleetlens/fleetlens/internal/config"
	"github.com/fleetlens/fleetlens/pkg/models"
)

var (
	analyzeAll    bool
	analyzeFormat string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [client]...",
	Short: "Collect and analyze logs for fleet clients",
	Long: `Collect configured log sources from the named clients, analyze each
log with the configured LLM, and print per-client health verdicts.

Examples:
  fleetlens analyze workstation-01
  fleetlens analyze --all --format json
  fleetlens analyze workstation-01 workstation-02 -v`,
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeAll, "all", false, "Analyze every configured client")
	analyzeCmd.Flags().StringVarP(&analyzeFormat, "format", "f", "text", "Output format (text, json)")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	names, err := resolveClients(cfg, args, analyzeAll)
	if err != nil {
		return err
	}

	orch, _, err := buildPipeline(cfg)
	if err != nil {
		return err
	}

	sp := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	sp.Suffix = fmt.Sprintf(" Analyzing %d client(s)...", len(names))
	sp.Start()
	start := time.Now()

	results := orch.Run(context.Background(), names)

	sp.Stop()
	fmt.Fprintf(os.Stderr, "Analysis complete (%.1fs)\n\n", time.Since(start).Seconds())

	if analyzeFormat == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	for _, result := range results {
		printResult(result)
	}
	return nil
}

var (
	statusColors = map[models.Status]*color.Color{
		models.StatusHealthy:  color.New(color.FgGreen, color.Bold),
		models.StatusIssues:   color.New(color.FgYellow, color.Bold),
		models.StatusCritical: color.New(color.FgRed, color.Bold),
	}
	severityColors = map[models.Severity]*color.Color{
		models.SeverityInfo:     color.New(color.FgCyan),
		models.SeverityWarning:  color.New(color.FgYellow),
		models.SeverityError:    color.New(color.FgRed),
		models.SeverityCritical: color.New(color.FgRed, color.Bold),
	}
)

func printResult(result models.ClientAnalysisResult) {
	statusColor := statusColors[result.OverallStatus]
	fmt.Printf("%s (%s): ", result.ClientName, result.Hostname)
	statusColor.Println(string(result.OverallStatus))

	if result.Summary != "" {
		fmt.Printf("\n  %s\n", result.Summary)
	}

	for _, a := range result.LogAnalyses {
		fmt.Printf("\n  %s [", a.Source)
		severityColors[a.Severity].Print(string(a.Severity))
		fmt.Printf(", confidence %.2f]\n", a.Confidence)
		for _, issue := range a.IssuesFound {
			fmt.Printf("    - %s\n", issue)
		}
	}

	if len(result.ActionItems) > 0 {
		fmt.Println("\n  Action items:")
		for i, item := range result.ActionItems {
			fmt.Printf("    %d. %s\n", i+1, item)
		}
	}
	fmt.Println()
}
