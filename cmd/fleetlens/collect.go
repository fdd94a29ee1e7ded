package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/fleetlens/fleetlens/internal/config"
)

var (
	collectAll    bool
	collectFormat string
)

var collectCmd = &cobra.Command{
	Use:   "collect [client]...",
	Short: "Collect logs without analyzing them",
	Long: `Collect configured log sources from the named clients and report
per-source success, without spending any LLM calls.`,
	RunE: runCollect,
}

func init() {
	collectCmd.Flags().BoolVar(&collectAll, "all", false, "Collect from every configured client")
	collectCmd.Flags().StringVarP(&collectFormat, "format", "f", "text", "Output format (text, json)")
}

func runCollect(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	names, err := resolveClients(cfg, args, collectAll)
	if err != nil {
		return err
	}

	orch, _, err := buildPipeline(cfg)
	if err != nil {
		return err
	}

	collections := orch.CollectOnly(context.Background(), names)

	if collectFormat == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(collections)
	}

	okMark := color.New(color.FgGreen).Sprint("ok")
	failMark := color.New(color.FgRed).Sprint("FAILED")

	for _, col := range collections {
		mark := okMark
		if !col.Success {
			mark = failMark
		}
		fmt.Printf("%s (%s): %s\n", col.ClientName, col.Hostname, mark)
		for _, r := range col.LogResults {
			if r.Success {
				fmt.Printf("  %s  %s (%d lines)\n", okMark, r.Source, r.LineCount)
			} else {
				fmt.Printf("  %s  %s: %s\n", failMark, r.Source, r.Error)
			}
		}
		for _, e := range col.Errors {
			fmt.Printf("  ! %s\n", e)
		}
		fmt.Println()
	}
	return nil
}
