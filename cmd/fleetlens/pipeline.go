package main

import (
	"fmt"

	"github.com/fleetlens/fleetlens/internal/analyzer"
	"github.com/fleetlens/fleetlens/internal/collector"
	"github.com/fleetlens/fleetlens/internal/config"
	"github.com/fleetlens/fleetlens/internal/llm"
	"github.com/fleetlens/fleetlens/internal/orchestrator"
	"github.com/fleetlens/fleetlens/internal/resultcache"
	"github.com/fleetlens/fleetlens/internal/transport"
)

// buildPipeline wires the full pipeline from the loaded configuration
func buildPipeline(cfg *config.Config) (*orchestrator.Orchestrator, *resultcache.Cache, error) {
	cache, err := resultcache.New(cfg.CacheSize)
	if err != nil {
		return nil, nil, fmt.Errorf("create result cache: %w", err)
	}

	col := collector.New(cfg, transport.NewLocal())
	an := analyzer.New(llm.NewClient(cfg.LLM), cfg.LLM.SystemPrompt,
		analyzer.WithRetryDelay(cfg.RetryDelay))

	return orchestrator.New(col, an, cache), cache, nil
}

// resolveClients expands the requested names, honoring --all
func resolveClients(cfg *config.Config, args []string, all bool) ([]string, error) {
	if all {
		return cfg.ClientNames(), nil
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("no clients given; name clients or pass --all")
	}
	for _, name := range args {
		if _, err := cfg.FindClient(name); err != nil {
			return nil, err
		}
	}
	return args, nil
}
