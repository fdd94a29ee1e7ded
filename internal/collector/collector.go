// Package collector gathers configured log sources from fleet machines
// through the transport layer. Each source is collected independently so a
// single missing file or failing command never aborts a client's run.
package collector

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/fleetlens/fleetlens/internal/config"
	"github.com/fleetlens/fleetlens/internal/transport"
	"github.com/fleetlens/fleetlens/pkg/models"
)

// Collector gathers logs for configured clients
type Collector struct {
	cfg       *config.Config
	transport transport.Transport
}

// New creates a collector over the loaded configuration and a transport
func New(cfg *config.Config, t transport.Transport) *Collector {
	return &Collector{cfg: cfg, transport: t}
}

// Collect gathers every configured source for one client. Lookup failures
// (unknown client, unresolvable credentials) return a failed collection with
// a descriptive error rather than an error value: no failure mode of this
// call escapes as an exception.
func (c *Collector) Collect(ctx context.Context, clientName string) models.ClientLogCollection {
	log.Info().Str("client", clientName).Msg("starting log collection")

	client, err := c.cfg.FindClient(clientName)
	if err != nil {
		return models.FailedCollection(clientName, "unknown",
			fmt.Sprintf("Client '%s' not found in configuration", clientName))
	}

	cred, err := c.cfg.CredentialFor(client)
	if err != nil {
		return models.FailedCollection(clientName, client.Hostname,
			fmt.Sprintf("Credentials '%s' not found", client.Credentials))
	}

	target := transport.Target{
		Hostname: client.Hostname,
		Username: cred.Username,
		Password: cred.Password,
		Domain:   cred.Domain,
	}

	var results []models.LogSourceResult
	var errors []string

	fileResults, fileErrors := c.collectFiles(ctx, client, target)
	results = append(results, fileResults...)
	errors = append(errors, fileErrors...)

	cmdResults, cmdErrors := c.collectCommands(ctx, client, target)
	results = append(results, cmdResults...)
	errors = append(errors, cmdErrors...)

	col := models.NewClientLogCollection(clientName, client.Hostname, results, errors)
	log.Info().
		Str("client", clientName).
		Bool("success", col.Success).
		Int("sources", len(results)).
		Int("errors", len(errors)).
		Msg("log collection finished")
	return col
}

// collectFiles tails every configured file path. Categories are flattened
// in sorted-category order so collection order is stable across runs.
func (c *Collector) collectFiles(ctx context.Context, client *config.Client, target transport.Target) ([]models.LogSourceResult, []string) {
	var results []models.LogSourceResult
	var errors []string

	categories := make([]string, 0, len(client.LogPaths))
	for category := range client.LogPaths {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	for _, category := range categories {
		for _, path := range client.LogPaths[category] {
			source := "FILE:" + path
			tail := c.transport.ReadTail(ctx, target, path, c.cfg.TailLines)
			if tail.Success {
				results = append(results, models.NewSourceResult(source, tail.Content, tail.LinesRead))
				continue
			}
			results = append(results, models.NewSourceFailure(source, tail.Error))
			errors = append(errors, fmt.Sprintf("File error for %s: %s", path, tail.Error))
		}
	}

	return results, errors
}

// collectCommands dispatches each resolved command descriptor to the
// matching transport operation.
func (c *Collector) collectCommands(ctx context.Context, client *config.Client, target transport.Target) ([]models.LogSourceResult, []string) {
	var results []models.LogSourceResult
	var errors []string

	for _, spec := range client.CommandSpecs() {
		var exec transport.ExecResult

		switch spec.Kind {
		case config.KindUpdateLog:
			exec = c.transport.ExportUpdateLog(ctx, target, spec.OutputPath)
		case config.KindEventQuery:
			exec = c.transport.QueryEventLog(ctx, target, transport.EventQuery{
				LogName:   spec.LogName,
				MaxEvents: spec.MaxEvents,
				EventIDs:  spec.EventIDs,
				Provider:  spec.Provider,
			})
		default:
			exec = c.transport.Execute(ctx, target, spec.Raw)
		}

		if exec.Success {
			results = append(results, models.NewSourceResult(spec.Label, exec.Stdout, strings.Count(exec.Stdout, "\n")))
			continue
		}

		errMsg := exec.Stderr
		if errMsg == "" {
			errMsg = "Unknown command error"
		}
		results = append(results, models.NewSourceFailure(spec.Label, errMsg))
		errors = append(errors, fmt.Sprintf("Command error for '%s': %s", spec.Raw, errMsg))
	}

	return results, errors
}

// CollectMany collects all named clients concurrently. The returned slice
// has one entry per requested name, in input order; a panic inside one
// client's collection becomes a failed collection for that client only.
func (c *Collector) CollectMany(ctx context.Context, clientNames []string) []models.ClientLogCollection {
	log.Info().Int("clients", len(clientNames)).Msg("starting concurrent log collection")

	collections := make([]models.ClientLogCollection, len(clientNames))
	var wg sync.WaitGroup
	for i, name := range clientNames {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					log.Error().Str("client", name).Interface("panic", r).Msg("collection panicked")
					collections[i] = models.FailedCollection(name, "unknown",
						fmt.Sprintf("Collection failed with exception: %v", r))
				}
			}()
			collections[i] = c.Collect(ctx, name)
		}(i, name)
	}
	wg.Wait()

	return collections
}
