// Package resultcache is the bounded in-memory store for analysis runs.
// Results are kept under two key schemes: the run's request ID, and a
// per-client key holding that client's latest result. Every write replaces
// a key's whole value, so a concurrent reader never sees a half-written
// record. Nothing here persists across process restarts.
package resultcache

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/fleetlens/fleetlens/pkg/models"
)

// RunState tracks the lifecycle of an analysis run
type RunState string

const (
	RunRunning   RunState = "running"
	RunCompleted RunState = "completed"
	RunFailed    RunState = "failed"
)

// RunRecord is the cached state of one analysis run
type RunRecord struct {
	RequestID string                        `json:"request_id"`
	State     RunState                      `json:"state"`
	Clients   []string                      `json:"clients"`
	Results   []models.ClientAnalysisResult `json:"results,omitempty"`
	Error     string                        `json:"error,omitempty"`
	StartedAt time.Time                     `json:"started_at"`
	UpdatedAt time.Time                     `json:"updated_at"`
}

// Cache stores run records and latest per-client results, evicting the
// least recently used entries past its size bound.
type Cache struct {
	runs    *lru.Cache[string, RunRecord]
	clients *lru.Cache[string, models.ClientAnalysisResult]
}

// New creates a cache bounded to size entries per key space
func New(size int) (*Cache, error) {
	runs, err := lru.New[string, RunRecord](size)
	if err != nil {
		return nil, err
	}
	clients, err := lru.New[string, models.ClientAnalysisResult](size)
	if err != nil {
		return nil, err
	}
	return &Cache{runs: runs, clients: clients}, nil
}

// PutRun replaces the record for a request ID
func (c *Cache) PutRun(rec RunRecord) {
	rec.UpdatedAt = time.Now()
	c.runs.Add(rec.RequestID, rec)
}

// GetRun returns the record for a request ID
func (c *Cache) GetRun(requestID string) (RunRecord, bool) {
	return c.runs.Get(requestID)
}

// PutClient replaces a client's latest result
func (c *Cache) PutClient(result models.ClientAnalysisResult) {
	c.clients.Add(result.ClientName, result)
}

// GetClient returns a client's latest result
func (c *Cache) GetClient(clientName string) (models.ClientAnalysisResult, bool) {
	return c.clients.Get(clientName)
}

// Len returns the number of cached run records
func (c *Cache) Len() int {
	return c.runs.Len()
}

// ClientCount returns the number of clients with a cached result
func (c *Cache) ClientCount() int {
	return c.clients.Len()
}
