package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

type healthResponse struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	CachedRuns    int    `json:"cached_runs"`
	CachedClients int    `json:"cached_clients"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, healthResponse{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(s.startedAt).Seconds()),
		CachedRuns:    s.cache.Len(),
		CachedClients: s.cache.ClientCount(),
	})
}

type clientInfo struct {
	Name         string     `json:"name"`
	Hostname     string     `json:"hostname"`
	IP           string     `json:"ip"`
	Status       string     `json:"status"`
	LastAnalyzed *time.Time `json:"last_analyzed,omitempty"`
}

func (s *Server) handleListClients(c echo.Context) error {
	clients := make([]clientInfo, 0, len(s.cfg.Clients))
	for _, cl := range s.cfg.Clients {
		info := clientInfo{
			Name:     cl.Name,
			Hostname: cl.Hostname,
			IP:       cl.IP,
			Status:   "unknown",
		}
		if result, ok := s.cache.GetClient(cl.Name); ok {
			info.Status = string(result.OverallStatus)
			ts := result.Timestamp
			info.LastAnalyzed = &ts
		}
		clients = append(clients, info)
	}
	return c.JSON(http.StatusOK, map[string]any{"clients": clients})
}

type startAnalysisRequest struct {
	Clients []string `json:"clients"`
	All     bool     `json:"all"`
}

func (s *Server) handleStartAnalysis(c echo.Context) error {
	var req startAnalysisRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	names := req.Clients
	if req.All {
		names = s.cfg.ClientNames()
	}
	if len(names) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "no clients requested")
	}
	for _, name := range names {
		if _, err := s.cfg.FindClient(name); err != nil {
			return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("unknown client %q", name))
		}
	}

	// The run outlives this request; it carries its own background context.
	requestID := s.runner.StartRun(context.Background(), names)

	return c.JSON(http.StatusAccepted, map[string]any{
		"request_id": requestID,
		"clients":    names,
	})
}

func (s *Server) handleGetAnalysis(c echo.Context) error {
	rec, ok := s.cache.GetRun(c.Param("id"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "analysis not found")
	}
	return c.JSON(http.StatusOK, rec)
}

func (s *Server) handleGetClientAnalysis(c echo.Context) error {
	result, ok := s.cache.GetClient(c.Param("name"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "no analysis for client")
	}
	return c.JSON(http.StatusOK, result)
}

func (s *Server) handleCollectClient(c echo.Context) error {
	name := c.Param("name")
	if _, err := s.cfg.FindClient(name); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("unknown client %q", name))
	}

	collections := s.runner.CollectOnly(c.Request().Context(), []string{name})
	return c.JSON(http.StatusOK, collections[0])
}
