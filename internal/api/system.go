package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// SystemService reads system stats and the process table.
type SystemService struct {
	client *Client
}

// Stats fetches the current system snapshot.
func (s *SystemService) Stats(ctx context.Context) (*StatsSnapshot, error) {
	var snap StatsSnapshot
	if err := s.client.do(ctx, http.MethodGet, "/api/system/stats", nil, nil, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// StatsHistory fetches snapshots recorded over the trailing window. The
// agent samples once per interval; minutes selects how far back to read.
func (s *SystemService) StatsHistory(ctx context.Context, minutes int) ([]StatsSnapshot, error) {
	query := url.Values{}
	if minutes > 0 {
		query.Set("minutes", strconv.Itoa(minutes))
	}
	var history []StatsSnapshot
	if err := s.client.do(ctx, http.MethodGet, "/api/system/stats/history", query, nil, &history); err != nil {
		return nil, err
	}
	return history, nil
}

// Processes lists running processes ordered by CPU usage. A limit of 0
// leaves the cutoff to the agent.
func (s *SystemService) Processes(ctx context.Context, limit int) ([]ProcessInfo, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	var procs []ProcessInfo
	if err := s.client.do(ctx, http.MethodGet, "/api/system/processes", query, nil, &procs); err != nil {
		return nil, err
	}
	return procs, nil
}
