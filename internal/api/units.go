package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// UnitsService inspects and controls systemd units through the agent.
type UnitsService struct {
	client *Client
}

// List returns the agent's service units. When user is true the agent reads
// the per-user systemd instance instead of the system one.
func (s *UnitsService) List(ctx context.Context, user bool) ([]Unit, error) {
	query := url.Values{}
	if user {
		query.Set("user", "true")
	}
	var units []Unit
	if err := s.client.do(ctx, http.MethodGet, "/api/systemd/units", query, nil, &units); err != nil {
		return nil, err
	}
	return units, nil
}

// Action applies a systemd verb to a unit.
func (s *UnitsService) Action(ctx context.Context, unit string, action UnitAction, user bool) (*UnitActionResult, error) {
	body := map[string]string{"action": string(action)}
	if user {
		body["user"] = "true"
	}
	path := fmt.Sprintf("/api/systemd/units/%s/action", url.PathEscape(unit))
	var result UnitActionResult
	if err := s.client.do(ctx, http.MethodPost, path, nil, body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Logs reads the last lines of a unit's journal.
func (s *UnitsService) Logs(ctx context.Context, unit string, user bool, lines int) ([]string, error) {
	query := url.Values{}
	if user {
		query.Set("user", "true")
	}
	if lines > 0 {
		query.Set("lines", strconv.Itoa(lines))
	}
	path := fmt.Sprintf("/api/systemd/units/%s/logs", url.PathEscape(unit))
	var out []string
	if err := s.client.do(ctx, http.MethodGet, path, query, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
