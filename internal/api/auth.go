package api

import (
	"context"
	"net/http"
)

// AuthService handles password logins and credential checks.
type AuthService struct {
	client *Client
}

// Login exchanges the agent's admin password for a bearer token. It is the
// only authenticated-API call that sends no credential header.
func (s *AuthService) Login(ctx context.Context, password string) (*LoginResult, error) {
	body := map[string]string{"password": password}
	var result LoginResult
	if err := s.client.do(ctx, http.MethodPost, "/api/auth/login", nil, body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Status verifies the configured credential against the agent.
func (s *AuthService) Status(ctx context.Context) (*AuthStatus, error) {
	var status AuthStatus
	if err := s.client.do(ctx, http.MethodGet, "/api/auth/status", nil, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}
