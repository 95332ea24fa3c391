package api

import (
	"context"
	"fmt"
	"net/http"
)

// JobsService manages background shell jobs on the agent.
type JobsService struct {
	client *Client
}

// List returns all jobs the agent currently tracks, running and finished.
func (s *JobsService) List(ctx context.Context) ([]Job, error) {
	var jobs []Job
	if err := s.client.do(ctx, http.MethodGet, "/api/jobs", nil, nil, &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

// Start launches command as a background job. cwd selects the working
// directory; empty means the agent's default.
func (s *JobsService) Start(ctx context.Context, command, cwd string) (*Job, error) {
	body := map[string]string{"command": command}
	if cwd != "" {
		body["cwd"] = cwd
	}
	var job Job
	if err := s.client.do(ctx, http.MethodPost, "/api/jobs", nil, body, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// Get fetches one job by ID.
func (s *JobsService) Get(ctx context.Context, id string) (*Job, error) {
	var job Job
	if err := s.client.do(ctx, http.MethodGet, "/api/jobs/"+id, nil, nil, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// Logs fetches the captured stdout and stderr of a job.
func (s *JobsService) Logs(ctx context.Context, id string) (*JobLogs, error) {
	var logs JobLogs
	if err := s.client.do(ctx, http.MethodGet, fmt.Sprintf("/api/jobs/%s/logs", id), nil, nil, &logs); err != nil {
		return nil, err
	}
	return &logs, nil
}

// Stop terminates a running job. Stopping a finished job is an agent-side
// error and surfaces as such.
func (s *JobsService) Stop(ctx context.Context, id string) error {
	return s.client.do(ctx, http.MethodPost, fmt.Sprintf("/api/jobs/%s/stop", id), nil, nil, nil)
}
