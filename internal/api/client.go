// Package api provides the typed client for the Gloski agent HTTP and
// WebSocket API.
//
// A Client is bound to a single agent endpoint and at most one credential
// (API key or bearer token). Methods are grouped into services mirroring the
// agent's resource groups: Auth, System, Files, Jobs, and Units. Every call
// takes a context, honors a per-call deadline, and returns a classified
// *Error on failure. The client performs no retries; callers decide whether
// to retry or poll.
//
// Connectivity changes observed while making requests (agent unreachable,
// credential rejected, call succeeded) are reported through an optional
// StatusFunc injected at construction time. The client itself never touches
// any store.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultTimeout bounds every request unless overridden with WithTimeout.
	DefaultTimeout = 30 * time.Second

	// HealthTimeout bounds health probes, which must fail fast so that an
	// unreachable agent does not stall a status sweep.
	HealthTimeout = 5 * time.Second
)

// Status describes the connectivity of one agent as observed by this client.
type Status string

const (
	StatusOnline       Status = "online"
	StatusConnecting   Status = "connecting"
	StatusUnauthorized Status = "unauthorized"
	StatusOffline      Status = "offline"
)

// StatusFunc receives connectivity transitions. It is invoked synchronously
// from the calling goroutine, after error classification and before the
// error (or result) is returned.
type StatusFunc func(Status)

// Client talks to a single Gloski agent.
type Client struct {
	endpoint   string
	apiKey     string
	token      string
	timeout    time.Duration
	httpClient *http.Client
	statusFunc StatusFunc
	debug      io.Writer

	Auth   *AuthService
	System *SystemService
	Files  *FilesService
	Jobs   *JobsService
	Units  *UnitsService
}

// ClientOption configures a Client during construction.
type ClientOption func(*Client)

// WithEndpoint sets the agent base URL, e.g. "http://host:8080".
// A trailing slash is stripped.
func WithEndpoint(endpoint string) ClientOption {
	return func(c *Client) {
		c.endpoint = strings.TrimRight(endpoint, "/")
	}
}

// WithAPIKey authenticates requests with an X-API-Key header. Setting an API
// key clears any bearer token; only one credential is active at a time.
func WithAPIKey(key string) ClientOption {
	return func(c *Client) {
		c.apiKey = key
		c.token = ""
	}
}

// WithToken authenticates requests with an Authorization: Bearer header.
// Setting a token clears any API key; only one credential is active at a time.
func WithToken(token string) ClientOption {
	return func(c *Client) {
		c.token = token
		c.apiKey = ""
	}
}

// WithTimeout overrides the default per-call deadline.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithHTTPClient replaces the underlying http.Client. Intended for tests and
// callers that need custom transports.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithStatusFunc injects the connectivity callback. Typically wired to the
// profile repository by the session layer.
func WithStatusFunc(fn StatusFunc) ClientOption {
	return func(c *Client) {
		c.statusFunc = fn
	}
}

// WithDebugWriter enables request/response tracing to w.
func WithDebugWriter(w io.Writer) ClientOption {
	return func(c *Client) {
		c.debug = w
	}
}

// NewClient builds a client for one agent endpoint.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		timeout:    DefaultTimeout,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}

	c.Auth = &AuthService{client: c}
	c.System = &SystemService{client: c}
	c.Files = &FilesService{client: c}
	c.Jobs = &JobsService{client: c}
	c.Units = &UnitsService{client: c}

	return c
}

// Endpoint returns the configured agent base URL.
func (c *Client) Endpoint() string { return c.endpoint }

// HasCredential reports whether an API key or bearer token is configured.
func (c *Client) HasCredential() bool { return c.apiKey != "" || c.token != "" }

// reportStatus invokes the status callback, if any.
func (c *Client) reportStatus(s Status) {
	if c.statusFunc != nil {
		c.statusFunc(s)
	}
}

// setAuthHeader attaches the configured credential. An API key always wins
// over a bearer token; the two headers are never sent together.
func (c *Client) setAuthHeader(req *http.Request) {
	switch {
	case c.apiKey != "":
		req.Header.Set("X-API-Key", c.apiKey)
	case c.token != "":
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

// credentialQuery returns the query-parameter form of the credential, used
// where headers cannot be attached (WebSocket dials, browser-style
// downloads). The parameter name identifies the credential kind.
func (c *Client) credentialQuery() (name, value string) {
	switch {
	case c.apiKey != "":
		return "api_key", c.apiKey
	case c.token != "":
		return "token", c.token
	}
	return "", ""
}

// buildURL joins the endpoint, a path, and optional query parameters.
func (c *Client) buildURL(path string, query url.Values) string {
	u := c.endpoint + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// callContext applies the per-call deadline. A caller-supplied earlier
// deadline still wins since context deadlines only ever shrink.
func (c *Client) callContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = c.timeout
	}
	return context.WithTimeout(ctx, timeout)
}

// do performs one JSON request against the agent.
//
// The sequence is fixed: build URL, attach credential header, bound the
// deadline, execute, classify. A 401 reports StatusUnauthorized and returns
// before the body is read. Transport-level failures report StatusOffline,
// except caller cancellation, which leaves the reported status untouched.
// Any 2xx reports StatusOnline and decodes the body into out when non-nil.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	return c.doTimeout(ctx, method, path, query, body, out, c.timeout)
}

func (c *Client) doTimeout(ctx context.Context, method, path string, query url.Values, body, out any, timeout time.Duration) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("api: failed to encode request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	ctx, cancel := c.callContext(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, c.buildURL(path, query), bodyReader)
	if err != nil {
		return fmt.Errorf("api: failed to build request: %w", err)
	}
	c.setAuthHeader(req)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.roundTrip(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkResponse(resp); err != nil {
		return err
	}

	c.reportStatus(StatusOnline)

	if out == nil {
		return nil
	}
	return decodeBody(resp, out)
}

// decodeBody decodes a 2xx JSON body into out. A body that is not valid
// JSON is a classified error; a body with unexpected fields is not, since
// agents are free to extend responses.
func decodeBody(resp *http.Response, out any) error {
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{
			Status:  resp.StatusCode,
			Code:    ErrorCodeGeneric,
			Message: fmt.Sprintf("invalid response body: %v", err),
		}
	}
	return nil
}

// roundTrip executes the request and classifies transport-level failures.
func (c *Client) roundTrip(req *http.Request) (*http.Response, error) {
	if c.debug != nil {
		fmt.Fprintf(c.debug, "--> %s %s\n", req.Method, req.URL)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		apiErr := classifyTransportError(err)
		// A caller cancel says nothing about reachability. The per-call
		// deadline surfaces as DeadlineExceeded, so Canceled here means the
		// caller gave up, not that the agent is down.
		if !errors.Is(err, context.Canceled) {
			c.reportStatus(StatusOffline)
		}
		if c.debug != nil {
			fmt.Fprintf(c.debug, "<-- transport error: %v\n", err)
		}
		return nil, apiErr
	}

	if c.debug != nil {
		fmt.Fprintf(c.debug, "<-- %s\n", resp.Status)
	}
	return resp, nil
}

// checkResponse turns non-2xx responses into classified errors, reporting
// connectivity-affecting statuses as a side effect.
//
// 401 is handled before any body parsing: the credential was rejected and
// nothing in the body changes that.
func (c *Client) checkResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	if resp.StatusCode == http.StatusUnauthorized {
		c.reportStatus(StatusUnauthorized)
		return &Error{
			Status:  http.StatusUnauthorized,
			Code:    ErrorCodeUnauthorized,
			Message: "credentials rejected",
		}
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	return classifyStatusError(resp.StatusCode, body)
}

// classifyTransportError maps a transport failure to a status-0 *Error,
// distinguishing deadline expiry from connection establishment failures.
func classifyTransportError(err error) *Error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &Error{Status: 0, Code: ErrorCodeTimeout, Message: "request timed out"}
	case errors.Is(err, context.Canceled):
		return &Error{Status: 0, Code: ErrorCodeNetwork, Message: "request cancelled"}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Error{Status: 0, Code: ErrorCodeTimeout, Message: "request timed out"}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return &Error{Status: 0, Code: ErrorCodeNetwork, Message: "cannot connect to agent"}
	}

	return &Error{Status: 0, Code: ErrorCodeNetwork, Message: "network error: " + rootCause(err)}
}

// rootCause unwraps the innermost error message for display.
func rootCause(err error) string {
	for {
		unwrapped := errors.Unwrap(err)
		if unwrapped == nil {
			return err.Error()
		}
		err = unwrapped
	}
}

// Health probes the agent's liveness endpoint. It needs no credential and
// uses the short health deadline so status sweeps over many hosts stay fast.
func (c *Client) Health(ctx context.Context) (*HealthInfo, error) {
	var info HealthInfo
	if err := c.doTimeout(ctx, http.MethodGet, "/api/health", nil, nil, &info, HealthTimeout); err != nil {
		return nil, err
	}
	return &info, nil
}

// TerminalURL builds the WebSocket URL for an interactive terminal session.
// Terminal connections cannot carry custom headers, so the credential rides
// as a query parameter; cwd, when non-empty, selects the initial working
// directory.
func (c *Client) TerminalURL(cwd string) string {
	return c.socketURL("/ws/terminal", func(q url.Values) {
		if cwd != "" {
			q.Set("cwd", cwd)
		}
	})
}

// StatsSocketURL builds the WebSocket URL for the live stats stream.
func (c *Client) StatsSocketURL() string {
	return c.socketURL("/ws/stats", nil)
}

// socketURL rewrites the endpoint scheme to ws(s) and embeds the credential
// as a query parameter.
func (c *Client) socketURL(path string, extra func(url.Values)) string {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return ""
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + path

	q := u.Query()
	if name, value := c.credentialQuery(); name != "" {
		q.Set(name, value)
	}
	if extra != nil {
		extra(q)
	}
	u.RawQuery = q.Encode()

	return u.String()
}
