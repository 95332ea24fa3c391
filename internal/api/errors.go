package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode classifies a failed agent call.
type ErrorCode string

const (
	ErrorCodeUnauthorized ErrorCode = "unauthorized"
	ErrorCodeForbidden    ErrorCode = "forbidden"
	ErrorCodeNotFound     ErrorCode = "not_found"
	ErrorCodeServerError  ErrorCode = "server_error"
	ErrorCodeNetwork      ErrorCode = "network_error"
	ErrorCodeTimeout      ErrorCode = "timeout"
	ErrorCodeGeneric      ErrorCode = "generic"
)

// Error is the classified failure returned by every client call. Status
// holds the HTTP status code, or 0 when the request never produced a
// response (DNS failure, refused connection, expired deadline).
type Error struct {
	Status  int
	Code    ErrorCode
	Message string
}

func (e *Error) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("gloski: %s", e.Message)
	}
	return fmt.Sprintf("gloski: %s (HTTP %d)", e.Message, e.Status)
}

// IsError reports whether err is an agent *Error carrying the given code.
func IsError(err error, code ErrorCode) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Code == code
}

// errorBody is the agent's error envelope. Older agents use "error", newer
// ones "message"; both are accepted.
type errorBody struct {
	Err     string `json:"error"`
	Message string `json:"message"`
}

func (b errorBody) text() string {
	if b.Err != "" {
		return b.Err
	}
	return b.Message
}

// classifyStatusError maps a non-2xx, non-401 response to an *Error. A
// message parsed from the body wins; otherwise a handful of statuses get
// specialized fallbacks.
func classifyStatusError(status int, body []byte) *Error {
	apiErr := &Error{Status: status}

	switch {
	case status == http.StatusForbidden:
		apiErr.Code = ErrorCodeForbidden
		apiErr.Message = "access denied"
	case status == http.StatusNotFound:
		apiErr.Code = ErrorCodeNotFound
		apiErr.Message = "not found: not a Gloski agent?"
	case status >= 500:
		apiErr.Code = ErrorCodeServerError
		apiErr.Message = fmt.Sprintf("agent error (HTTP %d)", status)
	default:
		apiErr.Code = ErrorCodeGeneric
		apiErr.Message = fmt.Sprintf("request failed (HTTP %d)", status)
	}

	var parsed errorBody
	if err := json.Unmarshal(body, &parsed); err == nil {
		if msg := parsed.text(); msg != "" {
			apiErr.Message = msg
		}
	}

	return apiErr
}
