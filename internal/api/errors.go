package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies a failed API call
type ErrorKind int

const (
	KindNetwork ErrorKind = iota
	KindAuth
	KindNotFound
	KindValidation
	KindServer
)

func (k ErrorKind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindAuth:
		return "auth"
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	case KindServer:
		return "server"
	default:
		return "unknown"
	}
}

// ErrNotWithdrawable is returned, without any request being sent, when an
// application is no longer pending
var ErrNotWithdrawable = errors.New("only pending applications can be withdrawn")

// Error is the single error type surfaced by the client
type Error struct {
	Kind       ErrorKind
	StatusCode int    // 0 for network errors
	Message    string // server-provided message when available
	Err        error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s error (HTTP %d): %s", e.Kind, e.StatusCode, msg)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf classifies any error returned by this package. Errors that did not
// come from a server response are treated as network failures.
func KindOf(err error) ErrorKind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindNetwork
}

// IsAuth reports whether err means the session is missing or expired
func IsAuth(err error) bool {
	return err != nil && KindOf(err) == KindAuth
}

// IsCanceled reports whether the request was abandoned by its caller
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled)
}

// Message returns the text suitable for a user-facing notification
func Message(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

// errorFromResponse maps a non-2xx response onto the error taxonomy
func errorFromResponse(status int, body []byte) *Error {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	_ = json.Unmarshal(body, &payload)

	msg := payload.Error
	if msg == "" {
		msg = payload.Message
	}
	if msg == "" {
		msg = http.StatusText(status)
	}

	e := &Error{StatusCode: status, Message: msg}
	switch {
	case status == http.StatusUnauthorized:
		e.Kind = KindAuth
	case status == http.StatusNotFound:
		e.Kind = KindNotFound
	case status >= 400 && status < 500:
		e.Kind = KindValidation
	default:
		e.Kind = KindServer
	}
	return e
}
