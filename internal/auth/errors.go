package auth

import (
	"errors"
	"fmt"
)

// ErrMissingClientID is returned before any network call when no OAuth client
// ID is configured. It is a configuration problem, not a protocol one.
var ErrMissingClientID = errors.New("github client ID is not configured")

// ErrExpired is returned when the device code expired before the user
// completed authorization. The whole flow can be restarted from scratch.
var ErrExpired = errors.New("device code expired before authorization completed")

// ErrDenied is returned when the user explicitly refused the authorization
// request in the browser.
var ErrDenied = errors.New("authorization request was denied")

// ErrInvalidTokenFormat is returned by ValidatePAT when the supplied string
// does not look like a GitHub personal access token.
var ErrInvalidTokenFormat = errors.New("token does not look like a GitHub personal access token (expected ghp_ or github_pat_ prefix)")

// ProtocolError reports a server response the flow could not act on: a
// transport failure, a non-success HTTP status, or a body matching neither
// the success nor the error shape.
type ProtocolError struct {
	StatusCode  int    // HTTP status, when one was received
	Code        string // OAuth error code, when the server sent one
	Description string
	cause       error
}

func (e *ProtocolError) Error() string {
	msg := e.Description
	if e.Code != "" {
		if msg != "" {
			msg = e.Code + ": " + msg
		} else {
			msg = e.Code
		}
	}
	if msg == "" {
		msg = "unexpected response"
	}
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.StatusCode)
	}
	if e.cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.cause)
	}
	return msg
}

func (e *ProtocolError) Unwrap() error { return e.cause }
