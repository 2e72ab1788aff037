// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"fmt"
	"net/http"
	"time"
)

// Kind names an Outcome variant.
type Kind string

const (
	KindSuccess        Kind = "SUCCESS"
	KindHTTPError      Kind = "HTTP_ERROR"
	KindTimeout        Kind = "TIMEOUT"
	KindTransportError Kind = "REQUEST_ERROR"
	KindUnknownError   Kind = "UNKNOWN_ERROR"
)

// Outcome is the classified result of one Send call. It is one of Success,
// HTTPError, Timeout, TransportError or UnknownError; callers type-switch over
// the concrete variants.
type Outcome interface {
	Kind() Kind
	// Message is a short human-readable description of the outcome.
	Message() string
	outcome()
}

// Success is a 2xx response.
type Success struct {
	StatusCode int
	Header     http.Header
	// Body is the raw response body.
	Body []byte
	// Text is Body decoded to UTF-8. Empty for binary responses.
	Text string
	// Payload is the decoded JSON value for application/json responses that
	// parse, otherwise Text.
	Payload any
	// Encoding is the resolved character encoding. Empty for binary responses.
	Encoding string
}

// HTTPError is a non-2xx response.
type HTTPError struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Text       string
	Payload    any
	Encoding   string
}

// Timeout reports that the call exceeded its configured time bound.
type Timeout struct {
	After time.Duration
}

// TransportError reports a socket, DNS or protocol level failure.
type TransportError struct {
	Detail string
	Err    error
}

// UnknownError captures every other failure (invalid method, body read or
// decode failures).
type UnknownError struct {
	Detail string
	Err    error
}

func (Success) Kind() Kind        { return KindSuccess }
func (HTTPError) Kind() Kind      { return KindHTTPError }
func (Timeout) Kind() Kind        { return KindTimeout }
func (TransportError) Kind() Kind { return KindTransportError }
func (UnknownError) Kind() Kind   { return KindUnknownError }

func (Success) outcome()        {}
func (HTTPError) outcome()      {}
func (Timeout) outcome()        {}
func (TransportError) outcome() {}
func (UnknownError) outcome()   {}

func (s Success) Message() string {
	return fmt.Sprintf("HTTP %d", s.StatusCode)
}

func (e HTTPError) Message() string {
	return fmt.Sprintf("HTTP error: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

func (t Timeout) Message() string {
	return fmt.Sprintf("request timed out (after %v)", t.After)
}

func (e TransportError) Message() string {
	return "request failed: " + e.Detail
}

func (e UnknownError) Message() string {
	return "unknown error: " + e.Detail
}

// BodyText returns the best textual rendering of an HTTPError body.
func (e HTTPError) BodyText() string {
	if e.Text != "" {
		return e.Text
	}
	return string(e.Body)
}

// SnippetLen bounds error bodies carried into messages and logs.
const SnippetLen = 200

// Snippet truncates s to SnippetLen runes.
func Snippet(s string) string {
	r := []rune(s)
	if len(r) <= SnippetLen {
		return s
	}
	return string(r[:SnippetLen])
}
