package goGate

import (
	"context"
	"net/http"
	"strings"

	"github.com/MrEthical07/goGate/session"
)

// Request is the gate-visible view of one inbound HTTP request. Adapters in
// the middleware package build it from *http.Request; tests build it
// directly.
type Request struct {
	Method   string
	Path     string
	ClientIP string
	Header   http.Header

	// FormToken carries the parsed body token field when the transport
	// adapter extracted one (mutating form submissions only).
	FormToken string

	// AuthUserID is the identity established for this request. AuthGate
	// fills it from the session or, when enabled, a verified bearer token;
	// RoleGate reads it instead of re-deriving identity.
	AuthUserID string

	Session *session.Session
}

// WantsJSON reports whether the client negotiated a machine-readable
// response: Accept or Content-Type containing "application/json".
func (r *Request) WantsJSON() bool {
	if r == nil || r.Header == nil {
		return false
	}
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	return strings.Contains(r.Header.Get("Content-Type"), "application/json")
}

// Envelope is the JSON response shape emitted for terminal decisions and
// translated failures.
type Envelope struct {
	Success  bool                `json:"success"`
	Message  string              `json:"message"`
	Code     int                 `json:"code"`
	Redirect string              `json:"redirect,omitempty"`
	Errors   map[string][]string `json:"errors,omitempty"`
	Debug    *DebugInfo          `json:"debug,omitempty"`
}

// DebugInfo defines a public type used by goGate APIs.
//
// DebugInfo instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type DebugInfo struct {
	Exception string   `json:"exception"`
	File      string   `json:"file"`
	Line      int      `json:"line"`
	Trace     []string `json:"trace,omitempty"`
}

// Response is a terminal response produced by a gate or the translator.
// Exactly one body form is used: Envelope for JSON negotiation, HTML for
// rendered pages, Text as the plain fallback. RedirectURL implies a
// Location header.
type Response struct {
	Status      int
	Headers     http.Header
	RedirectURL string
	Envelope    *Envelope
	HTML        string
	Text        string
}

// SetHeader describes the setheader operation and its observable behavior.
//
// SetHeader does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (r *Response) SetHeader(key, value string) *Response {
	if r.Headers == nil {
		r.Headers = make(http.Header)
	}
	r.Headers.Set(key, value)
	return r
}

// Decision is the outcome of one gate check: pass (optionally carrying
// headers to attach to the eventual response) or a terminal Response.
// Expected denials travel as Decisions, never as errors.
type Decision struct {
	response    *Response
	passHeaders http.Header
}

// Allow describes the allow operation and its observable behavior.
//
// Allow does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func Allow() Decision {
	return Decision{}
}

// AllowWithHeaders passes the gate while requesting the given headers be
// attached to whatever response the request ultimately produces.
func AllowWithHeaders(h http.Header) Decision {
	return Decision{passHeaders: h}
}

// Deny describes the deny operation and its observable behavior.
//
// Deny does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func Deny(resp *Response) Decision {
	return Decision{response: resp}
}

// Allowed describes the allowed operation and its observable behavior.
//
// Allowed does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (d Decision) Allowed() bool {
	return d.response == nil
}

// Response describes the response operation and its observable behavior.
//
// Response does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (d Decision) Response() *Response {
	return d.response
}

// PassHeaders describes the passheaders operation and its observable behavior.
//
// PassHeaders does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (d Decision) PassHeaders() http.Header {
	return d.passHeaders
}

// Gate is one pipeline stage. Check either passes, returns a terminal
// Response via Deny, or raises a *Failure for conditions the pipeline did
// not anticipate (broken store, corrupt state).
type Gate interface {
	Name() string
	Check(ctx context.Context, req *Request) (Decision, error)
}

// UserRecord is the minimal account view the role gate resolves per check.
type UserRecord struct {
	ID     string
	Role   string
	Active bool
}

// UserProvider is the interface callers implement to let the role gate
// re-validate accounts against their user database.
type UserProvider interface {
	GetUserByID(ctx context.Context, id string) (UserRecord, error)
}
