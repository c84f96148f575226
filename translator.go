package goGate

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/http"

	"github.com/google/uuid"
)

// StatusRegistry maps failure kinds to HTTP status codes. It is a plain
// value injected at construction — tests register custom kinds on their own
// copy without mutating shared state.
type StatusRegistry map[FailureKind]int

// DefaultStatusRegistry describes the defaultstatusregistry operation and its observable behavior.
//
// DefaultStatusRegistry does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func DefaultStatusRegistry() StatusRegistry {
	return StatusRegistry{
		KindUnauthenticated:  http.StatusUnauthorized,
		KindForbidden:        http.StatusForbidden,
		KindValidation:       http.StatusUnprocessableEntity,
		KindNotFound:         http.StatusNotFound,
		KindMethodNotAllowed: http.StatusMethodNotAllowed,
		KindDatabase:         http.StatusInternalServerError,
		KindModel:            http.StatusInternalServerError,
		KindContainer:        http.StatusInternalServerError,
		KindInternal:         http.StatusInternalServerError,
	}
}

// Translator converts any raised error into a correctly-shaped terminal
// Response. It never panics and never lets logging block or fail response
// generation; an unknown kind degrades to 500, not to a crash.
type Translator struct {
	registry   StatusRegistry
	debug      bool
	homeURL    string
	dispatcher *auditDispatcher
	metrics    *Metrics
}

// NewTranslator describes the newtranslator operation and its observable behavior.
//
// NewTranslator does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewTranslator(registry StatusRegistry, debug bool, homeURL string) *Translator {
	if registry == nil {
		registry = DefaultStatusRegistry()
	}
	if homeURL == "" {
		homeURL = "/"
	}
	return &Translator{
		registry: registry,
		debug:    debug,
		homeURL:  homeURL,
	}
}

// Translate builds the terminal response for err. wantsJSON selects the
// envelope shape; otherwise an HTML page is rendered. Production mode
// substitutes fixed public messages and never leaks exception types, file
// paths, or stack frames.
func (t *Translator) Translate(req *Request, err error) *Response {
	failure := asFailure(err)
	status := t.resolveStatus(failure)

	t.logFailure(req, failure, status)
	t.metrics.Inc(MetricFailureTranslated)

	if req != nil && req.WantsJSON() {
		return t.jsonResponse(failure, status)
	}
	return t.htmlResponse(failure, status)
}

func asFailure(err error) *Failure {
	if f, ok := err.(*Failure); ok && f != nil {
		return f
	}
	f := &Failure{Kind: KindInternal, cause: err}
	if err != nil {
		f.Message = err.Error()
	}
	return f
}

func (t *Translator) resolveStatus(f *Failure) int {
	if status, ok := t.registry[f.Kind]; ok && status >= 100 && status <= 599 {
		return status
	}
	if f.Status >= 400 && f.Status <= 599 {
		return f.Status
	}
	return http.StatusInternalServerError
}

// logFailure emits the structured record before any response is produced.
// A broken or saturated sink silently drops the line; logging can never
// raise or block.
func (t *Translator) logFailure(req *Request, f *Failure, status int) {
	defer func() { _ = recover() }()

	event := AuditEvent{
		ID:        uuid.NewString(),
		EventType: "failure.translated",
		Kind:      string(f.Kind),
		Error:     f.Error(),
		Status:    status,
		File:      f.File,
		Line:      f.Line,
		Trace:     f.Trace,
	}
	if req != nil {
		event.Method = req.Method
		event.Path = req.Path
		event.ClientIP = req.ClientIP
		event.UserID = req.AuthUserID
		if req.Session != nil {
			event.SessionID = req.Session.ID
		}
	}
	t.dispatcher.Emit(context.Background(), event)
}

func (t *Translator) jsonResponse(f *Failure, status int) *Response {
	env := &Envelope{
		Success: false,
		Code:    status,
		Message: publicMessage(status),
	}

	if f.Kind == KindValidation {
		env.Errors = f.Fields
	}

	if t.debug {
		env.Message = f.Message
		env.Debug = &DebugInfo{
			Exception: fmt.Sprintf("%T", errOrSelf(f)),
			File:      f.File,
			Line:      f.Line,
			Trace:     f.Trace,
		}
	}

	return &Response{Status: status, Envelope: env}
}

func errOrSelf(f *Failure) error {
	if f.cause != nil {
		return f.cause
	}
	return f
}

func (t *Translator) htmlResponse(f *Failure, status int) *Response {
	var buf bytes.Buffer

	if t.debug {
		err := debugPageTpl.Execute(&buf, debugPageData{
			Status:  status,
			Kind:    string(f.Kind),
			Message: f.Message,
			File:    f.File,
			Line:    f.Line,
			Trace:   f.Trace,
		})
		if err != nil {
			return &Response{Status: status, Text: f.Message}
		}
		return &Response{Status: status, HTML: buf.String()}
	}

	err := errorPageTpl.Execute(&buf, errorPageData{
		Status:  status,
		Title:   publicTitle(status),
		Message: publicMessage(status),
		HomeURL: t.homeURL,
	})
	if err != nil {
		return &Response{Status: status, Text: publicMessage(status)}
	}
	return &Response{Status: status, HTML: buf.String()}
}

/*
====================================
PUBLIC COPY
====================================
*/

func publicTitle(status int) string {
	switch status {
	case http.StatusUnauthorized:
		return "Sign in required"
	case http.StatusForbidden:
		return "Access denied"
	case http.StatusNotFound:
		return "Page not found"
	case http.StatusMethodNotAllowed:
		return "Method not allowed"
	case http.StatusUnprocessableEntity:
		return "Unable to process request"
	case http.StatusTooManyRequests:
		return "Too many requests"
	default:
		return "Something went wrong"
	}
}

func publicMessage(status int) string {
	switch status {
	case http.StatusUnauthorized:
		return "You need to sign in to continue."
	case http.StatusForbidden:
		return "You do not have permission to access this resource."
	case http.StatusNotFound:
		return "The page you are looking for could not be found."
	case http.StatusMethodNotAllowed:
		return "That action is not supported."
	case http.StatusUnprocessableEntity:
		return "The submitted data could not be processed."
	case http.StatusTooManyRequests:
		return "Too many requests. Please slow down."
	default:
		return "An unexpected error occurred. Please try again later."
	}
}

/*
====================================
PAGE TEMPLATES
====================================
*/

type errorPageData struct {
	Status  int
	Title   string
	Message string
	HomeURL string
}

type debugPageData struct {
	Status  int
	Kind    string
	Message string
	File    string
	Line    int
	Trace   []string
}

var errorPageTpl = template.Must(template.New("error").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Status}} — {{.Title}}</title>
<style>
body{font-family:sans-serif;background:#f7f7f7;color:#333;text-align:center;padding-top:8em}
h1{font-size:3em;margin-bottom:0}
p{color:#666}
a{color:#2c7be5;text-decoration:none}
</style>
</head>
<body>
<h1>{{.Status}}</h1>
<h2>{{.Title}}</h2>
<p>{{.Message}}</p>
<p><a href="{{.HomeURL}}">Back to home</a></p>
</body>
</html>
`))

var debugPageTpl = template.Must(template.New("debug").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Status}} — {{.Kind}}</title>
<style>
body{font-family:monospace;background:#1b1b1b;color:#ddd;padding:2em}
h1{color:#ff6b6b}
.frame{color:#9ad}
</style>
</head>
<body>
<h1>{{.Status}} {{.Kind}}</h1>
<p>{{.Message}}</p>
<p>{{.File}}:{{.Line}}</p>
<ol>
{{range .Trace}}<li class="frame">{{.}}</li>
{{end}}</ol>
</body>
</html>
`))
