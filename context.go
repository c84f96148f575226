package goGate

import "context"

type requestContextKey struct{}

// ContextWithRequest stashes the gate-visible request view so downstream
// handlers can read the established identity and session.
func ContextWithRequest(ctx context.Context, req *Request) context.Context {
	return context.WithValue(ctx, requestContextKey{}, req)
}

// RequestFromContext describes the requestfromcontext operation and its observable behavior.
//
// RequestFromContext does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func RequestFromContext(ctx context.Context) (*Request, bool) {
	req, ok := ctx.Value(requestContextKey{}).(*Request)
	return req, ok
}
