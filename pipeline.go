package goGate

import (
	"context"
	"net/http"
)

// Pipeline is an ordered chain of gates with short-circuit semantics: the
// first Deny or raised Failure stops the walk. Headers requested by passing
// gates (rate-limit counters) accumulate and are attached to whatever
// response the request ultimately produces, terminal denials included.
type Pipeline struct {
	gates []Gate
}

// NewPipeline describes the newpipeline operation and its observable behavior.
//
// NewPipeline does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewPipeline(gates ...Gate) *Pipeline {
	return &Pipeline{gates: gates}
}

// Append describes the append operation and its observable behavior.
//
// Append does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (p *Pipeline) Append(gates ...Gate) *Pipeline {
	p.gates = append(p.gates, gates...)
	return p
}

// Gates describes the gates operation and its observable behavior.
//
// Gates does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (p *Pipeline) Gates() []Gate {
	return p.gates
}

// Run walks the chain in order. The returned Decision either allows the
// request (PassHeaders carrying accumulated headers) or holds the terminal
// response of the first denying gate, with accumulated headers merged in.
// A raised Failure propagates immediately for the translator.
func (p *Pipeline) Run(ctx context.Context, req *Request) (Decision, error) {
	accumulated := make(http.Header)

	for _, gate := range p.gates {
		decision, err := gate.Check(ctx, req)
		if err != nil {
			return Decision{}, err
		}

		if !decision.Allowed() {
			resp := decision.Response()
			mergeHeaders(resp, accumulated)
			return Deny(resp), nil
		}

		for key, values := range decision.PassHeaders() {
			for _, v := range values {
				accumulated.Set(key, v)
			}
		}
	}

	if len(accumulated) == 0 {
		return Allow(), nil
	}
	return AllowWithHeaders(accumulated), nil
}

// mergeHeaders copies accumulated pass headers onto a terminal response
// without overwriting headers the denying gate set itself.
func mergeHeaders(resp *Response, accumulated http.Header) {
	if resp == nil || len(accumulated) == 0 {
		return
	}
	if resp.Headers == nil {
		resp.Headers = make(http.Header)
	}
	for key, values := range accumulated {
		if resp.Headers.Get(key) != "" {
			continue
		}
		for _, v := range values {
			resp.Headers.Set(key, v)
		}
	}
}

// AdminChain composes the standard protected-admin ordering: rate limiting
// first so abuse is capped even for anonymous traffic, then authentication,
// then role, then CSRF for state-changing verbs (it must run after identity
// so the failure can be attributed).
func (e *Engine) AdminChain(policyName string, required Gate) *Pipeline {
	return NewPipeline(
		e.RateLimitGate(policyName),
		e.AuthGate(),
		required,
		e.CsrfGate(),
	)
}
