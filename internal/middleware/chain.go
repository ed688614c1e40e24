// internal/middleware/chain.go
// Package middleware implements the per-connection chain: each Middleware
// wraps the next, and the handler resolves the whole chain once per
// upgraded connection before handing off to a consumer.Consumer. Go has no
// raised-exception control flow, so a middleware signals "stop here" by
// returning Stop from ConnectionOutcome instead of panicking or raising; an
// actual error still means an actual failure.
package middleware

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"
)

// ConnectionOutcome is what a Middleware (or the terminal consumer handoff)
// decides once it has finished with a connection.
type ConnectionOutcome int

const (
	// Continue means the next middleware in the chain should run.
	Continue ConnectionOutcome = iota
	// Stop means the chain should unwind and the handler should close the
	// socket (code 1000) without running anything further.
	Stop
)

// Scope carries the per-connection context middlewares populate, matching
// consumer.Scope's shape but kept independent so this package has no
// dependency on internal/consumer.
type Scope map[string]any

// Request bundles what a Middleware needs: the raw upgrade request (for
// headers/cookies/URL), the already-upgraded socket, and the mutable scope
// built up by prior middlewares. The handler upgrades the connection before
// running the chain, since every middleware here expects the socket to
// already exist.
type Request struct {
	HTTP  *http.Request
	Conn  *websocket.Conn
	Scope Scope
}

// Next is the tail-call a Middleware invokes to continue the chain.
type Next func(ctx context.Context, req *Request) (ConnectionOutcome, error)

// Middleware wraps a connection the way an ASGI middleware wraps
// "(socket, call_next) -> ()", translated into Go's explicit-return idiom:
// it returns Stop (or an error) to unwind instead of raising an exception.
type Middleware func(ctx context.Context, req *Request, next Next) (ConnectionOutcome, error)

// Chain is an ordered stack of middlewares, resolved top-to-bottom exactly
// once per connection.
type Chain struct {
	stack []Middleware
}

// NewChain builds a Chain from mw in call order (index 0 runs first).
func NewChain(mw ...Middleware) *Chain {
	return &Chain{stack: mw}
}

// Run resolves the chain against req, terminating in terminal once every
// middleware has called Continue. terminal is responsible for routing the
// connection to a consumer without itself being a Middleware, since it
// never has a further Next to call.
func (c *Chain) Run(ctx context.Context, req *Request, terminal Next) (ConnectionOutcome, error) {
	return c.runFrom(ctx, req, 0, terminal)
}

func (c *Chain) runFrom(ctx context.Context, req *Request, i int, terminal Next) (ConnectionOutcome, error) {
	if i >= len(c.stack) {
		return terminal(ctx, req)
	}
	mw := c.stack[i]
	return mw(ctx, req, func(ctx context.Context, req *Request) (ConnectionOutcome, error) {
		return c.runFrom(ctx, req, i+1, terminal)
	})
}
