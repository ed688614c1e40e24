// internal/middleware/route.go
// RouteMiddleware: the terminal-most reference middleware. Iterates
// external URL patterns; the first whose Resolve(path) succeeds captures
// its args into scope["url_route"] and is invoked as the chain's terminal.
// No match closes the socket with code 1003/"not_found".
package middleware

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
)

// RouteArgs is what a matched Pattern captures from the path, stored under
// scope["url_route"].
type RouteArgs map[string]string

// Target is what a matched route invokes. Sync targets are the common case
// (most consumer constructors are plain functions); callers wanting to keep
// blocking work off the caller's goroutine should do it inside Target
// themselves on a goroutine, since Go has no implicit sync/async
// distinction to dispatch on.
type Target func(ctx context.Context, req *Request, args RouteArgs) (ConnectionOutcome, error)

// Pattern is one entry in a RouteMiddleware's URL table.
type Pattern struct {
	// Resolve reports whether path matches, returning captured args.
	Resolve func(path string) (RouteArgs, bool)
	Target  Target
}

// NotFoundCode/NotFoundReason are the close code/reason RouteMiddleware uses
// when no pattern matches.
const (
	NotFoundCode   = 1003
	NotFoundReason = "not_found"
)

// ErrNotFound is returned (alongside Stop) when no pattern matches. By then
// the middleware has already sent the NotFoundCode/NotFoundReason close
// frame on req.Conn (when one is set) and closed it.
type ErrNotFound struct{ Path string }

func (e *ErrNotFound) Error() string { return "middleware: no route for " + e.Path }

// NewRouteMiddleware returns a Middleware that never calls next: it is
// always the last entry in a Chain, responsible for routing the connection
// to a consumer.
func NewRouteMiddleware(patterns []Pattern) Middleware {
	return func(ctx context.Context, req *Request, _ Next) (ConnectionOutcome, error) {
		path := req.HTTP.URL.Path
		for _, p := range patterns {
			args, ok := p.Resolve(path)
			if !ok {
				continue
			}
			if req.Scope == nil {
				req.Scope = Scope{}
			}
			req.Scope["url_route"] = args
			return p.Target(ctx, req, args)
		}
		if req.Conn != nil {
			msg := websocket.FormatCloseMessage(NotFoundCode, NotFoundReason)
			_ = req.Conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
			_ = req.Conn.Close()
		}
		return Stop, &ErrNotFound{Path: path}
	}
}
