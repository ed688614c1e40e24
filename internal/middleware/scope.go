// internal/middleware/scope.go
// ScopeMiddleware: extracts cookies from the Cookie header, builds a fresh
// scope map, calls the external session hook for scope["session"].
package middleware

import (
	"context"
	"net/http"
)

// SessionHook matches pkg/sessionhook.Hook's Resolve signature structurally,
// so this package depends on the shape rather than the concrete type.
type SessionHook interface {
	Resolve(cookies []*http.Cookie) string
}

// NewScopeMiddleware returns a Middleware that builds req.Scope["session"]
// from hook.Resolve(req.HTTP.Cookies()).
func NewScopeMiddleware(hook SessionHook) Middleware {
	return func(ctx context.Context, req *Request, next Next) (ConnectionOutcome, error) {
		if req.Scope == nil {
			req.Scope = Scope{}
		}
		req.Scope["session"] = hook.Resolve(req.HTTP.Cookies())
		return next(ctx, req)
	}
}
