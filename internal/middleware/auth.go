// internal/middleware/auth.go
// AuthMiddleware: reads scope["session"] (populated by ScopeMiddleware;
// an empty or missing session leaves scope["user"] nil), resolves
// scope["user"] via the external auth hook, and
// runs that hook on a worker goroutine since it is synchronous and may
// touch a database.
package middleware

import "context"

// AuthHook matches pkg/authhook.Verifier's VerifyAny signature structurally
// (Go requires an exact result-type match for interface satisfaction, hence
// the any-returning adapter method rather than Verifier's own *User-typed
// Verify).
type AuthHook interface {
	VerifyAny(token string) (user any, err error)
}

// NewAuthMiddleware returns a Middleware that resolves scope["user"] from
// scope["session"] via hook. An empty session is treated as unauthenticated:
// scope["user"] is left nil and the chain continues (RouteMiddleware or the
// application's own handlers decide whether that's acceptable for a given
// route).
func NewAuthMiddleware(hook AuthHook) Middleware {
	return func(ctx context.Context, req *Request, next Next) (ConnectionOutcome, error) {
		session, _ := req.Scope["session"].(string)
		if session == "" {
			req.Scope["user"] = nil
			return next(ctx, req)
		}

		type result struct {
			user any
			err  error
		}
		resCh := make(chan result, 1)
		go func() {
			u, err := hook.VerifyAny(session)
			resCh <- result{user: u, err: err}
		}()

		select {
		case r := <-resCh:
			if r.err != nil {
				req.Scope["user"] = nil
				return next(ctx, req)
			}
			req.Scope["user"] = r.user
			return next(ctx, req)
		case <-ctx.Done():
			return Stop, ctx.Err()
		}
	}
}
