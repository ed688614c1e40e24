// pkg/sessionhook/session.go
// Reference implementation of the external session hook ScopeMiddleware
// calls: given the cookies parsed off an upgrade request, populate
// scope["session"]. A small struct, a constructor with sane defaults, one
// exported method.
package sessionhook

import "net/http"

// CookieName is the cookie AuthMiddleware's bearer token rides in by
// default; callers of New may pick a different one.
const CookieName = "groupcast_session"

// Hook resolves a session token out of request cookies.
type Hook struct {
	cookieName string
}

// New returns a Hook reading cookieName; "" defaults to CookieName.
func New(cookieName string) *Hook {
	if cookieName == "" {
		cookieName = CookieName
	}
	return &Hook{cookieName: cookieName}
}

// Resolve extracts the session token from cookies, returning "" if absent.
// ScopeMiddleware stores the result under scope["session"] regardless of
// whether it is empty; AuthMiddleware treats an empty session as
// unauthenticated rather than erroring.
func (h *Hook) Resolve(cookies []*http.Cookie) string {
	for _, c := range cookies {
		if c.Name == h.cookieName {
			return c.Value
		}
	}
	return ""
}
