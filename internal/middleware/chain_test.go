package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestChainRunsInOrderThenTerminal(t *testing.T) {
	var order []string
	mkMW := func(name string) Middleware {
		return func(ctx context.Context, req *Request, next Next) (ConnectionOutcome, error) {
			order = append(order, name)
			return next(ctx, req)
		}
	}
	chain := NewChain(mkMW("a"), mkMW("b"))
	req := &Request{HTTP: httptest.NewRequest(http.MethodGet, "/x", nil), Scope: Scope{}}

	outcome, err := chain.Run(context.Background(), req, func(ctx context.Context, req *Request) (ConnectionOutcome, error) {
		order = append(order, "terminal")
		return Continue, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != Continue {
		t.Fatalf("expected Continue, got %v", outcome)
	}
	want := []string{"a", "b", "terminal"}
	if len(order) != len(want) {
		t.Fatalf("got order %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("got order %v, want %v", order, want)
		}
	}
}

func TestChainStopShortCircuits(t *testing.T) {
	ran := false
	stopper := func(ctx context.Context, req *Request, next Next) (ConnectionOutcome, error) {
		return Stop, nil
	}
	never := func(ctx context.Context, req *Request, next Next) (ConnectionOutcome, error) {
		ran = true
		return next(ctx, req)
	}
	chain := NewChain(stopper, never)
	req := &Request{HTTP: httptest.NewRequest(http.MethodGet, "/x", nil), Scope: Scope{}}

	outcome, err := chain.Run(context.Background(), req, func(ctx context.Context, req *Request) (ConnectionOutcome, error) {
		ran = true
		return Continue, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != Stop {
		t.Fatalf("expected Stop, got %v", outcome)
	}
	if ran {
		t.Fatal("expected later middleware/terminal to never run after Stop")
	}
}

func TestScopeMiddlewarePopulatesSession(t *testing.T) {
	hook := fakeSessionHook{token: "tok123"}
	mw := NewScopeMiddleware(hook)
	req := &Request{HTTP: httptest.NewRequest(http.MethodGet, "/x", nil)}

	_, err := mw(context.Background(), req, func(ctx context.Context, req *Request) (ConnectionOutcome, error) {
		return Continue, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Scope["session"] != "tok123" {
		t.Fatalf("expected session to be populated, got %v", req.Scope["session"])
	}
}

type fakeSessionHook struct{ token string }

func (f fakeSessionHook) Resolve(cookies []*http.Cookie) string { return f.token }

func TestRouteMiddlewareNotFound(t *testing.T) {
	mw := NewRouteMiddleware(nil)
	req := &Request{HTTP: httptest.NewRequest(http.MethodGet, "/missing", nil), Scope: Scope{}}

	outcome, err := mw(context.Background(), req, nil)
	if outcome != Stop {
		t.Fatalf("expected Stop, got %v", outcome)
	}
	if _, ok := err.(*ErrNotFound); !ok {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
