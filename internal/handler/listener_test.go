package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"

	"github.com/groupcast/groupcast/internal/middleware"
)

func TestWebSocketUpgradeWithNoRouteClosesNotFound(t *testing.T) {
	chain := middleware.NewChain(middleware.NewRouteMiddleware(nil))
	l := New(chain)

	srv := httptest.NewServer(http.HandlerFunc(l.handleWebSocket))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	_, _, err = conn.ReadMessage()
	if err == nil {
		t.Fatal("expected connection to be closed by server")
	}
	closeErr, ok := err.(*websocket.CloseError)
	if !ok {
		t.Fatalf("expected a CloseError, got %v", err)
	}
	if closeErr.Code != middleware.NotFoundCode {
		t.Fatalf("expected close code %d, got %d", middleware.NotFoundCode, closeErr.Code)
	}
}
