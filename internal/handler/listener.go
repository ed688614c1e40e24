// internal/handler/listener.go
// HTTP listener exposing:
//   - /ws      – WebSocket upgrade entry point, resolving the middleware
//     chain and handing the connection off to a consumer.Consumer
//   - /metrics – Prometheus scrape endpoint
//
// Same upgrader config, StartHTTP signature-and-goroutine shape, and
// /metrics wiring via promhttp as the rest of this codebase's HTTP
// listeners: upgrade, resolve the middleware chain, run one consumer per
// connection.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/groupcast/groupcast/internal/logging"
	"github.com/groupcast/groupcast/internal/metrics"
	"github.com/groupcast/groupcast/internal/middleware"
)

// Config controls listener behavior.
type Config struct {
	ListenAddr    string
	EnableMetrics bool
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
}

// Listener owns the HTTP mux and the middleware chain each upgraded
// connection is run through. The chain's last entry is expected to be a
// middleware.NewRouteMiddleware, whose matched Target constructs and runs a
// consumer against req.Conn.
type Listener struct {
	chain *middleware.Chain
}

// New builds a Listener around chain.
func New(chain *middleware.Chain) *Listener {
	return &Listener{chain: chain}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Start starts an HTTP server in its own goroutine and returns it so the
// caller can shut it down via http.Server.Shutdown.
func (l *Listener) Start(cfg Config) *http.Server {
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 5 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 10 * time.Second
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", l.handleWebSocket)
	if cfg.EnableMetrics {
		metrics.Register()
		mux.Handle("/metrics", promhttp.Handler())
	}

	srv := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      mux,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Logger().Warn("handler: http listener error", zap.Error(err))
		}
	}()
	logging.Logger().Info("handler: http listener started", zap.String("addr", cfg.ListenAddr))
	return srv
}

func (l *Listener) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Logger().Warn("handler: ws upgrade failed", zap.Error(err))
		return
	}

	req := &middleware.Request{HTTP: r, Conn: conn, Scope: middleware.Scope{}}

	outcome, err := l.chain.Run(r.Context(), req, func(ctx context.Context, req *middleware.Request) (middleware.ConnectionOutcome, error) {
		// Reached only if the chain has no terminating route middleware,
		// which is a configuration error: close defensively.
		logging.Logger().Warn("handler: middleware chain exhausted without a terminal route")
		return middleware.Stop, nil
	})
	if err != nil {
		logging.Logger().Debug("handler: connection ended", zap.Error(err))
	}
	if outcome == middleware.Stop {
		msg := websocket.FormatCloseMessage(1000, "")
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		_ = conn.Close()
	}
}
