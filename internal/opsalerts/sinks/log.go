// Package sinks holds the notification backends an operational alert rule
// can fire into. Log sink prints alert firings to the structured logger; it
// is the default in development or small single-host setups where a chat
// integration is overkill. The sink is non-blocking and incurs effectively
// zero overhead.
package sinks

import (
	"go.uber.org/zap"

	"github.com/groupcast/groupcast/internal/logging"
)

// LogSink satisfies opsalerts.Sink. No configuration needed; the global
// zap.Logger is used.
type LogSink struct{}

// NewLogSink returns a LogSink.
func NewLogSink() *LogSink { return &LogSink{} }

// Notify logs the alert name and message at WARN level.
func (s *LogSink) Notify(ruleName, msg string) {
	logging.Logger().Warn("alert fired", zap.String("rule", ruleName), zap.String("msg", msg))
}
