// Package opsalerts evaluates operator-defined threshold rules against
// GroupCast's own runtime metrics (live worker count, restart rate, queue
// drop rate, fan-out failures) and notifies a set of sinks when a rule's
// condition transitions from false to true.
//
// There was no single rule-evaluation entry point to adapt verbatim; this
// engine composes internal/alertexpr (the predicate language) with the
// sinks.Sink contract the same way the reference alerting code implied one
// existed (its sink doc comments reference "alerts.Sink" without the type
// being defined alongside them) — here that contract is made explicit.
package opsalerts

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/groupcast/groupcast/internal/alertexpr"
	"github.com/groupcast/groupcast/internal/logging"
	"github.com/groupcast/groupcast/internal/metrics"
)

// Sink receives a notification when a rule fires. ruleName identifies which
// Rule fired; msg is a short human-readable summary of the breach.
type Sink interface {
	Notify(ruleName, msg string)
}

// Source produces the named metric values a Rule's predicate reads.
type Source func() map[string]float64

// DefaultSource reads the handful of unlabeled process-wide gauges and
// counters GroupCast exports: live_workers, worker_restarts_total. Per-group
// queue-drop-rate alerting needs a caller-supplied Source, since
// metrics.QueueDropsTotal is labeled by group and has no single scalar value.
func DefaultSource() Source {
	return func() map[string]float64 {
		return map[string]float64{
			"live_workers":          testutil.ToFloat64(metrics.LiveWorkers),
			"worker_restarts_total": testutil.ToFloat64(metrics.WorkerRestartsTotal),
		}
	}
}

// Rule is a single compiled alert condition; the sinks it notifies belong
// to the Engine it is added to.
type Rule struct {
	Name string
	Expr string

	pred  alertexpr.Predicate
	fired bool // edge-trigger state: only notify on false->true transitions
}

// NewRule compiles expr and returns a Rule, or an error if expr is invalid.
func NewRule(name, expr string) (*Rule, error) {
	pred, err := alertexpr.Compile(expr)
	if err != nil {
		return nil, err
	}
	return &Rule{Name: name, Expr: expr, pred: pred}, nil
}

// Engine periodically evaluates a set of rules against a Source and
// dispatches to sinks on each rule's rising edge.
type Engine struct {
	source Source
	sinks  []Sink

	mu    sync.Mutex
	rules []*Rule
}

// NewEngine constructs an Engine. source is typically DefaultSource(), and
// the caller may wrap or replace it to add custom derived metrics (e.g. a
// running queue-drop-rate computed by the caller from metrics.QueueDropsTotal
// label values).
func NewEngine(source Source, sinks ...Sink) *Engine {
	return &Engine{source: source, sinks: sinks}
}

// AddRule registers r with the engine.
func (e *Engine) AddRule(r *Rule) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rules = append(e.rules, r)
}

// Run evaluates every registered rule every interval until ctx is cancelled.
func (e *Engine) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.evalOnce()
		}
	}
}

func (e *Engine) evalOnce() {
	snapshot := e.source()

	e.mu.Lock()
	rules := make([]*Rule, len(e.rules))
	copy(rules, e.rules)
	e.mu.Unlock()

	for _, r := range rules {
		breach := r.pred(snapshot)
		if breach && !r.fired {
			r.fired = true
			msg := r.Name + ": " + r.Expr
			for _, s := range e.sinks {
				s.Notify(r.Name, msg)
			}
			logging.Logger().Warn("opsalerts: rule fired", zap.String("rule", r.Name), zap.String("expr", r.Expr))
		} else if !breach && r.fired {
			r.fired = false
		}
	}
}
