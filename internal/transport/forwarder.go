// internal/transport/forwarder.go
// The FORWARDER role fans one SendMessage RPC out to every worker namespace
// in the current snapshot of the shared worker list. A failed stub dial
// advances a per-namespace internal/util.Backoff (the CLIENT role's
// reconnect path uses cenkalti/backoff instead); the forwarder never sleeps
// on the returned duration, so the failed stub is simply redialed on the
// next fanOut.
package transport

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/groupcast/groupcast/internal/bind"
	"github.com/groupcast/groupcast/internal/logging"
	"github.com/groupcast/groupcast/internal/metrics"
	"github.com/groupcast/groupcast/internal/util"
	"github.com/groupcast/groupcast/internal/wsgrouppb"
)

// errNoReachableWorkers is returned when the snapshot is empty or every
// namespace in it failed to dial; an ack only promises at least one delivery was attempted,
// so this distinguishes "fanned out, some failed" (nil error, per-stub
// metrics/logs) from "nothing was even attempted".
var errNoReachableWorkers = errors.New("transport: no reachable workers")

// workerIndexOf extracts i from a "worker_i" namespace string; the master
// namespace and any unparsable value map to offset 0, which only matters if
// the master itself were ever fanned out to (it is not: fanOut only ever
// iterates worker namespaces from WorkerLister).
func workerIndexOf(ns string) int {
	_, numPart, ok := strings.Cut(ns, "_")
	if !ok {
		return 0
	}
	i, err := strconv.Atoi(numPart)
	if err != nil {
		return 0
	}
	return i
}

// forwarder owns the lazily-built per-namespace stub cache.
type forwarder struct {
	cfg    Config
	lister WorkerLister

	mu    sync.Mutex
	stubs map[string]*clientConn
	back  map[string]*util.Backoff
}

func newForwarder(cfg Config, lister WorkerLister) *forwarder {
	return &forwarder{
		cfg:    cfg,
		lister: lister,
		stubs:  make(map[string]*clientConn),
		back:   make(map[string]*util.Backoff),
	}
}

// fanOut snapshots the worker namespace list, lazily dials (or reuses) a
// stub per namespace, sends to each, and acks iff at least one delivery was
// attempted. Per-stub failures are logged, not propagated: a slow or dead
// worker never blocks fan-out to the rest. Every call gets its own
// correlation ID, attached to the span and every log line it produces, so a
// single group_send can be traced across every worker it fanned out to.
func (f *forwarder) fanOut(ctx context.Context, group string, msg *wsgrouppb.WSMessage) error {
	corrID := util.MustNew()
	ctx, span := startSpan(ctx, "transport.forwarder.fanOut", attribute.String("groupcast.correlation_id", corrID))
	defer span.End()

	namespaces := f.lister.Snapshot()
	if len(namespaces) == 0 {
		logging.Sugar().Warnw("transport: forwarder fan-out with no live workers", "group", group, "correlation_id", corrID)
		return errNoReachableWorkers
	}

	attempted := false
	for _, ns := range namespaces {
		stub, err := f.stubFor(ctx, ns)
		if err != nil {
			logging.Sugar().Warnw("transport: forwarder could not reach worker stub", "worker", ns, "err", err, "correlation_id", corrID)
			metrics.MessagesFannedOutTotal.WithLabelValues(ns, "dial_error").Inc()
			continue
		}
		attempted = true
		if err := stub.send(ctx, group, msg); err != nil {
			logging.Logger().Warn("transport: forwarder send failed",
				zap.String("worker", ns), zap.Error(err), zap.String("correlation_id", corrID))
			metrics.MessagesFannedOutTotal.WithLabelValues(ns, "send_error").Inc()
			f.markUnhealthy(ns)
			continue
		}
		metrics.MessagesFannedOutTotal.WithLabelValues(ns, "ok").Inc()
	}
	if !attempted {
		return errNoReachableWorkers
	}
	return nil
}

// stubFor returns the cached stub for ns, dialing (or redialing, if a prior
// send marked it unhealthy) as needed.
func (f *forwarder) stubFor(ctx context.Context, ns string) (*clientConn, error) {
	f.mu.Lock()
	stub, ok := f.stubs[ns]
	f.mu.Unlock()
	if ok {
		return stub, nil
	}

	addr, err := resolvedAddress(f.cfg, ns, workerIndexOf(ns))
	if err != nil {
		return nil, err
	}
	target := addr.String()
	if addr.Kind == bind.KindUnix {
		target = "unix:" + addr.Path // the form bind.Parse accepts
	}
	c, err := dialClient(ctx, Config{Address: target})
	if err != nil {
		f.backoffFor(ns).Next() // count the failed attempt even though nothing sleeps on it here
		return nil, err
	}

	f.mu.Lock()
	f.stubs[ns] = c
	f.mu.Unlock()
	return c, nil
}

// markUnhealthy drops the cached stub so the next fanOut call rebuilds it
// from scratch, rather than retrying against a connection already known bad.
func (f *forwarder) markUnhealthy(ns string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if stub, ok := f.stubs[ns]; ok {
		_ = stub.close()
		delete(f.stubs, ns)
	}
}

func (f *forwarder) backoffFor(ns string) *util.Backoff {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.back[ns]
	if !ok {
		b = util.NewBackoff()
		f.back[ns] = b
	}
	return b
}
