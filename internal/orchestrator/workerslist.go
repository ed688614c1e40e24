// internal/orchestrator/workerslist.go
// WorkersList is the shared worker namespace list the forwarder polls
// through Snapshot, which copies the set under the list's own lock; the
// forwarder holds no lock of its own and tolerates staleness rather than
// coordinate with writers. The Supervisor adds a namespace as soon as its
// child process has started, which can be before that worker's RPC server
// has bound its address; a send to such a worker fails and is logged like
// any other per-stub failure. It satisfies transport.WorkerLister.
//
// The in-memory implementation is the default (master and forwarder share
// one process in this design), and a Redis-backed alternative is offered
// for HA deployments spanning multiple hosts, mirroring a retention-store
// in-mem/Redis pair where the stored value is a namespace string instead of
// a time-bounded chunk: there is no expiry here, a namespace stays listed
// until the orchestrator explicitly removes it.
package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/groupcast/groupcast/internal/logging"
	"go.uber.org/zap"
)

// WorkersList is the read/write contract the supervision loop and the
// forwarder share.
type WorkersList interface {
	// Add records ns as live.
	Add(ns string)
	// Remove drops ns.
	Remove(ns string)
	// Snapshot returns the currently live namespaces; order is unspecified.
	// Implements transport.WorkerLister.
	Snapshot() []string
}

// inMemWorkersList is the default: master and forwarder are the same
// process, so a mutex-guarded set needs no cross-process coordination.
type inMemWorkersList struct {
	mu  sync.RWMutex
	set map[string]struct{}
}

// NewInMemWorkersList returns an empty in-memory WorkersList.
func NewInMemWorkersList() WorkersList {
	return &inMemWorkersList{set: make(map[string]struct{})}
}

func (l *inMemWorkersList) Add(ns string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.set[ns] = struct{}{}
}

func (l *inMemWorkersList) Remove(ns string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.set, ns)
}

func (l *inMemWorkersList) Snapshot() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]string, 0, len(l.set))
	for ns := range l.set {
		out = append(out, ns)
	}
	return out
}

const redisWorkersKey = "groupcast:workers"

// redisWorkersList shares the live-worker set across hosts via a Redis set,
// for an orchestrator topology where the forwarder and the workers it fans
// out to don't share a process (not this design's default, but kept for
// deployments that split the master onto its own host).
type redisWorkersList struct {
	cli *redis.Client
}

// NewRedisWorkersList returns a Redis-backed WorkersList.
func NewRedisWorkersList(cli *redis.Client) WorkersList {
	return &redisWorkersList{cli: cli}
}

func (l *redisWorkersList) Add(ns string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := l.cli.SAdd(ctx, redisWorkersKey, ns).Err(); err != nil {
		logging.Logger().Warn("orchestrator: redis workers add failed", zap.String("ns", ns), zap.Error(err))
	}
}

func (l *redisWorkersList) Remove(ns string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := l.cli.SRem(ctx, redisWorkersKey, ns).Err(); err != nil {
		logging.Logger().Warn("orchestrator: redis workers remove failed", zap.String("ns", ns), zap.Error(err))
	}
}

func (l *redisWorkersList) Snapshot() []string {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	members, err := l.cli.SMembers(ctx, redisWorkersKey).Result()
	if err != nil {
		logging.Logger().Warn("orchestrator: redis workers snapshot failed", zap.Error(err))
		return nil
	}
	return members
}
