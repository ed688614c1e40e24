// internal/groupbackend/backend.go
// Package groupbackend implements the per-worker in-memory pub/sub
// registry: a map of group name to the set of subscriber queues currently
// listening on it, plus best-effort fan-out into that set.
//
// Every map mutation happens under a single backend-scoped mutex; snapshots
// are taken under the mutex and iterated (or handed to the Subscriber)
// outside it, so the backend lock is never held while calling into consumer
// code: consumer locks and the backend lock are never nested.
package groupbackend

import (
	"fmt"
	"regexp"
	"sync"

	"github.com/groupcast/groupcast/internal/logging"
	"github.com/groupcast/groupcast/internal/metrics"
	"github.com/groupcast/groupcast/internal/wsgrouppb"
	"go.uber.org/zap"
)

// NameRE is the group name grammar: ^[A-Za-z0-9._-]+$, length < 100.
var NameRE = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// ErrInvalidGroupName is returned by ValidateName when a group name
// violates the grammar; transport.Layer surfaces this without mutating any
// state.
var ErrInvalidGroupName = fmt.Errorf("groupbackend: invalid group name")

// ValidateName checks a group name against the grammar and length limit.
func ValidateName(name string) error {
	if len(name) == 0 || len(name) >= 100 || !NameRE.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidGroupName, name)
	}
	return nil
}

// Subscriber is the contract a Consumer satisfies so the backend can ask it
// to start or stop listening on a queue, without the backend needing to know
// anything about sockets, scopes or handler dispatch.
type Subscriber interface {
	// StartListening asks the subscriber to begin draining q under the name
	// group, invoking onStop if the subscription ever ends. It returns false
	// if the subscriber refuses (it is already closing).
	StartListening(group string, q *Queue, onStop func()) bool
	// StopListening asks the subscriber to stop draining group's queue. It
	// is safe to call even if the subscriber was never listening.
	StopListening(group string)
}

// Backend owns one worker's Group -> Set<Queue> map.
type Backend struct {
	mu       sync.Mutex
	groups   map[string]map[Subscriber]*Queue
	prefix   string
	capacity int
}

// Config tunes Backend construction. Prefix namespaces group names so two
// transport aliases sharing one Redis/broker (not used in the default
// in-memory backend, but kept for parity with the transport Config table)
// never collide. Capacity is the per-queue bound.
type Config struct {
	Prefix   string
	Capacity int
}

// New constructs an empty Backend.
func New(cfg Config) *Backend {
	if cfg.Capacity <= 0 {
		cfg.Capacity = DefaultCapacity
	}
	return &Backend{
		groups:   make(map[string]map[Subscriber]*Queue),
		prefix:   cfg.Prefix,
		capacity: cfg.Capacity,
	}
}

func (b *Backend) key(group string) string { return b.prefix + group }

// GroupAdd registers sub as a listener of group, allocating a new bounded
// queue. Idempotent per (group, sub): a second call for the same pair is a
// no-op that returns true. If sub refuses to listen (it is closing), the
// registration is undone immediately.
func (b *Backend) GroupAdd(group string, sub Subscriber) bool {
	k := b.key(group)

	b.mu.Lock()
	set, ok := b.groups[k]
	if !ok {
		set = make(map[Subscriber]*Queue)
		b.groups[k] = set
	}
	if _, already := set[sub]; already {
		b.mu.Unlock()
		return true
	}
	q := newQueue(b.capacity, k)
	set[sub] = q
	b.mu.Unlock()

	onStop := func() { b.removeQueue(k, sub) }
	if !sub.StartListening(group, q, onStop) {
		onStop()
		return false
	}
	metrics.Subscribers.WithLabelValues(k).Set(float64(b.groupSize(k)))
	return true
}

// GroupDiscard instructs sub to stop listening on group, then removes its
// queue from the set unconditionally: removal never depends on whether any
// other subscriber remains.
func (b *Backend) GroupDiscard(group string, sub Subscriber) {
	k := b.key(group)
	sub.StopListening(group)
	b.removeQueue(k, sub)
}

func (b *Backend) removeQueue(key string, sub Subscriber) {
	b.mu.Lock()
	set, ok := b.groups[key]
	if !ok {
		b.mu.Unlock()
		return
	}
	delete(set, sub)
	remaining := len(set)
	if remaining == 0 {
		delete(b.groups, key)
	}
	b.mu.Unlock()
	metrics.Subscribers.WithLabelValues(key).Set(float64(remaining))
}

func (b *Backend) groupSize(key string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.groups[key])
}

// GroupMessage enqueues msg on every queue currently subscribed to group. If
// the group has no subscribers, this logs a warning and returns successfully:
// delivery is best-effort.
func (b *Backend) GroupMessage(group string, msg *wsgrouppb.WSMessage) {
	k := b.key(group)

	b.mu.Lock()
	set := b.groups[k]
	queues := make([]*Queue, 0, len(set))
	for _, q := range set {
		queues = append(queues, q)
	}
	b.mu.Unlock()

	if len(queues) == 0 {
		logging.Logger().Warn("groupbackend: message to empty group", zap.String("group", group))
		return
	}
	for _, q := range queues {
		q.Put(msg)
	}
}
