// internal/groupbackend/queue.go
// Queue is the bounded per-subscriber FIFO used by one (group, consumer)
// subscription. Capacity is configurable and overflow drops the oldest
// queued message, logging a warning and incrementing a Prometheus counter,
// rather than blocking the producer.
package groupbackend

import (
	"sync"
	"time"

	"github.com/groupcast/groupcast/internal/logging"
	"github.com/groupcast/groupcast/internal/metrics"
	"github.com/groupcast/groupcast/internal/wsgrouppb"
)

// DefaultCapacity is used when a Backend is constructed with capacity <= 0.
const DefaultCapacity = 64

// Queue is a thread-safe bounded ring of *wsgrouppb.WSMessage.
type Queue struct {
	mu       sync.Mutex
	notEmpty chan struct{}
	buf      []*wsgrouppb.WSMessage
	cap      int
	group    string // used only for log/metric labels
}

func newQueue(cap int, group string) *Queue {
	if cap <= 0 {
		cap = DefaultCapacity
	}
	return &Queue{
		notEmpty: make(chan struct{}, 1),
		buf:      make([]*wsgrouppb.WSMessage, 0, cap),
		cap:      cap,
		group:    group,
	}
}

// Put enqueues m, dropping the oldest queued message if the queue is full.
func (q *Queue) Put(m *wsgrouppb.WSMessage) {
	q.mu.Lock()
	if len(q.buf) >= q.cap {
		q.buf = q.buf[1:]
		logging.Sugar().Warnw("groupbackend: queue full, dropping oldest message", "group", q.group)
		metrics.QueueDropsTotal.WithLabelValues(q.group).Inc()
	}
	q.buf = append(q.buf, m)
	q.mu.Unlock()

	select {
	case q.notEmpty <- struct{}{}:
	default:
	}
}

// GetTimeout waits up to d for a message, returning (nil, false) on timeout.
// This is the primitive the consumer group pump polls each subscription
// queue with.
func (q *Queue) GetTimeout(d time.Duration) (*wsgrouppb.WSMessage, bool) {
	if m, ok := q.tryGet(); ok {
		return m, true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-q.notEmpty:
		if m, ok := q.tryGet(); ok {
			return m, true
		}
		return nil, false
	case <-t.C:
		return nil, false
	}
}

func (q *Queue) tryGet() (*wsgrouppb.WSMessage, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.buf) == 0 {
		return nil, false
	}
	m := q.buf[0]
	q.buf = q.buf[1:]
	return m, true
}
