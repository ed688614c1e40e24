// internal/consumer/consumer.go
// Consumer is the per-connection state machine: INIT -> ACTIVE -> CLOSING
// -> DONE, running a socket pump and a group pump concurrently while
// ACTIVE. Lifecycle shape (Run blocks until teardown, Close is idempotent,
// a state field guarded by one mutex) follows the same Start/Stop pattern
// used elsewhere for long-running components; the dispatch-table lookup is
// in registry.go.
package consumer

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/groupcast/groupcast/internal/groupbackend"
	"github.com/groupcast/groupcast/internal/logging"
	"github.com/groupcast/groupcast/internal/transport"
	"github.com/groupcast/groupcast/internal/util"
)

// State is one node of the consumer's lifecycle state machine.
type State int

const (
	StateInit State = iota
	StateActive
	StateClosing
	StateDone
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateActive:
		return "active"
	case StateClosing:
		return "closing"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// Scope carries per-connection context (session, user, URL route args)
// populated by the middleware chain before the consumer ever sees a frame.
type Scope map[string]any

// socketReadTimeout is how often the socket pump re-checks its closing flag
// between reads; groupPollInterval is the equivalent for the group pump when
// it currently has no subscriptions.
const (
	socketReadTimeout  = 100 * time.Millisecond
	groupPollInterval  = 100 * time.Millisecond
	groupQueueTimeout  = 1 * time.Second
	onStopGraceTimeout = 1 * time.Second
)

// Consumer is the runtime object bound to one upgraded connection.
type Consumer struct {
	ID     string
	Kind   string
	Scope  Scope
	socket Socket
	layer  *transport.Layer // SERVER-role layer owning the local backend

	mu      sync.Mutex
	state   State
	groups  map[string]*groupbackend.Queue
	onStops map[string]func()

	wg sync.WaitGroup
}

// New constructs a Consumer bound to socket, in kind's handler set, talking
// to layer for group membership. kind must have been registered via
// RegisterKind. An empty id gets a fresh ULID, so callers that don't need a
// caller-assigned ID (the common case) can pass "".
func New(id, kind string, scope Scope, socket Socket, layer *transport.Layer) *Consumer {
	if id == "" {
		id = util.MustNew()
	}
	return &Consumer{
		ID:      id,
		Kind:    kind,
		Scope:   scope,
		socket:  socket,
		layer:   layer,
		state:   StateInit,
		groups:  make(map[string]*groupbackend.Queue),
		onStops: make(map[string]func()),
	}
}

// Run transitions INIT -> ACTIVE and blocks running the socket pump and
// group pump until the connection closes (peer disconnect, an unhandled
// StopConsumer, or ctx cancellation), then tears down and returns.
func (c *Consumer) Run(ctx context.Context) error {
	if _, ok := lookupReceive(c.Kind); !ok {
		return &HandlerError{Handler: c.Kind, Err: errUnknownKind}
	}

	c.mu.Lock()
	c.state = StateActive
	c.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		c.socketPump(ctx, cancel)
	}()
	go func() {
		defer wg.Done()
		c.groupPump(ctx)
	}()
	wg.Wait()

	c.Close()
	return nil
}

// isClosing reports whether the consumer has begun or finished tearing down.
func (c *Consumer) isClosing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == StateClosing || c.state == StateDone
}

// socketPump reads frames off the socket until the connection closes,
// dispatching each to the kind's registered receive handler.
func (c *Consumer) socketPump(ctx context.Context, stop context.CancelFunc) {
	receive, _ := lookupReceive(c.Kind)
	for {
		if c.isClosing() || ctx.Err() != nil {
			return
		}
		data, ok, err := c.socket.ReadTimeout(socketReadTimeout)
		if err != nil {
			c.beginClosing()
			stop()
			return
		}
		if !ok {
			continue // read timeout; re-check closing and loop
		}
		if err := receive(ctx, c, data); err != nil {
			if errors.Is(err, StopConsumer) {
				c.beginClosing()
				stop()
				return
			}
			logging.Logger().Warn("consumer: receive handler error",
				zap.String("kind", c.Kind), zap.Error(err))
		}
	}
}

// groupPump fans a message off each subscribed group's queue concurrently,
// dispatching each to the handler registered for its message type.
func (c *Consumer) groupPump(ctx context.Context) {
	for {
		if c.isClosing() || ctx.Err() != nil {
			return
		}

		c.mu.Lock()
		names := make([]string, 0, len(c.groups))
		queues := make([]*groupbackend.Queue, 0, len(c.groups))
		for name, q := range c.groups {
			names = append(names, name)
			queues = append(queues, q)
		}
		c.mu.Unlock()

		if len(names) == 0 {
			select {
			case <-time.After(groupPollInterval):
			case <-ctx.Done():
				return
			}
			continue
		}

		var wg sync.WaitGroup
		wg.Add(len(queues))
		for i := range queues {
			go func(name string, q *groupbackend.Queue) {
				defer wg.Done()
				msg, ok := q.GetTimeout(groupQueueTimeout)
				if !ok {
					return
				}
				fn, ok := lookupGroupHandler(c.Kind, msg.GetType())
				if !ok {
					logging.Logger().Warn("consumer: no handler for group message type",
						zap.String("kind", c.Kind), zap.String("type", msg.GetType()))
					return
				}
				if err := fn(ctx, c, msg); err != nil {
					if errors.Is(err, StopConsumer) {
						c.beginClosing()
						return
					}
					logging.Logger().Warn("consumer: group handler error",
						zap.String("kind", c.Kind), zap.String("type", msg.GetType()), zap.Error(err))
				}
			}(names[i], queues[i])
		}
		wg.Wait()
	}
}

// Subscribe registers c as a listener on group via the SERVER-role transport
// layer.
func (c *Consumer) Subscribe(group string) (bool, error) {
	return c.layer.GroupAdd(group, c)
}

// Unsubscribe removes c's subscription to group.
func (c *Consumer) Unsubscribe(group string) error {
	return c.layer.GroupDiscard(group, c)
}

// StartListening implements groupbackend.Subscriber: refuses while closing,
// is idempotent for a repeat call with the same queue, and refuses a
// second, different queue for the same name.
func (c *Consumer) StartListening(group string, q *groupbackend.Queue, onStop func()) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateClosing || c.state == StateDone {
		return false
	}
	if existing, ok := c.groups[group]; ok {
		return existing == q
	}
	c.groups[group] = q
	c.onStops[group] = onStop
	return true
}

// StopListening implements groupbackend.Subscriber: pops both entries and
// awaits the on_stop callback with a 1s deadline.
func (c *Consumer) StopListening(group string) {
	c.mu.Lock()
	onStop, ok := c.onStops[group]
	delete(c.groups, group)
	delete(c.onStops, group)
	c.mu.Unlock()

	if !ok || onStop == nil {
		return
	}
	done := make(chan struct{})
	go func() {
		onStop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(onStopGraceTimeout):
		logging.Logger().Warn("consumer: on_stop callback exceeded deadline", zap.String("group", group))
	}
}

// beginClosing flips state to CLOSING exactly once.
func (c *Consumer) beginClosing() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateInit || c.state == StateActive {
		c.state = StateClosing
	}
}

// Close tears the consumer down: marks it CLOSING, unsubscribes from every
// group it still holds (concurrently), and transitions to DONE. Safe to
// call more than once.
func (c *Consumer) Close() {
	c.mu.Lock()
	if c.state == StateDone {
		c.mu.Unlock()
		return
	}
	c.state = StateClosing
	names := make([]string, 0, len(c.groups))
	for name := range c.groups {
		names = append(names, name)
	}
	c.mu.Unlock()

	var wg sync.WaitGroup
	wg.Add(len(names))
	for _, name := range names {
		go func(name string) {
			defer wg.Done()
			_ = c.Unsubscribe(name)
		}(name)
	}
	wg.Wait()

	_ = c.socket.Close(1000, "")

	c.mu.Lock()
	c.state = StateDone
	c.mu.Unlock()
}

var errUnknownKind = &kindError{}

type kindError struct{}

func (*kindError) Error() string { return "consumer: kind not registered" }
