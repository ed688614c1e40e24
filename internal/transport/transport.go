// internal/transport/transport.go
// Package transport bridges application code's group_add/group_discard/
// group_send calls with the cross-process RPC plane. A Layer is constructed
// for one of three roles:
//
//   - SERVER: delegates directly to a local *groupbackend.Backend.
//   - CLIENT: opens/reuses a gRPC channel to a configured address and calls
//     SendMessage over it.
//   - FORWARDER: same as CLIENT, but fans a send out to every namespaced
//     worker stub (see forwarder.go).
//
// Every role shares the same group-name validation and the same Config
// grammar.
package transport

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/groupcast/groupcast/internal/bind"
	"github.com/groupcast/groupcast/internal/groupbackend"
	"github.com/groupcast/groupcast/internal/wsgrouppb"
)

// Role selects which of the three transport behaviors a Layer exhibits.
type Role int

const (
	RoleServer Role = iota
	RoleClient
	RoleForwarder
)

func (r Role) String() string {
	switch r {
	case RoleServer:
		return "server"
	case RoleClient:
		return "client"
	case RoleForwarder:
		return "forwarder"
	default:
		return "unknown"
	}
}

// WorkerLister is the read side of the orchestrator's shared worker
// namespace list. The forwarder polls it without locking and tolerates
// staleness; the in-memory and Redis-backed implementations live in
// internal/orchestrator to avoid a transport -> orchestrator import cycle.
type WorkerLister interface {
	Snapshot() []string
}

// Config is the enumerated configuration surface for a Layer.
type Config struct {
	// Address is the RPC endpoint (path or host:port); default
	// unix:/tmp/rpc.socket.
	Address string
	// NumConnections caps concurrent RPC streams per client connection on
	// the server side (grpc.MaxConcurrentStreams); default 20.
	NumConnections int
	// Prefix is carried for the settings table; default "". Layer does not
	// read it: group names are namespaced by the groupbackend.Config.Prefix
	// of the backend handed to NewServer.
	Prefix string
}

func (c Config) address() string {
	if c.Address == "" {
		return "unix:/tmp/rpc.socket"
	}
	return c.Address
}

func (c Config) numConnections() int {
	if c.NumConnections <= 0 {
		return 20
	}
	return c.NumConnections
}

// Layer is the application-facing handle returned by Registry lookups. It is
// constructed lazily: SERVER/FORWARDER layers are built when the owning
// process's orchestrator transitions into that role and calls Run; CLIENT
// layers dial on first use.
type Layer struct {
	role Role
	cfg  Config

	mu      sync.Mutex
	backend *groupbackend.Backend // SERVER role only
	cc      *clientConn           // CLIENT role only
	fwd     *forwarder            // FORWARDER role only
}

// NewServer returns a Layer that fans every group_send straight into a local
// *groupbackend.Backend. Run must be called to start serving RPCs from
// forwarders/other processes.
func NewServer(cfg Config, backend *groupbackend.Backend) *Layer {
	return &Layer{role: RoleServer, cfg: cfg, backend: backend}
}

// NewClient returns a Layer that dials cfg.Address on first use and issues
// SendMessage RPCs over it.
func NewClient(cfg Config) *Layer {
	return &Layer{role: RoleClient, cfg: cfg}
}

// NewForwarder returns a Layer that fans each send out to every namespaced
// worker in lister's snapshot.
func NewForwarder(cfg Config, lister WorkerLister) *Layer {
	return &Layer{role: RoleForwarder, cfg: cfg, fwd: newForwarder(cfg, lister)}
}

// Role reports which of the three behaviors this Layer exhibits.
func (l *Layer) Role() Role { return l.role }

// GroupSend validates group, then dispatches according to role.
func (l *Layer) GroupSend(ctx context.Context, group string, msg *wsgrouppb.WSMessage) error {
	if err := groupbackend.ValidateName(group); err != nil {
		return err
	}
	switch l.role {
	case RoleServer:
		l.backend.GroupMessage(group, msg)
		return nil
	case RoleClient:
		c, err := l.client(ctx)
		if err != nil {
			return err
		}
		return c.send(ctx, group, msg)
	case RoleForwarder:
		return l.fwd.fanOut(ctx, group, msg)
	default:
		return fmt.Errorf("transport: layer has no role")
	}
}

// GroupAdd registers sub as a listener on group against the SERVER-role
// local backend. Non-SERVER layers reject this call: only the process
// actually owning the backend can accept a subscription.
func (l *Layer) GroupAdd(group string, sub groupbackend.Subscriber) (bool, error) {
	if l.role != RoleServer {
		return false, fmt.Errorf("transport: group_add is only valid on a SERVER-role layer")
	}
	if err := groupbackend.ValidateName(group); err != nil {
		return false, err
	}
	return l.backend.GroupAdd(group, sub), nil
}

// GroupDiscard unregisters sub from group on a SERVER-role layer.
func (l *Layer) GroupDiscard(group string, sub groupbackend.Subscriber) error {
	if l.role != RoleServer {
		return fmt.Errorf("transport: group_discard is only valid on a SERVER-role layer")
	}
	l.backend.GroupDiscard(group, sub)
	return nil
}

// client returns the lazily-dialed CLIENT-role connection, dialing it on
// first use with dialTimeout as the connect deadline.
func (l *Layer) client(ctx context.Context) (*clientConn, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cc != nil {
		return l.cc, nil
	}
	dctx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	c, err := dialClient(dctx, l.cfg)
	if err != nil {
		return nil, err
	}
	l.cc = c
	return l.cc, nil
}

// Run starts serving RPCs for a SERVER or FORWARDER layer, blocking until ctx
// is cancelled. CLIENT layers have nothing to serve and Run returns
// immediately.
func (l *Layer) Run(ctx context.Context) error {
	switch l.role {
	case RoleServer:
		return runRPCServer(ctx, l.cfg, &serverSideImpl{backend: l.backend})
	case RoleForwarder:
		return runRPCServer(ctx, l.cfg, &serverSideImpl{forward: l.fwd})
	default:
		return nil
	}
}

// EnsureClient dials the CLIENT-role connection eagerly; GroupSend would
// otherwise do this lazily on first call. Exposed so callers can fail fast
// at startup instead of on the first message.
func (l *Layer) EnsureClient(ctx context.Context) error {
	if l.role != RoleClient {
		return fmt.Errorf("transport: EnsureClient is only valid on a CLIENT-role layer")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cc != nil {
		return nil
	}
	c, err := dialClient(ctx, l.cfg)
	if err != nil {
		return err
	}
	l.cc = c
	return nil
}

// resolvedAddress namespaces cfg.Address for worker index i: unix suffix
// splice, TCP port shift by i+1.
func resolvedAddress(cfg Config, ns string, workerIndex int) (bind.Address, error) {
	base, err := bind.Parse(cfg.address())
	if err != nil {
		return bind.Address{}, err
	}
	return bind.ForNamespace(base, ns, workerIndex), nil
}

// dialTimeout is the deadline of the context Layer.client hands to
// dialClient for the lazily created CLIENT-role channel.
const dialTimeout = 5 * time.Second
