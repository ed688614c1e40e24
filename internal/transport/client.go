// internal/transport/client.go
// CLIENT-role connection: dials cfg.Address and issues SendMessage RPCs,
// reconnecting with jittered exponential back-off on failure. The RPC is
// unary rather than a bidi stream, so reconnect only needs to refresh the
// *grpc.ClientConn, not a long-lived stream object.
package transport

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/groupcast/groupcast/internal/bind"
	"github.com/groupcast/groupcast/internal/logging"
	"github.com/groupcast/groupcast/internal/wsgrouppb"
	"go.uber.org/zap"
)

// clientConn owns one CLIENT-role gRPC channel.
type clientConn struct {
	cfg   Config
	addr  bind.Address
	conn  *grpc.ClientConn
	stub  wsgrouppb.WSGroupManagerClient
	retry backoff.BackOff
}

// dialClient parses cfg.Address and creates the channel. grpc.NewClient
// connects lazily, so this returns without waiting for the endpoint to be
// reachable; only an unparsable address fails here. Group name validation
// has already happened in Layer.GroupSend by the time this is reached.
func dialClient(ctx context.Context, cfg Config) (*clientConn, error) {
	addr, err := bind.Parse(cfg.address())
	if err != nil {
		return nil, err
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 250 * time.Millisecond
	bo.MaxInterval = 10 * time.Second
	bo.MaxElapsedTime = 0 // retry indefinitely; caller's ctx bounds total wait

	c := &clientConn{cfg: cfg, addr: addr, retry: bo}
	if err := c.connect(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *clientConn) connect(ctx context.Context) error {
	conn, err := grpc.NewClient(
		clientDialTarget(c.addr),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return err
	}
	c.conn = conn
	c.stub = wsgrouppb.NewWSGroupManagerClient(conn)
	return nil
}

func clientDialTarget(a bind.Address) string {
	if a.Kind == bind.KindUnix {
		return "unix:" + a.Path
	}
	return a.String()
}

// send issues SendMessage, reconnecting once on failure (the caller is
// expected to retry the logical group_send if it cares about delivery).
func (c *clientConn) send(ctx context.Context, group string, msg *wsgrouppb.WSMessage) error {
	ctx, span := startSpan(ctx, "transport.client.send")
	defer span.End()

	if c.stub == nil {
		if err := c.reconnect(ctx); err != nil {
			return err
		}
	}
	_, err := c.stub.SendMessage(ctx, &wsgrouppb.WSSendMessageRequest{Group: group, Message: msg})
	if err != nil {
		logging.Sugar().Warnw("transport: client send failed, will reconnect", "err", err, "group", group)
		_ = c.reconnect(ctx)
		return err
	}
	return nil
}

// reconnect tears down the stale channel and redials with back-off.
func (c *clientConn) reconnect(ctx context.Context) error {
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
		c.stub = nil
	}
	c.retry.Reset()
	for {
		next := c.retry.NextBackOff()
		if next == backoff.Stop {
			return context.DeadlineExceeded
		}
		select {
		case <-time.After(next):
		case <-ctx.Done():
			return ctx.Err()
		}
		if err := c.connect(ctx); err == nil {
			logging.Logger().Info("transport: client reconnected", zap.String("addr", c.addr.String()))
			return nil
		}
	}
}

func (c *clientConn) close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}
