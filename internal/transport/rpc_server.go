// internal/transport/rpc_server.go
// SERVER/FORWARDER-side implementation of wsgrouppb.WSGroupManager, plus the
// listener/serve loop it runs under: net.Listen, a goroutine that
// GracefulStops on ctx.Done, grpc.Server.Serve blocking the caller.
package transport

import (
	"context"
	"net"

	"google.golang.org/grpc"

	"github.com/groupcast/groupcast/internal/bind"
	"github.com/groupcast/groupcast/internal/groupbackend"
	"github.com/groupcast/groupcast/internal/logging"
	"github.com/groupcast/groupcast/internal/wsgrouppb"
	"go.uber.org/zap"
)

// serverSideImpl implements wsgrouppb.WSGroupManagerServer for both the
// SERVER role (backend set, forward nil) and the FORWARDER role (forward
// set, backend nil).
type serverSideImpl struct {
	wsgrouppb.UnimplementedWSGroupManagerServer

	backend *groupbackend.Backend
	forward *forwarder
}

func (s *serverSideImpl) SendMessage(ctx context.Context, req *wsgrouppb.WSSendMessageRequest) (*wsgrouppb.WSResponse, error) {
	if err := groupbackend.ValidateName(req.GetGroup()); err != nil {
		return nil, err
	}

	if s.backend != nil {
		s.backend.GroupMessage(req.GetGroup(), req.GetMessage())
		return &wsgrouppb.WSResponse{Ack: true}, nil
	}

	if err := s.forward.fanOut(ctx, req.GetGroup(), req.GetMessage()); err != nil {
		return &wsgrouppb.WSResponse{Ack: false}, nil
	}
	return &wsgrouppb.WSResponse{Ack: true}, nil
}

// runRPCServer binds cfg.Address and serves impl until ctx is cancelled.
func runRPCServer(ctx context.Context, cfg Config, impl wsgrouppb.WSGroupManagerServer) error {
	addr, err := bind.Parse(cfg.address())
	if err != nil {
		return err
	}

	ln, err := net.Listen(addr.Network(), addr.String())
	if err != nil {
		return err
	}

	srv := grpc.NewServer(grpc.MaxConcurrentStreams(uint32(cfg.numConnections())))
	wsgrouppb.RegisterWSGroupManagerServer(srv, impl)

	go func() {
		<-ctx.Done()
		srv.GracefulStop()
	}()

	logging.Logger().Info("transport: rpc server listening",
		zap.String("network", addr.Network()), zap.String("addr", addr.String()))
	return srv.Serve(ln)
}
