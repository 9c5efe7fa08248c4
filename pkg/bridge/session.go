package bridge

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/connectivity"

	"github.com/open-teleop/teleop-bridge/pkg/wire"
)

// session is one open command stream and the connection carrying it.
type session interface {
	Send(req *wire.MoveRequest) error
	// CloseAndRecv half-closes the stream and waits for the robot's reply.
	CloseAndRecv() (*wire.MoveResponse, error)
	Close() error
}

// sessionOpener dials the robot and opens the stream. ctx scopes the whole
// session; connectTimeout only bounds setup.
type sessionOpener func(ctx context.Context, ep wire.Endpoint, connectTimeout time.Duration, dialOpts []grpc.DialOption) (session, error)

type grpcSession struct {
	conn   *grpc.ClientConn
	stream wire.MoveStreamClient
}

func (s *grpcSession) Send(req *wire.MoveRequest) error {
	return s.stream.Send(req)
}

func (s *grpcSession) CloseAndRecv() (*wire.MoveResponse, error) {
	return s.stream.CloseAndRecv()
}

func (s *grpcSession) Close() error {
	return s.conn.Close()
}

// openGRPCSession connects without retrying: the first transient failure
// ends setup.
func openGRPCSession(ctx context.Context, ep wire.Endpoint, connectTimeout time.Duration, dialOpts []grpc.DialOption) (session, error) {
	opts := append([]grpc.DialOption{grpc.WithTransportCredentials(ep.Creds)}, dialOpts...)
	conn, err := grpc.NewClient(ep.Target, opts...)
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}

	if err := waitReady(ctx, conn, connectTimeout); err != nil {
		conn.Close()
		return nil, err
	}

	stream, err := wire.NewHamiltonRemoteClient(conn).MoveStream(ctx)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open move stream: %w", err)
	}

	return &grpcSession{conn: conn, stream: stream}, nil
}

func waitReady(ctx context.Context, conn *grpc.ClientConn, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	conn.Connect()
	for {
		state := conn.GetState()
		switch state {
		case connectivity.Ready:
			return nil
		case connectivity.TransientFailure, connectivity.Shutdown:
			return fmt.Errorf("connection %s", state)
		}
		if !conn.WaitForStateChange(ctx, state) {
			return fmt.Errorf("connection still %s: %w", state, ctx.Err())
		}
	}
}
