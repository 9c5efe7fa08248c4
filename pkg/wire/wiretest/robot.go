// Package wiretest provides an in-memory robot for exercising command
// streams without a network.
package wiretest

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/open-teleop/teleop-bridge/pkg/wire"
)

// Address is the grpc target that reaches the robot through DialOption.
const Address = "passthrough:///bufnet"

const bufSize = 1 << 20

// Robot records every command it receives on MoveStream.
type Robot struct {
	listener *bufconn.Listener
	server   *grpc.Server

	// FailAfter makes the stream abort once that many commands arrived.
	// Zero never fails.
	FailAfter int

	mu        sync.Mutex
	commands  []wire.MoveCommand
	streams   int
	completed int
	hold      chan struct{}
	changed   chan struct{}
}

// NewRobot starts a robot serving on an in-memory listener. It is stopped
// when the test ends.
func NewRobot(t interface {
	Cleanup(func())
}) *Robot {
	r := &Robot{
		listener: bufconn.Listen(bufSize),
		server:   grpc.NewServer(wire.ServerOptions()...),
		changed:  make(chan struct{}),
	}
	wire.RegisterHamiltonRemoteServer(r.server, r)
	go func() {
		_ = r.server.Serve(r.listener)
	}()
	t.Cleanup(r.Stop)
	return r
}

// DialOption routes connections for Address to the in-memory listener.
func (r *Robot) DialOption() grpc.DialOption {
	return grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return r.listener.DialContext(ctx)
	})
}

// Stop closes the server and its listener.
func (r *Robot) Stop() {
	r.Release()
	r.server.Stop()
}

// Hold delays completion of streams until Release is called.
func (r *Robot) Hold() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.hold == nil {
		r.hold = make(chan struct{})
	}
}

// Release lets held streams complete.
func (r *Robot) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.hold != nil {
		close(r.hold)
		r.hold = nil
	}
}

// MoveStream implements wire.HamiltonRemoteServer.
func (r *Robot) MoveStream(stream wire.MoveStreamServer) error {
	r.update(func() { r.streams++ })

	received := 0
	for {
		req, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			r.mu.Lock()
			hold := r.hold
			r.mu.Unlock()
			if hold != nil {
				select {
				case <-hold:
				case <-stream.Context().Done():
					return stream.Context().Err()
				}
			}
			r.update(func() { r.completed++ })
			return stream.SendAndClose(&wire.MoveResponse{})
		}
		if err != nil {
			return err
		}

		cmd := wire.MoveCommand{}
		if req.GetCommand() != nil {
			cmd = *req.GetCommand()
		}
		r.update(func() { r.commands = append(r.commands, cmd) })

		received++
		if r.FailAfter > 0 && received >= r.FailAfter {
			return status.Error(codes.Aborted, "robot motor fault")
		}
	}
}

func (r *Robot) update(fn func()) {
	r.mu.Lock()
	fn()
	close(r.changed)
	r.changed = make(chan struct{})
	r.mu.Unlock()
}

// Commands returns a copy of the commands received so far, in order.
func (r *Robot) Commands() []wire.MoveCommand {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]wire.MoveCommand, len(r.commands))
	copy(out, r.commands)
	return out
}

// Streams returns how many streams were opened.
func (r *Robot) Streams() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.streams
}

// Completed returns how many streams were half-closed by the client and
// answered.
func (r *Robot) Completed() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.completed
}

// WaitFor blocks until cond holds or the timeout passes.
func (r *Robot) WaitFor(timeout time.Duration, cond func(*Robot) bool) bool {
	deadline := time.After(timeout)
	for {
		r.mu.Lock()
		changed := r.changed
		r.mu.Unlock()
		if cond(r) {
			return true
		}
		select {
		case <-changed:
		case <-deadline:
			return cond(r)
		}
	}
}
