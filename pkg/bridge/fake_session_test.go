package bridge

import (
	"context"
	"errors"
	"sync"
	"time"

	"google.golang.org/grpc"

	"github.com/open-teleop/teleop-bridge/pkg/wire"
)

func withSessionOpener(open sessionOpener) Option {
	return func(o *options) { o.open = open }
}

// fakeSession records the stream calls made by the worker. When stalled,
// each Send waits for a token from Advance.
type fakeSession struct {
	mu      sync.Mutex
	events  []string
	sent    []Command
	closed  bool
	ctx     context.Context
	tokens  chan struct{}
	stalled bool
	sendErr error
	hangEOF bool
	entered chan struct{}
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		tokens:  make(chan struct{}, 1024),
		entered: make(chan struct{}, 1024),
	}
}

func (f *fakeSession) opener() Option {
	return withSessionOpener(func(ctx context.Context, _ wire.Endpoint, _ time.Duration, _ []grpc.DialOption) (session, error) {
		f.mu.Lock()
		f.ctx = ctx
		f.mu.Unlock()
		return f, nil
	})
}

// Stall makes Send wait for Advance.
func (f *fakeSession) Stall() {
	f.mu.Lock()
	f.stalled = true
	f.mu.Unlock()
}

// Advance lets n stalled sends proceed.
func (f *fakeSession) Advance(n int) {
	for i := 0; i < n; i++ {
		f.tokens <- struct{}{}
	}
}

func (f *fakeSession) Send(req *wire.MoveRequest) error {
	f.mu.Lock()
	stalled, ctx, sendErr := f.stalled, f.ctx, f.sendErr
	f.mu.Unlock()

	f.entered <- struct{}{}
	if stalled {
		select {
		case <-f.tokens:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if sendErr != nil {
		return sendErr
	}

	c := req.GetCommand()
	f.mu.Lock()
	f.sent = append(f.sent, Command{X: c.X, Y: c.Y, Yaw: c.Yaw})
	f.events = append(f.events, "send")
	f.mu.Unlock()
	return nil
}

func (f *fakeSession) CloseAndRecv() (*wire.MoveResponse, error) {
	f.mu.Lock()
	f.events = append(f.events, "half-close")
	hang, ctx := f.hangEOF, f.ctx
	f.mu.Unlock()

	if hang {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return &wire.MoveResponse{}, nil
}

func (f *fakeSession) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	f.events = append(f.events, "close")
	return nil
}

func (f *fakeSession) Sent() []Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Command(nil), f.sent...)
}

func (f *fakeSession) Events() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.events...)
}

var errLinkDown = errors.New("link down")
