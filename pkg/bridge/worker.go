package bridge

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"time"

	"google.golang.org/grpc"

	customlog "github.com/open-teleop/teleop-bridge/pkg/log"
	"github.com/open-teleop/teleop-bridge/pkg/wire"
)

// StreamWorker owns the robot connection and drains the queue onto the
// stream. It runs on a single goroutine for the lifetime of its Bridge.
type StreamWorker struct {
	address   string
	sessionID string
	endpoint  wire.Endpoint
	queue     *CommandQueue
	logger    customlog.Logger
	observer  Observer

	open           sessionOpener
	connectTimeout time.Duration
	dialOptions    []grpc.DialOption

	state atomic.Int32
	sent  atomic.Uint64

	// stopped is closed when the worker no longer consumes the queue;
	// done when the goroutine has returned.
	stopped chan struct{}
	done    chan struct{}
	// err is written once before stopped is closed.
	err error
}

func newStreamWorker(address, sessionID string, ep wire.Endpoint, queue *CommandQueue, o options, logger customlog.Logger) *StreamWorker {
	open := o.open
	if open == nil {
		open = openGRPCSession
	}
	return &StreamWorker{
		address:        address,
		sessionID:      sessionID,
		endpoint:       ep,
		queue:          queue,
		logger:         logger,
		observer:       o.observer,
		open:           open,
		connectTimeout: o.connectTimeout,
		dialOptions:    o.dialOptions,
		stopped:        make(chan struct{}),
		done:           make(chan struct{}),
	}
}

// run is the worker goroutine.
func (w *StreamWorker) run(ctx context.Context) {
	defer close(w.done)

	err := w.stream(ctx)
	w.err = err
	close(w.stopped)

	if err != nil {
		w.setState(StateFailed)
		// Blocked producers have been released by stopped, so the queue
		// lock is free.
		if n := w.queue.Discard(); n > 0 {
			w.logger.Warnf("Discarded %d queued commands after failure", n)
		}
		w.logger.Errorf("Stream worker failed: %v", err)
		return
	}
	w.setState(StateClosed)
	w.logger.Infof("Stream closed cleanly after %d commands", w.sent.Load())
}

func (w *StreamWorker) stream(ctx context.Context) error {
	w.setState(StateConnecting)
	w.logger.Infof("Connecting to robot")

	sess, err := w.open(ctx, w.endpoint, w.connectTimeout, w.dialOptions)
	if err != nil {
		return &ConnectionError{Address: w.address, Err: err}
	}
	defer sess.Close()

	if !w.state.CompareAndSwap(int32(StateConnecting), int32(StateStreaming)) {
		return &ConnectionError{Address: w.address, Err: errors.New("worker left connecting state unexpectedly")}
	}
	w.logger.Infof("Move stream open")

	for {
		select {
		case <-w.queue.Closing():
			w.beginDrain()
		default:
		}

		cmd, err := w.queue.Dequeue(ctx)
		if errors.Is(err, ErrQueueClosed) {
			break
		}
		if err != nil {
			return &StreamWriteError{Address: w.address, Sent: w.sent.Load(), Err: err}
		}

		if err := sess.Send(cmd.request()); err != nil {
			// io.EOF means the robot ended the stream; the real status
			// comes from the receive side.
			if errors.Is(err, io.EOF) {
				if _, recvErr := sess.CloseAndRecv(); recvErr != nil {
					err = recvErr
				}
			}
			return &StreamWriteError{Address: w.address, Sent: w.sent.Load(), Err: err}
		}

		seq := w.sent.Add(1)
		w.logger.Debugf("Sent command #%d %s", seq, cmd)
		if w.observer != nil {
			w.observer.CommandSent(w.sessionID, seq, cmd)
		}
	}

	w.beginDrain()
	w.logger.Debugf("Queue drained, half-closing stream")
	if _, err := sess.CloseAndRecv(); err != nil && !errors.Is(err, io.EOF) {
		return &StreamWriteError{Address: w.address, Sent: w.sent.Load(), Err: err}
	}
	return nil
}

func (w *StreamWorker) beginDrain() {
	if w.state.CompareAndSwap(int32(StateStreaming), int32(StateDraining)) {
		w.logger.Infof("Draining %d queued commands", w.queue.Len())
	}
}

func (w *StreamWorker) setState(s State) {
	prev := State(w.state.Swap(int32(s)))
	if prev != s {
		w.logger.Debugf("State %s -> %s", prev, s)
	}
}

// State returns the current lifecycle stage.
func (w *StreamWorker) State() State {
	return State(w.state.Load())
}

// Sent returns the number of commands written to the stream.
func (w *StreamWorker) Sent() uint64 {
	return w.sent.Load()
}

// Done is closed when the worker goroutine has returned.
func (w *StreamWorker) Done() <-chan struct{} {
	return w.done
}

// Stopped is closed once the worker no longer consumes the queue.
func (w *StreamWorker) Stopped() <-chan struct{} {
	return w.stopped
}

// Err returns the terminal error once the worker stopped, nil before.
func (w *StreamWorker) Err() error {
	select {
	case <-w.stopped:
		return w.err
	default:
		return nil
	}
}
