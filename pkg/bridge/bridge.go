package bridge

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	customlog "github.com/open-teleop/teleop-bridge/pkg/log"
	"github.com/open-teleop/teleop-bridge/pkg/wire"
)

// Stats is a snapshot of a bridge's counters.
type Stats struct {
	SessionID string `json:"session_id"`
	Address   string `json:"address"`
	State     string `json:"state"`
	Policy    string `json:"policy"`
	Accepted  uint64 `json:"accepted"`
	Sent      uint64 `json:"sent"`
	Dropped   uint64 `json:"dropped"`
	Queued    int    `json:"queued"`
	Capacity  int    `json:"capacity"`
	LastError string `json:"last_error,omitempty"`
}

// Bridge is the caller-facing half of a command stream. Send may be called
// from the caller's loop; Close must be called exactly when the caller is
// done with the bridge and is safe to call more than once.
type Bridge struct {
	address     string
	sessionID   string
	queue       *CommandQueue
	worker      *StreamWorker
	cancel      context.CancelFunc
	sendTimeout time.Duration
	joinTimeout time.Duration
	logger      customlog.Logger

	accepted atomic.Uint64

	closeOnce sync.Once
	closeErr  error
}

// New validates address and starts the stream worker. It does not wait for
// the connection: commands sent meanwhile queue behind the setup, and a
// failed setup is reported by the next Send and by Close. A malformed
// address is reported here as a *ConnectionError.
func New(address string, opts ...Option) (*Bridge, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	ep, err := wire.ParseEndpoint(address)
	if err != nil {
		return nil, &ConnectionError{Address: address, Err: err}
	}

	sessionID := uuid.NewString()
	logger := o.logger.WithFields(map[string]interface{}{
		"robot":   address,
		"session": sessionID[:8],
	})

	queue := NewCommandQueue(o.policy)
	worker := newStreamWorker(address, sessionID, ep, queue, o, logger)
	ctx, cancel := context.WithCancel(context.Background())

	b := &Bridge{
		address:     address,
		sessionID:   sessionID,
		queue:       queue,
		worker:      worker,
		cancel:      cancel,
		sendTimeout: o.sendTimeout,
		joinTimeout: o.joinTimeout,
		logger:      logger,
	}

	go worker.run(ctx)
	logger.Infof("Command bridge started (queue=%d, policy=%s)", queue.Cap(), o.policy)

	return b, nil
}

// Send queues one command. See SendCommand.
func (b *Bridge) Send(x, y, yaw float32) error {
	return b.SendCommand(context.Background(), Command{X: x, Y: y, Yaw: yaw})
}

// SendCommand queues cmd for transmission, waiting while the queue is full.
// It returns the session's *ConnectionError or *StreamWriteError once the
// worker has failed, ErrBridgeClosed after Close, and ErrQueueFull when a
// send timeout is configured and expires.
func (b *Bridge) SendCommand(ctx context.Context, cmd Command) error {
	if err := b.worker.Err(); err != nil {
		return err
	}

	err := b.queue.Enqueue(ctx, cmd, b.sendTimeout, b.worker.Stopped())
	if errors.Is(err, errConsumerGone) {
		if werr := b.worker.Err(); werr != nil {
			return werr
		}
		return ErrBridgeClosed
	}
	if err != nil {
		return err
	}

	b.accepted.Add(1)
	return nil
}

// Close stops accepting commands, lets the worker flush everything already
// accepted, half-closes the stream and joins the worker. It returns the
// session's terminal error, or a *ShutdownJoinError when the worker did not
// stop within the join timeout.
func (b *Bridge) Close() error {
	b.closeOnce.Do(func() {
		b.closeErr = b.shutdown()
	})
	return b.closeErr
}

func (b *Bridge) shutdown() error {
	defer b.cancel()

	b.logger.Debugf("Closing command queue (%d pending)", b.queue.Len())
	b.queue.Close()
	b.worker.beginDrain()

	if !b.join(b.joinTimeout) {
		b.logger.Errorf("Stream worker still running after %s, cancelling", b.joinTimeout)
		b.cancel()

		joinErr := &ShutdownJoinError{Timeout: b.joinTimeout}
		if !b.join(b.joinTimeout) {
			joinErr.Leaked = true
		} else {
			joinErr.Err = b.worker.Err()
		}
		return joinErr
	}

	if err := b.worker.Err(); err != nil {
		return err
	}
	b.logger.Infof("Command bridge closed (accepted=%d sent=%d)", b.accepted.Load(), b.worker.Sent())
	return nil
}

// join waits for the worker; timeout <= 0 waits indefinitely.
func (b *Bridge) join(timeout time.Duration) bool {
	if timeout <= 0 {
		<-b.worker.Done()
		return true
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-b.worker.Done():
		return true
	case <-timer.C:
		return false
	}
}

// State returns the session's lifecycle stage.
func (b *Bridge) State() State {
	return b.worker.State()
}

// Done is closed once the worker has terminated.
func (b *Bridge) Done() <-chan struct{} {
	return b.worker.Done()
}

// Err returns the session's terminal error, nil while running or after a
// clean close.
func (b *Bridge) Err() error {
	return b.worker.Err()
}

// SessionID identifies this bridge's stream in logs and telemetry.
func (b *Bridge) SessionID() string {
	return b.sessionID
}

// Address returns the robot endpoint the bridge was built with.
func (b *Bridge) Address() string {
	return b.address
}

// Stats returns a snapshot of the counters.
func (b *Bridge) Stats() Stats {
	s := Stats{
		SessionID: b.sessionID,
		Address:   b.address,
		State:     b.worker.State().String(),
		Policy:    b.queue.Policy().String(),
		Accepted:  b.accepted.Load(),
		Sent:      b.worker.Sent(),
		Dropped:   b.queue.Dropped(),
		Queued:    b.queue.Len(),
		Capacity:  b.queue.Cap(),
	}
	if err := b.worker.Err(); err != nil {
		s.LastError = err.Error()
	}
	return s
}
