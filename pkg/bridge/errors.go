package bridge

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrBridgeClosed is returned by Send after Close.
	ErrBridgeClosed = errors.New("command bridge is closed")
	// ErrQueueFull is returned when a bounded send wait expires.
	ErrQueueFull = errors.New("command queue is full")
	// ErrQueueClosed is returned by Dequeue once the queue is closed and drained.
	ErrQueueClosed = errors.New("command queue is closed")

	errConsumerGone = errors.New("command consumer has terminated")
)

// ConnectionError reports that the session to the robot could not be
// established. The bridge is unusable afterwards.
type ConnectionError struct {
	Address string
	Err     error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connect to robot %s: %v", e.Address, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// StreamWriteError reports that the open stream broke. Commands still
// queued were discarded; there is no reconnection.
type StreamWriteError struct {
	Address string
	// Sent is how many commands were written before the failure.
	Sent uint64
	Err  error
}

func (e *StreamWriteError) Error() string {
	return fmt.Sprintf("command stream to robot %s broke after %d commands: %v", e.Address, e.Sent, e.Err)
}

func (e *StreamWriteError) Unwrap() error { return e.Err }

// ShutdownJoinError reports that the worker did not finish within the join
// timeout during Close.
type ShutdownJoinError struct {
	Timeout time.Duration
	// Leaked is set when the worker was still running after cancellation.
	Leaked bool
	// Err is the worker's own terminal error, if it produced one.
	Err error
}

func (e *ShutdownJoinError) Error() string {
	msg := fmt.Sprintf("stream worker did not stop within %s", e.Timeout)
	if e.Leaked {
		msg += " and ignored cancellation"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ShutdownJoinError) Unwrap() error { return e.Err }
