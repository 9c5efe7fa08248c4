package bridge

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// QueueCapacity is the fixed depth of a CommandQueue.
const QueueCapacity = 10

// QueuePolicy decides what Enqueue does when the queue is full.
type QueuePolicy int

const (
	// PolicyBlock waits for the consumer to make room.
	PolicyBlock QueuePolicy = iota
	// PolicyDropOldest discards the oldest queued command in favour of the
	// newest one.
	PolicyDropOldest
)

func (p QueuePolicy) String() string {
	switch p {
	case PolicyBlock:
		return "block"
	case PolicyDropOldest:
		return "drop_oldest"
	default:
		return fmt.Sprintf("QueuePolicy(%d)", int(p))
	}
}

// ParseQueuePolicy accepts "block" (or empty) and "drop_oldest".
func ParseQueuePolicy(s string) (QueuePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "block":
		return PolicyBlock, nil
	case "drop_oldest", "drop-oldest":
		return PolicyDropOldest, nil
	default:
		return PolicyBlock, fmt.Errorf("unknown queue policy %q", s)
	}
}

// CommandQueue is the bounded FIFO between one producer and one consumer.
type CommandQueue struct {
	items  chan Command
	policy QueuePolicy

	// mu serializes producers so concurrent Enqueue calls land in lock order.
	mu        sync.Mutex
	closed    bool
	closing   chan struct{}
	closeOnce sync.Once

	dropped atomic.Uint64
}

// NewCommandQueue creates an empty queue of QueueCapacity entries.
func NewCommandQueue(policy QueuePolicy) *CommandQueue {
	return &CommandQueue{
		items:   make(chan Command, QueueCapacity),
		policy:  policy,
		closing: make(chan struct{}),
	}
}

// Enqueue appends cmd at the tail.
//
// Under PolicyBlock a full queue makes the caller wait until the consumer
// takes an entry, wait elapses (ErrQueueFull, wait <= 0 means no limit),
// ctx is done, consumerDone is closed, or the queue is closed.
func (q *CommandQueue) Enqueue(ctx context.Context, cmd Command, wait time.Duration, consumerDone <-chan struct{}) error {
	select {
	case <-q.closing:
		return ErrBridgeClosed
	default:
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrBridgeClosed
	}
	select {
	case <-consumerDone:
		return errConsumerGone
	default:
	}

	if q.policy == PolicyDropOldest {
		for {
			select {
			case q.items <- cmd:
				return nil
			default:
			}
			select {
			case <-q.items:
				q.dropped.Add(1)
			default:
			}
		}
	}

	select {
	case q.items <- cmd:
		return nil
	default:
	}

	var timeout <-chan time.Time
	if wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case q.items <- cmd:
		return nil
	case <-timeout:
		return ErrQueueFull
	case <-consumerDone:
		return errConsumerGone
	case <-q.closing:
		return ErrBridgeClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dequeue pops the head, waiting for one if the queue is empty. It returns
// ErrQueueClosed once the queue is closed and every entry was handed out.
func (q *CommandQueue) Dequeue(ctx context.Context) (Command, error) {
	select {
	case cmd, ok := <-q.items:
		if !ok {
			return Command{}, ErrQueueClosed
		}
		return cmd, nil
	case <-ctx.Done():
		return Command{}, ctx.Err()
	}
}

// Close ends the producer side. Buffered entries remain available to
// Dequeue. Producers blocked in Enqueue are released with ErrBridgeClosed.
func (q *CommandQueue) Close() {
	q.closeOnce.Do(func() {
		close(q.closing)

		q.mu.Lock()
		q.closed = true
		close(q.items)
		q.mu.Unlock()
	})
}

// Closing is closed as soon as Close is called.
func (q *CommandQueue) Closing() <-chan struct{} {
	return q.closing
}

// Discard empties the queue without delivering, counting each entry as
// dropped. It is only used once the consumer has failed, and must not be
// called while a producer can still be blocked waiting for that consumer.
func (q *CommandQueue) Discard() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := 0
	for {
		select {
		case _, ok := <-q.items:
			if !ok {
				return n
			}
			q.dropped.Add(1)
			n++
		default:
			return n
		}
	}
}

// Len returns the number of queued entries.
func (q *CommandQueue) Len() int {
	return len(q.items)
}

// Cap returns QueueCapacity.
func (q *CommandQueue) Cap() int {
	return cap(q.items)
}

// Dropped returns how many entries were discarded.
func (q *CommandQueue) Dropped() uint64 {
	return q.dropped.Load()
}

// Policy returns the full-queue policy.
func (q *CommandQueue) Policy() QueuePolicy {
	return q.policy
}
