package bridge

import (
	"time"

	"google.golang.org/grpc"

	customlog "github.com/open-teleop/teleop-bridge/pkg/log"
)

const (
	// DefaultConnectTimeout bounds connection setup.
	DefaultConnectTimeout = 5 * time.Second
	// DefaultJoinTimeout bounds how long Close waits for the worker.
	DefaultJoinTimeout = 5 * time.Second
)

// Observer is told about every command written to the stream.
// It runs on the worker goroutine and must not block.
type Observer interface {
	CommandSent(sessionID string, seq uint64, cmd Command)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(sessionID string, seq uint64, cmd Command)

// CommandSent calls f.
func (f ObserverFunc) CommandSent(sessionID string, seq uint64, cmd Command) {
	f(sessionID, seq, cmd)
}

type options struct {
	logger         customlog.Logger
	policy         QueuePolicy
	sendTimeout    time.Duration
	connectTimeout time.Duration
	joinTimeout    time.Duration
	dialOptions    []grpc.DialOption
	observer       Observer
	open           sessionOpener
}

func defaultOptions() options {
	return options{
		logger:         customlog.NewNopLogger(),
		policy:         PolicyBlock,
		connectTimeout: DefaultConnectTimeout,
		joinTimeout:    DefaultJoinTimeout,
	}
}

// Option configures a Bridge.
type Option func(*options)

// WithLogger sets the logger. The bridge adds session and robot fields.
func WithLogger(logger customlog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithQueuePolicy selects the full-queue behaviour. Default PolicyBlock.
func WithQueuePolicy(policy QueuePolicy) Option {
	return func(o *options) { o.policy = policy }
}

// WithSendTimeout bounds how long Send waits on a full queue under
// PolicyBlock before returning ErrQueueFull. Zero waits indefinitely.
func WithSendTimeout(d time.Duration) Option {
	return func(o *options) { o.sendTimeout = d }
}

// WithConnectTimeout bounds connection setup. Zero waits indefinitely.
func WithConnectTimeout(d time.Duration) Option {
	return func(o *options) { o.connectTimeout = d }
}

// WithJoinTimeout bounds how long Close waits for the worker to flush.
// Zero waits indefinitely.
func WithJoinTimeout(d time.Duration) Option {
	return func(o *options) { o.joinTimeout = d }
}

// WithDialOptions appends grpc dial options, e.g. a custom dialer.
func WithDialOptions(opts ...grpc.DialOption) Option {
	return func(o *options) { o.dialOptions = append(o.dialOptions, opts...) }
}

// WithObserver registers a telemetry tap for transmitted commands.
func WithObserver(observer Observer) Option {
	return func(o *options) { o.observer = observer }
}
