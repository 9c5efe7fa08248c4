package zeromq

import (
	"bytes"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pebbe/zmq4"

	"github.com/open-teleop/teleop-bridge/domain/tracking"
	customlog "github.com/open-teleop/teleop-bridge/pkg/log"
)

// DefaultPoseTopic is the topic pose samples are published on.
const DefaultPoseTopic = "tracking/pose"

const pollInterval = 100 * time.Millisecond

// PoseSink receives decoded pose samples.
type PoseSink interface {
	UpdatePose(pose tracking.Pose)
}

// PoseListener subscribes to the tracking feed and forwards poses to a sink
type PoseListener struct {
	socket  *zmq4.Socket
	poller  *zmq4.Poller
	topic   []byte
	sink    PoseSink
	logger  customlog.Logger
	running atomic.Bool
	wg      sync.WaitGroup

	received atomic.Uint64
	rejected atomic.Uint64
}

// newPoseListener creates a SUB socket connected to address
func newPoseListener(ctx *zmq4.Context, address, topic string, sink PoseSink, logger customlog.Logger) (*PoseListener, error) {
	if topic == "" {
		topic = DefaultPoseTopic
	}

	socket, err := ctx.NewSocket(zmq4.SUB)
	if err != nil {
		return nil, fmt.Errorf("failed to create SUB socket: %w", err)
	}
	if err := socket.SetLinger(0); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to set linger option: %w", err)
	}
	if err := socket.SetSubscribe(topic); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", topic, err)
	}
	if err := socket.Connect(address); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to connect to %s: %w", address, err)
	}

	poller := zmq4.NewPoller()
	poller.Add(socket, zmq4.POLLIN)

	logger.Infof("Pose listener connected to %s (topic %s)", address, topic)

	return &PoseListener{
		socket: socket,
		poller: poller,
		topic:  []byte(topic),
		sink:   sink,
		logger: logger,
	}, nil
}

// Start begins listening for poses
func (l *PoseListener) Start() {
	if !l.running.CompareAndSwap(false, true) {
		return
	}
	l.wg.Add(1)
	go l.receiveLoop()
}

// Stop waits for the receive loop to exit and closes the socket
func (l *PoseListener) Stop() {
	l.running.Store(false)
	l.wg.Wait()
	if l.socket != nil {
		l.socket.Close()
		l.socket = nil
	}
}

// Received returns the number of poses delivered to the sink.
func (l *PoseListener) Received() uint64 {
	return l.received.Load()
}

// Rejected returns the number of messages that could not be decoded.
func (l *PoseListener) Rejected() uint64 {
	return l.rejected.Load()
}

func (l *PoseListener) receiveLoop() {
	defer l.wg.Done()

	for l.running.Load() {
		// Poll with a timeout so Stop is noticed
		sockets, err := l.poller.Poll(pollInterval)
		if err != nil {
			if l.running.Load() {
				l.logger.Warnf("Error polling pose socket: %v", err)
				time.Sleep(pollInterval)
			}
			continue
		}
		if len(sockets) == 0 {
			continue
		}

		frames, err := l.socket.RecvMessageBytes(zmq4.DONTWAIT)
		if err != nil {
			if l.running.Load() {
				l.logger.Debugf("Error receiving pose: %v", err)
			}
			continue
		}

		if err := l.handle(frames); err != nil {
			l.rejected.Add(1)
			l.logger.Warnf("Dropping pose message: %v", err)
		}
	}
}

// handle accepts either [topic, json] or a single "topic json" frame.
func (l *PoseListener) handle(frames [][]byte) error {
	var payload []byte
	switch len(frames) {
	case 2:
		if !bytes.Equal(frames[0], l.topic) {
			return fmt.Errorf("%w: unexpected topic %q", ErrInvalidMessage, frames[0])
		}
		payload = frames[1]
	case 1:
		payload = bytes.TrimPrefix(frames[0], l.topic)
	default:
		return fmt.Errorf("%w: %d frames", ErrInvalidMessage, len(frames))
	}

	pose, err := tracking.DecodePose(bytes.TrimSpace(payload))
	if err != nil {
		return err
	}

	l.sink.UpdatePose(pose)
	l.received.Add(1)
	return nil
}
