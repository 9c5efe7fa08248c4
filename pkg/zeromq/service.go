package zeromq

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/pebbe/zmq4"

	"github.com/open-teleop/teleop-bridge/pkg/config"
	customlog "github.com/open-teleop/teleop-bridge/pkg/log"
)

// Common errors
var (
	ErrServiceClosed    = errors.New("zeromq service is closed")
	ErrInvalidMessage   = errors.New("invalid message format")
	ErrTelemetryOffline = errors.New("telemetry publisher is not configured")
)

// Topics published by the bridge
const (
	TopicCommand = "teleop.command"
	TopicStatus  = "teleop.status"
)

// Message types used in the JSON envelope
const (
	MsgTypeStatus = "BRIDGE_STATUS"
)

// ZeroMQMessage represents a generic message structure for ZeroMQ communication
type ZeroMQMessage struct {
	Type      string      `json:"type"`
	Timestamp float64     `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

// MessageSender handles sending messages to ZeroMQ sockets
type MessageSender struct {
	socket  *zmq4.Socket
	logger  customlog.Logger
	running bool
	mu      sync.Mutex
}

// newMessageSender creates a PUB socket bound to address
func newMessageSender(ctx *zmq4.Context, address string, logger customlog.Logger) (*MessageSender, error) {
	socket, err := ctx.NewSocket(zmq4.PUB)
	if err != nil {
		return nil, fmt.Errorf("failed to create PUB socket: %w", err)
	}

	if err := socket.SetLinger(0); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to set linger option: %w", err)
	}

	if err := socket.Bind(address); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to bind to %s: %w", address, err)
	}

	logger.Infof("MessageSender initialized on %s", address)

	return &MessageSender{
		socket:  socket,
		logger:  logger,
		running: true,
	}, nil
}

// PublishMessage sends a message with the given topic
func (s *MessageSender) PublishMessage(topic string, message []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return ErrServiceClosed
	}

	// Topic frame first, then the payload
	if _, err := s.socket.Send(topic, zmq4.SNDMORE); err != nil {
		return fmt.Errorf("failed to send topic: %w", err)
	}
	if _, err := s.socket.SendBytes(message, 0); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// Close cleans up resources
func (s *MessageSender) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.running = false
	if s.socket != nil {
		s.socket.Close()
		s.socket = nil
	}
}

// ZeroMQService owns the ZeroMQ context shared by the pose listener and the
// telemetry publisher. Either side is disabled when its address is empty.
type ZeroMQService struct {
	ctx       *zmq4.Context
	sender    *MessageSender
	listener  *PoseListener
	telemetry *TelemetryPublisher
	logger    customlog.Logger
	running   bool
	mu        sync.Mutex
}

// NewZeroMQService creates the sockets described by cfg. Poses are delivered
// to sink; a nil sink disables the listener.
func NewZeroMQService(cfg config.ZeroMQConfig, sink PoseSink, logger customlog.Logger) (*ZeroMQService, error) {
	ctx, err := zmq4.NewContext()
	if err != nil {
		return nil, fmt.Errorf("failed to create ZMQ context: %w", err)
	}
	return newZeroMQService(ctx, cfg, sink, logger)
}

func newZeroMQService(ctx *zmq4.Context, cfg config.ZeroMQConfig, sink PoseSink, logger customlog.Logger) (*ZeroMQService, error) {
	s := &ZeroMQService{ctx: ctx, logger: logger}

	if cfg.TelemetryAddress != "" {
		sender, err := newMessageSender(ctx, cfg.TelemetryAddress, logger)
		if err != nil {
			ctx.Term()
			return nil, err
		}
		s.sender = sender
		s.telemetry = newTelemetryPublisher(s, logger)
	}

	if cfg.PoseAddress != "" && sink != nil {
		listener, err := newPoseListener(ctx, cfg.PoseAddress, cfg.PoseTopic, sink, logger)
		if err != nil {
			if s.sender != nil {
				s.sender.Close()
			}
			ctx.Term()
			return nil, err
		}
		s.listener = listener
	}

	return s, nil
}

// Context exposes the ZeroMQ context so inproc peers can share it.
func (s *ZeroMQService) Context() *zmq4.Context {
	return s.ctx
}

// Telemetry returns the command telemetry publisher, or nil when no
// telemetry address is configured.
func (s *ZeroMQService) Telemetry() *TelemetryPublisher {
	return s.telemetry
}

// Listener returns the pose listener, or nil when disabled.
func (s *ZeroMQService) Listener() *PoseListener {
	return s.listener
}

// Start begins the ZeroMQ service
func (s *ZeroMQService) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}
	if s.ctx == nil {
		return ErrServiceClosed
	}

	s.running = true
	s.logger.Infof("Starting ZeroMQ service")

	if s.listener != nil {
		s.listener.Start()
	}
	return nil
}

// Stop halts the ZeroMQ service and terminates its context
func (s *ZeroMQService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctx == nil {
		return
	}

	s.logger.Infof("Stopping ZeroMQ service")
	s.running = false

	if s.listener != nil {
		s.listener.Stop()
	}
	if s.sender != nil {
		s.sender.Close()
	}

	s.ctx.Term()
	s.ctx = nil

	s.logger.Infof("ZeroMQ service stopped")
}

// PublishMessage sends a message with the given topic
func (s *ZeroMQService) PublishMessage(topic string, message []byte) error {
	if s.sender == nil {
		return ErrTelemetryOffline
	}
	return s.sender.PublishMessage(topic, message)
}

// PublishJSON publishes a JSON-serializable message with the given topic
func (s *ZeroMQService) PublishJSON(topic string, messageType string, data interface{}) error {
	msg := ZeroMQMessage{
		Type:      messageType,
		Timestamp: float64(time.Now().UnixNano()) / float64(time.Second),
		Data:      data,
	}

	msgData, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	return s.PublishMessage(topic, msgData)
}
