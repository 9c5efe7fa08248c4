package zeromq

import (
	"sync/atomic"
	"time"

	"github.com/open-teleop/teleop-bridge/pkg/bridge"
	"github.com/open-teleop/teleop-bridge/pkg/flatbuffers/commandframe"
	customlog "github.com/open-teleop/teleop-bridge/pkg/log"
)

// TelemetryPublisher republishes every command written to the robot as a
// CommandFrame on TopicCommand. It is a bridge.Observer.
type TelemetryPublisher struct {
	service   *ZeroMQService
	logger    customlog.Logger
	now       func() time.Time
	published atomic.Uint64
	failed    atomic.Uint64
}

var _ bridge.Observer = (*TelemetryPublisher)(nil)

func newTelemetryPublisher(service *ZeroMQService, logger customlog.Logger) *TelemetryPublisher {
	return &TelemetryPublisher{
		service: service,
		logger:  logger,
		now:     time.Now,
	}
}

// CommandSent publishes the command. Failures are counted and logged at
// debug level only, the robot stream never waits on telemetry.
func (p *TelemetryPublisher) CommandSent(sessionID string, seq uint64, cmd bridge.Command) {
	frame := commandframe.Encode(commandframe.Frame{
		SessionID:   sessionID,
		Seq:         seq,
		TimestampNs: p.now().UnixNano(),
		X:           cmd.X,
		Y:           cmd.Y,
		Yaw:         cmd.Yaw,
	})

	if err := p.service.PublishMessage(TopicCommand, frame); err != nil {
		if p.failed.Add(1) == 1 {
			p.logger.Warnf("Telemetry publish failed: %v", err)
		} else {
			p.logger.Debugf("Telemetry publish failed: %v", err)
		}
		return
	}
	p.published.Add(1)
}

// PublishStatus publishes a bridge status snapshot on TopicStatus.
func (p *TelemetryPublisher) PublishStatus(stats bridge.Stats) error {
	return p.service.PublishJSON(TopicStatus, MsgTypeStatus, stats)
}

// Published returns the number of command frames sent.
func (p *TelemetryPublisher) Published() uint64 {
	return p.published.Load()
}

// Failed returns the number of command frames that could not be sent.
func (p *TelemetryPublisher) Failed() uint64 {
	return p.failed.Load()
}
