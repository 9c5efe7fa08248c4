package commandframe

import (
	"fmt"

	flatbuffers "github.com/google/flatbuffers/go"
)

// Frame is the decoded form of a CommandFrame table.
type Frame struct {
	SessionID   string
	Seq         uint64
	TimestampNs int64
	X, Y, Yaw   float32
}

// Encode builds a finished CommandFrame buffer.
func Encode(f Frame) []byte {
	builder := flatbuffers.NewBuilder(64 + len(f.SessionID))
	sessionOffset := builder.CreateString(f.SessionID)

	CommandFrameStart(builder)
	CommandFrameAddSessionId(builder, sessionOffset)
	CommandFrameAddSeq(builder, f.Seq)
	CommandFrameAddTimestampNs(builder, f.TimestampNs)
	CommandFrameAddX(builder, f.X)
	CommandFrameAddY(builder, f.Y)
	CommandFrameAddYaw(builder, f.Yaw)
	builder.Finish(CommandFrameEnd(builder))

	return builder.FinishedBytes()
}

// Decode reads a buffer produced by Encode. The flatbuffers accessors panic
// on truncated input, so that is turned into an error here.
func Decode(buf []byte) (f Frame, err error) {
	if len(buf) < flatbuffers.SizeUOffsetT {
		return Frame{}, fmt.Errorf("command frame too short: %d bytes", len(buf))
	}
	defer func() {
		if r := recover(); r != nil {
			f, err = Frame{}, fmt.Errorf("malformed command frame: %v", r)
		}
	}()

	frame := GetRootAsCommandFrame(buf, 0)
	return Frame{
		SessionID:   string(frame.SessionId()),
		Seq:         frame.Seq(),
		TimestampNs: frame.TimestampNs(),
		X:           frame.X(),
		Y:           frame.Y(),
		Yaw:         frame.Yaw(),
	}, nil
}
