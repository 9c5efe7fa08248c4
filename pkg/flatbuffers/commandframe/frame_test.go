package commandframe

import (
	"testing"

	flatbuffers "github.com/google/flatbuffers/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode(t *testing.T) {
	in := Frame{
		SessionID:   "3f1c9a52-0d7e-4c1b-9f3a-2b8e6d4c1a70",
		Seq:         42,
		TimestampNs: 1_700_000_000_123_456_789,
		X:           0.5,
		Y:           -0.25,
		Yaw:         1.5,
	}

	out, err := Decode(Encode(in))
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestStopFrameReadsDefaults(t *testing.T) {
	buf := Encode(Frame{SessionID: "s", Seq: 1})

	frame := GetRootAsCommandFrame(buf, 0)
	assert.Equal(t, "s", string(frame.SessionId()))
	assert.Equal(t, uint64(1), frame.Seq())
	assert.Zero(t, frame.X())
	assert.Zero(t, frame.Y())
	assert.Zero(t, frame.Yaw())
}

func TestMissingFieldsReadAsZero(t *testing.T) {
	builder := flatbuffers.NewBuilder(16)
	CommandFrameStart(builder)
	builder.Finish(CommandFrameEnd(builder))

	out, err := Decode(builder.FinishedBytes())
	require.NoError(t, err)
	assert.Equal(t, Frame{}, out)
}

func TestDecodeRejectsTruncatedBuffer(t *testing.T) {
	_, err := Decode([]byte{0x01})
	assert.Error(t, err)

	buf := Encode(Frame{SessionID: "abc", Seq: 7, X: 1})
	_, err = Decode(buf[:6])
	assert.Error(t, err)
}
