// Package commandframe holds the FlatBuffers table described by
// schemas/command_frame.fbs.
package commandframe

import (
	flatbuffers "github.com/google/flatbuffers/go"
)

type CommandFrame struct {
	_tab flatbuffers.Table
}

func GetRootAsCommandFrame(buf []byte, offset flatbuffers.UOffsetT) *CommandFrame {
	n := flatbuffers.GetUOffsetT(buf[offset:])
	x := &CommandFrame{}
	x.Init(buf, n+offset)
	return x
}

func (rcv *CommandFrame) Init(buf []byte, i flatbuffers.UOffsetT) {
	rcv._tab.Bytes = buf
	rcv._tab.Pos = i
}

func (rcv *CommandFrame) Table() flatbuffers.Table {
	return rcv._tab
}

func (rcv *CommandFrame) SessionId() []byte {
	o := flatbuffers.UOffsetT(rcv._tab.Offset(4))
	if o != 0 {
		return rcv._tab.ByteVector(o + rcv._tab.Pos)
	}
	return nil
}

func (rcv *CommandFrame) Seq() uint64 {
	o := flatbuffers.UOffsetT(rcv._tab.Offset(6))
	if o != 0 {
		return rcv._tab.GetUint64(o + rcv._tab.Pos)
	}
	return 0
}

func (rcv *CommandFrame) TimestampNs() int64 {
	o := flatbuffers.UOffsetT(rcv._tab.Offset(8))
	if o != 0 {
		return rcv._tab.GetInt64(o + rcv._tab.Pos)
	}
	return 0
}

func (rcv *CommandFrame) X() float32 {
	o := flatbuffers.UOffsetT(rcv._tab.Offset(10))
	if o != 0 {
		return rcv._tab.GetFloat32(o + rcv._tab.Pos)
	}
	return 0.0
}

func (rcv *CommandFrame) Y() float32 {
	o := flatbuffers.UOffsetT(rcv._tab.Offset(12))
	if o != 0 {
		return rcv._tab.GetFloat32(o + rcv._tab.Pos)
	}
	return 0.0
}

func (rcv *CommandFrame) Yaw() float32 {
	o := flatbuffers.UOffsetT(rcv._tab.Offset(14))
	if o != 0 {
		return rcv._tab.GetFloat32(o + rcv._tab.Pos)
	}
	return 0.0
}

func CommandFrameStart(builder *flatbuffers.Builder) {
	builder.StartObject(6)
}
func CommandFrameAddSessionId(builder *flatbuffers.Builder, sessionId flatbuffers.UOffsetT) {
	builder.PrependUOffsetTSlot(0, flatbuffers.UOffsetT(sessionId), 0)
}
func CommandFrameAddSeq(builder *flatbuffers.Builder, seq uint64) {
	builder.PrependUint64Slot(1, seq, 0)
}
func CommandFrameAddTimestampNs(builder *flatbuffers.Builder, timestampNs int64) {
	builder.PrependInt64Slot(2, timestampNs, 0)
}
func CommandFrameAddX(builder *flatbuffers.Builder, x float32) {
	builder.PrependFloat32Slot(3, x, 0.0)
}
func CommandFrameAddY(builder *flatbuffers.Builder, y float32) {
	builder.PrependFloat32Slot(4, y, 0.0)
}
func CommandFrameAddYaw(builder *flatbuffers.Builder, yaw float32) {
	builder.PrependFloat32Slot(5, yaw, 0.0)
}
func CommandFrameEnd(builder *flatbuffers.Builder) flatbuffers.UOffsetT {
	return builder.EndObject()
}
