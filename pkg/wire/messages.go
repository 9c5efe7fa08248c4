// Package wire defines the robot's command stream protocol: the
// hamilton.HamiltonRemote service and its messages in protobuf wire format.
//
//	service HamiltonRemote {
//	  rpc MoveStream(stream MoveRequest) returns (MoveResponse);
//	}
//	message MoveRequest  { MoveCommand command = 1; }
//	message MoveCommand  { float x = 1; float y = 2; float yaw = 3; }
//	message MoveResponse {}
package wire

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// Field numbers.
const (
	moveRequestCommandField protowire.Number = 1

	moveCommandXField   protowire.Number = 1
	moveCommandYField   protowire.Number = 2
	moveCommandYawField protowire.Number = 3
)

// MoveCommand is one motion update. Values are normalized control axes.
type MoveCommand struct {
	X   float32
	Y   float32
	Yaw float32
}

// MoveRequest wraps a single command on the stream.
type MoveRequest struct {
	Command *MoveCommand
}

// MoveResponse is returned by the robot when the stream completes.
type MoveResponse struct{}

// GetCommand returns the command or nil.
func (r *MoveRequest) GetCommand() *MoveCommand {
	if r == nil {
		return nil
	}
	return r.Command
}

func (c *MoveCommand) String() string {
	if c == nil {
		return "<nil>"
	}
	return fmt.Sprintf("{x:%g y:%g yaw:%g}", c.X, c.Y, c.Yaw)
}

func appendFloat(b []byte, num protowire.Number, v float32) []byte {
	bits := math.Float32bits(v)
	if bits == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.Fixed32Type)
	return protowire.AppendFixed32(b, bits)
}

// AppendBinary appends the wire encoding of c to b.
func (c *MoveCommand) AppendBinary(b []byte) []byte {
	b = appendFloat(b, moveCommandXField, c.X)
	b = appendFloat(b, moveCommandYField, c.Y)
	b = appendFloat(b, moveCommandYawField, c.Yaw)
	return b
}

// AppendBinary appends the wire encoding of r to b.
func (r *MoveRequest) AppendBinary(b []byte) []byte {
	if r.Command == nil {
		return b
	}
	b = protowire.AppendTag(b, moveRequestCommandField, protowire.BytesType)
	return protowire.AppendBytes(b, r.Command.AppendBinary(nil))
}

// UnmarshalBinary decodes c from its wire encoding. Unknown fields are skipped.
func (c *MoveCommand) UnmarshalBinary(data []byte) error {
	*c = MoveCommand{}
	return c.merge(data)
}

// merge decodes data into c without clearing fields absent from data.
func (c *MoveCommand) merge(data []byte) error {
	return consumeFields(data, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if typ != protowire.Fixed32Type {
			return -1, nil
		}
		var dst *float32
		switch num {
		case moveCommandXField:
			dst = &c.X
		case moveCommandYField:
			dst = &c.Y
		case moveCommandYawField:
			dst = &c.Yaw
		default:
			return -1, nil
		}
		v, n := protowire.ConsumeFixed32(b)
		if n < 0 {
			return 0, fmt.Errorf("move command field %d: %w", num, protowire.ParseError(n))
		}
		*dst = math.Float32frombits(v)
		return n, nil
	})
}

// UnmarshalBinary decodes r from its wire encoding.
func (r *MoveRequest) UnmarshalBinary(data []byte) error {
	*r = MoveRequest{}
	return consumeFields(data, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != moveRequestCommandField || typ != protowire.BytesType {
			return -1, nil
		}
		v, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return 0, fmt.Errorf("move request command: %w", protowire.ParseError(n))
		}
		// A repeated embedded message merges into the previous one.
		if r.Command == nil {
			r.Command = &MoveCommand{}
		}
		if err := r.Command.merge(v); err != nil {
			return 0, err
		}
		return n, nil
	})
}

// consumeFields walks the fields in data. fn returns the number of value
// bytes it consumed, or -1 to let the field be skipped.
func consumeFields(data []byte, fn func(protowire.Number, protowire.Type, []byte) (int, error)) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return fmt.Errorf("invalid tag: %w", protowire.ParseError(n))
		}
		data = data[n:]

		used, err := fn(num, typ, data)
		if err != nil {
			return err
		}
		if used < 0 {
			used = protowire.ConsumeFieldValue(num, typ, data)
			if used < 0 {
				return fmt.Errorf("field %d: %w", num, protowire.ParseError(used))
			}
		}
		data = data[used:]
	}
	return nil
}
