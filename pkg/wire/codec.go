package wire

import (
	"fmt"

	"google.golang.org/grpc/encoding"
	"google.golang.org/protobuf/encoding/protowire"
)

// CodecName matches the protobuf content-subtype so the robot side sees
// application/grpc+proto.
const CodecName = "proto"

var _ encoding.Codec = Codec{}

// Codec marshals the stream messages. It is forced per call and per server
// rather than registered, so it never replaces grpc's global proto codec.
type Codec struct{}

// Name implements encoding.Codec.
func (Codec) Name() string { return CodecName }

// Marshal implements encoding.Codec.
func (Codec) Marshal(v any) ([]byte, error) {
	switch m := v.(type) {
	case *MoveRequest:
		return m.AppendBinary(nil), nil
	case *MoveCommand:
		return m.AppendBinary(nil), nil
	case *MoveResponse:
		return []byte{}, nil
	default:
		return nil, fmt.Errorf("wire: cannot marshal %T", v)
	}
}

// Unmarshal implements encoding.Codec.
func (Codec) Unmarshal(data []byte, v any) error {
	switch m := v.(type) {
	case *MoveRequest:
		return m.UnmarshalBinary(data)
	case *MoveCommand:
		return m.UnmarshalBinary(data)
	case *MoveResponse:
		*m = MoveResponse{}
		return consumeFields(data, func(protowire.Number, protowire.Type, []byte) (int, error) {
			return -1, nil
		})
	default:
		return fmt.Errorf("wire: cannot unmarshal into %T", v)
	}
}
