package wire

import (
	"context"

	"google.golang.org/grpc"
)

const (
	// ServiceName is the fully qualified robot service name.
	ServiceName = "hamilton.HamiltonRemote"
	// MoveStreamMethod is the full method name of the command stream.
	MoveStreamMethod = "/" + ServiceName + "/MoveStream"
)

// MoveStreamClient is the sending half of an open command stream.
type MoveStreamClient = grpc.ClientStreamingClient[MoveRequest, MoveResponse]

// MoveStreamServer is the robot side of a command stream.
type MoveStreamServer = grpc.ClientStreamingServer[MoveRequest, MoveResponse]

// HamiltonRemoteClient opens command streams to a robot.
type HamiltonRemoteClient interface {
	MoveStream(ctx context.Context, opts ...grpc.CallOption) (MoveStreamClient, error)
}

// HamiltonRemoteServer is implemented by robots (and test doubles).
type HamiltonRemoteServer interface {
	MoveStream(stream MoveStreamServer) error
}

// ServiceDesc describes hamilton.HamiltonRemote for grpc.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*HamiltonRemoteServer)(nil),
	Methods:     []grpc.MethodDesc{},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "MoveStream",
			Handler:       moveStreamHandler,
			ClientStreams: true,
		},
	},
	Metadata: "hamilton.proto",
}

type hamiltonRemoteClient struct {
	cc grpc.ClientConnInterface
}

// NewHamiltonRemoteClient returns a client bound to cc.
func NewHamiltonRemoteClient(cc grpc.ClientConnInterface) HamiltonRemoteClient {
	return &hamiltonRemoteClient{cc: cc}
}

func (c *hamiltonRemoteClient) MoveStream(ctx context.Context, opts ...grpc.CallOption) (MoveStreamClient, error) {
	callOpts := append([]grpc.CallOption{grpc.ForceCodec(Codec{})}, opts...)
	stream, err := c.cc.NewStream(ctx, &ServiceDesc.Streams[0], MoveStreamMethod, callOpts...)
	if err != nil {
		return nil, err
	}
	return &grpc.GenericClientStream[MoveRequest, MoveResponse]{ClientStream: stream}, nil
}

func moveStreamHandler(srv any, stream grpc.ServerStream) error {
	return srv.(HamiltonRemoteServer).MoveStream(&grpc.GenericServerStream[MoveRequest, MoveResponse]{ServerStream: stream})
}

// RegisterHamiltonRemoteServer registers srv on s. The server must be built
// with ServerOptions so requests decode with Codec.
func RegisterHamiltonRemoteServer(s grpc.ServiceRegistrar, srv HamiltonRemoteServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// ServerOptions returns the options a robot-side grpc.Server needs.
func ServerOptions(opts ...grpc.ServerOption) []grpc.ServerOption {
	return append([]grpc.ServerOption{grpc.ForceServerCodec(Codec{})}, opts...)
}
