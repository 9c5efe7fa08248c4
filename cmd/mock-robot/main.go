// Command mock-robot serves hamilton.HamiltonRemote and logs every command
// it receives, for bench testing the bridge without hardware.
package main

import (
	"errors"
	"flag"
	"io"
	"log"
	"net"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/google/uuid"
	"google.golang.org/grpc"

	customlog "github.com/open-teleop/teleop-bridge/pkg/log"
	"github.com/open-teleop/teleop-bridge/pkg/wire"
)

type robotServer struct {
	logger   customlog.Logger
	commands atomic.Uint64
}

func (r *robotServer) MoveStream(stream wire.MoveStreamServer) error {
	logger := r.logger.WithField("stream", uuid.NewString()[:8])
	logger.Infof("Move stream opened")

	var n uint64
	for {
		req, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			logger.Infof("Move stream half-closed after %d commands", n)
			return stream.SendAndClose(&wire.MoveResponse{})
		}
		if err != nil {
			logger.Warnf("Move stream ended after %d commands: %v", n, err)
			return err
		}

		n++
		r.commands.Add(1)
		cmd := req.GetCommand()
		logger.Infof("move #%d x=%.3f y=%.3f yaw=%.3f", n, cmd.X, cmd.Y, cmd.Yaw)
	}
}

func main() {
	listen := flag.String("listen", ":5001", "gRPC listen address")
	logLevel := flag.String("log-level", "info", "log level")
	flag.Parse()

	logger, err := customlog.NewLogrusLogger(*logLevel, "")
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	lis, err := net.Listen("tcp", *listen)
	if err != nil {
		logger.Fatalf("Failed to listen on %s: %v", *listen, err)
	}

	robot := &robotServer{logger: logger}
	srv := grpc.NewServer(wire.ServerOptions()...)
	wire.RegisterHamiltonRemoteServer(srv, robot)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logger.Infof("Shutting down after %d commands", robot.commands.Load())
		srv.GracefulStop()
	}()

	logger.Infof("Mock robot listening on %s", lis.Addr())
	if err := srv.Serve(lis); err != nil {
		logger.Fatalf("Server failed: %v", err)
	}
}
