package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/open-teleop/teleop-bridge/domain/teleop"
	"github.com/open-teleop/teleop-bridge/domain/tracking"
	"github.com/open-teleop/teleop-bridge/pkg/api"
	"github.com/open-teleop/teleop-bridge/pkg/bridge"
	"github.com/open-teleop/teleop-bridge/pkg/config"
	"github.com/open-teleop/teleop-bridge/pkg/control"
	customlog "github.com/open-teleop/teleop-bridge/pkg/log"
	"github.com/open-teleop/teleop-bridge/pkg/zeromq"
	"github.com/open-teleop/teleop-bridge/services"
)

const statusInterval = time.Second

func main() {
	configDir := flag.String("config-dir", "", "directory containing "+config.ConfigFilename+" (default $"+config.ConfigDirEnv+" or ./config)")
	flag.Parse()

	dir := config.ResolveDir(*configDir)
	cfg, err := config.LoadFromDir(dir)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := customlog.NewLogrusLogger(cfg.Logging.Level, cfg.Logging.LogPath)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	logger.Infof("Configuration loaded from %s", dir)

	os.Exit(run(cfg, filepath.Join(dir, config.ConfigFilename), logger))
}

func run(cfg *config.Config, configPath string, logger customlog.Logger) int {
	poses := tracking.NewPoseService()

	zmqService, err := zeromq.NewZeroMQService(cfg.ZeroMQ, poses, logger.WithField("component", "zeromq"))
	if err != nil {
		logger.Errorf("Failed to create ZeroMQ service: %v", err)
		return 1
	}
	defer zmqService.Stop()
	if err := zmqService.Start(); err != nil {
		logger.Errorf("Failed to start ZeroMQ service: %v", err)
		return 1
	}

	opts, err := cfg.BridgeOptions(logger.WithField("component", "bridge"))
	if err != nil {
		logger.Errorf("Invalid bridge options: %v", err)
		return 1
	}
	telemetry := zmqService.Telemetry()
	if telemetry != nil {
		opts = append(opts, bridge.WithObserver(telemetry))
	}

	b, err := bridge.New(cfg.Robot.Address, opts...)
	if err != nil {
		logger.Errorf("Failed to create command bridge: %v", err)
		return 1
	}
	logger.Infof("Command bridge %s streaming to %s", b.SessionID(), b.Address())

	hold := teleop.NewHeadingHold(poses, tracking.ParseDeviceClass(cfg.Input.TrackedDeviceClass),
		control.NewPID(cfg.Heading.Kp, cfg.Heading.Ki, cfg.Heading.Kd, cfg.Heading.OutputLimit))
	teleopService := teleop.NewTeleopService(b, hold, logger.WithField("component", "teleop"))
	loop := teleop.NewInputLoop(b, teleopService, hold, teleop.LoopConfig{
		Deadzone: cfg.Input.Deadzone,
		Period:   cfg.LoopPeriod(),
	}, logger.WithField("component", "input"))

	configService, err := services.NewConfigService(configPath, cfg, logger.WithField("component", "config"))
	if err != nil {
		logger.Errorf("Failed to create config service: %v", err)
		return 1
	}

	app := api.NewApp(api.Services{
		Teleop: teleopService,
		Poses:  poses,
		Config: configService,
	}, logger.WithField("component", "api"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		loop.Run(ctx)
	}()

	if telemetry != nil {
		go publishStatus(ctx, telemetry, b, logger)
	}

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
		logger.Infof("Server starting on %s", addr)
		if err := app.Listen(addr); err != nil {
			logger.Errorf("Server stopped: %v", err)
		}
	}()

	// Set up graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	exitCode := 0
	select {
	case sig := <-quit:
		logger.Infof("Received %v, shutting down", sig)
	case <-b.Done():
		logger.Errorf("Command stream ended: %v", b.Err())
		exitCode = 1
	}

	// Stop producing before closing the stream; the last command halts the robot.
	cancel()
	<-loopDone
	stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
	if err := b.SendCommand(stopCtx, bridge.Stop); err != nil {
		logger.Debugf("Final stop command not sent: %v", err)
	}
	stopCancel()
	if err := b.Close(); err != nil {
		logger.Errorf("Command bridge closed with error: %v", err)
		exitCode = 1
	}
	logger.Infof("Command bridge closed: %+v", b.Stats())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Infof("Bridge exited")
	return exitCode
}

// publishStatus publishes a bridge status snapshot until ctx ends.
func publishStatus(ctx context.Context, telemetry *zeromq.TelemetryPublisher, b *bridge.Bridge, logger customlog.Logger) {
	ticker := time.NewTicker(statusInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := telemetry.PublishStatus(b.Stats()); err != nil {
				logger.Debugf("Status publish failed: %v", err)
			}
		}
	}
}
