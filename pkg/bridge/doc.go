// Package bridge streams operator commands to a robot.
//
// A Bridge decouples a synchronous producer (an input loop, a correction
// controller, a manual override) from the robot's MoveStream RPC. Commands
// pass through a bounded CommandQueue of QueueCapacity entries to a single
// StreamWorker goroutine, which owns the connection and is the only writer
// on the stream. Close half-closes the queue, lets the worker flush every
// accepted command, and joins it.
//
//	b, err := bridge.New("http://pi42.local:5001", bridge.WithLogger(logger))
//	if err != nil {
//		return err
//	}
//	defer b.Close()
//
//	if err := b.Send(0.5, -0.3, 0.1); err != nil {
//		logger.Warnf("robot unreachable this tick: %v", err)
//	}
package bridge
