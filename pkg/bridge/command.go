package bridge

import (
	"fmt"

	"github.com/open-teleop/teleop-bridge/pkg/wire"
)

// Command is one (x, y, yaw) motion update. The bridge does not validate
// ranges; producers normalize their axes.
type Command struct {
	X   float32 `json:"x"`
	Y   float32 `json:"y"`
	Yaw float32 `json:"yaw"`
}

// Stop is the all-zero command.
var Stop = Command{}

func (c Command) request() *wire.MoveRequest {
	return &wire.MoveRequest{Command: &wire.MoveCommand{X: c.X, Y: c.Y, Yaw: c.Yaw}}
}

func (c Command) String() string {
	return fmt.Sprintf("(%.3f, %.3f, %.3f)", c.X, c.Y, c.Yaw)
}
