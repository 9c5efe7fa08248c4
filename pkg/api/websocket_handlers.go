package api

import (
	"encoding/json"
	"errors"
	"syscall"

	"github.com/gofiber/contrib/websocket"

	"github.com/open-teleop/teleop-bridge/domain/teleop"
	customlog "github.com/open-teleop/teleop-bridge/pkg/log"
)

// AxisSetter accepts new operator axes.
type AxisSetter interface {
	SetAxes(axes teleop.Axes) error
}

// ControlWebSocketHandler handles incoming WebSocket messages for robot control.
// Each text message is a Twist; the axes are zeroed when the connection ends.
func ControlWebSocketHandler(conn *websocket.Conn, logger customlog.Logger, axes AxisSetter) {
	logger.Infof("Control WebSocket connected: %s", conn.RemoteAddr())
	defer func() {
		if err := axes.SetAxes(teleop.Axes{}); err != nil {
			logger.Errorf("Failed to zero axes on disconnect: %v", err)
		}
		logger.Infof("Control WebSocket disconnected: %s", conn.RemoteAddr())
	}()

	for {
		mt, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Errorf("Control WS read error: %v", err)
			} else if err != websocket.ErrCloseSent && !errors.Is(err, syscall.EPIPE) && !errors.Is(err, syscall.ECONNRESET) {
				logger.Infof("Control WS connection closed: %v", err)
			} else {
				logger.Infof("Control WS connection closed normally.")
			}
			return
		}

		if mt != websocket.TextMessage {
			logger.Infof("Ignoring non-text Control WS message type: %d", mt)
			continue
		}

		var twist TwistMsg
		if err := json.Unmarshal(msg, &twist); err != nil {
			logger.Warnf("Failed to unmarshal Twist command from WS: %v. Message: %s", err, string(msg))
			continue
		}

		next := twist.Axes()
		if err := axes.SetAxes(next); err != nil {
			logger.Warnf("Rejected Twist command from WS: %v", err)
			continue
		}
		logger.Debugf("Twist command via WS: LinearX=%.2f LinearY=%.2f AngularZ=%.2f",
			twist.Linear.X, twist.Linear.Y, twist.Angular.Z)
	}
}
