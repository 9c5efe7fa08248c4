package tracking

import (
	"encoding/json"
	"fmt"
)

// DeviceClass identifies the kind of tracked device a pose came from.
type DeviceClass int

const (
	ClassOther DeviceClass = iota
	ClassHMD
	ClassController
	ClassLeftController
	ClassRightController
	ClassTracker
	ClassSensor
)

func (c DeviceClass) String() string {
	switch c {
	case ClassHMD:
		return "HMD"
	case ClassController:
		return "Controller"
	case ClassLeftController:
		return "LeftController"
	case ClassRightController:
		return "RightController"
	case ClassTracker:
		return "Tracker"
	case ClassSensor:
		return "Sensor"
	case ClassOther:
		return "Other"
	default:
		return fmt.Sprintf("DeviceClass(%d)", int(c))
	}
}

// ParseDeviceClass maps the class string carried in a pose message.
// Unrecognised names map to ClassOther.
func ParseDeviceClass(s string) DeviceClass {
	switch s {
	case "HMD":
		return ClassHMD
	case "Controller":
		return ClassController
	case "LeftController":
		return ClassLeftController
	case "RightController":
		return ClassRightController
	case "Tracker":
		return ClassTracker
	case "Sensor":
		return ClassSensor
	default:
		return ClassOther
	}
}

// Vector is a position in tracking space, metres.
type Vector struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
	Z float32 `json:"z"`
}

// Quaternion is a device orientation.
type Quaternion struct {
	X          float32 `json:"x"`
	Y          float32 `json:"y"`
	Z          float32 `json:"z"`
	W          float32 `json:"w"`
	IsIdentity bool    `json:"is_identity"`
}

// Pose is one sample published on the tracking/pose topic.
type Pose struct {
	DeviceIndex int32      `json:"device_index"`
	DeviceClass string     `json:"device_class"`
	Position    Vector     `json:"position"`
	Rotation    Quaternion `json:"rotation"`
}

// Class returns the parsed device class.
func (p Pose) Class() DeviceClass {
	return ParseDeviceClass(p.DeviceClass)
}

// DecodePose parses a JSON pose payload.
func DecodePose(data []byte) (Pose, error) {
	var pose Pose
	if err := json.Unmarshal(data, &pose); err != nil {
		return Pose{}, fmt.Errorf("failed to decode pose: %w", err)
	}
	return pose, nil
}
