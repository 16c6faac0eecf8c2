package stewart

import "errors"

const (
	// NumMotors is the fixed number of motors driven by the board
	NumMotors = 6

	// MaxSpeed is the largest speed magnitude a command can carry
	MaxSpeed = 100

	// MaxCycles is the number of scheduler ticks in one scheduling window. It is also the
	// slowest cadence: a motor at speed 1 steps once per window
	MaxCycles = 20

	ConnectFlag byte = 0xB9 // handshake request from the host
	MotorFlag   byte = 0xA8 // motor command id, followed by a MotorCommandFrame

	// Ack is sent AckCount times once the handshake completes
	Ack      = "ACK"
	AckCount = 3

	// FrameSize is the wire size of a MotorCommandFrame: one signed byte per motor plus the flag byte
	FrameSize = NumMotors + 1

	DefaultBaudRate = 115200
)

// ErrShortFrame is returned when decoding fewer than FrameSize bytes
var ErrShortFrame = errors.New("short motor command frame")

// MotorCommandFrame holds one signed speed per motor (0 = stop) and the "fresh data" flag
type MotorCommandFrame struct {
	Payload [NumMotors]int8
	Fresh   bool
}

// MarshalBinary encodes the frame in its wire format
func (f MotorCommandFrame) MarshalBinary() ([]byte, error) {
	b := make([]byte, FrameSize)
	for i, s := range f.Payload {
		b[i] = byte(s)
	}
	if f.Fresh {
		b[NumMotors] = 1
	}
	return b, nil
}

// UnmarshalBinary decodes a wire frame. Any non-zero flag byte marks the frame fresh
func (f *MotorCommandFrame) UnmarshalBinary(b []byte) error {
	if len(b) < FrameSize {
		return ErrShortFrame
	}
	for i := range f.Payload {
		f.Payload[i] = int8(b[i])
	}
	f.Fresh = b[NumMotors] != 0
	return nil
}

// Stopped is true when every motor is commanded to stop
func (f MotorCommandFrame) Stopped() bool {
	return f.Payload == [NumMotors]int8{}
}

// ClampSpeed limits a speed to [-MaxSpeed, MaxSpeed]
func ClampSpeed(s int) int8 {
	switch {
	case s > MaxSpeed:
		return MaxSpeed
	case s < -MaxSpeed:
		return -MaxSpeed
	}
	return int8(s)
}
