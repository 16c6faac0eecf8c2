package controller

import "github.com/calvinmclean/stewart"

// Cadence is the number of scheduler ticks between steps. The sign is the direction and 0 means stopped
type Cadence int

// CadenceFor converts a speed command into a cadence. |speed| 1 maps to MaxCycles (slowest) and MaxSpeed
// maps to 1 (a step every tick). The magnitude is computed in floating point and truncated toward zero.
// Speeds beyond MaxSpeed are clamped first
func CadenceFor(speed int8) Cadence {
	s := int(stewart.ClampSpeed(int(speed)))
	if s == 0 {
		return 0
	}

	mag := s
	if mag < 0 {
		mag = -mag
	}

	const cycles = float64(stewart.MaxCycles - 1)
	const span = float64(stewart.MaxSpeed - 1)
	c := Cadence(cycles*(1-float64(mag-1)/span) + 1)

	if s < 0 {
		return -c
	}
	return c
}

// Interval is the absolute number of ticks between steps
func (c Cadence) Interval() int {
	if c < 0 {
		return int(-c)
	}
	return int(c)
}

// Forward reports the stepping direction. It is meaningless for a stopped cadence
func (c Cadence) Forward() bool {
	return c > 0
}

// StepsOnTick is true when a moving motor steps on the 1-indexed tick t
func (c Cadence) StepsOnTick(t int) bool {
	return c != 0 && t%c.Interval() == 0
}

// CadenceTable maps each motor to its cadence for one scheduling window
type CadenceTable [stewart.NumMotors]Cadence

// NewCadenceTable converts every speed in the frame
func NewCadenceTable(frame stewart.MotorCommandFrame) CadenceTable {
	var t CadenceTable
	for i, s := range frame.Payload {
		t[i] = CadenceFor(s)
	}
	return t
}
