package controller

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/calvinmclean/stewart"
)

func TestCadenceFor(t *testing.T) {
	tests := []struct {
		name     string
		speed    int8
		expected Cadence
	}{
		{"Stop", 0, 0},
		{"Slowest", 1, stewart.MaxCycles},
		{"SlowestReverse", -1, -stewart.MaxCycles},
		{"Fastest", 100, 1},
		{"FastestReverse", -100, -1},
		{"Two", 2, 19},
		{"Ten", 10, 18},
		{"Half", 50, 10},
		{"HalfReverse", -50, -10},
		{"FiftyOne", 51, 10},
		{"NinetyNine", 99, 1},
		{"ClampedHigh", 127, 1},
		{"ClampedLow", -128, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CadenceFor(tt.speed))
		})
	}
}

func TestCadenceForAllSpeeds(t *testing.T) {
	for s := -stewart.MaxSpeed; s <= stewart.MaxSpeed; s++ {
		c := CadenceFor(int8(s))
		switch {
		case s == 0:
			assert.Equal(t, Cadence(0), c)
		case s > 0:
			assert.Positive(t, int(c), "speed %d", s)
		default:
			assert.Negative(t, int(c), "speed %d", s)
		}
		if s != 0 {
			assert.GreaterOrEqual(t, c.Interval(), 1, "speed %d", s)
			assert.LessOrEqual(t, c.Interval(), stewart.MaxCycles, "speed %d", s)
			assert.Equal(t, c, -CadenceFor(int8(-s)), "speed %d is not symmetric", s)
		}
		// no hidden state
		assert.Equal(t, c, CadenceFor(int8(s)))
	}
}

func TestCadenceMonotonic(t *testing.T) {
	prev := CadenceFor(1)
	for s := 2; s <= stewart.MaxSpeed; s++ {
		c := CadenceFor(int8(s))
		assert.LessOrEqual(t, c, prev, "faster speed %d must not have a longer interval", s)
		prev = c
	}
}

func TestStepsOnTick(t *testing.T) {
	assert.False(t, Cadence(0).StepsOnTick(20))
	assert.True(t, Cadence(1).StepsOnTick(1))
	assert.True(t, Cadence(-5).StepsOnTick(10))
	assert.False(t, Cadence(-5).StepsOnTick(11))
	assert.True(t, Cadence(20).StepsOnTick(20))
	assert.False(t, Cadence(20).StepsOnTick(19))
}

func TestNewCadenceTable(t *testing.T) {
	table := NewCadenceTable(stewart.MotorCommandFrame{
		Payload: [stewart.NumMotors]int8{100, -100, 0, 1, -1, 50},
	})
	assert.Equal(t, CadenceTable{1, -1, 0, 20, -20, 10}, table)
}
