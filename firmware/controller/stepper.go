package controller

import (
	"errors"
	"strconv"
	"time"
)

const defaultPhaseDelay = 1 * time.Millisecond

// Pin is a single digital output. machine.Pin satisfies it
type Pin interface {
	Set(high bool)
}

// StepperConfig ...
type StepperConfig struct {
	// Pins are the four coil pins in forward energizing order
	Pins [4]Pin
	// PhaseDelay is how long each phase is held. It is also the time base shared by all motors
	PhaseDelay time.Duration
	// Sleep blocks for at least the given duration. Defaults to time.Sleep
	Sleep func(time.Duration)
}

// Stepper drives one 4-phase motor with single-coil excitation
type Stepper struct {
	pins       [4]Pin
	phaseDelay time.Duration
	sleep      func(time.Duration)
}

func NewStepper(cfg StepperConfig) (*Stepper, error) {
	for i, p := range cfg.Pins {
		if p == nil {
			return nil, errors.New("missing coil pin " + strconv.Itoa(i))
		}
	}

	if cfg.PhaseDelay == 0 {
		cfg.PhaseDelay = defaultPhaseDelay
	}
	if cfg.Sleep == nil {
		cfg.Sleep = time.Sleep
	}

	return &Stepper{
		pins:       cfg.Pins,
		phaseDelay: cfg.PhaseDelay,
		sleep:      cfg.Sleep,
	}, nil
}

// 4-step single coil sequence
var sequence = [4][4]bool{
	{true, false, false, false},
	{false, true, false, false},
	{false, false, true, false},
	{false, false, false, true},
}

func (s *Stepper) energize(phase int) {
	for i := range 4 {
		s.pins[i].Set(sequence[phase][i])
	}
}

// StepForward runs phases 0 through 3, holding each for one phase delay. The motor is left with phase 3 energized
func (s *Stepper) StepForward() {
	for i := 0; i < len(sequence); i++ {
		s.energize(i)
		s.sleep(s.phaseDelay)
	}
}

// StepReverse runs phases 3 through 0, holding each for one phase delay
func (s *Stepper) StepReverse() {
	for i := len(sequence) - 1; i >= 0; i-- {
		s.energize(i)
		s.sleep(s.phaseDelay)
	}
}

// Stop de-energizes all coils without waiting
func (s *Stepper) Stop() {
	for _, p := range s.pins {
		p.Set(false)
	}
}

// StepDuration is how long a single StepForward or StepReverse blocks
func (s *Stepper) StepDuration() time.Duration {
	return time.Duration(len(sequence)) * s.phaseDelay
}
