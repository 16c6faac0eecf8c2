package controller

import (
	"errors"
	"strconv"

	"github.com/calvinmclean/stewart"
)

// Motor is anything the Scheduler can step. *Stepper implements it
type Motor interface {
	StepForward()
	StepReverse()
	Stop()
}

type SchedulerState int

const (
	SchedulerIdle SchedulerState = iota
	SchedulerCycling
)

func (s SchedulerState) String() string {
	switch s {
	case SchedulerCycling:
		return "Cycling"
	default:
		return "Idle"
	}
}

// CycleReport counts the steps each motor took during one window
type CycleReport struct {
	Steps [stewart.NumMotors]int
}

// Scheduler runs one window of MaxCycles ticks at a time across all motors
type Scheduler struct {
	motors [stewart.NumMotors]Motor
	state  SchedulerState
}

func NewScheduler(motors [stewart.NumMotors]Motor) (*Scheduler, error) {
	for i, m := range motors {
		if m == nil {
			return nil, errors.New("missing motor " + strconv.Itoa(i))
		}
	}
	return &Scheduler{motors: motors}, nil
}

// State is SchedulerCycling only while Run is executing
func (s *Scheduler) State() SchedulerState {
	return s.state
}

// Run executes ticks 1..MaxCycles. On each tick every motor is evaluated in index order: stopped motors
// are de-energized, moving motors step when the tick is a multiple of their interval, and all others
// keep their coils as the previous step left them
func (s *Scheduler) Run(table CadenceTable) CycleReport {
	s.state = SchedulerCycling
	defer func() { s.state = SchedulerIdle }()

	var report CycleReport
	for t := 1; t <= stewart.MaxCycles; t++ {
		for m, c := range table {
			switch {
			case c == 0:
				s.motors[m].Stop()
			case c.StepsOnTick(t):
				if c.Forward() {
					s.motors[m].StepForward()
				} else {
					s.motors[m].StepReverse()
				}
				report.Steps[m]++
			}
		}
	}
	return report
}

// StopAll de-energizes every motor
func (s *Scheduler) StopAll() {
	for _, m := range s.motors {
		m.Stop()
	}
}
