package controller

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calvinmclean/stewart"
)

type motorEvent struct {
	tick  int
	motor int
	op    string
}

type recorder struct {
	tick   int
	events []motorEvent
}

type fakeMotor struct {
	idx int
	rec *recorder
}

func (m *fakeMotor) StepForward() { m.record("forward") }
func (m *fakeMotor) StepReverse() { m.record("reverse") }
func (m *fakeMotor) Stop()        { m.record("stop") }

func (m *fakeMotor) record(op string) {
	m.rec.events = append(m.rec.events, motorEvent{m.rec.tick, m.idx, op})
}

func newTestScheduler(t *testing.T) (*Scheduler, *recorder) {
	t.Helper()
	rec := &recorder{}
	var motors [stewart.NumMotors]Motor
	for i := range motors {
		motors[i] = &fakeMotor{idx: i, rec: rec}
	}
	s, err := NewScheduler(motors)
	require.NoError(t, err)
	return s, rec
}

func countOps(events []motorEvent, motor int, op string) (ticks []int) {
	for _, e := range events {
		if e.motor == motor && e.op == op {
			ticks = append(ticks, e.tick)
		}
	}
	return ticks
}

func TestNewSchedulerMissingMotor(t *testing.T) {
	_, err := NewScheduler([stewart.NumMotors]Motor{})
	require.Error(t, err)
	assert.Equal(t, "missing motor 0", err.Error())
}

func TestSchedulerAllStopped(t *testing.T) {
	s, rec := newTestScheduler(t)

	report := s.Run(CadenceTable{})

	assert.Equal(t, CycleReport{}, report)
	require.Len(t, rec.events, stewart.MaxCycles*stewart.NumMotors)
	for i, e := range rec.events {
		assert.Equal(t, "stop", e.op)
		assert.Equal(t, i%stewart.NumMotors, e.motor, "motors must be evaluated in index order")
	}
	assert.Equal(t, SchedulerIdle, s.State())
}

func TestSchedulerStepCounts(t *testing.T) {
	tests := []struct {
		name  string
		table CadenceTable
	}{
		{"Mixed", CadenceTable{1, -1, 0, 20, -3, 7}},
		{"AllSlow", CadenceTable{20, 20, 20, 20, 20, 20}},
		{"Uneven", CadenceTable{6, -9, 11, -13, 17, 19}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, rec := newTestScheduler(t)
			report := s.Run(tt.table)

			for m, c := range tt.table {
				if c == 0 {
					assert.Equal(t, 0, report.Steps[m])
					assert.Len(t, countOps(rec.events, m, "stop"), stewart.MaxCycles)
					continue
				}
				assert.Equal(t, stewart.MaxCycles/c.Interval(), report.Steps[m], "motor %d", m)

				op := "forward"
				if c < 0 {
					op = "reverse"
				}
				assert.Len(t, countOps(rec.events, m, op), stewart.MaxCycles/c.Interval(), "motor %d", m)
			}
		})
	}
}

func TestSchedulerTickOrder(t *testing.T) {
	rec := &recorder{}
	var motors [stewart.NumMotors]Motor
	for i := range motors {
		motors[i] = &fakeMotor{idx: i, rec: rec}
	}
	// motor 0 is stopped so it is evaluated on every tick and advances the recorder's tick
	motors[0] = &tickCounter{fakeMotor{idx: 0, rec: rec}}
	s, err := NewScheduler(motors)
	require.NoError(t, err)

	s.Run(CadenceTable{0, 4, -5, 0, 0, 0})

	assert.Equal(t, []int{4, 8, 12, 16, 20}, countOps(rec.events, 1, "forward"))
	assert.Equal(t, []int{5, 10, 15, 20}, countOps(rec.events, 2, "reverse"))

	prevTick, prevMotor := 0, -1
	for _, e := range rec.events {
		if e.tick == prevTick {
			assert.Greater(t, e.motor, prevMotor, "motor order within tick %d", e.tick)
		} else {
			assert.Greater(t, e.tick, prevTick)
		}
		prevTick, prevMotor = e.tick, e.motor
	}
}

// tickCounter advances the shared tick each time the scheduler reaches motor 0
type tickCounter struct {
	fakeMotor
}

func (m *tickCounter) Stop() {
	m.rec.tick++
	m.record("stop")
}

func TestSchedulerScenarios(t *testing.T) {
	t.Run("SlowestForward", func(t *testing.T) {
		s, rec := newTestScheduler(t)
		table := NewCadenceTable(stewart.MotorCommandFrame{Payload: [stewart.NumMotors]int8{1, 0, 0, 0, 0, 0}})
		report := s.Run(table)

		assert.Equal(t, CycleReport{Steps: [stewart.NumMotors]int{1, 0, 0, 0, 0, 0}}, report)
		require.Len(t, countOps(rec.events, 0, "forward"), 1)

		// ticks 1..19 only stop motors 1..5, tick 20 starts with motor 0's step
		require.Len(t, rec.events, 19*5+6)
		assert.Equal(t, motorEvent{0, 0, "forward"}, rec.events[19*5])
		for m := 1; m < stewart.NumMotors; m++ {
			assert.Len(t, countOps(rec.events, m, "stop"), stewart.MaxCycles)
		}
	})

	t.Run("FullSpeedBothWays", func(t *testing.T) {
		s, rec := newTestScheduler(t)
		table := NewCadenceTable(stewart.MotorCommandFrame{Payload: [stewart.NumMotors]int8{100, -100, 0, 0, 0, 0}})
		report := s.Run(table)

		assert.Equal(t, CycleReport{Steps: [stewart.NumMotors]int{20, 20, 0, 0, 0, 0}}, report)
		assert.Len(t, countOps(rec.events, 0, "forward"), 20)
		assert.Len(t, countOps(rec.events, 1, "reverse"), 20)
		assert.Empty(t, countOps(rec.events, 0, "reverse"))
		assert.Empty(t, countOps(rec.events, 1, "forward"))
	})
}

func TestSchedulerStateDuringRun(t *testing.T) {
	rec := &recorder{}
	var motors [stewart.NumMotors]Motor
	for i := range motors {
		motors[i] = &fakeMotor{idx: i, rec: rec}
	}
	var s *Scheduler
	var seen []SchedulerState
	motors[3] = stateProbe{func() { seen = append(seen, s.State()) }}

	var err error
	s, err = NewScheduler(motors)
	require.NoError(t, err)

	assert.Equal(t, SchedulerIdle, s.State())
	s.Run(CadenceTable{})
	assert.Equal(t, SchedulerIdle, s.State())

	require.Len(t, seen, stewart.MaxCycles)
	for _, st := range seen {
		assert.Equal(t, SchedulerCycling, st)
	}
}

type stateProbe struct {
	probe func()
}

func (p stateProbe) StepForward() { p.probe() }
func (p stateProbe) StepReverse() { p.probe() }
func (p stateProbe) Stop()        { p.probe() }

func TestStopAll(t *testing.T) {
	s, rec := newTestScheduler(t)
	s.StopAll()
	require.Len(t, rec.events, stewart.NumMotors)
	for i, e := range rec.events {
		assert.Equal(t, motorEvent{0, i, "stop"}, e)
	}
}
