package device

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/calvinmclean/stewart"
	"github.com/calvinmclean/stewart/firmware/commands"
	"github.com/calvinmclean/stewart/firmware/controller"
)

// Device owns the steppers, the scheduler and the protocol handler. The frame and cadence table are only
// touched from the goroutine running Run
type Device struct {
	scheduler *controller.Scheduler
	handler   *commands.Handler

	cadence controller.CadenceTable
	onFault func(error)

	startTime time.Time
	cycles    uint32
	verbose   bool
}

// New builds the steppers from the wiring. The port is where commands are received from
func New(cfg Config, port commands.Port) (*Device, error) {
	var motors [stewart.NumMotors]controller.Motor
	for i, pins := range cfg.Wiring {
		stepper, err := controller.NewStepper(controller.StepperConfig{
			Pins:       pins,
			PhaseDelay: cfg.PhaseDelay,
			Sleep:      cfg.Sleep,
		})
		if err != nil {
			return nil, errors.New("error creating stepper " + strconv.Itoa(i) + ": " + err.Error())
		}
		motors[i] = stepper
	}

	scheduler, err := controller.NewScheduler(motors)
	if err != nil {
		return nil, errors.New("error creating scheduler: " + err.Error())
	}

	d := &Device{
		scheduler: scheduler,
		onFault:   cfg.OnFault,
		startTime: time.Now(),
		verbose:   cfg.Verbose,
	}
	d.handler = commands.NewHandler(port, d, cfg.Protocol)

	// all coils start de-energized
	d.scheduler.StopAll()

	return d, nil
}

// Run serves the host until ctx is done
func (d *Device) Run(ctx context.Context) error {
	println(d.ts(), "Waiting for host...")
	err := d.handler.Run(ctx)
	d.scheduler.StopAll()
	return err
}

// Drive converts the frame into a fresh cadence table and runs one scheduling window
func (d *Device) Drive(frame stewart.MotorCommandFrame) {
	d.cadence = controller.NewCadenceTable(frame)
	report := d.scheduler.Run(d.cadence)
	d.cycles++

	if d.verbose && frame.Fresh {
		println(d.ts(), "cycle", d.cycles, cadenceStr(d.cadence), stepsStr(report))
	}
}

// StopAll de-energizes every motor
func (d *Device) StopAll() {
	d.scheduler.StopAll()
}

// Cadence returns the table used by the most recent window
func (d *Device) Cadence() controller.CadenceTable {
	return d.cadence
}

// Cycles is the number of windows run since startup
func (d *Device) Cycles() uint32 {
	return d.cycles
}

// State returns the protocol state
func (d *Device) State() commands.State {
	return d.handler.State()
}

// Fault stops every motor and then halts
func (d *Device) Fault(err error) {
	d.scheduler.StopAll()
	if d.onFault != nil {
		d.onFault(err)
		return
	}
	Halt(err)
}

// ts returns the uptime timestamp for logging
func (d *Device) ts() string {
	return "[" + time.Since(d.startTime).String() + "]"
}

func cadenceStr(t controller.CadenceTable) string {
	s := "cadence="
	for i, c := range t {
		if i > 0 {
			s += ","
		}
		s += strconv.Itoa(int(c))
	}
	return s
}

func stepsStr(r controller.CycleReport) string {
	s := "steps="
	for i, n := range r.Steps {
		if i > 0 {
			s += ","
		}
		s += strconv.Itoa(n)
	}
	return s
}
