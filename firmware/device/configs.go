package device

import (
	"time"

	"github.com/calvinmclean/stewart"
	"github.com/calvinmclean/stewart/firmware/commands"
	"github.com/calvinmclean/stewart/firmware/controller"
)

// Wiring maps each motor to its four coil pins in forward energizing order. Pins may be shared between motors
type Wiring [stewart.NumMotors][4]controller.Pin

// Config has everything needed to build a Device
type Config struct {
	Wiring Wiring
	// PhaseDelay is the hold time for each coil phase. Defaults to 1ms
	PhaseDelay time.Duration
	// Sleep is used for phase delays. Defaults to time.Sleep
	Sleep func(time.Duration)

	Protocol commands.Config

	// OnFault replaces the default fault behavior of blocking forever. It is mostly useful for hosted tests
	OnFault func(error)

	Verbose bool
}
