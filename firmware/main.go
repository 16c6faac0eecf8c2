//go:build tinygo

package main

import (
	"context"
	"machine"
	"time"

	"github.com/calvinmclean/stewart"
	"github.com/calvinmclean/stewart/firmware/commands"
	"github.com/calvinmclean/stewart/firmware/device"
)

// coilPins are the twelve GPIOs shared by the six motors
var coilPins = [12]machine.Pin{
	machine.PA10, machine.PB3, machine.PB5, machine.PB4,
	machine.PB10, machine.PA8, machine.PA9, machine.PC7,
	machine.PB6, machine.PA7, machine.PA6, machine.PA5,
}

// motors 3..5 reuse the pins of motors 0..2 with each coil pair swapped
var motorCoils = [stewart.NumMotors][4]int{
	{0, 1, 2, 3},
	{4, 5, 6, 7},
	{8, 9, 10, 11},
	{1, 0, 3, 2},
	{5, 4, 7, 6},
	{9, 8, 11, 10},
}

func main() {
	for _, pin := range coilPins {
		pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
		pin.Low()
	}

	var wiring device.Wiring
	for m, coils := range motorCoils {
		for c, idx := range coils {
			wiring[m][c] = coilPins[idx]
		}
	}

	uart := machine.DefaultUART
	err := uart.Configure(machine.UARTConfig{BaudRate: stewart.DefaultBaudRate})
	if err != nil {
		device.Halt(err)
	}

	d, err := device.New(device.Config{
		Wiring:     wiring,
		PhaseDelay: time.Millisecond,
		Protocol: commands.Config{
			Policy: commands.PolicyRepeat,
		},
	}, device.NewUARTPort(uart))
	if err != nil {
		device.Halt(err)
	}

	err = d.Run(context.Background())
	d.Fault(err)
}
