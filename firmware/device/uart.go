package device

import (
	"io"
	"time"

	"tinygo.org/x/drivers"

	"github.com/calvinmclean/stewart/firmware/commands"
)

const defaultPollInterval = 100 * time.Microsecond

// UARTPort adapts a UART to commands.Port. machine.UART satisfies drivers.UART
type UARTPort struct {
	uart drivers.UART
	poll time.Duration
}

func NewUARTPort(uart drivers.UART) *UARTPort {
	return &UARTPort{uart: uart, poll: defaultPollInterval}
}

// Receive fills buf with whatever arrives before the timeout. A short read returns commands.ErrTimeout
func (p *UARTPort) Receive(buf []byte, timeout time.Duration) (int, error) {
	deadline := time.Now().Add(timeout)

	n := 0
	for n < len(buf) {
		if p.uart.Buffered() > 0 {
			read, err := p.uart.Read(buf[n:])
			n += read
			if err != nil {
				return n, err
			}
			continue
		}

		if !time.Now().Before(deadline) {
			return n, commands.ErrTimeout
		}
		time.Sleep(p.poll)
	}

	return n, nil
}

// Transmit writes all of b
func (p *UARTPort) Transmit(b []byte) error {
	for len(b) > 0 {
		n, err := p.uart.Write(b)
		if err != nil {
			return err
		}
		if n == 0 {
			return io.ErrShortWrite
		}
		b = b[n:]
	}
	return nil
}
