package controller

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang/glog"
	"go.bug.st/serial"

	"github.com/calvinmclean/stewart"
)

var (
	ErrNotConnected   = errors.New("not connected")
	ErrConnectTimeout = errors.New("timed out waiting for acknowledgment")
)

// ackReadTimeout bounds each read while waiting for the handshake. A new connect byte is written after every
// read that does not complete the acknowledgment
const ackReadTimeout = 100 * time.Millisecond

// Port is the serial connection to the board. serial.Port satisfies it
type Port interface {
	io.ReadWriteCloser
	SetReadTimeout(time.Duration) error
	ResetInputBuffer() error
}

// Speeds are the logical motor speeds in the range -100..100
type Speeds [stewart.NumMotors]int

// Status is a snapshot of the Controller
type Status struct {
	Connected   bool      `json:"connected"`
	Speeds      Speeds    `json:"speeds"`
	LastCommand time.Time `json:"last_command,omitzero"`
}

// Controller sends speed commands to the board over a Port. It is safe for concurrent use
type Controller struct {
	port     Port
	cfg      Config
	motorMap MotorMap

	mtx         sync.Mutex
	connected   bool
	speeds      Speeds
	lastCommand time.Time
}

// NewFromEnv reads Config from the environment and opens the serial port
func NewFromEnv() (*Controller, error) {
	cfg, err := ConfigFromEnv()
	if err != nil {
		return nil, err
	}
	return New(cfg)
}

// New opens the serial port from the Config. When the port is SerialPortNone, commands are discarded
func New(cfg Config) (*Controller, error) {
	cfg.setDefaults()

	var port Port
	switch cfg.SerialPort {
	case "":
		return nil, errNoSerialPort
	case SerialPortNone:
		port = &discardPort{}
	default:
		p, err := serial.Open(cfg.SerialPort, &serial.Mode{BaudRate: cfg.BaudRate})
		if err != nil {
			return nil, fmt.Errorf("error opening serial port %q: %w", cfg.SerialPort, err)
		}
		port = p
	}

	c, err := NewWithPort(cfg, port)
	if err != nil {
		port.Close()
		return nil, err
	}
	return c, nil
}

// NewWithPort uses an already open Port
func NewWithPort(cfg Config, port Port) (*Controller, error) {
	cfg.setDefaults()

	motorMap := DefaultMotorMap()
	if cfg.MotorMapFile != "" {
		var err error
		motorMap, err = LoadMotorMap(cfg.MotorMapFile)
		if err != nil {
			return nil, err
		}
	}

	return &Controller{
		port:     port,
		cfg:      cfg,
		motorMap: motorMap,
	}, nil
}

// Config returns the Config used by the Controller
func (c *Controller) Config() Config {
	return c.cfg
}

// Connect repeats the connect byte until the board acknowledges it. Any extra acknowledgment bytes are
// discarded. It fails with ErrConnectTimeout after Config.ConnectTimeout
func (c *Controller) Connect(ctx context.Context) error {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	if _, ok := c.port.(*discardPort); ok {
		glog.Warning("no serial port configured, commands will be discarded")
		c.connected = true
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.ConnectTimeout)
	defer cancel()

	err := c.port.SetReadTimeout(ackReadTimeout)
	if err != nil {
		return fmt.Errorf("error setting read timeout: %w", err)
	}

	// the connect byte is padded to a full command so a board that missed it is not left mid-payload
	hello := make([]byte, stewart.FrameSize+1)
	hello[0] = stewart.ConnectFlag

	ack := []byte(stewart.Ack)
	buf := make([]byte, len(ack))
	var seen []byte
	for attempt := 1; ; attempt++ {
		n, err := c.port.Read(buf)
		if err != nil {
			return fmt.Errorf("error reading acknowledgment: %w", err)
		}

		seen = append(seen, buf[:n]...)
		if bytes.Contains(seen, ack) {
			break
		}
		if len(seen) > len(ack) {
			seen = seen[len(seen)-len(ack)+1:]
		}

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return ErrConnectTimeout
			}
			return ctx.Err()
		default:
		}

		glog.V(2).Infof("sending connect byte, attempt %d", attempt)
		_, err = c.port.Write(hello)
		if err != nil {
			return fmt.Errorf("error writing connect byte: %w", err)
		}
	}

	err = c.port.ResetInputBuffer()
	if err != nil {
		return fmt.Errorf("error clearing acknowledgment: %w", err)
	}

	c.connected = true
	glog.Infof("connected to %s", c.cfg.SerialPort)
	return nil
}

// SetSpeeds clamps and remaps the speeds and sends them as a single fresh command
func (c *Controller) SetSpeeds(speeds Speeds) error {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	if !c.connected {
		return ErrNotConnected
	}

	for i := range speeds {
		speeds[i] = int(stewart.ClampSpeed(speeds[i]))
	}

	frame := stewart.MotorCommandFrame{
		Payload: c.motorMap.Apply(speeds),
		Fresh:   true,
	}
	payload, err := frame.MarshalBinary()
	if err != nil {
		return fmt.Errorf("error encoding frame: %w", err)
	}

	msg := append([]byte{stewart.MotorFlag}, payload...)
	glog.V(2).Infof("tx % x", msg)

	_, err = c.port.Write(msg)
	if err != nil {
		return fmt.Errorf("error writing command: %w", err)
	}

	c.speeds = speeds
	c.lastCommand = time.Now()
	return nil
}

// Stop sets every motor speed to zero
func (c *Controller) Stop() error {
	return c.SetSpeeds(Speeds{})
}

// Speeds returns the most recently sent logical speeds
func (c *Controller) Speeds() Speeds {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.speeds
}

// Status returns a snapshot of the Controller
func (c *Controller) Status() Status {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return Status{
		Connected:   c.connected,
		Speeds:      c.speeds,
		LastCommand: c.lastCommand,
	}
}

// Close stops the motors when connected and closes the port
func (c *Controller) Close() error {
	err := c.Stop()
	if err != nil && !errors.Is(err, ErrNotConnected) {
		glog.Errorf("error stopping motors: %v", err)
	}

	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.connected = false
	return c.port.Close()
}

// Run connects and then executes one line command at a time from in, writing results to out. It returns
// when in is closed or ctx is done
func (c *Controller) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	err := c.Connect(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "connected")

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			err := c.runCommand(line, out)
			if err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
			}
		}
	}
}

// RunPipe is Run reading from r. When Run returns, r is closed with its error so that writers on the other
// end of the pipe fail instead of blocking
func (c *Controller) RunPipe(ctx context.Context, r *io.PipeReader, out io.Writer) error {
	err := c.Run(ctx, r, out)
	r.CloseWithError(err)
	return err
}

func (c *Controller) runCommand(line string, out io.Writer) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}

	switch fields[0] {
	case "speeds":
		speeds, err := ParseSpeeds(fields[1:])
		if err != nil {
			return err
		}
		err = c.SetSpeeds(speeds)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, "OK")
	case "stop":
		err := c.Stop()
		if err != nil {
			return err
		}
		fmt.Fprintln(out, "OK")
	case "status":
		fmt.Fprintln(out, c.Status())
	default:
		return fmt.Errorf("unknown command %q", fields[0])
	}
	return nil
}

// ParseSpeeds parses exactly six integer speeds
func ParseSpeeds(args []string) (Speeds, error) {
	var speeds Speeds
	if len(args) != len(speeds) {
		return Speeds{}, fmt.Errorf("expected %d speeds but got %d", len(speeds), len(args))
	}
	for i, arg := range args {
		s, err := strconv.Atoi(arg)
		if err != nil {
			return Speeds{}, fmt.Errorf("invalid speed %q for motor %d", arg, i)
		}
		speeds[i] = s
	}
	return speeds, nil
}

func (s Status) String() string {
	state := "disconnected"
	if s.Connected {
		state = "connected"
	}

	speeds := make([]string, len(s.Speeds))
	for i, v := range s.Speeds {
		speeds[i] = strconv.Itoa(v)
	}

	last := "-"
	if !s.LastCommand.IsZero() {
		last = time.Since(s.LastCommand).Truncate(time.Millisecond).String()
	}

	return fmt.Sprintf("%s speeds=%s last=%s", state, strings.Join(speeds, ","), last)
}
