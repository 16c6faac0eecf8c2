package commands

import (
	"context"
	"errors"
	"time"

	"github.com/calvinmclean/stewart"
)

var (
	// ErrTimeout is returned by a Port when a receive did not fill its buffer in time
	ErrTimeout = errors.New("receive timeout")

	ErrNotConnected = errors.New("not connected")
)

// Port is the byte link to the host. Receive returns the number of bytes read and ErrTimeout when the
// buffer was not filled before the timeout
type Port interface {
	Receive(buf []byte, timeout time.Duration) (int, error)
	Transmit(b []byte) error
}

// Controller runs motor cycles for the Handler
type Controller interface {
	// Drive converts the frame and runs one scheduling window
	Drive(stewart.MotorCommandFrame)
	StopAll()
}

type Command struct {
	Flag        byte
	InputSize   uint
	Run         func(*Handler, []byte) error
	Description string
}

var (
	MotorCommand = &Command{
		Flag:      stewart.MotorFlag,
		InputSize: stewart.FrameSize,
		Run: func(h *Handler, input []byte) error {
			var frame stewart.MotorCommandFrame
			err := frame.UnmarshalBinary(input)
			if err != nil {
				return err
			}
			if h.cfg.RequireFresh && !frame.Fresh {
				h.debug("ignoring stale frame")
				return nil
			}

			h.frame = frame
			h.pending = true
			return nil
		},
		Description: "Set the speed of all six motors. Input: 6 signed bytes (-100..100) and a flag byte.",
	}
	// ReconnectCommand is only registered when Config.AckReconnect is set
	ReconnectCommand = &Command{
		Flag:      stewart.ConnectFlag,
		InputSize: 0,
		Run: func(h *Handler, _ []byte) error {
			return h.acknowledge()
		},
		Description: "Repeat the handshake acknowledgment for a reconnecting host.",
	}
)

var commands = []*Command{
	MotorCommand,
}

// Result describes one Poll iteration
type Result struct {
	// CommandID is the received command byte. It is only meaningful when Timeout is false
	CommandID byte
	// Timeout is set when either the command id or its payload did not arrive in time. Bytes of a partial
	// payload are discarded and the previous frame is kept, unlike a receive straight into the frame buffer
	Timeout bool
	// Received is set when a new frame replaced the previous one
	Received bool
	// Ran is set when a scheduling window was executed
	Ran bool
	// Stopped is set when the motors were stopped by PolicyStop
	Stopped bool
}

// Handler owns the handshake and the receive/parse/dispatch loop. It is the only writer of the frame
type Handler struct {
	port       Port
	controller Controller
	cfg        Config
	cmdMap     map[byte]*Command

	// sleep paces retries after port errors. Defaults to time.Sleep
	sleep func(time.Duration)

	state   State
	frame   stewart.MotorCommandFrame
	pending bool
}

func NewHandler(port Port, c Controller, cfg Config) *Handler {
	cfg.setDefaults()

	cmdMap := map[byte]*Command{}
	for _, cmd := range commands {
		cmdMap[cmd.Flag] = cmd
	}
	if cfg.AckReconnect {
		cmdMap[ReconnectCommand.Flag] = ReconnectCommand
	}

	return &Handler{
		port:       port,
		controller: c,
		cfg:        cfg,
		cmdMap:     cmdMap,
		sleep:      time.Sleep,
		state:      StateDisconnected,
	}
}

// State returns the current protocol state
func (h *Handler) State() State {
	return h.state
}

// Frame returns a copy of the current command frame
func (h *Handler) Frame() stewart.MotorCommandFrame {
	return h.frame
}

// AwaitConnection blocks until the host sends the connect byte, then acknowledges it. Every other byte is
// discarded. It returns early only when ctx is done or the acknowledgment cannot be transmitted
func (h *Handler) AwaitConnection(ctx context.Context) error {
	b := make([]byte, 1)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		_, err := h.port.Receive(b, h.cfg.ConnectPollTimeout)
		if err != nil {
			if !errors.Is(err, ErrTimeout) {
				h.debug("error waiting for connection: " + err.Error())
			}
			continue
		}
		if b[0] != stewart.ConnectFlag {
			continue
		}

		err = h.acknowledge()
		if err != nil {
			return errors.New("error acknowledging connection: " + err.Error())
		}
		h.state = StateConnectedIdle
		h.debug("connected")
		return nil
	}
}

func (h *Handler) acknowledge() error {
	for range stewart.AckCount {
		err := h.port.Transmit([]byte(stewart.Ack))
		if err != nil {
			return err
		}
	}
	return nil
}

// Poll runs one loop iteration: receive a command id, receive its payload when the id is known, then apply
// the stale command policy. Receive errors other than timeouts are returned without running a cycle
func (h *Handler) Poll(ctx context.Context) (Result, error) {
	if h.state == StateDisconnected {
		return Result{}, ErrNotConnected
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	var result Result
	err := h.receiveCommand(&result)
	if err != nil {
		return result, err
	}

	result.Received = h.pending
	h.dispatch(&result)
	return result, nil
}

func (h *Handler) receiveCommand(result *Result) error {
	id := make([]byte, 1)
	_, err := h.port.Receive(id, h.cfg.CommandTimeout)
	switch {
	case errors.Is(err, ErrTimeout):
		result.Timeout = true
		return nil
	case err != nil:
		return err
	}
	result.CommandID = id[0]

	cmd, ok := h.cmdMap[id[0]]
	if !ok {
		return nil
	}

	h.state = StateAwaitingPayload
	defer func() { h.state = StateConnectedIdle }()

	in := make([]byte, cmd.InputSize)
	if cmd.InputSize > 0 {
		_, err = h.port.Receive(in, h.cfg.PayloadTimeout)
		switch {
		case errors.Is(err, ErrTimeout):
			h.debug("timed out waiting for payload")
			result.Timeout = true
			return nil
		case err != nil:
			return err
		}
	}

	err = cmd.Run(h, in)
	if err != nil {
		println("error:", err.Error())
	}
	return nil
}

func (h *Handler) dispatch(result *Result) {
	switch {
	case h.pending || h.cfg.Policy == PolicyRepeat:
		h.controller.Drive(h.frame)
		h.frame.Fresh = false
		h.pending = false
		result.Ran = true
	case h.cfg.Policy == PolicyStop:
		h.controller.StopAll()
		result.Stopped = true
	}
}

// Run waits for the host to connect and then polls until ctx is done. A port error is followed by a pause of
// CommandTimeout before the next poll
func (h *Handler) Run(ctx context.Context) error {
	err := h.AwaitConnection(ctx)
	if err != nil {
		return err
	}

	for {
		_, err := h.Poll(ctx)
		if err == nil {
			continue
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		println("error:", err.Error())
		h.sleep(h.cfg.CommandTimeout)
	}
}

func (h *Handler) debug(msg string) {
	if h.cfg.Verbose {
		println("[" + h.state.String() + "]", msg)
	}
}
