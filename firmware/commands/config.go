package commands

import "time"

// State of the serial protocol
type State int

const (
	StateDisconnected State = iota
	StateConnectedIdle
	StateAwaitingPayload
)

func (s State) String() string {
	switch s {
	case StateConnectedIdle:
		return "Connected"
	case StateAwaitingPayload:
		return "AwaitingPayload"
	default:
		fallthrough
	case StateDisconnected:
		return "Disconnected"
	}
}

// Policy decides what happens on an iteration that did not receive a new frame
type Policy int

const (
	// PolicyRepeat runs the previous frame again, so motors keep moving between commands
	PolicyRepeat Policy = iota
	// PolicyStop de-energizes all motors until the next frame arrives
	PolicyStop
	// PolicyFreshOnly runs a window only for newly received frames and otherwise leaves the coils untouched
	PolicyFreshOnly
)

func (p Policy) String() string {
	switch p {
	case PolicyStop:
		return "Stop"
	case PolicyFreshOnly:
		return "FreshOnly"
	default:
		return "Repeat"
	}
}

const (
	defaultCommandTimeout     = 1 * time.Millisecond
	defaultPayloadTimeout     = 2 * time.Millisecond
	defaultConnectPollTimeout = 1 * time.Second
)

// Config ...
type Config struct {
	// CommandTimeout bounds the wait for a command id on each iteration
	CommandTimeout time.Duration
	// PayloadTimeout bounds the wait for a command's payload after its id arrived
	PayloadTimeout time.Duration
	// ConnectPollTimeout is how long each receive waits while disconnected. Cancellation is checked between polls
	ConnectPollTimeout time.Duration

	Policy Policy
	// RequireFresh ignores frames whose flag byte is 0
	RequireFresh bool
	// AckReconnect answers a connect byte with the acknowledgment even after the handshake completed
	AckReconnect bool

	Verbose bool
}

func (c *Config) setDefaults() {
	if c.CommandTimeout == 0 {
		c.CommandTimeout = defaultCommandTimeout
	}
	if c.PayloadTimeout == 0 {
		c.PayloadTimeout = defaultPayloadTimeout
	}
	if c.ConnectPollTimeout == 0 {
		c.ConnectPollTimeout = defaultConnectPollTimeout
	}
}
