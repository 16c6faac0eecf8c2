package shell

import (
	"context"
	"errors"

	"github.com/abiosoft/ishell"

	"github.com/calvinmclean/stewart/controller"
)

const (
	controllerKey     = "$controller"
	unconnectedPrompt = "[none] > "
	connectedPrompt   = "[stewart] > "
)

var commands = []*ishell.Cmd{
	{
		Name: "connect",
		Help: "perform the handshake with the board",
		Func: func(c *ishell.Context) {
			err := controllerFrom(c).Connect(context.Background())
			if err != nil {
				c.Err(err)
				return
			}
			c.SetPrompt(connectedPrompt)
			c.Println("connected")
		},
	},
	{
		Name: "speeds",
		Help: "speeds a b c d e f: set all six motor speeds (-100..100)",
		Func: mustBeConnected(func(c *ishell.Context) {
			speeds, err := controller.ParseSpeeds(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			err = controllerFrom(c).SetSpeeds(speeds)
			if err != nil {
				c.Err(err)
				return
			}
			c.Println("OK")
		}),
	},
	{
		Name: "stop",
		Help: "stop every motor",
		Func: mustBeConnected(func(c *ishell.Context) {
			err := controllerFrom(c).Stop()
			if err != nil {
				c.Err(err)
				return
			}
			c.Println("OK")
		}),
	},
	{
		Name: "status",
		Help: "show the connection state and last speeds",
		Func: func(c *ishell.Context) {
			c.Println(controllerFrom(c).Status())
		},
	},
	{
		Name: "ports",
		Help: "list USB serial ports",
		Func: func(c *ishell.Context) {
			ports, err := controller.GetSerialPorts()
			if errors.Is(err, controller.ErrNoUSBSerial) {
				c.Println("no USB serial ports")
				return
			}
			if err != nil {
				c.Err(err)
				return
			}
			for _, p := range ports {
				c.Println(p)
			}
		},
	},
}

// New creates an interactive shell for the Controller
func New(ctrl *controller.Controller) *ishell.Shell {
	sh := ishell.New()
	sh.Set(controllerKey, ctrl)
	sh.SetPrompt(unconnectedPrompt)
	if ctrl.Status().Connected {
		sh.SetPrompt(connectedPrompt)
	}
	for _, cmd := range commands {
		sh.AddCmd(cmd)
	}
	return sh
}

func controllerFrom(c *ishell.Context) *controller.Controller {
	return c.Get(controllerKey).(*controller.Controller)
}

func mustBeConnected(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if !controllerFrom(c).Status().Connected {
			c.Err(controller.ErrNotConnected)
			return
		}
		fn(c)
	}
}
