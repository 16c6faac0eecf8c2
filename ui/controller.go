package ui

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/calvinmclean/stewart/controller"
)

// controllerWrapper turns UI events into line commands for controller.Run
type controllerWrapper struct {
	writer           io.Writer
	lastCommandTimer *timer

	mtx    sync.Mutex
	speeds controller.Speeds
}

func (c *controllerWrapper) SetSpeed(motor int, value float64) {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	c.speeds[motor] = int(value)
	c.send(speedsCommand(c.speeds))
}

func (c *controllerWrapper) Stop() {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	c.speeds = controller.Speeds{}
	c.send("stop")
}

func (c *controllerWrapper) Status() {
	fmt.Fprintln(c.writer, "status")
}

func (c *controllerWrapper) send(cmd string) {
	if c.lastCommandTimer != nil {
		c.lastCommandTimer.Set(time.Now())
	}
	fmt.Fprintln(c.writer, cmd)
}

func speedsCommand(speeds controller.Speeds) string {
	fields := make([]string, 0, len(speeds)+1)
	fields = append(fields, "speeds")
	for _, s := range speeds {
		fields = append(fields, strconv.Itoa(s))
	}
	return strings.Join(fields, " ")
}
