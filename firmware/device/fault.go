package device

import "time"

// haltWait is how often a halted device repeats its fault message
var haltWait = 5 * time.Second

// Halt is the unrecoverable fault hook for board bring-up and the Device. It never returns: the error is
// repeated on the console so that a late-attached host still sees it
func Halt(err error) {
	msg := "fault"
	if err != nil {
		msg = "fault: " + err.Error()
	}
	for {
		println(msg)
		time.Sleep(haltWait)
	}
}
