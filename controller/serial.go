package controller

import (
	"errors"
	"fmt"
	"time"

	"go.bug.st/serial/enumerator"
)

// SerialPortNone runs the Controller without a board
const SerialPortNone = "None"

var ErrNoUSBSerial = errors.New("no USB serial ports found")

// GetSerialPorts lists USB serial ports. It returns ErrNoUSBSerial when there are none
func GetSerialPorts() ([]string, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("error listing serial ports: %w", err)
	}

	var result []string
	for _, port := range ports {
		if port.IsUSB {
			result = append(result, port.Name)
		}
	}

	if len(result) == 0 {
		return nil, ErrNoUSBSerial
	}

	return result, nil
}

type discardPort struct{}

var _ Port = &discardPort{}

func (*discardPort) Read([]byte) (int, error)           { return 0, nil }
func (*discardPort) Write(b []byte) (int, error)        { return len(b), nil }
func (*discardPort) Close() error                       { return nil }
func (*discardPort) SetReadTimeout(time.Duration) error { return nil }
func (*discardPort) ResetInputBuffer() error            { return nil }
