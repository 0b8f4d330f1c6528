// Package serialport implements uart.Hardware on host serial ports.
//
// Each channel maps to an OS serial device. A writer goroutine feeds
// the device from an emulated transmit FIFO and a reader goroutine
// fills an emulated receive FIFO, both uart.HWFifoDepth deep, so the
// driver sees the same bounded FIFOs as on the controller. The OS does
// not report parity failures per byte, ParityErr is never set.
package serialport

import (
	"fmt"
	"io"
	"time"

	"go.bug.st/serial"

	"github.com/robotalks/evtherm/pkg/uart"
)

// Port is the part of serial.Port used by the backend.
type Port interface {
	io.ReadWriteCloser
	SetMode(mode *serial.Mode) error
	SetReadTimeout(t time.Duration) error
	Break(d time.Duration) error
}

// Opener opens a port by name.
type Opener func(name string, mode *serial.Mode) (Port, error)

// OpenSerial opens an OS serial device.
func OpenSerial(name string, mode *serial.Mode) (Port, error) {
	port, err := serial.Open(name, mode)
	if err != nil {
		return nil, err
	}
	return port, nil
}

// ModeFor converts a channel configuration.
func ModeFor(conf uart.Config) (*serial.Mode, error) {
	mode := &serial.Mode{
		BaudRate: int(conf.BaudRate),
		DataBits: int(conf.DataBits),
	}
	switch conf.Parity {
	case uart.ParityNone:
		mode.Parity = serial.NoParity
	case uart.ParityEven:
		mode.Parity = serial.EvenParity
	case uart.ParityOdd:
		mode.Parity = serial.OddParity
	default:
		return nil, fmt.Errorf("%v: %w", conf.Parity, uart.ErrInvalidParameter)
	}
	switch conf.StopBits {
	case 1:
		mode.StopBits = serial.OneStopBit
	case 2:
		mode.StopBits = serial.TwoStopBits
	default:
		return nil, fmt.Errorf("stop bits %d: %w", conf.StopBits, uart.ErrInvalidParameter)
	}
	return mode, nil
}

// BreakDuration is the length of a LIN break: 13 bit times.
func BreakDuration(baudRate uint32) time.Duration {
	if baudRate == 0 {
		return 0
	}
	return 13 * time.Second / time.Duration(baudRate)
}
