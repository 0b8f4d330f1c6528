package uart

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidChannel indicates an unknown channel identifier.
	ErrInvalidChannel = errors.New("invalid channel")
	// ErrInvalidParameter indicates baud rate, data bits, parity or stop bits out of range.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrChannelBusy indicates Init on an already configured channel.
	ErrChannelBusy = errors.New("channel busy")
	// ErrNotConfigured indicates an operation before Init or after Deinit.
	ErrNotConfigured = errors.New("channel not configured")
	// ErrNullPointer indicates a required buffer or collaborator is missing.
	ErrNullPointer = errors.New("null pointer")
	// ErrBufferFull indicates the transmit ring accepted nothing, or
	// received bytes were dropped because the receive ring was full.
	ErrBufferFull = errors.New("buffer full")
	// ErrOverflow indicates the hardware receive FIFO lost data.
	ErrOverflow = errors.New("hardware overflow")
	// ErrParity indicates a received byte failed the parity check.
	ErrParity = errors.New("parity error")
)

// Error wraps an error with the operation and channel.
type Error struct {
	Op      string
	Channel Channel
	Err     error
}

// Error implements error.
func (e *Error) Error() string {
	return fmt.Sprintf("uart %s %v: %v", e.Op, e.Channel, e.Err)
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	return e.Err
}

func opError(op string, ch Channel, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Channel: ch, Err: err}
}
