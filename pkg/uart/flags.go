package uart

import (
	"errors"
	"strings"
)

// Flags is the set of sticky receive conditions of a channel.
type Flags uint8

// Condition bits
const (
	// FlagRxBufferFull: received bytes were dropped, the software ring was full.
	FlagRxBufferFull Flags = 1 << iota
	// FlagOverrun: the hardware receive FIFO lost data before it was drained.
	FlagOverrun
	// FlagParity: at least one received byte failed the parity check.
	FlagParity
)

// severity lists conditions from most to least severe.
var severity = []struct {
	flag Flags
	err  error
}{
	{FlagOverrun, ErrOverflow},
	{FlagRxBufferFull, ErrBufferFull},
	{FlagParity, ErrParity},
}

// Has indicates all bits of f2 are set.
func (f Flags) Has(f2 Flags) bool {
	return f&f2 == f2
}

// Err returns the error of the most severe condition, nil if none.
func (f Flags) Err() error {
	for _, s := range severity {
		if f&s.flag != 0 {
			return s.err
		}
	}
	return nil
}

// String implements fmt.Stringer.
func (f Flags) String() string {
	if f == 0 {
		return "ok"
	}
	var names []string
	for _, s := range severity {
		if f&s.flag != 0 {
			names = append(names, s.err.Error())
		}
	}
	return strings.Join(names, ",")
}

// Rank orders errors returned by Task, higher is more severe.
// Errors which are not receive conditions rank 0.
func Rank(err error) int {
	for n, s := range severity {
		if errors.Is(err, s.err) {
			return len(severity) - n
		}
	}
	return 0
}
