package uart

import "fmt"

// Channel identifies one of the fixed serial channels.
type Channel int

// Channels, aliased by role.
const (
	ChannelRS232 Channel = iota
	ChannelLIN
	ChannelAux

	// NumChannels is the number of channels managed by a Driver.
	NumChannels = 3
)

// Channels lists all channels in bridge order.
var Channels = [NumChannels]Channel{ChannelRS232, ChannelLIN, ChannelAux}

// IsValid indicates the channel is a known identifier.
func (c Channel) IsValid() bool {
	return c >= 0 && c < NumChannels
}

// Mode returns the fixed transport mode of the channel.
func (c Channel) Mode() Mode {
	if c == ChannelLIN {
		return ModeLIN
	}
	return ModeRaw
}

// String implements fmt.Stringer.
func (c Channel) String() string {
	switch c {
	case ChannelRS232:
		return "rs232"
	case ChannelLIN:
		return "lin"
	case ChannelAux:
		return "aux"
	default:
		return fmt.Sprintf("channel(%d)", int(c))
	}
}

// ParseChannel resolves a channel from its name or index.
func ParseChannel(s string) (Channel, error) {
	for _, ch := range Channels {
		if s == ch.String() || s == fmt.Sprint(int(ch)) {
			return ch, nil
		}
	}
	return 0, ErrInvalidChannel
}

// Mode is the transport mode of a channel.
type Mode int

// Modes
const (
	ModeRaw Mode = iota
	ModeLIN
)

// String implements fmt.Stringer.
func (m Mode) String() string {
	if m == ModeLIN {
		return "lin"
	}
	return "raw"
}

// Parity is the parity setting of a channel.
type Parity uint8

// Parities
const (
	ParityNone Parity = iota
	ParityEven
	ParityOdd
)

// IsValid indicates the parity is one of the supported settings.
func (p Parity) IsValid() bool {
	return p <= ParityOdd
}

// String implements fmt.Stringer.
func (p Parity) String() string {
	switch p {
	case ParityNone:
		return "none"
	case ParityEven:
		return "even"
	case ParityOdd:
		return "odd"
	default:
		return fmt.Sprintf("parity(%d)", uint8(p))
	}
}

// ParseParity parses "none", "even", "odd" or the N/E/O shorthand.
func ParseParity(s string) (Parity, error) {
	switch s {
	case "none", "n", "N":
		return ParityNone, nil
	case "even", "e", "E":
		return ParityEven, nil
	case "odd", "o", "O":
		return ParityOdd, nil
	}
	return 0, ErrInvalidParameter
}

// Baud rate limits.
const (
	MinBaudRate    uint32 = 1200
	MaxBaudRate    uint32 = 115200
	MaxLINBaudRate uint32 = 20000
)

// Config is the line configuration of a channel.
type Config struct {
	BaudRate uint32
	DataBits uint8
	Parity   Parity
	StopBits uint8
}

// String implements fmt.Stringer, e.g. "19200 8N1".
func (c Config) String() string {
	return fmt.Sprintf("%d %d%c%d", c.BaudRate, c.DataBits, "NEO?"[min(int(c.Parity), 3)], c.StopBits)
}

// BaudRange returns the allowed baud range of the channel.
func (c Channel) BaudRange() (lo, hi uint32) {
	if c.Mode() == ModeLIN {
		return MinBaudRate, MaxLINBaudRate
	}
	return MinBaudRate, MaxBaudRate
}

// Validate checks the configuration against the limits of the channel.
func (c Config) Validate(ch Channel) error {
	lo, hi := ch.BaudRange()
	switch {
	case c.BaudRate < lo || c.BaudRate > hi:
		return fmt.Errorf("baud rate %d out of range [%d, %d]: %w", c.BaudRate, lo, hi, ErrInvalidParameter)
	case c.DataBits < 1 || c.DataBits > 8:
		return fmt.Errorf("data bits %d out of range [1, 8]: %w", c.DataBits, ErrInvalidParameter)
	case c.StopBits < 1 || c.StopBits > 2:
		return fmt.Errorf("stop bits %d out of range [1, 2]: %w", c.StopBits, ErrInvalidParameter)
	case !c.Parity.IsValid():
		return fmt.Errorf("%v: %w", c.Parity, ErrInvalidParameter)
	}
	return nil
}

// Effective returns the format actually applied on the channel.
// LIN channels always run 8N1 regardless of the stored format.
func (c Config) Effective(ch Channel) Config {
	if ch.Mode() == ModeLIN {
		c.DataBits, c.Parity, c.StopBits = 8, ParityNone, 1
	}
	return c
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
