package sh

import (
	"context"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	fx "github.com/robotalks/evtherm/pkg/framework"
	"github.com/robotalks/evtherm/pkg/link"
	"github.com/robotalks/evtherm/pkg/sim/uarthw"
	"github.com/robotalks/evtherm/pkg/thermal"
	"github.com/robotalks/evtherm/pkg/uart"
)

// Bench is a driver on simulated hardware operated by text commands.
// Every operation takes the command arguments and returns the text to
// print.
type Bench struct {
	Driver *uart.Driver
	HW     *uarthw.Hardware
	Bridge *uart.Bridge
	Loop   *fx.Loop

	parsers [uart.NumChannels]link.Parser
}

// NewBench creates a Bench on hw.
func NewBench(hw *uarthw.Hardware) (*Bench, error) {
	d, err := uart.NewDriver(hw)
	if err != nil {
		return nil, err
	}
	b := &Bench{Driver: d, HW: hw, Bridge: uart.NewBridge(d)}
	b.Loop = fx.NewLoop().Add(b.Bridge)
	return b, nil
}

func argChannel(args []string) (uart.Channel, []string, error) {
	if len(args) < 1 {
		return 0, nil, fmt.Errorf("CHANNEL required")
	}
	ch, err := uart.ParseChannel(args[0])
	if err != nil {
		return 0, nil, fmt.Errorf("%q: %w", args[0], err)
	}
	return ch, args[1:], nil
}

// ParseData parses the payload arguments. With a leading -x the rest is
// hex, e.g. "-x 3c 01"; otherwise the arguments are text joined by
// single spaces.
func ParseData(args []string) ([]byte, error) {
	if len(args) > 0 && args[0] == "-x" {
		return hex.DecodeString(strings.Join(args[1:], ""))
	}
	return []byte(strings.Join(args, " ")), nil
}

// FormatData renders bytes as hex followed by the printable text.
func FormatData(p []byte) string {
	if len(p) == 0 {
		return "(empty)"
	}
	return fmt.Sprintf("% x  %q", p, p)
}

// Init handles: CHANNEL BAUD [DATABITS [PARITY [STOPBITS]]].
func (b *Bench) Init(args []string) (string, error) {
	ch, args, err := argChannel(args)
	if err != nil {
		return "", err
	}
	if len(args) < 1 {
		return "", fmt.Errorf("BAUD required")
	}
	conf := uart.Config{DataBits: 8, Parity: uart.ParityNone, StopBits: 1}
	baud, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		return "", fmt.Errorf("invalid BAUD: %w", err)
	}
	conf.BaudRate = uint32(baud)
	if len(args) > 1 {
		val, err := strconv.ParseUint(args[1], 10, 8)
		if err != nil {
			return "", fmt.Errorf("invalid DATABITS: %w", err)
		}
		conf.DataBits = uint8(val)
	}
	if len(args) > 2 {
		if conf.Parity, err = uart.ParseParity(args[2]); err != nil {
			return "", fmt.Errorf("invalid PARITY %q: %w", args[2], err)
		}
	}
	if len(args) > 3 {
		val, err := strconv.ParseUint(args[3], 10, 8)
		if err != nil {
			return "", fmt.Errorf("invalid STOPBITS: %w", err)
		}
		conf.StopBits = uint8(val)
	}
	if err := b.Driver.InitConfig(ch, conf); err != nil {
		return "", err
	}
	return fmt.Sprintf("%v: %v", ch, conf.Effective(ch)), nil
}

// Deinit handles: CHANNEL.
func (b *Bench) Deinit(args []string) (string, error) {
	ch, _, err := argChannel(args)
	if err != nil {
		return "", err
	}
	return "OK", b.Driver.Deinit(ch)
}

// Write handles: CHANNEL [-x] DATA...
func (b *Bench) Write(args []string) (string, error) {
	ch, args, err := argChannel(args)
	if err != nil {
		return "", err
	}
	data, err := ParseData(args)
	if err != nil {
		return "", err
	}
	n, err := b.Driver.Write(ch, data)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d/%d written", n, len(data)), nil
}

// Read handles: CHANNEL [MAX].
func (b *Bench) Read(args []string) (string, error) {
	ch, args, err := argChannel(args)
	if err != nil {
		return "", err
	}
	limit := uart.BufferSize
	if len(args) > 0 {
		if limit, err = strconv.Atoi(args[0]); err != nil || limit < 0 {
			return "", fmt.Errorf("invalid MAX %q", args[0])
		}
	}
	buf := make([]byte, limit)
	n, err := b.Driver.Read(ch, buf)
	if err != nil {
		return "", err
	}
	return FormatData(buf[:n]), nil
}

// Task runs the bridge task once.
func (b *Bench) Task([]string) (string, error) {
	if err := b.Driver.Task(); err != nil {
		return err.Error(), nil
	}
	return "OK", nil
}

// TxStatus handles: CHANNEL.
func (b *Bench) TxStatus(args []string) (string, error) {
	ch, _, err := argChannel(args)
	if err != nil {
		return "", err
	}
	n, err := b.Driver.TxStatus(ch)
	if err != nil {
		return "", err
	}
	return strconv.Itoa(n), nil
}

// RxStatus handles: CHANNEL. A pending receive condition is printed
// after the count.
func (b *Bench) RxStatus(args []string) (string, error) {
	ch, _, err := argChannel(args)
	if err != nil {
		return "", err
	}
	n, err := b.Driver.RxStatus(ch)
	if err != nil && uart.Rank(err) == 0 {
		return "", err
	}
	if err != nil {
		return fmt.Sprintf("%d (%v)", n, err), nil
	}
	return strconv.Itoa(n), nil
}

// Flags handles: CHANNEL, the flags are cleared.
func (b *Bench) Flags(args []string) (string, error) {
	ch, _, err := argChannel(args)
	if err != nil {
		return "", err
	}
	f, err := b.Driver.Flags(ch)
	if err != nil {
		return "", err
	}
	return f.String(), nil
}

// Status handles: [CHANNEL], all channels without argument.
func (b *Bench) Status(args []string) ([]uart.ChannelStatus, error) {
	channels := uart.Channels[:]
	if len(args) > 0 {
		ch, _, err := argChannel(args)
		if err != nil {
			return nil, err
		}
		channels = []uart.Channel{ch}
	}
	var out []uart.ChannelStatus
	for _, ch := range channels {
		st, err := b.Driver.Snapshot(ch)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}

// FormatStatus renders a channel status on one line.
func FormatStatus(st uart.ChannelStatus) string {
	if st.State != uart.StateConfigured {
		return fmt.Sprintf("%-5v %s", st.Channel, st.State)
	}
	return fmt.Sprintf("%-5v %-4v %v tx=%d rx=%d flags=%v sent=%d recv=%d dropped=%d",
		st.Channel, st.Mode, st.Effective, st.TxPending, st.RxPending, st.Flags,
		st.Stats.BytesSent, st.Stats.BytesReceived, st.Stats.BytesDropped)
}

// Inject handles: CHANNEL [-p] [-x] DATA..., -p delivers with parity errors.
func (b *Bench) Inject(args []string) (string, error) {
	ch, args, err := argChannel(args)
	if err != nil {
		return "", err
	}
	parity := len(args) > 0 && args[0] == "-p"
	if parity {
		args = args[1:]
	}
	data, err := ParseData(args)
	if err != nil {
		return "", err
	}
	var n int
	if parity {
		for _, c := range data {
			if b.HW.InjectParityError(ch, c) {
				n++
			}
		}
	} else {
		n = b.HW.Inject(ch, data...)
	}
	return fmt.Sprintf("%d/%d received by hardware", n, len(data)), nil
}

// Shift handles: CHANNEL [N], the line consumes N symbols, all by default.
func (b *Bench) Shift(args []string) (string, error) {
	ch, args, err := argChannel(args)
	if err != nil {
		return "", err
	}
	n := -1
	if len(args) > 0 {
		if n, err = strconv.Atoi(args[0]); err != nil {
			return "", fmt.Errorf("invalid N %q", args[0])
		}
	}
	symbols := b.HW.Shift(ch, n)
	if len(symbols) == 0 {
		return "(empty)", nil
	}
	items := make([]string, len(symbols))
	for i, s := range symbols {
		if s.Break {
			items[i] = "BRK"
		} else {
			items[i] = fmt.Sprintf("%02x", s.Data)
		}
	}
	return strings.Join(items, " "), nil
}

// Loopback handles: on|off.
func (b *Bench) Loopback(args []string) (string, error) {
	if len(args) > 0 {
		switch args[0] {
		case "on":
			b.HW.Loopback = true
		case "off":
			b.HW.Loopback = false
		default:
			return "", fmt.Errorf("on or off expected")
		}
	}
	if b.HW.Loopback {
		return "loopback on", nil
	}
	return "loopback off", nil
}

// Cycle handles: [N], runs N control cycles and prints the most severe
// receive condition the bridge reported during them.
func (b *Bench) Cycle(args []string) (string, error) {
	n := 1
	if len(args) > 0 {
		var err error
		if n, err = strconv.Atoi(args[0]); err != nil || n < 1 {
			return "", fmt.Errorf("invalid N %q", args[0])
		}
	}
	var worst error
	for i := 0; i < n; i++ {
		b.Loop.Step(context.Background())
		if err := b.Bridge.Condition(); uart.Rank(err) > uart.Rank(worst) {
			worst = err
		}
	}
	cond := "OK"
	if worst != nil {
		cond = worst.Error()
	}
	return fmt.Sprintf("cycle %d: %s", b.Loop.Cycles(), cond), nil
}

// Frames handles: CHANNEL, reads all received bytes and prints the link
// packets completed, thermal status packets decoded.
func (b *Bench) Frames(args []string) (string, error) {
	ch, _, err := argChannel(args)
	if err != nil {
		return "", err
	}
	buf := make([]byte, uart.BufferSize)
	n, err := b.Driver.Read(ch, buf)
	if err != nil {
		return "", err
	}
	p := &b.parsers[ch]
	packets := p.Feed(buf[:n])
	if len(packets) == 0 {
		return fmt.Sprintf("(no packets, synced=%v)", p.Synced()), nil
	}
	lines := make([]string, 0, len(packets))
	for _, pkt := range packets {
		if temps, act, err := thermal.ParseStatusPacket(pkt); err == nil {
			lines = append(lines, fmt.Sprintf("#%d status c=%.1f m=%.1f b=%.1f %v",
				pkt.Seq, temps.Coolant, temps.Motor, temps.Battery, act))
			continue
		}
		lines = append(lines, fmt.Sprintf("#%d code=%02x %s", pkt.Seq, pkt.Code, FormatData(pkt.Data)))
	}
	return strings.Join(lines, "\n"), nil
}
