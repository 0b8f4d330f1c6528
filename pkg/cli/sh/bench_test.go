package sh

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/evtherm/pkg/link"
	"github.com/robotalks/evtherm/pkg/sim/uarthw"
	"github.com/robotalks/evtherm/pkg/thermal"
	"github.com/robotalks/evtherm/pkg/uart"
)

func newBench(t *testing.T) *Bench {
	b, err := NewBench(uarthw.New())
	require.NoError(t, err)
	return b
}

func run(t *testing.T, fn func([]string) (string, error), args ...string) string {
	out, err := fn(args)
	require.NoError(t, err)
	return out
}

func TestParseData(t *testing.T) {
	data, err := ParseData([]string{"-x", "3c", "0102"})
	require.NoError(t, err)
	require.Equal(t, []byte{0x3c, 1, 2}, data)
	data, err = ParseData([]string{"hello", "world"})
	require.NoError(t, err)
	require.Equal(t, []byte("hello world"), data)
	_, err = ParseData([]string{"-x", "zz"})
	require.Error(t, err)
	require.Equal(t, `68 69  "hi"`, FormatData([]byte("hi")))
}

func TestBenchSession(t *testing.T) {
	b := newBench(t)
	require.Equal(t, "lin: 19200 8N1", run(t, b.Init, "lin", "19200", "7", "E", "2"))
	require.Equal(t, "rs232: 9600 8N1", run(t, b.Init, "rs232", "9600"))

	_, err := b.Init([]string{"rs232", "9600"})
	require.ErrorIs(t, err, uart.ErrChannelBusy)
	_, err = b.Init([]string{"aux", "200000"})
	require.ErrorIs(t, err, uart.ErrInvalidParameter)
	_, err = b.Write([]string{"can", "x"})
	require.ErrorIs(t, err, uart.ErrInvalidChannel)

	require.Equal(t, "3/3 written", run(t, b.Write, "lin", "-x", "010203"))
	require.Equal(t, "5", run(t, b.TxStatus, "lin"))
	require.Equal(t, "OK", run(t, b.Task))
	require.Equal(t, "BRK 55 01 02 03", run(t, b.Shift, "lin"))
	require.Equal(t, "(empty)", run(t, b.Shift, "lin"))

	require.Equal(t, "2/2 received by hardware", run(t, b.Inject, "rs232", "-p", "ok"))
	require.Contains(t, run(t, b.Task), "parity error")
	require.Equal(t, "2 (uart rxstatus rs232: parity error)", run(t, b.RxStatus, "rs232"))
	require.Equal(t, `6f 6b  "ok"`, run(t, b.Read, "rs232"))
	require.Equal(t, "parity error", run(t, b.Flags, "rs232"))
	require.Equal(t, "cycle 1: OK", run(t, b.Cycle))

	// the bridge acknowledges conditions raised while cycling
	run(t, b.Inject, "rs232", "-p", "x")
	require.Contains(t, run(t, b.Cycle, "2"), "parity error")
	require.Equal(t, "1", run(t, b.RxStatus, "rs232"))
	require.Equal(t, "cycle 4: OK", run(t, b.Cycle))
	run(t, b.Read, "rs232")

	list, err := b.Status(nil)
	require.NoError(t, err)
	require.Len(t, list, 3)
	require.Equal(t, "aux   uninitialized", FormatStatus(list[2]))
	require.Contains(t, FormatStatus(list[0]), "9600 8N1 tx=0 rx=0 flags=ok")

	require.Equal(t, "OK", run(t, b.Deinit, "lin"))
	_, err = b.TxStatus([]string{"lin"})
	require.ErrorIs(t, err, uart.ErrNotConfigured)
}

func TestBenchLoopback(t *testing.T) {
	b := newBench(t)
	run(t, b.Init, "aux", "115200")
	require.Equal(t, "loopback on", run(t, b.Loopback, "on"))
	run(t, b.Write, "aux", "ping")
	run(t, b.Cycle)
	run(t, b.Shift, "aux")
	run(t, b.Cycle)
	require.Equal(t, `70 69 6e 67  "ping"`, run(t, b.Read, "aux", "16"))
	_, err := b.Loopback([]string{"maybe"})
	require.Error(t, err)
}

func TestBenchArgErrors(t *testing.T) {
	b := newBench(t)
	_, err := b.Init(nil)
	require.Error(t, err)
	_, err = b.Init([]string{"aux"})
	require.Error(t, err)
	_, err = b.Init([]string{"aux", "9600", "8", "mark"})
	require.ErrorIs(t, err, uart.ErrInvalidParameter)
	_, err = b.Cycle([]string{"0"})
	require.Error(t, err)
	_, err = b.Shift([]string{"aux", "x"})
	require.Error(t, err)
}

func TestBenchFrames(t *testing.T) {
	b := newBench(t)
	run(t, b.Init, "aux", "57600")
	require.Equal(t, "(no packets, synced=false)", run(t, b.Frames, "aux"))

	f := link.NewFramer()
	status, err := f.Frame(thermal.StatusCode, thermal.StatusPayload(
		thermal.Temperatures{Coolant: 47, Motor: 55.5, Battery: 31},
		thermal.Actuation{Pump: true}))
	require.NoError(t, err)
	other, err := f.Frame(2, []byte{0xaa})
	require.NoError(t, err)
	require.Equal(t, len(status), b.HW.Inject(uart.ChannelAux, status...))
	require.NoError(t, b.Driver.Task())
	require.Equal(t, len(other), b.HW.Inject(uart.ChannelAux, other...))
	require.NoError(t, b.Driver.Task())

	require.Equal(t, "#1 status c=47.0 m=55.5 b=31.0 P=1 MF=0 BF=0\n#2 code=02 aa  \"\\xaa\"",
		run(t, b.Frames, "aux"))
}
