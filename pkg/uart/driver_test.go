package uart_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/evtherm/pkg/sim/uarthw"
	"github.com/robotalks/evtherm/pkg/uart"
)

func newDriver(t *testing.T) (*uart.Driver, *uarthw.Hardware) {
	hw := uarthw.New()
	d, err := uart.NewDriver(hw)
	require.NoError(t, err)
	return d, hw
}

func initChannel(t *testing.T, d *uart.Driver, ch uart.Channel) {
	baud := uint32(115200)
	if ch == uart.ChannelLIN {
		baud = 19200
	}
	require.NoError(t, d.Init(ch, baud, 8, uart.ParityNone, 1))
}

func seq(n int) []byte {
	p := make([]byte, n)
	for i := range p {
		p[i] = byte(i + 1)
	}
	return p
}

func TestNewDriverNilHardware(t *testing.T) {
	_, err := uart.NewDriver(nil)
	require.ErrorIs(t, err, uart.ErrNullPointer)
}

func TestInvalidChannel(t *testing.T) {
	d, _ := newDriver(t)
	bad := uart.Channel(3)
	require.ErrorIs(t, d.Init(bad, 9600, 8, uart.ParityNone, 1), uart.ErrInvalidChannel)
	require.ErrorIs(t, d.Deinit(bad), uart.ErrInvalidChannel)
	_, err := d.Write(bad, []byte{1})
	require.ErrorIs(t, err, uart.ErrInvalidChannel)
	_, err = d.Read(uart.Channel(-1), make([]byte, 1))
	require.ErrorIs(t, err, uart.ErrInvalidChannel)
	_, err = d.TxStatus(bad)
	require.ErrorIs(t, err, uart.ErrInvalidChannel)
	_, err = d.RxStatus(bad)
	require.ErrorIs(t, err, uart.ErrInvalidChannel)
	_, err = d.Snapshot(bad)
	require.ErrorIs(t, err, uart.ErrInvalidChannel)
}

func TestNotConfigured(t *testing.T) {
	d, _ := newDriver(t)
	for _, ch := range uart.Channels {
		require.ErrorIs(t, d.Deinit(ch), uart.ErrNotConfigured)
		_, err := d.Write(ch, []byte{1})
		require.ErrorIs(t, err, uart.ErrNotConfigured)
		_, err = d.Read(ch, make([]byte, 1))
		require.ErrorIs(t, err, uart.ErrNotConfigured)
		_, err = d.TxStatus(ch)
		require.ErrorIs(t, err, uart.ErrNotConfigured)
		_, err = d.RxStatus(ch)
		require.ErrorIs(t, err, uart.ErrNotConfigured)
		_, err = d.Flags(ch)
		require.ErrorIs(t, err, uart.ErrNotConfigured)
	}
	require.NoError(t, d.Task())
}

func TestInitRejectsInvalidConfig(t *testing.T) {
	d, hw := newDriver(t)
	err := d.Init(uart.ChannelRS232, 200000, 8, uart.ParityNone, 1)
	require.ErrorIs(t, err, uart.ErrInvalidParameter)
	var uerr *uart.Error
	require.ErrorAs(t, err, &uerr)
	require.Equal(t, "init", uerr.Op)
	require.Equal(t, uart.ChannelRS232, uerr.Channel)

	st, err := d.Snapshot(uart.ChannelRS232)
	require.NoError(t, err)
	require.Equal(t, uart.StateUninitialized, st.State)
	_, configured := hw.Config(uart.ChannelRS232)
	require.False(t, configured)

	require.ErrorIs(t, d.Init(uart.ChannelLIN, 115200, 8, uart.ParityNone, 1), uart.ErrInvalidParameter)
	require.ErrorIs(t, d.Init(uart.ChannelAux, 9600, 0, uart.ParityNone, 1), uart.ErrInvalidParameter)
	require.ErrorIs(t, d.Init(uart.ChannelAux, 9600, 8, uart.Parity(7), 1), uart.ErrInvalidParameter)
	require.ErrorIs(t, d.Init(uart.ChannelAux, 9600, 8, uart.ParityNone, 3), uart.ErrInvalidParameter)
}

func TestInitHardwareRejects(t *testing.T) {
	d, hw := newDriver(t)
	hw.RejectConfig(true)
	require.ErrorIs(t, d.Init(uart.ChannelAux, 9600, 8, uart.ParityNone, 1), uarthw.ErrConfigRejected)
	_, err := d.TxStatus(uart.ChannelAux)
	require.ErrorIs(t, err, uart.ErrNotConfigured)
	hw.RejectConfig(false)
	require.NoError(t, d.Init(uart.ChannelAux, 9600, 8, uart.ParityNone, 1))
}

func TestDoubleInitBusy(t *testing.T) {
	d, _ := newDriver(t)
	require.NoError(t, d.Init(uart.ChannelRS232, 9600, 7, uart.ParityEven, 2))
	n, err := d.Write(uart.ChannelRS232, []byte("abc"))
	require.NoError(t, err)
	require.Equal(t, 3, n)

	err = d.Init(uart.ChannelRS232, 115200, 8, uart.ParityNone, 1)
	require.ErrorIs(t, err, uart.ErrChannelBusy)
	// invalid parameters on a busy channel still report busy
	require.ErrorIs(t, d.Init(uart.ChannelRS232, 1, 8, uart.ParityNone, 1), uart.ErrChannelBusy)

	st, err := d.Snapshot(uart.ChannelRS232)
	require.NoError(t, err)
	require.Equal(t, uart.Config{BaudRate: 9600, DataBits: 7, Parity: uart.ParityEven, StopBits: 2}, st.Config)
	require.Equal(t, 3, st.TxPending)
}

func TestDeinitAllowsReinit(t *testing.T) {
	d, hw := newDriver(t)
	initChannel(t, d, uart.ChannelAux)
	_, err := d.Write(uart.ChannelAux, seq(10))
	require.NoError(t, err)
	hw.Inject(uart.ChannelAux, 1, 2, 3)
	hw.InjectParityError(uart.ChannelAux, 4)
	d.Task()

	require.NoError(t, d.Deinit(uart.ChannelAux))
	_, err = d.TxStatus(uart.ChannelAux)
	require.ErrorIs(t, err, uart.ErrNotConfigured)
	require.ErrorIs(t, d.Deinit(uart.ChannelAux), uart.ErrNotConfigured)

	require.NoError(t, d.Init(uart.ChannelAux, 4800, 8, uart.ParityOdd, 1))
	n, err := d.TxStatus(uart.ChannelAux)
	require.NoError(t, err)
	require.Equal(t, 0, n)
	n, err = d.RxStatus(uart.ChannelAux)
	require.NoError(t, err)
	require.Equal(t, 0, n)
	st, err := d.Snapshot(uart.ChannelAux)
	require.NoError(t, err)
	require.Equal(t, uart.Flags(0), st.Flags)
	require.Equal(t, uart.Stats{}, st.Stats)
}

func TestLINConfigForced8N1(t *testing.T) {
	d, hw := newDriver(t)
	require.NoError(t, d.Init(uart.ChannelLIN, 19200, 5, uart.ParityOdd, 2))
	applied, ok := hw.Config(uart.ChannelLIN)
	require.True(t, ok)
	require.Equal(t, uart.Config{BaudRate: 19200, DataBits: 8, Parity: uart.ParityNone, StopBits: 1}, applied)
	st, err := d.Snapshot(uart.ChannelLIN)
	require.NoError(t, err)
	require.Equal(t, uint8(5), st.Config.DataBits)
	require.Equal(t, applied, st.Effective)
	require.Equal(t, uart.ModeLIN, st.Mode)
}

func TestWriteCapacity(t *testing.T) {
	d, _ := newDriver(t)
	initChannel(t, d, uart.ChannelRS232)

	total := 0
	for _, size := range []int{50, 50, 50, 10} {
		n, err := d.Write(uart.ChannelRS232, seq(size))
		total += n
		require.True(t, total <= uart.BufferSize)
		pending, _ := d.TxStatus(uart.ChannelRS232)
		require.Equal(t, total, pending)
		if n == 0 {
			require.ErrorIs(t, err, uart.ErrBufferFull)
		} else {
			require.NoError(t, err)
		}
	}
	require.Equal(t, uart.BufferSize, total)

	n, err := d.Write(uart.ChannelRS232, nil)
	require.NoError(t, err)
	require.Equal(t, 0, n)
}

func TestWriteReadOrdering(t *testing.T) {
	d, hw := newDriver(t)
	hw.Loopback = true
	initChannel(t, d, uart.ChannelAux)

	in := seq(100)
	n, err := d.Write(uart.ChannelAux, in)
	require.NoError(t, err)
	require.Equal(t, 100, n)

	var out []byte
	buf := make([]byte, 7)
	for i := 0; i < 20; i++ {
		require.NoError(t, d.Task())
		hw.ShiftAll()
		require.NoError(t, d.Task())
		for {
			n, err := d.Read(uart.ChannelAux, buf)
			require.NoError(t, err)
			if n == 0 {
				break
			}
			out = append(out, buf[:n]...)
		}
	}
	require.Equal(t, in, out)
}

func TestReadNilBuffer(t *testing.T) {
	d, _ := newDriver(t)
	initChannel(t, d, uart.ChannelRS232)
	_, err := d.Read(uart.ChannelRS232, nil)
	require.ErrorIs(t, err, uart.ErrNullPointer)
	n, err := d.Read(uart.ChannelRS232, []byte{})
	require.NoError(t, err)
	require.Equal(t, 0, n)
}

func TestStatusIdempotent(t *testing.T) {
	d, hw := newDriver(t)
	initChannel(t, d, uart.ChannelRS232)
	d.Write(uart.ChannelRS232, seq(40))
	hw.Inject(uart.ChannelRS232, seq(12)...)
	d.Task()
	for i := 0; i < 5; i++ {
		tx, err := d.TxStatus(uart.ChannelRS232)
		require.NoError(t, err)
		require.Equal(t, 40-uart.HWFifoDepth, tx)
		rx, err := d.RxStatus(uart.ChannelRS232)
		require.NoError(t, err)
		require.Equal(t, 12, rx)
	}
}

func TestLINFraming(t *testing.T) {
	d, hw := newDriver(t)
	initChannel(t, d, uart.ChannelLIN)

	n, err := d.Write(uart.ChannelLIN, []byte{0x01, 0x02, 0x03})
	require.NoError(t, err)
	require.Equal(t, 3, n)
	pending, err := d.TxStatus(uart.ChannelLIN)
	require.NoError(t, err)
	require.Equal(t, 5, pending)
	require.Equal(t, []byte{uart.LinBreak, uart.LinSync, 0x01, 0x02, 0x03}, uart.FrameLIN([]byte{1, 2, 3}))

	require.NoError(t, d.Task())
	require.Equal(t, []uarthw.Symbol{
		{Break: true},
		{Data: uart.LinSync},
		{Data: 0x01},
		{Data: 0x02},
		{Data: 0x03},
	}, hw.Shift(uart.ChannelLIN, -1))

	n, err = d.Write(uart.ChannelLIN, nil)
	require.NoError(t, err)
	require.Equal(t, 0, n)
	pending, _ = d.TxStatus(uart.ChannelLIN)
	require.Equal(t, 0, pending)
}

func TestLINZeroPayloadNotBreak(t *testing.T) {
	d, hw := newDriver(t)
	initChannel(t, d, uart.ChannelLIN)
	d.Write(uart.ChannelLIN, []byte{0x00, 0x00})
	d.Task()
	require.Equal(t, []uarthw.Symbol{
		{Break: true},
		{Data: uart.LinSync},
		{Data: 0x00},
		{Data: 0x00},
	}, hw.Shift(uart.ChannelLIN, -1))
}

func TestLINNoRoomForFrame(t *testing.T) {
	d, _ := newDriver(t)
	initChannel(t, d, uart.ChannelLIN)

	// 1 + 2 framing symbols fill 3 slots per write
	n, err := d.Write(uart.ChannelLIN, seq(120))
	require.NoError(t, err)
	require.Equal(t, 120, n)
	n, err = d.Write(uart.ChannelLIN, seq(10))
	require.NoError(t, err)
	require.Equal(t, 4, n)
	pending, _ := d.TxStatus(uart.ChannelLIN)
	require.Equal(t, uart.BufferSize, pending)

	n, err = d.Write(uart.ChannelLIN, []byte{1})
	require.ErrorIs(t, err, uart.ErrBufferFull)
	require.Equal(t, 0, n)

}

func TestLINHeaderWithoutPayloadRoom(t *testing.T) {
	d, _ := newDriver(t)
	initChannel(t, d, uart.ChannelLIN)
	n, err := d.Write(uart.ChannelLIN, seq(uart.BufferSize-4))
	require.NoError(t, err)
	require.Equal(t, uart.BufferSize-4, n)

	// two slots left: break and sync would fit, a payload byte would not
	n, err = d.Write(uart.ChannelLIN, []byte{1})
	require.ErrorIs(t, err, uart.ErrBufferFull)
	require.Equal(t, 0, n)
	pending, _ := d.TxStatus(uart.ChannelLIN)
	require.Equal(t, uart.BufferSize-2, pending)
}

func TestDrainBound(t *testing.T) {
	d, hw := newDriver(t)
	initChannel(t, d, uart.ChannelRS232)
	d.Write(uart.ChannelRS232, seq(100))
	hw.Inject(uart.ChannelRS232, seq(16)...)

	require.NoError(t, d.Task())
	require.Equal(t, uart.HWFifoDepth, hw.TxPending(uart.ChannelRS232))
	pending, _ := d.TxStatus(uart.ChannelRS232)
	require.Equal(t, 100-uart.HWFifoDepth, pending)
	rx, _ := d.RxStatus(uart.ChannelRS232)
	require.Equal(t, uart.HWFifoDepth, rx)

	// hardware full: nothing moves
	require.NoError(t, d.Task())
	pending, _ = d.TxStatus(uart.ChannelRS232)
	require.Equal(t, 100-uart.HWFifoDepth, pending)

	hw.Shift(uart.ChannelRS232, 5)
	require.NoError(t, d.Task())
	pending, _ = d.TxStatus(uart.ChannelRS232)
	require.Equal(t, 100-uart.HWFifoDepth-5, pending)
}

func TestDrainBoundLargeHardwareFifo(t *testing.T) {
	hw := uarthw.NewWithDepth(64)
	d, err := uart.NewDriver(hw)
	require.NoError(t, err)
	initChannel(t, d, uart.ChannelAux)
	d.Write(uart.ChannelAux, seq(100))
	hw.Inject(uart.ChannelAux, seq(40)...)

	require.NoError(t, d.Task())
	require.Equal(t, uart.HWFifoDepth, hw.TxPending(uart.ChannelAux))
	rx, _ := d.RxStatus(uart.ChannelAux)
	require.Equal(t, uart.HWFifoDepth, rx)
	require.Equal(t, 40-uart.HWFifoDepth, hw.ReceiveAvailable(uart.ChannelAux))
}

func TestDropAndFlag(t *testing.T) {
	d, hw := newDriver(t)
	initChannel(t, d, uart.ChannelRS232)
	for i := 0; i < uart.BufferSize/uart.HWFifoDepth; i++ {
		require.Equal(t, uart.HWFifoDepth, hw.Inject(uart.ChannelRS232, seq(uart.HWFifoDepth)...))
		require.NoError(t, d.Task())
	}
	rx, err := d.RxStatus(uart.ChannelRS232)
	require.NoError(t, err)
	require.Equal(t, uart.BufferSize, rx)

	hw.Inject(uart.ChannelRS232, 0xaa, 0xbb)
	require.ErrorIs(t, d.Task(), uart.ErrBufferFull)
	rx, err = d.RxStatus(uart.ChannelRS232)
	require.ErrorIs(t, err, uart.ErrBufferFull)
	require.Equal(t, uart.BufferSize, rx)

	// sticky until acknowledged
	require.ErrorIs(t, d.Task(), uart.ErrBufferFull)
	flags, err := d.Flags(uart.ChannelRS232)
	require.NoError(t, err)
	require.Equal(t, uart.FlagRxBufferFull, flags)
	require.NoError(t, d.Task())

	// existing contents are kept, newest bytes dropped
	out := make([]byte, uart.BufferSize)
	n, err := d.Read(uart.ChannelRS232, out)
	require.NoError(t, err)
	require.Equal(t, uart.BufferSize, n)
	require.Equal(t, seq(uart.HWFifoDepth), out[uart.BufferSize-uart.HWFifoDepth:])
	st, _ := d.Snapshot(uart.ChannelRS232)
	require.Equal(t, uint64(2), st.Stats.BytesDropped)
	require.Equal(t, uint64(uart.BufferSize), st.Stats.BytesReceived)
}

func TestParityAndOverrun(t *testing.T) {
	d, hw := newDriver(t)
	initChannel(t, d, uart.ChannelRS232)
	initChannel(t, d, uart.ChannelAux)

	require.True(t, hw.InjectParityError(uart.ChannelAux, 0x42))
	require.ErrorIs(t, d.Task(), uart.ErrParity)
	buf := make([]byte, 4)
	n, err := d.Read(uart.ChannelAux, buf)
	require.NoError(t, err)
	require.Equal(t, []byte{0x42}, buf[:n])

	require.Equal(t, uart.HWFifoDepth, hw.Inject(uart.ChannelRS232, seq(uart.HWFifoDepth+3)...))
	require.Equal(t, 3, hw.Overruns(uart.ChannelRS232))
	err = d.Task()
	require.ErrorIs(t, err, uart.ErrOverflow)
	var uerr *uart.Error
	require.ErrorAs(t, err, &uerr)
	require.Equal(t, uart.ChannelRS232, uerr.Channel)
	rx, err := d.RxStatus(uart.ChannelRS232)
	require.ErrorIs(t, err, uart.ErrOverflow)
	require.Equal(t, uart.HWFifoDepth, rx)

	flags, err := d.Flags(uart.ChannelRS232)
	require.NoError(t, err)
	require.Equal(t, uart.FlagOverrun, flags)
	require.ErrorIs(t, d.Task(), uart.ErrParity)
	flags, err = d.Flags(uart.ChannelAux)
	require.NoError(t, err)
	require.Equal(t, uart.FlagParity, flags)
	require.NoError(t, d.Task())

	// the channel stays usable
	n, err = d.Write(uart.ChannelRS232, []byte{1})
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestTaskOnlyConfiguredChannels(t *testing.T) {
	d, hw := newDriver(t)
	initChannel(t, d, uart.ChannelAux)
	hw.Inject(uart.ChannelRS232, 1, 2, 3)
	require.NoError(t, d.Task())
	require.Equal(t, 3, hw.ReceiveAvailable(uart.ChannelRS232))
}
