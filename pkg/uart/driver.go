package uart

// State is the lifecycle state of a channel.
type State int

// States
const (
	StateUninitialized State = iota
	StateConfigured
)

// String implements fmt.Stringer.
func (s State) String() string {
	if s == StateConfigured {
		return "configured"
	}
	return "uninitialized"
}

// Stats are running counters of a channel since Init.
type Stats struct {
	BytesSent     uint64
	BytesReceived uint64
	BytesDropped  uint64
	FramesQueued  uint64
	Overruns      uint64
	ParityErrors  uint64
}

// ChannelStatus is a snapshot of a channel.
type ChannelStatus struct {
	Channel   Channel
	Mode      Mode
	State     State
	Config    Config
	Effective Config
	TxPending int
	RxPending int
	Flags     Flags
	Stats     Stats
}

type channel struct {
	id     Channel
	state  State
	conf   Config
	tx     Ring
	rx     Ring
	flags  Flags
	breaks breakMarks
	stats  Stats
}

func (c *channel) reset() {
	c.state = StateUninitialized
	c.conf = Config{}
	c.tx.Reset()
	c.rx.Reset()
	c.flags = 0
	c.breaks.reset()
	c.stats = Stats{}
}

// Driver owns the channels and bridges them to the hardware.
type Driver struct {
	hw       Hardware
	channels [NumChannels]channel
}

// NewDriver creates a Driver on top of hw.
func NewDriver(hw Hardware) (*Driver, error) {
	if hw == nil {
		return nil, ErrNullPointer
	}
	d := &Driver{hw: hw}
	for n := range d.channels {
		d.channels[n].id = Channels[n]
	}
	return d, nil
}

// Hardware returns the hardware collaborator.
func (d *Driver) Hardware() Hardware {
	return d.hw
}

func (d *Driver) lookup(ch Channel) (*channel, error) {
	if !ch.IsValid() {
		return nil, ErrInvalidChannel
	}
	return &d.channels[ch], nil
}

func (d *Driver) configured(op string, ch Channel) (*channel, error) {
	c, err := d.lookup(ch)
	if err != nil {
		return nil, opError(op, ch, err)
	}
	if c.state != StateConfigured {
		return nil, opError(op, ch, ErrNotConfigured)
	}
	return c, nil
}

// Init configures a channel. The stored format of the LIN channel is
// kept as given but 8N1 is applied.
func (d *Driver) Init(ch Channel, baudRate uint32, dataBits uint8, parity Parity, stopBits uint8) error {
	return d.InitConfig(ch, Config{
		BaudRate: baudRate,
		DataBits: dataBits,
		Parity:   parity,
		StopBits: stopBits,
	})
}

// InitConfig is Init with a Config.
func (d *Driver) InitConfig(ch Channel, conf Config) error {
	c, err := d.lookup(ch)
	if err != nil {
		return opError("init", ch, err)
	}
	if c.state == StateConfigured {
		return opError("init", ch, ErrChannelBusy)
	}
	if err := conf.Validate(ch); err != nil {
		return opError("init", ch, err)
	}
	if hw, ok := d.hw.(Configurer); ok {
		if err := hw.Configure(ch, conf.Effective(ch)); err != nil {
			return opError("init", ch, err)
		}
	}
	c.reset()
	c.conf = conf
	c.state = StateConfigured
	return nil
}

// Deinit returns a configured channel to uninitialized.
func (d *Driver) Deinit(ch Channel) error {
	c, err := d.configured("deinit", ch)
	if err != nil {
		return err
	}
	c.reset()
	return nil
}

// Write enqueues p for transmission and returns the payload bytes
// accepted. A partial write is not an error; ErrBufferFull is returned
// only when nothing of a non-empty p was accepted.
func (d *Driver) Write(ch Channel, p []byte) (int, error) {
	c, err := d.configured("write", ch)
	if err != nil {
		return 0, err
	}
	if len(p) == 0 {
		return 0, nil
	}
	var n int
	if ch.Mode() == ModeLIN {
		n = c.writeLIN(p)
	} else {
		n = c.tx.Write(p)
	}
	if n == 0 {
		return 0, opError("write", ch, ErrBufferFull)
	}
	return n, nil
}

// Read dequeues up to len(p) received bytes. An empty receive ring is
// not an error.
func (d *Driver) Read(ch Channel, p []byte) (int, error) {
	c, err := d.configured("read", ch)
	if err != nil {
		return 0, err
	}
	if p == nil {
		return 0, opError("read", ch, ErrNullPointer)
	}
	return c.rx.Read(p), nil
}

// TxStatus returns the bytes waiting in the transmit ring.
func (d *Driver) TxStatus(ch Channel) (int, error) {
	c, err := d.configured("txstatus", ch)
	if err != nil {
		return 0, err
	}
	return c.tx.Len(), nil
}

// RxStatus returns the bytes waiting in the receive ring. The count is
// valid even when err reports a pending receive condition, which stays
// pending until Flags acknowledges it.
func (d *Driver) RxStatus(ch Channel) (int, error) {
	c, err := d.configured("rxstatus", ch)
	if err != nil {
		return 0, err
	}
	return c.rx.Len(), opError("rxstatus", ch, c.flags.Err())
}

// Flags returns and clears the pending receive conditions.
func (d *Driver) Flags(ch Channel) (Flags, error) {
	c, err := d.configured("flags", ch)
	if err != nil {
		return 0, err
	}
	f := c.flags
	c.flags = 0
	return f, nil
}

// Snapshot returns the status of a channel without side effects.
// Unconfigured channels are reported with StateUninitialized.
func (d *Driver) Snapshot(ch Channel) (ChannelStatus, error) {
	c, err := d.lookup(ch)
	if err != nil {
		return ChannelStatus{}, opError("snapshot", ch, err)
	}
	return ChannelStatus{
		Channel:   ch,
		Mode:      ch.Mode(),
		State:     c.state,
		Config:    c.conf,
		Effective: c.conf.Effective(ch),
		TxPending: c.tx.Len(),
		RxPending: c.rx.Len(),
		Flags:     c.flags,
		Stats:     c.stats,
	}, nil
}
