package serialport

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/evtherm/pkg/uart"
)

// ErrNoPort indicates no device is assigned to the channel.
var ErrNoPort = errors.New("no serial port assigned")

// readTimeout bounds a blocking read so the reader notices Close.
const readTimeout = 100 * time.Millisecond

// readRetry is the pause before reading again after a read error.
var readRetry = time.Second

type symbol struct {
	data byte
	brk  bool
}

type line struct {
	ch   uart.Channel
	name string
	port Port

	lock     sync.Mutex
	conf     uart.Config
	tx       []symbol
	rx       []uart.RxByte
	overruns uint64
	// lost marks the next received byte with Overrun, set when a read
	// failed while the receive FIFO was empty.
	lost bool

	kick chan struct{}
	done chan struct{}
	wg   sync.WaitGroup
}

// Hardware implements uart.Hardware, uart.Configurer and
// uart.BreakTransmitter on serial devices.
type Hardware struct {
	// Names assigns a device to each channel, empty leaves it unused.
	Names [uart.NumChannels]string
	Open  Opener

	lock  sync.Mutex
	lines [uart.NumChannels]*line
}

// New creates Hardware using OS serial devices.
func New(names [uart.NumChannels]string) *Hardware {
	return &Hardware{Names: names, Open: OpenSerial}
}

func (h *Hardware) line(ch uart.Channel) *line {
	if !ch.IsValid() {
		return nil
	}
	h.lock.Lock()
	defer h.lock.Unlock()
	return h.lines[ch]
}

// Configure implements uart.Configurer. The device is opened on first
// use and reconfigured afterwards.
func (h *Hardware) Configure(ch uart.Channel, conf uart.Config) error {
	if !ch.IsValid() {
		return uart.ErrInvalidChannel
	}
	mode, err := ModeFor(conf)
	if err != nil {
		return err
	}
	h.lock.Lock()
	defer h.lock.Unlock()
	if l := h.lines[ch]; l != nil {
		if err := l.port.SetMode(mode); err != nil {
			return fmt.Errorf("%s: %w", l.name, err)
		}
		l.lock.Lock()
		l.conf, l.tx, l.rx, l.lost = conf, nil, nil, false
		l.lock.Unlock()
		return nil
	}
	name := h.Names[ch]
	if name == "" {
		return ErrNoPort
	}
	port, err := h.Open(name, mode)
	if err != nil {
		return fmt.Errorf("open %s: %w", name, err)
	}
	if err := port.SetReadTimeout(readTimeout); err != nil {
		port.Close()
		return fmt.Errorf("%s: %w", name, err)
	}
	l := &line{
		ch:   ch,
		name: name,
		port: port,
		conf: conf,
		kick: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	l.wg.Add(2)
	go l.readLoop()
	go l.writeLoop()
	h.lines[ch] = l
	glog.Infof("%v: %s opened at %v", ch, name, conf)
	return nil
}

// Close closes all devices and stops their goroutines.
func (h *Hardware) Close() error {
	h.lock.Lock()
	lines := h.lines
	h.lines = [uart.NumChannels]*line{}
	h.lock.Unlock()
	var errs []error
	for _, l := range lines {
		if l == nil {
			continue
		}
		close(l.done)
		if err := l.port.Close(); err != nil {
			errs = append(errs, err)
		}
		l.wg.Wait()
	}
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// TransmitFreeSlots implements uart.Hardware.
func (h *Hardware) TransmitFreeSlots(ch uart.Channel) int {
	l := h.line(ch)
	if l == nil {
		return 0
	}
	l.lock.Lock()
	defer l.lock.Unlock()
	return uart.HWFifoDepth - len(l.tx)
}

// TransmitPush implements uart.Hardware.
func (h *Hardware) TransmitPush(ch uart.Channel, b byte) {
	if l := h.line(ch); l != nil {
		l.push(symbol{data: b})
	}
}

// TransmitBreak implements uart.BreakTransmitter.
func (h *Hardware) TransmitBreak(ch uart.Channel) {
	if l := h.line(ch); l != nil {
		l.push(symbol{brk: true})
	}
}

// ReceiveAvailable implements uart.Hardware.
func (h *Hardware) ReceiveAvailable(ch uart.Channel) int {
	l := h.line(ch)
	if l == nil {
		return 0
	}
	l.lock.Lock()
	defer l.lock.Unlock()
	return len(l.rx)
}

// ReceivePop implements uart.Hardware.
func (h *Hardware) ReceivePop(ch uart.Channel) uart.RxByte {
	l := h.line(ch)
	if l == nil {
		return uart.RxByte{}
	}
	l.lock.Lock()
	defer l.lock.Unlock()
	if len(l.rx) == 0 {
		return uart.RxByte{}
	}
	rb := l.rx[0]
	l.rx = l.rx[1:]
	return rb
}

func (l *line) push(s symbol) {
	l.lock.Lock()
	if len(l.tx) < uart.HWFifoDepth {
		l.tx = append(l.tx, s)
	}
	l.lock.Unlock()
	select {
	case l.kick <- struct{}{}:
	default:
	}
}

// next takes the leading data bytes of the FIFO, or a single break.
func (l *line) next() (data []byte, brk bool, baud uint32) {
	l.lock.Lock()
	defer l.lock.Unlock()
	baud = l.conf.BaudRate
	if len(l.tx) == 0 {
		return
	}
	if l.tx[0].brk {
		l.tx = l.tx[1:]
		return nil, true, baud
	}
	n := 0
	for n < len(l.tx) && !l.tx[n].brk {
		data = append(data, l.tx[n].data)
		n++
	}
	l.tx = l.tx[n:]
	return
}

func (l *line) writeLoop() {
	defer l.wg.Done()
	for {
		select {
		case <-l.done:
			return
		case <-l.kick:
		}
		for {
			data, brk, baud := l.next()
			var err error
			switch {
			case brk:
				err = l.port.Break(BreakDuration(baud))
			case len(data) > 0:
				_, err = l.port.Write(data)
			}
			if err != nil {
				glog.Errorf("%v: %s write: %v", l.ch, l.name, err)
			}
			if !brk && len(data) == 0 {
				break
			}
		}
	}
}

func (l *line) readLoop() {
	defer l.wg.Done()
	buf := make([]byte, 64)
	failing := false
	for {
		n, err := l.port.Read(buf)
		select {
		case <-l.done:
			return
		default:
		}
		if err != nil {
			if !failing {
				glog.Errorf("%v: %s read: %v", l.ch, l.name, err)
			} else {
				glog.V(1).Infof("%v: %s read: %v", l.ch, l.name, err)
			}
			failing = true
			l.readFailed()
			select {
			case <-l.done:
				return
			case <-time.After(readRetry):
			}
			continue
		}
		if failing {
			glog.Infof("%v: %s read recovered", l.ch, l.name)
			failing = false
		}
		l.receive(buf[:n])
	}
}

// readFailed reports the bytes lost with a failed read as an overrun.
func (l *line) readFailed() {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.overruns++
	if len(l.rx) > 0 {
		l.rx[len(l.rx)-1].Overrun = true
		return
	}
	l.lost = true
}

func (l *line) receive(data []byte) {
	l.lock.Lock()
	defer l.lock.Unlock()
	for _, b := range data {
		if len(l.rx) >= uart.HWFifoDepth {
			l.rx[len(l.rx)-1].Overrun = true
			l.overruns++
			continue
		}
		l.rx = append(l.rx, uart.RxByte{Data: b, Overrun: l.lost})
		l.lost = false
	}
}
