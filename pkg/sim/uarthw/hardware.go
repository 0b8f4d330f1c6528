// Package uarthw simulates the UART peripheral: per channel transmit and
// receive FIFOs of uart.HWFifoDepth entries and a line which consumes
// transmitted symbols when shifted.
package uarthw

import (
	"errors"
	"sync"

	"github.com/robotalks/evtherm/pkg/uart"
)

// Symbol is what the line carries, a data byte or a LIN break.
type Symbol struct {
	Data  byte
	Break bool
}

// ErrConfigRejected is returned by Configure when rejection is requested
// with RejectConfig.
var ErrConfigRejected = errors.New("configuration rejected")

type port struct {
	conf       uart.Config
	configured bool
	tx         []Symbol
	rx         []uart.RxByte
	line       []Symbol
	overruns   int
}

// Hardware implements uart.Hardware, uart.Configurer and
// uart.BreakTransmitter in memory. It is safe for concurrent use so
// tests and shells can inject from other goroutines.
type Hardware struct {
	// Loopback feeds shifted data bytes back into the receive FIFO of
	// the same channel.
	Loopback bool

	lock   sync.Mutex
	depth  int
	reject bool
	ports  [uart.NumChannels]port
}

// New creates simulated hardware with FIFOs of uart.HWFifoDepth.
func New() *Hardware {
	return &Hardware{depth: uart.HWFifoDepth}
}

// NewWithDepth creates simulated hardware with FIFOs of depth entries,
// at least one.
func NewWithDepth(depth int) *Hardware {
	if depth < 1 {
		depth = 1
	}
	return &Hardware{depth: depth}
}

func (h *Hardware) port(ch uart.Channel) *port {
	if !ch.IsValid() {
		return nil
	}
	return &h.ports[ch]
}

// RejectConfig makes subsequent Configure calls fail.
func (h *Hardware) RejectConfig(reject bool) {
	h.lock.Lock()
	h.reject = reject
	h.lock.Unlock()
}

// Configure implements uart.Configurer.
func (h *Hardware) Configure(ch uart.Channel, conf uart.Config) error {
	h.lock.Lock()
	defer h.lock.Unlock()
	p := h.port(ch)
	if p == nil {
		return uart.ErrInvalidChannel
	}
	if h.reject {
		return ErrConfigRejected
	}
	*p = port{conf: conf, configured: true}
	return nil
}

// Config returns the line settings applied by Configure.
func (h *Hardware) Config(ch uart.Channel) (conf uart.Config, ok bool) {
	h.lock.Lock()
	defer h.lock.Unlock()
	if p := h.port(ch); p != nil {
		return p.conf, p.configured
	}
	return
}

// TransmitFreeSlots implements uart.Hardware.
func (h *Hardware) TransmitFreeSlots(ch uart.Channel) int {
	h.lock.Lock()
	defer h.lock.Unlock()
	if p := h.port(ch); p != nil {
		return h.depth - len(p.tx)
	}
	return 0
}

// TransmitPush implements uart.Hardware. A push into a full FIFO is lost.
func (h *Hardware) TransmitPush(ch uart.Channel, b byte) {
	h.pushTx(ch, Symbol{Data: b})
}

// TransmitBreak implements uart.BreakTransmitter.
func (h *Hardware) TransmitBreak(ch uart.Channel) {
	h.pushTx(ch, Symbol{Break: true})
}

func (h *Hardware) pushTx(ch uart.Channel, s Symbol) {
	h.lock.Lock()
	defer h.lock.Unlock()
	if p := h.port(ch); p != nil && len(p.tx) < h.depth {
		p.tx = append(p.tx, s)
	}
}

// ReceiveAvailable implements uart.Hardware.
func (h *Hardware) ReceiveAvailable(ch uart.Channel) int {
	h.lock.Lock()
	defer h.lock.Unlock()
	if p := h.port(ch); p != nil {
		return len(p.rx)
	}
	return 0
}

// ReceivePop implements uart.Hardware.
func (h *Hardware) ReceivePop(ch uart.Channel) uart.RxByte {
	h.lock.Lock()
	defer h.lock.Unlock()
	p := h.port(ch)
	if p == nil || len(p.rx) == 0 {
		return uart.RxByte{}
	}
	rb := p.rx[0]
	p.rx = p.rx[1:]
	return rb
}

// Inject delivers bytes from the line into the receive FIFO and returns
// how many were stored. Bytes arriving while the FIFO is full are lost
// and the byte at the tail of the FIFO is marked with Overrun.
func (h *Hardware) Inject(ch uart.Channel, data ...byte) int {
	h.lock.Lock()
	defer h.lock.Unlock()
	p := h.port(ch)
	if p == nil {
		return 0
	}
	var n int
	for _, b := range data {
		if h.receive(p, uart.RxByte{Data: b}) {
			n++
		}
	}
	return n
}

// InjectParityError delivers a byte which fails the parity check.
func (h *Hardware) InjectParityError(ch uart.Channel, b byte) bool {
	h.lock.Lock()
	defer h.lock.Unlock()
	if p := h.port(ch); p != nil {
		return h.receive(p, uart.RxByte{Data: b, ParityErr: true})
	}
	return false
}

func (h *Hardware) receive(p *port, rb uart.RxByte) bool {
	if len(p.rx) >= h.depth {
		if len(p.rx) > 0 {
			p.rx[len(p.rx)-1].Overrun = true
		}
		p.overruns++
		return false
	}
	p.rx = append(p.rx, rb)
	return true
}

// Overruns returns the bytes lost to a full receive FIFO.
func (h *Hardware) Overruns(ch uart.Channel) int {
	h.lock.Lock()
	defer h.lock.Unlock()
	if p := h.port(ch); p != nil {
		return p.overruns
	}
	return 0
}

// Shift lets the line consume up to n symbols from the transmit FIFO,
// all of them if n < 0, and returns the consumed symbols.
func (h *Hardware) Shift(ch uart.Channel, n int) []Symbol {
	h.lock.Lock()
	defer h.lock.Unlock()
	p := h.port(ch)
	if p == nil {
		return nil
	}
	if n < 0 || n > len(p.tx) {
		n = len(p.tx)
	}
	out := make([]Symbol, n)
	copy(out, p.tx[:n])
	p.tx = p.tx[n:]
	p.line = append(p.line, out...)
	if h.Loopback {
		for _, s := range out {
			if !s.Break {
				h.receive(p, uart.RxByte{Data: s.Data})
			}
		}
	}
	return out
}

// ShiftAll shifts every channel completely.
func (h *Hardware) ShiftAll() {
	for _, ch := range uart.Channels {
		h.Shift(ch, -1)
	}
}

// TxPending returns the symbols waiting in the transmit FIFO.
func (h *Hardware) TxPending(ch uart.Channel) int {
	h.lock.Lock()
	defer h.lock.Unlock()
	if p := h.port(ch); p != nil {
		return len(p.tx)
	}
	return 0
}

// Line returns and clears the symbols shifted out so far.
func (h *Hardware) Line(ch uart.Channel) []Symbol {
	h.lock.Lock()
	defer h.lock.Unlock()
	p := h.port(ch)
	if p == nil {
		return nil
	}
	out := p.line
	p.line = nil
	return out
}

// Data returns the data bytes of symbols, breaks are skipped.
func Data(symbols []Symbol) []byte {
	out := make([]byte, 0, len(symbols))
	for _, s := range symbols {
		if !s.Break {
			out = append(out, s.Data)
		}
	}
	return out
}
