// Package link frames small packets over a serial byte stream.
//
// A packet is a sequence number, a code byte and up to MaxDataLen bytes
// of data. Sequence numbers increase by one per packet and let a
// receiver joining mid-stream, or losing bytes to a full receive ring,
// detect the gap and resynchronize on the next sync announcement
// (SyncMark followed by the sequence number of the next packet).
//
// There is no bit verification, parity can be enabled on the channel
// if needed.
package link

import (
	"errors"
	"io"
)

// Seq is the sequence number of a packet.
type Seq byte

// Next calculates the next sequence number.
func (s Seq) Next() Seq {
	n := byte(s) + 1
	if n == 0 || n >= 0xf0 {
		n = 1
	}
	return Seq(n)
}

// IsValid checks if it's a valid sequence number.
func (s Seq) IsValid() bool {
	n := byte(s)
	return n > 0 && n < 0xf0
}

// SyncMark starts a sync announcement.
const SyncMark byte = 0xff

// MaxDataLen is the largest data length of a packet.
const MaxDataLen = 0x7f

// Code bits.
const (
	// CodeEvent marks packets not expecting a reply.
	CodeEvent byte = 0x80
	codeMask  byte = 0x8f
	shortLen  byte = 7
)

// ErrDataTooLong is returned when encoding more than MaxDataLen bytes.
var ErrDataTooLong = errors.New("packet data too long")

// Packet contains the information of a parsed packet.
type Packet struct {
	Seq  Seq
	Code byte
	Data []byte
}

// IsEvent tells if the packet is an event.
func (p *Packet) IsEvent() bool {
	return p.Code&CodeEvent != 0
}

// Len is the encoded length of the packet.
func (p *Packet) Len() int {
	if len(p.Data) >= int(shortLen) {
		return len(p.Data) + 3
	}
	return len(p.Data) + 2
}

// AppendTo appends the encoded packet to b. Lengths below 7 are packed
// into the code byte, longer data gets an extra length byte.
func (p *Packet) AppendTo(b []byte) ([]byte, error) {
	l := len(p.Data)
	if l > MaxDataLen {
		return b, ErrDataTooLong
	}
	code := p.Code & codeMask
	if l >= int(shortLen) {
		b = append(b, byte(p.Seq), code|shortLen<<4, byte(l))
	} else {
		b = append(b, byte(p.Seq), code|byte(l)<<4)
	}
	return append(b, p.Data...), nil
}

// Bytes returns encoded bytes for sending.
func (p *Packet) Bytes() ([]byte, error) {
	return p.AppendTo(make([]byte, 0, p.Len()))
}

// WriteTo writes encoded bytes.
func (p *Packet) WriteTo(w io.Writer) (int64, error) {
	b, err := p.Bytes()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(b)
	return int64(n), err
}
