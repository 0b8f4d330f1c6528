package thermal

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/robotalks/evtherm/pkg/link"
)

// StatusCode is the packet code of a framed status.
const StatusCode = link.CodeEvent | 0x01

// StatusPayloadLen is the data length of a framed status: three
// temperatures in 0.1C as big endian int16 and the actuation bits.
const StatusPayloadLen = 7

func deci(v float64) int16 {
	d := math.Round(v * 10)
	if d > math.MaxInt16 {
		return math.MaxInt16
	}
	if d < math.MinInt16 {
		return math.MinInt16
	}
	return int16(d)
}

// StatusPayload encodes the data of a framed status.
func StatusPayload(t Temperatures, a Actuation) []byte {
	b := make([]byte, StatusPayloadLen)
	binary.BigEndian.PutUint16(b[0:], uint16(deci(t.Coolant)))
	binary.BigEndian.PutUint16(b[2:], uint16(deci(t.Motor)))
	binary.BigEndian.PutUint16(b[4:], uint16(deci(t.Battery)))
	b[6] = a.Bits()
	return b
}

// ParseStatusPacket decodes a framed status.
func ParseStatusPacket(pkt *link.Packet) (Temperatures, Actuation, error) {
	if pkt.Code != StatusCode {
		return Temperatures{}, Actuation{}, fmt.Errorf("unexpected packet code 0x%02x", pkt.Code)
	}
	if len(pkt.Data) != StatusPayloadLen {
		return Temperatures{}, Actuation{}, fmt.Errorf("invalid status length %d", len(pkt.Data))
	}
	temp := func(off int) float64 {
		return float64(int16(binary.BigEndian.Uint16(pkt.Data[off:]))) / 10
	}
	return Temperatures{
		Coolant: temp(0),
		Motor:   temp(2),
		Battery: temp(4),
	}, ActuationFromBits(pkt.Data[6]), nil
}
