package link

// DefaultSyncEvery is the default sync announcement period in packets.
const DefaultSyncEvery = 16

// Framer numbers outgoing packets. The first packet, and every
// SyncEvery packets after, is preceded by a sync announcement.
type Framer struct {
	SyncEvery int

	seq       Seq
	sinceSync int
	synced    bool
}

// NewFramer creates a Framer starting at sequence 1.
func NewFramer() *Framer {
	return &Framer{SyncEvery: DefaultSyncEvery}
}

// Resync makes the next frame carry a sync announcement, e.g. after a
// frame was not fully sent.
func (f *Framer) Resync() {
	f.synced = false
}

// Frame encodes a packet with the next sequence number.
func (f *Framer) Frame(code byte, data []byte) ([]byte, error) {
	seq := f.seq.Next()
	pkt := Packet{Seq: seq, Code: code, Data: data}
	sync := !f.synced || (f.SyncEvery > 0 && f.sinceSync >= f.SyncEvery)
	b := make([]byte, 0, pkt.Len()+2)
	if sync {
		b = append(b, SyncMark, byte(seq))
	}
	b, err := pkt.AppendTo(b)
	if err != nil {
		return nil, err
	}
	f.seq = seq
	if sync {
		f.synced, f.sinceSync = true, 0
	}
	f.sinceSync++
	return b, nil
}
