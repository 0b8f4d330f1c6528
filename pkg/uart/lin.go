package uart

// LIN framing symbols.
const (
	// LinBreak stands for the break field in the transmit ring. The
	// hardware emits it with break framing, not as a data byte.
	LinBreak byte = 0x00
	// LinSync is the sync field.
	LinSync byte = 0x55
)

// LinHeaderLen is the number of framing symbols ahead of a LIN payload.
const LinHeaderLen = 2

// maxLinFrames bounds the frames pending in one transmit ring, each
// frame takes at least LinHeaderLen+1 slots.
const maxLinFrames = BufferSize/(LinHeaderLen+1) + 1

// FrameLIN returns the symbols enqueued for a LIN write of payload.
func FrameLIN(payload []byte) []byte {
	frame := make([]byte, 0, LinHeaderLen+len(payload))
	frame = append(frame, LinBreak, LinSync)
	return append(frame, payload...)
}

// breakMarks records the transmit ring positions holding a break symbol
// so the bridge can tell them apart from 0x00 payload bytes.
type breakMarks struct {
	pos  [maxLinFrames]uint32
	head int
	n    int
}

func (m *breakMarks) add(pos uint32) bool {
	if m.n >= len(m.pos) {
		return false
	}
	m.pos[(m.head+m.n)%len(m.pos)] = pos
	m.n++
	return true
}

// take reports whether pos is the next break and consumes it.
func (m *breakMarks) take(pos uint32) bool {
	if m.n == 0 || m.pos[m.head] != pos {
		return false
	}
	m.head = (m.head + 1) % len(m.pos)
	m.n--
	return true
}

func (m *breakMarks) reset() {
	m.head, m.n = 0, 0
}

// writeLIN enqueues break, sync and as much of payload as fits.
// It returns the payload bytes accepted, 0 when the header plus one
// payload byte does not fit.
func (c *channel) writeLIN(payload []byte) int {
	if len(payload) == 0 || c.tx.Remaining() < LinHeaderLen+1 {
		return 0
	}
	_, wr := c.tx.Cursors()
	if !c.breaks.add(wr) {
		return 0
	}
	c.tx.TryPush(LinBreak)
	c.tx.TryPush(LinSync)
	n := c.tx.Write(payload)
	c.stats.FramesQueued++
	return n
}
