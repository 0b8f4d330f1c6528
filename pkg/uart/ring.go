package uart

// BufferSize is the capacity of each software ring.
const BufferSize = 128

const ringMask = BufferSize - 1

// Ring is a fixed capacity byte FIFO.
//
// The cursors are free-running counters and only the low bits index
// the storage, so wr-rd is always the occupancy: 0 is empty and
// BufferSize is full, with no slot sacrificed to tell them apart.
// BufferSize must stay a power of two.
type Ring struct {
	buf [BufferSize]byte
	rd  uint32
	wr  uint32
}

// Len returns the number of unread bytes.
func (r *Ring) Len() int {
	return int(r.wr - r.rd)
}

// Remaining returns the number of free slots.
func (r *Ring) Remaining() int {
	return BufferSize - r.Len()
}

// Cap returns the capacity.
func (r *Ring) Cap() int {
	return BufferSize
}

// TryPush appends b, it returns false if the ring is full.
func (r *Ring) TryPush(b byte) bool {
	if r.wr-r.rd >= BufferSize {
		return false
	}
	r.buf[r.wr&ringMask] = b
	r.wr++
	return true
}

// TryPop removes the oldest byte, ok is false if the ring is empty.
func (r *Ring) TryPop() (b byte, ok bool) {
	if r.wr == r.rd {
		return 0, false
	}
	b = r.buf[r.rd&ringMask]
	r.rd++
	return b, true
}

// Peek returns the oldest byte without removing it.
func (r *Ring) Peek() (b byte, ok bool) {
	if r.wr == r.rd {
		return 0, false
	}
	return r.buf[r.rd&ringMask], true
}

// Write appends as many bytes of p as fit and returns the count.
func (r *Ring) Write(p []byte) int {
	n := r.Remaining()
	if len(p) < n {
		n = len(p)
	}
	for _, b := range p[:n] {
		r.buf[r.wr&ringMask] = b
		r.wr++
	}
	return n
}

// Read removes up to len(p) bytes into p and returns the count.
func (r *Ring) Read(p []byte) int {
	n := r.Len()
	if len(p) < n {
		n = len(p)
	}
	for i := 0; i < n; i++ {
		p[i] = r.buf[r.rd&ringMask]
		r.rd++
	}
	return n
}

// Reset empties the ring.
func (r *Ring) Reset() {
	r.rd, r.wr = 0, 0
}

// Cursors returns the free-running read and write counters.
func (r *Ring) Cursors() (rd, wr uint32) {
	return r.rd, r.wr
}
