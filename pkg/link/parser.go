package link

// Parser parses bytes received.
type Parser struct {
	peerSeq Seq
	state   parseState
	packet  *Packet
	recvLen int
	resyncs uint64
}

type parseState int

const (
	stateSync    parseState = iota // waiting for SyncMark
	stateSyncSeq                   // waiting for sync seq after SyncMark
	stateMsgSeq                    // waiting for message seq
	stateMsgCode                   // waiting for message code
	stateMsgLen                    // waiting for message length
	stateMsgData                   // waiting for message data
)

// Synced tells if the parser follows the packet sequence.
func (p *Parser) Synced() bool {
	return p.state >= stateMsgSeq
}

// Receiving tells if a packet is partially received.
func (p *Parser) Receiving() bool {
	return p.state > stateMsgSeq
}

// Resyncs counts the sequence losses since the parser was created.
func (p *Parser) Resyncs() uint64 {
	return p.resyncs
}

// Reset drops a partial packet and waits for the next sync.
func (p *Parser) Reset() {
	p.packet = nil
	p.state = stateSync
}

// Parse consumes one byte, it returns a packet once complete.
func (p *Parser) Parse(b byte) *Packet {
	switch p.state {
	case stateSync:
		if b == SyncMark {
			p.state = stateSyncSeq
		}
	case stateSyncSeq:
		if seq := Seq(b); seq.IsValid() {
			p.peerSeq, p.state = seq, stateMsgSeq
			return nil
		}
		p.resync()
	case stateMsgSeq:
		if b == SyncMark {
			p.state = stateSyncSeq
			return nil
		}
		if b != byte(p.peerSeq) {
			p.resync()
			return nil
		}
		p.packet = &Packet{Seq: p.peerSeq}
		p.peerSeq = p.peerSeq.Next()
		p.state = stateMsgCode
	case stateMsgCode:
		p.packet.Code = b & codeMask
		switch dataLen := (b >> 4) & shortLen; dataLen {
		case 0:
			return p.packetReady()
		case shortLen:
			p.state = stateMsgLen
		default:
			p.packet.Data, p.recvLen = make([]byte, dataLen), 0
			p.state = stateMsgData
		}
	case stateMsgLen:
		if b > MaxDataLen {
			p.resync()
			return nil
		}
		if b == 0 {
			return p.packetReady()
		}
		p.packet.Data, p.recvLen = make([]byte, b), 0
		p.state = stateMsgData
	case stateMsgData:
		p.packet.Data[p.recvLen] = b
		p.recvLen++
		if p.recvLen >= len(p.packet.Data) {
			return p.packetReady()
		}
	}
	return nil
}

// Feed parses all bytes in p and returns the completed packets.
func (p *Parser) Feed(data []byte) (packets []*Packet) {
	for _, b := range data {
		if pkt := p.Parse(b); pkt != nil {
			packets = append(packets, pkt)
		}
	}
	return
}

func (p *Parser) resync() {
	p.packet = nil
	p.state = stateSync
	p.resyncs++
}

func (p *Parser) packetReady() (pkt *Packet) {
	p.state = stateMsgSeq
	pkt, p.packet = p.packet, nil
	return
}
