package uart

// Task moves bytes between the software rings and the hardware FIFOs
// of every configured channel, at most HWFifoDepth bytes per direction
// per channel. It never waits: whatever the hardware cannot take now is
// left for the next call.
//
// The returned error is the most severe receive condition pending on
// any channel, nil if none. Conditions stay pending until Flags
// acknowledges them; they never disable a channel.
func (d *Driver) Task() error {
	var worst error
	for n := range d.channels {
		c := &d.channels[n]
		if c.state != StateConfigured {
			continue
		}
		d.drainTx(c)
		d.fillRx(c)
		if err := c.flags.Err(); err != nil && Rank(err) > Rank(worst) {
			worst = opError("task", c.id, err)
		}
	}
	return worst
}

func (d *Driver) drainTx(c *channel) {
	n := d.hw.TransmitFreeSlots(c.id)
	if n > HWFifoDepth {
		n = HWFifoDepth
	}
	if q := c.tx.Len(); n > q {
		n = q
	}
	brk, _ := d.hw.(BreakTransmitter)
	for ; n > 0; n-- {
		pos, _ := c.tx.Cursors()
		b, _ := c.tx.TryPop()
		if c.breaks.take(pos) && brk != nil {
			brk.TransmitBreak(c.id)
		} else {
			d.hw.TransmitPush(c.id, b)
		}
		c.stats.BytesSent++
	}
}

func (d *Driver) fillRx(c *channel) {
	n := d.hw.ReceiveAvailable(c.id)
	if n > HWFifoDepth {
		n = HWFifoDepth
	}
	for ; n > 0; n-- {
		rb := d.hw.ReceivePop(c.id)
		if rb.Overrun {
			c.flags |= FlagOverrun
			c.stats.Overruns++
		}
		if rb.ParityErr {
			c.flags |= FlagParity
			c.stats.ParityErrors++
		}
		if !c.rx.TryPush(rb.Data) {
			c.flags |= FlagRxBufferFull
			c.stats.BytesDropped++
			continue
		}
		c.stats.BytesReceived++
	}
}
