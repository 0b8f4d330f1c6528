package uart

import (
	"sync"

	"github.com/golang/glog"

	fx "github.com/robotalks/evtherm/pkg/framework"
)

// WriteRequest is a message asking the Bridge to write Data on Channel
// from the loop goroutine. Actors outside the loop post it instead of
// calling Driver.Write, which is not safe for concurrent use.
type WriteRequest struct {
	Channel Channel
	Data    []byte
}

// Bridge runs the driver Task from a control loop: once before control
// logic so receive rings are fresh, and once after it so bytes written
// during the cycle reach the hardware in the same cycle.
//
// The Bridge owns the acknowledgement of receive conditions: every
// condition a Task reports is cleared with Driver.Flags right away and
// kept as the condition of the cycle. The Stats counters of the driver
// keep the history.
type Bridge struct {
	Driver *Driver

	lock  sync.RWMutex
	cycle uint64
	cond  error
	prev  error
	runs  uint64
}

// NewBridge creates a Bridge for the driver.
func NewBridge(d *Driver) *Bridge {
	return &Bridge{Driver: d}
}

// AddToLoop implements fx.LoopAdder.
func (b *Bridge) AddToLoop(l *fx.Loop) {
	l.AddController(fx.PrLvSense, b)
	l.AddController(fx.PrLvFlush, b)
}

// Control implements fx.Controller. Receive conditions are not
// controller errors, they are kept for Condition and logged when they
// appear.
func (b *Bridge) Control(cc fx.ControlContext) error {
	cc.Messages().ProcessMessages(func(msg fx.Message) bool {
		req, ok := msg.(*WriteRequest)
		if !ok {
			return false
		}
		if n, err := b.Driver.Write(req.Channel, req.Data); err != nil {
			glog.Errorf("cycle %d: write request: %v", cc.Cycle(), err)
		} else if n < len(req.Data) {
			glog.Warningf("cycle %d: write request on %v truncated: %d/%d", cc.Cycle(), req.Channel, n, len(req.Data))
		}
		return true
	})
	err := b.Driver.Task()
	if err != nil {
		b.acknowledge()
	}

	b.lock.Lock()
	if cycle := cc.Cycle(); cycle != b.cycle {
		if b.cond == nil && b.prev != nil {
			glog.V(1).Infof("cycle %d: uart: conditions cleared", b.cycle)
		}
		b.cycle, b.prev, b.cond = cycle, b.cond, nil
	}
	raised := err != nil && Rank(err) > Rank(b.cond)
	if raised {
		b.cond = err
	}
	prev := b.prev
	b.runs++
	b.lock.Unlock()

	if raised && Rank(err) > Rank(prev) {
		glog.Warningf("cycle %d: uart: %v", cc.Cycle(), err)
	}
	return nil
}

func (b *Bridge) acknowledge() {
	for _, ch := range Channels {
		if f, err := b.Driver.Flags(ch); err == nil && f != 0 {
			glog.V(2).Infof("uart %v: acknowledged %v", ch, f)
		}
	}
}

// Condition returns the most severe receive condition reported during
// the latest cycle, nil if there was none.
func (b *Bridge) Condition() error {
	b.lock.RLock()
	defer b.lock.RUnlock()
	return b.cond
}

// Runs returns how many times Task was invoked.
func (b *Bridge) Runs() uint64 {
	b.lock.RLock()
	defer b.lock.RUnlock()
	return b.runs
}
