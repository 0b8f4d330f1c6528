package framework

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/golang/glog"
)

// DefaultInterval is the control cycle period used when Interval is 0.
const DefaultInterval = 100 * time.Millisecond

// Loop drives control cycles: every cycle runs the controllers of each
// priority level in order, on a single goroutine.
type Loop struct {
	Interval time.Duration

	controllers [PriorityLevels][]Controller
	runners     []Runnable

	pending []Message
	lock    sync.Mutex

	wakeUpCh chan struct{}
	cycle    uint64
	last     time.Time
}

var loopCtxKey = &Loop{}

// LoopCtlFrom gets LoopControl from the context passed to runners.
func LoopCtlFrom(ctx context.Context) LoopControl {
	return ctx.Value(loopCtxKey).(LoopControl)
}

// NewLoop creates a Loop.
func NewLoop() *Loop {
	return &Loop{Interval: DefaultInterval, wakeUpCh: make(chan struct{}, 1)}
}

// Add adds LoopAdders.
func (l *Loop) Add(adders ...LoopAdder) *Loop {
	for _, adder := range adders {
		adder.AddToLoop(l)
	}
	return l
}

// AddController registers controllers at a priority level.
func (l *Loop) AddController(priorityLevel int, ctls ...Controller) *Loop {
	l.controllers[priorityLevel] = append(l.controllers[priorityLevel], ctls...)
	for _, ctl := range ctls {
		if runner, ok := ctl.(Runnable); ok {
			l.runners = append(l.runners, runner)
		}
	}
	return l
}

// AddRunnable adds background runners started by Run.
func (l *Loop) AddRunnable(runnables ...Runnable) *Loop {
	l.runners = append(l.runners, runnables...)
	return l
}

// Cycles returns the number of cycles executed.
func (l *Loop) Cycles() uint64 {
	return l.cycle
}

// Run implements Runnable.
func (l *Loop) Run(ctx context.Context) error {
	runner := NewRunnerWith(context.WithValue(ctx, loopCtxKey, LoopControl(l)))
	runner.Go(l.runners...)
	defer runner.Wait()

	interval := l.Interval
	if interval == 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			l.Step(ctx)
		case <-l.wakeUpCh:
			l.Step(ctx)
		}
	}
}

// RunOrFail is intended to be used in main to simply run the loop.
func (l *Loop) RunOrFail() {
	if err := l.Run(context.Background()); err != nil && err != context.Canceled {
		log.Fatalln(err)
	}
}

// PostMessage implements LoopControl. It is safe to call from any goroutine.
func (l *Loop) PostMessage(msg Message) {
	l.lock.Lock()
	l.pending = append(l.pending, msg)
	l.lock.Unlock()
}

// TriggerNext implements LoopControl.
func (l *Loop) TriggerNext() {
	select {
	case l.wakeUpCh <- struct{}{}:
	default:
	}
}

// Step runs exactly one control cycle on the calling goroutine.
func (l *Loop) Step(ctx context.Context) {
	now := time.Now()
	l.cycle++
	cc := &cycleContext{loop: l, ctx: ctx, time: now, cycle: l.cycle}
	if !l.last.IsZero() {
		cc.elapsed = now.Sub(l.last)
	}
	l.last = now

	l.lock.Lock()
	cc.messages, l.pending = l.pending, nil
	l.lock.Unlock()

	for i := 0; i < PriorityLevels; i++ {
		cc.priorityLevel = i
		for _, ctl := range l.controllers[i] {
			if err := ctl.Control(cc); err != nil {
				glog.Errorf("cycle %d: controller error: %v", cc.cycle, err)
			}
		}
	}

	// messages nobody consumed are dropped after one cycle.
	if n := len(cc.messages); n > 0 {
		glog.V(2).Infof("cycle %d: %d unhandled messages dropped", cc.cycle, n)
	}
}

type cycleContext struct {
	loop          *Loop
	ctx           context.Context
	time          time.Time
	elapsed       time.Duration
	cycle         uint64
	priorityLevel int
	messages      []Message
}

func (c *cycleContext) Context() context.Context { return c.ctx }
func (c *cycleContext) Time() time.Time { return c.time }
func (c *cycleContext) Elapsed() time.Duration { return c.elapsed }
func (c *cycleContext) Cycle() uint64 { return c.cycle }
func (c *cycleContext) PriorityLevel() int { return c.priorityLevel }
func (c *cycleContext) Messages() MessageStore { return c }
func (c *cycleContext) PostMessage(msg Message) { c.loop.PostMessage(msg) }
func (c *cycleContext) TriggerNext() { c.loop.TriggerNext() }

// ProcessMessages implements MessageStore.
func (c *cycleContext) ProcessMessages(fn func(Message) bool) {
	remains := c.messages[:0]
	for _, msg := range c.messages {
		if !fn(msg) {
			remains = append(remains, msg)
		}
	}
	for i := len(remains); i < len(c.messages); i++ {
		c.messages[i] = nil
	}
	c.messages = remains
}
