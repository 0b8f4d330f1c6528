package framework

import (
	"context"
	"time"
)

// Named is an abstraction for things with a name.
type Named interface {
	Name() string
}

// Runnable defines a generic interface for background runners.
type Runnable interface {
	Run(context.Context) error
}

// Message is consumed by controllers on the loop goroutine.
type Message interface{}

// Controller defines the logic executed once per control cycle.
type Controller interface {
	Control(ControlContext) error
}

// ControlFunc defines the func form of Controller.
type ControlFunc func(ControlContext) error

// Control implements Controller.
func (f ControlFunc) Control(cc ControlContext) error {
	return f(cc)
}

// TimeSource provides the time for controlling logic.
type TimeSource interface {
	Time() time.Time
}

// ControlContext provides the context of the current control cycle.
type ControlContext interface {
	TimeSource
	// Context retrieves context.Context.
	Context() context.Context
	// Cycle is the sequence number of the current cycle, starting at 1.
	Cycle() uint64
	// Elapsed is the time since the previous cycle, 0 on the first one.
	Elapsed() time.Duration
	// PriorityLevel gets the current priority level.
	PriorityLevel() int
	// Messages retrieves all messages collected when this cycle starts.
	Messages() MessageStore

	LoopControl
}

// PriorityLevels is the total levels of priorities.
const PriorityLevels int = 16

// Predefined priority levels
const (
	PrLvTop    int = 0
	PrLvHigh   int = 4
	PrLvNormal int = 8
	PrLvLow    int = 12
	PrLvIdle   int = PriorityLevels - 1

	// PrLvSense is where hardware input is collected, e.g. the UART
	// bridge task filling receive rings.
	PrLvSense = PrLvHigh
	// PrLvControl is where control decisions are made.
	PrLvControl = PrLvNormal
	// PrLvActuate is where outputs are applied.
	PrLvActuate = PrLvLow
	// PrLvFlush pushes output queued during the cycle towards hardware.
	PrLvFlush = PrLvIdle - 2
	// PrLvPostProc is for reporting, after all outputs are settled.
	PrLvPostProc = PrLvIdle - 1
)

// LoopControl exposes access to the controlling loop.
type LoopControl interface {
	// PostMessage enqueues the message for the next cycle.
	PostMessage(Message)
	// TriggerNext schedules the next cycle immediately after the
	// current one instead of waiting for the interval.
	TriggerNext()
}

// MessageStore provides access to the messages of a cycle.
type MessageStore interface {
	// ProcessMessages calls fn with each message, fn returns true when
	// the message is consumed and must be removed.
	ProcessMessages(fn func(Message) bool)
}

// LoopAdder provides specific logic to add components to loop.
type LoopAdder interface {
	AddToLoop(*Loop)
}
