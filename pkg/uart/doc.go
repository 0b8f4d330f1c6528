// Package uart provides the buffer engine of the serial driver.
//
// Each channel owns two software rings (TX and RX) of BufferSize bytes
// sitting above a hardware FIFO of HWFifoDepth bytes per direction.
// The application only touches the software rings (Write, Read and the
// status queries); the periodic Task moves bytes between the rings and
// the hardware collaborator without ever waiting on it.
//
// The LIN channel frames every Write with a break symbol and a sync
// symbol. The break occupies one slot like any other byte and is handed
// to a BreakTransmitter when the hardware supports break framing.
//
// A Driver is not safe for concurrent use. It is meant to be owned by
// the control loop goroutine; other actors post messages to the loop.
// Run from a loop, the Bridge acknowledges receive conditions every
// cycle and reports them through Condition.
package uart
