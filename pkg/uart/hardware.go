package uart

// HWFifoDepth is the depth of the hardware FIFO per direction.
const HWFifoDepth = 16

// RxByte is a byte popped from the hardware receive FIFO with its status.
type RxByte struct {
	Data byte
	// ParityErr reports the byte failed the parity check.
	ParityErr bool
	// Overrun reports data was lost in the hardware before this byte.
	Overrun bool
}

// Hardware is the register-level collaborator of the driver.
// Every method must return immediately.
type Hardware interface {
	// TransmitFreeSlots returns the free slots in the transmit FIFO.
	TransmitFreeSlots(ch Channel) int
	// TransmitPush pushes one byte into the transmit FIFO.
	TransmitPush(ch Channel, b byte)
	// ReceiveAvailable returns the bytes waiting in the receive FIFO.
	ReceiveAvailable(ch Channel) int
	// ReceivePop pops one byte from the receive FIFO.
	ReceivePop(ch Channel) RxByte
}

// Configurer is implemented by hardware which applies line settings.
type Configurer interface {
	Configure(ch Channel, conf Config) error
}

// BreakTransmitter is implemented by hardware which can emit a LIN
// break. TransmitBreak takes one transmit FIFO slot like TransmitPush.
type BreakTransmitter interface {
	TransmitBreak(ch Channel)
}
