package msgs

import (
	"fmt"

	"github.com/golang/protobuf/proto"
)

// TypeID masks
const (
	TypeIDMaskKind  uint32 = 0x80000000
	TypeIDMaskGroup uint32 = 0x7fff0000
	TypeIDMaskID    uint32 = 0x0000ffff
)

// Message Kinds
const (
	TypeIDKindCommand uint32 = 0x00000000
	TypeIDKindEvent   uint32 = 0x80000000
)

// TypeID Groups
const (
	GroupUART    uint32 = 0x00010000
	GroupThermal uint32 = 0x00020000
)

// TypeIDs
const (
	ChannelStatusTypeID = TypeIDKindEvent | GroupUART | 0x0001
	DriverStatusTypeID  = TypeIDKindEvent | GroupUART | 0x0002
	ThermalStatusTypeID = TypeIDKindEvent | GroupThermal | 0x0001
)

// Serializable is a message which can be carried by Typed.
type Serializable interface {
	proto.Message
	TypeID() uint32
}

// MessageTypes maps type IDs to message constructors.
var MessageTypes = map[uint32]func() Serializable{
	ChannelStatusTypeID: func() Serializable { return &ChannelStatus{} },
	DriverStatusTypeID:  func() Serializable { return &DriverStatus{} },
	ThermalStatusTypeID: func() Serializable { return &ThermalStatus{} },
}

// ErrUnknownType indicates unknown type id.
type ErrUnknownType struct {
	TypeID uint32
}

// Error implements error.
func (e *ErrUnknownType) Error() string {
	return fmt.Sprintf("unknown type: %x", e.TypeID)
}

// Typed wraps a message with type information.
type Typed struct {
	TypeId  uint32 `protobuf:"varint,1,opt,name=type_id,json=typeId,proto3" json:"type_id,omitempty"`
	Message []byte `protobuf:"bytes,2,opt,name=message,proto3" json:"message,omitempty"`
}

// ProtoMessage implements proto.Message.
func (m *Typed) ProtoMessage() {}

// Reset implements proto.Message.
func (m *Typed) Reset() { *m = Typed{} }

// String implements proto.Message.
func (m *Typed) String() string { return proto.CompactTextString(m) }

// TypedFrom creates a Typed from a serializable message.
func TypedFrom(msg Serializable) (*Typed, error) {
	data, err := proto.Marshal(msg)
	if err != nil {
		return nil, err
	}
	return &Typed{TypeId: msg.TypeID(), Message: data}, nil
}

// Encode wraps msg in Typed and encodes it.
func Encode(msg Serializable) ([]byte, error) {
	typed, err := TypedFrom(msg)
	if err != nil {
		return nil, err
	}
	return typed.Encode()
}

// Decode decodes the envelope into the actual message.
func (m *Typed) Decode() (Serializable, error) {
	newMsg, ok := MessageTypes[m.TypeId]
	if !ok {
		return nil, &ErrUnknownType{TypeID: m.TypeId}
	}
	msg := newMsg()
	if err := proto.Unmarshal(m.Message, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// Encode encodes the Typed to bytes.
func (m *Typed) Encode() ([]byte, error) {
	return proto.Marshal(m)
}

// Kind gets message kind from type ID.
func (m *Typed) Kind() uint32 {
	return m.TypeId & TypeIDMaskKind
}

// IsEvent determines if the message is an event.
func (m *Typed) IsEvent() bool {
	return m.Kind() == TypeIDKindEvent
}

// DecodeTyped decodes bytes into Typed.
func DecodeTyped(data []byte) (*Typed, error) {
	var typed Typed
	if err := proto.Unmarshal(data, &typed); err != nil {
		return nil, err
	}
	return &typed, nil
}
