package msgs

import (
	"github.com/golang/protobuf/proto"

	"github.com/robotalks/evtherm/pkg/thermal"
	"github.com/robotalks/evtherm/pkg/uart"
)

// ChannelStatus reports one serial channel.
type ChannelStatus struct {
	Channel       string `protobuf:"bytes,1,opt,name=channel,proto3" json:"channel,omitempty"`
	Mode          string `protobuf:"bytes,2,opt,name=mode,proto3" json:"mode,omitempty"`
	Configured    bool   `protobuf:"varint,3,opt,name=configured,proto3" json:"configured,omitempty"`
	Format        string `protobuf:"bytes,4,opt,name=format,proto3" json:"format,omitempty"`
	TxPending     uint32 `protobuf:"varint,5,opt,name=tx_pending,proto3" json:"tx_pending,omitempty"`
	RxPending     uint32 `protobuf:"varint,6,opt,name=rx_pending,proto3" json:"rx_pending,omitempty"`
	Flags         uint32 `protobuf:"varint,7,opt,name=flags,proto3" json:"flags,omitempty"`
	BytesSent     uint64 `protobuf:"varint,8,opt,name=bytes_sent,proto3" json:"bytes_sent,omitempty"`
	BytesReceived uint64 `protobuf:"varint,9,opt,name=bytes_received,proto3" json:"bytes_received,omitempty"`
	BytesDropped  uint64 `protobuf:"varint,10,opt,name=bytes_dropped,proto3" json:"bytes_dropped,omitempty"`
	FramesQueued  uint64 `protobuf:"varint,11,opt,name=frames_queued,proto3" json:"frames_queued,omitempty"`
	Overruns      uint64 `protobuf:"varint,12,opt,name=overruns,proto3" json:"overruns,omitempty"`
	ParityErrors  uint64 `protobuf:"varint,13,opt,name=parity_errors,proto3" json:"parity_errors,omitempty"`
}

// NewChannelStatus converts a driver snapshot.
func NewChannelStatus(st uart.ChannelStatus) *ChannelStatus {
	m := &ChannelStatus{
		Channel:       st.Channel.String(),
		Mode:          st.Mode.String(),
		Configured:    st.State == uart.StateConfigured,
		TxPending:     uint32(st.TxPending),
		RxPending:     uint32(st.RxPending),
		Flags:         uint32(st.Flags),
		BytesSent:     st.Stats.BytesSent,
		BytesReceived: st.Stats.BytesReceived,
		BytesDropped:  st.Stats.BytesDropped,
		FramesQueued:  st.Stats.FramesQueued,
		Overruns:      st.Stats.Overruns,
		ParityErrors:  st.Stats.ParityErrors,
	}
	if m.Configured {
		m.Format = st.Effective.String()
	}
	return m
}

// TypeID implements Serializable.
func (m *ChannelStatus) TypeID() uint32 { return ChannelStatusTypeID }

// ProtoMessage implements proto.Message.
func (m *ChannelStatus) ProtoMessage() {}

// Reset implements proto.Message.
func (m *ChannelStatus) Reset() { *m = ChannelStatus{} }

// String implements proto.Message.
func (m *ChannelStatus) String() string { return proto.CompactTextString(m) }

// DriverStatus reports all channels of the driver.
type DriverStatus struct {
	Cycle     uint64           `protobuf:"varint,1,opt,name=cycle,proto3" json:"cycle,omitempty"`
	Condition string           `protobuf:"bytes,2,opt,name=condition,proto3" json:"condition,omitempty"`
	Channels  []*ChannelStatus `protobuf:"bytes,3,rep,name=channels,proto3" json:"channels,omitempty"`
}

// NewDriverStatus snapshots every channel of d. condition is the result
// of the latest bridge task.
func NewDriverStatus(d *uart.Driver, cycle uint64, condition error) *DriverStatus {
	m := &DriverStatus{Cycle: cycle}
	if condition != nil {
		m.Condition = condition.Error()
	}
	for _, ch := range uart.Channels {
		if st, err := d.Snapshot(ch); err == nil {
			m.Channels = append(m.Channels, NewChannelStatus(st))
		}
	}
	return m
}

// TypeID implements Serializable.
func (m *DriverStatus) TypeID() uint32 { return DriverStatusTypeID }

// ProtoMessage implements proto.Message.
func (m *DriverStatus) ProtoMessage() {}

// Reset implements proto.Message.
func (m *DriverStatus) Reset() { *m = DriverStatus{} }

// String implements proto.Message.
func (m *DriverStatus) String() string { return proto.CompactTextString(m) }

// ThermalStatus reports temperatures and actuators.
type ThermalStatus struct {
	Cycle         uint64  `protobuf:"varint,1,opt,name=cycle,proto3" json:"cycle,omitempty"`
	Coolant       float64 `protobuf:"fixed64,2,opt,name=coolant,proto3" json:"coolant,omitempty"`
	Motor         float64 `protobuf:"fixed64,3,opt,name=motor,proto3" json:"motor,omitempty"`
	Battery       float64 `protobuf:"fixed64,4,opt,name=battery,proto3" json:"battery,omitempty"`
	Pump          bool    `protobuf:"varint,5,opt,name=pump,proto3" json:"pump,omitempty"`
	MotorFans     bool    `protobuf:"varint,6,opt,name=motor_fans,proto3" json:"motor_fans,omitempty"`
	BatteryFans   bool    `protobuf:"varint,7,opt,name=battery_fans,proto3" json:"battery_fans,omitempty"`
	StatusSent    uint64  `protobuf:"varint,8,opt,name=status_sent,proto3" json:"status_sent,omitempty"`
	StatusDropped uint64  `protobuf:"varint,9,opt,name=status_dropped,proto3" json:"status_dropped,omitempty"`
}

// NewThermalStatus converts a controller status.
func NewThermalStatus(cycle uint64, st thermal.Status) *ThermalStatus {
	return &ThermalStatus{
		Cycle:         cycle,
		Coolant:       st.Temperatures.Coolant,
		Motor:         st.Temperatures.Motor,
		Battery:       st.Temperatures.Battery,
		Pump:          st.Actuation.Pump,
		MotorFans:     st.Actuation.MotorFans,
		BatteryFans:   st.Actuation.BatteryFans,
		StatusSent:    st.StatusSent,
		StatusDropped: st.StatusDropped,
	}
}

// TypeID implements Serializable.
func (m *ThermalStatus) TypeID() uint32 { return ThermalStatusTypeID }

// ProtoMessage implements proto.Message.
func (m *ThermalStatus) ProtoMessage() {}

// Reset implements proto.Message.
func (m *ThermalStatus) Reset() { *m = ThermalStatus{} }

// String implements proto.Message.
func (m *ThermalStatus) String() string { return proto.CompactTextString(m) }
