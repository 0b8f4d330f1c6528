// Package thermal implements the thermal controller of the EV cooling
// loop: a water pump, motor fans and battery fans switched by
// hysteresis on coolant, motor and battery temperatures.
package thermal

import "fmt"

// Temperatures are the sensed temperatures in Celsius.
type Temperatures struct {
	Coolant float64
	Motor   float64
	Battery float64
}

// Actuation is the on/off state of the actuators.
type Actuation struct {
	Pump        bool
	MotorFans   bool
	BatteryFans bool
}

// Bits packs the actuation as pump|motorFans<<1|batteryFans<<2.
func (a Actuation) Bits() byte {
	var b byte
	if a.Pump {
		b |= 1
	}
	if a.MotorFans {
		b |= 2
	}
	if a.BatteryFans {
		b |= 4
	}
	return b
}

// ActuationFromBits is the reverse of Bits.
func ActuationFromBits(b byte) Actuation {
	return Actuation{Pump: b&1 != 0, MotorFans: b&2 != 0, BatteryFans: b&4 != 0}
}

// String implements fmt.Stringer.
func (a Actuation) String() string {
	return fmt.Sprintf("P=%d MF=%d BF=%d", b2i(a.Pump), b2i(a.MotorFans), b2i(a.BatteryFans))
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Sensors provides temperature readings.
type Sensors interface {
	Temperatures() Temperatures
}

// Actuators applies the actuation.
type Actuators interface {
	Actuate(Actuation)
}

// Hysteresis is a two-point switch: it turns on at or above On and off
// at or below Off, keeping its state in between.
type Hysteresis struct {
	On  float64
	Off float64

	state bool
}

// Update feeds a reading and returns the new state.
func (h *Hysteresis) Update(v float64) bool {
	switch {
	case v >= h.On:
		h.state = true
	case v <= h.Off:
		h.state = false
	}
	return h.state
}

// State returns the current state.
func (h *Hysteresis) State() bool {
	return h.state
}
