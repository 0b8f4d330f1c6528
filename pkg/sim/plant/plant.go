// Package plant simulates the thermal behavior of the motor, the
// battery and the coolant loop between them.
package plant

import (
	"sync"
	"time"

	fx "github.com/robotalks/evtherm/pkg/framework"
	"github.com/robotalks/evtherm/pkg/thermal"
)

// Params are the coefficients of the model, all per second.
type Params struct {
	// MotorHeat is the motor heating rate (C/s) at full load.
	MotorHeat float64
	// BatteryHeat is the battery heating rate (C/s) at full load.
	BatteryHeat float64
	// Passive is the exchange rate with ambient air without fans.
	Passive float64
	// FanCooling is the extra exchange rate with ambient air of fans.
	FanCooling float64
	// Transfer is the exchange rate with coolant when the pump is off.
	Transfer float64
	// PumpTransfer is the exchange rate with coolant when the pump runs.
	PumpTransfer float64
	// Radiator is the exchange rate of coolant with ambient air.
	Radiator float64
}

// DefaultParams are rough figures of a small EV drivetrain.
var DefaultParams = Params{
	MotorHeat:    2,
	BatteryHeat:  0.4,
	Passive:      0.005,
	FanCooling:   0.05,
	Transfer:     0.005,
	PumpTransfer: 0.05,
	Radiator:     0.03,
}

// maxStep bounds one integration step.
const maxStep = 100 * time.Millisecond

// Plant is the simulated thermal plant. It implements thermal.Sensors
// and thermal.Actuators and is safe for concurrent use.
type Plant struct {
	Params Params

	lock    sync.RWMutex
	ambient float64
	load    float64
	temps   thermal.Temperatures
	act     thermal.Actuation
}

// New creates a Plant at ambient temperature.
func New(ambient float64) *Plant {
	return &Plant{
		Params:  DefaultParams,
		ambient: ambient,
		temps:   thermal.Temperatures{Coolant: ambient, Motor: ambient, Battery: ambient},
	}
}

// Temperatures implements thermal.Sensors.
func (p *Plant) Temperatures() thermal.Temperatures {
	p.lock.RLock()
	defer p.lock.RUnlock()
	return p.temps
}

// SetTemperatures overrides the current temperatures.
func (p *Plant) SetTemperatures(t thermal.Temperatures) {
	p.lock.Lock()
	p.temps = t
	p.lock.Unlock()
}

// Actuate implements thermal.Actuators.
func (p *Plant) Actuate(a thermal.Actuation) {
	p.lock.Lock()
	p.act = a
	p.lock.Unlock()
}

// Actuation returns the applied actuation.
func (p *Plant) Actuation() thermal.Actuation {
	p.lock.RLock()
	defer p.lock.RUnlock()
	return p.act
}

// SetLoad sets the drive load, clamped to [0, 1].
func (p *Plant) SetLoad(load float64) {
	if load < 0 {
		load = 0
	} else if load > 1 {
		load = 1
	}
	p.lock.Lock()
	p.load = load
	p.lock.Unlock()
}

// Load returns the drive load.
func (p *Plant) Load() float64 {
	p.lock.RLock()
	defer p.lock.RUnlock()
	return p.load
}

// Step advances the model by dt.
func (p *Plant) Step(dt time.Duration) {
	p.lock.Lock()
	defer p.lock.Unlock()
	for dt > 0 {
		step := dt
		if step > maxStep {
			step = maxStep
		}
		p.integrate(step.Seconds())
		dt -= step
	}
}

func (p *Plant) integrate(sec float64) {
	k, t, amb := &p.Params, &p.temps, p.ambient
	transfer := k.Transfer
	if p.act.Pump {
		transfer = k.PumpTransfer
	}
	motorAir, batteryAir := k.Passive, k.Passive
	if p.act.MotorFans {
		motorAir += k.FanCooling
	}
	if p.act.BatteryFans {
		batteryAir += k.FanCooling
	}
	toMotor := p.load*k.MotorHeat - motorAir*(t.Motor-amb) - transfer*(t.Motor-t.Coolant)
	toBattery := p.load*k.BatteryHeat - batteryAir*(t.Battery-amb) - transfer*(t.Battery-t.Coolant)
	toCoolant := transfer*(t.Motor-t.Coolant) + transfer*(t.Battery-t.Coolant) - k.Radiator*(t.Coolant-amb)
	t.Motor += toMotor * sec
	t.Battery += toBattery * sec
	t.Coolant += toCoolant * sec
}

// AddToLoop implements LoopAdder. The plant advances ahead of sensing.
func (p *Plant) AddToLoop(l *fx.Loop) {
	l.AddController(fx.PrLvTop, fx.ControlFunc(func(cc fx.ControlContext) error {
		p.Step(cc.Elapsed())
		return nil
	}))
}
