package plant

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/evtherm/pkg/thermal"
)

func TestIdleStaysAtAmbient(t *testing.T) {
	p := New(25)
	p.Step(time.Minute)
	require.Equal(t, thermal.Temperatures{Coolant: 25, Motor: 25, Battery: 25}, p.Temperatures())
}

func TestLoadHeats(t *testing.T) {
	p := New(25)
	p.SetLoad(1)
	p.Step(10 * time.Second)
	temps := p.Temperatures()
	require.True(t, temps.Motor > 40, "motor %.1f", temps.Motor)
	require.True(t, temps.Battery > 25)
	require.True(t, temps.Motor > temps.Coolant)
	require.True(t, temps.Coolant > 25)
}

func TestActuatorsCool(t *testing.T) {
	run := func(act thermal.Actuation) thermal.Temperatures {
		p := New(25)
		p.SetTemperatures(thermal.Temperatures{Coolant: 50, Motor: 80, Battery: 40})
		p.Actuate(act)
		p.Step(30 * time.Second)
		return p.Temperatures()
	}
	idle := run(thermal.Actuation{})
	cooled := run(thermal.Actuation{Pump: true, MotorFans: true, BatteryFans: true})
	require.True(t, cooled.Motor < idle.Motor)
	require.True(t, cooled.Battery < idle.Battery)
}

func TestSetLoadClamped(t *testing.T) {
	p := New(20)
	p.SetLoad(3)
	require.Equal(t, 1.0, p.Load())
	p.SetLoad(-1)
	require.Equal(t, 0.0, p.Load())
}
