package thermal

import (
	"flag"
	"fmt"

	"github.com/robotalks/evtherm/pkg/link"
	"github.com/robotalks/evtherm/pkg/uart"
)

// Config defines the thresholds and reporting of the controller.
type Config struct {
	PumpOn        float64
	PumpOff       float64
	MotorFanOn    float64
	MotorFanOff   float64
	BatteryFanOn  float64
	BatteryFanOff float64

	// StatusChannel is the channel name receiving the status line.
	StatusChannel string
	// StatusEvery is the status period in cycles, 0 disables it.
	StatusEvery int
	// LINStatus sends the actuation bits as a LIN frame with every status.
	LINStatus bool
	// StatusFrames sends the status as link packets.
	StatusFrames bool
}

var defaultConfig = Config{
	PumpOn:        45,
	PumpOff:       40,
	MotorFanOn:    70,
	MotorFanOff:   60,
	BatteryFanOn:  35,
	BatteryFanOff: 30,
	StatusChannel: uart.ChannelRS232.String(),
	StatusEvery:   10,
	LINStatus:     true,
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.Float64Var(&defaultConfig.PumpOn, "pump-on", defaultConfig.PumpOn, "Coolant temperature (C) turning the pump on.")
	flag.Float64Var(&defaultConfig.PumpOff, "pump-off", defaultConfig.PumpOff, "Coolant temperature (C) turning the pump off.")
	flag.Float64Var(&defaultConfig.MotorFanOn, "motor-fan-on", defaultConfig.MotorFanOn, "Motor temperature (C) turning motor fans on.")
	flag.Float64Var(&defaultConfig.MotorFanOff, "motor-fan-off", defaultConfig.MotorFanOff, "Motor temperature (C) turning motor fans off.")
	flag.Float64Var(&defaultConfig.BatteryFanOn, "battery-fan-on", defaultConfig.BatteryFanOn, "Battery temperature (C) turning battery fans on.")
	flag.Float64Var(&defaultConfig.BatteryFanOff, "battery-fan-off", defaultConfig.BatteryFanOff, "Battery temperature (C) turning battery fans off.")
	flag.StringVar(&defaultConfig.StatusChannel, "status-channel", defaultConfig.StatusChannel, "Channel (rs232, lin, aux) receiving the status line.")
	flag.IntVar(&defaultConfig.StatusEvery, "status-every", defaultConfig.StatusEvery, "Status period in cycles, 0 disables.")
	flag.BoolVar(&defaultConfig.LINStatus, "lin-status", defaultConfig.LINStatus, "Send actuation bits as a LIN frame.")
	flag.BoolVar(&defaultConfig.StatusFrames, "status-frames", defaultConfig.StatusFrames, "Send the status as binary packets instead of text.")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates the default configuration.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Validate checks thresholds are ordered.
func (c *Config) Validate() error {
	for _, p := range []struct {
		name    string
		on, off float64
	}{
		{"pump", c.PumpOn, c.PumpOff},
		{"motor fan", c.MotorFanOn, c.MotorFanOff},
		{"battery fan", c.BatteryFanOn, c.BatteryFanOff},
	} {
		if p.off >= p.on {
			return fmt.Errorf("%s: off threshold %.1f must be below on threshold %.1f", p.name, p.off, p.on)
		}
	}
	if c.StatusEvery < 0 {
		return fmt.Errorf("invalid status period %d", c.StatusEvery)
	}
	return nil
}

// NewController creates the Controller.
func (c *Config) NewController(sensors Sensors, actuators Actuators, out Writer) (*Controller, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	ch, err := uart.ParseChannel(c.StatusChannel)
	if err != nil {
		return nil, fmt.Errorf("status channel %q: %w", c.StatusChannel, err)
	}
	ctl := NewController(sensors, actuators, out)
	ctl.Pump = Hysteresis{On: c.PumpOn, Off: c.PumpOff}
	ctl.MotorFans = Hysteresis{On: c.MotorFanOn, Off: c.MotorFanOff}
	ctl.BatteryFans = Hysteresis{On: c.BatteryFanOn, Off: c.BatteryFanOff}
	ctl.StatusChannel = ch
	ctl.StatusEvery = c.StatusEvery
	ctl.LINStatus = c.LINStatus
	if c.StatusFrames {
		ctl.Framer = link.NewFramer()
	}
	return ctl, nil
}
