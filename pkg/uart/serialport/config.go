package serialport

import (
	"flag"
	"os"

	"github.com/robotalks/evtherm/pkg/uart"
)

// Config assigns serial devices to channels.
type Config struct {
	Ports [uart.NumChannels]string
}

var defaultConfig Config

func init() {
	for _, ch := range uart.Channels {
		if val := os.Getenv("EVTHERM_PORT_" + envName(ch)); val != "" {
			defaultConfig.Ports[ch] = val
		}
	}
}

func envName(ch uart.Channel) string {
	switch ch {
	case uart.ChannelRS232:
		return "RS232"
	case uart.ChannelLIN:
		return "LIN"
	default:
		return "AUX"
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	for _, ch := range uart.Channels {
		flag.StringVar(&defaultConfig.Ports[ch], "port-"+ch.String(), defaultConfig.Ports[ch], "Serial device of the "+ch.String()+" channel")
	}
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

// Enabled indicates at least one device is assigned.
func (c *Config) Enabled() bool {
	for _, name := range c.Ports {
		if name != "" {
			return true
		}
	}
	return false
}

// NewHardware creates the Hardware.
func (c *Config) NewHardware() *Hardware {
	return New(c.Ports)
}
