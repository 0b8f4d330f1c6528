package env

import (
	"flag"
	"fmt"
	"os"
	"time"
)

// DefaultType is the controller type.
const DefaultType = "evtherm"

// Config provides common options of a controller process.
type Config struct {
	Info Info

	// MQTTBrokerURL specifies the MQTT broker publishing telemetry,
	// e.g. mqtt://host:port/topic-prefix. Empty disables MQTT.
	MQTTBrokerURL string
	// WebsocketAddr is the listen address of the telemetry stream.
	// Empty disables it.
	WebsocketAddr string
	// Interval is the control cycle period.
	Interval time.Duration
	// PublishEvery is the telemetry period in cycles.
	PublishEvery int
}

var defaultConfig = Config{
	Info:          Info{Ref: Ref{Type: DefaultType}},
	MQTTBrokerURL: "",
	Interval:      100 * time.Millisecond,
	PublishEvery:  10,
}

func init() {
	if val := os.Getenv("EVTHERM_TYPE"); val != "" {
		defaultConfig.Info.Ref.Type = val
	}
	if val := os.Getenv("EVTHERM_ID"); val != "" {
		defaultConfig.Info.Ref.ID = val
	} else {
		defaultConfig.Info.Ref.ID = MachineID(defaultConfig.Info.Ref.Type)
	}
	if val := os.Getenv("EVTHERM_MQTT_URL"); val != "" {
		defaultConfig.MQTTBrokerURL = val
	}
	if val := os.Getenv("EVTHERM_WS_ADDR"); val != "" {
		defaultConfig.WebsocketAddr = val
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Info.Ref.Type, "type", defaultConfig.Info.Ref.Type, "Controller type")
	flag.StringVar(&defaultConfig.Info.Ref.ID, "id", defaultConfig.Info.Ref.ID, "Controller ID")
	flag.StringVar(&defaultConfig.MQTTBrokerURL, "mqtt", defaultConfig.MQTTBrokerURL, "MQTT broker URL")
	flag.StringVar(&defaultConfig.WebsocketAddr, "ws", defaultConfig.WebsocketAddr, "Telemetry websocket listen address")
	flag.DurationVar(&defaultConfig.Interval, "interval", defaultConfig.Interval, "Control cycle period")
	flag.IntVar(&defaultConfig.PublishEvery, "publish-every", defaultConfig.PublishEvery, "Telemetry period in cycles")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// SetDescription should be called in init with metadata of the process.
func SetDescription(meta Meta) {
	defaultConfig.Info.Meta = meta
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Validate checks the config.
func (c *Config) Validate() error {
	if !c.Info.Ref.IsValid() {
		return fmt.Errorf("controller type and id must be specified")
	}
	if c.Interval <= 0 {
		return fmt.Errorf("invalid cycle interval %v", c.Interval)
	}
	if c.PublishEvery <= 0 {
		return fmt.Errorf("invalid publish period %d", c.PublishEvery)
	}
	return nil
}
