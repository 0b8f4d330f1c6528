package thermal

import (
	"errors"
	"fmt"
	"sync"

	"github.com/golang/glog"

	fx "github.com/robotalks/evtherm/pkg/framework"
	"github.com/robotalks/evtherm/pkg/link"
	"github.com/robotalks/evtherm/pkg/uart"
)

// Writer enqueues bytes on a serial channel, *uart.Driver implements it.
type Writer interface {
	Write(ch uart.Channel, p []byte) (int, error)
}

// StatusFormat is the status line written on the status channel.
const StatusFormat = "T c=%.1f m=%.1f b=%.1f P=%d MF=%d BF=%d\r\n"

// FormatStatus renders the status line.
func FormatStatus(t Temperatures, a Actuation) string {
	return fmt.Sprintf(StatusFormat, t.Coolant, t.Motor, t.Battery,
		b2i(a.Pump), b2i(a.MotorFans), b2i(a.BatteryFans))
}

// Status is a snapshot of the controller.
type Status struct {
	Temperatures Temperatures
	Actuation    Actuation
	// StatusSent counts status reports fully enqueued.
	StatusSent uint64
	// StatusDropped counts status reports truncated or rejected by a full
	// transmit ring.
	StatusDropped uint64
}

// Controller runs the hysteresis control once per cycle.
type Controller struct {
	Sensors   Sensors
	Actuators Actuators
	Out       Writer

	Pump        Hysteresis
	MotorFans   Hysteresis
	BatteryFans Hysteresis

	StatusChannel uart.Channel
	StatusEvery   int
	LINStatus     bool

	// Framer sends the status as link packets instead of text lines
	// when set.
	Framer *link.Framer

	lock   sync.RWMutex
	status Status
	inited bool
}

// NewController creates a Controller with default thresholds.
func NewController(sensors Sensors, actuators Actuators, out Writer) *Controller {
	return &Controller{
		Sensors:       sensors,
		Actuators:     actuators,
		Out:           out,
		Pump:          Hysteresis{On: defaultConfig.PumpOn, Off: defaultConfig.PumpOff},
		MotorFans:     Hysteresis{On: defaultConfig.MotorFanOn, Off: defaultConfig.MotorFanOff},
		BatteryFans:   Hysteresis{On: defaultConfig.BatteryFanOn, Off: defaultConfig.BatteryFanOff},
		StatusChannel: uart.ChannelRS232,
		StatusEvery:   defaultConfig.StatusEvery,
	}
}

// AddToLoop implements LoopAdder.
func (c *Controller) AddToLoop(l *fx.Loop) {
	l.AddController(fx.PrLvControl, c)
}

// Control implements Controller.
func (c *Controller) Control(cc fx.ControlContext) error {
	temps := c.Sensors.Temperatures()
	act := Actuation{
		Pump:        c.Pump.Update(temps.Coolant),
		MotorFans:   c.MotorFans.Update(temps.Motor),
		BatteryFans: c.BatteryFans.Update(temps.Battery),
	}

	c.lock.Lock()
	changed := !c.inited || act != c.status.Actuation
	c.status.Temperatures, c.status.Actuation, c.inited = temps, act, true
	c.lock.Unlock()

	if changed {
		glog.V(1).Infof("cycle %d: actuation %v", cc.Cycle(), act)
	}
	c.Actuators.Actuate(act)

	if c.StatusEvery > 0 && cc.Cycle()%uint64(c.StatusEvery) == 0 {
		return c.report(temps, act)
	}
	return nil
}

func (c *Controller) report(temps Temperatures, act Actuation) error {
	out := []byte(FormatStatus(temps, act))
	if c.Framer != nil {
		var err error
		if out, err = c.Framer.Frame(StatusCode, StatusPayload(temps, act)); err != nil {
			return err
		}
	}
	n, err := c.Out.Write(c.StatusChannel, out)
	if err != nil && !errors.Is(err, uart.ErrBufferFull) {
		return err
	}
	c.lock.Lock()
	if n < len(out) {
		c.status.StatusDropped++
	} else {
		c.status.StatusSent++
	}
	c.lock.Unlock()
	if n < len(out) {
		glog.Warningf("status truncated: %d/%d bytes enqueued", n, len(out))
		if c.Framer != nil {
			c.Framer.Resync()
		}
	}
	if c.LINStatus {
		if _, err := c.Out.Write(uart.ChannelLIN, []byte{act.Bits()}); err != nil {
			if !errors.Is(err, uart.ErrBufferFull) {
				return err
			}
			glog.Warningf("LIN status frame dropped: %v", err)
		}
	}
	return nil
}

// Status returns a snapshot, safe to call from any goroutine.
func (c *Controller) Status() Status {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.status
}
