package main

//go-build: CGO_ENABLED=0

import (
	"flag"
	"fmt"
	"log"
	"math"
	"strconv"
	"strings"

	"github.com/golang/glog"

	"github.com/robotalks/evtherm/pkg/env"
	fx "github.com/robotalks/evtherm/pkg/framework"
	"github.com/robotalks/evtherm/pkg/sim/plant"
	"github.com/robotalks/evtherm/pkg/sim/uarthw"
	"github.com/robotalks/evtherm/pkg/telemetry/mqtt"
	"github.com/robotalks/evtherm/pkg/telemetry/msgs"
	"github.com/robotalks/evtherm/pkg/telemetry/websocket"
	"github.com/robotalks/evtherm/pkg/thermal"
	"github.com/robotalks/evtherm/pkg/uart"
	"github.com/robotalks/evtherm/pkg/uart/serialport"
)

var (
	ambient = 25.0
	load    = 0.3
	bauds   = [uart.NumChannels]uint{115200, 19200, 9600}
)

func init() {
	env.SetDescription(env.Meta{Description: "EV thermal management controller"})
	env.SetupFlags()
	thermal.SetupFlags()
	serialport.SetupFlags()
	flag.Float64Var(&ambient, "ambient", ambient, "Simulated ambient temperature (C).")
	flag.Float64Var(&load, "load", load, "Simulated drive load [0, 1].")
	for _, ch := range uart.Channels {
		flag.UintVar(&bauds[ch], "baud-"+ch.String(), bauds[ch], "Baud rate of the "+ch.String()+" channel, 0 leaves it unused.")
	}
}

// baudRate converts the flag value, rejecting values uint32 can't hold
// instead of letting them wrap into the valid range.
func baudRate(ch uart.Channel, val uint) (uint32, error) {
	if uint64(val) > math.MaxUint32 {
		return 0, fmt.Errorf("-baud-%v %d: %w", ch, val, uart.ErrInvalidParameter)
	}
	return uint32(val), nil
}

func main() {
	flag.Parse()
	defer glog.Flush()

	conf := env.NewConfig()
	if err := conf.Validate(); err != nil {
		log.Fatalln(err)
	}

	loop := fx.NewLoop()
	loop.Interval = conf.Interval

	var hw uart.Hardware
	if ports := serialport.NewConfig(); ports.Enabled() {
		sp := ports.NewHardware()
		defer sp.Close()
		hw = sp
	} else {
		sim := uarthw.New()
		// the simulated line transmits everything at the end of a cycle
		loop.AddController(fx.PrLvPostProc, fx.ControlFunc(func(fx.ControlContext) error {
			for _, ch := range uart.Channels {
				if line := uarthw.Data(sim.Shift(ch, -1)); len(line) > 0 && glog.V(3) {
					glog.Infof("%v > %q", ch, line)
				}
			}
			return nil
		}))
		hw = sim
	}

	d, err := uart.NewDriver(hw)
	if err != nil {
		log.Fatalln(err)
	}
	for _, ch := range uart.Channels {
		if bauds[ch] == 0 {
			continue
		}
		baud, err := baudRate(ch, bauds[ch])
		if err != nil {
			log.Fatalln(err)
		}
		if err := d.Init(ch, baud, 8, uart.ParityNone, 1); err != nil {
			log.Fatalln(err)
		}
	}

	p := plant.New(ambient)
	p.SetLoad(load)
	ctl, err := thermal.NewConfig().NewController(p, p, d)
	if err != nil {
		log.Fatalln(err)
	}
	bridge := uart.NewBridge(d)
	loop.Add(p, bridge, ctl)

	uartStatus := func(cc fx.ControlContext) msgs.Serializable {
		return msgs.NewDriverStatus(d, cc.Cycle(), bridge.Condition())
	}
	thermalStatus := func(cc fx.ControlContext) msgs.Serializable {
		return msgs.NewThermalStatus(cc.Cycle(), ctl.Status())
	}

	if conf.MQTTBrokerURL != "" {
		pub, err := mqtt.NewPublisher(conf.MQTTBrokerURL, conf.Info, conf.PublishEvery)
		if err != nil {
			log.Fatalln(err)
		}
		pub.AddSource("uart", uartStatus).AddSource("thermal", thermalStatus)
		pub.HandleCommand("load", func(_ string, payload []byte) {
			val, err := strconv.ParseFloat(strings.TrimSpace(string(payload)), 64)
			if err != nil {
				glog.Warningf("invalid load %q: %v", payload, err)
				return
			}
			p.SetLoad(val)
		})
		pub.HandleCommand("write/+", func(topic string, payload []byte) {
			ch, err := uart.ParseChannel(topic[strings.LastIndex(topic, "/")+1:])
			if err != nil {
				glog.Warningf("%s: %v", topic, err)
				return
			}
			loop.PostMessage(&uart.WriteRequest{Channel: ch, Data: payload})
		})
		loop.Add(pub)
	}

	if conf.WebsocketAddr != "" {
		stream := websocket.NewStream(conf.PublishEvery)
		stream.Addr = conf.WebsocketAddr
		stream.AddSource(uartStatus).AddSource(thermalStatus)
		loop.Add(stream)
	}

	glog.Infof("%s running", conf.Info.Ref.Name())
	if err := fx.NewRunner().HandleSignals().Go(loop).Wait(); err != nil {
		log.Fatalln(err)
	}
}
