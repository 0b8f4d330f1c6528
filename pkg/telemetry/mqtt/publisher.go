package mqtt

import (
	"context"
	"encoding/json"

	"github.com/golang/glog"

	"github.com/robotalks/evtherm/pkg/env"
	fx "github.com/robotalks/evtherm/pkg/framework"
	"github.com/robotalks/evtherm/pkg/telemetry/msgs"
)

// Source collects one telemetry message on the loop goroutine.
type Source struct {
	// Name is the last topic segment, e.g. "uart".
	Name    string
	Collect func(fx.ControlContext) msgs.Serializable
}

// Publisher publishes retained controller metadata and periodic
// telemetry under <prefix><type>/<id>/.
type Publisher struct {
	Queue *Queue
	Info  env.Info
	// Every is the publish period in cycles.
	Every   int
	Sources []Source

	metaJSON []byte
}

// NewPublisher creates a Publisher connecting to brokerURL. The meta
// topic is cleared by the broker through the will when the connection
// is lost.
func NewPublisher(brokerURL string, info env.Info, every int) (*Publisher, error) {
	meta, err := json.Marshal(&info.Meta)
	if err != nil {
		return nil, err
	}
	opts, topicPrefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	opts.SetBinaryWill(topicPrefix+info.Ref.Name()+"/meta", nil, 1, true)
	if opts.ClientID == "" {
		opts.SetClientID("evtherm:" + info.Ref.Name())
	}
	p := &Publisher{
		Queue:    NewQueue(opts, topicPrefix),
		Info:     info,
		Every:    every,
		metaJSON: meta,
	}
	p.Queue.OnConnect = func(*Queue) { p.publishMeta() }
	return p, nil
}

// Topic returns the full topic of a sub-topic of this controller,
// without the broker prefix.
func (p *Publisher) Topic(sub string) string {
	return p.Info.Ref.Name() + "/" + sub
}

// AddSource adds a telemetry source.
func (p *Publisher) AddSource(name string, collect func(fx.ControlContext) msgs.Serializable) *Publisher {
	p.Sources = append(p.Sources, Source{Name: name, Collect: collect})
	return p
}

// HandleCommand subscribes <type>/<id>/cmd/<name>.
func (p *Publisher) HandleCommand(name string, handler Handler) {
	p.Queue.Sub(p.Topic("cmd/"+name), handler)
}

// AddToLoop implements LoopAdder. Being a Runnable, the Publisher is
// also started by the loop.
func (p *Publisher) AddToLoop(l *fx.Loop) {
	l.AddController(fx.PrLvPostProc, p)
}

// Control implements Controller.
func (p *Publisher) Control(cc fx.ControlContext) error {
	if p.Every <= 0 || cc.Cycle()%uint64(p.Every) != 0 || !p.Queue.Client.IsConnected() {
		return nil
	}
	for _, src := range p.Sources {
		data, err := msgs.Encode(src.Collect(cc))
		if err != nil {
			return err
		}
		glog.V(2).Infof("PUB %s (%d bytes)", src.Name, len(data))
		p.Queue.Pub(p.Topic("status/"+src.Name), data)
	}
	return nil
}

// Run implements Runnable.
func (p *Publisher) Run(ctx context.Context) error {
	p.Queue.Connect()
	<-ctx.Done()
	p.Queue.PubWith(p.Topic("meta"), nil, 1, true).Wait()
	return p.Queue.Close()
}

func (p *Publisher) publishMeta() {
	p.Queue.PubWith(p.Topic("meta"), p.metaJSON, 1, true)
}
