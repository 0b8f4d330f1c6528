// Package websocket streams encoded telemetry frames to websocket clients.
package websocket

import (
	"context"
	"net/http"
	"sync"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"

	fx "github.com/robotalks/evtherm/pkg/framework"
	"github.com/robotalks/evtherm/pkg/telemetry/msgs"
)

// ReadWriter reads and writes binary frames on a websocket connection.
type ReadWriter websocket.Conn

// New wraps websocket.Conn.
func New(conn *websocket.Conn) *ReadWriter {
	return (*ReadWriter)(conn)
}

// ReadPacket reads one frame.
func (p *ReadWriter) ReadPacket() (pkt []byte, err error) {
	err = websocket.Message.Receive((*websocket.Conn)(p), &pkt)
	return
}

// WritePacket writes one frame.
func (p *ReadWriter) WritePacket(pkt []byte) error {
	return websocket.Message.Send((*websocket.Conn)(p), pkt)
}

// ClientQueueLen is the frames buffered per client before frames are
// dropped for that client.
const ClientQueueLen = 16

// Stream is an http.Handler which sends every broadcast frame to all
// connected clients. Slow clients lose frames rather than slowing the
// control loop down.
type Stream struct {
	// Addr is the listen address used by Run.
	Addr string
	// Every is the broadcast period in cycles when used as Controller.
	Every   int
	Sources []func(fx.ControlContext) msgs.Serializable

	lock    sync.Mutex
	clients map[chan []byte]struct{}
	dropped uint64
	handler websocket.Handler
}

// NewStream creates a Stream.
func NewStream(every int) *Stream {
	s := &Stream{Every: every, clients: make(map[chan []byte]struct{})}
	s.handler = websocket.Handler(s.serve)
	return s
}

// AddSource adds a message collected at every broadcast.
func (s *Stream) AddSource(collect func(fx.ControlContext) msgs.Serializable) *Stream {
	s.Sources = append(s.Sources, collect)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Stream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Clients returns the number of connected clients.
func (s *Stream) Clients() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return len(s.clients)
}

// Dropped returns the frames dropped for slow clients.
func (s *Stream) Dropped() uint64 {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.dropped
}

// Broadcast queues a frame to every client without blocking.
func (s *Stream) Broadcast(frame []byte) {
	s.lock.Lock()
	defer s.lock.Unlock()
	for ch := range s.clients {
		select {
		case ch <- frame:
		default:
			s.dropped++
		}
	}
}

// AddToLoop implements LoopAdder. Being a Runnable, the Stream is also
// started by the loop.
func (s *Stream) AddToLoop(l *fx.Loop) {
	l.AddController(fx.PrLvPostProc, s)
}

// Run implements Runnable, serving the stream on Addr until ctx is
// done. It returns immediately when Addr is empty.
func (s *Stream) Run(ctx context.Context) error {
	if s.Addr == "" {
		return nil
	}
	srv := &http.Server{Addr: s.Addr, Handler: s}
	go func() {
		<-ctx.Done()
		srv.Close()
	}()
	glog.Infof("websocket telemetry on %s", s.Addr)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return ctx.Err()
}

// Control implements Controller.
func (s *Stream) Control(cc fx.ControlContext) error {
	if s.Every <= 0 || cc.Cycle()%uint64(s.Every) != 0 || s.Clients() == 0 {
		return nil
	}
	for _, collect := range s.Sources {
		frame, err := msgs.Encode(collect(cc))
		if err != nil {
			return err
		}
		s.Broadcast(frame)
	}
	return nil
}

func (s *Stream) serve(conn *websocket.Conn) {
	conn.PayloadType = websocket.BinaryFrame
	ch := make(chan []byte, ClientQueueLen)
	s.lock.Lock()
	s.clients[ch] = struct{}{}
	s.lock.Unlock()
	glog.V(1).Infof("websocket client %s connected", conn.Request().RemoteAddr)
	defer func() {
		s.lock.Lock()
		delete(s.clients, ch)
		s.lock.Unlock()
		conn.Close()
		glog.V(1).Infof("websocket client %s disconnected", conn.Request().RemoteAddr)
	}()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		// the client never sends anything, reading detects the close
		var discard []byte
		for websocket.Message.Receive(conn, &discard) == nil {
		}
	}()

	rw := New(conn)
	for {
		select {
		case <-closed:
			return
		case frame := <-ch:
			if err := rw.WritePacket(frame); err != nil {
				glog.V(1).Infof("websocket write: %v", err)
				return
			}
		}
	}
}
