// Package stream serves tick reports to browsers over websockets and
// accepts control messages back.
package stream

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pthm-cable/kinetics/config"
	"github.com/pthm-cable/kinetics/sim"
)

const writeTimeout = 10 * time.Second

// Controller is the control surface remote clients drive.
// *sim.Engine satisfies it.
type Controller interface {
	Start()
	Pause()
	Reset()
	AddParticles(config.SpawnGroup)
	RemoveParticles(species string, n int)
	SetTemperature(t float64)
}

// Message types sent to clients.
const (
	TypeHello  = "hello"
	TypeTick   = "tick"
	TypeCounts = "counts"
	TypeError  = "error"
)

// Envelope is the outgoing wire format.
type Envelope struct {
	Type   string              `json:"type"`
	Tick   int64               `json:"tick,omitempty"`
	Report *sim.TickReport     `json:"report,omitempty"`
	Counts sim.AggregateCounts `json:"counts,omitempty"`
	Hello  any                 `json:"hello,omitempty"`
	Error  string              `json:"error,omitempty"`
}

// Options configures a Hub.
type Options struct {
	// EveryN broadcasts every Nth presented report; values below 1 mean 1.
	EveryN int
	// Buffer is the broadcast queue length. Reports are dropped, never
	// waited for, when it is full.
	Buffer int
	// Hello is sent to each client right after it connects.
	Hello  any
	Logger *slog.Logger
}

type registration struct {
	conn  *websocket.Conn
	hello []byte
}

type direct struct {
	conn *websocket.Conn
	data []byte
}

// Hub fans tick reports out to websocket clients. A single goroutine owns
// every connection write; each connection has its own reader goroutine that
// forwards control messages to the Controller.
type Hub struct {
	ctrl     Controller
	logger   *slog.Logger
	everyN   int
	hello    []byte
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*websocket.Conn]bool

	broadcast  chan []byte
	send       chan direct
	register   chan registration
	unregister chan *websocket.Conn
	done       chan struct{}
	closeOnce  sync.Once
	wg         sync.WaitGroup

	presented int
	dropped   int
}

// NewHub creates a hub and starts its broadcaster goroutine.
func NewHub(ctrl Controller, opts Options) (*Hub, error) {
	if opts.EveryN < 1 {
		opts.EveryN = 1
	}
	if opts.Buffer < 1 {
		opts.Buffer = 64
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	var hello []byte
	if opts.Hello != nil {
		data, err := json.Marshal(Envelope{Type: TypeHello, Hello: opts.Hello})
		if err != nil {
			return nil, fmt.Errorf("encoding hello: %w", err)
		}
		hello = data
	}

	h := &Hub{
		ctrl:       ctrl,
		logger:     opts.Logger,
		everyN:     opts.EveryN,
		hello:      hello,
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan []byte, opts.Buffer),
		send:       make(chan direct, 16),
		register:   make(chan registration),
		unregister: make(chan *websocket.Conn),
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
	}

	h.wg.Add(1)
	go h.run()
	return h, nil
}

// Present implements sim.Presenter. It never blocks the tick.
func (h *Hub) Present(r sim.TickReport) {
	h.presented++
	if (h.presented-1)%h.everyN != 0 {
		return
	}
	h.enqueue(Envelope{Type: TypeTick, Tick: r.Tick, Report: &r})
}

// PublishCounts broadcasts a count change. It matches the signature of
// Engine.Subscribe callbacks once the tick is bound.
func (h *Hub) PublishCounts(tick int64, counts sim.AggregateCounts) {
	h.enqueue(Envelope{Type: TypeCounts, Tick: tick, Counts: counts})
}

// Dropped returns the number of messages dropped because the queue was full.
func (h *Hub) Dropped() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.dropped
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) enqueue(env Envelope) {
	data, err := json.Marshal(env)
	if err != nil {
		h.logger.Error("stream: encode failed", "type", env.Type, "error", err)
		return
	}
	select {
	case h.broadcast <- data:
	case <-h.done:
	default:
		h.mu.Lock()
		h.dropped++
		h.mu.Unlock()
	}
}

// ServeHTTP upgrades the request to a websocket and serves the client
// until it disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("stream: upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	select {
	case h.register <- registration{conn: conn, hello: h.hello}:
	case <-h.done:
		conn.Close()
		return
	}
	h.logger.Info("stream: client connected", "remote", r.RemoteAddr)

	h.readLoop(conn)

	select {
	case h.unregister <- conn:
	case <-h.done:
	}
	h.logger.Info("stream: client disconnected", "remote", r.RemoteAddr)
}

// readLoop decodes control messages until the connection fails.
func (h *Hub) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			h.reply(conn, fmt.Errorf("decoding message: %w", err))
			continue
		}
		if err := msg.Apply(h.ctrl); err != nil {
			h.reply(conn, err)
		}
	}
}

func (h *Hub) reply(conn *websocket.Conn, err error) {
	data, mErr := json.Marshal(Envelope{Type: TypeError, Error: err.Error()})
	if mErr != nil {
		return
	}
	select {
	case h.send <- direct{conn: conn, data: data}:
	case <-h.done:
	}
}

// run owns client registration and every connection write.
func (h *Hub) run() {
	defer h.wg.Done()
	for {
		select {
		case <-h.done:
			return

		case reg := <-h.register:
			h.mu.Lock()
			h.clients[reg.conn] = true
			h.mu.Unlock()
			if reg.hello != nil {
				h.write(reg.conn, reg.hello)
			}

		case conn := <-h.unregister:
			h.remove(conn)

		case msg := <-h.send:
			h.mu.RLock()
			ok := h.clients[msg.conn]
			h.mu.RUnlock()
			if ok {
				h.write(msg.conn, msg.data)
			}

		case data := <-h.broadcast:
			h.mu.RLock()
			conns := make([]*websocket.Conn, 0, len(h.clients))
			for conn := range h.clients {
				conns = append(conns, conn)
			}
			h.mu.RUnlock()

			for _, conn := range conns {
				h.write(conn, data)
			}
		}
	}
}

// write sends one message, dropping the client on failure.
func (h *Hub) write(conn *websocket.Conn, data []byte) {
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		h.logger.Debug("stream: write failed", "error", err)
		h.remove(conn)
	}
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	if _, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		conn.Close()
	}
	h.mu.Unlock()
}

// Close disconnects every client and stops the broadcaster.
func (h *Hub) Close() error {
	h.closeOnce.Do(func() {
		close(h.done)
		h.wg.Wait()

		h.mu.Lock()
		for conn := range h.clients {
			conn.Close()
			delete(h.clients, conn)
		}
		h.mu.Unlock()
	})
	return nil
}
