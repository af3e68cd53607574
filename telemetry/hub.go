// Package telemetry streams match loop tick reports to websocket viewers.
package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"vsss-drive/closed_loop/match"
	"vsss-drive/utils"
)

const (
	clientBuffer = 64
	writeTimeout = time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// Frame is one message on the wire.
type Frame struct {
	Run    string           `json:"run"`
	Seq    uint64           `json:"seq"`
	Report match.TickReport `json:"report"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() { close(c.send) })
}

// Hub fans tick reports out to connected clients. OnTick never blocks:
// a client whose buffer is full is disconnected.
type Hub struct {
	run string
	log *utils.Logger
	seq atomic.Uint64

	mu      sync.Mutex
	clients map[*client]struct{}
}

func NewHub(run string, log *utils.Logger) *Hub {
	return &Hub{
		run:     run,
		log:     log,
		clients: make(map[*client]struct{}),
	}
}

// Clients is the number of connected viewers.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// OnTick implements match.Observer.
func (h *Hub) OnTick(rep match.TickReport) {
	seq := h.seq.Add(1)

	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.clients) == 0 {
		return
	}

	msg, err := json.Marshal(Frame{Run: h.run, Seq: seq, Report: rep})
	if err != nil {
		h.log.Error("telemetry: encode tick %d: %v", rep.Tick, err)
		return
	}
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			h.log.Warn("telemetry: dropping slow client %s", c.conn.RemoteAddr())
			delete(h.clients, c)
			c.close()
		}
	}
}

// Handler serves the websocket endpoint at /ws.
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.handleWebSocket)
	return mux
}

func (h *Hub) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("telemetry: upgrade %s: %v", r.RemoteAddr, err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, clientBuffer)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.log.Info("telemetry: client connected %s", conn.RemoteAddr())

	go h.readLoop(c)
	h.writeLoop(c)
}

// readLoop discards anything the viewer sends and notices disconnects.
func (h *Hub) readLoop(c *client) {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			h.remove(c)
			return
		}
	}
}

func (h *Hub) writeLoop(c *client) {
	defer c.conn.Close()
	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			h.remove(c)
			break
		}
	}
	h.log.Info("telemetry: client gone %s", c.conn.RemoteAddr())
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	c.close()
}

// Serve runs the HTTP server on l until ctx is done.
func (h *Hub) Serve(ctx context.Context, l net.Listener) error {
	srv := &http.Server{Handler: h.Handler(), ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(l) }()
	h.log.Info("telemetry: serving ws://%s/ws", l.Addr())

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	err := srv.Shutdown(shutCtx)

	h.mu.Lock()
	for c := range h.clients {
		delete(h.clients, c)
		c.close()
	}
	h.mu.Unlock()

	if err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Run listens on addr and serves until ctx is done.
func (h *Hub) Run(ctx context.Context, addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return h.Serve(ctx, l)
}
