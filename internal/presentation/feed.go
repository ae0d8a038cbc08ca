package presentation

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
	"github.com/shardfall/server/internal/config"
	"go.uber.org/zap"
)

// Message is the JSON frame pushed to feed clients.
type Message struct {
	Seq  uint64 `json:"seq"`
	Kind string `json:"kind"`
	Data any    `json:"data"`
}

// Feed broadcasts presentation events to websocket clients. It is a Sink.
type Feed struct {
	cfg      config.FeedConfig
	upgrader websocket.Upgrader
	log      *zap.Logger

	mu      sync.RWMutex
	clients map[uint64]*client
	nextID  atomic.Uint64
	seq     atomic.Uint64

	srv *http.Server
	ln  net.Listener
}

func NewFeed(cfg config.FeedConfig, log *zap.Logger) *Feed {
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = 64
	}
	if cfg.Path == "" {
		cfg.Path = "/feed"
	}
	return &Feed{
		cfg: cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		log:     log.Named("feed"),
		clients: make(map[uint64]*client),
	}
}

// Listen binds the configured address and serves in the background.
func (f *Feed) Listen() error {
	ln, err := net.Listen("tcp", f.cfg.BindAddress)
	if err != nil {
		return err
	}
	mux := http.NewServeMux()
	mux.Handle(f.cfg.Path, f)
	f.ln = ln
	f.srv = &http.Server{Handler: mux}
	go func() {
		if err := f.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			f.log.Error("feed server stopped", zap.Error(err))
		}
	}()
	f.log.Info("feed listening", zap.String("addr", ln.Addr().String()), zap.String("path", f.cfg.Path))
	return nil
}

// Addr is the bound address after Listen.
func (f *Feed) Addr() net.Addr {
	if f.ln == nil {
		return nil
	}
	return f.ln.Addr()
}

// ServeHTTP upgrades the request and registers the client.
func (f *Feed) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		f.log.Debug("feed upgrade failed", zap.Error(err))
		return
	}
	id := f.nextID.Add(1)
	c := newClient(conn, id, f.cfg.SendBuffer, f.log)

	f.mu.Lock()
	f.clients[id] = c
	f.mu.Unlock()
	f.log.Debug("feed client connected", zap.Uint64("client", id), zap.String("remote", conn.RemoteAddr().String()))

	go c.writeLoop()
	go c.readLoop(func() { f.remove(id) })
}

func (f *Feed) remove(id uint64) {
	f.mu.Lock()
	delete(f.clients, id)
	f.mu.Unlock()
}

// Clients returns the number of connected clients.
func (f *Feed) Clients() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.clients)
}

// Present encodes the event once and queues it for every client.
func (f *Feed) Present(kind string, payload any) {
	if f.Clients() == 0 {
		return
	}
	msg, err := json.Marshal(Message{Seq: f.seq.Add(1), Kind: kind, Data: payload})
	if err != nil {
		f.log.Error("feed encode failed", zap.String("kind", kind), zap.Error(err))
		return
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, c := range f.clients {
		c.send(msg)
	}
}

// Shutdown stops accepting clients and disconnects the connected ones.
func (f *Feed) Shutdown(ctx context.Context) error {
	var err error
	if f.srv != nil {
		err = f.srv.Shutdown(ctx)
	}
	f.mu.Lock()
	for id, c := range f.clients {
		c.Close()
		delete(f.clients, id)
	}
	f.mu.Unlock()
	return err
}
