package sync

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"mangareader/internal/log"
)

const (
	writeTimeout = 2 * time.Second
	queueSize    = 256
)

// Hub fans events out to every connected TCP and websocket client.
type Hub struct {
	mu        sync.Mutex
	clients   map[net.Conn]struct{}
	wsClients map[*websocket.Conn]struct{}
	udp       *UDPServer

	queue     chan Event
	done      chan struct{}
	closeOnce sync.Once
}

type Stats struct {
	TCPClients int `json:"tcp_clients"`
	WSClients  int `json:"ws_clients"`
	UDPClients int `json:"udp_clients"`
}

// NewHub starts the goroutine that delivers published events in order.
func NewHub() *Hub {
	h := &Hub{
		clients:   make(map[net.Conn]struct{}),
		wsClients: make(map[*websocket.Conn]struct{}),
		queue:     make(chan Event, queueSize),
		done:      make(chan struct{}),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case ev := <-h.queue:
			h.deliver(ev)
		case <-h.done:
			return
		}
	}
}

func (h *Hub) Add(conn net.Conn) {
	h.mu.Lock()
	h.clients[conn] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) Remove(conn net.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
	_ = conn.Close()
}

func (h *Hub) AddWS(ws *websocket.Conn) {
	h.mu.Lock()
	h.wsClients[ws] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) RemoveWS(ws *websocket.Conn) {
	h.mu.Lock()
	delete(h.wsClients, ws)
	h.mu.Unlock()
	_ = ws.Close()
}

// AttachUDP makes Publish also deliver events to u's registered clients.
func (h *Hub) AttachUDP(u *UDPServer) {
	h.mu.Lock()
	h.udp = u
	h.mu.Unlock()
}

// Publish implements Publisher. Events are queued and delivered by a single
// goroutine, so every client sees them in publish order. When the queue is
// full the event is dropped.
func (h *Hub) Publish(ev Event) {
	if h == nil {
		return
	}
	select {
	case <-h.done:
		return
	default:
	}
	select {
	case h.queue <- ev:
	default:
		log.Warn("hub: queue full, dropping event", zap.String("type", ev.Type), zap.String("user_id", ev.UserID))
	}
}

func (h *Hub) deliver(ev Event) {
	h.BroadcastJSON(ev)

	h.mu.Lock()
	udp := h.udp
	h.mu.Unlock()
	udp.Publish(ev)
}

// BroadcastJSON writes v as one JSON line to every client. Clients that fail
// the write are dropped.
func (h *Hub) BroadcastJSON(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Warn("hub: marshal event", zap.Error(err))
		return
	}
	b = append(b, '\n')

	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		_ = c.SetWriteDeadline(time.Now().Add(writeTimeout))
		w := bufio.NewWriter(c)
		if _, err := w.Write(b); err != nil {
			h.dropLocked(c, err)
			continue
		}
		if err := w.Flush(); err != nil {
			h.dropLocked(c, err)
		}
	}

	for ws := range h.wsClients {
		_ = ws.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := ws.WriteMessage(websocket.TextMessage, b); err != nil {
			log.Debug("hub: drop ws client", zap.Error(err))
			_ = ws.Close()
			delete(h.wsClients, ws)
		}
	}
}

func (h *Hub) dropLocked(c net.Conn, err error) {
	log.Debug("hub: drop tcp client", zap.String("remote", c.RemoteAddr().String()), zap.Error(err))
	_ = c.Close()
	delete(h.clients, c)
}

func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients) + len(h.wsClients)
}

func (h *Hub) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	stats := Stats{
		TCPClients: len(h.clients),
		WSClients:  len(h.wsClients),
	}
	if h.udp != nil {
		stats.UDPClients = h.udp.Registry.Count()
	}
	return stats
}

// Welcome greets a client that is already registered. The write holds the
// hub lock so it cannot interleave with a broadcast.
func (h *Hub) Welcome(conn net.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	msg := fmt.Sprintf("{\"type\":\"welcome\",\"transport\":\"tcp\",\"clients\":%d}\n", len(h.clients)+len(h.wsClients))
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	_, _ = conn.Write([]byte(msg))
}

// Close stops delivery and disconnects every client. Queued events that were
// not delivered yet are dropped.
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		_ = c.Close()
		delete(h.clients, c)
	}
	for ws := range h.wsClients {
		_ = ws.Close()
		delete(h.wsClients, ws)
	}
}
