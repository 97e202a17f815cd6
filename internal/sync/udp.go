package sync

import (
	"encoding/json"
	"errors"
	"net"
	"sync"

	"go.uber.org/zap"

	"mangareader/internal/log"
)

const (
	RegisterMessageType   = "register"
	UnregisterMessageType = "unregister"
)

// RegisterMessage is sent by a UDP client to start or stop receiving the
// events of one user.
type RegisterMessage struct {
	Type   string `json:"type"`
	UserID string `json:"user_id"`
}

// Registry maps user ids to the UDP addresses that asked for their events.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]map[string]*net.UDPAddr
}

func NewRegistry() *Registry {
	return &Registry{clients: make(map[string]map[string]*net.UDPAddr)}
}

func (r *Registry) Register(userID string, addr *net.UDPAddr) {
	if userID == "" || addr == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	addrs, ok := r.clients[userID]
	if !ok {
		addrs = make(map[string]*net.UDPAddr)
		r.clients[userID] = addrs
	}
	addrs[addr.String()] = addr
}

func (r *Registry) Remove(userID string, addr *net.UDPAddr) {
	r.mu.Lock()
	defer r.mu.Unlock()
	addrs := r.clients[userID]
	delete(addrs, addr.String())
	if len(addrs) == 0 {
		delete(r.clients, userID)
	}
}

// Lookup returns a copy of the addresses registered for userID.
func (r *Registry) Lookup(userID string) []*net.UDPAddr {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*net.UDPAddr, 0, len(r.clients[userID]))
	for _, a := range r.clients[userID] {
		out = append(out, a)
	}
	return out
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, addrs := range r.clients {
		n += len(addrs)
	}
	return n
}

// UDPServer delivers each event only to the clients registered for the
// event's user.
type UDPServer struct {
	Addr     string
	Registry *Registry

	mu     sync.Mutex
	conn   *net.UDPConn
	closed bool
}

func NewUDPServer(addr string) *UDPServer {
	return &UDPServer{Addr: addr, Registry: NewRegistry()}
}

// Run listens on s.Addr and blocks until Close is called.
func (s *UDPServer) Run() error {
	udpAddr, err := net.ResolveUDPAddr("udp", s.Addr)
	if err != nil {
		return err
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return err
	}
	return s.Serve(conn)
}

// Serve reads registration messages from conn until it is closed.
func (s *UDPServer) Serve(conn *net.UDPConn) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return conn.Close()
	}
	s.conn = conn
	s.mu.Unlock()
	log.Info("udp-sync listening", zap.String("addr", conn.LocalAddr().String()))

	buffer := make([]byte, 2048)
	for {
		n, addr, err := conn.ReadFromUDP(buffer)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		msg, err := parseRegisterMessage(buffer[:n])
		if err != nil {
			log.Debug("udp-sync invalid message", zap.String("remote", addr.String()), zap.Error(err))
			continue
		}
		switch msg.Type {
		case RegisterMessageType:
			s.Registry.Register(msg.UserID, addr)
			log.Info("udp-sync client registered", zap.String("user_id", msg.UserID), zap.String("remote", addr.String()))
		case UnregisterMessageType:
			s.Registry.Remove(msg.UserID, addr)
		}
	}
}

// Publish implements Publisher.
func (s *UDPServer) Publish(ev Event) {
	if s == nil {
		return
	}
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return
	}

	addrs := s.Registry.Lookup(ev.UserID)
	if len(addrs) == 0 {
		return
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		log.Warn("udp-sync marshal event", zap.Error(err))
		return
	}
	for _, addr := range addrs {
		s.sendWithRetry(conn, ev.UserID, addr, payload)
	}
}

func (s *UDPServer) sendWithRetry(conn *net.UDPConn, userID string, addr *net.UDPAddr, payload []byte) {
	if _, err := conn.WriteToUDP(payload, addr); err == nil {
		return
	}
	if _, err := conn.WriteToUDP(payload, addr); err != nil {
		log.Warn("udp-sync dropping client",
			zap.String("user_id", userID),
			zap.String("remote", addr.String()),
			zap.Error(err),
		)
		s.Registry.Remove(userID, addr)
	}
}

func (s *UDPServer) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}

func parseRegisterMessage(data []byte) (RegisterMessage, error) {
	var msg RegisterMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return msg, err
	}
	if msg.UserID == "" || msg.Type == "" {
		return msg, errors.New("missing required fields")
	}
	return msg, nil
}
