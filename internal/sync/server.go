package sync

import (
	"bufio"
	"errors"
	"net"
	"sync"

	"go.uber.org/zap"

	"mangareader/internal/log"
)

// Server accepts raw TCP clients and registers them with the Hub. Clients only
// receive; anything they send is read and discarded.
type Server struct {
	Addr string
	Hub  *Hub

	mu     sync.Mutex
	ln     net.Listener
	closed bool
}

func NewServer(addr string, hub *Hub) *Server {
	return &Server{Addr: addr, Hub: hub}
}

// Run listens on s.Addr and blocks until Close is called.
func (s *Server) Run() error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve accepts clients from ln until it is closed.
func (s *Server) Serve(ln net.Listener) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ln.Close()
	}
	s.ln = ln
	s.mu.Unlock()
	log.Info("tcp-sync listening", zap.String("addr", ln.Addr().String()))

	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			log.Warn("tcp-sync accept", zap.Error(err))
			continue
		}
		s.handle(conn)
	}
}

func (s *Server) handle(conn net.Conn) {
	s.Hub.Add(conn)
	s.Hub.Welcome(conn)
	log.Info("tcp-sync client connected", zap.String("remote", conn.RemoteAddr().String()))

	go func(c net.Conn) {
		defer func() {
			s.Hub.Remove(c)
			log.Info("tcp-sync client disconnected", zap.String("remote", c.RemoteAddr().String()))
		}()

		sc := bufio.NewScanner(c)
		for sc.Scan() {
		}
	}(conn)
}

// Close stops accepting clients. Connected clients are left to the Hub.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.ln == nil {
		return nil
	}
	err := s.ln.Close()
	s.ln = nil
	return err
}
