package testutil

import (
	"net"
	"sync"
	"testing"
	"time"
)

// ScriptedIRCServer is a fake chat server backed by a real TCP listener. It
// accepts one connection, records every line-ish write the client makes, and
// lets tests push raw byte chunks to the client to drive the receive loop.
type ScriptedIRCServer struct {
	Addr string

	ln     net.Listener
	mu     sync.Mutex
	conn   net.Conn
	ready  chan struct{}
	recvd  []byte
	closed bool
}

// NewScriptedIRCServer starts the listener and the accept goroutine.
func NewScriptedIRCServer(t *testing.T) *ScriptedIRCServer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	s := &ScriptedIRCServer{
		Addr:  ln.Addr().String(),
		ln:    ln,
		ready: make(chan struct{}),
	}
	go s.acceptOne()
	t.Cleanup(s.Close)
	return s
}

func (s *ScriptedIRCServer) acceptOne() {
	conn, err := s.ln.Accept()
	if err != nil {
		return
	}
	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()
	close(s.ready)

	buf := make([]byte, 4096)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			s.mu.Lock()
			s.recvd = append(s.recvd, buf[:n]...)
			s.mu.Unlock()
		}
		if err != nil {
			return
		}
	}
}

// WaitConn blocks until the client has connected.
func (s *ScriptedIRCServer) WaitConn(t *testing.T) {
	t.Helper()
	select {
	case <-s.ready:
	case <-time.After(5 * time.Second):
		t.Fatalf("client never connected")
	}
}

// Send pushes raw bytes to the connected client, simulating one server write.
func (s *ScriptedIRCServer) Send(t *testing.T, b []byte) {
	t.Helper()
	s.WaitConn(t)
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if _, err := conn.Write(b); err != nil {
		t.Fatalf("server write: %v", err)
	}
}

// Received returns a copy of everything the client has written so far.
func (s *ScriptedIRCServer) Received() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.recvd...)
}

// CloseClient drops the client connection, simulating a dead transport.
func (s *ScriptedIRCServer) CloseClient() {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn != nil {
		_ = conn.Close()
	}
}

// Close shuts down the listener and any open connection. Safe to call twice.
func (s *ScriptedIRCServer) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	conn := s.conn
	s.mu.Unlock()
	_ = s.ln.Close()
	if conn != nil {
		_ = conn.Close()
	}
}
