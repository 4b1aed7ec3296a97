// Package minertest runs an in-process cgminer-style API listener for tests.
package minertest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"testing"
)

// Request is the decoded request frame a client sent.
type Request struct {
	Command    string `json:"command"`
	Parameters string `json:"parameters"`
}

// Handler produces the raw reply for one request. A nil reply closes the
// connection without writing anything.
type Handler interface {
	Handle(context.Context, Request) []byte
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(context.Context, Request) []byte

func (f HandlerFunc) Handle(ctx context.Context, req Request) []byte {
	return f(ctx, req)
}

// Reply always answers with the same body.
func Reply(body string) Handler {
	return HandlerFunc(func(context.Context, Request) []byte {
		return []byte(body)
	})
}

// Silent accepts connections and never answers until the server stops.
func Silent() Handler {
	return HandlerFunc(func(ctx context.Context, _ Request) []byte {
		<-ctx.Done()
		return nil
	})
}

// Serve accepts clients until context cancellation or listener close. Each
// connection carries exactly one request and one NUL-terminated reply.
func Serve(ctx context.Context, listener net.Listener, handler Handler) error {
	var wg sync.WaitGroup

	go func() {
		<-ctx.Done()
		_ = listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				wg.Wait()
				return nil
			}
			return fmt.Errorf("accept miner connection: %w", err)
		}

		wg.Add(1)
		go func(c net.Conn) {
			defer wg.Done()
			defer c.Close()

			var req Request
			if err := json.NewDecoder(c).Decode(&req); err != nil {
				_, _ = c.Write(invalidRequestReply(err))
				return
			}

			reply := handler.Handle(ctx, req)
			if reply == nil {
				return
			}
			_, _ = c.Write(append(reply, 0))
		}(conn)
	}
}

// Server is a running fake daemon bound to a loopback port.
type Server struct {
	Host string
	Port int

	mu       sync.Mutex
	requests []Request
}

// Start listens on 127.0.0.1 and serves handler until the test ends.
func Start(t testing.TB, handler Handler) *Server {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := listener.Addr().(*net.TCPAddr)
	srv := &Server{Host: addr.IP.String(), Port: addr.Port}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, listener, HandlerFunc(func(ctx context.Context, req Request) []byte {
			srv.record(req)
			return handler.Handle(ctx, req)
		}))
	}()

	t.Cleanup(func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("fake miner: %v", err)
		}
	})
	return srv
}

// Addr returns the listener address in host:port form.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// Requests returns a copy of every request received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

func (s *Server) record(req Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
}

// ClosedPort returns a loopback port with no listener behind it.
func ClosedPort(t testing.TB) int {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port
	if err := listener.Close(); err != nil {
		t.Fatalf("close listener: %v", err)
	}
	return port
}

func invalidRequestReply(err error) []byte {
	body, _ := json.Marshal(map[string]any{
		"STATUS": []map[string]any{{
			"STATUS":      "E",
			"When":        0,
			"Code":        23,
			"Msg":         "Invalid JSON: " + err.Error(),
			"Description": "minertest",
		}},
		"id": 1,
	})
	return append(body, 0)
}
