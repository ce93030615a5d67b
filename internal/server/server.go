package server

import (
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"sync"
	"time"

	"github.com/shigetaa/node-js5http/internal/request"
	"github.com/shigetaa/node-js5http/internal/response"
)

// readTimeout bounds how long a connection may take to deliver its request.
const readTimeout = 60 * time.Second

type Server struct {
	listener net.Listener

	mu       sync.Mutex
	isClosed bool
	active   map[net.Conn]struct{}
	conns    sync.WaitGroup

	handler Handler
}

// Serve listens on the given TCP port and handles connections in the
// background until Close is called. Port 0 picks a free port.
func Serve(port int, handler Handler) (*Server, error) {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, fmt.Errorf("failed to create listener: %w", err)
	}
	server := &Server{
		listener: ln,
		active:   make(map[net.Conn]struct{}),
		handler:  handler,
	}

	go server.listen()

	return server, nil
}

// Port returns the port the server is bound to.
func (s *Server) Port() int {
	return s.listener.Addr().(*net.TCPAddr).Port
}

// Close stops accepting connections and waits for in-flight ones to finish.
// Connections still waiting for their request are cut off; responses
// already being written are completed.
func (s *Server) Close() error {
	s.mu.Lock()
	s.isClosed = true
	for conn := range s.active {
		_ = conn.SetReadDeadline(time.Now())
	}
	s.mu.Unlock()

	err := s.listener.Close()
	s.conns.Wait()
	return err
}

func (s *Server) listen() {
	for {
		conn, err := s.listener.Accept()

		s.mu.Lock()
		if s.isClosed {
			s.mu.Unlock()
			if conn != nil {
				conn.Close()
			}
			return
		}

		if err != nil {
			s.mu.Unlock()
			log.Printf("error accepting connection: %v", err)
			continue
		}

		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
		s.conns.Add(1)
		s.active[conn] = struct{}{}
		s.mu.Unlock()
		go s.handle(conn)
	}
}

func (s *Server) handle(conn net.Conn) {
	defer s.conns.Done()
	defer s.forget(conn)
	defer conn.Close()

	w := response.NewWriter(conn)

	req, err := request.RequestFromReader(conn)
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return
	}
	if err != nil {
		log.Printf("error parsing request from %s: %v", conn.RemoteAddr(), err)

		errMsg := "Bad Request\n"
		if err := w.WriteStatusLine(response.StatusBadRequest); err != nil {
			return
		}
		if err := w.WriteHeaders(response.GetDefaultHeaders(len(errMsg))); err != nil {
			return
		}
		w.WriteBody([]byte(errMsg))
		return
	}

	s.handler(w, req)
}

func (s *Server) forget(conn net.Conn) {
	s.mu.Lock()
	delete(s.active, conn)
	s.mu.Unlock()
}
