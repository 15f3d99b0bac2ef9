package server

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log"
	"net"
	"sync"
	"time"

	"github.com/frudas24/pdb/internal/failure"
	"github.com/frudas24/pdb/internal/protocol"
	"github.com/google/uuid"
)

// DefaultAddr is the address the daemon binds when none is configured.
const DefaultAddr = "0.0.0.0:5037"

// Server accepts protocol connections and serves them one frame at a time.
type Server struct {
	dispatcher *Dispatcher
	maxConns   int

	mu    sync.Mutex
	conns map[net.Conn]struct{}
	wg    sync.WaitGroup
}

// New creates a TCP server. maxConns <= 0 means unlimited.
func New(d *Dispatcher, maxConns int) *Server {
	return &Server{
		dispatcher: d,
		maxConns:   maxConns,
		conns:      make(map[net.Conn]struct{}),
	}
}

// Serve accepts connections on ln until ctx ends. In-flight commands finish
// before Serve returns; idle connections are closed.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	stop := context.AfterFunc(ctx, func() {
		_ = ln.Close()
		s.interruptReads()
	})
	defer stop()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				s.wg.Wait()
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				time.Sleep(10 * time.Millisecond)
				continue
			}
			s.wg.Wait()
			return err
		}
		if !s.track(ctx, conn) {
			log.Printf("tcp: reject %s: connection limit %d reached", conn.RemoteAddr(), s.maxConns)
			_ = protocol.WriteResponse(conn, protocol.Fail(
				failure.New(failure.ConnectionError, "server busy: %d connections", s.maxConns), failure.ConnectionError))
			_ = conn.Close()
			continue
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.untrack(conn)
			s.serveConn(ctx, conn)
		}()
	}
}

// ActiveConns reports the number of open connections.
func (s *Server) ActiveConns() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// serveConn runs the request/response loop for one connection.
func (s *Server) serveConn(ctx context.Context, conn net.Conn) {
	id := uuid.NewString()[:8]
	log.Printf("tcp: %s connected from %s", id, conn.RemoteAddr())
	defer log.Printf("tcp: %s disconnected", id)

	// Commands already read run to completion even after shutdown starts.
	cmdCtx := context.WithoutCancel(ctx)
	r := bufio.NewReader(conn)
	for {
		cmd, err := protocol.ReadCommand(r)
		if err != nil {
			if failure.KindOf(err) != failure.KindNone {
				if debugEnabled() {
					log.Printf("tcp: %s bad frame: %v", id, err)
				}
				if werr := protocol.WriteResponse(conn, protocol.Fail(err, failure.BadArguments)); werr != nil {
					log.Printf("tcp: %s write: %v", id, werr)
					return
				}
				continue
			}
			if !errors.Is(err, io.EOF) && ctx.Err() == nil {
				log.Printf("tcp: %s read: %v", id, err)
			}
			return
		}

		start := time.Now()
		resp := s.dispatcher.Dispatch(cmdCtx, cmd)
		if debugEnabled() {
			log.Printf("tcp: %s %s -> %s (%s)", id, protocol.EncodeCommand(cmd), status(resp), time.Since(start).Round(time.Millisecond))
		}
		if err := protocol.WriteResponse(conn, resp); err != nil {
			log.Printf("tcp: %s write: %v", id, err)
			return
		}
		if ctx.Err() != nil {
			return
		}
	}
}

// track registers conn unless the connection limit is reached.
func (s *Server) track(ctx context.Context, conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.maxConns > 0 && len(s.conns) >= s.maxConns {
		return false
	}
	s.conns[conn] = struct{}{}
	if ctx.Err() != nil {
		_ = conn.SetReadDeadline(time.Now())
	}
	return true
}

func (s *Server) untrack(conn net.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
	_ = conn.Close()
}

// interruptReads unblocks connections waiting for their next frame.
func (s *Server) interruptReads() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.conns {
		_ = conn.SetReadDeadline(time.Now())
	}
}

func status(resp protocol.Response) string {
	if resp.Err != nil {
		return "ERR " + resp.Err.Kind.String()
	}
	return "OK"
}
