package nettransport

import (
	"context"
	"fmt"
	"log"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"hwrpc/internal/registry"
	"hwrpc/internal/wireframe"
	"hwrpc/rpcframe"
	"hwrpc/rpcserver"
)

// Server binds a rpcserver.Dispatcher to a TCP listener. Each connection is
// served by its own goroutine, but — matching the framework's
// no-concurrent-calls-per-connection rule — requests on one connection are
// decoded and dispatched one at a time, in arrival order, rather than
// fanned out to per-request goroutines the way the transport this is
// adapted from does.
type Server struct {
	dispatcher *rpcserver.Dispatcher
	listener   net.Listener
	wg         sync.WaitGroup
	shutdown   atomic.Bool

	discovery         registry.Registry
	advertiseAddr     string
	advertisedModules []string
}

// NewServer returns a Server that dispatches every decoded request through
// dispatcher.
func NewServer(dispatcher *rpcserver.Dispatcher) *Server {
	return &Server{dispatcher: dispatcher}
}

// Listen binds address without yet accepting connections. Pair with
// Accept to observe the bound address (via Addr) before the accept loop
// starts, which matters when address uses the ":0" auto-assigned port.
func (s *Server) Listen(network, address string) error {
	listener, err := net.Listen(network, address)
	if err != nil {
		return err
	}
	s.listener = listener
	return nil
}

// Serve listens on address and runs the accept loop until Shutdown is
// called or a fatal listener error occurs. The listener is bound
// synchronously, so Addr is valid as soon as Serve returns an error or a
// caller running it in a goroutine observes Addr() becoming non-nil.
func (s *Server) Serve(network, address string) error {
	listener, err := net.Listen(network, address)
	if err != nil {
		return err
	}
	s.listener = listener
	return s.Accept()
}

// Advertise registers every module in moduleVersions with reg under
// advertiseAddr — the address a Connection dials, which may differ from
// the listener's bind address (":8472" resolves locally but is not
// routable from another host). Call after Listen and before Accept.
// Shutdown deregisters everything Advertise registered.
func (s *Server) Advertise(reg registry.Registry, advertiseAddr string, moduleVersions map[string]string, weight int, ttlSeconds int64) error {
	s.discovery = reg
	s.advertiseAddr = advertiseAddr
	for module, version := range moduleVersions {
		instance := registry.Instance{Addr: advertiseAddr, Weight: weight, Version: version}
		if err := reg.Register(module, instance, ttlSeconds); err != nil {
			return fmt.Errorf("nettransport: advertise %q: %w", module, err)
		}
		s.advertisedModules = append(s.advertisedModules, module)
	}
	return nil
}

// Accept runs the accept loop over an already-bound listener. Listen and
// Accept are split out of Serve so a caller (typically a test) can bind
// synchronously, read back the assigned address, then run Accept in the
// background.
func (s *Server) Accept() error {
	listener := s.listener
	for {
		conn, err := listener.Accept()
		if err != nil {
			if s.shutdown.Load() {
				return nil
			}
			return err
		}
		s.wg.Add(1)
		go s.handleConn(conn)
	}
}

// handleConn reads frames sequentially from conn until it errors or
// closes, dispatching each request in turn before reading the next.
func (s *Server) handleConn(conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()

	for {
		header, body, err := wireframe.Decode(conn)
		if err != nil {
			return
		}
		if header.MsgType == wireframe.MsgTypeHeartbeat {
			continue
		}

		request, err := rpcframe.UnmarshalBinaryFrame(body)
		if err != nil {
			log.Printf("nettransport: dropping connection after corrupt frame: %v", err)
			return
		}

		response := s.dispatcher.Dispatch(context.Background(), request)

		respBody, err := response.MarshalBinary()
		if err != nil {
			log.Printf("nettransport: failed to encode response: %v", err)
			return
		}
		replyHeader := &wireframe.Header{
			MsgType: wireframe.MsgTypeResponse,
			Seq:     header.Seq,
			BodyLen: uint32(len(respBody)),
		}
		if err := wireframe.Encode(conn, replyHeader, respBody); err != nil {
			log.Printf("nettransport: failed to write response: %v", err)
			return
		}
	}
}

// Addr returns the listener's actual network address. Useful when Serve
// was called with a ":0" port and the caller needs to know what was
// assigned.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Shutdown deregisters this server from discovery (if Advertise was called)
// so clients stop being routed here, stops accepting new connections, and
// waits up to timeout for in-flight connections to finish on their own (a
// connection finishes when its peer closes it or a read fails).
func (s *Server) Shutdown(timeout time.Duration) error {
	if s.discovery != nil {
		for _, module := range s.advertisedModules {
			if err := s.discovery.Deregister(module, s.advertiseAddr); err != nil {
				log.Printf("nettransport: deregister %q: %v", module, err)
			}
		}
	}

	s.shutdown.Store(true)
	if s.listener != nil {
		s.listener.Close()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("nettransport: timeout waiting for connections to finish")
	}
}
