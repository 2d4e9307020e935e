// Package nettransport is the TCP binding for the core RPC layer: a client
// transport that turns each rpcclient.Call into one wireframe request/response
// round trip, and a server accept loop that feeds decoded frames into a
// rpcserver.Dispatcher.
//
// Unlike the multiplexed transport this package is adapted from, one
// connection here never has more than one call in flight — the framework's
// concurrency model (section 5) rules that out by design, so there is no
// sequence-keyed pending map or background recvLoop to maintain.
package nettransport

import (
	"fmt"
	"net"
	"sync"
	"time"

	"hwrpc/internal/wireframe"
	"hwrpc/rpcclient"
	"hwrpc/rpcframe"
)

// ClientTransport owns one TCP connection and serializes every call across
// it: CallMethod holds mu for the full write-then-read round trip, so two
// goroutines sharing a Connection block on each other rather than racing
// the wire.
type ClientTransport struct {
	conn net.Conn
	mu   sync.Mutex
	seq  uint32
}

// NewClientTransport wraps an established connection. Callers normally
// reach this through Dialer.Dial rather than constructing it directly.
func NewClientTransport(conn net.Conn) *ClientTransport {
	return &ClientTransport{conn: conn}
}

// CallMethod implements rpcclient.Transport: encode request, write it,
// block for exactly one response frame, decode it.
func (t *ClientTransport) CallMethod(request *rpcframe.Frame) (*rpcframe.Frame, error) {
	body, err := request.MarshalBinary()
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.seq++
	seq := t.seq

	header := &wireframe.Header{MsgType: wireframe.MsgTypeRequest, Seq: seq, BodyLen: uint32(len(body))}
	if err := wireframe.Encode(t.conn, header, body); err != nil {
		return nil, err
	}

	respHeader, respBody, err := wireframe.Decode(t.conn)
	if err != nil {
		return nil, err
	}
	if respHeader.MsgType != wireframe.MsgTypeResponse {
		return nil, fmt.Errorf("nettransport: expected response frame, got msg type %d", respHeader.MsgType)
	}
	if respHeader.Seq != seq {
		return nil, fmt.Errorf("nettransport: response seq %d does not match request seq %d", respHeader.Seq, seq)
	}

	return rpcframe.UnmarshalBinaryFrame(respBody)
}

// Close closes the underlying connection.
func (t *ClientTransport) Close() error {
	return t.conn.Close()
}

// heartbeat writes a single heartbeat frame, sharing the call-serializing
// lock so it can never interleave with an in-flight request.
func (t *ClientTransport) heartbeat() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	header := &wireframe.Header{MsgType: wireframe.MsgTypeHeartbeat}
	return wireframe.Encode(t.conn, header, nil)
}

// TCPDialer is the rpcclient.Dialer implementation that opens a plain TCP
// connection and starts a background heartbeat to keep it alive across
// idle periods.
type TCPDialer struct {
	HeartbeatInterval time.Duration
}

// Dial opens a TCP connection to host and returns it wrapped as a
// rpcclient.Transport.
func (d TCPDialer) Dial(host string) (rpcclient.Transport, error) {
	conn, err := net.Dial("tcp", host)
	if err != nil {
		return nil, err
	}
	t := NewClientTransport(conn)

	interval := d.HeartbeatInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	go t.heartbeatLoop(interval)

	return t, nil
}

func (t *ClientTransport) heartbeatLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for range ticker.C {
		if err := t.heartbeat(); err != nil {
			return
		}
	}
}
