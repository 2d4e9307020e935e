// Package wireframe implements the byte-level transport envelope the core
// RPC layer sits on top of (spec section 1: "the core assumes a blocking
// request/response channel"). It solves TCP's sticky-packet problem with a
// fixed-size header followed by a length-prefixed body, the same way the
// reference transport this module is adapted from does.
//
// Frame format:
//
//	0      3  4  5         9        13
//	┌──────┬──┬──┬─────────┬─────────┬───────────────┐
//	│magic │v │mt│   seq   │ bodyLen │    body ...    │
//	│ hwr  │01│  │ uint32  │ uint32  │ bodyLen bytes  │
//	└──────┴──┴──┴─────────┴─────────┴───────────────┘
//
// The body is always a rpcframe.Frame encoded with MarshalBinary — unlike
// the teacher transport this is adapted from, there is no codec-type byte
// to negotiate JSON vs binary, because rpcframe.Frame is already
// self-describing and a single canonical wire encoding is all the core
// needs.
package wireframe

import (
	"encoding/binary"
	"fmt"
	"io"
)

const (
	magicByte0 byte = 0x68 // 'h'
	magicByte1 byte = 0x77 // 'w'
	magicByte2 byte = 0x72 // 'r'
	version    byte = 0x01

	// HeaderSize is the fixed header length: 3 (magic) + 1 (version) +
	// 1 (msgType) + 4 (seq) + 4 (bodyLen).
	HeaderSize = 13
)

// MsgType distinguishes request, response, and heartbeat frames.
type MsgType byte

const (
	MsgTypeRequest   MsgType = 0
	MsgTypeResponse  MsgType = 1
	MsgTypeHeartbeat MsgType = 2
)

// Header is the fixed-size frame header.
type Header struct {
	MsgType MsgType
	Seq     uint32 // matches a response to its request on one connection
	BodyLen uint32
}

// Encode writes a complete envelope (header + body) to w.
func Encode(w io.Writer, h *Header, body []byte) error {
	buf := make([]byte, HeaderSize)
	buf[0], buf[1], buf[2] = magicByte0, magicByte1, magicByte2
	buf[3] = version
	buf[4] = byte(h.MsgType)
	binary.BigEndian.PutUint32(buf[5:9], h.Seq)
	binary.BigEndian.PutUint32(buf[9:13], h.BodyLen)

	if _, err := w.Write(buf); err != nil {
		return err
	}
	if len(body) == 0 {
		return nil
	}
	_, err := w.Write(body)
	return err
}

// Decode reads a complete envelope (header + body) from r, validating the
// magic number and version before trusting the declared body length.
func Decode(r io.Reader) (*Header, []byte, error) {
	headerBuf := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, headerBuf); err != nil {
		return nil, nil, err
	}

	if headerBuf[0] != magicByte0 || headerBuf[1] != magicByte1 || headerBuf[2] != magicByte2 {
		return nil, nil, fmt.Errorf("wireframe: invalid magic number: %x", headerBuf[0:3])
	}
	if headerBuf[3] != version {
		return nil, nil, fmt.Errorf("wireframe: unsupported version: %d", headerBuf[3])
	}

	msgType := headerBuf[4]
	if msgType != byte(MsgTypeRequest) && msgType != byte(MsgTypeResponse) && msgType != byte(MsgTypeHeartbeat) {
		return nil, nil, fmt.Errorf("wireframe: unsupported message type: %d", msgType)
	}

	seq := binary.BigEndian.Uint32(headerBuf[5:9])
	bodyLen := binary.BigEndian.Uint32(headerBuf[9:13])

	body := make([]byte, bodyLen)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, nil, err
	}

	return &Header{MsgType: MsgType(msgType), Seq: seq, BodyLen: bodyLen}, body, nil
}
