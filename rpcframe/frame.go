package rpcframe

import (
	"encoding/binary"
	"fmt"
)

// MaxFrameSize bounds how large a single encoded Frame may grow. It exists
// so CODEC_BUFFER is a reachable, testable condition rather than a purely
// theoretical one: a pathological VEC_STR/VEC_U32 payload is rejected at
// encode time instead of being shipped to a transport that would choke on
// it.
const MaxFrameSize = 4 << 20 // 4 MiB

// Frame is the self-describing keyed container that rides the wire. It
// knows nothing about read/write cursors or declaration order — that
// discipline belongs to Message. Frame only knows how to store a value of
// the wire type set under a string key and how to marshal/unmarshal itself
// to bytes.
type Frame struct {
	// RoutingKey is the frame-level routing key stamped on request frames,
	// "module.method-name". Response frames leave it empty.
	RoutingKey string

	values map[string]value
	order  []string // insertion order, so MarshalBinary is deterministic
}

// NewFrame returns an empty, mutable Frame.
func NewFrame() *Frame {
	return &Frame{values: make(map[string]value)}
}

// HasKey reports whether a value is stored under key.
func (f *Frame) HasKey(key string) bool {
	_, ok := f.values[key]
	return ok
}

// SetU32 stores a U32 value under key. It fails with CODEC if key is
// already occupied.
func (f *Frame) SetU32(key string, v uint32) error {
	return f.set(key, value{typ: U32, u32: v})
}

// SetStr stores a STR value under key.
func (f *Frame) SetStr(key string, v string) error {
	return f.set(key, value{typ: Str, str: v})
}

// SetVecU32 stores a VEC_U32 value under key. The slice is copied so no
// aliasing survives past the call that produced it.
func (f *Frame) SetVecU32(key string, v []uint32) error {
	cp := append([]uint32(nil), v...)
	return f.set(key, value{typ: VecU32, vecU32: cp})
}

// SetVecStr stores a VEC_STR value under key.
func (f *Frame) SetVecStr(key string, v []string) error {
	cp := append([]string(nil), v...)
	return f.set(key, value{typ: VecStr, vecStr: cp})
}

func (f *Frame) set(key string, v value) error {
	if _, exists := f.values[key]; exists {
		return duplicateKeyErr(key)
	}
	f.values[key] = v
	f.order = append(f.order, key)
	return nil
}

// GetU32 returns the U32 value stored under key.
func (f *Frame) GetU32(key string) (uint32, error) {
	v, err := f.lookup(key, U32)
	if err != nil {
		return 0, err
	}
	return v.u32, nil
}

// GetStr returns the STR value stored under key.
func (f *Frame) GetStr(key string) (string, error) {
	v, err := f.lookup(key, Str)
	if err != nil {
		return "", err
	}
	return v.str, nil
}

// GetVecU32 returns the VEC_U32 value stored under key.
func (f *Frame) GetVecU32(key string) ([]uint32, error) {
	v, err := f.lookup(key, VecU32)
	if err != nil {
		return nil, err
	}
	return append([]uint32(nil), v.vecU32...), nil
}

// GetVecStr returns the VEC_STR value stored under key.
func (f *Frame) GetVecStr(key string) ([]string, error) {
	v, err := f.lookup(key, VecStr)
	if err != nil {
		return nil, err
	}
	return append([]string(nil), v.vecStr...), nil
}

func (f *Frame) lookup(key string, want ValueType) (value, error) {
	v, ok := f.values[key]
	if !ok {
		return value{}, badKeyErr(key)
	}
	if v.typ != want {
		return value{}, typeErr(key)
	}
	return v, nil
}

// MarshalBinary encodes the frame as a self-describing byte stream:
//
//	routingKeyLen(u16) routingKey
//	entryCount(u32)
//	{ keyLen(u16) key typeTag(u8) payload }...
//
// Returns CODEC_BUFFER if the encoded size would exceed MaxFrameSize.
func (f *Frame) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 0, 64)

	buf = appendU16String(buf, f.RoutingKey)
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(f.order)))

	for _, key := range f.order {
		v := f.values[key]
		buf = appendU16String(buf, key)
		buf = append(buf, byte(v.typ))
		switch v.typ {
		case U32:
			buf = binary.BigEndian.AppendUint32(buf, v.u32)
		case Str:
			buf = appendU32String(buf, v.str)
		case VecU32:
			buf = binary.BigEndian.AppendUint32(buf, uint32(len(v.vecU32)))
			for _, w := range v.vecU32 {
				buf = binary.BigEndian.AppendUint32(buf, w)
			}
		case VecStr:
			buf = binary.BigEndian.AppendUint32(buf, uint32(len(v.vecStr)))
			for _, s := range v.vecStr {
				buf = appendU32String(buf, s)
			}
		}
		if len(buf) > MaxFrameSize {
			return nil, bufferErr()
		}
	}

	if len(buf) > MaxFrameSize {
		return nil, bufferErr()
	}
	return buf, nil
}

// UnmarshalBinaryFrame decodes a Frame previously produced by MarshalBinary.
// Any truncation or self-description inconsistency (a declared length that
// overruns the remaining buffer, or an unrecognized type tag) is reported
// as CODEC_CORRUPT.
func UnmarshalBinaryFrame(data []byte) (*Frame, error) {
	r := &byteReader{buf: data}

	routingKey, err := r.readU16String()
	if err != nil {
		return nil, err
	}

	count, err := r.readU32()
	if err != nil {
		return nil, err
	}

	f := &Frame{RoutingKey: routingKey, values: make(map[string]value, count), order: make([]string, 0, count)}
	for i := uint32(0); i < count; i++ {
		key, err := r.readU16String()
		if err != nil {
			return nil, err
		}
		tagByte, err := r.readByte()
		if err != nil {
			return nil, err
		}
		typ := ValueType(tagByte)

		var v value
		v.typ = typ
		switch typ {
		case U32:
			v.u32, err = r.readU32()
		case Str:
			v.str, err = r.readU32String()
		case VecU32:
			var n uint32
			n, err = r.readU32()
			if err == nil {
				v.vecU32 = make([]uint32, n)
				for j := uint32(0); j < n && err == nil; j++ {
					v.vecU32[j], err = r.readU32()
				}
			}
		case VecStr:
			var n uint32
			n, err = r.readU32()
			if err == nil {
				v.vecStr = make([]string, n)
				for j := uint32(0); j < n && err == nil; j++ {
					v.vecStr[j], err = r.readU32String()
				}
			}
		default:
			return nil, corruptErr(fmt.Sprintf("unknown type tag %d for key %q", tagByte, key))
		}
		if err != nil {
			return nil, err
		}
		f.values[key] = v
		f.order = append(f.order, key)
	}

	if !r.atEnd() {
		return nil, corruptErr("trailing bytes after last entry")
	}
	return f, nil
}

func appendU16String(buf []byte, s string) []byte {
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(s)))
	return append(buf, s...)
}

func appendU32String(buf []byte, s string) []byte {
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(s)))
	return append(buf, s...)
}

// byteReader is a minimal cursor over a decode buffer that turns every
// out-of-bounds read into a CODEC_CORRUPT error instead of a panic.
type byteReader struct {
	buf []byte
	pos int
}

func (r *byteReader) atEnd() bool { return r.pos == len(r.buf) }

func (r *byteReader) readByte() (byte, error) {
	if r.pos+1 > len(r.buf) {
		return 0, corruptErr("truncated frame: expected 1 more byte")
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}

func (r *byteReader) readU32() (uint32, error) {
	if r.pos+4 > len(r.buf) {
		return 0, corruptErr("truncated frame: expected 4 more bytes")
	}
	v := binary.BigEndian.Uint32(r.buf[r.pos : r.pos+4])
	r.pos += 4
	return v, nil
}

func (r *byteReader) readU16String() (string, error) {
	if r.pos+2 > len(r.buf) {
		return "", corruptErr("truncated frame: expected string length prefix")
	}
	n := binary.BigEndian.Uint16(r.buf[r.pos : r.pos+2])
	r.pos += 2
	if r.pos+int(n) > len(r.buf) {
		return "", corruptErr("truncated frame: string length overruns buffer")
	}
	s := string(r.buf[r.pos : r.pos+int(n)])
	r.pos += int(n)
	return s, nil
}

func (r *byteReader) readU32String() (string, error) {
	if r.pos+4 > len(r.buf) {
		return "", corruptErr("truncated frame: expected string length prefix")
	}
	n := binary.BigEndian.Uint32(r.buf[r.pos : r.pos+4])
	r.pos += 4
	if r.pos+int(n) > len(r.buf) {
		return "", corruptErr("truncated frame: string length overruns buffer")
	}
	s := string(r.buf[r.pos : r.pos+int(n)])
	r.pos += int(n)
	return s, nil
}
