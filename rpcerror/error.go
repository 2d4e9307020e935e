// Package rpcerror defines the error taxonomy the framework surfaces to
// callers, and the RemoteError value reconstructed client-side from a
// response frame carrying the reserved "error" key.
package rpcerror

import (
	"fmt"
	"runtime"
)

// Kind is the error taxonomy of section 7: a classification of where a
// failure originated, not a concrete Go error type.
type Kind string

const (
	KindTransport    Kind = "TRANSPORT"
	KindRemote       Kind = "REMOTE"
	KindCodecBadKey  Kind = "CODEC_BAD_KEY"
	KindCodecType    Kind = "CODEC_TYPE"
	KindCodecBuffer  Kind = "CODEC_BUFFER"
	KindCodecCorrupt Kind = "CODEC_CORRUPT"
	KindRegistration Kind = "REGISTRATION"
)

// Error is the error type the framework raises to its immediate caller.
// A RemoteError (KindRemote) additionally carries an optional backtrace
// copied verbatim from the response frame.
type Error struct {
	Kind         Kind
	Message      string
	Backtrace    []string
	HasBacktrace bool
}

func (e *Error) Error() string {
	if e.Kind == KindRemote {
		return "remote error: " + e.Message
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// New constructs a plain (non-remote) Error of the given kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// NewRemote reconstructs a RemoteError client-side from the text carried
// under the response's reserved "error" key, plus the optional "backtrace"
// array.
func NewRemote(message string, backtrace []string, hasBacktrace bool) *Error {
	return &Error{
		Kind:         KindRemote,
		Message:      message,
		Backtrace:    backtrace,
		HasBacktrace: hasBacktrace,
	}
}

// MaxBacktraceFrames bounds best-effort backtrace capture on the server.
const MaxBacktraceFrames = 30

// CaptureBacktrace returns up to MaxBacktraceFrames symbolic frames for the
// current call stack, skipping the given number of frames closest to the
// caller (typically the capture helper itself and the recover() site).
// Capture is best-effort: on any failure it returns nil rather than
// propagating an error, so a backtrace omission never corrupts a response
// frame.
func CaptureBacktrace(skip int) []string {
	pcs := make([]uintptr, MaxBacktraceFrames)
	n := runtime.Callers(skip+2, pcs)
	if n == 0 {
		return nil
	}

	frames := runtime.CallersFrames(pcs[:n])
	symbols := make([]string, 0, n)
	for {
		frame, more := frames.Next()
		if frame.Function != "" {
			symbols = append(symbols, fmt.Sprintf("%s (%s:%d)", frame.Function, frame.File, frame.Line))
		}
		if !more {
			break
		}
	}
	if len(symbols) == 0 {
		return nil
	}
	return symbols
}
