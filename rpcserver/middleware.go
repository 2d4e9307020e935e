package rpcserver

import (
	"context"

	"hwrpc/rpcframe"
)

// HandlerFunc is the shape every dispatcher-level handler and middleware
// operates on: a routed request frame in, a response frame out.
type HandlerFunc func(ctx context.Context, request *rpcframe.Frame) *rpcframe.Frame

// Middleware wraps a HandlerFunc with cross-cutting behavior (logging,
// admission control, ...).
type Middleware func(next HandlerFunc) HandlerFunc

// Chain composes middlewares into a single Middleware, applied in the
// order they are passed: Chain(A, B, C)(handler) == A(B(C(handler))),
// i.e. A's before-logic runs first and its after-logic runs last.
func Chain(middlewares ...Middleware) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		for i := len(middlewares) - 1; i >= 0; i-- {
			next = middlewares[i](next)
		}
		return next
	}
}
