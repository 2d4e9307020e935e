package rpcserver

import (
	"context"
	"time"

	"hwrpc/rpcframe"
)

// TimeoutMiddleware bounds how long the handler chain below it may run.
// On expiry it returns an error frame rather than blocking the connection
// indefinitely — the handler goroutine is abandoned (Go has no
// preemptible cancellation), so a misbehaving handler still leaks a
// goroutine, but the caller gets an answer.
func TimeoutMiddleware(timeout time.Duration) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, request *rpcframe.Frame) *rpcframe.Frame {
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			done := make(chan *rpcframe.Frame, 1)
			go func() {
				done <- next(ctx, request)
			}()

			select {
			case response := <-done:
				return response
			case <-ctx.Done():
				return errorFrame("request timed out", nil)
			}
		}
	}
}
