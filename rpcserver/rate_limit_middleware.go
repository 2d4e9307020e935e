package rpcserver

import (
	"context"

	"golang.org/x/time/rate"
	"hwrpc/rpcframe"
)

// RateLimitMiddleware guards the dispatcher with a token-bucket admission
// limit. The framework itself imposes no internal parallelism (section 5),
// but nothing stops many connections from piling requests onto one
// dispatcher; this bounds how fast they are admitted, independent of the
// per-request work a handler does.
func RateLimitMiddleware(r float64, burst int) Middleware {
	limiter := rate.NewLimiter(rate.Limit(r), burst)
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, request *rpcframe.Frame) *rpcframe.Frame {
			if !limiter.Allow() {
				return errorFrame("rate limit exceeded", nil)
			}
			return next(ctx, request)
		}
	}
}
