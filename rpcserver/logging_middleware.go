package rpcserver

import (
	"context"
	"log"
	"time"

	"hwrpc/rpcframe"
)

// LoggingMiddleware logs the routing key, duration, and error (if any) of
// every dispatched request.
func LoggingMiddleware() Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, request *rpcframe.Frame) *rpcframe.Frame {
			start := time.Now()
			response := next(ctx, request)
			duration := time.Since(start)

			log.Printf("rpc: %s duration=%s", request.RoutingKey, duration)
			if response.HasKey("error") {
				if msg, err := response.GetStr("error"); err == nil {
					log.Printf("rpc: %s error=%q", request.RoutingKey, msg)
				}
			}
			return response
		}
	}
}
