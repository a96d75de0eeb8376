// Package transport carries encoded requests to the game server and returns
// the raw reply. Implementations do not interpret replies.
package transport

import "context"

// Transport performs one request/reply exchange.
type Transport interface {
	RoundTrip(ctx context.Context, request string) (string, error)
	Close() error
}

// Func adapts a function to a Transport. Close is a no-op.
type Func func(ctx context.Context, request string) (string, error)

func (f Func) RoundTrip(ctx context.Context, request string) (string, error) { return f(ctx, request) }
func (f Func) Close() error                                                  { return nil }
