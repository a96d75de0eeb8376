// Package tcp implements the game server's native transport: one TCP
// connection per request, one length-prefixed frame each way.
package tcp

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"time"
)

// Dialer opens a fresh connection for every RoundTrip. It holds no
// connection state, so it is safe for concurrent use.
type Dialer struct {
	addr    string
	timeout time.Duration
	net     net.Dialer
}

// NewDialer returns a Dialer for addr ("host:port"). A zero timeout leaves
// the exchange bounded only by the caller's context.
func NewDialer(addr string, timeout time.Duration) *Dialer {
	return &Dialer{addr: addr, timeout: timeout}
}

func (d *Dialer) Addr() string { return d.addr }

func (d *Dialer) RoundTrip(ctx context.Context, request string) (string, error) {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	conn, err := d.net.DialContext(ctx, "tcp", d.addr)
	if err != nil {
		return "", fmt.Errorf("dial %s: %w", d.addr, err)
	}
	defer conn.Close()

	if dl, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(dl)
	}
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Now())
	})
	defer stop()

	if err := WriteUTF(conn, request); err != nil {
		return "", d.fail(ctx, "write", err)
	}
	reply, err := ReadUTF(bufio.NewReader(conn))
	if err != nil {
		return "", d.fail(ctx, "read", err)
	}
	return reply, nil
}

func (d *Dialer) fail(ctx context.Context, op string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%s %s: %w", op, d.addr, ctxErr)
	}
	return fmt.Errorf("%s %s: %w", op, d.addr, err)
}

// Close is a no-op; Dialer keeps no open connections.
func (d *Dialer) Close() error { return nil }
