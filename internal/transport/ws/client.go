package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// Client keeps one websocket open to a gateway and multiplexes requests over
// it. Every request gets its own reply channel keyed by envelope id.
type Client struct {
	conn    *websocket.Conn
	log     *log.Logger
	timeout time.Duration

	nextID  atomic.Uint64
	writeMu sync.Mutex

	mu      sync.Mutex
	pending map[uint64]chan Envelope
	closed  bool
	err     error

	done      chan struct{}
	closeOnce sync.Once
}

// Dial connects to url. timeout bounds each RoundTrip in addition to the
// caller's context; zero disables it.
func Dial(ctx context.Context, url string, timeout time.Duration, logger *log.Logger) (*Client, error) {
	if logger == nil {
		logger = log.Default()
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	c := &Client{
		conn:    conn,
		log:     logger,
		timeout: timeout,
		pending: map[uint64]chan Envelope{},
		done:    make(chan struct{}),
	}
	go c.readLoop()
	go c.pingLoop()
	return c, nil
}

func (c *Client) RoundTrip(ctx context.Context, request string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	id := c.nextID.Add(1)
	ch := make(chan Envelope, 1)
	c.mu.Lock()
	if c.closed {
		err := c.err
		c.mu.Unlock()
		return "", err
	}
	c.pending[id] = ch
	c.mu.Unlock()
	defer c.forget(id)

	b, err := json.Marshal(Envelope{ID: id, Body: request})
	if err != nil {
		return "", err
	}
	c.writeMu.Lock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	err = c.conn.WriteMessage(websocket.TextMessage, b)
	c.writeMu.Unlock()
	if err != nil {
		return "", fmt.Errorf("ws write: %w", err)
	}

	select {
	case env, ok := <-ch:
		if !ok {
			return "", c.closeErr()
		}
		if env.Error != "" {
			return "", &RemoteError{Msg: env.Error}
		}
		return env.Body, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Pending is the number of requests waiting for a reply.
func (c *Client) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

func (c *Client) Close() error {
	_ = c.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	err := c.conn.Close()
	c.shutdown(ErrClosed)
	return err
}

func (c *Client) forget(id uint64) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

func (c *Client) closeErr() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err == nil {
		return ErrClosed
	}
	return c.err
}

func (c *Client) readLoop() {
	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			c.shutdown(fmt.Errorf("%w: %v", ErrClosed, err))
			return
		}
		env, err := decodeEnvelope(msg)
		if err != nil {
			c.log.Printf("ws: bad envelope: %v", err)
			continue
		}
		c.mu.Lock()
		ch := c.pending[env.ID]
		delete(c.pending, env.ID)
		c.mu.Unlock()
		if ch == nil {
			// The caller already gave up on this request.
			continue
		}
		ch <- env
	}
}

func (c *Client) pingLoop() {
	t := time.NewTicker(pingPeriod)
	defer t.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-t.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

// shutdown fails every pending request. Only the first reason is kept.
func (c *Client) shutdown(reason error) {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.err = reason
		for id, ch := range c.pending {
			close(ch)
			delete(c.pending, id)
		}
		c.mu.Unlock()
		close(c.done)
	})
}
