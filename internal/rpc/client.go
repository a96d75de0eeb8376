// Package rpc is the remote procedure client of the game server: one method
// per server operation, each a single request/reply exchange.
package rpc

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"liquidsands.ai/internal/protocol"
	"liquidsands.ai/internal/transport"
)

// Exchange is one completed request/reply pair.
type Exchange struct {
	Time     time.Time
	Op       string
	Request  string
	Reply    string
	Err      string
	ErrKind  string
	Duration time.Duration
}

// Recorder receives every exchange after it completes.
type Recorder interface {
	Record(Exchange) error
}

type Options struct {
	// ClientID defaults to a random UUID.
	ClientID string
	// ClientInfo defaults to protocol.ClientInfo.
	ClientInfo string
	Logger     *log.Logger
	// Debug logs every request and reply.
	Debug    bool
	Recorder Recorder
	// MaxRPS limits the request rate; zero means unlimited.
	MaxRPS float64
}

type Client struct {
	tr      transport.Transport
	log     *log.Logger
	debug   bool
	rec     Recorder
	limiter *rate.Limiter

	clientID   string
	clientInfo string

	mu        sync.Mutex
	clientKey string
	ownerKey  string
}

func New(tr transport.Transport, opts Options) *Client {
	c := &Client{
		tr:         tr,
		log:        opts.Logger,
		debug:      opts.Debug,
		rec:        opts.Recorder,
		clientID:   opts.ClientID,
		clientInfo: opts.ClientInfo,
	}
	if c.log == nil {
		c.log = log.Default()
	}
	if c.clientID == "" {
		c.clientID = uuid.NewString()
	}
	if c.clientInfo == "" {
		c.clientInfo = protocol.ClientInfo
	}
	if opts.MaxRPS > 0 {
		burst := int(opts.MaxRPS)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.MaxRPS), burst)
	}
	return c
}

func (c *Client) ClientID() string { return c.clientID }

func (c *Client) ClientKey() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.clientKey
}

// OwnerKey is the secret generated by the last CreateGame. It is required to
// start, remove, or kick players from that game.
func (c *Client) OwnerKey() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ownerKey
}

func (c *Client) Close() error { return c.tr.Close() }

// reply is a classified reply together with the request that produced it.
type reply struct {
	protocol.Reply
	request string
}

// violation turns a decode failure into a ProtocolError for this exchange.
func (r reply) violation(err error) error {
	return &protocol.ProtocolError{Request: r.request, Reply: r.Raw, Reason: err.Error()}
}

func (r reply) missing(field string) error {
	return &protocol.ProtocolError{Request: r.request, Reply: r.Raw, Reason: "missing " + field}
}

func (c *Client) call(ctx context.Context, op string, req protocol.Request) (reply, error) {
	msg := req.Encode()
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return reply{request: msg}, &TransportError{Op: op, Err: err}
		}
	}
	if c.debug {
		c.log.Printf("WRITE: %s", msg)
	}

	start := time.Now()
	raw, err := c.tr.RoundTrip(ctx, msg)
	ex := Exchange{Time: start.UTC(), Op: op, Request: msg, Reply: raw, Duration: time.Since(start)}
	if err != nil {
		err = &TransportError{Op: op, Err: err}
		c.record(ex, err)
		return reply{request: msg}, err
	}
	if c.debug {
		c.log.Printf("READ:  %s", raw)
	}

	rep, err := protocol.Classify(msg, raw)
	c.record(ex, err)
	return reply{Reply: rep, request: msg}, err
}

func (c *Client) record(ex Exchange, err error) {
	if c.rec == nil {
		return
	}
	if err != nil {
		ex.Err = err.Error()
		ex.ErrKind = Kind(err)
	}
	if rerr := c.rec.Record(ex); rerr != nil {
		c.log.Printf("journal: %v", rerr)
	}
}

func (c *Client) session(playerID string) []protocol.Tag {
	h := []protocol.Tag{
		protocol.KV("clientid", c.clientID),
		protocol.KV("clientkey", c.ClientKey()),
	}
	if playerID != "" {
		h = append(h, protocol.KV("playerid", playerID))
	}
	return h
}

// send issues a sendgamedata request.
func (c *Client) send(ctx context.Context, op, playerID string, p *protocol.Payload) (reply, error) {
	return c.call(ctx, op, protocol.Request{Type: protocol.TypeSendGameData, Header: c.session(playerID), Payload: p})
}
