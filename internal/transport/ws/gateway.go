package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"liquidsands.ai/internal/transport"
)

// Gateway accepts websocket clients and forwards every envelope to the game
// server through upstream. Requests on one socket are served concurrently;
// replies are matched by envelope id, not by order.
type Gateway struct {
	upstream transport.Transport
	log      *log.Logger

	upgrader websocket.Upgrader
	sessions atomic.Int64
	served   atomic.Uint64
}

func NewGateway(upstream transport.Transport, logger *log.Logger) *Gateway {
	if logger == nil {
		logger = log.Default()
	}
	return &Gateway{
		upstream: upstream,
		log:      logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

// AllowOrigins restricts websocket upgrades to the given Origin headers.
// An empty list accepts every origin.
func (g *Gateway) AllowOrigins(origins []string) {
	if len(origins) == 0 {
		g.upgrader.CheckOrigin = func(r *http.Request) bool { return true }
		return
	}
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	g.upgrader.CheckOrigin = func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || allowed[origin]
	}
}

// Sessions is the number of open websocket clients.
func (g *Gateway) Sessions() int64 { return g.sessions.Load() }

// Served is the number of requests forwarded so far.
func (g *Gateway) Served() uint64 { return g.served.Load() }

func (g *Gateway) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := g.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		g.sessions.Add(1)
		defer g.sessions.Add(-1)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		out := make(chan Envelope, 16)

		// Writer goroutine.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case env := <-out:
					b, err := json.Marshal(env)
					if err != nil {
						continue
					}
					_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		_ = conn.SetReadDeadline(time.Now().Add(readWait))
		conn.SetPingHandler(func(data string) error {
			_ = conn.SetReadDeadline(time.Now().Add(readWait))
			return conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(writeWait))
		})

		var wg sync.WaitGroup
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				cancel()
				break
			}
			_ = conn.SetReadDeadline(time.Now().Add(readWait))
			env, err := decodeEnvelope(msg)
			if err != nil || env.ID == 0 {
				continue
			}
			wg.Add(1)
			go func(env Envelope) {
				defer wg.Done()
				resp := Envelope{ID: env.ID}
				reply, err := g.upstream.RoundTrip(ctx, env.Body)
				if err != nil {
					g.log.Printf("gateway: request %d: %v", env.ID, err)
					resp.Error = err.Error()
				} else {
					resp.Body = reply
				}
				g.served.Add(1)
				select {
				case out <- resp:
				case <-ctx.Done():
				}
			}(env)
		}
		wg.Wait()
	}
}
