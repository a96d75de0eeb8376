package ws

import (
	"encoding/json"
	"errors"
	"time"
)

// Envelope frames one request or reply on the websocket. Replies carry the id
// of the request they answer; Error is set when the gateway could not reach
// the game server.
type Envelope struct {
	ID    uint64 `json:"id"`
	Body  string `json:"body,omitempty"`
	Error string `json:"error,omitempty"`
}

const (
	writeWait  = 5 * time.Second
	readWait   = 60 * time.Second
	pingPeriod = 20 * time.Second
)

var ErrClosed = errors.New("ws: connection closed")

// RemoteError is an upstream failure reported by the gateway.
type RemoteError struct {
	Msg string
}

func (e *RemoteError) Error() string { return "gateway: " + e.Msg }

func decodeEnvelope(b []byte) (Envelope, error) {
	var env Envelope
	err := json.Unmarshal(b, &env)
	return env, err
}
