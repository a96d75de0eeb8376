package rpc

import (
	"errors"

	"liquidsands.ai/internal/protocol"
)

// TransportError wraps any failure to complete the exchange itself. It is
// never retried by the client.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string { return e.Op + ": transport: " + e.Err.Error() }
func (e *TransportError) Unwrap() error { return e.Err }

// Error kinds as recorded in the journal.
const (
	KindNone      = ""
	KindTransport = "transport"
	KindStatus    = "status"
	KindProtocol  = "protocol"
)

// Kind classifies err into one of the three failure kinds. Errors that are
// none of them (context cancellation before sending, for instance) count as
// transport failures.
func Kind(err error) string {
	if err == nil {
		return KindNone
	}
	var se *protocol.StatusError
	if errors.As(err, &se) {
		return KindStatus
	}
	var pe *protocol.ProtocolError
	if errors.As(err, &pe) {
		return KindProtocol
	}
	return KindTransport
}
