package protocol

import (
	"fmt"
	"strings"
)

// Reply is a classified status:ok reply. Body is everything between the
// status token and the trailing end:end.
type Reply struct {
	Raw  string
	Body string
}

// StatusError is a reply the server marked as status:error.
type StatusError struct {
	Code   string
	Detail string
	Reply  string
}

func (e *StatusError) Error() string {
	if e.Detail == "" {
		return "server error: " + e.Code
	}
	return "server error: " + e.Code + " " + e.Detail
}

// Message is the human readable form: the code followed by any extra tokens.
func (e *StatusError) Message() string {
	if e.Detail == "" {
		return e.Code
	}
	return e.Code + " " + e.Detail
}

// GameEnded reports whether the server used this error to announce the end of
// the game. The signal is the literal error text, not a structured field.
func (e *StatusError) GameEnded() bool { return e.Code == CodeGameEnded }

// ProtocolError is a reply that does not follow the wire grammar, or lacks a
// field the request requires.
type ProtocolError struct {
	Request string
	Reply   string
	Reason  string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol violation: %s (request=%q reply=%q)", e.Reason, e.Request, e.Reply)
}

// Classify inspects the first token of reply.
func Classify(request, reply string) (Reply, error) {
	parts := strings.Split(reply, " ")
	switch parts[0] {
	case HeaderOK:
		return Reply{Raw: reply, Body: trimFrame(reply[len(HeaderOK):])}, nil
	case HeaderError:
		if len(parts) < 2 {
			return Reply{Raw: reply}, &ProtocolError{Request: request, Reply: reply, Reason: "status:error without errinfo"}
		}
		_, code, ok := strings.Cut(parts[1], ":")
		if !ok || code == "" {
			return Reply{Raw: reply}, &ProtocolError{Request: request, Reply: reply, Reason: "malformed errinfo token"}
		}
		detail := trimFrame(strings.Join(parts[2:], " "))
		return Reply{Raw: reply}, &StatusError{Code: code, Detail: detail, Reply: reply}
	default:
		return Reply{Raw: reply}, &ProtocolError{Request: request, Reply: reply, Reason: "missing status token"}
	}
}

func trimFrame(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, EndMarker)
	return strings.TrimSpace(s)
}
