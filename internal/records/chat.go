package records

import (
	"sort"
	"strconv"

	"liquidsands.ai/internal/protocol"
)

// ChatRecord is one queued chat message.
type ChatRecord struct {
	IncomingTime   int64
	SenderID       string
	SenderPlayerID string
	Message        string
}

// Less orders chat records newest first.
func Less(a, b ChatRecord) bool { return a.IncomingTime > b.IncomingTime }

func SortChats(msgs []ChatRecord) {
	sort.SliceStable(msgs, func(i, j int) bool { return Less(msgs[i], msgs[j]) })
}

// DecodeChats decodes a getdata reply body:
//
//	data[[incomingtime:T senderid:S data[[system][senderplayerid=P message=[text]]]]...]
//
// A body without a data section carries no messages.
func DecodeChats(body string) ([]ChatRecord, error) {
	segs, err := protocol.Split(body, true)
	if err != nil {
		return nil, &DecodeError{Record: "chat", Field: "body", Err: err}
	}
	if len(segs) == 0 {
		return nil, nil
	}
	entries, err := protocol.Split(segs[0], true)
	if err != nil {
		return nil, &DecodeError{Record: "chat", Field: "data", Err: err}
	}
	out := make([]ChatRecord, 0, len(entries))
	for _, e := range entries {
		c, err := decodeChat(e)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func decodeChat(entry string) (ChatRecord, error) {
	var c ChatRecord
	ts, _ := protocol.Value(entry, ":", "incomingtime")
	n, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return c, &DecodeError{Record: "chat", Field: "incomingtime", Err: err}
	}
	c.IncomingTime = n
	c.SenderID, _ = protocol.Value(entry, ":", "senderid")

	wrapped, err := protocol.Segment(entry, 0)
	if err != nil {
		return c, &DecodeError{Record: "chat", Field: "data", Err: err}
	}
	data, err := protocol.Segment(wrapped, 1)
	if err != nil {
		return c, &DecodeError{Record: "chat", Field: "data", Err: err}
	}
	// The message text may contain spaces, so it is taken from its bracket
	// rather than from the tag map.
	if c.Message, err = protocol.Segment(data, 0); err != nil {
		return c, &DecodeError{Record: "chat", Field: "message", Err: err}
	}
	c.SenderPlayerID = protocol.ParseTags(data, '=').Get("senderplayerid")
	return c, nil
}
