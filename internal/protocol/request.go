package protocol

import (
	"strconv"
	"strings"
)

// Tag is one key/value pair. Header tags encode as "k:v", payload params as "k=v".
type Tag struct {
	Key   string
	Value string
}

func KV(key, value string) Tag { return Tag{Key: key, Value: value} }

func KVInt(key string, value int) Tag { return Tag{Key: key, Value: strconv.Itoa(value)} }

// Payload is the data[...] section of a request. Sub is set for categories
// that name a sub-operation (option, action, reply).
type Payload struct {
	Kind   string
	Sub    string
	Params []Tag
}

// Request is one outbound message.
type Request struct {
	Type    string
	Header  []Tag
	Payload *Payload
}

// Encode renders the request in wire form:
//
//	type:T k:v ... data[[kind][params]] end:end
//	type:T k:v ... data[[kind][[sub][params]]] end:end
func (r Request) Encode() string {
	var b strings.Builder
	b.WriteString("type:")
	b.WriteString(r.Type)
	for _, h := range r.Header {
		b.WriteByte(' ')
		b.WriteString(h.Key)
		b.WriteByte(':')
		b.WriteString(h.Value)
	}
	if r.Payload != nil {
		b.WriteString(" data[")
		r.Payload.encode(&b)
		b.WriteByte(']')
	}
	b.WriteByte(' ')
	b.WriteString(EndMarker)
	return b.String()
}

func (p *Payload) encode(b *strings.Builder) {
	b.WriteByte('[')
	b.WriteString(p.Kind)
	b.WriteString("][")
	if p.Sub != "" {
		b.WriteByte('[')
		b.WriteString(p.Sub)
		b.WriteString("][")
		writeParams(b, p.Params)
		b.WriteString("]]")
		return
	}
	writeParams(b, p.Params)
	b.WriteByte(']')
}

func writeParams(b *strings.Builder, params []Tag) {
	for i, p := range params {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(p.Key)
		b.WriteByte('=')
		b.WriteString(p.Value)
	}
}

// Info builds an info payload ("infotype=kind ...").
func Info(kind string, params ...Tag) *Payload {
	return &Payload{Kind: CategoryInfo, Params: append([]Tag{KV("infotype", kind)}, params...)}
}

// Query builds a request payload ("rtype=kind ...").
func Query(kind string, params ...Tag) *Payload {
	return &Payload{Kind: CategoryRequest, Params: append([]Tag{KV("rtype", kind)}, params...)}
}

func Option(sub string, params ...Tag) *Payload {
	return &Payload{Kind: CategoryOption, Sub: sub, Params: params}
}

func Action(sub string, params ...Tag) *Payload {
	return &Payload{Kind: CategoryAction, Sub: sub, Params: params}
}

func Answer(sub string, params ...Tag) *Payload {
	return &Payload{Kind: CategoryReply, Sub: sub, Params: params}
}

func Chat(params ...Tag) *Payload {
	return &Payload{Kind: CategoryChat, Params: params}
}
