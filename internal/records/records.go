// Package records decodes server replies into typed game records.
//
// Records are rebuilt from scratch on every poll. Cross references (player
// names, unit ids, unit type names) are resolved through a Registry owned by
// the caller; unknown references resolve to detached placeholders so a record
// can always be decoded before the local world model has caught up.
package records

import (
	"fmt"

	"liquidsands.ai/internal/protocol"
)

// Player is a participant of a game. ID is only known for players joined by
// this client; the server never reveals other players' ids.
type Player struct {
	Name string
	ID   string
}

func (p *Player) String() string {
	if p == nil {
		return "<none>"
	}
	return p.Name
}

// UnitRef is anything that stands for a unit on the client.
type UnitRef interface {
	UnitID() int
}

type detachedUnit int

func (u detachedUnit) UnitID() int { return int(u) }

// Registry resolves references found in records. Implementations must not
// mutate themselves while a decode is running.
type Registry interface {
	PlayerByName(name string) (*Player, bool)
	UnitByID(id int) (UnitRef, bool)
	UnitType(name string) (UnitTypeRecord, bool)
}

// Opt is an integer the server may omit. The zero value is "absent".
type Opt struct {
	Value int
	Set   bool
}

func Some(v int) Opt { return Opt{Value: v, Set: true} }

func (o Opt) Get() (int, bool) { return o.Value, o.Set }

func (o Opt) Or(def int) int {
	if !o.Set {
		return def
	}
	return o.Value
}

func (o Opt) String() string {
	if !o.Set {
		return "-"
	}
	return fmt.Sprint(o.Value)
}

// DecodeError reports a record that could not be built from its tags.
type DecodeError struct {
	Record string
	Field  string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s.%s: %v", e.Record, e.Field, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func resolvePlayer(reg Registry, name string) *Player {
	if name == "" {
		return nil
	}
	if reg != nil {
		if p, ok := reg.PlayerByName(name); ok && p != nil {
			return p
		}
	}
	return &Player{Name: name}
}

func resolveUnit(reg Registry, id int) UnitRef {
	if reg != nil {
		if u, ok := reg.UnitByID(id); ok && u != nil {
			return u
		}
	}
	return detachedUnit(id)
}

func optInt(tags protocol.TagMap, key string) (Opt, error) {
	if !tags.Has(key) {
		return Opt{}, nil
	}
	n, err := tags.Int(key)
	if err != nil {
		return Opt{}, err
	}
	return Some(n), nil
}

// list decodes a "[[a][b]]" tag value into its items. A missing or empty value
// yields an empty list.
func list(v string) ([]string, error) {
	if v == "" {
		return nil, nil
	}
	outer, err := protocol.Segment(v, 0)
	if err != nil {
		return nil, err
	}
	return protocol.Split(outer, true)
}

// RecordTags extracts the tag section of a "[kind][k=v ...]" reply body.
// kind only labels errors; the server is not consistent about the header.
func RecordTags(body, kind string) (protocol.TagMap, error) {
	parts, err := protocol.Split(body, true)
	if err != nil {
		return protocol.TagMap{}, &DecodeError{Record: kind, Field: "body", Err: err}
	}
	if len(parts) < 2 {
		return protocol.TagMap{}, &DecodeError{Record: kind, Field: "body", Err: fmt.Errorf("want [%s][...], got %d segments", kind, len(parts))}
	}
	return protocol.ParseTags(parts[1], '='), nil
}
