package records

import (
	"fmt"
	"strconv"
	"strings"

	"liquidsands.ai/internal/protocol"
)

// MovementUnknown is the movement budget of a unit whose record omitted it.
const MovementUnknown = -1

// Coord is a grid position as sent on the wire ("i,j").
type Coord struct{ I, J int }

// UnitRecord is the server's view of one unit. HitPoints and Cargo are only
// sent to the unit's owner; for everybody else they are absent.
type UnitRecord struct {
	ID        int
	Owner     *Player
	Type      UnitTypeRecord
	Destroyed bool
	Movement  int

	LastMovement []Coord // nil when absent
	HitPoints    Opt
	Cargo        *Inventory
}

func (u *UnitRecord) String() string {
	return fmt.Sprintf("unit %d (%s, owner %s, movement %d, hp %s)", u.ID, u.Type.Name, u.Owner, u.Movement, u.HitPoints)
}

// DecodeUnit builds a UnitRecord from the tags of a unitinfo reply.
func DecodeUnit(tags protocol.TagMap, reg Registry) (*UnitRecord, error) {
	id, err := tags.Int("unitid")
	if err != nil {
		return nil, &DecodeError{Record: "unit", Field: "unitid", Err: err}
	}
	u := &UnitRecord{
		ID:        id,
		Owner:     resolvePlayer(reg, tags.Get("owner")),
		Destroyed: tags.Get("destroyed") == "true",
	}

	name := tags.Get("utype")
	if reg != nil {
		if t, ok := reg.UnitType(name); ok {
			u.Type = t
		}
	}
	if u.Type.Name == "" {
		u.Type = UnitTypeRecord{Name: name}
	}

	if u.Movement, err = tags.IntOr("movement", MovementUnknown); err != nil {
		return nil, &DecodeError{Record: "unit", Field: "movement", Err: err}
	}
	if u.HitPoints, err = optInt(tags, "hitpoints"); err != nil {
		return nil, &DecodeError{Record: "unit", Field: "hitpoints", Err: err}
	}
	if v, ok := tags.Lookup("cargo"); ok {
		inv, err := ParseInventory(v)
		if err != nil {
			return nil, &DecodeError{Record: "unit", Field: "cargo", Err: err}
		}
		u.Cargo = &inv
	}
	if v, ok := tags.Lookup("lastmovement"); ok {
		if u.LastMovement, err = parseCoords(v); err != nil {
			return nil, &DecodeError{Record: "unit", Field: "lastmovement", Err: err}
		}
	}
	return u, nil
}

func parseCoords(v string) ([]Coord, error) {
	items, err := list(v)
	if err != nil {
		return nil, err
	}
	out := make([]Coord, 0, len(items))
	for _, it := range items {
		a, b, ok := strings.Cut(it, ",")
		if !ok {
			return nil, fmt.Errorf("coordinate %q", it)
		}
		i, err := strconv.Atoi(strings.TrimSpace(a))
		if err != nil {
			return nil, err
		}
		j, err := strconv.Atoi(strings.TrimSpace(b))
		if err != nil {
			return nil, err
		}
		out = append(out, Coord{I: i, J: j})
	}
	return out, nil
}

// UnitTypeRecord describes the limits of one unit type.
type UnitTypeRecord struct {
	Name         string
	MaxHitPoints int
	MaxFirePower int
	MaxCargo     int
	MaxMovement  int
}

// DecodeUnitType builds a UnitTypeRecord from "name=... maxhitpoints=..." tags.
func DecodeUnitType(tags protocol.TagMap) (UnitTypeRecord, error) {
	t := UnitTypeRecord{Name: tags.Get("name")}
	fields := []struct {
		key string
		dst *int
	}{
		{"maxhitpoints", &t.MaxHitPoints},
		{"maxfirepower", &t.MaxFirePower},
		{"maxcargo", &t.MaxCargo},
		{"maxmovement", &t.MaxMovement},
	}
	for _, f := range fields {
		n, err := tags.Int(f.key)
		if err != nil {
			return UnitTypeRecord{}, &DecodeError{Record: "unittype", Field: f.key, Err: err}
		}
		*f.dst = n
	}
	return t, nil
}

// DecodeUnitTypes decodes the unit type catalogue of a map. The first bracket
// segment of the body holds "[types...][name][values][name][values]...".
func DecodeUnitTypes(body string) ([]UnitTypeRecord, error) {
	outer, err := protocol.Segment(body, 0)
	if err != nil {
		return nil, &DecodeError{Record: "unittype", Field: "body", Err: err}
	}
	parts, err := protocol.Split(outer, true)
	if err != nil {
		return nil, &DecodeError{Record: "unittype", Field: "body", Err: err}
	}
	if len(parts)%2 != 1 {
		return nil, &DecodeError{Record: "unittype", Field: "body", Err: fmt.Errorf("%d segments, want an odd count", len(parts))}
	}
	out := make([]UnitTypeRecord, 0, len(parts)/2)
	for i := 1; i+1 < len(parts); i += 2 {
		t, err := DecodeUnitType(protocol.ParseTags("name="+parts[i]+" "+parts[i+1], '='))
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}
