// Package visibility computes what friendly units can see and keeps the
// per-field viewer counts that drive fog of war.
package visibility

import (
	"fmt"

	"liquidsands.ai/internal/hexmap"
)

type Mode int

const (
	ModeDynamic Mode = iota
	ModeOff
)

func (m Mode) String() string {
	switch m {
	case ModeDynamic:
		return "dynamic"
	case ModeOff:
		return "off"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode accepts "dynamic" and "off".
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "dynamic":
		return ModeDynamic, nil
	case "off":
		return ModeOff, nil
	}
	return ModeDynamic, fmt.Errorf("visibility: unknown fog mode %q", s)
}

// LineOfSight reports whether from can see to. Every field strictly between
// them on the hex line must exist and be no higher than the taller endpoint.
func LineOfSight(g *hexmap.Graph, from, to *hexmap.Field) bool {
	if from == nil || to == nil {
		return false
	}
	if from == to {
		return true
	}
	top := max(from.Terrain, to.Terrain)
	line := hexmap.Line(from.Coord(), to.Coord())
	for _, c := range line[1 : len(line)-1] {
		f := g.Field(c.I, c.J)
		if f == nil || f.Terrain > top {
			return false
		}
	}
	return true
}

// FieldOfView floods out from origin for radius rings. A field joins the view
// only when origin has line of sight to it, and only visible fields are
// expanded further. origin is always included.
func FieldOfView(g *hexmap.Graph, origin *hexmap.Field, radius int) []*hexmap.Field {
	if origin == nil {
		return nil
	}
	seen := map[*hexmap.Field]bool{origin: true}
	all := []*hexmap.Field{origin}
	last := []*hexmap.Field{origin}
	for ring := 0; ring < radius && len(last) > 0; ring++ {
		var next []*hexmap.Field
		for _, f := range last {
			for _, n := range g.TerrainNeighbors(f) {
				if seen[n] {
					continue
				}
				if !LineOfSight(g, origin, n) {
					continue
				}
				seen[n] = true
				all = append(all, n)
				next = append(next, n)
			}
		}
		last = next
	}
	return all
}

// Engine applies fields of view to the board's viewer counts.
type Engine struct {
	g    *hexmap.Graph
	mode Mode
}

func NewEngine(g *hexmap.Graph, mode Mode) *Engine {
	e := &Engine{g: g, mode: mode}
	if mode == ModeOff {
		g.ClearFog()
	}
	return e
}

func (e *Engine) Mode() Mode { return e.mode }

// SetMode switches fog on or off. Turning it off reveals the whole board;
// turning it back on hides everything, and the caller must reveal the
// current fields of view again.
func (e *Engine) SetMode(m Mode) {
	if m == e.mode {
		return
	}
	e.mode = m
	if m == ModeOff {
		e.g.ClearFog()
	} else {
		e.g.FillFog()
	}
}

func (e *Engine) Reveal(fov []*hexmap.Field) {
	for _, f := range fov {
		f.DisableFog()
	}
}

func (e *Engine) Conceal(fov []*hexmap.Field) {
	for _, f := range fov {
		f.EnableFog()
	}
}

// Refresh moves one unit's viewer registrations from old to next.
func (e *Engine) Refresh(old, next []*hexmap.Field) {
	e.Conceal(old)
	e.Reveal(next)
}

// Hidden reports whether a unit standing on f is hidden from the local
// player. Own units are never hidden.
func (e *Engine) Hidden(f *hexmap.Field, own bool) bool {
	if own || e.mode == ModeOff {
		return false
	}
	return f == nil || f.Viewers() == 0
}
