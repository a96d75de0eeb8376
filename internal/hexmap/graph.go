// Package hexmap models the hex board: fields built from the terrain grid,
// row-parity neighbour offsets, and unit occupancy.
package hexmap

import (
	"errors"
	"fmt"

	"liquidsands.ai/internal/protocol"
)

var ErrOccupied = errors.New("hexmap: field occupied")

// Neighbour offsets {di, dj} for even and odd rows. Even rows are shifted
// right by half a field.
var (
	evenOffsets = [6][2]int{{+1, +1}, {0, +1}, {+1, 0}, {-1, 0}, {+1, -1}, {0, -1}}
	oddOffsets  = [6][2]int{{0, +1}, {-1, +1}, {+1, 0}, {-1, 0}, {0, -1}, {-1, -1}}
)

func offsets(j int) [6][2]int {
	if j%2 == 0 {
		return evenOffsets
	}
	return oddOffsets
}

// Graph is the board. Its shape is fixed once built; occupancy, fog, and
// selection change as the game runs.
type Graph struct {
	width, height int
	fields        [][]*Field // [j][i]
	byUnit        map[int]*Field
}

// New builds one field for every cell of terrain with a non-zero value.
func New(terrain protocol.Grid) *Graph {
	g := &Graph{
		width:  terrain.Width,
		height: terrain.Height,
		fields: make([][]*Field, terrain.Height),
		byUnit: make(map[int]*Field),
	}
	for j := 0; j < terrain.Height; j++ {
		g.fields[j] = make([]*Field, terrain.Width)
		for i := 0; i < terrain.Width; i++ {
			if t := terrain.At(i, j); t != 0 {
				g.fields[j][i] = &Field{I: i, J: j, Terrain: t}
			}
		}
	}
	return g
}

func (g *Graph) Width() int  { return g.width }
func (g *Graph) Height() int { return g.height }

// Field returns nil when (i, j) is out of bounds or impassable.
func (g *Graph) Field(i, j int) *Field {
	if i < 0 || j < 0 || i >= g.width || j >= g.height {
		return nil
	}
	return g.fields[j][i]
}

// Each visits every field in row order.
func (g *Graph) Each(fn func(*Field)) {
	for _, row := range g.fields {
		for _, f := range row {
			if f != nil {
				fn(f)
			}
		}
	}
}

// TerrainNeighbors are the passable fields adjacent to f, occupied or not.
func (g *Graph) TerrainNeighbors(f *Field) []*Field {
	out := make([]*Field, 0, 6)
	for _, o := range offsets(f.J) {
		if n := g.Field(f.I+o[0], f.J+o[1]); n != nil {
			out = append(out, n)
		}
	}
	return out
}

// Neighbors are the adjacent fields a unit could step onto right now.
func (g *Graph) Neighbors(f *Field) []*Field {
	out := g.TerrainNeighbors(f)
	n := 0
	for _, nf := range out {
		if nf.occupant == nil {
			out[n] = nf
			n++
		}
	}
	return out[:n]
}

// IsUsable reports whether f exists, is passable, and is unoccupied.
func (g *Graph) IsUsable(f *Field) bool {
	return f != nil && f.Terrain != 0 && f.occupant == nil
}

// Available reports whether f could hold o: it is empty or o already stands
// there.
func (g *Graph) Available(f *Field, o Occupant) bool {
	if f == nil {
		return false
	}
	return f.occupant == nil || (o != nil && f.occupant.UnitID() == o.UnitID())
}

// Place puts o on f, removing it from wherever it stood before.
func (g *Graph) Place(f *Field, o Occupant) error {
	if f == nil {
		return fmt.Errorf("hexmap: place unit %d: no field", o.UnitID())
	}
	if !g.Available(f, o) {
		return fmt.Errorf("%w: %v holds unit %d", ErrOccupied, f, f.occupant.UnitID())
	}
	if prev := g.byUnit[o.UnitID()]; prev != nil && prev != f {
		prev.occupant = nil
	}
	f.occupant = o
	g.byUnit[o.UnitID()] = f
	return nil
}

// Vacate clears f. The unit that stood there stays located at f until it is
// placed again.
func (g *Graph) Vacate(f *Field) {
	if f != nil {
		f.occupant = nil
	}
}

// Move records that unit o now stands at f without marking f occupied. It is
// used while o walks a path.
func (g *Graph) Move(o Occupant, f *Field) {
	if prev := g.byUnit[o.UnitID()]; prev != nil && prev != f && prev.occupant != nil && prev.occupant.UnitID() == o.UnitID() {
		prev.occupant = nil
	}
	g.byUnit[o.UnitID()] = f
}

// Locate returns the field unit id was last placed or moved to.
func (g *Graph) Locate(id int) *Field { return g.byUnit[id] }

// Remove forgets unit id entirely.
func (g *Graph) Remove(id int) {
	if f := g.byUnit[id]; f != nil && f.occupant != nil && f.occupant.UnitID() == id {
		f.occupant = nil
	}
	delete(g.byUnit, id)
}

// ClearOccupancy empties every field and forgets all unit positions.
func (g *Graph) ClearOccupancy() {
	g.Each(func(f *Field) { f.occupant = nil })
	clear(g.byUnit)
}

func (g *Graph) ClearLayer(layer string) {
	g.Each(func(f *Field) { f.Unselect(layer) })
}

func (g *Graph) ClearAll() {
	g.Each(func(f *Field) { f.UnselectAll() })
}

// ClearFog reveals the whole board.
func (g *Graph) ClearFog() {
	g.Each(func(f *Field) { f.SetViewers(1) })
}

// FillFog hides the whole board.
func (g *Graph) FillFog() {
	g.Each(func(f *Field) { f.SetViewers(0) })
}
