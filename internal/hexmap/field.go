package hexmap

import (
	"fmt"

	"liquidsands.ai/internal/records"
)

// Occupant is anything that can stand on a field.
type Occupant interface {
	UnitID() int
}

// Selection layers, highest priority first.
const (
	LayerPath  = "path"
	LayerRange = "range"
)

var layerOrder = []string{LayerPath, LayerRange}

// Field is one cell of the hex grid. Fields with terrain 0 are never built.
type Field struct {
	I, J    int
	Terrain int

	occupant Occupant
	viewers  int
	layers   map[string]string
}

func (f *Field) String() string { return fmt.Sprintf("<field %d,%d>", f.I, f.J) }

func (f *Field) Coord() records.Coord { return records.Coord{I: f.I, J: f.J} }

func (f *Field) Occupant() Occupant { return f.occupant }

func (f *Field) Occupied() bool { return f.occupant != nil }

// Viewers is the number of friendly units that currently see this field.
func (f *Field) Viewers() int { return f.viewers }

// Fogged reports whether the field is hidden under fog.
func (f *Field) Fogged() bool { return f.viewers < 1 }

// DisableFog registers one more viewer.
func (f *Field) DisableFog() { f.viewers++ }

// EnableFog drops one viewer. The count never goes below zero.
func (f *Field) EnableFog() {
	if f.viewers > 0 {
		f.viewers--
	}
}

// SetViewers overwrites the viewer count; negative values clamp to zero.
func (f *Field) SetViewers(n int) {
	if n < 0 {
		n = 0
	}
	f.viewers = n
}

// Select marks the field on layer with mark (a colour or style name).
func (f *Field) Select(layer, mark string) {
	if f.layers == nil {
		f.layers = make(map[string]string, len(layerOrder))
	}
	f.layers[layer] = mark
}

func (f *Field) Unselect(layer string) { delete(f.layers, layer) }

func (f *Field) UnselectAll() { clear(f.layers) }

// Highlight returns the mark of the highest priority populated layer.
func (f *Field) Highlight() (layer, mark string, ok bool) {
	for _, l := range layerOrder {
		if m, ok := f.layers[l]; ok {
			return l, m, true
		}
	}
	return "", "", false
}
