package visibility

import (
	"math/rand"
	"testing"

	"liquidsands.ai/internal/hexmap"
	"liquidsands.ai/internal/protocol"
)

func board(t *testing.T, rows [][]int) *hexmap.Graph {
	t.Helper()
	grid, err := protocol.NewGrid(rows)
	if err != nil {
		t.Fatalf("grid: %v", err)
	}
	return hexmap.New(grid)
}

func TestLineOfSightBlockedByHighGround(t *testing.T) {
	g := board(t, [][]int{{1, 1, 1, 1}})
	a, b := g.Field(0, 0), g.Field(3, 0)
	if !LineOfSight(g, a, b) {
		t.Fatalf("flat row must be visible")
	}
	hills := board(t, [][]int{{1, 3, 1, 1}})
	if LineOfSight(hills, hills.Field(0, 0), hills.Field(3, 0)) {
		t.Fatalf("hill between must block")
	}
	// A target standing on the hill can still be seen.
	if !LineOfSight(hills, hills.Field(0, 0), hills.Field(1, 0)) {
		t.Fatalf("adjacent hill must be visible")
	}
	gap := board(t, [][]int{{1, 0, 1, 1}})
	if LineOfSight(gap, gap.Field(0, 0), gap.Field(2, 0)) {
		t.Fatalf("missing field must block")
	}
}

func TestFieldOfViewIncludesOrigin(t *testing.T) {
	g := board(t, [][]int{
		{1, 1, 1, 1, 1},
		{1, 1, 1, 1, 1},
		{1, 1, 1, 1, 1},
	})
	origin := g.Field(2, 1)
	if fov := FieldOfView(g, origin, 0); len(fov) != 1 || fov[0] != origin {
		t.Fatalf("radius 0: %v", fov)
	}
	if fov := FieldOfView(g, origin, 1); len(fov) != 7 {
		t.Fatalf("radius 1: %d fields", len(fov))
	}
}

func TestFogCountNeverNegative(t *testing.T) {
	g := board(t, [][]int{{1, 1}})
	f := g.Field(0, 0)
	rng := rand.New(rand.NewSource(7))
	e := NewEngine(g, ModeDynamic)
	for i := 0; i < 500; i++ {
		if rng.Intn(2) == 0 {
			e.Reveal([]*hexmap.Field{f})
		} else {
			e.Conceal([]*hexmap.Field{f})
		}
		if f.Viewers() < 0 {
			t.Fatalf("step %d: viewers=%d", i, f.Viewers())
		}
		if f.Fogged() != (f.Viewers() < 1) {
			t.Fatalf("step %d: fogged=%v viewers=%d", i, f.Fogged(), f.Viewers())
		}
	}
}

func TestHiddenUnits(t *testing.T) {
	g := board(t, [][]int{{1, 1}})
	f := g.Field(1, 0)
	e := NewEngine(g, ModeDynamic)
	if !e.Hidden(f, false) {
		t.Fatalf("enemy on unwatched field must be hidden")
	}
	if e.Hidden(f, true) {
		t.Fatalf("own units are never hidden")
	}
	e.Reveal([]*hexmap.Field{f})
	if e.Hidden(f, false) {
		t.Fatalf("watched field must show its unit")
	}
	e.Conceal([]*hexmap.Field{f})
	e.SetMode(ModeOff)
	if e.Hidden(f, false) || f.Fogged() {
		t.Fatalf("fog off must reveal everything")
	}
	e.SetMode(ModeDynamic)
	if !f.Fogged() {
		t.Fatalf("fog on must hide everything again")
	}
}
