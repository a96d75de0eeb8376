package pathing

import (
	"testing"

	"liquidsands.ai/internal/hexmap"
	"liquidsands.ai/internal/protocol"
)

type unit int

func (u unit) UnitID() int { return int(u) }

func board(t *testing.T, rows [][]int) *hexmap.Graph {
	t.Helper()
	grid, err := protocol.NewGrid(rows)
	if err != nil {
		t.Fatalf("grid: %v", err)
	}
	return hexmap.New(grid)
}

// flower is a centre field at (1,1) with its six neighbours and nothing else.
func flower(t *testing.T) (*hexmap.Graph, *hexmap.Field) {
	g := board(t, [][]int{
		{1, 1, 0},
		{1, 1, 1},
		{1, 1, 0},
	})
	return g, g.Field(1, 1)
}

func TestShortestPathFlower(t *testing.T) {
	g, center := flower(t)
	ring := g.TerrainNeighbors(center)
	if len(ring) != 6 {
		t.Fatalf("expected 6 neighbours, got %d", len(ring))
	}
	for _, f := range ring {
		path, ok := ShortestPath(g, center, f)
		if !ok || len(path) != 1 || path[0] != f {
			t.Fatalf("center -> %v: %v %v", f, path, ok)
		}
	}
	// (2,1) and (0,1) sit on opposite sides of the centre.
	path, ok := ShortestPath(g, g.Field(2, 1), g.Field(0, 1))
	if !ok || len(path) != 2 || path[1] != g.Field(0, 1) {
		t.Fatalf("across: %v %v", path, ok)
	}
}

func TestShortestPathSameField(t *testing.T) {
	g, center := flower(t)
	path, ok := ShortestPath(g, center, center)
	if !ok || len(path) != 0 {
		t.Fatalf("got %v %v", path, ok)
	}
}

func TestShortestPathBlocked(t *testing.T) {
	g := board(t, [][]int{{1, 1, 1}})
	if err := g.Place(g.Field(1, 0), unit(5)); err != nil {
		t.Fatalf("place: %v", err)
	}
	if path, ok := ShortestPath(g, g.Field(0, 0), g.Field(2, 0)); ok {
		t.Fatalf("expected no path, got %v", path)
	}
	if _, ok := ShortestPath(g, g.Field(0, 0), g.Field(1, 0)); ok {
		t.Fatalf("occupied destination must be unreachable")
	}
	path, ok := Toward(g, g.Field(0, 0), g.Field(1, 0))
	if !ok || len(path) != 1 {
		t.Fatalf("toward: %v %v", path, ok)
	}
}

func TestRangeBudget(t *testing.T) {
	isolated := board(t, [][]int{{1, 0, 1}})
	if n := Range(isolated, isolated.Field(0, 0), 0).Size(); n != 1 {
		t.Fatalf("isolated range 0: %d", n)
	}
	if n := Range(isolated, isolated.Field(0, 0), 3).Size(); n != 1 {
		t.Fatalf("isolated range 3: %d", n)
	}

	g, center := flower(t)
	if n := Range(g, center, 0).Size(); n != 1 {
		t.Fatalf("range 0: %d", n)
	}
	if n := Range(g, center, 1).Size(); n != 7 {
		t.Fatalf("range 1: %d", n)
	}
	// Occupancy does not limit range search.
	if err := g.Place(g.Field(2, 1), unit(1)); err != nil {
		t.Fatalf("place: %v", err)
	}
	if n := Range(g, center, 1).Size(); n != 7 {
		t.Fatalf("range 1 with unit: %d", n)
	}
}

func TestRangeGrowsByPerimeter(t *testing.T) {
	rows := make([][]int, 7)
	for j := range rows {
		rows[j] = []int{1, 1, 1, 1, 1, 1, 1}
	}
	g := board(t, rows)
	start := g.Field(3, 3)
	for k, want := range []int{1, 7, 19, 37} {
		if n := Range(g, start, k).Size(); n != want {
			t.Fatalf("range %d: got %d want %d", k, n, want)
		}
	}
}

func TestReachableSkipsOccupied(t *testing.T) {
	g, center := flower(t)
	if err := g.Place(g.Field(2, 1), unit(1)); err != nil {
		t.Fatalf("place: %v", err)
	}
	got := Reachable(g, center, 1)
	if len(got) != 5 {
		t.Fatalf("reachable: %v", got)
	}
	for _, f := range got {
		if f == center || f.Occupied() {
			t.Fatalf("unexpected %v", f)
		}
	}
}
