package hexmap

import (
	"math"

	"liquidsands.ai/internal/records"
)

// Cube is a cube coordinate with Q+R+S == 0.
type Cube struct{ Q, R, S int }

// ToCube converts offset coordinates in the board's even-row-shifted layout.
func ToCube(i, j int) Cube {
	q := i - (j+(j&1))/2
	return Cube{Q: q, R: j, S: -q - j}
}

func (c Cube) Offset() (i, j int) {
	return c.Q + (c.R+(c.R&1))/2, c.R
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Distance is the number of hex steps between two cells, ignoring terrain.
func Distance(a, b records.Coord) int {
	ca, cb := ToCube(a.I, a.J), ToCube(b.I, b.J)
	return (abs(ca.Q-cb.Q) + abs(ca.R-cb.R) + abs(ca.S-cb.S)) / 2
}

// Line returns the cells on the straight hex line from a to b, both
// endpoints included.
func Line(a, b records.Coord) []records.Coord {
	n := Distance(a, b)
	ca, cb := ToCube(a.I, a.J), ToCube(b.I, b.J)
	out := make([]records.Coord, 0, n+1)
	// The nudge keeps lerped points off cell edges so ties round consistently.
	aq, ar, as := float64(ca.Q)+1e-6, float64(ca.R)+2e-6, float64(ca.S)-3e-6
	bq, br, bs := float64(cb.Q)+1e-6, float64(cb.R)+2e-6, float64(cb.S)-3e-6
	for k := 0; k <= n; k++ {
		t := 0.0
		if n > 0 {
			t = float64(k) / float64(n)
		}
		c := cubeRound(aq+(bq-aq)*t, ar+(br-ar)*t, as+(bs-as)*t)
		i, j := c.Offset()
		out = append(out, records.Coord{I: i, J: j})
	}
	return out
}

func cubeRound(q, r, s float64) Cube {
	rq, rr, rs := math.Round(q), math.Round(r), math.Round(s)
	dq, dr, ds := math.Abs(rq-q), math.Abs(rr-r), math.Abs(rs-s)
	switch {
	case dq > dr && dq > ds:
		rq = -rr - rs
	case dr > ds:
		rr = -rq - rs
	default:
		rs = -rq - rr
	}
	return Cube{Q: int(rq), R: int(rr), S: int(rs)}
}

// Coords lists the coordinates of path in order.
func Coords(path []*Field) []records.Coord {
	out := make([]records.Coord, len(path))
	for i, f := range path {
		out[i] = f.Coord()
	}
	return out
}
