package protocol

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrMalformedGrid = errors.New("protocol: malformed grid")

// Grid is a rectangular integer map as sent by the server ("[[1,2,3][4,5,6]]").
// Rows holds the wire rows in order; At addresses a cell by column i and row j.
type Grid struct {
	Width  int
	Height int
	Rows   [][]int
}

// NewGrid validates rows and wraps them. Every row must have the length of row 0.
func NewGrid(rows [][]int) (Grid, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return Grid{}, fmt.Errorf("%w: empty", ErrMalformedGrid)
	}
	w := len(rows[0])
	for j, r := range rows {
		if len(r) != w {
			return Grid{}, fmt.Errorf("%w: row %d has %d values, want %d", ErrMalformedGrid, j, len(r), w)
		}
	}
	return Grid{Width: w, Height: len(rows), Rows: rows}, nil
}

// ParseGrid decodes the wire form of a grid.
func ParseGrid(s string) (Grid, error) {
	s = strings.TrimSpace(s)
	var (
		rows  [][]int
		row   []int
		depth int
		num   int
		inNum bool
		neg   bool
	)
	flush := func() {
		if !inNum {
			neg = false
			return
		}
		if neg {
			num = -num
		}
		row = append(row, num)
		num, inNum, neg = 0, false, false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '[':
			depth++
			if depth > 2 {
				return Grid{}, fmt.Errorf("%w: nested too deep at %d", ErrMalformedGrid, i)
			}
			if depth == 2 {
				row = nil
			}
		case c == ']':
			if depth == 0 {
				return Grid{}, fmt.Errorf("%w: %v", ErrMalformedGrid, ErrUnbalanced)
			}
			flush()
			if depth == 2 {
				rows = append(rows, row)
				row = nil
			}
			depth--
		case c >= '0' && c <= '9':
			if depth != 2 {
				return Grid{}, fmt.Errorf("%w: value outside row at %d", ErrMalformedGrid, i)
			}
			num = num*10 + int(c-'0')
			inNum = true
		case c == '-':
			if depth != 2 || inNum {
				return Grid{}, fmt.Errorf("%w: stray '-' at %d", ErrMalformedGrid, i)
			}
			neg = true
		case c == ',' || c == ' ':
			flush()
		default:
			return Grid{}, fmt.Errorf("%w: unexpected %q at %d", ErrMalformedGrid, c, i)
		}
	}
	if depth != 0 {
		return Grid{}, fmt.Errorf("%w: %v", ErrMalformedGrid, ErrUnbalanced)
	}
	return NewGrid(rows)
}

// At returns the value in column i of row j, or 0 outside the grid.
func (g Grid) At(i, j int) int {
	if !g.InBounds(i, j) {
		return 0
	}
	return g.Rows[j][i]
}

func (g Grid) InBounds(i, j int) bool {
	return i >= 0 && j >= 0 && j < g.Height && i < g.Width
}

func (g Grid) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for _, r := range g.Rows {
		b.WriteByte('[')
		for i, v := range r {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(strconv.Itoa(v))
		}
		b.WriteByte(']')
	}
	b.WriteByte(']')
	return b.String()
}
