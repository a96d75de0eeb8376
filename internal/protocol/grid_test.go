package protocol

import (
	"errors"
	"testing"
)

func TestParseGrid_Orientation(t *testing.T) {
	g, err := ParseGrid("[[1,2,3][4,5,6]]")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if g.Width != 3 || g.Height != 2 {
		t.Fatalf("size: %dx%d", g.Width, g.Height)
	}
	want := [][]int{{1, 2, 3}, {4, 5, 6}}
	for j := range want {
		for i := range want[j] {
			if g.Rows[j][i] != want[j][i] || g.At(i, j) != want[j][i] {
				t.Fatalf("cell (%d,%d): %d", i, j, g.At(i, j))
			}
		}
	}
	if g.At(3, 0) != 0 || g.At(0, 2) != 0 || g.At(-1, 0) != 0 {
		t.Fatalf("out of bounds must read 0")
	}
	if g.String() != "[[1,2,3][4,5,6]]" {
		t.Fatalf("string: %s", g.String())
	}
}

func TestParseGrid_MultiDigitAndSpaces(t *testing.T) {
	g, err := ParseGrid(" [[10, 0][7 ,-2]] ")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if g.At(0, 0) != 10 || g.At(1, 1) != -2 || g.At(0, 1) != 7 {
		t.Fatalf("rows: %v", g.Rows)
	}
}

func TestParseGrid_Malformed(t *testing.T) {
	cases := []string{
		"",
		"[]",
		"[[]]",
		"[[1,2][3]]",
		"[[1,2][3,4,5]]",
		"[[1,2]",
		"[[1,x]]",
		"[[[1]]]",
		"7[[1]]",
	}
	for _, s := range cases {
		if _, err := ParseGrid(s); !errors.Is(err, ErrMalformedGrid) {
			t.Fatalf("%q: expected ErrMalformedGrid, got %v", s, err)
		}
	}
}
