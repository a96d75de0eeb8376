package protocol

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnbalanced is returned when a bracket string never returns to depth zero,
// or closes a bracket that was never opened.
var ErrUnbalanced = errors.New("protocol: unbalanced brackets")

// Split returns the top-level [...] segments of s in order. A segment is
// emitted each time the depth drops from 1 back to 0. With strip the outer
// brackets of each segment are removed. Text outside top-level brackets is
// ignored; there is no escaping.
func Split(s string, strip bool) ([]string, error) {
	var out []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '[':
			if depth == 0 {
				start = i
			}
			depth++
		case ']':
			if depth == 0 {
				return nil, ErrUnbalanced
			}
			depth--
			if depth != 0 {
				continue
			}
			if strip {
				out = append(out, s[start+1:i])
			} else {
				out = append(out, s[start:i+1])
			}
		}
	}
	if depth != 0 {
		return nil, ErrUnbalanced
	}
	return out, nil
}

// Segment returns the n-th stripped top-level segment of s.
func Segment(s string, n int) (string, error) {
	parts, err := Split(s, true)
	if err != nil {
		return "", err
	}
	if n < 0 || n >= len(parts) {
		return "", fmt.Errorf("protocol: segment %d requested, %d present", n, len(parts))
	}
	return parts[n], nil
}

// Join concatenates unstripped segments, undoing Split(s, false).
func Join(parts []string) string { return strings.Join(parts, "") }

// Wrap encloses s in one pair of brackets.
func Wrap(s string) string { return "[" + s + "]" }

// List wraps each item and the whole sequence: List("a","b") == "[[a][b]]".
func List(items ...string) string {
	var b strings.Builder
	b.WriteByte('[')
	for _, it := range items {
		b.WriteByte('[')
		b.WriteString(it)
		b.WriteByte(']')
	}
	b.WriteByte(']')
	return b.String()
}
