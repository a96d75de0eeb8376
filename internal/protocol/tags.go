package protocol

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ErrMissingTag is wrapped by TagMap accessors when a required key is absent.
var ErrMissingTag = errors.New("protocol: missing tag")

// TagMap is the parsed form of a "k=v k=v" (or "k:v") token string.
// It is never mutated after ParseTags returns.
type TagMap struct {
	m map[string]string
}

// ParseTags splits s on single spaces, ignores empty tokens and splits each
// token on the first sep. A token without sep maps to the empty string.
// Later duplicates overwrite earlier ones.
func ParseTags(s string, sep byte) TagMap {
	m := make(map[string]string)
	for _, tok := range strings.Split(s, " ") {
		if tok == "" {
			continue
		}
		k, v, _ := strings.Cut(tok, string(sep))
		m[k] = v
	}
	return TagMap{m: m}
}

func (t TagMap) Len() int { return len(t.m) }

func (t TagMap) Get(key string) string { return t.m[key] }

func (t TagMap) Lookup(key string) (string, bool) {
	v, ok := t.m[key]
	return v, ok
}

func (t TagMap) Has(key string) bool {
	_, ok := t.m[key]
	return ok
}

// Keys returns the keys in sorted order.
func (t TagMap) Keys() []string {
	out := make([]string, 0, len(t.m))
	for k := range t.m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Int parses a required integer tag.
func (t TagMap) Int(key string) (int, error) {
	v, ok := t.m[key]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrMissingTag, key)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("protocol: tag %s: %w", key, err)
	}
	return n, nil
}

// IntOr parses an optional integer tag, returning def when it is absent.
func (t TagMap) IntOr(key string, def int) (int, error) {
	if !t.Has(key) {
		return def, nil
	}
	return t.Int(key)
}

// Value scans the space separated tokens of s for one that splits on sep into
// exactly two components with the given key, and returns the second.
func Value(s string, sep string, key string) (string, bool) {
	for _, tok := range strings.Split(s, " ") {
		comps := strings.Split(tok, sep)
		if len(comps) != 2 {
			continue
		}
		if comps[0] == key {
			return comps[1], true
		}
	}
	return "", false
}

// Part returns the first token carrying prefix.
func Part(tokens []string, prefix string) (string, bool) {
	for _, tok := range tokens {
		if strings.HasPrefix(tok, prefix) {
			return tok, true
		}
	}
	return "", false
}
