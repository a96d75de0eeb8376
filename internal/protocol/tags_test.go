package protocol

import (
	"errors"
	"testing"
)

func TestParseTags_LastWriteWins(t *testing.T) {
	m := ParseTags("a=1 b=2 a=3", '=')
	if m.Len() != 2 || m.Get("a") != "3" || m.Get("b") != "2" {
		t.Fatalf("tags: %v", m.Keys())
	}
}

func TestParseTags_SeparatorAndEmpty(t *testing.T) {
	m := ParseTags("  status:ok  clientkey:K1 flag url:a:b", ':')
	if v, ok := m.Lookup("flag"); !ok || v != "" {
		t.Fatalf("flag: %q %v", v, ok)
	}
	if m.Get("clientkey") != "K1" {
		t.Fatalf("clientkey: %q", m.Get("clientkey"))
	}
	if m.Get("url") != "a:b" {
		t.Fatalf("first separator only: %q", m.Get("url"))
	}
	if m.Has("") {
		t.Fatalf("empty tokens must be ignored")
	}
}

func TestTagMap_Ints(t *testing.T) {
	m := ParseTags("turn=3 movement=x", '=')
	if n, err := m.Int("turn"); err != nil || n != 3 {
		t.Fatalf("turn: %d %v", n, err)
	}
	if _, err := m.Int("missing"); !errors.Is(err, ErrMissingTag) {
		t.Fatalf("missing: %v", err)
	}
	if _, err := m.Int("movement"); err == nil {
		t.Fatalf("expected parse error")
	}
	if n, err := m.IntOr("hitpoints", -1); err != nil || n != -1 {
		t.Fatalf("default: %d %v", n, err)
	}
}

func TestValueAndPart(t *testing.T) {
	reply := "status:ok clientkey:abc gameid=7 url:a:b end:end"
	if v, ok := Value(reply, ":", "clientkey"); !ok || v != "abc" {
		t.Fatalf("clientkey: %q", v)
	}
	if _, ok := Value(reply, ":", "url"); ok {
		t.Fatalf("tokens with more than two components must not match")
	}
	if v, ok := Value(reply, "=", "gameid"); !ok || v != "7" {
		t.Fatalf("gameid: %q", v)
	}
	if p, ok := Part([]string{"x", "clients[a,b]"}, "clients"); !ok || p != "clients[a,b]" {
		t.Fatalf("part: %q", p)
	}
}

func TestSanitize(t *testing.T) {
	if got := Sanitize("Ali Baba-1ä"); got != "Ali_Baba_1_" {
		t.Fatalf("sanitize: %q", got)
	}
}
