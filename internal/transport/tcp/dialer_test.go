package tcp

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"net"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

// serve accepts connections on a loopback listener and answers each frame
// with handle(request). A nil handle never replies.
func serve(t *testing.T, handle func(string) string) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { _ = ln.Close() })
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				defer c.Close()
				req, err := ReadUTF(bufio.NewReader(c))
				if err != nil {
					return
				}
				if handle == nil {
					time.Sleep(2 * time.Second)
					return
				}
				_ = WriteUTF(c, handle(req))
			}(conn)
		}
	}()
	return ln.Addr().String()
}

func TestDialer_RoundTrip(t *testing.T) {
	var conns atomic.Int32
	addr := serve(t, func(req string) string {
		conns.Add(1)
		if strings.HasPrefix(req, "type:logon") {
			return "status:ok clientkey:K end:end"
		}
		return "status:error errinfo:invalid_clientkey end:end"
	})
	d := NewDialer(addr, time.Second)
	reply, err := d.RoundTrip(context.Background(), "type:logon clientid:C clientinfo:X end:end")
	if err != nil {
		t.Fatalf("round trip: %v", err)
	}
	if reply != "status:ok clientkey:K end:end" {
		t.Fatalf("reply: %q", reply)
	}
	if _, err := d.RoundTrip(context.Background(), "type:getdata end:end"); err != nil {
		t.Fatalf("second round trip: %v", err)
	}
	if n := conns.Load(); n != 2 {
		t.Fatalf("expected one connection per request, got %d", n)
	}
}

func TestDialer_ContextDeadline(t *testing.T) {
	addr := serve(t, nil)
	d := NewDialer(addr, 0)
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	start := time.Now()
	_, err := d.RoundTrip(ctx, "type:getdata end:end")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Fatalf("round trip ignored the deadline")
	}
}

func TestDialer_Refused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()
	if _, err := NewDialer(addr, time.Second).RoundTrip(context.Background(), "x"); err == nil {
		t.Fatalf("expected dial error")
	}
}

func TestModifiedUTF8(t *testing.T) {
	cases := []struct {
		in   string
		wire []byte
	}{
		{"ab", []byte{0, 2, 'a', 'b'}},
		{"\x00", []byte{0, 2, 0xc0, 0x80}},
		{"ä", []byte{0, 2, 0xc3, 0xa4}},
		{"😀", []byte{0, 6, 0xed, 0xa0, 0xbd, 0xed, 0xb8, 0x80}},
	}
	for _, tc := range cases {
		var buf bytes.Buffer
		if err := WriteUTF(&buf, tc.in); err != nil {
			t.Fatalf("%q: write: %v", tc.in, err)
		}
		if !bytes.Equal(buf.Bytes(), tc.wire) {
			t.Fatalf("%q: wire % x, want % x", tc.in, buf.Bytes(), tc.wire)
		}
		got, err := ReadUTF(&buf)
		if err != nil || got != tc.in {
			t.Fatalf("%q: read back %q %v", tc.in, got, err)
		}
	}
}

func TestFrameLimits(t *testing.T) {
	if err := WriteUTF(&bytes.Buffer{}, strings.Repeat("x", MaxFrame+1)); !errors.Is(err, ErrFrameTooLarge) {
		t.Fatalf("expected ErrFrameTooLarge, got %v", err)
	}
	if _, err := ReadUTF(bytes.NewReader([]byte{0, 2, 0xff, 0x00})); !errors.Is(err, ErrBadEncoding) {
		t.Fatalf("expected ErrBadEncoding, got %v", err)
	}
	if _, err := ReadUTF(bytes.NewReader([]byte{0, 5, 'a'})); err == nil {
		t.Fatalf("expected short frame error")
	}
}
