package ws

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"liquidsands.ai/internal/transport"
)

func startGateway(t *testing.T, upstream transport.Func) (*Gateway, string) {
	t.Helper()
	g := NewGateway(upstream, nil)
	srv := httptest.NewServer(g.Handler())
	t.Cleanup(srv.Close)
	return g, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestClient_CorrelatesOutOfOrderReplies(t *testing.T) {
	g, url := startGateway(t, func(ctx context.Context, req string) (string, error) {
		if req == "slow" {
			time.Sleep(150 * time.Millisecond)
		}
		return "status:ok echo:" + req + " end:end", nil
	})
	c, err := Dial(context.Background(), url, 2*time.Second, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer c.Close()

	var wg sync.WaitGroup
	replies := make([]string, 2)
	errs := make([]error, 2)
	for i, req := range []string{"slow", "fast"} {
		wg.Add(1)
		go func(i int, req string) {
			defer wg.Done()
			replies[i], errs[i] = c.RoundTrip(context.Background(), req)
		}(i, req)
	}
	wg.Wait()
	for i, want := range []string{"status:ok echo:slow end:end", "status:ok echo:fast end:end"} {
		if errs[i] != nil || replies[i] != want {
			t.Fatalf("reply %d: %q %v", i, replies[i], errs[i])
		}
	}
	if c.Pending() != 0 {
		t.Fatalf("pending requests left: %d", c.Pending())
	}
	if g.Served() != 2 {
		t.Fatalf("served: %d", g.Served())
	}
}

func TestClient_UpstreamErrorAndTimeout(t *testing.T) {
	_, url := startGateway(t, func(ctx context.Context, req string) (string, error) {
		if req == "hang" {
			<-ctx.Done()
			return "", ctx.Err()
		}
		return "", errors.New("connection refused")
	})
	c, err := Dial(context.Background(), url, 0, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer c.Close()

	_, err = c.RoundTrip(context.Background(), "x")
	var re *RemoteError
	if !errors.As(err, &re) || !strings.Contains(re.Msg, "refused") {
		t.Fatalf("expected RemoteError, got %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := c.RoundTrip(ctx, "hang"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline, got %v", err)
	}
}

func TestClient_CloseFailsCalls(t *testing.T) {
	_, url := startGateway(t, func(ctx context.Context, req string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	c, err := Dial(context.Background(), url, 0, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	done := make(chan error, 1)
	go func() {
		_, err := c.RoundTrip(context.Background(), "blocked")
		done <- err
	}()
	deadline := time.Now().Add(time.Second)
	for c.Pending() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	_ = c.Close()
	select {
	case err := <-done:
		if !errors.Is(err, ErrClosed) {
			t.Fatalf("expected ErrClosed, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("pending call not released by Close")
	}
	if _, err := c.RoundTrip(context.Background(), "after"); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed after close, got %v", err)
	}
}

func TestGateway_AllowOrigins(t *testing.T) {
	g := NewGateway(transport.Func(func(ctx context.Context, req string) (string, error) {
		return "status:ok end:end", nil
	}), nil)
	g.AllowOrigins([]string{"https://play.example"})
	srv := httptest.NewServer(g.Handler())
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	h := http.Header{}
	h.Set("Origin", "https://evil.example")
	if _, _, err := websocket.DefaultDialer.Dial(url, h); err == nil {
		t.Fatalf("foreign origin accepted")
	}
	h.Set("Origin", "https://play.example")
	conn, _, err := websocket.DefaultDialer.Dial(url, h)
	if err != nil {
		t.Fatalf("allowed origin rejected: %v", err)
	}
	_ = conn.Close()
}
