package status

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"liquidsands.ai/internal/game"
	"liquidsands.ai/internal/persistence/statsdb"
)

type fakeSource struct {
	mu   sync.Mutex
	snap game.Snapshot
}

func (f *fakeSource) Snapshot() game.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snap
}

func (f *fakeSource) set(s game.Snapshot) {
	f.mu.Lock()
	f.snap = s
	f.mu.Unlock()
}

type fakeStats struct {
	players []statsdb.PlayerStats
	err     error
}

func (f fakeStats) PlayerStats(context.Context) ([]statsdb.PlayerStats, error) {
	return f.players, f.err
}
func (f fakeStats) QueueStats() statsdb.QueueStats { return statsdb.QueueStats{Capacity: 8} }

func sampleSnapshot() game.Snapshot {
	return game.Snapshot{
		GameID:  "4",
		MapID:   "desert",
		Player:  "ann",
		Turn:    3,
		Running: true,
		Fog:     "dynamic",
		Width:   3,
		Height:  2,
		Units: []game.UnitView{
			{ID: 1, Owner: "ann", Type: "Camel", Kind: "Camel", I: 0, J: 0, State: "Start", Movement: 3},
			{ID: 2, Owner: "bob", Type: "Jinn", Kind: "Jinn", I: 2, J: 1, State: "Start", Movement: 2, Hidden: true},
		},
		Chat:      []string{"bob> hi"},
		Fogmap:    []string{"..#", " ##"},
		UpdatedAt: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
}

func getJSON(t *testing.T, url string, v any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if v != nil && resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

func TestServer_Endpoints(t *testing.T) {
	src := &fakeSource{snap: sampleSnapshot()}
	srv := httptest.NewServer(NewServer(src, fakeStats{players: []statsdb.PlayerStats{{Player: "ann", Wins: 2}}}, nil).Routes())
	defer srv.Close()

	var health map[string]string
	if code := getJSON(t, srv.URL+"/healthz", &health); code != http.StatusOK || health["status"] != "ok" {
		t.Fatalf("healthz code=%d body=%v", code, health)
	}

	var state map[string]any
	if code := getJSON(t, srv.URL+"/api/state", &state); code != http.StatusOK {
		t.Fatalf("state code=%d", code)
	}
	if _, ok := state["fogmap"]; ok {
		t.Fatalf("state should not carry the fog map")
	}
	if state["game_id"] != "4" || state["turn"] != float64(3) {
		t.Fatalf("state=%v", state)
	}
	schema, err := jsonschema.Compile(filepath.Join("..", "..", "..", "schemas", "snapshot.schema.json"))
	if err != nil {
		t.Fatalf("compile schema: %v", err)
	}
	if err := schema.Validate(state); err != nil {
		t.Fatalf("validate state: %v", err)
	}

	var units []game.UnitView
	getJSON(t, srv.URL+"/api/units", &units)
	if len(units) != 2 {
		t.Fatalf("units=%+v", units)
	}
	getJSON(t, srv.URL+"/api/units/bob", &units)
	if len(units) != 1 || units[0].ID != 2 || !units[0].Hidden {
		t.Fatalf("bob units=%+v", units)
	}

	var fog fogResponse
	getJSON(t, srv.URL+"/api/fog", &fog)
	if fog.Mode != "dynamic" || len(fog.Rows) != 2 || fog.Rows[1] != " ##" {
		t.Fatalf("fog=%+v", fog)
	}

	var stats statsResponse
	getJSON(t, srv.URL+"/api/stats", &stats)
	if len(stats.Players) != 1 || stats.Players[0].Wins != 2 || stats.Queue.Capacity != 8 {
		t.Fatalf("stats=%+v", stats)
	}

	if code := getJSON(t, srv.URL+"/api/nope", nil); code != http.StatusNotFound {
		t.Fatalf("unknown route code=%d", code)
	}
}

func TestServer_StatsUnavailable(t *testing.T) {
	src := &fakeSource{snap: sampleSnapshot()}

	srv := httptest.NewServer(NewServer(src, nil, nil).Routes())
	if code := getJSON(t, srv.URL+"/api/stats", nil); code != http.StatusNotFound {
		t.Fatalf("nil stats code=%d", code)
	}
	srv.Close()

	srv = httptest.NewServer(NewServer(src, fakeStats{err: errors.New("locked")}, nil).Routes())
	defer srv.Close()
	if code := getJSON(t, srv.URL+"/api/stats", nil); code != http.StatusInternalServerError {
		t.Fatalf("failing stats code=%d", code)
	}
}

func TestServer_StreamPushesNewSnapshots(t *testing.T) {
	src := &fakeSource{snap: sampleSnapshot()}
	s := NewServer(src, nil, nil)
	s.PushInterval = 10 * time.Millisecond
	srv := httptest.NewServer(s.Routes())
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var got game.Snapshot
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("read first: %v", err)
	}
	if got.Turn != 3 {
		t.Fatalf("first turn=%d", got.Turn)
	}

	next := sampleSnapshot()
	next.Turn = 4
	next.UpdatedAt = next.UpdatedAt.Add(time.Second)
	src.set(next)
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("read second: %v", err)
	}
	if got.Turn != 4 {
		t.Fatalf("second turn=%d", got.Turn)
	}
}

func TestIsLoopbackRemote(t *testing.T) {
	cases := map[string]bool{
		"127.0.0.1:5000": true,
		"[::1]:80":       true,
		"10.0.0.2:5000":  false,
		"garbage":        false,
	}
	for addr, want := range cases {
		if got := isLoopbackRemote(addr); got != want {
			t.Fatalf("%s: got %v want %v", addr, got, want)
		}
	}
}
