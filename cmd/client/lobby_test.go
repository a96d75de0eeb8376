package main

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"liquidsands.ai/internal/config"
	"liquidsands.ai/internal/records"
)

type fakeLobby struct {
	maps     []string
	joined   []string
	started  bool
	infoErr  error
	calls    []string
	lastGame string
}

func (f *fakeLobby) Logon(context.Context) error {
	f.calls = append(f.calls, "logon")
	return nil
}

func (f *fakeLobby) MapList(context.Context) ([]string, error) {
	f.calls = append(f.calls, "maplist")
	return f.maps, nil
}

func (f *fakeLobby) CreateGame(_ context.Context, mapID, name string) (string, error) {
	f.calls = append(f.calls, "create:"+mapID+":"+name)
	return "7", nil
}

func (f *fakeLobby) AddPlayer(_ context.Context, gameID, name string) (string, error) {
	f.calls = append(f.calls, "add:"+gameID)
	f.lastGame = gameID
	f.joined = append(f.joined, name)
	return "P-" + name, nil
}

func (f *fakeLobby) StartGame(_ context.Context, gameID string) error {
	f.calls = append(f.calls, "start:"+gameID)
	f.started = true
	return nil
}

func (f *fakeLobby) GameInfo(_ context.Context, gameID, playerID string, _ records.Registry) (*records.GameRecord, error) {
	if f.infoErr != nil {
		return nil, f.infoErr
	}
	g := &records.GameRecord{ID: gameID, MapID: "dunes", Status: records.StatusInited, PlayerNames: f.joined}
	if f.started {
		g.Status = records.StatusStarted
	}
	// A second player shows up on the first poll.
	if len(f.joined) == 1 {
		f.joined = append(f.joined, "bob")
	}
	return g, nil
}

func testConfig() config.Config {
	cfg := config.Defaults()
	cfg.Player.Name = "ann"
	cfg.Game.PollInterval = time.Millisecond
	cfg.Normalize()
	return cfg
}

func TestLobby_CreateAndStart(t *testing.T) {
	api := &fakeLobby{maps: []string{"oasis", "dunes"}}
	l := &lobby{api: api, cfg: testConfig(), log: log.New(io.Discard, "", 0)}

	st, err := l.join(context.Background())
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if !st.owner || st.gameID != "7" || st.mapID != "oasis" {
		t.Fatalf("seat=%+v", st)
	}
	if st.player.Name != "ann" || st.player.ID != "P-ann" {
		t.Fatalf("player=%+v", st.player)
	}
	if !api.started {
		t.Fatalf("owner never started the game: %v", api.calls)
	}
	if api.calls[1] != "maplist" || api.calls[2] != "create:oasis:game" {
		t.Fatalf("calls=%v", api.calls)
	}
}

func TestLobby_JoinExistingWaitsForStart(t *testing.T) {
	api := &fakeLobby{started: true}
	cfg := testConfig()
	cfg.Game.ID = "12"
	l := &lobby{api: api, cfg: cfg, log: log.New(io.Discard, "", 0)}

	st, err := l.join(context.Background())
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if st.owner || st.gameID != "12" || st.mapID != "dunes" || api.lastGame != "12" {
		t.Fatalf("seat=%+v calls=%v", st, api.calls)
	}
	for _, c := range api.calls {
		if c == "start:12" {
			t.Fatalf("joiner must not start the game")
		}
	}
}

func TestLobby_Errors(t *testing.T) {
	l := &lobby{api: &fakeLobby{}, cfg: testConfig(), log: log.New(io.Discard, "", 0)}
	if _, err := l.join(context.Background()); err == nil {
		t.Fatalf("expected error without maps")
	}

	boom := errors.New("boom")
	cfg := testConfig()
	cfg.Game.ID = "3"
	l = &lobby{api: &fakeLobby{infoErr: boom}, cfg: cfg, log: log.New(io.Discard, "", 0)}
	if _, err := l.join(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("err=%v want boom", err)
	}
}

func TestLobby_WaitCancelled(t *testing.T) {
	cfg := testConfig()
	cfg.Game.ID = "3"
	cfg.Game.Players = 5
	l := &lobby{api: &fakeLobby{}, cfg: cfg, log: log.New(io.Discard, "", 0)}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := l.join(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err=%v want deadline", err)
	}
}
