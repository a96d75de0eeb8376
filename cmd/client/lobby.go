package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"liquidsands.ai/internal/config"
	"liquidsands.ai/internal/records"
)

type lobbyAPI interface {
	Logon(ctx context.Context) error
	MapList(ctx context.Context) ([]string, error)
	CreateGame(ctx context.Context, mapID, name string) (string, error)
	AddPlayer(ctx context.Context, gameID, name string) (string, error)
	StartGame(ctx context.Context, gameID string) error
	GameInfo(ctx context.Context, gameID, playerID string, reg records.Registry) (*records.GameRecord, error)
}

type lobby struct {
	api lobbyAPI
	cfg config.Config
	log *log.Logger
}

type seat struct {
	gameID string
	mapID  string
	owner  bool
	player *records.Player
}

// join logs on, creates or joins the configured game and blocks until the
// game has started.
func (l *lobby) join(ctx context.Context) (seat, error) {
	var st seat
	if err := l.api.Logon(ctx); err != nil {
		return st, fmt.Errorf("logon: %w", err)
	}

	st.gameID = l.cfg.Game.ID
	if st.gameID == "" {
		mapID := l.cfg.Game.Map
		if mapID == "" {
			maps, err := l.api.MapList(ctx)
			if err != nil {
				return st, fmt.Errorf("map list: %w", err)
			}
			if len(maps) == 0 {
				return st, fmt.Errorf("server offers no maps")
			}
			mapID = maps[0]
		}
		id, err := l.api.CreateGame(ctx, mapID, l.cfg.Game.Name)
		if err != nil {
			return st, fmt.Errorf("create game: %w", err)
		}
		l.log.Printf("created game %s on map %s", id, mapID)
		st.gameID, st.mapID, st.owner = id, mapID, true
	}

	pid, err := l.api.AddPlayer(ctx, st.gameID, l.cfg.Player.Name)
	if err != nil {
		return st, fmt.Errorf("add player: %w", err)
	}
	st.player = &records.Player{Name: l.cfg.Player.Name, ID: pid}

	g, err := l.waitStarted(ctx, st)
	if err != nil {
		return st, err
	}
	if st.mapID == "" {
		st.mapID = g.MapID
	}
	return st, nil
}

func (l *lobby) waitStarted(ctx context.Context, st seat) (*records.GameRecord, error) {
	t := time.NewTicker(l.cfg.Game.PollInterval)
	defer t.Stop()
	requested := false
	for {
		g, err := l.api.GameInfo(ctx, st.gameID, st.player.ID, nil)
		if err != nil {
			return nil, fmt.Errorf("game info: %w", err)
		}
		if g.Status == records.StatusStarted {
			return g, nil
		}
		if st.owner && !requested && len(g.PlayerNames) >= l.cfg.Game.Players {
			if err := l.api.StartGame(ctx, st.gameID); err != nil {
				return nil, fmt.Errorf("start game: %w", err)
			}
			requested = true
			l.log.Printf("started game %s with %v", st.gameID, g.PlayerNames)
			continue
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-t.C:
		}
	}
}
