package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"liquidsands.ai/internal/config"
	"liquidsands.ai/internal/game"
	"liquidsands.ai/internal/persistence/journal"
	"liquidsands.ai/internal/persistence/snapshot"
	"liquidsands.ai/internal/persistence/statsdb"
	"liquidsands.ai/internal/rpc"
	"liquidsands.ai/internal/transport"
	"liquidsands.ai/internal/transport/status"
	"liquidsands.ai/internal/transport/tcp"
	"liquidsands.ai/internal/transport/ws"
)

func main() {
	var (
		cfgPath    = flag.String("config", "", "path to client.yaml (optional)")
		name       = flag.String("name", "", "player name (overrides config)")
		gameID     = flag.String("game", "", "join this game id instead of creating one")
		mapID      = flag.String("map", "", "map for a new game (overrides config)")
		statusAddr = flag.String("status", "", "status http addr (overrides config)")
		debug      = flag.Bool("debug", false, "log every request and reply")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[client] ", log.LstdFlags|log.Lmicroseconds)

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		logger.Fatalf("config: %v", err)
	}
	if *name != "" {
		cfg.Player.Name = *name
	}
	if *gameID != "" {
		cfg.Game.ID = *gameID
	}
	if *mapID != "" {
		cfg.Game.Map = *mapID
	}
	if *statusAddr != "" {
		cfg.Status.Addr = *statusAddr
	}
	if *debug {
		cfg.Debug = true
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tr, err := dial(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("transport: %v", err)
	}
	defer tr.Close()

	opts := rpc.Options{Logger: logger, Debug: cfg.Debug, MaxRPS: cfg.Server.MaxRPS}
	if !cfg.Journal.Disabled {
		jw := journal.NewWriter(cfg.Journal.Dir)
		defer jw.Close()
		opts.Recorder = jw
	}
	client := rpc.New(tr, opts)

	var stats *statsdb.DB
	if cfg.Stats.DB != "" {
		stats, err = statsdb.Open(cfg.Stats.DB)
		if err != nil {
			logger.Fatalf("stats db: %v", err)
		}
		defer stats.Close()
	}

	lobby := &lobby{api: client, cfg: cfg, log: logger}
	seat, err := lobby.join(ctx)
	if err != nil {
		logger.Fatalf("lobby: %v", err)
	}
	logger.Printf("joined game %s (map %s) as %s/%s", seat.gameID, seat.mapID, seat.player.Name, seat.player.ID)

	sopts := game.Options{
		GameID:       seat.gameID,
		MapID:        seat.mapID,
		Player:       seat.player,
		PollInterval: cfg.Game.PollInterval,
		Fog:          cfg.Game.FogMode(),
		Logger:       logger,
	}
	if stats != nil {
		sopts.Stats = stats
	}
	session, err := game.New(client, sopts)
	if err != nil {
		logger.Fatalf("session: %v", err)
	}
	if err := session.Start(ctx); err != nil {
		logger.Fatalf("start: %v", err)
	}

	if cfg.Status.Addr != "" {
		var src status.Stats
		if stats != nil {
			src = stats
		}
		srv := status.NewServer(session, src, logger)
		go func() {
			if err := srv.ListenAndServe(ctx, cfg.Status.Addr); err != nil {
				logger.Printf("status: %v", err)
			}
		}()
	}

	if err := play(ctx, session, newStrategy(session, logger), logger); err != nil {
		logger.Printf("game: %v", err)
	}
	if cfg.Snapshot.Dir != "" {
		if path, err := snapshot.Save(cfg.Snapshot.Dir, session.Snapshot()); err != nil {
			logger.Printf("snapshot: %v", err)
		} else {
			logger.Printf("snapshot saved to %s", path)
		}
	}

	leaveCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.Timeout)
	defer cancel()
	if session.Running() {
		if err := session.Leave(leaveCtx); err != nil {
			logger.Printf("leave: %v", err)
		}
	}
}

func dial(ctx context.Context, cfg config.Config, logger *log.Logger) (transport.Transport, error) {
	if cfg.Server.Transport == config.TransportWS {
		c, err := ws.Dial(ctx, cfg.Server.WSURL, cfg.Server.Timeout, logger)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	return tcp.NewDialer(cfg.Server.Addr(), cfg.Server.Timeout), nil
}

// play drives the session until the game ends, a fault occurs or ctx is
// cancelled.
func play(ctx context.Context, s *game.Session, strat *strategy, logger *log.Logger) error {
	const frame = 100 * time.Millisecond
	t := time.NewTicker(frame)
	defer t.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-t.C:
			dt := now.Sub(last)
			last = now

			out := s.Tick(ctx, dt)
			switch out.Kind {
			case game.OutcomeGameEnded:
				logger.Printf("game over, winner: %v", out.Winner)
				return nil
			case game.OutcomeFault:
				return out.Err
			case game.OutcomeApplicationError:
				logger.Printf("server refused: %s", out.Code)
			}
			if out.Offer != nil {
				if err := strat.answer(ctx, out.Offer); err != nil {
					logger.Printf("trade: %v", err)
				}
			}
			if err := strat.act(ctx); err != nil {
				logger.Printf("act: %v", err)
			}
		}
	}
}
