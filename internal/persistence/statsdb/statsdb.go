// Package statsdb keeps per-player gameplay statistics, chat history and the
// turn log in a local sqlite database. Writes are queued and applied by a
// single writer goroutine so the game loop never waits on disk.
package statsdb

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"
)

type DB struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool
	drops  atomic.Uint64
}

type reqKind int

const (
	reqAttack reqKind = iota + 1
	reqTrade
	reqDeath
	reqWin
	reqChat
	reqTurn
	reqSync
)

type req struct {
	kind reqKind

	at       time.Time
	gameID   string
	player   string
	unitType string
	n        int
	text     string

	done chan struct{}
}

const defaultQueue = 4096

func Open(path string) (*DB, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &DB{db: db, ch: make(chan req, defaultQueue)}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS player_stats (
			player TEXT PRIMARY KEY,
			attacks INTEGER NOT NULL DEFAULT 0,
			damage INTEGER NOT NULL DEFAULT 0,
			trades INTEGER NOT NULL DEFAULT 0,
			goods INTEGER NOT NULL DEFAULT 0,
			deaths INTEGER NOT NULL DEFAULT 0,
			wins INTEGER NOT NULL DEFAULT 0,
			chats INTEGER NOT NULL DEFAULT 0,
			turns INTEGER NOT NULL DEFAULT 0,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS unit_stats (
			player TEXT NOT NULL,
			unit_type TEXT NOT NULL,
			attacks INTEGER NOT NULL DEFAULT 0,
			damage INTEGER NOT NULL DEFAULT 0,
			deaths INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (player, unit_type)
		);`,
		`CREATE TABLE IF NOT EXISTS chat (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			ts TEXT NOT NULL,
			game_id TEXT NOT NULL,
			player TEXT NOT NULL,
			text TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_chat_game_seq ON chat(game_id, seq);`,
		`CREATE TABLE IF NOT EXISTS turns (
			player TEXT NOT NULL,
			turn INTEGER NOT NULL,
			ts TEXT NOT NULL,
			PRIMARY KEY (player, turn)
		);`,
		`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1');`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// Close drains the queue, commits and closes the database.
func (s *DB) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func (s *DB) enqueue(r req) {
	if s == nil || s.closed.Load() {
		return
	}
	if r.at.IsZero() {
		r.at = time.Now().UTC()
	}
	select {
	case s.ch <- r:
	default:
		// The journal stays the source of truth; statistics are best effort.
		s.drops.Add(1)
	}
}

func (s *DB) Attack(player, unitType string, damage int) {
	s.enqueue(req{kind: reqAttack, player: player, unitType: unitType, n: damage})
}

func (s *DB) Trade(player string, goods int) {
	s.enqueue(req{kind: reqTrade, player: player, n: goods})
}

func (s *DB) Death(player, unitType string) {
	s.enqueue(req{kind: reqDeath, player: player, unitType: unitType})
}

func (s *DB) Win(player string) {
	s.enqueue(req{kind: reqWin, player: player})
}

func (s *DB) Chat(gameID, player, text string) {
	s.enqueue(req{kind: reqChat, gameID: gameID, player: player, text: text})
}

func (s *DB) Turn(player string, turn int) {
	s.enqueue(req{kind: reqTurn, player: player, n: turn})
}

// Sync blocks until every write queued before it is committed.
func (s *DB) Sync(ctx context.Context) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	done := make(chan struct{})
	select {
	case s.ch <- req{kind: reqSync, done: done}:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type QueueStats struct {
	Depth    int    `json:"depth"`
	Capacity int    `json:"capacity"`
	Dropped  uint64 `json:"dropped"`
}

func (s *DB) QueueStats() QueueStats {
	if s == nil {
		return QueueStats{}
	}
	return QueueStats{Depth: len(s.ch), Capacity: cap(s.ch), Dropped: s.drops.Load()}
}

var statements = map[reqKind]string{
	reqAttack: `INSERT INTO player_stats(player,attacks,damage,updated_at) VALUES(?,1,?,?)
		ON CONFLICT(player) DO UPDATE SET attacks=attacks+1, damage=damage+excluded.damage, updated_at=excluded.updated_at`,
	reqTrade: `INSERT INTO player_stats(player,trades,goods,updated_at) VALUES(?,1,?,?)
		ON CONFLICT(player) DO UPDATE SET trades=trades+1, goods=goods+excluded.goods, updated_at=excluded.updated_at`,
	reqDeath: `INSERT INTO player_stats(player,deaths,updated_at) VALUES(?,1,?)
		ON CONFLICT(player) DO UPDATE SET deaths=deaths+1, updated_at=excluded.updated_at`,
	reqWin: `INSERT INTO player_stats(player,wins,updated_at) VALUES(?,1,?)
		ON CONFLICT(player) DO UPDATE SET wins=wins+1, updated_at=excluded.updated_at`,
	reqChat: `INSERT INTO player_stats(player,chats,updated_at) VALUES(?,1,?)
		ON CONFLICT(player) DO UPDATE SET chats=chats+1, updated_at=excluded.updated_at`,
	reqTurn: `INSERT INTO player_stats(player,turns,updated_at) VALUES(?,1,?)
		ON CONFLICT(player) DO UPDATE SET turns=turns+1, updated_at=excluded.updated_at`,
}

const (
	unitAttackSQL = `INSERT INTO unit_stats(player,unit_type,attacks,damage) VALUES(?,?,1,?)
		ON CONFLICT(player,unit_type) DO UPDATE SET attacks=attacks+1, damage=damage+excluded.damage`
	unitDeathSQL = `INSERT INTO unit_stats(player,unit_type,deaths) VALUES(?,?,1)
		ON CONFLICT(player,unit_type) DO UPDATE SET deaths=deaths+1`
	chatSQL = `INSERT INTO chat(ts,game_id,player,text) VALUES(?,?,?,?)`
	turnSQL = `INSERT OR IGNORE INTO turns(player,turn,ts) VALUES(?,?,?)`
)

func (s *DB) apply(tx *sql.Tx, r req) error {
	ts := r.at.Format(time.RFC3339Nano)
	switch r.kind {
	case reqAttack:
		if _, err := tx.Exec(statements[reqAttack], r.player, r.n, ts); err != nil {
			return err
		}
		_, err := tx.Exec(unitAttackSQL, r.player, r.unitType, r.n)
		return err
	case reqTrade:
		_, err := tx.Exec(statements[reqTrade], r.player, r.n, ts)
		return err
	case reqDeath:
		if _, err := tx.Exec(statements[reqDeath], r.player, ts); err != nil {
			return err
		}
		_, err := tx.Exec(unitDeathSQL, r.player, r.unitType)
		return err
	case reqWin:
		_, err := tx.Exec(statements[reqWin], r.player, ts)
		return err
	case reqChat:
		if _, err := tx.Exec(statements[reqChat], r.player, ts); err != nil {
			return err
		}
		_, err := tx.Exec(chatSQL, ts, r.gameID, r.player, r.text)
		return err
	case reqTurn:
		res, err := tx.Exec(turnSQL, r.player, r.n, ts)
		if err != nil {
			return err
		}
		// A turn seen twice (reconnect, replayed poll) counts once.
		if n, _ := res.RowsAffected(); n == 0 {
			return nil
		}
		_, err = tx.Exec(statements[reqTurn], r.player, ts)
		return err
	}
	return nil
}

func (s *DB) loop() {
	ctx := context.Background()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 256
		commitMaxWait = time.Second
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}

	for r := range s.ch {
		if r.kind == reqSync {
			commit()
			close(r.done)
			continue
		}
		begin()
		if tx == nil {
			continue
		}
		if err := s.apply(tx, r); err != nil {
			rollback()
			continue
		}
		opCount++
		if opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait {
			commit()
		}
	}
	commit()
}
