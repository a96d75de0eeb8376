package statsdb

import (
	"context"
	"time"
)

type PlayerStats struct {
	Player    string    `json:"player"`
	Attacks   int       `json:"attacks"`
	Damage    int       `json:"damage"`
	Trades    int       `json:"trades"`
	Goods     int       `json:"goods"`
	Deaths    int       `json:"deaths"`
	Wins      int       `json:"wins"`
	Chats     int       `json:"chats"`
	Turns     int       `json:"turns"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AvgDamage is the mean damage per attack, zero without attacks.
func (p PlayerStats) AvgDamage() float64 {
	if p.Attacks == 0 {
		return 0
	}
	return float64(p.Damage) / float64(p.Attacks)
}

type UnitStats struct {
	Player   string `json:"player"`
	UnitType string `json:"unit_type"`
	Attacks  int    `json:"attacks"`
	Damage   int    `json:"damage"`
	Deaths   int    `json:"deaths"`
}

type ChatLine struct {
	Seq    int64     `json:"seq"`
	At     time.Time `json:"ts"`
	GameID string    `json:"game_id"`
	Player string    `json:"player"`
	Text   string    `json:"text"`
}

// PlayerStats lists every player ordered by wins, then damage dealt.
func (s *DB) PlayerStats(ctx context.Context) ([]PlayerStats, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT player,attacks,damage,trades,goods,deaths,wins,chats,turns,updated_at
		FROM player_stats ORDER BY wins DESC, damage DESC, player ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PlayerStats
	for rows.Next() {
		var p PlayerStats
		var ts string
		if err := rows.Scan(&p.Player, &p.Attacks, &p.Damage, &p.Trades, &p.Goods, &p.Deaths, &p.Wins, &p.Chats, &p.Turns, &ts); err != nil {
			return nil, err
		}
		p.UpdatedAt, _ = time.Parse(time.RFC3339Nano, ts)
		out = append(out, p)
	}
	return out, rows.Err()
}

// UnitStats lists per unit type statistics; an empty player selects all.
func (s *DB) UnitStats(ctx context.Context, player string) ([]UnitStats, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT player,unit_type,attacks,damage,deaths FROM unit_stats
		WHERE (? = '' OR player = ?) ORDER BY player ASC, unit_type ASC`, player, player)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []UnitStats
	for rows.Next() {
		var u UnitStats
		if err := rows.Scan(&u.Player, &u.UnitType, &u.Attacks, &u.Damage, &u.Deaths); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// ChatHistory returns the last limit lines of a game, oldest first. An empty
// gameID selects all games; limit <= 0 means no limit.
func (s *DB) ChatHistory(ctx context.Context, gameID string, limit int) ([]ChatLine, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `SELECT seq,ts,game_id,player,text FROM (
			SELECT seq,ts,game_id,player,text FROM chat
			WHERE (? = '' OR game_id = ?) ORDER BY seq DESC LIMIT ?
		) ORDER BY seq ASC`, gameID, gameID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ChatLine
	for rows.Next() {
		var c ChatLine
		var ts string
		if err := rows.Scan(&c.Seq, &ts, &c.GameID, &c.Player, &c.Text); err != nil {
			return nil, err
		}
		c.At, _ = time.Parse(time.RFC3339Nano, ts)
		out = append(out, c)
	}
	return out, rows.Err()
}

// Turns returns the highest turn recorded for each player.
func (s *DB) Turns(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT player, MAX(turn) FROM turns GROUP BY player`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]int{}
	for rows.Next() {
		var p string
		var n int
		if err := rows.Scan(&p, &n); err != nil {
			return nil, err
		}
		out[p] = n
	}
	return out, rows.Err()
}
