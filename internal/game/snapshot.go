package game

import "time"

// Snapshot is a read-only copy of the session published after every tick.
type Snapshot struct {
	GameID       string     `json:"game_id"`
	MapID        string     `json:"map_id"`
	Player       string     `json:"player"`
	ActivePlayer string     `json:"active_player,omitempty"`
	Turn         int        `json:"turn"`
	Running      bool       `json:"running"`
	Winner       string     `json:"winner,omitempty"`
	Fog          string     `json:"fog"`
	Width        int        `json:"width"`
	Height       int        `json:"height"`
	Units        []UnitView `json:"units"`
	Chat         []string   `json:"chat"`
	Offer        string     `json:"trade_offer,omitempty"`
	Fogmap       []string   `json:"fogmap,omitempty"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

type UnitView struct {
	ID       int    `json:"id"`
	Owner    string `json:"owner"`
	Type     string `json:"type"`
	Kind     string `json:"kind"`
	I        int    `json:"i"`
	J        int    `json:"j"`
	State    string `json:"state"`
	Movement int    `json:"movement"`
	Hidden   bool   `json:"hidden,omitempty"`
}

// fogmap renders one string per row: '.' visible, '#' fogged, ' ' impassable.
func (s *Session) fogmap() []string {
	if s.graph == nil {
		return nil
	}
	rows := make([]string, s.graph.Height())
	buf := make([]byte, s.graph.Width())
	for j := range rows {
		for i := range buf {
			switch f := s.graph.Field(i, j); {
			case f == nil:
				buf[i] = ' '
			case f.Fogged():
				buf[i] = '#'
			default:
				buf[i] = '.'
			}
		}
		rows[j] = string(buf)
	}
	return rows
}

// Snapshot returns the state as of the end of the last tick. It is safe for
// concurrent use.
func (s *Session) Snapshot() Snapshot {
	if p := s.snap.Load(); p != nil {
		return *p
	}
	return Snapshot{}
}

func (s *Session) publish() {
	snap := Snapshot{
		GameID:    s.gameID,
		MapID:     s.mapID,
		Player:    s.me.Name,
		Running:   s.running,
		Fog:       s.fogMode.String(),
		Chat:      append([]string(nil), s.chat...),
		UpdatedAt: time.Now().UTC(),
	}
	if s.game != nil {
		snap.Turn = s.game.Turn
		if s.game.ActivePlayer != nil {
			snap.ActivePlayer = s.game.ActivePlayer.Name
		}
	}
	if s.winner != nil {
		snap.Winner = s.winner.Name
	}
	if s.graph != nil {
		snap.Width, snap.Height = s.graph.Width(), s.graph.Height()
	}
	if s.offer != nil {
		snap.Offer = s.offer.String()
	}
	for _, u := range s.Units() {
		v := UnitView{
			ID:       u.Info.ID,
			Owner:    u.Info.Owner.String(),
			Type:     u.Info.Type.Name,
			Kind:     u.Kind.String(),
			State:    u.state.String(),
			Movement: u.Info.Movement,
			Hidden:   u.hidden,
		}
		if u.field != nil {
			v.I, v.J = u.field.I, u.field.J
		}
		snap.Units = append(snap.Units, v)
	}
	snap.Fogmap = s.fogmap()
	s.snap.Store(&snap)
}
