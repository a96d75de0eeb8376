package game

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"liquidsands.ai/internal/hexmap"
	"liquidsands.ai/internal/protocol"
	"liquidsands.ai/internal/records"
	"liquidsands.ai/internal/visibility"
)

type OutcomeKind int

const (
	// OutcomeIdle means the tick did not talk to the server.
	OutcomeIdle OutcomeKind = iota
	OutcomePolled
	// OutcomeFault is a transport or protocol failure.
	OutcomeFault
	// OutcomeApplicationError is a status:error reply other than game end.
	OutcomeApplicationError
	OutcomeGameEnded
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeIdle:
		return "idle"
	case OutcomePolled:
		return "polled"
	case OutcomeFault:
		return "fault"
	case OutcomeApplicationError:
		return "application_error"
	case OutcomeGameEnded:
		return "game_ended"
	}
	return fmt.Sprintf("OutcomeKind(%d)", int(k))
}

// Outcome reports what one Tick did. Its effects are already applied to the
// session when Tick returns.
type Outcome struct {
	Kind   OutcomeKind
	Err    error
	Code   string
	Winner *records.Player

	Chat        []string
	Offer       *TradeOffer
	TurnStarted bool
	TurnEnded   bool
}

// TradeOffer is an offer from another player waiting for the local player's
// answer.
type TradeOffer struct {
	From      *records.Player
	Unit      records.UnitRef
	Give, Get records.Inventory
}

func (o *TradeOffer) String() string {
	return fmt.Sprintf("I give you %s if you give me %s", o.Give.Describe(), o.Get.Describe())
}

type pendingTrade struct {
	unit      *Unit
	give, get records.Inventory
}

// Tick advances the session by dt. While another player is on turn it polls
// the server once per interval. When the turn passes to the local player it
// reconciles unit positions, and while a unit walks it moves it one field.
func (s *Session) Tick(ctx context.Context, dt time.Duration) Outcome {
	if !s.running {
		return Outcome{Kind: OutcomeIdle}
	}
	defer s.publish()

	if !s.MyTurn() {
		s.sincePoll += dt
		if s.sincePoll < s.interval {
			return Outcome{Kind: OutcomeIdle}
		}
		s.sincePoll = 0
		return s.poll(ctx)
	}

	out := Outcome{Kind: OutcomeIdle}
	if s.lastPlayer != s.me {
		s.lastPlayer = s.me
		s.log.Printf("it's %q's turn", s.me.Name)
		out.TurnStarted = true
		if err := s.FixUnitMap(ctx); err != nil {
			s.lastPlayer = nil
			return s.fail(out, err)
		}
		if s.game.Turn > s.currentTurn {
			if err := s.NextTurn(ctx); err != nil {
				s.lastPlayer = nil
				return s.fail(out, err)
			}
		}
		s.active = nil
	}

	u := s.active
	if u == nil {
		return out
	}
	if u.Moving() {
		if !u.Step() && !u.HasNeighbours() {
			if err := s.NextPlayer(ctx); err != nil {
				return s.fail(out, err)
			}
			out.TurnEnded = true
			return out
		}
	}
	if u.state == StateReached && !u.AnyUnitInRange() {
		if err := s.NextPlayer(ctx); err != nil {
			return s.fail(out, err)
		}
		out.TurnEnded = true
	}
	return out
}

func (s *Session) poll(ctx context.Context) Outcome {
	out := Outcome{Kind: OutcomePolled}
	msgs, err := s.api.PollChat(ctx)
	if err != nil {
		return s.fail(out, err)
	}
	records.SortChats(msgs)
	for i := len(msgs) - 1; i >= 0; i-- {
		m := msgs[i]
		for _, name := range s.game.PlayerNames {
			if strings.HasPrefix(m.SenderPlayerID, name) {
				line := name + "> " + m.Message
				s.log.Print(line)
				s.pushChat(line)
				s.stats.Chat(s.gameID, name, m.Message)
				out.Chat = append(out.Chat, line)
			}
		}
	}

	g, err := s.api.GameInfo(ctx, s.gameID, s.playerID, s)
	if err != nil {
		return s.fail(out, err)
	}
	if err := s.setGame(g); err != nil {
		return s.fail(out, err)
	}
	if g.PendingTradeFor(s.me.Name) {
		if s.offer == nil {
			s.offer = &TradeOffer{Unit: g.TradePartnerUnit, Give: g.TradeGive, Get: g.TradeGet}
			if p := g.ActivePlayer; p != nil {
				s.offer.From = p
			}
			s.log.Printf("trade offer: %s", s.offer)
			out.Offer = s.offer
		}
	} else {
		s.offer = nil
	}
	return out
}

// setGame replaces the game record. The turn counter never goes back; a
// record older than the current one is rejected.
func (s *Session) setGame(g *records.GameRecord) error {
	if s.game != nil && g.Turn < s.game.Turn {
		return &protocol.ProtocolError{
			Request: "gameinfo",
			Reason:  fmt.Sprintf("turn went back from %d to %d", s.game.Turn, g.Turn),
		}
	}
	s.game = g
	return nil
}

// fail turns err into an outcome. A game_ended status error ends the game.
func (s *Session) fail(out Outcome, err error) Outcome {
	out.Err = err
	var se *protocol.StatusError
	switch {
	case errors.As(err, &se) && se.GameEnded():
		s.winner = records.DecodeWinner(se, s)
		s.running = false
		out.Kind = OutcomeGameEnded
		out.Code = se.Code
		out.Winner = s.winner
		s.log.Printf("the winner is: %s", s.winner)
		if s.winner != nil {
			s.stats.Win(s.winner.Name)
		}
	case errors.As(err, &se):
		out.Kind = OutcomeApplicationError
		out.Code = se.Code
		s.log.Printf("server: %s", se.Message())
	default:
		out.Kind = OutcomeFault
		s.log.Printf("tick: %v", err)
	}
	return out
}

// FixUnitMap overwrites every unit position with the server's unit map.
// Units missing from the map are gone.
func (s *Session) FixUnitMap(ctx context.Context) error {
	unitMap, err := s.api.UnitMap(ctx, s.gameID, s.playerID)
	if err != nil {
		return fmt.Errorf("unit map: %w", err)
	}
	s.graph.ClearOccupancy()
	seen := make(map[int]bool)
	for j := 0; j < unitMap.Height; j++ {
		for i := 0; i < unitMap.Width; i++ {
			id := unitMap.At(i, j)
			if id == 0 {
				continue
			}
			seen[id] = true
			u := s.units[id]
			if u == nil {
				if u, err = s.loadUnit(ctx, id); err != nil {
					return err
				}
			}
			if err := s.placeUnit(u, i, j); err != nil {
				return err
			}
		}
	}
	for id, u := range s.units {
		if !seen[id] {
			u.Info.Destroyed = true
			s.destroy(u)
		}
	}
	s.refreshFog()
	s.UpdateVisibleUnits()
	return nil
}

// refreshFog recomputes every local field of view after positions changed.
func (s *Session) refreshFog() {
	if s.fogMode != visibility.ModeOff {
		for _, u := range s.UnitsOf(s.me.Name) {
			u.UpdateVisibleArea()
		}
	}
}

// NextTurn readies every unit for the round of the current game record and
// reloads the local ones. The round counts as started once all reloads
// succeeded.
func (s *Session) NextTurn(ctx context.Context) error {
	turn := s.game.Turn
	s.log.Printf("next turn %d", turn)
	for _, u := range s.Units() {
		u.state = StateStart
		u.moveMode = MoveNone
		if !u.own() {
			continue
		}
		if err := s.RefreshStats(ctx, u); err != nil {
			return err
		}
	}
	if s.selected != nil {
		s.selected.highlightPath()
	}
	s.currentTurn = turn
	s.stats.Turn(s.me.Name, turn)
	return nil
}

// NextPlayer ends the local turn with the active unit.
func (s *Session) NextPlayer(ctx context.Context) error {
	u := s.active
	if u == nil {
		return nil
	}
	if err := s.api.EndTurn(ctx, s.gameID, s.playerID, u.Info.ID); err != nil {
		return fmt.Errorf("end turn: %w", err)
	}
	u.state = StateEnd
	if s.selected != nil {
		s.Unselect()
	}
	g, err := s.api.GameInfo(ctx, s.gameID, s.playerID, s)
	if err != nil {
		return fmt.Errorf("game info: %w", err)
	}
	if err := s.setGame(g); err != nil {
		return err
	}
	s.log.Printf("it's %q's turn", g.ActivePlayer)
	s.lastPlayer = nil
	s.UpdateVisibleUnits()
	return nil
}

// Pass ends the local player's turn without acting, charging it to u.
func (s *Session) Pass(ctx context.Context, u *Unit) error {
	if u == nil {
		return ErrNoTarget
	}
	if err := u.commandable(); err != nil {
		return err
	}
	if s.active != nil && s.active != u {
		return ErrAnotherActive
	}
	prev := s.active
	s.active = u
	if err := s.NextPlayer(ctx); err != nil {
		if u.state != StateEnd {
			s.active = prev
		}
		return err
	}
	return nil
}

// PendingOffer is the trade offer awaiting the local player's answer.
func (s *Session) PendingOffer() *TradeOffer { return s.offer }

// AnswerTrade accepts or rejects the pending offer.
func (s *Session) AnswerTrade(ctx context.Context, accept bool) error {
	offer := s.offer
	if offer == nil {
		return fmt.Errorf("game: no pending trade offer")
	}
	if err := s.api.TradeReply(ctx, s.gameID, s.playerID, accept); err != nil {
		return err
	}
	s.offer = nil
	if !accept {
		return nil
	}
	s.stats.Trade(s.me.Name, offer.Give.Weight()+offer.Get.Weight())
	if offer.Unit == nil {
		return nil
	}
	if u := s.units[offer.Unit.UnitID()]; u != nil {
		return s.RefreshStats(ctx, u)
	}
	return nil
}

// AwaitTradeDecision polls the game record once per interval until the
// partner has answered the last offer, then reports the result. An accepted
// trade ends the turn.
func (s *Session) AwaitTradeDecision(ctx context.Context) (records.TradeStatus, error) {
	t := s.trading
	if t == nil {
		return records.TradeNone, fmt.Errorf("game: no trade in progress")
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		if err := ctx.Err(); err != nil {
			return records.TradeNone, err
		}
		g, err := s.api.GameInfo(ctx, s.gameID, s.playerID, s)
		if err != nil {
			return records.TradeNone, err
		}
		if err := s.setGame(g); err != nil {
			return records.TradeNone, err
		}
		if g.TradePartner == nil {
			s.trading = nil
			s.publish()
			if g.TradeStatus != records.TradeAccepted {
				s.log.Printf("trade %s", g.TradeStatus)
				return g.TradeStatus, nil
			}
			s.log.Printf("your offer has been accepted")
			s.stats.Trade(s.me.Name, t.give.Weight()+t.get.Weight())
			if err := s.RefreshStats(ctx, t.unit); err != nil {
				return g.TradeStatus, err
			}
			return g.TradeStatus, s.NextPlayer(ctx)
		}
		select {
		case <-ctx.Done():
			return records.TradeNone, ctx.Err()
		case <-ticker.C:
		}
	}
}

// SendChat sends text to the whole game, or to one player when playerID is
// set.
func (s *Session) SendChat(ctx context.Context, playerID, text string) error {
	to := chatTarget(s.gameID, playerID)
	if err := s.api.Chat(ctx, s.playerID, to, text); err != nil {
		return err
	}
	s.pushChat(s.me.Name + "> " + text)
	s.stats.Chat(s.gameID, s.me.Name, text)
	return nil
}

// Leave removes the local player from the game and stops the session.
func (s *Session) Leave(ctx context.Context) error {
	if err := s.api.LeaveGame(ctx, s.gameID, s.playerID); err != nil {
		return err
	}
	s.running = false
	s.publish()
	return nil
}

func (s *Session) pushChat(line string) {
	s.chat = append(s.chat, line)
	if over := len(s.chat) - s.chatCap; over > 0 {
		s.chat = s.chat[over:]
	}
}

// FieldAt is a convenience for callers addressing the board by coordinate.
func (s *Session) FieldAt(c records.Coord) *hexmap.Field {
	if s.graph == nil {
		return nil
	}
	return s.graph.Field(c.I, c.J)
}
