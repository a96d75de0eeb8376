package records

import (
	"fmt"

	"liquidsands.ai/internal/protocol"
)

type GameStatus string

const (
	StatusInited  GameStatus = "inited"
	StatusStarted GameStatus = "started"
)

type TradeStatus string

const (
	TradeNone         TradeStatus = "none"
	TradeAccepted     TradeStatus = "accepted"
	TradeRejected     TradeStatus = "rejected"
	TradeDoNotDisturb TradeStatus = "DND"
)

// GameRecord is the server's view of one game at the time of a poll.
type GameRecord struct {
	ID     string
	Name   string
	MapID  string
	Status GameStatus
	Turn   int

	Winner                *Player
	ActivePlayer          *Player
	ActiveUnitsLastAction string

	TradePartner     *Player
	TradePartnerUnit UnitRef
	TradeGive        Inventory
	TradeGet         Inventory
	TradeStatus      TradeStatus

	PlayerNames []string
	TurnsTaken  []bool
}

// PendingTradeFor reports whether a trade offer addressed to name is waiting.
func (g *GameRecord) PendingTradeFor(name string) bool {
	return g != nil && g.TradePartner != nil && g.TradePartner.Name == name
}

// PlayerIndex is the position of name in the server's player order, or -1.
func (g *GameRecord) PlayerIndex(name string) int {
	for i, n := range g.PlayerNames {
		if n == name {
			return i
		}
	}
	return -1
}

// DecodeGame builds a GameRecord from the tags of a gameinfo reply.
func DecodeGame(tags protocol.TagMap, reg Registry) (*GameRecord, error) {
	g := &GameRecord{
		ID:                    tags.Get("gameid"),
		Name:                  tags.Get("name"),
		MapID:                 tags.Get("mapid"),
		ActiveUnitsLastAction: tags.Get("activeunitslastaction"),
		Winner:                resolvePlayer(reg, tags.Get("winner")),
		ActivePlayer:          resolvePlayer(reg, tags.Get("activeplayer")),
		TradePartner:          resolvePlayer(reg, tags.Get("tradepartner")),
	}

	switch s := GameStatus(tags.Get("gamestatus")); s {
	case StatusInited, StatusStarted, "":
		g.Status = s
	default:
		return nil, &DecodeError{Record: "game", Field: "gamestatus", Err: fmt.Errorf("unknown status %q", s)}
	}

	turn, err := tags.Int("turn")
	if err != nil {
		return nil, &DecodeError{Record: "game", Field: "turn", Err: err}
	}
	if turn < 0 {
		return nil, &DecodeError{Record: "game", Field: "turn", Err: fmt.Errorf("negative turn %d", turn)}
	}
	g.Turn = turn

	if v := tags.Get("tradepartnerunit"); v != "" {
		id, err := tags.Int("tradepartnerunit")
		if err != nil {
			return nil, &DecodeError{Record: "game", Field: "tradepartnerunit", Err: err}
		}
		g.TradePartnerUnit = resolveUnit(reg, id)
	}
	if v := tags.Get("tradegive"); v != "" {
		if g.TradeGive, err = ParseInventory(v); err != nil {
			return nil, &DecodeError{Record: "game", Field: "tradegive", Err: err}
		}
	}
	if v := tags.Get("tradeget"); v != "" {
		if g.TradeGet, err = ParseInventory(v); err != nil {
			return nil, &DecodeError{Record: "game", Field: "tradeget", Err: err}
		}
	}

	switch s := TradeStatus(tags.Get("tradestatuslast")); s {
	case "":
		g.TradeStatus = TradeNone
	case TradeNone, TradeAccepted, TradeRejected, TradeDoNotDisturb:
		g.TradeStatus = s
	default:
		return nil, &DecodeError{Record: "game", Field: "tradestatuslast", Err: fmt.Errorf("unknown trade status %q", s)}
	}

	if g.PlayerNames, err = list(tags.Get("playernames")); err != nil {
		return nil, &DecodeError{Record: "game", Field: "playernames", Err: err}
	}
	taken, err := list(tags.Get("turnsTaken"))
	if err != nil {
		return nil, &DecodeError{Record: "game", Field: "turnsTaken", Err: err}
	}
	g.TurnsTaken = make([]bool, len(taken))
	for i, v := range taken {
		g.TurnsTaken[i] = v == "true"
	}
	return g, nil
}

// DecodeWinner extracts the winner announced alongside a game_ended error.
// The detail carries either a full "[gameinfo][...]" record or bare tags.
func DecodeWinner(se *protocol.StatusError, reg Registry) *Player {
	if se == nil {
		return nil
	}
	tags, err := RecordTags(se.Detail, "gameinfo")
	if err != nil {
		tags = protocol.ParseTags(se.Detail, '=')
	}
	return resolvePlayer(reg, tags.Get("winner"))
}
