package game

import "liquidsands.ai/internal/rpc"

// StatsSink receives gameplay statistics as they happen. Implementations must
// not block the tick.
type StatsSink interface {
	Attack(player, unitType string, damage int)
	Trade(player string, goods int)
	Death(player, unitType string)
	Win(player string)
	Chat(gameID, player, text string)
	Turn(player string, turn int)
}

type nopStats struct{}

func (nopStats) Attack(string, string, int)  {}
func (nopStats) Trade(string, int)           {}
func (nopStats) Death(string, string)        {}
func (nopStats) Win(string)                  {}
func (nopStats) Chat(string, string, string) {}
func (nopStats) Turn(string, int)            {}

func chatTarget(gameID, playerID string) rpc.ChatTarget {
	if playerID != "" {
		return rpc.ChatTarget{PlayerID: playerID}
	}
	return rpc.ChatTarget{GameID: gameID}
}
