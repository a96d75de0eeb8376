package protocol

// Error codes reported by the game server in "errinfo:<code>". The spelling
// follows the server, typos included.
const (
	// Session.
	CodeInvalidClientKey = "invalid_clientkey"

	// Lobby.
	CodeUnknownGameID     = "unkown_gameid"
	CodeGameNameNotUnique = "gamename_not_unique"
	CodePlayerNameExists  = "playername_already_exists"
	CodeInvalidOwnerKey   = "invalid_ownerkey_to_start_game"
	CodeNotEnoughPlayers  = "not_enough_players_to_start_the_game"
	CodeUnknownMapPreview = "previewrequest_for_unknown_map"
	CodeNoReceiverFound   = "no_reciever_found_no_messages_send"
	CodeInvalidPlayerID   = "PLAYERID_is_not_a_vaild_player"
	CodeGameEnded         = "game_ended"

	// Rule/action layer.
	CodeUnitNotActive          = "unit_is_not_active_unit"
	CodeUnknownUnitID          = "request_unitinfo_for_unknown_unitid"
	CodeNotTradePartner        = "playerid_is_not_tradepartnerid"
	CodeUnknownTradeResponse   = "tradereply_contained_unknown_response"
	CodeTradeAmountNotPossible = "amount_of_transfered_goods_in_trade_not_possible"
)

var knownCodes = map[string]struct{}{
	CodeInvalidClientKey:       {},
	CodeUnknownGameID:          {},
	CodeGameNameNotUnique:      {},
	CodePlayerNameExists:       {},
	CodeInvalidOwnerKey:        {},
	CodeNotEnoughPlayers:       {},
	CodeUnknownMapPreview:      {},
	CodeNoReceiverFound:        {},
	CodeInvalidPlayerID:        {},
	CodeGameEnded:              {},
	CodeUnitNotActive:          {},
	CodeUnknownUnitID:          {},
	CodeNotTradePartner:        {},
	CodeUnknownTradeResponse:   {},
	CodeTradeAmountNotPossible: {},
}

// lobbyCodes fall back to the game selection instead of surfacing as a fault.
var lobbyCodes = map[string]struct{}{
	CodeUnknownGameID:     {},
	CodeGameNameNotUnique: {},
	CodePlayerNameExists:  {},
	CodeInvalidOwnerKey:   {},
	CodeNotEnoughPlayers:  {},
	CodeUnknownMapPreview: {},
	CodeGameEnded:         {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}

// Recoverable reports whether a client can recover from code by returning to
// the lobby.
func Recoverable(code string) bool {
	_, ok := lobbyCodes[code]
	return ok
}
