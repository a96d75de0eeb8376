package rpc

import (
	"context"
	"fmt"
	"strconv"

	"liquidsands.ai/internal/protocol"
	"liquidsands.ai/internal/records"
)

// GameInfo fetches the current game record. reg resolves player and unit
// references; it may be nil.
func (c *Client) GameInfo(ctx context.Context, gameID, playerID string, reg records.Registry) (*records.GameRecord, error) {
	rep, err := c.send(ctx, "gameinfo", playerID, protocol.Query("gameinfo", protocol.KV("gameid", gameID)))
	if err != nil {
		return nil, err
	}
	tags, err := records.RecordTags(rep.Body, "gameinfo")
	if err != nil {
		return nil, rep.violation(err)
	}
	g, err := records.DecodeGame(tags, reg)
	if err != nil {
		return nil, rep.violation(err)
	}
	return g, nil
}

func (c *Client) TerrainMap(ctx context.Context, gameID, playerID string) (protocol.Grid, error) {
	return c.grid(ctx, "terrainmap", gameID, playerID)
}

func (c *Client) UnitMap(ctx context.Context, gameID, playerID string) (protocol.Grid, error) {
	return c.grid(ctx, "unitmap", gameID, playerID)
}

func (c *Client) grid(ctx context.Context, kind, gameID, playerID string) (protocol.Grid, error) {
	rep, err := c.send(ctx, kind, playerID, protocol.Query(kind, protocol.KV("gameid", gameID)))
	if err != nil {
		return protocol.Grid{}, err
	}
	g, err := records.GridTag(rep.Body, kind)
	if err != nil {
		return protocol.Grid{}, rep.violation(err)
	}
	return g, nil
}

// UnitInfo fetches one unit. Hit points and cargo are only present when
// playerID owns the unit.
func (c *Client) UnitInfo(ctx context.Context, gameID, playerID string, unitID int, reg records.Registry) (*records.UnitRecord, error) {
	rep, err := c.send(ctx, "unitinfo", playerID, protocol.Query("unitinfo",
		protocol.KVInt("unitid", unitID),
		protocol.KV("gameid", gameID),
	))
	if err != nil {
		return nil, err
	}
	tags, err := records.RecordTags(rep.Body, "unitinfo")
	if err != nil {
		return nil, rep.violation(err)
	}
	u, err := records.DecodeUnit(tags, reg)
	if err != nil {
		return nil, rep.violation(err)
	}
	return u, nil
}

func (c *Client) PlayerInfo(ctx context.Context, gameID, playerID, requestID string) (records.PlayerInfo, error) {
	rep, err := c.send(ctx, "playerinfo", playerID, protocol.Query("playerinfo",
		protocol.KV("playeridrequest", requestID),
		protocol.KV("gameid", gameID),
	))
	if err != nil {
		return records.PlayerInfo{}, err
	}
	return records.DecodePlayerInfo(rep.Body), nil
}

// Move submits a path for unitID. The path excludes the unit's own field.
func (c *Client) Move(ctx context.Context, gameID, playerID string, unitID int, path []records.Coord) error {
	cells := make([]string, len(path))
	for i, p := range path {
		cells[i] = strconv.Itoa(p.I) + "," + strconv.Itoa(p.J)
	}
	_, err := c.send(ctx, "move", playerID, protocol.Action("move",
		protocol.KVInt("unitid", unitID),
		protocol.KV("path", protocol.List(cells...)),
		protocol.KV("gameid", gameID),
	))
	return err
}

// Trade offers give in exchange for get between two adjacent units.
func (c *Client) Trade(ctx context.Context, gameID, playerID string, offerer, partner int, give, get records.Inventory) error {
	_, err := c.send(ctx, "trade", playerID, protocol.Action("trade",
		protocol.KV("gameid", gameID),
		protocol.KVInt("tradeoffererunitid", offerer),
		protocol.KVInt("tradepartnerunitid", partner),
		protocol.KV("givegoods", give.String()),
		protocol.KV("getgoods", get.String()),
	))
	return err
}

// Attack returns the damage dealt to defender.
func (c *Client) Attack(ctx context.Context, gameID, playerID string, attacker, defender int) (int, error) {
	rep, err := c.send(ctx, "attack", playerID, protocol.Action("attack",
		protocol.KVInt("attackerid", attacker),
		protocol.KVInt("defenderid", defender),
		protocol.KV("gameid", gameID),
	))
	if err != nil {
		return 0, err
	}
	v, ok := protocol.Value(rep.Body, ":", "damage")
	if !ok {
		return 0, rep.missing("damage")
	}
	dmg, err := strconv.Atoi(v)
	if err != nil {
		return 0, rep.violation(fmt.Errorf("damage: %w", err))
	}
	return dmg, nil
}

func (c *Client) EndTurn(ctx context.Context, gameID, playerID string, unitID int) error {
	_, err := c.send(ctx, "endturn", playerID, protocol.Action("endturn",
		protocol.KVInt("unitid", unitID),
		protocol.KV("gameid", gameID),
	))
	return err
}

// TradeReply answers the trade offer currently addressed to playerID.
func (c *Client) TradeReply(ctx context.Context, gameID, playerID string, accept bool) error {
	response := "rejected"
	if accept {
		response = "accepted"
	}
	_, err := c.send(ctx, "tradereply", playerID, protocol.Answer("tradereply",
		protocol.KV("gameid", gameID),
		protocol.KV("response", response),
	))
	return err
}
