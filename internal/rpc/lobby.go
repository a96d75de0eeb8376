package rpc

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"liquidsands.ai/internal/protocol"
	"liquidsands.ai/internal/records"
)

// Clients lists the client ids connected to the server.
func (c *Client) Clients(ctx context.Context) ([]string, error) {
	rep, err := c.call(ctx, "getclients", protocol.Request{
		Type:   protocol.TypeGetClients,
		Header: []protocol.Tag{protocol.KV("clientid", c.clientID)},
	})
	if err != nil {
		return nil, err
	}
	out, err := records.DecodeClients(rep.Body)
	if err != nil {
		return nil, rep.violation(err)
	}
	return out, nil
}

// Logon registers the client and stores the session key that every later
// request must carry.
func (c *Client) Logon(ctx context.Context) error {
	rep, err := c.call(ctx, "logon", protocol.Request{
		Type: protocol.TypeLogon,
		Header: []protocol.Tag{
			protocol.KV("clientid", c.clientID),
			protocol.KV("clientinfo", c.clientInfo),
		},
	})
	if err != nil {
		return err
	}
	key, ok := protocol.Value(rep.Raw, ":", "clientkey")
	if !ok || key == "" {
		return rep.missing("clientkey")
	}
	c.mu.Lock()
	c.clientKey = key
	c.mu.Unlock()
	return nil
}

// Info returns what the server knows about this client.
func (c *Client) Info(ctx context.Context) (protocol.TagMap, error) {
	rep, err := c.call(ctx, "getinfo", protocol.Request{
		Type: protocol.TypeGetInfo,
		Header: []protocol.Tag{
			protocol.KV("clientid", c.clientID),
			protocol.KV("clientkey", c.ClientKey()),
			protocol.KV("requestclientid", c.clientID),
		},
	})
	if err != nil {
		return protocol.TagMap{}, err
	}
	return protocol.ParseTags(rep.Body, ':'), nil
}

// PollChat fetches the chat messages queued for this client.
func (c *Client) PollChat(ctx context.Context) ([]records.ChatRecord, error) {
	rep, err := c.call(ctx, "getdata", protocol.Request{
		Type: protocol.TypeGetData,
		Header: []protocol.Tag{
			protocol.KV("clientid", c.clientID),
			protocol.KV("clientkey", c.ClientKey()),
		},
	})
	if err != nil {
		return nil, err
	}
	msgs, err := records.DecodeChats(rep.Body)
	if err != nil {
		return nil, rep.violation(err)
	}
	return msgs, nil
}

func (c *Client) GameList(ctx context.Context) ([]string, error) {
	return c.nameList(ctx, "gamelist")
}

func (c *Client) MapList(ctx context.Context) ([]string, error) {
	return c.nameList(ctx, "maplist")
}

func (c *Client) nameList(ctx context.Context, kind string) ([]string, error) {
	rep, err := c.send(ctx, kind, "", protocol.Info(kind))
	if err != nil {
		return nil, err
	}
	out, err := records.DecodeNameList(rep.Body, kind)
	if err != nil {
		return nil, rep.violation(err)
	}
	return out, nil
}

func (c *Client) MapPreview(ctx context.Context, mapID string) (records.MapPreview, error) {
	rep, err := c.send(ctx, "mappreview", "", protocol.Info("mappreview", protocol.KV("mapid", mapID)))
	if err != nil {
		return records.MapPreview{}, err
	}
	mp, err := records.DecodeMapPreview(rep.Body)
	if err != nil {
		return records.MapPreview{}, rep.violation(err)
	}
	return mp, nil
}

// UnitTypes fetches the unit type catalogue of a map.
func (c *Client) UnitTypes(ctx context.Context, mapID string) ([]records.UnitTypeRecord, error) {
	rep, err := c.send(ctx, "unittype", "", protocol.Info("unittype", protocol.KV("mapid", mapID)))
	if err != nil {
		return nil, err
	}
	types, err := records.DecodeUnitTypes(rep.Body)
	if err != nil {
		return nil, rep.violation(err)
	}
	return types, nil
}

// CreateGame opens a new game on mapID and returns its id. A fresh owner key
// is generated for every game.
func (c *Client) CreateGame(ctx context.Context, mapID, name string) (string, error) {
	key := uuid.NewString()
	rep, err := c.send(ctx, "creategame", "", protocol.Option("creategame",
		protocol.KV("mapid", mapID),
		protocol.KV("gamename", name),
		protocol.KV("gameownerkey", key),
	))
	if err != nil {
		return "", err
	}
	id, ok := protocol.Value(rep.Body, "=", "gameid")
	if !ok || id == "" {
		return "", rep.missing("gameid")
	}
	c.mu.Lock()
	c.ownerKey = key
	c.mu.Unlock()
	return id, nil
}

// AddPlayer joins name to a game and returns the player id.
func (c *Client) AddPlayer(ctx context.Context, gameID, name string) (string, error) {
	rep, err := c.send(ctx, "addplayer", "", protocol.Option("addplayer",
		protocol.KV("gameid", gameID),
		protocol.KV("playername", name),
	))
	if err != nil {
		return "", err
	}
	id, ok := protocol.Value(rep.Body, ":", "playerid")
	if !ok || id == "" {
		return "", rep.missing("playerid")
	}
	return id, nil
}

func (c *Client) StartGame(ctx context.Context, gameID string) error {
	_, err := c.send(ctx, "startgame", "", protocol.Option("startgame",
		protocol.KV("gameid", gameID),
		protocol.KV("gameownerkey", c.OwnerKey()),
	))
	return err
}

// LeaveGame removes the caller's own player.
func (c *Client) LeaveGame(ctx context.Context, gameID, playerID string) error {
	_, err := c.send(ctx, "delplayer", playerID, protocol.Option("delplayer",
		protocol.KV("gameid", gameID),
		protocol.KV("playerdelid", playerID),
	))
	return err
}

// KickPlayer removes another player by name; only the game owner may do this.
func (c *Client) KickPlayer(ctx context.Context, gameID, playerID, name string) error {
	_, err := c.send(ctx, "delplayer", playerID, protocol.Option("delplayer",
		protocol.KV("gameid", gameID),
		protocol.KV("playerdelname", name),
		protocol.KV("gameownerkey", c.OwnerKey()),
	))
	return err
}

func (c *Client) RemoveGame(ctx context.Context, gameID string) error {
	_, err := c.send(ctx, "removegame", "", protocol.Option("removegame",
		protocol.KV("gameid", gameID),
		protocol.KV("gameownerkey", c.OwnerKey()),
	))
	return err
}

// ChatTarget addresses a chat message to a whole game, a single player, or both.
type ChatTarget struct {
	GameID   string
	PlayerID string
}

// Chat sends text from playerID. Brackets in text are replaced because the
// wire grammar has no escaping.
func (c *Client) Chat(ctx context.Context, playerID string, to ChatTarget, text string) error {
	if to.GameID == "" && to.PlayerID == "" {
		return fmt.Errorf("chat: no receiver")
	}
	params := []protocol.Tag{protocol.KV("senderplayerid", playerID)}
	if to.GameID != "" {
		params = append(params, protocol.KV("gameidreceiver", to.GameID))
	}
	if to.PlayerID != "" {
		params = append(params, protocol.KV("playeridreceiver", to.PlayerID))
	}
	text = strings.NewReplacer("[", "(", "]", ")").Replace(text)
	params = append(params, protocol.KV("message", protocol.Wrap(text)))
	_, err := c.send(ctx, "chat", playerID, protocol.Chat(params...))
	return err
}
