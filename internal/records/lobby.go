package records

import (
	"fmt"
	"strings"

	"liquidsands.ai/internal/protocol"
)

// DecodeClients decodes "clients[a,b,c]" from a getclients reply.
func DecodeClients(body string) ([]string, error) {
	tok, ok := protocol.Part(strings.Split(body, " "), "clients")
	if !ok {
		return nil, &DecodeError{Record: "clients", Field: "clients", Err: fmt.Errorf("missing")}
	}
	inner, err := protocol.Segment(tok, 0)
	if err != nil {
		return nil, &DecodeError{Record: "clients", Field: "clients", Err: err}
	}
	var out []string
	for _, c := range strings.Split(inner, ",") {
		if c != "" {
			out = append(out, c)
		}
	}
	return out, nil
}

// DecodeNameList decodes "key=[[a][b]]" lists such as gamelist and maplist.
func DecodeNameList(body, key string) ([]string, error) {
	tok, ok := protocol.Part(strings.Split(body, " "), key+"=")
	if !ok {
		return nil, &DecodeError{Record: key, Field: key, Err: fmt.Errorf("missing")}
	}
	items, err := list(strings.TrimPrefix(tok, key+"="))
	if err != nil {
		return nil, &DecodeError{Record: key, Field: key, Err: err}
	}
	out := items[:0]
	for _, it := range items {
		if it != "" {
			out = append(out, it)
		}
	}
	return out, nil
}

// MapPreview is the terrain and initial unit placement of a map.
type MapPreview struct {
	Terrain protocol.Grid
	Units   protocol.Grid
}

func DecodeMapPreview(body string) (MapPreview, error) {
	var mp MapPreview
	var err error
	if mp.Terrain, err = GridTag(body, "terrainmappreview"); err != nil {
		return mp, err
	}
	if mp.Units, err = GridTag(body, "unitmappreview"); err != nil {
		return mp, err
	}
	return mp, nil
}

// GridTag decodes the grid stored under key ("terrainmap=[[...]]").
func GridTag(body, key string) (protocol.Grid, error) {
	v, ok := protocol.Value(body, "=", key)
	if !ok {
		return protocol.Grid{}, &DecodeError{Record: "grid", Field: key, Err: fmt.Errorf("missing")}
	}
	g, err := protocol.ParseGrid(v)
	if err != nil {
		return protocol.Grid{}, &DecodeError{Record: "grid", Field: key, Err: err}
	}
	return g, nil
}

// PlayerInfo is the reply to a playerinfo request.
type PlayerInfo struct {
	PlayerID   string
	PlayerName string
}

func DecodePlayerInfo(body string) PlayerInfo {
	var p PlayerInfo
	p.PlayerID, _ = protocol.Value(body, "=", "playerid")
	p.PlayerName, _ = protocol.Value(body, "=", "playername")
	return p
}
