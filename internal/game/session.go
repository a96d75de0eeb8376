// Package game holds the client-side model of one running game: the board,
// the units, their per-turn state machine, and the polling loop that keeps it
// in step with the server.
//
// A Session is driven by a single goroutine calling Tick. Only Snapshot is
// safe to call from other goroutines.
package game

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync/atomic"
	"time"

	"liquidsands.ai/internal/hexmap"
	"liquidsands.ai/internal/protocol"
	"liquidsands.ai/internal/records"
	"liquidsands.ai/internal/rpc"
	"liquidsands.ai/internal/visibility"
)

// API is the subset of the remote procedure client a session needs.
type API interface {
	TerrainMap(ctx context.Context, gameID, playerID string) (protocol.Grid, error)
	UnitMap(ctx context.Context, gameID, playerID string) (protocol.Grid, error)
	UnitTypes(ctx context.Context, mapID string) ([]records.UnitTypeRecord, error)
	GameInfo(ctx context.Context, gameID, playerID string, reg records.Registry) (*records.GameRecord, error)
	UnitInfo(ctx context.Context, gameID, playerID string, unitID int, reg records.Registry) (*records.UnitRecord, error)
	PollChat(ctx context.Context) ([]records.ChatRecord, error)
	Move(ctx context.Context, gameID, playerID string, unitID int, path []records.Coord) error
	Attack(ctx context.Context, gameID, playerID string, attacker, defender int) (int, error)
	Trade(ctx context.Context, gameID, playerID string, offerer, partner int, give, get records.Inventory) error
	TradeReply(ctx context.Context, gameID, playerID string, accept bool) error
	EndTurn(ctx context.Context, gameID, playerID string, unitID int) error
	Chat(ctx context.Context, playerID string, to rpc.ChatTarget, text string) error
	LeaveGame(ctx context.Context, gameID, playerID string) error
}

// DefaultPollInterval is how often the server is polled while another player
// is on turn.
const DefaultPollInterval = time.Second

type Options struct {
	GameID string
	MapID  string
	// Player is the local player; its ID must be set.
	Player       *records.Player
	PollInterval time.Duration
	Fog          visibility.Mode
	Logger       *log.Logger
	Stats        StatsSink
	// ChatHistory bounds the chat lines kept for snapshots.
	ChatHistory int
}

type Session struct {
	api      API
	log      *log.Logger
	stats    StatsSink
	interval time.Duration
	fogMode  visibility.Mode

	gameID   string
	mapID    string
	me       *records.Player
	playerID string

	players map[string]*records.Player
	units   map[int]*Unit
	types   map[string]records.UnitTypeRecord

	graph *hexmap.Graph
	fog   *visibility.Engine
	game  *records.GameRecord

	active    *Unit
	selected  *Unit
	selection SelectionMode

	lastPlayer  *records.Player
	currentTurn int
	sincePoll   time.Duration
	running     bool
	winner      *records.Player

	offer   *TradeOffer
	trading *pendingTrade

	chat    []string
	chatCap int

	snap atomic.Pointer[Snapshot]
}

func New(api API, opts Options) (*Session, error) {
	if opts.Player == nil || opts.Player.ID == "" {
		return nil, fmt.Errorf("game: local player id required")
	}
	s := &Session{
		api:      api,
		log:      opts.Logger,
		stats:    opts.Stats,
		interval: opts.PollInterval,
		fogMode:  opts.Fog,
		gameID:   opts.GameID,
		mapID:    opts.MapID,
		me:       opts.Player,
		playerID: opts.Player.ID,
		players:  map[string]*records.Player{opts.Player.Name: opts.Player},
		units:    make(map[int]*Unit),
		types:    make(map[string]records.UnitTypeRecord),
		chatCap:  opts.ChatHistory,
	}
	if s.log == nil {
		s.log = log.Default()
	}
	if s.stats == nil {
		s.stats = nopStats{}
	}
	if s.interval <= 0 {
		s.interval = DefaultPollInterval
	}
	if s.chatCap <= 0 {
		s.chatCap = 50
	}
	return s, nil
}

// PlayerByName, UnitByID, and UnitType let records resolve references
// against the session.

func (s *Session) PlayerByName(name string) (*records.Player, bool) {
	p, ok := s.players[name]
	return p, ok
}

func (s *Session) UnitByID(id int) (records.UnitRef, bool) {
	u, ok := s.units[id]
	if !ok {
		return nil, false
	}
	return u, true
}

func (s *Session) UnitType(name string) (records.UnitTypeRecord, bool) {
	t, ok := s.types[name]
	return t, ok
}

func (s *Session) GameID() string               { return s.gameID }
func (s *Session) Me() *records.Player          { return s.me }
func (s *Session) Graph() *hexmap.Graph         { return s.graph }
func (s *Session) Game() *records.GameRecord    { return s.game }
func (s *Session) Active() *Unit                { return s.active }
func (s *Session) Selected() *Unit              { return s.selected }
func (s *Session) Running() bool                { return s.running }
func (s *Session) Winner() *records.Player      { return s.winner }
func (s *Session) SelectionMode() SelectionMode { return s.selection }
func (s *Session) FogMode() visibility.Mode     { return s.fogMode }

func (s *Session) SetSelectionMode(m SelectionMode) { s.selection = m }

func (s *Session) Unit(id int) *Unit { return s.units[id] }

// Units returns all known units ordered by id.
func (s *Session) Units() []*Unit {
	out := make([]*Unit, 0, len(s.units))
	for _, u := range s.units {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Info.ID < out[j].Info.ID })
	return out
}

// UnitsOf returns the units owned by the named player.
func (s *Session) UnitsOf(name string) []*Unit {
	var out []*Unit
	for _, u := range s.Units() {
		if u.Info.Owner != nil && u.Info.Owner.Name == name {
			out = append(out, u)
		}
	}
	return out
}

// UnitAt returns the unit standing on f, if any.
func (s *Session) UnitAt(f *hexmap.Field) *Unit {
	if f == nil {
		return nil
	}
	if o := f.Occupant(); o != nil {
		if u, ok := s.units[o.UnitID()]; ok {
			return u
		}
	}
	for _, u := range s.units {
		if u.field == f {
			return u
		}
	}
	return nil
}

// MyTurn reports whether the server last named the local player as active.
func (s *Session) MyTurn() bool {
	return s.game != nil && s.game.ActivePlayer != nil && s.game.ActivePlayer.Name == s.me.Name
}

func (s *Session) addPlayer(name string) *records.Player {
	if p, ok := s.players[name]; ok {
		return p
	}
	p := &records.Player{Name: name}
	s.players[name] = p
	s.log.Printf("adding player %s", name)
	return p
}

// Start loads the board, the unit catalogue, the players, and every unit,
// then reveals what the local units can see.
func (s *Session) Start(ctx context.Context) error {
	terrain, err := s.api.TerrainMap(ctx, s.gameID, s.playerID)
	if err != nil {
		return fmt.Errorf("terrain map: %w", err)
	}
	s.graph = hexmap.New(terrain)
	s.fog = visibility.NewEngine(s.graph, s.fogMode)
	s.log.Printf("loaded terrain %dx%d", terrain.Width, terrain.Height)

	unitMap, err := s.api.UnitMap(ctx, s.gameID, s.playerID)
	if err != nil {
		return fmt.Errorf("unit map: %w", err)
	}
	types, err := s.api.UnitTypes(ctx, s.mapID)
	if err != nil {
		return fmt.Errorf("unit types: %w", err)
	}
	for _, t := range types {
		s.types[t.Name] = t
	}

	if s.game, err = s.api.GameInfo(ctx, s.gameID, s.playerID, s); err != nil {
		return fmt.Errorf("game info: %w", err)
	}
	for _, name := range s.game.PlayerNames {
		s.addPlayer(name)
	}
	if err := s.distributeUnits(ctx, unitMap); err != nil {
		return err
	}
	if s.game, err = s.api.GameInfo(ctx, s.gameID, s.playerID, s); err != nil {
		return fmt.Errorf("game info: %w", err)
	}
	s.currentTurn = s.game.Turn
	s.InitFog()
	s.running = true
	s.log.Printf("game %s started, active player %s", s.gameID, s.game.ActivePlayer)
	s.publish()
	return nil
}

func (s *Session) distributeUnits(ctx context.Context, unitMap protocol.Grid) error {
	for j := 0; j < unitMap.Height; j++ {
		for i := 0; i < unitMap.Width; i++ {
			id := unitMap.At(i, j)
			if id == 0 {
				continue
			}
			u, err := s.loadUnit(ctx, id)
			if err != nil {
				return err
			}
			if err := s.placeUnit(u, i, j); err != nil {
				return err
			}
		}
	}
	return nil
}

// loadUnit fetches a unit, asking again with its owner's id when this client
// knows it so owner-only fields are filled in.
func (s *Session) loadUnit(ctx context.Context, id int) (*Unit, error) {
	info, err := s.api.UnitInfo(ctx, s.gameID, s.playerID, id, s)
	if err != nil {
		return nil, fmt.Errorf("unit %d: %w", id, err)
	}
	if o := info.Owner; o != nil && o.ID != "" && o.ID != s.playerID {
		if info, err = s.api.UnitInfo(ctx, s.gameID, o.ID, id, s); err != nil {
			return nil, fmt.Errorf("unit %d: %w", id, err)
		}
	}
	if info.Owner != nil {
		info.Owner = s.addPlayer(info.Owner.Name)
	}
	if _, ok := s.types[info.Type.Name]; !ok {
		s.log.Printf("no model for unit type %q, using default", info.Type.Name)
	}
	u := newUnit(s, info)
	s.units[id] = u
	s.log.Printf("adding %v", info)
	return u, nil
}

func (s *Session) placeUnit(u *Unit, i, j int) error {
	f := s.graph.Field(i, j)
	if f == nil {
		return fmt.Errorf("unit %d placed on impassable field %d,%d", u.Info.ID, i, j)
	}
	if err := s.graph.Place(f, u); err != nil {
		return err
	}
	u.field = f
	return nil
}

// InitFog reveals every field the local player's units can see.
func (s *Session) InitFog() {
	for _, u := range s.UnitsOf(s.me.Name) {
		u.fov = visibility.FieldOfView(s.graph, u.field, u.Info.Type.MaxMovement)
		s.fog.Reveal(u.fov)
	}
	s.UpdateVisibleUnits()
}

// SetFogMode switches fog of war on or off.
func (s *Session) SetFogMode(m visibility.Mode) {
	s.fogMode = m
	s.fog.SetMode(m)
	if m != visibility.ModeOff {
		s.InitFog()
		return
	}
	s.UpdateVisibleUnits()
}

// UpdateVisibleUnits hides other players' units standing on unwatched fields.
func (s *Session) UpdateVisibleUnits() {
	for _, u := range s.units {
		u.hidden = s.fog.Hidden(u.field, u.own())
	}
}

// Select makes u the selected unit and highlights its plan and reach.
func (s *Session) Select(ctx context.Context, u *Unit) error {
	if err := u.commandable(); err != nil {
		return err
	}
	if s.selected != nil && s.selected != u {
		s.Unselect()
	}
	s.selected = u
	u.highlightPath()
	u.Reachable()
	return s.RefreshStats(ctx, u)
}

func (s *Session) Unselect() {
	s.selected = nil
	s.graph.ClearLayer(hexmap.LayerPath)
	s.graph.ClearLayer(hexmap.LayerRange)
}

// RefreshStats reloads u from the server. A destroyed unit leaves the board.
func (s *Session) RefreshStats(ctx context.Context, u *Unit) error {
	pid := s.playerID
	if o := u.Info.Owner; o != nil && o.ID != "" {
		pid = o.ID
	}
	info, err := s.api.UnitInfo(ctx, s.gameID, pid, u.Info.ID, s)
	if err != nil {
		return fmt.Errorf("refresh unit %d: %w", u.Info.ID, err)
	}
	if info.Owner != nil {
		info.Owner = s.addPlayer(info.Owner.Name)
	}
	u.Info = info
	if info.Destroyed {
		s.destroy(u)
	}
	return nil
}

func (s *Session) destroy(u *Unit) {
	s.log.Printf("unit %v destroyed", u)
	if u.own() {
		s.fog.Conceal(u.fov)
		u.fov = nil
	}
	s.graph.Remove(u.Info.ID)
	u.field = nil
	delete(s.units, u.Info.ID)
	if s.selected == u {
		s.Unselect()
	}
	owner := ""
	if u.Info.Owner != nil {
		owner = u.Info.Owner.Name
	}
	s.stats.Death(owner, u.Info.Type.Name)
	s.UpdateVisibleUnits()
}
