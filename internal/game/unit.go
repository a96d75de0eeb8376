package game

import (
	"context"
	"errors"
	"fmt"

	"liquidsands.ai/internal/hexmap"
	"liquidsands.ai/internal/pathing"
	"liquidsands.ai/internal/records"
	"liquidsands.ai/internal/visibility"
)

var (
	ErrNoPath        = errors.New("game: no path")
	ErrCannotAct     = errors.New("game: unit cannot act")
	ErrAnotherActive = errors.New("game: another unit is active")
	ErrNoTarget      = errors.New("game: no target")
	ErrCargo         = errors.New("game: trade does not fit cargo")
	ErrGameOver      = errors.New("game: the game has already finished")
	ErrNotYourTurn   = errors.New("game: not your turn")
	ErrNotYourUnit   = errors.New("game: unit belongs to another player")
)

// Path highlight marks.
const (
	markInRange = "green"
	markBeyond  = "yellow"
	markReach   = "blue"
)

// Unit is one game piece as seen by this client.
type Unit struct {
	Info *records.UnitRecord
	Kind Kind

	s     *Session
	field *hexmap.Field

	state    State
	moveMode MoveMode
	follow   FollowMode
	target   *Unit

	ways [][]*hexmap.Field
	undo [][]*hexmap.Field // most recent first
	fov  []*hexmap.Field

	hidden bool
}

func newUnit(s *Session, info *records.UnitRecord) *Unit {
	return &Unit{Info: info, Kind: KindOf(info.Type.Name), s: s}
}

func (u *Unit) UnitID() int { return u.Info.ID }

func (u *Unit) String() string { return fmt.Sprintf("%s#%d", u.Kind, u.Info.ID) }

func (u *Unit) Owner() *records.Player { return u.Info.Owner }

func (u *Unit) Field() *hexmap.Field { return u.field }

func (u *Unit) State() State { return u.state }

func (u *Unit) MoveMode() MoveMode { return u.moveMode }

func (u *Unit) FollowMode() FollowMode { return u.follow }

func (u *Unit) Target() *Unit { return u.target }

// Hidden reports whether the unit is currently concealed by fog.
func (u *Unit) Hidden() bool { return u.hidden }

// FieldOfView is the set of fields this unit currently reveals.
func (u *Unit) FieldOfView() []*hexmap.Field { return u.fov }

func (u *Unit) Moving() bool { return u.state == StateMove }

// Ways returns the planned path segments, in walking order.
func (u *Unit) Ways() [][]*hexmap.Field { return u.ways }

// Planned flattens the planned path.
func (u *Unit) Planned() []*hexmap.Field {
	var out []*hexmap.Field
	for _, w := range u.ways {
		out = append(out, w...)
	}
	return out
}

func (u *Unit) own() bool {
	return u.s.me != nil && u.Info.Owner != nil && u.Info.Owner.Name == u.s.me.Name
}

// commandable reports why the local player may not give u an order now.
func (u *Unit) commandable() error {
	s := u.s
	switch {
	case !s.running:
		return ErrGameOver
	case !s.MyTurn():
		return ErrNotYourTurn
	case !u.own():
		return fmt.Errorf("%w: unit %d belongs to %s", ErrNotYourUnit, u.Info.ID, u.Info.Owner)
	}
	return nil
}

// AddWaypoint extends the planned path to f, starting from the end of the
// current plan or from the unit's field. It clears the redo history.
func (u *Unit) AddWaypoint(f *hexmap.Field) error {
	start := u.field
	if n := len(u.ways); n > 0 && len(u.ways[n-1]) > 0 {
		w := u.ways[n-1]
		start = w[len(w)-1]
	}
	if start == f {
		return nil
	}
	path, ok := pathing.ShortestPath(u.s.graph, start, f)
	if !ok {
		return fmt.Errorf("%w from %v to %v", ErrNoPath, start, f)
	}
	u.ways = append(u.ways, path)
	u.undo = u.undo[:0]
	u.highlightPath()
	return nil
}

func (u *Unit) Undo() {
	if n := len(u.ways); n > 0 {
		u.undo = append([][]*hexmap.Field{u.ways[n-1]}, u.undo...)
		u.ways = u.ways[:n-1]
	}
	u.highlightPath()
}

func (u *Unit) UndoAll() {
	for len(u.ways) > 0 {
		u.Undo()
	}
}

func (u *Unit) Redo() {
	if len(u.undo) > 0 {
		u.ways = append(u.ways, u.undo[0])
		u.undo = u.undo[1:]
	}
	u.highlightPath()
}

// PathInRange is the prefix of the plan that fits this turn's movement.
func (u *Unit) PathInRange() []*hexmap.Field {
	var out []*hexmap.Field
	budget := u.Info.Movement
	for _, w := range u.ways {
		for _, f := range w {
			budget--
			if budget < 0 {
				return out
			}
			out = append(out, f)
		}
	}
	return out
}

func (u *Unit) highlightPath() {
	g := u.s.graph
	g.ClearLayer(hexmap.LayerPath)
	i := 0
	for _, w := range u.ways {
		for _, f := range w {
			i++
			if i <= u.Info.Movement {
				f.Select(hexmap.LayerPath, markInRange)
			} else {
				f.Select(hexmap.LayerPath, markBeyond)
			}
		}
	}
}

// Reachable highlights and returns the fields the unit could reach with its
// type's full movement.
func (u *Unit) Reachable() []*hexmap.Field {
	fields := pathing.Reachable(u.s.graph, u.field, u.Info.Type.MaxMovement)
	u.s.graph.ClearLayer(hexmap.LayerRange)
	for _, f := range fields {
		f.Select(hexmap.LayerRange, markReach)
	}
	return fields
}

// Follow plans a path up to target and remembers it for later turns.
func (u *Unit) Follow(target *Unit, mode FollowMode) error {
	u.target = target
	u.follow = mode
	if mode != Follow && mode != AutomaticFollow {
		return nil
	}
	return u.planToTarget()
}

// Intercept plans a path that ends next to target.
func (u *Unit) Intercept(target *Unit) error {
	u.target = target
	u.follow = Intercept
	return u.planToTarget()
}

func (u *Unit) planToTarget() error {
	if u.target == nil || u.target.field == nil {
		return ErrNoTarget
	}
	path, ok := pathing.Toward(u.s.graph, u.field, u.target.field)
	if !ok {
		return fmt.Errorf("%w to %v", ErrNoPath, u.target)
	}
	// Drop the target's own field.
	if len(path) > 0 {
		path = path[:len(path)-1]
	}
	u.ways = u.ways[:0]
	u.undo = u.undo[:0]
	if len(path) > 0 {
		u.ways = append(u.ways, path)
	}
	u.highlightPath()
	return nil
}

// CanStillAct reports whether the unit may start an action this turn.
func (u *Unit) CanStillAct() bool {
	if u.state == StateEnd {
		return false
	}
	if a := u.s.active; a != nil && a != u {
		return false
	}
	return true
}

// HasNeighbours reports whether any unit stands next to this one.
func (u *Unit) HasNeighbours() bool {
	if u.field == nil {
		return false
	}
	for _, f := range u.s.graph.TerrainNeighbors(u.field) {
		if f.Occupied() {
			return true
		}
	}
	return false
}

// AnyUnitInRange reports whether another known unit is adjacent, whether or
// not its field is marked occupied.
func (u *Unit) AnyUnitInRange() bool {
	if u.field == nil {
		return false
	}
	for _, f := range u.s.graph.TerrainNeighbors(u.field) {
		if f.Occupied() {
			return true
		}
		for _, o := range u.s.units {
			if o != u && o.field == f {
				return true
			}
		}
	}
	return false
}

// Adjacent reports whether other stands next to u.
func (u *Unit) Adjacent(other *Unit) bool {
	if u.field == nil || other == nil || other.field == nil {
		return false
	}
	for _, f := range u.s.graph.TerrainNeighbors(u.field) {
		if f == other.field {
			return true
		}
	}
	return false
}

// UpdateVisibleArea recomputes the field of view and moves its viewer
// registrations.
func (u *Unit) UpdateVisibleArea() {
	next := visibility.FieldOfView(u.s.graph, u.field, u.Info.Type.MaxMovement)
	u.s.fog.Refresh(u.fov, next)
	u.fov = next
}

// Move sends the in-range prefix of the plan to the server and starts the
// walk. It is rejected locally, without a network call, when the unit is not
// the local player's to command, another unit is active, or this unit has
// finished its turn.
func (u *Unit) Move(ctx context.Context) error {
	s := u.s
	if err := u.commandable(); err != nil {
		return err
	}
	s.graph.ClearLayer(hexmap.LayerRange)
	if s.active != nil && s.active != u {
		return ErrAnotherActive
	}
	if !u.CanStillAct() || u.state != StateStart {
		return ErrCannotAct
	}
	path := u.PathInRange()
	if len(path) == 0 {
		return ErrNoPath
	}
	if err := s.api.Move(ctx, s.gameID, s.playerID, u.Info.ID, hexmap.Coords(path)); err != nil {
		return err
	}
	s.graph.Vacate(u.field)
	u.moveMode = ManualMove
	s.active = u
	s.log.Printf("unit %v moving %d fields", u, len(path))
	if u.Info.Movement != 0 {
		u.state = StateMove
	}
	return nil
}

// Step walks one field. It reports whether the unit is still moving.
func (u *Unit) Step() bool {
	if u.state != StateMove {
		return false
	}
	s := u.s
	for {
		if len(u.ways) == 0 {
			u.reach()
			return false
		}
		way := u.ways[0]
		if u.Info.Movement == 0 {
			if len(way) == 0 {
				u.ways = u.ways[1:]
			}
			u.reach()
			return false
		}
		if len(way) == 0 {
			u.ways = u.ways[1:]
			continue
		}
		next := way[0]
		if !s.graph.Available(next, u) {
			u.reach()
			return false
		}
		prev := u.field
		s.graph.Move(u, next)
		u.field = next
		u.ways[0] = way[1:]
		if prev != nil {
			prev.Unselect(hexmap.LayerPath)
		}
		u.Info.Movement--
		if s.fog.Mode() != visibility.ModeOff {
			u.UpdateVisibleArea()
			s.UpdateVisibleUnits()
		}
		return true
	}
}

func (u *Unit) reach() {
	u.state = StateReached
	if err := u.s.graph.Place(u.field, u); err != nil {
		u.s.log.Printf("unit %v: %v", u, err)
	}
	u.field.Unselect(hexmap.LayerPath)
}

// Attack fires at target and ends the turn.
func (u *Unit) Attack(ctx context.Context, target *Unit) (int, error) {
	s := u.s
	if err := u.commandable(); err != nil {
		return 0, err
	}
	if s.active != nil && s.active != u {
		return 0, ErrAnotherActive
	}
	if !u.CanStillAct() {
		return 0, ErrCannotAct
	}
	if target == nil {
		return 0, ErrNoTarget
	}
	dmg, err := s.api.Attack(ctx, s.gameID, s.playerID, u.Info.ID, target.Info.ID)
	if err != nil {
		return 0, err
	}
	s.active = u
	s.selection = SelectAny
	u.state = StateEnd
	s.log.Printf("unit %v attacked %v for %d damage", u, target, dmg)
	s.stats.Attack(s.me.Name, u.Info.Type.Name, dmg)
	if err := s.NextPlayer(ctx); err != nil {
		return dmg, err
	}
	if err := s.RefreshStats(ctx, u); err != nil {
		return dmg, err
	}
	if err := s.RefreshStats(ctx, target); err != nil {
		return dmg, err
	}
	return dmg, nil
}

// OfferTrade proposes to hand give to partner in exchange for get. The
// decision arrives later; see Session.AwaitTradeDecision.
func (u *Unit) OfferTrade(ctx context.Context, partner *Unit, give, get records.Inventory) error {
	s := u.s
	if err := u.commandable(); err != nil {
		return err
	}
	if s.active != nil && s.active != u {
		return ErrAnotherActive
	}
	if !u.CanStillAct() {
		return ErrCannotAct
	}
	if partner == nil {
		return ErrNoTarget
	}
	if cargo := u.Info.Cargo; cargo != nil {
		if !cargo.CanRemove(give) || !cargo.Remove(give).CanAdd(u.Info.Type.MaxCargo, get) {
			return fmt.Errorf("%w: have %s, give %s, get %s", ErrCargo, cargo, give, get)
		}
	}
	if err := s.api.Trade(ctx, s.gameID, s.playerID, u.Info.ID, partner.Info.ID, give, get); err != nil {
		return err
	}
	s.active = u
	s.selection = SelectAny
	u.state = StateTrade
	s.trading = &pendingTrade{unit: u, give: give, get: get}
	s.log.Printf("unit %v offered %s for %s to %v", u, give.Describe(), get.Describe(), partner)
	return nil
}
