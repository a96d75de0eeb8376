package main

import (
	"context"
	"errors"
	"log"
	"sort"

	"liquidsands.ai/internal/game"
	"liquidsands.ai/internal/hexmap"
)

// strategy plays one unit per turn: attack an adjacent enemy, otherwise
// intercept the nearest visible one, otherwise pass.
type strategy struct {
	s   *game.Session
	log *log.Logger
}

func newStrategy(s *game.Session, logger *log.Logger) *strategy {
	return &strategy{s: s, log: logger}
}

func (st *strategy) act(ctx context.Context) error {
	s := st.s
	if !s.Running() || !s.MyTurn() {
		return nil
	}
	if a := s.Active(); a != nil {
		if a.Moving() || a.State() == game.StateEnd {
			return nil
		}
		return st.finish(ctx, a)
	}

	own := st.ready()
	if len(own) == 0 {
		mine := s.UnitsOf(s.Me().Name)
		if len(mine) == 0 {
			return nil
		}
		return s.Pass(ctx, mine[0])
	}

	for _, u := range own {
		target := st.nearestEnemy(u)
		if target == nil {
			continue
		}
		if u.Adjacent(target) {
			return st.attack(ctx, u, target)
		}
		if err := u.Intercept(target); err != nil {
			continue
		}
		err := u.Move(ctx)
		switch {
		case err == nil:
			st.log.Printf("%v intercepts %v", u, target)
			return nil
		case errors.Is(err, game.ErrNoPath), errors.Is(err, game.ErrCannotAct):
			u.UndoAll()
			continue
		default:
			return err
		}
	}
	return s.Pass(ctx, own[0])
}

// finish ends the turn of a unit that stopped walking.
func (st *strategy) finish(ctx context.Context, u *game.Unit) error {
	if target := st.nearestEnemy(u); target != nil && u.Adjacent(target) {
		return st.attack(ctx, u, target)
	}
	return st.s.Pass(ctx, u)
}

func (st *strategy) attack(ctx context.Context, u, target *game.Unit) error {
	dmg, err := u.Attack(ctx, target)
	if err != nil {
		return err
	}
	st.log.Printf("%v hit %v for %d", u, target, dmg)
	return nil
}

// ready lists own units that may still act this turn, closest to an enemy
// first.
func (st *strategy) ready() []*game.Unit {
	var out []*game.Unit
	for _, u := range st.s.UnitsOf(st.s.Me().Name) {
		if u.Field() != nil && u.CanStillAct() && u.State() == game.StateStart {
			out = append(out, u)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return st.enemyDistance(out[i]) < st.enemyDistance(out[j])
	})
	return out
}

func (st *strategy) enemyDistance(u *game.Unit) int {
	t := st.nearestEnemy(u)
	if t == nil {
		return int(^uint(0) >> 1)
	}
	return hexmap.Distance(u.Field().Coord(), t.Field().Coord())
}

func (st *strategy) nearestEnemy(u *game.Unit) *game.Unit {
	if u.Field() == nil {
		return nil
	}
	me := st.s.Me().Name
	var best *game.Unit
	bestDist := 0
	for _, e := range st.s.Units() {
		if e.Owner() == nil || e.Owner().Name == me || e.Hidden() || e.Field() == nil {
			continue
		}
		d := hexmap.Distance(u.Field().Coord(), e.Field().Coord())
		if best == nil || d < bestDist {
			best, bestDist = e, d
		}
	}
	return best
}

// answer accepts offers that give at least as much weight as they ask for.
func (st *strategy) answer(ctx context.Context, offer *game.TradeOffer) error {
	accept := offer.Give.Weight() >= offer.Get.Weight()
	st.log.Printf("trade offer from %v: %s (accept=%v)", offer.From, offer, accept)
	return st.s.AnswerTrade(ctx, accept)
}
