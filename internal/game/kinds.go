package game

import "fmt"

// Kind selects how a unit is presented. Units of every kind behave alike.
type Kind int

const (
	KindDefault Kind = iota
	KindRosa
	KindSphinx
	KindJinn
	KindCarpet
	KindCamel
)

var kindByType = map[string]Kind{
	"fightersmall":  KindRosa,
	"fightermedium": KindSphinx,
	"fighterheavy":  KindJinn,
	"cargosmall":    KindCarpet,
	"cargoheavy":    KindCamel,
}

// KindOf maps a unit type name to its kind. Unknown types get KindDefault.
func KindOf(typeName string) Kind {
	return kindByType[typeName]
}

var kindNames = [...]string{"default", "rosa", "sphinx", "jinn", "carpet", "camel"}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// AssetName is the model a front end should load for k. The default kind
// borrows the small fighter model.
func AssetName(k Kind) string {
	switch k {
	case KindSphinx:
		return "models/sphinx.j3o"
	case KindJinn:
		return "models/jinn.j3o"
	case KindCarpet:
		return "models/carpet.j3o"
	case KindCamel:
		return "models/camel.j3o"
	default:
		return "models/rosa.j3o"
	}
}

// State is the per-turn state of a unit.
type State int

const (
	StateStart State = iota
	StateMove
	StateReached
	StateTrade
	StateFight
	StateEnd
)

var stateNames = [...]string{"start", "move", "reached", "trade", "fight", "end"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// MoveMode records who started the current walk.
type MoveMode int

const (
	MoveNone MoveMode = iota
	AutomaticMove
	ManualMove
)

type FollowMode int

const (
	FollowNone FollowMode = iota
	Follow
	AutomaticFollow
	Intercept
)

// SelectionMode is what a click on another unit means.
type SelectionMode int

const (
	SelectAny SelectionMode = iota
	SelectFight
	SelectTrade
	SelectFollow
)
