// Package bot provides the house strategies a table can seat on demand. A
// bot is a pure decision function; the table runtime owns its seat, timing,
// and message plumbing.
package bot

import (
	"fmt"
	rand "math/rand/v2"

	"github.com/feltcraft/tabled/internal/game"
	"github.com/feltcraft/tabled/poker"
)

// Prompt is everything a strategy sees when it is asked to act.
type Prompt struct {
	Hole       []poker.Card
	Board      []poker.Card
	Street     game.Street
	Pot        int
	CurrentBet int
	StreetBet  int
	Stack      int
	BigBlind   int
	Allowed    []game.AllowedAction
}

// Decision is the chosen action. Amount is the total street bet for bet and
// raise, ignored otherwise.
type Decision struct {
	Type   game.ActionType
	Amount int
}

// Strategy decides one action from a prompt. Implementations must be
// deterministic given the prompt and their own RNG state.
type Strategy interface {
	Name() string
	Decide(p Prompt) Decision
}

// New builds a strategy by name. rng seeds the stochastic strategies; pass a
// fixed-seed source in tests.
func New(name string, rng *rand.Rand) (Strategy, error) {
	switch name {
	case "caller":
		return &Caller{}, nil
	case "folder":
		return &Folder{}, nil
	case "random":
		return NewRandom(rng), nil
	case "value":
		return &Value{}, nil
	default:
		return nil, fmt.Errorf("bot: unknown strategy %q", name)
	}
}

func has(allowed []game.AllowedAction, t game.ActionType) (game.AllowedAction, bool) {
	for _, a := range allowed {
		if a.Type == t {
			return a, true
		}
	}
	return game.AllowedAction{}, false
}

// pick returns the first of the preferred actions that is legal, falling back
// to the first allowed action. The engine always offers at least fold.
func pick(allowed []game.AllowedAction, preferred ...game.ActionType) Decision {
	for _, t := range preferred {
		if a, ok := has(allowed, t); ok {
			return Decision{Type: a.Type, Amount: a.MinAmount}
		}
	}
	if len(allowed) > 0 {
		return Decision{Type: allowed[0].Type, Amount: allowed[0].MinAmount}
	}
	return Decision{Type: game.Fold}
}
