package bot

import (
	rand "math/rand/v2"

	"github.com/feltcraft/tabled/internal/game"
)

// Random picks uniformly among its legal actions, with raise sizes drawn
// between the minimum and a pot-sized cap. It exists to fuzz the engine from
// the outside: whatever it does must be legal by construction.
type Random struct {
	rng *rand.Rand
}

// NewRandom creates a random strategy from the given source.
func NewRandom(rng *rand.Rand) *Random {
	return &Random{rng: rng}
}

func (*Random) Name() string { return "random" }

func (r *Random) Decide(p Prompt) Decision {
	if len(p.Allowed) == 0 {
		return Decision{Type: game.Fold}
	}
	a := p.Allowed[r.rng.IntN(len(p.Allowed))]
	d := Decision{Type: a.Type, Amount: a.Amount}
	if a.Type == game.Bet || a.Type == game.Raise {
		cap := p.CurrentBet + p.Pot
		if cap > a.MaxAmount {
			cap = a.MaxAmount
		}
		if cap < a.MinAmount {
			cap = a.MinAmount
		}
		d.Amount = a.MinAmount
		if cap > a.MinAmount {
			d.Amount += r.rng.IntN(cap - a.MinAmount + 1)
		}
	}
	return d
}
