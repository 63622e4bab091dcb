package bot

import (
	"github.com/feltcraft/tabled/internal/game"
	"github.com/feltcraft/tabled/poker"
)

// Value plays made hands: it bets and raises once it holds two pair or
// better on a dealt board, calls with any pair, and otherwise checks or
// folds. Preflop it calls anything up to a few big blinds.
type Value struct{}

func (*Value) Name() string { return "value" }

func (v *Value) Decide(p Prompt) Decision {
	if p.Street == game.Preflop {
		toCall := p.CurrentBet - p.StreetBet
		if toCall > 4*p.BigBlind {
			return pick(p.Allowed, game.Check, game.Fold)
		}
		return pick(p.Allowed, game.Check, game.Call, game.Fold)
	}

	rank := poker.Evaluate7(poker.NewHand(p.Hole...) | poker.NewHand(p.Board...))
	switch {
	case rank.Type() >= poker.TwoPair:
		if a, ok := has(p.Allowed, game.Raise); ok {
			return Decision{Type: game.Raise, Amount: raiseTo(a, p)}
		}
		if a, ok := has(p.Allowed, game.Bet); ok {
			return Decision{Type: game.Bet, Amount: raiseTo(a, p)}
		}
		return pick(p.Allowed, game.Call, game.Check, game.AllIn)
	case rank.Type() >= poker.Pair:
		return pick(p.Allowed, game.Check, game.Call, game.Fold)
	default:
		return pick(p.Allowed, game.Check, game.Fold)
	}
}

// raiseTo sizes a value bet at two thirds of the pot, clamped to the legal
// window.
func raiseTo(a game.AllowedAction, p Prompt) int {
	amount := p.CurrentBet + (p.Pot*2)/3
	if amount < a.MinAmount {
		amount = a.MinAmount
	}
	if amount > a.MaxAmount {
		amount = a.MaxAmount
	}
	return amount
}
