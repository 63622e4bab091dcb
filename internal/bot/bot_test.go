package bot

import (
	"testing"

	"github.com/feltcraft/tabled/internal/game"
	"github.com/feltcraft/tabled/internal/randutil"
	"github.com/feltcraft/tabled/poker"
)

func cards(t *testing.T, s string) []poker.Card {
	t.Helper()
	out, err := poker.ParseCards(s)
	if err != nil {
		t.Fatalf("ParseCards(%q): %v", s, err)
	}
	return out
}

func TestCallerPrefersCheckThenCall(t *testing.T) {
	t.Parallel()

	c := &Caller{}
	d := c.Decide(Prompt{Allowed: []game.AllowedAction{
		{Type: game.Fold},
		{Type: game.Check},
		{Type: game.Bet, MinAmount: 20, MaxAmount: 200},
	}})
	if d.Type != game.Check {
		t.Errorf("decision = %s, want check", d.Type)
	}

	d = c.Decide(Prompt{Allowed: []game.AllowedAction{
		{Type: game.Fold},
		{Type: game.Call, Amount: 50},
		{Type: game.AllIn, Amount: 200},
	}})
	if d.Type != game.Call {
		t.Errorf("decision = %s, want call", d.Type)
	}
}

func TestFolderFoldsToBets(t *testing.T) {
	t.Parallel()

	f := &Folder{}
	d := f.Decide(Prompt{Allowed: []game.AllowedAction{
		{Type: game.Fold},
		{Type: game.Call, Amount: 50},
	}})
	if d.Type != game.Fold {
		t.Errorf("decision = %s, want fold", d.Type)
	}
	d = f.Decide(Prompt{Allowed: []game.AllowedAction{
		{Type: game.Fold},
		{Type: game.Check},
	}})
	if d.Type != game.Check {
		t.Errorf("decision = %s, want check when free", d.Type)
	}
}

func TestRandomStaysLegal(t *testing.T) {
	t.Parallel()

	r := NewRandom(randutil.New(42))
	allowed := []game.AllowedAction{
		{Type: game.Fold},
		{Type: game.Call, Amount: 50},
		{Type: game.Raise, MinAmount: 100, MaxAmount: 500},
		{Type: game.AllIn, Amount: 500},
	}
	for i := 0; i < 200; i++ {
		d := r.Decide(Prompt{Pot: 120, CurrentBet: 50, Allowed: allowed})
		switch d.Type {
		case game.Fold, game.Call, game.AllIn:
		case game.Raise:
			if d.Amount < 100 || d.Amount > 500 {
				t.Fatalf("raise amount %d outside [100, 500]", d.Amount)
			}
		default:
			t.Fatalf("illegal action %s", d.Type)
		}
	}
}

func TestValueBetsMadeHands(t *testing.T) {
	t.Parallel()

	v := &Value{}
	allowed := []game.AllowedAction{
		{Type: game.Fold},
		{Type: game.Check},
		{Type: game.Bet, MinAmount: 20, MaxAmount: 1000},
	}

	// Top two pair on the flop: bet.
	d := v.Decide(Prompt{
		Hole:    cards(t, "As Kd"),
		Board:   cards(t, "Ah Kc 7s"),
		Street:  game.Flop,
		Pot:     60,
		Allowed: allowed,
	})
	if d.Type != game.Bet {
		t.Errorf("two pair decision = %s, want bet", d.Type)
	}
	if d.Amount < 20 || d.Amount > 1000 {
		t.Errorf("bet amount %d outside legal window", d.Amount)
	}

	// No pair, no bet.
	d = v.Decide(Prompt{
		Hole:    cards(t, "2s 7d"),
		Board:   cards(t, "Ah Kc 9s"),
		Street:  game.Flop,
		Pot:     60,
		Allowed: allowed,
	})
	if d.Type != game.Check {
		t.Errorf("air decision = %s, want check", d.Type)
	}
}

func TestNewByName(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"caller", "folder", "random", "value"} {
		s, err := New(name, randutil.New(1))
		if err != nil {
			t.Fatalf("New(%q): %v", name, err)
		}
		if s.Name() != name {
			t.Errorf("Name() = %q, want %q", s.Name(), name)
		}
	}
	if _, err := New("gto", nil); err == nil {
		t.Error("unknown strategy should error")
	}
}
