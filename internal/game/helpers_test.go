package game

import (
	"fmt"
	"testing"
	"time"

	"github.com/feltcraft/tabled/poker"
)

// seatPlayers builds a table with one player per stack, seated in order from
// position 0. A stack of 0 leaves the position empty.
func seatPlayers(t *testing.T, cfg Config, stacks []int, opts ...Option) *Table {
	t.Helper()
	if cfg.MaxSeats == 0 {
		cfg.MaxSeats = len(stacks)
	}
	if cfg.BuyInMin == 0 {
		cfg.BuyInMin = 1
	}
	if cfg.BuyInMax == 0 {
		cfg.BuyInMax = 1 << 30
	}
	opts = append(opts, WithNow(func() time.Time { return time.Unix(1700000000, 0) }))
	tbl := NewTable(cfg, opts...)
	for pos, stack := range stacks {
		if stack == 0 {
			continue
		}
		p := &Player{UserID: fmt.Sprintf("u%d", pos), Name: fmt.Sprintf("player%d", pos)}
		got, err := tbl.Reserve(pos, p)
		if err != nil || got != pos {
			t.Fatalf("Reserve(%d) = %d, %v", pos, got, err)
		}
		if err := tbl.CompleteJoin(pos, stack); err != nil {
			t.Fatalf("CompleteJoin(%d, %d): %v", pos, stack, err)
		}
	}
	tbl.TakeEvents()
	return tbl
}

// stackedDeck parses card codes into a deck source that always deals them in
// order.
func stackedDeck(t *testing.T, cards string) func() *poker.Deck {
	t.Helper()
	parsed := poker.MustParseCards(cards)
	return func() *poker.Deck { return poker.NewStackedDeck(parsed...) }
}

// mustApply fails the test if the action is rejected.
func mustApply(t *testing.T, h *Hand, pos int, action ActionType, amount int) {
	t.Helper()
	if _, err := h.Apply(pos, action, amount, "", false); err != nil {
		t.Fatalf("Apply(seat %d, %s, %d): %v", pos, action, amount, err)
	}
}

// totalChips sums live stacks plus everything in the pot.
func totalChips(tbl *Table) int {
	sum := 0
	for _, s := range tbl.Seats {
		sum += s.Stack
	}
	if h := tbl.Hand(); h != nil {
		sum += h.PotTotal()
	}
	return sum
}
