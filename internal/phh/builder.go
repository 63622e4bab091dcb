package phh

import (
	"fmt"
	"strings"
	"time"

	"github.com/feltcraft/tabled/internal/game"
	"github.com/feltcraft/tabled/poker"
)

// FromHand converts a completed hand into a PHH history. Player indices
// follow deal order, small blind first, so blinds_or_straddles is always
// [sb, bb, 0, ...]. Starting stacks are reconstructed from finishing stacks,
// contributions, and winnings.
func FromHand(tableName string, t *game.Table, h *game.Hand, when time.Time) (*HandHistory, error) {
	if h == nil || !h.Complete {
		return nil, fmt.Errorf("phh: hand is not complete")
	}

	// Deal-order positions, small blind first.
	positions := dealOrder(t, h)
	if len(positions) < 2 {
		return nil, fmt.Errorf("phh: hand has %d seats", len(positions))
	}
	index := make(map[int]int, len(positions)) // table position -> 1-based player
	for i, pos := range positions {
		index[pos] = i + 1
	}

	winnings := make([]int, len(positions))
	for _, w := range h.Winners {
		if i, ok := index[w.Position]; ok {
			winnings[i-1] = w.Amount
		}
	}

	hist := &HandHistory{
		Variant:           "NT",
		Table:             tableName,
		SeatCount:         len(t.Seats),
		Antes:             make([]int, len(positions)),
		BlindsOrStraddles: make([]int, len(positions)),
		MinBet:            t.BigBlind,
		Winnings:          winnings,
		HandID:            h.ID,
		Time:              when.UTC().Format("15:04:05"),
		TimeZone:          "UTC",
		Day:               when.UTC().Day(),
		Month:             int(when.UTC().Month()),
		Year:              when.UTC().Year(),
		Timestamp:         when,
	}
	hist.BlindsOrStraddles[0] = t.SmallBlind
	hist.BlindsOrStraddles[1] = t.BigBlind

	for _, pos := range positions {
		hs := h.Seat(pos)
		hist.Seats = append(hist.Seats, pos+1)
		hist.Players = append(hist.Players, hs.Player.Name)
		finishing := hs.Stack()
		starting := finishing + hs.TotalBet
		if i, ok := index[pos]; ok {
			starting -= winnings[i-1]
		}
		hist.StartingStacks = append(hist.StartingStacks, starting)
		hist.FinishingStacks = append(hist.FinishingStacks, finishing)
	}

	// Hole card deals, then the betting log with board reveals interleaved
	// at street boundaries.
	for _, pos := range positions {
		hs := h.Seat(pos)
		hist.Actions = append(hist.Actions,
			fmt.Sprintf("d dh p%d %s", index[pos], joinCards(hs.Hole)))
	}

	street := game.Preflop
	for _, rec := range h.Log {
		for street < rec.Street {
			street++
			if deal, ok := boardDeal(h.Board, street); ok {
				hist.Actions = append(hist.Actions, deal)
			}
		}
		if line, ok := FormatAction(index[rec.Position]-1, rec.Type.String(), rec.Amount); ok {
			hist.Actions = append(hist.Actions, line)
		}
	}
	// Streets dealt after the last action (all-in run-outs).
	for street < game.River && boardHasStreet(h.Board, street+1) {
		street++
		if deal, ok := boardDeal(h.Board, street); ok {
			hist.Actions = append(hist.Actions, deal)
		}
	}

	// Showdown reveals.
	for _, rev := range h.Reveals {
		hist.Actions = append(hist.Actions,
			fmt.Sprintf("p%d sm %s", index[rev.Position], joinCards(rev.HoleCards)))
	}
	return hist, nil
}

// dealOrder lists the dealt-in positions clockwise from the small blind.
func dealOrder(t *game.Table, h *game.Hand) []int {
	n := len(t.Seats)
	var out []int
	for i := 0; i < n; i++ {
		pos := (h.SBPos + i) % n
		if h.Seat(pos) != nil {
			out = append(out, pos)
		}
	}
	return out
}

func boardHasStreet(board []poker.Card, s game.Street) bool {
	switch s {
	case game.Flop:
		return len(board) >= 3
	case game.Turn:
		return len(board) >= 4
	case game.River:
		return len(board) >= 5
	}
	return false
}

func boardDeal(board []poker.Card, s game.Street) (string, bool) {
	var cards []poker.Card
	switch s {
	case game.Flop:
		if len(board) < 3 {
			return "", false
		}
		cards = board[0:3]
	case game.Turn:
		if len(board) < 4 {
			return "", false
		}
		cards = board[3:4]
	case game.River:
		if len(board) < 5 {
			return "", false
		}
		cards = board[4:5]
	default:
		return "", false
	}
	return "d db " + joinCards(cards), true
}

func joinCards(cards []poker.Card) string {
	parts := make([]string, len(cards))
	for i, c := range cards {
		parts[i] = NormalizeCard(c.String())
	}
	return strings.Join(parts, "")
}
