package phh_test

import (
	"strings"
	"testing"
	"time"

	"github.com/feltcraft/tabled/internal/game"
	"github.com/feltcraft/tabled/internal/phh"
	"github.com/feltcraft/tabled/poker"
)

func playedOutTable(t *testing.T) (*game.Table, *game.Hand) {
	t.Helper()
	tbl := game.NewTable(game.Config{
		ID: "t1", Name: "main", MaxSeats: 2,
		SmallBlind: 10, BigBlind: 20, BuyInMin: 1, BuyInMax: 100000,
	}, game.WithDeckSource(func() *poker.Deck {
		cards, err := poker.ParseCards("As Kd Ah Ks 2c 7d 9h Jc 3s")
		if err != nil {
			t.Fatalf("ParseCards: %v", err)
		}
		return poker.NewStackedDeck(cards...)
	}), game.WithNow(func() time.Time {
		return time.Date(2026, time.March, 2, 12, 0, 0, 0, time.UTC)
	}))

	for i, id := range []string{"u1", "u2"} {
		pos, err := tbl.Reserve(i, &game.Player{UserID: id, Name: id})
		if err != nil {
			t.Fatalf("Reserve: %v", err)
		}
		if err := tbl.CompleteJoin(pos, 1000); err != nil {
			t.Fatalf("CompleteJoin: %v", err)
		}
	}
	h, err := tbl.StartHand("h1")
	if err != nil {
		t.Fatalf("StartHand: %v", err)
	}
	for !h.Complete {
		var action game.ActionType
		switch {
		case h.Betting.CurrentBet > h.Seat(h.Actor).StreetBet:
			action = game.Call
		default:
			action = game.Check
		}
		if _, err := h.Apply(h.Actor, action, 0, "", false); err != nil {
			t.Fatalf("Apply: %v", err)
		}
	}
	return tbl, h
}

func TestFromHandCheckedDown(t *testing.T) {
	t.Parallel()

	tbl, h := playedOutTable(t)
	hist, err := phh.FromHand("main", tbl, h, time.Date(2026, time.March, 2, 12, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("FromHand: %v", err)
	}

	if hist.Variant != "NT" || hist.MinBet != 20 {
		t.Errorf("variant/minBet = %s/%d", hist.Variant, hist.MinBet)
	}
	if len(hist.BlindsOrStraddles) != 2 || hist.BlindsOrStraddles[0] != 10 || hist.BlindsOrStraddles[1] != 20 {
		t.Errorf("blinds = %v, want [10 20]", hist.BlindsOrStraddles)
	}
	// Starting stacks reconstruct to the buy-in.
	for i, s := range hist.StartingStacks {
		if s != 1000 {
			t.Errorf("starting stack %d = %d, want 1000", i, s)
		}
	}
	sumFinish := 0
	for _, s := range hist.FinishingStacks {
		sumFinish += s
	}
	if sumFinish != 2000 {
		t.Errorf("finishing stacks sum = %d, want 2000", sumFinish)
	}

	joined := strings.Join(hist.Actions, "\n")
	// Two hole deals, three board deals, and at least one showdown reveal.
	if !strings.Contains(joined, "d dh p1 ") || !strings.Contains(joined, "d dh p2 ") {
		t.Errorf("missing hole deals:\n%s", joined)
	}
	if !strings.Contains(joined, "d db 2c7d9h") {
		t.Errorf("missing flop deal:\n%s", joined)
	}
	if !strings.Contains(joined, "d db Jc") || !strings.Contains(joined, "d db 3s") {
		t.Errorf("missing turn/river deals:\n%s", joined)
	}
	if !strings.Contains(joined, " sm ") {
		t.Errorf("missing showdown reveal:\n%s", joined)
	}

	// The encoded form round-trips through the TOML encoder.
	data, err := phh.EncodeToBytes(hist)
	if err != nil {
		t.Fatalf("EncodeToBytes: %v", err)
	}
	if !strings.Contains(string(data), "variant = \"NT\"") {
		t.Errorf("encoded output missing variant:\n%s", data)
	}
}

func TestFromHandRejectsLiveHand(t *testing.T) {
	t.Parallel()

	tbl := game.NewTable(game.Config{ID: "t1", MaxSeats: 2, SmallBlind: 10, BigBlind: 20, BuyInMin: 1, BuyInMax: 100000})
	for i, id := range []string{"u1", "u2"} {
		pos, _ := tbl.Reserve(i, &game.Player{UserID: id, Name: id})
		_ = tbl.CompleteJoin(pos, 1000)
	}
	h, err := tbl.StartHand("h1")
	if err != nil {
		t.Fatalf("StartHand: %v", err)
	}
	if _, err := phh.FromHand("main", tbl, h, time.Now()); err == nil {
		t.Fatal("expected error for incomplete hand")
	}
}
