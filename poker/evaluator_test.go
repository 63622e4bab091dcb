package poker

import "testing"

func mustEval(t *testing.T, cards string) HandRank {
	t.Helper()
	rank, err := Evaluate(MustParseCards(cards)...)
	if err != nil {
		t.Fatalf("Evaluate(%q): %v", cards, err)
	}
	return rank
}

func TestEvaluateCategories(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		cards string
		want  HandType
	}{
		{"royal flush", "AsKsQsJsTs", StraightFlush},
		{"wheel straight flush", "As2s3s4s5s", StraightFlush},
		{"four of a kind", "AsAhAdAcKd", FourOfAKind},
		{"full house", "AsAhAdKdKs", FullHouse},
		{"flush", "AsKsQsJs9s", Flush},
		{"straight", "9c8d7h6s5c", Straight},
		{"wheel straight", "Ah2c3d4s5h", Straight},
		{"three of a kind", "AsAhAd9c5d", ThreeOfAKind},
		{"two pair", "AsAhKdKc9s", TwoPair},
		{"one pair", "AsAhKdQc9s", Pair},
		{"high card", "AsKdQh9c5s", HighCard},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			rank := mustEval(t, tc.cards)
			if rank.Type() != tc.want {
				t.Errorf("Evaluate(%s).Type() = %v, want %v", tc.cards, rank.Type(), tc.want)
			}
			if rank >= rankClassCount {
				t.Errorf("rank %d outside class space", rank)
			}
		})
	}
}

func TestRoyalFlushIsBestPossible(t *testing.T) {
	t.Parallel()
	if rank := mustEval(t, "AsKsQsJsTs"); rank != 0 {
		t.Errorf("royal flush rank = %d, want 0", rank)
	}
}

func TestWheelStraightRanksBelowSixHigh(t *testing.T) {
	t.Parallel()
	wheel := mustEval(t, "Ah2c3d4s5h")
	sixHigh := mustEval(t, "2c3d4s5h6d")
	if CompareHands(sixHigh, wheel) != 1 {
		t.Errorf("six-high straight (%d) should beat wheel (%d)", sixHigh, wheel)
	}

	wheelFlush := mustEval(t, "As2s3s4s5s")
	sixHighFlush := mustEval(t, "2h3h4h5h6h")
	if CompareHands(sixHighFlush, wheelFlush) != 1 {
		t.Errorf("six-high straight flush (%d) should beat wheel flush (%d)", sixHighFlush, wheelFlush)
	}
}

func TestKickerOrdering(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		stronger string
		weaker   string
	}{
		{"flush high card", "AsQs9s7s3s", "KsQs9s7s3s"},
		{"flush last kicker", "AsKsQs9s5s", "AsKsQs9s4s"},
		{"pair kicker", "AsAhKd9c3h", "AcAdQd9h3s"},
		{"two pair low pair", "KsKhQdQc2h", "KdKcJsJhAh"},
		{"two pair kicker", "KsKhQdQcAh", "KdKcQsQhJh"},
		{"trips kicker", "AsAhAdKc5d", "AcAhAdQc5h"},
		{"quads kicker", "AsAhAdAcKd", "AsAhAdAcQd"},
		{"high card fourth kicker", "AsKdQh9c5s", "AhKcQd8s5c"},
		{"full house pair part", "AsAhAdKdKs", "AsAhAdQdQs"},
		{"straight high", "9c8d7h6s5c", "8c7d6h5s4c"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			strong := mustEval(t, tc.stronger)
			weak := mustEval(t, tc.weaker)
			if CompareHands(strong, weak) != 1 {
				t.Errorf("%s (%d) should beat %s (%d)", tc.stronger, strong, tc.weaker, weak)
			}
		})
	}
}

func TestExactTiesAcrossSuits(t *testing.T) {
	t.Parallel()
	// Same ranks, different suits, no flush possible: identical rank.
	a := mustEval(t, "AsKhQdJc9s")
	b := mustEval(t, "AdKcQsJh9d")
	if a != b {
		t.Errorf("suit permutation changed rank: %d vs %d", a, b)
	}
}

func TestEvaluateSevenPicksBestFive(t *testing.T) {
	t.Parallel()
	// Trip aces plus a deuce pair: the full house outranks trips with kickers.
	rank := Evaluate7(NewHand(MustParseCards("2c2dAsAhAdKcQd")...))
	if rank.Type() != FullHouse {
		t.Errorf("expected full house, got %v", rank.Type())
	}

	// Five spades alongside a pair: the flush must win out.
	rank = Evaluate7(NewHand(MustParseCards("As3s8s9sJsKh3d")...))
	if rank.Type() != Flush {
		t.Errorf("expected flush, got %v", rank.Type())
	}
}

func TestEvaluateSixCards(t *testing.T) {
	t.Parallel()
	rank, err := Evaluate(MustParseCards("AsAhKdKc9s2d")...)
	if err != nil {
		t.Fatalf("six-card evaluate: %v", err)
	}
	if rank.Type() != TwoPair {
		t.Errorf("expected two pair, got %v", rank.Type())
	}
}

func TestEvaluateRejectsBadInput(t *testing.T) {
	t.Parallel()
	if _, err := Evaluate(MustParseCards("AsKs")...); err == nil {
		t.Error("two cards should be rejected")
	}
	if _, err := Evaluate(MustParseCards("As2s3s4s5s6s7s8s")...); err == nil {
		t.Error("eight cards should be rejected")
	}

	dup := MustParseCards("AsAsKdQh9c")
	if _, err := Evaluate(dup...); err == nil {
		t.Error("duplicate cards should be rejected")
	}
}

func TestCategoryBoundariesOrdered(t *testing.T) {
	t.Parallel()
	// Weakest member of each category still beats the strongest member below.
	pairs := []struct {
		name   string
		better string
		worse  string
	}{
		{"straight flush over quads", "As2s3s4s5s", "AsAhAdAcKd"},
		{"quads over full house", "2s2h2d2c3d", "AsAhAdKdKh"},
		{"full house over flush", "2s2h2d3c3d", "AsKsQsJs9s"},
		{"flush over straight", "2s3s4s5s7s", "AcKdQhJsTs"},
		{"straight over trips", "Ah2c3d4s5h", "AsAhAdKcQd"},
		{"trips over two pair", "2s2h2d3c4d", "AsAhKdKcQh"},
		{"two pair over pair", "2s2h3d3c4d", "AsAhKdQcJh"},
		{"pair over high card", "2s2h3d4c5d", "AsKdQh9c5s"},
	}

	for _, tc := range pairs {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			better := mustEval(t, tc.better)
			worse := mustEval(t, tc.worse)
			if CompareHands(better, worse) != 1 {
				t.Errorf("%s (%d) should beat %s (%d)", tc.better, better, tc.worse, worse)
			}
		})
	}
}

func BenchmarkEvaluate7(b *testing.B) {
	hand := NewHand(MustParseCards("AsKh9d4c2sJhJd")...)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Evaluate7(hand)
	}
}
