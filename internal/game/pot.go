package game

import "sort"

// Pot is the main pot or one side pot. Eligible lists the seat positions that
// can win it: the non-folded players who contributed to its stratum.
type Pot struct {
	Amount   int   `json:"amount"`
	Eligible []int `json:"eligible"`
}

// potManager rebuilds the pot partition from total contributions whenever a
// betting round closes. Rebuilding from totals rather than patching
// incrementally keeps the conservation invariant trivially checkable: the
// pots always sum to exactly the chips contributed so far.
type potManager struct {
	pots      []Pot
	collected int // total chips swept out of street bets
}

func newPotManager() *potManager {
	return &potManager{}
}

// Total returns the chips across all pots.
func (pm *potManager) Total() int {
	total := 0
	for _, p := range pm.pots {
		total += p.Amount
	}
	return total
}

// Pots returns the current partition, main pot first.
func (pm *potManager) Pots() []Pot {
	return pm.pots
}

// rebuild partitions every seat's total contribution into strata bounded by
// the distinct all-in totals. Folded players' chips stay in the pots they
// contributed to; only non-folded contributors are eligible to win a stratum.
func (pm *potManager) rebuild(seats []*HandSeat) {
	levels := map[int]bool{}
	for _, hs := range seats {
		if hs.AllIn && hs.TotalBet > 0 {
			levels[hs.TotalBet] = true
		}
	}
	// The deepest contribution caps the final stratum.
	maxTotal := 0
	for _, hs := range seats {
		if hs.TotalBet > maxTotal {
			maxTotal = hs.TotalBet
		}
	}
	levels[maxTotal] = true

	bounds := make([]int, 0, len(levels))
	for lvl := range levels {
		bounds = append(bounds, lvl)
	}
	sort.Ints(bounds)

	pm.pots = pm.pots[:0]
	prev := 0
	for _, bound := range bounds {
		if bound <= prev {
			continue
		}
		pot := Pot{}
		for _, hs := range seats {
			contrib := min(hs.TotalBet, bound) - prev
			if contrib <= 0 {
				continue
			}
			pot.Amount += contrib
			if !hs.Folded {
				pot.Eligible = append(pot.Eligible, hs.Position)
			}
		}
		sort.Ints(pot.Eligible)
		if pot.Amount > 0 {
			pm.pots = append(pm.pots, pot)
		}
		prev = bound
	}

	pm.collected = 0
	for _, p := range pm.pots {
		pm.collected += p.Amount
	}
}

// award splits one pot across its winners. The remainder of an uneven split
// goes one chip at a time to winners ordered clockwise starting from the
// first seat left of the button.
func awardPot(pot Pot, winners []int, button, numSeats int) map[int]int {
	payouts := make(map[int]int, len(winners))
	if len(winners) == 0 {
		return payouts
	}
	share := pot.Amount / len(winners)
	remainder := pot.Amount % len(winners)
	for _, w := range winners {
		payouts[w] = share
	}
	for i := 1; i <= numSeats && remainder > 0; i++ {
		pos := (button + i) % numSeats
		if _, ok := payouts[pos]; ok {
			payouts[pos]++
			remainder--
		}
	}
	return payouts
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
