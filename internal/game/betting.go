package game

// BettingRound tracks one street's bet level, minimum raise, and who still
// owes an action. Acted flags are indexed by table position.
type BettingRound struct {
	CurrentBet int
	MinRaise   int
	LastRaiser int // position of the last full raiser, -1 when none
	BigBlind   int
	BBPos      int  // big blind position, for the preflop option
	BBActed    bool // whether the big blind has acted preflop
	Acted      []bool
}

func newBettingRound(numSeats, bigBlind, bbPos int) *BettingRound {
	return &BettingRound{
		MinRaise:   bigBlind,
		LastRaiser: -1,
		BigBlind:   bigBlind,
		BBPos:      bbPos,
		Acted:      make([]bool, numSeats),
	}
}

// resetForStreet clears per-street state. The min raise resets to the big
// blind; the preflop option no longer applies.
func (br *BettingRound) resetForStreet() {
	br.CurrentBet = 0
	br.MinRaise = br.BigBlind
	br.LastRaiser = -1
	br.BBActed = true
	for i := range br.Acted {
		br.Acted[i] = false
	}
}

// reopen clears acted flags after a full raise; everyone still active must
// respond to the new bet.
func (br *BettingRound) reopen(raiser int) {
	for i := range br.Acted {
		br.Acted[i] = false
	}
	br.Acted[raiser] = true
	br.LastRaiser = raiser
}

// complete reports whether the betting round is closed: every seat that can
// still act has acted since the last full raise and matches the current bet
// (or is all-in short), with the big blind's preflop option honoured.
func (br *BettingRound) complete(seats []*HandSeat, street Street) bool {
	active := 0
	for _, hs := range seats {
		if hs.canAct() {
			active++
		}
	}
	if active == 0 {
		return true
	}

	for _, hs := range seats {
		if !hs.canAct() {
			continue
		}
		if hs.StreetBet != br.CurrentBet {
			return false
		}
		if !br.Acted[hs.Position] {
			return false
		}
	}

	// Preflop the big blind gets the option to raise an unraised pot even
	// though the bets already match.
	if street == Preflop && br.LastRaiser == -1 && !br.BBActed {
		for _, hs := range seats {
			if hs.Position == br.BBPos && hs.canAct() {
				return false
			}
		}
	}
	return true
}

// legalActions computes the actor's options with amount bounds. Amounts for
// bet and raise are totals for the street, not increments, matching the wire
// contract.
func (br *BettingRound) legalActions(hs *HandSeat) []AllowedAction {
	if !hs.canAct() || hs.Stack() <= 0 {
		return nil
	}
	stack := hs.Stack()
	toCall := br.CurrentBet - hs.StreetBet
	maxTotal := hs.StreetBet + stack

	actions := []AllowedAction{{Type: Fold}}

	if toCall <= 0 {
		actions = append(actions, AllowedAction{Type: Check})
		betType := Bet
		if br.CurrentBet > 0 {
			betType = Raise
		}
		minTo := br.CurrentBet + br.MinRaise
		if maxTotal >= minTo {
			actions = append(actions, AllowedAction{Type: betType, MinAmount: minTo, MaxAmount: maxTotal})
		}
	} else {
		callAmount := min(toCall, stack)
		actions = append(actions, AllowedAction{Type: Call, Amount: callAmount})
		minTo := br.CurrentBet + br.MinRaise
		if maxTotal >= minTo {
			actions = append(actions, AllowedAction{Type: Raise, MinAmount: minTo, MaxAmount: maxTotal})
		}
	}

	actions = append(actions, AllowedAction{Type: AllIn, Amount: stack})
	return actions
}
