package game

import (
	"fmt"
	"time"

	"github.com/feltcraft/tabled/poker"
)

// HandSeat is one seat's per-hand state. The live stack stays on the table
// Seat; the hand tracks only what this seat has contributed and whether it
// can still act.
type HandSeat struct {
	Position  int
	Player    Player // identity copied at deal time
	Hole      []poker.Card
	Folded    bool
	AllIn     bool
	StreetBet int // contributed this street
	TotalBet  int // contributed this hand

	seat *Seat
}

// Stack returns the seat's live chip stack.
func (hs *HandSeat) Stack() int { return hs.seat.Stack }

func (hs *HandSeat) canAct() bool { return !hs.Folded && !hs.AllIn }

// Hand sequences one deal from blinds to payout. All mutation happens inside
// the owning table's command queue; Hand itself is not goroutine-safe.
type Hand struct {
	ID     string
	Street Street
	Board  []poker.Card
	Button int
	SBPos  int
	BBPos  int

	// Actor is the position due to act, -1 when none. TurnSeq increments on
	// every actor change and stale turn timers are discarded against it.
	Actor   int
	TurnSeq int

	Betting *BettingRound
	Log     []ActionRecord

	// Set once the hand completes.
	Complete bool
	Winners  []Winning
	Reveals  []ShowdownResult

	seats      []*HandSeat // indexed by table position, nil when not dealt in
	deck       *poker.Deck
	pots       *potManager
	smallBlind int
	bigBlind   int
	baseline   int // chips in play at deal time, for conservation checks
	emit       func(Event)
	now        func() time.Time
}

// newHand deals a fresh hand among the given seats. The caller (the table)
// has already picked the button and verified at least two seats can play.
func newHand(id string, seats []*Seat, numSeats, button, smallBlind, bigBlind int, deck *poker.Deck, emit func(Event), now func() time.Time) *Hand {
	h := &Hand{
		ID:         id,
		Street:     Preflop,
		Button:     button,
		Actor:      -1,
		seats:      make([]*HandSeat, numSeats),
		deck:       deck,
		pots:       newPotManager(),
		smallBlind: smallBlind,
		bigBlind:   bigBlind,
		emit:       emit,
		now:        now,
	}

	dealt := make([]int, 0, len(seats))
	for _, s := range seats {
		s.Status = SeatActive
		hs := &HandSeat{Position: s.Position, Player: *s.Occupant(), seat: s}
		h.seats[s.Position] = hs
		h.baseline += s.Stack
		dealt = append(dealt, s.Position)
	}

	// Blind positions: heads-up the button posts the small blind; otherwise
	// the blinds are the next two dealt seats clockwise of the button.
	if len(dealt) == 2 {
		h.SBPos = button
		h.BBPos = h.nextDealt(button + 1)
	} else {
		h.SBPos = h.nextDealt(button + 1)
		h.BBPos = h.nextDealt(h.SBPos + 1)
	}

	// Two passes, one card at a time, starting from the small blind.
	for pass := 0; pass < 2; pass++ {
		pos := h.SBPos
		for range dealt {
			hs := h.seats[pos]
			card, ok := deck.DealOne()
			if !ok {
				panic(fmt.Sprintf("game: deck exhausted dealing hand %s", id))
			}
			hs.Hole = append(hs.Hole, card)
			pos = h.nextDealt(pos + 1)
		}
	}

	h.Betting = newBettingRound(numSeats, bigBlind, h.BBPos)
	h.postBlind(h.SBPos, smallBlind, false)
	h.postBlind(h.BBPos, bigBlind, true)
	h.Betting.CurrentBet = bigBlind

	order := make([]int, 0, len(dealt))
	pos := h.SBPos
	for range dealt {
		order = append(order, pos)
		pos = h.nextDealt(pos + 1)
	}
	h.emit(HandStarted{
		HandID:     id,
		Button:     button,
		SBPos:      h.SBPos,
		BBPos:      h.BBPos,
		SmallBlind: smallBlind,
		BigBlind:   bigBlind,
		Positions:  order,
		Pot:        h.PotTotal(),
	})

	h.Actor = h.nextActor(h.BBPos + 1)
	if h.Actor == -1 || h.Betting.complete(h.dealtSeats(), h.Street) {
		// Both blinds all-in off the deal; run the board out.
		h.closeStreet()
	} else {
		h.startTurn()
	}
	return h
}

func (h *Hand) postBlind(pos, amount int, big bool) {
	hs := h.seats[pos]
	h.commit(hs, min(amount, hs.Stack()))
	h.emit(BlindPosted{Position: pos, Amount: hs.StreetBet, Big: big})
}

// commit moves chips from the seat's stack into its street bet.
func (h *Hand) commit(hs *HandSeat, amount int) {
	hs.seat.Stack -= amount
	hs.StreetBet += amount
	hs.TotalBet += amount
	if hs.seat.Stack == 0 {
		hs.AllIn = true
		hs.seat.Status = SeatAllIn
	}
}

// Seat returns the hand state for a position, or nil when the seat was not
// dealt in.
func (h *Hand) Seat(pos int) *HandSeat {
	if pos < 0 || pos >= len(h.seats) {
		return nil
	}
	return h.seats[pos]
}

// Seats lists the dealt-in seats in position order.
func (h *Hand) dealtSeats() []*HandSeat {
	out := make([]*HandSeat, 0, len(h.seats))
	for _, hs := range h.seats {
		if hs != nil {
			out = append(out, hs)
		}
	}
	return out
}

// PotTotal is the collected pots plus the current street's pending bets.
func (h *Hand) PotTotal() int {
	total := h.pots.Total()
	for _, hs := range h.dealtSeats() {
		total += hs.StreetBet
	}
	return total
}

// Pots returns the pot partition as of the last street close.
func (h *Hand) Pots() []Pot { return h.pots.Pots() }

// LegalActions returns the current actor's options, or nil when the position
// is not due to act.
func (h *Hand) LegalActions(pos int) []AllowedAction {
	if h.Complete || pos != h.Actor {
		return nil
	}
	return h.Betting.legalActions(h.seats[pos])
}

func (h *Hand) nextDealt(from int) int {
	n := len(h.seats)
	for i := 0; i < n; i++ {
		pos := ((from + i) % n + n) % n
		if h.seats[pos] != nil {
			return pos
		}
	}
	return -1
}

func (h *Hand) nextActor(from int) int {
	n := len(h.seats)
	for i := 0; i < n; i++ {
		pos := ((from + i) % n + n) % n
		if hs := h.seats[pos]; hs != nil && hs.canAct() {
			return pos
		}
	}
	return -1
}

func (h *Hand) remaining() []*HandSeat {
	out := make([]*HandSeat, 0, len(h.seats))
	for _, hs := range h.dealtSeats() {
		if !hs.Folded {
			out = append(out, hs)
		}
	}
	return out
}

// Apply validates and executes one action for the given position. Synthetic
// marks timer-injected actions for the audit log and events. The returned
// record is what was actually applied after normalization (a short call is an
// all-in, a full-stack raise is an all-in).
func (h *Hand) Apply(pos int, action ActionType, amount int, requestID string, synthetic bool) (ActionRecord, error) {
	if h.Complete {
		return ActionRecord{}, ErrNoHand
	}
	if pos != h.Actor {
		return ActionRecord{}, ErrNotYourTurn
	}
	hs := h.seats[pos]
	if hs == nil || !hs.canAct() {
		return ActionRecord{}, ErrInvalidActorState
	}

	toCall := h.Betting.CurrentBet - hs.StreetBet

	switch action {
	case Fold:
		hs.Folded = true
		hs.seat.Status = SeatFolded

	case Check:
		if toCall != 0 {
			return ActionRecord{}, fmt.Errorf("%w: must call %d or fold", ErrIllegalAction, toCall)
		}

	case Call:
		if toCall <= 0 {
			return ActionRecord{}, fmt.Errorf("%w: nothing to call", ErrIllegalAction)
		}
		h.commit(hs, min(toCall, hs.Stack()))

	case Bet, Raise:
		if err := h.applyRaise(hs, amount); err != nil {
			return ActionRecord{}, err
		}

	case AllIn:
		if hs.Stack() <= 0 {
			return ActionRecord{}, fmt.Errorf("%w: no chips behind", ErrIllegalAction)
		}
		h.commit(hs, hs.Stack())
		if hs.StreetBet > h.Betting.CurrentBet {
			raiseSize := hs.StreetBet - h.Betting.CurrentBet
			if raiseSize >= h.Betting.MinRaise {
				h.Betting.MinRaise = raiseSize
				h.Betting.reopen(pos)
			}
			h.Betting.CurrentBet = hs.StreetBet
		}

	default:
		return ActionRecord{}, ErrUnsupportedAction
	}

	h.Betting.Acted[pos] = true
	if h.Street == Preflop && pos == h.Betting.BBPos {
		h.Betting.BBActed = true
	}

	applied := action
	if hs.AllIn && action != Fold && action != Check {
		applied = AllIn
	}
	rec := ActionRecord{
		RequestID: requestID,
		Position:  pos,
		Type:      applied,
		Amount:    hs.StreetBet,
		Street:    h.Street,
		Timestamp: h.now(),
	}
	if applied == Fold || applied == Check {
		rec.Amount = 0
	}
	h.Log = append(h.Log, rec)
	h.emit(ActionApplied{
		Position:  pos,
		Type:      applied,
		Amount:    rec.Amount,
		Pot:       h.PotTotal(),
		Street:    h.Street,
		Synthetic: synthetic,
	})

	h.advanceFrom(pos)
	if err := h.checkConservation(); err != nil {
		return rec, err
	}
	return rec, nil
}

// applyRaise handles bet/raise with amount as the total street bet target.
func (h *Hand) applyRaise(hs *HandSeat, amount int) error {
	maxTotal := hs.StreetBet + hs.Stack()
	if amount > maxTotal {
		return fmt.Errorf("%w: raise to %d exceeds stack", ErrIllegalAction, amount)
	}
	if amount <= h.Betting.CurrentBet {
		return fmt.Errorf("%w: raise must exceed current bet %d", ErrIllegalAction, h.Betting.CurrentBet)
	}
	minTo := h.Betting.CurrentBet + h.Betting.MinRaise
	if amount < minTo && amount != maxTotal {
		return fmt.Errorf("%w: minimum raise is to %d", ErrIllegalAction, minTo)
	}

	raiseSize := amount - h.Betting.CurrentBet
	h.commit(hs, amount-hs.StreetBet)
	if raiseSize >= h.Betting.MinRaise {
		// A full raise resets the minimum and reopens the action.
		h.Betting.MinRaise = raiseSize
		h.Betting.reopen(hs.Position)
	}
	h.Betting.CurrentBet = amount
	return nil
}

// ForceFold folds a seat out of turn: disconnects, leaves, protocol
// violations. It never errors; folding a folded or absent seat is a no-op.
func (h *Hand) ForceFold(pos int) {
	if h.Complete {
		return
	}
	hs := h.Seat(pos)
	if hs == nil || hs.Folded {
		return
	}
	hs.Folded = true
	hs.seat.Status = SeatFolded
	h.Betting.Acted[pos] = true
	if h.Street == Preflop && pos == h.Betting.BBPos {
		h.Betting.BBActed = true
	}
	rec := ActionRecord{Position: pos, Type: Fold, Street: h.Street, Timestamp: h.now()}
	h.Log = append(h.Log, rec)
	h.emit(ActionApplied{Position: pos, Type: Fold, Pot: h.PotTotal(), Street: h.Street, Synthetic: true})

	if pos == h.Actor {
		h.advanceFrom(pos)
	} else if len(h.remaining()) <= 1 {
		h.finishByFold()
	} else if h.Betting.complete(h.dealtSeats(), h.Street) {
		h.closeStreet()
	}
}

// advanceFrom moves the turn on after position pos acted or folded.
func (h *Hand) advanceFrom(pos int) {
	if len(h.remaining()) <= 1 {
		h.finishByFold()
		return
	}
	if h.Betting.complete(h.dealtSeats(), h.Street) {
		h.closeStreet()
		return
	}
	h.Actor = h.nextActor(pos + 1)
	h.startTurn()
}

func (h *Hand) startTurn() {
	h.TurnSeq++
	h.emit(TurnStarted{
		Position:   h.Actor,
		TurnSeq:    h.TurnSeq,
		CurrentBet: h.Betting.CurrentBet,
		Allowed:    h.Betting.legalActions(h.seats[h.Actor]),
	})
}

// closeStreet sweeps the street's bets into the pots and either deals the
// next street or runs the showdown. When no further betting is possible the
// remaining streets are dealt in order before showdown.
func (h *Hand) closeStreet() {
	h.refundUncalled()
	for _, hs := range h.dealtSeats() {
		hs.StreetBet = 0
	}
	h.pots.rebuild(h.dealtSeats())

	contributed := 0
	for _, hs := range h.dealtSeats() {
		contributed += hs.TotalBet
	}
	if h.pots.Total() != contributed {
		h.freeze(fmt.Sprintf("pots %d != contributions %d", h.pots.Total(), contributed))
		return
	}

	if h.Street == River {
		h.runShowdown()
		return
	}

	h.Street++
	var reveal []poker.Card
	switch h.Street {
	case Flop:
		reveal = h.deck.Deal(3)
	case Turn, River:
		reveal = h.deck.Deal(1)
	}
	h.Board = append(h.Board, reveal...)
	h.emit(StreetDealt{Street: h.Street, Cards: reveal, Pot: h.PotTotal()})

	h.Betting.resetForStreet()

	// With fewer than two seats able to act there is no more betting: keep
	// dealing until the river and show down.
	active := 0
	for _, hs := range h.dealtSeats() {
		if hs.canAct() {
			active++
		}
	}
	if active < 2 {
		h.Actor = -1
		h.closeStreet()
		return
	}
	h.Actor = h.nextActor(h.Button + 1)
	h.startTurn()
}

// refundUncalled returns the uncalled excess to the lone deepest bettor.
// Folded seats never take a refund; their street bet is forfeit but still
// bounds what the deepest live bettor can take back.
func (h *Hand) refundUncalled() {
	deepest := (*HandSeat)(nil)
	second := 0
	for _, hs := range h.dealtSeats() {
		if hs.Folded {
			if hs.StreetBet > second {
				second = hs.StreetBet
			}
			continue
		}
		if deepest == nil || hs.StreetBet > deepest.StreetBet {
			if deepest != nil && deepest.StreetBet > second {
				second = deepest.StreetBet
			}
			deepest = hs
		} else if hs.StreetBet > second {
			second = hs.StreetBet
		}
	}
	if deepest == nil || deepest.StreetBet <= second {
		return
	}
	refund := deepest.StreetBet - second
	deepest.StreetBet -= refund
	deepest.TotalBet -= refund
	deepest.seat.Stack += refund
	if deepest.AllIn && deepest.seat.Stack > 0 {
		deepest.AllIn = false
		deepest.seat.Status = SeatActive
	}
	h.emit(PotReturned{Position: deepest.Position, Amount: refund})
}

// finishByFold ends the hand when one player remains. Nothing is revealed:
// not the winner's hole cards and not the undealt board.
func (h *Hand) finishByFold() {
	h.refundUncalled()
	for _, hs := range h.dealtSeats() {
		hs.StreetBet = 0
	}
	h.pots.rebuild(h.dealtSeats())

	remaining := h.remaining()
	if len(remaining) != 1 {
		h.freeze(fmt.Sprintf("fold finish with %d players remaining", len(remaining)))
		return
	}
	winner := remaining[0]
	total := h.pots.Total()
	winner.seat.Stack += total
	h.Winners = []Winning{{Position: winner.Position, Amount: total}}
	h.finish()
}

// runShowdown evaluates every remaining seat's best five of seven and pays
// each pot to its best eligible hands, odd chips clockwise from the button.
func (h *Hand) runShowdown() {
	h.Street = Showdown
	h.Actor = -1

	board := poker.NewHand(h.Board...)
	ranks := make(map[int]poker.HandRank)
	for _, hs := range h.remaining() {
		rank := poker.Evaluate7(poker.NewHand(hs.Hole...) | board)
		ranks[hs.Position] = rank
		h.Reveals = append(h.Reveals, ShowdownResult{
			Position:  hs.Position,
			HoleCards: hs.Hole,
			Rank:      rank,
		})
	}

	payouts := make(map[int]int)
	for _, pot := range h.pots.Pots() {
		best := []int{}
		for _, pos := range pot.Eligible {
			if len(best) == 0 {
				best = []int{pos}
				continue
			}
			switch poker.CompareHands(ranks[pos], ranks[best[0]]) {
			case 1:
				best = []int{pos}
			case 0:
				best = append(best, pos)
			}
		}
		for pos, amount := range awardPot(pot, best, h.Button, len(h.seats)) {
			payouts[pos] += amount
		}
	}

	for _, hs := range h.dealtSeats() {
		if amount, ok := payouts[hs.Position]; ok && amount > 0 {
			hs.seat.Stack += amount
			h.Winners = append(h.Winners, Winning{Position: hs.Position, Amount: amount})
		}
	}
	h.finish()
}

func (h *Hand) finish() {
	h.Complete = true
	h.Actor = -1
	for _, hs := range h.dealtSeats() {
		if hs.seat.Occupied() {
			hs.seat.Status = SeatWaiting
		}
	}
	h.emit(HandEnded{
		HandID:   h.ID,
		Winners:  h.Winners,
		Showdown: h.Reveals,
		Board:    h.Board,
		Pot:      h.pots.Total(),
	})
	if err := h.finalConservation(); err != nil {
		h.freeze(err.Error())
	}
}

// checkConservation verifies mid-hand that stacks plus contributions equal
// the chips that started the hand. Once the hand is complete the pots have
// been paid into stacks and finalConservation has already run.
func (h *Hand) checkConservation() error {
	if h.Complete {
		return nil
	}
	sum := 0
	for _, hs := range h.dealtSeats() {
		sum += hs.seat.Stack + hs.TotalBet
	}
	if sum != h.baseline {
		return fmt.Errorf("%w: have %d, started with %d", ErrChipConservation, sum, h.baseline)
	}
	return nil
}

// finalConservation verifies after payout that every contributed chip came
// back out as a stack.
func (h *Hand) finalConservation() error {
	if !h.Complete {
		return nil
	}
	sum := 0
	for _, hs := range h.dealtSeats() {
		sum += hs.seat.Stack
	}
	if sum != h.baseline {
		return fmt.Errorf("%w: final stacks %d, started with %d", ErrChipConservation, sum, h.baseline)
	}
	return nil
}

// detach removes a leaver's remaining stack from the conservation baseline
// and unhooks the hand from the table seat, which may be re-occupied before
// the hand ends. Contributed chips stay in the pot.
func (h *Hand) detach(pos, refunded int) {
	hs := h.Seat(pos)
	if hs == nil {
		return
	}
	h.baseline -= refunded
	hs.seat = &Seat{Position: pos, Status: SeatFolded}
}

func (h *Hand) freeze(reason string) {
	h.Complete = true
	h.Actor = -1
	h.emit(TableFrozen{Reason: reason})
}
