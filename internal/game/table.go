// Package game implements the server-authoritative hold'em table engine:
// seats, betting, side pots, and the hand state machine. The engine mutates
// state only from its owning table runtime's command queue and reports every
// change as an Event; it knows nothing about connections or the wire format.
package game

import (
	"fmt"
	"time"

	"github.com/feltcraft/tabled/poker"
)

// Config is a table's fixed configuration.
type Config struct {
	ID         string
	Name       string
	MaxSeats   int
	SmallBlind int
	BigBlind   int
	BuyInMin   int
	BuyInMax   int

	// TurnBudget is the total time an actor has before the scheduler folds
	// or checks for them; Grace is the invisible leading slice of it.
	TurnBudget time.Duration
	Grace      time.Duration
}

// Waitlisted is a joiner queued for the next free seat. Their buy-in is
// already escrowed from the wallet.
type Waitlisted struct {
	Player *Player
	BuyIn  int
}

// Table owns one table's seats, button, and current hand. Seat occupancy is
// claimed by compare-and-swap and may race; everything else is mutated only
// from the table runtime's serialized command queue.
type Table struct {
	Config
	Seats  []*Seat
	Button int

	hand      *Hand
	waitlist  []Waitlisted
	handCount int
	frozen    bool
	events    []Event
	newDeck   func() *poker.Deck
	now       func() time.Time
}

// Option configures a table at construction.
type Option func(*Table)

// WithDeckSource overrides how each hand's deck is produced. Tests inject
// stacked or seeded decks here; production tables always use poker.NewDeck.
func WithDeckSource(source func() *poker.Deck) Option {
	return func(t *Table) { t.newDeck = source }
}

// WithNow overrides the timestamp source for action records.
func WithNow(now func() time.Time) Option {
	return func(t *Table) { t.now = now }
}

// NewTable creates an empty table.
func NewTable(cfg Config, opts ...Option) *Table {
	t := &Table{
		Config:  cfg,
		Seats:   make([]*Seat, cfg.MaxSeats),
		Button:  -1,
		newDeck: poker.NewDeck,
		now:     time.Now,
	}
	for i := range t.Seats {
		t.Seats[i] = &Seat{Position: i}
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Table) emit(ev Event) {
	if _, ok := ev.(TableFrozen); ok {
		t.frozen = true
	}
	t.events = append(t.events, ev)
}

// TakeEvents drains the buffered events in emission order.
func (t *Table) TakeEvents() []Event {
	evs := t.events
	t.events = nil
	return evs
}

// Hand returns the hand in progress, or nil.
func (t *Table) Hand() *Hand {
	if t.hand == nil || t.hand.Complete {
		return nil
	}
	return t.hand
}

// Frozen reports whether an invariant violation has halted the table.
func (t *Table) Frozen() bool { return t.frozen }

// Freeze halts the table for operator intervention.
func (t *Table) Freeze(reason string) {
	if !t.frozen {
		t.emit(TableFrozen{Reason: reason})
	}
}

// SeatOf finds the seat occupied by userID, or nil.
func (t *Table) SeatOf(userID string) *Seat {
	for _, s := range t.Seats {
		if p := s.Occupant(); p != nil && p.UserID == userID {
			return s
		}
	}
	return nil
}

// ValidateBuyIn checks the buy-in against table limits.
func (t *Table) ValidateBuyIn(amount int) error {
	if amount < t.BuyInMin || amount > t.BuyInMax {
		return fmt.Errorf("%w: %d not in [%d, %d]", ErrInvalidBuyIn, amount, t.BuyInMin, t.BuyInMax)
	}
	return nil
}

// Reserve claims a seat for p by compare-and-swap: of two concurrent
// requests for the same seat, exactly one wins. position -1 means take any
// open seat. Reserve is safe to call from outside the command queue; the
// caller completes the join through the queue or rolls back with Release.
func (t *Table) Reserve(position int, p *Player) (int, error) {
	if position >= 0 {
		if position >= len(t.Seats) {
			return -1, fmt.Errorf("%w: seat %d out of range", ErrSeatOccupied, position)
		}
		if !t.Seats[position].reserve(p) {
			return -1, ErrSeatOccupied
		}
		return position, nil
	}
	for _, s := range t.Seats {
		if s.reserve(p) {
			return s.Position, nil
		}
	}
	return -1, ErrTableFull
}

// Release rolls back a reservation whose buy-in failed.
func (t *Table) Release(position int, p *Player) {
	if position >= 0 && position < len(t.Seats) {
		t.Seats[position].release(p)
	}
}

// CompleteJoin finishes a reserved seat's join inside the command queue:
// stack set, dealt in from the next hand.
func (t *Table) CompleteJoin(position, buyIn int) error {
	if err := t.ValidateBuyIn(buyIn); err != nil {
		return err
	}
	s := t.Seats[position]
	p := s.Occupant()
	if p == nil {
		return ErrNotSeated
	}
	s.Stack = buyIn
	s.Status = SeatWaiting
	s.SitOut = false
	t.emit(SeatChanged{Position: position, Change: seatChangeFor(p), Player: p, Stack: buyIn})
	return nil
}

func seatChangeFor(p *Player) string {
	if p.Bot {
		return "bot_added"
	}
	return "seat_taken"
}

// JoinWaitlist queues a joiner whose buy-in is already escrowed.
func (t *Table) JoinWaitlist(p *Player, buyIn int) {
	t.waitlist = append(t.waitlist, Waitlisted{Player: p, BuyIn: buyIn})
}

// Leave frees a seat and returns the stack to refund to the wallet. A leaver
// who is the current hand's actor (or still live in it) is folded first;
// chips already contributed stay in the pot.
func (t *Table) Leave(position int) (int, error) {
	if position < 0 || position >= len(t.Seats) {
		return 0, ErrNotSeated
	}
	s := t.Seats[position]
	p := s.Occupant()
	if p == nil {
		return 0, ErrNotSeated
	}

	refund := s.Stack
	if h := t.Hand(); h != nil && h.Seat(position) != nil {
		h.ForceFold(position)
		refund = s.Stack
		s.Stack = 0
		h.detach(position, refund)
	} else {
		s.Stack = 0
	}
	s.Status = SeatEmpty
	s.SitOut = false
	s.release(p)
	t.emit(SeatChanged{Position: position, Change: "player_left", Player: p})
	return refund, nil
}

// SitOut marks a seat to be skipped by the deal starting with the next hand.
func (t *Table) SitOut(position int) error {
	s, err := t.occupiedSeat(position)
	if err != nil {
		return err
	}
	s.SitOut = true
	if !s.InHand() {
		s.Status = SeatSittingOut
	}
	t.emit(SeatChanged{Position: position, Change: "sitting_out", Player: s.Occupant(), Stack: s.Stack})
	return nil
}

// SitIn returns a sitting-out seat to the deal from the next hand.
func (t *Table) SitIn(position int) error {
	s, err := t.occupiedSeat(position)
	if err != nil {
		return err
	}
	s.SitOut = false
	if !s.InHand() {
		s.Status = SeatWaiting
	}
	t.emit(SeatChanged{Position: position, Change: "sitting_in", Player: s.Occupant(), Stack: s.Stack})
	return nil
}

func (t *Table) occupiedSeat(position int) (*Seat, error) {
	if position < 0 || position >= len(t.Seats) {
		return nil, ErrNotSeated
	}
	s := t.Seats[position]
	if !s.Occupied() {
		return nil, ErrNotSeated
	}
	return s, nil
}

// CanStart reports whether a new hand could be dealt right now.
func (t *Table) CanStart() bool {
	return !t.frozen && t.Hand() == nil && len(t.dealable()) >= 2
}

func (t *Table) dealable() []*Seat {
	var out []*Seat
	for _, s := range t.Seats {
		if s.canDeal() {
			out = append(out, s)
		}
	}
	return out
}

// StartHand rotates the button and deals the next hand.
func (t *Table) StartHand(handID string) (*Hand, error) {
	if t.frozen {
		return nil, fmt.Errorf("table %s is frozen", t.ID)
	}
	if t.Hand() != nil {
		return nil, ErrHandInProgress
	}
	seats := t.dealable()
	if len(seats) < 2 {
		return nil, ErrNotEnoughPlayers
	}

	// Sitting-out and empty seats never hold the button. The first hand
	// starts from position 0, which puts the button on the first dealable
	// seat.
	t.Button = t.nextDealable(t.Button + 1)
	t.handCount++

	t.hand = newHand(handID, seats, len(t.Seats), t.Button, t.SmallBlind, t.BigBlind, t.newDeck(), t.emit, t.now)
	return t.hand, nil
}

func (t *Table) nextDealable(from int) int {
	n := len(t.Seats)
	for i := 0; i < n; i++ {
		pos := ((from + i) % n + n) % n
		if t.Seats[pos].canDeal() {
			return pos
		}
	}
	return -1
}

// ClearHand archives nothing itself; the runtime reads the completed hand
// before calling. Sitting-out requests queued mid-hand take effect here, and
// waitlisted joiners are admitted to freed seats.
func (t *Table) ClearHand() *Hand {
	done := t.hand
	t.hand = nil
	for _, s := range t.Seats {
		if s.Occupied() && s.SitOut {
			s.Status = SeatSittingOut
		}
	}
	t.admitWaitlist()
	return done
}

func (t *Table) admitWaitlist() {
	for len(t.waitlist) > 0 {
		next := t.waitlist[0]
		pos, err := t.Reserve(-1, next.Player)
		if err != nil {
			return
		}
		t.waitlist = t.waitlist[1:]
		if err := t.CompleteJoin(pos, next.BuyIn); err != nil {
			// Escrowed buy-in outside limits should have been rejected at
			// request time; drop the reservation and move on.
			t.Release(pos, next.Player)
		}
	}
}

// Waitlist returns the queued joiners in order.
func (t *Table) Waitlist() []Waitlisted {
	return t.waitlist
}

// OccupiedCount returns how many seats have players.
func (t *Table) OccupiedCount() int {
	n := 0
	for _, s := range t.Seats {
		if s.Occupied() {
			n++
		}
	}
	return n
}
