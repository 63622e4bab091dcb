package game

import (
	"fmt"

	"github.com/feltcraft/tabled/poker"
)

// Records are the full, unredacted serialized form of a table used for crash
// recovery. They carry hole cards and the undealt deck; they are written to
// the snapshot store only, never to a client.

// TableRecord is a point-in-time serialization of a table.
type TableRecord struct {
	ID        string           `json:"id"`
	Button    int              `json:"button"`
	HandCount int              `json:"handCount"`
	Seats     []SeatRecord     `json:"seats"`
	Waitlist  []WaitlistRecord `json:"waitlist,omitempty"`
	Hand      *HandRecord      `json:"hand,omitempty"`
}

// SeatRecord is one seat's persistent state.
type SeatRecord struct {
	Position int        `json:"position"`
	Player   *Player    `json:"player,omitempty"`
	Stack    int        `json:"stack"`
	Status   SeatStatus `json:"status"`
	SitOut   bool       `json:"sitOut,omitempty"`
}

// WaitlistRecord is one escrowed waitlist entry.
type WaitlistRecord struct {
	Player Player `json:"player"`
	BuyIn  int    `json:"buyIn"`
}

// HandRecord is an in-progress hand's full state, including the undealt deck
// so future streets come from the same shuffle, never a fresh one.
type HandRecord struct {
	ID       string           `json:"id"`
	Street   Street           `json:"street"`
	Board    []poker.Card     `json:"board"`
	Button   int              `json:"button"`
	SBPos    int              `json:"sbPos"`
	BBPos    int              `json:"bbPos"`
	Actor    int              `json:"actor"`
	TurnSeq  int              `json:"turnSeq"`
	Baseline int              `json:"baseline"`
	Betting  BettingRecord    `json:"betting"`
	Seats    []HandSeatRecord `json:"seats"`
	Pots     []Pot            `json:"pots"`
	Deck     []poker.Card     `json:"deck"`
	Log      []ActionRecord   `json:"log"`

	// TurnDeadline is the pending actor's absolute deadline in unix
	// milliseconds, filled in by the table runtime before the snapshot is
	// written. Zero when no turn was live.
	TurnDeadline int64 `json:"turnDeadline,omitempty"`
}

// BettingRecord is the betting round's persistent state.
type BettingRecord struct {
	CurrentBet int    `json:"currentBet"`
	MinRaise   int    `json:"minRaise"`
	LastRaiser int    `json:"lastRaiser"`
	BBActed    bool   `json:"bbActed"`
	Acted      []bool `json:"acted"`
}

// HandSeatRecord is one dealt-in seat's hand state.
type HandSeatRecord struct {
	Position  int          `json:"position"`
	Player    Player       `json:"player"`
	Hole      []poker.Card `json:"hole"`
	Folded    bool         `json:"folded"`
	AllIn     bool         `json:"allIn"`
	StreetBet int          `json:"streetBet"`
	TotalBet  int          `json:"totalBet"`
}

// Record serializes the table and any in-progress hand.
func (t *Table) Record() *TableRecord {
	rec := &TableRecord{
		ID:        t.ID,
		Button:    t.Button,
		HandCount: t.handCount,
		Seats:     make([]SeatRecord, len(t.Seats)),
	}
	for i, s := range t.Seats {
		rec.Seats[i] = SeatRecord{
			Position: s.Position,
			Player:   s.Occupant(),
			Stack:    s.Stack,
			Status:   s.Status,
			SitOut:   s.SitOut,
		}
	}
	for _, w := range t.waitlist {
		rec.Waitlist = append(rec.Waitlist, WaitlistRecord{Player: *w.Player, BuyIn: w.BuyIn})
	}
	if h := t.Hand(); h != nil {
		rec.Hand = h.record()
	}
	return rec
}

func (h *Hand) record() *HandRecord {
	rec := &HandRecord{
		ID:       h.ID,
		Street:   h.Street,
		Board:    append([]poker.Card(nil), h.Board...),
		Button:   h.Button,
		SBPos:    h.SBPos,
		BBPos:    h.BBPos,
		Actor:    h.Actor,
		TurnSeq:  h.TurnSeq,
		Baseline: h.baseline,
		Betting: BettingRecord{
			CurrentBet: h.Betting.CurrentBet,
			MinRaise:   h.Betting.MinRaise,
			LastRaiser: h.Betting.LastRaiser,
			BBActed:    h.Betting.BBActed,
			Acted:      append([]bool(nil), h.Betting.Acted...),
		},
		Pots: append([]Pot(nil), h.pots.Pots()...),
		Deck: h.deck.Remaining(),
		Log:  append([]ActionRecord(nil), h.Log...),
	}
	for _, hs := range h.dealtSeats() {
		rec.Seats = append(rec.Seats, HandSeatRecord{
			Position:  hs.Position,
			Player:    hs.Player,
			Hole:      append([]poker.Card(nil), hs.Hole...),
			Folded:    hs.Folded,
			AllIn:     hs.AllIn,
			StreetBet: hs.StreetBet,
			TotalBet:  hs.TotalBet,
		})
	}
	return rec
}

// Restore rebuilds a table, and any in-progress hand, from a record. Hole
// cards and the deck come from the record; nothing is re-randomized.
func Restore(rec *TableRecord, cfg Config, opts ...Option) (*Table, error) {
	if len(rec.Seats) != cfg.MaxSeats {
		return nil, fmt.Errorf("game: snapshot has %d seats, table %s is configured for %d", len(rec.Seats), cfg.ID, cfg.MaxSeats)
	}
	t := NewTable(cfg, opts...)
	t.Button = rec.Button
	t.handCount = rec.HandCount
	for i, sr := range rec.Seats {
		s := t.Seats[i]
		if sr.Player != nil {
			s.occupant.Store(sr.Player)
		}
		s.Stack = sr.Stack
		s.Status = sr.Status
		s.SitOut = sr.SitOut
	}
	for _, w := range rec.Waitlist {
		p := w.Player
		t.waitlist = append(t.waitlist, Waitlisted{Player: &p, BuyIn: w.BuyIn})
	}
	if rec.Hand != nil {
		h, err := t.restoreHand(rec.Hand)
		if err != nil {
			return nil, err
		}
		t.hand = h
	}
	return t, nil
}

func (t *Table) restoreHand(rec *HandRecord) (*Hand, error) {
	h := &Hand{
		ID:         rec.ID,
		Street:     rec.Street,
		Board:      append([]poker.Card(nil), rec.Board...),
		Button:     rec.Button,
		SBPos:      rec.SBPos,
		BBPos:      rec.BBPos,
		Actor:      rec.Actor,
		TurnSeq:    rec.TurnSeq,
		baseline:   rec.Baseline,
		seats:      make([]*HandSeat, len(t.Seats)),
		deck:       poker.NewStackedDeck(rec.Deck...),
		pots:       newPotManager(),
		smallBlind: t.SmallBlind,
		bigBlind:   t.BigBlind,
		emit:       t.emit,
		now:        t.now,
		Log:        append([]ActionRecord(nil), rec.Log...),
	}
	h.Betting = &BettingRound{
		CurrentBet: rec.Betting.CurrentBet,
		MinRaise:   rec.Betting.MinRaise,
		LastRaiser: rec.Betting.LastRaiser,
		BigBlind:   t.BigBlind,
		BBPos:      rec.BBPos,
		BBActed:    rec.Betting.BBActed,
		Acted:      append([]bool(nil), rec.Betting.Acted...),
	}
	h.pots.pots = append([]Pot(nil), rec.Pots...)
	for _, sr := range rec.Seats {
		if sr.Position < 0 || sr.Position >= len(t.Seats) {
			return nil, fmt.Errorf("game: hand snapshot seat %d out of range", sr.Position)
		}
		seat := t.Seats[sr.Position]
		if !seat.Occupied() {
			// The occupant left while the snapshot was in flight; their
			// contributed chips stay in the pot.
			seat = &Seat{Position: sr.Position, Status: SeatFolded}
		}
		h.seats[sr.Position] = &HandSeat{
			Position:  sr.Position,
			Player:    sr.Player,
			Hole:      append([]poker.Card(nil), sr.Hole...),
			Folded:    sr.Folded,
			AllIn:     sr.AllIn,
			StreetBet: sr.StreetBet,
			TotalBet:  sr.TotalBet,
			seat:      seat,
		}
	}
	if err := h.checkConservation(); err != nil {
		return nil, err
	}
	return h, nil
}
