package game

import (
	"fmt"
	"sync/atomic"
)

// SeatStatus is the lifecycle of one table position.
type SeatStatus int

const (
	SeatEmpty SeatStatus = iota
	SeatWaiting            // seated, dealt in from the next hand
	SeatActive             // in the current hand and able to act
	SeatFolded             // in the current hand, folded
	SeatAllIn              // in the current hand, stack fully committed
	SeatSittingOut         // seated but skipped by the deal
)

func (s SeatStatus) String() string {
	return [...]string{"empty", "waiting", "active", "folded", "allin", "sitting_out"}[s]
}

// MarshalText encodes the status by name in snapshots.
func (s SeatStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *SeatStatus) UnmarshalText(b []byte) error {
	for st := SeatEmpty; st <= SeatSittingOut; st++ {
		if st.String() == string(b) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("game: unknown seat status %q", b)
}

// Player identifies a seat's occupant. The chip stack belongs to the Seat,
// not the Player: a player leaving mid-hand does not pull contributed chips
// back out of the pot.
type Player struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Bot    bool   `json:"bot,omitempty"`
}

// Seat is one fixed table position. Occupancy is an atomic pointer so that
// seat races resolve by compare-and-swap without holding a lock across wallet
// I/O; every other field is mutated only inside the table's command queue.
type Seat struct {
	Position int
	Stack    int
	Status   SeatStatus

	// SitOut takes effect at the next deal; the current hand is unaffected.
	SitOut bool

	occupant atomic.Pointer[Player]
}

// Occupant returns the seat's player, or nil when empty.
func (s *Seat) Occupant() *Player {
	return s.occupant.Load()
}

// Occupied reports whether the seat has an occupant.
func (s *Seat) Occupied() bool {
	return s.occupant.Load() != nil
}

// reserve claims an empty seat for p. Exactly one of two concurrent reserves
// for the same seat succeeds.
func (s *Seat) reserve(p *Player) bool {
	return s.occupant.CompareAndSwap(nil, p)
}

// release frees the seat if p still holds it. Used both for normal leaves
// and for rolling back a reservation whose buy-in failed.
func (s *Seat) release(p *Player) bool {
	return s.occupant.CompareAndSwap(p, nil)
}

// InHand reports whether the seat was dealt into the current hand.
func (s *Seat) InHand() bool {
	switch s.Status {
	case SeatActive, SeatFolded, SeatAllIn:
		return true
	}
	return false
}

// canDeal reports whether the seat should be dealt into the next hand.
func (s *Seat) canDeal() bool {
	return s.Occupied() && !s.SitOut && s.Stack > 0
}
