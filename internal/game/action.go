package game

import (
	"fmt"
	"time"
)

// Street is a discrete betting round.
type Street int

const (
	Preflop Street = iota
	Flop
	Turn
	River
	Showdown
)

func (s Street) String() string {
	return [...]string{"preflop", "flop", "turn", "river", "showdown"}[s]
}

// MarshalText encodes the street by name so records and wire messages stay
// readable.
func (s Street) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Street) UnmarshalText(b []byte) error {
	for st := Preflop; st <= Showdown; st++ {
		if st.String() == string(b) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("game: unknown street %q", b)
}

// ActionType is a player action. Bet and Raise share semantics; Bet is the
// wire name when there is no bet to raise over.
type ActionType int

const (
	Fold ActionType = iota
	Check
	Call
	Bet
	Raise
	AllIn
)

func (a ActionType) String() string {
	return [...]string{"fold", "check", "call", "bet", "raise", "allin"}[a]
}

// MarshalText encodes the action by its wire name.
func (a ActionType) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *ActionType) UnmarshalText(b []byte) error {
	parsed, err := ParseActionType(string(b))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ParseActionType maps a wire action string onto an ActionType.
func ParseActionType(s string) (ActionType, error) {
	switch s {
	case "fold":
		return Fold, nil
	case "check":
		return Check, nil
	case "call":
		return Call, nil
	case "bet":
		return Bet, nil
	case "raise":
		return Raise, nil
	case "allin", "all-in", "all_in":
		return AllIn, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedAction, s)
	}
}

// AllowedAction describes one legal action for the current actor, with the
// amount bounds clients need to build a raise slider. Amount is set for
// fixed-amount actions (call, allin); Min/MaxAmount bound bet and raise.
type AllowedAction struct {
	Type      ActionType `json:"type"`
	Amount    int        `json:"amount,omitempty"`
	MinAmount int        `json:"minAmount,omitempty"`
	MaxAmount int        `json:"maxAmount,omitempty"`
}

// ActionRecord is one applied action, retained for the life of the hand for
// idempotency dedup and audit.
type ActionRecord struct {
	RequestID string     `json:"requestId,omitempty"`
	Position  int        `json:"position"`
	Type      ActionType `json:"type"`
	Amount    int        `json:"amount"`
	Street    Street     `json:"street"`
	Timestamp time.Time  `json:"timestamp"`
}
