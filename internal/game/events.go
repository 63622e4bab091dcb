package game

import "github.com/feltcraft/tabled/poker"

// Event is a state change emitted by the engine. The table buffers events as
// commands execute; the runtime drains them after each command and fans them
// out to subscribers, the hand archive, and the operator monitor. The engine
// itself never touches a connection.
type Event interface{ event() }

// HandStarted fires once per deal, after blinds are posted.
type HandStarted struct {
	HandID     string
	Button     int
	SBPos      int
	BBPos      int
	SmallBlind int
	BigBlind   int
	Positions  []int // dealt-in seats in deal order
	Pot        int
}

// BlindPosted fires for each blind, before HandStarted.
type BlindPosted struct {
	Position int
	Amount   int
	Big      bool
}

// ActionApplied fires for every applied action, synthetic or real.
type ActionApplied struct {
	Position  int
	Type      ActionType
	Amount    int // total street bet after the action, 0 for fold/check
	Pot       int
	Street    Street
	Synthetic bool // injected on turn timeout or forced fold
}

// TurnStarted fires whenever the action moves to a new seat.
type TurnStarted struct {
	Position   int
	TurnSeq    int
	CurrentBet int
	Allowed    []AllowedAction
}

// StreetDealt fires when community cards are revealed.
type StreetDealt struct {
	Street Street
	Cards  []poker.Card // the newly revealed cards only
	Pot    int
}

// PotReturned fires when an uncalled bet goes back to the lone deep bettor.
type PotReturned struct {
	Position int
	Amount   int
}

// ShowdownResult is one seat's revealed hand at showdown.
type ShowdownResult struct {
	Position  int
	HoleCards []poker.Card
	Rank      poker.HandRank
}

// Winning is one seat's payout from one pot.
type Winning struct {
	Position int `json:"seat"`
	Amount   int `json:"amount"`
}

// HandEnded fires after payouts are applied and stacks are final.
type HandEnded struct {
	HandID   string
	Winners  []Winning
	Showdown []ShowdownResult // empty when the hand ended by folds
	Board    []poker.Card
	Pot      int
}

// SeatChanged fires for joins, leaves, sit-outs, and bot additions.
type SeatChanged struct {
	Position int
	Change   string // seat_taken, player_left, bot_added, sitting_out, sitting_in
	Player   *Player
	Stack    int
}

// TableFrozen fires on an invariant violation. No further commands mutate
// the table until an operator intervenes.
type TableFrozen struct {
	Reason string
}

func (HandStarted) event()   {}
func (BlindPosted) event()   {}
func (ActionApplied) event() {}
func (TurnStarted) event()   {}
func (StreetDealt) event()   {}
func (PotReturned) event()   {}
func (HandEnded) event()     {}
func (SeatChanged) event()   {}
func (TableFrozen) event()   {}
