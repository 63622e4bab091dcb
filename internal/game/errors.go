package game

import "errors"

// Domain errors surfaced to the session layer. The server maps these onto
// wire error codes; the engine itself never talks to a connection.
var (
	ErrSeatOccupied      = errors.New("seat is occupied")
	ErrTableFull         = errors.New("no open seats")
	ErrInvalidBuyIn      = errors.New("buy-in outside table limits")
	ErrNotSeated         = errors.New("player is not seated")
	ErrNotYourTurn       = errors.New("not your turn to act")
	ErrInvalidActorState = errors.New("seat cannot act")
	ErrUnsupportedAction = errors.New("unsupported action type")
	ErrIllegalAction     = errors.New("action is not legal now")
	ErrNoHand            = errors.New("no hand in progress")
	ErrHandInProgress    = errors.New("hand already in progress")
	ErrNotEnoughPlayers  = errors.New("need at least two players with chips")

	// ErrChipConservation means chips were created or destroyed. The table
	// must be frozen; this is never recovered silently.
	ErrChipConservation = errors.New("chip conservation violated")
)
