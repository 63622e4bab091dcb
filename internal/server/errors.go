package server

import (
	"errors"

	"github.com/feltcraft/tabled/internal/game"
)

// ErrorCode is a stable machine-readable failure code carried on wire
// results. Codes never change meaning; clients switch on them.
type ErrorCode string

const (
	CodeValidation        ErrorCode = "VALIDATION_ERROR"
	CodeNotYourTurn       ErrorCode = "NOT_YOUR_TURN"
	CodeInvalidActorState ErrorCode = "INVALID_ACTOR_STATE"
	CodeSeatOccupied      ErrorCode = "SEAT_OCCUPIED"
	CodeTableFull         ErrorCode = "TABLE_FULL"
	CodeInvalidBuyIn      ErrorCode = "INVALID_BUY_IN"
	CodeUnsupportedAction ErrorCode = "UNSUPPORTED_ACTION"
	CodeIllegalAction     ErrorCode = "ILLEGAL_ACTION"
	CodeNotSeated         ErrorCode = "NOT_SEATED"
	CodeNoHand            ErrorCode = "NO_HAND"
	CodeTableNotFound     ErrorCode = "TABLE_NOT_FOUND"
	CodeTableFrozen       ErrorCode = "TABLE_FROZEN"
	CodeWallet            ErrorCode = "WALLET_ERROR"
	CodeInternal          ErrorCode = "INTERNAL_ERROR"
)

// codeFor maps engine errors onto wire codes. Unknown errors are internal:
// the message is logged server-side and the client told only the code.
func codeFor(err error) ErrorCode {
	switch {
	case errors.Is(err, game.ErrNotYourTurn):
		return CodeNotYourTurn
	case errors.Is(err, game.ErrInvalidActorState):
		return CodeInvalidActorState
	case errors.Is(err, game.ErrSeatOccupied):
		return CodeSeatOccupied
	case errors.Is(err, game.ErrTableFull):
		return CodeTableFull
	case errors.Is(err, game.ErrInvalidBuyIn):
		return CodeInvalidBuyIn
	case errors.Is(err, game.ErrUnsupportedAction):
		return CodeUnsupportedAction
	case errors.Is(err, game.ErrIllegalAction):
		return CodeIllegalAction
	case errors.Is(err, game.ErrNotSeated):
		return CodeNotSeated
	case errors.Is(err, game.ErrNoHand), errors.Is(err, game.ErrHandInProgress), errors.Is(err, game.ErrNotEnoughPlayers):
		return CodeNoHand
	case errors.Is(err, game.ErrChipConservation):
		return CodeTableFrozen
	default:
		return CodeInternal
	}
}

// shouldRefresh reports whether the failure may mean the client's local view
// has drifted and it should resubscribe for a full snapshot.
func shouldRefresh(code ErrorCode) bool {
	switch code {
	case CodeNotYourTurn, CodeInvalidActorState, CodeIllegalAction, CodeNoHand, CodeTableFrozen:
		return true
	}
	return false
}
