package server

import (
	"github.com/feltcraft/tabled/internal/game"
	"github.com/feltcraft/tabled/poker"
)

// Inbound payloads.

// SubscribeTableData attaches the connection to a table's broadcast set.
type SubscribeTableData struct {
	TableID string `json:"tableId"`
}

// UnsubscribeTableData detaches the connection from a table.
type UnsubscribeTableData struct {
	TableID string `json:"tableId"`
}

// SeatRequestData claims a seat. Position -1 (or omitted) means any open seat.
type SeatRequestData struct {
	TableID     string `json:"tableId"`
	Position    *int   `json:"position,omitempty"`
	BuyInAmount int    `json:"buyInAmount"`
}

// ActionRequestData submits a betting decision. RequestID comes from the
// envelope and deduplicates retries within the current hand.
type ActionRequestData struct {
	TableID    string `json:"tableId"`
	ActionType string `json:"actionType"`
	Amount     int    `json:"amount,omitempty"`
}

// LeaveRequestData gives up the sender's seat.
type LeaveRequestData struct {
	TableID string `json:"tableId"`
}

// StartGameData asks the table to begin dealing without waiting for the
// auto-start countdown.
type StartGameData struct {
	TableID string `json:"tableId"`
}

// AddBotRequestData seats a house bot with the given buy-in.
type AddBotRequestData struct {
	TableID string `json:"tableId"`
	BuyIn   int    `json:"buyIn"`
}

// Outbound payloads. Anything carrying hole cards is built per recipient.

// SeatView is one seat as a given recipient may see it. HoleCards is empty
// unless the seat belongs to the recipient or was revealed at showdown.
type SeatView struct {
	Position  int          `json:"position"`
	UserID    string       `json:"userId,omitempty"`
	Name      string       `json:"name,omitempty"`
	Stack     int          `json:"stack"`
	Status    string       `json:"status"`
	Bot       bool         `json:"bot,omitempty"`
	StreetBet int          `json:"streetBet,omitempty"`
	TotalBet  int          `json:"totalBet,omitempty"`
	HoleCards []poker.Card `json:"holeCards,omitempty"`
}

// TableConfigView is the public slice of a table's configuration.
type TableConfigView struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	MaxSeats   int    `json:"maxSeats"`
	SmallBlind int    `json:"smallBlind"`
	BigBlind   int    `json:"bigBlind"`
	BuyInMin   int    `json:"buyInMin"`
	BuyInMax   int    `json:"buyInMax"`
}

// GameStateView is the in-hand portion of a snapshot. Nil between hands.
type GameStateView struct {
	HandID         string       `json:"handId"`
	Phase          string       `json:"phase"`
	Pot            int          `json:"pot"`
	CommunityCards []poker.Card `json:"communityCards"`
	CurrentBet     int          `json:"currentBet"`
	MinRaise       int          `json:"minRaise"`
	Button         int          `json:"button"`
	CurrentTurn    int          `json:"currentTurn"`
	TurnDeadline   *TurnTiming  `json:"turnDeadline,omitempty"`
	MyPosition     int          `json:"myPosition"`
	MyHoleCards    []poker.Card `json:"myHoleCards,omitempty"`
}

// TurnTiming carries the authoritative deadline plus the grace/countdown
// split so clients can render a timer that survives reconnects.
type TurnTiming struct {
	TimeoutAt   int64 `json:"timeoutAt"`
	GraceMs     int   `json:"graceMs"`
	CountdownMs int   `json:"countdownMs"`
}

// TableSnapshotData is the full personalized view sent on subscribe and
// reconnect.
type TableSnapshotData struct {
	Config   TableConfigView `json:"config"`
	Seats    []SeatView      `json:"seats"`
	State    *GameStateView  `json:"state,omitempty"`
	Frozen   bool            `json:"frozen,omitempty"`
	Waitlist int             `json:"waitlistSize,omitempty"`
}

// TableStateUpdateData is an incremental delta between snapshots.
type TableStateUpdateData struct {
	TableID    string         `json:"tableId"`
	UpdateType string         `json:"updateType"`
	Changes    map[string]any `json:"changes"`
}

// GameStartingData announces the auto-start countdown.
type GameStartingData struct {
	TableID          string `json:"tableId"`
	CountdownSeconds int    `json:"countdownSeconds"`
}

// HandStartedData opens a hand for one recipient.
type HandStartedData struct {
	TableID        string       `json:"tableId"`
	HandID         string       `json:"handId"`
	Phase          string       `json:"phase"`
	Pot            int          `json:"pot"`
	CommunityCards []poker.Card `json:"communityCards"`
	Button         int          `json:"button"`
	SmallBlind     int          `json:"smallBlind"`
	BigBlind       int          `json:"bigBlind"`
	CurrentTurn    int          `json:"currentTurn"`
	MyPosition     int          `json:"myPosition"`
	MyHoleCards    []poker.Card `json:"myHoleCards,omitempty"`
	Seats          []SeatView   `json:"seats"`
}

// TurnPromptData goes only to the seat whose turn it is.
type TurnPromptData struct {
	TableID        string               `json:"tableId"`
	Position       int                  `json:"position"`
	CurrentBet     int                  `json:"currentBet"`
	TimeoutAt      int64                `json:"timeoutAt"`
	GraceMs        int                  `json:"graceMs"`
	CountdownMs    int                  `json:"countdownMs"`
	AllowedActions []game.AllowedAction `json:"allowedActions"`
}

// TurnChangedData is broadcast to everyone else when the actor moves on.
type TurnChangedData struct {
	TableID       string `json:"tableId"`
	CurrentPlayer int    `json:"currentPlayer"`
	CurrentBet    int    `json:"currentBet"`
	Pot           int    `json:"pot"`
}

// CommunityCardsData reveals a street. Cards is the full board so far.
type CommunityCardsData struct {
	TableID string       `json:"tableId"`
	Phase   string       `json:"phase"`
	Cards   []poker.Card `json:"cards"`
}

// ShowdownReveal is one participant's mandatory reveal at showdown.
type ShowdownReveal struct {
	Position  int          `json:"seat"`
	HoleCards []poker.Card `json:"holeCards"`
	HandRank  string       `json:"handRank,omitempty"`
}

// HandResultData closes a hand. Showdown is empty when the hand ended by
// folds; nothing is revealed in that case.
type HandResultData struct {
	TableID  string           `json:"tableId"`
	HandID   string           `json:"handId"`
	Winners  []game.Winning   `json:"winners"`
	Showdown []ShowdownReveal `json:"showdown,omitempty"`
	Board    []poker.Card     `json:"board,omitempty"`
}

// ActionResultData acknowledges an ACTION_REQUEST to its sender only.
type ActionResultData struct {
	Success       bool               `json:"success"`
	Action        *game.ActionRecord `json:"action,omitempty"`
	ErrorCode     ErrorCode          `json:"errorCode,omitempty"`
	ErrorMessage  string             `json:"errorMessage,omitempty"`
	ShouldRefresh bool               `json:"shouldRefresh,omitempty"`
}

// SeatResultData acknowledges a SEAT_REQUEST.
type SeatResultData struct {
	Success      bool      `json:"success"`
	TableID      string    `json:"tableId"`
	Position     *int      `json:"position,omitempty"`
	Waitlisted   bool      `json:"waitlisted,omitempty"`
	ErrorCode    ErrorCode `json:"errorCode,omitempty"`
	ErrorMessage string    `json:"errorMessage,omitempty"`
}

// LeaveResultData acknowledges a LEAVE_REQUEST and reports the cash-out.
type LeaveResultData struct {
	Success      bool      `json:"success"`
	TableID      string    `json:"tableId"`
	Refund       int       `json:"refund,omitempty"`
	ErrorCode    ErrorCode `json:"errorCode,omitempty"`
	ErrorMessage string    `json:"errorMessage,omitempty"`
}

// ErrorData reports a failure not tied to a specific request type.
type ErrorData struct {
	ErrorCode     ErrorCode `json:"errorCode"`
	ErrorMessage  string    `json:"errorMessage"`
	Details       string    `json:"details,omitempty"`
	ShouldRefresh bool      `json:"shouldRefresh,omitempty"`
}

// ConnectionStateData reports connection lifecycle transitions.
type ConnectionStateData struct {
	State  string `json:"state"`
	UserID string `json:"userId,omitempty"`
}
