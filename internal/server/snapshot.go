package server

import (
	"github.com/feltcraft/tabled/internal/game"
	"github.com/feltcraft/tabled/poker"
)

// snapshotFor projects a table into the view one recipient is allowed to see.
// It is a pure read: hole cards other than the recipient's own are simply not
// copied, so no redaction step can be forgotten later. recipientID "" builds
// the fully public view served over HTTP.
func snapshotFor(t *game.Table, recipientID string, timing *TurnTiming) *TableSnapshotData {
	snap := &TableSnapshotData{
		Config: TableConfigView{
			ID:         t.ID,
			Name:       t.Name,
			MaxSeats:   t.MaxSeats,
			SmallBlind: t.SmallBlind,
			BigBlind:   t.BigBlind,
			BuyInMin:   t.BuyInMin,
			BuyInMax:   t.BuyInMax,
		},
		Frozen:   t.Frozen(),
		Waitlist: len(t.Waitlist()),
	}

	h := t.Hand()
	snap.Seats = seatViews(t, h, recipientID)

	if h != nil {
		state := &GameStateView{
			HandID:         h.ID,
			Phase:          h.Street.String(),
			Pot:            h.PotTotal(),
			CommunityCards: append([]poker.Card{}, h.Board...),
			CurrentBet:     h.Betting.CurrentBet,
			MinRaise:       h.Betting.MinRaise,
			Button:         h.Button,
			CurrentTurn:    h.Actor,
			TurnDeadline:   timing,
			MyPosition:     -1,
		}
		if hs := handSeatOf(t, h, recipientID); hs != nil {
			state.MyPosition = hs.Position
			state.MyHoleCards = append([]poker.Card{}, hs.Hole...)
		}
		snap.State = state
	}
	return snap
}

// seatViews renders every seat for one recipient. Hole cards appear only on
// the recipient's own seat; showdown reveals are carried by HAND_RESULT, not
// by snapshots, because the table holds no completed hand.
func seatViews(t *game.Table, h *game.Hand, recipientID string) []SeatView {
	views := make([]SeatView, len(t.Seats))
	for i, s := range t.Seats {
		view := SeatView{
			Position: s.Position,
			Stack:    s.Stack,
			Status:   s.Status.String(),
		}
		if p := s.Occupant(); p != nil {
			view.UserID = p.UserID
			view.Name = p.Name
			view.Bot = p.Bot
		}
		if h != nil {
			if hs := h.Seat(s.Position); hs != nil {
				view.StreetBet = hs.StreetBet
				view.TotalBet = hs.TotalBet
				if recipientID != "" && hs.Player.UserID == recipientID {
					view.HoleCards = append([]poker.Card{}, hs.Hole...)
				}
			}
		}
		views[i] = view
	}
	return views
}

func handSeatOf(t *game.Table, h *game.Hand, recipientID string) *game.HandSeat {
	if recipientID == "" {
		return nil
	}
	for pos := range t.Seats {
		if hs := h.Seat(pos); hs != nil && hs.Player.UserID == recipientID {
			return hs
		}
	}
	return nil
}
