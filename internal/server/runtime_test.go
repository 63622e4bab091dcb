package server

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/require"

	"github.com/feltcraft/tabled/internal/auth"
	"github.com/feltcraft/tabled/internal/game"
	"github.com/feltcraft/tabled/internal/store"
	"github.com/feltcraft/tabled/internal/wallet"
	"github.com/feltcraft/tabled/poker"
)

// fakeClient records everything the runtime sends it.
type fakeClient struct {
	identity auth.Identity

	mu   sync.Mutex
	msgs []*Message
}

func newFakeClient(userID string) *fakeClient {
	return &fakeClient{identity: auth.Identity{UserID: userID, DisplayName: userID}}
}

func (f *fakeClient) Identity() auth.Identity { return f.identity }

func (f *fakeClient) Send(msg *Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, msg)
}

func (f *fakeClient) byType(mt MessageType) []*Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*Message
	for _, m := range f.msgs {
		if m.Type == mt {
			out = append(out, m)
		}
	}
	return out
}

func (f *fakeClient) last(mt MessageType) *Message {
	msgs := f.byType(mt)
	if len(msgs) == 0 {
		return nil
	}
	return msgs[len(msgs)-1]
}

func decodeData[T any](t *testing.T, msg *Message) T {
	t.Helper()
	require.NotNil(t, msg, "expected message not received")
	var out T
	require.NoError(t, json.Unmarshal(msg.Data, &out))
	return out
}

type fixture struct {
	rt     *Runtime
	clock  *quartz.Mock
	wallet *wallet.Memory
	store  *store.Memory
}

// stackedDeck deals hole cards [As Ah] to the small blind and [Kd Ks] to the
// big blind heads-up, then 2c 7d 9h / Jc / 3s as the board.
const stackedDeck = "As Kd Ah Ks 2c 7d 9h Jc 3s"

func newFixture(t *testing.T, seats int, deck string) *fixture {
	t.Helper()

	var opts []game.Option
	if deck != "" {
		cards, err := poker.ParseCards(deck)
		require.NoError(t, err)
		opts = append(opts, game.WithDeckSource(func() *poker.Deck {
			return poker.NewStackedDeck(cards...)
		}))
	}
	table := game.NewTable(game.Config{
		ID:         "t1",
		Name:       "t1",
		MaxSeats:   seats,
		SmallBlind: 10,
		BigBlind:   20,
		BuyInMin:   100,
		BuyInMax:   5000,
		TurnBudget: 20 * time.Second,
		Grace:      5 * time.Second,
	}, opts...)

	f := &fixture{
		clock:  quartz.NewMock(t),
		wallet: wallet.NewMemory(10000),
		store:  store.NewMemory(),
	}
	f.rt = NewRuntime(table, f.wallet, f.store, f.clock, log.New(io.Discard), RuntimeOptions{})

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = f.rt.Run(ctx) }()
	return f
}

// barrier waits for every previously enqueued command to finish.
func (f *fixture) barrier() {
	f.rt.DoSync(func() {})
}

func (f *fixture) advance(t *testing.T, d time.Duration) {
	t.Helper()
	// quartz refuses to advance past the next timer event in one call, so
	// step through any intermediate events.
	for d > 0 {
		step := d
		if next, ok := f.clock.Peek(); ok && next < step {
			step = next
		}
		f.clock.Advance(step).MustWait(context.Background())
		f.barrier()
		d -= step
	}
	f.barrier()
}

func (f *fixture) seat(t *testing.T, c *fakeClient, buyIn int) int {
	t.Helper()
	f.rt.Subscribe(c)
	f.rt.SeatRequest(c, SeatRequestData{TableID: "t1", BuyInAmount: buyIn})
	f.barrier()
	res := decodeData[SeatResultData](t, c.last(MessageSeatResult))
	require.True(t, res.Success, "seat request failed: %s", res.ErrorMessage)
	require.NotNil(t, res.Position)
	return *res.Position
}

func (f *fixture) deal(t *testing.T) {
	t.Helper()
	f.rt.DoSync(f.rt.startHand)
}

func (f *fixture) balance(t *testing.T, userID string) int {
	t.Helper()
	bal, err := f.wallet.Balance(context.Background(), userID)
	require.NoError(t, err)
	return bal
}

func mustParseCards(t *testing.T, s string) []poker.Card {
	t.Helper()
	cards, err := poker.ParseCards(s)
	require.NoError(t, err)
	return cards
}

func TestSeatRequestDebitsWallet(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 2, "")

	c2 := newFakeClient("u2")
	f.rt.Subscribe(c2)
	f.barrier()

	c1 := newFakeClient("u1")
	f.seat(t, c1, 1000)
	require.Equal(t, 9000, f.balance(t, "u1"))

	// A rejected buy-in never touches the wallet.
	f.rt.SeatRequest(c2, SeatRequestData{TableID: "t1", BuyInAmount: 50})
	f.barrier()
	res := decodeData[SeatResultData](t, c2.last(MessageSeatResult))
	require.False(t, res.Success)
	require.Equal(t, CodeInvalidBuyIn, res.ErrorCode)
	require.Equal(t, 10000, f.balance(t, "u2"))

	// The other subscriber saw the join.
	update := decodeData[TableStateUpdateData](t, c2.last(MessageTableStateUpdate))
	require.Equal(t, "seat_taken", update.UpdateType)
}

func TestFullTableWaitlistsWithEscrow(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 2, "")

	f.seat(t, newFakeClient("u1"), 1000)
	f.seat(t, newFakeClient("u2"), 1000)

	c3 := newFakeClient("u3")
	f.rt.Subscribe(c3)
	f.rt.SeatRequest(c3, SeatRequestData{TableID: "t1", BuyInAmount: 1000})
	f.barrier()

	res := decodeData[SeatResultData](t, c3.last(MessageSeatResult))
	require.False(t, res.Success)
	require.True(t, res.Waitlisted)
	require.Equal(t, CodeTableFull, res.ErrorCode)
	// The buy-in stays escrowed while waiting.
	require.Equal(t, 9000, f.balance(t, "u3"))
	require.Equal(t, 1, f.rt.Snapshot("").Waitlist)
}

func TestHandStartedRedactsHoleCards(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 2, stackedDeck)

	c1 := newFakeClient("u1")
	c2 := newFakeClient("u2")
	f.seat(t, c1, 1000)
	f.seat(t, c2, 1000)
	f.deal(t)

	started1 := decodeData[HandStartedData](t, c1.last(MessageHandStarted))
	started2 := decodeData[HandStartedData](t, c2.last(MessageHandStarted))
	require.Equal(t, mustParseCards(t, "As Ah"), started1.MyHoleCards)
	require.Equal(t, mustParseCards(t, "Kd Ks"), started2.MyHoleCards)

	// Each recipient sees cards on its own seat only.
	for _, seat := range started1.Seats {
		if seat.UserID != "u1" {
			require.Empty(t, seat.HoleCards)
		}
	}
	for _, seat := range started2.Seats {
		if seat.UserID != "u2" {
			require.Empty(t, seat.HoleCards)
		}
	}

	// A spectator's snapshot carries no hole cards at all.
	spec := newFakeClient("watcher")
	f.rt.Subscribe(spec)
	f.barrier()
	snap := decodeData[TableSnapshotData](t, spec.last(MessageTableSnapshot))
	require.NotNil(t, snap.State)
	require.Equal(t, -1, snap.State.MyPosition)
	require.Empty(t, snap.State.MyHoleCards)
	for _, seat := range snap.Seats {
		require.Empty(t, seat.HoleCards)
	}
}

func TestActionReplayIsIdempotent(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 2, stackedDeck)

	c1 := newFakeClient("u1")
	c2 := newFakeClient("u2")
	f.seat(t, c1, 1000)
	f.seat(t, c2, 1000)
	f.deal(t)

	// Heads-up the button posts the small blind and acts first preflop.
	call := ActionRequestData{TableID: "t1", ActionType: "call"}
	f.rt.ActionRequest(c1, call, "req-1")
	f.barrier()
	f.rt.ActionRequest(c1, call, "req-1")
	f.rt.ActionRequest(c1, call, "req-1")
	f.barrier()

	results := c1.byType(MessageActionResult)
	require.Len(t, results, 3)
	first := decodeData[ActionResultData](t, results[0])
	require.True(t, first.Success)
	for _, msg := range results[1:] {
		require.Equal(t, first, decodeData[ActionResultData](t, msg))
	}

	// The action applied exactly once.
	var logLen int
	f.rt.DoSync(func() {
		logLen = len(f.rt.table.Hand().Log)
	})
	require.Equal(t, 1, logLen)
}

func TestActionReplayScopedToRequester(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 2, stackedDeck)

	c1 := newFakeClient("u1")
	c2 := newFakeClient("u2")
	f.seat(t, c1, 1000)
	f.seat(t, c2, 1000)
	f.deal(t)

	f.rt.ActionRequest(c1, ActionRequestData{TableID: "t1", ActionType: "call"}, "req-1")
	f.barrier()
	res1 := decodeData[ActionResultData](t, c1.last(MessageActionResult))
	require.True(t, res1.Success)

	// Another player reusing u1's requestId must get their own result, never
	// u1's cached acknowledgement. u2 has the option and nothing to call, so
	// the call is rejected on its own merits.
	f.rt.ActionRequest(c2, ActionRequestData{TableID: "t1", ActionType: "call"}, "req-1")
	f.barrier()
	res2 := decodeData[ActionResultData](t, c2.last(MessageActionResult))
	require.False(t, res2.Success)
	require.Nil(t, res2.Action)

	var logLen int
	f.rt.DoSync(func() {
		logLen = len(f.rt.table.Hand().Log)
	})
	require.Equal(t, 1, logLen)
}

func TestOutOfTurnActionRejected(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 2, stackedDeck)

	c1 := newFakeClient("u1")
	c2 := newFakeClient("u2")
	f.seat(t, c1, 1000)
	f.seat(t, c2, 1000)
	f.deal(t)

	f.rt.ActionRequest(c2, ActionRequestData{TableID: "t1", ActionType: "check"}, "req-oot")
	f.barrier()

	res := decodeData[ActionResultData](t, c2.last(MessageActionResult))
	require.False(t, res.Success)
	require.Equal(t, CodeNotYourTurn, res.ErrorCode)
	require.True(t, res.ShouldRefresh)
}

func TestTurnTimeoutFoldsFacingBet(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 2, stackedDeck)

	c1 := newFakeClient("u1")
	c2 := newFakeClient("u2")
	f.seat(t, c1, 1000)
	f.seat(t, c2, 1000)
	f.deal(t)

	// The small blind faces the big blind and never acts.
	f.advance(t, 20*time.Second)

	result := decodeData[HandResultData](t, c2.last(MessageHandResult))
	require.Equal(t, []game.Winning{{Position: 1, Amount: 20}}, result.Winners)
	// A fold win reveals nothing.
	require.Empty(t, result.Showdown)
	require.Empty(t, result.Board)

	var sawSynthetic bool
	for _, msg := range c2.byType(MessageTableStateUpdate) {
		update := decodeData[TableStateUpdateData](t, msg)
		if update.UpdateType == "action" && update.Changes["synthetic"] == true {
			sawSynthetic = true
		}
	}
	require.True(t, sawSynthetic, "expected a synthetic fold broadcast")
}

func TestTurnTimeoutChecksWhenFree(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 2, stackedDeck)

	c1 := newFakeClient("u1")
	c2 := newFakeClient("u2")
	f.seat(t, c1, 1000)
	f.seat(t, c2, 1000)
	f.deal(t)

	f.rt.ActionRequest(c1, ActionRequestData{TableID: "t1", ActionType: "call"}, "req-1")
	f.barrier()

	// The big blind owes nothing, so its timeout checks instead of folding
	// and the flop comes out.
	f.advance(t, 20*time.Second)

	flop := decodeData[CommunityCardsData](t, c1.last(MessageCommunityCards))
	require.Equal(t, "flop", flop.Phase)
	require.Equal(t, mustParseCards(t, "2c 7d 9h"), flop.Cards)

	var handActive bool
	f.rt.DoSync(func() {
		handActive = f.rt.table.Hand() != nil && !f.rt.table.Hand().Complete
	})
	require.True(t, handActive)
}

func TestSnapshotCarriesAbsoluteDeadline(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 2, stackedDeck)

	c1 := newFakeClient("u1")
	c2 := newFakeClient("u2")
	f.seat(t, c1, 1000)
	f.seat(t, c2, 1000)
	f.deal(t)

	prompt := decodeData[TurnPromptData](t, c1.last(MessageTurnPrompt))
	require.NotZero(t, prompt.TimeoutAt)
	require.Equal(t, 5000, prompt.GraceMs)
	require.Equal(t, 15000, prompt.CountdownMs)

	// A late subscriber gets the same absolute deadline, not a fresh timer.
	f.advance(t, 7*time.Second)
	spec := newFakeClient("watcher")
	f.rt.Subscribe(spec)
	f.barrier()

	snap := decodeData[TableSnapshotData](t, spec.last(MessageTableSnapshot))
	require.NotNil(t, snap.State)
	require.NotNil(t, snap.State.TurnDeadline)
	require.Equal(t, prompt.TimeoutAt, snap.State.TurnDeadline.TimeoutAt)
}

func TestRestoredHandResumesTurnClock(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 2, stackedDeck)

	c1 := newFakeClient("u1")
	c2 := newFakeClient("u2")
	f.seat(t, c1, 1000)
	f.seat(t, c2, 1000)
	f.deal(t)

	prompt := decodeData[TurnPromptData](t, c1.last(MessageTurnPrompt))
	require.NotZero(t, prompt.TimeoutAt)

	// The snapshot written at turn start carries the live deadline.
	var rec *game.TableRecord
	require.Eventually(t, func() bool {
		r, err := f.store.LatestSnapshot(context.Background(), "t1")
		if err != nil || r.Hand == nil || r.Hand.TurnDeadline == 0 {
			return false
		}
		rec = r
		return true
	}, time.Second, 10*time.Millisecond)
	require.Equal(t, prompt.TimeoutAt, rec.Hand.TurnDeadline)

	f.advance(t, 7*time.Second)

	// Bring the snapshot up on a second runtime, as a restart would.
	restored, err := game.Restore(rec, f.rt.Table().Config)
	require.NoError(t, err)
	rt2 := NewRuntime(restored, f.wallet, f.store, f.clock, log.New(io.Discard), RuntimeOptions{
		ResumeTurnDeadline: time.UnixMilli(rec.Hand.TurnDeadline),
	})
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = rt2.Run(ctx) }()
	// Wait for Run's initial resume command before subscribing, so the
	// snapshot is built after the turn clock is re-armed.
	rt2.DoSync(func() {})

	// A subscriber sees the original deadline, not a fresh timer.
	c3 := newFakeClient("u1")
	rt2.Subscribe(c3)
	rt2.DoSync(func() {})
	snap := decodeData[TableSnapshotData](t, c3.last(MessageTableSnapshot))
	require.NotNil(t, snap.State)
	require.NotNil(t, snap.State.TurnDeadline)
	require.Equal(t, prompt.TimeoutAt, snap.State.TurnDeadline.TimeoutAt)

	// 13 of the 20 seconds remain. When they run out the restored actor is
	// folded facing the big blind and the hand ends.
	f.clock.Advance(13 * time.Second).MustWait(context.Background())
	rt2.DoSync(func() {})
	result := decodeData[HandResultData](t, c3.last(MessageHandResult))
	require.Equal(t, []game.Winning{{Position: 1, Amount: 20}}, result.Winners)
}

func TestLeaveMidHandFoldsAndRefundsStack(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 2, stackedDeck)

	c1 := newFakeClient("u1")
	c2 := newFakeClient("u2")
	f.seat(t, c1, 1000)
	f.seat(t, c2, 1000)
	f.deal(t)

	// The small blind leaves mid-hand: its 10 posted chips stay behind.
	f.rt.LeaveRequest(c1)
	f.barrier()

	res := decodeData[LeaveResultData](t, c1.last(MessageLeaveResult))
	require.True(t, res.Success)
	require.Equal(t, 990, res.Refund)
	require.Eventually(t, func() bool {
		return f.balance(t, "u1") == 9990
	}, time.Second, 10*time.Millisecond)

	result := decodeData[HandResultData](t, c2.last(MessageHandResult))
	require.Equal(t, []game.Winning{{Position: 1, Amount: 20}}, result.Winners)
}

func TestLeaveBetweenHandsRefundsFullStack(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 2, "")

	c1 := newFakeClient("u1")
	f.seat(t, c1, 1000)
	f.rt.LeaveRequest(c1)
	f.barrier()

	res := decodeData[LeaveResultData](t, c1.last(MessageLeaveResult))
	require.True(t, res.Success)
	require.Equal(t, 1000, res.Refund)
	require.Eventually(t, func() bool {
		return f.balance(t, "u1") == 10000
	}, time.Second, 10*time.Millisecond)
}

func TestBotsPlayHandToShowdown(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 2, stackedDeck)

	f.rt.SeedBot("caller", 1000)
	f.rt.SeedBot("caller", 1000)
	spec := newFakeClient("watcher")
	f.rt.Subscribe(spec)
	f.barrier()

	// Auto-start countdown, then one bot think per turn.
	require.NotNil(t, spec.last(MessageGameStarting))
	f.advance(t, 5*time.Second)

	var result *Message
	for i := 0; i < 40 && result == nil; i++ {
		f.advance(t, time.Second)
		result = spec.last(MessageHandResult)
	}
	require.NotNil(t, result, "bots never finished the hand")

	data := decodeData[HandResultData](t, result)
	require.NotEmpty(t, data.Winners)
	// Checked down to showdown: both reveal, board complete.
	require.Len(t, data.Showdown, 2)
	require.Len(t, data.Board, 5)

	require.Eventually(t, func() bool {
		return len(f.store.Archives()) >= 1
	}, time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool {
		_, err := f.store.LatestSnapshot(context.Background(), "t1")
		return err == nil
	}, time.Second, 10*time.Millisecond)
}

func TestFrozenTableRejectsActions(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 2, stackedDeck)

	c1 := newFakeClient("u1")
	c2 := newFakeClient("u2")
	f.seat(t, c1, 1000)
	f.seat(t, c2, 1000)
	f.deal(t)

	f.rt.DoSync(func() {
		f.rt.table.Freeze("operator halt")
		f.rt.flush()
	})

	errMsg := decodeData[ErrorData](t, c2.last(MessageError))
	require.Equal(t, CodeTableFrozen, errMsg.ErrorCode)
	require.True(t, errMsg.ShouldRefresh)

	f.rt.ActionRequest(c1, ActionRequestData{TableID: "t1", ActionType: "call"}, "req-1")
	f.barrier()
	res := decodeData[ActionResultData](t, c1.last(MessageActionResult))
	require.False(t, res.Success)
	require.Equal(t, CodeTableFrozen, res.ErrorCode)
}
