package server

import (
	"context"
	"errors"
	"fmt"
	rand "math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/google/uuid"
	"github.com/sanity-io/litter"

	"github.com/feltcraft/tabled/internal/auth"
	"github.com/feltcraft/tabled/internal/bot"
	"github.com/feltcraft/tabled/internal/fileutil"
	"github.com/feltcraft/tabled/internal/game"
	"github.com/feltcraft/tabled/internal/gameid"
	"github.com/feltcraft/tabled/internal/phh"
	"github.com/feltcraft/tabled/internal/randutil"
	"github.com/feltcraft/tabled/internal/store"
	"github.com/feltcraft/tabled/internal/wallet"
	"github.com/feltcraft/tabled/poker"
)

// RuntimeOptions tunes one table runtime.
type RuntimeOptions struct {
	// AutoStartDelay is the countdown broadcast before a hand auto-deals
	// once enough players are seated.
	AutoStartDelay time.Duration

	// BotThink is how long a house bot waits before acting on its turn.
	BotThink time.Duration

	// BotStrategy names the strategy for bots added via ADD_BOT_REQUEST.
	BotStrategy string

	// DumpDir receives a full state dump when the table freezes on an
	// invariant violation. Empty disables dumps.
	DumpDir string

	// HandHistoryDir receives one .phh file per completed hand in addition
	// to the store archive. Empty disables file export.
	HandHistoryDir string

	// ResumeTurnDeadline is the pending actor's deadline from the snapshot
	// the table was restored from. Zero grants a restored actor the full
	// turn budget instead.
	ResumeTurnDeadline time.Time
}

func (o *RuntimeOptions) defaults() {
	if o.AutoStartDelay == 0 {
		o.AutoStartDelay = 5 * time.Second
	}
	if o.BotThink == 0 {
		o.BotThink = time.Second
	}
	if o.BotStrategy == "" {
		o.BotStrategy = "caller"
	}
}

// botEntry is a house bot's seat-side state. Bots act from inside the
// runtime; they are not subscribers and receive no wire messages.
type botEntry struct {
	identity auth.Identity
	strategy bot.Strategy
}

// Runtime is the single-writer actor for one table. Every hand, betting, and
// turn mutation happens on its command queue, in queue order; seat occupancy
// alone is claimed by compare-and-swap before the join is completed through
// the queue. Timers and bots inject commands like any other caller.
type Runtime struct {
	table  *game.Table
	opts   RuntimeOptions
	logger *log.Logger
	clock  quartz.Clock
	wallet wallet.Service
	store  store.Store

	cmds      chan func()
	done      chan struct{}
	snapshots chan *game.TableRecord

	// Queue-confined state below.
	subscribers  map[string]client
	session      *session
	turn         *turnClock
	bots         map[int]*botEntry
	rng          *rand.Rand
	botSeq       int
	startPending bool
}

// NewRuntime wires a runtime around a table. Run must be called before any
// request methods.
func NewRuntime(table *game.Table, w wallet.Service, st store.Store, clock quartz.Clock, logger *log.Logger, opts RuntimeOptions) *Runtime {
	opts.defaults()
	r := &Runtime{
		table:       table,
		opts:        opts,
		logger:      logger.WithPrefix("table").With("table", table.ID),
		clock:       clock,
		wallet:      w,
		store:       st,
		cmds:        make(chan func(), 256),
		done:        make(chan struct{}),
		snapshots:   make(chan *game.TableRecord, 16),
		subscribers: make(map[string]client),
		session:     newSession(),
		bots:        make(map[int]*botEntry),
		rng:         randutil.New(time.Now().UnixNano()),
	}
	r.turn = newTurnClock(clock, table.TurnBudget, table.Grace, r.onTurnExpire)
	return r
}

// Table returns the underlying table. Reads of anything beyond fixed config
// must go through DoSync.
func (r *Runtime) Table() *game.Table { return r.table }

// Run consumes the command queue until ctx is cancelled.
func (r *Runtime) Run(ctx context.Context) error {
	defer close(r.done)
	go r.snapshotFlusher(ctx)
	r.Do(func() {
		r.resumeHand()
		r.maybeScheduleStart()
	})
	for {
		select {
		case fn := <-r.cmds:
			fn()
		case <-ctx.Done():
			r.turn.stop()
			return ctx.Err()
		}
	}
}

// Do enqueues fn for serialized execution. Drops the command if the runtime
// has shut down.
func (r *Runtime) Do(fn func()) {
	select {
	case r.cmds <- fn:
	case <-r.done:
	}
}

// DoSync runs fn on the queue and waits for it.
func (r *Runtime) DoSync(fn func()) {
	ch := make(chan struct{})
	r.Do(func() {
		defer close(ch)
		fn()
	})
	select {
	case <-ch:
	case <-r.done:
	}
}

// Subscribe attaches a client to the table's broadcasts and sends it a
// personalized snapshot. A resubscribe from the same user replaces the old
// connection.
func (r *Runtime) Subscribe(c client) {
	r.Do(func() {
		id := c.Identity()
		r.subscribers[id.UserID] = c
		c.Send(mustMessage(MessageTableSnapshot, snapshotFor(r.table, id.UserID, r.turn.timing())))
	})
}

// Unsubscribe detaches a user's client. The seat, if any, stays.
func (r *Runtime) Unsubscribe(userID string) {
	r.Do(func() {
		delete(r.subscribers, userID)
	})
}

// Disconnected is Unsubscribe for connection teardown, keyed by the exact
// client so a fast reconnect is not torn down by the old socket's cleanup.
func (r *Runtime) Disconnected(c client) {
	r.Do(func() {
		id := c.Identity().UserID
		if r.subscribers[id] == c {
			delete(r.subscribers, id)
		}
	})
}

// SeatRequest claims a seat: wallet debit first, then the seat CAS, then the
// join completes on the queue. Runs on the caller's goroutine up to the
// enqueue so wallet I/O never blocks the table.
func (r *Runtime) SeatRequest(c client, data SeatRequestData) {
	id := c.Identity()
	result := func(res SeatResultData) {
		res.TableID = r.table.ID
		c.Send(mustMessage(MessageSeatResult, res))
	}

	if err := r.table.ValidateBuyIn(data.BuyInAmount); err != nil {
		result(SeatResultData{ErrorCode: codeFor(err), ErrorMessage: err.Error()})
		return
	}
	player := &game.Player{UserID: id.UserID, Name: id.DisplayName}
	ref := "buyin:" + r.table.ID
	if err := r.wallet.Debit(context.Background(), id.UserID, data.BuyInAmount, ref); err != nil {
		result(SeatResultData{ErrorCode: CodeWallet, ErrorMessage: err.Error()})
		return
	}

	position := -1
	if data.Position != nil {
		position = *data.Position
	}
	pos, err := r.table.Reserve(position, player)
	if errors.Is(err, game.ErrTableFull) {
		// Buy-in stays escrowed while the player waits for a seat.
		r.Do(func() {
			r.table.JoinWaitlist(player, data.BuyInAmount)
			result(SeatResultData{Waitlisted: true, ErrorCode: CodeTableFull, ErrorMessage: "table full, added to waitlist"})
		})
		return
	}
	if err != nil {
		r.refund(id.UserID, data.BuyInAmount, "refund:"+r.table.ID)
		result(SeatResultData{ErrorCode: codeFor(err), ErrorMessage: err.Error()})
		return
	}

	r.Do(func() {
		if err := r.table.CompleteJoin(pos, data.BuyInAmount); err != nil {
			r.table.Release(pos, player)
			r.refund(id.UserID, data.BuyInAmount, "refund:"+r.table.ID)
			result(SeatResultData{ErrorCode: codeFor(err), ErrorMessage: err.Error()})
			return
		}
		seated := pos
		result(SeatResultData{Success: true, Position: &seated})
		r.flush()
		r.maybeScheduleStart()
	})
}

// ActionRequest submits a betting decision through the queue.
func (r *Runtime) ActionRequest(c client, data ActionRequestData, requestID string) {
	r.Do(func() {
		res := r.applyAction(c.Identity().UserID, data, requestID)
		c.Send(mustMessage(MessageActionResult, *res))
		r.flush()
	})
}

// applyAction runs on the queue. Duplicates are answered from the session
// cache without touching the hand.
func (r *Runtime) applyAction(userID string, data ActionRequestData, requestID string) *ActionResultData {
	if cached, ok := r.session.replay(userID, requestID); ok {
		return cached
	}

	res := r.executeAction(userID, data, requestID)
	r.session.remember(userID, requestID, res)
	return res
}

func (r *Runtime) executeAction(userID string, data ActionRequestData, requestID string) *ActionResultData {
	fail := func(err error) *ActionResultData {
		code := codeFor(err)
		return &ActionResultData{
			ErrorCode:     code,
			ErrorMessage:  err.Error(),
			ShouldRefresh: shouldRefresh(code),
		}
	}

	if r.table.Frozen() {
		return &ActionResultData{ErrorCode: CodeTableFrozen, ErrorMessage: "table is frozen", ShouldRefresh: true}
	}
	h := r.table.Hand()
	if h == nil {
		return fail(game.ErrNoHand)
	}
	seat := r.table.SeatOf(userID)
	if seat == nil {
		return fail(game.ErrNotSeated)
	}
	actionType, err := game.ParseActionType(data.ActionType)
	if err != nil {
		return fail(err)
	}

	rec, err := h.Apply(seat.Position, actionType, data.Amount, requestID, false)
	if errors.Is(err, game.ErrChipConservation) {
		r.table.Freeze(err.Error())
		return &ActionResultData{ErrorCode: CodeTableFrozen, ErrorMessage: "table is frozen", ShouldRefresh: true}
	}
	if err != nil {
		return fail(err)
	}
	return &ActionResultData{Success: true, Action: &rec}
}

// LeaveRequest gives up the sender's seat. A mid-hand leaver is folded and
// contributed chips stay in the pot; the rest of the stack goes back to the
// wallet.
func (r *Runtime) LeaveRequest(c client) {
	r.Do(func() {
		id := c.Identity()
		result := func(res LeaveResultData) {
			res.TableID = r.table.ID
			c.Send(mustMessage(MessageLeaveResult, res))
		}

		seat := r.table.SeatOf(id.UserID)
		if seat == nil {
			result(LeaveResultData{ErrorCode: CodeNotSeated, ErrorMessage: "not seated at this table"})
			return
		}
		refund, err := r.table.Leave(seat.Position)
		if err != nil {
			result(LeaveResultData{ErrorCode: codeFor(err), ErrorMessage: err.Error()})
			return
		}
		if refund > 0 {
			r.refund(id.UserID, refund, "cashout:"+r.table.ID)
		}
		result(LeaveResultData{Success: true, Refund: refund})
		r.flush()
	})
}

// StartGame deals immediately, skipping the auto-start countdown.
func (r *Runtime) StartGame(c client) {
	r.Do(func() {
		if !r.table.CanStart() {
			err := game.ErrNotEnoughPlayers
			if r.table.Hand() != nil {
				err = game.ErrHandInProgress
			}
			c.Send(mustMessage(MessageError, ErrorData{ErrorCode: codeFor(err), ErrorMessage: err.Error()}))
			return
		}
		r.startHand()
	})
}

// AddBot seats a house bot on behalf of a client. Bots play on house money;
// no wallet account is touched.
func (r *Runtime) AddBot(c client, data AddBotRequestData) {
	r.Do(func() {
		res := r.addBot(r.opts.BotStrategy, data.BuyIn)
		res.TableID = r.table.ID
		c.Send(mustMessage(MessageSeatResult, res))
	})
}

// SeedBot seats a configured bot at boot.
func (r *Runtime) SeedBot(strategy string, buyIn int) {
	r.Do(func() {
		if res := r.addBot(strategy, buyIn); !res.Success {
			r.logger.Error("Failed to seed bot", "strategy", strategy, "error", res.ErrorMessage)
		}
	})
}

// addBot runs on the queue.
func (r *Runtime) addBot(strategyName string, buyIn int) SeatResultData {
	if err := r.table.ValidateBuyIn(buyIn); err != nil {
		return SeatResultData{ErrorCode: codeFor(err), ErrorMessage: err.Error()}
	}
	strategy, err := bot.New(strategyName, r.rng)
	if err != nil {
		return SeatResultData{ErrorCode: CodeInternal, ErrorMessage: err.Error()}
	}
	r.botSeq++
	identity := auth.Identity{
		UserID:      fmt.Sprintf("bot:%s:%d", r.table.ID, r.botSeq),
		DisplayName: fmt.Sprintf("%s-%d", strategy.Name(), r.botSeq),
	}
	player := &game.Player{UserID: identity.UserID, Name: identity.DisplayName, Bot: true}
	pos, err := r.table.Reserve(-1, player)
	if err != nil {
		return SeatResultData{ErrorCode: codeFor(err), ErrorMessage: err.Error()}
	}
	if err := r.table.CompleteJoin(pos, buyIn); err != nil {
		r.table.Release(pos, player)
		return SeatResultData{ErrorCode: codeFor(err), ErrorMessage: err.Error()}
	}
	r.bots[pos] = &botEntry{identity: identity, strategy: strategy}
	r.flush()
	r.maybeScheduleStart()
	seated := pos
	return SeatResultData{Success: true, Position: &seated}
}

// Snapshot builds the personalized snapshot for a user. recipientID "" is
// the public HTTP view.
func (r *Runtime) Snapshot(recipientID string) *TableSnapshotData {
	var snap *TableSnapshotData
	r.DoSync(func() {
		snap = snapshotFor(r.table, recipientID, r.turn.timing())
	})
	return snap
}

// onTurnExpire fires from the clock goroutine: inject one synthetic action
// for the stalled seat. The sequence check makes expiry exactly-once; a turn
// that already moved on wins by queue order.
func (r *Runtime) onTurnExpire(turnSeq int) {
	r.Do(func() {
		h := r.table.Hand()
		if h == nil || h.TurnSeq != turnSeq || h.Actor < 0 {
			return
		}
		pos := h.Actor
		action := game.Fold
		for _, a := range h.LegalActions(pos) {
			if a.Type == game.Check {
				action = game.Check
				break
			}
		}
		r.logger.Info("Turn expired", "position", pos, "action", action)
		if _, err := h.Apply(pos, action, 0, "", true); err != nil {
			if errors.Is(err, game.ErrChipConservation) {
				r.table.Freeze(err.Error())
			} else {
				r.logger.Error("Timeout action rejected", "error", err)
			}
		}
		r.flush()
	})
}

// startHand runs on the queue.
func (r *Runtime) startHand() {
	r.startPending = false
	if !r.table.CanStart() {
		return
	}
	handID := gameid.New()
	if _, err := r.table.StartHand(handID); err != nil {
		r.logger.Error("Failed to start hand", "error", err)
		return
	}
	r.logger.Info("Hand started", "hand", handID, "players", r.table.OccupiedCount())
	r.flush()
}

// resumeHand re-arms the turn clock for a hand restored from a snapshot.
// Without it an absent actor would never time out and the table would stall.
// The persisted deadline is honored across the restart; a snapshot written
// before any turn started grants the full budget instead.
func (r *Runtime) resumeHand() {
	h := r.table.Hand()
	if h == nil || h.Actor < 0 {
		return
	}
	deadline := r.opts.ResumeTurnDeadline
	if deadline.IsZero() {
		deadline = r.clock.Now().Add(r.table.TurnBudget)
	}
	r.turn.resume(h.TurnSeq, deadline)
	r.logger.Info("Resumed hand from snapshot",
		"hand", h.ID, "street", h.Street.String(), "actor", h.Actor, "deadline", deadline)
}

// maybeScheduleStart arms the auto-start countdown when a hand could deal.
func (r *Runtime) maybeScheduleStart() {
	if r.startPending || !r.table.CanStart() {
		return
	}
	r.startPending = true
	countdown := int(r.opts.AutoStartDelay / time.Second)
	r.broadcast(mustMessage(MessageGameStarting, GameStartingData{
		TableID:          r.table.ID,
		CountdownSeconds: countdown,
	}))
	r.clock.AfterFunc(r.opts.AutoStartDelay, func() {
		r.Do(r.startHand)
	})
}

// flush drains engine events and fans them out. Runs on the queue; handlers
// may cause further events (hand cleanup), so it loops until quiet.
func (r *Runtime) flush() {
	for {
		events := r.table.TakeEvents()
		if len(events) == 0 {
			return
		}
		for _, ev := range events {
			r.handleEvent(ev)
		}
	}
}

func (r *Runtime) handleEvent(ev game.Event) {
	switch ev := ev.(type) {
	case game.HandStarted:
		r.onHandStarted(ev)

	case game.BlindPosted:
		r.stateUpdate("blind_posted", map[string]any{
			"position": ev.Position,
			"amount":   ev.Amount,
			"big":      ev.Big,
		})

	case game.ActionApplied:
		r.stateUpdate("action", map[string]any{
			"position":  ev.Position,
			"action":    ev.Type.String(),
			"amount":    ev.Amount,
			"pot":       ev.Pot,
			"street":    ev.Street.String(),
			"synthetic": ev.Synthetic,
		})

	case game.TurnStarted:
		r.onTurnStarted(ev)

	case game.StreetDealt:
		r.onStreetDealt(ev)

	case game.PotReturned:
		r.stateUpdate("pot_returned", map[string]any{
			"position": ev.Position,
			"amount":   ev.Amount,
		})

	case game.HandEnded:
		r.onHandEnded(ev)

	case game.SeatChanged:
		changes := map[string]any{"position": ev.Position, "stack": ev.Stack}
		if ev.Player != nil {
			changes["player"] = ev.Player
		}
		r.stateUpdate(ev.Change, changes)

	case game.TableFrozen:
		r.onFrozen(ev)
	}
}

func (r *Runtime) onHandStarted(ev game.HandStarted) {
	h := r.table.Hand()
	if h == nil {
		return
	}
	for userID, c := range r.subscribers {
		data := HandStartedData{
			TableID:        r.table.ID,
			HandID:         ev.HandID,
			Phase:          h.Street.String(),
			Pot:            ev.Pot,
			CommunityCards: []poker.Card{},
			Button:         ev.Button,
			SmallBlind:     ev.SmallBlind,
			BigBlind:       ev.BigBlind,
			CurrentTurn:    h.Actor,
			MyPosition:     -1,
			Seats:          seatViews(r.table, h, userID),
		}
		if hs := handSeatOf(r.table, h, userID); hs != nil {
			data.MyPosition = hs.Position
			data.MyHoleCards = append([]poker.Card{}, hs.Hole...)
		}
		c.Send(mustMessage(MessageHandStarted, data))
	}
	r.persist()
}

func (r *Runtime) onTurnStarted(ev game.TurnStarted) {
	h := r.table.Hand()
	if h == nil {
		return
	}
	r.turn.arm(ev.TurnSeq)
	timing := r.turn.timing()

	if hs := h.Seat(ev.Position); hs != nil {
		prompt := TurnPromptData{
			TableID:        r.table.ID,
			Position:       ev.Position,
			CurrentBet:     ev.CurrentBet,
			AllowedActions: ev.Allowed,
		}
		if timing != nil {
			prompt.TimeoutAt = timing.TimeoutAt
			prompt.GraceMs = timing.GraceMs
			prompt.CountdownMs = timing.CountdownMs
		}
		r.sendTo(hs.Player.UserID, mustMessage(MessageTurnPrompt, prompt))
	}
	r.broadcast(mustMessage(MessageTurnChanged, TurnChangedData{
		TableID:       r.table.ID,
		CurrentPlayer: ev.Position,
		CurrentBet:    ev.CurrentBet,
		Pot:           h.PotTotal(),
	}))

	if _, ok := r.bots[ev.Position]; ok {
		seq := ev.TurnSeq
		pos := ev.Position
		r.clock.AfterFunc(r.opts.BotThink, func() {
			r.Do(func() { r.botAct(pos, seq) })
		})
	}

	// Snapshot each turn so a restart resumes with the live deadline and the
	// full action log, not the state as of the last street.
	r.persist()
}

func (r *Runtime) botAct(pos, turnSeq int) {
	h := r.table.Hand()
	if h == nil || h.TurnSeq != turnSeq || h.Actor != pos {
		return
	}
	entry, ok := r.bots[pos]
	if !ok {
		return
	}
	hs := h.Seat(pos)
	if hs == nil {
		return
	}
	decision := entry.strategy.Decide(bot.Prompt{
		Hole:       hs.Hole,
		Board:      h.Board,
		Street:     h.Street,
		Pot:        h.PotTotal(),
		CurrentBet: h.Betting.CurrentBet,
		StreetBet:  hs.StreetBet,
		Stack:      hs.Stack(),
		BigBlind:   r.table.BigBlind,
		Allowed:    h.LegalActions(pos),
	})
	if _, err := h.Apply(pos, decision.Type, decision.Amount, uuid.NewString(), false); err != nil {
		if errors.Is(err, game.ErrChipConservation) {
			r.table.Freeze(err.Error())
		} else {
			// Strategies only emit legal actions; treat anything else as a
			// fold rather than stalling the table.
			r.logger.Error("Bot action rejected", "position", pos, "error", err)
			h.ForceFold(pos)
		}
	}
	r.flush()
}

func (r *Runtime) onStreetDealt(ev game.StreetDealt) {
	h := r.table.Hand()
	if h == nil {
		return
	}
	r.broadcast(mustMessage(MessageCommunityCards, CommunityCardsData{
		TableID: r.table.ID,
		Phase:   ev.Street.String(),
		Cards:   append([]poker.Card{}, h.Board...),
	}))
	r.persist()
}

func (r *Runtime) onHandEnded(ev game.HandEnded) {
	r.turn.stop()
	r.session.reset()

	result := HandResultData{
		TableID: r.table.ID,
		HandID:  ev.HandID,
		Winners: ev.Winners,
	}
	if len(ev.Showdown) > 0 {
		result.Board = ev.Board
		for _, rev := range ev.Showdown {
			result.Showdown = append(result.Showdown, ShowdownReveal{
				Position:  rev.Position,
				HoleCards: rev.HoleCards,
				HandRank:  rev.Rank.String(),
			})
		}
	}
	r.broadcast(mustMessage(MessageHandResult, result))

	done := r.table.ClearHand()
	if done != nil {
		r.archive(done)
	}
	r.persist()
	r.maybeScheduleStart()
}

// archive exports the finished hand in PHH format off the queue.
func (r *Runtime) archive(h *game.Hand) {
	hist, err := phh.FromHand(r.table.Name, r.table, h, r.clock.Now())
	if err != nil {
		r.logger.Error("Failed to build hand history", "hand", h.ID, "error", err)
		return
	}
	data, err := phh.EncodeToBytes(hist)
	if err != nil {
		r.logger.Error("Failed to encode hand history", "hand", h.ID, "error", err)
		return
	}
	arch := &store.HandArchive{TableID: r.table.ID, HandID: h.ID, Format: "phh", Data: data}
	go func() {
		if err := r.store.ArchiveHand(context.Background(), arch); err != nil {
			r.logger.Error("Failed to archive hand", "hand", arch.HandID, "error", err)
		}
	}()
	if dir := r.opts.HandHistoryDir; dir != "" {
		path := filepath.Join(dir, h.ID+".phh")
		go func() {
			if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
				r.logger.Error("Failed to export hand history", "path", path, "error", err)
			}
		}()
	}
}

// persist snapshots the table through the store. The record is a deep copy,
// so the write happens off the queue.
func (r *Runtime) persist() {
	rec := r.table.Record()
	if rec.Hand != nil {
		if timing := r.turn.timing(); timing != nil {
			rec.Hand.TurnDeadline = timing.TimeoutAt
		}
	}
	select {
	case r.snapshots <- rec:
	default:
		r.logger.Warn("Snapshot queue full, dropping snapshot")
	}
}

// snapshotFlusher writes queued snapshots in submission order, off the
// command queue. Per-write goroutines could land out of order and leave a
// stale record as the latest snapshot.
func (r *Runtime) snapshotFlusher(ctx context.Context) {
	for {
		select {
		case rec := <-r.snapshots:
			if err := r.store.SaveSnapshot(context.Background(), rec); err != nil {
				r.logger.Error("Failed to save snapshot", "error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

// onFrozen handles an invariant violation: stop the clocks, dump the full
// state for the operator, and tell every subscriber. The table accepts no
// further hand commands; no repair is attempted.
func (r *Runtime) onFrozen(ev game.TableFrozen) {
	r.turn.stop()
	r.logger.Error("TABLE FROZEN", "reason", ev.Reason)

	rec := r.table.Record()
	if r.opts.DumpDir != "" {
		dump := []byte(litter.Sdump(rec))
		path := filepath.Join(r.opts.DumpDir, r.table.ID+".freeze")
		go func() {
			if err := fileutil.WriteFileAtomic(path, dump, os.FileMode(0o644)); err != nil {
				r.logger.Error("Failed to write freeze dump", "path", path, "error", err)
			}
		}()
	}
	select {
	case r.snapshots <- rec:
	default:
		r.logger.Warn("Snapshot queue full, dropping freeze snapshot")
	}

	r.broadcast(mustMessage(MessageError, ErrorData{
		ErrorCode:     CodeTableFrozen,
		ErrorMessage:  "table halted pending operator review",
		Details:       ev.Reason,
		ShouldRefresh: true,
	}))
}

func (r *Runtime) stateUpdate(updateType string, changes map[string]any) {
	r.broadcast(mustMessage(MessageTableStateUpdate, TableStateUpdateData{
		TableID:    r.table.ID,
		UpdateType: updateType,
		Changes:    changes,
	}))
}

func (r *Runtime) broadcast(msg *Message) {
	for _, c := range r.subscribers {
		c.Send(msg)
	}
}

func (r *Runtime) sendTo(userID string, msg *Message) {
	if c, ok := r.subscribers[userID]; ok {
		c.Send(msg)
	}
}

// refund credits the wallet asynchronously; a failed credit is logged loudly
// for manual reconciliation rather than retried into the queue.
func (r *Runtime) refund(userID string, amount int, ref string) {
	go func() {
		if err := r.wallet.Credit(context.Background(), userID, amount, ref); err != nil {
			r.logger.Error("WALLET CREDIT FAILED", "user", userID, "amount", amount, "ref", ref, "error", err)
		}
	}()
}
