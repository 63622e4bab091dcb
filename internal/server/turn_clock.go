package server

import (
	"time"

	"github.com/coder/quartz"
)

// turnClock arms one timer per turn. The deadline is authoritative on the
// server; clients only render it. Expiry hands the turn sequence number back
// to the runtime, which discards it if the turn already moved on.
type turnClock struct {
	clock    quartz.Clock
	budget   time.Duration
	grace    time.Duration
	deadline time.Time
	armed    bool
	timer    *quartz.Timer
	onExpire func(turnSeq int)
}

func newTurnClock(clock quartz.Clock, budget, grace time.Duration, onExpire func(turnSeq int)) *turnClock {
	return &turnClock{clock: clock, budget: budget, grace: grace, onExpire: onExpire}
}

// arm starts the timer for a turn. Any previous timer is stopped first; a
// stale fire is additionally filtered by turnSeq on the runtime side.
func (tc *turnClock) arm(turnSeq int) {
	tc.stop()
	tc.deadline = tc.clock.Now().Add(tc.budget)
	tc.armed = true
	seq := turnSeq
	tc.timer = tc.clock.AfterFunc(tc.budget, func() {
		tc.onExpire(seq)
	})
}

// resume re-arms a turn restored from a snapshot with whatever budget its
// deadline has left. A deadline already in the past fires immediately.
func (tc *turnClock) resume(turnSeq int, deadline time.Time) {
	tc.stop()
	remaining := deadline.Sub(tc.clock.Now())
	if remaining < 0 {
		remaining = 0
	}
	tc.deadline = tc.clock.Now().Add(remaining)
	tc.armed = true
	seq := turnSeq
	tc.timer = tc.clock.AfterFunc(remaining, func() {
		tc.onExpire(seq)
	})
}

// stop cancels any pending timer.
func (tc *turnClock) stop() {
	if tc.timer != nil {
		tc.timer.Stop()
		tc.timer = nil
	}
	tc.armed = false
}

// timing reports the current deadline split for wire messages, or nil when no
// turn is live.
func (tc *turnClock) timing() *TurnTiming {
	if !tc.armed {
		return nil
	}
	countdown := tc.budget - tc.grace
	if countdown < 0 {
		countdown = 0
	}
	return &TurnTiming{
		TimeoutAt:   tc.deadline.UnixMilli(),
		GraceMs:     int(tc.grace / time.Millisecond),
		CountdownMs: int(countdown / time.Millisecond),
	}
}
