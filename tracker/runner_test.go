package tracker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/huangminghuang/chainwait/chain"
	"github.com/huangminghuang/chainwait/reactive"
)

type testLogger struct{}

func (testLogger) Debug(string) {}
func (testLogger) Info(string)  {}
func (testLogger) Warn(string)  {}
func (testLogger) Error(string) {}
func (testLogger) Fatal(string) {}

func runRunner(t *testing.T, trk *Tracker) (*Runner, *reactive.Observable[chain.BlockState], *reactive.Observable[chain.BlockState], context.CancelFunc) {
	t.Helper()
	accepted := reactive.New[chain.BlockState](100)
	irreversible := reactive.New[chain.BlockState](100)
	r := NewRunner(trk, testLogger{}, accepted.Subscribe(), irreversible.Subscribe())
	ctx, cancel := context.WithCancel(context.Background())
	go r.Run(ctx)
	return r, accepted, irreversible, cancel
}

func awaitOutcome(t *testing.T, done <-chan int) int {
	t.Helper()
	select {
	case status := <-done:
		return status
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for the wait response")
		return 0
	}
}

// flush blocks until the runner has completed every operation enqueued
// before it. Block events are not ordered against operations, see awaitLIB.
func flush(r *Runner) {
	done := make(chan struct{})
	r.ops <- func() { close(done) }
	<-done
}

// awaitLIB blocks until the runner has ingested the irreversible block at
// slot. The runner takes pending channels in no fixed order, so a test that
// publishes on two channels synchronizes in between.
func awaitLIB(t *testing.T, r *Runner, slot chain.Slot) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		lib := make(chan chain.Slot, 1)
		r.ops <- func() { lib <- r.trk.LIBSlot() }
		if <-lib == slot {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("timed out waiting for the irreversible block")
}

func TestRunnerWaitAndBlockEvent(t *testing.T) {
	trk := newGlobalForTest()
	r, accepted, irreversible, cancel := runRunner(t, trk)
	defer cancel()

	trx100 := trx("trx100", 11, 22)
	irreversible.Publish(blockState(500, 1000))
	awaitLIB(t, r, 1000)

	done := make(chan int, 1)
	r.HandleWaitTransaction(trx100.ID(), "accepted", 180, func(status int, _ any) {
		done <- status
	})
	flush(r)

	accepted.Publish(blockState(601, 1101, trx100))
	assert.Equal(t, 202, awaitOutcome(t, done))
}

func TestRunnerExpiration(t *testing.T) {
	trk := newGlobalForTest()
	r, _, irreversible, cancel := runRunner(t, trk)
	defer cancel()

	trx100 := trx("trx100", 11, 22)
	irreversible.Publish(blockState(500, 1000))

	done := make(chan int, 1)
	r.HandleWaitTransaction(trx100.ID(), "finalized", 1, func(status int, _ any) {
		done <- status
	})
	flush(r)

	irreversible.Publish(blockState(700, 2000))
	assert.Equal(t, 504, awaitOutcome(t, done))
}

func TestRunnerAddFeedsLocalTracker(t *testing.T) {
	trk := newLocalForTest()
	r, accepted, irreversible, cancel := runRunner(t, trk)
	defer cancel()

	trx100 := trx("trx100", 11, 22)
	irreversible.Publish(blockState(500, 1000))
	awaitLIB(t, r, 1000)
	r.Add(trx100.ID())

	done := make(chan int, 1)
	r.HandleWaitTransaction(trx100.ID(), "accepted", 0, func(status int, _ any) {
		done <- status
	})
	flush(r)

	accepted.Publish(blockState(601, 1101, trx100))
	assert.Equal(t, 202, awaitOutcome(t, done))
}

func TestRunnerRecoversWaitHandlerPanic(t *testing.T) {
	// a tracker without a policy panics on dispatch; the runner must convert
	// that into a 500 through the callback instead of dying
	trk := &Tracker{tracked: newStore(), events: NoopPublisher{}}
	accepted := reactive.New[chain.BlockState](10)
	irreversible := reactive.New[chain.BlockState](10)
	r := NewRunner(trk, testLogger{}, accepted.Subscribe(), irreversible.Subscribe())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Run(ctx)

	trx100 := trx("trx100", 11, 22)
	done := make(chan int, 1)
	r.HandleWaitTransaction(trx100.ID(), "accepted", 180, func(status int, _ any) {
		done <- status
	})

	assert.Equal(t, 500, awaitOutcome(t, done))
}

func TestRunnerSurvivesCorruptedBlockEvent(t *testing.T) {
	trk := newGlobalForTest()
	r, _, irreversible, cancel := runRunner(t, trk)
	defer cancel()

	irreversible.Publish(chain.BlockState{}) // nil block, recovered by the runner
	irreversible.Publish(blockState(500, 1000))

	trx100 := trx("trx100", 11, 22)
	done := make(chan int, 1)
	r.HandleWaitTransaction(trx100.ID(), "accepted", 180, func(status int, _ any) {
		done <- status
	})
	flush(r)
	irreversibleOnly := blockState(601, 1101, trx100)
	irreversible.Publish(irreversibleOnly)

	// accepted is satisfied by the stronger finalized observation only when
	// conditions match; waiting for accepted on a finalized-only path parks
	// until expiration, so wait for the 504 driven by a later LIB advance
	irreversible.Publish(blockState(900, 3000))
	assert.Equal(t, 504, awaitOutcome(t, done))
}
