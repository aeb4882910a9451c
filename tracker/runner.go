package tracker

import (
	"context"
	"fmt"

	"github.com/huangminghuang/chainwait/chain"
	"github.com/huangminghuang/chainwait/logger"
)

const opsBufferSize = 1024

// BlockSubscription is a cancellable subscription delivering block states.
type BlockSubscription interface {
	Cancel()
	Channel() <-chan chain.BlockState
}

// Runner owns a Tracker and serializes every access to it onto a single
// goroutine. Block events arrive over the two subscriptions, HTTP work
// arrives over an internal operations channel. Each operation runs to
// completion before the next one is picked up, so a wait request handled
// after a block event sees all of that event's state mutations. Block events
// and operations that are pending at the same time are taken in no fixed
// order; only operations are handled in the order they were enqueued.
type Runner struct {
	trk          *Tracker
	ops          chan func()
	accepted     BlockSubscription
	irreversible BlockSubscription
	log          logger.Logger
}

// NewRunner creates a Runner serializing access to trk. The subscriptions are
// cancelled when Run returns.
func NewRunner(trk *Tracker, log logger.Logger, accepted, irreversible BlockSubscription) *Runner {
	return &Runner{
		trk:          trk,
		ops:          make(chan func(), opsBufferSize),
		accepted:     accepted,
		irreversible: irreversible,
		log:          log,
	}
}

// Run processes block events and enqueued operations until the context is
// cancelled. It blocks.
func (r *Runner) Run(ctx context.Context) {
	defer r.accepted.Cancel()
	defer r.irreversible.Cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case bs := <-r.accepted.Channel():
			r.guard(func() { r.trk.OnAcceptedBlock(bs) })
		case bs := <-r.irreversible.Channel():
			r.guard(func() { r.trk.OnIrreversibleBlock(bs) })
		case op := <-r.ops:
			op()
		}
	}
}

// HandleWaitTransaction enqueues a wait request. The callback receives
// exactly one terminal response, a 500 included when the request handler
// fails.
func (r *Runner) HandleWaitTransaction(id chain.TransactionID, condition string, timeout uint32, cb Callback) {
	delivered := false
	once := func(status int, body any) {
		delivered = true
		cb(status, body)
	}
	r.ops <- func() {
		defer func() {
			if rec := recover(); rec != nil {
				r.log.Error(fmt.Sprintf("tracker runner, wait request for [ %s ] failed: %v", id, rec))
				if !delivered {
					cb(500, newErrorResult(500, "internal service error"))
				}
			}
		}()
		r.trk.HandleWaitRequest(id, condition, timeout, once)
	}
}

// Add enqueues admission of a transaction id, see Tracker.Add.
func (r *Runner) Add(id chain.TransactionID) {
	r.ops <- func() {
		r.guard(func() { r.trk.Add(id) })
	}
}

func (r *Runner) guard(fn func()) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error(fmt.Sprintf("tracker runner, recovered: %v", rec))
		}
	}()
	fn()
}
