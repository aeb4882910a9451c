package tracker

import (
	"errors"

	"github.com/huangminghuang/chainwait/chain"
)

const (
	// DefaultSecondsPastLIB is the retention window past the last irreversible
	// block for keeping a tracked transaction, in seconds.
	DefaultSecondsPastLIB = 600

	// ModeGlobal tracks every transaction the node observes in blocks.
	ModeGlobal = "global"
	// ModeLocal tracks only transactions explicitly admitted with Add.
	ModeLocal = "local"
)

var ErrUnknownMode = errors.New("tracker mode must be 'global' or 'local'")

// Config contains configuration of the tracker.
type Config struct {
	Mode           string `yaml:"mode"`             // global or local admission policy
	SecondsPastLIB uint32 `yaml:"seconds_past_lib"` // retention past LIB in seconds, 0 means the default of 600
}

// Validate validates the tracker configuration.
func (c Config) Validate() error {
	if c.Mode != ModeGlobal && c.Mode != ModeLocal {
		return ErrUnknownMode
	}
	return nil
}

// Event describes a status change of a tracked transaction. Events are
// published so other parts of the node, such as the websocket feed, can
// observe the tracker without touching its state.
type Event struct {
	TransactionID chain.TransactionID `json:"transaction_id"`
	Status        string              `json:"status"`
	BlockNum      uint32              `json:"block_num,omitempty"`
}

// EventPublisher publishes tracker events. Publish must be non-blocking.
type EventPublisher interface {
	Publish(Event)
}

// NoopPublisher discards every event.
type NoopPublisher struct{}

func (NoopPublisher) Publish(Event) {}

// policy is the variant specific part of the tracker: who admits entries and
// which events stamp the expiration slot.
type policy interface {
	add(id chain.TransactionID)
	setTrackedTransaction(status Condition, blockNum uint32, trx chain.Transaction)
	onWaitRequest(id chain.TransactionID, condition Condition, timeout uint32, cb Callback)
}

// Tracker is the in-memory registry of tracked transactions. It consumes the
// accepted and irreversible block events of the chain controller, answers
// wait requests and reaps entries whose expiration slot fell behind the last
// irreversible slot.
//
// Tracker is not safe for concurrent use; all access must be serialized onto
// a single goroutine, see Runner.
type Tracker struct {
	tracked         *store
	libSlot         chain.Slot // slot of the last irreversible block, 0 until the first one is observed
	numSlotsPassLIB chain.Slot
	policy          policy
	events          EventPublisher
}

// New creates a Tracker with the admission policy selected by the config. An
// empty mode selects the global policy.
func New(cfg Config, events EventPublisher) (*Tracker, error) {
	if cfg.Mode == "" {
		cfg.Mode = ModeGlobal
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Mode == ModeLocal {
		return NewLocal(cfg, events), nil
	}
	return NewGlobal(cfg, events), nil
}

// NewGlobal creates a Tracker that tracks every transaction observed in
// accepted and irreversible blocks, plus any transaction a wait request names
// before it was observed.
func NewGlobal(cfg Config, events EventPublisher) *Tracker {
	t := newTracker(cfg, events)
	t.policy = &globalPolicy{t: t}
	return t
}

// NewLocal creates a Tracker that tracks only transactions admitted with Add,
// typically the ones submitted through this node. The timeout field of wait
// requests has no effect on this variant; the deadline is fixed at admission.
func NewLocal(cfg Config, events EventPublisher) *Tracker {
	t := newTracker(cfg, events)
	t.policy = &localPolicy{t: t}
	return t
}

func newTracker(cfg Config, events EventPublisher) *Tracker {
	secs := cfg.SecondsPastLIB
	if secs == 0 {
		secs = DefaultSecondsPastLIB
	}
	if events == nil {
		events = NoopPublisher{}
	}
	return &Tracker{
		tracked:         newStore(),
		numSlotsPassLIB: chain.Slot(secs) * 2,
		events:          events,
	}
}

// Add admits a transaction id for tracking. It is meaningful for the local
// variant only; the global variant admits by observation.
func (t *Tracker) Add(id chain.TransactionID) {
	t.policy.add(id)
	metricTracked.Set(float64(t.tracked.len()))
}

// HandleWaitRequest validates a wait request and delegates it to the
// admission policy. The callback receives exactly one terminal response.
func (t *Tracker) HandleWaitRequest(id chain.TransactionID, condition string, timeout uint32, cb Callback) {
	cb = countingCallback(cb)
	if id.IsZero() {
		cb(422, newErrorResult(422, "invalid transaction_id"))
		return
	}
	cond := ParseCondition(condition)
	if cond == ConditionInvalid {
		cb(422, newErrorResult(422, "condition must be 'accepted' or 'finalized'"))
		return
	}
	metricWaitRequests.WithLabelValues(cond.String()).Inc()
	t.policy.onWaitRequest(id, cond, timeout, cb)
	metricTracked.Set(float64(t.tracked.len()))
}

// OnAcceptedBlock ingests an accepted block event. Events arriving before the
// first irreversible block are dropped: without a LIB slot there is no stable
// reference frame for expiration stamping.
func (t *Tracker) OnAcceptedBlock(bs chain.BlockState) {
	if t.libSlot == 0 {
		return
	}
	metricBlocks.WithLabelValues("accepted").Inc()
	t.onBlock(ConditionAccepted, bs)
}

// OnIrreversibleBlock ingests an irreversible block event. The first such
// event rewrites the relative expiration offsets recorded so far into
// absolute slots, then every event advances the LIB slot, applies the block's
// transactions as finalized and reaps expired entries.
func (t *Tracker) OnIrreversibleBlock(bs chain.BlockState) {
	if t.libSlot == 0 {
		t.tracked.rebase(bs.Slot())
	}
	t.libSlot = bs.Slot()
	metricBlocks.WithLabelValues("irreversible").Inc()
	t.onBlock(ConditionFinalized, bs)
	t.ClearExpired(t.libSlot)
}

// ClearExpired reaps every entry whose expiration slot is at or below now,
// firing 504 responses into parked callbacks.
func (t *Tracker) ClearExpired(now chain.Slot) {
	erased := t.tracked.eraseExpired(now)
	for _, id := range erased {
		t.events.Publish(Event{TransactionID: id, Status: "expired"})
	}
	if len(erased) > 0 {
		metricExpired.Add(float64(len(erased)))
	}
	metricTracked.Set(float64(t.tracked.len()))
}

// Contains reports whether the id is currently tracked.
func (t *Tracker) Contains(id chain.TransactionID) bool {
	return t.tracked.contains(id)
}

// ExpirationSlot returns the expiration slot recorded for the id, or 0 when
// the id is not tracked.
func (t *Tracker) ExpirationSlot(id chain.TransactionID) chain.Slot {
	if rec := t.tracked.find(id); rec != nil {
		return rec.expirationSlot
	}
	return 0
}

// LIBSlot returns the slot of the last irreversible block observed, 0 before
// the first one.
func (t *Tracker) LIBSlot() chain.Slot {
	return t.libSlot
}

func (t *Tracker) onBlock(status Condition, bs chain.BlockState) {
	for _, receipt := range bs.Block.Transactions {
		if !receipt.IsPacked() {
			// id-only receipts carry no reference block fields to report
			continue
		}
		trx := receipt.Packed.Transaction()
		t.policy.setTrackedTransaction(status, bs.BlockNum(), trx)
		if t.tracked.contains(trx.ID()) {
			t.events.Publish(Event{TransactionID: trx.ID(), Status: status.String(), BlockNum: bs.BlockNum()})
		}
	}
	metricTracked.Set(float64(t.tracked.len()))
}

type globalPolicy struct {
	t *Tracker
}

func (p *globalPolicy) add(chain.TransactionID) {}

func (p *globalPolicy) setTrackedTransaction(status Condition, blockNum uint32, trx chain.Transaction) {
	t := p.t
	rec, _ := t.tracked.insertOrGet(trx.ID())
	expiration := t.libSlot + t.numSlotsPassLIB

	t.tracked.modify(rec, func(rec *trackedTransaction) {
		if status == ConditionFinalized || rec.waitCb == nil {
			// do not shorten a pending wait's deadline on an accepted event
			rec.expirationSlot = expiration
		}
		rec.onBlock(status, blockNum, trx)
	})
}

func (p *globalPolicy) onWaitRequest(id chain.TransactionID, condition Condition, timeout uint32, cb Callback) {
	t := p.t
	expiration := t.libSlot + 2*chain.Slot(timeout)

	rec, _ := t.tracked.insertOrGet(id)
	t.tracked.modify(rec, func(rec *trackedTransaction) {
		if rec.expirationSlot == 0 {
			rec.expirationSlot = expiration
		}
		rec.onWaitRequest(condition, cb)
	})
}

type localPolicy struct {
	t *Tracker
}

func (p *localPolicy) add(id chain.TransactionID) {
	p.t.tracked.insert(id, p.t.libSlot+p.t.numSlotsPassLIB)
}

func (p *localPolicy) setTrackedTransaction(status Condition, blockNum uint32, trx chain.Transaction) {
	t := p.t
	rec := t.tracked.find(trx.ID())
	if rec == nil {
		return
	}

	// the deadline was fixed at admission, only the state machine advances
	t.tracked.modify(rec, func(rec *trackedTransaction) {
		rec.onBlock(status, blockNum, trx)
	})
}

func (p *localPolicy) onWaitRequest(id chain.TransactionID, condition Condition, _ uint32, cb Callback) {
	t := p.t
	rec := t.tracked.find(id)
	if rec == nil {
		cb(404, newErrorResult(404, "the specified transaction is not currently tracked"))
		return
	}

	t.tracked.modify(rec, func(rec *trackedTransaction) {
		rec.onWaitRequest(condition, cb)
	})
}
