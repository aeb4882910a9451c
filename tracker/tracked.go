package tracker

import (
	"github.com/huangminghuang/chainwait/chain"
)

// trackedTransaction is the per transaction record of the tracker. It couples
// the strongest condition observed so far with at most one pending wait
// callback.
//
// The callback slot is a one-shot: it is moved out of the record before it is
// invoked, so a wait request arriving while the callback runs observes no
// pending wait.
type trackedTransaction struct {
	id             chain.TransactionID
	expirationSlot chain.Slot
	waitCondition  Condition
	resultStatus   Condition
	response       WaitResponse
	waitCb         Callback
}

func newTrackedTransaction(id chain.TransactionID, expiration chain.Slot) *trackedTransaction {
	return &trackedTransaction{id: id, expirationSlot: expiration}
}

// onWaitRequest registers a wait for the requested condition. When the
// condition is already satisfied the callback fires immediately and nothing
// is parked. When another wait is pending the new request is refused with 403
// without disturbing the parked callback.
func (t *trackedTransaction) onWaitRequest(condition Condition, cb Callback) {
	if condition == t.resultStatus {
		cb(int(t.resultStatus), t.response)
		return
	}

	if t.waitCb != nil {
		cb(403, newErrorResult(403, "pending wait on the transaction exists"))
		return
	}

	t.waitCb = cb
	t.waitCondition = condition
}

// onBlock records that the transaction was observed in a block with the given
// condition and fires the parked callback when the condition matches the one
// waited for.
func (t *trackedTransaction) onBlock(condition Condition, blockNum uint32, trx chain.Transaction) {
	t.resultStatus = condition
	t.response = WaitResponse{
		BlockNum:       blockNum,
		RefBlockNum:    trx.RefBlockNum,
		RefBlockPrefix: trx.RefBlockPrefix,
	}

	if t.waitCondition == condition && t.waitCb != nil {
		cb := t.waitCb
		t.waitCb = nil
		cb(int(condition), t.response)
	}
}

// onExpired fires the parked callback, if any, with a 504. The caller erases
// the record afterwards.
func (t *trackedTransaction) onExpired() {
	if t.waitCb != nil {
		cb := t.waitCb
		t.waitCb = nil
		cb(504, newErrorResult(504, "wait transaction expired"))
	}
}
