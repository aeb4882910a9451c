package tracker

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/huangminghuang/chainwait/chain"
)

func testID(b byte) chain.TransactionID {
	var id chain.TransactionID
	id[0] = b
	return id
}

func TestStoreInsertOrGet(t *testing.T) {
	s := newStore()

	rec, inserted := s.insertOrGet(testID(1))
	assert.True(t, inserted)
	assert.Equal(t, chain.Slot(0), rec.expirationSlot)

	again, inserted := s.insertOrGet(testID(1))
	assert.False(t, inserted)
	assert.Same(t, rec, again)
	assert.Equal(t, 1, s.len())
}

func TestStoreInsertKeepsExisting(t *testing.T) {
	s := newStore()

	s.insert(testID(1), 100)
	s.insert(testID(1), 200)

	assert.Equal(t, chain.Slot(100), s.find(testID(1)).expirationSlot)
	assert.Equal(t, 1, s.len())
}

func TestStoreModifyRebuckets(t *testing.T) {
	s := newStore()

	s.insert(testID(1), 100)
	rec := s.find(testID(1))
	s.modify(rec, func(rec *trackedTransaction) {
		rec.expirationSlot = 300
	})

	// the old bucket no longer reaps the record
	erased := s.eraseExpired(200)
	assert.Empty(t, erased)
	assert.True(t, s.contains(testID(1)))

	erased = s.eraseExpired(300)
	assert.Equal(t, []chain.TransactionID{testID(1)}, erased)
	assert.False(t, s.contains(testID(1)))
}

func TestStoreEraseExpiredBoundary(t *testing.T) {
	s := newStore()

	s.insert(testID(1), 100)
	s.insert(testID(2), 101)

	erased := s.eraseExpired(99)
	assert.Empty(t, erased)

	// the boundary slot itself expires
	erased = s.eraseExpired(100)
	assert.Equal(t, []chain.TransactionID{testID(1)}, erased)
	assert.True(t, s.contains(testID(2)))
}

func TestStoreEraseExpiredFiresParkedCallback(t *testing.T) {
	s := newStore()

	s.insert(testID(1), 100)
	var rec cbRecorder
	s.find(testID(1)).onWaitRequest(ConditionAccepted, rec.callback())

	s.eraseExpired(100)
	assert.Equal(t, []int{504}, rec.statuses)
}

func TestStoreSharedExpirationSlot(t *testing.T) {
	s := newStore()

	s.insert(testID(1), 100)
	s.insert(testID(2), 100)
	s.insert(testID(3), 100)

	erased := s.eraseExpired(100)
	assert.Len(t, erased, 3)
	assert.Equal(t, 0, s.len())
}

func TestStoreRebase(t *testing.T) {
	s := newStore()

	s.insert(testID(1), 360)
	s.insert(testID(2), 10)

	s.rebase(1000)

	assert.Equal(t, chain.Slot(1360), s.find(testID(1)).expirationSlot)
	assert.Equal(t, chain.Slot(1010), s.find(testID(2)).expirationSlot)

	erased := s.eraseExpired(1010)
	assert.Equal(t, []chain.TransactionID{testID(2)}, erased)
	assert.True(t, s.contains(testID(1)))
}

func TestStoreStaleHeapEntryTolerated(t *testing.T) {
	s := newStore()

	s.insert(testID(1), 100)
	rec := s.find(testID(1))
	s.modify(rec, func(rec *trackedTransaction) { rec.expirationSlot = 500 })

	// re-populating the drained slot must not lose records
	s.insert(testID(2), 100)

	erased := s.eraseExpired(100)
	assert.Equal(t, []chain.TransactionID{testID(2)}, erased)
	assert.True(t, s.contains(testID(1)))

	erased = s.eraseExpired(500)
	assert.Equal(t, []chain.TransactionID{testID(1)}, erased)
}
