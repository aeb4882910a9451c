package tracker

import (
	"container/heap"

	"github.com/huangminghuang/chainwait/chain"
)

// store indexes trackedTransaction records two ways: by transaction id for
// lookups and by expiration slot for reaping. The expiration side keeps
// records in per slot buckets ordered by a min heap of slots. The heap may
// hold slots whose bucket has since drained; such entries are discarded when
// popped.
//
// store is not safe for concurrent use. The tracker owns it from a single
// goroutine.
type store struct {
	byID    map[chain.TransactionID]*trackedTransaction
	buckets map[chain.Slot]map[chain.TransactionID]*trackedTransaction
	slots   slotHeap
}

func newStore() *store {
	return &store{
		byID:    make(map[chain.TransactionID]*trackedTransaction),
		buckets: make(map[chain.Slot]map[chain.TransactionID]*trackedTransaction),
	}
}

// insertOrGet returns the record for id, creating it with a zero expiration
// slot when absent. The second result reports whether an insert happened.
func (s *store) insertOrGet(id chain.TransactionID) (*trackedTransaction, bool) {
	if t, ok := s.byID[id]; ok {
		return t, false
	}
	t := newTrackedTransaction(id, 0)
	s.byID[id] = t
	s.addToBucket(t)
	return t, true
}

// insert creates a record with the given expiration slot. Existing records
// are left untouched.
func (s *store) insert(id chain.TransactionID, expiration chain.Slot) {
	if _, ok := s.byID[id]; ok {
		return
	}
	t := newTrackedTransaction(id, expiration)
	s.byID[id] = t
	s.addToBucket(t)
}

func (s *store) find(id chain.TransactionID) *trackedTransaction {
	return s.byID[id]
}

func (s *store) contains(id chain.TransactionID) bool {
	_, ok := s.byID[id]
	return ok
}

func (s *store) len() int {
	return len(s.byID)
}

// modify applies fn to the record and re-indexes it when fn changed the
// expiration slot. Both indices are consistent before modify returns.
func (s *store) modify(t *trackedTransaction, fn func(*trackedTransaction)) {
	before := t.expirationSlot
	fn(t)
	if t.expirationSlot != before {
		s.removeFromBucket(t.id, before)
		s.addToBucket(t)
	}
}

// eraseExpired fires the expiration hook of every record whose expiration
// slot is at or below now and removes it from both indices. It returns the
// ids of the erased records.
func (s *store) eraseExpired(now chain.Slot) []chain.TransactionID {
	var erased []chain.TransactionID
	for s.slots.Len() > 0 {
		slot := s.slots[0]
		if slot > now {
			break
		}
		heap.Pop(&s.slots)
		bucket, ok := s.buckets[slot]
		if !ok {
			continue // stale heap entry, bucket drained by a modify
		}
		for id, t := range bucket {
			t.onExpired()
			delete(s.byID, id)
			erased = append(erased, id)
		}
		delete(s.buckets, slot)
	}
	return erased
}

// rebase adds start to the expiration slot of every record. It converts the
// relative offsets recorded before the first irreversible block into absolute
// slots.
func (s *store) rebase(start chain.Slot) {
	s.buckets = make(map[chain.Slot]map[chain.TransactionID]*trackedTransaction, len(s.buckets))
	s.slots = s.slots[:0]
	for _, t := range s.byID {
		t.expirationSlot += start
		s.addToBucket(t)
	}
}

func (s *store) addToBucket(t *trackedTransaction) {
	bucket, ok := s.buckets[t.expirationSlot]
	if !ok {
		bucket = make(map[chain.TransactionID]*trackedTransaction)
		s.buckets[t.expirationSlot] = bucket
		heap.Push(&s.slots, t.expirationSlot)
	}
	bucket[t.id] = t
}

func (s *store) removeFromBucket(id chain.TransactionID, slot chain.Slot) {
	bucket, ok := s.buckets[slot]
	if !ok {
		return
	}
	delete(bucket, id)
	if len(bucket) == 0 {
		delete(s.buckets, slot) // the heap entry goes stale and is skipped on pop
	}
}

type slotHeap []chain.Slot

func (h slotHeap) Len() int           { return len(h) }
func (h slotHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h slotHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *slotHeap) Push(x any)        { *h = append(*h, x.(chain.Slot)) }
func (h *slotHeap) Pop() any {
	old := *h
	n := len(old)
	slot := old[n-1]
	*h = old[:n-1]
	return slot
}
