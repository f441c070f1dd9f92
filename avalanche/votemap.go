// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package avalanche

import (
	"sync"

	"github.com/google/btree"
	"github.com/luxfi/ids"
)

// voteMapDegree is the btree node fanout used for every VoteMap. It follows
// the same default the platform validator set uses for its staker btrees.
const voteMapDegree = 32

// entry pairs one reconciled item with its VoteRecord. entries are ordered
// within the btree by the item's own priority (more-work-first for blocks,
// higher-score-first for proofs); ids.ID equality on VoteID breaks ties so
// two distinct items can never compare equal.
type entry struct {
	item   Item
	record *Record
}

func entryLess(a, b entry) bool {
	if a.item.Less(b.item) {
		return true
	}
	if b.item.Less(a.item) {
		return false
	}
	return idLess(a.item.VoteID(), b.item.VoteID())
}

func idLess(a, b ids.ID) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// VoteMap is the ordered set of items of one ItemKind currently under
// reconciliation, per spec.md §3 VoteMap. It supports O(log n) lookup by
// item identity and O(log n) insertion/removal while keeping items
// available for in-priority-order iteration (used by the scheduler's
// per-round poll-target selection).
//
// A VoteMap is safe for concurrent use.
type VoteMap struct {
	kind ItemKind

	mu     sync.RWMutex
	tree   *btree.BTreeG[entry]
	byVote map[ids.ID]entry
}

// NewVoteMap creates an empty VoteMap for the given item kind.
func NewVoteMap(kind ItemKind) *VoteMap {
	return &VoteMap{
		kind:   kind,
		tree:   btree.NewG(voteMapDegree, entryLess),
		byVote: make(map[ids.ID]entry),
	}
}

// Kind reports which ItemKind this VoteMap reconciles.
func (m *VoteMap) Kind() ItemKind { return m.kind }

// Len reports the number of items currently under reconciliation.
func (m *VoteMap) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byVote)
}

// Add inserts item into the map with a freshly constructed VoteRecord, if
// it is not already present. It returns the record (existing or new) and
// whether a new record was created.
func (m *VoteMap) Add(item Item, initialAccepted bool) (*Record, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := item.VoteID()
	if e, ok := m.byVote[id]; ok {
		return e.record, false
	}

	e := entry{item: item, record: NewRecord(initialAccepted)}
	m.byVote[id] = e
	m.tree.ReplaceOrInsert(e)
	return e.record, true
}

// Get returns the item and its VoteRecord by identity.
func (m *VoteMap) Get(id ids.ID) (Item, *Record, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.byVote[id]
	if !ok {
		return nil, nil, false
	}
	return e.item, e.record, true
}

// Remove drops id from the map. It is called once a record's status goes
// terminal (Finalized, Invalid, Stale).
func (m *VoteMap) Remove(id ids.ID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.byVote[id]
	if !ok {
		return
	}
	delete(m.byVote, id)
	m.tree.Delete(e)
}

// Candidates appends up to max poll-eligible items, in priority order, to
// dst and returns the extended slice. An item is poll-eligible when its
// record has room for another in-flight query (Record.CanPoll) and the
// item itself reports Worth(). Iteration stops early once max items have
// been collected.
//
// An item that fails Worth() is dead: per spec.md §3, items failing
// liveness are removed from the map silently, with no status update.
// Candidates collects dead ids during its read-locked ascent and removes
// them afterward, once the read lock is released, mirroring the
// collect-then-remove shape of the scheduler's own sweepStaleMap.
func (m *VoteMap) Candidates(dst []Item, max int) []Item {
	var dead []ids.ID

	m.mu.RLock()
	m.tree.Ascend(func(e entry) bool {
		if len(dst) >= max {
			return false
		}
		if !e.record.CanPoll() {
			return true
		}
		if !e.item.Worth() {
			dead = append(dead, e.item.VoteID())
			return true
		}
		dst = append(dst, e.item)
		return true
	})
	m.mu.RUnlock()

	for _, id := range dead {
		m.Remove(id)
	}
	return dst
}

// Sweep calls fn for every (item, record) pair currently held, in priority
// order. fn must not call back into the VoteMap: Sweep holds the read
// lock for its whole traversal. It is used by the scheduler's periodic
// staleness pass.
func (m *VoteMap) Sweep(fn func(item Item, record *Record) bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	m.tree.Ascend(func(e entry) bool {
		return fn(e.item, e.record)
	})
}
