// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package avalanche

import (
	"bytes"
	"sync"
	"time"

	"github.com/google/btree"
	"github.com/luxfi/ids"
)

// nodeIDLess orders two NodeIDs lexicographically by their raw bytes. It
// exists only to break deadline ties in the QuerySet's btree index.
func nodeIDLess(a, b ids.NodeID) bool {
	return bytes.Compare(a.Bytes(), b.Bytes()) < 0
}

// MaxElementPoll bounds how many Invs a single Poll message may carry.
// Grounded on original_source's AVALANCHE_MAX_ELEMENT_POLL.
const MaxElementPoll = 16

// DefaultQueryTimeout is how long the scheduler waits for a Response before
// considering a Query timed out. Grounded on original_source's
// AVALANCHE_DEFAULT_QUERY_TIMEOUT.
const DefaultQueryTimeout = 10 * time.Second

// queryKey identifies one outstanding Query: the peer it was sent to and
// the round it was sent in. A peer never has two live queries in the same
// round, so (NodeID, Round) is unique, the same composite key
// original_source's QuerySet hashes on.
type queryKey struct {
	NodeID ids.NodeID
	Round  uint64
}

// query is one outstanding poll sent to a peer, pending its Response or
// timeout. It mirrors original_source's Query: a fixed identity
// (nodeID, round), a deadline, and the Invs it asked about.
type query struct {
	key     queryKey
	invs    []Inv
	timeout time.Time
}

// queryLess orders two queries by deadline, breaking ties by key so the
// btree never collapses distinct queries with identical deadlines.
func queryLess(a, b *query) bool {
	if a.timeout.Before(b.timeout) {
		return true
	}
	if b.timeout.Before(a.timeout) {
		return false
	}
	if a.key.NodeID != b.key.NodeID {
		return nodeIDLess(a.key.NodeID, b.key.NodeID)
	}
	return a.key.Round < b.key.Round
}

// QuerySet is the set of outstanding queries, indexed both by (peer,
// round) for response matching and by deadline for the scheduler's
// timeout sweep. It is the Go counterpart of original_source's
// boost::multi_index QuerySet, built instead from a plain map plus a
// google/btree ordered index, the same pairing VoteMap uses for its own
// dual lookup/ordering requirement.
//
// QuerySet is safe for concurrent use.
type QuerySet struct {
	mu       sync.Mutex
	byKey    map[queryKey]*query
	byExpiry *btree.BTreeG[*query]
}

// NewQuerySet creates an empty QuerySet.
func NewQuerySet() *QuerySet {
	return &QuerySet{
		byKey:    make(map[queryKey]*query),
		byExpiry: btree.NewG(voteMapDegree, queryLess),
	}
}

// Insert records a new outstanding query for nodeID/round, asking about
// invs, expiring at now+timeout. It returns false without inserting if a
// query for that (nodeID, round) pair already exists.
func (qs *QuerySet) Insert(nodeID ids.NodeID, round uint64, invs []Inv, now time.Time, timeout time.Duration) bool {
	qs.mu.Lock()
	defer qs.mu.Unlock()

	key := queryKey{NodeID: nodeID, Round: round}
	if _, exists := qs.byKey[key]; exists {
		return false
	}

	q := &query{key: key, invs: invs, timeout: now.Add(timeout)}
	qs.byKey[key] = q
	qs.byExpiry.ReplaceOrInsert(q)
	return true
}

// TakeMatching removes and returns the query for (nodeID, round), if any.
// The scheduler calls this once per incoming Response, before folding any
// of its votes into VoteMap records: a Response that does not match a
// live query is rejected wholesale per spec.md §5.
func (qs *QuerySet) TakeMatching(nodeID ids.NodeID, round uint64) ([]Inv, bool) {
	qs.mu.Lock()
	defer qs.mu.Unlock()

	key := queryKey{NodeID: nodeID, Round: round}
	q, ok := qs.byKey[key]
	if !ok {
		return nil, false
	}
	delete(qs.byKey, key)
	qs.byExpiry.Delete(q)
	return q.invs, true
}

// ExpireBefore removes and returns the Invs of every query whose deadline
// is at or before now, in deadline order. The scheduler calls this once
// per tick to drive the per-item MarkAnswered bookkeeping for queries
// nobody ever answered.
func (qs *QuerySet) ExpireBefore(now time.Time) [][]Inv {
	qs.mu.Lock()
	defer qs.mu.Unlock()

	var expired []*query
	qs.byExpiry.Ascend(func(q *query) bool {
		if q.timeout.After(now) {
			return false
		}
		expired = append(expired, q)
		return true
	})

	invs := make([][]Inv, len(expired))
	for i, q := range expired {
		invs[i] = q.invs
		delete(qs.byKey, q.key)
		qs.byExpiry.Delete(q)
	}
	return invs
}

// Len reports the number of outstanding queries.
func (qs *QuerySet) Len() int {
	qs.mu.Lock()
	defer qs.mu.Unlock()
	return len(qs.byKey)
}

// Clear discards every outstanding query without processing it. It is
// called when the engine stops: spec.md §5 requires that stopping
// discards all pending queries and synthesizes no terminal-status
// updates for the items they referenced.
func (qs *QuerySet) Clear() {
	qs.mu.Lock()
	defer qs.mu.Unlock()
	qs.byKey = make(map[queryKey]*query)
	qs.byExpiry = btree.NewG(voteMapDegree, queryLess)
}
