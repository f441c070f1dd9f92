// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package peer

import (
	"math"
	"sync"
	"time"

	"github.com/luxfi/cache"
	"github.com/luxfi/cache/lru"
	"github.com/luxfi/ids"
	"github.com/luxfi/log"
	safemath "github.com/luxfi/math"

	"github.com/luxfi/avalanche-engine/utils/timer/mockable"
)

// cooldownCacheSize bounds the recently-queried-peer cache the same way
// the platform validator set bounds its per-chain validator-set cache.
const cooldownCacheSize = 4096

type proofRecord struct {
	score       uint64
	boundTo     ids.NodeID
	bound       bool
	conflicting bool
	orphan      bool
}

// manager is a reference, in-memory Manager. It is grounded on the
// platform validator Manager's split between an authoritative map and an
// LRU for transient per-key state: here the per-peer cooldown deadline is
// the transient state, held in a cache.Cacher[ids.NodeID, time.Time]
// rather than recomputed on every SelectNode.
type manager struct {
	log log.Logger

	mu sync.Mutex

	proofs map[ids.ID]*proofRecord
	nodes  map[ids.NodeID]ids.ID // nodeID -> bound proofID

	cooldowns cache.Cacher[ids.NodeID, time.Time]
	clock     mockable.Clock

	// rr is the round-robin cursor SelectNode advances over a stable node
	// ordering so repeated calls fan out across eligible peers instead of
	// always returning the same one.
	rr      int
	ordered []ids.NodeID
}

// NewManager constructs an empty in-memory Manager.
func NewManager(logger log.Logger) Manager {
	return &manager{
		log:       logger,
		proofs:    make(map[ids.ID]*proofRecord),
		nodes:     make(map[ids.NodeID]ids.ID),
		cooldowns: lru.NewCache[ids.NodeID, time.Time](cooldownCacheSize),
	}
}

func (m *manager) RegisterProof(proofID ids.ID, score uint64) ProofClassification {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.proofs[proofID]; exists {
		return ProofConflicting
	}
	m.proofs[proofID] = &proofRecord{score: score, orphan: true}
	return ProofOrphan
}

func (m *manager) AddNode(nodeID ids.NodeID, proofID ids.ID, score uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.proofs[proofID]
	if !ok {
		rec = &proofRecord{}
		m.proofs[proofID] = rec
	}
	rec.score = score

	if prior, had := m.nodes[nodeID]; had {
		m.unbindLocked(nodeID, prior)
	}

	rec.boundTo = nodeID
	rec.bound = true
	rec.orphan = false
	rec.conflicting = false
	m.nodes[nodeID] = proofID
	m.addOrderedLocked(nodeID)

	m.log.Debug("peer bound to proof",
		log.Stringer("nodeID", nodeID),
		log.Stringer("proofID", proofID),
	)
	return nil
}

func (m *manager) RemoveNode(nodeID ids.NodeID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	proofID, ok := m.nodes[nodeID]
	if !ok {
		return
	}
	m.unbindLocked(nodeID, proofID)
	m.removeOrderedLocked(nodeID)
	delete(m.nodes, nodeID)
}

// unbindLocked clears the bound-peer state of proofID without touching
// m.nodes; callers update m.nodes themselves.
func (m *manager) unbindLocked(nodeID ids.NodeID, proofID ids.ID) {
	if rec, ok := m.proofs[proofID]; ok && rec.boundTo == nodeID {
		rec.bound = false
		rec.orphan = true
	}
}

func (m *manager) addOrderedLocked(nodeID ids.NodeID) {
	for _, n := range m.ordered {
		if n == nodeID {
			return
		}
	}
	m.ordered = append(m.ordered, nodeID)
}

func (m *manager) removeOrderedLocked(nodeID ids.NodeID) {
	for i, n := range m.ordered {
		if n == nodeID {
			m.ordered = append(m.ordered[:i], m.ordered[i+1:]...)
			return
		}
	}
}

func (m *manager) SelectNode() (ids.NodeID, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := len(m.ordered)
	if n == 0 {
		return ids.NodeID{}, false
	}

	now := m.clock.Time()
	for i := 0; i < n; i++ {
		idx := (m.rr + i) % n
		candidate := m.ordered[idx]
		if until, ok := m.cooldowns.Get(candidate); ok && now.Before(until) {
			continue
		}
		m.rr = (idx + 1) % n
		return candidate, true
	}
	return ids.NodeID{}, false
}

func (m *manager) Cooldown(nodeID ids.NodeID, ms uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	until := m.clock.Time().Add(time.Duration(ms) * time.Millisecond)
	m.cooldowns.Put(nodeID, until)
}

func (m *manager) RejectProof(proofID ids.ID, mode RejectMode) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.proofs[proofID]
	if !ok {
		return
	}
	if rec.bound {
		m.removeOrderedLocked(rec.boundTo)
		delete(m.nodes, rec.boundTo)
	}
	delete(m.proofs, proofID)

	m.log.Debug("proof rejected",
		log.Stringer("proofID", proofID),
		log.Uint32("mode", uint32(mode)),
	)
}

func (m *manager) IsBoundToPeer(proofID ids.ID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.proofs[proofID]
	return ok && rec.bound
}

func (m *manager) IsInConflictingPool(proofID ids.ID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.proofs[proofID]
	return ok && rec.conflicting
}

func (m *manager) IsOrphan(proofID ids.ID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.proofs[proofID]
	return ok && rec.orphan
}

// GetTotalPeersScore sums every registered proof's score. Accumulation
// uses safemath.Add64 rather than a bare `+=`, the same overflow guard
// the platform validator set applies when folding stake weights.
func (m *manager) GetTotalPeersScore() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	var total uint64
	for _, rec := range m.proofs {
		sum, err := safemath.Add64(total, rec.score)
		if err != nil {
			// Saturate rather than wrap; a quorum gate reading a wrapped
			// sum could latch on an artificially low total.
			return math.MaxUint64
		}
		total = sum
	}
	return total
}

func (m *manager) GetConnectedPeersScore() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	var connected uint64
	for _, rec := range m.proofs {
		if !rec.bound {
			continue
		}
		sum, err := safemath.Add64(connected, rec.score)
		if err != nil {
			return math.MaxUint64
		}
		connected = sum
	}
	return connected
}
