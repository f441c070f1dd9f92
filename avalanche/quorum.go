// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package avalanche

import (
	"sync"
	"sync/atomic"

	"github.com/luxfi/ids"
)

// ScoreSource reports the stake-score totals the QuorumGate needs. A
// PeerManager satisfies this; the gate never reads peer state any other
// way.
type ScoreSource interface {
	GetTotalPeersScore() uint64
	GetConnectedPeersScore() uint64
}

// QuorumGate latches "quorum established" once stake coverage,
// connectivity, and avaproofs-hello count thresholds are all met, per
// spec.md §4.4. The latch is monotone: once true it stays true for the
// life of the process, evaluated with a sync.Once the way a one-shot
// readiness signal is latched elsewhere in this codebase.
//
// QuorumGate is safe for concurrent use.
type QuorumGate struct {
	minQuorumScore         uint64
	minConnectedScoreRatio float64
	minAvaproofsNodeCount  uint32

	once    sync.Once
	latched atomic.Bool

	avaproofsMu    sync.Mutex
	avaproofsSeen  map[ids.NodeID]struct{}
	avaproofsNodes atomic.Uint64
}

// NewQuorumGate constructs a gate with the given thresholds. Callers are
// expected to have already run config.Validate, which rejects the
// combinations NewQuorumGate would otherwise have to defend against.
func NewQuorumGate(minQuorumScore uint64, minConnectedScoreRatio float64, minAvaproofsNodeCount uint32) *QuorumGate {
	return &QuorumGate{
		minQuorumScore:         minQuorumScore,
		minConnectedScoreRatio: minConnectedScoreRatio,
		minAvaproofsNodeCount:  minAvaproofsNodeCount,
		avaproofsSeen:          make(map[ids.NodeID]struct{}),
	}
}

// AvaproofsSent records a distinct peer's avaproofs hello. It is
// idempotent per peer for the life of the process: the second and later
// calls for the same nodeID do not increment the counter.
func (g *QuorumGate) AvaproofsSent(nodeID ids.NodeID) {
	g.avaproofsMu.Lock()
	defer g.avaproofsMu.Unlock()

	if _, seen := g.avaproofsSeen[nodeID]; seen {
		return
	}
	g.avaproofsSeen[nodeID] = struct{}{}
	g.avaproofsNodes.Add(1)
}

// AvaproofsNodeCounter is the number of distinct peers that have sent an
// avaproofs hello so far.
func (g *QuorumGate) AvaproofsNodeCounter() uint64 {
	return g.avaproofsNodes.Load()
}

// Established reports whether the gate has latched. It is cheap and
// lock-free once latched, matching spec.md's "detection is latched once"
// requirement that IsQuorumEstablished be callable from arbitrary reader
// threads without contending the evaluation path.
func (g *QuorumGate) Established() bool {
	return g.latched.Load()
}

// Evaluate checks the three latch conditions against scores and latches
// the gate if they all hold. It is safe to call on every scheduler tick;
// once latched it is a no-op. It returns the gate's state after the call.
func (g *QuorumGate) Evaluate(scores ScoreSource) bool {
	if g.latched.Load() {
		return true
	}

	total := scores.GetTotalPeersScore()
	connected := scores.GetConnectedPeersScore()
	nodeCount := g.AvaproofsNodeCounter()

	ready := total >= g.minQuorumScore &&
		ratioAtLeast(connected, total, g.minConnectedScoreRatio) &&
		nodeCount >= uint64(g.minAvaproofsNodeCount)

	if ready {
		g.once.Do(func() { g.latched.Store(true) })
	}
	return g.latched.Load()
}

// ratioAtLeast reports whether connected/total >= ratio, treating a zero
// total as never satisfying a positive ratio requirement.
func ratioAtLeast(connected, total uint64, ratio float64) bool {
	if total == 0 {
		return ratio <= 0
	}
	return float64(connected)/float64(total) >= ratio
}
