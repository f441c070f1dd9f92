// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package avalanche

import (
	"testing"

	"github.com/luxfi/ids"
	"github.com/stretchr/testify/require"
)

type fakeScores struct {
	total, connected uint64
}

func (f fakeScores) GetTotalPeersScore() uint64     { return f.total }
func (f fakeScores) GetConnectedPeersScore() uint64 { return f.connected }

func TestQuorumGateLatchesOnceAllThresholdsMet(t *testing.T) {
	g := NewQuorumGate(100, 0.5, 2)
	require.False(t, g.Established())

	g.AvaproofsSent(ids.GenerateTestNodeID())
	require.False(t, g.Evaluate(fakeScores{total: 200, connected: 100}))

	g.AvaproofsSent(ids.GenerateTestNodeID())
	require.True(t, g.Evaluate(fakeScores{total: 200, connected: 100}))
	require.True(t, g.Established())
}

func TestQuorumGateAvaproofsSentIsIdempotentPerPeer(t *testing.T) {
	g := NewQuorumGate(0, 0, 2)
	node := ids.GenerateTestNodeID()
	g.AvaproofsSent(node)
	g.AvaproofsSent(node)
	require.EqualValues(t, 1, g.AvaproofsNodeCounter())
}

func TestQuorumGateNeverUnlatches(t *testing.T) {
	g := NewQuorumGate(10, 1.0, 1)
	g.AvaproofsSent(ids.GenerateTestNodeID())
	require.True(t, g.Evaluate(fakeScores{total: 10, connected: 10}))

	// A subsequent evaluation with scores that would no longer satisfy the
	// thresholds must not unlatch the gate.
	require.True(t, g.Evaluate(fakeScores{total: 0, connected: 0}))
	require.True(t, g.Established())
}

func TestQuorumGateZeroTotalNeverSatisfiesPositiveRatio(t *testing.T) {
	g := NewQuorumGate(0, 0.1, 0)
	require.False(t, g.Evaluate(fakeScores{total: 0, connected: 0}))
}

func TestQuorumGateZeroRatioAllowsZeroTotal(t *testing.T) {
	g := NewQuorumGate(0, 0, 0)
	require.True(t, g.Evaluate(fakeScores{total: 0, connected: 0}))
}
