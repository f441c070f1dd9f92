// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package peer

import (
	"testing"

	"github.com/luxfi/ids"
	"github.com/luxfi/log"
	"github.com/stretchr/testify/require"
)

func newTestManager() *manager {
	return NewManager(log.NoLog{}).(*manager)
}

func TestManagerRegisterProofClassifiesFirstSeenAsOrphan(t *testing.T) {
	m := newTestManager()
	proofID := ids.GenerateTestID()

	class := m.RegisterProof(proofID, 10)
	require.Equal(t, ProofOrphan, class)

	class = m.RegisterProof(proofID, 10)
	require.Equal(t, ProofConflicting, class)
}

func TestManagerAddNodeBindsAndUnbindsPriorProof(t *testing.T) {
	m := newTestManager()
	node := ids.GenerateTestNodeID()
	proofA := ids.GenerateTestID()
	proofB := ids.GenerateTestID()

	require.NoError(t, m.AddNode(node, proofA, 10))
	require.True(t, m.IsBoundToPeer(proofA))

	require.NoError(t, m.AddNode(node, proofB, 10))
	require.False(t, m.IsBoundToPeer(proofA))
	require.True(t, m.IsBoundToPeer(proofB))
}

func TestManagerRemoveNodeUnbinds(t *testing.T) {
	m := newTestManager()
	node := ids.GenerateTestNodeID()
	proofID := ids.GenerateTestID()
	require.NoError(t, m.AddNode(node, proofID, 10))

	m.RemoveNode(node)
	require.False(t, m.IsBoundToPeer(proofID))

	_, ok := m.SelectNode()
	require.False(t, ok)
}

func TestManagerSelectNodeRoundRobins(t *testing.T) {
	m := newTestManager()
	n1 := ids.GenerateTestNodeID()
	n2 := ids.GenerateTestNodeID()
	require.NoError(t, m.AddNode(n1, ids.GenerateTestID(), 10))
	require.NoError(t, m.AddNode(n2, ids.GenerateTestID(), 10))

	first, ok := m.SelectNode()
	require.True(t, ok)
	second, ok := m.SelectNode()
	require.True(t, ok)
	require.NotEqual(t, first, second)
}

func TestManagerSelectNodeSkipsCoolingDownPeer(t *testing.T) {
	m := newTestManager()
	node := ids.GenerateTestNodeID()
	require.NoError(t, m.AddNode(node, ids.GenerateTestID(), 10))

	m.Cooldown(node, 60_000)

	_, ok := m.SelectNode()
	require.False(t, ok)
}

func TestManagerRejectProofRemovesBoundPeer(t *testing.T) {
	m := newTestManager()
	node := ids.GenerateTestNodeID()
	proofID := ids.GenerateTestID()
	require.NoError(t, m.AddNode(node, proofID, 10))

	m.RejectProof(proofID, RejectInvalid)
	require.False(t, m.IsBoundToPeer(proofID))
	_, ok := m.SelectNode()
	require.False(t, ok)
}

func TestManagerScoreAccounting(t *testing.T) {
	m := newTestManager()
	proofID := ids.GenerateTestID()
	m.RegisterProof(proofID, 50)

	require.EqualValues(t, 50, m.GetTotalPeersScore())
	require.Zero(t, m.GetConnectedPeersScore())

	node := ids.GenerateTestNodeID()
	require.NoError(t, m.AddNode(node, proofID, 50))
	require.EqualValues(t, 50, m.GetConnectedPeersScore())
}
