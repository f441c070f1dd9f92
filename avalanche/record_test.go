// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package avalanche

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// voteYes/voteNo/voteNeutral spell out the three raw vote codes a Response
// entry can carry, matching the ErrorCode convention documented on rawVote.
const (
	voteYes     int32 = 0
	voteNo      int32 = 1
	voteNeutral int32 = -1
)

func registerN(r *Record, code int32, n int, quorum bool) (status Status, changed bool) {
	for i := 0; i < n; i++ {
		status, changed = r.RegisterVote(code, quorum)
	}
	return status, changed
}

func TestRecordNewRecordStartsUnfinalized(t *testing.T) {
	r := NewRecord(true)
	require.True(t, r.Accepted())
	require.Zero(t, r.Confidence())
	require.False(t, r.Finalized())
}

func TestRecordClimbsToFinalizationOnRepeatedAgreement(t *testing.T) {
	r := NewRecord(true)
	// The first 6 yes votes only fill the window; the window starts
	// deciding on the 7th, once 7 of the 8 most recent slots are definite
	// and agree, and each later yes vote climbs confidence by one.
	var status Status
	var changed bool
	for i := 0; i < int(FinalizationScore)+voteWindow; i++ {
		status, changed = r.RegisterVote(voteYes, true)
		if r.Finalized() {
			break
		}
	}
	require.Equal(t, Finalized, status)
	require.True(t, changed)
	require.True(t, r.Finalized())
	require.Equal(t, int(FinalizationScore), r.Confidence())
}

func TestRecordFinalizedRecordIsImmutable(t *testing.T) {
	r := NewRecord(true)
	for !r.Finalized() {
		r.RegisterVote(voteYes, true)
	}
	before := r.Confidence()

	status, changed := r.RegisterVote(voteNo, true)
	require.Equal(t, Finalized, status)
	require.False(t, changed)
	require.Equal(t, before, r.Confidence())
	require.True(t, r.Accepted())
}

func TestRecordInvalidRecordIsImmutable(t *testing.T) {
	r := NewRecord(false)
	for !r.Finalized() {
		r.RegisterVote(voteNo, true)
	}
	require.False(t, r.Accepted())

	status, changed := r.RegisterVote(voteYes, true)
	require.Equal(t, Invalid, status)
	require.False(t, changed)
}

func TestRecordOpposingWindowFlipsSideAtZeroConfidence(t *testing.T) {
	r := NewRecord(true)
	require.Zero(t, r.Confidence())

	// A side needs strictly more than voteWindowMajority (7 of the 8-slot
	// window) to decide; the 7th consecutive no vote flips the side here,
	// since confidence is already at its floor of zero.
	var status Status
	var changed bool
	for i := 0; i < voteWindowMajority+1; i++ {
		status, changed = r.RegisterVote(voteNo, true)
	}
	require.False(t, r.Accepted())
	require.True(t, changed)
	require.Equal(t, Rejected, status)
}

func TestRecordOpposingWindowFlipsImmediatelyRegardlessOfPriorConfidence(t *testing.T) {
	r := NewRecord(true)
	for i := 0; i < voteWindowMajority+1; i++ {
		r.RegisterVote(voteYes, true)
	}
	require.Positive(t, r.Confidence())
	require.True(t, r.Accepted())

	// Once the window turns decisively the other way, the side flips and
	// confidence resets to zero on that same round, however high
	// confidence had climbed; there is no gradual drain.
	var status Status
	var changed bool
	for i := 0; i < voteWindowMajority+1; i++ {
		status, changed = r.RegisterVote(voteNo, true)
	}
	require.False(t, r.Accepted())
	require.True(t, changed)
	require.Equal(t, Rejected, status)
	require.Zero(t, r.Confidence())
}

// TestRecordNeutralStallHoldsConfidenceInsteadOfResetting pins the ground
// truth from original_source's vote_item_register test: a window diluted
// by neutrals down to an inconclusive majority holds the current
// confidence and side exactly as they were, it does not reset the streak.
func TestRecordNeutralStallHoldsConfidenceInsteadOfResetting(t *testing.T) {
	r := NewRecord(true)
	for i := 0; i < voteWindowMajority+1; i++ {
		r.RegisterVote(voteYes, true)
	}
	confBefore := r.Confidence()
	require.Positive(t, confBefore)

	// The first neutral still leaves 7 definite yes votes in the window,
	// so it climbs once more; from the second neutral on the window is
	// inconclusive and confidence holds.
	status, changed := registerN(r, voteNeutral, voteWindow, true)
	require.False(t, changed)
	require.Equal(t, Accepted, status)
	require.Equal(t, confBefore+1, r.Confidence())
	require.True(t, r.Accepted())
}

func TestRecordWithoutQuorumWindowDecidesButConfidenceFrozen(t *testing.T) {
	r := NewRecord(true)
	for i := 0; i < voteWindow; i++ {
		status, changed := r.RegisterVote(voteYes, false)
		require.False(t, changed)
		require.Equal(t, Accepted, status)
	}
	require.Zero(t, r.Confidence())
	require.False(t, r.Finalized())
}

func TestRecordInflightBookkeeping(t *testing.T) {
	r := NewRecord(true)
	require.True(t, r.CanPoll())
	for i := uint8(0); i < MaxInflightPerItem; i++ {
		require.True(t, r.CanPoll())
		r.MarkPolled()
	}
	require.False(t, r.CanPoll())

	r.MarkAnswered()
	require.True(t, r.CanPoll())
}

func TestRecordMarkAnsweredFloorsAtZero(t *testing.T) {
	r := NewRecord(true)
	r.MarkAnswered()
	require.Zero(t, r.Inflight())
}

func TestRecordStaleCrossesThresholdRelativeToConfidence(t *testing.T) {
	r := NewRecord(true)
	require.False(t, r.Stale(10, 1))

	for i := 0; i < 11; i++ {
		r.RegisterVote(voteNeutral, true)
	}
	require.True(t, r.Stale(10, 1))
}

func TestRecordStaleThresholdGrowsWithConfidence(t *testing.T) {
	r := NewRecord(true)
	for i := 0; i < voteWindowMajority+1; i++ {
		r.RegisterVote(voteYes, true)
	}
	conf := uint32(r.Confidence())
	require.Positive(t, conf)

	// totalVotes is voteWindowMajority+1 (7) and confidence is 1: with
	// threshold 6 and factor 1 the limit is 6+1*1 = 7, which 7 votes do
	// not exceed; the confidence term is what keeps it from tripping.
	require.False(t, r.Stale(6, 1))
}

func TestRecordTotalVotesCountsNeutrals(t *testing.T) {
	r := NewRecord(true)
	r.RegisterVote(voteNeutral, true)
	r.RegisterVote(voteYes, true)
	require.Equal(t, uint32(2), r.TotalVotes())
}
