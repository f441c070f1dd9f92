// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package avalanche

import (
	"testing"

	"github.com/luxfi/ids"
	"github.com/stretchr/testify/require"
)

func TestVoteMapAddIsIdempotent(t *testing.T) {
	m := NewVoteMap(KindBlock)
	item := NewBlockItem(ids.GenerateTestID(), Work{Lo: 1}, nil)

	r1, created1 := m.Add(item, true)
	r2, created2 := m.Add(item, true)

	require.True(t, created1)
	require.False(t, created2)
	require.Same(t, r1, r2)
	require.Equal(t, 1, m.Len())
}

func TestVoteMapGetAndRemove(t *testing.T) {
	m := NewVoteMap(KindProof)
	item := NewProofItem(ids.GenerateTestID(), 10, nil)
	m.Add(item, true)

	got, record, ok := m.Get(item.VoteID())
	require.True(t, ok)
	require.Equal(t, item, got)
	require.NotNil(t, record)

	m.Remove(item.VoteID())
	require.Zero(t, m.Len())
	_, _, ok = m.Get(item.VoteID())
	require.False(t, ok)
}

func TestVoteMapCandidatesOrderedByWork(t *testing.T) {
	m := NewVoteMap(KindBlock)
	low := NewBlockItem(ids.GenerateTestID(), Work{Lo: 1}, nil)
	high := NewBlockItem(ids.GenerateTestID(), Work{Lo: 100}, nil)
	mid := NewBlockItem(ids.GenerateTestID(), Work{Lo: 50}, nil)

	m.Add(low, true)
	m.Add(high, true)
	m.Add(mid, true)

	got := m.Candidates(nil, 10)
	require.Equal(t, []Item{high, mid, low}, got)
}

func TestVoteMapCandidatesExcludeNotWorthAndExhaustedInflight(t *testing.T) {
	m := NewVoteMap(KindBlock)
	dead := NewBlockItem(ids.GenerateTestID(), Work{Lo: 100}, func() bool { return false })
	alive := NewBlockItem(ids.GenerateTestID(), Work{Lo: 1}, func() bool { return true })
	m.Add(dead, true)
	_, created := m.Add(alive, true)
	require.True(t, created)

	got := m.Candidates(nil, 10)
	require.Equal(t, []Item{alive}, got)

	_, record, _ := m.Get(alive.VoteID())
	for record.CanPoll() {
		record.MarkPolled()
	}
	got = m.Candidates(nil, 10)
	require.Empty(t, got)
}

func TestVoteMapCandidatesRemovesItemsFailingWorth(t *testing.T) {
	m := NewVoteMap(KindBlock)
	dead := NewBlockItem(ids.GenerateTestID(), Work{Lo: 100}, func() bool { return false })
	alive := NewBlockItem(ids.GenerateTestID(), Work{Lo: 1}, func() bool { return true })
	m.Add(dead, true)
	m.Add(alive, true)
	require.Equal(t, 2, m.Len())

	m.Candidates(nil, 10)

	require.Equal(t, 1, m.Len())
	_, _, ok := m.Get(dead.VoteID())
	require.False(t, ok)
	_, _, ok = m.Get(alive.VoteID())
	require.True(t, ok)
}

func TestVoteMapCandidatesRespectsMax(t *testing.T) {
	m := NewVoteMap(KindProof)
	for i := 0; i < 5; i++ {
		m.Add(NewProofItem(ids.GenerateTestID(), uint64(i), nil), true)
	}
	got := m.Candidates(nil, 2)
	require.Len(t, got, 2)
}

func TestVoteMapSweepVisitsAllInOrder(t *testing.T) {
	m := NewVoteMap(KindBlock)
	a := NewBlockItem(ids.GenerateTestID(), Work{Lo: 1}, nil)
	b := NewBlockItem(ids.GenerateTestID(), Work{Lo: 2}, nil)
	m.Add(a, true)
	m.Add(b, true)

	var seen []Item
	m.Sweep(func(item Item, record *Record) bool {
		seen = append(seen, item)
		return true
	})
	require.Equal(t, []Item{b, a}, seen)
}
