// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package avalanche

import (
	"sync/atomic"
	"time"

	"github.com/luxfi/ids"
	"github.com/luxfi/log"

	"github.com/luxfi/avalanche-engine/avalanche/peer"
	"github.com/luxfi/avalanche-engine/utils/timer/mockable"
)

// PollScheduler is the periodic event loop of spec.md §4.3: on every tick
// it sweeps expired queries, then issues fresh polls against eligible
// peers until either no peer is available or the global in-flight poll
// cap is reached. Response ingestion runs off the tick, driven by
// RegisterVotes as responses arrive from the transport.
type PollScheduler struct {
	log       log.Logger
	metrics   *Metrics
	params    Params
	clock     mockable.Clock
	transport Transport
	peers     peer.Manager

	blocks  *VoteMap
	proofs  *VoteMap
	queries *QuerySet
	quorum  *QuorumGate

	round atomic.Uint64
}

// NewPollScheduler wires a scheduler over the given VoteMaps, peer
// collaborator, and quorum gate. blocks and proofs are owned by the
// scheduler's caller (typically a Processor) and shared with it; the
// scheduler only ever reads and mutates them through their own locking.
func NewPollScheduler(
	logger log.Logger,
	metrics *Metrics,
	params Params,
	transport Transport,
	peers peer.Manager,
	blocks, proofs *VoteMap,
	queries *QuerySet,
	quorum *QuorumGate,
) *PollScheduler {
	return &PollScheduler{
		log:       logger,
		metrics:   metrics,
		params:    params,
		transport: transport,
		peers:     peers,
		blocks:    blocks,
		proofs:    proofs,
		queries:   queries,
		quorum:    quorum,
	}
}

// Tick runs one iteration of the event loop: timeout sweep, then poll
// issuance. Callers drive this on a ticker at roughly Params.TickInterval;
// the exact cadence is not load-bearing.
func (s *PollScheduler) Tick() {
	now := s.clock.Time()
	s.quorum.Evaluate(s.peers)
	s.metrics.SetQuorumLatched(s.quorum.Established())
	s.metrics.SetBlocksInFlight(s.blocks.Len())
	s.metrics.SetProofsInFlight(s.proofs.Len())
	s.sweepTimeouts(now)
	s.issuePolls(now)
}

// sweepTimeouts walks the query deadline index and retires every entry
// due at or before now, decrementing inflight on every item it
// referenced. It does not notify the peer collaborator; the cooldown
// issuePolls set for the peer when it sent the query lapses on its own.
func (s *PollScheduler) sweepTimeouts(now time.Time) {
	for _, invs := range s.queries.ExpireBefore(now) {
		s.metrics.QueryTimedOut()
		for _, inv := range invs {
			s.markAnswered(inv)
		}
	}
}

func (s *PollScheduler) markAnswered(inv Inv) {
	m := s.voteMapFor(inv.Kind)
	if m == nil {
		return
	}
	if _, record, ok := m.Get(inv.Hash); ok {
		record.MarkAnswered()
	}
}

func (s *PollScheduler) voteMapFor(kind ItemKind) *VoteMap {
	if kind == KindBlock {
		return s.blocks
	}
	return s.proofs
}

// issuePolls repeats peer selection and poll building until either no
// peer is available or the global outstanding-query cap is reached.
func (s *PollScheduler) issuePolls(now time.Time) {
	for uint32(s.queries.Len()) < s.params.MaxOutstandingPeerRequests {
		nodeID, ok := s.peers.SelectNode()
		if !ok {
			return
		}

		invs := s.buildInvs()
		if len(invs) == 0 {
			return
		}

		round := s.round.Add(1)
		if !s.queries.Insert(nodeID, round, invs, now, s.params.QueryTimeout) {
			// (node, round) collided with an in-flight query for this
			// peer; extremely unlikely with a monotone round counter, but
			// never emit a poll we cannot later match a response to.
			continue
		}

		// nodeID now owes an answer to this query: keep SelectNode from
		// returning it again until the query times out. An accepted
		// Response replaces this with the cooldown it carries.
		s.peers.Cooldown(nodeID, uint32(s.params.QueryTimeout/time.Millisecond))

		for _, inv := range invs {
			s.markPolled(inv)
		}

		s.metrics.PollSent()
		s.transport.SendPoll(nodeID, Poll{Round: round, Invs: invs})
	}
}

func (s *PollScheduler) markPolled(inv Inv) {
	m := s.voteMapFor(inv.Kind)
	if m == nil {
		return
	}
	if _, record, ok := m.Get(inv.Hash); ok {
		record.MarkPolled()
	}
}

// buildInvs collects up to MaxElementPoll worth-polling items, each kind in
// its own priority order. Every block candidate comes before every proof
// candidate: proofs only fill the slots the blocks leave free.
func (s *PollScheduler) buildInvs() []Inv {
	max := int(s.params.MaxElementPoll)
	if max > MaxElementPoll {
		max = MaxElementPoll
	}

	items := make([]Item, 0, max)
	items = s.blocks.Candidates(items, max)
	if len(items) < max {
		items = s.proofs.Candidates(items, max)
	}

	invs := make([]Inv, len(items))
	for i, item := range items {
		invs[i] = Inv{Kind: item.Kind(), Hash: item.VoteID()}
	}
	return invs
}

// RegisterVotes matches response to the outstanding query for nodeID and
// folds each vote into its VoteRecord, per spec.md §4.3(c). It returns
// the status updates produced, in vote order, and an error if the
// response could not be matched or was malformed.
//
// A malformed response still consumes (drops) the query it claimed to
// answer, freeing that query slot, but per spec.md §7/§8 touches no
// VoteRecord: inflight bookkeeping and confidence are left exactly as
// they were before the call, so a validation failure is fully
// idempotent from the VoteMaps' point of view. The inflight counts the
// dropped query added to its items are not decremented.
func (s *PollScheduler) RegisterVotes(nodeID ids.NodeID, response *Response) ([]Update[Item], error) {
	invs, ok := s.queries.TakeMatching(nodeID, response.Round)
	if !ok {
		s.metrics.ResponseDropped()
		return nil, ErrUnexpectedResponse
	}

	if len(response.Votes) != len(invs) {
		s.metrics.ResponseDropped()
		return nil, ErrInvalidResponseSize
	}

	for i, vote := range response.Votes {
		if vote.Hash != invs[i].Hash {
			s.metrics.ResponseDropped()
			return nil, ErrInvalidResponseContent
		}
	}

	quorumEstablished := s.quorum.Established()
	var updates []Update[Item]

	for i, vote := range response.Votes {
		inv := invs[i]
		s.markAnswered(inv)

		m := s.voteMapFor(inv.Kind)
		item, record, ok := m.Get(inv.Hash)
		if !ok {
			// Item was removed (liveness failure, concurrent terminal
			// status) between poll issuance and this response.
			continue
		}

		status, changed := record.RegisterVote(vote.ErrorCode, quorumEstablished)
		if !changed {
			continue
		}

		switch status {
		case Finalized:
			s.metrics.ItemFinalized()
			m.Remove(inv.Hash)
		case Invalid:
			s.metrics.ItemInvalidated()
			m.Remove(inv.Hash)
		}
		updates = append(updates, Update[Item]{Item: item, Status: status})
	}

	s.peers.Cooldown(nodeID, response.CooldownMS)
	s.metrics.ResponseMatched()
	return updates, nil
}

// SweepStale removes every item in both VoteMaps whose record has crossed
// the configured staleness threshold, returning the status updates it
// produced. Callers typically run this on a slower cadence than Tick.
func (s *PollScheduler) SweepStale() []Update[Item] {
	var updates []Update[Item]
	updates = s.sweepStaleMap(s.blocks, updates)
	updates = s.sweepStaleMap(s.proofs, updates)
	return updates
}

func (s *PollScheduler) sweepStaleMap(m *VoteMap, updates []Update[Item]) []Update[Item] {
	var stale []Item
	m.Sweep(func(item Item, record *Record) bool {
		if record.Stale(s.params.StaleVoteThreshold, s.params.StaleVoteFactor) {
			stale = append(stale, item)
		}
		return true
	})
	for _, item := range stale {
		m.Remove(item.VoteID())
		s.metrics.ItemStale()
		updates = append(updates, Update[Item]{Item: item, Status: Stale})
	}
	return updates
}
