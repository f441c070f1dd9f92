// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package avalanche

import (
	"math/bits"
	"sync"
)

const (
	// FinalizationScore is the confidence ceiling at which a verdict
	// latches. Once a record's confidence reaches this value it is
	// terminal and no further vote mutates it.
	FinalizationScore uint16 = 128

	// MaxInflightPerItem bounds the number of outstanding polls any single
	// item may have at once.
	MaxInflightPerItem uint8 = 10

	// voteWindow is the number of past votes folded into one majority
	// decision.
	voteWindow = 8

	// voteWindowMajority is the floor a side's vote count must exceed,
	// out of the voteWindow slots, for the window to decide yes or no: a
	// side needs strictly more than voteWindowMajority (at least 7 of 8)
	// to win a round.
	voteWindowMajority = 6
)

// rawVote is the wire-level vote code from Response.Votes[i].ErrorCode:
// 0 means yes, negative means neutral (no opinion / unreachable),
// positive non-zero means no.
type rawVote int32

func (v rawVote) isYes() bool      { return v == 0 }
func (v rawVote) isDefinite() bool { return v >= 0 }

// Record is the per-item confidence state machine of spec.md §4.1. It
// folds the last voteWindow raw votes into a majority decision and climbs
// (or resets) a saturating confidence counter on each fold. It is grounded
// on tyler-smith-go-avalanche's bit-packed VoteRecord, cross-checked
// against the six-step algorithm in original_source's
// avalanche/processor.h and against ava-labs-avalanchego's snowflakePlus
// RecordSuccessfulPoll/RecordUnsuccessfulPoll idiom for naming the two
// confidence-counter transitions.
//
// A Record is shared by every in-flight query referencing its item, so
// distinct peers' responses can fold into it concurrently; it guards its
// own fields with a mutex rather than relying on the owning VoteMap's
// lock, which is only held for the map's own lookup/insert/delete.
type Record struct {
	mu sync.Mutex

	accepted   bool
	confidence uint16
	votes      uint8
	consider   uint8
	inflight   uint8

	totalVotes uint32 // total votes folded, including neutrals; drives staleness
}

// NewRecord creates a VoteRecord with the given initial verdict. Blocks are
// always newly-reconciled as accepted=true; proofs may start accepted or
// rejected depending on whether the proof is currently bound to a peer.
func NewRecord(accepted bool) *Record {
	return &Record{accepted: accepted}
}

// Accepted is the record's current side.
func (r *Record) Accepted() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.accepted
}

// Confidence is the record's current streak of matching majority decisions.
func (r *Record) Confidence() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int(r.confidence)
}

// Finalized reports whether this record has reached a terminal verdict
// (Finalized if accepted, Invalid if not).
func (r *Record) Finalized() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.finalizedLocked()
}

func (r *Record) finalizedLocked() bool { return r.confidence == FinalizationScore }

// Inflight is the number of outstanding polls referencing this item.
func (r *Record) Inflight() uint8 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inflight
}

// CanPoll reports whether another query may be issued for this item.
func (r *Record) CanPoll() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inflight < MaxInflightPerItem
}

// MarkPolled increments the in-flight count. Called when a query
// referencing this item is recorded.
func (r *Record) MarkPolled() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inflight++
}

// MarkAnswered decrements the in-flight count. Called on response
// match or on timeout.
func (r *Record) MarkAnswered() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.inflight > 0 {
		r.inflight--
	}
}

// TotalVotes is the number of votes folded into this record so far,
// including neutrals.
func (r *Record) TotalVotes() uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.totalVotes
}

// Stale reports whether this record has accumulated enough indecisive
// votes, relative to its confidence, to be abandoned. threshold is used
// as given; the hard floor is not applied here (config.Validate rejects
// thresholds below it).
func (r *Record) Stale(threshold, factor uint32) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	limit := threshold + factor*uint32(r.confidence)
	return r.totalVotes > limit
}

// RegisterVote folds one raw vote code into the record, per the six-step
// algorithm of spec.md §4.1. It returns the resulting Status and whether
// that status differs from "no change" (accepted stayed the same and
// confidence did not reach FinalizationScore this call).
//
// If quorumEstablished is false, the window decision is still computed
// (so staleness accounting and inflight bookkeeping stay correct) but
// confidence never advances, per spec.md §4.3 "Diversity & quorum
// interaction".
func (r *Record) RegisterVote(code int32, quorumEstablished bool) (status Status, changed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.finalizedLocked() {
		// A terminal record never mutates again.
		if r.accepted {
			return Finalized, false
		}
		return Invalid, false
	}

	r.totalVotes++

	v := rawVote(code)
	r.votes = (r.votes << 1) | boolBit(v.isYes())
	r.consider = (r.consider << 1) | boolBit(v.isDefinite())

	yesCount := bits.OnesCount8(r.votes & r.consider)
	noCount := bits.OnesCount8(^r.votes & r.consider)

	// A side needs strictly more than voteWindowMajority of the window's
	// slots, i.e. at least 7 of 8, matching tyler-smith-go-avalanche's
	// countBits8(...) > 6.
	yes := yesCount > voteWindowMajority
	no := noCount > voteWindowMajority

	if !yes && !no {
		// Undecided window: too diluted by neutrals, or split between
		// yes and no, to reach a majority either way. The streak holds
		// exactly as it was; an inconclusive round is not a reset.
		return r.currentIntermediateStatus(), false
	}

	if !quorumEstablished {
		// Window decided, but confidence may not advance while quorum is
		// not yet established.
		return r.currentIntermediateStatus(), false
	}

	if yes == r.accepted {
		// The window agrees with our current side: climb.
		if r.confidence < FinalizationScore {
			r.confidence++
		}
		if r.confidence == FinalizationScore {
			if r.accepted {
				return Finalized, true
			}
			return Invalid, true
		}
		return r.currentIntermediateStatus(), false
	}

	// The window opposes our current side: flip immediately, however high
	// confidence had climbed.
	r.accepted = yes
	r.confidence = 0
	return r.currentIntermediateStatus(), true
}

// currentIntermediateStatus reports Accepted or Rejected depending on the
// record's current side. It is only meaningful as the "no terminal
// transition happened" status; callers check `changed` before acting on it.
func (r *Record) currentIntermediateStatus() Status {
	if r.accepted {
		return Accepted
	}
	return Rejected
}

func boolBit(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
