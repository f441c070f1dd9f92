// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package avalanche

import "github.com/luxfi/ids"

// ItemKind tags an Inv so a peer knows what it is being asked to vote on.
type ItemKind uint8

const (
	KindBlock ItemKind = iota
	KindProof
)

func (k ItemKind) String() string {
	if k == KindProof {
		return "proof"
	}
	return "block"
}

// Item is the capability set the engine requires of anything it reconciles:
// a stable 256-bit identity, a priority ordering against other items of the
// same kind, and a liveness predicate consulted before every poll. Callers
// decide what enters reconciliation; the engine only ever asks whether an
// item already inside is still worth polling.
type Item interface {
	// VoteID is this item's 256-bit identity. It must be stable for the
	// life of the item.
	VoteID() ids.ID

	// Kind reports which VoteMap this item belongs in.
	Kind() ItemKind

	// Less reports whether this item outranks other in priority order.
	// Blocks compare by accumulated work (more-work-first); proofs compare
	// by stake score (descending).
	Less(other Item) bool

	// Worth reports whether this item is still live: for blocks, not
	// marked failed and at or above the finalized tip; for proofs, still
	// bound to a peer or sitting in a replaceable conflicting pool. It
	// must be consulted under whichever lock the item's kind requires
	// (chain lock for blocks, peer-manager lock for proofs); the engine
	// itself holds neither across this call.
	Worth() bool
}

// BlockItem is a reference Item grounded on the block identity/ordering
// spec.md describes: 256-bit hash, priority = accumulated chain work.
type BlockItem struct {
	Hash     ids.ID
	Work     Work
	liveness func() bool
}

// Work is accumulated chain work; larger Work outranks smaller.
type Work struct {
	Hi, Lo uint64
}

// Less reports whether a represents strictly more accumulated work than b.
func (a Work) Less(b Work) bool {
	if a.Hi != b.Hi {
		return a.Hi > b.Hi
	}
	return a.Lo > b.Lo
}

// NewBlockItem wraps a block hash, its accumulated work, and a liveness
// predicate (e.g. "not marked failed and at or above the finalized tip")
// supplied by the chain collaborator.
func NewBlockItem(hash ids.ID, work Work, liveness func() bool) *BlockItem {
	return &BlockItem{Hash: hash, Work: work, liveness: liveness}
}

func (b *BlockItem) VoteID() ids.ID { return b.Hash }
func (b *BlockItem) Kind() ItemKind { return KindBlock }
func (b *BlockItem) Worth() bool    { return b.liveness == nil || b.liveness() }

func (b *BlockItem) Less(other Item) bool {
	o, ok := other.(*BlockItem)
	if !ok {
		return false
	}
	return b.Work.Less(o.Work)
}

// ProofItem is a reference Item grounded on the stake-proof identity/ordering
// spec.md describes: 256-bit proof id, priority = proof score (descending).
type ProofItem struct {
	ID       ids.ID
	Score    uint64
	liveness func() bool
}

// NewProofItem wraps a proof id, its stake score, and a liveness predicate
// (e.g. "still bound to a peer, or sitting in a replaceable conflicting
// pool") supplied by the peer-manager collaborator.
func NewProofItem(id ids.ID, score uint64, liveness func() bool) *ProofItem {
	return &ProofItem{ID: id, Score: score, liveness: liveness}
}

func (p *ProofItem) VoteID() ids.ID { return p.ID }
func (p *ProofItem) Kind() ItemKind { return KindProof }
func (p *ProofItem) Worth() bool    { return p.liveness == nil || p.liveness() }

func (p *ProofItem) Less(other Item) bool {
	o, ok := other.(*ProofItem)
	if !ok {
		return false
	}
	return p.Score > o.Score
}
