// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package peer defines the PeerSelector contract the avalanche engine
// requires of its peer/proof bookkeeping collaborator, plus an in-memory
// reference implementation of it.
package peer

import "github.com/luxfi/ids"

// ProofClassification is the outcome of admitting a stake proof into the
// collaborator, per spec.md §4.5.
type ProofClassification uint8

const (
	ProofBound ProofClassification = iota
	ProofConflicting
	ProofOrphan
	ProofRejected
)

// RejectMode tells RejectProof why a proof is no longer worth polling.
type RejectMode uint8

const (
	RejectExpired RejectMode = iota
	RejectInvalid
	RejectReplaced
)

// Manager is the collaborator contract spec.md §4.5 describes. The engine
// calls every method here under the collaborator's own mutex and never
// holds a lock of its own across the call. Manager has no knowledge of
// VoteRecord or VoteMap; it only tracks peers, proofs, and stake score.
type Manager interface {
	// RegisterProof admits a stake proof, classifying it bound, conflicting,
	// orphan, or rejected. score is the proof's voting weight, folded into
	// GetTotalPeersScore/GetConnectedPeersScore.
	RegisterProof(proofID ids.ID, score uint64) ProofClassification

	// AddNode binds a live peer to a known proof, updating connected score.
	// score is the proof's voting weight; it is recorded (or updated, if
	// the proof was already known with a different score) whether or not
	// the proof was previously registered via RegisterProof.
	AddNode(nodeID ids.NodeID, proofID ids.ID, score uint64) error

	// RemoveNode unbinds a peer, updating connected score. Called on
	// disconnect.
	RemoveNode(nodeID ids.NodeID)

	// SelectNode returns a peer currently eligible to be polled: no
	// outstanding query owed, cooldown elapsed. Successive calls return
	// different peers when more than one is available. ok is false when no
	// peer is currently eligible.
	SelectNode() (nodeID ids.NodeID, ok bool)

	// RejectProof marks a proof as no longer worth polling.
	RejectProof(proofID ids.ID, mode RejectMode)

	// IsBoundToPeer reports whether proofID is currently bound to a live
	// peer.
	IsBoundToPeer(proofID ids.ID) bool

	// IsInConflictingPool reports whether proofID currently sits in the
	// replaceable conflicting-proof pool.
	IsInConflictingPool(proofID ids.ID) bool

	// IsOrphan reports whether proofID has no known owning peer.
	IsOrphan(proofID ids.ID) bool

	// GetTotalPeersScore is the total stake score known to the
	// collaborator, across bound and unbound proofs.
	GetTotalPeersScore() uint64

	// GetConnectedPeersScore is the stake score of peers currently
	// connected.
	GetConnectedPeersScore() uint64

	// Cooldown marks nodeID as ineligible for SelectNode for the given
	// duration, in milliseconds. The scheduler calls it with the query
	// timeout when it sends nodeID a poll, and with the cooldown a
	// Response carries once that Response has been accepted.
	Cooldown(nodeID ids.NodeID, ms uint32)
}
