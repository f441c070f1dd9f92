// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package avalanche

import "time"

// Params is the scalar configuration a Processor needs. It deliberately
// has no dependency on package config: config.Config is built for
// operator-facing parsing and validation and itself depends on this
// package's sentinel errors and constants, so Params stays the
// dependency-free shape config.Config converts into.
type Params struct {
	TickInterval               time.Duration
	QueryTimeout               time.Duration
	MaxOutstandingPeerRequests uint32
	MaxElementPoll             uint32

	MinQuorumScore               uint64
	MinQuorumConnectedScoreRatio float64
	MinAvaproofsNodeCount        uint32

	StaleVoteThreshold      uint32
	StaleVoteThresholdFloor uint32
	StaleVoteFactor         uint32

	// EnableProofReplacement allows proofs sitting in the peer
	// collaborator's conflicting pool to be polled, per spec.md §6's
	// enable_avalanche_proof_replacement option.
	EnableProofReplacement bool

	// AvaproofsStakeUTXOConfirmations is forwarded to the peer
	// collaborator verbatim; the engine itself never inspects UTXO
	// confirmation depth.
	AvaproofsStakeUTXOConfirmations uint32
}
