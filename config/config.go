// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package config defines configuration for the avalanche voting engine.
package config

import (
	"time"

	"github.com/luxfi/avalanche-engine/avalanche"
)

// moneySupply bounds MinQuorumStake the way a chain's total issued supply
// would; a real deployment wires this from the chain collaborator instead
// of a constant, but config.Validate needs a concrete ceiling to reject
// obviously-wrong values at construction time.
const moneySupply = 21_000_000 * 100_000_000 // 21M units at 1e8 fixed-point

// Config holds every tunable of a Processor: poll cadence, timeouts, the
// quorum thresholds of spec.md §4.4, and the staleness parameters of
// §4.1.
type Config struct {
	// TickInterval is how often the scheduler wakes to sweep timeouts and
	// issue new polls.
	TickInterval time.Duration `json:"tickInterval"`

	// QueryTimeout is how long an outstanding query may go unanswered
	// before it is swept.
	QueryTimeout time.Duration `json:"queryTimeout"`

	// MaxOutstandingPeerRequests bounds how many queries may be
	// outstanding at once, across all peers; a tick issues no new poll
	// while that many are in flight.
	MaxOutstandingPeerRequests uint32 `json:"maxOutstandingPeerRequests"`

	// MaxElementPoll bounds how many items a single Poll message may ask
	// about. Values above avalanche.MaxElementPoll are capped to it when
	// a poll is built; Validate does not check it.
	MaxElementPoll uint32 `json:"maxElementPoll"`

	// MinQuorumStake is the minimum total stake, in fixed-point currency
	// units, before the quorum gate may latch.
	MinQuorumStake int64 `json:"minQuorumStake"`

	// StakeToScoreRatio converts a fixed-point stake amount into the score
	// units the quorum gate and PeerSelector collaborator deal in.
	StakeToScoreRatio float64 `json:"stakeToScoreRatio"`

	// MinQuorumConnectedScoreRatio is the required connected/total stake
	// score ratio, in [0.0, 1.0].
	MinQuorumConnectedScoreRatio float64 `json:"minQuorumConnectedScoreRatio"`

	// MinAvaproofsNodeCount is the number of distinct peer-hellos required
	// before the quorum gate may latch.
	MinAvaproofsNodeCount int32 `json:"minAvaproofsNodeCount"`

	// StaleVoteThreshold is the base count of folded votes, excluding the
	// confidence-scaled component, after which an item is abandoned as
	// stale.
	StaleVoteThreshold uint32 `json:"staleVoteThreshold"`

	// StaleVoteThresholdFloor is the hard floor StaleVoteThreshold may
	// never go below, guarding against a staleness sweep so aggressive
	// it evicts items before they can realistically finalize.
	StaleVoteThresholdFloor uint32 `json:"staleVoteThresholdFloor"`

	// StaleVoteFactor is multiplied by an item's current confidence and
	// added to StaleVoteThreshold: higher-confidence items get more slack
	// before being called stale.
	StaleVoteFactor uint32 `json:"staleVoteFactor"`

	// EnableAvalancheProofReplacement allows conflicting-pool proofs to be
	// polled instead of only bound ones.
	EnableAvalancheProofReplacement bool `json:"enableAvalancheProofReplacement"`

	// AvaproofsStakeUTXOConfirmations is forwarded to the peer
	// collaborator unexamined.
	AvaproofsStakeUTXOConfirmations uint32 `json:"avaproofsStakeUtxoConfirmations"`
}

// DefaultConfig returns the engine's default configuration, matching the
// constants original_source's avalanche/processor.h hard-codes.
func DefaultConfig() Config {
	return Config{
		TickInterval:                 avalanche.DefaultQueryTimeout / 10,
		QueryTimeout:                 avalanche.DefaultQueryTimeout,
		MaxOutstandingPeerRequests:   8,
		MaxElementPoll:               avalanche.MaxElementPoll,
		MinQuorumStake:               0,
		StakeToScoreRatio:            1.0,
		MinQuorumConnectedScoreRatio: 0.8,
		MinAvaproofsNodeCount:        0,
		StaleVoteThreshold:           20,
		StaleVoteThresholdFloor:      20,
		StaleVoteFactor:              1,

		EnableAvalancheProofReplacement: false,
		AvaproofsStakeUTXOConfirmations: 6,
	}
}

// Validate rejects configurations the engine cannot safely construct a
// Processor from, per spec.md §4.4's parameter-validation requirements.
func (c Config) Validate() error {
	switch {
	case c.MinQuorumStake < 0:
		return avalanche.ErrNegativeMinQuorumStake
	case c.MinQuorumStake > moneySupply:
		return avalanche.ErrMinQuorumStakeTooLarge
	case c.MinQuorumConnectedScoreRatio < 0.0 || c.MinQuorumConnectedScoreRatio > 1.0:
		return avalanche.ErrConnectedScoreRatioOutOfBounds
	case c.MinAvaproofsNodeCount < 0:
		return avalanche.ErrNegativeAvaproofsNodeCount
	case c.StaleVoteThreshold < c.StaleVoteThresholdFloor:
		return avalanche.ErrStaleVoteThresholdTooLow
	}
	return nil
}

// MinQuorumScore converts MinQuorumStake into the score units the
// QuorumGate compares against, via the configured fixed-point ratio.
func (c Config) MinQuorumScore() uint64 {
	return uint64(float64(c.MinQuorumStake) * c.StakeToScoreRatio)
}

// ToParams converts a validated Config into the dependency-free shape the
// avalanche package's Processor consumes. Callers must run Validate first;
// ToParams does not re-check bounds.
func (c Config) ToParams() avalanche.Params {
	return avalanche.Params{
		TickInterval:                 c.TickInterval,
		QueryTimeout:                 c.QueryTimeout,
		MaxOutstandingPeerRequests:   c.MaxOutstandingPeerRequests,
		MaxElementPoll:               c.MaxElementPoll,
		MinQuorumScore:               c.MinQuorumScore(),
		MinQuorumConnectedScoreRatio: c.MinQuorumConnectedScoreRatio,
		MinAvaproofsNodeCount:        uint32(c.MinAvaproofsNodeCount),
		StaleVoteThreshold:           c.StaleVoteThreshold,
		StaleVoteThresholdFloor:      c.StaleVoteThresholdFloor,
		StaleVoteFactor:              c.StaleVoteFactor,

		EnableProofReplacement:          c.EnableAvalancheProofReplacement,
		AvaproofsStakeUTXOConfirmations: c.AvaproofsStakeUTXOConfirmations,
	}
}
