// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package avalanche

import "errors"

// Response-match errors. These never touch a VoteRecord: RegisterVotes
// checks the whole response before folding a single vote. A response
// failing the size or content check still consumes the query it matched.
var (
	ErrUnexpectedResponse     = errors.New("unexpected ava response")
	ErrInvalidResponseSize    = errors.New("invalid ava response size")
	ErrInvalidResponseContent = errors.New("invalid ava response content")
)

// Construction errors, surfaced synchronously by config.Validate.
// NewProcessor does not validate its Params itself; callers run
// config.Validate first.
var (
	ErrNegativeMinQuorumStake         = errors.New("min quorum stake cannot be negative")
	ErrMinQuorumStakeTooLarge         = errors.New("min quorum stake cannot exceed money supply")
	ErrConnectedScoreRatioOutOfBounds = errors.New("min quorum connected score ratio must be in [0.0, 1.0]")
	ErrNegativeAvaproofsNodeCount     = errors.New("min avaproofs node count cannot be negative")
	ErrStaleVoteThresholdTooLow       = errors.New("stale vote threshold is below the hard floor")
)
