// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"testing"

	"github.com/luxfi/avalanche-engine/avalanche"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValidates(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
}

func TestValidateRejectsNegativeMinQuorumStake(t *testing.T) {
	c := DefaultConfig()
	c.MinQuorumStake = -1
	require.ErrorIs(t, c.Validate(), avalanche.ErrNegativeMinQuorumStake)
}

func TestValidateRejectsOversizedMinQuorumStake(t *testing.T) {
	c := DefaultConfig()
	c.MinQuorumStake = moneySupply + 1
	require.ErrorIs(t, c.Validate(), avalanche.ErrMinQuorumStakeTooLarge)
}

func TestValidateRejectsRatioOutOfBounds(t *testing.T) {
	c := DefaultConfig()
	c.MinQuorumConnectedScoreRatio = 1.5
	require.ErrorIs(t, c.Validate(), avalanche.ErrConnectedScoreRatioOutOfBounds)

	c = DefaultConfig()
	c.MinQuorumConnectedScoreRatio = -0.1
	require.ErrorIs(t, c.Validate(), avalanche.ErrConnectedScoreRatioOutOfBounds)
}

func TestValidateRejectsNegativeAvaproofsNodeCount(t *testing.T) {
	c := DefaultConfig()
	c.MinAvaproofsNodeCount = -1
	require.ErrorIs(t, c.Validate(), avalanche.ErrNegativeAvaproofsNodeCount)
}

func TestValidateRejectsStaleThresholdBelowFloor(t *testing.T) {
	c := DefaultConfig()
	c.StaleVoteThreshold = c.StaleVoteThresholdFloor - 1
	require.ErrorIs(t, c.Validate(), avalanche.ErrStaleVoteThresholdTooLow)
}

func TestMinQuorumScoreAppliesRatio(t *testing.T) {
	c := DefaultConfig()
	c.MinQuorumStake = 100
	c.StakeToScoreRatio = 0.5
	require.EqualValues(t, 50, c.MinQuorumScore())
}
