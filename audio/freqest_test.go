// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2024, Emir Aganovic

package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFreqEstimatorHoldsUnityAtTarget(t *testing.T) {
	fe := NewFreqEstimator(1000)
	for i := 0; i < 64; i++ {
		fe.Update(1000)
	}
	assert.Equal(t, 1.0, fe.Coeff())
}

func TestFreqEstimatorSpeedsUpWhenQueueRunsDeep(t *testing.T) {
	fe := NewFreqEstimator(1000)
	for i := 0; i < 64; i++ {
		fe.Update(3000) // persistently above target
	}
	assert.Greater(t, fe.Coeff(), 1.0)
}

func TestFreqEstimatorSlowsDownWhenQueueRunsShallow(t *testing.T) {
	fe := NewFreqEstimator(1000)
	for i := 0; i < 64; i++ {
		fe.Update(200) // persistently below target
	}
	assert.Less(t, fe.Coeff(), 1.0)
}

func TestFreqEstimatorOnlyUpdatesOnCascadeBoundary(t *testing.T) {
	fe := NewFreqEstimator(1000)
	before := fe.Coeff()
	for i := 0; i < decimFactor*decimFactor-1; i++ {
		fe.Update(5000)
		assert.Equal(t, before, fe.Coeff(), "coeff must hold steady between cascade boundaries")
	}
}
