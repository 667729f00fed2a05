// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2024, Emir Aganovic

package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResampler struct {
	lastScaling float64
	calls       int
}

func (r *fakeResampler) SetScaling(coeff float64) {
	r.lastScaling = coeff
	r.calls++
}

func TestLatencyMonitorSkipsMeasurementBeforeFirstPacket(t *testing.T) {
	lm := NewLatencyMonitor(LatencyConfig{MinLatency: 0, MaxLatency: 1000}, nil)
	assert.True(t, lm.Update(0, 0, false))
	assert.Equal(t, int32(0), lm.LastDepth)
}

func TestLatencyMonitorTerminatesBelowMinLatency(t *testing.T) {
	lm := NewLatencyMonitor(LatencyConfig{MinLatency: 500, MaxLatency: 2000}, nil)
	ok := lm.Update(1000, 1100, true) // depth 100, below MinLatency 500
	assert.False(t, ok)
	assert.Equal(t, int32(100), lm.LastDepth)
}

func TestLatencyMonitorTerminatesAboveMaxLatency(t *testing.T) {
	lm := NewLatencyMonitor(LatencyConfig{MinLatency: 0, MaxLatency: 500}, nil)
	ok := lm.Update(1000, 2000, true) // depth 1000, above MaxLatency 500
	assert.False(t, ok)
}

func TestLatencyMonitorStaysAliveWithinBounds(t *testing.T) {
	lm := NewLatencyMonitor(LatencyConfig{MinLatency: 0, MaxLatency: 5000}, nil)
	assert.True(t, lm.Update(1000, 1800, true))
}

func TestLatencyMonitorDrivesResamplerOnUpdateBoundary(t *testing.T) {
	require := require.New(t)
	r := &fakeResampler{}
	lm := NewLatencyMonitor(LatencyConfig{
		TargetLatency:   800,
		MinLatency:      0,
		MaxLatency:      10000,
		MaxScalingDelta: 0.1,
		UpdateInterval:  1,
	}, r)

	ok := lm.Update(0, 800, true)
	require.True(ok)
	require.Equal(1, r.calls)
	require.InDelta(1.0, r.lastScaling, 1e-9)
}

func TestLatencyMonitorClampsScalingToMaxDelta(t *testing.T) {
	lm := NewLatencyMonitor(LatencyConfig{
		MaxScalingDelta: 0.01,
	}, nil)
	assert.InDelta(t, 1.01, lm.trimScaling(5.0), 1e-9)
	assert.InDelta(t, 0.99, lm.trimScaling(-5.0), 1e-9)
	assert.InDelta(t, 1.0, lm.trimScaling(1.0), 1e-9)
}
