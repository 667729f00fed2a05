// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2024, Emir Aganovic

package audio

import "github.com/roc-go/roc/rtppkt"

// Resampler is the narrow interface LatencyMonitor drives; PullResampler
// (resample.go) is the concrete implementation.
type Resampler interface {
	SetScaling(coeff float64)
}

// LatencyConfig bounds a session's acceptable queue depth and the
// aggressiveness of the scaling correction applied to close the gap
// between measured and target latency.
type LatencyConfig struct {
	TargetLatency   uint32 // samples, input rate
	MinLatency      uint32
	MaxLatency      uint32
	MaxScalingDelta float64 // e.g. 0.005 responsive, 0.01 default
	UpdateInterval  uint32  // samples between controller pokes
}

// LatencyMonitor measures queue depth (distance between the most
// recently arrived packet and the depacketizer's read position) each
// frame, drives a FreqEstimator at a fixed sample cadence, and pushes
// the resulting scaling coefficient into the resampler. It also
// enforces hard latency bounds: a session whose measured depth strays
// outside [MinLatency, MaxLatency] is terminated.
type LatencyMonitor struct {
	cfg        LatencyConfig
	fe         *FreqEstimator
	resampler  Resampler

	updatePos    uint32
	hasUpdatePos bool

	LastDepth int32
}

// NewLatencyMonitor returns a monitor driving resampler (nil disables
// scaling, used when input and output rates already match).
func NewLatencyMonitor(cfg LatencyConfig, resampler Resampler) *LatencyMonitor {
	return &LatencyMonitor{
		cfg:       cfg,
		fe:        NewFreqEstimator(cfg.TargetLatency),
		resampler: resampler,
	}
}

// Update measures the queue depth from nextTimestamp (the
// depacketizer's read position) and latestEnd (the most recently
// arrived packet's end timestamp), advances the controller, and
// applies the resulting scaling coefficient. Returns false if the
// session has drifted outside its configured latency bounds and must
// be terminated; returns true (without measuring) if no packet has
// arrived yet.
func (lm *LatencyMonitor) Update(nextTimestamp uint32, latestEnd uint32, hasLatest bool) bool {
	if !hasLatest {
		return true
	}

	depth := rtppkt.TimestampDiff(latestEnd, nextTimestamp)
	lm.LastDepth = depth

	if depth < int32(lm.cfg.MinLatency) || depth > int32(lm.cfg.MaxLatency) {
		return false
	}
	if lm.resampler == nil {
		return true
	}
	if depth < 0 {
		depth = 0
	}

	if !lm.hasUpdatePos {
		lm.hasUpdatePos = true
		lm.updatePos = nextTimestamp
	}
	for rtppkt.TimestampLessEqual(lm.updatePos, nextTimestamp) {
		lm.fe.Update(uint32(depth))
		lm.updatePos += lm.cfg.UpdateInterval
	}

	lm.resampler.SetScaling(lm.trimScaling(lm.fe.Coeff()))
	return true
}

func (lm *LatencyMonitor) trimScaling(coeff float64) float64 {
	min := 1 - lm.cfg.MaxScalingDelta
	max := 1 + lm.cfg.MaxScalingDelta
	switch {
	case coeff < min:
		return min
	case coeff > max:
		return max
	default:
		return coeff
	}
}
