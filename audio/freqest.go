// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2024, Emir Aganovic

package audio

import "gonum.org/v1/gonum/floats"

// Proportional and integral gains of the resampler's PI controller. A
// full-queue error corresponds to a few percent of scaling adjustment;
// the loop settles over seconds rather than milliseconds.
const (
	freqP = 100e-8
	freqI = 0.5e-8
)

// decimLen is the cascaded FIR decimators' tap count; decimFactor is
// the decimation ratio of each stage. Both are powers of two so the
// ring index can be masked instead of modded.
const (
	decimLen    = 8
	decimMask   = decimLen - 1
	decimFactor = 4
)

// decimTaps is a simple boxcar low-pass, used identically by both
// cascade stages; decimGain normalizes its output back to the input's
// scale.
var decimTaps = [decimLen]float64{1, 1, 1, 1, 1, 1, 1, 1}

const decimGain = float64(decimLen)

// FreqEstimator is a PI controller that tracks the jitter buffer's
// queue depth against a target latency and produces a resampler
// scaling multiplier. Two cascaded FIR decimators smooth per-frame
// queue-depth noise before it reaches the controller: a sample is
// pushed into the first stage every frame, the first stage emits into
// the second every decimFactor frames, and the controller updates
// every decimFactor^2 frames.
type FreqEstimator struct {
	target float64

	dec1     [decimLen]float64
	dec1Ind  int
	dec2     [decimLen]float64
	dec2Ind  int
	counter  int

	accum float64
	coeff float64
}

// NewFreqEstimator returns an estimator primed so the decimator cascade
// starts at steady state (no transient climb to the target).
func NewFreqEstimator(targetLatency uint32) *FreqEstimator {
	fe := &FreqEstimator{target: float64(targetLatency), coeff: 1}
	for i := range fe.dec1 {
		fe.dec1[i] = fe.target
		fe.dec2[i] = fe.target
	}
	return fe
}

// Coeff returns the current scaling multiplier.
func (fe *FreqEstimator) Coeff() float64 {
	return fe.coeff
}

// Update feeds one frame's measured queue depth into the decimator
// cascade, running the PI controller whenever the cascade produces a
// new filtered sample.
func (fe *FreqEstimator) Update(queueDepth uint32) {
	if filtered, ok := fe.runDecimators(float64(queueDepth)); ok {
		fe.coeff = fe.runController(filtered)
	}
}

func (fe *FreqEstimator) runDecimators(current float64) (float64, bool) {
	fe.counter++
	fe.dec1[fe.dec1Ind] = current

	if fe.counter%decimFactor == 0 {
		fe.dec2[fe.dec2Ind] = dotProd(decimTaps[:], fe.dec1[:], fe.dec1Ind) / decimGain

		if fe.counter%(decimFactor*decimFactor) == 0 {
			fe.counter = 0
			filtered := dotProd(decimTaps[:], fe.dec2[:], fe.dec2Ind) / decimGain
			return filtered, true
		}

		fe.dec2Ind = (fe.dec2Ind + 1) & decimMask
	}

	fe.dec1Ind = (fe.dec1Ind + 1) & decimMask
	return 0, false
}

func (fe *FreqEstimator) runController(measured float64) float64 {
	error := measured - fe.target
	fe.accum += error
	return 1 + freqP*error + freqI*fe.accum
}

// dotProd computes the inner product of coeff and a decim_len window of
// samples walked backwards from ind, matching the cascade's ring buffer
// layout; the window is materialized in walk order and handed to
// gonum's Dot so the reduction itself isn't hand-rolled.
func dotProd(coeff, samples []float64, ind int) float64 {
	window := make([]float64, len(coeff))
	i := ind
	for j := range window {
		window[j] = samples[i]
		i = (i - 1) & decimMask
	}
	return floats.Dot(coeff, window)
}
