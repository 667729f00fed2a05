// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2024, Emir Aganovic

package audio

import (
	"math"

	libresampler "github.com/tphakala/go-audio-resampler"
)

// QualityProfile selects a resampler backend and its filter length.
type QualityProfile int

const (
	QualityLow QualityProfile = iota
	QualityMedium
	QualityHigh
)

// firTaps returns the half-length of a windowed-sinc polyphase filter
// for the given profile; the full kernel spans 2*taps+1 samples.
func firTaps(q QualityProfile) int {
	switch q {
	case QualityHigh:
		return 32
	case QualityMedium:
		return 16
	default:
		return 8
	}
}

// PullResampler implements the receiver pipeline's pull-side resample
// contract: the audio thread calls PopOutput to fill a frame; the
// resampler pulls as much input as it needs via an upstream callback,
// producing output at OutRate as though input had been sped up or
// slowed down by the current scaling coefficient. It satisfies the
// Resampler interface the LatencyMonitor drives.
//
// When InRate == OutRate and scaling is 1.0, Bypass is true and
// PopOutput copies input straight through at zero extra cost.
type PullResampler struct {
	InRate, OutRate uint32
	Profile         QualityProfile

	scaling float64
	lib     *libresampler.Resampler // non-nil when Profile == QualityHigh and InRate != OutRate

	pending []float32 // input staged by PushInput, not yet consumed
	numChan int
}

// NewPullResampler returns a resampler converting inRate to outRate for
// numChan interleaved channels.
func NewPullResampler(inRate, outRate uint32, numChan int, profile QualityProfile) *PullResampler {
	r := &PullResampler{
		InRate:  inRate,
		OutRate: outRate,
		Profile: profile,
		scaling: 1.0,
		numChan: numChan,
	}
	if profile == QualityHigh && inRate != outRate {
		r.lib = libresampler.New(int(inRate), int(outRate), numChan)
	}
	return r
}

// Bypass reports whether this resampler is a pass-through: equal rates
// and unity scaling.
func (r *PullResampler) Bypass() bool {
	return r.InRate == r.OutRate && r.scaling == 1.0
}

// SetScaling adjusts the effective input/output ratio by coeff, taking
// effect with bounded delay (the next PopOutput call that needs more
// input). coeff == 1.0 means no correction.
func (r *PullResampler) SetScaling(coeff float64) {
	r.scaling = coeff
}

// PushInput stages more interleaved input samples for future PopOutput
// calls.
func (r *PullResampler) PushInput(samples []float32) {
	r.pending = append(r.pending, samples...)
}

// PopOutput fills out with resampled interleaved samples, returning how
// many full per-channel frames were written; fewer than requested means
// input ran out and the caller should push more before retrying, or pad
// the remainder with silence if none is forthcoming.
func (r *PullResampler) PopOutput(out []float32) int {
	if r.Bypass() {
		chans := max(1, r.numChan)
		frames := min(len(out), len(r.pending)) / chans
		n := frames * chans
		copy(out[:n], r.pending[:n])
		r.pending = r.pending[n:]
		return frames
	}
	if r.lib != nil {
		return r.popOutputLib(out)
	}
	return r.popOutputFIR(out)
}

// popOutputLib assumes, like popOutputFIR, that a "frame" is one sample
// per channel: the library reports how many frames it wrote to out, and
// consumed input is that count scaled by ratio and widened back out to
// interleaved samples before trimming r.pending.
func (r *PullResampler) popOutputLib(out []float32) int {
	chans := max(1, r.numChan)
	ratio := r.scaling * float64(r.InRate) / float64(r.OutRate)
	producedFrames := r.lib.Resample(r.pending, out, ratio)
	consumed := int(float64(producedFrames)*ratio) * chans
	if consumed > len(r.pending) {
		consumed = len(r.pending)
	}
	r.pending = r.pending[consumed:]
	return producedFrames
}

// popOutputFIR is the built-in windowed-sinc polyphase fallback, used
// whenever the library backend isn't selected (QualityLow/Medium) or
// input and output rates are equal but scaling != 1.0 (clock drift
// correction without true rate conversion).
func (r *PullResampler) popOutputFIR(out []float32) int {
	taps := firTaps(r.Profile)
	step := r.scaling * float64(r.InRate) / float64(r.OutRate)
	n := len(out) / max(1, r.numChan)

	produced := 0
	pos := 0.0
	for i := 0; i < n; i++ {
		center := int(pos)
		if (center+taps+1)*r.numChan > len(r.pending) {
			break
		}
		for ch := 0; ch < r.numChan; ch++ {
			out[i*r.numChan+ch] = sincInterpolate(r.pending, center, pos-float64(center), taps, r.numChan, ch)
		}
		produced++
		pos += step
	}

	consumed := int(pos) * r.numChan
	if consumed > len(r.pending) {
		consumed = len(r.pending)
	}
	r.pending = r.pending[consumed:]
	return produced
}

// sincInterpolate evaluates a windowed-sinc kernel of the given
// half-width around fractional position center+frac for channel ch of
// an interleaved buffer.
func sincInterpolate(buf []float32, center int, frac float64, taps, numChan, ch int) float32 {
	var sum float64
	for k := -taps; k <= taps; k++ {
		idx := center + k
		if idx < 0 || idx >= len(buf)/numChan {
			continue
		}
		x := float64(k) - frac
		sum += float64(buf[idx*numChan+ch]) * sinc(x) * hann(x, taps)
	}
	return float32(sum)
}

func sinc(x float64) float64 {
	if x == 0 {
		return 1
	}
	px := math.Pi * x
	return math.Sin(px) / px
}

func hann(x float64, taps int) float64 {
	t := float64(taps)
	if x < -t || x > t {
		return 0
	}
	return 0.5 + 0.5*math.Cos(math.Pi*x/t)
}
