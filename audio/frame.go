// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2024, Emir Aganovic

// Package audio implements the sample-rate side of the receiver
// pipeline: depacketizing, the L16 PCM codec, resampling, clock
// estimation, latency monitoring and the playback watchdog.
package audio

import "github.com/roc-go/roc/rtppkt"

// Flags describes how a Frame's samples were produced.
type Flags uint8

const (
	// FlagNotBlank is set if at least one decoded (non-silence) sample
	// was emitted into the frame.
	FlagNotBlank Flags = 1 << iota
	// FlagNotComplete is set if at least one silence sample was emitted
	// to fill a gap (missing packet, startup, or underrun).
	FlagNotComplete
	// FlagPacketDrops is set if a late packet was discarded while
	// advancing the decode offset.
	FlagPacketDrops
)

func (f Flags) Has(bit Flags) bool { return f&bit != 0 }

// Frame is a fixed-size span of interleaved samples at a SampleSpec's
// rate and channel layout, scaled to [-1, 1].
type Frame struct {
	Samples []float32
	Spec    rtppkt.SampleSpec
	Flags   Flags
}

// NewFrame allocates a Frame holding numSamples samples per channel.
func NewFrame(spec rtppkt.SampleSpec, numSamples int) *Frame {
	return &Frame{
		Samples: make([]float32, numSamples*spec.NumChannels()),
		Spec:    spec,
	}
}

// NumSamples returns the number of samples per channel the frame holds.
func (fr *Frame) NumSamples() int {
	n := fr.Spec.NumChannels()
	if n == 0 {
		return 0
	}
	return len(fr.Samples) / n
}
