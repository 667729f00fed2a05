// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2024, Emir Aganovic

package rtppkt

import "time"

// ChannelMask is a bitset over channel indices, generalizing the
// teacher's mono/stereo-only Codec to arbitrary layouts (surround,
// multi-track) per the data model.
type ChannelMask uint32

const (
	ChannelMono   ChannelMask = 0x1
	ChannelStereo ChannelMask = 0x3
)

// Count returns the number of set channel bits.
func (m ChannelMask) Count() int {
	n := 0
	for m != 0 {
		n += int(m & 1)
		m >>= 1
	}
	return n
}

// SampleSpec pairs a sample rate with a channel layout and provides
// exact, rounded conversions between nanoseconds and stream-timestamp
// ticks, generalizing the teacher's Codec.SampleTimestamp.
type SampleSpec struct {
	SampleRate uint32
	Channels   ChannelMask
}

// NumChannels returns the channel count implied by the layout mask.
func (s SampleSpec) NumChannels() int {
	if s.Channels == 0 {
		return 0
	}
	return s.Channels.Count()
}

// NsToSamples converts a duration to a tick count, rounding to nearest,
// matching the original's `f32(ns)/Second*rate` rounding rule.
func (s SampleSpec) NsToSamples(d time.Duration) uint32 {
	if d <= 0 || s.SampleRate == 0 {
		return 0
	}
	v := float64(d) / float64(time.Second) * float64(s.SampleRate)
	return uint32(v + 0.5)
}

// SamplesToNs is the inverse of NsToSamples.
func (s SampleSpec) SamplesToNs(samples uint32) time.Duration {
	if s.SampleRate == 0 {
		return 0
	}
	v := float64(samples) / float64(s.SampleRate) * float64(time.Second)
	return time.Duration(v + 0.5)
}

// NsToSampleDiff converts a duration to a signed tick distance, for
// thresholds that must compare against negative or positive jumps.
func (s SampleSpec) NsToSampleDiff(d time.Duration) int32 {
	neg := d < 0
	if neg {
		d = -d
	}
	v := int32(s.NsToSamples(d))
	if neg {
		return -v
	}
	return v
}

// SamplesPerPacket returns the number of samples (per channel) a packet
// of the given wall-clock length represents.
func (s SampleSpec) SamplesPerPacket(packetLength time.Duration) uint32 {
	return s.NsToSamples(packetLength)
}
