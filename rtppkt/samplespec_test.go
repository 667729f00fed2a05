// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2024, Emir Aganovic

package rtppkt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSampleSpecConversions(t *testing.T) {
	s := SampleSpec{SampleRate: 44100, Channels: ChannelStereo}

	assert.Equal(t, 2, s.NumChannels())
	assert.Equal(t, uint32(4410), s.NsToSamples(100*time.Millisecond))
	assert.Equal(t, uint32(320), s.SamplesPerPacket(time.Duration(float64(320)/44100*float64(time.Second))))
}

func TestTimestampWraparound(t *testing.T) {
	// 2^32 -> 0 should look like a small positive delta, not a huge
	// negative number.
	before := uint32(1<<32 - 160)
	after := uint32(160)

	d := TimestampDiff(after, before)
	assert.Equal(t, int32(320), d)
	assert.True(t, TimestampLess(before, after))
}
