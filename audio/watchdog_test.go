// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2024, Emir Aganovic

package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func blankFrame(n int) *Frame {
	return &Frame{Samples: make([]float32, n), Spec: monoSpec(), Flags: FlagNotComplete}
}

func playingFrame(n int) *Frame {
	return &Frame{Samples: make([]float32, n), Spec: monoSpec(), Flags: FlagNotBlank}
}

func TestWatchdogExemptsBlankFramesDuringWarmup(t *testing.T) {
	w := NewWatchdog(WatchdogConfig{NoPlaybackTimeout: 10, WarmupDuration: 100})
	for i := 0; i < 20; i++ {
		assert.True(t, w.Observe(blankFrame(4)))
	}
}

func TestWatchdogFiresAfterWarmupOnSustainedSilence(t *testing.T) {
	w := NewWatchdog(WatchdogConfig{NoPlaybackTimeout: 8, WarmupDuration: 4})
	assert.True(t, w.Observe(playingFrame(4))) // ends warmup, resets blank clock
	assert.True(t, w.Observe(blankFrame(4)))   // pos 8, within timeout
	assert.False(t, w.Observe(blankFrame(4)))  // pos 12, 12-4=8 >= timeout
}

func TestWatchdogNeverRewarmsAfterNonBlankFrame(t *testing.T) {
	w := NewWatchdog(WatchdogConfig{NoPlaybackTimeout: 4, WarmupDuration: 1000})
	require := assert.New(t)
	require.True(w.Observe(playingFrame(2))) // ends warmup permanently at pos 2
	require.True(w.Observe(blankFrame(2)))   // pos 4, 4-2=2 < 4
	require.False(w.Observe(blankFrame(2)))  // pos 6, 6-2=4 >= 4
}

func TestWatchdogFiresOnPersistentChoppyWindows(t *testing.T) {
	w := NewWatchdog(WatchdogConfig{
		ChoppyPlaybackTimeout: 8,
		ChoppyPlaybackWindow:  4,
	})
	choppy := &Frame{Samples: make([]float32, 4), Spec: monoSpec(), Flags: FlagNotComplete | FlagPacketDrops}
	assert.True(t, w.Observe(choppy))  // window [0,4) fully choppy, pos 4, 4-0=4 < 8
	assert.False(t, w.Observe(choppy)) // window [4,8) fully choppy, pos 8, 8-0=8 >= 8
	assert.False(t, w.Observe(choppy)) // already dead
}

func TestWatchdogSurvivesOccasionalDropsOutsideWindow(t *testing.T) {
	w := NewWatchdog(WatchdogConfig{
		ChoppyPlaybackTimeout: 100,
		ChoppyPlaybackWindow:  4,
	})
	clean := playingFrame(4)
	choppy := &Frame{Samples: make([]float32, 4), Spec: monoSpec(), Flags: FlagNotComplete | FlagPacketDrops}
	for i := 0; i < 10; i++ {
		fr := clean
		if i%5 == 4 {
			fr = choppy
		}
		assert.True(t, w.Observe(fr))
	}
}

func TestWatchdogDeadSessionStaysDeadAndReadsNothing(t *testing.T) {
	w := NewWatchdog(WatchdogConfig{NoPlaybackTimeout: 2})
	w.Observe(playingFrame(1)) // ends warmup at pos 1
	w.Observe(blankFrame(4))   // pos 5, 5-1=4 >= 2, fires
	assert.False(t, w.Alive)
	assert.False(t, w.Observe(blankFrame(4)))
}
