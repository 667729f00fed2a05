// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2024, Emir Aganovic

package audio

// WatchdogConfig expresses every timeout in samples at the session's
// output sample rate, converted once by the session at creation time.
type WatchdogConfig struct {
	NoPlaybackTimeout     uint32 // default: 4/3 * target latency
	ChoppyPlaybackTimeout uint32 // default: 2s
	ChoppyPlaybackWindow  uint32 // default: 300ms
	WarmupDuration        uint32 // default: one target latency
}

// Watchdog tracks two independent failure modes on the depacketizer's
// output: total silence (no-playback) and persistent partial loss
// (choppy playback). Once either timeout fires the session is marked
// dead; Alive stays false from then on.
type Watchdog struct {
	cfg WatchdogConfig

	pos                uint32
	lastPosBeforeBlank uint32
	lastPosBeforeDrops uint32
	windowFlags        Flags // drop flags missing from some frame of the current window

	warmup bool
	Alive  bool
}

// NewWatchdog returns a live watchdog starting in its warmup period.
func NewWatchdog(cfg WatchdogConfig) *Watchdog {
	return &Watchdog{cfg: cfg, warmup: true, Alive: true}
}

// Observe advances the watchdog by one frame's worth of samples and
// updates both timeouts. Returns Alive.
func (w *Watchdog) Observe(fr *Frame) bool {
	if !w.Alive {
		return false
	}

	n := uint32(fr.NumSamples())
	nextPos := w.pos + n

	w.updateWarmup(fr, nextPos)
	w.updateBlankTimeout(fr, nextPos)
	w.updateDropsTimeout(fr, nextPos)

	w.pos = nextPos

	if !w.checkBlankTimeout() || !w.checkDropsTimeout() {
		w.Alive = false
	}
	return w.Alive
}

// updateWarmup ends the warmup period permanently the first time a
// non-blank frame is observed; absent that, the configured grace
// duration alone also ends it, so a stream that never plays anything
// still becomes subject to the no-playback timeout eventually.
func (w *Watchdog) updateWarmup(fr *Frame, nextPos uint32) {
	if !w.warmup {
		return
	}
	if fr.Flags.Has(FlagNotBlank) {
		w.warmup = false
		w.lastPosBeforeBlank = nextPos
		return
	}
	if w.cfg.WarmupDuration > 0 && nextPos >= w.cfg.WarmupDuration {
		w.warmup = false
		w.lastPosBeforeBlank = nextPos
	}
}

func (w *Watchdog) updateBlankTimeout(fr *Frame, nextPos uint32) {
	if w.warmup || w.cfg.NoPlaybackTimeout == 0 {
		return
	}
	if fr.Flags.Has(FlagNotBlank) {
		w.lastPosBeforeBlank = nextPos
	}
}

func (w *Watchdog) checkBlankTimeout() bool {
	if w.warmup || w.cfg.NoPlaybackTimeout == 0 {
		return true
	}
	return w.pos-w.lastPosBeforeBlank < w.cfg.NoPlaybackTimeout
}

// updateDropsTimeout buckets frames into fixed windows of
// ChoppyPlaybackWindow samples; a window counts against the choppy
// timeout only if every frame within it was both incomplete (silence
// was emitted) and suffered a packet drop.
func (w *Watchdog) updateDropsTimeout(fr *Frame, nextPos uint32) {
	window := w.cfg.ChoppyPlaybackWindow
	if w.cfg.ChoppyPlaybackTimeout == 0 || window == 0 {
		return
	}
	const dropFlags = FlagNotComplete | FlagPacketDrops
	w.windowFlags |= dropFlags &^ fr.Flags

	windowStart := (w.pos / window) * window
	windowEnd := windowStart + window
	if windowEnd > nextPos {
		return
	}

	if w.windowFlags != 0 {
		w.lastPosBeforeDrops = nextPos
	}
	if nextPos%window == 0 {
		w.windowFlags = 0
	} else {
		w.windowFlags = dropFlags &^ fr.Flags
	}
}

func (w *Watchdog) checkDropsTimeout() bool {
	if w.cfg.ChoppyPlaybackTimeout == 0 {
		return true
	}
	return w.pos-w.lastPosBeforeDrops < w.cfg.ChoppyPlaybackTimeout
}
