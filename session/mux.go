// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2024, Emir Aganovic

package session

import (
	"sync"

	"github.com/roc-go/roc/audio"
	"github.com/roc-go/roc/router"
	"github.com/roc-go/roc/rtppkt"
	"github.com/rs/zerolog"
)

// Reader is the narrow interface Mux mixes over; *Session satisfies
// it, and tests can substitute a fake.
type Reader interface {
	Read(fr *audio.Frame)
	Dead() bool
}

// Mux holds every active session for one output stream. On Read it
// delegates directly when there is exactly one session (the common
// case), otherwise it sums every live session's output with
// saturation, matching the additive/clamped mixing a multi-party call
// needs.
type Mux struct {
	mu       sync.Mutex
	sessions map[uint32]Reader
	scratch  []float32
}

// NewMux returns an empty Mux.
func NewMux() *Mux {
	return &Mux{sessions: make(map[uint32]Reader)}
}

// Add registers a session under ssrc, replacing anything already
// there for that key.
func (m *Mux) Add(ssrc uint32, r Reader) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[ssrc] = r
}

// Read fills fr by mixing every live session's output. Dead sessions
// are skipped and pruned from the table.
func (m *Mux) Read(fr *audio.Frame) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range fr.Samples {
		fr.Samples[i] = 0
	}
	fr.Flags = 0

	if len(m.sessions) == 0 {
		fr.Flags = audio.FlagNotComplete
		return
	}

	if len(m.sessions) == 1 {
		for ssrc, r := range m.sessions {
			if r.Dead() {
				delete(m.sessions, ssrc)
				fr.Flags = audio.FlagNotComplete
				return
			}
			r.Read(fr)
		}
		return
	}

	if cap(m.scratch) < len(fr.Samples) {
		m.scratch = make([]float32, len(fr.Samples))
	}
	scratch := m.scratch[:len(fr.Samples)]

	for ssrc, r := range m.sessions {
		if r.Dead() {
			delete(m.sessions, ssrc)
			continue
		}

		scratchFrame := &audio.Frame{Samples: scratch, Spec: fr.Spec}
		r.Read(scratchFrame)
		fr.Flags |= scratchFrame.Flags

		for i, v := range scratch {
			fr.Samples[i] = clampSample(fr.Samples[i] + v)
		}
	}
}

func clampSample(v float32) float32 {
	switch {
	case v > 1:
		return 1
	case v < -1:
		return -1
	default:
		return v
	}
}

// Len returns the number of sessions currently tracked, live or dead.
func (m *Mux) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Factory adapts Mux+Session construction into a router.Factory: a
// newly admitted (endpoint, ssrc) pair gets a fresh Session wired per
// cfg and registered with the mux in the same step. cfg is validated
// once here, up front, so a bad config (e.g. a zero channel mask) fails
// before the router ever starts admitting sessions rather than on
// every individual SSRC.
func Factory(cfg Config, mux *Mux, log zerolog.Logger) (router.Factory, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return func(endpoint string, ssrc uint32) router.SessionSink {
		s, err := New(cfg, ssrc, log)
		if err != nil {
			// cfg was already validated above, so this is unreachable in
			// practice; fall back to an inert sink the router prunes on
			// its next maintenance pass rather than panicking.
			log.Error().Err(err).Uint32("ssrc", ssrc).Msg("session: construction failed after validated config")
			return deadSink{}
		}
		mux.Add(ssrc, s)
		return s
	}, nil
}

// deadSink is a SessionSink that accepts nothing and reports itself
// dead immediately, used only as a fallback for the unreachable
// post-validation construction error in Factory.
type deadSink struct{}

func (deadSink) WriteSource(*rtppkt.Packet) {}
func (deadSink) WriteRepair(*rtppkt.Packet) {}
func (deadSink) Dead() bool                 { return true }
