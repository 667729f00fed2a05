// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2024, Emir Aganovic

package router

import (
	"sync"

	"github.com/roc-go/roc/rtppkt"
	"github.com/rs/zerolog"
)

// SessionSink is the per-SSRC destination a Router hands parsed
// packets to. Sessions expose two write endpoints, matching the
// source/repair split the FEC decoder needs upstream of it.
type SessionSink interface {
	WriteSource(pkt *rtppkt.Packet)
	WriteRepair(pkt *rtppkt.Packet)
	// Dead reports whether the session has been torn down (watchdog
	// fired, explicit close) and should be pruned from the router.
	Dead() bool
}

// Policy decides whether a never-seen (endpoint, ssrc) pair is
// allowed to create a new session.
type Policy func(endpoint string, ssrc uint32) bool

// AllowAll is the permissive default policy: every new SSRC on a
// known endpoint gets a session.
func AllowAll(string, uint32) bool { return true }

// Factory constructs the session for a newly admitted (endpoint,
// ssrc) pair.
type Factory func(endpoint string, ssrc uint32) SessionSink

type routeKey struct {
	endpoint string
	ssrc     uint32
}

// Router demultiplexes inbound packets to sessions keyed by
// (endpoint-protocol, SSRC). An unknown key creates a new session if
// Policy permits it; otherwise the packet is dropped.
type Router struct {
	mu       sync.Mutex
	sessions map[routeKey]SessionSink
	policy   Policy
	factory  Factory
	log      zerolog.Logger

	Dropped uint64
}

// New returns a Router. A nil policy defaults to AllowAll.
func New(policy Policy, factory Factory, log zerolog.Logger) *Router {
	if policy == nil {
		policy = AllowAll
	}
	return &Router{
		sessions: make(map[routeKey]SessionSink),
		policy:   policy,
		factory:  factory,
		log:      log.With().Str("component", "router").Logger(),
	}
}

// WriteSource routes an audio/FEC-source packet arriving on endpoint.
func (r *Router) WriteSource(endpoint string, pkt *rtppkt.Packet) {
	if sink := r.resolve(endpoint, pkt.SourceID); sink != nil {
		sink.WriteSource(pkt)
	}
}

// WriteRepair routes an FEC-repair packet arriving on endpoint.
func (r *Router) WriteRepair(endpoint string, pkt *rtppkt.Packet) {
	if sink := r.resolve(endpoint, pkt.SourceID); sink != nil {
		sink.WriteRepair(pkt)
	}
}

func (r *Router) resolve(endpoint string, ssrc uint32) SessionSink {
	key := routeKey{endpoint, ssrc}

	r.mu.Lock()
	defer r.mu.Unlock()

	if sink, ok := r.sessions[key]; ok {
		if !sink.Dead() {
			return sink
		}
		delete(r.sessions, key)
	}

	if !r.policy(endpoint, ssrc) {
		r.Dropped++
		r.log.Debug().Str("endpoint", endpoint).Uint32("ssrc", ssrc).Msg("router: admission denied, dropping packet")
		return nil
	}

	sink := r.factory(endpoint, ssrc)
	r.sessions[key] = sink
	r.log.Info().Str("endpoint", endpoint).Uint32("ssrc", ssrc).Msg("router: session created")
	return sink
}

// Prune removes every session currently reporting itself dead. Call
// this periodically from the control thread's maintenance pass.
func (r *Router) Prune() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for key, sink := range r.sessions {
		if sink.Dead() {
			delete(r.sessions, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of sessions currently tracked, live or dead.
func (r *Router) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
