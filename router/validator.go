// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2024, Emir Aganovic

// Package router demultiplexes inbound packets to per-SSRC sessions
// and validates that a session's packet stream stays self-consistent
// once admitted.
package router

import (
	"time"

	"github.com/roc-go/roc/rtppkt"
)

// ValidatorConfig bounds how far a session's stream is allowed to
// jump before it's considered a different stream entirely.
type ValidatorConfig struct {
	// MaxSeqJump is the largest accepted absolute distance between
	// consecutive sequence numbers. Default: a quarter of the 16-bit
	// space (16384), per RFC 3550's own loss-vs-reset heuristic.
	MaxSeqJump uint16
	// MaxTimestampJump is the largest accepted wall-clock-equivalent
	// distance between consecutive stream timestamps. Default: a few
	// seconds.
	MaxTimestampJump time.Duration
}

// DefaultValidatorConfig returns roc's defaults.
func DefaultValidatorConfig() ValidatorConfig {
	return ValidatorConfig{
		MaxSeqJump:       1 << 14,
		MaxTimestampJump: 5 * time.Second,
	}
}

// Validator runs after parsing on a session's depacketizer-facing
// route. It tracks the last accepted packet's identity and rejects
// anything that looks like a different stream smuggled in under the
// same SSRC key, or a clock that jumped too far to be continuous
// playback. The reference point only advances on forward progress, so
// a reordered-but-plausible packet is accepted without disturbing the
// anchor the next jump is measured against.
type Validator struct {
	cfg        ValidatorConfig
	sampleRate uint32

	have          bool
	prevSSRC      uint32
	prevPT        uint8
	prevSeq       uint16
	prevTimestamp uint32
}

// NewValidator returns a Validator for a stream running at sampleRate.
func NewValidator(cfg ValidatorConfig, sampleRate uint32) *Validator {
	return &Validator{cfg: cfg, sampleRate: sampleRate}
}

// Check reports whether pkt is consistent with the stream seen so
// far. The first packet is always accepted and seeds the reference
// point.
func (v *Validator) Check(pkt *rtppkt.Packet) bool {
	if !v.have {
		v.have = true
		v.prevSSRC = pkt.SourceID
		v.prevPT = pkt.PayloadType
		v.prevSeq = pkt.SeqNum
		v.prevTimestamp = pkt.StreamTimestamp
		return true
	}

	if pkt.SourceID != v.prevSSRC {
		return false
	}
	if pkt.PayloadType != v.prevPT {
		return false
	}

	seqDist := rtppkt.SeqDiff(pkt.SeqNum, v.prevSeq)
	if seqDist < 0 {
		seqDist = -seqDist
	}
	if uint16(seqDist) > v.cfg.MaxSeqJump {
		return false
	}

	tsDist := rtppkt.TimestampDiff(pkt.StreamTimestamp, v.prevTimestamp)
	if tsDist < 0 {
		tsDist = -tsDist
	}
	tsDistNs := time.Duration(float64(tsDist) / float64(v.sampleRate) * float64(time.Second))
	if tsDistNs > v.cfg.MaxTimestampJump {
		return false
	}

	if rtppkt.SeqLess(v.prevSeq, pkt.SeqNum) {
		v.prevSeq = pkt.SeqNum
		v.prevTimestamp = pkt.StreamTimestamp
	}
	return true
}
