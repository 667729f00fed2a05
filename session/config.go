// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2024, Emir Aganovic

// Package session assembles the per-SSRC receiver pipeline (jitter
// buffer, FEC decode, depacketize, resample, latency control,
// watchdog) and mixes multiple sessions' output frames together.
package session

import (
	"errors"
	"time"

	"github.com/roc-go/roc/audio"
	"github.com/roc-go/roc/router"
	"github.com/roc-go/roc/rtppkt"
)

// Config validation errors, returned by Validate and wrapped by New.
var (
	ErrNoInputChannels  = errors.New("session: input spec has a zero channel mask")
	ErrNoOutputChannels = errors.New("session: output spec has a zero channel mask")
	ErrNoInputRate      = errors.New("session: input spec has a zero sample rate")
	ErrNoOutputRate     = errors.New("session: output spec has a zero sample rate")
	ErrNoQueueSize      = errors.New("session: queue size must be positive")
	ErrMaxLatencyTooLow = errors.New("session: max latency must not be below min latency")
)

// Config holds everything a Session needs at construction time. Every
// duration-shaped field is converted to sample counts once, by New: the
// watchdog timeouts using OutputSpec's sample rate, the rest using
// InputSpec's, matching the "no wall-clock polling" rule: after
// construction the pipeline only ever reasons in sample counts.
type Config struct {
	InputSpec  rtppkt.SampleSpec // network-side rate/channels
	OutputSpec rtppkt.SampleSpec // device-side rate/channels

	FEC rtppkt.FECScheme

	QueueSize     int
	TargetLatency time.Duration
	MinLatency    time.Duration
	MaxLatency    time.Duration

	MaxScalingDelta  float64
	ResamplerProfile audio.QualityProfile
	PacketLength     time.Duration // used to convert TargetLatency to a seqnum span for the delayer

	NoPlaybackTimeout     time.Duration
	ChoppyPlaybackTimeout time.Duration
	ChoppyPlaybackWindow  time.Duration
	WarmupDuration        time.Duration

	Validator router.ValidatorConfig
}

// Validate rejects a Config a Session could never run correctly with.
// A zero channel mask on either spec is the canonical failure case:
// NumChannels() would silently be 0 and every downstream sample-domain
// computation (depacketize, resample, mix) would operate on empty
// frames forever rather than producing an audible error.
func (c Config) Validate() error {
	if c.InputSpec.NumChannels() == 0 {
		return ErrNoInputChannels
	}
	if c.OutputSpec.NumChannels() == 0 {
		return ErrNoOutputChannels
	}
	if c.InputSpec.SampleRate == 0 {
		return ErrNoInputRate
	}
	if c.OutputSpec.SampleRate == 0 {
		return ErrNoOutputRate
	}
	if c.QueueSize <= 0 {
		return ErrNoQueueSize
	}
	if c.MaxLatency < c.MinLatency {
		return ErrMaxLatencyTooLow
	}
	return nil
}

// DefaultConfig returns roc's stock receiver tuning for the given
// input/output specs.
func DefaultConfig(input, output rtppkt.SampleSpec) Config {
	targetLatency := 200 * time.Millisecond
	return Config{
		InputSpec:  input,
		OutputSpec: output,
		FEC:        rtppkt.FECNone,

		QueueSize:     256,
		TargetLatency: targetLatency,
		MinLatency:    targetLatency / 2,
		MaxLatency:    targetLatency * 2,

		MaxScalingDelta:  0.01,
		ResamplerProfile: audio.QualityMedium,
		PacketLength:     20 * time.Millisecond,

		NoPlaybackTimeout:     targetLatency * 4 / 3,
		ChoppyPlaybackTimeout: 2 * time.Second,
		ChoppyPlaybackWindow:  300 * time.Millisecond,
		WarmupDuration:        targetLatency,

		Validator: router.DefaultValidatorConfig(),
	}
}
