// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2024, Emir Aganovic

package session

import (
	"github.com/roc-go/roc/audio"
	"github.com/roc-go/roc/fec"
	"github.com/roc-go/roc/jitter"
	"github.com/roc-go/roc/router"
	"github.com/roc-go/roc/rtppkt"
	"github.com/rs/zerolog"
)

// pumpedSource drains a Delayer into an FEC decoder on demand: a read
// first drains anything the decoder already has ready, and only pulls
// (and feeds) more reordered input when the decoder comes up empty.
type pumpedSource struct {
	delayer *jitter.Delayer
	dec     *fec.Decoder
}

func (p *pumpedSource) Read() *rtppkt.Packet {
	for {
		if pkt := p.dec.Read(); pkt != nil {
			return pkt
		}
		pkt := p.delayer.Read()
		if pkt == nil {
			return nil
		}
		p.dec.Write(pkt)
	}
}

// validatedSource gates an upstream PacketSource through a
// router.Validator, silently skipping anything the validator rejects
// since a rejected packet is just absent as far as the depacketizer
// is concerned.
type validatedSource struct {
	inner audio.PacketSource
	v     *router.Validator

	Dropped uint64
}

func (v *validatedSource) Read() *rtppkt.Packet {
	for {
		pkt := v.inner.Read()
		if pkt == nil {
			return nil
		}
		if v.v.Check(pkt) {
			return pkt
		}
		v.Dropped++
	}
}

// Session is one SSRC's complete receiver pipeline: reorder, FEC
// decode, validate, depacketize, resample, latency-control, watchdog.
// It is single-threaded — the audio thread that calls Read owns it
// exclusively, per the concurrency model; WriteSource/WriteRepair are
// called from that same thread after being handed the packet by the
// router (the network thread only enqueues raw datagrams upstream of
// this point).
type Session struct {
	cfg  Config
	ssrc uint32

	queue   *jitter.SortedQueue
	delayer *jitter.Delayer
	fecDec  *fec.Decoder // nil when cfg.FEC == rtppkt.FECNone

	validator *validatedSource
	depk      *audio.Depacketizer

	resampler *audio.PullResampler
	rawFrame  *audio.Frame

	latency  *audio.LatencyMonitor
	watchdog *audio.Watchdog

	dumper *RawDumper // non-nil when diagnostic capture is enabled

	dead bool
	log  zerolog.Logger
}

// EnableDump starts writing this session's output frames to a raw L16
// file under the OS temp dir, returning its path for the caller to log
// or surface. Intended for diagnosing a single misbehaving stream, not
// for routine use.
func (s *Session) EnableDump() (string, error) {
	d, err := NewRawDumper()
	if err != nil {
		return "", err
	}
	s.dumper = d
	return d.Path(), nil
}

// DisableDump stops and closes any active dump.
func (s *Session) DisableDump() error {
	if s.dumper == nil {
		return nil
	}
	err := s.dumper.Close()
	s.dumper = nil
	return err
}

// New builds a Session for ssrc using cfg, failing construction rather
// than running with a config that could never produce a frame (e.g. a
// zero channel mask).
func New(cfg Config, ssrc uint32, log zerolog.Logger) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	queue := jitter.NewSortedQueue(cfg.QueueSize)

	samplesPerPacket := cfg.InputSpec.SamplesPerPacket(cfg.PacketLength)
	targetLatencySamples := cfg.InputSpec.NsToSamples(cfg.TargetLatency)
	targetSpan := uint16(0)
	if samplesPerPacket > 0 {
		targetSpan = uint16(targetLatencySamples / samplesPerPacket)
	}
	delayer := jitter.NewDelayer(queue, targetSpan)

	var fecDec *fec.Decoder
	var depkSource audio.PacketSource = delayer
	if cfg.FEC != rtppkt.FECNone {
		fecDec = fec.NewDecoder(cfg.FEC)
		depkSource = &pumpedSource{delayer: delayer, dec: fecDec}
	}

	validator := &validatedSource{
		inner: depkSource,
		v:     router.NewValidator(cfg.Validator, cfg.InputSpec.SampleRate),
	}

	depk := audio.NewDepacketizer(validator, cfg.InputSpec.Channels)

	resampler := audio.NewPullResampler(
		cfg.InputSpec.SampleRate, cfg.OutputSpec.SampleRate,
		cfg.InputSpec.NumChannels(), cfg.ResamplerProfile,
	)

	latencyCfg := audio.LatencyConfig{
		TargetLatency:   targetLatencySamples,
		MinLatency:      cfg.InputSpec.NsToSamples(cfg.MinLatency),
		MaxLatency:      cfg.InputSpec.NsToSamples(cfg.MaxLatency),
		MaxScalingDelta: cfg.MaxScalingDelta,
		UpdateInterval:  samplesPerPacket,
	}
	if latencyCfg.UpdateInterval == 0 {
		latencyCfg.UpdateInterval = 1
	}
	latency := audio.NewLatencyMonitor(latencyCfg, resampler)

	watchdogCfg := audio.WatchdogConfig{
		NoPlaybackTimeout:     cfg.OutputSpec.NsToSamples(cfg.NoPlaybackTimeout),
		ChoppyPlaybackTimeout: cfg.OutputSpec.NsToSamples(cfg.ChoppyPlaybackTimeout),
		ChoppyPlaybackWindow:  cfg.OutputSpec.NsToSamples(cfg.ChoppyPlaybackWindow),
		WarmupDuration:        cfg.OutputSpec.NsToSamples(cfg.WarmupDuration),
	}
	watchdog := audio.NewWatchdog(watchdogCfg)

	return &Session{
		cfg:       cfg,
		ssrc:      ssrc,
		queue:     queue,
		delayer:   delayer,
		fecDec:    fecDec,
		validator: validator,
		depk:      depk,
		resampler: resampler,
		latency:   latency,
		watchdog:  watchdog,
		log:       log.With().Uint32("ssrc", ssrc).Logger(),
	}, nil
}

// WriteSource hands an inbound audio/FEC-source packet to the jitter
// buffer. Implements router.SessionSink.
func (s *Session) WriteSource(pkt *rtppkt.Packet) {
	if pkt.Duration == 0 {
		pkt.Duration = uint32(audio.SamplesAvailable(len(pkt.Payload), s.cfg.InputSpec.Channels))
	}
	if !s.delayer.Write(pkt) {
		s.log.Debug().Uint16("seq", pkt.SeqNum).Msg("session: source packet dropped by jitter buffer")
	}
}

// WriteRepair hands an inbound FEC-repair packet straight to the
// decoder, bypassing sequence-number reordering (repair packets are
// keyed by SBN/ESI, not source seqnum). Implements router.SessionSink.
func (s *Session) WriteRepair(pkt *rtppkt.Packet) {
	if s.fecDec == nil {
		s.log.Debug().Msg("session: repair packet arrived on a non-FEC session, dropping")
		return
	}
	s.fecDec.WriteRepair(pkt)
}

// Dead implements router.SessionSink.
func (s *Session) Dead() bool { return s.dead }

// Read fills fr with the next slice of this session's audio, pulling
// through the depacketizer and, unless the resampler is bypassed,
// through the resampler's pull contract. It then drives the latency
// monitor and watchdog, either of which can mark the session dead for
// the router to prune on its next maintenance pass.
func (s *Session) Read(fr *audio.Frame) {
	if s.dead {
		for i := range fr.Samples {
			fr.Samples[i] = 0
		}
		fr.Flags = audio.FlagNotComplete
		return
	}

	if s.resampler.Bypass() {
		s.depk.Read(fr)
	} else {
		s.readResampled(fr)
	}

	s.updateLatency()
	if !s.watchdog.Observe(fr) {
		s.log.Info().Msg("session: watchdog fired, marking session dead")
		s.dead = true
	}

	if s.dumper != nil {
		if err := s.dumper.Write(fr); err != nil {
			s.log.Warn().Err(err).Msg("session: dump write failed, disabling")
			s.dumper.Close()
			s.dumper = nil
		}
	}
}

// readResampled pulls input frames from the depacketizer at the input
// rate, feeds them to the resampler, and pops output until fr is full
// or a bounded number of pulls fail to produce enough input (an
// underrun, filled with silence rather than blocking the audio
// thread).
func (s *Session) readResampled(fr *audio.Frame) {
	if s.rawFrame == nil {
		s.rawFrame = audio.NewFrame(s.cfg.InputSpec, fr.NumSamples()+1)
	}

	produced := 0
	out := fr.Samples
	chans := fr.Spec.NumChannels()
	var flags audio.Flags

	const maxPulls = 8
	for pull := 0; produced < fr.NumSamples() && pull < maxPulls; pull++ {
		n := s.resampler.PopOutput(out[produced*chans:])
		produced += n
		if produced >= fr.NumSamples() {
			break
		}

		s.depk.Read(s.rawFrame)
		flags |= s.rawFrame.Flags
		s.resampler.PushInput(s.rawFrame.Samples)
	}

	for i := produced * chans; i < len(fr.Samples); i++ {
		fr.Samples[i] = 0
	}
	if produced < fr.NumSamples() {
		flags |= audio.FlagNotComplete
	}
	fr.Flags = flags
}

func (s *Session) updateLatency() {
	latest := s.queue.Latest()
	var latestEnd uint32
	hasLatest := latest != nil
	if hasLatest {
		latestEnd = latest.End()
	}
	if !s.latency.Update(s.depk.NextTimestamp(), latestEnd, hasLatest) {
		s.log.Info().Msg("session: latency out of bounds, marking session dead")
		s.dead = true
	}
}
