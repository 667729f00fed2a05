// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2024, Emir Aganovic

package rtcpfeed

import (
	"sync"
	"time"

	"github.com/pion/rtcp"
	"github.com/rs/zerolog"
)

// Feed is the per-session RTCP endpoint: it turns this receiver's own
// packet arrivals into reception report blocks, turns inbound sender
// reports into a capture-timestamp mapping, and turns an inbound
// reception report (when this session also feeds a sender elsewhere)
// into a round-trip estimate. A zero value is not usable; use New.
type Feed struct {
	mu sync.Mutex

	ourSSRC    uint32
	sampleRate uint32

	stats   *receptionStats
	capture *captureMap

	// Set when we ourselves send RTP (bidirectional session) so a
	// returning ReceptionReport addressed to ourSSRC yields an RTT.
	lastOwnSRSent uint32
	rtt           time.Duration
	rttValid      bool

	log zerolog.Logger
}

// New returns a Feed for a session whose local identity is ourSSRC
// and whose audio clock runs at sampleRate.
func New(ourSSRC uint32, sampleRate uint32, log zerolog.Logger) *Feed {
	return &Feed{
		ourSSRC:    ourSSRC,
		sampleRate: sampleRate,
		capture:    newCaptureMap(sampleRate),
		log:        log.With().Str("component", "rtcpfeed").Logger(),
	}
}

// ObserveRTP records one inbound RTP packet's arrival for the loss,
// jitter, and reception report accounting of remoteSSRC.
func (f *Feed) ObserveRTP(remoteSSRC uint32, seqNum uint16, rtpTimestamp uint32, arrival time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.stats == nil || f.stats.ssrc != remoteSSRC {
		f.log.Debug().Uint32("ssrc", remoteSSRC).Msg("rtcp feed tracking new remote ssrc")
		f.stats = newReceptionStats(remoteSSRC, f.sampleRate)
	}
	f.stats.observe(seqNum, rtpTimestamp, arrival)
}

// HandlePacket dispatches an inbound RTCP packet: sender reports
// update the capture-timestamp mapping and the LSR/DLSR echo fields
// our next reception report will carry; reception reports addressed
// to our own SSRC update the round-trip estimate.
func (f *Feed) HandlePacket(pkt rtcp.Packet, now time.Time) {
	switch p := pkt.(type) {
	case *rtcp.SenderReport:
		f.handleSenderReport(p, now)
	case *rtcp.ReceiverReport:
		for _, rr := range p.Reports {
			f.handleReceptionReport(rr, now)
		}
	}
}

func (f *Feed) handleSenderReport(sr *rtcp.SenderReport, now time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.capture.observeSenderReport(sr.NTPTime, sr.RTPTime)

	if f.stats != nil && f.stats.ssrc == sr.SSRC {
		f.stats.observeSenderReport(sr.NTPTime, now)
	}
}

func (f *Feed) handleReceptionReport(rr rtcp.ReceptionReport, now time.Time) {
	if rr.SSRC != f.ourSSRC {
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	rtt, skewed := roundTrip(now, rr.LastSenderReport, rr.Delay)
	if skewed {
		f.log.Warn().Uint32("ssrc", rr.SSRC).Msg("rtcp clock skew detected computing round trip time")
		return
	}
	f.rtt = rtt
	f.rttValid = true
}

// RTT returns the most recently computed round-trip time and whether
// one has ever been computed.
func (f *Feed) RTT() (time.Duration, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rtt, f.rttValid
}

// CaptureTimestamp maps a stream timestamp to sender wall-clock
// nanoseconds using the most recent sender report, or ok=false if no
// sender report has arrived yet.
func (f *Feed) CaptureTimestamp(streamTimestamp uint32) (ns int64, ok bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.capture.capture(streamTimestamp)
}

// BuildReceiverReport produces the RTCP packet this session should
// send on its next reporting tick, or nil if no RTP has been received
// yet from any SSRC.
func (f *Feed) BuildReceiverReport(now time.Time) rtcp.Packet {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.stats == nil {
		return nil
	}
	b := f.stats.report(now)
	return &rtcp.ReceiverReport{
		SSRC: f.ourSSRC,
		Reports: []rtcp.ReceptionReport{{
			SSRC:               b.ssrc,
			FractionLost:       b.fractionLost,
			TotalLost:          b.cumulativeLost,
			LastSequenceNumber: b.extendedHighestSeq,
			Jitter:             b.jitter,
			LastSenderReport:   b.lastSenderReport,
			Delay:              b.delaySinceLastSR,
		}},
	}
}
