// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2024, Emir Aganovic

package rtcpfeed

import (
	"time"

	"github.com/roc-go/roc/rtppkt"
)

// receptionStats accumulates everything one inbound SSRC needs to
// produce an RFC 3550 reception report block: loss counted against
// the interval since the last report, extended highest sequence
// number, jitter, and the echo fields (LSR/DLSR) that let the remote
// sender compute round-trip time from our next report.
type receptionStats struct {
	ssrc uint32

	seq    rtppkt.ExtendedSequencer
	seeded bool
	jitter *jitterEstimator

	firstSeq         uint16
	totalPackets     uint64
	intervalFirst    uint64
	intervalReceived uint64

	lastSenderReportNTP      uint64
	lastSenderReportRecvTime time.Time
}

func newReceptionStats(ssrc uint32, sampleRate uint32) *receptionStats {
	return &receptionStats{ssrc: ssrc, jitter: newJitterEstimator(sampleRate)}
}

func (r *receptionStats) observe(seqNum uint16, rtpTimestamp uint32, arrival time.Time) {
	if !r.seeded {
		r.seeded = true
		r.seq.InitSeq(seqNum)
		r.firstSeq = seqNum
		r.intervalFirst = uint64(seqNum)
	} else {
		// A bad or duplicate sequence number still counts as received
		// for loss accounting purposes; only the cycle bookkeeping is
		// skipped.
		_ = r.seq.UpdateSeq(seqNum)
	}
	r.jitter.observe(arrival, rtpTimestamp)

	r.totalPackets++
	r.intervalReceived++
}

func (r *receptionStats) observeSenderReport(ntpTime uint64, now time.Time) {
	r.lastSenderReportNTP = ntpTime
	r.lastSenderReportRecvTime = now
}

// report computes one reception report block and resets the interval
// loss counters, matching the "since last report" semantics RTCP
// expects.
func (r *receptionStats) report(now time.Time) reportBlock {
	extHighest := r.seq.ReadExtendedSeq()

	expected := int64(extHighest) - int64(r.intervalFirst) + 1
	lost := expected - int64(r.intervalReceived)
	if lost < 0 {
		lost = 0
	}
	var fractionLost uint8
	if expected > 0 {
		fractionLost = uint8(clampFloat(float64(lost)/float64(expected)*256, 0, 255))
	}

	totalExpected := int64(extHighest) - int64(r.firstSeq) + 1
	cumulativeLost := totalExpected - int64(r.totalPackets)
	if cumulativeLost < 0 {
		cumulativeLost = 0
	}

	var lsr, dlsr uint32
	if r.lastSenderReportNTP != 0 {
		lsr = uint32(r.lastSenderReportNTP >> 16)
		dlsr = uint32(now.Sub(r.lastSenderReportRecvTime).Seconds() * 65536)
	}

	r.intervalFirst = extHighest + 1
	r.intervalReceived = 0

	return reportBlock{
		ssrc:               r.ssrc,
		fractionLost:       fractionLost,
		cumulativeLost:     uint32(cumulativeLost),
		extendedHighestSeq: uint32(extHighest),
		jitter:             r.jitter.jitter(),
		lastSenderReport:   lsr,
		delaySinceLastSR:   dlsr,
	}
}

// reportBlock mirrors pion/rtcp's ReceptionReport fields so feed.go
// doesn't have to import pion/rtcp into this file.
type reportBlock struct {
	ssrc               uint32
	fractionLost       uint8
	cumulativeLost     uint32
	extendedHighestSeq uint32
	jitter             uint32
	lastSenderReport   uint32
	delaySinceLastSR   uint32
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
