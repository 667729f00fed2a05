// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2024, Emir Aganovic

package rtcpfeed

import "time"

// jitterEstimator computes interarrival jitter as an exponentially
// weighted moving average of the difference between RTP timestamp
// spacing and wall-clock spacing, per RFC 3550 section 6.4.1.
type jitterEstimator struct {
	sampleRate uint32

	have        bool
	lastArrival time.Time
	lastRTPTime uint32

	value float64
}

func newJitterEstimator(sampleRate uint32) *jitterEstimator {
	return &jitterEstimator{sampleRate: sampleRate}
}

// observe feeds one packet's arrival wall-clock time and RTP
// timestamp into the estimator.
func (j *jitterEstimator) observe(arrival time.Time, rtpTimestamp uint32) {
	if !j.have {
		j.have = true
		j.lastArrival = arrival
		j.lastRTPTime = rtpTimestamp
		return
	}

	sentDelta := rtpTimestamp - j.lastRTPTime
	recvDelta := arrival.Sub(j.lastArrival)
	d := recvDelta.Seconds()*float64(j.sampleRate) - float64(sentDelta)
	if d < 0 {
		d = -d
	}
	j.value += (d - j.value) / 16

	j.lastArrival = arrival
	j.lastRTPTime = rtpTimestamp
}

func (j *jitterEstimator) jitter() uint32 {
	return uint32(j.value)
}
