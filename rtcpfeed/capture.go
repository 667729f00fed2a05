// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2024, Emir Aganovic

package rtcpfeed

import "time"

// captureMap anchors the RTP stream timestamp axis to sender
// wall-clock time using the (NTPTime, RTPTime) pair carried in the
// most recent sender report, so any stream timestamp in the session
// can be translated to a capture_timestamp in nanoseconds by linear
// extrapolation from that anchor at the stream's sample rate.
type captureMap struct {
	sampleRate uint32

	have       bool
	anchorWall time.Time
	anchorRTP  uint32
}

func newCaptureMap(sampleRate uint32) *captureMap {
	return &captureMap{sampleRate: sampleRate}
}

func (c *captureMap) observeSenderReport(ntpTime uint64, rtpTime uint32) {
	c.have = true
	c.anchorWall = NTPToTime(ntpTime)
	c.anchorRTP = rtpTime
}

// capture returns the wall-clock capture time for streamTimestamp in
// nanoseconds since the Unix epoch, or ok=false if no sender report
// has been seen yet.
func (c *captureMap) capture(streamTimestamp uint32) (ns int64, ok bool) {
	if !c.have {
		return 0, false
	}
	offsetSamples := int64(int32(streamTimestamp - c.anchorRTP))
	offset := time.Duration(float64(offsetSamples) / float64(c.sampleRate) * float64(time.Second))
	return c.anchorWall.Add(offset).UnixNano(), true
}
