// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2024, Emir Aganovic

package rtcpfeed

import "time"

// roundTrip computes RTT from a receiver report's LSR (last SR
// timestamp, middle 32 bits of the sender's NTP time) and DLSR (delay
// since that SR, in 1/65536 second units), per RFC 3550 section
// 6.4.1. skewed reports a DLSR that implies a negative RTT, which
// means the two clocks disagree badly enough that the result should
// be discarded rather than trusted.
func roundTrip(now time.Time, lsr uint32, dlsr uint32) (rtt time.Duration, skewed bool) {
	if lsr == 0 {
		return 0, false
	}

	now32 := uint32(NTPTimestamp(now) >> 16)
	skewed = now32-dlsr < lsr

	elapsed := now32 - lsr - dlsr
	secs := elapsed >> 16
	fracs := float64(elapsed&0xFFFF) / 65536

	rtt = time.Duration(secs)*time.Second + time.Duration(fracs*float64(time.Second))
	return rtt, skewed
}
