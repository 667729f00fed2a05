// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2024, Emir Aganovic

// Package rtcpfeed turns inbound RTP arrival statistics into RTCP
// receiver reports and turns inbound RTCP sender reports into the
// capture-timestamp mapping and round-trip estimate the session core
// needs, per RFC 3550.
package rtcpfeed

import "time"

const ntpEpochOffset int64 = 2208988800

// NTPTimestamp converts t to the 64-bit NTP format (32-bit seconds
// since 1900 in the high word, 32-bit fraction in the low word).
func NTPTimestamp(t time.Time) uint64 {
	seconds := t.Unix() + ntpEpochOffset
	frac := (float64(t.Nanosecond()) / 1e9) * (1 << 32)
	return (uint64(seconds) << 32) | uint64(frac)
}

// NTPToTime is the inverse of NTPTimestamp.
func NTPToTime(ntp uint64) time.Time {
	seconds := int64(ntp >> 32)
	frac := float64(ntp&0xFFFFFFFF) / (1 << 32)
	return time.Unix(seconds-ntpEpochOffset, int64(frac*1e9))
}
