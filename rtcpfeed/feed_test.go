// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2024, Emir Aganovic

package rtcpfeed

import (
	"testing"
	"time"

	"github.com/pion/rtcp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedProducesNilReportBeforeAnyRTP(t *testing.T) {
	f := New(42, 8000, zerolog.Nop())
	assert.Nil(t, f.BuildReceiverReport(time.Now()))
}

func TestFeedTracksLossAcrossAnInterval(t *testing.T) {
	f := New(42, 8000, zerolog.Nop())
	now := time.Now()

	f.ObserveRTP(7, 100, 8000, now)
	// seqs 101..109 never arrive
	f.ObserveRTP(7, 110, 8800, now.Add(100*time.Millisecond))

	rr := f.BuildReceiverReport(now.Add(100 * time.Millisecond))
	require.NotNil(t, rr)
	report := rr.(*rtcp.ReceiverReport)
	require.Len(t, report.Reports, 1)
	assert.Equal(t, uint32(7), report.Reports[0].SSRC)
	assert.Equal(t, uint32(9), report.Reports[0].TotalLost)
	assert.Greater(t, report.Reports[0].FractionLost, uint8(0))
}

func TestFeedResetsIntervalCountersBetweenReports(t *testing.T) {
	f := New(42, 8000, zerolog.Nop())
	now := time.Now()

	f.ObserveRTP(7, 100, 8000, now)
	f.ObserveRTP(7, 110, 8800, now.Add(100*time.Millisecond))
	first := f.BuildReceiverReport(now.Add(100 * time.Millisecond)).(*rtcp.ReceiverReport)
	assert.Greater(t, first.Reports[0].FractionLost, uint8(0))

	f.ObserveRTP(7, 111, 8880, now.Add(110*time.Millisecond))
	second := f.BuildReceiverReport(now.Add(110 * time.Millisecond)).(*rtcp.ReceiverReport)
	assert.Equal(t, uint8(0), second.Reports[0].FractionLost, "a clean interval should not inherit the prior interval's loss")
}

func TestFeedMapsCaptureTimestampFromSenderReport(t *testing.T) {
	f := New(42, 8000, zerolog.Nop())
	anchor := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	_, ok := f.CaptureTimestamp(8000)
	assert.False(t, ok, "no sender report seen yet")

	f.HandlePacket(&rtcp.SenderReport{
		SSRC:    7,
		NTPTime: NTPTimestamp(anchor),
		RTPTime: 0,
	}, anchor)

	ns, ok := f.CaptureTimestamp(8000) // one second of audio past the anchor
	require.True(t, ok)
	assert.Equal(t, anchor.Add(time.Second).UnixNano(), ns)
}

func TestFeedComputesRTTFromEchoedReceptionReport(t *testing.T) {
	f := New(42, 8000, zerolog.Nop())
	now := time.Date(2026, 1, 1, 0, 0, 10, 0, time.UTC)

	lsr := uint32(NTPTimestamp(now.Add(-50*time.Millisecond)) >> 16)
	f.HandlePacket(&rtcp.ReceiverReport{
		Reports: []rtcp.ReceptionReport{{
			SSRC:             42,
			LastSenderReport: lsr,
			Delay:            0,
		}},
	}, now)

	rtt, ok := f.RTT()
	require.True(t, ok)
	assert.InDelta(t, 50*time.Millisecond, rtt, float64(2*time.Millisecond))
}

func TestFeedIgnoresReceptionReportsAddressedToOtherSSRCs(t *testing.T) {
	f := New(42, 8000, zerolog.Nop())
	f.HandlePacket(&rtcp.ReceiverReport{
		Reports: []rtcp.ReceptionReport{{SSRC: 99, LastSenderReport: 123}},
	}, time.Now())

	_, ok := f.RTT()
	assert.False(t, ok)
}
