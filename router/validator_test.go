// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2024, Emir Aganovic

package router

import (
	"testing"
	"time"

	"github.com/roc-go/roc/rtppkt"
	"github.com/stretchr/testify/assert"
)

func pkt(ssrc uint32, pt uint8, seq uint16, ts uint32) *rtppkt.Packet {
	return &rtppkt.Packet{SourceID: ssrc, PayloadType: pt, SeqNum: seq, StreamTimestamp: ts}
}

func TestValidatorAcceptsFirstPacketUnconditionally(t *testing.T) {
	v := NewValidator(DefaultValidatorConfig(), 8000)
	assert.True(t, v.Check(pkt(1, 0, 100, 8000)))
}

func TestValidatorAcceptsContiguousStream(t *testing.T) {
	v := NewValidator(DefaultValidatorConfig(), 8000)
	assert.True(t, v.Check(pkt(1, 0, 100, 8000)))
	assert.True(t, v.Check(pkt(1, 0, 101, 8160)))
	assert.True(t, v.Check(pkt(1, 0, 102, 8320)))
}

func TestValidatorRejectsSSRCChange(t *testing.T) {
	v := NewValidator(DefaultValidatorConfig(), 8000)
	v.Check(pkt(1, 0, 100, 8000))
	assert.False(t, v.Check(pkt(2, 0, 101, 8160)))
}

func TestValidatorRejectsPayloadTypeChange(t *testing.T) {
	v := NewValidator(DefaultValidatorConfig(), 8000)
	v.Check(pkt(1, 0, 100, 8000))
	assert.False(t, v.Check(pkt(1, 9, 101, 8160)))
}

func TestValidatorRejectsExcessiveSeqJump(t *testing.T) {
	cfg := ValidatorConfig{MaxSeqJump: 100, MaxTimestampJump: time.Hour}
	v := NewValidator(cfg, 8000)
	v.Check(pkt(1, 0, 100, 8000))
	assert.False(t, v.Check(pkt(1, 0, 1000, 8160)))
}

func TestValidatorRejectsExcessiveTimestampJump(t *testing.T) {
	cfg := ValidatorConfig{MaxSeqJump: 16384, MaxTimestampJump: time.Second}
	v := NewValidator(cfg, 8000)
	v.Check(pkt(1, 0, 100, 0))
	// 80000 samples at 8000Hz is 10 seconds, past the 1s bound.
	assert.False(t, v.Check(pkt(1, 0, 101, 80000)))
}

func TestValidatorToleratesReorderingWithoutMovingAnchor(t *testing.T) {
	v := NewValidator(DefaultValidatorConfig(), 8000)
	v.Check(pkt(1, 0, 100, 8000))
	v.Check(pkt(1, 0, 102, 8320))
	// A reordered packet between 100 and 102 is still close to the
	// anchor (now at 102) and should pass without moving it back.
	assert.True(t, v.Check(pkt(1, 0, 101, 8160)))
}
