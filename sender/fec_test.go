// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2024, Emir Aganovic

package sender

import (
	"testing"

	"github.com/roc-go/roc/rtppkt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func srcPkt(payload byte) *rtppkt.Packet {
	return &rtppkt.Packet{Payload: []byte{payload}}
}

func TestFECSessionWithholdsRepairUntilBlockFills(t *testing.T) {
	f := NewFECSession(rtppkt.FECReedSolomonM8, 4, 2)

	for i := 0; i < 3; i++ {
		repair := f.Push(srcPkt(byte(i)))
		assert.Nil(t, repair)
	}
	repair := f.Push(srcPkt(3))
	require.Len(t, repair, 2)
}

func TestFECSessionTagsSourcePacketsWithBlockMetadata(t *testing.T) {
	f := NewFECSession(rtppkt.FECLDPCStaircase, 2, 1)

	p0 := srcPkt(1)
	p1 := srcPkt(2)
	f.Push(p0)
	f.Push(p1)

	require.NotNil(t, p0.FEC)
	require.NotNil(t, p1.FEC)
	assert.Equal(t, uint32(0), p0.FEC.SBN)
	assert.Equal(t, uint32(0), p0.FEC.ESI)
	assert.Equal(t, uint32(1), p1.FEC.ESI)
	assert.Equal(t, uint32(2), p0.FEC.K)
}

func TestFECSessionAdvancesSBNAcrossBlocks(t *testing.T) {
	f := NewFECSession(rtppkt.FECReedSolomonM8, 2, 1)

	f.Push(srcPkt(1))
	f.Push(srcPkt(2)) // fills block 0

	p2 := srcPkt(3)
	f.Push(p2)
	require.NotNil(t, p2.FEC)
	assert.Equal(t, uint32(1), p2.FEC.SBN)
	assert.Equal(t, uint32(0), p2.FEC.ESI)
}

func TestFECSessionRepairPacketsCarryRepairFlagAndIncreasingESI(t *testing.T) {
	f := NewFECSession(rtppkt.FECReedSolomonM8, 2, 2)

	f.Push(srcPkt(5))
	repair := f.Push(srcPkt(9))

	require.Len(t, repair, 2)
	assert.True(t, repair[0].FEC.Repair)
	assert.Equal(t, uint32(2), repair[0].FEC.ESI)
	assert.Equal(t, uint32(3), repair[1].FEC.ESI)
}
