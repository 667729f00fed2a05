// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2024, Emir Aganovic

package jitter

import (
	"testing"

	"github.com/roc-go/roc/rtppkt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pkt(seq uint16) *rtppkt.Packet {
	return &rtppkt.Packet{SeqNum: seq, StreamTimestamp: uint32(seq) * 320, Duration: 320}
}

func TestSortedQueueOrdersOutOfOrderArrival(t *testing.T) {
	q := NewSortedQueue(10)
	for _, seq := range []uint16{0, 1, 2, 4, 3, 5} {
		require.True(t, q.Write(pkt(seq)))
	}

	var got []uint16
	for q.Len() > 0 {
		got = append(got, q.Read().SeqNum)
	}
	assert.Equal(t, []uint16{0, 1, 2, 3, 4, 5}, got)
}

func TestSortedQueueDropsDuplicate(t *testing.T) {
	q := NewSortedQueue(10)
	require.True(t, q.Write(pkt(5)))
	assert.False(t, q.Write(pkt(5)))
	assert.Equal(t, uint64(1), q.Duplicate)
}

func TestSortedQueueDropsOldestWhenFull(t *testing.T) {
	q := NewSortedQueue(2)
	require.True(t, q.Write(pkt(1)))
	require.True(t, q.Write(pkt(2)))
	require.True(t, q.Write(pkt(3)))

	assert.Equal(t, 2, q.Len())
	assert.Equal(t, uint16(2), q.Read().SeqNum)
}

func TestSortedQueueLatestDoesNotRemove(t *testing.T) {
	q := NewSortedQueue(10)
	require.True(t, q.Write(pkt(1)))
	require.True(t, q.Write(pkt(2)))

	assert.Equal(t, uint16(2), q.Latest().SeqNum)
	assert.Equal(t, 2, q.Len())
}

func TestSortedQueueSeqWraparoundOrdering(t *testing.T) {
	q := NewSortedQueue(10)
	require.True(t, q.Write(pkt(65535)))
	require.True(t, q.Write(pkt(0)))

	assert.Equal(t, uint16(65535), q.Read().SeqNum)
	assert.Equal(t, uint16(0), q.Read().SeqNum)
}

func TestSortedQueueDropsLatePacket(t *testing.T) {
	q := NewSortedQueue(10)
	q.window = 5
	require.True(t, q.Write(pkt(100)))
	q.Read()

	assert.False(t, q.Write(pkt(50)))
}
