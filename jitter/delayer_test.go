// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2024, Emir Aganovic

package jitter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDelayerWithholdsUntilTargetSpanReached(t *testing.T) {
	q := NewSortedQueue(20)
	d := NewDelayer(q, 3)

	require.True(t, d.Write(pkt(0)))
	assert.Nil(t, d.Read())

	require.True(t, d.Write(pkt(1)))
	assert.Nil(t, d.Read())

	require.True(t, d.Write(pkt(3)))
	pp := d.Read()
	require.NotNil(t, pp)
	assert.Equal(t, uint16(0), pp.SeqNum)
	assert.True(t, d.WarmedUp())
}

func TestDelayerNeverRewarmsAfterClearing(t *testing.T) {
	q := NewSortedQueue(20)
	d := NewDelayer(q, 2)

	require.True(t, d.Write(pkt(0)))
	require.True(t, d.Write(pkt(2)))
	require.NotNil(t, d.Read())
	assert.True(t, d.WarmedUp())

	// Drain the queue entirely; Delayer must keep passing through.
	for d.queue.Len() > 0 {
		d.Read()
	}
	require.True(t, d.Write(pkt(100)))
	assert.NotNil(t, d.Read())
}
