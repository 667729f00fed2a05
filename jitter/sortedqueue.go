// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2024, Emir Aganovic

// Package jitter reorders inbound packets by sequence number and holds
// them long enough to absorb network jitter before the depacketizer
// consumes them, mirroring the teacher's per-sender buffering idiom
// (ring-buffered priming in the pack's jitter buffers) adapted to an
// size-bounded, sequence-number-ordered queue instead of a fixed ring.
package jitter

import (
	"sort"

	"github.com/roc-go/roc/rtppkt"
)

// DefaultWindow is the wrap-aware distance behind the queue's head
// beyond which an arriving packet is considered late and dropped.
const DefaultWindow = 1 << 15

// SortedQueue is a bounded priority queue ordered by wrap-aware sequence
// number. It is not safe for concurrent use; callers serialize Write/Read
// themselves (the audio thread owns it exclusively, per the concurrency
// model).
type SortedQueue struct {
	maxSize int
	window  uint16

	packets   []*rtppkt.Packet
	hasHead   bool
	headSeq   uint16

	Dropped   uint64
	Duplicate uint64
}

// NewSortedQueue returns a queue that holds at most maxSize packets
// before evicting the oldest.
func NewSortedQueue(maxSize int) *SortedQueue {
	if maxSize <= 0 {
		maxSize = 1
	}
	return &SortedQueue{maxSize: maxSize, window: DefaultWindow}
}

// Write inserts pkt in sequence-number order. Packets more than the
// queue's window behind the last-read head, or duplicating a sequence
// number already buffered, are dropped.
func (q *SortedQueue) Write(pkt *rtppkt.Packet) (accepted bool) {
	if q.hasHead && rtppkt.SeqDiff(pkt.SeqNum, q.headSeq) < -int16(q.window) {
		q.Dropped++
		return false
	}

	idx := sort.Search(len(q.packets), func(i int) bool {
		return !rtppkt.SeqLess(q.packets[i].SeqNum, pkt.SeqNum)
	})
	if idx < len(q.packets) && q.packets[idx].SeqNum == pkt.SeqNum {
		q.Duplicate++
		return false
	}

	q.packets = append(q.packets, nil)
	copy(q.packets[idx+1:], q.packets[idx:])
	q.packets[idx] = pkt

	if !q.hasHead {
		q.hasHead = true
		q.headSeq = pkt.SeqNum
	}

	if len(q.packets) > q.maxSize {
		q.packets = q.packets[1:]
		q.Dropped++
	}

	return true
}

// Read pops the packet with the lowest sequence number, or nil if the
// queue is empty.
func (q *SortedQueue) Read() *rtppkt.Packet {
	if len(q.packets) == 0 {
		return nil
	}
	pkt := q.packets[0]
	q.packets = q.packets[1:]
	q.headSeq = pkt.SeqNum
	return pkt
}

// Latest returns the packet with the highest sequence number currently
// buffered, without removing it. Used by the latency monitor to measure
// queue depth.
func (q *SortedQueue) Latest() *rtppkt.Packet {
	if len(q.packets) == 0 {
		return nil
	}
	return q.packets[len(q.packets)-1]
}

// Len returns the number of packets currently buffered.
func (q *SortedQueue) Len() int {
	return len(q.packets)
}
