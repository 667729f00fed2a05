// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2024, Emir Aganovic

package jitter

import "github.com/roc-go/roc/rtppkt"

// Delayer holds incoming packets at startup until enough have buffered
// to cover the target latency, then becomes a permanent pass-through.
// It never reintroduces the warmup once cleared, matching spec: a
// stream that briefly empties after warmup does not restart buffering.
type Delayer struct {
	queue *SortedQueue

	targetSpan uint16 // target latency expressed as a seqnum distance
	warmedUp   bool
	firstSeq   uint16
	hasFirst   bool
}

// NewDelayer wraps queue, releasing packets only once the span from the
// first sequence number written to the latest buffered one reaches targetSpan
// (computed by the caller as target_latency / samples_per_packet).
func NewDelayer(queue *SortedQueue, targetSpan uint16) *Delayer {
	return &Delayer{queue: queue, targetSpan: targetSpan}
}

// Write feeds a packet into the underlying queue.
func (d *Delayer) Write(pkt *rtppkt.Packet) bool {
	if !d.hasFirst {
		d.hasFirst = true
		d.firstSeq = pkt.SeqNum
	}
	return d.queue.Write(pkt)
}

// Read returns the next packet once warmup has completed, nil otherwise.
func (d *Delayer) Read() *rtppkt.Packet {
	if !d.warmedUp {
		if !d.canRelease() {
			return nil
		}
		d.warmedUp = true
	}
	return d.queue.Read()
}

func (d *Delayer) canRelease() bool {
	if d.targetSpan == 0 {
		return true
	}
	latest := d.queue.Latest()
	if latest == nil || !d.hasFirst {
		return false
	}
	span := rtppkt.SeqDiff(latest.SeqNum, d.firstSeq)
	return span >= 0 && uint16(span) >= d.targetSpan
}

// WarmedUp reports whether the warmup period has completed.
func (d *Delayer) WarmedUp() bool {
	return d.warmedUp
}
