// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2024, Emir Aganovic

package rtppkt

import (
	"errors"
	"math/rand"
)

// Tuning constants from RFC 1889 appendix A.2: a run of consecutive
// in-order-ish sequence numbers up to maxDropout long is accepted as a
// forward jump (possibly wrapping); anything landing within
// maxMisorder of the current position the wrong way is ordinary
// reordering rather than a jump, and the remaining span is a jump
// candidate that needs a second, confirming packet before it's
// trusted.
const (
	maxMisorder uint16 = 100
	maxDropout  uint16 = 3000
	lastSeqNum  uint16 = 65535
)

// cycleSpan is one full 16-bit sequence number cycle, i.e. 1<<16.
const cycleSpan = uint64(lastSeqNum) + 1

var (
	ErrSequenceOutOfOrder = errors.New("rtppkt: sequence out of order")
	ErrSequenceBad        = errors.New("rtppkt: bad sequence jump")
	ErrSequenceDuplicate  = errors.New("rtppkt: sequence duplicate")
)

// ExtendedSequencer folds a stream of wrapping 16-bit RTP sequence
// numbers into a monotonically increasing 32-bit count, per RFC 1889
// appendix A.2's probation-free variant. The same struct also serves
// the opposite direction: a sender hands out sequence numbers via
// NextSeqNumber instead of folding received ones via UpdateSeq.
type ExtendedSequencer struct {
	highest uint16 // most recently accepted (or issued) sequence number
	cycles  uint16 // number of times highest has wrapped past 0

	// awaitingConfirm holds the sequence number that would confirm an
	// in-flight jump: the packet right after the one that triggered
	// resolveJump, if the jump turns out to be a real resync rather
	// than noise.
	awaitingConfirm uint16
}

// NewSequencer returns a sequencer seeded with a random starting
// sequence number, as RFC 3550 recommends for a fresh outbound stream.
func NewSequencer() ExtendedSequencer {
	var s ExtendedSequencer
	s.InitSeq(uint16(rand.Uint32()))
	return s
}

// InitSeq (re)synchronizes the tracker on seq, discarding any cycle
// count accumulated so far.
func (s *ExtendedSequencer) InitSeq(seq uint16) {
	s.highest = seq
	s.cycles = 0
	s.awaitingConfirm = lastSeqNum
}

// UpdateSeq folds a newly observed sequence number into the tracker,
// reporting a wraparound-aware classification of how seq relates to
// the last accepted one.
func (s *ExtendedSequencer) UpdateSeq(seq uint16) error {
	delta := seq - s.highest

	switch {
	case delta < maxDropout:
		s.acceptForward(seq)
		return nil
	case delta <= lastSeqNum-maxMisorder:
		return s.resolveJump(seq)
	default:
		return ErrSequenceDuplicate
	}
}

// acceptForward commits seq as the new high-water mark, counting a
// wrap if seq's raw value rolled back past zero to get there.
func (s *ExtendedSequencer) acceptForward(seq uint16) {
	if seq < s.highest {
		s.cycles++
	}
	s.highest = seq
}

// resolveJump handles a sequence number far enough ahead that it might
// be a legitimate restart (if the next packet continues on from it) or
// noise (otherwise): the first such jump is remembered but not
// trusted, and only a matching follow-up packet resyncs the tracker.
func (s *ExtendedSequencer) resolveJump(seq uint16) error {
	if seq == s.awaitingConfirm {
		s.InitSeq(seq)
		return nil
	}
	s.awaitingConfirm = seq + 1
	return ErrSequenceBad
}

// ReadExtendedSeq returns the current position as a 32-bit count: the
// cycle number in the high bits, the raw sequence number in the low
// 16 bits, exploiting cycleSpan == 1<<16 for an exact fold.
func (s *ExtendedSequencer) ReadExtendedSeq() uint64 {
	return uint64(s.cycles)*cycleSpan + uint64(s.highest)
}

// NextSeqNumber advances and returns the next outbound sequence
// number, wrapping the same way a receiver's UpdateSeq would fold it
// back in.
func (s *ExtendedSequencer) NextSeqNumber() uint16 {
	s.highest++
	if s.highest == 0 {
		s.cycles++
	}
	return s.highest
}
