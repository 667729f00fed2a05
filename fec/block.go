// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2024, Emir Aganovic

package fec

import "github.com/roc-go/roc/rtppkt"

// block tracks arrived encoding symbols for one FEC source block. M is
// learned from the first repair packet (only LDPC repair Payload IDs
// carry N=K+M; RS8M IDs carry no N, so M stays 0 there), so symbols are
// kept in a map rather than a preallocated array.
type block struct {
	scheme rtppkt.FECScheme
	sbn    uint32
	k      uint32
	m      uint32
	mKnown bool

	symbols map[uint32]*rtppkt.Packet
	emitted map[uint32]bool
	decoded bool
}

func newBlock(scheme rtppkt.FECScheme, sbn, k uint32) *block {
	return &block{
		scheme:  scheme,
		sbn:     sbn,
		k:       k,
		symbols: make(map[uint32]*rtppkt.Packet),
		emitted: make(map[uint32]bool),
	}
}

// add records pkt at its ESI slot. Returns false if the slot was
// already occupied (duplicate).
func (b *block) add(pkt *rtppkt.Packet) bool {
	esi := pkt.FEC.ESI
	if _, dup := b.symbols[esi]; dup {
		return false
	}
	if pkt.FEC.Repair {
		b.mKnown = true
		if pkt.FEC.M > 0 {
			b.m = pkt.FEC.M
		}
	}
	b.symbols[esi] = pkt
	return true
}

// sourceComplete reports whether all K source ESIs have arrived.
func (b *block) sourceComplete() bool {
	for i := uint32(0); i < b.k; i++ {
		if b.symbols[i] == nil {
			return false
		}
	}
	return true
}

// recoverable reports whether at least K of the K+M ESIs have arrived
// and at least one source ESI is still missing, i.e. a decode attempt
// could fill the gap. At least one repair packet must have arrived.
func (b *block) recoverable() bool {
	if !b.mKnown || b.sourceComplete() {
		return false
	}
	return uint32(len(b.symbols)) >= b.k
}

// missingSourceESIs returns the list of source ESIs not yet present.
func (b *block) missingSourceESIs() []int {
	var missing []int
	for i := uint32(0); i < b.k; i++ {
		if b.symbols[i] == nil {
			missing = append(missing, int(i))
		}
	}
	return missing
}

// presentESIs returns up to limit ESIs (source or repair) with a symbol
// present, used to build the square system for Gaussian elimination.
func (b *block) presentESIs(limit int) []uint32 {
	present := make([]uint32, 0, limit)
	for esi := range b.symbols {
		present = append(present, esi)
		if len(present) == limit {
			break
		}
	}
	return present
}
