// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2024, Emir Aganovic

package fec

import (
	"github.com/roc-go/roc/rtppkt"
)

// Decoder consumes both the source and repair packet streams of an
// FEC-protected session and emits the source stream in order, with
// gaps filled in whenever enough repair symbols have arrived. Write and
// WriteRepair are not safe for concurrent use; the pipeline's single
// audio goroutine owns the decoder.
type Decoder struct {
	scheme rtppkt.FECScheme
	coeff  CoeffRow
	parser rtppkt.Parser // reparses recovered symbol bytes, FEC-less

	cur       *block
	haveLast  bool
	lastSBN   uint32
	ready     []*rtppkt.Packet

	Recovered uint64
	Abandoned uint64
}

// NewDecoder returns a Decoder for the given FEC scheme.
func NewDecoder(scheme rtppkt.FECScheme) *Decoder {
	return &Decoder{
		scheme: scheme,
		coeff:  coeffForScheme(scheme),
		parser: rtppkt.Parser{FEC: rtppkt.FECNone},
	}
}

// Write records a source-stream packet. Packets with no FEC metadata
// (the session carries no FEC block boundary on them, e.g. stream
// startup) pass straight through.
func (d *Decoder) Write(pkt *rtppkt.Packet) {
	if pkt.FEC == nil {
		d.ready = append(d.ready, pkt)
		return
	}
	d.record(pkt)
}

// WriteRepair records a repair-stream packet.
func (d *Decoder) WriteRepair(pkt *rtppkt.Packet) {
	d.record(pkt)
}

func (d *Decoder) record(pkt *rtppkt.Packet) {
	sbn := pkt.FEC.SBN

	if d.cur != nil && sbn != d.cur.sbn {
		d.commit()
	}
	if d.cur == nil {
		if d.haveLast && rtppkt.TimestampDiff(sbn, d.lastSBN) <= 0 {
			// Belongs to an already-committed block: drop.
			return
		}
		d.cur = newBlock(d.scheme, sbn, pkt.FEC.K)
	}

	if !d.cur.add(pkt) {
		return
	}

	if d.cur.sourceComplete() {
		d.flushSource(d.cur)
		return
	}
	if d.cur.recoverable() {
		d.decodeAndFlush(d.cur)
	}
}

// commit finalizes the current block: if it was never completed or
// decoded, a last recovery attempt is made; whatever cannot be
// recovered is abandoned. Forward-only: once committed, a block is
// never revisited even if a late repair packet for it later arrives.
func (d *Decoder) commit() {
	if d.cur == nil {
		return
	}
	if !d.cur.decoded && !d.cur.sourceComplete() {
		if d.cur.recoverable() {
			d.decodeAndFlush(d.cur)
		} else {
			d.Abandoned++
		}
	}
	d.haveLast = true
	d.lastSBN = d.cur.sbn
	d.cur = nil
}

// flushSource emits every source symbol not yet emitted, in ESI order.
func (d *Decoder) flushSource(b *block) {
	for i := uint32(0); i < b.k; i++ {
		if b.emitted[i] {
			continue
		}
		if pkt := b.symbols[i]; pkt != nil {
			b.emitted[i] = true
			d.ready = append(d.ready, pkt)
		}
	}
}

// decodeAndFlush runs Gaussian elimination to recover missing source
// symbols, then emits every source symbol not yet emitted in ESI order.
func (d *Decoder) decodeAndFlush(b *block) {
	missing := b.missingSourceESIs()
	if len(missing) == 0 {
		d.flushSource(b)
		return
	}

	present := b.presentESIs(int(b.k))
	if len(present) < int(b.k) {
		return
	}

	rows := make([][]byte, len(present))
	symbols := make([][]byte, len(present))
	maxLen := 0
	for i, esi := range present {
		rows[i] = d.coeff(esi, b.k)
		sym := b.symbols[esi].SymbolBytes()
		symbols[i] = sym
		if len(sym) > maxLen {
			maxLen = len(sym)
		}
	}
	for i, s := range symbols {
		if len(s) < maxLen {
			padded := make([]byte, maxLen)
			copy(padded, s)
			symbols[i] = padded
		}
	}

	recovered, err := solveMissing(rows, symbols, missing)
	if err != nil {
		d.Abandoned++
		return
	}

	for i, esi := range missing {
		pkt := &rtppkt.Packet{}
		if perr := d.parser.Parse(recovered[i], pkt); perr != nil {
			continue
		}
		pkt.Flags |= rtppkt.FlagRestored
		pkt.FEC = &rtppkt.FECMeta{Scheme: b.scheme, SBN: b.sbn, ESI: uint32(esi), K: b.k, M: b.m}
		b.symbols[uint32(esi)] = pkt
		d.Recovered++
	}
	b.decoded = true
	d.flushSource(b)
}

// Read pops the next in-order packet (original or recovered), or nil.
func (d *Decoder) Read() *rtppkt.Packet {
	if len(d.ready) == 0 {
		return nil
	}
	pkt := d.ready[0]
	d.ready = d.ready[1:]
	return pkt
}
