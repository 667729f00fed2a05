// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2024, Emir Aganovic

package fec

import "github.com/roc-go/roc/rtppkt"

// Encoder computes the M repair symbols for a block of K source
// packets, using the same systematic generator rows the Decoder uses
// to invert a lossy block. It holds no per-block state; one Encoder
// serves an entire session across blocks.
type Encoder struct {
	scheme rtppkt.FECScheme
	coeff  CoeffRow
}

// NewEncoder returns an Encoder for the given FEC scheme.
func NewEncoder(scheme rtppkt.FECScheme) *Encoder {
	return &Encoder{scheme: scheme, coeff: coeffForScheme(scheme)}
}

// EncodeBlock returns m repair symbols for the k source symbols in
// sources (each the wire bytes of one source packet, RTP header
// included, as Packet.SymbolBytes() produces). Shorter symbols are
// zero-padded to the longest one before combining, mirroring the
// Decoder's recovery path so repair symbols line up byte-for-byte with
// what the decoder would reconstruct.
func (e *Encoder) EncodeBlock(sources [][]byte, m int) [][]byte {
	k := uint32(len(sources))

	maxLen := 0
	for _, s := range sources {
		if len(s) > maxLen {
			maxLen = len(s)
		}
	}
	padded := make([][]byte, k)
	for i, s := range sources {
		if len(s) == maxLen {
			padded[i] = s
			continue
		}
		p := make([]byte, maxLen)
		copy(p, s)
		padded[i] = p
	}

	repair := make([][]byte, m)
	for r := 0; r < m; r++ {
		esi := k + uint32(r)
		row := e.coeff(esi, k)
		sym := make([]byte, maxLen)
		for j, coef := range row {
			if coef == 0 {
				continue
			}
			src := padded[j]
			for b := 0; b < maxLen; b++ {
				sym[b] = gfAdd(sym[b], gfMul(coef, src[b]))
			}
		}
		repair[r] = sym
	}
	return repair
}
