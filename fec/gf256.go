// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2024, Emir Aganovic

// Package fec reconstructs missing source packets from FEC repair
// packets, implementing the RS8M and LDPC-Staircase payload-ID
// families over a shared GF(256) Vandermonde/Gaussian-elimination
// erasure decoder. No Reed-Solomon library appears anywhere in the
// reference corpus, so the arithmetic here is hand-rolled; see
// DESIGN.md for that justification.
package fec

// gf256 implements arithmetic in GF(2^8) with the reduction
// polynomial 0x11D, via exp/log tables built at init time. This is the
// same construction RFC 6865's Reed-Solomon profile assumes.
const gfSize = 256

var gfExp [2 * gfSize]byte
var gfLog [gfSize]byte

func init() {
	x := 1
	for i := 0; i < gfSize-1; i++ {
		gfExp[i] = byte(x)
		gfLog[x] = byte(i)
		x <<= 1
		if x&gfSize != 0 {
			x ^= 0x11D
		}
	}
	for i := gfSize - 1; i < len(gfExp); i++ {
		gfExp[i] = gfExp[i-(gfSize-1)]
	}
}

func gfAdd(a, b byte) byte { return a ^ b }

func gfMul(a, b byte) byte {
	if a == 0 || b == 0 {
		return 0
	}
	return gfExp[int(gfLog[a])+int(gfLog[b])]
}

func gfDiv(a, b byte) byte {
	if a == 0 {
		return 0
	}
	// b == 0 is a caller bug (singular matrix already ruled out).
	return gfExp[int(gfLog[a])-int(gfLog[b])+gfSize-1]
}

func gfPow(a byte, n int) byte {
	if a == 0 {
		if n == 0 {
			return 1
		}
		return 0
	}
	e := (int(gfLog[a]) * n) % (gfSize - 1)
	if e < 0 {
		e += gfSize - 1
	}
	return gfExp[e]
}
