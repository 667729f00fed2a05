// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2024, Emir Aganovic

package fec

import "github.com/roc-go/roc/rtppkt"

// rs8mRow builds the systematic Reed-Solomon m=8 generator row for
// encoding symbol esi within a block of k source symbols: identity for
// source rows, a Vandermonde row (alpha^(r*j), r = repair index) for
// repair rows. alpha = 2 is a generator of GF(256)* under the 0x11D
// polynomial used by gf256.go.
func rs8mRow(esi, k uint32) []byte {
	row := make([]byte, k)
	if esi < k {
		row[esi] = 1
		return row
	}
	r := int(esi - k)
	for j := uint32(0); j < k; j++ {
		row[j] = gfPow(2, r*int(j))
	}
	return row
}

// ldpcStaircaseRow builds the systematic LDPC-Staircase generator row.
// The staircase construction pairs each repair symbol with a shifting
// window of source symbols (binary coefficients, i.e. GF(2) embedded in
// GF(256)), giving a sparse, banded generator matrix cheap to invert
// and to evaluate. Source rows are identity as with RS8M.
func ldpcStaircaseRow(esi, k uint32) []byte {
	row := make([]byte, k)
	if esi < k {
		row[esi] = 1
		return row
	}
	r := esi - k
	band := k/4 + 1
	for j := uint32(0); j < band; j++ {
		col := (r + j) % k
		row[col] = 1
	}
	// Staircase term: repair r also depends on repair r-1's source span,
	// folded in as an extra source term to keep the matrix well
	// conditioned for Gaussian elimination.
	if r > 0 {
		row[(r-1)%k] ^= 1
	}
	return row
}

// coeffForScheme returns the CoeffRow generator for scheme.
func coeffForScheme(scheme rtppkt.FECScheme) CoeffRow {
	if scheme == rtppkt.FECLDPCStaircase {
		return ldpcStaircaseRow
	}
	return rs8mRow
}
