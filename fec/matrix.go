// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2024, Emir Aganovic

package fec

import "fmt"

// CoeffRow returns the generator-matrix row for encoding symbol esi of a
// block with k source symbols: the row's j-th entry is the coefficient
// by which source symbol j is multiplied when producing esi. Source
// rows (esi < k) are always the identity row.
type CoeffRow func(esi, k uint32) []byte

// solveMissing reconstructs the source symbols at missingCols (indices
// into 0..k-1) given a set of k present rows (any mix of source and
// repair ESIs, each >= k available), their generator-matrix rows, and
// their payload bytes (all equal length, short ones zero-padded by the
// caller). It returns the reconstructed bytes for each entry of
// missingCols, in order, or an error if the chosen rows are linearly
// dependent (singular system -- should not happen when the caller
// supplied >= k distinct ESIs from a valid systematic code).
func solveMissing(rows [][]byte, symbols [][]byte, missingCols []int) ([][]byte, error) {
	k := len(rows)
	if k == 0 {
		return nil, fmt.Errorf("fec: no rows to solve")
	}
	if len(symbols) != k {
		return nil, fmt.Errorf("fec: row/symbol count mismatch")
	}

	// Augment each coefficient row with an identity marker so that after
	// Gauss-Jordan elimination, column missingCols[i] of the inverted
	// system gives the combination of input symbols reconstructing it.
	mat := make([][]byte, k)
	for i := range mat {
		mat[i] = append([]byte(nil), rows[i]...)
	}

	aug := make([][]byte, k)
	for i := range aug {
		aug[i] = make([]byte, k)
		aug[i][i] = 1
	}

	for col := 0; col < k; col++ {
		pivot := -1
		for r := col; r < k; r++ {
			if mat[r][col] != 0 {
				pivot = r
				break
			}
		}
		if pivot == -1 {
			return nil, fmt.Errorf("fec: singular coefficient matrix, cannot recover block")
		}
		mat[col], mat[pivot] = mat[pivot], mat[col]
		aug[col], aug[pivot] = aug[pivot], aug[col]

		inv := gfDiv(1, mat[col][col])
		scaleRow(mat[col], inv)
		scaleRow(aug[col], inv)

		for r := 0; r < k; r++ {
			if r == col || mat[r][col] == 0 {
				continue
			}
			factor := mat[r][col]
			addScaledRow(mat[r], mat[col], factor)
			addScaledRow(aug[r], aug[col], factor)
		}
	}

	symLen := len(symbols[0])
	out := make([][]byte, len(missingCols))
	for i, col := range missingCols {
		recovered := make([]byte, symLen)
		for srcRow := 0; srcRow < k; srcRow++ {
			c := aug[col][srcRow]
			if c == 0 {
				continue
			}
			sym := symbols[srcRow]
			for b := 0; b < symLen; b++ {
				var v byte
				if b < len(sym) {
					v = sym[b]
				}
				recovered[b] = gfAdd(recovered[b], gfMul(c, v))
			}
		}
		out[i] = recovered
	}
	return out, nil
}

func scaleRow(row []byte, factor byte) {
	for i := range row {
		row[i] = gfMul(row[i], factor)
	}
}

func addScaledRow(dst, src []byte, factor byte) {
	for i := range dst {
		dst[i] = gfAdd(dst[i], gfMul(src[i], factor))
	}
}
