// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2024, Emir Aganovic

package fec

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGF256MulDivRoundTrip(t *testing.T) {
	for a := 1; a < 256; a++ {
		for b := 1; b < 256; b++ {
			prod := gfMul(byte(a), byte(b))
			assert.Equal(t, byte(a), gfDiv(prod, byte(b)))
		}
	}
}

func TestGF256ZeroAbsorbing(t *testing.T) {
	assert.Equal(t, byte(0), gfMul(0, 200))
	assert.Equal(t, byte(0), gfMul(200, 0))
}

func TestGF256PowMatchesRepeatedMul(t *testing.T) {
	want := byte(1)
	a := byte(2)
	for n := 0; n < 10; n++ {
		assert.Equal(t, want, gfPow(a, n))
		want = gfMul(want, a)
	}
}
