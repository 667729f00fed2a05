// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2024, Emir Aganovic

package fec

import (
	"testing"

	"github.com/roc-go/roc/rtppkt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildSourcePacket returns a parsed one-byte-payload RTP packet tagged
// with FEC metadata, as if it had come off the wire.
func buildSourcePacket(t *testing.T, scheme rtppkt.FECScheme, sbn, esi, k uint32, payload byte) *rtppkt.Packet {
	t.Helper()
	pkt := &rtppkt.Packet{}
	raw := append([]byte{}, rtpHeaderTemplate(uint16(esi))...)
	raw = append(raw, payload)
	require.NoError(t, (rtppkt.Parser{FEC: rtppkt.FECNone}).Parse(raw, pkt))
	pkt.FEC = &rtppkt.FECMeta{Scheme: scheme, SBN: sbn, ESI: esi, K: k}
	return pkt
}

func rtpHeaderTemplate(seq uint16) []byte {
	h := make([]byte, 12)
	h[0] = 0x80
	h[1] = 96
	h[2] = byte(seq >> 8)
	h[3] = byte(seq)
	return h
}

func buildRepairPacket(t *testing.T, scheme rtppkt.FECScheme, coeff CoeffRow, sbn, esi, k, m uint32, sources [][]byte) *rtppkt.Packet {
	t.Helper()
	row := coeff(esi, k)
	out := make([]byte, len(sources[0]))
	for j, c := range row {
		if c == 0 {
			continue
		}
		for b := range out {
			out[b] = gfAdd(out[b], gfMul(c, sources[j][b]))
		}
	}
	pkt := &rtppkt.Packet{
		Payload: out,
		FEC:     &rtppkt.FECMeta{Scheme: scheme, SBN: sbn, ESI: esi, Repair: true, K: k, M: m},
	}
	return pkt
}

func TestDecoderPassesThroughCompleteBlock(t *testing.T) {
	d := NewDecoder(rtppkt.FECReedSolomonM8)
	for esi := uint32(0); esi < 4; esi++ {
		d.Write(buildSourcePacket(t, rtppkt.FECReedSolomonM8, 1, esi, 4, byte(esi)))
	}

	var got []byte
	for pkt := d.Read(); pkt != nil; pkt = d.Read() {
		got = append(got, pkt.Payload[0])
		assert.False(t, pkt.Flags.Has(rtppkt.FlagRestored))
	}
	assert.Equal(t, []byte{0, 1, 2, 3}, got)
}

func TestDecoderRecoversSingleLostSourcePacket(t *testing.T) {
	scheme := rtppkt.FECReedSolomonM8
	coeff := coeffForScheme(scheme)
	k, m := uint32(4), uint32(2)

	srcPackets := make([]*rtppkt.Packet, k)
	srcBytes := make([][]byte, k)
	for esi := uint32(0); esi < k; esi++ {
		srcPackets[esi] = buildSourcePacket(t, scheme, 7, esi, k, byte(10+esi))
		srcBytes[esi] = srcPackets[esi].SymbolBytes()
	}

	d := NewDecoder(scheme)
	lostESI := uint32(2)
	for esi := uint32(0); esi < k; esi++ {
		if esi == lostESI {
			continue
		}
		d.Write(srcPackets[esi])
	}
	for r := uint32(0); r < m; r++ {
		d.WriteRepair(buildRepairPacket(t, scheme, coeff, 7, k+r, k, m, srcBytes))
	}
	// Force commit so the decoder attempts final recovery.
	d.Write(buildSourcePacket(t, scheme, 8, 0, k, 99))

	var recovered *rtppkt.Packet
	for pkt := d.Read(); pkt != nil; pkt = d.Read() {
		if pkt.FEC != nil && pkt.FEC.ESI == lostESI && pkt.FEC.SBN == 7 {
			recovered = pkt
		}
	}
	require.NotNil(t, recovered)
	assert.True(t, recovered.Flags.Has(rtppkt.FlagRestored))
	assert.Equal(t, byte(10+lostESI), recovered.Payload[0])
	assert.Equal(t, uint64(1), d.Recovered)
}

func TestDecoderAbandonsUnrecoverableBlock(t *testing.T) {
	scheme := rtppkt.FECReedSolomonM8
	k, m := uint32(4), uint32(1)

	d := NewDecoder(scheme)
	// Only 2 of 4 source symbols and the single repair symbol arrive:
	// 3 of 5 encoding symbols, below K=4, unrecoverable.
	d.Write(buildSourcePacket(t, scheme, 3, 0, k, 1))
	d.Write(buildSourcePacket(t, scheme, 3, 1, k, 2))
	d.WriteRepair(&rtppkt.Packet{
		Payload: []byte{0},
		FEC:     &rtppkt.FECMeta{Scheme: scheme, SBN: 3, ESI: k, Repair: true, K: k, M: m},
	})
	d.Write(buildSourcePacket(t, scheme, 4, 0, k, 1)) // commits block 3

	assert.Equal(t, uint64(1), d.Abandoned)
}
