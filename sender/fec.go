// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2024, Emir Aganovic

package sender

import (
	"github.com/roc-go/roc/fec"
	"github.com/roc-go/roc/rtppkt"
)

// FECSession groups a Packetizer's source packets into fixed-size
// blocks of K and derives M repair packets per block, the transmit
// side of fec.Decoder's block bookkeeping. Repair symbols are computed
// over each source packet's payload bytes; protecting the RTP header
// itself (as the wire formats in principle allow) is left out here,
// matching this package's sketch-level scope.
type FECSession struct {
	scheme rtppkt.FECScheme
	k, m   int
	enc    *fec.Encoder

	sbn     uint32
	block   []*rtppkt.Packet
	nextESI uint32
}

// NewFECSession returns a session producing m repair packets per block
// of k source packets, using scheme's generator matrix.
func NewFECSession(scheme rtppkt.FECScheme, k, m int) *FECSession {
	return &FECSession{
		scheme: scheme,
		k:      k,
		m:      m,
		enc:    fec.NewEncoder(scheme),
	}
}

// Push tags pkt with this block's FEC metadata and returns the repair
// packets for the block once k source packets have been collected
// (nil otherwise).
func (f *FECSession) Push(pkt *rtppkt.Packet) []*rtppkt.Packet {
	pkt.FEC = &rtppkt.FECMeta{
		Scheme: f.scheme,
		SBN:    f.sbn,
		ESI:    f.nextESI,
		K:      uint32(f.k),
		M:      uint32(f.m),
	}
	f.nextESI++
	f.block = append(f.block, pkt)

	if len(f.block) < f.k {
		return nil
	}
	return f.flush()
}

func (f *FECSession) flush() []*rtppkt.Packet {
	sources := make([][]byte, len(f.block))
	for i, pkt := range f.block {
		sources[i] = pkt.Payload
	}
	symbols := f.enc.EncodeBlock(sources, f.m)

	repair := make([]*rtppkt.Packet, f.m)
	for r, sym := range symbols {
		repair[r] = &rtppkt.Packet{
			SourceID:        f.block[0].SourceID,
			StreamTimestamp: f.block[0].StreamTimestamp,
			PayloadType:     f.block[0].PayloadType,
			Payload:         sym,
			FEC: &rtppkt.FECMeta{
				Scheme: f.scheme,
				SBN:    f.sbn,
				ESI:    uint32(f.k) + uint32(r),
				K:      uint32(f.k),
				M:      uint32(f.m),
				Repair: true,
			},
		}
	}

	f.sbn++
	f.nextESI = 0
	f.block = f.block[:0]
	return repair
}
