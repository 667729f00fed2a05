// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2024, Emir Aganovic

// Package sender implements the transmit-side counterpart to the
// receiver pipeline: a Packetizer slices audio frames into RTP source
// packets, and an optional FECSession groups them into blocks and
// derives repair packets downstream of it, mirroring fec.Decoder's
// block bookkeeping on the encode side.
package sender

import (
	"math/rand"
	"time"

	"github.com/roc-go/roc/audio"
	"github.com/roc-go/roc/rtppkt"
)

// Packetizer accumulates samples from successive frames and slices
// them into fixed-size RTP source packets once PacketLength's worth
// have arrived, stamping each with a monotonically increasing seqnum
// and stream timestamp. SSRC and the starting timestamp are randomized
// at construction time; the sequence number comes from an
// rtppkt.ExtendedSequencer, matching the teacher's RTPPacketWriter.
type Packetizer struct {
	spec             rtppkt.SampleSpec
	samplesPerPacket int
	payloadType      uint8

	ssrc      uint32
	seqWriter rtppkt.ExtendedSequencer
	timestamp uint32
	started   bool

	pending []float32 // leftover samples not yet forming a full packet
}

// NewPacketizer returns a Packetizer emitting packets of
// packetLength's worth of samples at spec's rate/channels.
func NewPacketizer(spec rtppkt.SampleSpec, packetLength time.Duration, payloadType uint8) *Packetizer {
	return &Packetizer{
		spec:             spec,
		samplesPerPacket: int(spec.SamplesPerPacket(packetLength)),
		payloadType:      payloadType,
		ssrc:             rand.Uint32(),
		seqWriter:        rtppkt.NewSequencer(),
		timestamp:        rand.Uint32(),
	}
}

// SSRC returns the packetizer's stream identifier.
func (p *Packetizer) SSRC() uint32 { return p.ssrc }

// Push appends fr's samples to the pending buffer and slices off as
// many complete source packets as now fit, in emission order.
func (p *Packetizer) Push(fr *audio.Frame) []*rtppkt.Packet {
	p.pending = append(p.pending, fr.Samples...)

	chans := p.spec.NumChannels()
	frameLen := p.samplesPerPacket * chans
	if frameLen == 0 {
		return nil
	}

	var out []*rtppkt.Packet
	for len(p.pending) >= frameLen {
		samples := p.pending[:frameLen]
		out = append(out, p.emit(samples))
		p.pending = append([]float32{}, p.pending[frameLen:]...)
	}
	return out
}

func (p *Packetizer) emit(samples []float32) *rtppkt.Packet {
	pkt := &rtppkt.Packet{
		SourceID:        p.ssrc,
		SeqNum:          p.seqWriter.NextSeqNumber(),
		StreamTimestamp: p.timestamp,
		Duration:        uint32(p.samplesPerPacket),
		Marker:          !p.started,
		PayloadType:     p.payloadType,
		Payload:         audio.EncodeL16(samples, p.spec.Channels),
	}
	p.started = true
	p.timestamp += uint32(p.samplesPerPacket)
	return pkt
}
