// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2024, Emir Aganovic

package audio

import "github.com/roc-go/roc/rtppkt"

// PacketSource is the upstream a Depacketizer pulls packets from,
// normally a fec.Decoder (which in turn pulls from the jitter buffer).
type PacketSource interface {
	Read() *rtppkt.Packet
}

// Depacketizer is the translation point between packet-rate and
// sample-rate: it fills Frames left to right from whatever packets are
// available, synthesizing silence across gaps and dropping late
// packets that arrive after the read position has already passed them.
type Depacketizer struct {
	source      PacketSource
	srcChannels rtppkt.ChannelMask

	started       bool
	nextTimestamp uint32

	pkt        *rtppkt.Packet
	pktOffset  uint32 // samples already decoded from pkt
	pktSamples int    // total samples pkt holds

	Dropped     uint64
	ZeroSamples uint64 // silence emitted before the first packet ever arrived
	Missing     uint64 // silence emitted to fill a gap after startup
}

// NewDepacketizer returns a Depacketizer pulling from source, decoding
// payloads that carry srcChannels.
func NewDepacketizer(source PacketSource, srcChannels rtppkt.ChannelMask) *Depacketizer {
	return &Depacketizer{source: source, srcChannels: srcChannels}
}

// Started reports whether the first packet has arrived yet.
func (d *Depacketizer) Started() bool { return d.started }

// NextTimestamp returns the stream timestamp of the next sample this
// depacketizer will emit.
func (d *Depacketizer) NextTimestamp() uint32 { return d.nextTimestamp }

// Read fills fr left to right, setting fr.Flags to the union of every
// step's outcome for this call.
func (d *Depacketizer) Read(fr *Frame) {
	chans := fr.Spec.NumChannels()
	total := fr.NumSamples()

	var flags Flags
	pos := 0
	for pos < total {
		n, stepFlags, dropped := d.readStep(fr, pos, total, chans)
		flags |= stepFlags
		if dropped {
			flags |= FlagPacketDrops
		}
		pos = n
	}
	fr.Flags = flags
}

func (d *Depacketizer) readStep(fr *Frame, pos, total, chans int) (int, Flags, bool) {
	dropped := false
	if d.pkt == nil {
		if !d.fetchPacket(&dropped) {
			n := total - pos
			d.fillSilence(fr, pos, n, chans)
			d.nextTimestamp += uint32(n)
			if d.started {
				d.Missing += uint64(n)
			} else {
				d.ZeroSamples += uint64(n)
			}
			return pos + n, FlagNotComplete, dropped
		}
	}

	pktPos := d.pkt.StreamTimestamp + d.pktOffset
	if pktPos != d.nextTimestamp {
		gap := int(rtppkt.TimestampDiff(pktPos, d.nextTimestamp))
		if gap > total-pos {
			gap = total - pos
		}
		if gap < 0 {
			gap = 0
		}
		d.fillSilence(fr, pos, gap, chans)
		d.nextTimestamp += uint32(gap)
		d.Missing += uint64(gap)
		return pos + gap, FlagNotComplete, dropped
	}

	avail := d.pktSamples - int(d.pktOffset)
	n := avail
	if n > total-pos {
		n = total - pos
	}
	decoded := DecodeL16(d.pkt.Payload, int(d.pktOffset), n, d.srcChannels, fr.Spec.Channels)
	copy(fr.Samples[pos*chans:(pos+n)*chans], decoded)

	d.pktOffset += uint32(n)
	d.nextTimestamp += uint32(n)
	if int(d.pktOffset) >= d.pktSamples {
		d.pkt = nil
	}
	return pos + n, FlagNotBlank, dropped
}

// fetchPacket pulls packets from source until one whose span ends
// after the current read position is found, or the source runs dry.
// Packets that end at or before nextTimestamp are late arrivals and
// are dropped. A packet that starts before nextTimestamp (typical when
// a late-but-not-too-late packet is accepted) has its decode offset
// advanced past the already-played span instead of being re-emitted.
func (d *Depacketizer) fetchPacket(dropped *bool) bool {
	for {
		pkt := d.source.Read()
		if pkt == nil {
			return false
		}
		samples := SamplesAvailable(len(pkt.Payload), d.srcChannels)
		pktEnd := pkt.StreamTimestamp + uint32(samples)

		if d.started && rtppkt.TimestampLessEqual(pktEnd, d.nextTimestamp) {
			d.Dropped++
			*dropped = true
			continue
		}

		d.pkt = pkt
		d.pktSamples = samples
		d.pktOffset = 0

		if !d.started {
			d.started = true
			d.nextTimestamp = pkt.StreamTimestamp
		} else if rtppkt.TimestampLess(pkt.StreamTimestamp, d.nextTimestamp) {
			d.pktOffset = uint32(rtppkt.TimestampDiff(d.nextTimestamp, pkt.StreamTimestamp))
		}
		return true
	}
}

func (d *Depacketizer) fillSilence(fr *Frame, pos, n, chans int) {
	for i := pos * chans; i < (pos+n)*chans; i++ {
		fr.Samples[i] = 0
	}
}
