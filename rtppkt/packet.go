// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2024, Emir Aganovic

package rtppkt

// FECScheme identifies the wire layout of the FEC Payload ID carried by a
// packet belonging to an FEC-protected stream.
type FECScheme int

const (
	// FECNone means the packet does not belong to an FEC block.
	FECNone FECScheme = iota
	// FECReedSolomonM8 is the RFC 6865 Reed-Solomon m=8 profile.
	FECReedSolomonM8
	// FECLDPCStaircase is the RFC 5170 LDPC-Staircase profile.
	FECLDPCStaircase
)

// FECMeta carries the decoded FEC Payload ID fields for a packet that
// belongs to an FEC block, whether arriving as a source packet (footer)
// or a repair packet (header).
type FECMeta struct {
	Scheme FECScheme
	SBN    uint32 // source block number
	ESI    uint32 // encoding symbol ID, index within the block
	K      uint32 // number of source symbols in the block
	M      uint32 // number of repair symbols in the block (LDPC only, N-K)
	Repair bool   // true if this packet is a repair symbol
}

// Packet is a parsed network packet flowing through the receiver
// pipeline: an RTP audio packet, optionally carrying an FEC Payload ID,
// or a bare RTCP packet. It owns the byte buffer backing Header/Payload/
// Padding; callers must not retain slices past a pool release.
type Packet struct {
	SourceID         uint32 // RTP SSRC
	SeqNum           uint16
	StreamTimestamp  uint32
	Duration         uint32 // samples represented by this packet
	CaptureTimestamp int64  // sender wall-clock ns at sample 0, 0 if unknown
	Marker           bool
	PayloadType      uint8
	Flags            Flags

	Header  []byte
	Payload []byte
	Padding []byte

	FEC *FECMeta // non-nil when Flags.Has(FlagFEC)

	buf []byte // owning buffer; Header/Payload/Padding slice into it
}

// End returns the stream timestamp one past the last sample this packet
// represents, i.e. StreamTimestamp+Duration with wraparound.
func (p *Packet) End() uint32 {
	return p.StreamTimestamp + p.Duration
}

// Reset clears a Packet so it can be returned to a pool and reused for a
// fresh Parse call.
func (p *Packet) Reset() {
	*p = Packet{buf: p.buf[:0]}
}

// SymbolBytes returns the bytes this packet contributes as an FEC
// encoding symbol: for a source packet, the RTP header and payload
// (contiguous in the owning buffer, FEC footer excluded), reconstructed
// bit-identical by the FEC decoder when the packet itself is lost; for
// a repair packet, the already-stripped repair payload.
func (p *Packet) SymbolBytes() []byte {
	if p.FEC != nil && p.FEC.Repair {
		return p.Payload
	}
	return p.buf[:len(p.Header)+len(p.Payload)]
}

// Buf exposes the owning buffer so a pool can reslice it on reuse.
func (p *Packet) Buf() []byte { return p.buf }

// SetBuf installs the owning buffer; used by the packet pool on reuse.
func (p *Packet) SetBuf(buf []byte) { p.buf = buf }
