// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2024, Emir Aganovic

package rtppkt

import (
	"errors"
	"fmt"

	"github.com/pion/rtp"
)

// Parse errors, returned by Parser.Parse. These are TransientDrop-class
// failures: the caller logs and drops the packet, never propagates them
// further up the pipeline.
var (
	ErrBadHeader  = errors.New("rtppkt: malformed RTP header")
	ErrBadVersion = errors.New("rtppkt: unsupported RTP version")
	ErrBadPayload = errors.New("rtppkt: payload length inconsistent with padding")
)

// Parser turns a raw UDP datagram into a Packet, optionally chaining an
// FEC Payload ID parser over the RTP payload slice.
//
// A zero Parser parses plain RTP with no FEC scheme.
type Parser struct {
	// FEC selects the Payload ID layout to parse from the RTP payload.
	// FECNone disables FEC parsing entirely.
	FEC FECScheme
}

// Parse decodes buf (a UDP datagram payload) into pkt, reusing pkt's
// owning buffer where possible. buf must not be modified or reused by
// the caller until pkt is released, since Payload/Header/Padding slice
// into it.
func (p Parser) Parse(buf []byte, pkt *Packet) error {
	pkt.Reset()
	pkt.SetBuf(buf)
	pkt.Flags |= FlagPrepared

	var hdr rtp.Header
	n, err := hdr.Unmarshal(buf)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadHeader, err)
	}
	if hdr.Version != 2 {
		return fmt.Errorf("%w: version=%d", ErrBadVersion, hdr.Version)
	}

	end := len(buf)
	if hdr.Padding {
		if n >= end {
			return fmt.Errorf("%w: padding flag set on empty payload", ErrBadPayload)
		}
		padLen := int(buf[end-1])
		if padLen == 0 || padLen > end-n {
			return fmt.Errorf("%w: invalid padding length %d", ErrBadPayload, padLen)
		}
		pkt.Padding = buf[end-padLen : end]
		end -= padLen
	}
	if end < n {
		return fmt.Errorf("%w: payload shorter than header", ErrBadPayload)
	}

	pkt.Header = buf[:n]
	payload := buf[n:end]

	pkt.SourceID = hdr.SSRC
	pkt.SeqNum = hdr.SequenceNumber
	pkt.StreamTimestamp = hdr.Timestamp
	pkt.Marker = hdr.Marker
	pkt.PayloadType = hdr.PayloadType
	pkt.Flags |= FlagRTP | FlagAudio

	if p.FEC == FECNone {
		pkt.Payload = payload
		return nil
	}

	meta, rest, ferr := parseFECID(p.FEC, payload, false)
	if ferr != nil {
		// Not every stream that shares a route carries FEC metadata on
		// every packet (e.g. a source packet with no footer yet); treat
		// as plain audio rather than failing the whole parse.
		pkt.Payload = payload
		return nil
	}
	pkt.FEC = meta
	pkt.Flags |= FlagFEC
	pkt.Payload = rest
	return nil
}

// ParseRepair decodes a repair-stream datagram, where the FEC Payload ID
// is a header rather than a footer.
func (p Parser) ParseRepair(buf []byte, pkt *Packet) error {
	pkt.Reset()
	pkt.SetBuf(buf)
	pkt.Flags |= FlagPrepared | FlagFEC

	meta, rest, err := parseFECID(p.FEC, buf, true)
	if err != nil {
		return err
	}
	meta.Repair = true
	pkt.FEC = meta
	pkt.Payload = rest
	return nil
}
