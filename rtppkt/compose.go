// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2024, Emir Aganovic

package rtppkt

import "github.com/pion/rtp"

// Composer renders a Packet back into wire bytes, the mirror image of
// Parser. It is used by the packetizer (sender side) and by round-trip
// tests that check Parse(Compose(p)) == p.
type Composer struct {
	FEC FECScheme
}

// Compose marshals pkt into a fresh byte buffer ready to send.
func (c Composer) Compose(pkt *Packet) ([]byte, error) {
	payload := pkt.Payload
	if pkt.FEC != nil {
		var err error
		payload, err = composeFECID(pkt.FEC, payload, pkt.FEC.Repair)
		if err != nil {
			return nil, err
		}
	}

	hdr := rtp.Header{
		Version:        2,
		Marker:         pkt.Marker,
		PayloadType:    pkt.PayloadType,
		SequenceNumber: pkt.SeqNum,
		Timestamp:      pkt.StreamTimestamp,
		SSRC:           pkt.SourceID,
	}

	buf := make([]byte, hdr.MarshalSize()+len(payload))
	n, err := hdr.MarshalTo(buf)
	if err != nil {
		return nil, err
	}
	copy(buf[n:], payload)
	return buf[:n+len(payload)], nil
}

// ComposeRepair marshals a repair packet, whose FEC Payload ID is a
// header rather than a footer.
func (c Composer) ComposeRepair(pkt *Packet) ([]byte, error) {
	pkt.FEC.Repair = true
	body, err := composeFECID(pkt.FEC, pkt.Payload, true)
	if err != nil {
		return nil, err
	}

	hdr := rtp.Header{
		Version:        2,
		Marker:         pkt.Marker,
		PayloadType:    pkt.PayloadType,
		SequenceNumber: pkt.SeqNum,
		Timestamp:      pkt.StreamTimestamp,
		SSRC:           pkt.SourceID,
	}

	buf := make([]byte, hdr.MarshalSize()+len(body))
	n, err := hdr.MarshalTo(buf)
	if err != nil {
		return nil, err
	}
	copy(buf[n:], body)
	return buf[:n+len(body)], nil
}
