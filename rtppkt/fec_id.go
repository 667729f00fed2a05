// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2024, Emir Aganovic

package rtppkt

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Wire sizes of the FEC Payload ID, per scheme and packet kind.
const (
	rs8mPayloadIDSize        = 6
	ldpcSourcePayloadIDSize  = 6
	ldpcRepairPayloadIDSize  = 8
)

var ErrShortFECID = errors.New("rtppkt: buffer too short for FEC Payload ID")

// parseFECID extracts the FEC Payload ID from data, positioned as a
// footer (source packets) or header (repair packets, isHeader=true),
// returning the metadata and the remaining audio/repair payload slice.
func parseFECID(scheme FECScheme, data []byte, isHeader bool) (*FECMeta, []byte, error) {
	switch scheme {
	case FECReedSolomonM8:
		return parseRS8M(data, isHeader)
	case FECLDPCStaircase:
		return parseLDPC(data, isHeader)
	default:
		return nil, data, fmt.Errorf("rtppkt: unknown FEC scheme %d", scheme)
	}
}

// composeFECID renders meta's Payload ID in its wire position, returning
// the full buffer (payload with the ID attached).
func composeFECID(meta *FECMeta, payload []byte, isHeader bool) ([]byte, error) {
	switch meta.Scheme {
	case FECReedSolomonM8:
		return composeRS8M(meta, payload, isHeader)
	case FECLDPCStaircase:
		return composeLDPC(meta, payload, isHeader)
	default:
		return nil, fmt.Errorf("rtppkt: unknown FEC scheme %d", meta.Scheme)
	}
}

// --- Reed-Solomon m=8 (RFC 6865 profile) ---
//
//	0                   1                   2                   3
//	0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1
//	+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
//	|     Source Block Number (SBN)                | Enc Symbol ID |
//	+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
//	|       Source Block Length (k)                 |
//	+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+

func parseRS8M(data []byte, isHeader bool) (*FECMeta, []byte, error) {
	if len(data) < rs8mPayloadIDSize {
		return nil, nil, ErrShortFECID
	}
	var id, rest []byte
	if isHeader {
		id, rest = data[:rs8mPayloadIDSize], data[rs8mPayloadIDSize:]
	} else {
		split := len(data) - rs8mPayloadIDSize
		id, rest = data[split:], data[:split]
	}

	sbn := uint32(id[0])<<16 | uint32(id[1])<<8 | uint32(id[2])
	esi := uint32(id[3])
	k := binary.BigEndian.Uint16(id[4:6])

	return &FECMeta{Scheme: FECReedSolomonM8, SBN: sbn, ESI: esi, K: uint32(k)}, rest, nil
}

func composeRS8M(meta *FECMeta, payload []byte, isHeader bool) ([]byte, error) {
	if meta.SBN > 0xFFFFFF {
		return nil, fmt.Errorf("rtppkt: rs8m SBN %d exceeds 24 bits", meta.SBN)
	}
	if meta.ESI > 0xFF {
		return nil, fmt.Errorf("rtppkt: rs8m ESI %d exceeds 8 bits", meta.ESI)
	}

	id := make([]byte, rs8mPayloadIDSize)
	id[0] = byte(meta.SBN >> 16)
	id[1] = byte(meta.SBN >> 8)
	id[2] = byte(meta.SBN)
	id[3] = byte(meta.ESI)
	binary.BigEndian.PutUint16(id[4:6], uint16(meta.K))

	if isHeader {
		return append(id, payload...), nil
	}
	return append(append([]byte{}, payload...), id...), nil
}

// --- LDPC-Staircase (RFC 5170) ---
//
// Source: {SBN:16, ESI:16, K:16} as footer.
// Repair: {SBN:16, ESI:16, K:16, N:16} as header.

func parseLDPC(data []byte, isHeader bool) (*FECMeta, []byte, error) {
	size := ldpcSourcePayloadIDSize
	if isHeader {
		size = ldpcRepairPayloadIDSize
	}
	if len(data) < size {
		return nil, nil, ErrShortFECID
	}

	var id, rest []byte
	if isHeader {
		id, rest = data[:size], data[size:]
	} else {
		split := len(data) - size
		id, rest = data[split:], data[:split]
	}

	sbn := binary.BigEndian.Uint16(id[0:2])
	esi := binary.BigEndian.Uint16(id[2:4])
	k := binary.BigEndian.Uint16(id[4:6])

	meta := &FECMeta{Scheme: FECLDPCStaircase, SBN: uint32(sbn), ESI: uint32(esi), K: uint32(k)}
	if isHeader {
		n := binary.BigEndian.Uint16(id[6:8])
		meta.M = uint32(n) - uint32(k)
	}
	return meta, rest, nil
}

func composeLDPC(meta *FECMeta, payload []byte, isHeader bool) ([]byte, error) {
	size := ldpcSourcePayloadIDSize
	if isHeader {
		size = ldpcRepairPayloadIDSize
	}
	id := make([]byte, size)
	binary.BigEndian.PutUint16(id[0:2], uint16(meta.SBN))
	binary.BigEndian.PutUint16(id[2:4], uint16(meta.ESI))
	binary.BigEndian.PutUint16(id[4:6], uint16(meta.K))
	if isHeader {
		binary.BigEndian.PutUint16(id[6:8], uint16(meta.K+meta.M))
	}

	if isHeader {
		return append(id, payload...), nil
	}
	return append(append([]byte{}, payload...), id...), nil
}
