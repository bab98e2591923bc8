// Copyright 2026 The strata Authors
// This file is part of the strata library.
//
// The strata library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The strata library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the strata library. If not, see <http://www.gnu.org/licenses/>.

// Package recordlog implements the append-only, binary-framed record log
// described in spec §4.1: a single file of fixed-layout frames, a lazy
// forward iterator, and crash-tail detection on open.
package recordlog

import (
	"encoding/binary"
	"hash/crc32"
)

// frameMagic and frameVersion head every record frame.
var frameMagic = [4]byte{'R', 'L', 'O', 'G'}

const frameVersion = 1

// fixedHeaderSize covers magic..timestamp, the portion before the
// variable-length record_type/payload/caused_by/linked_to sections.
const fixedHeaderSize = 4 + 1 + 1 + 8 + 8 + 8 + 8 // magic,version,flags,id,seq,branch,ts

// Entry is a decoded record frame, matching strata.Record field-for-field
// but kept independent of the root package to avoid an import cycle.
type Entry struct {
	ID         uint64
	Sequence   uint64
	Branch     uint64
	Timestamp  int64
	RecordType string
	Payload    []byte
	Encoding   uint8
	CausedBy   []uint64
	LinkedTo   []uint64
}

// encodedSize returns the number of bytes Marshal will produce for e.
func (e *Entry) encodedSize() int {
	n := fixedHeaderSize
	n += 2 + len(e.RecordType) // record_type_len + bytes
	n += 1                     // encoding
	n += 4 + len(e.Payload)    // payload_len + bytes
	n += 2 + 8*len(e.CausedBy)
	n += 2 + 8*len(e.LinkedTo)
	n += 4 // payload_crc32
	return n
}

// marshal serializes e into the exact wire layout of spec §4.1. All
// integers are little-endian.
func (e *Entry) marshal() []byte {
	buf := make([]byte, e.encodedSize())
	off := 0

	copy(buf[off:], frameMagic[:])
	off += 4
	buf[off] = frameVersion
	off++
	buf[off] = 0 // flags, reserved
	off++
	binary.LittleEndian.PutUint64(buf[off:], e.ID)
	off += 8
	binary.LittleEndian.PutUint64(buf[off:], e.Sequence)
	off += 8
	binary.LittleEndian.PutUint64(buf[off:], e.Branch)
	off += 8
	binary.LittleEndian.PutUint64(buf[off:], uint64(e.Timestamp))
	off += 8

	binary.LittleEndian.PutUint16(buf[off:], uint16(len(e.RecordType)))
	off += 2
	copy(buf[off:], e.RecordType)
	off += len(e.RecordType)

	buf[off] = e.Encoding
	off++

	binary.LittleEndian.PutUint32(buf[off:], uint32(len(e.Payload)))
	off += 4
	copy(buf[off:], e.Payload)
	off += len(e.Payload)

	binary.LittleEndian.PutUint16(buf[off:], uint16(len(e.CausedBy)))
	off += 2
	for _, id := range e.CausedBy {
		binary.LittleEndian.PutUint64(buf[off:], id)
		off += 8
	}

	binary.LittleEndian.PutUint16(buf[off:], uint16(len(e.LinkedTo)))
	off += 2
	for _, id := range e.LinkedTo {
		binary.LittleEndian.PutUint64(buf[off:], id)
		off += 8
	}

	crc := crc32.ChecksumIEEE(e.Payload)
	binary.LittleEndian.PutUint32(buf[off:], crc)
	off += 4

	return buf[:off]
}

// frameHeader is the fixed-size prefix read first to validate magic/version
// and learn the sizes needed to read the rest of the frame.
type frameHeader struct {
	ID        uint64
	Sequence  uint64
	Branch    uint64
	Timestamp int64
}

func decodeFixedHeader(b []byte) (frameHeader, error) {
	if len(b) < fixedHeaderSize {
		return frameHeader{}, errShortRead
	}
	if b[0] != frameMagic[0] || b[1] != frameMagic[1] || b[2] != frameMagic[2] || b[3] != frameMagic[3] {
		return frameHeader{}, errBadMagic
	}
	if b[4] != frameVersion {
		return frameHeader{}, errBadVersion
	}
	off := 6 // skip magic(4) + version(1) + flags(1)
	h := frameHeader{
		ID:        binary.LittleEndian.Uint64(b[off:]),
		Sequence:  binary.LittleEndian.Uint64(b[off+8:]),
		Branch:    binary.LittleEndian.Uint64(b[off+16:]),
		Timestamp: int64(binary.LittleEndian.Uint64(b[off+24:])),
	}
	return h, nil
}
