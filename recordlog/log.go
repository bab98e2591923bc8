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

package recordlog

import (
	"encoding/binary"
	"hash/crc32"
	"os"
	"sync"

	"go.uber.org/zap"
)

// Log is the append-only, binary-framed record file of spec §4.1. It owns
// the file handle exclusively for its lifetime (the facade borrows it
// through this type, never opens the file itself) and maintains an
// authoritative size cursor so a crash-truncated trailing frame is simply
// overwritten by the next Append, the same way freezerTable.repair lets the
// offsets file stay authoritative over a dangling head file.
type Log struct {
	mu   sync.RWMutex
	file *os.File
	path string

	size         uint64 // authoritative end-of-valid-data cursor
	syncInterval uint64
	sinceSync    uint64
	maxID        uint64

	cache  *Cache
	logger *zap.Logger
}

// Open creates or attaches to the log file at path, scanning the tail to
// find the maximum record id and to establish the authoritative size
// cursor (discarding any trailing partially-written frame).
func Open(path string, syncInterval uint64, logger *zap.Logger) (*Log, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if syncInterval == 0 {
		syncInterval = 1
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, err
	}
	l := &Log{
		file:         f,
		path:         path,
		syncInterval: syncInterval,
		cache:        newCache(32 * 1024 * 1024),
		logger:       logger,
	}
	if err := l.repair(); err != nil {
		f.Close()
		return nil, err
	}
	return l, nil
}

// repair performs the single forward scan described in §4.1's durability
// policy: walk frames from offset 0, stop at the first one that fails to
// decode (short read, bad magic, or — notably — NOT at a checksum mismatch,
// since a checksum mismatch means a fully-framed but corrupt record, a
// different failure mode than a crash-truncated tail), and set the size
// cursor to the offset immediately after the last good frame.
func (l *Log) repair() error {
	stat, err := l.file.Stat()
	if err != nil {
		return err
	}
	total := uint64(stat.Size())

	var offset uint64
	for offset < total {
		n, id, ok := l.tryDecodeAt(offset, total)
		if !ok {
			break
		}
		offset += n
		if id > l.maxID {
			l.maxID = id
		}
	}
	if offset != total {
		l.logger.Warn("recordlog: truncating dangling tail",
			zap.Uint64("valid", offset), zap.Uint64("stored", total))
	}
	l.size = offset
	return nil
}

// tryDecodeAt attempts to decode one frame at offset, returning its encoded
// length and id. ok is false if the frame is short or the magic is absent —
// exactly the two conditions spec §4.1 calls out for tail-truncation
// detection. A checksum mismatch on an otherwise complete frame is NOT
// treated as a truncation signal; the frame is still counted (its bytes are
// structurally present) and the mismatch will surface later from ReadAt.
func (l *Log) tryDecodeAt(offset, total uint64) (uint64, uint64, bool) {
	fixed := make([]byte, fixedHeaderSize)
	if offset+fixedHeaderSize > total {
		return 0, 0, false
	}
	if _, err := l.file.ReadAt(fixed, int64(offset)); err != nil {
		return 0, 0, false
	}
	hdr, err := decodeFixedHeader(fixed)
	if err != nil {
		return 0, 0, false
	}

	pos := offset + fixedHeaderSize
	typeLenBuf := make([]byte, 2)
	if pos+2 > total {
		return 0, 0, false
	}
	if _, err := l.file.ReadAt(typeLenBuf, int64(pos)); err != nil {
		return 0, 0, false
	}
	typeLen := uint64(binary.LittleEndian.Uint16(typeLenBuf))
	pos += 2 + typeLen + 1 // record_type bytes + encoding byte

	payloadLenBuf := make([]byte, 4)
	if pos+4 > total {
		return 0, 0, false
	}
	if _, err := l.file.ReadAt(payloadLenBuf, int64(pos)); err != nil {
		return 0, 0, false
	}
	payloadLen := uint64(binary.LittleEndian.Uint32(payloadLenBuf))
	pos += 4 + payloadLen

	causedCountBuf := make([]byte, 2)
	if pos+2 > total {
		return 0, 0, false
	}
	if _, err := l.file.ReadAt(causedCountBuf, int64(pos)); err != nil {
		return 0, 0, false
	}
	causedCount := uint64(binary.LittleEndian.Uint16(causedCountBuf))
	pos += 2 + causedCount*8

	linkedCountBuf := make([]byte, 2)
	if pos+2 > total {
		return 0, 0, false
	}
	if _, err := l.file.ReadAt(linkedCountBuf, int64(pos)); err != nil {
		return 0, 0, false
	}
	linkedCount := uint64(binary.LittleEndian.Uint16(linkedCountBuf))
	pos += 2 + linkedCount*8

	pos += 4 // payload_crc32
	if pos > total {
		return 0, 0, false
	}
	return pos - offset, hdr.ID, true
}

// Append writes a new frame at the end of the log and returns its offset.
// It does not itself assign id/sequence/branch/timestamp — those are
// supplied by the caller (the facade), matching spec §4.6's "facade
// computes next_seq" division of responsibility. Append fsyncs the file
// once every sync_interval appends (every append when it is 1); Sync
// flushes the rest explicitly.
func (l *Log) Append(e *Entry) (offset uint64, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return 0, ErrClosed
	}
	buf := e.marshal()
	if _, err := l.file.WriteAt(buf, int64(l.size)); err != nil {
		return 0, err
	}
	offset = l.size
	l.size += uint64(len(buf))
	if e.ID > l.maxID {
		l.maxID = e.ID
	}
	l.cache.set(offset, buf)

	l.sinceSync++
	if l.sinceSync >= l.syncInterval {
		if err := l.file.Sync(); err != nil {
			return offset, err
		}
		l.sinceSync = 0
	}
	return offset, nil
}

// ReadAt decodes one full frame at offset, verifying magic/version and the
// payload CRC32.
func (l *Log) ReadAt(offset uint64) (*Entry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.readAtLocked(offset)
}

func (l *Log) readAtLocked(offset uint64) (*Entry, error) {
	if l.file == nil {
		return nil, ErrClosed
	}
	if buf, ok := l.cache.get(offset); ok {
		return decodeEntry(buf)
	}

	fixed := make([]byte, fixedHeaderSize)
	if _, err := l.file.ReadAt(fixed, int64(offset)); err != nil {
		return nil, ErrInvalidFormat
	}
	if _, err := decodeFixedHeader(fixed); err != nil {
		return nil, ErrInvalidFormat
	}
	n, _, ok := l.tryDecodeAt(offset, l.size)
	if !ok {
		return nil, ErrInvalidFormat
	}
	buf := make([]byte, n)
	if _, err := l.file.ReadAt(buf, int64(offset)); err != nil {
		return nil, err
	}
	l.cache.set(offset, buf)
	return decodeEntry(buf)
}

// decodeEntry parses a full, already-length-known frame buffer and
// verifies its checksum. buf may come from an untrusted or truncated
// source (crash-damaged tail, direct fuzz input), so every variable-length
// section is bounds-checked against the remaining slice before use.
func decodeEntry(buf []byte) (*Entry, error) {
	hdr, err := decodeFixedHeader(buf)
	if err != nil {
		return nil, ErrInvalidFormat
	}
	off := fixedHeaderSize
	if len(buf) < off+2 {
		return nil, ErrInvalidFormat
	}
	typeLen := int(binary.LittleEndian.Uint16(buf[off:]))
	off += 2
	if len(buf) < off+typeLen {
		return nil, ErrInvalidFormat
	}
	recordType := string(buf[off : off+typeLen])
	off += typeLen

	if len(buf) < off+1 {
		return nil, ErrInvalidFormat
	}
	encoding := buf[off]
	off++

	if len(buf) < off+4 {
		return nil, ErrInvalidFormat
	}
	payloadLen := int(binary.LittleEndian.Uint32(buf[off:]))
	off += 4
	if len(buf) < off+payloadLen {
		return nil, ErrInvalidFormat
	}
	payload := append([]byte(nil), buf[off:off+payloadLen]...)
	off += payloadLen

	if len(buf) < off+2 {
		return nil, ErrInvalidFormat
	}
	causedCount := int(binary.LittleEndian.Uint16(buf[off:]))
	off += 2
	if len(buf) < off+8*causedCount {
		return nil, ErrInvalidFormat
	}
	causedBy := make([]uint64, causedCount)
	for i := 0; i < causedCount; i++ {
		causedBy[i] = binary.LittleEndian.Uint64(buf[off:])
		off += 8
	}

	if len(buf) < off+2 {
		return nil, ErrInvalidFormat
	}
	linkedCount := int(binary.LittleEndian.Uint16(buf[off:]))
	off += 2
	if len(buf) < off+8*linkedCount {
		return nil, ErrInvalidFormat
	}
	linkedTo := make([]uint64, linkedCount)
	for i := 0; i < linkedCount; i++ {
		linkedTo[i] = binary.LittleEndian.Uint64(buf[off:])
		off += 8
	}

	if len(buf) < off+4 {
		return nil, ErrInvalidFormat
	}
	storedCRC := binary.LittleEndian.Uint32(buf[off:])
	gotCRC := crc32.ChecksumIEEE(payload)
	if storedCRC != gotCRC {
		return nil, ErrChecksumMismatch
	}

	return &Entry{
		ID:         hdr.ID,
		Sequence:   hdr.Sequence,
		Branch:     hdr.Branch,
		Timestamp:  hdr.Timestamp,
		RecordType: recordType,
		Payload:    payload,
		Encoding:   encoding,
		CausedBy:   causedBy,
		LinkedTo:   linkedTo,
	}, nil
}

// IterFrom returns a lazy forward iterator over frames starting at offset,
// yielding until the current end-of-valid-data. Errors mid-scan stop
// iteration (the caller sees them via Err after Next returns false).
func (l *Log) IterFrom(offset uint64) *Iterator {
	return &Iterator{log: l, next: offset}
}

// Iterator is a lazy, forward, offset-based scan over the log.
type Iterator struct {
	log     *Log
	next    uint64
	cur     *Entry
	curOff  uint64
	err     error
	stopped bool
}

// Next advances the iterator. It returns false at end-of-log or on error;
// check Err to distinguish the two.
func (it *Iterator) Next() bool {
	if it.stopped {
		return false
	}
	it.log.mu.RLock()
	end := it.log.size
	it.log.mu.RUnlock()

	if it.next >= end {
		it.stopped = true
		return false
	}
	e, err := it.log.ReadAt(it.next)
	if err != nil {
		it.err = err
		it.stopped = true
		return false
	}
	it.curOff = it.next
	it.cur = e
	n := uint64(e.encodedSize())
	it.next += n
	return true
}

// Entry returns the entry decoded by the most recent successful Next call.
func (it *Iterator) Entry() *Entry { return it.cur }

// Offset returns the offset of the most recently yielded entry.
func (it *Iterator) Offset() uint64 { return it.curOff }

// Err returns the error, if any, that stopped iteration early.
func (it *Iterator) Err() error { return it.err }

// Size returns the current authoritative end-of-data offset.
func (l *Log) Size() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.size
}

// MaxID returns the highest record id observed so far (by repair or
// Append).
func (l *Log) MaxID() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.maxID
}

// Sync flushes and fsyncs the underlying file, mirroring
// freezerTable.Sync's "expensive, use with care" contract.
func (l *Log) Sync() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return ErrClosed
	}
	return l.file.Sync()
}

// Close releases the file handle. A best-effort Sync is attempted first
// (spec §5 "sync is attempted best-effort on drop").
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	_ = l.file.Sync()
	err := l.file.Close()
	l.file = nil
	return err
}
