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

// Package wal implements the optional redo log of spec §4.9: a framed file
// recording not-yet-committed operations so they can be replayed after a
// crash. Framing follows freezer_table.go's length-prefixed-frame-plus-CRC
// approach; the leading magic/version header follows journal.go's idea of
// a small marker record fronting the real payload.
package wal

import (
	"encoding/binary"
	"errors"
	"hash/crc32"
	"os"
	"sort"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
)

var walMagic = [4]byte{'W', 'A', 'L', 0}

const walVersion = 1
const walHeaderSize = 5

var (
	ErrInvalidFormat    = errors.New("wal: invalid format")
	ErrChecksumMismatch = errors.New("wal: checksum mismatch")
	ErrClosed           = errors.New("wal: closed")
)

// Status tags a WalEntry's commit state.
type Status uint8

const (
	StatusPending Status = iota
	StatusCommitted
	StatusRolledBack
)

// OperationKind tags the kind of store mutation a WAL entry describes.
type OperationKind uint8

const (
	OpAppendRecord OperationKind = iota
	OpUpdateState
	OpStoreBlob
	OpCreateBranch
)

// Entry is one WAL record.
type Entry struct {
	Seq       uint64
	Status    Status
	Operation OperationKind
	Detail    []byte // operation-specific payload, opaque to the WAL itself
	Timestamp int64
}

// WAL is the optional redo log. Every mutating call flushes and fsyncs
// before returning, since its entire purpose is surviving a crash that
// happens immediately after.
type WAL struct {
	mu     sync.Mutex
	file   *os.File
	path   string
	nextSeq uint64
}

// Open creates or attaches to the WAL file at path, writing a fresh header
// if the file is empty.
func Open(path string) (*WAL, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, err
	}
	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	w := &WAL{file: f, path: path, nextSeq: 1}
	if stat.Size() == 0 {
		if err := w.writeHeader(); err != nil {
			f.Close()
			return nil, err
		}
		return w, nil
	}
	if err := w.validateHeader(); err != nil {
		f.Close()
		return nil, err
	}
	entries, err := w.readAllLocked()
	if err != nil {
		f.Close()
		return nil, err
	}
	for _, e := range entries {
		if e.Seq >= w.nextSeq {
			w.nextSeq = e.Seq + 1
		}
	}
	return w, nil
}

func (w *WAL) writeHeader() error {
	buf := make([]byte, walHeaderSize)
	copy(buf, walMagic[:])
	buf[4] = walVersion
	if _, err := w.file.WriteAt(buf, 0); err != nil {
		return err
	}
	return w.file.Sync()
}

func (w *WAL) validateHeader() error {
	buf := make([]byte, walHeaderSize)
	if _, err := w.file.ReadAt(buf, 0); err != nil {
		return ErrInvalidFormat
	}
	if buf[0] != walMagic[0] || buf[1] != walMagic[1] || buf[2] != walMagic[2] || buf[3] != walMagic[3] {
		return ErrInvalidFormat
	}
	if buf[4] != walVersion {
		return ErrInvalidFormat
	}
	return nil
}

// Log appends a new Pending entry for op and returns its assigned seq. It
// flushes and fsyncs before returning (spec §4.9 "flush + fsync a Pending
// entry").
func (w *WAL) Log(op OperationKind, detail []byte, timestamp int64) (uint64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return 0, ErrClosed
	}

	seq := w.nextSeq
	w.nextSeq++
	e := Entry{Seq: seq, Status: StatusPending, Operation: op, Detail: detail, Timestamp: timestamp}
	if err := w.appendLocked(e); err != nil {
		return 0, err
	}
	return seq, nil
}

// Commit appends a Committed marker entry for seq.
func (w *WAL) Commit(seq uint64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return ErrClosed
	}
	return w.appendLocked(Entry{Seq: seq, Status: StatusCommitted})
}

func (w *WAL) appendLocked(e Entry) error {
	body, err := msgpack.Marshal(e)
	if err != nil {
		return err
	}
	buf := make([]byte, 4+len(body)+4)
	binary.LittleEndian.PutUint32(buf, uint32(len(body)))
	copy(buf[4:], body)
	crc := crc32.ChecksumIEEE(body)
	binary.LittleEndian.PutUint32(buf[4+len(body):], crc)

	stat, err := w.file.Stat()
	if err != nil {
		return err
	}
	if _, err := w.file.WriteAt(buf, stat.Size()); err != nil {
		return err
	}
	return w.file.Sync()
}

// readAllLocked scans every frame in the file, starting after the header.
// Caller must hold w.mu (or call only from Open, before concurrent use).
func (w *WAL) readAllLocked() ([]Entry, error) {
	stat, err := w.file.Stat()
	if err != nil {
		return nil, err
	}
	total := stat.Size()

	var entries []Entry
	offset := int64(walHeaderSize)
	for offset < total {
		lenBuf := make([]byte, 4)
		if _, err := w.file.ReadAt(lenBuf, offset); err != nil {
			break
		}
		bodyLen := int64(binary.LittleEndian.Uint32(lenBuf))
		if offset+4+bodyLen+4 > total {
			break
		}
		frame := make([]byte, 4+bodyLen+4)
		if _, err := w.file.ReadAt(frame, offset); err != nil {
			break
		}
		body := frame[4 : 4+bodyLen]
		storedCRC := binary.LittleEndian.Uint32(frame[4+bodyLen:])
		if crc32.ChecksumIEEE(body) != storedCRC {
			return nil, ErrChecksumMismatch
		}
		var e Entry
		if err := msgpack.Unmarshal(body, &e); err != nil {
			return nil, err
		}
		entries = append(entries, e)
		offset += int64(len(frame))
	}
	return entries, nil
}

// GetPendingEntries replays every frame and returns the Pending-status
// entries whose seq was never later marked Committed, in seq order.
func (w *WAL) GetPendingEntries() ([]Entry, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil, ErrClosed
	}

	all, err := w.readAllLocked()
	if err != nil {
		return nil, err
	}

	committed := make(map[uint64]bool)
	bySeq := make(map[uint64]Entry)
	for _, e := range all {
		if e.Status == StatusCommitted {
			committed[e.Seq] = true
			continue
		}
		if e.Status == StatusPending {
			bySeq[e.Seq] = e
		}
	}

	var pending []Entry
	for seq, e := range bySeq {
		if !committed[seq] {
			pending = append(pending, e)
		}
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].Seq < pending[j].Seq })
	return pending, nil
}

// Clear truncates the WAL and writes a fresh header.
func (w *WAL) Clear() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return ErrClosed
	}
	if err := w.file.Truncate(0); err != nil {
		return err
	}
	w.nextSeq = 1
	return w.writeHeader()
}

// Close releases the file handle.
func (w *WAL) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}
