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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func sampleEntry(id uint64) *Entry {
	return &Entry{
		ID:         id,
		Sequence:   id,
		Branch:     1,
		Timestamp:  1000 + int64(id),
		RecordType: "widget.created",
		Payload:    []byte(`{"ok":true}`),
		Encoding:   0,
		CausedBy:   []uint64{1, 2},
		LinkedTo:   nil,
	}
}

func TestAppendAndReadAt(t *testing.T) {
	dir := t.TempDir()
	l, err := Open(filepath.Join(dir, "records.log"), 1, nil)
	require.NoError(t, err)
	defer l.Close()

	var offsets []uint64
	for i := uint64(1); i <= 5; i++ {
		off, err := l.Append(sampleEntry(i))
		require.NoError(t, err)
		offsets = append(offsets, off)
	}

	for i, off := range offsets {
		e, err := l.ReadAt(off)
		require.NoError(t, err)
		require.Equal(t, uint64(i+1), e.ID)
		require.Equal(t, []byte(`{"ok":true}`), e.Payload)
	}
	require.Equal(t, uint64(5), l.MaxID())
}

func TestIterFrom(t *testing.T) {
	dir := t.TempDir()
	l, err := Open(filepath.Join(dir, "records.log"), 1, nil)
	require.NoError(t, err)
	defer l.Close()

	for i := uint64(1); i <= 3; i++ {
		_, err := l.Append(sampleEntry(i))
		require.NoError(t, err)
	}

	it := l.IterFrom(0)
	var ids []uint64
	for it.Next() {
		ids = append(ids, it.Entry().ID)
	}
	require.NoError(t, it.Err())
	require.Equal(t, []uint64{1, 2, 3}, ids)
}

func TestRepairTruncatesDanglingTail(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "records.log")

	l, err := Open(path, 1, nil)
	require.NoError(t, err)
	off, err := l.Append(sampleEntry(1))
	require.NoError(t, err)
	goodSize := l.Size()
	require.NoError(t, l.Close())

	f, err := os.OpenFile(path, os.O_RDWR|os.O_APPEND, 0644)
	require.NoError(t, err)
	_, err = f.Write([]byte{0x52, 0x4c, 0x4f}) // partial magic, no full frame
	require.NoError(t, err)
	require.NoError(t, f.Close())

	l2, err := Open(path, 1, nil)
	require.NoError(t, err)
	defer l2.Close()
	require.Equal(t, goodSize, l2.Size())

	e, err := l2.ReadAt(off)
	require.NoError(t, err)
	require.Equal(t, uint64(1), e.ID)

	off2, err := l2.Append(sampleEntry(2))
	require.NoError(t, err)
	require.Equal(t, goodSize, off2)
}

func TestReadAtChecksumMismatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "records.log")
	l, err := Open(path, 1, nil)
	require.NoError(t, err)
	off, err := l.Append(sampleEntry(1))
	require.NoError(t, err)
	require.NoError(t, l.Close())

	f, err := os.OpenFile(path, os.O_RDWR, 0644)
	require.NoError(t, err)
	// flip a payload byte in place, leaving the frame length unchanged so it
	// is still a structurally complete frame with a now-wrong checksum.
	corruptOffset := int64(off) + int64(fixedHeaderSize) + 2 + int64(len("widget.created")) + 1 + 4
	_, err = f.WriteAt([]byte{0xff}, corruptOffset)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	l2, err := Open(path, 1, nil)
	require.NoError(t, err)
	defer l2.Close()

	_, err = l2.ReadAt(off)
	require.ErrorIs(t, err, ErrChecksumMismatch)
}
