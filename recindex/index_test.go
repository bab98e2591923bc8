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

package recindex

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/strata-db/strata/recordlog"
)

func writeSample(t *testing.T, log *recordlog.Log, id, branch, seq uint64, caused ...uint64) uint64 {
	t.Helper()
	off, err := log.Append(&recordlog.Entry{
		ID:         id,
		Sequence:   seq,
		Branch:     branch,
		Timestamp:  100,
		RecordType: "widget.created",
		Payload:    []byte("x"),
		CausedBy:   caused,
	})
	require.NoError(t, err)
	return off
}

func TestRecordAndLookup(t *testing.T) {
	dir := t.TempDir()
	log, err := recordlog.Open(filepath.Join(dir, "records.log"), 1, nil)
	require.NoError(t, err)
	defer log.Close()

	off1 := writeSample(t, log, 1, 1, 1)
	off2 := writeSample(t, log, 2, 1, 2, 1)

	ix := New()
	ix.Record(mustRead(t, log, off1), off1)
	ix.Record(mustRead(t, log, off2), off2)

	got, ok := ix.GetOffset(1, 1)
	require.True(t, ok)
	require.Equal(t, off1, got)

	got, ok = ix.GetOffsetByID(2)
	require.True(t, ok)
	require.Equal(t, off2, got)

	require.Equal(t, []uint64{1, 2}, ix.GetByType("widget.created"))
	require.Equal(t, []uint64{2}, ix.GetCausedBy(1))
}

func TestRebuild(t *testing.T) {
	dir := t.TempDir()
	log, err := recordlog.Open(filepath.Join(dir, "records.log"), 1, nil)
	require.NoError(t, err)
	defer log.Close()

	for i := uint64(1); i <= 5; i++ {
		writeSample(t, log, i, 1, i)
	}

	ix := New()
	require.NoError(t, ix.Rebuild(log))
	require.Equal(t, uint64(5), ix.Head(1))

	for i := uint64(1); i <= 5; i++ {
		_, ok := ix.GetOffset(1, i)
		require.True(t, ok)
	}
}

func TestQueryRange(t *testing.T) {
	dir := t.TempDir()
	log, err := recordlog.Open(filepath.Join(dir, "records.log"), 1, nil)
	require.NoError(t, err)
	defer log.Close()

	var offs []uint64
	for i := uint64(1); i <= 10; i++ {
		offs = append(offs, writeSample(t, log, i, 1, i))
	}
	ix := New()
	require.NoError(t, ix.Rebuild(log))

	got := ix.QueryRange(1, 3, 6, 0, false)
	require.Equal(t, offs[2:6], got)

	got = ix.QueryRange(1, 1, 0, 2, true)
	require.Equal(t, []uint64{offs[9], offs[8]}, got)
}

func mustRead(t *testing.T, log *recordlog.Log, off uint64) *recordlog.Entry {
	t.Helper()
	e, err := log.ReadAt(off)
	require.NoError(t, err)
	return e
}
