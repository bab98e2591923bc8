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

package wal

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLogCommitAndPending(t *testing.T) {
	dir := t.TempDir()
	w, err := Open(filepath.Join(dir, "wal.bin"))
	require.NoError(t, err)
	defer w.Close()

	seq1, err := w.Log(OpAppendRecord, []byte("a"), 1)
	require.NoError(t, err)
	seq2, err := w.Log(OpAppendRecord, []byte("b"), 2)
	require.NoError(t, err)

	require.NoError(t, w.Commit(seq1))

	pending, err := w.GetPendingEntries()
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, seq2, pending[0].Seq)
}

func TestClearResetsLog(t *testing.T) {
	dir := t.TempDir()
	w, err := Open(filepath.Join(dir, "wal.bin"))
	require.NoError(t, err)
	defer w.Close()

	_, err = w.Log(OpStoreBlob, nil, 1)
	require.NoError(t, err)
	require.NoError(t, w.Clear())

	pending, err := w.GetPendingEntries()
	require.NoError(t, err)
	require.Empty(t, pending)

	seq, err := w.Log(OpStoreBlob, nil, 2)
	require.NoError(t, err)
	require.Equal(t, uint64(1), seq)
}

func TestReopenReplaysPending(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wal.bin")

	w, err := Open(path)
	require.NoError(t, err)
	seq1, err := w.Log(OpUpdateState, []byte("op1"), 1)
	require.NoError(t, err)
	_, err = w.Log(OpUpdateState, []byte("op2"), 2)
	require.NoError(t, err)
	require.NoError(t, w.Commit(seq1))
	require.NoError(t, w.Close())

	w2, err := Open(path)
	require.NoError(t, err)
	defer w2.Close()

	pending, err := w2.GetPendingEntries()
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, []byte("op2"), pending[0].Detail)
}
