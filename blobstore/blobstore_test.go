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

package blobstore

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStoreIdempotent(t *testing.T) {
	s, err := Open(t.TempDir(), 16)
	require.NoError(t, err)

	h1, err := s.Store([]byte("hello"), "text/plain")
	require.NoError(t, err)
	h2, err := s.Store([]byte("hello"), "text/plain")
	require.NoError(t, err)
	require.Equal(t, h1, h2)

	content, ct, err := s.Get(h1)
	require.NoError(t, err)
	require.Equal(t, "text/plain", ct)
	require.True(t, bytes.Equal(content, []byte("hello")))
}

func TestGetNotFound(t *testing.T) {
	s, err := Open(t.TempDir(), 16)
	require.NoError(t, err)
	_, _, err = s.Get(Hash{})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteAndExists(t *testing.T) {
	s, err := Open(t.TempDir(), 16)
	require.NoError(t, err)
	h, err := s.Store([]byte("payload"), "application/octet-stream")
	require.NoError(t, err)
	require.True(t, s.Exists(h))
	require.NoError(t, s.Delete(h))
	require.False(t, s.Exists(h))
}

func TestListAndTotalSize(t *testing.T) {
	s, err := Open(t.TempDir(), 16)
	require.NoError(t, err)
	_, err = s.Store([]byte("a"), "text/plain")
	require.NoError(t, err)
	_, err = s.Store([]byte("bb"), "text/plain")
	require.NoError(t, err)

	hs, err := s.List()
	require.NoError(t, err)
	require.Len(t, hs, 2)

	total, err := s.TotalSize()
	require.NoError(t, err)
	require.Greater(t, total, int64(0))
}

func TestLargeBlobViaMmap(t *testing.T) {
	s, err := Open(t.TempDir(), 16)
	require.NoError(t, err)
	big := bytes.Repeat([]byte("x"), mmapThreshold+1)
	h, err := s.Store(big, "application/octet-stream")
	require.NoError(t, err)

	// force the cache to miss so Get exercises the mmap read path.
	s.lru.Remove(h.String())

	got, _, err := s.Get(h)
	require.NoError(t, err)
	require.True(t, bytes.Equal(got, big))
}
