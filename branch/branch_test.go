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

package branch

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCreateAndGet(t *testing.T) {
	m := New()
	require.NoError(t, m.UpdateHead(MainID, 5))

	b, err := m.Create("feature", "")
	require.NoError(t, err)
	require.Equal(t, uint64(5), b.Head)
	require.Equal(t, uint64(5), b.BranchPoint)
	require.True(t, b.HasParent)
	require.Equal(t, MainID, b.Parent)

	got, err := m.Get("feature")
	require.NoError(t, err)
	require.Equal(t, b.ID, got.ID)
}

func TestCreateAtRejectsFuture(t *testing.T) {
	m := New()
	require.NoError(t, m.UpdateHead(MainID, 3))
	_, err := m.CreateAt("bad", "main", 10)
	require.ErrorIs(t, err, ErrInvalidSeq)
}

func TestDeleteProtected(t *testing.T) {
	m := New()
	require.ErrorIs(t, m.Delete("main"), ErrProtected)

	_, err := m.Create("feature", "")
	require.NoError(t, err)
	require.NoError(t, m.Switch("feature"))
	require.ErrorIs(t, m.Delete("feature"), ErrProtected)
}

func TestDeleteWithReparent(t *testing.T) {
	m := New()
	_, err := m.Create("mid", "")
	require.NoError(t, err)
	_, err = m.Create("leaf", "mid")
	require.NoError(t, err)

	newParent := "main"
	require.NoError(t, m.DeleteWithReparent("mid", &newParent))

	leaf, err := m.Get("leaf")
	require.NoError(t, err)
	require.Equal(t, MainID, leaf.Parent)
}

func TestAncestry(t *testing.T) {
	m := New()
	_, err := m.Create("mid", "")
	require.NoError(t, err)
	_, err = m.Create("leaf", "mid")
	require.NoError(t, err)

	anc, err := m.Ancestry("leaf")
	require.NoError(t, err)
	require.Equal(t, []string{"leaf", "mid", "main"}, anc)
}

func TestGCEmpty(t *testing.T) {
	m := New()
	_, err := m.Create("empty-child", "")
	require.NoError(t, err)

	removed, err := m.GC(GCOptions{Empty: true})
	require.NoError(t, err)
	require.Equal(t, []string{"empty-child"}, removed)

	_, err = m.Get("empty-child")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMarshalRoundtrip(t *testing.T) {
	m := New()
	require.NoError(t, m.UpdateHead(MainID, 7))
	_, err := m.Create("feature", "")
	require.NoError(t, err)

	buf, err := m.Marshal()
	require.NoError(t, err)

	loaded, err := Load(buf)
	require.NoError(t, err)
	require.Equal(t, m.Current(), loaded.Current())

	b, err := loaded.Get("feature")
	require.NoError(t, err)
	require.Equal(t, uint64(7), b.Head)
}
