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

package statechain

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/strata-db/strata/recordlog"
)

func openLog(t *testing.T) *recordlog.Log {
	t.Helper()
	l, err := recordlog.Open(filepath.Join(t.TempDir(), "records.log"), 1, nil)
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l
}

// appendUpdate frames a state_update record with the given operation,
// chained from prevOffset, and records the update against head.
func appendUpdate(t *testing.T, log *recordlog.Log, seq uint64, op Operation, prevOffset uint64, hasPrev bool) uint64 {
	t.Helper()
	u := UpdateRecord{
		RecordID:         seq,
		Sequence:         seq,
		StateID:          "items",
		PrevUpdateOffset: prevOffset,
		HasPrev:          hasPrev,
		Operation:        op,
		Timestamp:        int64(seq),
	}
	payload, err := u.Marshal()
	require.NoError(t, err)
	off, err := log.Append(&recordlog.Entry{
		ID:         seq,
		Sequence:   seq,
		Branch:     1,
		Timestamp:  int64(seq),
		RecordType: "state_update",
		Payload:    payload,
	})
	require.NoError(t, err)
	return off
}

func appendOp(v int) []byte {
	b, _ := json.Marshal(v)
	return b
}

func TestApplyOperationAppendAndRedact(t *testing.T) {
	var state []byte
	var err error
	for i := 1; i <= 5; i++ {
		state, err = ApplyOperation(state, Operation{Kind: OpAppend, Value: appendOp(i)})
		require.NoError(t, err)
	}
	require.JSONEq(t, `[1,2,3,4,5]`, string(state))

	state, err = ApplyOperation(state, Operation{Kind: OpRedact, Start: 1, End: 3})
	require.NoError(t, err)
	require.JSONEq(t, `[1,4,5]`, string(state))

	state, err = ApplyOperation(state, Operation{Kind: OpRedact, Start: 10, End: 20})
	require.NoError(t, err)
	require.JSONEq(t, `[1,4,5]`, string(state))

	state, err = ApplyOperation(state, Operation{Kind: OpRedact, Start: 3, End: 1})
	require.NoError(t, err)
	require.JSONEq(t, `[1,4,5]`, string(state))
}

func TestApplyOperationEditOutOfRange(t *testing.T) {
	state := []byte(`[1,2,3]`)
	_, err := ApplyOperation(state, Operation{Kind: OpEdit, Index: 5, Value: appendOp(9)})
	require.ErrorIs(t, err, ErrCorruption)
}

func TestApplyOperationField(t *testing.T) {
	state := []byte(`{"a":1}`)
	next, err := ApplyOperation(state, Operation{
		Kind:      OpField,
		FieldName: "b",
		Inner:     &Operation{Kind: OpSet, Value: appendOp(2)},
	})
	require.NoError(t, err)
	require.JSONEq(t, `{"a":1,"b":2}`, string(next))
}

func TestS1AppendLogRoundTrip(t *testing.T) {
	log := openLog(t)
	m := NewManager(log)
	require.NoError(t, m.Register(Registration{ID: "items", Strategy: Strategy{Kind: StrategyAppendLog, DeltaSnapshotEvery: 10, FullSnapshotEvery: 1000}}))

	var prevOffset uint64
	hasPrev := false
	for i := 1; i <= 100; i++ {
		op := Operation{Kind: OpAppend, Value: appendOp(i)}
		off := appendUpdate(t, log, uint64(i), op, prevOffset, hasPrev)
		m.RecordUpdate(1, "items", op, off)
		prevOffset, hasPrev = off, true
	}

	require.Equal(t, uint64(100), m.ItemCount(1, "items"))

	state, err := m.GetState(1, "items")
	require.NoError(t, err)
	var arr []int
	require.NoError(t, json.Unmarshal(state, &arr))
	require.Len(t, arr, 100)
	require.Equal(t, 1, arr[0])
	require.Equal(t, 100, arr[99])

	tail, err := m.GetStateTail(1, "items", 3)
	require.NoError(t, err)
	require.JSONEq(t, `[98,99,100]`, string(tail))
}

func TestS3RedactSemantics(t *testing.T) {
	log := openLog(t)
	m := NewManager(log)
	require.NoError(t, m.Register(Registration{ID: "xs", Strategy: Strategy{Kind: StrategyAppendLog, DeltaSnapshotEvery: 100, FullSnapshotEvery: 1000}}))

	var prevOffset uint64
	hasPrev := false
	for i := 1; i <= 5; i++ {
		op := Operation{Kind: OpAppend, Value: appendOp(i)}
		off := appendUpdate(t, log, uint64(i), op, prevOffset, hasPrev)
		m.RecordUpdate(1, "xs", op, off)
		prevOffset, hasPrev = off, true
	}

	seq := uint64(5)
	redact := func(s, e uint64) {
		seq++
		op := Operation{Kind: OpRedact, Start: s, End: e}
		off := appendUpdate(t, log, seq, op, prevOffset, hasPrev)
		m.RecordUpdate(1, "xs", op, off)
		prevOffset, hasPrev = off, true
	}
	redact(1, 3)
	state, err := m.GetState(1, "xs")
	require.NoError(t, err)
	require.JSONEq(t, `[1,4,5]`, string(state))

	redact(10, 20)
	state, err = m.GetState(1, "xs")
	require.NoError(t, err)
	require.JSONEq(t, `[1,4,5]`, string(state))
}

func TestGetStateAtHistorical(t *testing.T) {
	log := openLog(t)
	m := NewManager(log)
	require.NoError(t, m.Register(Registration{ID: "h", Strategy: Strategy{Kind: StrategyAppendLog, DeltaSnapshotEvery: 100, FullSnapshotEvery: 1000}}))

	var prevOffset uint64
	hasPrev := false
	var seqOf3rd uint64
	for i := 1; i <= 10; i++ {
		op := Operation{Kind: OpAppend, Value: appendOp(i)}
		off := appendUpdate(t, log, uint64(i), op, prevOffset, hasPrev)
		m.RecordUpdate(1, "h", op, off)
		prevOffset, hasPrev = off, true
		if i == 3 {
			seqOf3rd = uint64(i)
		}
	}

	state, err := m.GetStateAt(1, "h", seqOf3rd)
	require.NoError(t, err)
	require.JSONEq(t, `[1,2,3]`, string(state))
}

func TestBranchIsolationViaCopyHeads(t *testing.T) {
	log := openLog(t)
	m := NewManager(log)
	require.NoError(t, m.Register(Registration{ID: "data", Strategy: Strategy{Kind: StrategyAppendLog, DeltaSnapshotEvery: 100, FullSnapshotEvery: 1000}}))

	op1 := Operation{Kind: OpAppend, Value: appendOp(111)}
	off1 := appendUpdate(t, log, 1, op1, 0, false)
	m.RecordUpdate(1, "data", op1, off1)

	m.CopyHeadsForBranch(1, 2)

	op2 := Operation{Kind: OpAppend, Value: appendOp(222)}
	off2 := appendUpdate(t, log, 2, op2, off1, true)
	m.RecordUpdate(2, "data", op2, off2)

	mainState, err := m.GetState(1, "data")
	require.NoError(t, err)
	require.JSONEq(t, `[111]`, string(mainState))

	childState, err := m.GetState(2, "data")
	require.NoError(t, err)
	require.JSONEq(t, `[111,222]`, string(childState))
}

func TestManagerPersistenceRoundtrip(t *testing.T) {
	log := openLog(t)
	m := NewManager(log)
	require.NoError(t, m.Register(Registration{ID: "items", Strategy: Strategy{Kind: StrategyAppendLog, DeltaSnapshotEvery: 10, FullSnapshotEvery: 1000}}))

	op := Operation{Kind: OpAppend, Value: appendOp(1)}
	off := appendUpdate(t, log, 1, op, 0, false)
	m.RecordUpdate(1, "items", op, off)

	buf, err := m.Marshal()
	require.NoError(t, err)

	m2, err := LoadManager(buf, log)
	require.NoError(t, err)

	reg, err := m2.Registration("items")
	require.NoError(t, err)
	require.Equal(t, StrategyAppendLog, reg.Strategy.Kind)

	state, err := m2.GetState(1, "items")
	require.NoError(t, err)
	require.JSONEq(t, `[1]`, string(state))
}
