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

import "testing"

// FuzzApplyOperation exercises the state fold of spec §4.5.5 the way
// core/types/rlp_fuzzer_test.go's FuzzRLP exercises RLP decoding: arbitrary
// state bytes folded through an arbitrary operation must never panic, only
// return one of the documented errors or a value.
func FuzzApplyOperation(f *testing.F) {
	f.Add([]byte(`[1,2,3]`), uint8(OpAppend), []byte(`4`), uint64(0), uint64(0), uint64(0), "")
	f.Add([]byte(`[1,2,3]`), uint8(OpRedact), []byte(nil), uint64(1), uint64(2), uint64(0), "")
	f.Add([]byte(`[1,2,3]`), uint8(OpEdit), []byte(`9`), uint64(0), uint64(0), uint64(1), "")
	f.Add([]byte(`{"a":1}`), uint8(OpField), []byte(`2`), uint64(0), uint64(0), uint64(0), "b")
	f.Add([]byte(nil), uint8(OpSet), []byte(`"v"`), uint64(0), uint64(0), uint64(0), "")
	f.Add([]byte(`not json`), uint8(OpAppend), []byte(`1`), uint64(0), uint64(0), uint64(0), "")

	f.Fuzz(func(t *testing.T, state []byte, kind uint8, value []byte, start, end, index uint64, fieldName string) {
		op := Operation{
			Kind:      OpKind(kind),
			Value:     value,
			Start:     start,
			End:       end,
			Index:     index,
			FieldName: fieldName,
		}
		if op.Kind == OpField {
			op.Inner = &Operation{Kind: OpSet, Value: value}
		}
		next, err := ApplyOperation(state, op)
		if err != nil {
			return
		}
		// A successful fold must itself be a valid starting state for a
		// further fold of the same operation (idempotent re-application
		// modulo the operation's own semantics never panics).
		if _, err := ApplyOperation(next, op); err != nil {
			return
		}
	})
}
