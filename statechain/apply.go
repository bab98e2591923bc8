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
	"errors"

	jsoniter "github.com/json-iterator/go"
)

var api = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	// ErrDeserialization is returned when an operation's assumed JSON shape
	// (array or object) does not match the current state bytes.
	ErrDeserialization = errors.New("statechain: deserialization")
	// ErrCorruption is returned for a consistency error only detectable at
	// reconstruction time, distinct from a write-time InvalidOperation.
	ErrCorruption = errors.New("statechain: corruption")
)

// ApplyOperation folds op onto state, returning the next value. JSON is the
// canonical in-state serialization (spec §4.5.5); operations that assume an
// array or object shape fail ErrDeserialization when that shape is absent.
func ApplyOperation(state []byte, op Operation) ([]byte, error) {
	switch op.Kind {
	case OpSet, OpSnapshot:
		return append([]byte(nil), op.Value...), nil

	case OpDelta:
		return append([]byte(nil), op.Value...), nil

	case OpDeltaSnapshot:
		cur, err := decodeArray(state)
		if err != nil {
			return nil, err
		}
		delta, err := decodeArray(op.Value)
		if err != nil {
			return nil, err
		}
		return encodeArray(append(cur, delta...))

	case OpAppend:
		cur, err := decodeArray(state)
		if err != nil {
			return nil, err
		}
		cur = append(cur, json.RawMessage(op.Value))
		return encodeArray(cur)

	case OpRedact:
		cur, err := decodeArray(state)
		if err != nil {
			return nil, err
		}
		n := uint64(len(cur))
		s, e := op.Start, op.End
		if s > n {
			s = n
		}
		if e > n {
			e = n
		}
		if s < e {
			cur = append(cur[:s:s], cur[e:]...)
		}
		return encodeArray(cur)

	case OpEdit:
		cur, err := decodeArray(state)
		if err != nil {
			return nil, err
		}
		if op.Index >= uint64(len(cur)) {
			return nil, ErrCorruption
		}
		cur[op.Index] = json.RawMessage(op.Value)
		return encodeArray(cur)

	case OpField:
		obj, err := decodeObject(state)
		if err != nil {
			return nil, err
		}
		var inner Operation
		if op.Inner != nil {
			inner = *op.Inner
		}
		cur := []byte(obj[op.FieldName])
		next, err := ApplyOperation(cur, inner)
		if err != nil {
			return nil, err
		}
		obj[op.FieldName] = json.RawMessage(next)
		return encodeObject(obj)

	default:
		return nil, ErrDeserialization
	}
}

func decodeArray(b []byte) ([]json.RawMessage, error) {
	if len(b) == 0 {
		return nil, nil
	}
	var arr []json.RawMessage
	if err := api.Unmarshal(b, &arr); err != nil {
		return nil, ErrDeserialization
	}
	return arr, nil
}

func encodeArray(arr []json.RawMessage) ([]byte, error) {
	if arr == nil {
		arr = []json.RawMessage{}
	}
	return api.Marshal(arr)
}

func decodeObject(b []byte) (map[string]json.RawMessage, error) {
	if len(b) == 0 {
		return map[string]json.RawMessage{}, nil
	}
	var obj map[string]json.RawMessage
	if err := api.Unmarshal(b, &obj); err != nil {
		return nil, ErrDeserialization
	}
	if obj == nil { // JSON null decodes to a nil map
		obj = map[string]json.RawMessage{}
	}
	return obj, nil
}

func encodeObject(obj map[string]json.RawMessage) ([]byte, error) {
	return api.Marshal(obj)
}
