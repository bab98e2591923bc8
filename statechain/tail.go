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
	"fmt"
)

// GetStateTail returns the last n items of an AppendLog state without a
// full reconstruction when possible (spec §4.5.6): walk backward
// accumulating items from Append, DeltaSnapshot, and Snapshot (each
// rightmost-first), stopping once n items are collected or a full Snapshot
// is hit. Encountering Edit or Redact before satisfying n falls back to
// full reconstruction, since correctness dominates the optimization.
func (r *Reconstructor) GetStateTail(key string, head *Head, n int) ([]byte, error) {
	sfKey := fmt.Sprintf("%s#tail%d", key, n)
	v, err, _ := r.sf.Do(sfKey, func() (interface{}, error) {
		return r.tailWalk(head, n)
	})
	if err != nil || v == nil {
		return nil, err
	}
	return v.([]byte), nil
}

func (r *Reconstructor) tailWalk(head *Head, n int) ([]byte, error) {
	if !head.HasHead || n <= 0 {
		return encodeArray(nil)
	}

	var items []json.RawMessage
	offset := head.HeadOffset

	for len(items) < n {
		e, err := r.log.ReadAt(offset)
		if err != nil {
			return nil, err
		}
		u, err := UnmarshalUpdateRecord(e.Payload)
		if err != nil {
			return nil, err
		}

		switch u.Operation.Kind {
		case OpAppend:
			items = prependOne(items, json.RawMessage(u.Operation.Value), n)

		case OpDeltaSnapshot, OpSnapshot:
			arr, err := decodeArray(u.Operation.Value)
			if err != nil {
				return nil, err
			}
			items = prependMany(items, arr, n)
			if u.Operation.Kind == OpSnapshot {
				return finishTail(items, n)
			}

		case OpEdit, OpRedact:
			return walkAndFold(r.log, head.HeadOffset, head.HasHead, nil)

		default:
			// Set/Delta/Field don't contribute array items directly for an
			// AppendLog tail read; fall back for correctness.
			return walkAndFold(r.log, head.HeadOffset, head.HasHead, nil)
		}

		if !u.HasPrev {
			break
		}
		offset = u.PrevUpdateOffset
	}

	return finishTail(items, n)
}

func finishTail(items []json.RawMessage, n int) ([]byte, error) {
	if len(items) > n {
		items = items[len(items)-n:]
	}
	return encodeArray(items)
}

// prependOne inserts one item at the front of items (items accumulate in
// reverse chain-walk order, oldest arriving last), trimming from the back
// once more than n are held.
func prependOne(items []json.RawMessage, item json.RawMessage, n int) []json.RawMessage {
	items = append([]json.RawMessage{item}, items...)
	if len(items) > n {
		items = items[len(items)-n:]
	}
	return items
}

// prependMany inserts a rightmost-first batch (arr, in forward order) at
// the front of items.
func prependMany(items []json.RawMessage, arr []json.RawMessage, n int) []json.RawMessage {
	items = append(append([]json.RawMessage{}, arr...), items...)
	if len(items) > n {
		items = items[len(items)-n:]
	}
	return items
}
