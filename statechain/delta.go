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

import "encoding/json"

// CollectDeltaItems walks head's chain backward collecting Append items
// until it hits any snapshot (Snapshot or DeltaSnapshot) or the chain's
// start, then returns them as a JSON array in forward order (spec §4.5.2's
// "delta items" computation for a Delta decision).
func (m *Manager) CollectDeltaItems(branch uint64, stateID string) ([]byte, error) {
	m.mu.RLock()
	h := m.heads[headKey{Branch: branch, StateID: stateID}]
	m.mu.RUnlock()
	if h == nil {
		return encodeArray(nil)
	}
	hc := *h
	return m.recon.collectDeltaItems(&hc)
}

func (r *Reconstructor) collectDeltaItems(head *Head) ([]byte, error) {
	if !head.HasHead {
		return encodeArray(nil)
	}

	var items []Operation
	offset := head.HeadOffset
	for {
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
			items = append(items, u.Operation)
		case OpSnapshot, OpDeltaSnapshot:
			return encodeItems(items)
		}
		if !u.HasPrev {
			break
		}
		offset = u.PrevUpdateOffset
	}
	return encodeItems(items)
}

// encodeItems reverses the reverse-chain-order items into forward order and
// JSON-encodes their values as an array.
func encodeItems(items []Operation) ([]byte, error) {
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
	arr := make([]json.RawMessage, len(items))
	for i, op := range items {
		arr[i] = json.RawMessage(op.Value)
	}
	return encodeArray(arr)
}
