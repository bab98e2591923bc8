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

// Head tracks chain-walk shortcuts for one (branch, state_id): the log
// offset of its latest update plus snapshot bookkeeping, grounded on
// difflayer.go's layer-chaining (newDiffLayer/Update) generalized from
// "account/storage diff" to "arbitrary state operation".
type Head struct {
	HeadOffset    uint64
	HasHead       bool
	LastFullSnapshotOffset  uint64
	HasLastFullSnapshot     bool
	LastDeltaSnapshotOffset uint64
	HasLastDeltaSnapshot    bool

	OpsSinceLastFullSnapshot uint64
	DeltaSnapshotsSinceFull  uint64

	// ItemCount is an O(1) length estimate, exact for AppendLog states
	// (maintained incrementally on Append/Redact/Snapshot; a DeltaSnapshot
	// leaves it unchanged) and best-effort elsewhere.
	ItemCount uint64
}

// RecordUpdate applies the counter bookkeeping of spec §4.5.1 for one
// already-framed update at newOffset. The caller (the facade) has already
// appended the record to the log; RecordUpdate only updates the head.
func (h *Head) RecordUpdate(op Operation, newOffset uint64) {
	switch op.Kind {
	case OpAppend:
		h.ItemCount++
		h.OpsSinceLastFullSnapshot++

	case OpRedact:
		s, e := op.Start, op.End
		if s > h.ItemCount {
			s = h.ItemCount
		}
		if e > h.ItemCount {
			e = h.ItemCount
		}
		removed := uint64(0)
		if e > s {
			removed = e - s
		}
		if removed > h.ItemCount {
			removed = h.ItemCount
		}
		h.ItemCount -= removed
		h.OpsSinceLastFullSnapshot++

	case OpEdit:
		h.OpsSinceLastFullSnapshot++

	case OpSet, OpSnapshot:
		if n, ok := arrayLen(op.Value); ok {
			h.ItemCount = n
		}
		h.LastFullSnapshotOffset = newOffset
		h.HasLastFullSnapshot = true
		h.DeltaSnapshotsSinceFull = 0
		h.OpsSinceLastFullSnapshot = 0

	case OpDeltaSnapshot:
		// Its items are the Appends since the previous snapshot, which
		// were already counted when they were written.
		h.LastDeltaSnapshotOffset = newOffset
		h.HasLastDeltaSnapshot = true
		h.DeltaSnapshotsSinceFull++

	case OpDelta, OpField:
		h.OpsSinceLastFullSnapshot++
	}

	h.HeadOffset = newOffset
	h.HasHead = true
}

func arrayLen(b []byte) (uint64, bool) {
	arr, err := decodeArray(b)
	if err != nil {
		return 0, false
	}
	return uint64(len(arr)), true
}
