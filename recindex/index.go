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

// Package recindex holds the derived, never-persisted in-memory maps of
// spec §4.2: point lookup by (branch, sequence) and by id, plus the
// reverse-causation and reverse-link indexes. Everything here is rebuilt
// from a single forward scan of the record log on open and can be thrown
// away and rebuilt at any time without losing information.
package recindex

import (
	"sync"

	"github.com/strata-db/strata/recordlog"
)

// Index is the set of derived maps maintained alongside the record log,
// guarded by a single RWMutex the way core/headerdb.go guards its
// in-memory header maps.
type Index struct {
	mu sync.RWMutex

	// bySeq[branch] is a dense, seq-ordered slice of log offsets: since
	// branch sequences are gapless and 1-based (spec §3 invariant 2),
	// bySeq[branch][seq-1] is the offset for that sequence. This gives
	// O(1) point lookup and O(k) range scans without needing an ordered
	// map keyed on a composite (branch, sequence) pair.
	bySeq map[uint64][]uint64

	byID          map[uint64]uint64
	byType        map[string][]uint64
	causedByIndex map[uint64][]uint64
	linkedToIndex map[uint64][]uint64
}

// New returns an empty Index.
func New() *Index {
	return &Index{
		bySeq:         make(map[uint64][]uint64),
		byID:          make(map[uint64]uint64),
		byType:        make(map[string][]uint64),
		causedByIndex: make(map[uint64][]uint64),
		linkedToIndex: make(map[uint64][]uint64),
	}
}

// Record adds the mappings for one already-appended entry at offset. It is
// called both by the live write path and by Rebuild's forward scan, so it
// must be idempotent-safe to call in strict sequence order only (it does
// not tolerate being called out of order for the same branch).
func (ix *Index) Record(e *recordlog.Entry, offset uint64) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	offs := ix.bySeq[e.Branch]
	want := int(e.Sequence)
	for len(offs) < want {
		offs = append(offs, 0)
	}
	offs[want-1] = offset
	ix.bySeq[e.Branch] = offs

	ix.byID[e.ID] = offset
	ix.byType[e.RecordType] = append(ix.byType[e.RecordType], e.ID)

	for _, causeID := range e.CausedBy {
		ix.causedByIndex[causeID] = append(ix.causedByIndex[causeID], e.ID)
	}
	for _, linkID := range e.LinkedTo {
		ix.linkedToIndex[linkID] = append(ix.linkedToIndex[linkID], e.ID)
	}
}

// Rebuild discards all current state and replays the entire log from
// offset 0, reconstructing every map. This is the only path used on store
// open (spec §4.2 "index is rebuilt by a single forward scan").
func (ix *Index) Rebuild(log *recordlog.Log) error {
	ix.mu.Lock()
	ix.bySeq = make(map[uint64][]uint64)
	ix.byID = make(map[uint64]uint64)
	ix.byType = make(map[string][]uint64)
	ix.causedByIndex = make(map[uint64][]uint64)
	ix.linkedToIndex = make(map[uint64][]uint64)
	ix.mu.Unlock()

	it := log.IterFrom(0)
	for it.Next() {
		ix.Record(it.Entry(), it.Offset())
	}
	return it.Err()
}

// GetOffset returns the log offset for (branch, sequence).
func (ix *Index) GetOffset(branch, sequence uint64) (uint64, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	offs, ok := ix.bySeq[branch]
	if !ok || sequence == 0 || sequence > uint64(len(offs)) {
		return 0, false
	}
	off := offs[sequence-1]
	return off, true
}

// GetOffsetByID returns the log offset for a record id.
func (ix *Index) GetOffsetByID(id uint64) (uint64, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	off, ok := ix.byID[id]
	return off, ok
}

// GetByType returns the record ids of a given type, in insertion order. The
// returned slice is a copy, safe to retain past the lock.
func (ix *Index) GetByType(recordType string) []uint64 {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	src := ix.byType[recordType]
	out := make([]uint64, len(src))
	copy(out, src)
	return out
}

// GetCausedBy returns the ids of records that cite id in their caused_by
// list — the "effects" of id.
func (ix *Index) GetCausedBy(id uint64) []uint64 {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	src := ix.causedByIndex[id]
	out := make([]uint64, len(src))
	copy(out, src)
	return out
}

// GetLinkedTo returns the ids of records that cite id in their linked_to
// list.
func (ix *Index) GetLinkedTo(id uint64) []uint64 {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	src := ix.linkedToIndex[id]
	out := make([]uint64, len(src))
	copy(out, src)
	return out
}

// Head returns the highest sequence recorded for branch, i.e. len(bySeq).
func (ix *Index) Head(branch uint64) uint64 {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return uint64(len(ix.bySeq[branch]))
}

// QueryRange streams offsets for branch with from <= sequence <= to
// (inclusive), honoring limit (0 means unbounded) and reverse order.
func (ix *Index) QueryRange(branch, from, to uint64, limit int, reverse bool) []uint64 {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	offs := ix.bySeq[branch]
	head := uint64(len(offs))
	if head == 0 {
		return nil
	}
	if to == 0 || to > head {
		to = head
	}
	if from == 0 {
		from = 1
	}
	if from > to {
		return nil
	}

	var out []uint64
	if reverse {
		for seq := to; seq >= from; seq-- {
			out = append(out, offs[seq-1])
			if limit > 0 && len(out) >= limit {
				break
			}
			if seq == 0 {
				break
			}
		}
	} else {
		for seq := from; seq <= to; seq++ {
			out = append(out, offs[seq-1])
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out
}
