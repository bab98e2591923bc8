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

package strata

import (
	"github.com/strata-db/strata/feed"
	"github.com/strata-db/strata/recordlog"
	"github.com/strata-db/strata/wal"
)

// Append frames a new record on the current branch (spec §4.6's write
// path): acquire the latch, assign next_seq, append to the log, update the
// index, advance the branch head, broadcast, release.
func (s *Store) Append(input RecordInput) (Record, error) {
	seq, err := s.walLog(wal.OpAppendRecord, walAppendDetail{Input: input})
	if err != nil {
		return Record{}, err
	}

	s.mu.Lock()
	rec, err := s.doAppend(input)
	s.mu.Unlock()
	if err != nil {
		return Record{}, err
	}
	if err := s.walCommit(seq); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// doAppend is Append's WAL-unaware core, also used for WAL replay on open.
func (s *Store) doAppend(input RecordInput) (Record, error) {
	b, err := s.currentBranchLocked()
	if err != nil {
		return Record{}, err
	}
	nextSeq := b.Head + 1
	id := s.allocRecordID()
	ts := s.now()

	e := &recordlog.Entry{
		ID:         id,
		Sequence:   nextSeq,
		Branch:     b.ID,
		Timestamp:  ts,
		RecordType: input.RecordType,
		Payload:    input.Payload,
		Encoding:   uint8(input.Encoding),
		CausedBy:   idsToUint64(input.CausedBy),
		LinkedTo:   idsToUint64(input.LinkedTo),
	}
	offset, err := s.log.Append(e)
	if err != nil {
		return Record{}, NewError(CodeIO, "append record", err)
	}
	s.index.Record(e, offset)
	if err := s.branches.UpdateHead(b.ID, nextSeq); err != nil {
		return Record{}, NewError(CodeBranchNotFound, "update head", err)
	}

	rec := entryToRecord(e)
	s.bus.Broadcast(feed.Event{
		Kind:       feed.EventRecord,
		RecordID:   e.ID,
		RecordType: e.RecordType,
		Branch:     e.Branch,
		Sequence:   e.Sequence,
		Payload:    payloadForBroadcast(e.Payload, s.bus),
	}, func(f feed.Filter) bool { return f.MatchesRecord(e.RecordType, e.Branch) })

	return rec, nil
}

func payloadForBroadcast(payload []byte, bus *feed.Bus) []byte {
	if bus.PayloadIncluded(len(payload)) {
		return payload
	}
	return nil
}

// GetRecord returns a record by id.
func (s *Store) GetRecord(id RecordID) (Record, error) {
	offset, ok := s.index.GetOffsetByID(uint64(id))
	if !ok {
		return Record{}, recordNotFound(id)
	}
	e, err := s.log.ReadAt(offset)
	if err != nil {
		return Record{}, NewError(CodeIO, "read record", err)
	}
	return entryToRecord(e), nil
}

// GetRecordsByType returns every record of the given type, in insertion
// order.
func (s *Store) GetRecordsByType(recordType string) ([]Record, error) {
	ids := s.index.GetByType(recordType)
	out := make([]Record, 0, len(ids))
	for _, id := range ids {
		offset, ok := s.index.GetOffsetByID(id)
		if !ok {
			continue
		}
		e, err := s.log.ReadAt(offset)
		if err != nil {
			return nil, NewError(CodeIO, "read record", err)
		}
		out = append(out, entryToRecord(e))
	}
	return out, nil
}

// GetEffects returns the records that cite id in their caused_by list.
func (s *Store) GetEffects(id RecordID) ([]Record, error) {
	return s.recordsForIDs(s.index.GetCausedBy(uint64(id)))
}

// GetLinksTo returns the records that cite id in their linked_to list.
func (s *Store) GetLinksTo(id RecordID) ([]Record, error) {
	return s.recordsForIDs(s.index.GetLinkedTo(uint64(id)))
}

func (s *Store) recordsForIDs(ids []uint64) ([]Record, error) {
	out := make([]Record, 0, len(ids))
	for _, id := range ids {
		offset, ok := s.index.GetOffsetByID(id)
		if !ok {
			continue
		}
		e, err := s.log.ReadAt(offset)
		if err != nil {
			return nil, NewError(CodeIO, "read record", err)
		}
		out = append(out, entryToRecord(e))
	}
	return out, nil
}

// RecordIterator is a lazy forward scan over a branch's records starting at
// a given sequence.
type RecordIterator struct {
	s       *Store
	branch  uint64
	seq     uint64
	head    uint64
	current Record
	err     error
}

// IterFrom returns an iterator over the current branch's records, starting
// at fromSeq (1-based; 0 and 1 are equivalent).
func (s *Store) IterFrom(fromSeq Sequence) *RecordIterator {
	branchID := s.branches.CurrentID()
	return s.iterFromOnBranch(branchID, fromSeq)
}

func (s *Store) iterFromOnBranch(branchID uint64, fromSeq Sequence) *RecordIterator {
	seq := uint64(fromSeq)
	if seq == 0 {
		seq = 1
	}
	return &RecordIterator{s: s, branch: branchID, seq: seq, head: s.index.Head(branchID)}
}

// Next advances the iterator; false means end-of-branch or error (check Err).
func (it *RecordIterator) Next() bool {
	if it.err != nil || it.seq > it.head {
		return false
	}
	offset, ok := it.s.index.GetOffset(it.branch, it.seq)
	if !ok {
		return false
	}
	e, err := it.s.log.ReadAt(offset)
	if err != nil {
		it.err = NewError(CodeIO, "read record", err)
		return false
	}
	it.current = entryToRecord(e)
	it.seq++
	return true
}

// Record returns the record decoded by the most recent successful Next.
func (it *RecordIterator) Record() Record { return it.current }

// Err returns the error, if any, that stopped iteration early.
func (it *RecordIterator) Err() error { return it.err }
