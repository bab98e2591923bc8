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
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/strata-db/strata/feed"
	"github.com/strata-db/strata/recordlog"
	"github.com/strata-db/strata/statechain"
	"github.com/strata-db/strata/wal"
)

// RegisterState registers a new state id with its folding strategy. There
// is no unregister (spec §3 "State registrations live as long as the
// store").
func (s *Store) RegisterState(reg statechain.Registration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.states.Register(reg); err != nil {
		if errors.Is(err, statechain.ErrExists) {
			return NewError(CodeStateExists, reg.ID, err)
		}
		return NewError(CodeIO, "register state", err)
	}
	return nil
}

// UpdateState validates and applies op to stateID on the current branch,
// then evaluates the auto-snapshot policy outside the write latch (spec
// §4.6: "releases the latch and evaluates auto-snapshot outside the latch
// to prevent recursion").
func (s *Store) UpdateState(stateID string, op statechain.Operation) (Record, error) {
	seq, err := s.walLog(wal.OpUpdateState, walUpdateStateDetail{StateID: stateID, Operation: op})
	if err != nil {
		return Record{}, err
	}

	s.mu.Lock()
	rec, reg, branchID, err := s.doUpdateState(stateID, op)
	s.mu.Unlock()
	if err != nil {
		return Record{}, err
	}
	if err := s.walCommit(seq); err != nil {
		return Record{}, err
	}

	if reg.Strategy.Kind == statechain.StrategyAppendLog {
		if werr := s.evaluateAutoSnapshot(branchID, stateID, reg.Strategy); werr != nil {
			// spec §7: "auto-snapshot failures after a user write must not
			// roll back the user's write — they are surfaced as a warning".
			s.logger.Warn("auto-snapshot failed", zap.String("state_id", stateID), zap.Error(werr))
		}
	}
	return rec, nil
}

// doUpdateState is UpdateState's WAL-unaware core, used directly by
// auto-snapshot follow-up writes (which must not themselves trigger a
// further auto-snapshot) and by WAL replay.
func (s *Store) doUpdateState(stateID string, op statechain.Operation) (Record, *statechain.Registration, uint64, error) {
	reg, err := s.states.Registration(stateID)
	if err != nil {
		return Record{}, nil, 0, stateNotRegistered(stateID)
	}

	b, err := s.currentBranchLocked()
	if err != nil {
		return Record{}, nil, 0, err
	}

	head := s.states.Head(b.ID, stateID)
	if op.Kind == statechain.OpEdit && op.Index >= head.ItemCount {
		return Record{}, nil, 0, NewError(CodeInvalidOperation,
			fmt.Sprintf("edit index %d out of range (len %d)", op.Index, head.ItemCount), nil)
	}

	var prevOffset uint64
	hasPrev := head.HasHead
	if hasPrev {
		prevOffset = head.HeadOffset
	}

	nextSeq := b.Head + 1
	id := s.allocRecordID()
	ts := s.now()

	ur := statechain.UpdateRecord{
		RecordID:         id,
		Sequence:         nextSeq,
		StateID:          stateID,
		PrevUpdateOffset: prevOffset,
		HasPrev:          hasPrev,
		Operation:        op,
		Timestamp:        ts,
	}
	payload, err := ur.Marshal()
	if err != nil {
		return Record{}, nil, 0, NewError(CodeSerialization, "state update record", err)
	}

	e := &recordlog.Entry{
		ID:         id,
		Sequence:   nextSeq,
		Branch:     b.ID,
		Timestamp:  ts,
		RecordType: StateUpdateRecordType,
		Payload:    payload,
		Encoding:   uint8(EncodingMessagePack),
	}
	offset, err := s.log.Append(e)
	if err != nil {
		return Record{}, nil, 0, NewError(CodeIO, "append state update", err)
	}

	s.index.Record(e, offset)
	s.states.RecordUpdate(b.ID, stateID, op, offset)
	if err := s.branches.UpdateHead(b.ID, nextSeq); err != nil {
		return Record{}, nil, 0, NewError(CodeBranchNotFound, "update head", err)
	}

	s.bus.Broadcast(feed.Event{
		Kind:             feed.EventStateDelta,
		StateID:          stateID,
		Branch:           b.ID,
		Sequence:         nextSeq,
		OperationSummary: operationSummary(op),
	}, func(f feed.Filter) bool { return f.MatchesStateChange(stateID, b.ID) })

	return entryToRecord(e), reg, b.ID, nil
}

func operationSummary(op statechain.Operation) string {
	switch op.Kind {
	case statechain.OpSet:
		return "set"
	case statechain.OpSnapshot:
		return "snapshot"
	case statechain.OpDeltaSnapshot:
		return "delta_snapshot"
	case statechain.OpDelta:
		return "delta"
	case statechain.OpAppend:
		return "append"
	case statechain.OpRedact:
		return "redact"
	case statechain.OpEdit:
		return "edit"
	case statechain.OpField:
		return "field"
	default:
		return "unknown"
	}
}

// evaluateAutoSnapshot runs the §4.5.2 threshold policy for an AppendLog
// state and, if due, writes the follow-up Snapshot or DeltaSnapshot update
// directly through doUpdateState — bypassing UpdateState so the follow-up
// write is not itself subject to auto-snapshot evaluation.
func (s *Store) evaluateAutoSnapshot(branchID uint64, stateID string, strat statechain.Strategy) error {
	s.mu.Lock()
	decision := s.states.NeedsSnapshot(branchID, stateID, strat.DeltaSnapshotEvery, strat.FullSnapshotEvery)
	s.mu.Unlock()

	switch decision {
	case statechain.DecisionNone:
		return nil

	case statechain.DecisionFull:
		s.mu.Lock()
		value, err := s.states.GetState(branchID, stateID)
		if err != nil {
			s.mu.Unlock()
			return err
		}
		_, _, _, err = s.doUpdateState(stateID, statechain.Operation{Kind: statechain.OpSnapshot, Value: value})
		s.mu.Unlock()
		return err

	case statechain.DecisionDelta:
		s.mu.Lock()
		items, err := s.states.CollectDeltaItems(branchID, stateID)
		if err != nil {
			s.mu.Unlock()
			return err
		}
		_, _, _, err = s.doUpdateState(stateID, statechain.Operation{Kind: statechain.OpDeltaSnapshot, Value: items})
		s.mu.Unlock()
		return err
	}
	return nil
}

// GetState reconstructs the current value of stateID on the current
// branch.
func (s *Store) GetState(stateID string) ([]byte, error) {
	branchID := s.branches.CurrentID()
	if _, err := s.states.Registration(stateID); err != nil {
		return nil, stateNotRegistered(stateID)
	}
	v, err := s.states.GetState(branchID, stateID)
	if err != nil {
		return nil, NewError(CodeCorruption, "reconstruct state", err)
	}
	return v, nil
}

// GetStateAt reconstructs the value of stateID as of atSeq.
func (s *Store) GetStateAt(stateID string, atSeq Sequence) ([]byte, error) {
	branchID := s.branches.CurrentID()
	if _, err := s.states.Registration(stateID); err != nil {
		return nil, stateNotRegistered(stateID)
	}
	v, err := s.states.GetStateAt(branchID, stateID, uint64(atSeq))
	if err != nil {
		return nil, NewError(CodeCorruption, "reconstruct state", err)
	}
	return v, nil
}

// GetStateLen returns the O(1) item-count estimate for an AppendLog state.
func (s *Store) GetStateLen(stateID string) uint64 {
	branchID := s.branches.CurrentID()
	return s.states.ItemCount(branchID, stateID)
}

// GetStateTail returns the last n items of an AppendLog state's value.
func (s *Store) GetStateTail(stateID string, n int) ([]byte, error) {
	branchID := s.branches.CurrentID()
	v, err := s.states.GetStateTail(branchID, stateID, n)
	if err != nil {
		return nil, NewError(CodeCorruption, "reconstruct state tail", err)
	}
	return v, nil
}

// GetStateSlice returns items [offset, offset+limit) of an AppendLog
// state's JSON array value. It reconstructs the full value; there is no
// partial-reconstruction shortcut for an arbitrary mid-array slice.
func (s *Store) GetStateSlice(stateID string, offset, limit int) ([]byte, error) {
	full, err := s.GetState(stateID)
	if err != nil {
		return nil, err
	}
	var arr []json.RawMessage
	if len(full) > 0 {
		if err := json.Unmarshal(full, &arr); err != nil {
			return nil, NewError(CodeDeserialization, "state is not an array", err)
		}
	}
	if offset < 0 {
		offset = 0
	}
	if offset > len(arr) {
		offset = len(arr)
	}
	end := offset + limit
	if limit <= 0 || end > len(arr) {
		end = len(arr)
	}
	return json.Marshal(arr[offset:end])
}

// IterStateItems decodes the current value of an AppendLog state and
// returns its items individually.
func (s *Store) IterStateItems(stateID string) ([]json.RawMessage, error) {
	full, err := s.GetState(stateID)
	if err != nil {
		return nil, err
	}
	if len(full) == 0 {
		return nil, nil
	}
	var arr []json.RawMessage
	if err := json.Unmarshal(full, &arr); err != nil {
		return nil, NewError(CodeDeserialization, "state is not an array", err)
	}
	return arr, nil
}

// CompactState reconstructs stateID's current value and writes it back as
// a fresh Snapshot, logically compacting the chain (physical records are
// never rewritten or deleted — the new Snapshot simply shortcuts future
// traversal).
func (s *Store) CompactState(stateID string) error {
	branchID := s.branches.CurrentID()
	value, err := s.states.GetState(branchID, stateID)
	if err != nil {
		return NewError(CodeCorruption, "reconstruct state", err)
	}
	_, err = s.UpdateState(stateID, statechain.Operation{Kind: statechain.OpSnapshot, Value: value})
	return err
}

// CompactAllStates compacts every registered state on the current branch
// that currently has a chain head. It is best-effort: a failure on one
// state does not stop the others, and all failures are joined into the
// returned error.
func (s *Store) CompactAllStates() error {
	var errs []error
	for _, id := range s.states.RegisteredIDs() {
		if !s.states.Head(s.branches.CurrentID(), id).HasHead {
			continue
		}
		if err := s.CompactState(id); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
