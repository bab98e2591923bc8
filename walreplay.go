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
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"

	"github.com/strata-db/strata/statechain"
	"github.com/strata-db/strata/wal"
)

// walAppendDetail/walUpdateStateDetail/walStoreBlobDetail/walCreateBranchDetail
// are the msgpack-encoded bodies stashed in a WalEntry.Detail, one shape per
// OperationKind. Replay decodes the one matching the entry's Operation and
// re-runs the underlying (non-WAL-logging) mutation.
type walAppendDetail struct {
	Input RecordInput
}

type walUpdateStateDetail struct {
	StateID   string
	Operation statechain.Operation
}

type walStoreBlobDetail struct {
	Content     []byte
	ContentType string
}

type walCreateBranchDetail struct {
	Name    string
	From    string
	HasAt   bool
	At      uint64
	Empty   bool
}

// walLog records a Pending WAL entry for op ahead of doing the real work,
// a no-op when the store has no WAL configured.
func (s *Store) walLog(op wal.OperationKind, detail interface{}) (uint64, error) {
	if s.wal == nil {
		return 0, nil
	}
	body, err := msgpack.Marshal(detail)
	if err != nil {
		return 0, NewError(CodeSerialization, "wal detail", err)
	}
	seq, err := s.wal.Log(op, body, s.now())
	if err != nil {
		return 0, NewError(CodeIO, "wal log", err)
	}
	return seq, nil
}

func (s *Store) walCommit(seq uint64) error {
	if s.wal == nil || seq == 0 {
		return nil
	}
	if err := s.wal.Commit(seq); err != nil {
		return NewError(CodeIO, "wal commit", err)
	}
	return nil
}

// replayPendingWAL re-applies every not-yet-committed WAL entry in seq
// order, following spec §4.9's recovery contract. Replayed records land
// with freshly assigned ids/sequences (idempotent by construction: a
// record that never committed has no observable identity yet), and
// replayed blobs are idempotent by content hash. Each entry replayed
// successfully is then marked committed, so a later open does not apply
// it again.
func (s *Store) replayPendingWAL() error {
	pending, err := s.wal.GetPendingEntries()
	if err != nil {
		return NewError(CodeIO, "wal replay", err)
	}
	for _, e := range pending {
		if err := s.replayOne(e); err != nil {
			s.logger.Warn("wal replay entry failed", zap.Error(err))
			continue
		}
		if err := s.walCommit(e.Seq); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) replayOne(e wal.Entry) error {
	switch e.Operation {
	case wal.OpAppendRecord:
		var d walAppendDetail
		if err := msgpack.Unmarshal(e.Detail, &d); err != nil {
			return err
		}
		_, err := s.doAppend(d.Input)
		return err

	case wal.OpUpdateState:
		var d walUpdateStateDetail
		if err := msgpack.Unmarshal(e.Detail, &d); err != nil {
			return err
		}
		_, _, _, err := s.doUpdateState(d.StateID, d.Operation)
		return err

	case wal.OpStoreBlob:
		var d walStoreBlobDetail
		if err := msgpack.Unmarshal(e.Detail, &d); err != nil {
			return err
		}
		_, err := s.blobs.Store(d.Content, d.ContentType)
		return err

	case wal.OpCreateBranch:
		var d walCreateBranchDetail
		if err := msgpack.Unmarshal(e.Detail, &d); err != nil {
			return err
		}
		_, err := s.doCreateBranch(d.Name, d.From, d.HasAt, d.At, d.Empty)
		return err
	}
	return nil
}
