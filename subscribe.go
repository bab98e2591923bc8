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
	"context"

	"github.com/strata-db/strata/feed"
)

// DefaultMaxSnapshotBytes bounds a catch-up StateSnapshot event's payload;
// larger values are truncated (spec §4.7 "truncating when over
// max_snapshot_bytes").
const DefaultMaxSnapshotBytes = 1 << 20

// Subscribe registers a new live subscription (spec §4.7). The returned
// handle receives nothing until CatchUpSubscription is called.
func (s *Store) Subscribe(filter feed.Filter, bufferSize int, fromSequence Sequence) *feed.Subscription {
	return s.bus.Subscribe(filter, bufferSize, uint64(fromSequence))
}

// Unsubscribe removes a subscription.
func (s *Store) Unsubscribe(id uint64) {
	s.bus.Unsubscribe(id)
}

// SubscriptionCount returns the number of live subscriptions.
func (s *Store) SubscriptionCount() int {
	return s.bus.Count()
}

// CatchUpSubscription streams sub's historical backlog (matching records
// from its from_sequence, then a StateSnapshot per requested state id),
// then a CaughtUp event, then flips sub to live (spec §4.7).
func (s *Store) CatchUpSubscription(ctx context.Context, sub *feed.Subscription) error {
	historical := s.historicalRecordEvents(sub.Filter, sub.FromSequence)
	snapshots, err := s.stateSnapshotEvents(sub.Filter)
	if err != nil {
		return err
	}
	return s.bus.CatchUp(ctx, sub, historical, snapshots)
}

func (s *Store) historicalRecordEvents(f feed.Filter, fromSequence uint64) []feed.Event {
	if !f.IncludeRecords {
		return nil
	}
	var out []feed.Event
	it := s.log.IterFrom(0)
	for it.Next() {
		e := it.Entry()
		if e.RecordType == StateUpdateRecordType {
			continue // internal bookkeeping record, not a user-visible one
		}
		if !f.MatchesRecord(e.RecordType, e.Branch) {
			continue
		}
		if e.Sequence < fromSequence {
			continue
		}
		out = append(out, feed.Event{
			Kind:       feed.EventRecord,
			RecordID:   e.ID,
			RecordType: e.RecordType,
			Branch:     e.Branch,
			Sequence:   e.Sequence,
			Payload:    payloadForBroadcast(e.Payload, s.bus),
		})
	}
	return out
}

func (s *Store) stateSnapshotEvents(f feed.Filter) ([]feed.Event, error) {
	if !f.IncludeStateChanges || f.StateIDs == nil {
		return nil, nil
	}
	branchID := s.branches.CurrentID()
	if f.HasBranch {
		branchID = f.Branch
	}

	var out []feed.Event
	for _, v := range f.StateIDs.ToSlice() {
		stateID := v.(string)
		data, err := s.states.GetState(branchID, stateID)
		if err != nil {
			return nil, NewError(CodeCorruption, "state snapshot", err)
		}
		total := uint64(len(data))
		truncated := false
		if len(data) > DefaultMaxSnapshotBytes {
			data = data[:DefaultMaxSnapshotBytes]
			truncated = true
		}
		out = append(out, feed.Event{
			Kind:       feed.EventStateSnapshot,
			StateID:    stateID,
			Data:       data,
			Sequence:   s.index.Head(branchID),
			Truncated:  truncated,
			TotalBytes: total,
		})
	}
	return out, nil
}
