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
	"fmt"

	"golang.org/x/sync/singleflight"

	"github.com/strata-db/strata/recordlog"
)

// Reconstructor walks the shared log to fold a state's operations into a
// value, grounded on journal.go's loadDiffLayer backward-chain walk. It
// dedupes concurrent reconstructions of the same (branch, state) key with
// singleflight, so a burst of readers on a hot, not-yet-snapshotted state
// does not each re-walk the chain independently.
type Reconstructor struct {
	log *recordlog.Log
	sf  singleflight.Group
}

// NewReconstructor wraps log for chain reads.
func NewReconstructor(log *recordlog.Log) *Reconstructor {
	return &Reconstructor{log: log}
}

// GetState reconstructs the current value for head, deduped under key.
func (r *Reconstructor) GetState(key string, head *Head) ([]byte, error) {
	v, err, _ := r.sf.Do(key, func() (interface{}, error) {
		return walkAndFold(r.log, head.HeadOffset, head.HasHead, nil)
	})
	if err != nil || v == nil {
		return nil, err
	}
	return v.([]byte), nil
}

// GetStateAt reconstructs the value as of atSequence, deduped under a key
// that includes the sequence (two different historical reads of the same
// state do not collapse into one another).
func (r *Reconstructor) GetStateAt(key string, head *Head, atSequence uint64) ([]byte, error) {
	sfKey := fmt.Sprintf("%s@%d", key, atSequence)
	v, err, _ := r.sf.Do(sfKey, func() (interface{}, error) {
		return walkAndFold(r.log, head.HeadOffset, head.HasHead, &atSequence)
	})
	if err != nil || v == nil {
		return nil, err
	}
	return v.([]byte), nil
}

// walkAndFold performs the backward chain walk of spec §4.5.3/§4.5.4: collect
// operations until a full Snapshot (inclusive) or the chain's start, reverse
// to forward order, and apply sequentially from empty bytes. If ceiling is
// non-nil, any update whose Sequence exceeds it is skipped for collection
// (but its prev_update_offset is still followed) — §4.5.4's historical
// variant.
func walkAndFold(log *recordlog.Log, startOffset uint64, hasHead bool, ceiling *uint64) ([]byte, error) {
	if !hasHead {
		return nil, nil
	}

	var stack []Operation
	suppress := false
	offset := startOffset
	found := ceiling == nil
	hitFullSnapshot := false

	for {
		e, err := log.ReadAt(offset)
		if err != nil {
			return nil, err
		}
		u, err := UnmarshalUpdateRecord(e.Payload)
		if err != nil {
			return nil, err
		}

		visible := ceiling == nil || u.Sequence <= *ceiling
		if visible {
			found = true
			op := u.Operation
			switch {
			case op.Kind == OpSnapshot:
				stack = append(stack, op)
				hitFullSnapshot = true
			case op.Kind == OpDeltaSnapshot:
				stack = append(stack, op)
				suppress = true
			case !suppress:
				stack = append(stack, op)
			}
		}

		if hitFullSnapshot || !u.HasPrev {
			break
		}
		offset = u.PrevUpdateOffset
	}

	if !found {
		return nil, nil
	}
	for i, j := 0, len(stack)-1; i < j; i, j = i+1, j-1 {
		stack[i], stack[j] = stack[j], stack[i]
	}

	var state []byte
	for _, op := range stack {
		next, err := ApplyOperation(state, op)
		if err != nil {
			return nil, err
		}
		state = next
	}
	return state, nil
}
