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

// Decision is the outcome of evaluating a state's snapshot policy after an
// update has already been recorded.
type Decision uint8

const (
	DecisionNone Decision = iota
	DecisionDelta
	DecisionFull
)

// NeedsSnapshot evaluates the AppendLog{delta_every, full_every} threshold
// policy of spec §4.5.2. Grounded on disklayer_generate.go's
// progress-threshold checks and journal.go's counter style (Done, Marker,
// Accounts, Slots, Storage). Only meaningful for AppendLog-strategy states;
// Snapshot-strategy states never auto-snapshot (every update already is
// one), and Struct delegates per-field.
func NeedsSnapshot(h *Head, deltaEvery, fullEvery uint64) Decision {
	if fullEvery > 0 && h.DeltaSnapshotsSinceFull >= fullEvery {
		return DecisionFull
	}
	if deltaEvery > 0 && h.OpsSinceLastFullSnapshot >= deltaEvery*(h.DeltaSnapshotsSinceFull+1) {
		return DecisionDelta
	}
	return DecisionNone
}
