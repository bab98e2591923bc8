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

// Package statechain implements the per-(branch, state) chain mechanism of
// spec §4.5: a backward-linked list of state-update records embedded in
// the shared log via prev_update_offset, a snapshot-threshold policy, and
// operation application over JSON-encoded state values.
package statechain

// StrategyKind is the tag of the StateStrategy union (spec §3 "State
// registration").
type StrategyKind uint8

const (
	StrategySnapshot StrategyKind = iota
	StrategyDelta
	StrategyAppendLog
	StrategyStruct
)

// Strategy describes how a registered state's updates are folded into a
// value. Only the fields relevant to Kind are meaningful.
type Strategy struct {
	Kind StrategyKind

	// Delta
	SnapshotEvery uint64

	// AppendLog
	DeltaSnapshotEvery uint64
	FullSnapshotEvery  uint64

	// Struct
	Fields map[string]Strategy
}

// Registration is a state's identity and folding strategy, persisted
// alongside chain heads in state.bin.
type Registration struct {
	ID              string
	Strategy        Strategy
	HasInitialValue bool
	InitialValue    []byte
}
