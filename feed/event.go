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

// Package feed implements the live subscription bus of spec §4.7: bounded
// per-subscriber channels, historical catch-up, filtering, and mandatory
// slow-consumer backpressure via try_send-and-drop.
package feed

// Kind tags an Event.
type Kind uint8

const (
	EventRecord Kind = iota
	EventStateSnapshot
	EventStateDelta
	EventBranchHead
	EventBranchCreated
	EventBranchDeleted
	EventCaughtUp
	EventDropped
)

// DropReason explains why a subscription was terminated.
type DropReason uint8

const (
	DropBufferOverflow DropReason = iota
	DropDisconnected
)

// Event is the single wire shape for everything the bus can deliver. Only
// the fields relevant to Kind are populated.
type Event struct {
	Kind Kind

	// EventRecord
	RecordID       uint64
	RecordType     string
	Branch         uint64
	Sequence       uint64
	Payload        []byte
	PayloadOmitted bool

	// EventStateSnapshot
	StateID        string
	Data           []byte
	Truncated      bool
	TotalBytes     uint64
	HasFromIndex   bool
	FromIndex      uint64
	HasTotalLength bool
	TotalLength    uint64

	// EventStateDelta
	OperationSummary string

	// EventBranchHead / EventBranchCreated / EventBranchDeleted
	BranchName string
	ParentName string
	Head       uint64

	// EventDropped
	Reason DropReason
}
