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

import "github.com/vmihailenco/msgpack/v5"

// OpKind tags the Operation union (spec §3 "State operation").
type OpKind uint8

const (
	OpSet OpKind = iota
	OpSnapshot
	OpDeltaSnapshot
	OpDelta
	OpAppend
	OpRedact
	OpEdit
	OpField
)

// Operation is the tagged union applied to a state's current bytes to
// produce its next value. Only the fields relevant to Kind are meaningful:
//
//	Set, Snapshot, DeltaSnapshot, Delta(new), Append(item) -> Value
//	Delta                                                  -> OldHash (unenforced, kept for forward compat)
//	Redact                                                 -> Start, End
//	Edit                                                   -> Index, Value
//	Field                                                  -> FieldName, Inner
type Operation struct {
	Kind OpKind

	Value   []byte
	OldHash []byte

	Start uint64
	End   uint64

	Index uint64

	FieldName string
	Inner     *Operation
}

// UpdateRecord is the payload of every log record whose RecordType is
// "state_update" (spec §3 "State update record"). PrevUpdateOffset is the
// single source of truth for a state's history on this branch — the chain
// is walked by following it backward, never by consulting an in-memory
// secondary index.
type UpdateRecord struct {
	RecordID         uint64
	Sequence         uint64
	StateID          string
	PrevUpdateOffset uint64
	HasPrev          bool
	Operation        Operation
	Timestamp        int64
}

// Marshal encodes u for embedding as a log record's payload.
func (u *UpdateRecord) Marshal() ([]byte, error) {
	return msgpack.Marshal(u)
}

// UnmarshalUpdateRecord decodes a payload previously produced by Marshal.
func UnmarshalUpdateRecord(buf []byte) (*UpdateRecord, error) {
	var u UpdateRecord
	if err := msgpack.Unmarshal(buf, &u); err != nil {
		return nil, err
	}
	return &u, nil
}
