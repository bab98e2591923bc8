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
	"encoding/hex"
	"fmt"
)

// RecordID uniquely identifies a record within the log. It is assigned by
// the store on append and never reused.
type RecordID uint64

// BranchID identifies a branch. 1 is reserved for "main".
type BranchID uint64

// MainBranch is the reserved, un-deletable root branch.
const MainBranch BranchID = 1

// Sequence is a per-branch monotonic counter starting at 1. A head of 0
// means the branch is empty.
type Sequence uint64

// Timestamp is microseconds since the Unix epoch.
type Timestamp int64

// HashSize is the length in bytes of a Hash (SHA-256 digest).
const HashSize = 32

// Hash is a SHA-256 content digest.
type Hash [HashSize]byte

// String renders the hash as lowercase hex, the same textual form used for
// blob shard/file naming (see blobstore).
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// ShardByte returns the first byte of the hash, used to shard blob storage
// directories.
func (h Hash) ShardByte() byte {
	return h[0]
}

// Encoding identifies how a record's payload bytes are encoded.
type Encoding uint8

const (
	EncodingJSON Encoding = iota
	EncodingMessagePack
	EncodingRaw
)

func (e Encoding) String() string {
	switch e {
	case EncodingJSON:
		return "json"
	case EncodingMessagePack:
		return "msgpack"
	case EncodingRaw:
		return "raw"
	default:
		return fmt.Sprintf("encoding(%d)", uint8(e))
	}
}

// RecordInput is the caller-supplied shape of a new record, before the store
// assigns an ID, sequence and timestamp.
type RecordInput struct {
	RecordType string
	Payload    []byte
	Encoding   Encoding
	CausedBy   []RecordID
	LinkedTo   []RecordID
}

// Record is an immutable, framed entry in the record log (spec §3, §4.1).
type Record struct {
	ID         RecordID
	Sequence   Sequence
	Branch     BranchID
	Timestamp  Timestamp
	RecordType string
	Payload    []byte
	Encoding   Encoding
	CausedBy   []RecordID
	LinkedTo   []RecordID
}

// StateUpdateRecordType is the reserved record_type used for the payload of
// every state-update record (spec §3 "State update record").
const StateUpdateRecordType = "state_update"
