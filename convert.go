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
	"github.com/strata-db/strata/blobstore"
	"github.com/strata-db/strata/branch"
	"github.com/strata-db/strata/recordlog"
)

func idsToUint64(ids []RecordID) []uint64 {
	if len(ids) == 0 {
		return nil
	}
	out := make([]uint64, len(ids))
	for i, id := range ids {
		out[i] = uint64(id)
	}
	return out
}

func idsFromUint64(ids []uint64) []RecordID {
	if len(ids) == 0 {
		return nil
	}
	out := make([]RecordID, len(ids))
	for i, id := range ids {
		out[i] = RecordID(id)
	}
	return out
}

func entryToRecord(e *recordlog.Entry) Record {
	return Record{
		ID:         RecordID(e.ID),
		Sequence:   Sequence(e.Sequence),
		Branch:     BranchID(e.Branch),
		Timestamp:  Timestamp(e.Timestamp),
		RecordType: e.RecordType,
		Payload:    e.Payload,
		Encoding:   Encoding(e.Encoding),
		CausedBy:   idsFromUint64(e.CausedBy),
		LinkedTo:   idsFromUint64(e.LinkedTo),
	}
}

// BranchInfo is the read-only view of a branch returned by the facade.
type BranchInfo struct {
	ID             BranchID
	Name           string
	Head           Sequence
	Parent         BranchID
	HasParent      bool
	BranchPoint    Sequence
	HasBranchPoint bool
	Created        Timestamp
}

func branchToInfo(b *branch.Branch) BranchInfo {
	return BranchInfo{
		ID:             BranchID(b.ID),
		Name:           b.Name,
		Head:           Sequence(b.Head),
		Parent:         BranchID(b.Parent),
		HasParent:      b.HasParent,
		BranchPoint:    Sequence(b.BranchPoint),
		HasBranchPoint: b.HasBranchPoint,
		Created:        Timestamp(b.Created),
	}
}

// toBlobHash and fromBlobHash convert between the root Hash type and
// blobstore's.
func toBlobHash(h Hash) blobstore.Hash { return blobstore.Hash(h) }
func fromBlobHash(h blobstore.Hash) Hash { return Hash(h) }
