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
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/google/go-cmp/cmp"

	"github.com/strata-db/strata/recordlog"
)

// dumper renders a mismatched Record with full field depth when a diff
// alone doesn't explain a failure, the way eth/api_test.go's dumper does
// for RPC response structs.
var dumper = spew.ConfigState{Indent: "    ", DisableMethods: true}

func TestEntryToRecordFieldMapping(t *testing.T) {
	e := &recordlog.Entry{
		ID:         7,
		Sequence:   3,
		Branch:     2,
		Timestamp:  1700000000,
		RecordType: "order.created",
		Payload:    []byte(`{"x":1}`),
		Encoding:   1,
		CausedBy:   []uint64{1, 2},
		LinkedTo:   []uint64{5},
	}
	got := entryToRecord(e)
	want := Record{
		ID:         RecordID(7),
		Sequence:   Sequence(3),
		Branch:     BranchID(2),
		Timestamp:  Timestamp(1700000000),
		RecordType: "order.created",
		Payload:    []byte(`{"x":1}`),
		Encoding:   Encoding(1),
		CausedBy:   []RecordID{1, 2},
		LinkedTo:   []RecordID{5},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("entryToRecord mismatch (-want +got):\n%s\ngot = %s", diff, dumper.Sdump(got))
	}
}
