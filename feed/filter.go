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

package feed

import mapset "github.com/deckarep/golang-set"

// Filter narrows which events a subscription receives (spec §4.7).
type Filter struct {
	RecordTypes    mapset.Set // nil means unset (no restriction)
	StateIDs       mapset.Set // nil means unset
	HasBranch      bool
	Branch         uint64
	IncludeRecords      bool
	IncludeStateChanges bool
	IncludeBranchEvents bool
}

func (f Filter) branchMatches(branch uint64) bool {
	return !f.HasBranch || f.Branch == branch
}

// MatchesRecord reports whether a Record event passes f.
func (f Filter) MatchesRecord(recordType string, branch uint64) bool {
	if !f.IncludeRecords {
		return false
	}
	if !f.branchMatches(branch) {
		return false
	}
	if f.RecordTypes != nil && !f.RecordTypes.Contains(recordType) {
		return false
	}
	return true
}

// MatchesStateChange reports whether a StateSnapshot/StateDelta event for
// stateID on branch passes f.
func (f Filter) MatchesStateChange(stateID string, branch uint64) bool {
	if !f.IncludeStateChanges {
		return false
	}
	if !f.branchMatches(branch) {
		return false
	}
	if f.StateIDs != nil && !f.StateIDs.Contains(stateID) {
		return false
	}
	return true
}

// MatchesBranchEvent reports whether a BranchHead/Created/Deleted event on
// branch passes f.
func (f Filter) MatchesBranchEvent(branch uint64) bool {
	if !f.IncludeBranchEvents {
		return false
	}
	return f.branchMatches(branch)
}
