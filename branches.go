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
	"errors"

	"github.com/strata-db/strata/branch"
	"github.com/strata-db/strata/feed"
	"github.com/strata-db/strata/wal"
)

// CreateBranch forks name from "from" (main, if from is empty) at the
// parent's current head, copying the parent's state heads by value (spec
// §3 invariant 5).
func (s *Store) CreateBranch(name, from string) (BranchInfo, error) {
	return s.createBranch(name, from, false, 0, false)
}

// CreateBranchAt forks name from "from" at a specific ancestor sequence.
func (s *Store) CreateBranchAt(name, from string, at Sequence) (BranchInfo, error) {
	return s.createBranch(name, from, true, uint64(at), false)
}

// CreateEmptyBranch forks name from "from" with no shared prefix and no
// copied state heads, for time-travel branching.
func (s *Store) CreateEmptyBranch(name, from string) (BranchInfo, error) {
	return s.createBranch(name, from, false, 0, true)
}

func (s *Store) createBranch(name, from string, hasAt bool, at uint64, empty bool) (BranchInfo, error) {
	seq, err := s.walLog(wal.OpCreateBranch, walCreateBranchDetail{Name: name, From: from, HasAt: hasAt, At: at, Empty: empty})
	if err != nil {
		return BranchInfo{}, err
	}

	s.mu.Lock()
	info, err := s.doCreateBranch(name, from, hasAt, at, empty)
	s.mu.Unlock()
	if err != nil {
		return BranchInfo{}, err
	}
	if err := s.walCommit(seq); err != nil {
		return BranchInfo{}, err
	}
	return info, nil
}

func (s *Store) doCreateBranch(name, from string, hasAt bool, at uint64, empty bool) (BranchInfo, error) {
	var b *branch.Branch
	var err error
	switch {
	case empty:
		b, err = s.branches.CreateEmpty(name, from)
	case hasAt:
		b, err = s.branches.CreateAt(name, from, at)
	default:
		b, err = s.branches.Create(name, from)
	}
	if err != nil {
		return BranchInfo{}, convertBranchErr(err, name)
	}

	if !empty {
		s.states.CopyHeadsForBranch(b.Parent, b.ID)
	}

	s.bus.Broadcast(feed.Event{Kind: feed.EventBranchCreated, BranchName: b.Name, ParentName: from, Head: b.Head},
		func(f feed.Filter) bool { return f.MatchesBranchEvent(b.ID) })

	return branchToInfo(b), nil
}

// SwitchBranch changes the currently selected branch.
func (s *Store) SwitchBranch(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.branches.Switch(name); err != nil {
		return convertBranchErr(err, name)
	}
	return nil
}

// CurrentBranch returns the name of the currently selected branch.
func (s *Store) CurrentBranch() string {
	return s.branches.Current()
}

// ListBranches returns every branch, order unspecified.
func (s *Store) ListBranches() []BranchInfo {
	bs := s.branches.List()
	out := make([]BranchInfo, len(bs))
	for i, b := range bs {
		out[i] = branchToInfo(b)
	}
	return out
}

// DeleteBranch removes a branch, forbidden for "main" and the current
// branch.
func (s *Store) DeleteBranch(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.branches.Delete(name); err != nil {
		return convertBranchErr(err, name)
	}
	s.bus.Broadcast(feed.Event{Kind: feed.EventBranchDeleted, BranchName: name},
		func(f feed.Filter) bool { return f.IncludeBranchEvents })
	return nil
}

func convertBranchErr(err error, name string) error {
	switch {
	case errors.Is(err, branch.ErrNotFound):
		return branchNotFound(name)
	case errors.Is(err, branch.ErrExists):
		return NewError(CodeBranchExists, name, err)
	case errors.Is(err, branch.ErrInvalidSeq):
		return NewError(CodeInvalidSequence, name, err)
	case errors.Is(err, branch.ErrProtected):
		return NewError(CodeInvalidOperation, "branch protected: "+name, err)
	default:
		return NewError(CodeIO, "branch operation", err)
	}
}
