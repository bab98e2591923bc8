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

import "github.com/fjl/memsize"

// StoreStats is the cheap, always-available snapshot returned by Stats.
type StoreStats struct {
	Records           uint64
	Branches          int
	StateHeads        int
	BlobBytes         int64
	BlobCount         int
	LogBytes          uint64
	SubscriptionCount int
}

// Stats reports cheap, O(1)-or-O(branches) counters: record/log size from
// the log cursor, branch and state-head counts from their managers, blob
// totals from a directory walk, and live subscription count.
func (s *Store) Stats() (StoreStats, error) {
	blobBytes, err := s.blobs.TotalSize()
	if err != nil {
		return StoreStats{}, NewError(CodeIO, "blob total size", err)
	}
	blobCount, err := s.blobs.Count()
	if err != nil {
		return StoreStats{}, NewError(CodeIO, "blob count", err)
	}

	return StoreStats{
		Records:           s.log.MaxID(),
		Branches:          len(s.branches.List()),
		StateHeads:        s.stateHeadCount(),
		BlobBytes:         blobBytes,
		BlobCount:         blobCount,
		LogBytes:          s.log.Size(),
		SubscriptionCount: s.bus.Count(),
	}, nil
}

// DeepStats additionally reports the in-process memory footprint of the
// store's own structures, via fjl/memsize's reflective walker — expensive
// (it walks every map/slice reachable from the store), so it is a distinct
// call from the cheap Stats.
type DeepStoreStats struct {
	StoreStats
	MemSizeBytes uint64
}

// DeepStats augments Stats with a memsize.Scan of the store itself.
func (s *Store) DeepStats() (DeepStoreStats, error) {
	base, err := s.Stats()
	if err != nil {
		return DeepStoreStats{}, err
	}
	report := memsize.Scan(s)
	return DeepStoreStats{StoreStats: base, MemSizeBytes: report.Total}, nil
}

func (s *Store) stateHeadCount() int {
	return s.states.HeadCount()
}
