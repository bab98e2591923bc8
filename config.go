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

import "go.uber.org/zap"

// Config is the store's construction-time configuration (spec §6).
type Config struct {
	Path            string
	BlobCacheSize   int
	CreateIfMissing bool

	// SyncInterval is the number of appends between fsyncs; 0 defaults to 1
	// (fsync every append).
	SyncInterval uint64

	// EnableWAL turns on the optional redo log of spec §4.9.
	EnableWAL bool

	// CatchUpEventsPerSec paces subscription catch-up replay; 0 disables
	// throttling.
	CatchUpEventsPerSec int

	Logger *zap.Logger
}

func (c Config) logger() *zap.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return zap.NewNop()
}

func (c Config) syncInterval() uint64 {
	if c.SyncInterval == 0 {
		return 1
	}
	return c.SyncInterval
}

func (c Config) blobCacheSize() int {
	if c.BlobCacheSize <= 0 {
		return 512
	}
	return c.BlobCacheSize
}
