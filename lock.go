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
	"path/filepath"

	"github.com/gofrs/flock"
)

const lockFileName = "LOCK"

// acquireLock takes the process-wide exclusive lock on the store directory
// described in spec §5 "process-wide exclusive file lock for the entire
// store directory (fail Locked if taken)". It fences other processes, not
// other goroutines within this one — the write latch handles that.
func acquireLock(dir string) (*flock.Flock, error) {
	fl := flock.New(filepath.Join(dir, lockFileName))
	ok, err := fl.TryLock()
	if err != nil {
		return nil, NewError(CodeIO, "acquire lock", err)
	}
	if !ok {
		return nil, NewError(CodeLocked, dir, nil)
	}
	return fl, nil
}

func releaseLock(fl *flock.Flock) error {
	if fl == nil {
		return nil
	}
	return fl.Unlock()
}
