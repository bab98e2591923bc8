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

package recordlog

import "errors"

var (
	errShortRead  = errors.New("recordlog: short read")
	errBadMagic   = errors.New("recordlog: bad magic")
	errBadVersion = errors.New("recordlog: unsupported version")
	// ErrChecksumMismatch is returned by ReadAt when the stored CRC32 of the
	// payload disagrees with the recomputed one (spec §4.1).
	ErrChecksumMismatch = errors.New("recordlog: checksum mismatch")
	// ErrInvalidFormat is returned by ReadAt on magic/version mismatch.
	ErrInvalidFormat = errors.New("recordlog: invalid format")
	// ErrClosed is returned by operations on a log that has been closed.
	ErrClosed = errors.New("recordlog: closed")
)
