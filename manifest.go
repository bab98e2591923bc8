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

import "os"

var manifestMagic = [4]byte{'R', 'S', 'T', 0}

const manifestVersion = 1
const manifestFileName = "MANIFEST"

// writeManifest writes a fresh MANIFEST file, grounded on
// freezer_table.go's fixed-size binary header idiom.
func writeManifest(path string) error {
	buf := []byte{manifestMagic[0], manifestMagic[1], manifestMagic[2], manifestMagic[3], manifestVersion}
	return os.WriteFile(path, buf, 0644)
}

// verifyManifest checks an existing MANIFEST's magic and version.
func verifyManifest(path string) error {
	buf, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if len(buf) < 5 {
		return NewError(CodeInvalidFormat, "manifest too short", nil)
	}
	if buf[0] != manifestMagic[0] || buf[1] != manifestMagic[1] || buf[2] != manifestMagic[2] || buf[3] != manifestMagic[3] {
		return NewError(CodeInvalidFormat, "manifest bad magic", nil)
	}
	if buf[4] != manifestVersion {
		return NewError(CodeInvalidFormat, "manifest unsupported version", nil)
	}
	return nil
}
