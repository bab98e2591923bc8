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

// Package config loads a File{} from a TOML file on disk, the same
// naoina/toml-based convention cmd/geth uses for its config file: keys are
// the lowercased Go field names (matched case-insensitively on load), and
// unknown keys are ignored silently rather than failing, so old config
// files keep working against new fields.
package config

import (
	"io"
	"os"
	"reflect"
	"strings"

	"github.com/naoina/toml"
)

// File is the on-disk configuration shape, written and read as TOML.
type File struct {
	Path            string
	BlobCacheSize   int
	CreateIfMissing bool
	SyncInterval    uint64
	EnableWAL       bool
	CatchUpEventsPerSec int
}

var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string {
		return strings.ToLower(key)
	},
	FieldToKey: func(rt reflect.Type, field string) string {
		return strings.ToLower(field)
	},
	MissingField: func(rt reflect.Type, field string) error {
		return nil // unknown keys are ignored, not fatal, across versions
	},
}

// Load reads and decodes a File from path.
func Load(path string) (File, error) {
	f, err := os.Open(path)
	if err != nil {
		return File{}, err
	}
	defer f.Close()
	return decode(f)
}

func decode(r io.Reader) (File, error) {
	var cfg File
	if err := tomlSettings.NewDecoder(r).Decode(&cfg); err != nil {
		return File{}, err
	}
	return cfg, nil
}

// Save writes cfg to path as TOML, creating or truncating the file.
func Save(path string, cfg File) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return tomlSettings.NewEncoder(f).Encode(cfg)
}
