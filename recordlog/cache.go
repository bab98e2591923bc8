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

import (
	"encoding/binary"

	"github.com/VictoriaMetrics/fastcache"
)

// Cache is a small wrapper around fastcache keyed by frame offset, used to
// skip the re-read of hot frames (recently appended, or repeatedly
// reconstructed during state-chain walks). It holds raw, already-framed
// bytes rather than decoded Entry values, the same division fastcache's own
// users favor to keep the cache GC-free.
type Cache struct {
	fc *fastcache.Cache
}

func newCache(maxBytes int) *Cache {
	return &Cache{fc: fastcache.New(maxBytes)}
}

func offsetKey(offset uint64) []byte {
	var k [8]byte
	binary.LittleEndian.PutUint64(k[:], offset)
	return k[:]
}

func (c *Cache) get(offset uint64) ([]byte, bool) {
	if c == nil || c.fc == nil {
		return nil, false
	}
	buf, ok := c.fc.HasGet(nil, offsetKey(offset))
	if !ok {
		return nil, false
	}
	return buf, true
}

func (c *Cache) set(offset uint64, buf []byte) {
	if c == nil || c.fc == nil {
		return
	}
	c.fc.Set(offsetKey(offset), buf)
}

// Reset drops all cached frames.
func (c *Cache) Reset() {
	if c == nil || c.fc == nil {
		return
	}
	c.fc.Reset()
}
