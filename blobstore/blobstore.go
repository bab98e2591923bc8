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

// Package blobstore implements the shard-directoried, content-addressed
// blob storage of spec §4.3: one file per hash, sharded by the hash's first
// byte, with a small magic-prefixed header and a CRC32 trailer.
package blobstore

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/edsrzf/mmap-go"
	lru "github.com/hashicorp/golang-lru"
)

var blobMagic = [4]byte{'B', 'L', 'B', 0}

const blobVersion = 1

// mmapThreshold is the blob file size above which Get reads via mmap instead
// of a plain read, avoiding a full in-process copy for large blobs.
const mmapThreshold = 64 * 1024

var (
	// ErrNotFound is returned when no blob exists for a hash.
	ErrNotFound = errors.New("blobstore: not found")
	// ErrHashMismatch is returned when a blob file's content does not hash
	// to the name under which it was stored.
	ErrHashMismatch = errors.New("blobstore: hash mismatch")
	// ErrChecksumMismatch is returned when a blob file's CRC32 trailer does
	// not match its content.
	ErrChecksumMismatch = errors.New("blobstore: checksum mismatch")
	// ErrInvalidFormat is returned on a bad magic/version in a blob file.
	ErrInvalidFormat = errors.New("blobstore: invalid format")
)

// Hash is a 32-byte SHA-256 content digest.
type Hash [32]byte

func (h Hash) String() string  { return hex.EncodeToString(h[:]) }
func (h Hash) shardDir() string { return hex.EncodeToString(h[:1]) }

// cached is the hot-read cache value: content plus its declared content
// type, so a cache hit doesn't lose information a cache miss would return.
type cached struct {
	content     []byte
	contentType string
}

// Store is a sharded, content-addressed filesystem blob store, grounded on
// the Database wrapper shape of ethdb/relaydb's Get/Put/Has/Delete surface,
// generalized from an in-memory map to hash-addressed files, and on
// freezer_table.go's shard-file lookup pattern.
type Store struct {
	mu   sync.RWMutex
	root string
	lru  *lru.Cache // hash hex -> cached, bounded hot-read cache
}

// Open creates root if missing and returns a Store whose hot-read cache
// holds up to cacheSize entries.
func Open(root string, cacheSize int) (*Store, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, err
	}
	if cacheSize <= 0 {
		cacheSize = 256
	}
	c, err := lru.New(cacheSize)
	if err != nil {
		return nil, err
	}
	return &Store{root: root, lru: c}, nil
}

func (s *Store) pathFor(h Hash) string {
	return filepath.Join(s.root, h.shardDir(), h.String())
}

// Store writes content under its SHA-256 hash, idempotently: if the file
// already exists, it is not rewritten.
func (s *Store) Store(content []byte, contentType string) (Hash, error) {
	h := sha256.Sum256(content)
	hash := Hash(h)

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.pathFor(hash)
	if _, err := os.Stat(path); err == nil {
		return hash, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return Hash{}, err
	}

	buf := marshalBlob(contentType, content)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf, 0644); err != nil {
		return Hash{}, err
	}
	if err := os.Rename(tmp, path); err != nil {
		return Hash{}, err
	}
	s.lru.Add(hash.String(), cached{content: content, contentType: contentType})
	return hash, nil
}

// Get reads back content for hash, verifying both the CRC32 trailer and
// that the content's own hash equals hash.
func (s *Store) Get(hash Hash) ([]byte, string, error) {
	if v, ok := s.lru.Get(hash.String()); ok {
		c := v.(cached)
		return c.content, c.contentType, nil
	}

	s.mu.RLock()
	path := s.pathFor(hash)
	s.mu.RUnlock()

	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, "", ErrNotFound
	}
	if err != nil {
		return nil, "", err
	}

	var raw []byte
	if info.Size() > mmapThreshold {
		raw, err = readViaMmap(path)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, "", err
	}

	contentType, content, err := unmarshalBlob(raw)
	if err != nil {
		return nil, "", err
	}
	got := sha256.Sum256(content)
	if Hash(got) != hash {
		return nil, "", ErrHashMismatch
	}
	s.lru.Add(hash.String(), cached{content: content, contentType: contentType})
	return content, contentType, nil
}

// readViaMmap reads file content through a read-only memory mapping,
// avoiding a full heap copy for large blobs.
func readViaMmap(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, err
	}
	defer m.Unmap()

	out := make([]byte, len(m))
	copy(out, m)
	return out, nil
}

// Exists reports whether a blob for hash is present, without reading it.
func (s *Store) Exists(hash Hash) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, err := os.Stat(s.pathFor(hash))
	return err == nil
}

// Delete removes a blob file, if present.
func (s *Store) Delete(hash Hash) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lru.Remove(hash.String())
	err := os.Remove(s.pathFor(hash))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// List returns the hash of every stored blob. Order is unspecified.
func (s *Store) List() ([]Hash, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Hash
	shards, err := os.ReadDir(s.root)
	if err != nil {
		return nil, err
	}
	for _, shard := range shards {
		if !shard.IsDir() {
			continue
		}
		entries, err := os.ReadDir(filepath.Join(s.root, shard.Name()))
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			b, err := hex.DecodeString(e.Name())
			if err != nil || len(b) != 32 {
				continue
			}
			var h Hash
			copy(h[:], b)
			out = append(out, h)
		}
	}
	return out, nil
}

// TotalSize sums the on-disk size of every stored blob.
func (s *Store) TotalSize() (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total int64
	shards, err := os.ReadDir(s.root)
	if err != nil {
		return 0, err
	}
	for _, shard := range shards {
		if !shard.IsDir() {
			continue
		}
		entries, err := os.ReadDir(filepath.Join(s.root, shard.Name()))
		if err != nil {
			return 0, err
		}
		for _, e := range entries {
			info, err := e.Info()
			if err != nil {
				continue
			}
			total += info.Size()
		}
	}
	return total, nil
}

// Count returns the number of stored blobs.
func (s *Store) Count() (int, error) {
	hs, err := s.List()
	if err != nil {
		return 0, err
	}
	return len(hs), nil
}

// marshalBlob builds the on-disk frame: magic, version, ct_len(u16),
// ct bytes, content_len(u64), content, crc32.
func marshalBlob(contentType string, content []byte) []byte {
	size := 4 + 1 + 2 + len(contentType) + 8 + len(content) + 4
	buf := make([]byte, size)
	off := 0
	copy(buf[off:], blobMagic[:])
	off += 4
	buf[off] = blobVersion
	off++
	binary.LittleEndian.PutUint16(buf[off:], uint16(len(contentType)))
	off += 2
	copy(buf[off:], contentType)
	off += len(contentType)
	binary.LittleEndian.PutUint64(buf[off:], uint64(len(content)))
	off += 8
	copy(buf[off:], content)
	off += len(content)
	crc := crc32.ChecksumIEEE(content)
	binary.LittleEndian.PutUint32(buf[off:], crc)
	return buf
}

func unmarshalBlob(buf []byte) (contentType string, content []byte, err error) {
	if len(buf) < 4+1+2 {
		return "", nil, io.ErrUnexpectedEOF
	}
	off := 0
	if buf[0] != blobMagic[0] || buf[1] != blobMagic[1] || buf[2] != blobMagic[2] || buf[3] != blobMagic[3] {
		return "", nil, ErrInvalidFormat
	}
	off += 4
	if buf[off] != blobVersion {
		return "", nil, ErrInvalidFormat
	}
	off++
	ctLen := int(binary.LittleEndian.Uint16(buf[off:]))
	off += 2
	if off+ctLen+8 > len(buf) {
		return "", nil, io.ErrUnexpectedEOF
	}
	contentType = string(buf[off : off+ctLen])
	off += ctLen
	contentLen := int(binary.LittleEndian.Uint64(buf[off:]))
	off += 8
	if off+contentLen+4 > len(buf) {
		return "", nil, io.ErrUnexpectedEOF
	}
	content = append([]byte(nil), buf[off:off+contentLen]...)
	off += contentLen
	storedCRC := binary.LittleEndian.Uint32(buf[off:])
	if crc32.ChecksumIEEE(content) != storedCRC {
		return "", nil, ErrChecksumMismatch
	}
	return contentType, content, nil
}
