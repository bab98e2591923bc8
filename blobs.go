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

	"github.com/strata-db/strata/blobstore"
	"github.com/strata-db/strata/wal"
)

// StoreBlob idempotently stores content, returning its content hash.
func (s *Store) StoreBlob(content []byte, contentType string) (Hash, error) {
	seq, err := s.walLog(wal.OpStoreBlob, walStoreBlobDetail{Content: content, ContentType: contentType})
	if err != nil {
		return Hash{}, err
	}
	h, err := s.blobs.Store(content, contentType)
	if err != nil {
		return Hash{}, NewError(CodeIO, "store blob", err)
	}
	if err := s.walCommit(seq); err != nil {
		return Hash{}, err
	}
	return fromBlobHash(h), nil
}

// GetBlob reads back content and its declared content type for hash.
func (s *Store) GetBlob(hash Hash) ([]byte, string, error) {
	content, ct, err := s.blobs.Get(toBlobHash(hash))
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return nil, "", blobNotFound(hash)
		}
		if errors.Is(err, blobstore.ErrHashMismatch) {
			return nil, "", NewError(CodeHashMismatch, hash.String(), err)
		}
		if errors.Is(err, blobstore.ErrChecksumMismatch) {
			return nil, "", NewError(CodeChecksumMismatch, hash.String(), err)
		}
		return nil, "", NewError(CodeIO, "get blob", err)
	}
	return content, ct, nil
}

// BlobExists reports whether a blob for hash is present.
func (s *Store) BlobExists(hash Hash) bool {
	return s.blobs.Exists(toBlobHash(hash))
}
