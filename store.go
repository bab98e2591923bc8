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

// Package strata is the store facade of spec §4.6: a single write latch
// coordinating the record log, its derived index, the blob store, the
// branch manager, the state manager, the subscription bus, and the
// optional WAL. Grounded on core/headerdb.go's role as the one type that
// owns every in-memory map and the underlying database handle, generalized
// from "canonical chain of headers" to "everything a strata store owns".
package strata

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"go.uber.org/zap"

	"github.com/strata-db/strata/blobstore"
	"github.com/strata-db/strata/branch"
	"github.com/strata-db/strata/feed"
	"github.com/strata-db/strata/recindex"
	"github.com/strata-db/strata/recordlog"
	"github.com/strata-db/strata/statechain"
	"github.com/strata-db/strata/wal"
)

const (
	recordsLogName  = "records.log"
	stateFileName   = "state.bin"
	branchesFileName = "branches.bin"
	blobsDirName    = "blobs"
	walFileName     = "wal.bin"
)

// Store is the open handle to a strata store directory.
type Store struct {
	mu sync.Mutex // write latch (spec §4.6 "single write latch serializes writes")

	dir    string
	cfg    Config
	logger *zap.Logger
	lock   *flock.Flock

	log      *recordlog.Log
	index    *recindex.Index
	blobs    *blobstore.Store
	branches *branch.Manager
	states   *statechain.Manager
	bus      *feed.Bus
	wal      *wal.WAL

	nextRecordID uint64
}

func (s *Store) now() int64 { return time.Now().UnixMicro() }

func (s *Store) allocRecordID() uint64 {
	s.nextRecordID++
	return s.nextRecordID
}

// Create initializes a fresh store directory, failing if one already
// exists there (a MANIFEST file is present).
func Create(cfg Config) (*Store, error) {
	manifestPath := filepath.Join(cfg.Path, manifestFileName)
	if _, err := os.Stat(manifestPath); err == nil {
		return nil, NewError(CodeIO, "store already exists", nil)
	}
	return openOrCreate(cfg, true)
}

// Open attaches to an existing store directory, failing NotInitialized if
// no MANIFEST is present.
func Open(cfg Config) (*Store, error) {
	manifestPath := filepath.Join(cfg.Path, manifestFileName)
	if _, err := os.Stat(manifestPath); err != nil {
		return nil, NewError(CodeNotInitialized, cfg.Path, nil)
	}
	return openOrCreate(cfg, false)
}

// OpenOrCreate attaches to cfg.Path, creating it first if cfg.CreateIfMissing
// is set and nothing exists there yet.
func OpenOrCreate(cfg Config) (*Store, error) {
	manifestPath := filepath.Join(cfg.Path, manifestFileName)
	exists := true
	if _, err := os.Stat(manifestPath); err != nil {
		exists = false
	}
	if !exists && !cfg.CreateIfMissing {
		return nil, NewError(CodeNotInitialized, cfg.Path, nil)
	}
	return openOrCreate(cfg, !exists)
}

// openOrCreate is the shared implementation behind Create/Open/OpenOrCreate,
// sequenced the way freezer_table.go sequences its own open/repair: acquire
// the lock, then the manifest, then attach the log, then rebuild everything
// derived from it.
func openOrCreate(cfg Config, fresh bool) (*Store, error) {
	logger := cfg.logger()

	if err := os.MkdirAll(cfg.Path, 0755); err != nil {
		return nil, NewError(CodeIO, "mkdir store dir", err)
	}

	fl, err := acquireLock(cfg.Path)
	if err != nil {
		return nil, err
	}
	ok := false
	defer func() {
		if !ok {
			releaseLock(fl)
		}
	}()

	manifestPath := filepath.Join(cfg.Path, manifestFileName)
	if fresh {
		if err := writeManifest(manifestPath); err != nil {
			return nil, NewError(CodeIO, "write manifest", err)
		}
	} else {
		if err := verifyManifest(manifestPath); err != nil {
			return nil, err
		}
	}

	log, err := recordlog.Open(filepath.Join(cfg.Path, recordsLogName), cfg.syncInterval(), logger)
	if err != nil {
		return nil, NewError(CodeIO, "open record log", err)
	}

	index := recindex.New()
	if err := index.Rebuild(log); err != nil {
		log.Close()
		return nil, NewError(CodeCorruption, "rebuild index", err)
	}

	blobs, err := blobstore.Open(filepath.Join(cfg.Path, blobsDirName), cfg.blobCacheSize())
	if err != nil {
		log.Close()
		return nil, NewError(CodeIO, "open blob store", err)
	}

	branches, err := loadOrNewBranches(filepath.Join(cfg.Path, branchesFileName))
	if err != nil {
		log.Close()
		return nil, err
	}

	states, err := loadOrNewStates(filepath.Join(cfg.Path, stateFileName), log)
	if err != nil {
		log.Close()
		return nil, err
	}

	s := &Store{
		dir:          cfg.Path,
		cfg:          cfg,
		logger:       logger,
		lock:         fl,
		log:          log,
		index:        index,
		blobs:        blobs,
		branches:     branches,
		states:       states,
		bus:          feed.NewBus(cfg.CatchUpEventsPerSec),
		nextRecordID: log.MaxID(),
	}

	if cfg.EnableWAL {
		w, err := wal.Open(filepath.Join(cfg.Path, walFileName))
		if err != nil {
			log.Close()
			return nil, NewError(CodeIO, "open wal", err)
		}
		s.wal = w
		if err := s.replayPendingWAL(); err != nil {
			log.Close()
			return nil, err
		}
	}

	ok = true
	return s, nil
}

func loadOrNewBranches(path string) (*branch.Manager, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return branch.New(), nil
		}
		return nil, NewError(CodeIO, "read branches table", err)
	}
	m, err := branch.Load(buf)
	if err != nil {
		return nil, NewError(CodeCorruption, "load branches table", err)
	}
	return m, nil
}

func loadOrNewStates(path string, log *recordlog.Log) (*statechain.Manager, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return statechain.NewManager(log), nil
		}
		return nil, NewError(CodeIO, "read state table", err)
	}
	m, err := statechain.LoadManager(buf, log)
	if err != nil {
		return nil, NewError(CodeCorruption, "load state table", err)
	}
	return m, nil
}

// persist writes the branch table and state table to disk. It does not
// sync the record log; call Sync for that.
func (s *Store) persist() error {
	bbuf, err := s.branches.Marshal()
	if err != nil {
		return NewError(CodeSerialization, "marshal branches", err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, branchesFileName), bbuf, 0644); err != nil {
		return NewError(CodeIO, "write branches table", err)
	}

	sbuf, err := s.states.Marshal()
	if err != nil {
		return NewError(CodeSerialization, "marshal state table", err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, stateFileName), sbuf, 0644); err != nil {
		return NewError(CodeIO, "write state table", err)
	}
	return nil
}

// Sync flushes and fsyncs the record log, then persists the branch and
// state tables (spec §5 "sync is attempted best-effort on drop").
func (s *Store) Sync() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.log.Sync(); err != nil {
		return NewError(CodeIO, "sync log", err)
	}
	return s.persist()
}

// Close persists state and releases the directory lock. A best-effort Sync
// is attempted first.
func (s *Store) Close() error {
	s.mu.Lock()
	syncErr := s.log.Sync()
	persistErr := s.persist()
	logCloseErr := s.log.Close()
	var walCloseErr error
	if s.wal != nil {
		walCloseErr = s.wal.Close()
	}
	s.mu.Unlock()

	if err := releaseLock(s.lock); err != nil {
		s.logger.Warn("release lock failed", zap.Error(err))
	}

	for _, err := range []error{syncErr, persistErr, logCloseErr, walCloseErr} {
		if err != nil {
			return NewError(CodeIO, "close store", err)
		}
	}
	return nil
}

// currentBranchLocked returns the currently selected branch, under the write
// latch (callers must already hold s.mu, or accept its value may be stale
// the instant this returns for read paths that don't hold the latch).
func (s *Store) currentBranchLocked() (*branch.Branch, error) {
	id := s.branches.CurrentID()
	b, err := s.branches.GetByID(id)
	if err != nil {
		return nil, NewError(CodeBranchNotFound, fmt.Sprintf("id %d", id), err)
	}
	return b, nil
}
