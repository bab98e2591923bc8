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

// Package branch implements the named, copy-on-write branch model of spec
// §4.4: branches share a common prefix with their parent up to a
// branch_point sequence, tracked the way core/headerdb.go tracks multiple
// chain tips rather than as distinct copied histories.
package branch

import (
	"errors"
	"fmt"
	"sync"
	"time"

	mapset "github.com/deckarep/golang-set"
	"github.com/vmihailenco/msgpack/v5"
)

// MainID is the reserved, un-deletable root branch id.
const MainID uint64 = 1

// MainName is the reserved root branch's name.
const MainName = "main"

var (
	ErrNotFound       = errors.New("branch: not found")
	ErrExists         = errors.New("branch: already exists")
	ErrInvalidSeq     = errors.New("branch: invalid sequence")
	ErrProtected      = errors.New("branch: protected (main or current)")
	ErrCorruptAncestry = errors.New("branch: ancestry cycle detected")
)

// Branch is one named history, sharing a prefix with Parent up to
// BranchPoint.
type Branch struct {
	ID          uint64
	Name        string
	Head        uint64
	Parent      uint64 // 0 means no parent (only MainID)
	HasParent   bool
	BranchPoint uint64
	HasBranchPoint bool
	Created     int64 // microseconds since Unix epoch
}

// Manager owns the branch table: the set of branches, the current
// selection, and persistence. Grounded on core/headerdb.go's multi-tip
// tracking (heads []*hdrInfo, getHeader, extend), generalized from
// "chain tips by total difficulty" to "named branches by parent pointer".
type Manager struct {
	mu      sync.RWMutex
	byID    map[uint64]*Branch
	byName  map[string]uint64
	current uint64
	nextID  uint64
}

// New returns a Manager seeded with only the reserved "main" branch,
// selected as current.
func New() *Manager {
	main := &Branch{
		ID:      MainID,
		Name:    MainName,
		Head:    0,
		Created: time.Now().UnixMicro(),
	}
	return &Manager{
		byID:    map[uint64]*Branch{MainID: main},
		byName:  map[string]uint64{MainName: MainID},
		current: MainID,
		nextID:  MainID + 1,
	}
}

// Get returns the branch named name.
func (m *Manager) Get(name string) (*Branch, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	cp := *m.byID[id]
	return &cp, nil
}

// GetByID returns the branch with the given id.
func (m *Manager) GetByID(id uint64) (*Branch, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	cp := *b
	return &cp, nil
}

// List returns every branch, order unspecified.
func (m *Manager) List() []*Branch {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Branch, 0, len(m.byID))
	for _, b := range m.byID {
		cp := *b
		out = append(out, &cp)
	}
	return out
}

// Current returns the currently selected branch's name.
func (m *Manager) Current() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.byID[m.current].Name
}

// CurrentID returns the currently selected branch's id.
func (m *Manager) CurrentID() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Create forks a new branch named name from the branch "from" (or main, if
// from is empty), at the parent's current head.
func (m *Manager) Create(name, from string) (*Branch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createAtLocked(name, from, nil)
}

// CreateAt forks name from the branch "from" at a specific ancestor
// sequence, failing InvalidSequence if at exceeds the parent's head.
func (m *Manager) CreateAt(name, from string, at uint64) (*Branch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createAtLocked(name, from, &at)
}

// CreateEmpty forks name from "from" with no shared prefix — a detached
// branch point at sequence 0, used for time-travel branching where the
// caller does not want the parent's existing history implied.
func (m *Manager) CreateEmpty(name, from string) (*Branch, error) {
	zero := uint64(0)
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createAtLocked(name, from, &zero)
}

func (m *Manager) createAtLocked(name, from string, at *uint64) (*Branch, error) {
	if _, exists := m.byName[name]; exists {
		return nil, fmt.Errorf("%w: %q", ErrExists, name)
	}
	if from == "" {
		from = MainName
	}
	parentID, ok := m.byName[from]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, from)
	}
	parent := m.byID[parentID]

	branchPoint := parent.Head
	if at != nil {
		if *at > parent.Head {
			return nil, fmt.Errorf("%w: %d > parent head %d", ErrInvalidSeq, *at, parent.Head)
		}
		branchPoint = *at
	}

	b := &Branch{
		ID:             m.nextID,
		Name:           name,
		Head:           branchPoint,
		Parent:         parentID,
		HasParent:      true,
		BranchPoint:    branchPoint,
		HasBranchPoint: true,
		Created:        time.Now().UnixMicro(),
	}
	m.byID[b.ID] = b
	m.byName[name] = b.ID
	m.nextID++

	cp := *b
	return &cp, nil
}

// Switch changes the current branch selection.
func (m *Manager) Switch(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byName[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	m.current = id
	return nil
}

// UpdateHead advances a branch's head to newHead.
func (m *Manager) UpdateHead(id uint64, newHead uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.byID[id]
	if !ok {
		return fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	b.Head = newHead
	return nil
}

// Delete removes a branch. Deleting "main" or the current branch is
// refused regardless of force — callers wanting to delete the current
// branch must Switch away first.
func (m *Manager) Delete(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byName[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	if id == MainID || id == m.current {
		return ErrProtected
	}
	delete(m.byID, id)
	delete(m.byName, name)
	return nil
}

// DeleteWithReparent removes a branch, re-binding any children's Parent
// pointer to newParent (or orphaning them, if newParent is nil).
func (m *Manager) DeleteWithReparent(name string, newParent *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.byName[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	if id == MainID || id == m.current {
		return ErrProtected
	}

	var newParentID uint64
	var hasNewParent bool
	if newParent != nil {
		npID, ok := m.byName[*newParent]
		if !ok {
			return fmt.Errorf("%w: %q", ErrNotFound, *newParent)
		}
		newParentID = npID
		hasNewParent = true
	}

	for _, b := range m.byID {
		if b.Parent == id && b.HasParent {
			if hasNewParent {
				b.Parent = newParentID
				b.HasParent = true
			} else {
				b.HasParent = false
				b.Parent = 0
			}
		}
	}

	delete(m.byID, id)
	delete(m.byName, name)
	return nil
}

// Ancestry returns [name, parent, grandparent, ..., root]. The walk is
// bounded at len(branches)+1 steps; exceeding that bound means a corrupted
// parent cycle, surfaced as ErrCorruptAncestry rather than looping forever
// (mirrors the original store's own cycle guard on branch ancestry).
func (m *Manager) Ancestry(name string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}

	limit := len(m.byID) + 1
	var out []string
	cur := id
	for i := 0; i < limit; i++ {
		b, ok := m.byID[cur]
		if !ok {
			return nil, ErrCorruptAncestry
		}
		out = append(out, b.Name)
		if !b.HasParent {
			return out, nil
		}
		cur = b.Parent
	}
	return nil, ErrCorruptAncestry
}

// GCOptions controls which non-protected branches GC considers for removal.
type GCOptions struct {
	Orphaned          bool
	Empty             bool
	StaleOlderThan    *int64 // microseconds since Unix epoch
	NamePatternContains string
	Force             bool
	ReparentTo        *string
}

// GC deletes branches matching the enabled criteria in opts. "main" and the
// current branch are never removed: Force only admits the current branch as
// a candidate, and DeleteWithReparent's refusal of it is skipped. It
// returns the names of the branches removed.
func (m *Manager) GC(opts GCOptions) ([]string, error) {
	m.mu.RLock()
	candidates := mapset.NewThreadUnsafeSet()
	for _, b := range m.byID {
		if b.ID == MainID {
			continue
		}
		if b.ID == m.current && !opts.Force {
			continue
		}

		matched := false
		if opts.Orphaned {
			if b.HasParent {
				if _, ok := m.byID[b.Parent]; !ok {
					matched = true
				}
			}
		}
		if opts.Empty && b.HasBranchPoint && b.Head == b.BranchPoint {
			matched = true
		}
		if opts.StaleOlderThan != nil && b.Created < *opts.StaleOlderThan {
			matched = true
		}
		if opts.NamePatternContains != "" && containsSubstring(b.Name, opts.NamePatternContains) {
			matched = true
		}
		if matched {
			candidates.Add(b.Name)
		}
	}
	m.mu.RUnlock()

	var removed []string
	for _, v := range candidates.ToSlice() {
		name := v.(string)
		if err := m.DeleteWithReparent(name, opts.ReparentTo); err != nil {
			if errors.Is(err, ErrProtected) {
				continue
			}
			return removed, err
		}
		removed = append(removed, name)
	}
	return removed, nil
}

func containsSubstring(s, substr string) bool {
	return len(substr) == 0 || indexOf(s, substr) >= 0
}

func indexOf(s, substr string) int {
	n, m := len(s), len(substr)
	if m > n {
		return -1
	}
	for i := 0; i+m <= n; i++ {
		if s[i:i+m] == substr {
			return i
		}
	}
	return -1
}

// persistedTable is the msgpack-encoded body of branches.bin.
type persistedTable struct {
	Current  uint64
	NextID   uint64
	Branches []Branch
}

// Marshal encodes the branch table as the magic-prefixed, length-prefixed
// msgpack body described in spec §6 (magic 'BRI\0', version, current id,
// length, msgpack bytes).
func (m *Manager) Marshal() ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t := persistedTable{Current: m.current, NextID: m.nextID}
	for _, b := range m.byID {
		t.Branches = append(t.Branches, *b)
	}
	body, err := msgpack.Marshal(t)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, 4+1+8+4+len(body))
	off := 0
	copy(buf[off:], []byte{'B', 'R', 'I', 0})
	off += 4
	buf[off] = 1
	off++
	putUint64(buf[off:], m.current)
	off += 8
	putUint32(buf[off:], uint32(len(body)))
	off += 4
	copy(buf[off:], body)
	return buf, nil
}

// Load decodes a branches.bin image produced by Marshal.
func Load(buf []byte) (*Manager, error) {
	if len(buf) < 4+1+8+4 {
		return nil, fmt.Errorf("branch: short table")
	}
	if buf[0] != 'B' || buf[1] != 'R' || buf[2] != 'I' || buf[3] != 0 {
		return nil, fmt.Errorf("branch: bad magic")
	}
	off := 4
	version := buf[off]
	off++
	_ = version
	off += 8 // current id duplicated inside the msgpack body; header copy is advisory
	bodyLen := getUint32(buf[off:])
	off += 4
	if off+int(bodyLen) > len(buf) {
		return nil, fmt.Errorf("branch: truncated table")
	}
	body := buf[off : off+int(bodyLen)]

	var t persistedTable
	if err := msgpack.Unmarshal(body, &t); err != nil {
		return nil, err
	}

	m := &Manager{
		byID:    make(map[uint64]*Branch),
		byName:  make(map[string]uint64),
		current: t.Current,
		nextID:  t.NextID,
	}
	for i := range t.Branches {
		b := t.Branches[i]
		m.byID[b.ID] = &b
		m.byName[b.Name] = b.ID
	}
	if _, ok := m.byID[MainID]; !ok {
		return nil, fmt.Errorf("branch: missing main branch")
	}
	return m, nil
}

func putUint64(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
}

func putUint32(b []byte, v uint32) {
	for i := 0; i < 4; i++ {
		b[i] = byte(v >> (8 * i))
	}
}

func getUint32(b []byte) uint32 {
	var v uint32
	for i := 0; i < 4; i++ {
		v |= uint32(b[i]) << (8 * i)
	}
	return v
}
