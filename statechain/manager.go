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

package statechain

import (
	"errors"
	"fmt"
	"sync"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/strata-db/strata/recordlog"
)

var (
	ErrNotRegistered = errors.New("statechain: not registered")
	ErrExists        = errors.New("statechain: already registered")
)

type headKey struct {
	Branch  uint64
	StateID string
}

func (k headKey) String() string { return fmt.Sprintf("%d/%s", k.Branch, k.StateID) }

// Manager owns every registered state's strategy and its per-(branch,
// state) chain head, and brokers reconstruction through a Reconstructor
// bound to the shared log.
type Manager struct {
	mu            sync.RWMutex
	registrations map[string]*Registration
	heads         map[headKey]*Head
	recon         *Reconstructor
}

// NewManager returns an empty Manager bound to log.
func NewManager(log *recordlog.Log) *Manager {
	return &Manager{
		registrations: make(map[string]*Registration),
		heads:         make(map[headKey]*Head),
		recon:         NewReconstructor(log),
	}
}

// Register adds a new state, failing ErrExists if id is already taken.
func (m *Manager) Register(reg Registration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.registrations[reg.ID]; ok {
		return fmt.Errorf("%w: %q", ErrExists, reg.ID)
	}
	cp := reg
	m.registrations[reg.ID] = &cp
	return nil
}

// Registration returns the registration for id.
func (m *Manager) Registration(id string) (*Registration, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.registrations[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotRegistered, id)
	}
	cp := *r
	return &cp, nil
}

// head returns the head for (branch, stateID), creating an empty one if
// absent. Caller must hold m.mu.
func (m *Manager) head(branch uint64, stateID string) *Head {
	k := headKey{Branch: branch, StateID: stateID}
	h, ok := m.heads[k]
	if !ok {
		h = &Head{}
		m.heads[k] = h
	}
	return h
}

// Head returns a copy of the current head for (branch, stateID).
func (m *Manager) Head(branch uint64, stateID string) Head {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.head(branch, stateID)
}

// RecordUpdate applies the §4.5.1 counter bookkeeping for a just-appended
// update at newOffset.
func (m *Manager) RecordUpdate(branch uint64, stateID string, op Operation, newOffset uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.head(branch, stateID).RecordUpdate(op, newOffset)
}

// NeedsSnapshot evaluates the snapshot policy for an AppendLog state.
func (m *Manager) NeedsSnapshot(branch uint64, stateID string, deltaEvery, fullEvery uint64) Decision {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h := m.heads[headKey{Branch: branch, StateID: stateID}]
	if h == nil {
		return DecisionNone
	}
	return NeedsSnapshot(h, deltaEvery, fullEvery)
}

// GetState reconstructs the current value of (branch, stateID).
func (m *Manager) GetState(branch uint64, stateID string) ([]byte, error) {
	m.mu.RLock()
	k := headKey{Branch: branch, StateID: stateID}
	h := m.heads[k]
	m.mu.RUnlock()
	if h == nil {
		return nil, nil
	}
	hc := *h
	return m.recon.GetState(k.String(), &hc)
}

// GetStateAt reconstructs the value as of atSequence.
func (m *Manager) GetStateAt(branch uint64, stateID string, atSequence uint64) ([]byte, error) {
	m.mu.RLock()
	k := headKey{Branch: branch, StateID: stateID}
	h := m.heads[k]
	m.mu.RUnlock()
	if h == nil {
		return nil, nil
	}
	hc := *h
	return m.recon.GetStateAt(k.String(), &hc, atSequence)
}

// GetStateTail reconstructs only the last n items of an AppendLog state.
func (m *Manager) GetStateTail(branch uint64, stateID string, n int) ([]byte, error) {
	m.mu.RLock()
	k := headKey{Branch: branch, StateID: stateID}
	h := m.heads[k]
	m.mu.RUnlock()
	if h == nil {
		return encodeArray(nil)
	}
	hc := *h
	return m.recon.GetStateTail(k.String(), &hc, n)
}

// RegisteredIDs returns every registered state id, order unspecified.
func (m *Manager) RegisteredIDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.registrations))
	for id := range m.registrations {
		out = append(out, id)
	}
	return out
}

// HeadCount returns the number of (branch, stateID) chain heads tracked.
func (m *Manager) HeadCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.heads)
}

// ItemCount returns the O(1) item-count estimate for (branch, stateID).
func (m *Manager) ItemCount(branch uint64, stateID string) uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h := m.heads[headKey{Branch: branch, StateID: stateID}]
	if h == nil {
		return 0
	}
	return h.ItemCount
}

// CopyHeadsForBranch copies every state head belonging to fromBranch into
// toBranch by value, implementing spec §3 invariant 5: a branch created
// from a parent inherits the parent's state heads at creation; subsequent
// parent updates do not propagate.
func (m *Manager) CopyHeadsForBranch(fromBranch, toBranch uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, h := range m.heads {
		if k.Branch != fromBranch {
			continue
		}
		cp := *h
		m.heads[headKey{Branch: toBranch, StateID: k.StateID}] = &cp
	}
}

// persistedManager is the msgpack-encoded body of state.bin.
type persistedManager struct {
	Registrations []Registration
	Heads         []persistedHead
}

type persistedHead struct {
	Branch  uint64
	StateID string
	Head    Head
}

// Marshal encodes every registration and head, for the magic-prefixed
// state.bin body (magic 'STI\0', version, msgpack body).
func (m *Manager) Marshal() ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var p persistedManager
	for _, r := range m.registrations {
		p.Registrations = append(p.Registrations, *r)
	}
	for k, h := range m.heads {
		p.Heads = append(p.Heads, persistedHead{Branch: k.Branch, StateID: k.StateID, Head: *h})
	}

	body, err := msgpack.Marshal(p)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, 4+1+len(body))
	copy(buf, []byte{'S', 'T', 'I', 0})
	buf[4] = 1
	copy(buf[5:], body)
	return buf, nil
}

// LoadManager decodes a state.bin image produced by Marshal, binding it to
// log for subsequent reconstruction.
func LoadManager(buf []byte, log *recordlog.Log) (*Manager, error) {
	if len(buf) < 5 {
		return nil, fmt.Errorf("statechain: short table")
	}
	if buf[0] != 'S' || buf[1] != 'T' || buf[2] != 'I' || buf[3] != 0 {
		return nil, fmt.Errorf("statechain: bad magic")
	}
	body := buf[5:]

	var p persistedManager
	if err := msgpack.Unmarshal(body, &p); err != nil {
		return nil, err
	}

	m := NewManager(log)
	for i := range p.Registrations {
		r := p.Registrations[i]
		m.registrations[r.ID] = &r
	}
	for i := range p.Heads {
		ph := p.Heads[i]
		h := ph.Head
		m.heads[headKey{Branch: ph.Branch, StateID: ph.StateID}] = &h
	}
	return m, nil
}
