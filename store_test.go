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
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/cespare/cp"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/strata-db/strata/feed"
	"github.com/strata-db/strata/statechain"
	"github.com/strata-db/strata/wal"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Create(Config{Path: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// S1: appended records round-trip by id, type, and caused-by/linked-to
// lookup.
func TestAppendRoundTrip(t *testing.T) {
	s := openTestStore(t)

	r1, err := s.Append(RecordInput{RecordType: "order.created", Payload: []byte("a")})
	require.NoError(t, err)
	r2, err := s.Append(RecordInput{RecordType: "order.shipped", Payload: []byte("b"), CausedBy: []RecordID{r1.ID}})
	require.NoError(t, err)

	got, err := s.GetRecord(r2.ID)
	require.NoError(t, err)
	require.Equal(t, r2.ID, got.ID)
	require.Equal(t, []byte("b"), got.Payload)

	byType, err := s.GetRecordsByType("order.created")
	require.NoError(t, err)
	require.Len(t, byType, 1)
	require.Equal(t, r1.ID, byType[0].ID)

	effects, err := s.GetEffects(r1.ID)
	require.NoError(t, err)
	require.Len(t, effects, 1)
	require.Equal(t, r2.ID, effects[0].ID)

	causes, err := s.GetLinksTo(r2.ID)
	require.NoError(t, err)
	require.Empty(t, causes) // GetLinksTo looks at linked_to, not caused_by

	it := s.IterFrom(1)
	var seqs []Sequence
	for it.Next() {
		seqs = append(seqs, it.Record().Sequence)
	}
	require.NoError(t, it.Err())
	require.Equal(t, []Sequence{1, 2}, seqs)
}

// S2: an AppendLog state auto-snapshots once the delta threshold is
// crossed, and the reconstructed value stays correct across the boundary.
func TestAppendLogAutoSnapshot(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.RegisterState(statechain.Registration{
		ID: "feed:items",
		Strategy: statechain.Strategy{
			Kind:               statechain.StrategyAppendLog,
			DeltaSnapshotEvery: 2,
		},
	}))

	for i := 0; i < 5; i++ {
		item := []byte(fmt.Sprintf(`{"n":%d}`, i))
		_, err := s.UpdateState("feed:items", statechain.Operation{Kind: statechain.OpAppend, Value: item})
		require.NoError(t, err)
	}

	v, err := s.GetState("feed:items")
	require.NoError(t, err)
	require.JSONEq(t, `[{"n":0},{"n":1},{"n":2},{"n":3},{"n":4}]`, string(v))
	require.Equal(t, uint64(5), s.GetStateLen("feed:items"))

	tail, err := s.GetStateTail("feed:items", 2)
	require.NoError(t, err)
	require.JSONEq(t, `[{"n":3},{"n":4}]`, string(tail))
}

// S3: OpRedact removes items from a Snapshot/AppendLog state's array value.
func TestRedact(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.RegisterState(statechain.Registration{
		ID:       "log:entries",
		Strategy: statechain.Strategy{Kind: statechain.StrategyAppendLog},
	}))

	for i := 0; i < 4; i++ {
		_, err := s.UpdateState("log:entries", statechain.Operation{
			Kind: statechain.OpAppend, Value: []byte(fmt.Sprintf("%d", i)),
		})
		require.NoError(t, err)
	}
	_, err := s.UpdateState("log:entries", statechain.Operation{Kind: statechain.OpRedact, Start: 1, End: 3})
	require.NoError(t, err)

	v, err := s.GetState("log:entries")
	require.NoError(t, err)
	require.JSONEq(t, `[0,3]`, string(v))
}

// S4: a branch created from main is fully isolated — subsequent writes on
// either branch never leak across.
func TestBranchIsolation(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.RegisterState(statechain.Registration{
		ID:       "counter",
		Strategy: statechain.Strategy{Kind: statechain.StrategySnapshot},
	}))
	_, err := s.UpdateState("counter", statechain.Operation{Kind: statechain.OpSet, Value: []byte("1")})
	require.NoError(t, err)

	info, err := s.CreateBranch("feature", "main")
	require.NoError(t, err)
	require.Equal(t, "feature", info.Name)

	require.NoError(t, s.SwitchBranch("feature"))
	_, err = s.UpdateState("counter", statechain.Operation{Kind: statechain.OpSet, Value: []byte("2")})
	require.NoError(t, err)
	_, err = s.Append(RecordInput{RecordType: "only.on.feature"})
	require.NoError(t, err)

	v, err := s.GetState("counter")
	require.NoError(t, err)
	require.Equal(t, "2", string(v))

	require.NoError(t, s.SwitchBranch("main"))
	v, err = s.GetState("counter")
	require.NoError(t, err)
	require.Equal(t, "1", string(v))

	// GetRecordsByType indexes by type across all branches, so the record
	// is still visible from here — but it is tagged with the branch it was
	// actually appended on, not "main".
	recs, err := s.GetRecordsByType("only.on.feature")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.Equal(t, info.ID, recs[0].Branch)
	require.NotEqual(t, MainBranch, recs[0].Branch)
}

// S5: GetStateAt reconstructs a historical value as of an earlier
// sequence, independent of later updates.
func TestGetStateAt(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.RegisterState(statechain.Registration{
		ID:       "doc",
		Strategy: statechain.Strategy{Kind: statechain.StrategySnapshot},
	}))

	_, err := s.UpdateState("doc", statechain.Operation{Kind: statechain.OpSet, Value: []byte(`"v1"`)})
	require.NoError(t, err)
	r1, err := s.Append(RecordInput{RecordType: "marker"})
	require.NoError(t, err)
	_, err = s.UpdateState("doc", statechain.Operation{Kind: statechain.OpSet, Value: []byte(`"v2"`)})
	require.NoError(t, err)

	atV1, err := s.GetStateAt("doc", r1.Sequence)
	require.NoError(t, err)
	require.Equal(t, `"v1"`, string(atV1))

	current, err := s.GetState("doc")
	require.NoError(t, err)
	require.Equal(t, `"v2"`, string(current))
}

// S6: a store survives Close/reopen with branches, records and state all
// intact, index rebuilt from the log alone.
func TestCloseAndReopen(t *testing.T) {
	dir := t.TempDir()
	s, err := Create(Config{Path: dir})
	require.NoError(t, err)

	require.NoError(t, s.RegisterState(statechain.Registration{
		ID:       "counter",
		Strategy: statechain.Strategy{Kind: statechain.StrategyAppendLog, DeltaSnapshotEvery: 5},
	}))
	_, err = s.CreateBranch("feature", "main")
	require.NoError(t, err)

	const n = 200
	for i := 0; i < n; i++ {
		_, err := s.Append(RecordInput{RecordType: "tick", Payload: []byte(fmt.Sprintf("%d", i))})
		require.NoError(t, err)
		_, err = s.UpdateState("counter", statechain.Operation{Kind: statechain.OpAppend, Value: []byte(fmt.Sprintf("%d", i))})
		require.NoError(t, err)
	}
	require.NoError(t, s.Close())

	// Copy the closed store's directory onto a fresh path before reopening,
	// the way accountcmd_test.go's tmpDatadirWithKeystore copies a fixture
	// keystore before a command touches it — this exercises the on-disk
	// format itself rather than any state left behind in the live handle.
	copyDir := filepath.Join(t.TempDir(), "copied")
	require.NoError(t, cp.CopyAll(copyDir, dir))

	reopened, err := Open(Config{Path: copyDir})
	require.NoError(t, err)
	defer reopened.Close()

	ticks, err := reopened.GetRecordsByType("tick")
	require.NoError(t, err)
	require.Len(t, ticks, n)

	require.Equal(t, uint64(n), reopened.GetStateLen("counter"))
	require.Equal(t, []string{"main", "feature"}, branchNames(reopened.ListBranches()))
}

func branchNames(infos []BranchInfo) []string {
	var present = map[string]bool{}
	for _, b := range infos {
		present[b.Name] = true
	}
	var out []string
	for _, name := range []string{"main", "feature"} {
		if present[name] {
			out = append(out, name)
		}
	}
	return out
}

// S7: a subscription catches up on historical records then receives live
// broadcasts; a subscriber that never drains its channel gets dropped
// rather than blocking the writer.
func TestSubscriptionCatchUpThenLive(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Append(RecordInput{RecordType: "seed", Payload: []byte("1")})
	require.NoError(t, err)

	sub := s.Subscribe(feed.Filter{IncludeRecords: true}, 16, 0)
	require.NoError(t, s.CatchUpSubscription(context.Background(), sub))

	_, err = s.Append(RecordInput{RecordType: "seed", Payload: []byte("2")})
	require.NoError(t, err)

	var kinds []feed.Kind
	for i := 0; i < 3; i++ {
		e := <-sub.Events()
		kinds = append(kinds, e.Kind)
	}
	require.Equal(t, []feed.Kind{feed.EventRecord, feed.EventCaughtUp, feed.EventRecord}, kinds)
}

// A WAL entry logged but never committed (simulating a crash between
// walLog and walCommit) is replayed on the next open, per spec §4.9.
func TestWALReplaysUncommittedEntry(t *testing.T) {
	dir := t.TempDir()
	s, err := Create(Config{Path: dir, EnableWAL: true})
	require.NoError(t, err)

	detail := walAppendDetail{Input: RecordInput{RecordType: "crash-before-commit", Payload: []byte("x")}}
	body, err := msgpack.Marshal(detail)
	require.NoError(t, err)
	_, err = s.wal.Log(wal.OpAppendRecord, body, s.now())
	require.NoError(t, err)

	// Simulate a crash: tear down the handles directly, without the
	// do*/walCommit pair that a real Append would have run.
	require.NoError(t, s.wal.Close())
	require.NoError(t, s.log.Close())
	require.NoError(t, releaseLock(s.lock))

	// Copy the crash-state directory aside before reopening, so replay is
	// proven against the bytes actually left on disk rather than anything
	// still reachable through the original handle.
	crashDir := filepath.Join(t.TempDir(), "crash-copy")
	require.NoError(t, cp.CopyAll(crashDir, dir))

	reopened, err := Open(Config{Path: crashDir, EnableWAL: true})
	require.NoError(t, err)
	defer reopened.Close()

	recs, err := reopened.GetRecordsByType("crash-before-commit")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.Equal(t, []byte("x"), recs[0].Payload)
}

func TestSubscriptionSlowConsumerDropped(t *testing.T) {
	s := openTestStore(t)
	sub := s.Subscribe(feed.Filter{IncludeRecords: true}, 4, 0)
	require.NoError(t, s.CatchUpSubscription(context.Background(), sub))

	for i := 0; i < 100; i++ {
		_, err := s.Append(RecordInput{RecordType: "flood"})
		require.NoError(t, err)
	}
	require.Equal(t, 0, s.SubscriptionCount())
}
