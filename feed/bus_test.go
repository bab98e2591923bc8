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

package feed

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCatchUpThenLiveOrdering(t *testing.T) {
	b := NewBus(0)
	sub := b.Subscribe(Filter{IncludeRecords: true}, 64, 1)

	historical := []Event{
		{Kind: EventRecord, RecordID: 1},
		{Kind: EventRecord, RecordID: 2},
	}
	require.NoError(t, b.CatchUp(context.Background(), sub, historical, nil))

	b.Broadcast(Event{Kind: EventRecord, RecordID: 3, Branch: 1, RecordType: "x"}, func(f Filter) bool {
		return f.MatchesRecord("x", 1)
	})

	var got []uint64
	for i := 0; i < 4; i++ { // two records, CaughtUp, one live record
		e := <-sub.Events()
		if e.Kind == EventRecord {
			got = append(got, e.RecordID)
		}
	}
	require.Equal(t, []uint64{1, 2, 3}, got)
}

func TestSlowConsumerDropped(t *testing.T) {
	b := NewBus(0)
	sub := b.Subscribe(Filter{IncludeRecords: true}, 16, 1)
	sub.setCaughtUp()

	matches := func(f Filter) bool { return f.MatchesRecord("x", 1) }

	for i := 0; i < 200; i++ {
		b.Broadcast(Event{Kind: EventRecord, RecordID: uint64(i), Branch: 1, RecordType: "x"}, matches)
	}

	require.Equal(t, 0, b.Count())

	var sawDropped bool
	for {
		select {
		case e, ok := <-sub.Events():
			if !ok {
				goto done
			}
			if e.Kind == EventDropped {
				sawDropped = true
			}
		default:
			goto done
		}
	}
done:
	require.True(t, sawDropped)
}

func TestUnsubscribe(t *testing.T) {
	b := NewBus(0)
	sub := b.Subscribe(Filter{IncludeRecords: true}, 4, 1)
	require.Equal(t, 1, b.Count())
	b.Unsubscribe(sub.ID)
	require.Equal(t, 0, b.Count())
}

func TestCatchUpLimiterPaces(t *testing.T) {
	b := NewBus(1000)
	sub := b.Subscribe(Filter{IncludeRecords: true}, 64, 1)
	start := time.Now()
	events := make([]Event, 5)
	require.NoError(t, b.CatchUp(context.Background(), sub, events, nil))
	require.Less(t, time.Since(start), time.Second)
}
