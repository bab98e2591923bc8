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
	"sync"
	"sync/atomic"

	"golang.org/x/time/rate"
)

// DefaultPayloadThreshold is the default byte ceiling above which a
// Record event's payload is omitted rather than included verbatim.
const DefaultPayloadThreshold = 4096

// Subscription is one observer's bounded channel plus its filter and
// catch-up state.
type Subscription struct {
	ID           uint64
	Filter       Filter
	FromSequence uint64

	ch       chan Event
	caughtUp int32 // atomic bool
}

// Events returns the channel subscribers receive from.
func (s *Subscription) Events() <-chan Event { return s.ch }

func (s *Subscription) isCaughtUp() bool { return atomic.LoadInt32(&s.caughtUp) != 0 }
func (s *Subscription) setCaughtUp()     { atomic.StoreInt32(&s.caughtUp, 1) }

// Bus is the subscription broadcast hub, grounded on
// eth/downloader/resultcache.go's RWMutex-guarded slice-of-results
// bookkeeping style, generalized from "fetch result slots" to "event
// subscribers". Writers broadcast synchronously; a single slow consumer is
// isolated by try_send and dropped rather than ever blocking the writer
// (spec §4.7's mandatory backpressure policy).
type Bus struct {
	mu               sync.RWMutex
	subs             map[uint64]*Subscription
	nextID           uint64
	payloadThreshold int

	// catchUpLimiter paces historical replay during catch-up so a large
	// backlog does not starve live broadcasts sharing the same writer
	// thread; it does not apply to live Broadcast calls.
	catchUpLimiter *rate.Limiter
}

// NewBus returns an empty Bus. catchUpEventsPerSec bounds how fast
// catch-up replay streams historical events (0 disables throttling).
func NewBus(catchUpEventsPerSec int) *Bus {
	b := &Bus{
		subs:             make(map[uint64]*Subscription),
		payloadThreshold: DefaultPayloadThreshold,
	}
	if catchUpEventsPerSec > 0 {
		b.catchUpLimiter = rate.NewLimiter(rate.Limit(catchUpEventsPerSec), catchUpEventsPerSec)
	}
	return b
}

// Subscribe registers a new subscription with the given filter, channel
// buffer size, and starting sequence for catch-up.
func (b *Bus) Subscribe(filter Filter, bufferSize int, fromSequence uint64) *Subscription {
	if bufferSize <= 0 {
		bufferSize = 64
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	sub := &Subscription{
		ID:           b.nextID,
		Filter:       filter,
		FromSequence: fromSequence,
		ch:           make(chan Event, bufferSize),
	}
	b.subs[sub.ID] = sub
	return sub
}

// Unsubscribe removes a subscription and closes its channel.
func (b *Bus) Unsubscribe(id uint64) {
	b.mu.Lock()
	sub, ok := b.subs[id]
	delete(b.subs, id)
	b.mu.Unlock()
	if ok {
		close(sub.ch)
	}
}

// Count returns the number of live subscriptions.
func (b *Bus) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// PayloadIncluded reports whether a payload of size n should be sent
// verbatim under the configured threshold.
func (b *Bus) PayloadIncluded(n int) bool {
	return n <= b.payloadThreshold
}

// Broadcast delivers e to every caught-up subscription whose filter
// matches, via try_send. A full or closed channel drops that subscription
// immediately: this is the mandatory backpressure policy of spec §4.7 — a
// single slow consumer must never block the writer.
func (b *Bus) Broadcast(e Event, matches func(Filter) bool) {
	b.mu.RLock()
	var targets []*Subscription
	for _, sub := range b.subs {
		if sub.isCaughtUp() && matches(sub.Filter) {
			targets = append(targets, sub)
		}
	}
	b.mu.RUnlock()

	for _, sub := range targets {
		b.trySendOrDrop(sub, e)
	}
}

// trySendOrDrop performs the non-blocking send; on failure it removes the
// subscription and makes a best-effort attempt to deliver a final
// Dropped{BufferOverflow} event.
func (b *Bus) trySendOrDrop(sub *Subscription, e Event) {
	select {
	case sub.ch <- e:
	default:
		b.mu.Lock()
		_, stillPresent := b.subs[sub.ID]
		delete(b.subs, sub.ID)
		b.mu.Unlock()
		if !stillPresent {
			return
		}
		// Discard the oldest undelivered event so the Dropped event fits.
		select {
		case <-sub.ch:
		default:
		}
		select {
		case sub.ch <- Event{Kind: EventDropped, Reason: DropBufferOverflow}:
		default:
		}
		close(sub.ch)
	}
}

// CatchUp streams historical record events and state snapshots to sub in
// order, then a CaughtUp event, then flips sub to caught-up so it starts
// receiving live broadcasts. Unlike Broadcast, catch-up events are
// directed sends — they use try_send per event too (a subscriber that
// can't keep up with its own catch-up is exactly as slow as one that can't
// keep up with live traffic) but are paced by the bus's catch-up limiter
// so a large backlog doesn't monopolize the writer thread.
func (b *Bus) CatchUp(ctx context.Context, sub *Subscription, historical []Event, snapshots []Event) error {
	for _, e := range append(append([]Event{}, historical...), snapshots...) {
		if b.catchUpLimiter != nil {
			if err := b.catchUpLimiter.Wait(ctx); err != nil {
				return err
			}
		}
		b.mu.RLock()
		_, present := b.subs[sub.ID]
		b.mu.RUnlock()
		if !present {
			return nil
		}
		b.trySendOrDrop(sub, e)
	}

	b.mu.RLock()
	_, present := b.subs[sub.ID]
	b.mu.RUnlock()
	if present {
		b.trySendOrDrop(sub, Event{Kind: EventCaughtUp})
		sub.setCaughtUp()
	}
	return nil
}
