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
	"fmt"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/urfave/cli.v1"
)

var statsCommand = cli.Command{
	Name:   "stats",
	Usage:  "print store counters",
	Flags:  []cli.Flag{dirFlag, createFlag, cli.BoolFlag{Name: "deep", Usage: "walk in-memory structures for an accurate byte count"}},
	Action: statsAction,
}

func statsAction(c *cli.Context) error {
	s, err := openStore(c)
	if err != nil {
		return err
	}
	defer s.Close()

	table := tablewriter.NewWriter(stdout)
	table.SetHeader([]string{"metric", "value"})

	if c.Bool("deep") {
		deep, err := s.DeepStats()
		if err != nil {
			return err
		}
		table.Append([]string{"records", fmt.Sprint(deep.Records)})
		table.Append([]string{"branches", fmt.Sprint(deep.Branches)})
		table.Append([]string{"state heads", fmt.Sprint(deep.StateHeads)})
		table.Append([]string{"blob bytes", fmt.Sprint(deep.BlobBytes)})
		table.Append([]string{"blob count", fmt.Sprint(deep.BlobCount)})
		table.Append([]string{"log bytes", fmt.Sprint(deep.LogBytes)})
		table.Append([]string{"subscriptions", fmt.Sprint(deep.SubscriptionCount)})
		table.Append([]string{"in-memory bytes (deep)", fmt.Sprint(deep.MemSizeBytes)})
		table.Render()
		return nil
	}

	stats, err := s.Stats()
	if err != nil {
		return err
	}
	table.Append([]string{"records", fmt.Sprint(stats.Records)})
	table.Append([]string{"branches", fmt.Sprint(stats.Branches)})
	table.Append([]string{"state heads", fmt.Sprint(stats.StateHeads)})
	table.Append([]string{"blob bytes", fmt.Sprint(stats.BlobBytes)})
	table.Append([]string{"blob count", fmt.Sprint(stats.BlobCount)})
	table.Append([]string{"log bytes", fmt.Sprint(stats.LogBytes)})
	table.Append([]string{"subscriptions", fmt.Sprint(stats.SubscriptionCount)})
	table.Render()
	return nil
}
