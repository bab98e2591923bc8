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

// Command strata is the operator CLI around the strata record-store
// library: it opens a store directory and exposes the main operations
// (stats, append, get, records, blob, branch, state) as subcommands, plus
// an interactive console and a read-only event-streaming server.
package main

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/urfave/cli.v1"
)

var (
	gitCommit = ""
	gitDate   = ""
)

func main() {
	app := cli.NewApp()
	app.Name = "strata"
	app.Usage = "inspect and operate an embedded record-store directory"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{dirFlag}
	app.Commands = []cli.Command{
		statsCommand,
		appendCommand,
		getCommand,
		recordsCommand,
		blobCommand,
		branchCommand,
		stateCommand,
		consoleCommand,
		serveEventsCommand,
	}
	sort.Sort(cli.CommandsByName(app.Commands))

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, colorError(err.Error()))
		os.Exit(1)
	}
}
