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
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/peterh/liner"
	"gopkg.in/urfave/cli.v1"

	"github.com/strata-db/strata"
)

const consoleHistoryFile = ".strata_history"

var consoleCommand = cli.Command{
	Name:   "console",
	Usage:  "interactive read-only inspection shell",
	Flags:  []cli.Flag{dirFlag, createFlag},
	Action: consoleAction,
}

// consoleSession keeps just the bit of state a liner-backed REPL needs:
// the store and the currently selected branch is tracked by the store
// itself, so the session only holds the line editor and history path.
type consoleSession struct {
	store   *strata.Store
	line    *liner.State
	histPath string
}

func consoleAction(c *cli.Context) error {
	s, err := openStore(c)
	if err != nil {
		return err
	}
	defer s.Close()

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	sess := &consoleSession{store: s, line: line, histPath: consoleHistoryFile}
	sess.loadHistory()
	defer sess.saveHistory()

	fmt.Fprintln(stdout, colorDim("strata console — type 'help' for commands, 'exit' to quit"))
	for {
		prompt := fmt.Sprintf("strata(%s)> ", s.CurrentBranch())
		input, err := line.Prompt(prompt)
		if err == liner.ErrPromptAborted || err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)
		if input == "exit" || input == "quit" {
			return nil
		}
		sess.dispatch(input)
	}
}

func (sess *consoleSession) loadHistory() {
	f, err := os.Open(sess.histPath)
	if err != nil {
		return
	}
	defer f.Close()
	sess.line.ReadHistory(f)
}

func (sess *consoleSession) saveHistory() {
	f, err := os.Create(sess.histPath)
	if err != nil {
		return
	}
	defer f.Close()
	sess.line.WriteHistory(f)
}

func (sess *consoleSession) dispatch(input string) {
	fields := strings.Fields(input)
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "help":
		fmt.Fprintln(stdout, "commands: help, branch, stats, get <id>, state <id>, branches, exit")
	case "branch":
		fmt.Fprintln(stdout, sess.store.CurrentBranch())
	case "branches":
		for _, b := range sess.store.ListBranches() {
			fmt.Fprintf(stdout, "%s (head %d)\n", b.Name, b.Head)
		}
	case "stats":
		st, err := sess.store.Stats()
		if err != nil {
			fmt.Fprintln(stdout, colorError(err.Error()))
			return
		}
		fmt.Fprintf(stdout, "records=%d branches=%d states=%d log_bytes=%d\n",
			st.Records, st.Branches, st.StateHeads, st.LogBytes)
	case "get":
		if len(args) != 1 {
			fmt.Fprintln(stdout, colorError("usage: get <id>"))
			return
		}
		id, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			fmt.Fprintln(stdout, colorError(err.Error()))
			return
		}
		rec, err := sess.store.GetRecord(strata.RecordID(id))
		if err != nil {
			fmt.Fprintln(stdout, colorError(err.Error()))
			return
		}
		fmt.Fprintf(stdout, "%+v\n", rec)
	case "state":
		if len(args) != 1 {
			fmt.Fprintln(stdout, colorError("usage: state <id>"))
			return
		}
		v, err := sess.store.GetState(args[0])
		if err != nil {
			fmt.Fprintln(stdout, colorError(err.Error()))
			return
		}
		fmt.Fprintln(stdout, string(v))
	default:
		fmt.Fprintln(stdout, colorError("unknown command: "+cmd))
	}
}
