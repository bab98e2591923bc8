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

	"github.com/strata-db/strata"
)

var branchCommand = cli.Command{
	Name:  "branch",
	Usage: "branch management",
	Subcommands: []cli.Command{
		{
			Name:   "list",
			Usage:  "list every branch",
			Flags:  []cli.Flag{dirFlag, createFlag},
			Action: branchListAction,
		},
		{
			Name:      "create",
			Usage:     "fork a new branch from another",
			ArgsUsage: "<name> <from>",
			Flags: []cli.Flag{
				dirFlag, createFlag,
				cli.Uint64Flag{Name: "at", Usage: "fork at a specific ancestor sequence instead of the parent's head"},
				cli.BoolFlag{Name: "empty", Usage: "fork with no shared history or copied state heads"},
			},
			Action: branchCreateAction,
		},
		{
			Name:      "switch",
			Usage:     "change the currently selected branch",
			ArgsUsage: "<name>",
			Flags:     []cli.Flag{dirFlag, createFlag},
			Action:    branchSwitchAction,
		},
		{
			Name:      "delete",
			Usage:     "delete a branch (forbidden for main or the current branch)",
			ArgsUsage: "<name>",
			Flags:     []cli.Flag{dirFlag, createFlag},
			Action:    branchDeleteAction,
		},
	},
}

func branchListAction(c *cli.Context) error {
	s, err := openStore(c)
	if err != nil {
		return err
	}
	defer s.Close()

	current := s.CurrentBranch()
	table := tablewriter.NewWriter(stdout)
	table.SetHeader([]string{"", "name", "head", "parent", "created"})
	for _, b := range s.ListBranches() {
		marker := ""
		if b.Name == current {
			marker = "*"
		}
		parent := "-"
		if b.HasParent {
			parent = fmt.Sprint(b.Parent)
		}
		table.Append([]string{marker, b.Name, fmt.Sprint(b.Head), parent, fmt.Sprint(b.Created)})
	}
	table.Render()
	return nil
}

func branchCreateAction(c *cli.Context) error {
	if c.NArg() != 2 {
		return fmt.Errorf("expected exactly two arguments: <name> <from>")
	}
	name, from := c.Args().Get(0), c.Args().Get(1)

	s, err := openStore(c)
	if err != nil {
		return err
	}
	defer s.Close()

	var info strata.BranchInfo
	switch {
	case c.Bool("empty"):
		info, err = s.CreateEmptyBranch(name, from)
	case c.IsSet("at"):
		info, err = s.CreateBranchAt(name, from, strata.Sequence(c.Uint64("at")))
	default:
		info, err = s.CreateBranch(name, from)
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, colorOK(fmt.Sprintf("created branch %q at head %d", info.Name, info.Head)))
	return nil
}

func branchSwitchAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one argument: <name>")
	}
	s, err := openStore(c)
	if err != nil {
		return err
	}
	defer s.Close()
	if err := s.SwitchBranch(c.Args().First()); err != nil {
		return err
	}
	fmt.Fprintln(stdout, colorOK("switched to "+c.Args().First()))
	return nil
}

func branchDeleteAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one argument: <name>")
	}
	s, err := openStore(c)
	if err != nil {
		return err
	}
	defer s.Close()
	if err := s.DeleteBranch(c.Args().First()); err != nil {
		return err
	}
	fmt.Fprintln(stdout, colorOK("deleted "+c.Args().First()))
	return nil
}
