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
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"
	"strconv"

	"gopkg.in/urfave/cli.v1"

	"github.com/strata-db/strata"
)

var appendCommand = cli.Command{
	Name:      "append",
	Usage:     "append a record to the current branch",
	ArgsUsage: "<record-type>",
	Flags: []cli.Flag{
		dirFlag, createFlag,
		cli.StringFlag{Name: "payload", Usage: "payload bytes; '-' reads stdin, otherwise a file path"},
		cli.StringFlag{Name: "caused-by", Usage: "comma-separated record ids this record is caused by"},
		cli.StringFlag{Name: "linked-to", Usage: "comma-separated record ids this record links to"},
	},
	Action: appendAction,
}

func appendAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one argument: <record-type>")
	}
	payload, err := readPayload(c.String("payload"))
	if err != nil {
		return err
	}

	s, err := openStore(c)
	if err != nil {
		return err
	}
	defer s.Close()

	causedBy, err := parseIDList(c.String("caused-by"))
	if err != nil {
		return err
	}
	linkedTo, err := parseIDList(c.String("linked-to"))
	if err != nil {
		return err
	}

	rec, err := s.Append(strata.RecordInput{
		RecordType: c.Args().First(),
		Payload:    payload,
		Encoding:   strata.EncodingRaw,
		CausedBy:   causedBy,
		LinkedTo:   linkedTo,
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, colorOK(fmt.Sprintf("appended record %d (seq %d, branch %d)", rec.ID, rec.Sequence, rec.Branch)))
	return nil
}

var getCommand = cli.Command{
	Name:      "get",
	Usage:     "print a single record by id",
	ArgsUsage: "<id>",
	Flags:     []cli.Flag{dirFlag, createFlag},
	Action:    getAction,
}

func getAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one argument: <id>")
	}
	id, err := strconv.ParseUint(c.Args().First(), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid record id %q: %w", c.Args().First(), err)
	}

	s, err := openStore(c)
	if err != nil {
		return err
	}
	defer s.Close()

	rec, err := s.GetRecord(strata.RecordID(id))
	if err != nil {
		return err
	}
	return printJSON(rec)
}

var recordsCommand = cli.Command{
	Name:      "records",
	Usage:     "list records of a given type",
	ArgsUsage: "<record-type>",
	Flags:     []cli.Flag{dirFlag, createFlag},
	Action:    recordsAction,
}

func recordsAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one argument: <record-type>")
	}

	s, err := openStore(c)
	if err != nil {
		return err
	}
	defer s.Close()

	recs, err := s.GetRecordsByType(c.Args().First())
	if err != nil {
		return err
	}
	return printJSON(recs)
}

func readPayload(spec string) ([]byte, error) {
	switch spec {
	case "":
		return nil, nil
	case "-":
		return ioutil.ReadAll(os.Stdin)
	default:
		return ioutil.ReadFile(spec)
	}
}

func parseIDList(spec string) ([]strata.RecordID, error) {
	if spec == "" {
		return nil, nil
	}
	var out []strata.RecordID
	start := 0
	for i := 0; i <= len(spec); i++ {
		if i == len(spec) || spec[i] == ',' {
			tok := spec[start:i]
			start = i + 1
			if tok == "" {
				continue
			}
			id, err := strconv.ParseUint(tok, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid record id %q: %w", tok, err)
			}
			out = append(out, strata.RecordID(id))
		}
	}
	return out, nil
}

func printJSON(v interface{}) error {
	buf, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, string(buf))
	return nil
}
