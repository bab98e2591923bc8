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

	"gopkg.in/urfave/cli.v1"

	"github.com/strata-db/strata/statechain"
)

var strategyNames = map[string]statechain.StrategyKind{
	"snapshot":   statechain.StrategySnapshot,
	"delta":      statechain.StrategyDelta,
	"append_log": statechain.StrategyAppendLog,
	"struct":     statechain.StrategyStruct,
}

var opNames = map[string]statechain.OpKind{
	"set":            statechain.OpSet,
	"snapshot":       statechain.OpSnapshot,
	"delta_snapshot": statechain.OpDeltaSnapshot,
	"delta":          statechain.OpDelta,
	"append":         statechain.OpAppend,
	"redact":         statechain.OpRedact,
	"edit":           statechain.OpEdit,
	"field":          statechain.OpField,
}

var stateCommand = cli.Command{
	Name:  "state",
	Usage: "registered folded-state operations",
	Subcommands: []cli.Command{
		{
			Name:      "register",
			Usage:     "register a new state id from a JSON strategy file",
			ArgsUsage: "<id> <strategy.json>",
			Flags:     []cli.Flag{dirFlag, createFlag},
			Action:    stateRegisterAction,
		},
		{
			Name:      "get",
			Usage:     "print a state's current reconstructed value",
			ArgsUsage: "<id>",
			Flags:     []cli.Flag{dirFlag, createFlag},
			Action:    stateGetAction,
		},
		{
			Name:      "update",
			Usage:     "apply a JSON-described operation to a state",
			ArgsUsage: "<id> <op.json>",
			Flags:     []cli.Flag{dirFlag, createFlag},
			Action:    stateUpdateAction,
		},
		{
			Name:      "compact",
			Usage:     "write a fresh snapshot shortcutting a state's chain",
			ArgsUsage: "<id>",
			Flags:     []cli.Flag{dirFlag, createFlag},
			Action:    stateCompactAction,
		},
		{
			Name:   "compact-all",
			Usage:  "compact every registered state with a current head",
			Flags:  []cli.Flag{dirFlag, createFlag},
			Action: stateCompactAllAction,
		},
	},
}

// strategyFile is the on-disk JSON shape for `state register`'s argument;
// fields not relevant to the chosen kind are ignored.
type strategyFile struct {
	Kind               string                  `json:"kind"`
	SnapshotEvery      uint64                  `json:"snapshot_every"`
	DeltaSnapshotEvery uint64                  `json:"delta_snapshot_every"`
	FullSnapshotEvery  uint64                  `json:"full_snapshot_every"`
	Fields             map[string]strategyFile `json:"fields"`
	InitialValue       json.RawMessage         `json:"initial_value"`
}

func (f strategyFile) toStrategy() (statechain.Strategy, error) {
	kind, ok := strategyNames[f.Kind]
	if !ok {
		return statechain.Strategy{}, fmt.Errorf("unknown strategy kind %q", f.Kind)
	}
	strat := statechain.Strategy{
		Kind:               kind,
		SnapshotEvery:      f.SnapshotEvery,
		DeltaSnapshotEvery: f.DeltaSnapshotEvery,
		FullSnapshotEvery:  f.FullSnapshotEvery,
	}
	if len(f.Fields) > 0 {
		strat.Fields = make(map[string]statechain.Strategy, len(f.Fields))
		for name, sub := range f.Fields {
			s, err := sub.toStrategy()
			if err != nil {
				return statechain.Strategy{}, err
			}
			strat.Fields[name] = s
		}
	}
	return strat, nil
}

func stateRegisterAction(c *cli.Context) error {
	if c.NArg() != 2 {
		return fmt.Errorf("expected exactly two arguments: <id> <strategy.json>")
	}
	buf, err := ioutil.ReadFile(c.Args().Get(1))
	if err != nil {
		return err
	}
	var sf strategyFile
	if err := json.Unmarshal(buf, &sf); err != nil {
		return fmt.Errorf("parsing strategy file: %w", err)
	}
	strat, err := sf.toStrategy()
	if err != nil {
		return err
	}

	s, err := openStore(c)
	if err != nil {
		return err
	}
	defer s.Close()

	reg := statechain.Registration{ID: c.Args().Get(0), Strategy: strat}
	if len(sf.InitialValue) > 0 {
		reg.HasInitialValue = true
		reg.InitialValue = []byte(sf.InitialValue)
	}
	if err := s.RegisterState(reg); err != nil {
		return err
	}
	fmt.Fprintln(stdout, colorOK("registered "+reg.ID))
	return nil
}

func stateGetAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one argument: <id>")
	}
	s, err := openStore(c)
	if err != nil {
		return err
	}
	defer s.Close()

	v, err := s.GetState(c.Args().First())
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(v)
	return err
}

// opFile is the on-disk JSON shape for `state update`'s argument.
type opFile struct {
	Kind      string          `json:"kind"`
	Value     json.RawMessage `json:"value"`
	Start     uint64          `json:"start"`
	End       uint64          `json:"end"`
	Index     uint64          `json:"index"`
	FieldName string          `json:"field_name"`
	Inner     *opFile         `json:"inner"`
}

func (f opFile) toOperation() (statechain.Operation, error) {
	kind, ok := opNames[f.Kind]
	if !ok {
		return statechain.Operation{}, fmt.Errorf("unknown operation kind %q", f.Kind)
	}
	op := statechain.Operation{
		Kind:      kind,
		Value:     []byte(f.Value),
		Start:     f.Start,
		End:       f.End,
		Index:     f.Index,
		FieldName: f.FieldName,
	}
	if f.Inner != nil {
		inner, err := f.Inner.toOperation()
		if err != nil {
			return statechain.Operation{}, err
		}
		op.Inner = &inner
	}
	return op, nil
}

func stateUpdateAction(c *cli.Context) error {
	if c.NArg() != 2 {
		return fmt.Errorf("expected exactly two arguments: <id> <op.json>")
	}
	buf, err := ioutil.ReadFile(c.Args().Get(1))
	if err != nil {
		return err
	}
	var of opFile
	if err := json.Unmarshal(buf, &of); err != nil {
		return fmt.Errorf("parsing operation file: %w", err)
	}
	op, err := of.toOperation()
	if err != nil {
		return err
	}

	s, err := openStore(c)
	if err != nil {
		return err
	}
	defer s.Close()

	rec, err := s.UpdateState(c.Args().Get(0), op)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, colorOK(fmt.Sprintf("applied update, record %d (seq %d)", rec.ID, rec.Sequence)))
	return nil
}

func stateCompactAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one argument: <id>")
	}
	s, err := openStore(c)
	if err != nil {
		return err
	}
	defer s.Close()
	if err := s.CompactState(c.Args().First()); err != nil {
		return err
	}
	fmt.Fprintln(stdout, colorOK("compacted "+c.Args().First()))
	return nil
}

func stateCompactAllAction(c *cli.Context) error {
	s, err := openStore(c)
	if err != nil {
		return err
	}
	defer s.Close()
	if err := s.CompactAllStates(); err != nil {
		return err
	}
	fmt.Fprintln(stdout, colorOK("compacted all states"))
	return nil
}
