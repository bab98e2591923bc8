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
	"encoding/hex"
	"fmt"
	"io/ioutil"
	"os"

	"gopkg.in/urfave/cli.v1"

	"github.com/strata-db/strata"
)

var blobCommand = cli.Command{
	Name:  "blob",
	Usage: "content-addressed blob storage",
	Subcommands: []cli.Command{
		{
			Name:      "store",
			Usage:     "store a file's content, printing its hash",
			ArgsUsage: "<path>",
			Flags:     []cli.Flag{dirFlag, createFlag, cli.StringFlag{Name: "content-type", Value: "application/octet-stream"}},
			Action:    blobStoreAction,
		},
		{
			Name:      "get",
			Usage:     "print a blob's content to stdout",
			ArgsUsage: "<hash>",
			Flags:     []cli.Flag{dirFlag, createFlag},
			Action:    blobGetAction,
		},
		{
			Name:      "exists",
			Usage:     "check whether a blob is present",
			ArgsUsage: "<hash>",
			Flags:     []cli.Flag{dirFlag, createFlag},
			Action:    blobExistsAction,
		},
	},
}

func blobStoreAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one argument: <path>")
	}
	content, err := ioutil.ReadFile(c.Args().First())
	if err != nil {
		return err
	}

	s, err := openStore(c)
	if err != nil {
		return err
	}
	defer s.Close()

	h, err := s.StoreBlob(content, c.String("content-type"))
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, h.String())
	return nil
}

func blobGetAction(c *cli.Context) error {
	hash, err := parseHash(c)
	if err != nil {
		return err
	}

	s, err := openStore(c)
	if err != nil {
		return err
	}
	defer s.Close()

	content, contentType, err := s.GetBlob(hash)
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stderr, colorDim("content-type: "+contentType))
	_, err = os.Stdout.Write(content)
	return err
}

func blobExistsAction(c *cli.Context) error {
	hash, err := parseHash(c)
	if err != nil {
		return err
	}

	s, err := openStore(c)
	if err != nil {
		return err
	}
	defer s.Close()

	if s.BlobExists(hash) {
		fmt.Fprintln(stdout, colorOK("present"))
	} else {
		fmt.Fprintln(stdout, colorError("absent"))
	}
	return nil
}

func parseHash(c *cli.Context) (strata.Hash, error) {
	if c.NArg() != 1 {
		return strata.Hash{}, fmt.Errorf("expected exactly one argument: <hash>")
	}
	raw, err := hex.DecodeString(c.Args().First())
	if err != nil {
		return strata.Hash{}, fmt.Errorf("invalid hash %q: %w", c.Args().First(), err)
	}
	if len(raw) != strata.HashSize {
		return strata.Hash{}, fmt.Errorf("hash must be %d bytes, got %d", strata.HashSize, len(raw))
	}
	var h strata.Hash
	copy(h[:], raw)
	return h, nil
}
