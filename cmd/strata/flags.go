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
	"gopkg.in/urfave/cli.v1"

	"github.com/strata-db/strata"
)

var dirFlag = cli.StringFlag{
	Name:  "dir",
	Value: ".",
	Usage: "store directory (created if --create is also set)",
}

var createFlag = cli.BoolFlag{
	Name:  "create",
	Usage: "create the store directory if it does not already hold a MANIFEST",
}

// openStore opens the store at the --dir flag, creating it first if
// --create was passed.
func openStore(c *cli.Context) (*strata.Store, error) {
	dir := c.GlobalString(dirFlag.Name)
	if c.IsSet(dirFlag.Name) {
		dir = c.String(dirFlag.Name)
	}
	cfg := strata.Config{
		Path:            dir,
		CreateIfMissing: c.GlobalBool(createFlag.Name) || c.Bool(createFlag.Name),
		EnableWAL:       true,
	}
	return strata.OpenOrCreate(cfg)
}
