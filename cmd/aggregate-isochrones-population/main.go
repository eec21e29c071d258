/*
Copyright © 2026 the PlanWise authors.
This file is part of PlanWise.

PlanWise is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

PlanWise is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with PlanWise.  If not, see <http://www.gnu.org/licenses/>.
*/

// Command aggregate-isochrones-population prints the population covered by
// each of a list of catchment masks, one per line.
//
// Usage:
//
//	aggregate-isochrones-population POPULATION MASK...
//
// It is equivalent to "planwise aggregate".
package main

import (
	"fmt"
	"os"

	"github.com/planwise/demand/demandutil"
)

func main() {
	demandutil.Root.SetArgs(demandutil.ToolArgs("aggregate", os.Args[1:]))
	if err := demandutil.Root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
