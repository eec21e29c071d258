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

// Command calculate-demand copies a population grid to a target grid, lets
// a sequence of facilities absorb the demand under their catchment masks
// and prints the demand left unsatisfied.
//
// Usage:
//
//	calculate-demand TARGET POPULATION MASK CAPACITY [MASK CAPACITY]...
//
// It is equivalent to "planwise satisfy".
package main

import (
	"fmt"
	"os"

	"github.com/planwise/demand/demandutil"
)

func main() {
	demandutil.Root.SetArgs(demandutil.ToolArgs("satisfy", os.Args[1:]))
	if err := demandutil.Root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
