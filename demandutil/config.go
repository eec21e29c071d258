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

package demandutil

import (
	"fmt"
	"math"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/planwise/demand"
	"github.com/spf13/cast"
)

// Scenario holds the inputs of a satisfy run. It can be read from a TOML
// file such as:
//
//	Target = "out.tif"
//	Population = "${DATA}/populations/REGIONID.tif"
//
//	[[Facilities]]
//	Mask = "${DATA}/isochrones/REGIONID/POLYGONID1.tif"
//	Capacity = 500
//
// Environment variables in paths are expanded.
type Scenario struct {
	Target     string
	Population string
	Facilities []demand.Facility
}

// loadScenario reads a scenario file.
func loadScenario(path string) (*Scenario, error) {
	var sc Scenario
	if _, err := toml.DecodeFile(os.ExpandEnv(path), &sc); err != nil {
		return nil, fmt.Errorf("planwise: problem reading scenario file: %v", err)
	}
	sc.Target = os.ExpandEnv(sc.Target)
	sc.Population = os.ExpandEnv(sc.Population)
	for i := range sc.Facilities {
		sc.Facilities[i].Mask = os.ExpandEnv(sc.Facilities[i].Mask)
	}
	if sc.Target == "" || sc.Population == "" {
		return nil, &demand.ArgumentError{Reason: fmt.Sprintf("scenario %s needs a Target and a Population", path)}
	}
	if len(sc.Facilities) == 0 {
		return nil, &demand.ArgumentError{Reason: fmt.Sprintf("scenario %s has no Facilities", path)}
	}
	return &sc, nil
}

// satisfyScenario builds a scenario from either a scenario file or the
// positional arguments TARGET POPULATION MASK CAPACITY [MASK CAPACITY]....
// exists reports whether a target is already there; capacities of an
// existing target are not checked because they will not be used.
func satisfyScenario(scenarioFile string, args []string, exists func(string) bool) (*Scenario, error) {
	if scenarioFile != "" {
		if len(args) != 0 {
			return nil, &demand.ArgumentError{Reason: "positional arguments cannot be combined with a scenario file"}
		}
		return loadScenario(scenarioFile)
	}
	if len(args) < 4 || len(args)%2 != 0 {
		return nil, &demand.ArgumentError{Reason: "usage: satisfy TARGET POPULATION MASK CAPACITY [MASK CAPACITY]..."}
	}
	facilities, err := parseFacilities(args[2:])
	if err != nil && !exists(args[0]) {
		return nil, err
	}
	return &Scenario{Target: args[0], Population: args[1], Facilities: facilities}, nil
}

// parseFacilities turns MASK CAPACITY pairs into facilities. Capacities
// that cannot be parsed are set to NaN and reported in the returned error.
func parseFacilities(pairs []string) ([]demand.Facility, error) {
	var firstErr error
	facilities := make([]demand.Facility, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		c, err := cast.ToFloat64E(pairs[i+1])
		if err != nil {
			c = math.NaN()
			if firstErr == nil {
				firstErr = &demand.ArgumentError{Reason: fmt.Sprintf("invalid capacity %q for %s", pairs[i+1], pairs[i])}
			}
		}
		facilities = append(facilities, demand.Facility{Mask: pairs[i], Capacity: c})
	}
	return facilities, firstErr
}
