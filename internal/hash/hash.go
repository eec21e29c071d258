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

// Package hash fingerprints the inputs of a run so that a cached result can
// be traced back to what produced it.
package hash

import (
	"encoding/gob"
	"fmt"
	"hash/fnv"
	"io"

	"github.com/davecgh/go-spew/spew"
)

var printer = spew.ConfigState{
	Indent:                  " ",
	SortKeys:                true,
	DisableMethods:          true,
	SpewKeys:                true,
	DisablePointerAddresses: true,
	DisableCapacities:       true,
}

// Fingerprint returns a hex key for values. Equal values give equal keys.
func Fingerprint(values ...interface{}) string {
	h := fnv.New128a()
	if err := encode(h, values); err != nil {
		// gob cannot encode nil pointers or structs without exported
		// fields, so dump those instead.
		h.Reset()
		printer.Fprintf(h, "%#v", values)
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}

func encode(w io.Writer, values []interface{}) error {
	e := gob.NewEncoder(w)
	for _, v := range values {
		if err := e.Encode(v); err != nil {
			return err
		}
	}
	return nil
}
