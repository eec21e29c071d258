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

package demand

import "fmt"

// OpenError reports a grid that could not be opened or created.
type OpenError struct {
	Path string
	Err  error
}

func (e *OpenError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("demand: failed opening %s", e.Path)
	}
	return fmt.Sprintf("demand: failed opening %s: %v", e.Path, e.Err)
}

func (e *OpenError) Unwrap() error { return e.Err }

// TypeError reports a grid whose band does not have the sample type or
// nodata convention its role requires.
type TypeError struct {
	Path   string
	Reason string
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("demand: %s: %s", e.Path, e.Reason)
}

// AlignmentError reports a facility mask that cannot be overlaid on the
// demand grid block by block.
type AlignmentError struct {
	Path   string
	Reason string
}

func (e *AlignmentError) Error() string {
	return fmt.Sprintf("demand: facility %s is not aligned with the demand grid: %s", e.Path, e.Reason)
}

// CacheMissError reports an existing target that carries no cached result.
type CacheMissError struct {
	Path        string
	Domain, Key string
}

func (e *CacheMissError) Error() string {
	return fmt.Sprintf("demand: no unsatisfied demand metadata found on %s:%s in %s", e.Domain, e.Key, e.Path)
}

// ArgumentError reports a malformed invocation.
type ArgumentError struct {
	Reason string
}

func (e *ArgumentError) Error() string {
	return "demand: " + e.Reason
}
