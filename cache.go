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

import (
	"fmt"
	"strconv"
)

// Metadata locations used to persist results on a target grid.
const (
	MetadataDomain = "PLANWISE"
	DemandKey      = "UNSATISFIED_DEMAND"
	InputHashKey   = "INPUT_HASH"
)

// CachedResult is what a finished run leaves on its target grid.
type CachedResult struct {
	// Total is the total unsatisfied demand, truncated to an integer.
	Total int64

	// InputHash fingerprints the inputs that produced Total. It is only
	// used for diagnostics; it never causes a recomputation.
	InputHash string
}

// ResultCache stores run results as metadata of the target grid.
//
// Results are keyed by target path only. Once a target exists, its stored
// total is returned for any population grid and facility set, even if they
// differ from the ones that produced it.
type ResultCache struct {
	Store Store
}

// Load returns the result stored on target, or nil if target does not exist.
// An existing target without a stored total yields a *CacheMissError.
func (c ResultCache) Load(target string) (*CachedResult, error) {
	if !c.Store.Exists(target) {
		return nil, nil
	}
	g, err := c.Store.Open(target)
	if err != nil {
		return nil, err
	}
	defer g.Close()

	v, ok := g.Metadata(MetadataDomain, DemandKey)
	if !ok {
		return nil, &CacheMissError{Path: target, Domain: MetadataDomain, Key: DemandKey}
	}
	total, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("demand: invalid %s:%s value %q in %s: %v", MetadataDomain, DemandKey, v, target, err)
	}
	hash, _ := g.Metadata(MetadataDomain, InputHashKey)
	return &CachedResult{Total: total, InputHash: hash}, nil
}

// Save attaches r to an open target grid and flushes it. It must only be
// called once all pixel writes are done.
func (c ResultCache) Save(g Grid, r CachedResult) error {
	if err := g.SetMetadata(MetadataDomain, DemandKey, strconv.FormatInt(r.Total, 10)); err != nil {
		return fmt.Errorf("demand: storing unsatisfied demand: %v", err)
	}
	if r.InputHash != "" {
		if err := g.SetMetadata(MetadataDomain, InputHashKey, r.InputHash); err != nil {
			return fmt.Errorf("demand: storing input hash: %v", err)
		}
	}
	return g.Flush()
}
