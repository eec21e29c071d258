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
	"math"

	"github.com/planwise/demand/internal/hash"
	"github.com/sirupsen/logrus"
)

// Facility is a catchment mask together with the demand it can absorb.
type Facility struct {
	Mask     string
	Capacity float64
}

// FacilityResult records what one facility did to the residual demand.
type FacilityResult struct {
	Facility

	// Unsatisfied is the demand under the mask before this facility was
	// applied.
	Unsatisfied float64

	// Factor is the share of that demand left unsatisfied afterwards.
	Factor float64

	// BlocksWritten is the number of demand blocks that were rewritten.
	BlocksWritten int
}

// Result is the outcome of a Satisfier run.
type Result struct {
	// Total is the total unsatisfied demand left in the target grid.
	Total int64

	// Cached is true if Total was read from an existing target.
	Cached bool

	// Facilities holds one entry per facility in processing order. It is
	// empty for cached results.
	Facilities []FacilityResult
}

// SatisfactionFactor returns the fraction of unsatisfied demand that
// remains after a facility absorbs capacity worth of it. The result is
// always within [0, 1]; a facility with nothing to absorb leaves the
// demand untouched.
func SatisfactionFactor(capacity, unsatisfied float64) float64 {
	if unsatisfied == 0 {
		return 1
	}
	return math.Max(0, math.Min(1, 1-capacity/unsatisfied))
}

// Satisfier applies facilities to a copy of a population grid and
// reports the demand left over.
type Satisfier struct {
	Store Store
	Log   logrus.FieldLogger

	// Resolve, if not nil, maps the population and mask locations given
	// to Run to paths that Store can open (e.g., by downloading them). It
	// is only called when a result has to be computed.
	Resolve func(location string) (string, error)
}

// NewSatisfier returns a Satisfier that logs to the standard logger.
func NewSatisfier(store Store) *Satisfier {
	return &Satisfier{Store: store, Log: logrus.StandardLogger()}
}

// Run returns the total unsatisfied demand of population once facilities
// have been applied in order, writing the residual demand grid to target.
//
// If target already exists, nothing is computed: the total stored on it is
// returned whatever population and facilities are. An existing target
// without a stored total is an error.
func (s *Satisfier) Run(target, population string, facilities []Facility) (*Result, error) {
	inputs := hash.Fingerprint(population, facilities)

	cached, err := ResultCache{Store: s.Store}.Load(target)
	if err != nil {
		return nil, err
	}
	if cached != nil {
		log := s.Log.WithField("target", target)
		log.Debug("target already exists")
		if cached.InputHash != "" && cached.InputHash != inputs {
			log.Warn("returning cached unsatisfied demand computed from different inputs")
		}
		return &Result{Total: cached.Total, Cached: true}, nil
	}

	for _, f := range facilities {
		if math.IsNaN(f.Capacity) || math.IsInf(f.Capacity, 0) || f.Capacity < 0 {
			return nil, &ArgumentError{Reason: fmt.Sprintf("capacity of %s must be a finite non-negative number, not %g", f.Mask, f.Capacity)}
		}
	}
	return s.compute(target, population, facilities, inputs)
}

func (s *Satisfier) resolve(location string) (string, error) {
	if s.Resolve == nil {
		return location, nil
	}
	return s.Resolve(location)
}

// alignedFacility is a facility whose mask passed validation.
type alignedFacility struct {
	Facility
	path   string
	offset BlockOffset
}

// align checks every mask against the demand grid before anything is
// written.
func (s *Satisfier) align(facilities []Facility, demand GridInfo) ([]alignedFacility, error) {
	aligned := make([]alignedFacility, len(facilities))
	for i, f := range facilities {
		path, err := s.resolve(f.Mask)
		if err != nil {
			return nil, err
		}
		mask, offset, err := openMask(s.Store, path, demand)
		if err != nil {
			return nil, err
		}
		mask.Close()
		aligned[i] = alignedFacility{Facility: f, path: path, offset: offset}
	}
	return aligned, nil
}

func (s *Satisfier) compute(target, population string, facilities []Facility, inputs string) (res *Result, err error) {
	population, err = s.resolve(population)
	if err != nil {
		return nil, err
	}
	src, err := openDemand(s.Store, population)
	if err != nil {
		return nil, err
	}
	info := src.Info()
	src.Close()
	logGrid(s.Log, population, info)

	aligned, err := s.align(facilities, info)
	if err != nil {
		return nil, err
	}

	residual, err := s.Store.CreateCopy(target, population)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := residual.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("demand: closing %s: %v", target, cerr)
		}
		if err != nil {
			if rerr := s.Store.Remove(target); rerr != nil {
				s.Log.WithError(rerr).WithField("target", target).Error("failed removing incomplete target")
			}
		}
	}()
	if ri := residual.Info(); ri.BlockXSize != info.BlockXSize || ri.BlockYSize != info.BlockYSize {
		return nil, fmt.Errorf("demand: %s was created with %dx%d blocks instead of %dx%d",
			target, ri.BlockXSize, ri.BlockYSize, info.BlockXSize, info.BlockYSize)
	}

	scratch := NewScratch(info)
	results, err := foldFacilities(residual, aligned, func(residual Grid, f alignedFacility) (FacilityResult, error) {
		return s.satisfy(residual, f, scratch)
	})
	if err != nil {
		return nil, err
	}
	if err = residual.Flush(); err != nil {
		return nil, fmt.Errorf("demand: flushing %s: %v", target, err)
	}

	total, err := sumValid(residual, scratch)
	if err != nil {
		return nil, err
	}
	r := CachedResult{Total: int64(total), InputHash: inputs}
	if err = (ResultCache{Store: s.Store}).Save(residual, r); err != nil {
		return nil, err
	}
	s.Log.WithFields(logrus.Fields{"target": target, "unsatisfied": r.Total}).Debug("stored unsatisfied demand")
	return &Result{Total: r.Total, Facilities: results}, nil
}

// step applies one facility to the residual demand grid.
type step func(residual Grid, f alignedFacility) (FacilityResult, error)

// foldFacilities applies fn to each facility in order. Every step sees the
// residual demand left by all of the steps before it, so reordering the
// facilities can change the result.
func foldFacilities(residual Grid, facilities []alignedFacility, fn step) ([]FacilityResult, error) {
	results := make([]FacilityResult, 0, len(facilities))
	for _, f := range facilities {
		r, err := fn(residual, f)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, nil
}

// satisfy measures the demand still unsatisfied under a facility's mask and
// then scales it down by the facility's satisfaction factor.
func (s *Satisfier) satisfy(residual Grid, f alignedFacility, scratch *Scratch) (FacilityResult, error) {
	mask, err := s.Store.Open(f.path)
	if err != nil {
		return FacilityResult{}, err
	}
	defer mask.Close()
	log := s.Log.WithField("facility", f.Mask)
	log.WithFields(logrus.Fields{"offsetX": f.offset.X, "offsetY": f.offset.Y}).Debug("processing facility")

	unsatisfied, err := sumUnder(residual, mask, f.offset, scratch)
	if err != nil {
		return FacilityResult{}, err
	}
	factor := SatisfactionFactor(f.Capacity, unsatisfied)
	log.WithFields(logrus.Fields{
		"capacity":    f.Capacity,
		"unsatisfied": unsatisfied,
		"factor":      factor,
	}).Debug("computed satisfaction factor")

	written, err := scaleUnder(residual, mask, f.offset, float32(factor), scratch)
	if err != nil {
		return FacilityResult{}, err
	}
	return FacilityResult{
		Facility:      f.Facility,
		Unsatisfied:   unsatisfied,
		Factor:        factor,
		BlocksWritten: written,
	}, nil
}

// ScaleMasked multiplies by factor every demand sample in the valid
// rectangle that is covered by the mask and is not nodata. It reports
// whether any sample was touched.
func ScaleMasked(demand []float32, mask []uint8, stride, width, height int, demandNoData float32, maskNoData uint8, factor float32) bool {
	changed := false
	for y := 0; y < height; y++ {
		row := y * stride
		for i := row; i < row+width; i++ {
			if mask[i] != maskNoData && !IsNoData(demand[i], demandNoData) {
				demand[i] *= factor
				changed = true
			}
		}
	}
	return changed
}

// scaleUnder applies factor to the demand under mask and writes back only
// the blocks that changed. It returns the number of blocks written.
func scaleUnder(residual, mask Grid, offset BlockOffset, factor float32, scratch *Scratch) (int, error) {
	demandNoData := residual.Info().float32NoData()
	stride := mask.Info().BlockXSize
	written := 0
	o := NewOverlay(residual, mask, offset, scratch)
	for o.Next() {
		b := o.Block()
		if !ScaleMasked(scratch.Demand, scratch.Mask, stride, b.ValidWidth, b.ValidHeight, demandNoData, maskNoData, factor) {
			continue
		}
		bx, by := o.DemandBlock()
		if err := residual.WriteBlock(bx, by, scratch.Demand); err != nil {
			return written, fmt.Errorf("demand: writing demand block (%d, %d): %v", bx, by, err)
		}
		written++
	}
	return written, o.Err()
}

// sumValid adds up every non-nodata sample of g.
func sumValid(g Grid, scratch *Scratch) (float64, error) {
	info := g.Info()
	nodata := info.float32NoData()
	var total float64
	w := newBlockWalk(info)
	for w.Next() {
		b := w.Block()
		if err := g.ReadBlock(b.X, b.Y, scratch.Demand); err != nil {
			return 0, fmt.Errorf("demand: reading block (%d, %d): %v", b.X, b.Y, err)
		}
		for y := 0; y < b.ValidHeight; y++ {
			row := scratch.Demand[y*info.BlockXSize : y*info.BlockXSize+b.ValidWidth]
			for _, v := range row {
				if !IsNoData(v, nodata) {
					total += float64(v)
				}
			}
		}
	}
	return total, nil
}
