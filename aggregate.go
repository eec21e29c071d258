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
	"github.com/sirupsen/logrus"
)

// SumMasked adds up the demand samples in the valid width x height
// rectangle of one block pair, skipping samples where either the demand or
// the mask holds its nodata value. Both buffers use a row stride of stride.
func SumMasked(demand []float32, mask []uint8, stride, width, height int, demandNoData float32, maskNoData uint8) float64 {
	var sum float64
	for y := 0; y < height; y++ {
		row := y * stride
		for i := row; i < row+width; i++ {
			if mask[i] != maskNoData && !IsNoData(demand[i], demandNoData) {
				sum += float64(demand[i])
			}
		}
	}
	return sum
}

// sumUnder adds up the demand under every block of mask.
func sumUnder(demand, mask Grid, offset BlockOffset, scratch *Scratch) (float64, error) {
	demandNoData := demand.Info().float32NoData()
	stride := mask.Info().BlockXSize
	var total float64
	o := NewOverlay(demand, mask, offset, scratch)
	for o.Next() {
		b := o.Block()
		total += SumMasked(scratch.Demand, scratch.Mask, stride, b.ValidWidth, b.ValidHeight,
			demandNoData, maskNoData)
	}
	return total, o.Err()
}

// Aggregator counts the population under facility masks without applying
// any capacity.
type Aggregator struct {
	Store Store
	Log   logrus.FieldLogger

	// Resolve, if not nil, maps grid locations to paths that Store can
	// open.
	Resolve func(location string) (string, error)
}

// NewAggregator returns an Aggregator that logs to the standard logger.
func NewAggregator(store Store) *Aggregator {
	return &Aggregator{Store: store, Log: logrus.StandardLogger()}
}

// Populations returns the population under each of masks, in order.
// Each mask is checked with Align before it is read.
func (a *Aggregator) Populations(population string, masks []string) ([]float64, error) {
	population, err := a.resolve(population)
	if err != nil {
		return nil, err
	}
	demand, err := openDemand(a.Store, population)
	if err != nil {
		return nil, err
	}
	defer demand.Close()
	info := demand.Info()
	logGrid(a.Log, population, info)

	scratch := NewScratch(info)
	pops := make([]float64, 0, len(masks))
	for _, path := range masks {
		pop, err := a.population(demand, path, scratch)
		if err != nil {
			return nil, err
		}
		pops = append(pops, pop)
	}
	return pops, nil
}

func (a *Aggregator) resolve(location string) (string, error) {
	if a.Resolve == nil {
		return location, nil
	}
	return a.Resolve(location)
}

func (a *Aggregator) population(demand Grid, location string, scratch *Scratch) (float64, error) {
	path, err := a.resolve(location)
	if err != nil {
		return 0, err
	}
	mask, offset, err := openMask(a.Store, path, demand.Info())
	if err != nil {
		return 0, err
	}
	defer mask.Close()
	a.Log.WithFields(logrus.Fields{
		"facility": path,
		"offsetX":  offset.X,
		"offsetY":  offset.Y,
	}).Debug("processing facility")

	pop, err := sumUnder(demand, mask, offset, scratch)
	if err != nil {
		return 0, err
	}
	a.Log.WithFields(logrus.Fields{"facility": path, "population": pop}).Debug("counted population")
	return pop, nil
}
