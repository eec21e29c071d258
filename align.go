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

	"gonum.org/v1/gonum/floats"
)

// Epsilon is the tolerance used when comparing resolutions, origins and
// block offsets of two grids.
const Epsilon = 0.01

// BlockOffset is the number of demand grid blocks between the demand grid
// origin and a facility mask origin along each axis.
type BlockOffset struct {
	X, Y int
}

// Align returns the block offset that maps facility block coordinates onto
// demand block coordinates. path is only used in error messages.
// It returns an *AlignmentError if the facility grid does not start on a
// demand block boundary or does not fit inside the demand grid.
func Align(demand, facility GridInfo, path string) (BlockOffset, error) {
	fail := func(format string, args ...interface{}) (BlockOffset, error) {
		return BlockOffset{}, &AlignmentError{Path: path, Reason: fmt.Sprintf(format, args...)}
	}

	if demand.BlockXSize != facility.BlockXSize || demand.BlockYSize != facility.BlockYSize {
		return fail("block size %dx%d differs from demand block size %dx%d",
			facility.BlockXSize, facility.BlockYSize, demand.BlockXSize, demand.BlockYSize)
	}

	demandMinX, demandMaxY := demand.Origin()
	demandXRes, demandYRes := demand.Resolution()
	facilityMinX, facilityMaxY := facility.Origin()
	facilityXRes, facilityYRes := facility.Resolution()

	if !floats.EqualWithinAbs(facilityXRes, demandXRes, Epsilon) ||
		!floats.EqualWithinAbs(facilityYRes, demandYRes, Epsilon) {
		return fail("resolution (%g, %g) differs from demand resolution (%g, %g)",
			facilityXRes, facilityYRes, demandXRes, demandYRes)
	}
	if facilityMaxY > demandMaxY+Epsilon {
		return fail("top edge %g lies north of the demand top edge %g", facilityMaxY, demandMaxY)
	}
	if facilityMinX+Epsilon < demandMinX {
		return fail("left edge %g lies west of the demand left edge %g", facilityMinX, demandMinX)
	}

	blocksX := (facilityMinX - demandMinX) / (float64(demand.BlockXSize) * demandXRes)
	blocksY := (facilityMaxY - demandMaxY) / (float64(demand.BlockYSize) * demandYRes)
	offset := BlockOffset{X: int(math.Round(blocksX)), Y: int(math.Round(blocksY))}

	if !floats.EqualWithinAbs(blocksX, float64(offset.X), Epsilon) ||
		!floats.EqualWithinAbs(blocksY, float64(offset.Y), Epsilon) {
		return fail("origin is %g, %g blocks from the demand origin, which is not a whole number of blocks",
			blocksX, blocksY)
	}

	if facility.XSize > demand.XSize-demand.BlockXSize*offset.X ||
		facility.YSize > demand.YSize-demand.BlockYSize*offset.Y {
		return fail("%dx%d pixels at block offset (%d, %d) extend past the %dx%d demand grid",
			facility.XSize, facility.YSize, offset.X, offset.Y, demand.XSize, demand.YSize)
	}
	return offset, nil
}
