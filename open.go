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

	"github.com/sirupsen/logrus"
)

// maskNoData is the only nodata value accepted for facility masks.
const maskNoData uint8 = 0

// openDemand opens a population grid and checks that it holds Float32
// samples.
func openDemand(store Store, path string) (Grid, error) {
	g, err := store.Open(path)
	if err != nil {
		return nil, err
	}
	if err := checkDemand(g.Info(), path); err != nil {
		g.Close()
		return nil, err
	}
	return g, nil
}

func checkDemand(info GridInfo, path string) error {
	if info.DataType != Float32 {
		return &TypeError{Path: path, Reason: fmt.Sprintf("demand grid must hold Float32 samples, not %s", info.DataType)}
	}
	if info.BlockXSize <= 0 || info.BlockYSize <= 0 {
		return &TypeError{Path: path, Reason: fmt.Sprintf("invalid block size %dx%d", info.BlockXSize, info.BlockYSize)}
	}
	return nil
}

// openMask opens a facility mask, checks its sample type and nodata value,
// and aligns it with the demand grid. The mask is closed again on failure.
func openMask(store Store, path string, demand GridInfo) (Grid, BlockOffset, error) {
	g, err := store.Open(path)
	if err != nil {
		return nil, BlockOffset{}, err
	}
	info := g.Info()
	if info.DataType != Byte {
		g.Close()
		return nil, BlockOffset{}, &TypeError{Path: path, Reason: fmt.Sprintf("facility mask must hold Byte samples, not %s", info.DataType)}
	}
	if info.HasNoData && info.NoData != float64(maskNoData) {
		g.Close()
		return nil, BlockOffset{}, &TypeError{Path: path, Reason: fmt.Sprintf("facility mask nodata must be %d, not %g", maskNoData, info.NoData)}
	}
	offset, err := Align(demand, info, path)
	if err != nil {
		g.Close()
		return nil, BlockOffset{}, err
	}
	return g, offset, nil
}

func logGrid(log logrus.FieldLogger, path string, info GridInfo) {
	log.WithFields(logrus.Fields{
		"grid":       path,
		"xSize":      info.XSize,
		"ySize":      info.YSize,
		"xBlockSize": info.BlockXSize,
		"yBlockSize": info.BlockYSize,
		"nXBlocks":   info.NXBlocks(),
		"nYBlocks":   info.NYBlocks(),
	}).Debug("grid properties")
}
