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

// Block describes one block of a grid together with the number of its
// columns and rows that lie inside the grid.
type Block struct {
	X, Y                    int
	ValidWidth, ValidHeight int
}

// blockWalk visits every block of a grid once, row by row.
type blockWalk struct {
	info GridInfo
	n    int
	cur  Block
}

func newBlockWalk(info GridInfo) *blockWalk {
	return &blockWalk{info: info}
}

func (w *blockWalk) Next() bool {
	nx, ny := w.info.NXBlocks(), w.info.NYBlocks()
	if w.n >= nx*ny {
		return false
	}
	bx, by := w.n%nx, w.n/nx
	vw, vh := w.info.ValidBlockSize(bx, by)
	w.cur = Block{X: bx, Y: by, ValidWidth: vw, ValidHeight: vh}
	w.n++
	return true
}

func (w *blockWalk) Block() Block { return w.cur }

// Scratch holds one block buffer per sample type. A single Scratch is
// allocated per run and reused for every block of every facility, so memory
// use does not depend on grid size or facility count.
type Scratch struct {
	Demand []float32
	Mask   []uint8
}

// NewScratch allocates buffers sized for the blocks of info.
func NewScratch(info GridInfo) *Scratch {
	return &Scratch{
		Demand: make([]float32, info.BlockLen()),
		Mask:   make([]uint8, info.BlockLen()),
	}
}

// Overlay streams the blocks of a facility mask together with the demand
// blocks they cover. Each call to Next overwrites the scratch buffers with
// the next pair, so their contents must not be kept across calls.
// An Overlay cannot be restarted.
type Overlay struct {
	demand, mask Grid
	offset       BlockOffset
	scratch      *Scratch
	walk         *blockWalk
	err          error
}

// NewOverlay returns an Overlay over every block of mask. offset must come
// from Align.
func NewOverlay(demand, mask Grid, offset BlockOffset, scratch *Scratch) *Overlay {
	return &Overlay{
		demand:  demand,
		mask:    mask,
		offset:  offset,
		scratch: scratch,
		walk:    newBlockWalk(mask.Info()),
	}
}

// Next reads the next block pair into the scratch buffers. It returns false
// when all blocks have been visited or a read failed; check Err.
func (o *Overlay) Next() bool {
	if o.err != nil || !o.walk.Next() {
		return false
	}
	b := o.walk.Block()
	dx, dy := o.DemandBlock()
	if err := o.demand.ReadBlock(dx, dy, o.scratch.Demand); err != nil {
		o.err = fmt.Errorf("demand: reading demand block (%d, %d): %v", dx, dy, err)
		return false
	}
	if err := o.mask.ReadBlock(b.X, b.Y, o.scratch.Mask); err != nil {
		o.err = fmt.Errorf("demand: reading mask block (%d, %d): %v", b.X, b.Y, err)
		return false
	}
	return true
}

// Block returns the current mask block.
func (o *Overlay) Block() Block { return o.walk.Block() }

// DemandBlock returns the coordinates of the demand block under the current
// mask block.
func (o *Overlay) DemandBlock() (bx, by int) {
	b := o.walk.Block()
	return b.X + o.offset.X, b.Y + o.offset.Y
}

// Err returns the first read error, if any.
func (o *Overlay) Err() error { return o.err }
