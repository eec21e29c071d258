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
	"testing"

	"github.com/ctessum/geom"
	"github.com/kr/pretty"
)

// testInfo returns a north-up grid descriptor with square pixels of size
// res and square blocks of size block.
func testInfo(x0, y0, res float64, xSize, ySize, block int) GridInfo {
	return GridInfo{
		GeoTransform: [6]float64{x0, res, 0, y0, 0, -res},
		XSize:        xSize,
		YSize:        ySize,
		BlockXSize:   block,
		BlockYSize:   block,
	}
}

func uniform(n int, v float32) []float32 {
	d := make([]float32, n)
	for i := range d {
		d[i] = v
	}
	return d
}

// rectMask returns an xSize by ySize mask that is 1 inside the half-open
// pixel rectangle [x0, x1) x [y0, y1) and 0 elsewhere.
func rectMask(xSize, ySize, x0, y0, x1, y1 int) []uint8 {
	m := make([]uint8, xSize*ySize)
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			m[y*xSize+x] = 1
		}
	}
	return m
}

func TestValidBlockSize(t *testing.T) {
	g := testInfo(0, 0, 1, 300, 200, 128)
	if g.NXBlocks() != 3 || g.NYBlocks() != 2 {
		t.Fatalf("blocks: have %dx%d, want 3x2", g.NXBlocks(), g.NYBlocks())
	}
	tests := []struct {
		bx, by, w, h int
	}{
		{0, 0, 128, 128},
		{1, 0, 128, 128},
		{2, 0, 44, 128},
		{0, 1, 128, 72},
		{2, 1, 44, 72},
	}
	for _, test := range tests {
		w, h := g.ValidBlockSize(test.bx, test.by)
		if w != test.w || h != test.h {
			t.Errorf("block (%d, %d): have %dx%d, want %dx%d", test.bx, test.by, w, h, test.w, test.h)
		}
	}
}

func TestBlockWalk(t *testing.T) {
	w := newBlockWalk(testInfo(0, 0, 1, 20, 40, 16))
	var have []Block
	for w.Next() {
		have = append(have, w.Block())
	}
	want := []Block{
		{X: 0, Y: 0, ValidWidth: 16, ValidHeight: 16},
		{X: 1, Y: 0, ValidWidth: 4, ValidHeight: 16},
		{X: 0, Y: 1, ValidWidth: 16, ValidHeight: 16},
		{X: 1, Y: 1, ValidWidth: 4, ValidHeight: 16},
		{X: 0, Y: 2, ValidWidth: 16, ValidHeight: 8},
		{X: 1, Y: 2, ValidWidth: 4, ValidHeight: 8},
	}
	if diff := pretty.Diff(have, want); len(diff) != 0 {
		t.Errorf("blocks differ: %v", diff)
	}
	if w.Next() {
		t.Error("walk should not restart")
	}
}

func TestBounds(t *testing.T) {
	b := testInfo(100, 500, 10, 30, 20, 16).Bounds()
	want := &geom.Bounds{Min: geom.Point{X: 100, Y: 300}, Max: geom.Point{X: 400, Y: 500}}
	if diff := pretty.Diff(b, want); len(diff) != 0 {
		t.Errorf("bounds differ: %v", diff)
	}
}

func TestMemStoreEdgePadding(t *testing.T) {
	s := NewMemStore()
	info := testInfo(0, 0, 1, 20, 20, 16)
	s.AddFloat32("pop", info, uniform(400, 2))
	g, err := s.Open("pop")
	if err != nil {
		t.Fatal(err)
	}
	defer g.Close()
	buf := make([]float32, info.BlockLen())
	if err := g.ReadBlock(1, 1, buf); err != nil {
		t.Fatal(err)
	}
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			want := padFloat32
			if x < 4 && y < 4 {
				want = 2
			}
			if v := buf[y*16+x]; v != want {
				t.Fatalf("(%d, %d): have %g, want %g", x, y, v, want)
			}
		}
	}
	if err := g.WriteBlock(0, 0, buf); err == nil {
		t.Error("read-only grid accepted a write")
	}
	if err := g.ReadBlock(2, 0, buf); err == nil {
		t.Error("out of range block was read")
	}
}
