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
	"math"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"gonum.org/v1/gonum/floats"
)

func TestSumMasked(t *testing.T) {
	// 3x2 valid samples in a block with a stride of 4.
	demand := []float32{
		1, 2, -1, 100,
		4, 5, 6, 100,
		100, 100, 100, 100,
	}
	mask := []uint8{
		1, 0, 1, 1,
		1, 1, 1, 1,
		1, 1, 1, 1,
	}
	have := SumMasked(demand, mask, 4, 3, 2, -1, 0)
	if want := 1.0 + 4 + 5 + 6; have != want {
		t.Errorf("have %g, want %g", have, want)
	}
}

func TestIsNoData(t *testing.T) {
	nan := float32(math.NaN())
	tests := []struct {
		v, nodata float32
		want      bool
	}{
		{v: -1, nodata: -1, want: true},
		{v: 0, nodata: -1, want: false},
		{v: nan, nodata: nan, want: true},
		{v: 3, nodata: nan, want: false},
		{v: nan, nodata: -1, want: false},
	}
	for _, test := range tests {
		if have := IsNoData(test.v, test.nodata); have != test.want {
			t.Errorf("IsNoData(%g, %g) = %v, want %v", test.v, test.nodata, have, test.want)
		}
	}
	demand := []float32{1, 1, nan, nan}
	if have := SumMasked(demand, []uint8{1, 1, 1, 1}, 2, 2, 2, nan, 0); have != 2 {
		t.Errorf("SumMasked with NaN nodata: have %g, want 2", have)
	}
}

// halfNaN returns a population grid that holds 1 in its left half and the
// NaN nodata value in its right half.
func halfNaN(s *MemStore, path string, size, block int) GridInfo {
	info := testInfo(0, float64(size), 1, size, size, block)
	info.NoData, info.HasNoData = math.NaN(), true
	pop := make([]float32, size*size)
	for i := range pop {
		if i%size < size/2 {
			pop[i] = 1
		} else {
			pop[i] = float32(math.NaN())
		}
	}
	s.AddFloat32(path, info, pop)
	return info
}

func TestAggregatorNaNNoData(t *testing.T) {
	s := NewMemStore()
	info := halfNaN(s, "pop", 32, 16)
	s.AddByte("all", info, rectMask(32, 32, 0, 0, 32, 32))
	s.AddByte("right", info, rectMask(32, 32, 16, 0, 32, 32))

	pops, err := newAggregator(s).Populations("pop", []string{"all", "right"})
	if err != nil {
		t.Fatal(err)
	}
	if !floats.Equal(pops, []float64{512, 0}) {
		t.Errorf("have %v, want [512 0]", pops)
	}
}

func newAggregator(s Store) *Aggregator {
	a := NewAggregator(s)
	a.Log, _ = test.NewNullLogger()
	return a
}

func TestAggregatorDisjointMasks(t *testing.T) {
	s := NewMemStore()
	info := testInfo(0, 100, 1, 40, 36, 16)
	info.NoData, info.HasNoData = -1, true
	pop := make([]float32, 40*36)
	var total float64
	for i := range pop {
		pop[i] = float32(i % 7)
		if i%11 == 0 {
			pop[i] = -1
			continue
		}
		total += float64(pop[i])
	}
	s.AddFloat32("pop", info, pop)
	s.AddByte("left", info, rectMask(40, 36, 0, 0, 20, 36))
	s.AddByte("right", info, rectMask(40, 36, 20, 0, 40, 36))

	var left, right float64
	for y := 0; y < 36; y++ {
		for x := 0; x < 40; x++ {
			v := pop[y*40+x]
			if v == -1 {
				continue
			}
			if x < 20 {
				left += float64(v)
			} else {
				right += float64(v)
			}
		}
	}

	pops, err := newAggregator(s).Populations("pop", []string{"left", "right"})
	if err != nil {
		t.Fatal(err)
	}
	if !floats.Equal(pops, []float64{left, right}) {
		t.Errorf("have %v, want %v", pops, []float64{left, right})
	}
	if pops[0]+pops[1] != total {
		t.Errorf("counts are not additive: %g + %g != %g", pops[0], pops[1], total)
	}
	if s.OpenGrids() != 0 {
		t.Errorf("%d grids left open", s.OpenGrids())
	}
}

func TestAggregatorOffsetMask(t *testing.T) {
	s := NewMemStore()
	info := testInfo(0, 64, 1, 64, 64, 16)
	pop := make([]float32, 64*64)
	for i := range pop {
		pop[i] = float32(i)
	}
	s.AddFloat32("pop", info, pop)

	// A 20x20 mask starting at block (1, 2) of the population grid.
	s.AddByte("mask", testInfo(16, 32, 1, 20, 20, 16), rectMask(20, 20, 0, 0, 20, 20))

	var want float64
	for y := 32; y < 52; y++ {
		for x := 16; x < 36; x++ {
			want += float64(pop[y*64+x])
		}
	}
	pops, err := newAggregator(s).Populations("pop", []string{"mask"})
	if err != nil {
		t.Fatal(err)
	}
	if pops[0] != want {
		t.Errorf("have %g, want %g", pops[0], want)
	}
}

func TestAggregatorErrors(t *testing.T) {
	info := testInfo(0, 32, 1, 32, 32, 16)
	setup := func() *MemStore {
		s := NewMemStore()
		s.AddFloat32("pop", info, uniform(32*32, 1))
		s.AddByte("ok", info, rectMask(32, 32, 0, 0, 32, 32))
		return s
	}

	t.Run("missing mask", func(t *testing.T) {
		s := setup()
		_, err := newAggregator(s).Populations("pop", []string{"ok", "missing"})
		if _, ok := err.(*OpenError); !ok {
			t.Errorf("want *OpenError, have %v", err)
		}
		if s.OpenGrids() != 0 {
			t.Errorf("%d grids left open", s.OpenGrids())
		}
	})
	t.Run("float mask", func(t *testing.T) {
		s := setup()
		s.AddFloat32("mask", info, uniform(32*32, 1))
		_, err := newAggregator(s).Populations("pop", []string{"mask"})
		if _, ok := err.(*TypeError); !ok {
			t.Errorf("want *TypeError, have %v", err)
		}
		if s.OpenGrids() != 0 {
			t.Errorf("%d grids left open", s.OpenGrids())
		}
	})
	t.Run("mask nodata", func(t *testing.T) {
		s := setup()
		mi := info
		mi.NoData, mi.HasNoData = 255, true
		s.AddByte("mask", mi, rectMask(32, 32, 0, 0, 32, 32))
		_, err := newAggregator(s).Populations("pop", []string{"mask"})
		if _, ok := err.(*TypeError); !ok {
			t.Errorf("want *TypeError, have %v", err)
		}
	})
	t.Run("byte population", func(t *testing.T) {
		s := setup()
		_, err := newAggregator(s).Populations("ok", []string{"ok"})
		if _, ok := err.(*TypeError); !ok {
			t.Errorf("want *TypeError, have %v", err)
		}
		if s.OpenGrids() != 0 {
			t.Errorf("%d grids left open", s.OpenGrids())
		}
	})
	t.Run("misaligned", func(t *testing.T) {
		s := setup()
		s.AddByte("mask", testInfo(8, 32, 1, 8, 8, 16), rectMask(8, 8, 0, 0, 8, 8))
		_, err := newAggregator(s).Populations("pop", []string{"mask"})
		if _, ok := err.(*AlignmentError); !ok {
			t.Errorf("want *AlignmentError, have %v", err)
		}
		if s.OpenGrids() != 0 {
			t.Errorf("%d grids left open", s.OpenGrids())
		}
	})
}
