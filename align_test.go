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
)

func TestAlign(t *testing.T) {
	demand := testInfo(0, 1000, 1, 128, 128, 16)

	tests := []struct {
		name     string
		facility GridInfo
		want     BlockOffset
		fail     bool
	}{
		{
			name:     "same origin",
			facility: testInfo(0, 1000, 1, 128, 128, 16),
			want:     BlockOffset{0, 0},
		},
		{
			name:     "offset",
			facility: testInfo(16, 968, 1, 32, 32, 16),
			want:     BlockOffset{1, 2},
		},
		{
			name:     "within epsilon",
			facility: testInfo(16.05, 967.95, 1, 32, 32, 16),
			want:     BlockOffset{1, 2},
		},
		{
			name:     "touching far edges",
			facility: testInfo(64, 936, 1, 64, 64, 16),
			want:     BlockOffset{4, 4},
		},
		{
			name:     "half block",
			facility: testInfo(8, 1000, 1, 32, 32, 16),
			fail:     true,
		},
		{
			name:     "resolution",
			facility: testInfo(0, 1000, 2, 32, 32, 16),
			fail:     true,
		},
		{
			name:     "north",
			facility: testInfo(0, 1016, 1, 32, 32, 16),
			fail:     true,
		},
		{
			name:     "west",
			facility: testInfo(-16, 1000, 1, 32, 32, 16),
			fail:     true,
		},
		{
			name:     "too wide",
			facility: testInfo(16, 1000, 1, 120, 10, 16),
			fail:     true,
		},
		{
			name:     "too tall",
			facility: testInfo(0, 904, 1, 10, 40, 16),
			fail:     true,
		},
		{
			name:     "block size",
			facility: testInfo(0, 1000, 1, 32, 32, 32),
			fail:     true,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			have, err := Align(demand, test.facility, test.name)
			if test.fail {
				if _, ok := err.(*AlignmentError); !ok {
					t.Fatalf("want *AlignmentError, have %v", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if have != test.want {
				t.Errorf("have %+v, want %+v", have, test.want)
			}
		})
	}
}

func TestAlignOffsetsAreWhole(t *testing.T) {
	demand := testInfo(500, 9000, 30, 512, 512, 64)
	for bx := 0; bx < 4; bx++ {
		for by := 0; by < 4; by++ {
			x0 := 500 + float64(bx*64)*30 + 0.001
			y0 := 9000 - float64(by*64)*30 - 0.001
			offset, err := Align(demand, testInfo(x0, y0, 30, 64, 64, 64), "mask")
			if err != nil {
				t.Fatalf("(%d, %d): %v", bx, by, err)
			}
			if offset.X != bx || offset.Y != by {
				t.Errorf("have %+v, want {%d %d}", offset, bx, by)
			}
			rawX := (x0 - 500) / (64 * 30)
			if math.Abs(rawX-float64(offset.X)) >= Epsilon {
				t.Errorf("raw offset %g too far from %d", rawX, offset.X)
			}
		}
	}
}
