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

// Package demand computes how much population demand remains unsatisfied
// once the catchments of a sequence of capacity-limited facilities have been
// applied to a population density grid.
//
// Grids are processed block by block. A facility mask only needs to cover
// part of the population grid, as long as it starts on a population grid
// block boundary.
package demand

import (
	"fmt"
	"math"

	"github.com/ctessum/geom"
)

// Version gives the version number.
const Version = "0.3.0"

// DataType is the sample type of a grid band.
type DataType int

// These are the sample types the engine knows about.
const (
	Other DataType = iota
	Byte
	Float32
)

func (t DataType) String() string {
	switch t {
	case Byte:
		return "Byte"
	case Float32:
		return "Float32"
	default:
		return "Other"
	}
}

// GridInfo holds the immutable metadata of an open single-band grid.
type GridInfo struct {
	// GeoTransform follows the GDAL convention:
	// {originX, dx, 0, originY, 0, dy}, where dy is usually negative.
	GeoTransform [6]float64

	// XSize and YSize are the grid dimensions in pixels.
	XSize, YSize int

	// BlockXSize and BlockYSize are the tile dimensions in pixels.
	BlockXSize, BlockYSize int

	DataType DataType

	// NoData is the nodata sentinel. It is only meaningful when HasNoData
	// is true.
	NoData    float64
	HasNoData bool
}

// Origin returns the coordinates of the upper-left corner of the grid.
func (g GridInfo) Origin() (x, y float64) { return g.GeoTransform[0], g.GeoTransform[3] }

// Resolution returns the pixel size along each axis.
func (g GridInfo) Resolution() (dx, dy float64) { return g.GeoTransform[1], g.GeoTransform[5] }

// NXBlocks returns the number of block columns, including a partial one.
func (g GridInfo) NXBlocks() int { return (g.XSize + g.BlockXSize - 1) / g.BlockXSize }

// NYBlocks returns the number of block rows, including a partial one.
func (g GridInfo) NYBlocks() int { return (g.YSize + g.BlockYSize - 1) / g.BlockYSize }

// BlockLen is the number of samples in one block buffer.
func (g GridInfo) BlockLen() int { return g.BlockXSize * g.BlockYSize }

// ValidBlockSize returns the number of in-bounds columns and rows of block
// (bx, by). Only blocks in the last column or row can be smaller than the
// block size.
func (g GridInfo) ValidBlockSize(bx, by int) (w, h int) {
	w, h = g.BlockXSize, g.BlockYSize
	if bx == g.NXBlocks()-1 {
		w = g.XSize - bx*g.BlockXSize
	}
	if by == g.NYBlocks()-1 {
		h = g.YSize - by*g.BlockYSize
	}
	return w, h
}

// Bounds returns the geographic extent of the grid.
func (g GridInfo) Bounds() *geom.Bounds {
	x0, y0 := g.Origin()
	dx, dy := g.Resolution()
	b := geom.NewBoundsPoint(geom.Point{X: x0, Y: y0})
	b.Extend(geom.NewBoundsPoint(geom.Point{
		X: x0 + dx*float64(g.XSize),
		Y: y0 + dy*float64(g.YSize),
	}))
	return b
}

// float32NoData returns the demand nodata sentinel as a float32. A grid
// without one yields NaN, so that only NaN samples are skipped.
func (g GridInfo) float32NoData() float32 {
	if !g.HasNoData {
		return float32(math.NaN())
	}
	return float32(g.NoData)
}

// IsNoData reports whether the demand sample v holds the nodata value
// nodata. A NaN nodata value matches NaN samples.
func IsNoData(v, nodata float32) bool {
	return v == nodata || (nodata != nodata && v != v)
}

func (g GridInfo) String() string {
	x, y := g.Origin()
	dx, dy := g.Resolution()
	nodata := "none"
	if g.HasNoData {
		nodata = fmt.Sprint(g.NoData)
	}
	return fmt.Sprintf("%dx%d %s grid at (%g, %g), resolution (%g, %g), blocks %dx%d (%dx%d), nodata %s",
		g.XSize, g.YSize, g.DataType, x, y, dx, dy, g.BlockXSize, g.BlockYSize,
		g.NXBlocks(), g.NYBlocks(), nodata)
}

// Grid is an open single-band raster addressed by block coordinates.
// Block buffers are []float32 for Float32 grids and []uint8 for Byte grids.
// They hold BlockXSize*BlockYSize samples laid out with a row stride of
// BlockXSize; samples outside the valid part of an edge block are undefined.
type Grid interface {
	Info() GridInfo
	ReadBlock(bx, by int, buf interface{}) error
	WriteBlock(bx, by int, buf interface{}) error

	// Metadata returns the value stored under key in the given domain and
	// whether it was present.
	Metadata(domain, key string) (string, bool)
	SetMetadata(domain, key, value string) error

	Flush() error
	Close() error
}

// Store opens and creates grids by path.
type Store interface {
	// Open opens an existing grid read-only. It returns an *OpenError if the
	// grid cannot be opened.
	Open(path string) (Grid, error)

	// CreateCopy creates a tiled, writable copy of src at dst, keeping the
	// block size, geometry, sample type and nodata of src.
	CreateCopy(dst, src string) (Grid, error)

	Exists(path string) bool
	Remove(path string) error
}
