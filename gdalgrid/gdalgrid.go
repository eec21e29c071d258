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

// Package gdalgrid stores demand grids as tiled GeoTIFF files through GDAL.
package gdalgrid

import (
	"fmt"
	"os"
	"strconv"

	"github.com/airbusgeo/godal"
	"github.com/planwise/demand"
)

func init() {
	godal.RegisterAll()
}

// Store opens and creates GeoTIFF grids on the local filesystem.
type Store struct {
	// CreationOptions are extra GTiff creation options (e.g.,
	// "COMPRESS=LZW") used by CreateCopy.
	CreationOptions []string
}

// Open implements demand.Store.
func (s Store) Open(path string) (demand.Grid, error) {
	return open(path)
}

func open(path string, opts ...godal.OpenOption) (*Grid, error) {
	ds, err := godal.Open(path, opts...)
	if err != nil {
		return nil, &demand.OpenError{Path: path, Err: err}
	}
	g, err := newGrid(path, ds)
	if err != nil {
		ds.Close()
		return nil, &demand.OpenError{Path: path, Err: err}
	}
	return g, nil
}

// CreateCopy implements demand.Store. The copy is tiled with the block size
// of src's first band.
func (s Store) CreateCopy(dst, src string) (demand.Grid, error) {
	in, err := open(src)
	if err != nil {
		return nil, err
	}
	info := in.Info()
	switches := []string{
		"-of", "GTiff",
		"-co", "TILED=YES",
		"-co", "BLOCKXSIZE=" + strconv.Itoa(info.BlockXSize),
		"-co", "BLOCKYSIZE=" + strconv.Itoa(info.BlockYSize),
	}
	for _, o := range s.CreationOptions {
		switches = append(switches, "-co", o)
	}
	out, err := in.ds.Translate(dst, switches)
	in.Close()
	if err != nil {
		return nil, &demand.OpenError{Path: dst, Err: fmt.Errorf("copying %s: %v", src, err)}
	}
	if err := out.Close(); err != nil {
		return nil, &demand.OpenError{Path: dst, Err: err}
	}
	return open(dst, godal.Update())
}

// Exists implements demand.Store.
func (s Store) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Remove implements demand.Store. It also removes the auxiliary metadata
// file GDAL may have written next to path.
func (s Store) Remove(path string) error {
	if err := os.Remove(path + ".aux.xml"); err != nil && !os.IsNotExist(err) {
		return err
	}
	return os.Remove(path)
}

// Grid is the first band of an open GDAL dataset.
type Grid struct {
	path string
	ds   *godal.Dataset
	band godal.Band
	info demand.GridInfo

	// packed holds edge blocks without padding before they are written.
	packed interface{}
}

func newGrid(path string, ds *godal.Dataset) (*Grid, error) {
	bands := ds.Bands()
	if len(bands) == 0 {
		return nil, fmt.Errorf("no raster bands")
	}
	gt, err := ds.GeoTransform()
	if err != nil {
		return nil, fmt.Errorf("reading geotransform: %v", err)
	}
	st := bands[0].Structure()
	info := demand.GridInfo{
		GeoTransform: gt,
		XSize:        st.SizeX,
		YSize:        st.SizeY,
		BlockXSize:   st.BlockSizeX,
		BlockYSize:   st.BlockSizeY,
		DataType:     dataType(st.DataType),
	}
	info.NoData, info.HasNoData = bands[0].NoData()
	return &Grid{path: path, ds: ds, band: bands[0], info: info}, nil
}

func dataType(t godal.DataType) demand.DataType {
	switch t {
	case godal.Byte:
		return demand.Byte
	case godal.Float32:
		return demand.Float32
	default:
		return demand.Other
	}
}

// Info implements demand.Grid.
func (g *Grid) Info() demand.GridInfo { return g.info }

// window returns the pixel origin and valid size of block (bx, by).
func (g *Grid) window(bx, by int) (x0, y0, w, h int, err error) {
	if bx < 0 || by < 0 || bx >= g.info.NXBlocks() || by >= g.info.NYBlocks() {
		return 0, 0, 0, 0, fmt.Errorf("gdalgrid: block (%d, %d) is outside %s", bx, by, g.path)
	}
	w, h = g.info.ValidBlockSize(bx, by)
	return bx * g.info.BlockXSize, by * g.info.BlockYSize, w, h, nil
}

// ReadBlock implements demand.Grid. GDAL returns the valid part of an edge
// block packed, so its rows are spread out to the block stride in place.
func (g *Grid) ReadBlock(bx, by int, buf interface{}) error {
	x0, y0, w, h, err := g.window(bx, by)
	if err != nil {
		return err
	}
	bw := g.info.BlockXSize
	switch b := buf.(type) {
	case []float32:
		if err := g.band.Read(x0, y0, b[:w*h], w, h); err != nil {
			return fmt.Errorf("gdalgrid: reading %s: %v", g.path, err)
		}
		for y := h - 1; y > 0 && w < bw; y-- {
			copy(b[y*bw:y*bw+w], b[y*w:y*w+w])
		}
	case []uint8:
		if err := g.band.Read(x0, y0, b[:w*h], w, h); err != nil {
			return fmt.Errorf("gdalgrid: reading %s: %v", g.path, err)
		}
		for y := h - 1; y > 0 && w < bw; y-- {
			copy(b[y*bw:y*bw+w], b[y*w:y*w+w])
		}
	default:
		return fmt.Errorf("gdalgrid: unsupported buffer type %T", buf)
	}
	return nil
}

// WriteBlock implements demand.Grid.
func (g *Grid) WriteBlock(bx, by int, buf interface{}) error {
	x0, y0, w, h, err := g.window(bx, by)
	if err != nil {
		return err
	}
	bw := g.info.BlockXSize
	switch b := buf.(type) {
	case []float32:
		if w < bw {
			p, _ := g.packed.([]float32)
			if len(p) < w*h {
				p = make([]float32, g.info.BlockLen())
				g.packed = p
			}
			for y := 0; y < h; y++ {
				copy(p[y*w:y*w+w], b[y*bw:])
			}
			b = p
		}
		err = g.band.Write(x0, y0, b[:w*h], w, h)
	case []uint8:
		if w < bw {
			p, _ := g.packed.([]uint8)
			if len(p) < w*h {
				p = make([]uint8, g.info.BlockLen())
				g.packed = p
			}
			for y := 0; y < h; y++ {
				copy(p[y*w:y*w+w], b[y*bw:])
			}
			b = p
		}
		err = g.band.Write(x0, y0, b[:w*h], w, h)
	default:
		return fmt.Errorf("gdalgrid: unsupported buffer type %T", buf)
	}
	if err != nil {
		return fmt.Errorf("gdalgrid: writing %s: %v", g.path, err)
	}
	return nil
}

// Metadata implements demand.Grid. GDAL does not distinguish empty values
// from missing ones, so an empty value counts as missing.
func (g *Grid) Metadata(domain, key string) (string, bool) {
	v := g.ds.Metadata(key, godal.Domain(domain))
	return v, v != ""
}

// SetMetadata implements demand.Grid.
func (g *Grid) SetMetadata(domain, key, value string) error {
	return g.ds.SetMetadata(key, value, godal.Domain(domain))
}

// Flush implements demand.Grid. Dirty blocks and metadata reach the file
// when the dataset is closed.
func (g *Grid) Flush() error { return nil }

// Close implements demand.Grid.
func (g *Grid) Close() error {
	return g.ds.Close()
}
