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
	"errors"
	"fmt"
)

// Values returned for the out-of-bounds part of an edge block, so that
// reading past the grid shows up in results.
const (
	padFloat32 float32 = 1e30
	padByte    uint8   = 0xff
)

// MemStore is a Store that keeps grids in memory. It is meant for tests
// and dry runs.
type MemStore struct {
	grids map[string]*memData

	// Writes counts block writes made through grids of this store.
	Writes int

	open int
}

// NewMemStore returns an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{grids: make(map[string]*memData)}
}

type memData struct {
	info     GridInfo
	float32s []float32
	bytes    []uint8
	metadata map[string]string
}

// AddFloat32 adds a Float32 grid whose row-major samples are data.
func (s *MemStore) AddFloat32(path string, info GridInfo, data []float32) {
	info.DataType = Float32
	if len(data) != info.XSize*info.YSize {
		panic(fmt.Errorf("demand: %s needs %d samples, got %d", path, info.XSize*info.YSize, len(data)))
	}
	s.grids[path] = &memData{info: info, float32s: append([]float32(nil), data...), metadata: make(map[string]string)}
}

// AddByte adds a Byte grid whose row-major samples are data.
func (s *MemStore) AddByte(path string, info GridInfo, data []uint8) {
	info.DataType = Byte
	if len(data) != info.XSize*info.YSize {
		panic(fmt.Errorf("demand: %s needs %d samples, got %d", path, info.XSize*info.YSize, len(data)))
	}
	s.grids[path] = &memData{info: info, bytes: append([]uint8(nil), data...), metadata: make(map[string]string)}
}

// Float32s returns the current samples of a Float32 grid, or nil if there
// is no such grid.
func (s *MemStore) Float32s(path string) []float32 {
	d, ok := s.grids[path]
	if !ok {
		return nil
	}
	return d.float32s
}

// Open implements Store.
func (s *MemStore) Open(path string) (Grid, error) {
	d, ok := s.grids[path]
	if !ok {
		return nil, &OpenError{Path: path, Err: errors.New("no such grid")}
	}
	s.open++
	return &memGrid{memData: d, store: s, path: path, readOnly: true}, nil
}

// CreateCopy implements Store. Metadata is not copied.
func (s *MemStore) CreateCopy(dst, src string) (Grid, error) {
	d, ok := s.grids[src]
	if !ok {
		return nil, &OpenError{Path: src, Err: errors.New("no such grid")}
	}
	c := &memData{
		info:     d.info,
		float32s: append([]float32(nil), d.float32s...),
		bytes:    append([]uint8(nil), d.bytes...),
		metadata: make(map[string]string),
	}
	s.grids[dst] = c
	s.open++
	return &memGrid{memData: c, store: s, path: dst}, nil
}

// OpenGrids returns the number of grid handles that have not been closed.
func (s *MemStore) OpenGrids() int { return s.open }

// Exists implements Store.
func (s *MemStore) Exists(path string) bool {
	_, ok := s.grids[path]
	return ok
}

// Remove implements Store.
func (s *MemStore) Remove(path string) error {
	if _, ok := s.grids[path]; !ok {
		return fmt.Errorf("demand: no grid %s", path)
	}
	delete(s.grids, path)
	return nil
}

// memGrid is an open handle on a memData.
type memGrid struct {
	*memData
	store    *MemStore
	path     string
	readOnly bool
	closed   bool
}

func (g *memGrid) Info() GridInfo { return g.info }

// window returns the origin and valid size of block (bx, by).
func (g *memGrid) window(bx, by int) (x0, y0, w, h int, err error) {
	if g.closed {
		return 0, 0, 0, 0, fmt.Errorf("demand: %s is closed", g.path)
	}
	if bx < 0 || by < 0 || bx >= g.info.NXBlocks() || by >= g.info.NYBlocks() {
		return 0, 0, 0, 0, fmt.Errorf("demand: block (%d, %d) is outside %s", bx, by, g.path)
	}
	w, h = g.info.ValidBlockSize(bx, by)
	return bx * g.info.BlockXSize, by * g.info.BlockYSize, w, h, nil
}

func (g *memGrid) ReadBlock(bx, by int, buf interface{}) error {
	x0, y0, w, h, err := g.window(bx, by)
	if err != nil {
		return err
	}
	bw, bh := g.info.BlockXSize, g.info.BlockYSize
	switch b := buf.(type) {
	case []float32:
		if g.info.DataType != Float32 || len(b) < bw*bh {
			return fmt.Errorf("demand: invalid buffer for %s", g.path)
		}
		for y := 0; y < bh; y++ {
			row := b[y*bw : (y+1)*bw]
			n := 0
			if y < h {
				n = copy(row[:w], g.float32s[(y0+y)*g.info.XSize+x0:])
			}
			for i := n; i < bw; i++ {
				row[i] = padFloat32
			}
		}
	case []uint8:
		if g.info.DataType != Byte || len(b) < bw*bh {
			return fmt.Errorf("demand: invalid buffer for %s", g.path)
		}
		for y := 0; y < bh; y++ {
			row := b[y*bw : (y+1)*bw]
			n := 0
			if y < h {
				n = copy(row[:w], g.bytes[(y0+y)*g.info.XSize+x0:])
			}
			for i := n; i < bw; i++ {
				row[i] = padByte
			}
		}
	default:
		return fmt.Errorf("demand: unsupported buffer type %T", buf)
	}
	return nil
}

func (g *memGrid) WriteBlock(bx, by int, buf interface{}) error {
	if g.readOnly {
		return fmt.Errorf("demand: %s is read-only", g.path)
	}
	x0, y0, w, h, err := g.window(bx, by)
	if err != nil {
		return err
	}
	bw := g.info.BlockXSize
	switch b := buf.(type) {
	case []float32:
		if g.info.DataType != Float32 {
			return fmt.Errorf("demand: invalid buffer for %s", g.path)
		}
		for y := 0; y < h; y++ {
			copy(g.float32s[(y0+y)*g.info.XSize+x0:(y0+y)*g.info.XSize+x0+w], b[y*bw:])
		}
	case []uint8:
		if g.info.DataType != Byte {
			return fmt.Errorf("demand: invalid buffer for %s", g.path)
		}
		for y := 0; y < h; y++ {
			copy(g.bytes[(y0+y)*g.info.XSize+x0:(y0+y)*g.info.XSize+x0+w], b[y*bw:])
		}
	default:
		return fmt.Errorf("demand: unsupported buffer type %T", buf)
	}
	g.store.Writes++
	return nil
}

func (g *memGrid) Metadata(domain, key string) (string, bool) {
	v, ok := g.metadata[domain+":"+key]
	return v, ok
}

func (g *memGrid) SetMetadata(domain, key, value string) error {
	if g.readOnly {
		return fmt.Errorf("demand: %s is read-only", g.path)
	}
	g.metadata[domain+":"+key] = value
	return nil
}

func (g *memGrid) Flush() error { return nil }

func (g *memGrid) Close() error {
	if g.closed {
		return fmt.Errorf("demand: %s already closed", g.path)
	}
	g.closed = true
	g.store.open--
	return nil
}
