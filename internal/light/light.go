// Package light computes per-chunk voxel light before meshing. Each voxel
// carries one packed byte: sky light in the high nibble, block light in the
// low nibble.
package light

import (
	"github.com/diamondpixel/FakeMinecraft-sub000/internal/block"
	"github.com/diamondpixel/FakeMinecraft-sub000/internal/geom"
	"github.com/diamondpixel/FakeMinecraft-sub000/internal/voxel"
)

// MaxLevel is full brightness for either channel.
const MaxLevel uint8 = 15

// Block extracts the block light nibble.
func Block(l uint8) uint8 { return l & 0x0F }

// Sky extracts the sky light nibble.
func Sky(l uint8) uint8 { return l >> 4 }

// Pack combines the two channels into one byte.
func Pack(sky, blk uint8) uint8 { return sky<<4 | blk&0x0F }

// FullSky is the value of open air above the terrain.
const FullSky = MaxLevel << 4

// Input is everything one chunk's light depends on. Nil neighbor entries
// read as ungenerated space: air for geometry, darkness for block light,
// open sky above.
type Input struct {
	Center        *voxel.Buffer
	Neighbors     [geom.FaceCount]*voxel.Buffer
	NeighborLight [geom.FaceCount][]uint8
}

type Propagator struct {
	reg *block.Registry
}

func NewPropagator(reg *block.Registry) *Propagator {
	return &Propagator{reg: reg}
}

// Compute returns the packed light array for the chunk, parallel to the
// voxel buffer. Deterministic for identical inputs.
func (p *Propagator) Compute(in Input) []uint8 {
	d := in.Center.Dims()
	vol := d.Volume()
	sky := make([]uint8, vol)
	blk := make([]uint8, vol)

	p.skyPass(in, d, sky)
	p.blockPass(in, d, blk)

	out := make([]uint8, vol)
	for i := range out {
		out[i] = Pack(sky[i], blk[i])
	}
	return out
}

func blocksSky(c block.Category) bool {
	return c == block.Solid || c == block.Leaves || c == block.Liquid
}

// skyPass scans every column top-down: full brightness until the first
// sky-blocking voxel, darkness from it on. A generated chunk above continues
// its columns instead of assuming open sky.
func (p *Propagator) skyPass(in Input, d voxel.Dims, sky []uint8) {
	data := in.Center.Data()
	above := in.NeighborLight[geom.Top]
	for z := 0; z < d.Width; z++ {
		for x := 0; x < d.Width; x++ {
			open := true
			if above != nil {
				open = Sky(above[d.Index(x, 0, z)]) == MaxLevel
			}
			for y := d.Height - 1; y >= 0; y-- {
				i := d.Index(x, y, z)
				if open && data[i] != block.Air && blocksSky(p.reg.Lookup(data[i]).Category) {
					open = false
				}
				if open {
					sky[i] = MaxLevel
				}
			}
		}
	}
}

// blockPass floods block light outward from emissive voxels and from lit
// neighbor edges, losing one level per step. Solid voxels absorb.
func (p *Propagator) blockPass(in Input, d voxel.Dims, blk []uint8) {
	data := in.Center.Data()
	queue := make([]int32, 0, 1024)

	for i, id := range data {
		if id == block.Air {
			continue
		}
		if e := p.reg.Lookup(id).Emission; e > 0 {
			blk[i] = e
			queue = append(queue, int32(i))
		}
	}
	for _, f := range geom.Faces {
		p.seedFace(in, d, f, blk, &queue)
	}

	for head := 0; head < len(queue); head++ {
		i := int(queue[head])
		lvl := blk[i]
		if lvl <= 1 {
			continue
		}
		x, y, z := d.Unindex(i)
		for _, f := range geom.Faces {
			dx, dy, dz := f.Delta()
			nx, ny, nz := x+dx, y+dy, z+dz
			if !d.InBounds(nx, ny, nz) {
				continue
			}
			ni := d.Index(nx, ny, nz)
			if data[ni] != block.Air && p.reg.Lookup(data[ni]).Category == block.Solid {
				continue
			}
			if next := lvl - 1; blk[ni] < next {
				blk[ni] = next
				queue = append(queue, int32(ni))
			}
		}
	}
}

// seedFace pulls light across one chunk seam: every border cell facing a lit
// neighbor edge starts at the neighbor's level minus one.
func (p *Propagator) seedFace(in Input, d voxel.Dims, f geom.Face, blk []uint8, queue *[]int32) {
	nl := in.NeighborLight[f]
	if nl == nil {
		return
	}
	w, h := d.Width, d.Height

	seed := func(ownIdx, nbIdx int) {
		incoming := Block(nl[nbIdx])
		if incoming <= 1 {
			return
		}
		data := in.Center.Data()
		if data[ownIdx] != block.Air && p.reg.Lookup(data[ownIdx]).Category == block.Solid {
			return
		}
		if lvl := incoming - 1; blk[ownIdx] < lvl {
			blk[ownIdx] = lvl
			*queue = append(*queue, int32(ownIdx))
		}
	}

	switch f.Axis() {
	case 0:
		own, nb := 0, w-1
		if f.Positive() {
			own, nb = w-1, 0
		}
		for y := 0; y < h; y++ {
			for z := 0; z < w; z++ {
				seed(d.Index(own, y, z), d.Index(nb, y, z))
			}
		}
	case 1:
		own, nb := 0, h-1
		if f.Positive() {
			own, nb = h-1, 0
		}
		for z := 0; z < w; z++ {
			for x := 0; x < w; x++ {
				seed(d.Index(x, own, z), d.Index(x, nb, z))
			}
		}
	case 2:
		own, nb := 0, w-1
		if f.Positive() {
			own, nb = w-1, 0
		}
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				seed(d.Index(x, y, own), d.Index(x, y, nb))
			}
		}
	}
}
