// Package voxel holds the dense per-chunk block storage shared between the
// generator, the light pass, and the mesher.
package voxel

import "fmt"

// Dims fixes the voxel dimensions of every chunk in a world: Width voxels
// along X and Z, Height voxels along Y. All buffers of one world share a
// single Dims value taken from the engine config.
type Dims struct {
	Width  int
	Height int
}

func (d Dims) Volume() int { return d.Width * d.Width * d.Height }

func (d Dims) InBounds(x, y, z int) bool {
	return x >= 0 && x < d.Width &&
		y >= 0 && y < d.Height &&
		z >= 0 && z < d.Width
}

// Index maps local voxel coordinates to a flat offset. X varies fastest,
// then Z, then Y. The mapping is bijective over the volume; callers outside
// bounds are bugs and panic.
func (d Dims) Index(x, y, z int) int {
	if !d.InBounds(x, y, z) {
		panic(fmt.Sprintf("voxel: index (%d,%d,%d) out of bounds %dx%dx%d",
			x, y, z, d.Width, d.Height, d.Width))
	}
	return x + z*d.Width + y*d.Width*d.Width
}

// Unindex inverts Index.
func (d Dims) Unindex(i int) (x, y, z int) {
	if i < 0 || i >= d.Volume() {
		panic(fmt.Sprintf("voxel: offset %d out of range %d", i, d.Volume()))
	}
	x = i % d.Width
	z = (i / d.Width) % d.Width
	y = i / (d.Width * d.Width)
	return x, y, z
}

// Buffer is one chunk's block ids as a flat dense array. Buffers are shared
// across adjacent chunks through the data store; writes happen only under
// the owning world's lock.
type Buffer struct {
	dims Dims
	data []uint8
}

func NewBuffer(d Dims) *Buffer {
	return &Buffer{dims: d, data: make([]uint8, d.Volume())}
}

func (b *Buffer) Dims() Dims { return b.dims }

// Data exposes the backing array. Callers must treat it as read-only except
// through Set.
func (b *Buffer) Data() []uint8 { return b.data }

func (b *Buffer) Get(x, y, z int) uint8 {
	return b.data[b.dims.Index(x, y, z)]
}

func (b *Buffer) Set(x, y, z int, id uint8) {
	b.data[b.dims.Index(x, y, z)] = id
}

func (b *Buffer) Fill(id uint8) {
	for i := range b.data {
		b.data[i] = id
	}
}
