// Package mesh turns chunk voxel data into triangle lists, one geometry per
// material class. The greedy pass merges Solid and Leaves faces into maximal
// rectangles; liquids, billboards and transparent blocks go through an
// unmerged special pass.
package mesh

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/diamondpixel/FakeMinecraft-sub000/internal/block"
	"github.com/diamondpixel/FakeMinecraft-sub000/internal/geom"
	"github.com/diamondpixel/FakeMinecraft-sub000/internal/light"
	"github.com/diamondpixel/FakeMinecraft-sub000/internal/voxel"
)

// LiquidSurface is the top height of an exposed liquid voxel. Liquid below
// another liquid voxel stays flush so the waterline shows no seam.
const LiquidSurface float32 = 0.875

// Vertex is one corner of a quad, in chunk-local coordinates. UVs are in
// tile units so merged rectangles tile their texture; Layer selects the
// atlas layer; Light is the packed sky|block byte sampled in front of the
// face; Face selects the shading normal.
type Vertex struct {
	Position mgl32.Vec3
	UV       mgl32.Vec2
	Layer    uint16
	Light    uint8
	Face     uint8
}

// Geometry is an indexed triangle list.
type Geometry struct {
	Vertices []Vertex
	Indices  []uint32
}

func (g *Geometry) Empty() bool { return len(g.Indices) == 0 }

// quad appends four vertices and two counter-clockwise triangles.
func (g *Geometry) quad(v0, v1, v2, v3 Vertex) {
	base := uint32(len(g.Vertices))
	g.Vertices = append(g.Vertices, v0, v1, v2, v3)
	g.Indices = append(g.Indices,
		base, base+1, base+2,
		base+2, base+3, base,
	)
}

// QuadCount reports how many quads the geometry holds.
func (g *Geometry) QuadCount() int { return len(g.Indices) / 6 }

// Data is one chunk's complete mesh. Billboard geometry is rendered without
// backface culling.
type Data struct {
	Opaque    Geometry
	Liquid    Geometry
	Billboard Geometry
}

func (d *Data) Empty() bool {
	return d.Opaque.Empty() && d.Liquid.Empty() && d.Billboard.Empty()
}

// Input carries everything one chunk's mesh depends on. Nil neighbor entries
// read as air, so border faces stay visible until the neighbor generates and
// the chunk is meshed again.
type Input struct {
	Pos           geom.ChunkPos
	Center        *voxel.Buffer
	Neighbors     [geom.FaceCount]*voxel.Buffer
	Light         []uint8
	NeighborLight [geom.FaceCount][]uint8
}

type Mesher struct {
	reg *block.Registry
}

func NewMesher(reg *block.Registry) *Mesher {
	return &Mesher{reg: reg}
}

// Build meshes one chunk. Output is deterministic for identical inputs.
func (m *Mesher) Build(in Input) Data {
	var out Data
	for _, f := range geom.Faces {
		m.greedyFace(in, f, &out.Opaque)
	}
	m.specialPass(in, &out)
	return out
}

// faceVisible reports whether a face of block self showing voxel front is
// drawn. Solid always occludes; liquid hides only other liquid; identical
// transparent blocks share an invisible inner face.
func (m *Mesher) faceVisible(self, front uint8) bool {
	if front == block.Air {
		return true
	}
	switch m.reg.Lookup(front).Category {
	case block.Solid:
		return false
	case block.Liquid:
		return m.reg.Lookup(self).Category != block.Liquid
	case block.Transparent:
		if front == self {
			return false
		}
		return true
	default:
		return true
	}
}

// frontID reads the voxel a face looks into, crossing into the neighbor
// buffer at chunk borders. Missing neighbors read as air.
func (m *Mesher) frontID(in Input, d voxel.Dims, x, y, z int, f geom.Face) uint8 {
	dx, dy, dz := f.Delta()
	nx, ny, nz := x+dx, y+dy, z+dz
	if d.InBounds(nx, ny, nz) {
		return in.Center.Data()[d.Index(nx, ny, nz)]
	}
	nb := in.Neighbors[f]
	if nb == nil {
		return block.Air
	}
	switch f.Axis() {
	case 0:
		nx = geom.Mod(nx, d.Width)
	case 1:
		ny = geom.Mod(ny, d.Height)
	default:
		nz = geom.Mod(nz, d.Width)
	}
	return nb.Get(nx, ny, nz)
}

// frontLight samples the packed light of the voxel a face looks into. An
// absent neighbor is dark, except above the chunk where open sky applies.
func (m *Mesher) frontLight(in Input, d voxel.Dims, x, y, z int, f geom.Face) uint8 {
	dx, dy, dz := f.Delta()
	nx, ny, nz := x+dx, y+dy, z+dz
	if d.InBounds(nx, ny, nz) {
		if in.Light == nil {
			return 0
		}
		return in.Light[d.Index(nx, ny, nz)]
	}
	nl := in.NeighborLight[f]
	if nl == nil {
		if f == geom.Top {
			return light.FullSky
		}
		return 0
	}
	switch f.Axis() {
	case 0:
		nx = geom.Mod(nx, d.Width)
	case 1:
		ny = geom.Mod(ny, d.Height)
	default:
		nz = geom.Mod(nz, d.Width)
	}
	return nl[d.Index(nx, ny, nz)]
}
