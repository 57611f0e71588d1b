package mesh

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/diamondpixel/FakeMinecraft-sub000/internal/block"
	"github.com/diamondpixel/FakeMinecraft-sub000/internal/geom"
	"github.com/diamondpixel/FakeMinecraft-sub000/internal/voxel"
)

// specialPass emits everything the greedy pass skips: transparent cube
// faces into the opaque geometry, liquid faces with a lowered surface, and
// crossed billboard quads.
func (m *Mesher) specialPass(in Input, out *Data) {
	d := in.Center.Dims()
	data := in.Center.Data()

	idx := -1
	for y := 0; y < d.Height; y++ {
		for z := 0; z < d.Width; z++ {
			for x := 0; x < d.Width; x++ {
				idx++
				id := data[idx]
				if id == block.Air {
					continue
				}
				def := m.reg.Lookup(id)
				switch def.Category {
				case block.Transparent:
					m.emitCell(in, d, x, y, z, id, 1, &out.Opaque)
				case block.Liquid:
					m.emitLiquid(in, d, x, y, z, id, &out.Liquid)
				case block.Billboard:
					m.emitBillboard(in, d, x, y, z, def, &out.Billboard)
				}
			}
		}
	}
}

// emitCell emits the visible faces of one voxel unmerged. top below 1 drops
// every corner on the upper cell edge to that height and shortens side UVs
// to match.
func (m *Mesher) emitCell(in Input, d voxel.Dims, x, y, z int, id uint8, top float32, out *Geometry) {
	for _, f := range geom.Faces {
		if !m.faceVisible(id, m.frontID(in, d, x, y, z, f)) {
			continue
		}
		_, dy, _ := f.Delta()
		layer := m.reg.Lookup(id).LayerFor(dy)
		lv := m.frontLight(in, d, x, y, z, f)

		s, u0, v0 := cellSlice(f, x, y, z)
		pos, uv := rectFor(f, d, s, u0, v0, 1, 1)
		if top < 1 {
			lid := float32(y + 1)
			for i := range pos {
				if pos[i].Y() == lid {
					pos[i][1] = float32(y) + top
					if f.Axis() != 1 {
						uv[i][1] *= top
					}
				}
			}
		}

		var vs [4]Vertex
		for i := range pos {
			vs[i] = Vertex{Position: pos[i], UV: uv[i], Layer: layer, Light: lv, Face: uint8(f)}
		}
		out.quad(vs[0], vs[1], vs[2], vs[3])
	}
}

// emitLiquid emits one liquid voxel. The surface sits at LiquidSurface when
// the voxel above is not liquid; below the waterline the column stays flush
// so no seam shows.
func (m *Mesher) emitLiquid(in Input, d voxel.Dims, x, y, z int, id uint8, out *Geometry) {
	top := float32(1)
	above := m.frontID(in, d, x, y, z, geom.Top)
	if above == block.Air || m.reg.Lookup(above).Category != block.Liquid {
		top = LiquidSurface
	}
	m.emitCell(in, d, x, y, z, id, top, out)
}

// emitBillboard emits two crossed quads on the cell diagonals, rotated
// about the cell center by an angle hashed from the world position so
// rebuilds are bit-identical.
func (m *Mesher) emitBillboard(in Input, d voxel.Dims, x, y, z int, def block.Definition, out *Geometry) {
	wx := in.Pos.X*d.Width + x
	wy := in.Pos.Y*d.Height + y
	wz := in.Pos.Z*d.Width + z
	angle := float64(geom.Hash3(0, wx, wy, wz)%360) * math.Pi / 180
	sin64, cos64 := math.Sincos(angle)
	sin, cos := float32(sin64), float32(cos64)

	cx, cz := float32(x)+0.5, float32(z)+0.5
	y0, y1 := float32(y), float32(y+1)

	var lv uint8
	if in.Light != nil {
		lv = in.Light[d.Index(x, y, z)]
	}

	mk := func(px, py, pz, u, v float32) Vertex {
		return Vertex{
			Position: mgl32.Vec3{px, py, pz},
			UV:       mgl32.Vec2{u, v},
			Layer:    def.SideLayer,
			Light:    lv,
			Face:     uint8(geom.Top),
		}
	}
	// Diagonal half-extent; rotated corners stay inside the cell.
	const r = 0.35
	cross := func(dx0, dz0, dx1, dz1 float32) {
		ax := cx + dx0*cos - dz0*sin
		az := cz + dx0*sin + dz0*cos
		bx := cx + dx1*cos - dz1*sin
		bz := cz + dx1*sin + dz1*cos
		out.quad(
			mk(ax, y0, az, 0, 0),
			mk(bx, y0, bz, 1, 0),
			mk(bx, y1, bz, 1, 1),
			mk(ax, y1, az, 0, 1),
		)
	}
	cross(-r, -r, r, r)
	cross(-r, r, r, -r)
}
