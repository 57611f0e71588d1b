package mesh

import (
	"github.com/diamondpixel/FakeMinecraft-sub000/internal/block"
	"github.com/diamondpixel/FakeMinecraft-sub000/internal/geom"
	"github.com/diamondpixel/FakeMinecraft-sub000/internal/voxel"
)

// greedyFace meshes all faces pointing in one direction. Each slice
// perpendicular to the face axis becomes a mask of visible block ids; a
// raster scan grows every unvisited cell into the widest run along u, then
// extends it along v while the whole row keeps the same id. Merging never
// crosses the chunk border because masks are per chunk.
func (m *Mesher) greedyFace(in Input, f geom.Face, out *Geometry) {
	d := in.Center.Dims()
	sp := spaceFor(f, d)
	data := in.Center.Data()

	ids := make([]uint8, sp.uSize*sp.vSize)
	lights := make([]uint8, len(ids))

	for s := 0; s < sp.slices; s++ {
		filled := 0
		for v := 0; v < sp.vSize; v++ {
			for u := 0; u < sp.uSize; u++ {
				i := v*sp.uSize + u
				ids[i] = block.Air
				x, y, z := sp.cell(s, u, v)
				id := data[d.Index(x, y, z)]
				if id == block.Air {
					continue
				}
				if cat := m.reg.Lookup(id).Category; cat != block.Solid && cat != block.Leaves {
					continue
				}
				if !m.faceVisible(id, m.frontID(in, d, x, y, z, f)) {
					continue
				}
				ids[i] = id
				lights[i] = m.frontLight(in, d, x, y, z, f)
				filled++
			}
		}
		if filled == 0 {
			continue
		}

		for i := 0; i < len(ids); i++ {
			id := ids[i]
			if id == block.Air {
				continue
			}
			u0 := i % sp.uSize
			v0 := i / sp.uSize

			w := 1
			for u0+w < sp.uSize && ids[i+w] == id {
				w++
			}
			h := 1
		extend:
			for v0+h < sp.vSize {
				row := (v0+h)*sp.uSize + u0
				for k := 0; k < w; k++ {
					if ids[row+k] != id {
						break extend
					}
				}
				h++
			}

			m.emitRect(out, f, d, s, u0, v0, w, h, id, sp, lights)

			for vv := v0; vv < v0+h; vv++ {
				for uu := u0; uu < u0+w; uu++ {
					ids[vv*sp.uSize+uu] = block.Air
				}
			}
			i += w - 1
		}
	}
}

// emitRect appends one merged rectangle. UVs span w×h tiles; each corner
// samples light from the mask cell under it.
func (m *Mesher) emitRect(out *Geometry, f geom.Face, d voxel.Dims, s, u0, v0, w, h int, id uint8, sp sliceSpace, lights []uint8) {
	_, dy, _ := f.Delta()
	layer := m.reg.Lookup(id).LayerFor(dy)

	lightAt := func(du, dv int) uint8 {
		uu, vv := u0, v0
		if du > 0 {
			uu = u0 + w - 1
		}
		if dv > 0 {
			vv = v0 + h - 1
		}
		return lights[vv*sp.uSize+uu]
	}

	pos, uv := rectFor(f, d, s, u0, v0, w, h)
	corners := [4][2]int{{0, 0}, {w, 0}, {w, h}, {0, h}}
	if !ccwStandard(f) {
		corners = [4][2]int{{0, 0}, {0, h}, {w, h}, {w, 0}}
	}

	var vs [4]Vertex
	for i := 0; i < 4; i++ {
		vs[i] = Vertex{
			Position: pos[i],
			UV:       uv[i],
			Layer:    layer,
			Light:    lightAt(corners[i][0], corners[i][1]),
			Face:     uint8(f),
		}
	}
	out.quad(vs[0], vs[1], vs[2], vs[3])
}
