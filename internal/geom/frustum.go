package geom

import "github.com/go-gl/mathgl/mgl32"

type plane struct {
	n mgl32.Vec3
	d float32
}

// Frustum is a six-plane view volume extracted from a combined
// view-projection matrix. Plane normals point inward.
type Frustum struct {
	planes [6]plane
}

// FrustumFromMatrix extracts clip planes from vp (projection * view),
// normalized so distances are in world units.
func FrustumFromMatrix(vp mgl32.Mat4) *Frustum {
	r0 := vp.Row(0)
	r1 := vp.Row(1)
	r2 := vp.Row(2)
	r3 := vp.Row(3)

	f := &Frustum{}
	rows := [6]mgl32.Vec4{
		r3.Add(r0), // left
		r3.Sub(r0), // right
		r3.Add(r1), // bottom
		r3.Sub(r1), // top
		r3.Add(r2), // near
		r3.Sub(r2), // far
	}
	for i, v := range rows {
		n := mgl32.Vec3{v.X(), v.Y(), v.Z()}
		l := n.Len()
		if l > 0 {
			n = n.Mul(1 / l)
			f.planes[i] = plane{n: n, d: v.W() / l}
		}
	}
	return f
}

// IsBoxVisible tests an axis-aligned box (center, half-extents) against the
// frustum. Boxes intersecting any boundary count as visible.
func (f *Frustum) IsBoxVisible(center, extents mgl32.Vec3) bool {
	for _, p := range f.planes {
		r := extents.X()*mgl32.Abs(p.n.X()) +
			extents.Y()*mgl32.Abs(p.n.Y()) +
			extents.Z()*mgl32.Abs(p.n.Z())
		if p.n.Dot(center)+p.d < -r {
			return false
		}
	}
	return true
}

// ChunkBox returns the world-space center and half-extents of the chunk at
// p given the voxel dimensions of a chunk.
func ChunkBox(p ChunkPos, width, height int) (center, extents mgl32.Vec3) {
	w := float32(width)
	h := float32(height)
	center = mgl32.Vec3{
		float32(p.X)*w + w/2,
		float32(p.Y)*h + h/2,
		float32(p.Z)*w + w/2,
	}
	extents = mgl32.Vec3{w / 2, h / 2, w / 2}
	return center, extents
}
