package mesh

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/diamondpixel/FakeMinecraft-sub000/internal/geom"
	"github.com/diamondpixel/FakeMinecraft-sub000/internal/voxel"
)

// sliceSpace maps a face direction onto 2D slices: layers run along the face
// axis, u is the inner (contiguous) mask axis, v the outer. cell converts
// slice coordinates back to voxel coordinates.
type sliceSpace struct {
	slices int
	uSize  int
	vSize  int
	cell   func(s, u, v int) (x, y, z int)
}

func spaceFor(f geom.Face, d voxel.Dims) sliceSpace {
	switch f.Axis() {
	case 0: // X slices, u=Z, v=Y
		return sliceSpace{
			slices: d.Width, uSize: d.Width, vSize: d.Height,
			cell: func(s, u, v int) (int, int, int) { return s, v, u },
		}
	case 1: // Y slices, u=Z, v=X
		return sliceSpace{
			slices: d.Height, uSize: d.Width, vSize: d.Width,
			cell: func(s, u, v int) (int, int, int) { return v, s, u },
		}
	default: // Z slices, u=X, v=Y
		return sliceSpace{
			slices: d.Width, uSize: d.Width, vSize: d.Height,
			cell: func(s, u, v int) (int, int, int) { return u, v, s },
		}
	}
}

// crossSign is the sign of cross(u,v) against the positive face axis, per
// axis. It decides which corner order is counter-clockwise from outside.
var crossSign = [3]int{-1, 1, 1}

func ccwStandard(f geom.Face) bool {
	return (crossSign[f.Axis()] > 0) == f.Positive()
}

// rectFor builds the four corners of a face rectangle spanning w×h mask
// cells, ordered counter-clockwise viewed from outside along the outward
// normal, with tile-space UVs attached to the same corners.
func rectFor(f geom.Face, d voxel.Dims, s, u0, v0, w, h int) (pos [4]mgl32.Vec3, uv [4]mgl32.Vec2) {
	sp := spaceFor(f, d)
	plane := s
	if f.Positive() {
		plane = s + 1
	}
	corner := func(du, dv int) mgl32.Vec3 {
		x, y, z := sp.cell(s, u0+du, v0+dv)
		p := [3]int{x, y, z}
		p[f.Axis()] = plane
		return mgl32.Vec3{float32(p[0]), float32(p[1]), float32(p[2])}
	}

	c00, c10 := corner(0, 0), corner(w, 0)
	c11, c01 := corner(w, h), corner(0, h)
	t00, t10 := mgl32.Vec2{0, 0}, mgl32.Vec2{float32(w), 0}
	t11, t01 := mgl32.Vec2{float32(w), float32(h)}, mgl32.Vec2{0, float32(h)}

	if ccwStandard(f) {
		return [4]mgl32.Vec3{c00, c10, c11, c01}, [4]mgl32.Vec2{t00, t10, t11, t01}
	}
	return [4]mgl32.Vec3{c00, c01, c11, c10}, [4]mgl32.Vec2{t00, t01, t11, t10}
}

// cellSlice maps voxel coordinates into the slice space of a face, for
// emitting single-cell rectangles.
func cellSlice(f geom.Face, x, y, z int) (s, u0, v0 int) {
	switch f.Axis() {
	case 0:
		return x, z, y
	case 1:
		return y, z, x
	default:
		return z, x, y
	}
}
