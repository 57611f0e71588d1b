package geom

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func lookDownZ(t *testing.T) *Frustum {
	t.Helper()
	proj := mgl32.Perspective(mgl32.DegToRad(70), 16.0/9.0, 0.1, 500)
	view := mgl32.LookAtV(
		mgl32.Vec3{0, 0, 0},
		mgl32.Vec3{0, 0, -1},
		mgl32.Vec3{0, 1, 0},
	)
	return FrustumFromMatrix(proj.Mul4(view))
}

func TestFrustumBoxInFront(t *testing.T) {
	f := lookDownZ(t)
	if !f.IsBoxVisible(mgl32.Vec3{0, 0, -50}, mgl32.Vec3{16, 16, 16}) {
		t.Fatalf("box straight ahead reported invisible")
	}
}

func TestFrustumBoxBehind(t *testing.T) {
	f := lookDownZ(t)
	if f.IsBoxVisible(mgl32.Vec3{0, 0, 100}, mgl32.Vec3{16, 16, 16}) {
		t.Fatalf("box behind camera reported visible")
	}
}

func TestFrustumBoxFarBeyondPlane(t *testing.T) {
	f := lookDownZ(t)
	if f.IsBoxVisible(mgl32.Vec3{0, 0, -2000}, mgl32.Vec3{16, 16, 16}) {
		t.Fatalf("box past far plane reported visible")
	}
}

func TestFrustumBoxStraddlingEdge(t *testing.T) {
	f := lookDownZ(t)
	// Large box overlapping the left boundary must stay visible.
	if !f.IsBoxVisible(mgl32.Vec3{-60, 0, -60}, mgl32.Vec3{32, 32, 32}) {
		t.Fatalf("box straddling frustum edge reported invisible")
	}
}

func TestChunkBox(t *testing.T) {
	center, extents := ChunkBox(ChunkPos{X: 1, Y: 0, Z: -1}, 32, 256)
	wantC := mgl32.Vec3{48, 128, -16}
	wantE := mgl32.Vec3{16, 128, 16}
	if center != wantC {
		t.Fatalf("center %v want %v", center, wantC)
	}
	if extents != wantE {
		t.Fatalf("extents %v want %v", extents, wantE)
	}
}
