package world

import (
	"testing"

	"github.com/diamondpixel/FakeMinecraft-sub000/internal/geom"
	"github.com/diamondpixel/FakeMinecraft-sub000/internal/light"
	"github.com/diamondpixel/FakeMinecraft-sub000/internal/mesh"
	"github.com/diamondpixel/FakeMinecraft-sub000/internal/voxel"
)

func countQuadsOnFace(g mesh.Geometry, f geom.Face) int {
	n := 0
	for i := 0; i+3 < len(g.Vertices); i += 4 {
		if g.Vertices[i].Face == uint8(f) {
			n++
		}
	}
	return n
}

// A lone one-voxel-thick slab with no generated neighbors: the top face
// merges to a single full-size quad, the bottom and sides face ungenerated
// space (treated as air) and so are emitted too, and the open sky reaches
// every voxel above the slab.
func TestEndToEndFlatSlabChunk(t *testing.T) {
	cfg := testConfig()
	cfg.RenderDistance = 0
	cfg.RenderHeight = 0
	reg := loadRegistry(t)
	stone, _ := reg.ByName("STONE")

	gen := GeneratorFunc(func(pos geom.ChunkPos) *voxel.Buffer {
		buf := voxel.NewBuffer(testDims)
		if pos.Y != 0 {
			return buf
		}
		for z := 0; z < testDims.Width; z++ {
			for x := 0; x < testDims.Width; x++ {
				buf.Set(x, 0, z, stone)
			}
		}
		return buf
	})
	p := NewPlanet(cfg, reg, gen, &NullBackend{}, nil)

	p.retarget()
	drain(p)

	if got := len(p.ActivePositions()); got != 1 {
		t.Fatalf("active set %d chunks, want 1", got)
	}
	ch := p.chunks[geom.ChunkPos{}]
	if ch == nil || ch.State() != StateMeshReady {
		t.Fatalf("slab chunk did not reach mesh_ready")
	}

	opaque := ch.meshData.Opaque
	// One merged quad each for top and bottom, one 1-high strip per side.
	for _, f := range geom.Faces {
		if got := countQuadsOnFace(opaque, f); got != 1 {
			t.Fatalf("%s face has %d quads, want 1 merged quad", f, got)
		}
	}
	if got := opaque.QuadCount(); got != 6 {
		t.Fatalf("slab meshed to %d quads, want 6", got)
	}
	if !ch.meshData.Liquid.Empty() || !ch.meshData.Billboard.Empty() {
		t.Fatalf("slab produced non-opaque geometry")
	}

	// The merged top quad spans the whole chunk.
	for i := 0; i+3 < len(opaque.Vertices); i += 4 {
		if opaque.Vertices[i].Face != uint8(geom.Top) {
			continue
		}
		minX, maxX := float32(testDims.Width), float32(0)
		for _, v := range opaque.Vertices[i : i+4] {
			if v.Position.X() < minX {
				minX = v.Position.X()
			}
			if v.Position.X() > maxX {
				maxX = v.Position.X()
			}
		}
		if minX != 0 || maxX != float32(testDims.Width) {
			t.Fatalf("top quad spans x %v..%v, want 0..%d", minX, maxX, testDims.Width)
		}
	}

	// Sky light is full everywhere above the slab, dark inside it.
	d := testDims
	for z := 0; z < d.Width; z++ {
		for x := 0; x < d.Width; x++ {
			if got := light.Sky(ch.light[d.Index(x, 1, z)]); got != light.MaxLevel {
				t.Fatalf("sky at (%d,1,%d) = %d, want 15", x, z, got)
			}
			if got := light.Sky(ch.light[d.Index(x, 0, z)]); got != 0 {
				t.Fatalf("sky inside slab at (%d,0,%d) = %d, want 0", x, z, got)
			}
		}
	}
}
