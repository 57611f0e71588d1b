package mesh_test

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/diamondpixel/FakeMinecraft-sub000/internal/block"
	"github.com/diamondpixel/FakeMinecraft-sub000/internal/geom"
	"github.com/diamondpixel/FakeMinecraft-sub000/internal/light"
	"github.com/diamondpixel/FakeMinecraft-sub000/internal/mesh"
	"github.com/diamondpixel/FakeMinecraft-sub000/internal/voxel"
)

var testDims = voxel.Dims{Width: 8, Height: 8}

func findRepoRoot(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatalf("could not find repo root from %s", dir)
		}
		dir = parent
	}
}

func loadRegistry(t *testing.T) *block.Registry {
	t.Helper()
	r, err := block.Load(filepath.Join(findRepoRoot(t), "configs"))
	if err != nil {
		t.Fatalf("load blocks: %v", err)
	}
	return r
}

func mustID(t *testing.T, r *block.Registry, name string) uint8 {
	t.Helper()
	id, ok := r.ByName(name)
	if !ok {
		t.Fatalf("block %s missing from registry", name)
	}
	return id
}

func quadsOnFace(g mesh.Geometry, f geom.Face) []mesh.Vertex {
	var out []mesh.Vertex
	for i := 0; i+3 < len(g.Vertices); i += 4 {
		if g.Vertices[i].Face == uint8(f) {
			out = append(out, g.Vertices[i:i+4]...)
		}
	}
	return out
}

func TestUniformSlabMergesToSingleQuadPerFace(t *testing.T) {
	r := loadRegistry(t)
	m := mesh.NewMesher(r)
	stone := mustID(t, r, "STONE")

	buf := voxel.NewBuffer(testDims)
	depth := 3
	for y := 0; y < depth; y++ {
		for z := 0; z < testDims.Width; z++ {
			for x := 0; x < testDims.Width; x++ {
				buf.Set(x, y, z, stone)
			}
		}
	}

	out := m.Build(mesh.Input{Center: buf})
	if got := out.Opaque.QuadCount(); got != 6 {
		t.Fatalf("slab produced %d quads, want 6", got)
	}

	top := quadsOnFace(out.Opaque, geom.Top)
	if len(top) != 4 {
		t.Fatalf("top face has %d vertices, want one quad", len(top))
	}
	w := float32(testDims.Width)
	minP := mgl32.Vec3{w, w, w}
	maxP := mgl32.Vec3{0, 0, 0}
	var maxUV mgl32.Vec2
	for _, v := range top {
		for i := 0; i < 3; i++ {
			if v.Position[i] < minP[i] {
				minP[i] = v.Position[i]
			}
			if v.Position[i] > maxP[i] {
				maxP[i] = v.Position[i]
			}
		}
		for i := 0; i < 2; i++ {
			if v.UV[i] > maxUV[i] {
				maxUV[i] = v.UV[i]
			}
		}
	}
	if minP != (mgl32.Vec3{0, float32(depth), 0}) || maxP != (mgl32.Vec3{w, float32(depth), w}) {
		t.Fatalf("top quad spans %v..%v", minP, maxP)
	}
	if maxUV != (mgl32.Vec2{w, w}) {
		t.Fatalf("top quad UV extent %v, want %v", maxUV, mgl32.Vec2{w, w})
	}
	if len(quadsOnFace(out.Opaque, geom.Bottom)) != 4 {
		t.Fatalf("bottom face against missing neighbor should be one visible quad")
	}
}

func TestMergeStopsAtBlockIDChange(t *testing.T) {
	r := loadRegistry(t)
	m := mesh.NewMesher(r)
	stone := mustID(t, r, "STONE")
	dirt := mustID(t, r, "DIRT")

	buf := voxel.NewBuffer(testDims)
	// One row at y=0: stone, stone, stone, dirt, dirt.
	for x := 0; x < 3; x++ {
		buf.Set(x, 0, 0, stone)
	}
	for x := 3; x < 5; x++ {
		buf.Set(x, 0, 0, dirt)
	}

	out := m.Build(mesh.Input{Center: buf})
	top := quadsOnFace(out.Opaque, geom.Top)
	if len(top) != 8 {
		t.Fatalf("top faces: %d vertices, want two quads", len(top))
	}
	layers := map[uint16]bool{}
	for _, v := range top {
		layers[v.Layer] = true
	}
	if len(layers) != 2 {
		t.Fatalf("merged across different blocks: layers %v", layers)
	}
}

func TestBoundaryFacesCulledByNeighbor(t *testing.T) {
	r := loadRegistry(t)
	m := mesh.NewMesher(r)
	stone := mustID(t, r, "STONE")

	a := voxel.NewBuffer(testDims)
	a.Fill(stone)

	alone := m.Build(mesh.Input{Center: a})
	if n := len(quadsOnFace(alone.Opaque, geom.East)); n != 4 {
		t.Fatalf("east boundary against missing neighbor: %d vertices, want one quad", n)
	}

	b := voxel.NewBuffer(testDims)
	b.Fill(stone)
	in := mesh.Input{Center: a}
	in.Neighbors[geom.East] = b
	culled := m.Build(in)
	if n := len(quadsOnFace(culled.Opaque, geom.East)); n != 0 {
		t.Fatalf("east boundary against solid neighbor: %d vertices, want 0", n)
	}

	// Neighbor cleared again: faces must come back on the next build.
	b.Fill(block.Air)
	again := m.Build(in)
	if n := len(quadsOnFace(again.Opaque, geom.East)); n != 4 {
		t.Fatalf("east boundary after neighbor cleared: %d vertices, want one quad", n)
	}
}

func TestWindingFacesOutward(t *testing.T) {
	r := loadRegistry(t)
	m := mesh.NewMesher(r)
	stone := mustID(t, r, "STONE")

	buf := voxel.NewBuffer(testDims)
	buf.Set(3, 3, 3, stone)

	out := m.Build(mesh.Input{Center: buf})
	if got := out.Opaque.QuadCount(); got != 6 {
		t.Fatalf("lone cube produced %d quads, want 6", got)
	}
	g := out.Opaque
	for i := 0; i+5 < len(g.Indices); i += 3 {
		v0 := g.Vertices[g.Indices[i]]
		v1 := g.Vertices[g.Indices[i+1]]
		v2 := g.Vertices[g.Indices[i+2]]
		n := v1.Position.Sub(v0.Position).Cross(v2.Position.Sub(v1.Position))
		dx, dy, dz := geom.Face(v0.Face).Delta()
		outward := mgl32.Vec3{float32(dx), float32(dy), float32(dz)}
		if n.Dot(outward) <= 0 {
			t.Fatalf("triangle %d on face %v winds inward (normal %v)", i/3, geom.Face(v0.Face), n)
		}
	}
}

func TestBuildDeterministic(t *testing.T) {
	r := loadRegistry(t)
	m := mesh.NewMesher(r)
	stone := mustID(t, r, "STONE")
	water := mustID(t, r, "WATER")
	leaves := mustID(t, r, "OAK_LEAVES")
	grass := mustID(t, r, "TALL_GRASS")

	build := func() mesh.Data {
		buf := voxel.NewBuffer(testDims)
		for y := 0; y < testDims.Height; y++ {
			for z := 0; z < testDims.Width; z++ {
				for x := 0; x < testDims.Width; x++ {
					switch geom.Hash3(7, x, y, z) % 7 {
					case 0:
						buf.Set(x, y, z, stone)
					case 1:
						buf.Set(x, y, z, water)
					case 2:
						buf.Set(x, y, z, leaves)
					case 3:
						buf.Set(x, y, z, grass)
					}
				}
			}
		}
		lp := light.NewPropagator(r)
		in := mesh.Input{Pos: geom.ChunkPos{X: 2, Y: 0, Z: -1}, Center: buf}
		in.Light = lp.Compute(light.Input{Center: buf})
		return m.Build(in)
	}

	first := build()
	second := build()
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("identical inputs produced different meshes")
	}
	if first.Opaque.Empty() || first.Liquid.Empty() || first.Billboard.Empty() {
		t.Fatalf("expected all three material classes to be populated")
	}
}

func TestFaceLightSampledFromFrontVoxel(t *testing.T) {
	r := loadRegistry(t)
	m := mesh.NewMesher(r)
	lp := light.NewPropagator(r)
	stone := mustID(t, r, "STONE")
	lava := mustID(t, r, "LAVA")

	buf := voxel.NewBuffer(testDims)
	buf.Set(2, 2, 2, stone)
	buf.Set(2, 4, 2, lava)

	in := mesh.Input{Center: buf}
	in.Light = lp.Compute(light.Input{Center: buf})
	out := m.Build(in)

	// Front voxel of the stone top face is (2,3,2): one step from the lava
	// (block 14) and under it on the sky column (sky 0).
	for i := 0; i+3 < len(out.Opaque.Vertices); i += 4 {
		v := out.Opaque.Vertices[i]
		if geom.Face(v.Face) == geom.Top && v.Position.Y() == 3 {
			if light.Block(v.Light) != 14 {
				t.Fatalf("top face block light %d, want 14", light.Block(v.Light))
			}
			if light.Sky(v.Light) != 0 {
				t.Fatalf("top face sky light %d, want 0 under lava", light.Sky(v.Light))
			}
			return
		}
	}
	t.Fatalf("stone top face not found")
}
