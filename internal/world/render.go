package world

import (
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/diamondpixel/FakeMinecraft-sub000/internal/geom"
	"github.com/diamondpixel/FakeMinecraft-sub000/internal/mesh"
)

// MaterialClass selects the pipeline a geometry is drawn with.
type MaterialClass uint8

const (
	ClassOpaque MaterialClass = iota
	ClassLiquid
	ClassBillboard
)

func (c MaterialClass) String() string {
	switch c {
	case ClassOpaque:
		return "opaque"
	case ClassLiquid:
		return "liquid"
	default:
		return "billboard"
	}
}

// RenderHandle is an opaque reference to uploaded geometry. Zero means no
// geometry.
type RenderHandle uint64

// RenderBackend consumes finished chunk geometry. Upload and Release are
// called only from the render thread; what a handle points at is the
// backend's business.
type RenderBackend interface {
	Upload(pos geom.ChunkPos, class MaterialClass, g mesh.Geometry) (RenderHandle, error)
	Release(h RenderHandle)
}

// FrustumProvider answers visibility queries for the current camera.
type FrustumProvider interface {
	IsBoxVisible(center, extents mgl32.Vec3) bool
}

// RenderChunk is one entry of the published renderable set.
type RenderChunk struct {
	Pos       geom.ChunkPos
	Opaque    RenderHandle
	Liquid    RenderHandle
	Billboard RenderHandle
}

// NullBackend accepts uploads and counts them, for headless runs and tests.
type NullBackend struct {
	next     atomic.Uint64
	uploads  atomic.Uint64
	releases atomic.Uint64
}

func (b *NullBackend) Upload(_ geom.ChunkPos, _ MaterialClass, _ mesh.Geometry) (RenderHandle, error) {
	b.uploads.Add(1)
	return RenderHandle(b.next.Add(1)), nil
}

func (b *NullBackend) Release(RenderHandle) {
	b.releases.Add(1)
}

func (b *NullBackend) Uploads() uint64  { return b.uploads.Load() }
func (b *NullBackend) Releases() uint64 { return b.releases.Load() }
