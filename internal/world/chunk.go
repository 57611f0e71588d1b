package world

import (
	"fmt"
	"sync/atomic"

	"github.com/diamondpixel/FakeMinecraft-sub000/internal/geom"
	"github.com/diamondpixel/FakeMinecraft-sub000/internal/mesh"
	"github.com/diamondpixel/FakeMinecraft-sub000/internal/voxel"
)

// State is a chunk's lifecycle stage. The streaming worker moves a chunk
// forward through the pipeline; only Upload runs on the render thread.
type State uint32

const (
	StateEmpty State = iota
	StateDataPending
	StateDataReady
	StateMeshing
	StateMeshReady
	StateUploaded
	StateStale
	StateEvicted
)

var stateName = [...]string{
	StateEmpty:       "empty",
	StateDataPending: "data_pending",
	StateDataReady:   "data_ready",
	StateMeshing:     "meshing",
	StateMeshReady:   "mesh_ready",
	StateUploaded:    "uploaded",
	StateStale:       "stale",
	StateEvicted:     "evicted",
}

func (s State) String() string {
	if int(s) < len(stateName) {
		return stateName[s]
	}
	return fmt.Sprintf("state(%d)", uint32(s))
}

// legalNext lists the transitions the pipeline may take. Anything else is a
// scheduling bug and panics.
var legalNext = map[State][]State{
	StateEmpty:       {StateDataPending, StateEvicted},
	StateDataPending: {StateDataReady, StateEvicted},
	StateDataReady:   {StateMeshing, StateStale, StateEvicted},
	StateMeshing:     {StateMeshReady, StateStale, StateEvicted},
	StateMeshReady:   {StateUploaded, StateStale, StateEvicted},
	StateUploaded:    {StateStale, StateEvicted},
	StateStale:       {StateMeshing, StateEvicted},
}

// Chunk is one streamed region of the world. The worker goroutine owns the
// voxel, light and mesh fields; the render thread only touches them after
// observing StateMeshReady, which orders the worker's writes before the
// render thread's reads.
type Chunk struct {
	pos   geom.ChunkPos
	dims  voxel.Dims
	state atomic.Uint32

	buf       *voxel.Buffer
	neighbors [geom.FaceCount]*voxel.Buffer
	light     []uint8

	meshData mesh.Data
	handles  [3]RenderHandle
	hasMesh  [3]bool
}

func NewChunk(pos geom.ChunkPos, dims voxel.Dims) *Chunk {
	c := &Chunk{pos: pos, dims: dims}
	c.state.Store(uint32(StateEmpty))
	return c
}

func (c *Chunk) Pos() geom.ChunkPos    { return c.pos }
func (c *Chunk) State() State          { return State(c.state.Load()) }
func (c *Chunk) Buffer() *voxel.Buffer { return c.buf }

// Light returns the packed light array, nil before the first light pass.
func (c *Chunk) Light() []uint8 { return c.light }

func (c *Chunk) Neighbor(f geom.Face) *voxel.Buffer { return c.neighbors[f] }

// transition moves the chunk to next, panicking on an illegal step.
func (c *Chunk) transition(next State) State {
	cur := c.State()
	for _, ok := range legalNext[cur] {
		if ok == next {
			c.state.Store(uint32(next))
			return cur
		}
	}
	panic(fmt.Sprintf("world: chunk %s illegal transition %s -> %s", c.pos, cur, next))
}

// SetData attaches the shared voxel buffer once generation finishes.
func (c *Chunk) SetData(buf *voxel.Buffer) {
	if buf.Dims() != c.dims {
		panic(fmt.Sprintf("world: chunk %s buffer dims %v != %v", c.pos, buf.Dims(), c.dims))
	}
	c.buf = buf
	c.transition(StateDataReady)
}

// AttachNeighbor wires (or clears, with nil) the shared handle to one face
// neighbor's voxel data.
func (c *Chunk) AttachNeighbor(f geom.Face, buf *voxel.Buffer) {
	c.neighbors[f] = buf
}

// SetMesh stores the light and mesh results of one meshing pass and marks
// the chunk ready for upload.
func (c *Chunk) SetMesh(lightMap []uint8, data mesh.Data) {
	c.light = lightMap
	c.meshData = data
	c.transition(StateMeshReady)
}

// UpdateBlock writes one voxel and marks the chunk stale so it re-enters
// the meshing queue. It reports the faces whose neighbor must also remesh
// because the edit sits on the shared boundary.
func (c *Chunk) UpdateBlock(x, y, z int, id uint8) []geom.Face {
	c.buf.Set(x, y, z, id)
	if c.State() != StateStale {
		c.transition(StateStale)
	}

	var touched []geom.Face
	if x == 0 {
		touched = append(touched, geom.West)
	}
	if x == c.dims.Width-1 {
		touched = append(touched, geom.East)
	}
	if y == 0 {
		touched = append(touched, geom.Bottom)
	}
	if y == c.dims.Height-1 {
		touched = append(touched, geom.Top)
	}
	if z == 0 {
		touched = append(touched, geom.South)
	}
	if z == c.dims.Width-1 {
		touched = append(touched, geom.North)
	}
	return touched
}

// MarkStale requeues the chunk for meshing without a voxel edit, used when
// a neighbor's data arrives after this chunk already meshed.
func (c *Chunk) MarkStale() {
	switch c.State() {
	case StateStale, StateEmpty, StateDataPending, StateEvicted:
		return
	}
	c.transition(StateStale)
}

// BeginMesh moves the chunk into the meshing stage.
func (c *Chunk) BeginMesh() {
	c.transition(StateMeshing)
}

// Upload pushes the chunk's geometry into the render backend, replacing any
// previous handles. Render thread only. A chunk that is already Uploaded is
// left alone, so retries are safe.
func (c *Chunk) Upload(backend RenderBackend) error {
	if c.State() != StateMeshReady {
		return nil
	}

	geoms := [3]*mesh.Geometry{&c.meshData.Opaque, &c.meshData.Liquid, &c.meshData.Billboard}
	var fresh [3]RenderHandle
	var has [3]bool
	for i, g := range geoms {
		if g.Empty() {
			continue
		}
		h, err := backend.Upload(c.pos, MaterialClass(i), *g)
		if err != nil {
			for j := 0; j < i; j++ {
				if has[j] {
					backend.Release(fresh[j])
				}
			}
			return fmt.Errorf("upload chunk %s %s: %w", c.pos, MaterialClass(i), err)
		}
		fresh[i], has[i] = h, true
	}

	for i, had := range c.hasMesh {
		if had {
			backend.Release(c.handles[i])
		}
	}
	c.handles, c.hasMesh = fresh, has
	c.transition(StateUploaded)
	return nil
}

// ReleaseHandles frees uploaded geometry on eviction. Render thread only.
func (c *Chunk) ReleaseHandles(backend RenderBackend) {
	for i, had := range c.hasMesh {
		if had {
			backend.Release(c.handles[i])
			c.hasMesh[i] = false
			c.handles[i] = 0
		}
	}
}

// Evict terminates the lifecycle. The chunk's shared buffer references are
// dropped; the data store decides when the buffers actually die.
func (c *Chunk) Evict() {
	c.transition(StateEvicted)
	c.buf = nil
	for i := range c.neighbors {
		c.neighbors[i] = nil
	}
	c.light = nil
}

// renderEntry reports the published handles of an uploaded chunk.
func (c *Chunk) renderEntry() RenderChunk {
	return RenderChunk{
		Pos:       c.pos,
		Opaque:    c.handles[ClassOpaque],
		Liquid:    c.handles[ClassLiquid],
		Billboard: c.handles[ClassBillboard],
	}
}
