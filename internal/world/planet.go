// Package world owns the chunk streaming core: the active chunk set, the
// reference-counted voxel data store, and the background worker that drives
// generation, lighting and meshing. The render thread and the worker meet
// at a single reader/writer lock plus per-chunk atomic lifecycle states.
package world

import (
	"context"
	"fmt"
	"log"
	"math"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/sync/errgroup"

	"github.com/diamondpixel/FakeMinecraft-sub000/internal/block"
	"github.com/diamondpixel/FakeMinecraft-sub000/internal/config"
	"github.com/diamondpixel/FakeMinecraft-sub000/internal/geom"
	"github.com/diamondpixel/FakeMinecraft-sub000/internal/light"
	"github.com/diamondpixel/FakeMinecraft-sub000/internal/mesh"
	"github.com/diamondpixel/FakeMinecraft-sub000/internal/voxel"
)

// TerrainGenerator synthesizes one chunk's voxel data. Implementations must
// be deterministic for a fixed seed and safe for concurrent calls.
type TerrainGenerator interface {
	Generate(pos geom.ChunkPos) *voxel.Buffer
}

// GeneratorFunc adapts a plain function to TerrainGenerator.
type GeneratorFunc func(pos geom.ChunkPos) *voxel.Buffer

func (f GeneratorFunc) Generate(pos geom.ChunkPos) *voxel.Buffer { return f(pos) }

// TransitionEntry is one chunk lifecycle event for the telemetry sink.
type TransitionEntry struct {
	Tick uint64  `json:"tick"`
	X    int     `json:"cx"`
	Y    int     `json:"cy"`
	Z    int     `json:"cz"`
	From string  `json:"from"`
	To   string  `json:"to"`
	Ms   float64 `json:"ms"`
}

// GaugeEntry is a per-render-tick summary of pipeline pressure.
type GaugeEntry struct {
	Tick       uint64 `json:"tick"`
	DataQueue  int    `json:"data_queue"`
	MeshQueue  int    `json:"mesh_queue"`
	RegenQueue int    `json:"regen_queue"`
	Active     int    `json:"active"`
	Resident   int    `json:"resident"`
	Renderable int    `json:"renderable"`
}

// TransitionLogger receives lifecycle telemetry. Implementations must not
// block the caller for long; both threads report through it.
type TransitionLogger interface {
	LogTransition(TransitionEntry)
	LogGauges(GaugeEntry)
}

type queueKind uint8

const (
	qNone queueKind = iota
	qData
	qMesh
	qRegen
)

// Planet streams chunks around a moving observer. The render thread calls
// SetObserver, Tick, Renderable and the block accessors; one background
// worker owns the three work queues and every pipeline stage up to
// MeshReady. See the worker methods for the locking discipline.
type Planet struct {
	cfg     config.Config
	dims    voxel.Dims
	reg     *block.Registry
	gen     TerrainGenerator
	backend RenderBackend
	lights  *light.Propagator
	mesher  *mesh.Mesher
	logp    *log.Logger
	sink    TransitionLogger

	mu     sync.RWMutex
	chunks map[geom.ChunkPos]*Chunk
	store  *DataStore
	queued map[geom.ChunkPos]queueKind
	dataQ  []geom.ChunkPos
	meshQ  []geom.ChunkPos
	regenQ []geom.ChunkPos

	desired   map[geom.ChunkPos]struct{}
	center    geom.ChunkPos
	hasCenter bool

	// Evicted chunks park here until the render thread releases their
	// GPU handles; only Tick drains it.
	retiredMu sync.Mutex
	retired   []*Chunk

	observer  atomic.Pointer[mgl32.Vec3]
	tick      atomic.Uint64
	published atomic.Pointer[[]RenderChunk]

	startOnce sync.Once
	stopOnce  sync.Once
	stop      chan struct{}
	done      chan struct{}
}

// NewPlanet wires the streaming core. backend may be a NullBackend for
// headless runs; logger nil means silent.
func NewPlanet(cfg config.Config, reg *block.Registry, gen TerrainGenerator, backend RenderBackend, logger *log.Logger) *Planet {
	dims := voxel.Dims{Width: cfg.ChunkWidth, Height: cfg.ChunkHeight}
	p := &Planet{
		cfg:     cfg,
		dims:    dims,
		reg:     reg,
		gen:     gen,
		backend: backend,
		lights:  light.NewPropagator(reg),
		mesher:  mesh.NewMesher(reg),
		logp:    logger,
		chunks:  make(map[geom.ChunkPos]*Chunk),
		store:   NewDataStore(dims),
		queued:  make(map[geom.ChunkPos]queueKind),
		desired: make(map[geom.ChunkPos]struct{}),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	start := mgl32.Vec3{0, float32(cfg.ChunkHeight) / 2, 0}
	p.observer.Store(&start)
	empty := []RenderChunk{}
	p.published.Store(&empty)
	return p
}

// SetTransitionLogger attaches a telemetry sink. Call before Start.
func (p *Planet) SetTransitionLogger(l TransitionLogger) { p.sink = l }

// Start spawns the streaming worker. Safe to call once.
func (p *Planet) Start() {
	p.startOnce.Do(func() {
		go p.worker()
	})
}

// Stop signals the worker and joins it deterministically.
func (p *Planet) Stop() {
	p.stopOnce.Do(func() {
		close(p.stop)
	})
	<-p.done
}

// Warm pre-generates the initial desired set in parallel before Start so
// the first frames have data waiting. Returns how many buffers were primed.
func (p *Planet) Warm(ctx context.Context, parallelism int) (int, error) {
	if parallelism < 1 {
		parallelism = 1
	}
	center := p.chunkCoordOf(*p.observer.Load())
	order := geom.RingOrder(center, p.cfg.RenderDistance, p.cfg.RenderHeight)
	bufs := make([]*voxel.Buffer, len(order))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)
	for i, pos := range order {
		i, pos := i, pos
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			bufs[i] = p.gen.Generate(pos)
			return nil
		})
	}
	err := g.Wait()

	p.mu.Lock()
	primed := 0
	for i, pos := range order {
		if bufs[i] == nil {
			continue
		}
		if p.store.Prime(pos, bufs[i]) {
			primed++
		}
	}
	p.mu.Unlock()
	return primed, err
}

// SetObserver publishes the observer's world position. Render thread.
func (p *Planet) SetObserver(pos mgl32.Vec3) {
	v := pos
	p.observer.Store(&v)
}

func (p *Planet) Observer() mgl32.Vec3 { return *p.observer.Load() }

func (p *Planet) chunkCoordOf(v mgl32.Vec3) geom.ChunkPos {
	return geom.ChunkPos{
		X: geom.FloorDiv(int(math.Floor(float64(v.X()))), p.dims.Width),
		Y: geom.FloorDiv(int(math.Floor(float64(v.Y()))), p.dims.Height),
		Z: geom.FloorDiv(int(math.Floor(float64(v.Z()))), p.dims.Width),
	}
}

func (p *Planet) locate(wx, wy, wz int) (cp geom.ChunkPos, lx, ly, lz int) {
	cp = geom.ChunkPos{
		X: geom.FloorDiv(wx, p.dims.Width),
		Y: geom.FloorDiv(wy, p.dims.Height),
		Z: geom.FloorDiv(wz, p.dims.Width),
	}
	return cp, geom.Mod(wx, p.dims.Width), geom.Mod(wy, p.dims.Height), geom.Mod(wz, p.dims.Width)
}

// Tick runs the render thread's share of the pipeline: it releases retired
// GPU handles, uploads every MeshReady chunk, and publishes the renderable
// snapshot. While the read lock is held no chunk can go stale (staleness
// needs the write lock), so uploads never race a remesh.
func (p *Planet) Tick() {
	t := p.tick.Add(1)

	p.retiredMu.Lock()
	retired := p.retired
	p.retired = nil
	p.retiredMu.Unlock()
	for _, ch := range retired {
		ch.ReleaseHandles(p.backend)
	}

	p.mu.RLock()
	snapshot := make([]RenderChunk, 0, len(p.chunks))
	for _, ch := range p.chunks {
		if ch.State() == StateMeshReady {
			if err := ch.Upload(p.backend); err != nil {
				p.logf("upload %s: %v", ch.Pos(), err)
				continue
			}
			p.report(TransitionEntry{
				Tick: t,
				X:    ch.Pos().X, Y: ch.Pos().Y, Z: ch.Pos().Z,
				From: StateMeshReady.String(), To: StateUploaded.String(),
			})
		}
		if ch.hasMesh[ClassOpaque] || ch.hasMesh[ClassLiquid] || ch.hasMesh[ClassBillboard] {
			snapshot = append(snapshot, ch.renderEntry())
		}
	}
	g := GaugeEntry{
		Tick:       t,
		DataQueue:  len(p.dataQ),
		MeshQueue:  len(p.meshQ),
		RegenQueue: len(p.regenQ),
		Active:     len(p.chunks),
		Resident:   p.store.Len(),
		Renderable: len(snapshot),
	}
	p.mu.RUnlock()

	sort.Slice(snapshot, func(i, j int) bool {
		a, b := snapshot[i].Pos, snapshot[j].Pos
		if a.X != b.X {
			return a.X < b.X
		}
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.Z < b.Z
	})
	p.published.Store(&snapshot)
	if p.sink != nil {
		p.sink.LogGauges(g)
	}
}

// Renderable returns the frustum-visible subset of the published chunk
// list. fp nil skips culling. The returned slice is shared; do not mutate.
func (p *Planet) Renderable(fp FrustumProvider) []RenderChunk {
	all := *p.published.Load()
	if fp == nil {
		return all
	}
	out := make([]RenderChunk, 0, len(all))
	for _, rc := range all {
		center, extents := geom.ChunkBox(rc.Pos, p.dims.Width, p.dims.Height)
		if fp.IsBoxVisible(center, extents) {
			out = append(out, rc)
		}
	}
	return out
}

// Tickcount reports how many render ticks have run.
func (p *Planet) Tickcount() uint64 { return p.tick.Load() }

// SetBlock writes one voxel of the world, marking the owning chunk and any
// boundary neighbors for remeshing. Returns false when the chunk has no
// data yet.
func (p *Planet) SetBlock(wx, wy, wz int, id uint8) bool {
	cp, lx, ly, lz := p.locate(wx, wy, wz)

	p.mu.Lock()
	defer p.mu.Unlock()
	ch, ok := p.chunks[cp]
	if !ok || ch.Buffer() == nil {
		return false
	}
	touched := ch.UpdateBlock(lx, ly, lz, id)
	p.enqueueLocked(cp, qRegen)
	for _, f := range touched {
		nb, ok := p.chunks[cp.Offset(f)]
		if !ok || nb.Buffer() == nil {
			continue
		}
		nb.MarkStale()
		p.enqueueLocked(nb.Pos(), qRegen)
	}
	return true
}

// BlockAt reads one voxel; ok is false outside the generated set.
func (p *Planet) BlockAt(wx, wy, wz int) (uint8, bool) {
	cp, lx, ly, lz := p.locate(wx, wy, wz)
	p.mu.RLock()
	defer p.mu.RUnlock()
	ch, ok := p.chunks[cp]
	if !ok || ch.Buffer() == nil {
		return block.Air, false
	}
	return ch.Buffer().Get(lx, ly, lz), true
}

// ChunkState reports the lifecycle stage of the chunk at pos, or
// StateEmpty,false when the position is not active.
func (p *Planet) ChunkState(pos geom.ChunkPos) (State, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	ch, ok := p.chunks[pos]
	if !ok {
		return StateEmpty, false
	}
	return ch.State(), true
}

// ActivePositions snapshots the active chunk set.
func (p *Planet) ActivePositions() []geom.ChunkPos {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]geom.ChunkPos, 0, len(p.chunks))
	for pos := range p.chunks {
		out = append(out, pos)
	}
	return out
}

// DebugState is a point-in-time summary served by the debug transport.
type DebugState struct {
	Tick       uint64         `json:"tick"`
	Observer   [3]float32     `json:"observer"`
	Center     [3]int         `json:"center_chunk"`
	States     map[string]int `json:"chunk_states"`
	DataQueue  int            `json:"data_queue"`
	MeshQueue  int            `json:"mesh_queue"`
	RegenQueue int            `json:"regen_queue"`
	Resident   int            `json:"resident_buffers"`
	Renderable int            `json:"renderable"`
}

func (p *Planet) Debug() DebugState {
	obs := p.Observer()
	d := DebugState{
		Tick:     p.tick.Load(),
		Observer: [3]float32{obs.X(), obs.Y(), obs.Z()},
		States:   make(map[string]int),
	}
	p.mu.RLock()
	d.Center = [3]int{p.center.X, p.center.Y, p.center.Z}
	for _, ch := range p.chunks {
		d.States[ch.State().String()]++
	}
	d.DataQueue = len(p.dataQ)
	d.MeshQueue = len(p.meshQ)
	d.RegenQueue = len(p.regenQ)
	d.Resident = p.store.Len()
	p.mu.RUnlock()
	d.Renderable = len(*p.published.Load())
	return d
}

func (p *Planet) logf(format string, args ...any) {
	if p.logp != nil {
		p.logp.Printf(format, args...)
	}
}

func (p *Planet) report(e TransitionEntry) {
	if p.sink != nil {
		p.sink.LogTransition(e)
	}
}

// enqueueLocked adds pos to one work queue. A position already tracked in
// any queue is left where it is, keeping the one-queue-per-position
// invariant.
func (p *Planet) enqueueLocked(pos geom.ChunkPos, kind queueKind) {
	if p.queued[pos] != qNone {
		return
	}
	p.queued[pos] = kind
	switch kind {
	case qData:
		p.dataQ = append(p.dataQ, pos)
	case qMesh:
		p.meshQ = append(p.meshQ, pos)
	case qRegen:
		p.regenQ = append(p.regenQ, pos)
	default:
		panic(fmt.Sprintf("world: enqueue of kind %d", kind))
	}
}

// popLocked takes the oldest live entry of a queue. Entries whose
// membership was retargeted or cleared are skipped lazily.
func (p *Planet) popLocked(q *[]geom.ChunkPos, kind queueKind) (geom.ChunkPos, bool) {
	for len(*q) > 0 {
		pos := (*q)[0]
		*q = (*q)[1:]
		if p.queued[pos] == kind {
			delete(p.queued, pos)
			return pos, true
		}
	}
	return geom.ChunkPos{}, false
}
