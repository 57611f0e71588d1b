package world

import (
	"time"

	"github.com/diamondpixel/FakeMinecraft-sub000/internal/geom"
	"github.com/diamondpixel/FakeMinecraft-sub000/internal/light"
	"github.com/diamondpixel/FakeMinecraft-sub000/internal/mesh"
	"github.com/diamondpixel/FakeMinecraft-sub000/internal/voxel"
)

// worker is the single background goroutine of the streaming core. Each
// pass retargets the desired set if the observer crossed a chunk border,
// drains one item from every queue so no queue can starve another, then
// sweeps the data store. Empty passes back off with a bounded sleep; Stop
// is honored at the top of every pass.
func (p *Planet) worker() {
	defer close(p.done)
	for {
		select {
		case <-p.stop:
			return
		default:
		}

		progress := p.retarget()
		if p.stepData() {
			progress = true
		}
		if p.stepMesh() {
			progress = true
		}
		if p.stepRegen() {
			progress = true
		}
		p.mu.Lock()
		p.store.Sweep(p.isActiveLocked)
		p.mu.Unlock()

		if progress {
			continue
		}
		select {
		case <-p.stop:
			return
		case <-time.After(p.cfg.WorkerSleep()):
		}
	}
}

func (p *Planet) isActiveLocked(pos geom.ChunkPos) bool {
	_, ok := p.chunks[pos]
	return ok
}

// retarget rebuilds the desired set when the observer's chunk coordinate
// changed: new positions enter the data queue in ring-expansion order, so
// enqueue order is generation priority, and positions that fell outside
// render distance are evicted.
func (p *Planet) retarget() bool {
	center := p.chunkCoordOf(*p.observer.Load())

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.hasCenter && center == p.center {
		return false
	}
	p.center = center
	p.hasCenter = true

	order := geom.RingOrder(center, p.cfg.RenderDistance, p.cfg.RenderHeight)
	desired := make(map[geom.ChunkPos]struct{}, len(order))
	for _, pos := range order {
		desired[pos] = struct{}{}
	}
	p.desired = desired

	for _, pos := range order {
		if _, ok := p.chunks[pos]; ok {
			continue
		}
		ch := NewChunk(pos, p.dims)
		ch.transition(StateDataPending)
		p.chunks[pos] = ch
		p.enqueueLocked(pos, qData)
	}

	for pos, ch := range p.chunks {
		if _, want := desired[pos]; want {
			continue
		}
		p.evictLocked(pos, ch)
	}
	return true
}

// evictLocked removes a chunk from the active set, drops its data store
// reference, clears neighbor links pointing at its buffer and parks the
// chunk for the render thread to release its GPU handles.
func (p *Planet) evictLocked(pos geom.ChunkPos, ch *Chunk) {
	delete(p.chunks, pos)
	delete(p.queued, pos)

	from := ch.State()
	hadData := ch.Buffer() != nil
	ch.Evict()
	if hadData {
		p.store.Release(pos)
	}

	for _, f := range geom.Faces {
		nb, ok := p.chunks[pos.Offset(f)]
		if !ok {
			continue
		}
		nb.AttachNeighbor(f.Opposite(), nil)
		if _, want := p.desired[nb.Pos()]; !want {
			continue
		}
		// The surviving neighbor now borders ungenerated space; its
		// boundary faces become visible on the next remesh.
		if nb.Buffer() != nil {
			nb.MarkStale()
			p.enqueueLocked(nb.Pos(), qRegen)
		}
	}

	p.retiredMu.Lock()
	p.retired = append(p.retired, ch)
	p.retiredMu.Unlock()

	p.report(TransitionEntry{
		Tick: p.tick.Load(),
		X:    pos.X, Y: pos.Y, Z: pos.Z,
		From: from.String(), To: StateEvicted.String(),
	})
}

// stepData materializes one queued position: reuse resident data when the
// store still has it, otherwise synthesize outside the lock, then wire the
// buffer into the chunk and its neighbors.
func (p *Planet) stepData() bool {
	p.mu.Lock()
	pos, ok := p.popLocked(&p.dataQ, qData)
	if !ok {
		p.mu.Unlock()
		return false
	}
	ch := p.chunks[pos]
	if ch == nil || ch.State() != StateDataPending {
		p.mu.Unlock()
		return true
	}
	existing, have := p.store.Peek(pos)
	p.mu.Unlock()

	started := time.Now()
	buf := existing
	if !have {
		buf = p.gen.Generate(pos)
	}

	p.mu.Lock()
	landed := false
	if cur := p.chunks[pos]; cur == ch && ch.State() == StateDataPending {
		landed = true
		shared := p.store.Adopt(pos, buf)
		ch.SetData(shared)
		p.wireNeighborsLocked(ch)
		p.enqueueLocked(pos, qMesh)

		// An already-meshed neighbor culled this border against air;
		// remesh it now that real data exists.
		for _, f := range geom.Faces {
			nb, ok := p.chunks[pos.Offset(f)]
			if !ok {
				continue
			}
			switch nb.State() {
			case StateMeshReady, StateUploaded:
				nb.MarkStale()
				p.enqueueLocked(nb.Pos(), qRegen)
			}
		}
	}
	p.mu.Unlock()

	if landed {
		p.report(TransitionEntry{
			Tick: p.tick.Load(),
			X:    pos.X, Y: pos.Y, Z: pos.Z,
			From: StateDataPending.String(), To: StateDataReady.String(),
			Ms: float64(time.Since(started).Microseconds()) / 1000,
		})
	}
	return true
}

func (p *Planet) wireNeighborsLocked(ch *Chunk) {
	for _, f := range geom.Faces {
		nb, ok := p.chunks[ch.Pos().Offset(f)]
		if !ok || nb.Buffer() == nil {
			continue
		}
		ch.AttachNeighbor(f, nb.Buffer())
		nb.AttachNeighbor(f.Opposite(), ch.Buffer())
	}
}

func (p *Planet) stepMesh() bool {
	p.mu.Lock()
	pos, ok := p.popLocked(&p.meshQ, qMesh)
	p.mu.Unlock()
	if !ok {
		return false
	}
	p.meshChunk(pos)
	return true
}

func (p *Planet) stepRegen() bool {
	p.mu.Lock()
	pos, ok := p.popLocked(&p.regenQ, qRegen)
	p.mu.Unlock()
	if !ok {
		return false
	}
	p.meshChunk(pos)
	return true
}

// meshChunk runs lighting and meshing for one chunk. It holds the read lock
// for the whole pass: block edits take the write lock, so the buffers it
// reads cannot change underneath it, and since staleness transitions also
// need the write lock the render thread cannot observe a half-written mesh.
func (p *Planet) meshChunk(pos geom.ChunkPos) {
	started := time.Now()

	p.mu.RLock()
	ch := p.chunks[pos]
	if ch == nil {
		p.mu.RUnlock()
		return
	}
	from := ch.State()
	switch from {
	case StateDataReady, StateStale:
	default:
		p.mu.RUnlock()
		return
	}
	ch.BeginMesh()

	var neighbors [geom.FaceCount]*voxel.Buffer
	var neighborLight [geom.FaceCount][]uint8
	for _, f := range geom.Faces {
		neighbors[f] = ch.Neighbor(f)
		if nb, ok := p.chunks[pos.Offset(f)]; ok {
			neighborLight[f] = nb.Light()
		}
	}

	lightMap := p.lights.Compute(light.Input{
		Center:        ch.Buffer(),
		Neighbors:     neighbors,
		NeighborLight: neighborLight,
	})
	data := p.mesher.Build(mesh.Input{
		Pos:           pos,
		Center:        ch.Buffer(),
		Neighbors:     neighbors,
		Light:         lightMap,
		NeighborLight: neighborLight,
	})
	ch.SetMesh(lightMap, data)
	p.mu.RUnlock()

	p.report(TransitionEntry{
		Tick: p.tick.Load(),
		X:    pos.X, Y: pos.Y, Z: pos.Z,
		From: from.String(), To: StateMeshReady.String(),
		Ms: float64(time.Since(started).Microseconds()) / 1000,
	})
}
