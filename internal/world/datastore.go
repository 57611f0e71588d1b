package world

import (
	"fmt"

	"github.com/diamondpixel/FakeMinecraft-sub000/internal/geom"
	"github.com/diamondpixel/FakeMinecraft-sub000/internal/voxel"
)

// DataStore is the single owner of every chunk's voxel buffer. Chunks hold
// shared handles into it, both for their own data and for the six face
// neighbors they cull against; the store is the only place buffers are
// created or freed. It is not internally locked: the planet's world lock
// guards all access.
type DataStore struct {
	dims    voxel.Dims
	entries map[geom.ChunkPos]*storeEntry
}

type storeEntry struct {
	buf  *voxel.Buffer
	refs int
}

func NewDataStore(dims voxel.Dims) *DataStore {
	return &DataStore{dims: dims, entries: make(map[geom.ChunkPos]*storeEntry)}
}

// Peek returns the buffer at pos without creating or retaining it.
func (s *DataStore) Peek(pos geom.ChunkPos) (*voxel.Buffer, bool) {
	e, ok := s.entries[pos]
	if !ok {
		return nil, false
	}
	return e.buf, true
}

// Adopt retains buf at pos, reusing an already-present buffer instead: a
// position evicted and re-admitted before the sweep keeps its old data, and
// a generation that raced an earlier one is discarded.
func (s *DataStore) Adopt(pos geom.ChunkPos, buf *voxel.Buffer) *voxel.Buffer {
	if e, ok := s.entries[pos]; ok {
		e.refs++
		return e.buf
	}
	if buf.Dims() != s.dims {
		panic(fmt.Sprintf("world: store %s buffer dims %v != %v", pos, buf.Dims(), s.dims))
	}
	s.entries[pos] = &storeEntry{buf: buf, refs: 1}
	return buf
}

// Prime inserts buf at pos without retaining it, for parallel warm-up
// before streaming starts. Reports whether the buffer was kept; a position
// already resident keeps its existing data.
func (s *DataStore) Prime(pos geom.ChunkPos, buf *voxel.Buffer) bool {
	if _, ok := s.entries[pos]; ok {
		return false
	}
	if buf.Dims() != s.dims {
		panic(fmt.Sprintf("world: store %s buffer dims %v != %v", pos, buf.Dims(), s.dims))
	}
	s.entries[pos] = &storeEntry{buf: buf, refs: 0}
	return true
}

// Retain bumps the reference count of an existing buffer.
func (s *DataStore) Retain(pos geom.ChunkPos) {
	e, ok := s.entries[pos]
	if !ok {
		panic(fmt.Sprintf("world: retain of absent buffer %s", pos))
	}
	e.refs++
}

// Release drops one reference. The buffer stays resident until the sweep
// confirms no adjacent chunk still needs it as boundary data.
func (s *DataStore) Release(pos geom.ChunkPos) {
	e, ok := s.entries[pos]
	if !ok {
		panic(fmt.Sprintf("world: release of absent buffer %s", pos))
	}
	e.refs--
	if e.refs < 0 {
		panic(fmt.Sprintf("world: refcount underflow at %s", pos))
	}
}

// Sweep frees every unreferenced buffer whose own position and all six face
// neighbors are outside the active set; anything closer may still be read
// as a neighbor's boundary. Returns the number of buffers freed.
func (s *DataStore) Sweep(active func(geom.ChunkPos) bool) int {
	freed := 0
	for pos, e := range s.entries {
		if e.refs > 0 || active(pos) {
			continue
		}
		needed := false
		for _, f := range geom.Faces {
			if active(pos.Offset(f)) {
				needed = true
				break
			}
		}
		if needed {
			continue
		}
		delete(s.entries, pos)
		freed++
	}
	return freed
}

// Len reports the number of resident buffers.
func (s *DataStore) Len() int { return len(s.entries) }
