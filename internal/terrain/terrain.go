// Package terrain synthesizes chunk voxel data. Generators are pure
// functions of (seed, chunk position) so a chunk regenerates bit-identical
// no matter when or on which worker it is built.
package terrain

import (
	"fmt"

	"github.com/ojrac/opensimplex-go"

	"github.com/diamondpixel/FakeMinecraft-sub000/internal/block"
	"github.com/diamondpixel/FakeMinecraft-sub000/internal/config"
	"github.com/diamondpixel/FakeMinecraft-sub000/internal/geom"
	"github.com/diamondpixel/FakeMinecraft-sub000/internal/voxel"
)

// palette holds the resolved numeric ids the generator places.
type palette struct {
	stone, dirt, grass, sand, gravel uint8
	bedrock, water, lava             uint8
	coal, iron, gold, diamond        uint8
	oakLog, oakLeaves                uint8
	tallGrass, dandelion, poppy      uint8
}

func resolvePalette(reg *block.Registry) (palette, error) {
	var p palette
	for _, want := range []struct {
		name string
		dst  *uint8
	}{
		{"STONE", &p.stone},
		{"DIRT", &p.dirt},
		{"GRASS_BLOCK", &p.grass},
		{"SAND", &p.sand},
		{"GRAVEL", &p.gravel},
		{"BEDROCK", &p.bedrock},
		{"WATER", &p.water},
		{"LAVA", &p.lava},
		{"COAL_ORE", &p.coal},
		{"IRON_ORE", &p.iron},
		{"GOLD_ORE", &p.gold},
		{"DIAMOND_ORE", &p.diamond},
		{"OAK_LOG", &p.oakLog},
		{"OAK_LEAVES", &p.oakLeaves},
		{"TALL_GRASS", &p.tallGrass},
		{"DANDELION", &p.dandelion},
		{"POPPY", &p.poppy},
	} {
		id, ok := reg.ByName(want.name)
		if !ok {
			return p, fmt.Errorf("terrain: block %s missing from registry", want.name)
		}
		*want.dst = id
	}
	return p, nil
}

// Simplex is the default world generator: an octaved opensimplex heightmap
// with biome banding, strata, caves, depth-banded ores, lakes up to sea
// level, lava pockets near the floor, trees and billboard flora.
type Simplex struct {
	cfg  config.Config
	dims voxel.Dims
	pal  palette

	height opensimplex.Noise
	biome  opensimplex.Noise
	cave   opensimplex.Noise
}

func NewSimplex(cfg config.Config, reg *block.Registry) (*Simplex, error) {
	pal, err := resolvePalette(reg)
	if err != nil {
		return nil, err
	}
	return &Simplex{
		cfg:    cfg,
		dims:   voxel.Dims{Width: cfg.ChunkWidth, Height: cfg.ChunkHeight},
		pal:    pal,
		height: opensimplex.NewNormalized(cfg.Seed),
		biome:  opensimplex.NewNormalized(cfg.Seed + 1),
		cave:   opensimplex.New(cfg.Seed + 2),
	}, nil
}

// fractal sums octaves of 2D noise, halving amplitude and doubling
// frequency per octave; the result stays in [0,1].
func (g *Simplex) fractal(n opensimplex.Noise, x, z float64, octaves int) float64 {
	sum, amp, freq, norm := 0.0, 1.0, 1.0, 0.0
	for i := 0; i < octaves; i++ {
		sum += amp * n.Eval2(x*freq, z*freq)
		norm += amp
		amp *= 0.5
		freq *= 2
	}
	return sum / norm
}

const (
	caveThreshold = 0.58
	caveScale     = 0.052
	lavaCeiling   = 9
)

// surfaceHeight is the terrain height of one world column.
func (g *Simplex) surfaceHeight(wx, wz int) int {
	base := g.fractal(g.height, float64(wx)/173.0, float64(wz)/173.0, 5)
	relief := g.fractal(g.biome, float64(wx)/641.0, float64(wz)/641.0, 3)
	// Flat plains most places, mountains where the relief channel peaks.
	amp := 14.0 + relief*relief*70.0
	h := float64(g.cfg.SeaLevel) - 6 + base*amp
	if h < 4 {
		h = 4
	}
	if max := float64(g.dims.Height - 10); h > max {
		h = max
	}
	return int(h)
}

// Generate builds the voxel buffer for one chunk. Sections above the ground
// section are air, sections below are solid stone.
func (g *Simplex) Generate(pos geom.ChunkPos) *voxel.Buffer {
	buf := voxel.NewBuffer(g.dims)
	switch {
	case pos.Y > 0:
		return buf
	case pos.Y < 0:
		buf.Fill(g.pal.stone)
		return buf
	}

	w := g.dims.Width
	for z := 0; z < w; z++ {
		for x := 0; x < w; x++ {
			wx := pos.X*w + x
			wz := pos.Z*w + z
			g.column(buf, x, z, wx, wz)
		}
	}
	g.decorate(buf, pos)
	return buf
}

func (g *Simplex) column(buf *voxel.Buffer, x, z, wx, wz int) {
	h := g.surfaceHeight(wx, wz)
	sea := g.cfg.SeaLevel
	beach := h <= sea+1

	for y := 0; y < g.dims.Height; y++ {
		var id uint8
		switch {
		case y == 0:
			id = g.pal.bedrock
		case y < h-3:
			id = g.deepBlock(wx, y, wz)
		case y < h:
			if beach {
				id = g.pal.sand
			} else {
				id = g.pal.dirt
			}
		case y == h:
			switch {
			case beach:
				id = g.pal.sand
			default:
				id = g.pal.grass
			}
		case y <= sea:
			id = g.pal.water
		default:
			continue
		}

		// Carve caves through rock and soil, never the floor or the sea.
		if id != g.pal.bedrock && id != g.pal.water && y <= h {
			if g.cave.Eval3(float64(wx)*caveScale, float64(y)*caveScale, float64(wz)*caveScale) > caveThreshold {
				if y < lavaCeiling {
					id = g.pal.lava
				} else {
					continue
				}
			}
		}
		buf.Set(x, y, z, id)
	}
}

// deepBlock picks stone or an ore for one underground voxel. Ore odds are
// hash-sprinkled per voxel and banded by depth, richest ores deepest.
func (g *Simplex) deepBlock(wx, y, wz int) uint8 {
	roll := geom.Hash3(g.cfg.Seed+11, wx, y, wz) % 10000
	switch {
	case y < 18 && roll < 14:
		return g.pal.diamond
	case y < 34 && roll >= 20 && roll < 48:
		return g.pal.gold
	case y < 64 && roll >= 60 && roll < 130:
		return g.pal.iron
	case roll >= 150 && roll < 290:
		return g.pal.coal
	case roll >= 300 && roll < 360:
		return g.pal.gravel
	default:
		return g.pal.stone
	}
}

const treeMargin = 2

// decorate places trees and flora. Features are kept inside a margin so a
// canopy never leaks into a neighbor chunk; placement is a pure function of
// the world position.
func (g *Simplex) decorate(buf *voxel.Buffer, pos geom.ChunkPos) {
	w := g.dims.Width
	for z := treeMargin; z < w-treeMargin; z++ {
		for x := treeMargin; x < w-treeMargin; x++ {
			wx := pos.X*w + x
			wz := pos.Z*w + z
			h := g.surfaceHeight(wx, wz)
			if h+8 >= g.dims.Height || buf.Get(x, h, z) != g.pal.grass {
				continue
			}
			roll := geom.Hash2(g.cfg.Seed+23, wx, wz) % 1000
			switch {
			case roll < 7:
				g.plantTree(buf, x, h, z, wx, wz)
			case roll < 60:
				buf.Set(x, h+1, z, g.pal.tallGrass)
			case roll < 68:
				buf.Set(x, h+1, z, g.pal.dandelion)
			case roll < 76:
				buf.Set(x, h+1, z, g.pal.poppy)
			}
		}
	}
}

func (g *Simplex) plantTree(buf *voxel.Buffer, x, h, z, wx, wz int) {
	trunk := 4 + int(geom.Hash2(g.cfg.Seed+29, wx, wz)%3)
	top := h + trunk

	for dy := 1; dy <= trunk; dy++ {
		buf.Set(x, h+dy, z, g.pal.oakLog)
	}
	// Leaf blob: two full layers around the crown, a plus-shaped cap.
	for dy := -1; dy <= 0; dy++ {
		for dz := -2; dz <= 2; dz++ {
			for dx := -2; dx <= 2; dx++ {
				if dx == 0 && dz == 0 && dy <= 0 {
					continue
				}
				if geom.AbsInt(dx) == 2 && geom.AbsInt(dz) == 2 {
					continue
				}
				g.setIfAir(buf, x+dx, top+dy, z+dz, g.pal.oakLeaves)
			}
		}
	}
	for _, d := range [5][2]int{{0, 0}, {1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
		g.setIfAir(buf, x+d[0], top+1, z+d[1], g.pal.oakLeaves)
	}
}

func (g *Simplex) setIfAir(buf *voxel.Buffer, x, y, z int, id uint8) {
	if !g.dims.InBounds(x, y, z) {
		return
	}
	if buf.Get(x, y, z) == block.Air {
		buf.Set(x, y, z, id)
	}
}

// Flat fills every ground-section chunk with one block type up to a fixed
// level, for tests and benchmarks.
type Flat struct {
	dims  voxel.Dims
	id    uint8
	level int
}

func NewFlat(dims voxel.Dims, id uint8, level int) *Flat {
	return &Flat{dims: dims, id: id, level: level}
}

func (g *Flat) Generate(pos geom.ChunkPos) *voxel.Buffer {
	buf := voxel.NewBuffer(g.dims)
	if pos.Y != 0 {
		return buf
	}
	for y := 0; y < g.level && y < g.dims.Height; y++ {
		for z := 0; z < g.dims.Width; z++ {
			for x := 0; x < g.dims.Width; x++ {
				buf.Set(x, y, z, g.id)
			}
		}
	}
	return buf
}
