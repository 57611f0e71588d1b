package geom

import "fmt"

// ChunkPos identifies a chunk on the infinite 3D chunk grid. Neighboring Y
// positions are full column sections stacked vertically, not unit cubes.
type ChunkPos struct {
	X int
	Y int
	Z int
}

func (p ChunkPos) String() string {
	return fmt.Sprintf("(%d,%d,%d)", p.X, p.Y, p.Z)
}

func (p ChunkPos) Add(dx, dy, dz int) ChunkPos {
	return ChunkPos{X: p.X + dx, Y: p.Y + dy, Z: p.Z + dz}
}

func (p ChunkPos) Offset(f Face) ChunkPos {
	d := faceDelta[f]
	return p.Add(d[0], d[1], d[2])
}

// Face enumerates the six axis-aligned directions. Opposing faces are
// adjacent in the numbering so Opposite is a xor.
type Face uint8

const (
	East   Face = iota // +X
	West               // -X
	Top                // +Y
	Bottom             // -Y
	North              // +Z
	South              // -Z

	FaceCount = 6
)

var faceDelta = [FaceCount][3]int{
	East:   {1, 0, 0},
	West:   {-1, 0, 0},
	Top:    {0, 1, 0},
	Bottom: {0, -1, 0},
	North:  {0, 0, 1},
	South:  {0, 0, -1},
}

var faceName = [FaceCount]string{"east", "west", "top", "bottom", "north", "south"}

func (f Face) Delta() (dx, dy, dz int) {
	d := faceDelta[f]
	return d[0], d[1], d[2]
}

func (f Face) Opposite() Face { return f ^ 1 }

// Axis reports 0 for X faces, 1 for Y, 2 for Z.
func (f Face) Axis() int { return int(f) >> 1 }

// Positive reports whether the face points along the positive axis.
func (f Face) Positive() bool { return f&1 == 0 }

func (f Face) String() string {
	if int(f) < len(faceName) {
		return faceName[f]
	}
	return fmt.Sprintf("face(%d)", uint8(f))
}

// Faces lists all six directions in canonical order.
var Faces = [FaceCount]Face{East, West, Top, Bottom, North, South}
