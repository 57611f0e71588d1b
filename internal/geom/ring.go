package geom

// RingOrder returns every chunk position within radius horizontal rings and
// ±height vertical sections of center, nearest first: the center column,
// then each square ring at growing radius. Inside a column Y alternates
// outward from center.Y so near sections load before far ones on every axis.
// The order is fully deterministic for a given center.
func RingOrder(center ChunkPos, radius, height int) []ChunkPos {
	if radius < 0 {
		radius = 0
	}
	if height < 0 {
		height = 0
	}
	side := 2*radius + 1
	out := make([]ChunkPos, 0, side*side*(2*height+1))

	column := func(cx, cz int) {
		out = append(out, ChunkPos{X: cx, Y: center.Y, Z: cz})
		for dy := 1; dy <= height; dy++ {
			out = append(out, ChunkPos{X: cx, Y: center.Y - dy, Z: cz})
			out = append(out, ChunkPos{X: cx, Y: center.Y + dy, Z: cz})
		}
	}

	column(center.X, center.Z)
	for r := 1; r <= radius; r++ {
		for x := center.X - r; x <= center.X+r; x++ {
			column(x, center.Z-r)
			column(x, center.Z+r)
		}
		for z := center.Z - r + 1; z <= center.Z+r-1; z++ {
			column(center.X-r, z)
			column(center.X+r, z)
		}
	}
	return out
}

// RingRadius reports the Chebyshev ring index of p relative to center on the
// horizontal plane, used for eviction distance checks.
func RingRadius(center, p ChunkPos) int {
	dx := AbsInt(p.X - center.X)
	dz := AbsInt(p.Z - center.Z)
	if dx > dz {
		return dx
	}
	return dz
}
