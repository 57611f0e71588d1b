package voxel

import "testing"

func TestIndexBijective(t *testing.T) {
	d := Dims{Width: 8, Height: 16}
	seen := make([]bool, d.Volume())
	for y := 0; y < d.Height; y++ {
		for z := 0; z < d.Width; z++ {
			for x := 0; x < d.Width; x++ {
				i := d.Index(x, y, z)
				if i < 0 || i >= d.Volume() {
					t.Fatalf("index (%d,%d,%d) -> %d outside volume", x, y, z, i)
				}
				if seen[i] {
					t.Fatalf("index collision at offset %d for (%d,%d,%d)", i, x, y, z)
				}
				seen[i] = true
				rx, ry, rz := d.Unindex(i)
				if rx != x || ry != y || rz != z {
					t.Fatalf("unindex(%d) = (%d,%d,%d) want (%d,%d,%d)", i, rx, ry, rz, x, y, z)
				}
			}
		}
	}
	for i, ok := range seen {
		if !ok {
			t.Fatalf("offset %d never produced", i)
		}
	}
}

func TestIndexPanicsOutOfBounds(t *testing.T) {
	d := Dims{Width: 4, Height: 4}
	cases := [][3]int{
		{-1, 0, 0}, {4, 0, 0}, {0, -1, 0}, {0, 4, 0}, {0, 0, -1}, {0, 0, 4},
	}
	for _, c := range cases {
		func() {
			defer func() {
				if recover() == nil {
					t.Fatalf("Index(%d,%d,%d) did not panic", c[0], c[1], c[2])
				}
			}()
			d.Index(c[0], c[1], c[2])
		}()
	}
}

func TestBufferGetSet(t *testing.T) {
	b := NewBuffer(Dims{Width: 4, Height: 8})
	if got := b.Get(1, 2, 3); got != 0 {
		t.Fatalf("fresh buffer voxel = %d, want 0", got)
	}
	b.Set(1, 2, 3, 9)
	if got := b.Get(1, 2, 3); got != 9 {
		t.Fatalf("after set: %d want 9", got)
	}
	if got := b.Get(3, 2, 1); got != 0 {
		t.Fatalf("unrelated voxel changed to %d", got)
	}
	b.Fill(7)
	for i, v := range b.Data() {
		if v != 7 {
			t.Fatalf("fill missed offset %d (%d)", i, v)
		}
	}
}
