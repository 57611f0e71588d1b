// Package atlas packs block texture tiles into one RGBA image. Layer
// indices are assigned by sorted file name, so an atlas rebuilds identically
// from the same tile set; the render backend owns the GPU upload.
package atlas

import (
	"fmt"
	"image"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	xdraw "golang.org/x/image/draw"
)

type Atlas struct {
	Image    *image.RGBA
	TileSize int
	Columns  int

	names []string
	index map[string]uint16
}

// Build reads every .png under dir, rescales each tile to tileSize and
// packs them into a near-square grid in sorted name order.
func Build(dir string, tileSize int) (*Atlas, error) {
	if tileSize <= 0 {
		return nil, fmt.Errorf("atlas: tile size %d", tileSize)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".png") {
			continue
		}
		names = append(names, e.Name())
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("atlas: no .png tiles in %s", dir)
	}
	sort.Strings(names)

	cols := int(math.Ceil(math.Sqrt(float64(len(names)))))
	rows := (len(names) + cols - 1) / cols
	out := image.NewRGBA(image.Rect(0, 0, cols*tileSize, rows*tileSize))

	a := &Atlas{
		Image:    out,
		TileSize: tileSize,
		Columns:  cols,
		index:    make(map[string]uint16, len(names)),
	}
	for i, name := range names {
		f, err := os.Open(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		src, err := png.Decode(f)
		_ = f.Close()
		if err != nil {
			return nil, fmt.Errorf("atlas: %s: %w", name, err)
		}
		// Nearest keeps pixel-art tiles crisp at any scale.
		xdraw.NearestNeighbor.Scale(out, a.TileRect(uint16(i)), src, src.Bounds(), xdraw.Src, nil)

		key := strings.TrimSuffix(name, ".png")
		a.names = append(a.names, key)
		a.index[key] = uint16(i)
	}
	return a, nil
}

// Layer resolves a tile name (file name without extension) to its layer.
func (a *Atlas) Layer(name string) (uint16, bool) {
	i, ok := a.index[name]
	return i, ok
}

// Names lists the packed tiles in layer order.
func (a *Atlas) Names() []string { return a.names }

func (a *Atlas) LayerCount() int { return len(a.names) }

// TileRect is the pixel rectangle of one layer inside the atlas image.
func (a *Atlas) TileRect(layer uint16) image.Rectangle {
	x := int(layer) % a.Columns * a.TileSize
	y := int(layer) / a.Columns * a.TileSize
	return image.Rect(x, y, x+a.TileSize, y+a.TileSize)
}
