package block_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/diamondpixel/FakeMinecraft-sub000/internal/block"
)

func findRepoRoot(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatalf("could not find repo root from %s", dir)
		}
		dir = parent
	}
}

func loadShipped(t *testing.T) *block.Registry {
	t.Helper()
	r, err := block.Load(filepath.Join(findRepoRoot(t), "configs"))
	if err != nil {
		t.Fatalf("load blocks: %v", err)
	}
	return r
}

func TestLoad_AirIsZero(t *testing.T) {
	r := loadShipped(t)
	if r.Palette[0] != "AIR" {
		t.Fatalf("palette[0] = %q, want AIR", r.Palette[0])
	}
	id, ok := r.ByName("AIR")
	if !ok || id != block.Air {
		t.Fatalf("AIR id = %d ok=%v", id, ok)
	}
	if r.Lookup(block.Air).Category == block.Solid {
		t.Fatalf("AIR must not occlude")
	}
}

func TestLoad_PaletteSortedAfterAir(t *testing.T) {
	r := loadShipped(t)
	for i := 2; i < len(r.Palette); i++ {
		if r.Palette[i-1] >= r.Palette[i] {
			t.Fatalf("palette not sorted at %d: %q >= %q", i, r.Palette[i-1], r.Palette[i])
		}
	}
	if r.PaletteDigest == "" || r.DefsDigest == "" {
		t.Fatalf("missing digests")
	}
}

func TestLoad_Definitions(t *testing.T) {
	r := loadShipped(t)
	grass, ok := r.ByName("GRASS_BLOCK")
	if !ok {
		t.Fatalf("GRASS_BLOCK missing")
	}
	d := r.Lookup(grass)
	if d.Category != block.Solid {
		t.Fatalf("GRASS_BLOCK category %v", d.Category)
	}
	if d.TopLayer == d.SideLayer || d.BottomLayer == d.TopLayer {
		t.Fatalf("GRASS_BLOCK should use distinct top/bottom/side layers: %+v", d)
	}
	if d.LayerFor(1) != d.TopLayer || d.LayerFor(-1) != d.BottomLayer || d.LayerFor(0) != d.SideLayer {
		t.Fatalf("LayerFor orientation mapping wrong: %+v", d)
	}

	lava, ok := r.ByName("LAVA")
	if !ok {
		t.Fatalf("LAVA missing")
	}
	if got := r.Lookup(lava); got.Category != block.Liquid || got.Emission != block.MaxEmission {
		t.Fatalf("LAVA definition %+v", got)
	}

	water, _ := r.ByName("WATER")
	if got := r.Lookup(water); got.Emission != 0 {
		t.Fatalf("WATER should not emit light: %+v", got)
	}
}

func TestLoad_RejectsBadInput(t *testing.T) {
	write := func(t *testing.T, body string) string {
		t.Helper()
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, "blocks.json"), []byte(body), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
		return dir
	}

	cases := []struct {
		name string
		body string
	}{
		{"missing air", `[{"id":"STONE","category":"SOLID","top_layer":0,"bottom_layer":0,"side_layer":0}]`},
		{"empty id", `[{"id":"","category":"SOLID","top_layer":0,"bottom_layer":0,"side_layer":0}]`},
		{"bad category", `[{"id":"AIR","category":"GAS","top_layer":0,"bottom_layer":0,"side_layer":0}]`},
		{"duplicate id", `[{"id":"AIR","category":"TRANSPARENT","top_layer":0,"bottom_layer":0,"side_layer":0},{"id":"AIR","category":"TRANSPARENT","top_layer":0,"bottom_layer":0,"side_layer":0}]`},
		{"emission range", `[{"id":"AIR","category":"TRANSPARENT","top_layer":0,"bottom_layer":0,"side_layer":0,"emission":16}]`},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, err := block.Load(write(t, c.body)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestLookup_PanicsOutsidePalette(t *testing.T) {
	r := loadShipped(t)
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for id outside palette")
		}
	}()
	r.Lookup(uint8(r.Len()))
}

func TestBlocksJSON_MatchesSchema(t *testing.T) {
	root := findRepoRoot(t)
	s, err := jsonschema.Compile(filepath.Join(root, "schemas", "blocks.schema.json"))
	if err != nil {
		t.Fatalf("compile schema: %v", err)
	}
	raw, err := os.ReadFile(filepath.Join(root, "configs", "blocks.json"))
	if err != nil {
		t.Fatalf("read blocks.json: %v", err)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("unmarshal blocks.json: %v", err)
	}
	if err := s.Validate(doc); err != nil {
		t.Fatalf("blocks.json does not match schema: %v", err)
	}
}
