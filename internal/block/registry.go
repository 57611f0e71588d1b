// Package block loads and serves the immutable block definition registry.
package block

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Air is the reserved block id for empty space. Missing chunk data reads as
// Air everywhere.
const Air uint8 = 0

// MaxEmission is the strongest block light a definition may emit.
const MaxEmission = 15

// Category describes how a block participates in meshing and light.
type Category uint8

const (
	Solid Category = iota
	Transparent
	Leaves
	Billboard
	Liquid
)

var categoryName = [...]string{
	Solid:       "SOLID",
	Transparent: "TRANSPARENT",
	Leaves:      "LEAVES",
	Billboard:   "BILLBOARD",
	Liquid:      "LIQUID",
}

func (c Category) String() string {
	if int(c) < len(categoryName) {
		return categoryName[c]
	}
	return fmt.Sprintf("category(%d)", uint8(c))
}

func (c *Category) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	for i, name := range categoryName {
		if name == s {
			*c = Category(i)
			return nil
		}
	}
	return fmt.Errorf("unknown category %q", s)
}

func (c Category) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// Definition is one entry of blocks.json. Texture layers are indices into
// the texture atlas layer order; the renderer resolves them, the engine only
// carries them through to vertices.
type Definition struct {
	ID          string   `json:"id"`
	Category    Category `json:"category"`
	TopLayer    uint16   `json:"top_layer"`
	BottomLayer uint16   `json:"bottom_layer"`
	SideLayer   uint16   `json:"side_layer"`
	Emission    uint8    `json:"emission,omitempty"`
}

// LayerFor picks the texture layer for a face by its vertical orientation:
// dy>0 top, dy<0 bottom, otherwise side.
func (d Definition) LayerFor(dy int) uint16 {
	switch {
	case dy > 0:
		return d.TopLayer
	case dy < 0:
		return d.BottomLayer
	default:
		return d.SideLayer
	}
}

// Registry is the immutable block catalog. Palette order assigns the numeric
// ids stored in voxel buffers; AIR is always id 0.
type Registry struct {
	Palette       []string
	Index         map[string]uint8
	PaletteDigest string
	DefsDigest    string

	defs []Definition
}

// Load reads blocks.json from configDir and builds the registry.
func Load(configDir string) (*Registry, error) {
	return loadFile(filepath.Join(configDir, "blocks.json"))
}

func loadFile(path string) (*Registry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var defs []Definition
	if err := json.Unmarshal(raw, &defs); err != nil {
		return nil, fmt.Errorf("blocks.json: %w", err)
	}

	byID := map[string]Definition{}
	for _, d := range defs {
		if d.ID == "" {
			return nil, fmt.Errorf("blocks.json: empty id")
		}
		if _, dup := byID[d.ID]; dup {
			return nil, fmt.Errorf("blocks.json: duplicate id %q", d.ID)
		}
		if d.Emission > MaxEmission {
			return nil, fmt.Errorf("blocks.json: %s: emission %d exceeds %d", d.ID, d.Emission, MaxEmission)
		}
		byID[d.ID] = d
	}

	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	// Ensure AIR exists and is palette id 0.
	if _, ok := byID["AIR"]; !ok {
		return nil, fmt.Errorf("blocks.json: missing AIR")
	}
	ids = append([]string{"AIR"}, filterOut(ids, "AIR")...)

	if len(ids) > 256 {
		return nil, fmt.Errorf("blocks.json: %d blocks exceed the uint8 id space", len(ids))
	}

	r := &Registry{
		Palette:    ids,
		Index:      make(map[string]uint8, len(ids)),
		DefsDigest: sha256Hex(raw),
		defs:       make([]Definition, len(ids)),
	}
	for i, id := range ids {
		r.Index[id] = uint8(i)
		r.defs[i] = byID[id]
	}
	palJSON, _ := json.Marshal(ids)
	r.PaletteDigest = sha256Hex(palJSON)
	return r, nil
}

// Lookup returns the definition for a numeric block id. Ids outside the
// palette are corrupted data and panic.
func (r *Registry) Lookup(id uint8) Definition {
	if int(id) >= len(r.defs) {
		panic(fmt.Sprintf("block: id %d outside palette of %d", id, len(r.defs)))
	}
	return r.defs[id]
}

// ByName resolves a palette name to its numeric id.
func (r *Registry) ByName(name string) (uint8, bool) {
	id, ok := r.Index[name]
	return id, ok
}

func (r *Registry) Len() int { return len(r.defs) }

func filterOut(in []string, drop string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s != drop {
			out = append(out, s)
		}
	}
	return out
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
