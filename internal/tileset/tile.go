package tileset

import (
	"path"
	"strconv"

	"github.com/ecopia-map/city_tiler/internal/content"
	"github.com/ecopia-map/city_tiler/internal/geometry"
)

const (
	RefineReplace = "REPLACE"

	ContentFileName = "content.b3dm"
)

// Tile is a node of the tile tree. Its bounding box and content are expressed in the tile local frame, whose
// origin lies at Offset in the world frame. Transform translates the local frame into the parent one.
type Tile struct {
	BoundingBox    *geometry.BoundingBox
	GeometricError float64
	Refine         string
	Content        *content.TileContent
	Children       []*Tile
	Depth          int

	// world position of the local frame origin
	Offset geometry.Coordinate
	// translation from the parent frame, zero for the root
	Translation geometry.Coordinate
	// child indexes from the root
	Path []int
}

func (t *Tile) IsRoot() bool {
	return t.Depth == 0
}

func (t *Tile) IsLeaf() bool {
	return len(t.Children) == 0
}

func (t *Tile) HasContent() bool {
	return t.Content != nil
}

// Transform returns the column major 4x4 matrix translating the tile frame into its parent frame
func (t *Tile) Transform() [16]float64 {
	return [16]float64{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		t.Translation.X, t.Translation.Y, t.Translation.Z, 1,
	}
}

// WorldBoundingBox returns the bounding box of the tile in the world frame
func (t *Tile) WorldBoundingBox() *geometry.BoundingBox {
	return t.BoundingBox.Translate(t.Offset)
}

// Dir returns the folder of the tile relative to the tileset root, e.g. "0/3"
func (t *Tile) Dir() string {
	parts := make([]string, len(t.Path))
	for i, idx := range t.Path {
		parts[i] = strconv.Itoa(idx)
	}
	return path.Join(parts...)
}

// ContentURI returns the path of the tile content relative to the tileset root
func (t *Tile) ContentURI() string {
	if !t.HasContent() {
		return ""
	}
	return path.Join(t.Dir(), ContentFileName)
}

// TileSet is a complete tile tree ready to be written
type TileSet struct {
	Root           *Tile
	GeometricError float64
	// where the features come from, reported in the asset extras
	Provenance string
	// features dropped before partitioning
	Diagnostics []content.Diagnostic
}

// Walk visits the tiles depth first, parents before children. Stops at the first error.
func (ts *TileSet) Walk(fn func(t *Tile) error) error {
	return walk(ts.Root, fn)
}

func walk(t *Tile, fn func(t *Tile) error) error {
	if err := fn(t); err != nil {
		return err
	}
	for _, child := range t.Children {
		if err := walk(child, fn); err != nil {
			return err
		}
	}
	return nil
}

// Tiles returns every tile of the tree in Walk order
func (ts *TileSet) Tiles() []*Tile {
	tiles := make([]*Tile, 0)
	_ = ts.Walk(func(t *Tile) error {
		tiles = append(tiles, t)
		return nil
	})
	return tiles
}
