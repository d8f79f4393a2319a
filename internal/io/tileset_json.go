package io

import (
	"github.com/ecopia-map/city_tiler/internal/content"
	"github.com/ecopia-map/city_tiler/internal/tileset"
	"github.com/shopspring/decimal"
)

// decimal places kept when writing coordinates and errors
const numberPrecision = 8

// Number is a float written with a fixed maximum number of decimals, so that equal trees produce equal files
type Number float64

func (n Number) MarshalJSON() ([]byte, error) {
	return []byte(decimal.NewFromFloat(float64(n)).Round(numberPrecision).String()), nil
}

func numbers(values []float64) []Number {
	out := make([]Number, len(values))
	for i, v := range values {
		out[i] = Number(v)
	}
	return out
}

type AssetExtras struct {
	Provenance string `json:"provenance,omitempty"`
}

type Asset struct {
	Version    string       `json:"version"`
	GltfUpAxis string       `json:"gltfUpAxis"`
	Extras     *AssetExtras `json:"extras,omitempty"`
}

type BoundingVolume struct {
	Box []Number `json:"box"`
}

type Content struct {
	Uri string `json:"uri"`
}

type Tile struct {
	BoundingVolume BoundingVolume `json:"boundingVolume"`
	GeometricError Number         `json:"geometricError"`
	Refine         string         `json:"refine,omitempty"`
	Transform      []Number       `json:"transform,omitempty"`
	Content        *Content       `json:"content,omitempty"`
	Children       []Tile         `json:"children,omitempty"`
}

type Tileset struct {
	Asset          Asset    `json:"asset"`
	GeometricError Number   `json:"geometricError"`
	Root           Tile     `json:"root"`
	ExtensionsUsed []string `json:"extensionsUsed,omitempty"`
}

// Generates the json model of the whole tile tree
func generateTileset(ts *tileset.TileSet) *Tileset {
	out := &Tileset{
		Asset:          Asset{Version: "1.0", GltfUpAxis: "Y"},
		GeometricError: Number(ts.GeometricError),
		Root:           generateTile(ts.Root),
	}
	if ts.Provenance != "" {
		out.Asset.Extras = &AssetExtras{Provenance: ts.Provenance}
	}
	for _, t := range ts.Tiles() {
		if t.HasContent() && t.Content.Hierarchy != nil {
			out.ExtensionsUsed = []string{content.HierarchyExtension}
			break
		}
	}
	return out
}

func generateTile(t *tileset.Tile) Tile {
	out := Tile{
		BoundingVolume: BoundingVolume{Box: numbers(t.BoundingBox.GetAsArray())},
		GeometricError: Number(t.GeometricError),
		Refine:         t.Refine,
	}
	if !t.IsRoot() {
		transform := t.Transform()
		out.Transform = numbers(transform[:])
	}
	if t.HasContent() {
		out.Content = &Content{Uri: t.ContentURI()}
	}
	for _, child := range t.Children {
		out.Children = append(out.Children, generateTile(child))
	}
	return out
}
