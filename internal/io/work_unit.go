package io

import (
	"github.com/ecopia-map/city_tiler/internal/tileset"
)

// Contains the minimal data needed to produce a single 3d tile content file
type WorkUnit struct {
	Tile     *tileset.Tile
	BasePath string
}
