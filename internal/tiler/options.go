package tiler

import (
	"strings"

	"github.com/ecopia-map/city_tiler/internal/source/citydb"
	"github.com/ecopia-map/city_tiler/internal/source/geojson"
	"github.com/ecopia-map/city_tiler/internal/tileset"
)

type RefineMode string

const (
	RefineModeReplace RefineMode = tileset.RefineReplace
)

func (e RefineMode) String() string {
	if e == RefineModeReplace {
		return tileset.RefineReplace
	}
	return ""
}

// ParseRefineMode only knows REPLACE: tiles never carry the content of their parent
func ParseRefineMode(value string) RefineMode {
	normalizedValue := strings.Trim(strings.ToUpper(value), " ")
	if normalizedValue == tileset.RefineReplace {
		return RefineModeReplace
	}
	return ""
}

// Contains the options needed for the tiling process
type TilerOptions struct {
	Command          string
	Input            string     // Input GeoJSON file/folder
	Output           string     // Output 3D Tiles folder
	Srid             int        // EPSG code of the input coordinates
	TargetSrid       int        // EPSG code of the output coordinates
	ZOffset          float64    // Z Offset in meters to apply to vertices during conversion
	FolderProcessing bool       // Enables the processing of all GeoJSON files in folder
	Recursive        bool       // Recursive lookup of GeoJSON files in subfolders
	WithHierarchy    bool       // Adds the batch table hierarchy of buildings and building parts
	RefineMode       RefineMode // Refine mode of the non leaf tiles
	SchemaDir        string     // Folder holding the JSON schemas
	MetricsFile      string     // Prometheus textfile written at the end of the run, if set

	Policy   tileset.Policy
	Geojson  geojson.Options
	Database citydb.Options
}
