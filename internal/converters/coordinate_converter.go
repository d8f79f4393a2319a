package converters

import (
	"github.com/ecopia-map/city_tiler/internal/geometry"
)

// Reprojects coordinates between spatial reference systems identified by their EPSG code
type CoordinateConverter interface {
	ConvertCoordinateSrid(sourceSrid int, targetSrid int, coord geometry.Coordinate) (geometry.Coordinate, error)
	Cleanup()
}

// Adjusts the height of a coordinate, e.g. to move from ellipsoidal to orthometric heights
type ElevationCorrector interface {
	CorrectElevation(lon, lat, z float64) float64
}
