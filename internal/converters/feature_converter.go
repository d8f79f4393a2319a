package converters

import (
	"fmt"

	"github.com/ecopia-map/city_tiler/internal/data"
	"github.com/ecopia-map/city_tiler/internal/geometry"
)

// ConvertFeatures reprojects and corrects the elevation of every vertex of the given features, returning new
// features with recomputed bounding boxes. A nil converter or equal srids skip the reprojection, a nil corrector
// leaves heights unchanged.
func ConvertFeatures(features []*data.Feature, converter CoordinateConverter, sourceSrid, targetSrid int, corrector ElevationCorrector) ([]*data.Feature, error) {
	reproject := converter != nil && sourceSrid != targetSrid
	if !reproject && corrector == nil {
		return features, nil
	}

	out := make([]*data.Feature, len(features))
	for i, f := range features {
		surfaces := make([]*geometry.Surface, len(f.Surfaces))
		for j, s := range f.Surfaces {
			ring := make([]geometry.Coordinate, len(s.Ring))
			for k, c := range s.Ring {
				if reproject {
					converted, err := converter.ConvertCoordinateSrid(sourceSrid, targetSrid, c)
					if err != nil {
						return nil, fmt.Errorf("feature %s: %w", f.ID, err)
					}
					c = converted
				}
				if corrector != nil {
					c.Z = corrector.CorrectElevation(c.X, c.Y, c.Z)
				}
				ring[k] = c
			}
			surfaces[j] = geometry.NewSurface(ring)
		}
		converted := data.NewFeature(f.ID, f.Class, surfaces, nil, f.Attributes)
		converted.ParentIDs = f.ParentIDs
		if len(surfaces) == 0 {
			converted.BoundingBox = f.BoundingBox
		}
		out[i] = converted
	}
	return out, nil
}
