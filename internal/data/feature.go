package data

import (
	"github.com/ecopia-map/city_tiler/internal/geometry"
)

// Property aliases used when reading footprints. The first name found wins.
var (
	HeightAliases    = []string{"height", "HAUTEUR"}
	PrecisionAliases = []string{"prec", "PREC_ALTI"}
	AltitudeAliases  = []string{"z", "Z_MAX"}
)

// Contains a single 3D feature (a building, a building part or an extruded footprint).
// Features are never mutated once built: frame changes produce new instances.
type Feature struct {
	ID          string
	Class       string
	Surfaces    []*geometry.Surface
	BoundingBox *geometry.BoundingBox
	Attributes  *Attributes

	// identifiers of the semantic parents, only used to build batch table hierarchies
	ParentIDs []string
}

// Builds a new Feature. When box is nil it is computed from the surfaces.
func NewFeature(id string, class string, surfaces []*geometry.Surface, box *geometry.BoundingBox, attributes *Attributes) *Feature {
	if box == nil {
		box = geometry.NewEmptyBoundingBox()
		for _, s := range surfaces {
			box.Add(s.BoundingBox())
		}
	}
	if attributes == nil {
		attributes = NewAttributes()
	}
	return &Feature{
		ID:          id,
		Class:       class,
		Surfaces:    surfaces,
		BoundingBox: box,
		Attributes:  attributes,
	}
}

// Centroid of the feature footprint, i.e. the center of its bounding box
func (f *Feature) Centroid() geometry.Coordinate {
	return f.BoundingBox.Center()
}

// Translate returns a copy of the feature with every vertex and its bounding box shifted by offset.
// Attributes and parents are shared since they are read only.
func (f *Feature) Translate(offset geometry.Coordinate) *Feature {
	surfaces := make([]*geometry.Surface, len(f.Surfaces))
	for i, s := range f.Surfaces {
		surfaces[i] = s.Translate(offset)
	}
	return &Feature{
		ID:          f.ID,
		Class:       f.Class,
		Surfaces:    surfaces,
		BoundingBox: f.BoundingBox.Translate(offset),
		Attributes:  f.Attributes,
		ParentIDs:   f.ParentIDs,
	}
}
