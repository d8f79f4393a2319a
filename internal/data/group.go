package data

import (
	"github.com/ecopia-map/city_tiler/internal/geometry"
)

// FeatureGroup is a set of features assigned to one tile. Members are indexes into an arena shared by all the
// groups produced from the same input, so that groups never copy features.
type FeatureGroup struct {
	arena   []*Feature
	indices []int

	// offset applied by recentering, zero for groups in the source frame
	Offset geometry.Coordinate
}

func NewFeatureGroup(arena []*Feature, indices []int) *FeatureGroup {
	return &FeatureGroup{
		arena:   arena,
		indices: indices,
	}
}

// NewFeatureGroupFromFeatures wraps a plain list of features into a group owning its arena
func NewFeatureGroupFromFeatures(features []*Feature) *FeatureGroup {
	indices := make([]int, len(features))
	for i := range indices {
		indices[i] = i
	}
	return NewFeatureGroup(features, indices)
}

func (g *FeatureGroup) Len() int {
	return len(g.indices)
}

func (g *FeatureGroup) Feature(i int) *Feature {
	return g.arena[g.indices[i]]
}

// Indices returns the arena indexes of the members
func (g *FeatureGroup) Indices() []int {
	return g.indices
}

func (g *FeatureGroup) Arena() []*Feature {
	return g.arena
}

func (g *FeatureGroup) Features() []*Feature {
	features := make([]*Feature, len(g.indices))
	for i, idx := range g.indices {
		features[i] = g.arena[idx]
	}
	return features
}

// BoundingBox is the union of the members bounding boxes
func (g *FeatureGroup) BoundingBox() *geometry.BoundingBox {
	box := geometry.NewEmptyBoundingBox()
	for _, idx := range g.indices {
		box.Add(g.arena[idx].BoundingBox)
	}
	return box
}
