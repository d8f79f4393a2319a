package converters

import (
	"github.com/ecopia-map/city_tiler/internal/data"
	"github.com/ecopia-map/city_tiler/internal/geometry"
)

// Centroid returns the arithmetic mean of the bounding box centers of the group members.
// An empty group has its centroid in the origin.
func Centroid(group *data.FeatureGroup) geometry.Coordinate {
	n := group.Len()
	if n == 0 {
		return geometry.Coordinate{}
	}
	var sx, sy, sz float64
	for i := 0; i < n; i++ {
		c := group.Feature(i).Centroid()
		sx += c.X
		sy += c.Y
		sz += c.Z
	}
	fn := float64(n)
	return geometry.Coordinate{X: sx / fn, Y: sy / fn, Z: sz / fn}
}

// Recenter returns a new group whose members are copies of the original features expressed in a frame
// centered in c. The source group and its arena are left untouched.
func Recenter(group *data.FeatureGroup, c geometry.Coordinate) *data.FeatureGroup {
	offset := c.Scale(-1)
	features := make([]*data.Feature, group.Len())
	for i := range features {
		features[i] = group.Feature(i).Translate(offset)
	}
	recentered := data.NewFeatureGroupFromFeatures(features)
	recentered.Offset = group.Offset.Add(offset)
	return recentered
}
