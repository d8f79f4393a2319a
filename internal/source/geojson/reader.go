package geojson

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/ecopia-map/city_tiler/internal/data"
	"github.com/ecopia-map/city_tiler/internal/geometry"
	"github.com/ecopia-map/city_tiler/internal/metrics"
	"github.com/golang/glog"
	"github.com/paulmach/orb"
	orbjson "github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
)

const (
	Source = "geojson"

	// FootprintClass is the logical class given to extruded footprints
	FootprintClass = "Footprint"

	// altitude precision values at or above this mark an unknown altitude
	unknownPrecision = 9999.0
)

// reasons a footprint is not turned into a feature
const (
	ReasonMissingHeight       = "missing_height"
	ReasonMissingAltitude     = "missing_altitude"
	ReasonUnknownPrecision    = "unknown_precision"
	ReasonUnsupportedGeometry = "unsupported_geometry"
	ReasonEmptyFootprint      = "empty_footprint"
)

// Options lists the property names looked up on each footprint, in priority order
type Options struct {
	HeightAliases    []string
	PrecisionAliases []string
	AltitudeAliases  []string
}

func DefaultOptions() Options {
	return Options{
		HeightAliases:    data.HeightAliases,
		PrecisionAliases: data.PrecisionAliases,
		AltitudeAliases:  data.AltitudeAliases,
	}
}

// Reader extrudes GeoJSON polygon footprints into prism features. A footprint with altitude z and height h
// spans from z-h to z.
type Reader struct {
	options Options
}

func NewReader(options Options) *Reader {
	return &Reader{options: options}
}

// ReadFiles reads every file in order and concatenates their features
func (r *Reader) ReadFiles(ctx context.Context, paths []string) ([]*data.Feature, error) {
	features := make([]*data.Feature, 0)
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		read, err := r.ReadFile(path)
		if err != nil {
			return nil, err
		}
		features = append(features, read...)
	}
	return features, nil
}

func (r *Reader) ReadFile(path string) ([]*data.Feature, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	base := filepath.Base(path)
	features, err := r.Parse(raw, base[:len(base)-len(filepath.Ext(base))])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	glog.Infof("read %d features from %s", len(features), path)
	return features, nil
}

// Parse converts a feature collection. Features without an identifier are named after prefix and their position.
func (r *Reader) Parse(raw []byte, prefix string) ([]*data.Feature, error) {
	collection, err := orbjson.UnmarshalFeatureCollection(raw)
	if err != nil {
		return nil, err
	}

	features := make([]*data.Feature, 0, len(collection.Features))
	for i, f := range collection.Features {
		id := featureID(f, prefix, i)
		feature, reason := r.extrude(id, f)
		if feature == nil {
			glog.V(1).Infof("skipping footprint %s: %s", id, reason)
			metrics.InstrumentFeatureDropped(reason)
			continue
		}
		features = append(features, feature)
	}
	metrics.InstrumentFeaturesExtracted(Source, len(features))
	return features, nil
}

func (r *Reader) extrude(id string, f *orbjson.Feature) (*data.Feature, string) {
	attributes := toAttributes(f.Properties)

	height, ok := attributes.ResolveNumber(r.options.HeightAliases...)
	if !ok {
		return nil, ReasonMissingHeight
	}
	if precision, ok := attributes.ResolveNumber(r.options.PrecisionAliases...); ok && precision >= unknownPrecision {
		return nil, ReasonUnknownPrecision
	}
	top, ok := attributes.ResolveNumber(r.options.AltitudeAliases...)
	if !ok {
		return nil, ReasonMissingAltitude
	}

	var polygons []orb.Polygon
	switch geom := f.Geometry.(type) {
	case orb.Polygon:
		polygons = []orb.Polygon{geom}
	case orb.MultiPolygon:
		polygons = geom
	default:
		return nil, ReasonUnsupportedGeometry
	}

	surfaces := make([]*geometry.Surface, 0)
	for _, polygon := range polygons {
		if len(polygon) == 0 || planar.Area(polygon) == 0 {
			continue
		}
		if len(polygon) > 1 {
			glog.V(2).Infof("footprint %s: ignoring %d interior rings", id, len(polygon)-1)
		}
		surfaces = append(surfaces, extrudeRing(polygon[0], top-height, top)...)
	}
	if len(surfaces) == 0 {
		return nil, ReasonEmptyFootprint
	}

	return data.NewFeature(id, FootprintClass, surfaces, nil, attributes), ""
}

// extrudeRing builds the floor, the roof and one wall per edge of a prism. The rings are wound so that the
// normals point outwards, whichever of bottom and top is higher.
func extrudeRing(ring orb.Ring, bottom, top float64) []*geometry.Surface {
	if bottom > top {
		bottom, top = top, bottom
	}
	points := make([]orb.Point, len(ring))
	copy(points, ring)
	if len(points) > 1 && points[0] == points[len(points)-1] {
		points = points[:len(points)-1]
	}
	if orb.Ring(points).Orientation() == orb.CW {
		for i, j := 0, len(points)-1; i < j; i, j = i+1, j-1 {
			points[i], points[j] = points[j], points[i]
		}
	}

	n := len(points)
	roof := make([]geometry.Coordinate, n)
	floor := make([]geometry.Coordinate, n)
	for i, p := range points {
		roof[i] = geometry.Coordinate{X: p[0], Y: p[1], Z: top}
		floor[n-1-i] = geometry.Coordinate{X: p[0], Y: p[1], Z: bottom}
	}

	surfaces := make([]*geometry.Surface, 0, n+2)
	surfaces = append(surfaces, geometry.NewSurface(floor), geometry.NewSurface(roof))
	if top == bottom {
		return surfaces[1:]
	}
	for i := 0; i < n; i++ {
		p, q := points[i], points[(i+1)%n]
		surfaces = append(surfaces, geometry.NewSurface([]geometry.Coordinate{
			{X: p[0], Y: p[1], Z: bottom},
			{X: q[0], Y: q[1], Z: bottom},
			{X: q[0], Y: q[1], Z: top},
			{X: p[0], Y: p[1], Z: top},
		}))
	}
	return surfaces
}

func featureID(f *orbjson.Feature, prefix string, index int) string {
	if f.ID != nil {
		return fmt.Sprint(f.ID)
	}
	for _, key := range []string{"id", "ID"} {
		if v, ok := f.Properties[key]; ok && v != nil {
			return fmt.Sprint(v)
		}
	}
	return fmt.Sprintf("%s_%d", prefix, index)
}

// toAttributes keeps the scalar properties, sorted by name
func toAttributes(properties orbjson.Properties) *data.Attributes {
	names := make([]string, 0, len(properties))
	for name := range properties {
		names = append(names, name)
	}
	sort.Strings(names)

	attributes := data.NewAttributes()
	for _, name := range names {
		switch v := properties[name].(type) {
		case float64:
			attributes.Set(name, data.NumberValue(v))
		case string:
			attributes.Set(name, data.TextValue(v))
		case bool:
			attributes.Set(name, data.BoolValue(v))
		}
	}
	return attributes
}
