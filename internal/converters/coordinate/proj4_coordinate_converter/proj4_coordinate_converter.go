package proj4_coordinate_converter

import (
	"fmt"
	"math"
	"sync"

	"github.com/ecopia-map/city_tiler/internal/converters"
	"github.com/ecopia-map/city_tiler/internal/geometry"
	proj "github.com/xeonx/proj4"
)

type epsgProjection struct {
	EpsgCode   int
	Definition string
	LatLong    bool
	Projection *proj.Proj
}

// proj4 definitions of the reference systems the tiler knows about
var epsgDefinitions = map[int]*epsgProjection{
	4326: {EpsgCode: 4326, Definition: "+proj=longlat +datum=WGS84 +no_defs", LatLong: true},
	4978: {EpsgCode: 4978, Definition: "+proj=geocent +datum=WGS84 +units=m +no_defs"},
	3395: {EpsgCode: 3395, Definition: "+proj=merc +lon_0=0 +k=1 +x_0=0 +y_0=0 +datum=WGS84 +units=m +no_defs"},
	3857: {EpsgCode: 3857, Definition: "+proj=merc +a=6378137 +b=6378137 +lat_ts=0.0 +lon_0=0.0 +x_0=0.0 +y_0=0 +k=1.0 +units=m +nadgrids=@null +wktext +no_defs"},
	2154: {EpsgCode: 2154, Definition: "+proj=lcc +lat_1=49 +lat_2=44 +lat_0=46.5 +lon_0=3 +x_0=700000 +y_0=6600000 +ellps=GRS80 +towgs84=0,0,0,0,0,0,0 +units=m +no_defs"},
	3946: {EpsgCode: 3946, Definition: "+proj=lcc +lat_1=45.25 +lat_2=46.75 +lat_0=46 +lon_0=3 +x_0=1700000 +y_0=5200000 +ellps=GRS80 +towgs84=0,0,0,0,0,0,0 +units=m +no_defs"},
}

type proj4CoordinateConverter struct {
	sync.Mutex
	projections map[int]*epsgProjection
}

func NewProj4CoordinateConverter() converters.CoordinateConverter {
	projections := make(map[int]*epsgProjection, len(epsgDefinitions))
	for code, p := range epsgDefinitions {
		copied := *p
		projections[code] = &copied
	}
	return &proj4CoordinateConverter{
		projections: projections,
	}
}

// Converts the given coordinate from the given source Srid to the given target srid.
// Geographic coordinates are expressed in degrees.
func (cc *proj4CoordinateConverter) ConvertCoordinateSrid(sourceSrid int, targetSrid int, coord geometry.Coordinate) (geometry.Coordinate, error) {
	if sourceSrid == targetSrid {
		return coord, nil
	}

	cc.Lock()
	defer cc.Unlock()

	src, err := cc.initProjection(sourceSrid)
	if err != nil {
		return coord, err
	}
	dst, err := cc.initProjection(targetSrid)
	if err != nil {
		return coord, err
	}

	x, y, z := coord.X, coord.Y, coord.Z
	if src.LatLong {
		x, y = toRadians(x), toRadians(y)
	}
	xs, ys, zs := []float64{x}, []float64{y}, []float64{z}
	if err := proj.TransformRaw(src.Projection, dst.Projection, xs, ys, zs); err != nil {
		return coord, fmt.Errorf("unable to convert from EPSG:%d to EPSG:%d: %w", sourceSrid, targetSrid, err)
	}
	if dst.LatLong {
		xs[0], ys[0] = toDegrees(xs[0]), toDegrees(ys[0])
	}
	return geometry.Coordinate{X: xs[0], Y: ys[0], Z: zs[0]}, nil
}

// Releases all projection objects from memory
func (cc *proj4CoordinateConverter) Cleanup() {
	cc.Lock()
	defer cc.Unlock()
	for _, p := range cc.projections {
		if p.Projection != nil {
			p.Projection.Close()
			p.Projection = nil
		}
	}
}

// lazily initializes the projection of the given epsg code, callers must hold the lock
func (cc *proj4CoordinateConverter) initProjection(code int) (*epsgProjection, error) {
	p, ok := cc.projections[code]
	if !ok {
		return nil, fmt.Errorf("epsg code %d not supported", code)
	}
	if p.Projection == nil {
		projection, err := proj.InitPlus(p.Definition)
		if err != nil {
			return nil, fmt.Errorf("unable to init projection EPSG:%d: %w", code, err)
		}
		p.Projection = projection
	}
	return p, nil
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

func toDegrees(rad float64) float64 {
	return rad * 180 / math.Pi
}
