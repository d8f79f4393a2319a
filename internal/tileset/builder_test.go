package tileset

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/ecopia-map/city_tiler/internal/content"
	"github.com/ecopia-map/city_tiler/internal/data"
	"github.com/ecopia-map/city_tiler/internal/geometry"
	"github.com/ecopia-map/city_tiler/internal/kdtree/median_tree"
	"github.com/stretchr/testify/require"
)

type assemblerFunc func(group *data.FeatureGroup) (*content.TileContent, error)

func (f assemblerFunc) Assemble(group *data.FeatureGroup) (*content.TileContent, error) {
	return f(group)
}

// footprint of size x size extruded to height 10, far from the origin like projected coordinates
func block(id string, x, y, size float64) *data.Feature {
	x += 1358000
	y += 7223000
	p := func(x, y, z float64) geometry.Coordinate { return geometry.Coordinate{X: x, Y: y, Z: z} }
	rect := func(a, b, c, d geometry.Coordinate) *geometry.Surface {
		return geometry.NewSurface([]geometry.Coordinate{a, b, c, d})
	}
	x1, y1 := x+size, y+size
	surfaces := []*geometry.Surface{
		rect(p(x, y, 0), p(x, y1, 0), p(x1, y1, 0), p(x1, y, 0)),
		rect(p(x, y, 10), p(x1, y, 10), p(x1, y1, 10), p(x, y1, 10)),
		rect(p(x, y, 0), p(x1, y, 0), p(x1, y, 10), p(x, y, 10)),
		rect(p(x1, y, 0), p(x1, y1, 0), p(x1, y1, 10), p(x1, y, 10)),
		rect(p(x1, y1, 0), p(x, y1, 0), p(x, y1, 10), p(x1, y1, 10)),
		rect(p(x, y1, 0), p(x, y, 0), p(x, y, 10), p(x, y1, 10)),
	}
	return data.NewFeature(id, "Building", surfaces, nil, data.NewAttributes().Set("height", data.NumberValue(10)))
}

func grid(n int) []*data.Feature {
	features := make([]*data.Feature, 0, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			features = append(features, block(fmt.Sprintf("b%02d-%02d", i, j), float64(i*20), float64(j*20), 15))
		}
	}
	return features
}

func newBuilder(policy Policy) *Builder {
	return NewBuilder(median_tree.NewMedianPartitioner(), content.NewAssembler(nil, content.AssemblerOptions{}), policy)
}

func TestBuildSingleLevel(t *testing.T) {
	features := grid(5)
	ts, err := newBuilder(DefaultPolicy()).Build(features, "buildings@localhost")
	require.NoError(t, err)

	require.Equal(t, 1000.0, ts.GeometricError)
	require.Equal(t, "buildings@localhost", ts.Provenance)

	root := ts.Root
	require.True(t, root.IsRoot())
	require.False(t, root.HasContent())
	require.Equal(t, RefineReplace, root.Refine)
	require.Equal(t, 1000.0, root.GeometricError)
	require.Len(t, root.Children, 2)

	all := geometry.NewEmptyBoundingBox()
	for _, f := range features {
		all.Add(f.BoundingBox)
	}
	require.True(t, root.BoundingBox.Equals(all, 1e-12))

	total := 0
	for i, child := range root.Children {
		require.Equal(t, 500.0, child.GeometricError)
		require.Equal(t, "", child.Refine)
		require.Equal(t, fmt.Sprintf("%d/content.b3dm", i), child.ContentURI())
		require.Equal(t, child.Offset, child.Translation)
		require.Equal(t, child.Translation.X, child.Transform()[12])
		// the local frame is centered on the tile
		center := child.BoundingBox.Center()
		require.Less(t, center.X*center.X+center.Y*center.Y, 100.0)
		total += child.Content.FeaturesLength()
	}
	require.Equal(t, 25, total)
}

func TestBuildFeatureLevel(t *testing.T) {
	features := []*data.Feature{
		block("a", 0, 0, 10),
		block("b", 30, 0, 10),
		block("c", 0, 30, 10),
		block("d", 30, 30, 12),
	}
	policy := Policy{LevelSizes: []int{len(features), 1}, BaseGeometricError: 50, Workers: 3}
	ts, err := newBuilder(policy).Build(features, "buildings.geojson")
	require.NoError(t, err)

	require.Len(t, ts.Root.Children, 1)
	coarse := ts.Root.Children[0]
	require.Equal(t, RefineReplace, coarse.Refine)
	require.Equal(t, 50.0, coarse.GeometricError)
	require.Equal(t, 4, coarse.Content.FeaturesLength())
	require.Len(t, coarse.Children, 4)

	byID := make(map[string]*data.Feature)
	for _, f := range features {
		byID[f.ID] = f
	}
	for i, fine := range coarse.Children {
		require.Equal(t, 2, fine.Depth)
		require.Equal(t, 25.0, fine.GeometricError)
		require.Equal(t, fmt.Sprintf("0/%d", i), fine.Dir())
		require.Len(t, fine.Content.FeatureIDs, 1)

		f := byID[fine.Content.FeatureIDs[0]]
		require.True(t, fine.Offset.AlmostEqual(f.Centroid(), 1e-12))
		require.True(t, coarse.Offset.Add(fine.Translation).AlmostEqual(f.Centroid(), 1e-12))
		require.True(t, fine.WorldBoundingBox().Equals(f.BoundingBox, 1e-12))
	}
}

type tileSummary struct {
	path     string
	offset   geometry.Coordinate
	features []string
}

func summarize(ts *TileSet) []tileSummary {
	out := make([]tileSummary, 0)
	for _, t := range ts.Tiles() {
		s := tileSummary{path: t.Dir(), offset: t.Offset}
		if t.HasContent() {
			s.features = t.Content.FeatureIDs
		}
		out = append(out, s)
	}
	return out
}

func TestBuildIsDeterministic(t *testing.T) {
	features := grid(9)
	sequential, err := newBuilder(Policy{LevelSizes: []int{30, 4}, BaseGeometricError: 500, Workers: 1}).Build(features, "")
	require.NoError(t, err)
	parallel, err := newBuilder(Policy{LevelSizes: []int{30, 4}, BaseGeometricError: 500, Workers: 8}).Build(features, "")
	require.NoError(t, err)

	require.Equal(t, summarize(sequential), summarize(parallel))
	require.Greater(t, len(summarize(parallel)), 1+3)
}

func TestBuildOmitsTilesWithoutValidFeatures(t *testing.T) {
	bowTie := func(id string, x float64) *data.Feature {
		ring := []geometry.Coordinate{{X: x, Y: 0}, {X: x + 2, Y: 2}, {X: x + 2, Y: 0}, {X: x, Y: 2}}
		return data.NewFeature(id, "Building", []*geometry.Surface{geometry.NewSurface(ring)}, nil, nil)
	}
	features := []*data.Feature{
		block("a", 0, 0, 10),
		block("b", 20, 0, 10),
		block("c", 40, 0, 10),
		bowTie("x", 1360000),
		bowTie("y", 1360010),
		bowTie("z", 1360020),
	}
	ts, err := newBuilder(Policy{LevelSizes: []int{3}, BaseGeometricError: 500, Workers: 2}).Build(features, "")
	require.NoError(t, err)
	require.Len(t, ts.Root.Children, 1)
	require.Equal(t, []string{"a", "b", "c"}, ts.Root.Children[0].Content.FeatureIDs)
	require.Equal(t, "0", ts.Root.Children[0].Dir())
}

func TestBuildDropsFeaturesWithNonFiniteCoordinates(t *testing.T) {
	broken := block("bad", 10, 0, 10)
	broken.Surfaces[1].Ring[2].Z = math.Inf(1)
	broken = data.NewFeature(broken.ID, broken.Class, broken.Surfaces, nil, broken.Attributes)
	noSurface := data.NewFeature("hollow", "Building", nil, nil, nil)

	features := []*data.Feature{block("a", 0, 0, 10), broken, block("b", 30, 0, 10), noSurface}
	ts, err := newBuilder(DefaultPolicy()).Build(features, "")
	require.NoError(t, err)

	require.Len(t, ts.Root.Children, 1)
	tile := ts.Root.Children[0]
	require.Equal(t, []string{"a", "b"}, tile.Content.FeatureIDs)
	require.Equal(t, 2, tile.Content.BatchTable.Len())
	require.Empty(t, tile.Content.Diagnostics)
	require.True(t, tile.Translation.IsFinite())
	require.True(t, ts.Root.BoundingBox.IsFinite())

	require.Len(t, ts.Diagnostics, 2)
	require.Equal(t, "bad", ts.Diagnostics[0].FeatureID)
	require.Equal(t, content.ReasonInvalidSurface, ts.Diagnostics[0].Reason)
	require.Equal(t, "hollow", ts.Diagnostics[1].FeatureID)
	require.Equal(t, content.ReasonNoSurface, ts.Diagnostics[1].Reason)
}

func TestBuildWithNaNCoordinatesTerminates(t *testing.T) {
	features := grid(3)
	for i := 0; i < 4; i++ {
		f := block(fmt.Sprintf("nan%d", i), float64(i*20), 100, 10)
		f.Surfaces[0].Ring[0].X = math.NaN()
		features = append(features, data.NewFeature(f.ID, f.Class, f.Surfaces, nil, f.Attributes))
	}
	ts, err := newBuilder(Policy{LevelSizes: []int{2, 1}, BaseGeometricError: 100, Workers: 2}).Build(features, "")
	require.NoError(t, err)
	require.Len(t, ts.Diagnostics, 4)

	leaves := 0
	_ = ts.Walk(func(tile *Tile) error {
		if tile.IsLeaf() {
			leaves++
			require.True(t, tile.WorldBoundingBox().IsFinite())
		}
		return nil
	})
	require.Equal(t, 9, leaves)
}

func TestBuildDetectsContainmentViolation(t *testing.T) {
	// single feature tiles claim a box larger than their parent's
	assembler := assemblerFunc(func(group *data.FeatureGroup) (*content.TileContent, error) {
		box := group.BoundingBox()
		if group.Len() == 1 {
			box = geometry.NewBoundingBox(box.Xmin-100, box.Xmax+100, box.Ymin, box.Ymax, box.Zmin, box.Zmax)
		}
		return &content.TileContent{BoundingBox: box, FeatureIDs: []string{group.Feature(0).ID}}, nil
	})
	features := []*data.Feature{block("a", 0, 0, 10), block("b", 30, 0, 10)}
	builder := NewBuilder(median_tree.NewMedianPartitioner(), assembler, Policy{LevelSizes: []int{2, 1}, BaseGeometricError: 1})

	_, err := builder.Build(features, "")
	require.True(t, errors.Is(err, ErrContainment))
}

func TestBuildPropagatesFatalAssemblyErrors(t *testing.T) {
	assembler := assemblerFunc(func(group *data.FeatureGroup) (*content.TileContent, error) {
		return nil, content.ErrFrameMismatch
	})
	builder := NewBuilder(median_tree.NewMedianPartitioner(), assembler, DefaultPolicy())
	_, err := builder.Build(grid(2), "")
	require.True(t, errors.Is(err, content.ErrFrameMismatch))
}

func TestBuildRejectsEmptyInputAndBadPolicy(t *testing.T) {
	_, err := newBuilder(DefaultPolicy()).Build(nil, "")
	require.True(t, errors.Is(err, ErrEmptyTileset))

	_, err = newBuilder(Policy{BaseGeometricError: 500}).Build(grid(2), "")
	require.Error(t, err)
	_, err = newBuilder(Policy{LevelSizes: []int{10}}).Build(grid(2), "")
	require.Error(t, err)
}

func TestPolicyGeometricError(t *testing.T) {
	p := Policy{LevelSizes: []int{10, 5, 1}, BaseGeometricError: 500}
	require.Equal(t, 1000.0, p.GeometricError(0))
	require.Equal(t, 500.0, p.GeometricError(1))
	require.Equal(t, 250.0, p.GeometricError(2))
	require.Equal(t, 125.0, p.GeometricError(3))
}
