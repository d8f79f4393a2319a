package tileset

import (
	"errors"
	"fmt"
	"math"
	"runtime"
	"sync"

	"github.com/ecopia-map/city_tiler/internal/content"
	"github.com/ecopia-map/city_tiler/internal/converters"
	"github.com/ecopia-map/city_tiler/internal/data"
	"github.com/ecopia-map/city_tiler/internal/geometry"
	"github.com/ecopia-map/city_tiler/internal/kdtree"
	"github.com/ecopia-map/city_tiler/internal/metrics"
	"github.com/golang/glog"
)

var (
	// ErrContainment is returned when a tile bounding volume does not enclose the one of a child
	ErrContainment = errors.New("child bounding volume not enclosed by its parent")
	// ErrEmptyTileset is returned when no tile with content could be built
	ErrEmptyTileset = errors.New("no tile content could be built")
)

const (
	DefaultGeometricError = 500.0
	DefaultMaxGroupSize   = 20

	// relative tolerance of the containment check, scaled by the parent size
	containmentTolerance = 1e-6
)

// Policy drives the shape of the tree. LevelSizes holds the maximum number of features per tile of each level,
// the tree has one level per entry below the root.
type Policy struct {
	LevelSizes         []int
	BaseGeometricError float64
	Workers            int
}

// DefaultPolicy builds a single level of tiles holding up to DefaultMaxGroupSize features each
func DefaultPolicy() Policy {
	return Policy{
		LevelSizes:         []int{DefaultMaxGroupSize},
		BaseGeometricError: DefaultGeometricError,
		Workers:            runtime.NumCPU(),
	}
}

// GeometricError returns the geometric error of the tiles at the given level, the root being level 0
func (p Policy) GeometricError(level int) float64 {
	if level == 0 {
		return 2 * p.BaseGeometricError
	}
	return p.BaseGeometricError / math.Pow(2, float64(level-1))
}

func (p Policy) validate() error {
	if len(p.LevelSizes) == 0 {
		return errors.New("tiling policy needs at least one level")
	}
	if p.BaseGeometricError <= 0 {
		return fmt.Errorf("invalid geometric error %f", p.BaseGeometricError)
	}
	return nil
}

type ContentAssembler interface {
	Assemble(group *data.FeatureGroup) (*content.TileContent, error)
}

// Builder turns a feature set into a tile tree
type Builder struct {
	partitioner kdtree.Partitioner
	assembler   ContentAssembler
	policy      Policy
}

func NewBuilder(partitioner kdtree.Partitioner, assembler ContentAssembler, policy Policy) *Builder {
	if policy.Workers < 1 {
		policy.Workers = 1
	}
	return &Builder{
		partitioner: partitioner,
		assembler:   assembler,
		policy:      policy,
	}
}

// job is the unit of work of the assembly workers: one group in, at most one tile out
type job struct {
	parent *Tile
	group  *data.FeatureGroup
	level  int

	tile *Tile
	err  error
}

// Build partitions the features level by level, assembles the content of every group and nests the tiles.
// Features are expected in the world frame.
func (b *Builder) Build(features []*data.Feature, provenance string) (*TileSet, error) {
	if err := b.policy.validate(); err != nil {
		return nil, err
	}

	root := &Tile{
		GeometricError: b.policy.GeometricError(0),
		Refine:         RefineReplace,
		Children:       make([]*Tile, 0),
		Path:           make([]int, 0),
	}

	features, diagnostics := dropUnplaceable(features)

	type pending struct {
		tile  *Tile
		group *data.FeatureGroup
	}
	parents := []pending{{tile: root, group: data.NewFeatureGroupFromFeatures(features)}}

	for level := 1; level <= len(b.policy.LevelSizes) && len(parents) > 0; level++ {
		maxSize := b.policy.LevelSizes[level-1]
		jobs := make([]*job, 0)
		for _, p := range parents {
			for _, g := range b.partitioner.Partition(p.group.Features(), maxSize) {
				jobs = append(jobs, &job{parent: p.tile, group: g, level: level})
			}
		}

		if err := b.runJobs(jobs); err != nil {
			return nil, err
		}

		next := make([]pending, 0, len(jobs))
		for _, j := range jobs {
			if j.tile == nil {
				continue
			}
			j.tile.Path = append(append(make([]int, 0, level), j.parent.Path...), len(j.parent.Children))
			j.parent.Children = append(j.parent.Children, j.tile)
			next = append(next, pending{tile: j.tile, group: j.group})
			metrics.InstrumentTileEmitted(level)
		}
		glog.Infof("level %d: %d tiles built from %d groups", level, len(next), len(jobs))
		parents = next
	}

	if root.IsLeaf() {
		return nil, ErrEmptyTileset
	}

	// non leaf tiles refine, leaves inherit
	_ = walk(root, func(t *Tile) error {
		if t.IsLeaf() {
			t.Refine = ""
		} else {
			t.Refine = RefineReplace
		}
		return nil
	})

	root.BoundingBox = geometry.NewEmptyBoundingBox()
	for _, child := range root.Children {
		root.BoundingBox.Add(child.WorldBoundingBox())
	}

	if err := verifyContainment(root); err != nil {
		return nil, err
	}

	return &TileSet{
		Root:           root,
		GeometricError: b.policy.GeometricError(0),
		Provenance:     provenance,
		Diagnostics:    diagnostics,
	}, nil
}

// dropUnplaceable removes the features whose bounding box can't be used to partition and recenter them:
// empty boxes and boxes with a NaN or infinite extreme.
func dropUnplaceable(features []*data.Feature) ([]*data.Feature, []content.Diagnostic) {
	kept := make([]*data.Feature, 0, len(features))
	diagnostics := make([]content.Diagnostic, 0)
	for _, f := range features {
		if f.BoundingBox.IsFinite() {
			kept = append(kept, f)
			continue
		}
		box := f.BoundingBox
		reason, err := content.ReasonInvalidSurface, fmt.Errorf("non finite bounding box x [%g, %g] y [%g, %g] z [%g, %g]",
			box.Xmin, box.Xmax, box.Ymin, box.Ymax, box.Zmin, box.Zmax)
		if box.IsEmpty() {
			reason, err = content.ReasonNoSurface, errors.New("empty bounding box")
		}
		glog.Warningf("dropping feature %s: %v", f.ID, err)
		metrics.InstrumentFeatureDropped(reason)
		diagnostics = append(diagnostics, content.Diagnostic{FeatureID: f.ID, Reason: reason, Err: err})
	}
	return kept, diagnostics
}

// runJobs assembles the jobs with a pool of workers. Results are stored in the jobs themselves so that the
// output order never depends on scheduling.
func (b *Builder) runJobs(jobs []*job) error {
	workchan := make(chan *job, len(jobs))
	var waitGroup sync.WaitGroup
	for i := 0; i < b.policy.Workers; i++ {
		waitGroup.Add(1)
		go b.consume(workchan, &waitGroup)
	}
	for _, j := range jobs {
		workchan <- j
	}
	close(workchan)
	waitGroup.Wait()

	for _, j := range jobs {
		if j.err != nil {
			return j.err
		}
	}
	return nil
}

func (b *Builder) consume(workchan chan *job, waitGroup *sync.WaitGroup) {
	defer waitGroup.Done()
	for j := range workchan {
		j.tile, j.err = b.buildTile(j)
	}
}

// buildTile recenters and assembles a group. Returns a nil tile when no feature of the group survives assembly.
func (b *Builder) buildTile(j *job) (*Tile, error) {
	centroid := converters.Centroid(j.group)
	local := converters.Recenter(j.group, centroid)

	tileContent, err := b.assembler.Assemble(local)
	if errors.Is(err, content.ErrEmptyContent) {
		glog.Warningf("level %d: omitting tile of %d features without valid geometry", j.level, j.group.Len())
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("level %d: %w", j.level, err)
	}

	return &Tile{
		BoundingBox:    tileContent.BoundingBox,
		GeometricError: b.policy.GeometricError(j.level),
		Content:        tileContent,
		Children:       make([]*Tile, 0),
		Depth:          j.level,
		Offset:         centroid,
		Translation:    centroid.Sub(j.parent.Offset),
	}, nil
}

// verifyContainment checks that every tile encloses its children, comparing world bounding boxes
func verifyContainment(t *Tile) error {
	world := t.WorldBoundingBox()
	tolerance := containmentTolerance * math.Max(1, world.Diagonal())
	for _, child := range t.Children {
		if !world.Contains(child.WorldBoundingBox(), tolerance) {
			return fmt.Errorf("%w: tile %q", ErrContainment, child.Dir())
		}
		if err := verifyContainment(child); err != nil {
			return err
		}
	}
	return nil
}
