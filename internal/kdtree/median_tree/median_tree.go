package median_tree

import (
	"errors"
	"math"
	"sort"

	"github.com/ecopia-map/city_tiler/internal/data"
	"github.com/ecopia-map/city_tiler/internal/geometry"
	"github.com/ecopia-map/city_tiler/internal/kdtree"
)

type Axis int

const (
	AxisX Axis = iota
	AxisY
)

func (a Axis) String() string {
	if a == AxisY {
		return "y"
	}
	return "x"
}

// MedianTree is a 2D kd tree over the footprint centroids of a feature set. Each internal node splits its
// features at the median centroid along the horizontal axis with the widest spread. Nodes never own features:
// they reference a contiguous range of a single permutation of the arena indexes.
type MedianTree struct {
	arena        []*data.Feature
	centroids    []geometry.Coordinate
	order        []int
	maxGroupSize int
	rootNode     *MedianNode
	built        bool
}

// Builds an empty MedianTree over the given features
func NewMedianTree(features []*data.Feature, maxGroupSize int) *MedianTree {
	if maxGroupSize < 1 {
		maxGroupSize = 1
	}
	centroids := make([]geometry.Coordinate, len(features))
	order := make([]int, len(features))
	for i, f := range features {
		centroids[i] = f.Centroid()
		order[i] = i
	}
	return &MedianTree{
		arena:        features,
		centroids:    centroids,
		order:        order,
		maxGroupSize: maxGroupSize,
	}
}

// BuildTree builds and returns the nested kd tree of the given features
func BuildTree(features []*data.Feature, maxGroupSize int) *MedianTree {
	tree := NewMedianTree(features, maxGroupSize)
	_ = tree.Build()
	return tree
}

// Builds the hierarchical tree structure
func (tree *MedianTree) Build() error {
	if tree.built {
		return errors.New("median tree already built")
	}
	tree.rootNode = tree.split(nil, 0, len(tree.order), 0)
	tree.built = true
	return nil
}

func (tree *MedianTree) GetRootNode() kdtree.INode {
	return tree.rootNode
}

func (tree *MedianTree) IsBuilt() bool {
	return tree.built
}

func (tree *MedianTree) Leaves() []*data.FeatureGroup {
	groups := make([]*data.FeatureGroup, 0)
	if tree.rootNode == nil || tree.rootNode.NumberOfFeatures() == 0 {
		return groups
	}
	tree.rootNode.collectLeaves(&groups)
	return groups
}

// recursively splits the order range [lo, hi)
func (tree *MedianTree) split(parent *MedianNode, lo, hi, depth int) *MedianNode {
	node := NewMedianNode(tree, parent, lo, hi, depth)
	if hi-lo <= tree.maxGroupSize {
		return node
	}

	axis := tree.widestAxis(lo, hi)
	tree.sortRange(lo, hi, axis)

	n := hi - lo
	median := tree.coordinate(tree.order[lo+n/2], axis)
	k := sort.Search(n, func(i int) bool {
		return !less(tree.coordinate(tree.order[lo+i], axis), median)
	})
	if k == 0 || k == n {
		// no centroid below the median, or none comparable to it: fall back to a positional split
		k = n / 2
		node.fallback = true
	}

	node.axis = axis
	node.median = median
	node.children[0] = tree.split(node, lo, lo+k, depth+1)
	node.children[1] = tree.split(node, lo+k, hi, depth+1)
	return node
}

// picks the horizontal axis along which the centroids spread the most, x on ties
func (tree *MedianTree) widestAxis(lo, hi int) Axis {
	box := geometry.NewEmptyBoundingBox()
	for _, idx := range tree.order[lo:hi] {
		box.ExtendToCoordinate(tree.centroids[idx])
	}
	if box.Ymax-box.Ymin > box.Xmax-box.Xmin {
		return AxisY
	}
	return AxisX
}

// sorts by centroid along axis, then by feature id and arena index so the result only depends on the input set
func (tree *MedianTree) sortRange(lo, hi int, axis Axis) {
	r := tree.order[lo:hi]
	sort.Slice(r, func(i, j int) bool {
		ci, cj := tree.coordinate(r[i], axis), tree.coordinate(r[j], axis)
		if less(ci, cj) || less(cj, ci) {
			return less(ci, cj)
		}
		idi, idj := tree.arena[r[i]].ID, tree.arena[r[j]].ID
		if idi != idj {
			return idi < idj
		}
		return r[i] < r[j]
	})
}

// less orders NaN after every other value and equal to itself
func less(a, b float64) bool {
	if math.IsNaN(a) {
		return false
	}
	return math.IsNaN(b) || a < b
}

func (tree *MedianTree) coordinate(idx int, axis Axis) float64 {
	if axis == AxisY {
		return tree.centroids[idx].Y
	}
	return tree.centroids[idx].X
}

// MedianPartitioner exposes the leaves of a MedianTree as a flat partition
type MedianPartitioner struct{}

func NewMedianPartitioner() kdtree.Partitioner {
	return &MedianPartitioner{}
}

func (p *MedianPartitioner) Partition(features []*data.Feature, maxGroupSize int) []*data.FeatureGroup {
	return BuildTree(features, maxGroupSize).Leaves()
}
