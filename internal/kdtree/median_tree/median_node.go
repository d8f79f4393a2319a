package median_tree

import (
	"github.com/ecopia-map/city_tiler/internal/data"
	"github.com/ecopia-map/city_tiler/internal/geometry"
	"github.com/ecopia-map/city_tiler/internal/kdtree"
)

// Models a node of the kd tree. Leaves have no children, internal nodes always have two.
type MedianNode struct {
	tree     *MedianTree
	parent   *MedianNode
	children [2]*MedianNode
	lo       int
	hi       int
	depth    int
	axis     Axis
	median   float64
	fallback bool
}

// Instantiates a new MedianNode covering the order range [lo, hi)
func NewMedianNode(tree *MedianTree, parent *MedianNode, lo, hi, depth int) *MedianNode {
	return &MedianNode{
		tree:   tree,
		parent: parent,
		lo:     lo,
		hi:     hi,
		depth:  depth,
	}
}

func (n *MedianNode) IsRoot() bool {
	return n.parent == nil
}

func (n *MedianNode) IsLeaf() bool {
	return n.children[0] == nil
}

func (n *MedianNode) GetParent() kdtree.INode {
	if n.parent == nil {
		return nil
	}
	return n.parent
}

func (n *MedianNode) GetChildren() []kdtree.INode {
	if n.IsLeaf() {
		return nil
	}
	return []kdtree.INode{n.children[0], n.children[1]}
}

func (n *MedianNode) GetDepth() int {
	return n.depth
}

// Split axis and median of an internal node
func (n *MedianNode) GetSplit() (Axis, float64) {
	return n.axis, n.median
}

// IsFallbackSplit reports whether the node had to be split by position because its centroids coincide
func (n *MedianNode) IsFallbackSplit() bool {
	return n.fallback
}

func (n *MedianNode) GetGroup() *data.FeatureGroup {
	return data.NewFeatureGroup(n.tree.arena, n.tree.order[n.lo:n.hi:n.hi])
}

func (n *MedianNode) GetBoundingBox() *geometry.BoundingBox {
	return n.GetGroup().BoundingBox()
}

func (n *MedianNode) NumberOfFeatures() int {
	return n.hi - n.lo
}

func (n *MedianNode) collectLeaves(groups *[]*data.FeatureGroup) {
	if n.IsLeaf() {
		*groups = append(*groups, n.GetGroup())
		return
	}
	for _, child := range n.children {
		child.collectLeaves(groups)
	}
}
