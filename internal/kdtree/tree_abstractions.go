package kdtree

import (
	"github.com/ecopia-map/city_tiler/internal/data"
	"github.com/ecopia-map/city_tiler/internal/geometry"
)

// Partitioner splits a feature set into spatially coherent leaf groups holding at most maxGroupSize features
type Partitioner interface {
	Partition(features []*data.Feature, maxGroupSize int) []*data.FeatureGroup
}

type ITree interface {
	Build() error
	GetRootNode() INode
	IsBuilt() bool
	// Leaf groups in depth first, left to right order
	Leaves() []*data.FeatureGroup
}

type INode interface {
	IsRoot() bool
	IsLeaf() bool
	GetParent() INode
	GetChildren() []INode
	GetDepth() int
	GetGroup() *data.FeatureGroup
	GetBoundingBox() *geometry.BoundingBox
	NumberOfFeatures() int
}
