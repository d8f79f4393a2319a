package algorithm_manager

import (
	"github.com/ecopia-map/city_tiler/internal/converters"
	"github.com/ecopia-map/city_tiler/internal/kdtree"
)

type AlgorithmManager interface {
	GetElevationCorrectionAlgorithm() converters.ElevationCorrector
	GetPartitionerAlgorithm() kdtree.Partitioner
	GetCoordinateConverterAlgorithm() converters.CoordinateConverter
}
