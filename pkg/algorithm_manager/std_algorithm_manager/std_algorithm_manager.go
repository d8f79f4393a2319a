package std_algorithm_manager

import (
	"github.com/ecopia-map/city_tiler/internal/converters"
	"github.com/ecopia-map/city_tiler/internal/converters/coordinate/proj4_coordinate_converter"
	"github.com/ecopia-map/city_tiler/internal/converters/elevation/offset_elevation_corrector"
	"github.com/ecopia-map/city_tiler/internal/kdtree"
	"github.com/ecopia-map/city_tiler/internal/kdtree/median_tree"
	"github.com/ecopia-map/city_tiler/internal/tiler"
	"github.com/ecopia-map/city_tiler/pkg/algorithm_manager"
)

type StandardAlgorithmManager struct {
	options             *tiler.TilerOptions
	coordinateConverter converters.CoordinateConverter
	elevationCorrector  converters.ElevationCorrector
	partitioner         kdtree.Partitioner
}

func NewAlgorithmManager(opts *tiler.TilerOptions) algorithm_manager.AlgorithmManager {
	var elevationCorrector converters.ElevationCorrector
	if opts.ZOffset != 0 {
		elevationCorrector = offset_elevation_corrector.NewOffsetElevationCorrector(opts.ZOffset)
	}

	return &StandardAlgorithmManager{
		options:             opts,
		coordinateConverter: proj4_coordinate_converter.NewProj4CoordinateConverter(),
		elevationCorrector:  elevationCorrector,
		partitioner:         median_tree.NewMedianPartitioner(),
	}
}

// GetElevationCorrectionAlgorithm returns nil when no vertical offset is requested
func (sam *StandardAlgorithmManager) GetElevationCorrectionAlgorithm() converters.ElevationCorrector {
	return sam.elevationCorrector
}

func (sam *StandardAlgorithmManager) GetPartitionerAlgorithm() kdtree.Partitioner {
	return sam.partitioner
}

func (sam *StandardAlgorithmManager) GetCoordinateConverterAlgorithm() converters.CoordinateConverter {
	return sam.coordinateConverter
}
