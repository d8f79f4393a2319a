package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	sourceLabel = "source"
	reasonLabel = "reason"
	levelLabel  = "level"
	classLabel  = "class"
)

var (
	featuresExtracted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "city_tiler_features_extracted",
		Help: "The number of features read from the data sources.",
	}, []string{
		sourceLabel,
	})

	featuresDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "city_tiler_features_dropped",
		Help: "The features excluded from the tile contents.",
	}, []string{
		reasonLabel,
	})

	surfacesPruned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "city_tiler_surfaces_pruned",
		Help: "The degenerate surfaces removed from kept features.",
	})

	tilesEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "city_tiler_tiles_emitted",
		Help: "The number of tiles with content, by tree level.",
	}, []string{
		levelLabel,
	})

	hierarchyValidationErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "city_tiler_hierarchy_validation_errors",
		Help: "The batch table hierarchies rejected by the schema registry.",
	}, []string{
		classLabel,
	})
)

func InstrumentFeaturesExtracted(source string, count int) {
	featuresExtracted.With(prometheus.Labels{
		sourceLabel: source,
	}).Add(float64(count))
}

func InstrumentFeatureDropped(reason string) {
	featuresDropped.With(prometheus.Labels{
		reasonLabel: reason,
	}).Inc()
}

func InstrumentSurfacePruned() {
	surfacesPruned.Inc()
}

func InstrumentTileEmitted(level int) {
	tilesEmitted.With(prometheus.Labels{
		levelLabel: strconv.Itoa(level),
	}).Inc()
}

func InstrumentHierarchyValidationError(class string) {
	hierarchyValidationErrors.With(prometheus.Labels{
		classLabel: class,
	}).Inc()
}

// WriteTextfile dumps every registered metric in the node exporter textfile format
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
