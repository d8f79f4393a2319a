package pkg

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/ecopia-map/city_tiler/internal/content"
	"github.com/ecopia-map/city_tiler/internal/converters"
	"github.com/ecopia-map/city_tiler/internal/data"
	"github.com/ecopia-map/city_tiler/internal/io"
	"github.com/ecopia-map/city_tiler/internal/metrics"
	"github.com/ecopia-map/city_tiler/internal/schema"
	"github.com/ecopia-map/city_tiler/internal/source/citydb"
	"github.com/ecopia-map/city_tiler/internal/tiler"
	"github.com/ecopia-map/city_tiler/internal/tileset"
	"github.com/ecopia-map/city_tiler/pkg/algorithm_manager"
	"github.com/ecopia-map/city_tiler/tools"
	"github.com/golang/glog"
)

var ErrUnknownCommand = errors.New("unknown command")

type ITiler interface {
	RunTiler(ctx context.Context, opts *tiler.TilerOptions) error
}

// Tiler runs a whole conversion: extraction, reprojection, tiling and export
type Tiler struct {
	fileFinder       tools.FileFinder
	algorithmManager algorithm_manager.AlgorithmManager
	registry         *schema.Registry
	openCitydb       func(options citydb.Options) (*citydb.Extractor, error)
}

// NewTiler creates a tiler validating its outputs against the schemas of the given sealed registry
func NewTiler(fileFinder tools.FileFinder, algorithmManager algorithm_manager.AlgorithmManager, registry *schema.Registry) ITiler {
	return &Tiler{
		fileFinder:       fileFinder,
		algorithmManager: algorithmManager,
		registry:         registry,
		openCitydb:       citydb.Open,
	}
}

// Starts the tiling process
func (t *Tiler) RunTiler(ctx context.Context, opts *tiler.TilerOptions) error {
	if opts.RefineMode != tiler.RefineModeReplace {
		return fmt.Errorf("unsupported refine mode %q", opts.RefineMode)
	}

	var features []*data.Feature
	var provenance string
	var err error
	switch opts.Command {
	case tools.CommandCitydb:
		features, provenance, err = t.extractFromCitydb(ctx, opts)
	case tools.CommandGeojson:
		features, provenance, err = t.extractFromGeojson(ctx, opts)
	default:
		return fmt.Errorf("%w %q", ErrUnknownCommand, opts.Command)
	}
	if err != nil {
		return err
	}

	if err := t.exportTileset(features, provenance, opts); err != nil {
		return err
	}

	if opts.MetricsFile != "" {
		tools.LogOutput("> writing metrics to", opts.MetricsFile)
		if err := metrics.WriteTextfile(opts.MetricsFile); err != nil {
			return fmt.Errorf("cannot write metrics: %w", err)
		}
	}
	return nil
}

// exportTileset brings the features to the target reference system, builds the tile tree and writes it
func (t *Tiler) exportTileset(features []*data.Feature, provenance string, opts *tiler.TilerOptions) error {
	converter := t.algorithmManager.GetCoordinateConverterAlgorithm()
	defer converter.Cleanup()

	tools.LogOutput("> converting", len(features), "features")
	converted, err := converters.ConvertFeatures(features, converter, opts.Srid, opts.TargetSrid, t.algorithmManager.GetElevationCorrectionAlgorithm())
	if err != nil {
		return err
	}

	tools.LogOutput("> building tile tree...")
	assembler := content.NewAssembler(t.registry, content.AssemblerOptions{
		WithHierarchy: opts.WithHierarchy,
	})
	builder := tileset.NewBuilder(t.algorithmManager.GetPartitionerAlgorithm(), assembler, opts.Policy)
	ts, err := builder.Build(converted, provenance)
	if err != nil {
		return err
	}
	logDiagnostics(ts)

	tools.LogOutput("> exporting data to", opts.Output)
	return io.NewWriter(opts.Output, opts.Policy.Workers, t.registry).Write(ts)
}

// logDiagnostics summarizes the features left out of the tile contents
func logDiagnostics(ts *tileset.TileSet) {
	reasons := make(map[string]int)
	for _, d := range ts.Diagnostics {
		reasons[d.Reason]++
	}
	for _, tile := range ts.Tiles() {
		if !tile.HasContent() {
			continue
		}
		for _, d := range tile.Content.Diagnostics {
			reasons[d.Reason]++
		}
	}
	names := make([]string, 0, len(reasons))
	for reason := range reasons {
		names = append(names, reason)
	}
	sort.Strings(names)
	for _, reason := range names {
		glog.Warningf("%d diagnostics: %s", reasons[reason], reason)
	}
}
