package pkg

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ecopia-map/city_tiler/internal/config"
	"github.com/ecopia-map/city_tiler/internal/content"
	"github.com/ecopia-map/city_tiler/internal/io"
	"github.com/ecopia-map/city_tiler/internal/schema"
	"github.com/ecopia-map/city_tiler/internal/source/citydb"
	"github.com/ecopia-map/city_tiler/internal/tiler"
	"github.com/ecopia-map/city_tiler/internal/tileset"
	"github.com/ecopia-map/city_tiler/pkg/algorithm_manager/std_algorithm_manager"
	"github.com/ecopia-map/city_tiler/tools"
	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testRegistry(t *testing.T) *schema.Registry {
	registry, err := schema.NewDefaultRegistry(filepath.Join("..", "schemas"))
	require.NoError(t, err)
	return registry
}

func testOptions(t *testing.T, command string) *tiler.TilerOptions {
	cfg := config.Default()
	return &tiler.TilerOptions{
		Command:    command,
		Output:     filepath.Join(t.TempDir(), "tileset"),
		RefineMode: tiler.RefineModeReplace,
		Policy: tileset.Policy{
			LevelSizes:         []int{2, 1},
			BaseGeometricError: 100,
			Workers:            2,
		},
		Geojson:  cfg.GeojsonOptions(),
		Database: cfg.Database,
	}
}

func newTestTiler(t *testing.T, opts *tiler.TilerOptions) *Tiler {
	return NewTiler(tools.NewStandardFileFinder(), std_algorithm_manager.NewAlgorithmManager(opts), testRegistry(t)).(*Tiler)
}

func readTileset(t *testing.T, output string) io.Tileset {
	raw, err := os.ReadFile(filepath.Join(output, io.TilesetFileName))
	require.NoError(t, err)
	var written io.Tileset
	require.NoError(t, json.Unmarshal(raw, &written))
	return written
}

func footprint(id string, x, y float64) string {
	return fmt.Sprintf(`{"type": "Feature", "id": %q, "properties": {"HAUTEUR": 10, "Z_MAX": 40},
	  "geometry": {"type": "Polygon", "coordinates": [[[%f, %f], [%f, %f], [%f, %f], [%f, %f], [%f, %f]]]}}`,
		id, x, y, x+8, y, x+8, y+8, x, y+8, x, y)
}

func TestRunGeojson(t *testing.T) {
	input := filepath.Join(t.TempDir(), "lyon")
	require.NoError(t, os.MkdirAll(input, 0755))
	footprints := make([]string, 0)
	for i := 0; i < 5; i++ {
		footprints = append(footprints, footprint(fmt.Sprintf("f%d", i), 1843000+float64(i)*30, 5175000))
	}
	collection := `{"type": "FeatureCollection", "features": [` + strings.Join(footprints, ",") + `]}`
	require.NoError(t, os.WriteFile(filepath.Join(input, "blocks.geojson"), []byte(collection), 0644))

	opts := testOptions(t, tools.CommandGeojson)
	opts.Input = input
	opts.FolderProcessing = true
	opts.ZOffset = 2
	opts.MetricsFile = filepath.Join(t.TempDir(), "city_tiler.prom")

	require.NoError(t, newTestTiler(t, opts).RunTiler(context.Background(), opts))

	written := readTileset(t, opts.Output)
	require.Equal(t, "GeoJSON lyon", written.Asset.Extras.Provenance)
	require.Equal(t, io.Number(200), written.GeometricError)
	require.Len(t, written.Root.Children, 3)

	// z offset applied: prisms span 32 to 42
	box := written.Root.BoundingVolume.Box
	require.InDelta(t, 37, float64(box[2]), 1e-6)
	require.InDelta(t, 5, float64(box[11]), 1e-6)

	leaves := 0
	for _, child := range written.Root.Children {
		for _, leaf := range child.Children {
			_, err := os.Stat(filepath.Join(opts.Output, leaf.Content.Uri))
			require.NoError(t, err)
			leaves++
		}
	}
	require.Equal(t, 5, leaves)

	metricsFile, err := os.ReadFile(opts.MetricsFile)
	require.NoError(t, err)
	require.Contains(t, string(metricsFile), `city_tiler_features_extracted{source="geojson"}`)
}

func TestRunGeojsonWithoutFiles(t *testing.T) {
	opts := testOptions(t, tools.CommandGeojson)
	opts.Input = t.TempDir()
	opts.FolderProcessing = true

	require.Error(t, newTestTiler(t, opts).RunTiler(context.Background(), opts))
}

func openTestCitydb(t *testing.T) func(options citydb.Options) (*citydb.Extractor, error) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	statements := []string{
		`CREATE TABLE vertex (feature_id TEXT, class TEXT, parent_id TEXT, surface_id INTEGER, position INTEGER, x REAL, y REAL, z REAL)`,
		`CREATE TABLE attribute (feature_id TEXT, name TEXT, text_value TEXT, number_value REAL)`,
		`INSERT INTO vertex VALUES ('b1', 'Building', NULL, 1, 1, 0, 0, 10), ('b1', 'Building', NULL, 1, 2, 4, 0, 10),
			('b1', 'Building', NULL, 1, 3, 4, 4, 10), ('b1', 'Building', NULL, 1, 4, 0, 4, 10)`,
		`INSERT INTO vertex VALUES ('b1-p1', 'BuildingPart', 'b1', 2, 1, 5, 0, 6), ('b1-p1', 'BuildingPart', 'b1', 2, 2, 7, 0, 6),
			('b1-p1', 'BuildingPart', 'b1', 2, 3, 7, 2, 6)`,
		`INSERT INTO attribute VALUES ('b1', 'function', 'school', NULL)`,
	}
	for _, statement := range statements {
		require.NoError(t, db.Exec(statement).Error)
	}

	return func(options citydb.Options) (*citydb.Extractor, error) {
		options.Queries = citydb.Queries{
			Surfaces:          `SELECT feature_id, class, NULL AS parent_id, surface_id, x, y, z FROM vertex ORDER BY feature_id, surface_id, position`,
			HierarchySurfaces: `SELECT feature_id, class, parent_id, surface_id, x, y, z FROM vertex ORDER BY feature_id, surface_id, position`,
			Attributes:        `SELECT feature_id, name, text_value, number_value FROM attribute`,
		}
		return citydb.NewExtractor(db, options), nil
	}
}

func TestRunCitydbWithHierarchy(t *testing.T) {
	opts := testOptions(t, tools.CommandCitydb)
	opts.Database.Database = "lyon"
	opts.WithHierarchy = true
	opts.Database.WithHierarchy = true
	opts.Policy.LevelSizes = []int{10}

	runner := newTestTiler(t, opts)
	runner.openCitydb = openTestCitydb(t)
	require.NoError(t, runner.RunTiler(context.Background(), opts))

	written := readTileset(t, opts.Output)
	require.Equal(t, "3DCityDB lyon@localhost:5432", written.Asset.Extras.Provenance)
	require.Equal(t, []string{content.HierarchyExtension}, written.ExtensionsUsed)
	require.Len(t, written.Root.Children, 1)
	require.Equal(t, "0/content.b3dm", written.Root.Children[0].Content.Uri)
}

func TestRunRejectsInvalidOptions(t *testing.T) {
	opts := testOptions(t, tools.CommandCitydb)
	// no database name
	require.ErrorIs(t, newTestTiler(t, opts).RunTiler(context.Background(), opts), citydb.ErrNoDatabase)

	opts = testOptions(t, "shapefile")
	require.ErrorIs(t, newTestTiler(t, opts).RunTiler(context.Background(), opts), ErrUnknownCommand)

	opts = testOptions(t, tools.CommandGeojson)
	opts.RefineMode = ""
	require.Error(t, newTestTiler(t, opts).RunTiler(context.Background(), opts))
}
