package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	require.Equal(t, "localhost", cfg.Database.Host)
	require.Equal(t, "5432", cfg.Database.Port)
	require.Equal(t, []int{20}, cfg.Tiling.LevelSizes)
	require.Equal(t, 500.0, cfg.Tiling.GeometricError)
	require.Equal(t, "schemas", cfg.SchemaDir)

	options := cfg.GeojsonOptions()
	require.Equal(t, []string{"height", "HAUTEUR"}, options.HeightAliases)
	require.Equal(t, []string{"prec", "PREC_ALTI"}, options.PrecisionAliases)
	require.Equal(t, []string{"z", "Z_MAX"}, options.AltitudeAliases)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
database:
  host: db.example.org
  database: lyon
  password: secret
  queries:
    attributes: SELECT 1
properties:
  height: [HEIGHT, height]
  altitude: [Z]
tiling:
  level_sizes: [50, 1]
  geometric_error: 100
metrics_file: /tmp/city_tiler.prom
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "db.example.org", cfg.Database.Host)
	// untouched values keep their defaults
	require.Equal(t, "5432", cfg.Database.Port)
	require.Equal(t, "postgres", cfg.Database.User)
	require.Equal(t, "lyon", cfg.Database.Database)
	require.Equal(t, "SELECT 1", cfg.Database.Queries.Attributes)
	require.Empty(t, cfg.Database.Queries.Surfaces)
	require.Equal(t, "schemas", cfg.SchemaDir)
	require.Equal(t, "/tmp/city_tiler.prom", cfg.MetricsFile)

	policy := cfg.Policy()
	require.Equal(t, []int{50, 1}, policy.LevelSizes)
	require.Equal(t, 100.0, policy.BaseGeometricError)
	require.Equal(t, 25.0, policy.GeometricError(2))

	options := cfg.GeojsonOptions()
	require.Equal(t, []string{"HEIGHT", "height", "HAUTEUR"}, options.HeightAliases)
	require.Equal(t, []string{"Z", "z", "Z_MAX"}, options.AltitudeAliases)
}

func TestLoadWithoutPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tiling: [unclosed"), 0644))
	_, err = Load(path)
	require.Error(t, err)
}
