// Package config handles the optional YAML configuration of the tiler.
package config

import (
	"fmt"
	"os"

	"github.com/ecopia-map/city_tiler/internal/data"
	"github.com/ecopia-map/city_tiler/internal/source/citydb"
	"github.com/ecopia-map/city_tiler/internal/source/geojson"
	"github.com/ecopia-map/city_tiler/internal/tileset"
	"gopkg.in/yaml.v3"
)

// Config holds the settings that are tedious to pass on the command line
type Config struct {
	Database    citydb.Options   `yaml:"database"`
	Properties  PropertiesConfig `yaml:"properties"`
	Tiling      TilingConfig     `yaml:"tiling"`
	SchemaDir   string           `yaml:"schema_dir"`
	MetricsFile string           `yaml:"metrics_file"`
}

// PropertiesConfig lists additional GeoJSON property names. They are looked up before the built-in ones.
type PropertiesConfig struct {
	Height    []string `yaml:"height"`
	Precision []string `yaml:"precision"`
	Altitude  []string `yaml:"altitude"`
}

// TilingConfig holds the shape of the tile tree
type TilingConfig struct {
	LevelSizes     []int   `yaml:"level_sizes"`
	GeometricError float64 `yaml:"geometric_error"`
	Workers        int     `yaml:"workers"`
}

// Default returns a Config with the values used when nothing else is given
func Default() *Config {
	policy := tileset.DefaultPolicy()
	return &Config{
		Database: citydb.Options{
			Host: "localhost",
			Port: "5432",
			User: "postgres",
		},
		Tiling: TilingConfig{
			LevelSizes:     policy.LevelSizes,
			GeometricError: policy.BaseGeometricError,
			Workers:        policy.Workers,
		},
		SchemaDir: "schemas",
	}
}

// Load returns the defaults overridden by the file at path, if any
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading config from %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("loading config from %s: %w", path, err)
	}
	return cfg, nil
}

// GeojsonOptions merges the configured property names with the built-in aliases
func (c *Config) GeojsonOptions() geojson.Options {
	return geojson.Options{
		HeightAliases:    mergeAliases(c.Properties.Height, data.HeightAliases),
		PrecisionAliases: mergeAliases(c.Properties.Precision, data.PrecisionAliases),
		AltitudeAliases:  mergeAliases(c.Properties.Altitude, data.AltitudeAliases),
	}
}

// Policy returns the tiling policy described by the configuration
func (c *Config) Policy() tileset.Policy {
	return tileset.Policy{
		LevelSizes:         c.Tiling.LevelSizes,
		BaseGeometricError: c.Tiling.GeometricError,
		Workers:            c.Tiling.Workers,
	}
}

func mergeAliases(first []string, then []string) []string {
	merged := make([]string, 0, len(first)+len(then))
	seen := make(map[string]bool)
	for _, names := range [][]string{first, then} {
		for _, name := range names {
			if !seen[name] {
				seen[name] = true
				merged = append(merged, name)
			}
		}
	}
	return merged
}
