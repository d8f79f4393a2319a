package tools

import (
	"testing"

	"github.com/ecopia-map/city_tiler/internal/config"
	"github.com/ecopia-map/city_tiler/internal/tiler"
	"github.com/stretchr/testify/require"
)

func TestParseFlagsForCommandGeojson(t *testing.T) {
	flags, err := ParseFlagsForCommandGeojson([]string{
		"-i", "data", "-o", "out", "-f", "-recursive",
		"-e", "3946", "-z", "-2.5",
		"-levels", "50, 1",
		"-height-properties", "HEIGHT,H",
	})
	require.NoError(t, err)

	opts, err := flags.ToTilerOptions(config.Default())
	require.NoError(t, err)
	require.Equal(t, CommandGeojson, opts.Command)
	require.Equal(t, "data", opts.Input)
	require.Equal(t, "out", opts.Output)
	require.True(t, opts.FolderProcessing)
	require.True(t, opts.Recursive)
	require.Equal(t, 3946, opts.Srid)
	require.Equal(t, 3946, opts.TargetSrid)
	require.Equal(t, -2.5, opts.ZOffset)
	require.Equal(t, tiler.RefineModeReplace, opts.RefineMode)
	require.Equal(t, []int{50, 1}, opts.Policy.LevelSizes)
	require.Equal(t, 500.0, opts.Policy.BaseGeometricError)
	require.Equal(t, "schemas", opts.SchemaDir)
	require.Equal(t, []string{"HEIGHT", "H", "height", "HAUTEUR"}, opts.Geojson.HeightAliases)
	require.Equal(t, []string{"z", "Z_MAX"}, opts.Geojson.AltitudeAliases)
}

func TestParseFlagsForCommandCitydb(t *testing.T) {
	flags, err := ParseFlagsForCommandCitydb([]string{
		"-o", "out", "-with-hierarchy",
		"-db-name", "lyon", "-db-password", "secret",
		"-m", "30", "-g", "80", "-w", "3",
		"-e", "3946", "-t", "4978",
		"-refine-mode", "add",
	})
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Database.Host = "db.example.org"
	opts, err := flags.ToTilerOptions(cfg)
	require.NoError(t, err)
	require.Equal(t, CommandCitydb, opts.Command)
	require.True(t, opts.WithHierarchy)
	require.True(t, opts.Database.WithHierarchy)
	require.Equal(t, "db.example.org", opts.Database.Host)
	require.Equal(t, "5432", opts.Database.Port)
	require.Equal(t, "lyon", opts.Database.Database)
	require.Equal(t, "secret", opts.Database.Password)
	require.Equal(t, []int{30}, opts.Policy.LevelSizes)
	require.Equal(t, 80.0, opts.Policy.BaseGeometricError)
	require.Equal(t, 3, opts.Policy.Workers)
	require.Equal(t, 4978, opts.TargetSrid)
	require.Equal(t, tiler.RefineMode(""), opts.RefineMode)

	// the password never shows up in logs
	require.NotContains(t, FmtJSONString(flags), "secret")
}

func TestParseFlagsErrors(t *testing.T) {
	_, err := ParseFlagsForCommandGeojson([]string{"-unknown"})
	require.Error(t, err)

	flags, err := ParseFlagsForCommandGeojson([]string{"-levels", "10,0"})
	require.NoError(t, err)
	_, err = flags.ToTilerOptions(config.Default())
	require.Error(t, err)
}

func TestParseLevelSizes(t *testing.T) {
	sizes, err := ParseLevelSizes("100,10 ,1")
	require.NoError(t, err)
	require.Equal(t, []int{100, 10, 1}, sizes)

	for _, value := range []string{"", " , ", "a", "-1", "0"} {
		_, err := ParseLevelSizes(value)
		require.Error(t, err, value)
	}
}
