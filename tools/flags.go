package tools

import (
	"flag"
	"fmt"
	"strconv"
	"strings"

	"github.com/ecopia-map/city_tiler/internal/config"
	"github.com/ecopia-map/city_tiler/internal/tiler"
	"github.com/golang/glog"
)

const (
	CommandCitydb  = "citydb"
	CommandGeojson = "geojson"
)

type FlagsGlobal struct {
	Help    *bool `json:"help"`
	Version *bool `json:"version"`
}

// TilerFlags are shared by every command. Zero values leave the configuration untouched.
type TilerFlags struct {
	Config         *string  `json:"config"`
	Output         *string  `json:"output"`
	Srid           *int     `json:"srid"`
	TargetSrid     *int     `json:"target_srid"`
	ZOffset        *float64 `json:"zoffset"`
	MaxFeatures    *int     `json:"max_features"`
	Levels         *string  `json:"levels"`
	GeometricError *float64 `json:"geometric_error"`
	Workers        *int     `json:"workers"`
	RefineMode     *string  `json:"refine_mode"`
	SchemaDir      *string  `json:"schema_dir"`
	MetricsFile    *string  `json:"metrics_file"`
	Silent         *bool    `json:"silent"`
	Help           *bool    `json:"help"`
	Version        *bool    `json:"version"`
}

type FlagsForCommandCitydb struct {
	TilerFlags
	WithHierarchy *bool   `json:"with_hierarchy"`
	DbHost        *string `json:"db_host"`
	DbPort        *string `json:"db_port"`
	DbUser        *string `json:"db_user"`
	DbPassword    *string `json:"-"`
	DbName        *string `json:"db_name"`
}

type FlagsForCommandGeojson struct {
	TilerFlags
	Input               *string `json:"input"`
	FolderProcessing    *bool   `json:"folder"`
	Recursive           *bool   `json:"recursive"`
	HeightProperties    *string `json:"height_properties"`
	PrecisionProperties *string `json:"precision_properties"`
	AltitudeProperties  *string `json:"altitude_properties"`
}

func ParseFlagsGlobal() FlagsGlobal {
	help := defineBoolFlag("help", "h", false, "Displays this help.")
	version := defineBoolFlag("version", "", false, "Displays the version of city_tiler.")

	flag.Parse()

	return FlagsGlobal{
		Help:    help,
		Version: version,
	}
}

func ParseFlagsForCommandCitydb(args []string) (FlagsForCommandCitydb, error) {
	glog.V(1).Infof("citydb arguments: %s", FmtJSONString(args))

	flagCommand := flag.NewFlagSet("command-citydb", flag.ContinueOnError)

	tilerFlags := defineTilerFlags(flagCommand)
	withHierarchy := defineBoolFlagCommand(flagCommand, "with-hierarchy", "", false, "Adds a batch table hierarchy linking building parts to their building.")
	dbHost := defineStringFlagCommand(flagCommand, "db-host", "", "", "Host of the 3DCityDB database.")
	dbPort := defineStringFlagCommand(flagCommand, "db-port", "", "", "Port of the 3DCityDB database.")
	dbUser := defineStringFlagCommand(flagCommand, "db-user", "", "", "User of the 3DCityDB database.")
	dbPassword := defineStringFlagCommand(flagCommand, "db-password", "", "", "Password of the 3DCityDB database.")
	dbName := defineStringFlagCommand(flagCommand, "db-name", "", "", "Name of the 3DCityDB database.")

	if err := flagCommand.Parse(args); err != nil {
		return FlagsForCommandCitydb{}, err
	}

	return FlagsForCommandCitydb{
		TilerFlags:    tilerFlags,
		WithHierarchy: withHierarchy,
		DbHost:        dbHost,
		DbPort:        dbPort,
		DbUser:        dbUser,
		DbPassword:    dbPassword,
		DbName:        dbName,
	}, nil
}

func ParseFlagsForCommandGeojson(args []string) (FlagsForCommandGeojson, error) {
	glog.V(1).Infof("geojson arguments: %s", FmtJSONString(args))

	flagCommand := flag.NewFlagSet("command-geojson", flag.ContinueOnError)

	tilerFlags := defineTilerFlags(flagCommand)
	input := defineStringFlagCommand(flagCommand, "input", "i", "", "Specifies the input geojson file/folder.")
	folderProcessing := defineBoolFlagCommand(flagCommand, "folder", "f", false, "Enables processing of all geojson files from input folder. Input must be a folder if specified")
	recursive := defineBoolFlagCommand(flagCommand, "recursive", "r", false, "Enables recursive lookup for all .geojson files inside the subfolders")
	height := defineStringFlagCommand(flagCommand, "height-properties", "", "", "Comma separated property names holding the footprint height, looked up before height and HAUTEUR.")
	precision := defineStringFlagCommand(flagCommand, "precision-properties", "", "", "Comma separated property names holding the altitude precision, looked up before prec and PREC_ALTI.")
	altitude := defineStringFlagCommand(flagCommand, "altitude-properties", "", "", "Comma separated property names holding the roof altitude, looked up before z and Z_MAX.")

	if err := flagCommand.Parse(args); err != nil {
		return FlagsForCommandGeojson{}, err
	}

	return FlagsForCommandGeojson{
		TilerFlags:          tilerFlags,
		Input:               input,
		FolderProcessing:    folderProcessing,
		Recursive:           recursive,
		HeightProperties:    height,
		PrecisionProperties: precision,
		AltitudeProperties:  altitude,
	}, nil
}

func defineTilerFlags(flagCommand *flag.FlagSet) TilerFlags {
	return TilerFlags{
		Config:         defineStringFlagCommand(flagCommand, "config", "c", "", "Optional YAML configuration file. Flags take precedence over its values."),
		Output:         defineStringFlagCommand(flagCommand, "output", "o", "", "Specifies the output folder where to write the tileset data."),
		Srid:           defineIntFlagCommand(flagCommand, "srid", "e", 0, "EPSG srid code of the input coordinates."),
		TargetSrid:     defineIntFlagCommand(flagCommand, "target-srid", "t", 0, "EPSG srid code of the output coordinates. Defaults to the input one."),
		ZOffset:        defineFloat64FlagCommand(flagCommand, "zoffset", "z", 0, "Vertical offset to apply to vertices, in meters."),
		MaxFeatures:    defineIntFlagCommand(flagCommand, "max-features", "m", 0, "Maximum number of features per tile. Shorthand for a single level tree."),
		Levels:         defineStringFlagCommand(flagCommand, "levels", "l", "", "Comma separated maximum number of features per tile of each level, e.g. 50,1."),
		GeometricError: defineFloat64FlagCommand(flagCommand, "geometric-error", "g", 0, "Geometric error of the first level of tiles, halved at each level."),
		Workers:        defineIntFlagCommand(flagCommand, "workers", "w", 0, "Number of goroutines assembling and writing tiles."),
		RefineMode:     defineStringFlagCommand(flagCommand, "refine-mode", "", "REPLACE", "Type of refine mode. Only 'REPLACE' is supported: child tiles replace the content of their parent."),
		SchemaDir:      defineStringFlagCommand(flagCommand, "schema-dir", "", "", "Folder holding the JSON schemas used to validate the outputs."),
		MetricsFile:    defineStringFlagCommand(flagCommand, "metrics-file", "", "", "Writes the run metrics to this Prometheus textfile."),
		Silent:         defineBoolFlagCommand(flagCommand, "silent", "s", false, "Use to suppress all the non-error messages."),
		Help:           defineBoolFlagCommand(flagCommand, "help", "h", false, "Displays this help."),
		Version:        defineBoolFlagCommand(flagCommand, "version", "v", false, "Displays the version of city_tiler."),
	}
}

// ToTilerOptions applies the flags on top of the configuration
func (flags *FlagsForCommandCitydb) ToTilerOptions(cfg *config.Config) (*tiler.TilerOptions, error) {
	opts, err := flags.TilerFlags.toTilerOptions(cfg, CommandCitydb)
	if err != nil {
		return nil, err
	}
	opts.WithHierarchy = *flags.WithHierarchy
	opts.Database.WithHierarchy = *flags.WithHierarchy
	override(&opts.Database.Host, *flags.DbHost)
	override(&opts.Database.Port, *flags.DbPort)
	override(&opts.Database.User, *flags.DbUser)
	override(&opts.Database.Password, *flags.DbPassword)
	override(&opts.Database.Database, *flags.DbName)
	return opts, nil
}

// ToTilerOptions applies the flags on top of the configuration
func (flags *FlagsForCommandGeojson) ToTilerOptions(cfg *config.Config) (*tiler.TilerOptions, error) {
	cfg.Properties.Height = append(SplitList(*flags.HeightProperties), cfg.Properties.Height...)
	cfg.Properties.Precision = append(SplitList(*flags.PrecisionProperties), cfg.Properties.Precision...)
	cfg.Properties.Altitude = append(SplitList(*flags.AltitudeProperties), cfg.Properties.Altitude...)

	opts, err := flags.TilerFlags.toTilerOptions(cfg, CommandGeojson)
	if err != nil {
		return nil, err
	}
	opts.Input = *flags.Input
	opts.FolderProcessing = *flags.FolderProcessing
	opts.Recursive = *flags.Recursive
	return opts, nil
}

func (flags *TilerFlags) toTilerOptions(cfg *config.Config, command string) (*tiler.TilerOptions, error) {
	opts := &tiler.TilerOptions{
		Command:     command,
		Output:      *flags.Output,
		Srid:        *flags.Srid,
		TargetSrid:  *flags.TargetSrid,
		ZOffset:     *flags.ZOffset,
		RefineMode:  tiler.ParseRefineMode(*flags.RefineMode),
		SchemaDir:   cfg.SchemaDir,
		MetricsFile: cfg.MetricsFile,
		Policy:      cfg.Policy(),
		Geojson:     cfg.GeojsonOptions(),
		Database:    cfg.Database,
	}
	if opts.TargetSrid == 0 {
		opts.TargetSrid = opts.Srid
	}
	override(&opts.SchemaDir, *flags.SchemaDir)
	override(&opts.MetricsFile, *flags.MetricsFile)

	if *flags.Levels != "" {
		levels, err := ParseLevelSizes(*flags.Levels)
		if err != nil {
			return nil, err
		}
		opts.Policy.LevelSizes = levels
	} else if *flags.MaxFeatures > 0 {
		opts.Policy.LevelSizes = []int{*flags.MaxFeatures}
	}
	if *flags.GeometricError > 0 {
		opts.Policy.BaseGeometricError = *flags.GeometricError
	}
	if *flags.Workers > 0 {
		opts.Policy.Workers = *flags.Workers
	}
	return opts, nil
}

// ParseLevelSizes parses a comma separated list of positive integers
func ParseLevelSizes(value string) ([]int, error) {
	parts := SplitList(value)
	sizes := make([]int, len(parts))
	for i, part := range parts {
		size, err := strconv.Atoi(part)
		if err != nil || size < 1 {
			return nil, fmt.Errorf("invalid level size %q", part)
		}
		sizes[i] = size
	}
	if len(sizes) == 0 {
		return nil, fmt.Errorf("no level size in %q", value)
	}
	return sizes, nil
}

// SplitList splits a comma separated list, dropping blank items
func SplitList(value string) []string {
	items := make([]string, 0)
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func override(target *string, value string) {
	if value != "" {
		*target = value
	}
}

func defineBoolFlag(name string, shortHand string, defaultValue bool, usage string) *bool {
	var output bool
	flag.BoolVar(&output, name, defaultValue, usage)
	if shortHand != name && shortHand != "" {
		flag.BoolVar(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}
	return &output
}

func defineStringFlagCommand(flagCommand *flag.FlagSet, name string, shortHand string, defaultValue string, usage string) *string {
	var output string
	flagCommand.StringVar(&output, name, defaultValue, usage)
	if shortHand != name && shortHand != "" {
		flagCommand.StringVar(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}

	return &output
}

func defineIntFlagCommand(flagCommand *flag.FlagSet, name string, shortHand string, defaultValue int, usage string) *int {
	var output int
	flagCommand.IntVar(&output, name, defaultValue, usage)
	if shortHand != name && shortHand != "" {
		flagCommand.IntVar(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}

	return &output
}

func defineFloat64FlagCommand(flagCommand *flag.FlagSet, name string, shortHand string, defaultValue float64, usage string) *float64 {
	var output float64
	flagCommand.Float64Var(&output, name, defaultValue, usage)
	if shortHand != name && shortHand != "" {
		flagCommand.Float64Var(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}
	return &output
}

func defineBoolFlagCommand(flagCommand *flag.FlagSet, name string, shortHand string, defaultValue bool, usage string) *bool {
	var output bool
	flagCommand.BoolVar(&output, name, defaultValue, usage)
	if shortHand != name && shortHand != "" {
		flagCommand.BoolVar(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}
	return &output
}
