/*
 * This file is part of the city_tiler distribution, derived from the Go Cesium Point Cloud Tiler
 * (https://github.com/mfbonfigli/gocesiumtiler).
 * Copyright (c) 2019 Massimo Federico Bonfigli - m.federico.bonfigli@gmail.com
 *
 * This program is free software; you can redistribute it and/or modify it
 * under the terms of the GNU Lesser General Public License Version 3 as
 * published by the Free Software Foundation;
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
 * Lesser General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General Public License
 * along with this program. If not, see <http://www.gnu.org/licenses/>.
 *
 * This software also uses third party components. You can find information
 * on their credits and licensing in the file LICENSE-3RD-PARTIES.md that
 * you should have received togheter with the source code.
 */

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ecopia-map/city_tiler/internal/config"
	"github.com/ecopia-map/city_tiler/internal/schema"
	"github.com/ecopia-map/city_tiler/internal/tiler"
	"github.com/ecopia-map/city_tiler/pkg"
	"github.com/ecopia-map/city_tiler/pkg/algorithm_manager/std_algorithm_manager"
	"github.com/ecopia-map/city_tiler/tools"
	"github.com/golang/glog"
)

const VERSION = "1.0.0"

const logo = `
       _ _               _   _ _
   ___(_) |_ _   _      | |_(_) | ___ _ __
  / __| | __| | | |_____| __| | |/ _ \ '__|
 | (__| | |_| |_| |_____| |_| | |  __/ |
  \___|_|\__|\__, |      \__|_|_|\___|_|
             |___/  3D Tiles from 3DCityDB and GeoJSON
`

func main() {
	flagsGlobal := tools.ParseFlagsGlobal()
	defer glog.Flush()

	if *flagsGlobal.Help {
		showHelp()
		return
	}
	if *flagsGlobal.Version {
		printVersion()
		return
	}

	args := flag.Args()
	if len(args) == 0 {
		glog.Fatal("Please specify a subcommand [citydb|geojson].")
	}
	cmd, args := args[0], args[1:]

	switch cmd {
	case tools.CommandCitydb:
		mainCommandCitydb(args)
	case tools.CommandGeojson:
		mainCommandGeojson(args)
	default:
		glog.Fatalf("Unrecognized command [%q]. Command must be one of [citydb|geojson]", cmd)
	}
}

func mainCommandCitydb(args []string) {
	flags, err := tools.ParseFlagsForCommandCitydb(args)
	if err != nil {
		glog.Fatal("Error parsing input parameters: ", err)
	}
	if handleInformationFlags(&flags.TilerFlags) {
		return
	}
	glog.V(1).Infof("flags %s", tools.FmtJSONString(flags))

	opts, err := flags.ToTilerOptions(loadConfig(*flags.Config))
	if err != nil {
		glog.Fatal("Error parsing input parameters: ", err)
	}
	if msg, res := validateOptions(opts); !res {
		glog.Fatal("Error parsing input parameters: " + msg)
	}

	runTiler(opts)
}

func mainCommandGeojson(args []string) {
	flags, err := tools.ParseFlagsForCommandGeojson(args)
	if err != nil {
		glog.Fatal("Error parsing input parameters: ", err)
	}
	if handleInformationFlags(&flags.TilerFlags) {
		return
	}
	glog.V(1).Infof("flags %s", tools.FmtJSONString(flags))

	opts, err := flags.ToTilerOptions(loadConfig(*flags.Config))
	if err != nil {
		glog.Fatal("Error parsing input parameters: ", err)
	}
	if _, err := os.Stat(opts.Input); os.IsNotExist(err) {
		glog.Fatal("Error parsing input parameters: Input file/folder not found")
	}
	if msg, res := validateOptions(opts); !res {
		glog.Fatal("Error parsing input parameters: " + msg)
	}

	runTiler(opts)
}

// handleInformationFlags prints the help or the version and reports whether the command should stop there
func handleInformationFlags(flags *tools.TilerFlags) bool {
	if *flags.Help {
		showHelp()
		return true
	}
	if *flags.Version {
		printVersion()
		return true
	}

	// set logging
	if *flags.Silent {
		tools.DisableLogger()
	} else {
		printLogo()
	}
	return false
}

func loadConfig(path string) *config.Config {
	cfg, err := config.Load(path)
	if err != nil {
		glog.Fatal(err)
	}
	return cfg
}

// Validates the options that do not depend on the data source
func validateOptions(opts *tiler.TilerOptions) (string, bool) {
	if opts.Output == "" {
		return "Output folder not specified", false
	}
	if opts.RefineMode == "" {
		return "refine-mode should be REPLACE", false
	}
	for _, size := range opts.Policy.LevelSizes {
		if size < 1 {
			return "level sizes must be positive", false
		}
	}
	return "", true
}

func runTiler(opts *tiler.TilerOptions) {
	defer timeTrack(time.Now(), "tiler")

	// the schemas are loaded once and sealed before any worker starts
	registry, err := schema.NewDefaultRegistry(tools.ResolvePath(opts.SchemaDir))
	if err != nil {
		glog.Fatal("Error loading schemas: ", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = pkg.NewTiler(tools.NewStandardFileFinder(), std_algorithm_manager.NewAlgorithmManager(opts), registry).RunTiler(ctx, opts)
	if err != nil {
		glog.Fatal("Error while tiling: ", err)
	}
	tools.LogOutput("Conversion Completed")
}

func timeTrack(start time.Time, name string) {
	elapsed := time.Since(start)
	tools.LogOutput(fmt.Sprintf("%s took %s", name, elapsed))
}

func printLogo() {
	fmt.Println(logo)
}

func showHelp() {
	printLogo()
	fmt.Println("***")
	fmt.Println("city_tiler is a tool that turns 3DCityDB buildings or GeoJSON footprints into a 3D Tiles tileset of b3dm tiles")
	printVersion()
	fmt.Println("***")
	fmt.Println("")
	fmt.Println("Usage: city_tiler [global flags] <" + strings.Join([]string{tools.CommandCitydb, tools.CommandGeojson}, "|") + "> [command flags]")
	fmt.Println("Run a command with -help to list its flags.")
	fmt.Println("")
	fmt.Println("Global flags: ")
	flag.CommandLine.SetOutput(os.Stdout)
	flag.PrintDefaults()
}

func printVersion() {
	fmt.Println("v." + VERSION)
}
