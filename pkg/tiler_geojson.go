package pkg

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/ecopia-map/city_tiler/internal/data"
	"github.com/ecopia-map/city_tiler/internal/source/geojson"
	"github.com/ecopia-map/city_tiler/internal/tiler"
	"github.com/ecopia-map/city_tiler/tools"
)

func (t *Tiler) extractFromGeojson(ctx context.Context, opts *tiler.TilerOptions) ([]*data.Feature, string, error) {
	tools.LogOutput("Preparing list of files to process...")
	files, err := t.fileFinder.GetGeojsonFilesToProcess(opts)
	if err != nil {
		return nil, "", err
	}
	if len(files) == 0 {
		return nil, "", fmt.Errorf("no %s file found in %s", tools.GeojsonExtension, opts.Input)
	}
	for i, filePath := range files {
		tools.LogOutput(fmt.Sprintf("geojson file %d/%d [%s]", i+1, len(files), filePath))
	}

	features, err := geojson.NewReader(opts.Geojson).ReadFiles(ctx, files)
	if err != nil {
		return nil, "", err
	}
	return features, "GeoJSON " + filepath.Base(opts.Input), nil
}
