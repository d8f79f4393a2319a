package pkg

import (
	"context"

	"github.com/ecopia-map/city_tiler/internal/data"
	"github.com/ecopia-map/city_tiler/internal/tiler"
	"github.com/ecopia-map/city_tiler/tools"
)

func (t *Tiler) extractFromCitydb(ctx context.Context, opts *tiler.TilerOptions) ([]*data.Feature, string, error) {
	if err := opts.Database.Validate(); err != nil {
		return nil, "", err
	}

	tools.LogOutput("> reading buildings from", opts.Database.Provenance())
	extractor, err := t.openCitydb(opts.Database)
	if err != nil {
		return nil, "", err
	}
	defer extractor.Close()

	features, err := extractor.Extract(ctx)
	if err != nil {
		return nil, "", err
	}
	return features, opts.Database.Provenance(), nil
}
