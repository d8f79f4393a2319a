package io

import (
	"sync"

	"github.com/ecopia-map/city_tiler/internal/tileset"
)

type StandardProducer struct {
	basePath string
}

func NewStandardProducer(basePath string) Producer {
	return &StandardProducer{
		basePath: basePath,
	}
}

// Parses the tile tree and submits a WorkUnit per tile with content to the provided workchannel.
// Closes the channel when all work is submitted.
func (p *StandardProducer) Produce(work chan *WorkUnit, wg *sync.WaitGroup, ts *tileset.TileSet) {
	_ = ts.Walk(func(t *tileset.Tile) error {
		if t.HasContent() {
			work <- &WorkUnit{
				Tile:     t,
				BasePath: p.basePath,
			}
		}
		return nil
	})
	close(work)
	wg.Done()
}
