package io

import (
	"sync"

	"github.com/ecopia-map/city_tiler/internal/tileset"
)

type Producer interface {
	Produce(work chan *WorkUnit, wg *sync.WaitGroup, ts *tileset.TileSet)
}

type Consumer interface {
	Consume(workchan chan *WorkUnit, errchan chan error, waitGroup *sync.WaitGroup)
}
