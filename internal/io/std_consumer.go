package io

import (
	"fmt"
	"os"
	"path"
	"sync"

	"github.com/ecopia-map/city_tiler/internal/tileset"
	"github.com/ecopia-map/city_tiler/tools"
	"github.com/golang/glog"
)

type StandardConsumer struct{}

func NewStandardConsumer() Consumer {
	return &StandardConsumer{}
}

// Continually consumes WorkUnits submitted to a work channel producing the corresponding content.b3dm files.
// Continues working until the work channel is closed or an error is raised. In this last case submits the error
// to the error channel before quitting.
func (c *StandardConsumer) Consume(workchan chan *WorkUnit, errchan chan error, waitGroup *sync.WaitGroup) {
	defer waitGroup.Done()
	for work := range workchan {
		if err := c.doWork(work); err != nil {
			glog.Errorf("unable to write tile %q: %v", work.Tile.Dir(), err)
			errchan <- err
			// keep draining so that the producer never blocks
			for range workchan {
			}
			return
		}
	}
}

// Writes the content.b3dm file of the work unit tile
func (c *StandardConsumer) doWork(workUnit *WorkUnit) error {
	parentFolder := path.Join(workUnit.BasePath, workUnit.Tile.Dir())
	if err := tools.CreateDirectoryIfDoesNotExist(parentFolder); err != nil {
		return err
	}

	outputByte, err := generateB3dm(workUnit.Tile.Content)
	if err != nil {
		return fmt.Errorf("tile %q: %w", workUnit.Tile.Dir(), err)
	}

	return os.WriteFile(path.Join(parentFolder, tileset.ContentFileName), outputByte, 0666)
}
