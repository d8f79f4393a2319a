package io

import (
	"errors"
	"os"
	"path"
	"runtime"
	"sync"

	"github.com/ecopia-map/city_tiler/internal/content"
	"github.com/ecopia-map/city_tiler/internal/schema"
	"github.com/ecopia-map/city_tiler/internal/tileset"
	"github.com/ecopia-map/city_tiler/tools"
	"github.com/golang/glog"
	"github.com/segmentio/encoding/json"
)

const TilesetFileName = "tileset.json"

// Writer exports a tile tree as a 3D Tiles folder: tileset.json at the root and a content.b3dm per tile
type Writer struct {
	output       string
	numConsumers int
	validator    content.Validator
}

// NewWriter creates a writer into the output folder. When validator is not nil tileset.json is validated
// before being written.
func NewWriter(output string, numConsumers int, validator content.Validator) *Writer {
	if numConsumers < 1 {
		numConsumers = runtime.NumCPU()
	}
	return &Writer{
		output:       output,
		numConsumers: numConsumers,
		validator:    validator,
	}
}

func (w *Writer) Write(ts *tileset.TileSet) error {
	jsonData, err := w.generateTilesetJson(ts)
	if err != nil {
		return err
	}

	if err := tools.CreateDirectoryIfDoesNotExist(w.output); err != nil {
		return err
	}
	if err := w.writeContents(ts); err != nil {
		return err
	}

	glog.Infof("writing %s", path.Join(w.output, TilesetFileName))
	return os.WriteFile(path.Join(w.output, TilesetFileName), jsonData, 0666)
}

// Generates and validates the tileset.json content
func (w *Writer) generateTilesetJson(ts *tileset.TileSet) ([]byte, error) {
	model := generateTileset(ts)
	if w.validator != nil {
		payload, err := json.Marshal(model)
		if err != nil {
			return nil, err
		}
		if err := w.validator.Validate(schema.ClassTileset, payload); err != nil {
			return nil, err
		}
	}
	return json.MarshalIndent(model, "", "\t")
}

// Writes every tile content with a producer and a pool of consumers
func (w *Writer) writeContents(ts *tileset.TileSet) error {
	// init channel where to submit work with a buffer 5 times greater than the number of consumers
	workChannel := make(chan *WorkUnit, w.numConsumers*5)

	// init channel where consumers can eventually submit errors that prevented them to finish the job
	errorChannel := make(chan error, w.numConsumers)

	var waitGroup sync.WaitGroup

	waitGroup.Add(1)
	producer := NewStandardProducer(w.output)
	go producer.Produce(workChannel, &waitGroup, ts)

	for i := 0; i < w.numConsumers; i++ {
		waitGroup.Add(1)
		consumer := NewStandardConsumer()
		go consumer.Consume(workChannel, errorChannel, &waitGroup)
	}

	waitGroup.Wait()
	close(errorChannel)

	errs := make([]error, 0)
	for err := range errorChannel {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
