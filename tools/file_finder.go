package tools

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/ecopia-map/city_tiler/internal/tiler"
)

const GeojsonExtension = ".geojson"

type FileFinder interface {
	GetGeojsonFilesToProcess(opts *tiler.TilerOptions) ([]string, error)
}

type StandardFileFinder struct{}

func NewStandardFileFinder() FileFinder {
	return &StandardFileFinder{}
}

func (f *StandardFileFinder) GetGeojsonFilesToProcess(opts *tiler.TilerOptions) ([]string, error) {
	// If folder processing is not enabled then the file is given by -input flag, otherwise look for geojson in
	// -input folder eventually excluding nested folders if Recursive flag is disabled
	if !opts.FolderProcessing {
		return []string{opts.Input}, nil
	}

	return f.getGeojsonFilesFromInputFolder(opts)
}

// files are returned in lexical order, which filepath.Walk guarantees
func (f *StandardFileFinder) getGeojsonFilesFromInputFolder(opts *tiler.TilerOptions) ([]string, error) {
	var geojsonFiles = make([]string, 0)

	baseInfo, err := os.Stat(opts.Input)
	if err != nil {
		return nil, err
	}
	err = filepath.Walk(
		opts.Input,
		func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() && !opts.Recursive && !os.SameFile(info, baseInfo) {
				return filepath.SkipDir
			}
			if !info.IsDir() && strings.ToLower(filepath.Ext(info.Name())) == GeojsonExtension {
				geojsonFiles = append(geojsonFiles, path)
			}
			return nil
		},
	)

	if err != nil {
		return nil, err
	}

	return geojsonFiles, nil
}
