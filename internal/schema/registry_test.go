package schema

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

var schemasDir = filepath.Join("..", "..", "schemas")

func TestDefaultRegistry(t *testing.T) {
	r, err := NewDefaultRegistry(schemasDir)
	require.NoError(t, err)
	require.True(t, r.IsSealed())

	title, ok := r.Title(ClassBoundingVolumeBox)
	require.True(t, ok)
	require.Equal(t, "Bounding Volume", title)

	tileset := `{"asset":{"version":"1.0"},"geometricError":1000,"root":{` +
		`"boundingVolume":{"box":[0,0,0,1,0,0,0,1,0,0,0,1]},"geometricError":1000,"refine":"REPLACE","children":[` +
		`{"boundingVolume":{"box":[0,0,0,1,0,0,0,1,0,0,0,1]},"geometricError":500,` +
		`"transform":[1,0,0,0,0,1,0,0,0,0,1,0,10,20,30,1],"content":{"uri":"0/content.b3dm"}}]}}`
	require.NoError(t, r.Validate(ClassTileset, []byte(tileset)))
}

func TestValidateFailures(t *testing.T) {
	r, err := NewDefaultRegistry(schemasDir)
	require.NoError(t, err)

	var verr *ValidationError

	// nested tile with a 3 element box
	err = r.Validate(ClassTileset, []byte(`{"asset":{"version":"1.0"},"geometricError":1,"root":{`+
		`"boundingVolume":{"box":[0,0,0,1,0,0,0,1,0,0,0,1]},"geometricError":1,"children":[`+
		`{"boundingVolume":{"box":[0,0,0]},"geometricError":1}]}}`))
	require.Error(t, err)
	require.True(t, errors.As(err, &verr))
	require.Equal(t, ClassTileset, verr.Class)
	require.Equal(t, "Tileset", verr.Title)

	err = r.Validate(ClassBatchTableHierarchy, []byte(`{"classes":[],"instancesLength":0,"classIds":[]}`))
	require.Error(t, err)

	err = r.Validate(ClassTile, []byte(`{"geometricError":`))
	require.True(t, errors.As(err, &verr))

	err = r.Validate("CityObjectGroup", []byte(`{}`))
	require.True(t, errors.As(err, &verr))
	require.True(t, errors.Is(err, ErrUnregisteredClass))
}

func TestDuplicateTitles(t *testing.T) {
	r, err := NewRegistry(schemasDir, ClassBoundingVolumeBox)
	require.NoError(t, err)

	require.NoError(t, r.Register("boundingVolume.schema.json", ClassBoundingVolume))
	require.NoError(t, r.Register("boundingVolume.schema.json", ClassBoundingVolumeBox))

	err = r.Register("boundingVolume.schema.json", "ContentBoundingVolume")
	require.True(t, errors.Is(err, ErrDuplicateTitle))
	_, ok := r.Title("ContentBoundingVolume")
	require.False(t, ok)

	require.NoError(t, r.Register("tile.schema.json", ClassTile))
	require.True(t, errors.Is(r.Register("tile.schema.json", ClassTile), ErrDuplicateTitle))
}

func TestSealedRegistryRejectsRegistration(t *testing.T) {
	r, err := NewRegistry(schemasDir)
	require.NoError(t, err)
	r.Seal()
	require.True(t, errors.Is(r.Register("tile.schema.json", ClassTile), ErrSealed))
}

func TestRegisterBrokenDocuments(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "untitled.json"), []byte(`{"type":"object"}`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte(`{"title":`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "strict.json"), []byte(`{"title":"Strict","type":"string"}`), 0644))

	r, err := NewRegistry(dir)
	require.NoError(t, err)
	require.Error(t, r.Register("missing.json", "Missing"))
	require.Error(t, r.Register("untitled.json", "Untitled"))
	require.Error(t, r.Register("broken.json", "Broken"))
	require.Error(t, r.RegisterWithSample("strict.json", "Strict", []byte(`42`)))
}

func TestReferencesResolveInsideBaseDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "point.json"),
		[]byte(`{"title":"Point","type":"array","items":{"type":"number"},"minItems":3,"maxItems":3}`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "segment.json"),
		[]byte(`{"title":"Segment","type":"object","properties":{"a":{"$ref":"point.json"},"b":{"$ref":"point.json"}},"required":["a","b"]}`), 0644))

	r, err := NewRegistry(dir)
	require.NoError(t, err)
	require.NoError(t, r.RegisterWithSample("segment.json", "Segment", []byte(`{"a":[0,0,0],"b":[1,1,1]}`)))
	require.Error(t, r.Validate("Segment", []byte(`{"a":[0,0],"b":[1,1,1]}`)))
}

func TestConcurrentValidation(t *testing.T) {
	r, err := NewDefaultRegistry(schemasDir)
	require.NoError(t, err)

	payload := []byte(`{"classes":[{"name":"Building","length":1,"instances":{"id":["b1"]}}],` +
		`"instancesLength":1,"classIds":[0],"parentCounts":[0],"parentIds":[]}`)
	var wg sync.WaitGroup
	errs := make(chan error, 32)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- r.Validate(ClassBatchTableHierarchy, payload)
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
}
