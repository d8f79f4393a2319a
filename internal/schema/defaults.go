package schema

// Logical classes of the schemas shipped with the tiler
const (
	ClassTileset             = "Tileset"
	ClassTile                = "Tile"
	ClassBoundingVolume      = "BoundingVolume"
	ClassBoundingVolumeBox   = "BoundingVolumeBox"
	ClassBatchTableHierarchy = "BatchTableHierarchy"
	ClassTemporalTileset     = "TemporalTileset"
	ClassTemporalTransaction = "TemporalTransaction"
	ClassTemporalBatchTable  = "TemporalBatchTable"
)

// DefaultSharedClasses are the classes resolving to a schema registered under another class
var DefaultSharedClasses = []string{ClassBoundingVolumeBox}

type schemaWithSample struct {
	file   string
	class  string
	sample string
}

var coreSchemas = []schemaWithSample{
	{
		file:   "boundingVolume.schema.json",
		class:  ClassBoundingVolume,
		sample: `{"box":[0,0,0,1,0,0,0,1,0,0,0,1]}`,
	},
	{
		file:   "boundingVolume.schema.json",
		class:  ClassBoundingVolumeBox,
		sample: `{"box":[10,20,30,5,0,0,0,5,0,0,0,2]}`,
	},
	{
		file:   "tile.schema.json",
		class:  ClassTile,
		sample: `{"boundingVolume":{"box":[0,0,0,1,0,0,0,1,0,0,0,1]},"geometricError":500,"refine":"REPLACE",` +
			`"content":{"uri":"0/content.b3dm"},"children":[]}`,
	},
	{
		file:   "tileset.schema.json",
		class:  ClassTileset,
		sample: `{"asset":{"version":"1.0"},"geometricError":1000,` +
			`"root":{"boundingVolume":{"box":[0,0,0,1,0,0,0,1,0,0,0,1]},"geometricError":1000,"refine":"REPLACE"}}`,
	},
}

var hierarchySchemas = []schemaWithSample{
	{
		file:   "3DTILES_batch_table_hierarchy.json",
		class:  ClassBatchTableHierarchy,
		sample: `{"classes":[{"name":"Building","length":1,"instances":{"id":["b1"]}},` +
			`{"name":"BuildingPart","length":2,"instances":{"id":["p1","p2"]}}],` +
			`"instancesLength":3,"classIds":[0,1,1],"parentCounts":[0,1,1],"parentIds":[0,0]}`,
	},
}

var temporalSchemas = []schemaWithSample{
	{
		file:   "3DTILES_temporal.transaction.schema.json",
		class:  ClassTemporalTransaction,
		sample: `{"id":"t1","startDate":"2009-01-01T00:00:00Z","endDate":"2012-01-01T00:00:00Z",` +
			`"type":"modification","source":["b1"],"destination":["b1-2012"]}`,
	},
	{
		file:   "3DTILES_temporal.tileset.schema.json",
		class:  ClassTemporalTileset,
		sample: `{"startDate":"2009-01-01T00:00:00Z","endDate":"2015-01-01T00:00:00Z","transactions":[]}`,
	},
	{
		file:   "3DTILES_temporal.batchTable.schema.json",
		class:  ClassTemporalBatchTable,
		sample: `{"startDates":["2009-01-01T00:00:00Z"],"endDates":["2015-01-01T00:00:00Z"],"featureIds":["b1"]}`,
	},
}

// RegisterDefaults registers and self checks the core tileset, batch table hierarchy and temporal schema families
func (r *Registry) RegisterDefaults() error {
	for _, family := range [][]schemaWithSample{coreSchemas, hierarchySchemas, temporalSchemas} {
		for _, s := range family {
			if err := r.RegisterWithSample(s.file, s.class, []byte(s.sample)); err != nil {
				return err
			}
		}
	}
	return nil
}

// NewDefaultRegistry creates a registry over baseDir holding the default schemas, sealed and ready for use
func NewDefaultRegistry(baseDir string) (*Registry, error) {
	r, err := NewRegistry(baseDir, DefaultSharedClasses...)
	if err != nil {
		return nil, err
	}
	if err := r.RegisterDefaults(); err != nil {
		return nil, err
	}
	r.Seal()
	return r, nil
}
