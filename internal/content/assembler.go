package content

import (
	"errors"
	"fmt"

	"github.com/ecopia-map/city_tiler/internal/data"
	"github.com/ecopia-map/city_tiler/internal/geometry"
	"github.com/ecopia-map/city_tiler/internal/metrics"
	"github.com/golang/glog"
	"github.com/segmentio/encoding/json"
)

var (
	// ErrEmptyContent is returned when no feature of a group survives assembly. The tile must be omitted.
	ErrEmptyContent = errors.New("no valid feature left in the tile content")
	// ErrFrameMismatch is returned when the mesh exceeds the local bounding boxes of the features it was built from
	ErrFrameMismatch = errors.New("mesh not enclosed by the local bounding boxes of its features")
)

// relative tolerance of the frame check, scaled by the size of the tile
const frameTolerance = 1e-6

const (
	ReasonInvalidSurface    = "invalid_surface"
	ReasonNoSurface         = "no_surface"
	ReasonUnresolvedParent  = "unresolved_parent"
	ReasonHierarchyRejected = "hierarchy_rejected"
)

// Diagnostic records a non fatal problem found while assembling a tile
type Diagnostic struct {
	FeatureID string
	Reason    string
	Err       error
}

func (d Diagnostic) String() string {
	if d.FeatureID == "" {
		return fmt.Sprintf("%s: %v", d.Reason, d.Err)
	}
	return fmt.Sprintf("feature %s, %s: %v", d.FeatureID, d.Reason, d.Err)
}

// Validator checks json payloads against the schema of a logical class
type Validator interface {
	Validate(class string, payload []byte) error
}

// TileContent is the payload of a tile: its triangles and its per feature attributes
type TileContent struct {
	Mesh       *Mesh
	BatchTable *BatchTable
	Hierarchy  *HierarchyRecord
	FeatureIDs []string

	// union of the local bounding boxes of the kept features
	BoundingBox *geometry.BoundingBox

	Diagnostics []Diagnostic
}

func (c *TileContent) FeaturesLength() int {
	return len(c.FeatureIDs)
}

type AssemblerOptions struct {
	WithHierarchy bool
	// schema class hierarchies are validated against, DefaultHierarchyClass when empty
	HierarchyClass string
	Classifier     Classifier
}

// Assembler turns recentered feature groups into tile contents. It holds no per tile state and can be
// shared among goroutines as long as its validator can.
type Assembler struct {
	validator Validator
	options   AssemblerOptions
}

func NewAssembler(validator Validator, options AssemblerOptions) *Assembler {
	if options.HierarchyClass == "" {
		options.HierarchyClass = DefaultHierarchyClass
	}
	if options.Classifier == nil {
		options.Classifier = ClassOf
	}
	return &Assembler{
		validator: validator,
		options:   options,
	}
}

// Assemble builds the content of a group whose features are expressed in the tile local frame
func (a *Assembler) Assemble(group *data.FeatureGroup) (*TileContent, error) {
	content := &TileContent{
		Mesh:        NewMesh(),
		BatchTable:  NewBatchTable(),
		FeatureIDs:  make([]string, 0, group.Len()),
		BoundingBox: geometry.NewEmptyBoundingBox(),
		Diagnostics: make([]Diagnostic, 0),
	}

	kept := make([]*data.Feature, 0, group.Len())
	for i := 0; i < group.Len(); i++ {
		f := group.Feature(i)
		surfaces, err := triangulateFeature(f)
		if err != nil {
			reason := ReasonInvalidSurface
			if errors.Is(err, errNoSurface) {
				reason = ReasonNoSurface
			}
			glog.Warningf("dropping feature %s: %v", f.ID, err)
			metrics.InstrumentFeatureDropped(reason)
			content.Diagnostics = append(content.Diagnostics, Diagnostic{FeatureID: f.ID, Reason: reason, Err: err})
			continue
		}

		batchID := len(kept)
		for _, s := range surfaces {
			content.Mesh.addTriangles(s.vertices, s.normal, batchID)
		}
		content.BatchTable.AddRow(f.ID, f.Attributes)
		content.FeatureIDs = append(content.FeatureIDs, f.ID)
		content.BoundingBox.Add(f.BoundingBox)
		kept = append(kept, f)
	}

	if len(kept) == 0 {
		return nil, ErrEmptyContent
	}

	tolerance := frameTolerance * (1 + content.BoundingBox.Diagonal())
	if !content.BoundingBox.Contains(content.Mesh.Bounds, tolerance) {
		return nil, fmt.Errorf("%w: mesh %v, features %v", ErrFrameMismatch, content.Mesh.Bounds.GetAsArray(), content.BoundingBox.GetAsArray())
	}

	if a.options.WithHierarchy {
		a.attachHierarchy(content, kept)
	}

	return content, nil
}

// attachHierarchy builds and validates the hierarchy of the kept features. A rejected hierarchy is not attached.
func (a *Assembler) attachHierarchy(content *TileContent, kept []*data.Feature) {
	record, diagnostics := BuildHierarchy(kept, a.options.Classifier)
	record.LogicalClass = a.options.HierarchyClass
	for _, d := range diagnostics {
		glog.Warningf("hierarchy: %s", d)
	}
	content.Diagnostics = append(content.Diagnostics, diagnostics...)

	if err := a.validateHierarchy(record); err != nil {
		glog.Warningf("batch table hierarchy not attached: %v", err)
		metrics.InstrumentHierarchyValidationError(record.LogicalClass)
		content.Diagnostics = append(content.Diagnostics, Diagnostic{Reason: ReasonHierarchyRejected, Err: err})
		return
	}
	content.Hierarchy = record
	content.BatchTable.SetExtension(HierarchyExtension, record)
}

func (a *Assembler) validateHierarchy(record *HierarchyRecord) error {
	if a.validator == nil {
		return errors.New("no schema validator available")
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return a.validator.Validate(record.LogicalClass, payload)
}

var errNoSurface = errors.New("feature has no valid surface")

type triangulatedSurface struct {
	vertices []geometry.Coordinate
	normal   geometry.Coordinate
}

// triangulateFeature triangulates every surface of the feature, pruning the degenerate ones.
// Fails if any surface is beyond repair or if nothing is left.
func triangulateFeature(f *data.Feature) ([]triangulatedSurface, error) {
	out := make([]triangulatedSurface, 0, len(f.Surfaces))
	for i, s := range f.Surfaces {
		vertices, normal, err := s.Triangulate()
		if errors.Is(err, geometry.ErrDegenerateSurface) {
			glog.V(2).Infof("feature %s: pruning degenerate surface %d", f.ID, i)
			metrics.InstrumentSurfacePruned()
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("surface %d: %w", i, err)
		}
		out = append(out, triangulatedSurface{vertices: vertices, normal: normal})
	}
	if len(out) == 0 {
		return nil, errNoSurface
	}
	return out, nil
}
