package content

import (
	"fmt"

	"github.com/ecopia-map/city_tiler/internal/data"
)

const (
	// HierarchyExtension is the batch table extension carrying the hierarchy
	HierarchyExtension = "3DTILES_batch_table_hierarchy"
	// DefaultHierarchyClass is the schema class hierarchies are validated against
	DefaultHierarchyClass = "BatchTableHierarchy"
	// class given to features that don't declare one
	defaultFeatureClass = "Feature"
)

// Classifier returns the hierarchy class of a feature
type Classifier func(f *data.Feature) string

// ClassOf classifies features by their declared class
func ClassOf(f *data.Feature) string {
	if f.Class == "" {
		return defaultFeatureClass
	}
	return f.Class
}

type HierarchyClass struct {
	Name      string   `json:"name"`
	Length    int      `json:"length"`
	Instances *columns `json:"instances"`
}

// HierarchyRecord is the content of the 3DTILES_batch_table_hierarchy extension. Instance i is the feature
// with batch id i, parents are expressed as instance indexes of the same record.
type HierarchyRecord struct {
	Classes         []*HierarchyClass `json:"classes"`
	InstancesLength int               `json:"instancesLength"`
	ClassIDs        []int             `json:"classIds"`
	ParentCounts    []int             `json:"parentCounts"`
	ParentIDs       []int             `json:"parentIds"`

	// schema class used to validate the record
	LogicalClass string `json:"-"`
}

// BuildHierarchy builds the hierarchy of the given features, in order. Parents that are not part of the
// features are skipped and reported as diagnostics.
func BuildHierarchy(features []*data.Feature, classifier Classifier) (*HierarchyRecord, []Diagnostic) {
	if classifier == nil {
		classifier = ClassOf
	}

	record := &HierarchyRecord{
		Classes:         make([]*HierarchyClass, 0),
		InstancesLength: len(features),
		ClassIDs:        make([]int, len(features)),
		ParentCounts:    make([]int, len(features)),
		ParentIDs:       make([]int, 0),
		LogicalClass:    DefaultHierarchyClass,
	}
	diagnostics := make([]Diagnostic, 0)

	instances := make(map[string]int, len(features))
	for i, f := range features {
		if _, ok := instances[f.ID]; !ok {
			instances[f.ID] = i
		}
	}

	classIndex := make(map[string]int)
	for i, f := range features {
		name := classifier(f)
		ci, ok := classIndex[name]
		if !ok {
			ci = len(record.Classes)
			classIndex[name] = ci
			record.Classes = append(record.Classes, &HierarchyClass{
				Name:      name,
				Instances: newColumns(),
			})
		}
		class := record.Classes[ci]
		class.Instances.addRow(f.ID, f.Attributes)
		class.Length++
		record.ClassIDs[i] = ci

		for _, parentID := range f.ParentIDs {
			p, ok := instances[parentID]
			if !ok || p == i {
				diagnostics = append(diagnostics, Diagnostic{
					FeatureID: f.ID,
					Reason:    ReasonUnresolvedParent,
					Err:       fmt.Errorf("parent %s is not part of the tile", parentID),
				})
				continue
			}
			record.ParentIDs = append(record.ParentIDs, p)
			record.ParentCounts[i]++
		}
	}

	return record, diagnostics
}

// ParentsOf returns the instance indexes of the parents of instance i
func (h *HierarchyRecord) ParentsOf(i int) []int {
	start := 0
	for j := 0; j < i; j++ {
		start += h.ParentCounts[j]
	}
	return h.ParentIDs[start : start+h.ParentCounts[i]]
}
