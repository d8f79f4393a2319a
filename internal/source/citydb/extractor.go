package citydb

import (
	"context"
	"errors"
	"fmt"

	"github.com/ecopia-map/city_tiler/internal/data"
	"github.com/ecopia-map/city_tiler/internal/geometry"
	"github.com/ecopia-map/city_tiler/internal/metrics"
	"github.com/golang/glog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const Source = "citydb"

// ErrNoDatabase is returned when the options name no database
var ErrNoDatabase = errors.New("no database name given")

// Options holds the connection parameters and the extraction mode
type Options struct {
	Host          string  `yaml:"host"`
	Port          string  `yaml:"port"`
	User          string  `yaml:"user"`
	Password      string  `yaml:"password"`
	Database      string  `yaml:"database"`
	WithHierarchy bool    `yaml:"-"`
	Queries       Queries `yaml:"queries"`
}

func (o Options) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC", o.Host, o.User, o.Password, o.Database, o.Port)
}

// Provenance describes the database the features come from, without credentials
func (o Options) Provenance() string {
	return fmt.Sprintf("3DCityDB %s@%s:%s", o.Database, o.Host, o.Port)
}

// Validate checks the connection parameters
func (o Options) Validate() error {
	if o.Database == "" {
		return ErrNoDatabase
	}
	if o.Host == "" || o.Port == "" {
		return fmt.Errorf("incomplete database address %q:%q", o.Host, o.Port)
	}
	return nil
}

type vertexRow struct {
	FeatureID string  `gorm:"column:feature_id"`
	Class     string  `gorm:"column:class"`
	ParentID  *string `gorm:"column:parent_id"`
	SurfaceID int64   `gorm:"column:surface_id"`
	X         float64 `gorm:"column:x"`
	Y         float64 `gorm:"column:y"`
	Z         float64 `gorm:"column:z"`
}

type attributeRow struct {
	FeatureID   string   `gorm:"column:feature_id"`
	Name        string   `gorm:"column:name"`
	TextValue   *string  `gorm:"column:text_value"`
	NumberValue *float64 `gorm:"column:number_value"`
}

// Extractor reads buildings and their surfaces from a 3DCityDB database
type Extractor struct {
	db      *gorm.DB
	options Options
}

// Open connects to the PostgreSQL database described by the options
func Open(options Options) (*Extractor, error) {
	db, err := gorm.Open(postgres.Open(options.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("cannot connect to %s: %w", options.Provenance(), err)
	}
	return NewExtractor(db, options), nil
}

// NewExtractor wraps an existing connection. Empty queries are replaced by the defaults.
func NewExtractor(db *gorm.DB, options Options) *Extractor {
	defaults := DefaultQueries()
	if options.Queries.Surfaces == "" {
		options.Queries.Surfaces = defaults.Surfaces
	}
	if options.Queries.HierarchySurfaces == "" {
		options.Queries.HierarchySurfaces = defaults.HierarchySurfaces
	}
	if options.Queries.Attributes == "" {
		options.Queries.Attributes = defaults.Attributes
	}
	return &Extractor{
		db:      db,
		options: options,
	}
}

// Extract returns the features in the order the surface query lists them
func (e *Extractor) Extract(ctx context.Context) ([]*data.Feature, error) {
	query := e.options.Queries.Surfaces
	if e.options.WithHierarchy {
		query = e.options.Queries.HierarchySurfaces
	}

	var vertices []vertexRow
	if err := e.db.WithContext(ctx).Raw(query).Scan(&vertices).Error; err != nil {
		return nil, fmt.Errorf("failed to read surfaces: %w", err)
	}
	features := assembleFeatures(vertices, e.options.WithHierarchy)

	var attributes []attributeRow
	if err := e.db.WithContext(ctx).Raw(e.options.Queries.Attributes).Scan(&attributes).Error; err != nil {
		return nil, fmt.Errorf("failed to read attributes: %w", err)
	}
	applyAttributes(features, attributes)

	glog.Infof("read %d features from %s", len(features), e.options.Provenance())
	metrics.InstrumentFeaturesExtracted(Source, len(features))
	return features, nil
}

func (e *Extractor) Close() error {
	sqlDB, err := e.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

type featureBuilder struct {
	feature  *data.Feature
	surfaces map[int64]int
	rings    [][]geometry.Coordinate
}

// assembleFeatures groups the vertex rows by feature then by surface, keeping the order of first appearance
func assembleFeatures(rows []vertexRow, withParents bool) []*data.Feature {
	builders := make([]*featureBuilder, 0)
	index := make(map[string]*featureBuilder)
	for _, row := range rows {
		b, ok := index[row.FeatureID]
		if !ok {
			b = &featureBuilder{
				feature:  data.NewFeature(row.FeatureID, row.Class, nil, geometry.NewEmptyBoundingBox(), nil),
				surfaces: make(map[int64]int),
			}
			if withParents && row.ParentID != nil && *row.ParentID != "" {
				b.feature.ParentIDs = []string{*row.ParentID}
			}
			index[row.FeatureID] = b
			builders = append(builders, b)
		}
		s, ok := b.surfaces[row.SurfaceID]
		if !ok {
			s = len(b.rings)
			b.surfaces[row.SurfaceID] = s
			b.rings = append(b.rings, make([]geometry.Coordinate, 0))
		}
		b.rings[s] = append(b.rings[s], geometry.Coordinate{X: row.X, Y: row.Y, Z: row.Z})
	}

	features := make([]*data.Feature, len(builders))
	for i, b := range builders {
		surfaces := make([]*geometry.Surface, len(b.rings))
		for j, ring := range b.rings {
			surfaces[j] = geometry.NewSurface(ring)
			b.feature.BoundingBox.Add(surfaces[j].BoundingBox())
		}
		b.feature.Surfaces = surfaces
		features[i] = b.feature
	}
	return features
}

// applyAttributes sets the attributes of the known features. A number wins over a text value.
func applyAttributes(features []*data.Feature, rows []attributeRow) {
	index := make(map[string]*data.Feature, len(features))
	for _, f := range features {
		index[f.ID] = f
	}
	for _, row := range rows {
		f, ok := index[row.FeatureID]
		if !ok {
			continue
		}
		switch {
		case row.NumberValue != nil:
			f.Attributes.Set(row.Name, data.NumberValue(*row.NumberValue))
		case row.TextValue != nil:
			f.Attributes.Set(row.Name, data.TextValue(*row.TextValue))
		}
	}
}
