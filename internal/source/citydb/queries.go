package citydb

// Queries holds the SQL statements run against the database. Every statement may be replaced, e.g. to target
// another LoD or schema. Surface queries return one row per ring vertex with the columns feature_id, class,
// parent_id, surface_id, x, y, z, ordered along each ring. Attribute queries return feature_id, name,
// text_value and number_value.
type Queries struct {
	Surfaces          string `yaml:"surfaces"`
	HierarchySurfaces string `yaml:"hierarchy_surfaces"`
	Attributes        string `yaml:"attributes"`
}

// DefaultQueries reads the LoD2 thematic surfaces of a 3DCityDB v4 schema. Without hierarchy the surfaces of the
// building parts are merged into their root building.
func DefaultQueries() Queries {
	return Queries{
		Surfaces:          buildingSurfaces,
		HierarchySurfaces: buildingPartSurfaces,
		Attributes:        genericAttributes,
	}
}

const buildingSurfaces = `
SELECT co.gmlid AS feature_id,
       'Building' AS class,
       NULL AS parent_id,
       sg.id AS surface_id,
       dp.path[1] AS position,
       ST_X(dp.geom) AS x,
       ST_Y(dp.geom) AS y,
       ST_Z(dp.geom) AS z
FROM building b
JOIN cityobject co ON co.id = b.building_root_id
JOIN thematic_surface ts ON ts.building_id = b.id
JOIN surface_geometry sg ON sg.root_id = ts.lod2_multi_surface_id AND sg.geometry IS NOT NULL
CROSS JOIN LATERAL ST_DumpPoints(ST_ExteriorRing(sg.geometry)) AS dp
ORDER BY co.gmlid, sg.id, position`

const buildingPartSurfaces = `
SELECT co.gmlid AS feature_id,
       CASE WHEN b.id = b.building_root_id THEN 'Building' ELSE 'BuildingPart' END AS class,
       parent.gmlid AS parent_id,
       sg.id AS surface_id,
       dp.path[1] AS position,
       ST_X(dp.geom) AS x,
       ST_Y(dp.geom) AS y,
       ST_Z(dp.geom) AS z
FROM building b
JOIN cityobject co ON co.id = b.id
LEFT JOIN cityobject parent ON parent.id = b.building_parent_id
JOIN thematic_surface ts ON ts.building_id = b.id
JOIN surface_geometry sg ON sg.root_id = ts.lod2_multi_surface_id AND sg.geometry IS NOT NULL
CROSS JOIN LATERAL ST_DumpPoints(ST_ExteriorRing(sg.geometry)) AS dp
ORDER BY co.gmlid, sg.id, position`

const genericAttributes = `
SELECT co.gmlid AS feature_id,
       ga.attrname AS name,
       ga.strval AS text_value,
       COALESCE(ga.realval, ga.intval) AS number_value
FROM cityobject_genericattrib ga
JOIN cityobject co ON co.id = ga.cityobject_id
JOIN building b ON b.id = co.id
ORDER BY co.gmlid, ga.id`
