package content

import (
	"math"

	"github.com/ecopia-map/city_tiler/internal/geometry"
)

// Mesh holds the triangles of a tile as flat, non indexed vertex buffers ready to be written as glTF accessors.
// Buffers are expressed in the y-up convention, Bounds keeps the z-up extent of the vertices before the rotation.
type Mesh struct {
	Positions []float32
	Normals   []float32
	BatchIDs  []float32

	// component wise extent of Positions, as float32 values
	Min [3]float64
	Max [3]float64

	Bounds *geometry.BoundingBox
}

func NewMesh() *Mesh {
	m := &Mesh{
		Positions: make([]float32, 0),
		Normals:   make([]float32, 0),
		BatchIDs:  make([]float32, 0),
		Bounds:    geometry.NewEmptyBoundingBox(),
	}
	for i := 0; i < 3; i++ {
		m.Min[i] = math.Inf(1)
		m.Max[i] = math.Inf(-1)
	}
	return m
}

func (m *Mesh) VertexCount() int {
	return len(m.BatchIDs)
}

func (m *Mesh) TriangleCount() int {
	return m.VertexCount() / 3
}

// addTriangles appends z-up triangle vertices sharing the same flat normal and batch id
func (m *Mesh) addTriangles(vertices []geometry.Coordinate, normal geometry.Coordinate, batchID int) {
	n := normal.ToYUp()
	for _, v := range vertices {
		m.Bounds.ExtendToCoordinate(v)
		p := v.ToYUp()
		xyz := [3]float32{float32(p.X), float32(p.Y), float32(p.Z)}
		for i, c := range xyz {
			m.Min[i] = math.Min(m.Min[i], float64(c))
			m.Max[i] = math.Max(m.Max[i], float64(c))
		}
		m.Positions = append(m.Positions, xyz[0], xyz[1], xyz[2])
		m.Normals = append(m.Normals, float32(n.X), float32(n.Y), float32(n.Z))
		m.BatchIDs = append(m.BatchIDs, float32(batchID))
	}
}
