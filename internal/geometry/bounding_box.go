package geometry

import "math"

// Axis aligned bounding box. Mid values are kept in sync with the extremes by every constructor and mutator.
type BoundingBox struct {
	Xmin float64
	Xmax float64
	Ymin float64
	Ymax float64
	Zmin float64
	Zmax float64
	Xmid float64
	Ymid float64
	Zmid float64
}

// Builds a new BoundingBox from its extremes
func NewBoundingBox(minX, maxX, minY, maxY, minZ, maxZ float64) *BoundingBox {
	box := &BoundingBox{
		Xmin: minX,
		Xmax: maxX,
		Ymin: minY,
		Ymax: maxY,
		Zmin: minZ,
		Zmax: maxZ,
	}
	box.updateMids()
	return box
}

// Builds an empty BoundingBox, i.e. the neutral element of Union
func NewEmptyBoundingBox() *BoundingBox {
	return NewBoundingBox(
		math.Inf(1), math.Inf(-1),
		math.Inf(1), math.Inf(-1),
		math.Inf(1), math.Inf(-1),
	)
}

// Builds the smallest BoundingBox enclosing all the given coordinates
func NewBoundingBoxFromCoordinates(coords []Coordinate) *BoundingBox {
	box := NewEmptyBoundingBox()
	for _, c := range coords {
		box.ExtendToCoordinate(c)
	}
	return box
}

func (b *BoundingBox) IsEmpty() bool {
	return b.Xmin > b.Xmax || b.Ymin > b.Ymax || b.Zmin > b.Zmax
}

// IsFinite is false for empty boxes and for boxes with a NaN or infinite extreme
func (b *BoundingBox) IsFinite() bool {
	return !b.IsEmpty() &&
		isFinite(b.Xmin) && isFinite(b.Xmax) &&
		isFinite(b.Ymin) && isFinite(b.Ymax) &&
		isFinite(b.Zmin) && isFinite(b.Zmax)
}

func (b *BoundingBox) Copy() *BoundingBox {
	c := *b
	return &c
}

// Grows the box in place so that it contains the given coordinate
func (b *BoundingBox) ExtendToCoordinate(c Coordinate) {
	b.Xmin = math.Min(b.Xmin, c.X)
	b.Xmax = math.Max(b.Xmax, c.X)
	b.Ymin = math.Min(b.Ymin, c.Y)
	b.Ymax = math.Max(b.Ymax, c.Y)
	b.Zmin = math.Min(b.Zmin, c.Z)
	b.Zmax = math.Max(b.Zmax, c.Z)
	b.updateMids()
}

// Add grows the box in place so that it also encloses other
func (b *BoundingBox) Add(other *BoundingBox) {
	if other == nil || other.IsEmpty() {
		return
	}
	b.Xmin = math.Min(b.Xmin, other.Xmin)
	b.Xmax = math.Max(b.Xmax, other.Xmax)
	b.Ymin = math.Min(b.Ymin, other.Ymin)
	b.Ymax = math.Max(b.Ymax, other.Ymax)
	b.Zmin = math.Min(b.Zmin, other.Zmin)
	b.Zmax = math.Max(b.Zmax, other.Zmax)
	b.updateMids()
}

// Union returns a new box enclosing both boxes
func (b *BoundingBox) Union(other *BoundingBox) *BoundingBox {
	u := b.Copy()
	u.Add(other)
	return u
}

// Translate returns a new box shifted by the given offset
func (b *BoundingBox) Translate(offset Coordinate) *BoundingBox {
	return NewBoundingBox(
		b.Xmin+offset.X, b.Xmax+offset.X,
		b.Ymin+offset.Y, b.Ymax+offset.Y,
		b.Zmin+offset.Z, b.Zmax+offset.Z,
	)
}

// Contains reports whether other lies inside b, allowing each face to be off by tolerance
func (b *BoundingBox) Contains(other *BoundingBox, tolerance float64) bool {
	if other.IsEmpty() {
		return true
	}
	return other.Xmin >= b.Xmin-tolerance && other.Xmax <= b.Xmax+tolerance &&
		other.Ymin >= b.Ymin-tolerance && other.Ymax <= b.Ymax+tolerance &&
		other.Zmin >= b.Zmin-tolerance && other.Zmax <= b.Zmax+tolerance
}

func (b *BoundingBox) ContainsCoordinate(c Coordinate, tolerance float64) bool {
	return c.X >= b.Xmin-tolerance && c.X <= b.Xmax+tolerance &&
		c.Y >= b.Ymin-tolerance && c.Y <= b.Ymax+tolerance &&
		c.Z >= b.Zmin-tolerance && c.Z <= b.Zmax+tolerance
}

func (b *BoundingBox) Center() Coordinate {
	return Coordinate{X: b.Xmid, Y: b.Ymid, Z: b.Zmid}
}

// Equals compares the extremes of two boxes with a relative tolerance
func (b *BoundingBox) Equals(other *BoundingBox, relTol float64) bool {
	return almostEqual(b.Xmin, other.Xmin, relTol) && almostEqual(b.Xmax, other.Xmax, relTol) &&
		almostEqual(b.Ymin, other.Ymin, relTol) && almostEqual(b.Ymax, other.Ymax, relTol) &&
		almostEqual(b.Zmin, other.Zmin, relTol) && almostEqual(b.Zmax, other.Zmax, relTol)
}

// Returns the box as a 3D Tiles "box" bounding volume: center followed by the x, y and z half axes
func (b *BoundingBox) GetAsArray() []float64 {
	if b.IsEmpty() {
		return []float64{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}
	}
	hx := (b.Xmax - b.Xmin) / 2
	hy := (b.Ymax - b.Ymin) / 2
	hz := (b.Zmax - b.Zmin) / 2
	return []float64{
		b.Xmid, b.Ymid, b.Zmid,
		hx, 0, 0,
		0, hy, 0,
		0, 0, hz,
	}
}

// Length of the box diagonal
func (b *BoundingBox) Diagonal() float64 {
	if b.IsEmpty() {
		return 0
	}
	w := b.Xmax - b.Xmin
	l := b.Ymax - b.Ymin
	h := b.Zmax - b.Zmin
	return math.Sqrt(w*w + l*l + h*h)
}

func (b *BoundingBox) updateMids() {
	b.Xmid = (b.Xmin + b.Xmax) / 2
	b.Ymid = (b.Ymin + b.Ymax) / 2
	b.Zmid = (b.Zmin + b.Zmax) / 2
}
