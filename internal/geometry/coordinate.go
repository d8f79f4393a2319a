package geometry

import "math"

// Coordinate is a 3D position or direction expressed in a cartesian reference system
type Coordinate struct {
	X float64
	Y float64
	Z float64
}

func (c Coordinate) Add(o Coordinate) Coordinate {
	return Coordinate{X: c.X + o.X, Y: c.Y + o.Y, Z: c.Z + o.Z}
}

func (c Coordinate) Sub(o Coordinate) Coordinate {
	return Coordinate{X: c.X - o.X, Y: c.Y - o.Y, Z: c.Z - o.Z}
}

func (c Coordinate) Scale(f float64) Coordinate {
	return Coordinate{X: c.X * f, Y: c.Y * f, Z: c.Z * f}
}

func (c Coordinate) Cross(o Coordinate) Coordinate {
	return Coordinate{
		X: c.Y*o.Z - c.Z*o.Y,
		Y: c.Z*o.X - c.X*o.Z,
		Z: c.X*o.Y - c.Y*o.X,
	}
}

func (c Coordinate) Length() float64 {
	return math.Sqrt(c.X*c.X + c.Y*c.Y + c.Z*c.Z)
}

// Normalize returns the unit vector with the same direction, or the zero vector if c has no length
func (c Coordinate) Normalize() Coordinate {
	l := c.Length()
	if l == 0 {
		return Coordinate{}
	}
	return c.Scale(1 / l)
}

func (c Coordinate) IsFinite() bool {
	return isFinite(c.X) && isFinite(c.Y) && isFinite(c.Z)
}

// ToYUp rotates a z-up coordinate into the y-up convention used by glTF meshes: (x, y, z) -> (x, z, -y)
func (c Coordinate) ToYUp() Coordinate {
	return Coordinate{X: c.X, Y: c.Z, Z: -c.Y}
}

// AlmostEqual compares two coordinates with a tolerance relative to their magnitude
func (c Coordinate) AlmostEqual(o Coordinate, relTol float64) bool {
	return almostEqual(c.X, o.X, relTol) && almostEqual(c.Y, o.Y, relTol) && almostEqual(c.Z, o.Z, relTol)
}

func almostEqual(a, b, relTol float64) bool {
	scale := math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
	return math.Abs(a-b) <= relTol*scale
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
