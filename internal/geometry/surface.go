package geometry

import (
	"errors"
	"math"
)

var (
	// ErrDegenerateSurface marks a ring that encloses no area. Such rings are dropped without consequences.
	ErrDegenerateSurface = errors.New("degenerate surface")
	// ErrInvalidSurface marks a ring that cannot be repaired: non finite, self intersecting or not triangulable.
	ErrInvalidSurface = errors.New("invalid surface")
)

// relative tolerance used when comparing vertices and areas of a single ring
const ringEpsilon = 1e-12

// Surface is a closed planar polygon ring. The closing vertex may or may not repeat the first one.
type Surface struct {
	Ring []Coordinate
}

func NewSurface(ring []Coordinate) *Surface {
	return &Surface{Ring: ring}
}

// Translate returns a copy of the surface shifted by offset
func (s *Surface) Translate(offset Coordinate) *Surface {
	ring := make([]Coordinate, len(s.Ring))
	for i, c := range s.Ring {
		ring[i] = c.Add(offset)
	}
	return &Surface{Ring: ring}
}

func (s *Surface) BoundingBox() *BoundingBox {
	return NewBoundingBoxFromCoordinates(s.Ring)
}

// Triangulate cleans the ring and splits it into triangles using ear clipping on the plane of the polygon.
// Returns the vertices of the triangles (three per triangle, same winding as the ring) and the unit normal.
func (s *Surface) Triangulate() ([]Coordinate, Coordinate, error) {
	ring, err := cleanRing(s.Ring)
	if err != nil {
		return nil, Coordinate{}, err
	}

	scale := NewBoundingBoxFromCoordinates(ring).Diagonal()
	if scale == 0 {
		return nil, Coordinate{}, ErrDegenerateSurface
	}

	eps := ringEpsilon * scale * scale
	normal := newellNormal(ring)
	if normal.Length() <= eps {
		// a ring folded onto itself has no area: only a proper crossing makes it invalid
		if selfIntersects(projectOnDominantPlane(ring, thinnestAxis(ring)), eps, true) {
			return nil, Coordinate{}, ErrInvalidSurface
		}
		return nil, Coordinate{}, ErrDegenerateSurface
	}

	pts := projectOnDominantPlane(ring, normal)

	reversed := false
	if signedArea(pts) < 0 {
		reversed = true
		for i, j := 0, len(pts)-1; i < j; i, j = i+1, j-1 {
			pts[i], pts[j] = pts[j], pts[i]
			ring[i], ring[j] = ring[j], ring[i]
		}
	}

	if selfIntersects(pts, eps, false) {
		return nil, Coordinate{}, ErrInvalidSurface
	}

	triangles, err := earClip(pts, eps)
	if err != nil {
		return nil, Coordinate{}, err
	}
	if len(triangles) == 0 {
		return nil, Coordinate{}, ErrDegenerateSurface
	}

	out := make([]Coordinate, 0, len(triangles)*3)
	for _, t := range triangles {
		if reversed {
			out = append(out, ring[t[2]], ring[t[1]], ring[t[0]])
		} else {
			out = append(out, ring[t[0]], ring[t[1]], ring[t[2]])
		}
	}

	return out, normal.Normalize(), nil
}

// removes the closing vertex and consecutive duplicates
func cleanRing(ring []Coordinate) ([]Coordinate, error) {
	cleaned := make([]Coordinate, 0, len(ring))
	for _, c := range ring {
		if !c.IsFinite() {
			return nil, ErrInvalidSurface
		}
		if len(cleaned) > 0 && cleaned[len(cleaned)-1].AlmostEqual(c, ringEpsilon) {
			continue
		}
		cleaned = append(cleaned, c)
	}
	for len(cleaned) > 1 && cleaned[0].AlmostEqual(cleaned[len(cleaned)-1], ringEpsilon) {
		cleaned = cleaned[:len(cleaned)-1]
	}
	if len(cleaned) < 3 {
		return nil, ErrDegenerateSurface
	}
	return cleaned, nil
}

// Newell's method: robust normal for non strictly planar rings. Its length is twice the ring area.
func newellNormal(ring []Coordinate) Coordinate {
	var n Coordinate
	origin := ring[0]
	for i := range ring {
		cur := ring[i].Sub(origin)
		next := ring[(i+1)%len(ring)].Sub(origin)
		n.X += (cur.Y - next.Y) * (cur.Z + next.Z)
		n.Y += (cur.Z - next.Z) * (cur.X + next.X)
		n.Z += (cur.X - next.X) * (cur.Y + next.Y)
	}
	return n
}

// unit vector along the axis where the ring has the smallest extent
func thinnestAxis(ring []Coordinate) Coordinate {
	box := NewBoundingBoxFromCoordinates(ring)
	w, l, h := box.Xmax-box.Xmin, box.Ymax-box.Ymin, box.Zmax-box.Zmin
	switch {
	case h <= w && h <= l:
		return Coordinate{Z: 1}
	case w <= l:
		return Coordinate{X: 1}
	default:
		return Coordinate{Y: 1}
	}
}

type point2 struct {
	u, v float64
}

// drops the axis along which the normal is the largest
func projectOnDominantPlane(ring []Coordinate, normal Coordinate) []point2 {
	ax, ay, az := math.Abs(normal.X), math.Abs(normal.Y), math.Abs(normal.Z)
	origin := ring[0]
	pts := make([]point2, len(ring))
	for i, c := range ring {
		d := c.Sub(origin)
		switch {
		case az >= ax && az >= ay:
			pts[i] = point2{d.X, d.Y}
		case ax >= ay:
			pts[i] = point2{d.Y, d.Z}
		default:
			pts[i] = point2{d.Z, d.X}
		}
	}
	return pts
}

func signedArea(pts []point2) float64 {
	var a float64
	for i := range pts {
		j := (i + 1) % len(pts)
		a += pts[i].u*pts[j].v - pts[j].u*pts[i].v
	}
	return a / 2
}

func cross2(o, a, b point2) float64 {
	return (a.u-o.u)*(b.v-o.v) - (a.v-o.v)*(b.u-o.u)
}

func onSegment(p, a, b point2, eps float64) bool {
	return math.Min(a.u, b.u)-eps <= p.u && p.u <= math.Max(a.u, b.u)+eps &&
		math.Min(a.v, b.v)-eps <= p.v && p.v <= math.Max(a.v, b.v)+eps
}

func segmentsIntersect(p1, p2, q1, q2 point2, eps float64, properOnly bool) bool {
	d1 := cross2(q1, q2, p1)
	d2 := cross2(q1, q2, p2)
	d3 := cross2(p1, p2, q1)
	d4 := cross2(p1, p2, q2)

	if ((d1 > eps && d2 < -eps) || (d1 < -eps && d2 > eps)) &&
		((d3 > eps && d4 < -eps) || (d3 < -eps && d4 > eps)) {
		return true
	}
	if properOnly {
		return false
	}

	seps := math.Sqrt(eps)
	if math.Abs(d1) <= eps && onSegment(p1, q1, q2, seps) {
		return true
	}
	if math.Abs(d2) <= eps && onSegment(p2, q1, q2, seps) {
		return true
	}
	if math.Abs(d3) <= eps && onSegment(q1, p1, p2, seps) {
		return true
	}
	if math.Abs(d4) <= eps && onSegment(q2, p1, p2, seps) {
		return true
	}
	return false
}

// checks every pair of non adjacent edges. With properOnly, touching and overlapping edges are ignored.
func selfIntersects(pts []point2, eps float64, properOnly bool) bool {
	n := len(pts)
	for i := 0; i < n; i++ {
		a1, a2 := pts[i], pts[(i+1)%n]
		for j := i + 1; j < n; j++ {
			if j == i+1 || (i == 0 && j == n-1) {
				continue
			}
			b1, b2 := pts[j], pts[(j+1)%n]
			if segmentsIntersect(a1, a2, b1, b2, eps, properOnly) {
				return true
			}
		}
	}
	return false
}

func pointInTriangle(p, a, b, c point2, eps float64) bool {
	return cross2(a, b, p) >= -eps && cross2(b, c, p) >= -eps && cross2(c, a, p) >= -eps
}

// ear clipping on a counter clockwise simple polygon. Collinear vertices are removed without emitting a triangle.
func earClip(pts []point2, eps float64) ([][3]int, error) {
	remaining := make([]int, len(pts))
	for i := range remaining {
		remaining[i] = i
	}

	triangles := make([][3]int, 0, len(pts)-2)
	for len(remaining) > 3 {
		clipped := false
		n := len(remaining)
		for i := 0; i < n; i++ {
			ia, ib, ic := remaining[(i+n-1)%n], remaining[i], remaining[(i+1)%n]
			a, b, c := pts[ia], pts[ib], pts[ic]
			turn := cross2(a, b, c)

			if math.Abs(turn) <= eps {
				remaining = append(remaining[:i], remaining[i+1:]...)
				clipped = true
				break
			}
			if turn < 0 {
				continue
			}

			isEar := true
			for _, k := range remaining {
				if k == ia || k == ib || k == ic {
					continue
				}
				if pointInTriangle(pts[k], a, b, c, eps) {
					isEar = false
					break
				}
			}
			if !isEar {
				continue
			}

			triangles = append(triangles, [3]int{ia, ib, ic})
			remaining = append(remaining[:i], remaining[i+1:]...)
			clipped = true
			break
		}
		if !clipped {
			return nil, ErrInvalidSurface
		}
	}

	if cross2(pts[remaining[0]], pts[remaining[1]], pts[remaining[2]]) > eps {
		triangles = append(triangles, [3]int{remaining[0], remaining[1], remaining[2]})
	}

	return triangles, nil
}
