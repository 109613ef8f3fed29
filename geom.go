package lodrecon

import (
	"math"
	"sort"
)

// Point2 is a 2D vertex in the footprint's projected coordinate reference.
type Point2 struct {
	X, Y float64
}

// Point3 is a 3D point as read from a point-cloud source, carrying the
// per-point classification and the quality label of the source it came from.
type Point3 struct {
	X, Y, Z        float64
	Classification Classification
	SourceQuality  int
}

// AABB is an axis-aligned bounding box in 2D.
type AABB struct {
	MinX, MinY, MaxX, MaxY float64
}

// Empty reports whether the box has never been extended.
func (b AABB) Empty() bool {
	return b.MinX > b.MaxX || b.MinY > b.MaxY
}

// Width and Height of the box.
func (b AABB) Width() float64  { return b.MaxX - b.MinX }
func (b AABB) Height() float64 { return b.MaxY - b.MinY }

// Area of the box.
func (b AABB) Area() float64 { return b.Width() * b.Height() }

// Expand grows the box (in place semantics via return value) by margin metres
// on every side.
func (b AABB) Expand(margin float64) AABB {
	return AABB{
		MinX: b.MinX - margin,
		MinY: b.MinY - margin,
		MaxX: b.MaxX + margin,
		MaxY: b.MaxY + margin,
	}
}

// Intersects reports whether two boxes overlap, touching edges included.
func (b AABB) Intersects(o AABB) bool {
	return b.MinX <= o.MaxX && b.MaxX >= o.MinX && b.MinY <= o.MaxY && b.MaxY >= o.MinY
}

// Contains reports whether p lies within the closed box.
func (b AABB) Contains(p Point2) bool {
	return p.X >= b.MinX && p.X <= b.MaxX && p.Y >= b.MinY && p.Y <= b.MaxY
}

// Union returns the smallest box containing both b and o.
func (b AABB) Union(o AABB) AABB {
	if b.Empty() {
		return o
	}
	if o.Empty() {
		return b
	}
	return AABB{
		MinX: math.Min(b.MinX, o.MinX),
		MinY: math.Min(b.MinY, o.MinY),
		MaxX: math.Max(b.MaxX, o.MaxX),
		MaxY: math.Max(b.MaxY, o.MaxY),
	}
}

// EmptyAABB returns a box in the "nothing accumulated yet" state, suitable
// as the zero value for a running Union.
func EmptyAABB() AABB {
	return AABB{MinX: math.Inf(1), MinY: math.Inf(1), MaxX: math.Inf(-1), MaxY: math.Inf(-1)}
}

// BoundsOf computes the bounding box of a linear ring (outer ring only).
func BoundsOf(vertices []Point2) AABB {
	box := EmptyAABB()
	for _, v := range vertices {
		if v.X < box.MinX {
			box.MinX = v.X
		}
		if v.Y < box.MinY {
			box.MinY = v.Y
		}
		if v.X > box.MaxX {
			box.MaxX = v.X
		}
		if v.Y > box.MaxY {
			box.MaxY = v.Y
		}
	}
	return box
}

// LinearRing is an ordered sequence of 2D vertices with zero or more inner
// (hole) rings. The first and last vertex are not duplicated; closure is
// implicit, matching the convention of GeoPackage/WKT outer rings the
// FootprintReader collaborator (spec.md §6) is expected to hand us.
type LinearRing struct {
	Outer []Point2
	Holes [][]Point2
}

// Bounds returns the bounding box of the outer ring.
func (r LinearRing) Bounds() AABB {
	return BoundsOf(r.Outer)
}

// RingArea computes the (positive) area of one ring's vertices via the
// shoelace formula.
func RingArea(vertices []Point2) float64 {
	n := len(vertices)
	if n < 3 {
		return 0
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += vertices[i].X*vertices[j].Y - vertices[j].X*vertices[i].Y
	}
	return math.Abs(sum) / 2.0
}

// Area of the footprint: outer ring area minus the area of every hole.
func (r LinearRing) Area() float64 {
	area := RingArea(r.Outer)
	for _, h := range r.Holes {
		area -= RingArea(h)
	}
	return area
}

// Densify inserts extra vertices along every edge of the ring so that no
// segment is longer than maxSpacing. The no-data disc search does not use
// it; it measures exact point-to-edge distances instead.
func Densify(vertices []Point2, maxSpacing float64) []Point2 {
	if maxSpacing <= 0 || len(vertices) < 2 {
		return vertices
	}
	out := make([]Point2, 0, len(vertices)*2)
	n := len(vertices)
	for i := 0; i < n; i++ {
		a := vertices[i]
		b := vertices[(i+1)%n]
		out = append(out, a)
		d := math.Hypot(b.X-a.X, b.Y-a.Y)
		if d > maxSpacing {
			steps := int(math.Ceil(d / maxSpacing))
			for s := 1; s < steps; s++ {
				t := float64(s) / float64(steps)
				out = append(out, Point2{X: a.X + t*(b.X-a.X), Y: a.Y + t*(b.Y-a.Y)})
			}
		}
	}
	return out
}

// PointCollection is a sequence of 3D points; each Point3 carries its own
// classification and source-quality label (an array of structs, not
// parallel per-attribute slices).
type PointCollection struct {
	Points []Point3
}

// Len is a convenience accessor.
func (pc PointCollection) Len() int { return len(pc.Points) }

// Filter returns a new collection containing only points for which keep
// returns true.
func (pc PointCollection) Filter(keep func(Point3) bool) PointCollection {
	out := make([]Point3, 0, len(pc.Points))
	for _, p := range pc.Points {
		if keep(p) {
			out = append(out, p)
		}
	}
	return PointCollection{Points: out}
}

// ZValues extracts the Z coordinate of every point, used for percentile and
// median computations (spec.md §4.4 step 8, §4.6 Path A/B).
func (pc PointCollection) ZValues() []float64 {
	out := make([]float64, len(pc.Points))
	for i, p := range pc.Points {
		out[i] = p.Z
	}
	return out
}

// Percentile computes the q-th percentile (0..1) of a slice of float64 using
// linear interpolation between closest ranks. The input is not mutated.
func Percentile(values []float64, q float64) float64 {
	n := len(values)
	if n == 0 {
		return math.NaN()
	}
	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	if n == 1 {
		return sorted[0]
	}
	pos := q * float64(n-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// Median is Percentile at q=0.5.
func Median(values []float64) float64 {
	return Percentile(values, 0.5)
}
