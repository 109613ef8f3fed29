package elevation

import (
	"math"
	"sort"

	"github.com/sixy6e/lod-recon"
)

// triangle holds indices into a shared vertex slice. No pack example ships a
// triangulation library, so this is a from-scratch Bowyer-Watson
// incremental Delaunay triangulation (see DESIGN.md for why no example
// repo's geometry code fit this role).
type triangle struct {
	a, b, c int
}

type triangulation struct {
	vertices  []lodrecon.Point2
	triangles []triangle
	hull      []int // convex hull vertex indices, in order
}

// buildTriangulation runs Bowyer-Watson over points, which must contain at
// least 3 non-collinear points.
func buildTriangulation(points []lodrecon.Point2) *triangulation {
	n := len(points)
	verts := make([]lodrecon.Point2, n, n+3)
	copy(verts, points)

	box := lodrecon.BoundsOf(points)
	dx, dy := box.Width(), box.Height()
	delta := math.Max(dx, dy)
	if delta == 0 {
		delta = 1
	}
	midX, midY := (box.MinX+box.MaxX)/2, (box.MinY+box.MaxY)/2

	// a super-triangle comfortably containing every input point.
	superA := lodrecon.Point2{X: midX - 20*delta, Y: midY - delta}
	superB := lodrecon.Point2{X: midX, Y: midY + 20*delta}
	superC := lodrecon.Point2{X: midX + 20*delta, Y: midY - delta}
	superIdx := [3]int{n, n + 1, n + 2}
	verts = append(verts, superA, superB, superC)

	tris := []triangle{{superIdx[0], superIdx[1], superIdx[2]}}

	for i := 0; i < n; i++ {
		tris = insertPoint(verts, tris, i)
	}

	// drop any triangle touching a super-triangle vertex.
	final := make([]triangle, 0, len(tris))
	for _, t := range tris {
		if t.a >= n || t.b >= n || t.c >= n {
			continue
		}
		final = append(final, t)
	}

	return &triangulation{
		vertices:  verts[:n],
		triangles: final,
		hull:      convexHull(points),
	}
}

func insertPoint(verts []lodrecon.Point2, tris []triangle, p int) []triangle {
	var bad []triangle
	for _, t := range tris {
		if inCircumcircle(verts, t, verts[p]) {
			bad = append(bad, t)
		}
	}

	boundary := polygonHole(bad)

	kept := make([]triangle, 0, len(tris))
	for _, t := range tris {
		if !containsTriangle(bad, t) {
			kept = append(kept, t)
		}
	}
	for _, e := range boundary {
		kept = append(kept, triangle{e.a, e.b, p})
	}
	return kept
}

type edge struct{ a, b int }

// polygonHole returns the edges of bad triangles that are not shared with
// another bad triangle: the boundary of the cavity left by their removal.
func polygonHole(bad []triangle) []edge {
	count := make(map[edge]int)
	order := make([]edge, 0)
	add := func(a, b int) {
		e := edge{a, b}
		if a > b {
			e = edge{b, a}
		}
		if _, ok := count[e]; !ok {
			order = append(order, e)
		}
		count[e]++
	}
	for _, t := range bad {
		add(t.a, t.b)
		add(t.b, t.c)
		add(t.c, t.a)
	}
	var boundary []edge
	for _, e := range order {
		key := e
		if key.a > key.b {
			key = edge{key.b, key.a}
		}
		if count[key] == 1 {
			boundary = append(boundary, edge{a: e.a, b: e.b})
		}
	}
	return boundary
}

func containsTriangle(ts []triangle, t triangle) bool {
	for _, o := range ts {
		if o == t {
			return true
		}
	}
	return false
}

// inCircumcircle reports whether p lies inside the circumcircle of t.
func inCircumcircle(verts []lodrecon.Point2, t triangle, p lodrecon.Point2) bool {
	a, b, c := verts[t.a], verts[t.b], verts[t.c]

	ax, ay := a.X-p.X, a.Y-p.Y
	bx, by := b.X-p.X, b.Y-p.Y
	cx, cy := c.X-p.X, c.Y-p.Y

	det := (ax*ax+ay*ay)*(bx*cy-cx*by) -
		(bx*bx+by*by)*(ax*cy-cx*ay) +
		(cx*cx+cy*cy)*(ax*by-bx*ay)

	// orientation of a,b,c determines the sign convention.
	orient := (b.X-a.X)*(c.Y-a.Y) - (c.X-a.X)*(b.Y-a.Y)
	if orient < 0 {
		det = -det
	}
	return det > 0
}

// locate finds the triangle containing p; it reports false when p lies in
// no triangle (outside the hull).
func (tr *triangulation) locate(p lodrecon.Point2) (triangle, bool) {
	for _, t := range tr.triangles {
		if pointInTriangle(tr.vertices[t.a], tr.vertices[t.b], tr.vertices[t.c], p) {
			return t, true
		}
	}
	return triangle{}, false
}

func pointInTriangle(a, b, c, p lodrecon.Point2) bool {
	d1 := sign(p, a, b)
	d2 := sign(p, b, c)
	d3 := sign(p, c, a)
	hasNeg := d1 < 0 || d2 < 0 || d3 < 0
	hasPos := d1 > 0 || d2 > 0 || d3 > 0
	return !(hasNeg && hasPos)
}

func sign(p1, p2, p3 lodrecon.Point2) float64 {
	return (p1.X-p3.X)*(p2.Y-p3.Y) - (p2.X-p3.X)*(p1.Y-p3.Y)
}

// barycentric returns the barycentric weights of p within triangle a,b,c.
func barycentric(a, b, c, p lodrecon.Point2) (u, v, w float64) {
	denom := (b.Y-c.Y)*(a.X-c.X) + (c.X-b.X)*(a.Y-c.Y)
	if denom == 0 {
		return 1, 0, 0
	}
	u = ((b.Y-c.Y)*(p.X-c.X) + (c.X-b.X)*(p.Y-c.Y)) / denom
	v = ((c.Y-a.Y)*(p.X-c.X) + (a.X-c.X)*(p.Y-c.Y)) / denom
	w = 1 - u - v
	return u, v, w
}

// convexHull computes the hull of points via the monotone chain algorithm,
// returning indices into points in counter-clockwise order.
func convexHull(points []lodrecon.Point2) []int {
	n := len(points)
	if n < 3 {
		idx := make([]int, n)
		for i := range idx {
			idx[i] = i
		}
		return idx
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(i, j int) bool { return less(points[idx[i]], points[idx[j]]) })

	cross := func(o, a, b int) float64 {
		return (points[a].X-points[o].X)*(points[b].Y-points[o].Y) - (points[a].Y-points[o].Y)*(points[b].X-points[o].X)
	}

	lower := make([]int, 0, n)
	for _, i := range idx {
		for len(lower) >= 2 && cross(lower[len(lower)-2], lower[len(lower)-1], i) <= 0 {
			lower = lower[:len(lower)-1]
		}
		lower = append(lower, i)
	}
	upper := make([]int, 0, n)
	for k := n - 1; k >= 0; k-- {
		i := idx[k]
		for len(upper) >= 2 && cross(upper[len(upper)-2], upper[len(upper)-1], i) <= 0 {
			upper = upper[:len(upper)-1]
		}
		upper = append(upper, i)
	}
	return append(lower[:len(lower)-1], upper[:len(upper)-1]...)
}

func less(a, b lodrecon.Point2) bool {
	if a.X != b.X {
		return a.X < b.X
	}
	return a.Y < b.Y
}
