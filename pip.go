package lodrecon

// PolygonTester is built once per footprint ring and queried many times
// (spec.md §4.3). It precomputes, per edge, the constants the even-odd
// crossing test needs so that a query is O(number of edges) with no
// per-query allocation, and the per-ring cost amortises across the 10^6
// queries a single footprint's raster + point crop can issue.
type PolygonTester struct {
	outer []edgeTestData
	holes [][]edgeTestData
	bounds AABB
}

type edgeTestData struct {
	x1, y1, x2, y2 float64
}

// NewPolygonTester constructs an immutable tester from a LinearRing.
func NewPolygonTester(ring LinearRing) *PolygonTester {
	t := &PolygonTester{
		outer:  buildEdges(ring.Outer),
		bounds: ring.Bounds(),
	}
	for _, h := range ring.Holes {
		t.holes = append(t.holes, buildEdges(h))
	}
	return t
}

func buildEdges(vertices []Point2) []edgeTestData {
	n := len(vertices)
	edges := make([]edgeTestData, n)
	for i := 0; i < n; i++ {
		a := vertices[i]
		b := vertices[(i+1)%n]
		edges[i] = edgeTestData{x1: a.X, y1: a.Y, x2: b.X, y2: b.Y}
	}
	return edges
}

// Test reports whether p lies in the closed outer ring minus the open hole
// rings: on the outer boundary tests true, on a hole boundary also tests
// true (spec.md §4.3 boundary policy).
func (t *PolygonTester) Test(p Point2) bool {
	if !t.bounds.Contains(p) {
		return false
	}
	in, onBoundary := ringContains(t.outer, p)
	if !in && !onBoundary {
		return false
	}
	if onBoundary {
		return true
	}
	for _, h := range t.holes {
		hin, honBoundary := ringContains(h, p)
		if honBoundary {
			return true
		}
		if hin {
			return false
		}
	}
	return true
}

// ringContains runs a winding-number-free, even-odd crossing test, with an
// explicit on-segment check so boundary points are reported distinctly from
// interior points (the spec's boundary policy needs that distinction; a
// bare crossing-number test cannot give it reliably for points exactly on
// an edge).
func ringContains(edges []edgeTestData, p Point2) (inside, onBoundary bool) {
	for _, e := range edges {
		if onSegment(e, p) {
			return false, true
		}
	}
	for _, e := range edges {
		if ((e.y1 > p.Y) != (e.y2 > p.Y)) &&
			(p.X < (e.x2-e.x1)*(p.Y-e.y1)/(e.y2-e.y1)+e.x1) {
			inside = !inside
		}
	}
	return inside, false
}

func onSegment(e edgeTestData, p Point2) bool {
	// cross product of (p - e1) and (e2 - e1); zero means collinear
	cross := (p.X-e.x1)*(e.y2-e.y1) - (p.Y-e.y1)*(e.x2-e.x1)
	const eps = 1e-9
	if cross > eps || cross < -eps {
		return false
	}
	minX, maxX := e.x1, e.x2
	if minX > maxX {
		minX, maxX = maxX, minX
	}
	minY, maxY := e.y1, e.y2
	if minY > maxY {
		minY, maxY = maxY, minY
	}
	return p.X >= minX-eps && p.X <= maxX+eps && p.Y >= minY-eps && p.Y <= maxY+eps
}
