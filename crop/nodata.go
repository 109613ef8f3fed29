package crop

import (
	"math"

	"github.com/sixy6e/lod-recon"
)

// NoDataDisc implements spec.md §4.4 step 7: the largest inscribed
// data-free disc. Every observed point plus every ring edge (outer + holes)
// forms the obstacle set, and the search scans zero-count raster cells for
// the one maximising the minimum distance to that obstacle set. Distance to
// the boundary is exact point-to-segment distance against each ring edge,
// not vertex-to-vertex against a densified approximation, so the returned
// disc is guaranteed inside the footprint even along a concave edge.
func NoDataDisc(points []lodrecon.Point3, ring lodrecon.LinearRing, raster *lodrecon.ImageMap) (radius float64, center lodrecon.Point2, ok bool) {
	tester := lodrecon.NewPolygonTester(ring)

	edges := ringEdges(ring.Outer)
	for _, h := range ring.Holes {
		edges = append(edges, ringEdges(h)...)
	}

	best := -1.0
	var bestCenter lodrecon.Point2

	for row := 0; row < raster.Height; row++ {
		for col := 0; col < raster.Width; col++ {
			v := raster.At(col, row)
			if v != 0 {
				continue // either no-data sentinel (outside) or observed points present
			}
			c := raster.CellCenter(col, row)
			if !tester.Test(c) {
				continue
			}
			dPoint := nearestPointDistance(c, points)
			dBoundary := nearestEdgeDistance(c, edges)
			d := math.Min(dPoint, dBoundary)
			if d > best {
				best = d
				bestCenter = c
			}
		}
	}

	if best <= 0 {
		return 0, lodrecon.Point2{}, false
	}
	return best, bestCenter, true
}

type segment struct {
	a, b lodrecon.Point2
}

func ringEdges(vertices []lodrecon.Point2) []segment {
	n := len(vertices)
	edges := make([]segment, 0, n)
	for i := 0; i < n; i++ {
		edges = append(edges, segment{a: vertices[i], b: vertices[(i+1)%n]})
	}
	return edges
}

func nearestPointDistance(p lodrecon.Point2, points []lodrecon.Point3) float64 {
	if len(points) == 0 {
		return math.Inf(1)
	}
	best := math.Inf(1)
	for _, pt := range points {
		d := math.Hypot(p.X-pt.X, p.Y-pt.Y)
		if d < best {
			best = d
		}
	}
	return best
}

func nearestEdgeDistance(p lodrecon.Point2, edges []segment) float64 {
	best := math.Inf(1)
	for _, e := range edges {
		d := pointSegmentDistance(p, e.a, e.b)
		if d < best {
			best = d
		}
	}
	return best
}

// pointSegmentDistance returns the Euclidean distance from p to the closest
// point of segment a-b.
func pointSegmentDistance(p, a, b lodrecon.Point2) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return math.Hypot(p.X-a.X, p.Y-a.Y)
	}
	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / lenSq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	cx, cy := a.X+t*dx, a.Y+t*dy
	return math.Hypot(p.X-cx, p.Y-cy)
}
