package lodrecon

import "testing"

func squareRing() LinearRing {
	return LinearRing{Outer: []Point2{{0, 0}, {10, 0}, {10, 10}, {0, 10}}}
}

func TestPolygonTesterInteriorAndExterior(t *testing.T) {
	tester := NewPolygonTester(squareRing())

	if !tester.Test(Point2{X: 5, Y: 5}) {
		t.Fatal("expected centre point inside the square")
	}
	if tester.Test(Point2{X: 50, Y: 50}) {
		t.Fatal("expected far point outside the square")
	}
}

func TestPolygonTesterBoundaryIsInside(t *testing.T) {
	tester := NewPolygonTester(squareRing())

	boundaryPoints := []Point2{{0, 0}, {10, 0}, {5, 0}, {0, 5}, {10, 10}}
	for _, p := range boundaryPoints {
		if !tester.Test(p) {
			t.Fatalf("expected boundary point %+v to test true (spec.md boundary policy)", p)
		}
	}
}

func TestPolygonTesterHoleExcludesInterior(t *testing.T) {
	outer := []Point2{{0, 0}, {10, 0}, {10, 10}, {0, 10}}
	hole := []Point2{{4, 4}, {6, 4}, {6, 6}, {4, 6}}
	tester := NewPolygonTester(LinearRing{Outer: outer, Holes: [][]Point2{hole}})

	if tester.Test(Point2{X: 5, Y: 5}) {
		t.Fatal("expected point inside the hole to test false")
	}
	if !tester.Test(Point2{X: 1, Y: 1}) {
		t.Fatal("expected point outside the hole but inside the outer ring to test true")
	}
	// hole boundary itself counts as inside per the boundary policy
	if !tester.Test(Point2{X: 4, Y: 5}) {
		t.Fatal("expected hole boundary point to test true")
	}
}

func TestPolygonTesterConcavePolygon(t *testing.T) {
	// an L-shape: a 10x10 square with the top-right 5x5 quadrant removed
	lshape := []Point2{
		{0, 0}, {10, 0}, {10, 5}, {5, 5}, {5, 10}, {0, 10},
	}
	tester := NewPolygonTester(LinearRing{Outer: lshape})

	if !tester.Test(Point2{X: 2, Y: 2}) {
		t.Fatal("expected point in the filled part of the L to be inside")
	}
	if tester.Test(Point2{X: 8, Y: 8}) {
		t.Fatal("expected point in the notched-out corner to be outside")
	}
}
