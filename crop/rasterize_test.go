package crop

import (
	"math"
	"testing"

	"github.com/sixy6e/lod-recon"
)

func TestRasterizeCountsInsidePointsOnly(t *testing.T) {
	ring := lodrecon.LinearRing{Outer: []lodrecon.Point2{{0, 0}, {10, 0}, {10, 10}, {0, 10}}}
	box := ring.Bounds()

	points := []lodrecon.Point3{
		{X: 1, Y: 1, Z: 0},
		{X: 1, Y: 1, Z: 0},
		{X: 50, Y: 50, Z: 0}, // well outside the ring and the raster bounds
	}

	raster, nodataFraction := Rasterize(points, ring, box, 1.0)

	if raster.Width != 10 || raster.Height != 10 {
		t.Fatalf("raster dims = %dx%d, want 10x10", raster.Width, raster.Height)
	}
	col, row := raster.CellOf(lodrecon.Point2{X: 1, Y: 1})
	if got := raster.At(col, row); got != 2 {
		t.Fatalf("cell (%d,%d) count = %v, want 2", col, row, got)
	}
	if nodataFraction <= 0 || nodataFraction >= 1 {
		t.Fatalf("nodataFraction = %v, want a value strictly between 0 and 1 (only one of 100 cells populated)", nodataFraction)
	}
}

func TestRasterizeAllCellsEmptyGivesFullNoData(t *testing.T) {
	ring := lodrecon.LinearRing{Outer: []lodrecon.Point2{{0, 0}, {4, 0}, {4, 4}, {0, 4}}}
	box := ring.Bounds()

	raster, nodataFraction := Rasterize(nil, ring, box, 1.0)
	if nodataFraction != 1 {
		t.Fatalf("nodataFraction with zero points = %v, want 1", nodataFraction)
	}
	for row := 0; row < raster.Height; row++ {
		for col := 0; col < raster.Width; col++ {
			if raster.At(col, row) != 0 {
				t.Fatalf("cell (%d,%d) = %v, want 0 (inside, no points)", col, row, raster.At(col, row))
			}
		}
	}
}

func TestNoDataDiscBasic(t *testing.T) {
	ring := lodrecon.LinearRing{Outer: []lodrecon.Point2{{0, 0}, {20, 0}, {20, 20}, {0, 20}}}
	box := ring.Bounds()

	// a ring of points around the border, leaving the centre empty
	var points []lodrecon.Point3
	for i := 1; i < 20; i++ {
		points = append(points, lodrecon.Point3{X: float64(i), Y: 1})
		points = append(points, lodrecon.Point3{X: float64(i), Y: 19})
		points = append(points, lodrecon.Point3{X: 1, Y: float64(i)})
		points = append(points, lodrecon.Point3{X: 19, Y: float64(i)})
	}

	raster, _ := Rasterize(points, ring, box, 1.0)
	radius, center, ok := NoDataDisc(points, ring, raster)
	if !ok {
		t.Fatal("expected a no-data disc to be found in the empty centre")
	}
	if radius <= 0 {
		t.Fatalf("radius = %v, want > 0", radius)
	}
	// the widest empty gap should be near the centre of the square
	if math.Abs(center.X-10) > 3 || math.Abs(center.Y-10) > 3 {
		t.Fatalf("disc centre %+v expected near (10,10)", center)
	}
}

func TestGroundElevationMedianOfInsidePoints(t *testing.T) {
	ground := []lodrecon.Point3{{Z: 1}, {Z: 2}, {Z: 3}}
	elev, needsFallback := GroundElevation(ground, nil, lodrecon.AABB{})
	if needsFallback {
		t.Fatal("expected no fallback needed when ground points exist inside the footprint")
	}
	if elev != 2 {
		t.Fatalf("elevation = %v, want median 2", elev)
	}
}

func TestGroundElevationFallsBackToWiderBox(t *testing.T) {
	box := lodrecon.AABB{MinX: 0, MinY: 0, MaxX: 10, MaxY: 10}
	raw := []lodrecon.Point3{{X: -5, Y: -5, Z: 5}}
	elev, needsFallback := GroundElevation(nil, raw, box)
	if needsFallback {
		t.Fatal("expected the widened box to pick up the fallback ground point")
	}
	if elev != 5 {
		t.Fatalf("elevation = %v, want 5", elev)
	}
}

func TestGroundElevationNoDataAnywhereNeedsFallback(t *testing.T) {
	box := lodrecon.AABB{MinX: 0, MinY: 0, MaxX: 10, MaxY: 10}
	elev, needsFallback := GroundElevation(nil, nil, box)
	if !needsFallback {
		t.Fatal("expected needsFallback=true when no ground point exists at all")
	}
	if !math.IsNaN(elev) {
		t.Fatalf("elevation = %v, want NaN", elev)
	}
}
