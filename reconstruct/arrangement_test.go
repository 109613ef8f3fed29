package reconstruct

import (
	"testing"

	"github.com/sixy6e/lod-recon"
)

func TestBuildArrangementMarksInsideFootprintCellsOnly(t *testing.T) {
	ring := lodrecon.LinearRing{Outer: []lodrecon.Point2{{0, 0}, {4, 0}, {4, 4}, {0, 4}}}
	tester := lodrecon.NewPolygonTester(ring)
	raster := lodrecon.NewImageMap("z", 4, 4, 1.0, 0, 0)

	pts := []lodrecon.Point3{
		{X: 0.5, Y: 0.5, Z: 10},
		{X: 1.5, Y: 0.5, Z: 10},
	}
	plane := Plane{NX: 0, NY: 0, NZ: 1, D: -10} // flat plane z=10
	regions := []PlaneRegion{{Plane: plane}}

	arr := BuildArrangement(raster, tester, pts, regions)

	if len(arr.Faces) != 16 {
		t.Fatalf("face count = %d, want 16 (every cell of a 4x4 raster fully inside the footprint)", len(arr.Faces))
	}

	var totalPoints int
	for _, f := range arr.Faces {
		if !f.InsideFootprint {
			t.Fatal("every built face should be InsideFootprint (cells outside are never emitted)")
		}
		totalPoints += f.PixelCount
	}
	if totalPoints != len(pts) {
		t.Fatalf("sum of PixelCount = %d, want %d", totalPoints, len(pts))
	}
}

func TestBuildArrangementEdgesConnectOrthogonalNeighborsOnly(t *testing.T) {
	ring := lodrecon.LinearRing{Outer: []lodrecon.Point2{{0, 0}, {2, 0}, {2, 2}, {0, 2}}}
	tester := lodrecon.NewPolygonTester(ring)
	raster := lodrecon.NewImageMap("z", 2, 2, 1.0, 0, 0)

	arr := BuildArrangement(raster, tester, nil, nil)
	if len(arr.Faces) != 4 {
		t.Fatalf("face count = %d, want 4", len(arr.Faces))
	}
	// a 2x2 grid of faces has exactly 4 shared orthogonal borders: two
	// horizontal pairs and two vertical pairs.
	if len(arr.Edges) != 4 {
		t.Fatalf("edge count = %d, want 4", len(arr.Edges))
	}
}
