package reconstruct

import (
	"math"
	"testing"

	"github.com/sixy6e/lod-recon"
)

func TestSolve3x3Identity(t *testing.T) {
	m := [3][4]float64{
		{1, 0, 0, 5},
		{0, 1, 0, 7},
		{0, 0, 1, -2},
	}
	x, y, z, ok := solve3x3(m)
	if !ok {
		t.Fatal("expected the identity system to be solvable")
	}
	if x != 5 || y != 7 || z != -2 {
		t.Fatalf("solution = (%v,%v,%v), want (5,7,-2)", x, y, z)
	}
}

func TestSolve3x3Singular(t *testing.T) {
	m := [3][4]float64{
		{1, 2, 3, 6},
		{2, 4, 6, 12},
		{1, 1, 1, 3},
	}
	_, _, _, ok := solve3x3(m)
	if ok {
		t.Fatal("expected a singular system (two dependent rows) to be rejected")
	}
}

func TestFitPlaneFlatSurface(t *testing.T) {
	pts := []lodrecon.Point3{
		{X: 0, Y: 0, Z: 3}, {X: 1, Y: 0, Z: 3}, {X: 0, Y: 1, Z: 3}, {X: 1, Y: 1, Z: 3},
	}
	plane, rms := fitPlane(pts)
	if math.Abs(plane.Z(5, 5)-3) > 1e-9 {
		t.Fatalf("flat plane evaluated away from samples = %v, want 3", plane.Z(5, 5))
	}
	if rms > 1e-9 {
		t.Fatalf("rms for an exact flat fit = %v, want ~0", rms)
	}
}

func TestFitPlaneSlopedSurface(t *testing.T) {
	// z = 2x + 1
	pts := []lodrecon.Point3{
		{X: 0, Y: 0, Z: 1}, {X: 1, Y: 0, Z: 3}, {X: 0, Y: 5, Z: 1}, {X: 1, Y: 5, Z: 3},
	}
	plane, _ := fitPlane(pts)
	got := plane.Z(2, 0)
	if math.Abs(got-5) > 1e-6 {
		t.Fatalf("plane.Z(2,0) = %v, want 5 for z=2x+1", got)
	}
}

func TestDetectPlanesFindsSingleFlatRoof(t *testing.T) {
	var pts []lodrecon.Point3
	for x := 0.0; x < 10; x += 0.5 {
		for y := 0.0; y < 10; y += 0.5 {
			pts = append(pts, lodrecon.Point3{X: x, Y: y, Z: 10})
		}
	}
	regions := DetectPlanes(pts, 0.05, 15)
	if len(regions) == 0 {
		t.Fatal("expected at least one planar region over a dense flat roof")
	}
	total := 0
	for _, r := range regions {
		total += len(r.Points)
	}
	if total == 0 {
		t.Fatal("expected region(s) to account for some of the input points")
	}
}

func TestDetectPlanesEmptyInput(t *testing.T) {
	regions := DetectPlanes(nil, 0.05, 15)
	if len(regions) != 0 {
		t.Fatalf("expected no regions from zero input points, got %d", len(regions))
	}
}
