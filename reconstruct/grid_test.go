package reconstruct

import (
	"testing"

	"github.com/sixy6e/lod-recon"
)

func TestPointGridNeighborsFindsOnlyPointsWithinRadius(t *testing.T) {
	pts := []lodrecon.Point3{
		{X: 0, Y: 0, Z: 0},
		{X: 0.5, Y: 0, Z: 0},
		{X: 5, Y: 5, Z: 0},
	}
	g := newPointGrid(pts, 1.0)

	got := g.neighbors(pts[0], 1.0)
	if len(got) != 1 || got[0] != 1 {
		t.Fatalf("neighbors(pts[0], 1.0) = %v, want [1]", got)
	}
}

func TestPointGridNeighborsEmptyGrid(t *testing.T) {
	g := newPointGrid(nil, 1.0)
	got := g.neighbors(lodrecon.Point3{X: 0, Y: 0, Z: 0}, 5.0)
	if len(got) != 0 {
		t.Fatalf("neighbors on an empty grid = %v, want none", got)
	}
}

func TestPointGridNeighborsExcludesExactDuplicateOfSelf(t *testing.T) {
	pts := []lodrecon.Point3{
		{X: 1, Y: 1, Z: 2},
		{X: 9, Y: 9, Z: 9},
	}
	g := newPointGrid(pts, 1.0)
	got := g.neighbors(pts[0], 2.0)
	if len(got) != 0 {
		t.Fatalf("neighbors(pts[0], ...) = %v, want none (only match is the point itself)", got)
	}
}
