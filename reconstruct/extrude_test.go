package reconstruct

import (
	"testing"

	"github.com/sixy6e/lod-recon"
)

func TestExtrudeLowLoDProducesClosedBox(t *testing.T) {
	ring := lodrecon.LinearRing{Outer: []lodrecon.Point2{{0, 0}, {4, 0}, {4, 4}, {0, 4}}}
	mesh := ExtrudeLowLoD(ring, 0, 10)

	// 1 floor + 1 roof + 4 walls
	if len(mesh.Faces) != 6 {
		t.Fatalf("face count = %d, want 6", len(mesh.Faces))
	}
	// 4 floor vertices + 4 roof vertices
	if len(mesh.Vertices) != 8 {
		t.Fatalf("vertex count = %d, want 8", len(mesh.Vertices))
	}

	counts := mesh.EdgeFaceCounts()
	for edge, n := range counts {
		if n != 2 {
			t.Fatalf("edge %+v has %d incident faces, want 2 (water-tight box)", edge, n)
		}
	}

	roofFaces := mesh.FacesOfType(lodrecon.SurfaceRoof)
	if len(roofFaces) != 1 {
		t.Fatalf("roof face count = %d, want 1", len(roofFaces))
	}
	for _, idx := range roofFaces[0].Indices {
		if mesh.Vertices[idx].Z != 10 {
			t.Fatalf("roof vertex Z = %v, want 10", mesh.Vertices[idx].Z)
		}
	}
}
