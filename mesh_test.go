package lodrecon

import "testing"

// cubeMesh builds a unit cube (6 quad faces) for use by EdgeFaceCounts tests.
func cubeMesh() Mesh {
	var m Mesh
	v := [8]int{}
	corners := []Point3{
		{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 1, Y: 1, Z: 0}, {X: 0, Y: 1, Z: 0},
		{X: 0, Y: 0, Z: 1}, {X: 1, Y: 0, Z: 1}, {X: 1, Y: 1, Z: 1}, {X: 0, Y: 1, Z: 1},
	}
	for i, c := range corners {
		v[i] = m.AddVertex(c)
	}
	m.AddFace(SurfaceGround, v[0], v[3], v[2], v[1])
	m.AddFace(SurfaceRoof, v[4], v[5], v[6], v[7])
	m.AddFace(SurfaceWall, v[0], v[1], v[5], v[4])
	m.AddFace(SurfaceWall, v[1], v[2], v[6], v[5])
	m.AddFace(SurfaceWall, v[2], v[3], v[7], v[6])
	m.AddFace(SurfaceWall, v[3], v[0], v[4], v[7])
	return m
}

func TestMeshEdgeFaceCountsWatertightCube(t *testing.T) {
	m := cubeMesh()
	counts := m.EdgeFaceCounts()
	for edge, n := range counts {
		if n != 2 {
			t.Fatalf("edge %+v has %d incident faces, want 2 for a watertight cube", edge, n)
		}
	}
}

func TestMeshEdgeFaceCountsOpenMeshHasBoundaryEdges(t *testing.T) {
	var m Mesh
	a := m.AddVertex(Point3{X: 0, Y: 0, Z: 0})
	b := m.AddVertex(Point3{X: 1, Y: 0, Z: 0})
	c := m.AddVertex(Point3{X: 1, Y: 1, Z: 0})
	d := m.AddVertex(Point3{X: 0, Y: 1, Z: 0})
	m.AddFace(SurfaceGround, a, b, c, d)

	counts := m.EdgeFaceCounts()
	for _, n := range counts {
		if n != 1 {
			t.Fatalf("single-face mesh should have every edge at count 1, got %d", n)
		}
	}
}

func TestMeshFacesOfType(t *testing.T) {
	m := cubeMesh()
	walls := m.FacesOfType(SurfaceWall)
	if len(walls) != 4 {
		t.Fatalf("cube has %d wall faces, want 4", len(walls))
	}
	roof := m.FacesOfType(SurfaceRoof)
	if len(roof) != 1 {
		t.Fatalf("cube has %d roof faces, want 1", len(roof))
	}
}

func TestReconstructionPathString(t *testing.T) {
	if PathLowLoD.String() != "low_lod" {
		t.Fatalf("PathLowLoD.String() = %q, want low_lod", PathLowLoD.String())
	}
	if PathPlanar.String() != "planar" {
		t.Fatalf("PathPlanar.String() = %q, want planar", PathPlanar.String())
	}
}

func TestImageMapSetAndAtOutOfRange(t *testing.T) {
	im := NewImageMap("test", 4, 4, 1.0, 0, 0)
	im.Set(1, 1, 7)
	if got := im.At(1, 1); got != 7 {
		t.Fatalf("At(1,1) = %v, want 7", got)
	}
	if got := im.At(-1, 0); got != im.NoData {
		t.Fatalf("At out of range = %v, want NoData sentinel %v", got, im.NoData)
	}
	// out-of-range Set must not panic
	im.Set(100, 100, 1)
}

func TestDimsForFootprintRoundsUp(t *testing.T) {
	box := AABB{MinX: 0, MinY: 0, MaxX: 10.1, MaxY: 5}
	w, h := DimsForFootprint(box, 1.0)
	if w != 11 {
		t.Fatalf("width = %d, want 11 (ceil of 10.1)", w)
	}
	if h != 5 {
		t.Fatalf("height = %d, want 5", h)
	}
}

func TestImageMapCellCenterRoundTrip(t *testing.T) {
	im := NewImageMap("test", 10, 10, 2.0, 100, 200)
	center := im.CellCenter(3, 4)
	col, row := im.CellOf(center)
	if col != 3 || row != 4 {
		t.Fatalf("CellOf(CellCenter(3,4)) = (%d,%d), want (3,4)", col, row)
	}
}
