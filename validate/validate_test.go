package validate

import (
	"testing"

	"github.com/sixy6e/lod-recon"
	"github.com/sixy6e/lod-recon/config"
)

func cubeMesh() lodrecon.Mesh {
	var m lodrecon.Mesh
	corners := []lodrecon.Point3{
		{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 1, Y: 1, Z: 0}, {X: 0, Y: 1, Z: 0},
		{X: 0, Y: 0, Z: 1}, {X: 1, Y: 0, Z: 1}, {X: 1, Y: 1, Z: 1}, {X: 0, Y: 1, Z: 1},
	}
	v := make([]int, 8)
	for i, c := range corners {
		v[i] = m.AddVertex(c)
	}
	// outward-facing winding order for every face
	m.AddFace(lodrecon.SurfaceGround, v[0], v[3], v[2], v[1])
	m.AddFace(lodrecon.SurfaceRoof, v[4], v[5], v[6], v[7])
	m.AddFace(lodrecon.SurfaceWall, v[0], v[1], v[5], v[4])
	m.AddFace(lodrecon.SurfaceWall, v[1], v[2], v[6], v[5])
	m.AddFace(lodrecon.SurfaceWall, v[2], v[3], v[7], v[6])
	m.AddFace(lodrecon.SurfaceWall, v[3], v[0], v[4], v[7])
	return m
}

func defaultValidationConfig() config.ValidationConfig {
	return config.Default().Validation
}

func TestValidateWatertightCubeIsClosed(t *testing.T) {
	report := Validate(cubeMesh(), defaultValidationConfig())
	for _, e := range report.Errors {
		if e == ErrNotClosed {
			t.Fatal("expected a watertight cube to pass the closedness check")
		}
	}
}

func TestValidateOpenMeshFailsClosedness(t *testing.T) {
	var m lodrecon.Mesh
	a := m.AddVertex(lodrecon.Point3{X: 0, Y: 0, Z: 0})
	b := m.AddVertex(lodrecon.Point3{X: 1, Y: 0, Z: 0})
	c := m.AddVertex(lodrecon.Point3{X: 1, Y: 1, Z: 0})
	d := m.AddVertex(lodrecon.Point3{X: 0, Y: 1, Z: 0})
	m.AddFace(lodrecon.SurfaceGround, a, b, c, d)

	report := Validate(m, defaultValidationConfig())
	found := false
	for _, e := range report.Errors {
		if e == ErrNotClosed {
			found = true
		}
	}
	if !found {
		t.Fatal("expected a single open face to fail the closedness check")
	}
}

func TestValidatePlanarFaceWithinTolerancePasses(t *testing.T) {
	var m lodrecon.Mesh
	a := m.AddVertex(lodrecon.Point3{X: 0, Y: 0, Z: 5})
	b := m.AddVertex(lodrecon.Point3{X: 10, Y: 0, Z: 5})
	c := m.AddVertex(lodrecon.Point3{X: 10, Y: 10, Z: 5})
	d := m.AddVertex(lodrecon.Point3{X: 0, Y: 10, Z: 5})
	m.AddFace(lodrecon.SurfaceRoof, a, b, c, d)

	cfg := defaultValidationConfig()
	report := Validate(m, cfg)
	for _, e := range report.Errors {
		if e == ErrNotPlanar {
			t.Fatal("expected an exactly flat face to pass the planarity check")
		}
	}
}

func TestValidateNonPlanarFaceFails(t *testing.T) {
	var m lodrecon.Mesh
	a := m.AddVertex(lodrecon.Point3{X: 0, Y: 0, Z: 0})
	b := m.AddVertex(lodrecon.Point3{X: 10, Y: 0, Z: 0})
	c := m.AddVertex(lodrecon.Point3{X: 10, Y: 10, Z: 0})
	d := m.AddVertex(lodrecon.Point3{X: 0, Y: 10, Z: 50}) // wildly out of plane
	m.AddFace(lodrecon.SurfaceRoof, a, b, c, d)

	cfg := defaultValidationConfig()
	report := Validate(m, cfg)
	found := false
	for _, e := range report.Errors {
		if e == ErrNotPlanar {
			found = true
		}
	}
	if !found {
		t.Fatal("expected a vertex far out of plane to fail the planarity check")
	}
}

func TestReportValid(t *testing.T) {
	r := Report{}
	if !r.Valid() {
		t.Fatal("expected an empty Report to be Valid")
	}
	r.Errors = append(r.Errors, ErrNotClosed)
	if r.Valid() {
		t.Fatal("expected a Report with errors to be invalid")
	}
}
