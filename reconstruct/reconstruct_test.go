package reconstruct_test

import (
	"context"
	"testing"

	"github.com/sixy6e/lod-recon"
	"github.com/sixy6e/lod-recon/config"
	"github.com/sixy6e/lod-recon/crop"
	"github.com/sixy6e/lod-recon/elevation"
	"github.com/sixy6e/lod-recon/reconstruct"
)

func footprintRing() lodrecon.LinearRing {
	return lodrecon.LinearRing{Outer: []lodrecon.Point2{{0, 0}, {10, 0}, {10, 10}, {0, 10}}}
}

func defaultOpts() reconstruct.Options {
	cfg := config.Default()
	return reconstruct.Options{
		Validation:            cfg.Validation,
		LowLoDNoDataFraction:  cfg.Crop.LowLoDNoDataFraction,
		MaxPointDensityLowLoD: cfg.Crop.MaxPointDensityLowLoD,
		BoundaryPenalty:       1.0,
		MinPolygonArea:        1.0,
	}
}

func TestReconstructForceLowLoDTakesPathA(t *testing.T) {
	c := &crop.Crop{
		Footprint:       footprintRing(),
		ForceLowLoD:     true,
		GroundElevation: 0,
	}
	elev := elevation.NewConstant(0)

	mesh, err := reconstruct.Reconstruct(context.Background(), c, elev, defaultOpts())
	if err != nil {
		t.Fatalf("Reconstruct returned an error: %v", err)
	}
	if mesh.PathTaken != lodrecon.PathLowLoD {
		t.Fatalf("PathTaken = %v, want PathLowLoD when ForceLowLoD is set", mesh.PathTaken)
	}
	if len(mesh.Mesh.Faces) == 0 {
		t.Fatal("expected a non-empty extruded mesh")
	}
}

func TestReconstructInsufficientRoofPointsFallsBackToLowLoD(t *testing.T) {
	c := &crop.Crop{
		Footprint:       footprintRing(),
		GroundElevation: 0,
		PointDensity:    10, // dense enough that Path B is attempted
		// no RoofPoints at all: plane detection must fail and fall back
	}
	elev := elevation.NewConstant(0)

	mesh, err := reconstruct.Reconstruct(context.Background(), c, elev, defaultOpts())
	if err != nil {
		t.Fatalf("Reconstruct returned an error: %v", err)
	}
	if mesh.PathTaken != lodrecon.PathLowLoD {
		t.Fatalf("PathTaken = %v, want PathLowLoD when there are no roof points to fit a plane", mesh.PathTaken)
	}
	if mesh.FallbackHow == "" {
		t.Fatal("expected FallbackHow to record why Path B was abandoned")
	}
}

func TestReconstructCancelledContextAborts(t *testing.T) {
	c := &crop.Crop{
		Footprint:       footprintRing(),
		GroundElevation: 0,
		PointDensity:    10, // dense enough that Path B is attempted
	}
	elev := elevation.NewConstant(0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := reconstruct.Reconstruct(ctx, c, elev, defaultOpts())
	if err == nil {
		t.Fatal("expected an error when the context is already cancelled")
	}
}
