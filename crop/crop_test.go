package crop_test

import (
	"context"
	"testing"

	"github.com/sixy6e/lod-recon"
	"github.com/sixy6e/lod-recon/config"
	"github.com/sixy6e/lod-recon/crop"
	"github.com/sixy6e/lod-recon/iodefs"
	"github.com/sixy6e/lod-recon/source"
)

func footprintFixture() source.Footprint {
	return source.Footprint{
		ID:   "b1",
		Ring: lodrecon.LinearRing{Outer: []lodrecon.Point2{{0, 0}, {10, 0}, {10, 10}, {0, 10}}},
	}
}

func TestCropperBuildArbitratesAndClassifies(t *testing.T) {
	cfg := config.Default().Crop
	cfg.MinDensity = 0
	cfg.MaxPointDensityLowLoD = 0
	cfg.CellSize = 1

	points := map[string][]iodefs.SourcePoint{
		"src-a": {
			{X: 2, Y: 2, Z: 0, Classification: lodrecon.ClassGround},
			{X: 3, Y: 3, Z: 5, Classification: lodrecon.ClassBuilding},
			{X: 4, Y: 4, Z: 5.2, Classification: lodrecon.ClassBuilding},
		},
	}
	reader := iodefs.NewMemoryPointCloudReader(points)

	sources := []source.PointCloudSource{
		{Name: "src-a", Location: "src-a", Quality: 1, GroundClass: lodrecon.ClassGround, BuildingClass: lodrecon.ClassBuilding},
	}

	cropper := crop.NewCropper(&cfg, reader, sources, nil)
	c, err := cropper.Build(context.Background(), footprintFixture(), 0, false)
	if err != nil {
		t.Fatalf("Build returned an error: %v", err)
	}
	if c.NoData {
		t.Fatal("expected a successful crop, got NoData")
	}
	if len(c.GroundPoints) != 1 {
		t.Fatalf("ground points = %d, want 1", len(c.GroundPoints))
	}
	if len(c.RoofPoints) != 2 {
		t.Fatalf("roof points = %d, want 2", len(c.RoofPoints))
	}
	if c.GroundElevation != 0 {
		t.Fatalf("ground elevation = %v, want 0", c.GroundElevation)
	}
}

func TestCropperBuildReturnsNoDataBelowDensityFloor(t *testing.T) {
	cfg := config.Default().Crop
	cfg.MinDensity = 1000 // unreachably high
	cfg.CellSize = 1

	points := map[string][]iodefs.SourcePoint{
		"src-a": {{X: 2, Y: 2, Z: 0, Classification: lodrecon.ClassBuilding}},
	}
	reader := iodefs.NewMemoryPointCloudReader(points)
	sources := []source.PointCloudSource{
		{Name: "src-a", Location: "src-a", BuildingClass: lodrecon.ClassBuilding},
	}

	cropper := crop.NewCropper(&cfg, reader, sources, nil)
	c, err := cropper.Build(context.Background(), footprintFixture(), 0, false)
	if err != nil {
		t.Fatalf("Build returned an error: %v", err)
	}
	if !c.NoData {
		t.Fatal("expected NoData=true when no source clears the density floor")
	}
}

func TestCropperBuildRejectsDegeneratePolygon(t *testing.T) {
	cfg := config.Default().Crop
	reader := iodefs.NewMemoryPointCloudReader(nil)
	cropper := crop.NewCropper(&cfg, reader, nil, nil)

	degenerate := source.Footprint{ID: "bad", Ring: lodrecon.LinearRing{Outer: []lodrecon.Point2{{0, 0}, {1, 0}}}}
	_, err := cropper.Build(context.Background(), degenerate, 0, false)
	if err == nil {
		t.Fatal("expected an error for a zero-area footprint")
	}
}
