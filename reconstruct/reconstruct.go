// Package reconstruct implements C6: elevation extraction, planar roof
// partitioning and polygon extrusion into a closed mesh (spec.md §4.6).
package reconstruct

import (
	"context"

	"github.com/sixy6e/lod-recon"
	"github.com/sixy6e/lod-recon/config"
	"github.com/sixy6e/lod-recon/crop"
	"github.com/sixy6e/lod-recon/elevation"
)

// Options carries the tunables reconstruction needs beyond what Crop
// already resolved.
type Options struct {
	Validation      config.ValidationConfig
	LowLoDNoDataFraction float32
	MaxPointDensityLowLoD float32
	BoundaryPenalty float64
	MinPolygonArea  float64
}

// Reconstruct implements spec.md §4.6: choose Path A or Path B, and on any
// Path B failure fall back to Path A with the result annotated. ctx is
// checked before plane detection, before arrangement, and before extrusion
// (spec.md §4.8's named cancellation sub-steps); a cancelled context aborts
// the building rather than falling back.
func Reconstruct(ctx context.Context, c *crop.Crop, elev elevation.Provider, opts Options) (lodrecon.BuildingMesh, error) {
	if takesLowLoD(c, opts) {
		return reconstructLowLoD(c, elev, lodrecon.PathLowLoD, ""), nil
	}

	result, err := reconstructPlanar(ctx, c, elev, opts)
	if err == nil {
		return result, nil
	}
	if ctx.Err() != nil {
		return lodrecon.BuildingMesh{}, ctx.Err()
	}
	return reconstructLowLoD(c, elev, lodrecon.PathLowLoD, err.Error()), nil
}

func takesLowLoD(c *crop.Crop, opts Options) bool {
	if c.ForceLowLoD {
		return true
	}
	if float32(c.NoDataFraction) > opts.LowLoDNoDataFraction {
		return true
	}
	if float32(c.PointDensity) < opts.MaxPointDensityLowLoD {
		return true
	}
	return false
}

func reconstructLowLoD(c *crop.Crop, elev elevation.Provider, path lodrecon.ReconstructionPath, fallbackReason string) lodrecon.BuildingMesh {
	ground := resolveGround(c, elev)
	roofZ := elev.GetPercentile(0.7)
	if len(c.RoofPoints) > 0 {
		zs := make([]float64, len(c.RoofPoints))
		for i, p := range c.RoofPoints {
			zs[i] = p.Z
		}
		roofZ = lodrecon.Percentile(zs, 0.70)
	}

	mesh := ExtrudeLowLoD(c.Footprint, ground, roofZ)
	return lodrecon.BuildingMesh{
		Mesh:        mesh,
		Polygons:    map[lodrecon.SurfaceType][]lodrecon.LinearRing{lodrecon.SurfaceRoof: {c.Footprint}},
		PathTaken:   path,
		FallbackHow: fallbackReason,
	}
}

func reconstructPlanar(ctx context.Context, c *crop.Crop, elev elevation.Provider, opts Options) (lodrecon.BuildingMesh, error) {
	if err := ctx.Err(); err != nil {
		return lodrecon.BuildingMesh{}, err
	}
	planes := DetectPlanes(c.RoofPoints, float64(opts.Validation.TolPlanarityD2P), float64(opts.Validation.TolPlanarityNormals))
	if len(planes) == 0 {
		return lodrecon.BuildingMesh{}, lodrecon.ErrPlaneDetection
	}

	if err := ctx.Err(); err != nil {
		return lodrecon.BuildingMesh{}, err
	}
	if c.Raster == nil {
		return lodrecon.BuildingMesh{}, lodrecon.ErrArrangement
	}
	tester := lodrecon.NewPolygonTester(c.Footprint)
	arr := BuildArrangement(c.Raster, tester, c.RoofPoints, planes)
	if len(arr.Faces) == 0 {
		return lodrecon.BuildingMesh{}, lodrecon.ErrArrangement
	}

	AssignLabels(arr, len(planes), opts.BoundaryPenalty)

	polys := AssemblePolygons(arr, opts.MinPolygonArea)
	if len(polys) == 0 {
		return lodrecon.BuildingMesh{}, lodrecon.ErrArrangement
	}

	if err := ctx.Err(); err != nil {
		return lodrecon.BuildingMesh{}, err
	}
	ground := resolveGround(c, elev)
	mesh := ExtrudePlanar(polys, planes, ground)

	polyRings := make(map[lodrecon.SurfaceType][]lodrecon.LinearRing, 1)
	for _, p := range polys {
		polyRings[lodrecon.SurfaceRoof] = append(polyRings[lodrecon.SurfaceRoof], lodrecon.LinearRing{Outer: p.Outline})
	}

	return lodrecon.BuildingMesh{
		Mesh:      mesh,
		Polygons:  polyRings,
		PathTaken: lodrecon.PathPlanar,
	}, nil
}

func resolveGround(c *crop.Crop, elev elevation.Provider) float64 {
	if !c.NeedsFallback {
		return c.GroundElevation
	}
	centroid := centroidOf(c.Footprint.Outer)
	return elev.Get(centroid)
}

func centroidOf(ring []lodrecon.Point2) lodrecon.Point2 {
	var sx, sy float64
	for _, v := range ring {
		sx += v.X
		sy += v.Y
	}
	n := float64(len(ring))
	if n == 0 {
		return lodrecon.Point2{}
	}
	return lodrecon.Point2{X: sx / n, Y: sy / n}
}
