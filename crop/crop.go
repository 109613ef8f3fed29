// Package crop implements C4: per-footprint point selection across
// overlapping point-cloud sources, quality arbitration, rasterisation and
// no-data disc detection (spec.md §4.4).
package crop

import (
	"context"
	"fmt"
	"math"

	"github.com/sixy6e/lod-recon"
	"github.com/sixy6e/lod-recon/config"
	"github.com/sixy6e/lod-recon/iodefs"
	"github.com/sixy6e/lod-recon/source"

	"github.com/samber/lo"
)

// Crop is a point-cloud crop of one footprint (spec.md §3's BuildingCrop),
// produced by Build and consumed once by the reconstruct package.
type Crop struct {
	Points lodrecon.PointCollection
	// GroundPoints and RoofPoints are Points split by classification
	// against the chosen source's GroundClass/BuildingClass codes (every
	// in-footprint point is one or the other, per spec.md §4.4 step 2);
	// C6 reads RoofPoints as the "roof-class points" of spec.md §4.6.
	GroundPoints []lodrecon.Point3
	RoofPoints   []lodrecon.Point3
	Footprint lodrecon.LinearRing

	Raster *lodrecon.ImageMap

	NoDataRadius float64
	NoDataCenter lodrecon.Point2
	HasNoDataCenter bool
	NoDataFraction float64

	PointDensity float64

	GroundElevation  float64
	NeedsFallback    bool

	AcquisitionYear int
	IsMutated       bool
	ForceLowLoD     bool

	// NoData is set when no source met the minimum density requirement
	// (spec.md §4.4 Error conditions): the crop is emitted with this flag
	// rather than as a hard failure.
	NoData bool

	Quality QualityInfo
}

// Cropper builds a Crop for one footprint against the full list of
// registered point-cloud sources, using a spatial index to narrow each
// source down to the chunks that can possibly intersect the footprint
// (spec.md §4.4 step 1).
type Cropper struct {
	cfg     *config.CropConfig
	reader  iodefs.PointCloudReader
	sources []source.PointCloudSource
	// index maps each source's name to an RTree over its storage chunks;
	// a source with no pre-built chunk index is queried directly (the
	// common case for a reader backed by a single columnar array, where
	// ReadBox itself narrows by box server-side, e.g. tiledbio).
	index map[string]*lodrecon.RTree
}

// NewCropper constructs a Cropper. chunkIndex may be nil for a source whose
// reader performs its own spatial narrowing.
func NewCropper(cfg *config.CropConfig, reader iodefs.PointCloudReader, sources []source.PointCloudSource, chunkIndex map[string]*lodrecon.RTree) *Cropper {
	return &Cropper{cfg: cfg, reader: reader, sources: sources, index: chunkIndex}
}

// Build executes spec.md §4.4's algorithm for a single footprint.
func (c *Cropper) Build(ctx context.Context, fp source.Footprint, targetDate int, targetDateSet bool) (*Crop, error) {
	tester := lodrecon.NewPolygonTester(fp.Ring)
	area := fp.Ring.Area()
	if area <= 0 {
		return nil, lodrecon.ErrPolygonDegenerate
	}
	box := fp.Bounds().Expand(float64(c.cfg.BoundingBoxMargin))
	// Read a box wide enough to also serve the ground-elevation fallback
	// (spec.md §4.4 step 8 widens to the footprint bbox + 10m when no
	// ground point falls inside the footprint itself).
	readBox := fp.Bounds().Expand(math.Max(float64(c.cfg.BoundingBoxMargin), 10))

	candidates := make([]sourceCandidate, 0, len(c.sources))
	for _, src := range c.sources {
		raw, inFootprint, err := c.readSource(ctx, src, readBox, tester)
		if err != nil {
			return nil, fmt.Errorf("%w: source %s: %v", lodrecon.ErrReaderIO, src.Name, err)
		}
		density := buildingDensity(inFootprint, src) / area
		candidates = append(candidates, sourceCandidate{source: src, points: inFootprint, rawPoints: raw, density: density})
	}

	chosen, isMutated, ok := Arbitrate(candidates, float64(c.cfg.MinDensity), float64(c.cfg.MaxPointDensityLowLoD), targetDate, targetDateSet)
	if !ok {
		return &Crop{Footprint: fp.Ring, NoData: true, ForceLowLoD: fp.ForceLowLoD}, nil
	}

	groundPts := lo.Filter(chosen.points, func(p lodrecon.Point3, _ int) bool { return p.Classification == chosen.source.GroundClass })
	buildingPts := lo.Filter(chosen.points, func(p lodrecon.Point3, _ int) bool { return p.Classification == chosen.source.BuildingClass })

	raster, nodataFraction := Rasterize(buildingPts, fp.Ring, box, float64(c.cfg.CellSize))

	radius, center, hasCenter := NoDataDisc(buildingPts, fp.Ring, raster)

	rawGroundPts := lo.Filter(chosen.rawPoints, func(p lodrecon.Point3, _ int) bool { return p.Classification == chosen.source.GroundClass })
	groundElev, needsFallback := GroundElevation(groundPts, rawGroundPts, box)

	forceLowLoD := fp.ForceLowLoD || chosen.source.ForceLowLoD || chosen.density < float64(c.cfg.MaxPointDensityLowLoD)

	crop := &Crop{
		Points:          lodrecon.PointCollection{Points: chosen.points},
		GroundPoints:    groundPts,
		RoofPoints:      buildingPts,
		Footprint:       fp.Ring,
		Raster:          raster,
		NoDataRadius:    radius,
		NoDataCenter:    center,
		HasNoDataCenter: hasCenter,
		NoDataFraction:  nodataFraction,
		PointDensity:    float64(len(buildingPts)) / area,
		GroundElevation: groundElev,
		NeedsFallback:   needsFallback,
		AcquisitionYear: chosen.source.AcquisitionYear,
		IsMutated:       isMutated,
		ForceLowLoD:     forceLowLoD,
	}
	crop.Quality = BuildQualityInfo(candidates, chosen)
	return crop, nil
}

// readSource streams the points of one source inside box, discarding
// classes outside {ground, building} (spec.md §4.4 step 2). It returns both
// the raw (box-only) points and the subset additionally inside the
// footprint polygon; the raw set only ever feeds the ground-elevation
// fallback (spec.md §4.4 step 8), never the crop's emitted point collection.
func (c *Cropper) readSource(ctx context.Context, src source.PointCloudSource, box lodrecon.AABB, tester *lodrecon.PolygonTester) (raw, inFootprint []lodrecon.Point3, err error) {
	if idx, ok := c.index[src.Name]; ok {
		// chunk-level narrowing is informational only when the reader
		// already narrows server-side (e.g. tiledbio); a future batched
		// reader would use these handles to avoid touching chunks the
		// index proves cannot intersect box.
		_ = idx.Query(box)
	}

	err = c.reader.ReadBox(ctx, src.Location, box, func(sp iodefs.SourcePoint) error {
		if sp.Classification != src.GroundClass && sp.Classification != src.BuildingClass {
			return nil
		}
		p3 := lodrecon.Point3{
			X: sp.X, Y: sp.Y, Z: sp.Z,
			Classification: sp.Classification,
			SourceQuality:  sp.SourceQuality,
		}
		raw = append(raw, p3)
		if tester.Test(lodrecon.Point2{X: sp.X, Y: sp.Y}) {
			inFootprint = append(inFootprint, p3)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return raw, inFootprint, nil
}

func buildingDensity(pts []lodrecon.Point3, src source.PointCloudSource) float64 {
	n := 0
	for _, p := range pts {
		if p.Classification == src.BuildingClass {
			n++
		}
	}
	return float64(n)
}

// GroundElevation implements spec.md §4.4 step 8: median Z of ground points
// inside the footprint, falling back to the bounding box expanded by 10m,
// and flagging NeedsFallback if still empty so C5 can supply a value.
// rawGroundPts must already be restricted to the footprint bbox expanded by
// at least 10m (the Cropper's readBox guarantees this).
func GroundElevation(groundPts, rawGroundPts []lodrecon.Point3, box lodrecon.AABB) (elevation float64, needsFallback bool) {
	if len(groundPts) > 0 {
		return lodrecon.Median(zValues(groundPts)), false
	}
	expanded := box.Expand(10)
	var fallback []lodrecon.Point3
	for _, p := range rawGroundPts {
		if expanded.Contains(lodrecon.Point2{X: p.X, Y: p.Y}) {
			fallback = append(fallback, p)
		}
	}
	if len(fallback) > 0 {
		return lodrecon.Median(zValues(fallback)), false
	}
	return math.NaN(), true
}

func zValues(pts []lodrecon.Point3) []float64 {
	out := make([]float64, len(pts))
	for i, p := range pts {
		out[i] = p.Z
	}
	return out
}
