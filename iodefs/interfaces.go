// Package iodefs declares the external collaborator interfaces of spec.md
// §6: readers and writers the core pipeline consumes but does not
// implement in full (LAS/LAZ, GeoPackage, raster and mesh encoders, the
// coordinate-reference-system library). Concrete adapters live in
// tiledbio (point clouds, meshes, rasters) and vectorio (footprints); a
// minimal in-memory point-cloud and footprint reader lives alongside the
// interfaces here for tests.
package iodefs

import (
	"context"

	"github.com/sixy6e/lod-recon"
)

// SourcePoint is one record a PointCloudReader yields: (x, y, z,
// classification, source_quality), spec.md §6.
type SourcePoint struct {
	X, Y, Z        float64
	Classification lodrecon.Classification
	SourceQuality  int
}

// PointCloudReader yields a lazy sequence of points within a bounding box
// from a storage location handle. Implementations are required to be
// either internally thread-safe or pooled one-per-worker (spec.md §5).
type PointCloudReader interface {
	// ReadBox streams every point of the named source whose 2D projection
	// falls inside box, invoking yield for each. Returning a non-nil error
	// from yield stops iteration and is propagated to the caller.
	ReadBox(ctx context.Context, location string, box lodrecon.AABB, yield func(SourcePoint) error) error
}

// FootprintRecord is one footprint as read from a vector source: stable id,
// outer+hole rings, and the subset of attributes the crop/reconstruct
// stages consume directly (spec.md §3).
type FootprintRecord struct {
	ID              string
	Ring            lodrecon.LinearRing
	ConstructionYear int
	HasConstructionYear bool
	ForceLowLoD     bool
}

// FootprintReader yields every footprint record of a vector source.
type FootprintReader interface {
	ReadAll(ctx context.Context, location string, yield func(FootprintRecord) error) error
}

// SpatialReferenceSystem is constructed from an EPSG code or WKT string and
// exposes just enough to validate and round-trip a CRS; full coordinate
// transforms are out of scope (spec.md §1).
type SpatialReferenceSystem interface {
	IsValid() bool
	ExportWKT() (string, error)
	AuthName() string
	AuthCode() string
}

// LASWriter persists a point cloud, e.g. the crop's input points for audit,
// to a LAS/LAZ sink.
type LASWriter interface {
	WritePointCloud(ctx context.Context, points []SourcePoint, path string) error
}

// RasterWriter persists one or more named raster bands (e.g. the crop's
// data-coverage raster) to a GDAL-equivalent sink.
type RasterWriter interface {
	WriteBands(ctx context.Context, path string, bands []*lodrecon.ImageMap) error
}

// MeshWriter persists a reconstructed building mesh (CityJSON-equivalent or
// similar), keyed by footprint id, with arbitrary attributes attached.
type MeshWriter interface {
	WriteMesh(ctx context.Context, id string, mesh lodrecon.BuildingMesh, attrs map[string]any) error
}
