package iodefs

import (
	"context"

	"github.com/sixy6e/lod-recon"
)

// MemoryPointCloudReader is a reference PointCloudReader over points already
// resident in memory, keyed by source location. It exists for tests; the
// CLI reads point clouds through tiledbio's TileDBPointCloudReader.
type MemoryPointCloudReader struct {
	bySource map[string][]SourcePoint
}

// NewMemoryPointCloudReader builds a reader over the given source->points
// map. Callers own the map; it is not copied.
func NewMemoryPointCloudReader(bySource map[string][]SourcePoint) *MemoryPointCloudReader {
	return &MemoryPointCloudReader{bySource: bySource}
}

// ReadBox implements PointCloudReader by scanning the in-memory slice for
// the named source and yielding every point whose (x, y) falls in box.
func (r *MemoryPointCloudReader) ReadBox(ctx context.Context, location string, box lodrecon.AABB, yield func(SourcePoint) error) error {
	for _, p := range r.bySource[location] {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if p.X < box.MinX || p.X > box.MaxX || p.Y < box.MinY || p.Y > box.MaxY {
			continue
		}
		if err := yield(p); err != nil {
			return err
		}
	}
	return nil
}

// MemoryFootprintReader is a reference FootprintReader over footprints
// already resident in memory.
type MemoryFootprintReader struct {
	records []FootprintRecord
}

// NewMemoryFootprintReader builds a reader over the given records.
func NewMemoryFootprintReader(records []FootprintRecord) *MemoryFootprintReader {
	return &MemoryFootprintReader{records: records}
}

// ReadAll implements FootprintReader.
func (r *MemoryFootprintReader) ReadAll(ctx context.Context, location string, yield func(FootprintRecord) error) error {
	for _, rec := range r.records {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := yield(rec); err != nil {
			return err
		}
	}
	return nil
}
