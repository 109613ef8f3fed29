// Package vectorio adapts iodefs.FootprintReader to a real vector data
// source. The pack carries no full godal repo to ground exact call sites on
// (only its go.mod manifest under the retrieval pack's dependency
// inventory), so this file is deliberately thin: it opens one layer and
// walks its features, trusting godal's documented Open/Layers/NextFeature
// shape rather than a read source file. Anything beyond that minimal
// surface (spatial filters, field introspection) is left for a future
// revision once a concrete feature schema is pinned down.
package vectorio

import (
	"context"
	"errors"
	"fmt"

	"github.com/airbusgeo/godal"

	"github.com/sixy6e/lod-recon"
	"github.com/sixy6e/lod-recon/iodefs"
)

var ErrVectorRead = errors.New("vector read error")

func init() {
	godal.RegisterAll()
}

// GeoPackageFootprintReader implements iodefs.FootprintReader over a
// GeoPackage (or any other OGR vector source godal can open), reading the
// named layer's features as footprint outlines.
//
// Expected fields per spec.md §3's Footprint, read by attribute name (field
// names are a deployment convention, not hardcoded by godal): id,
// construction_year, force_low_lod.
type GeoPackageFootprintReader struct {
	// LayerName selects a specific layer when the source has more than one;
	// empty selects the source's first layer.
	LayerName string
}

// NewGeoPackageFootprintReader builds a reader over the named layer (or the
// default layer if layerName is empty).
func NewGeoPackageFootprintReader(layerName string) *GeoPackageFootprintReader {
	return &GeoPackageFootprintReader{LayerName: layerName}
}

// ReadAll implements iodefs.FootprintReader.
func (r *GeoPackageFootprintReader) ReadAll(ctx context.Context, location string, yield func(iodefs.FootprintRecord) error) error {
	ds, err := godal.Open(location)
	if err != nil {
		return fmt.Errorf("%w: opening %s: %v", ErrVectorRead, location, err)
	}
	defer ds.Close()

	layers := ds.Layers()
	if len(layers) == 0 {
		return fmt.Errorf("%w: %s has no layers", ErrVectorRead, location)
	}
	layer := layers[0]
	if r.LayerName != "" {
		for _, l := range layers {
			if l.Name() == r.LayerName {
				layer = l
				break
			}
		}
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		feature, ok := layer.NextFeature()
		if !ok {
			break
		}

		rec, err := toFootprintRecord(feature)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrVectorRead, err)
		}
		if err := yield(rec); err != nil {
			return err
		}
	}

	return nil
}

func toFootprintRecord(feature *godal.Feature) (iodefs.FootprintRecord, error) {
	geom := feature.Geometry()
	ring, err := ringFromGeometry(geom)
	if err != nil {
		return iodefs.FootprintRecord{}, err
	}

	rec := iodefs.FootprintRecord{
		ID:   feature.FieldAsString("id"),
		Ring: ring,
	}
	if year := feature.FieldAsInt("construction_year"); year > 0 {
		rec.ConstructionYear = year
		rec.HasConstructionYear = true
	}
	rec.ForceLowLoD = feature.FieldAsInt("force_low_lod") != 0

	return rec, nil
}

// ringFromGeometry flattens a single polygon's outer+hole rings into
// lodrecon.LinearRing, dropping the closing duplicate vertex every OGR
// polygon ring carries (spec.md §3's LinearRing leaves closure implicit).
func ringFromGeometry(geom *godal.Geometry) (lodrecon.LinearRing, error) {
	if geom == nil {
		return lodrecon.LinearRing{}, errors.New("feature has no geometry")
	}

	rings := geom.SubGeometries()
	if len(rings) == 0 {
		return lodrecon.LinearRing{}, errors.New("polygon has no rings")
	}

	outer := ringVertices(rings[0])
	holes := make([][]lodrecon.Point2, 0, len(rings)-1)
	for _, h := range rings[1:] {
		holes = append(holes, ringVertices(h))
	}

	return lodrecon.LinearRing{Outer: outer, Holes: holes}, nil
}

func ringVertices(ring *godal.Geometry) []lodrecon.Point2 {
	coords := ring.Coordinates()
	if len(coords) > 1 && coords[0] == coords[len(coords)-1] {
		coords = coords[:len(coords)-1]
	}
	out := make([]lodrecon.Point2, len(coords))
	for i, c := range coords {
		out[i] = lodrecon.Point2{X: c[0], Y: c[1]}
	}
	return out
}
