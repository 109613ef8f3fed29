// Package elevation implements C5: a ground elevation provider, either a
// constant value or a Delaunay-interpolated surface over ground samples
// (spec.md §4.5).
package elevation

import (
	"github.com/sixy6e/lod-recon"
)

// Provider is the elevation collaborator C6 reconstructs against.
type Provider interface {
	Get(p lodrecon.Point2) float64
	GetPercentile(q float64) float64
}

// Constant returns floorElevation for every query, the provider used when a
// crop's ground_elevation already needed its own fallback (needs_fallback)
// and no denser ground surface is available.
type Constant struct {
	FloorElevation float64
}

func NewConstant(floorElevation float64) *Constant {
	return &Constant{FloorElevation: floorElevation}
}

func (c *Constant) Get(lodrecon.Point2) float64    { return c.FloorElevation }
func (c *Constant) GetPercentile(float64) float64 { return c.FloorElevation }

// Interpolated linearly interpolates ground Z within the triangulation of
// ground samples built at construction, and returns the nearest vertex's Z
// outside the convex hull.
type Interpolated struct {
	tri      *triangulation
	vertexZ  []float64
	sortedZ  []float64
}

// NewInterpolated builds a constrained-free 2D Delaunay triangulation from
// groundPoints. Returns false if fewer than 3 non-collinear points were
// supplied (caller should fall back to Constant).
func NewInterpolated(groundPoints []lodrecon.Point3) (*Interpolated, bool) {
	if len(groundPoints) < 3 {
		return nil, false
	}
	pts := make([]lodrecon.Point2, len(groundPoints))
	z := make([]float64, len(groundPoints))
	for i, p := range groundPoints {
		pts[i] = lodrecon.Point2{X: p.X, Y: p.Y}
		z[i] = p.Z
	}
	tri := buildTriangulation(pts)
	if len(tri.triangles) == 0 {
		return nil, false
	}
	sortedZ := append([]float64(nil), z...)
	return &Interpolated{tri: tri, vertexZ: z, sortedZ: sortedZ}, true
}

// Get implements spec.md §4.5's Interpolated.get: barycentric interpolation
// within the containing triangle, or the nearest vertex's Z outside it.
func (in *Interpolated) Get(p lodrecon.Point2) float64 {
	if t, ok := in.tri.locate(p); ok {
		a, b, c := in.tri.vertices[t.a], in.tri.vertices[t.b], in.tri.vertices[t.c]
		u, v, w := barycentric(a, b, c, p)
		return u*in.vertexZ[t.a] + v*in.vertexZ[t.b] + w*in.vertexZ[t.c]
	}
	return in.nearestVertexZ(p)
}

func (in *Interpolated) nearestVertexZ(p lodrecon.Point2) float64 {
	bestIdx := 0
	bestDist := distSq(in.tri.vertices[bestIdx], p)
	for idx := 1; idx < len(in.tri.vertices); idx++ {
		d := distSq(in.tri.vertices[idx], p)
		if d < bestDist {
			bestDist = d
			bestIdx = idx
		}
	}
	return in.vertexZ[bestIdx]
}

func distSq(a, p lodrecon.Point2) float64 {
	dx, dy := a.X-p.X, a.Y-p.Y
	return dx*dx + dy*dy
}

// GetPercentile returns the q-th percentile of the triangulation's vertex Z
// values (spec.md §4.5).
func (in *Interpolated) GetPercentile(q float64) float64 {
	return lodrecon.Percentile(in.sortedZ, q)
}
