// Package validate implements C7: planarity, closedness, self-intersection
// and orientation checks on a reconstructed mesh (spec.md §4.7).
package validate

import (
	"math"

	"github.com/sixy6e/lod-recon"
	"github.com/sixy6e/lod-recon/config"
)

// ErrorCode names one failed check, kept as a string code so a writer can
// serialise it without a lookup table (spec.md §4.7's "list of error
// codes").
type ErrorCode string

const (
	ErrNotPlanar       ErrorCode = "not_planar"
	ErrNotClosed       ErrorCode = "not_closed"
	ErrSelfIntersects  ErrorCode = "self_intersects"
	ErrBadOrientation  ErrorCode = "bad_orientation"
)

// Report is C7's output: BuildingResult minus the mesh itself (spec.md §3).
type Report struct {
	Errors         []ErrorCode
	ErrorFaces     []lodrecon.Face
	ErrorLocations []lodrecon.Point3
}

// Valid reports whether the mesh passed every check.
func (r Report) Valid() bool { return len(r.Errors) == 0 }

// Validate runs every check of spec.md §4.7 against mesh without mutating
// it.
func Validate(mesh lodrecon.Mesh, cfg config.ValidationConfig) Report {
	var r Report

	checkPlanarity(mesh, cfg, &r)
	checkClosedness(mesh, &r)
	checkSelfIntersection(mesh, &r)
	checkOrientation(mesh, &r)

	return r
}

// checkPlanarity verifies every face's supporting vertices sit within
// tol_planarity_d2p of the face's own best-fit plane. It checks distance
// only; tol_planarity_normals is not consulted.
func checkPlanarity(mesh lodrecon.Mesh, cfg config.ValidationConfig, r *Report) {
	for _, f := range mesh.Faces {
		if len(f.Indices) < 3 {
			continue
		}
		pts := make([]lodrecon.Point3, len(f.Indices))
		for i, idx := range f.Indices {
			pts[i] = mesh.Vertices[idx]
		}
		nx, ny, nz, d, ok := bestFitNormal(pts)
		if !ok {
			continue
		}
		maxDist := 0.0
		for _, p := range pts {
			dist := math.Abs(nx*p.X+ny*p.Y+nz*p.Z+d) / math.Sqrt(nx*nx+ny*ny+nz*nz)
			if dist > maxDist {
				maxDist = dist
			}
		}
		if maxDist > float64(cfg.TolPlanarityD2P) {
			r.Errors = append(r.Errors, ErrNotPlanar)
			r.ErrorFaces = append(r.ErrorFaces, f)
			r.ErrorLocations = append(r.ErrorLocations, pts...)
		}
	}
}

// checkClosedness implements spec.md §3's water-tightness invariant: every
// interior edge shared by exactly two faces.
func checkClosedness(mesh lodrecon.Mesh, r *Report) {
	counts := mesh.EdgeFaceCounts()
	for _, n := range counts {
		if n != 2 {
			r.Errors = append(r.Errors, ErrNotClosed)
			return
		}
	}
}

// checkSelfIntersection tests every pair of edges from different faces for
// a proper crossing in XY, skipping pairs whose Z ranges do not overlap.
// Face rings are used as they are, without triangulation; edges that only
// touch or are collinear do not count as crossing.
type faceSegment struct {
	a, b lodrecon.Point3
	face int
}

func checkSelfIntersection(mesh lodrecon.Mesh, r *Report) {
	var segs []faceSegment
	for fi, f := range mesh.Faces {
		n := len(f.Indices)
		for i := 0; i < n; i++ {
			a := mesh.Vertices[f.Indices[i]]
			b := mesh.Vertices[f.Indices[(i+1)%n]]
			segs = append(segs, faceSegment{a: a, b: b, face: fi})
		}
	}
	for i := 0; i < len(segs); i++ {
		for j := i + 1; j < len(segs); j++ {
			if segs[i].face == segs[j].face {
				continue
			}
			if !sameElevationRange(segs[i], segs[j]) {
				continue
			}
			if segmentsCross2D(segs[i].a, segs[i].b, segs[j].a, segs[j].b) {
				r.Errors = append(r.Errors, ErrSelfIntersects)
				r.ErrorFaces = append(r.ErrorFaces, mesh.Faces[segs[i].face], mesh.Faces[segs[j].face])
				return
			}
		}
	}
}

func sameElevationRange(a, b faceSegment) bool {
	aMin, aMax := math.Min(a.a.Z, a.b.Z), math.Max(a.a.Z, a.b.Z)
	bMin, bMax := math.Min(b.a.Z, b.b.Z), math.Max(b.a.Z, b.b.Z)
	return aMin <= bMax && bMin <= aMax
}

func segmentsCross2D(a1, a2, b1, b2 lodrecon.Point3) bool {
	d1 := cross2(b2.X-b1.X, b2.Y-b1.Y, a1.X-b1.X, a1.Y-b1.Y)
	d2 := cross2(b2.X-b1.X, b2.Y-b1.Y, a2.X-b1.X, a2.Y-b1.Y)
	d3 := cross2(a2.X-a1.X, a2.Y-a1.Y, b1.X-a1.X, b1.Y-a1.Y)
	d4 := cross2(a2.X-a1.X, a2.Y-a1.Y, b2.X-a1.X, b2.Y-a1.Y)
	return ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) && ((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0))
}

func cross2(ux, uy, vx, vy float64) float64 { return ux*vy - uy*vx }

// checkOrientation verifies every face's computed normal points away from
// the mesh centroid (outward-facing, per spec.md §4.7(iv)).
func checkOrientation(mesh lodrecon.Mesh, r *Report) {
	if len(mesh.Vertices) == 0 {
		return
	}
	var cx, cy, cz float64
	for _, v := range mesh.Vertices {
		cx += v.X
		cy += v.Y
		cz += v.Z
	}
	n := float64(len(mesh.Vertices))
	cx, cy, cz = cx/n, cy/n, cz/n

	for _, f := range mesh.Faces {
		if len(f.Indices) < 3 {
			continue
		}
		pts := make([]lodrecon.Point3, len(f.Indices))
		for i, idx := range f.Indices {
			pts[i] = mesh.Vertices[idx]
		}
		nx, ny, nz, _, ok := bestFitNormal(pts)
		if !ok {
			continue
		}
		fx, fy, fz := faceCentroid(pts)
		outward := (fx-cx)*nx + (fy-cy)*ny + (fz-cz)*nz
		if outward < 0 {
			r.Errors = append(r.Errors, ErrBadOrientation)
			r.ErrorFaces = append(r.ErrorFaces, f)
		}
	}
}

func faceCentroid(pts []lodrecon.Point3) (x, y, z float64) {
	for _, p := range pts {
		x += p.X
		y += p.Y
		z += p.Z
	}
	n := float64(len(pts))
	return x / n, y / n, z / n
}

// bestFitNormal computes a Newell's-method normal and the plane's D term
// for a (possibly non-planar) polygon's vertices.
func bestFitNormal(pts []lodrecon.Point3) (nx, ny, nz, d float64, ok bool) {
	n := len(pts)
	if n < 3 {
		return 0, 0, 0, 0, false
	}
	for i := 0; i < n; i++ {
		cur := pts[i]
		next := pts[(i+1)%n]
		nx += (cur.Y - next.Y) * (cur.Z + next.Z)
		ny += (cur.Z - next.Z) * (cur.X + next.X)
		nz += (cur.X - next.X) * (cur.Y + next.Y)
	}
	length := math.Sqrt(nx*nx + ny*ny + nz*nz)
	if length == 0 {
		return 0, 0, 0, 0, false
	}
	nx, ny, nz = nx/length, ny/length, nz/length
	cx, cy, cz := faceCentroid(pts)
	d = -(nx*cx + ny*cy + nz*cz)
	return nx, ny, nz, d, true
}
