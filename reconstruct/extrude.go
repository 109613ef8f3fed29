package reconstruct

import (
	"github.com/sixy6e/lod-recon"
)

// ExtrudeLowLoD implements spec.md §4.6 Path A: a single floor face, a
// single horizontal roof face at the roof-class 70th percentile, and
// vertical walls per footprint edge. The floor is wound opposite to the
// roof, so for a counter-clockwise ring every face's normal points outward.
func ExtrudeLowLoD(ring lodrecon.LinearRing, groundElevation, roofZ float64) lodrecon.Mesh {
	var mesh lodrecon.Mesh

	floorIdx := make([]int, len(ring.Outer))
	roofIdx := make([]int, len(ring.Outer))
	for i, v := range ring.Outer {
		floorIdx[i] = mesh.AddVertex(lodrecon.Point3{X: v.X, Y: v.Y, Z: groundElevation})
		roofIdx[i] = mesh.AddVertex(lodrecon.Point3{X: v.X, Y: v.Y, Z: roofZ})
	}

	floorFace := make([]int, len(floorIdx))
	for i, idx := range floorIdx {
		floorFace[len(floorIdx)-1-i] = idx
	}
	mesh.AddFace(lodrecon.SurfaceGround, floorFace...)
	mesh.AddFace(lodrecon.SurfaceRoof, roofIdx...)

	n := len(ring.Outer)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		mesh.AddFace(lodrecon.SurfaceWall, floorIdx[i], floorIdx[j], roofIdx[j], roofIdx[i])
	}

	return mesh
}

// RoofPolygon is one merged output polygon from AssemblePolygons: the cells
// sharing a label, reduced to their outline.
type RoofPolygon struct {
	Label    int
	Outline  []lodrecon.Point2
	PixelCount int
}

// AssemblePolygons implements spec.md §4.6 Path B step 4: merge arrangement
// faces sharing the same label into roof polygons, dropping any below
// minArea. Each polygon's outline is the rectilinear boundary of its cell
// union, traced directly from the raster grid (faces are raster cells, so
// the outline is exact, not an approximation).
func AssemblePolygons(arr *Arrangement, minArea float64) []RoofPolygon {
	byLabel := make(map[int][]int)
	for i, f := range arr.Faces {
		byLabel[f.Label] = append(byLabel[f.Label], i)
	}

	cellArea := arr.CellSize * arr.CellSize

	var polys []RoofPolygon
	for label, faceIdxs := range byLabel {
		area := float64(len(faceIdxs)) * cellArea
		if area < minArea {
			continue
		}
		outline := cellUnionOutline(arr, faceIdxs)
		pixelCount := 0
		for _, fi := range faceIdxs {
			pixelCount += arr.Faces[fi].PixelCount
		}
		polys = append(polys, RoofPolygon{Label: label, Outline: outline, PixelCount: pixelCount})
	}
	return polys
}

// cellUnionOutline traces the outer boundary of the union of the given
// cells as a simple rectilinear polygon, by walking the set of boundary
// edges (an edge between an included cell and an excluded one) into a
// single ring. Cell sets with holes or multiple disjoint components return
// only the first ring found; downstream extrusion treats every roof
// polygon as simply connected, matching spec.md's scope.
func cellUnionOutline(arr *Arrangement, faceIdxs []int) []lodrecon.Point2 {
	included := make(map[[2]int]bool, len(faceIdxs))
	for _, fi := range faceIdxs {
		f := arr.Faces[fi]
		included[[2]int{f.Col, f.Row}] = true
	}

	type corner struct{ x, y int }
	boundary := make(map[[2]corner]bool)
	addEdge := func(a, b corner) {
		key := [2]corner{a, b}
		rev := [2]corner{b, a}
		if boundary[rev] {
			delete(boundary, rev)
			return
		}
		boundary[key] = true
	}

	for cell := range included {
		col, row := cell[0], cell[1]
		bl := corner{col, row}
		br := corner{col + 1, row}
		tr := corner{col + 1, row + 1}
		tl := corner{col, row + 1}
		if !included[[2]int{col, row - 1}] {
			addEdge(bl, br)
		}
		if !included[[2]int{col + 1, row}] {
			addEdge(br, tr)
		}
		if !included[[2]int{col, row + 1}] {
			addEdge(tr, tl)
		}
		if !included[[2]int{col - 1, row}] {
			addEdge(tl, bl)
		}
	}

	if len(boundary) == 0 {
		return nil
	}

	adj := make(map[corner]corner, len(boundary))
	var start corner
	for e := range boundary {
		adj[e[0]] = e[1]
		start = e[0]
	}

	var ring []lodrecon.Point2
	cur := start
	for {
		ring = append(ring, lodrecon.Point2{
			X: arr.OriginX + float64(cur.x)*arr.CellSize,
			Y: arr.OriginY + float64(cur.y)*arr.CellSize,
		})
		next, ok := adj[cur]
		if !ok || next == start {
			break
		}
		cur = next
	}
	return ring
}

// ExtrudePlanar implements spec.md §4.6 Path B step 5: for each roof
// polygon, evaluate the labelled plane's Z at each vertex, drop a floor at
// groundElevation, and emit roof, floor, and wall faces so the result is
// water-tight, the same per-polygon shape (and winding) ExtrudeLowLoD
// builds.
func ExtrudePlanar(polys []RoofPolygon, planes []PlaneRegion, groundElevation float64) lodrecon.Mesh {
	var mesh lodrecon.Mesh

	for _, poly := range polys {
		if len(poly.Outline) < 3 {
			continue
		}
		plane := planes[poly.Label].Plane

		floorIdx := make([]int, len(poly.Outline))
		roofIdx := make([]int, len(poly.Outline))
		for i, v := range poly.Outline {
			z := plane.Z(v.X, v.Y)
			floorIdx[i] = mesh.AddVertex(lodrecon.Point3{X: v.X, Y: v.Y, Z: groundElevation})
			roofIdx[i] = mesh.AddVertex(lodrecon.Point3{X: v.X, Y: v.Y, Z: z})
		}

		floorFace := make([]int, len(floorIdx))
		for i, idx := range floorIdx {
			floorFace[len(floorIdx)-1-i] = idx
		}
		mesh.AddFace(lodrecon.SurfaceGround, floorFace...)
		mesh.AddFace(lodrecon.SurfaceRoof, roofIdx...)

		n := len(poly.Outline)
		for i := 0; i < n; i++ {
			j := (i + 1) % n
			mesh.AddFace(lodrecon.SurfaceWall, floorIdx[i], floorIdx[j], roofIdx[j], roofIdx[i])
		}
	}

	return mesh
}
