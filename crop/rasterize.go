package crop

import "github.com/sixy6e/lod-recon"

// Rasterize implements spec.md §4.4 step 5/6: a grid whose cells store the
// point count of building-class points falling inside, no-data-sentinel for
// cells fully outside the polygon, and the resulting nodata_fraction (the
// proportion of inside cells with zero count).
func Rasterize(points []lodrecon.Point3, ring lodrecon.LinearRing, box lodrecon.AABB, cellSize float64) (raster *lodrecon.ImageMap, nodataFraction float64) {
	width, height := lodrecon.DimsForFootprint(box, cellSize)
	raster = lodrecon.NewImageMap("point_count", width, height, cellSize, box.MinX, box.MinY)

	tester := lodrecon.NewPolygonTester(ring)

	insideCells := 0
	counts := make([]int, width*height)
	isInside := make([]bool, width*height)
	for row := 0; row < height; row++ {
		for col := 0; col < width; col++ {
			center := raster.CellCenter(col, row)
			if tester.Test(center) {
				isInside[raster.Index(col, row)] = true
				insideCells++
			}
		}
	}

	for _, p := range points {
		col, row := raster.CellOf(lodrecon.Point2{X: p.X, Y: p.Y})
		if col < 0 || col >= width || row < 0 || row >= height {
			continue
		}
		if !isInside[raster.Index(col, row)] {
			continue
		}
		counts[raster.Index(col, row)]++
	}

	zeroInside := 0
	for row := 0; row < height; row++ {
		for col := 0; col < width; col++ {
			idx := raster.Index(col, row)
			if !isInside[idx] {
				raster.Values[idx] = lodrecon.NoDataSentinel
				continue
			}
			raster.Values[idx] = float64(counts[idx])
			if counts[idx] == 0 {
				zeroInside++
			}
		}
	}

	if insideCells > 0 {
		nodataFraction = float64(zeroInside) / float64(insideCells)
	}
	return raster, nodataFraction
}
