package reconstruct

import (
	"math"

	"github.com/sixy6e/lod-recon"
)

// Arrangement is spec.md §4.6 Path B step 2's 2D arrangement, realised over
// the crop's raster grid: each inside-footprint cell is a face (the spec's
// own "pixel count" face attribute is the giveaway that a raster is the
// intended substrate, not a full boolean line-segment overlay), and faces
// share an edge with their four orthogonal raster neighbours. Arena-indexed:
// faces are referenced by index into Faces, never by pointer, so the label
// assignment and polygon-merge stages can carry plain ints.
type Arrangement struct {
	CellSize float64
	OriginX  float64
	OriginY  float64
	Width    int
	Height   int

	Faces []ArrFace
	Edges []ArrEdge

	// cellFace maps a raster (col,row) to its Faces index, or -1 if the
	// cell isn't a face (outside the footprint).
	cellFace []int
}

// ArrFace is one arrangement face's attributes (spec.md §4.6 step 2).
type ArrFace struct {
	Col, Row       int
	InsideFootprint bool
	Ground          bool
	Pctl50, Pctl70, Pctl97 float64
	PixelCount      int

	// FitRMS[i] is the RMS distance of this face's supporting points to
	// candidate plane i, the unary cost label assignment consults.
	FitRMS []float64

	Label int // index into the candidate PlaneRegion slice, -1 until assigned
}

// ArrEdge connects two face indices across a shared raster border.
type ArrEdge struct {
	A, B   int
	Blocks bool
}

// BuildArrangement bins points into the raster and computes each
// inside-footprint cell's face attributes against every candidate plane.
func BuildArrangement(raster *lodrecon.ImageMap, tester *lodrecon.PolygonTester, points []lodrecon.Point3, planes []PlaneRegion) *Arrangement {
	arr := &Arrangement{
		CellSize: raster.CellSize,
		OriginX:  raster.OriginX,
		OriginY:  raster.OriginY,
		Width:    raster.Width,
		Height:   raster.Height,
		cellFace: make([]int, raster.Width*raster.Height),
	}
	for i := range arr.cellFace {
		arr.cellFace[i] = -1
	}

	cellPoints := make([][]lodrecon.Point3, raster.Width*raster.Height)
	for _, p := range points {
		col, row := raster.CellOf(lodrecon.Point2{X: p.X, Y: p.Y})
		if col < 0 || col >= raster.Width || row < 0 || row >= raster.Height {
			continue
		}
		idx := raster.Index(col, row)
		cellPoints[idx] = append(cellPoints[idx], p)
	}

	for row := 0; row < raster.Height; row++ {
		for col := 0; col < raster.Width; col++ {
			center := raster.CellCenter(col, row)
			if !tester.Test(center) {
				continue
			}
			idx := raster.Index(col, row)
			pts := cellPoints[idx]

			face := ArrFace{
				Col: col, Row: row,
				InsideFootprint: true,
				PixelCount:      len(pts),
				FitRMS:          make([]float64, len(planes)),
			}
			if len(pts) > 0 {
				zs := make([]float64, len(pts))
				for i, p := range pts {
					zs[i] = p.Z
				}
				face.Pctl50 = lodrecon.Percentile(zs, 0.50)
				face.Pctl70 = lodrecon.Percentile(zs, 0.70)
				face.Pctl97 = lodrecon.Percentile(zs, 0.97)
			}
			for pi, region := range planes {
				face.FitRMS[pi] = rmsToPlane(region.Plane, pts)
			}

			arr.cellFace[idx] = len(arr.Faces)
			arr.Faces = append(arr.Faces, face)
		}
	}

	for row := 0; row < raster.Height; row++ {
		for col := 0; col < raster.Width; col++ {
			idx := raster.Index(col, row)
			fi := arr.cellFace[idx]
			if fi < 0 {
				continue
			}
			if col+1 < raster.Width {
				if fj := arr.cellFace[raster.Index(col+1, row)]; fj >= 0 {
					arr.Edges = append(arr.Edges, ArrEdge{A: fi, B: fj})
				}
			}
			if row+1 < raster.Height {
				if fj := arr.cellFace[raster.Index(col, row+1)]; fj >= 0 {
					arr.Edges = append(arr.Edges, ArrEdge{A: fi, B: fj})
				}
			}
		}
	}

	return arr
}

func rmsToPlane(p Plane, points []lodrecon.Point3) float64 {
	if len(points) == 0 {
		return 0
	}
	var sumSq float64
	for _, pt := range points {
		d := planeDistance(p, pt)
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(points)))
}
