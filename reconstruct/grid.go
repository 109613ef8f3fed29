package reconstruct

import (
	"github.com/sixy6e/lod-recon"
)

// pointGrid buckets points into a uniform 2D grid (XY only — roof surfaces
// are never overhangs at this LoD) for coarse neighbour queries during
// region growing.
type pointGrid struct {
	points []lodrecon.Point3
	cell   float64
	minX   float64
	minY   float64
	buckets map[[2]int][]int
}

func newPointGrid(points []lodrecon.Point3, cell float64) *pointGrid {
	g := &pointGrid{points: points, cell: cell, buckets: make(map[[2]int][]int)}
	if len(points) == 0 {
		return g
	}
	minX, minY := points[0].X, points[0].Y
	for _, p := range points {
		if p.X < minX {
			minX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
	}
	g.minX, g.minY = minX, minY
	for i, p := range points {
		key := g.keyOf(p.X, p.Y)
		g.buckets[key] = append(g.buckets[key], i)
	}
	return g
}

func (g *pointGrid) keyOf(x, y float64) [2]int {
	return [2]int{int((x - g.minX) / g.cell), int((y - g.minY) / g.cell)}
}

// neighbors returns the indices of every point within radius (XY distance)
// of p, scanning the block of cells around p's cell that radius can reach.
// Callers pass the point by value, so exclusion is by coordinates: every
// point with exactly p's X, Y and Z (p itself and any exact duplicate of it)
// is left out.
func (g *pointGrid) neighbors(p lodrecon.Point3, radius float64) []int {
	cx, cy := g.keyOf(p.X, p.Y)
	span := int(radius/g.cell) + 1
	var out []int
	for dx := -span; dx <= span; dx++ {
		for dy := -span; dy <= span; dy++ {
			key := [2]int{cx + dx, cy + dy}
			for _, idx := range g.buckets[key] {
				q := g.points[idx]
				dist := (q.X-p.X)*(q.X-p.X) + (q.Y-p.Y)*(q.Y-p.Y)
				if dist <= radius*radius && !(q.X == p.X && q.Y == p.Y && q.Z == p.Z) {
					out = append(out, idx)
				}
			}
		}
	}
	return out
}
