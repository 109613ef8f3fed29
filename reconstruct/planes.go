package reconstruct

import (
	"math"

	"github.com/sixy6e/lod-recon"
)

// Plane is a fitted z = Normal·(x,y,z) + D = 0 surface, stored so Z can be
// evaluated at an arbitrary (x,y) with Normal.Z assumed non-zero (the roof
// clusters this package fits are never near-vertical).
type Plane struct {
	NX, NY, NZ float64
	D          float64
}

// Z evaluates the plane at (x, y): ax + by + cz + d = 0 solved for z.
func (p Plane) Z(x, y float64) float64 {
	return -(p.NX*x + p.NY*y + p.D) / p.NZ
}

// PlaneRegion is one region-growing cluster from DetectPlanes: a fitted
// plane and the points that support it.
type PlaneRegion struct {
	Plane  Plane
	Points []lodrecon.Point3
	RMS    float64
}

// DetectPlanes implements spec.md §4.6 Path B step 1: cluster roof-class
// points into planar regions by region growing. A grid of roughly one cell
// per `bucket` metres narrows neighbour lookups (no pack example ships a
// point-cloud neighbour index suited to unordered 3D points, so this is
// from-scratch; see DESIGN.md). A region grows from the normal of a seed
// triangle of nearby points and absorbs any further point whose distance to
// the region's running plane is <= tolD2P and whose own local normal lies
// within tolNormalDeg of the seed normal.
func DetectPlanes(points []lodrecon.Point3, tolD2P, tolNormalDeg float64) []PlaneRegion {
	const bucket = 2.0
	grid := newPointGrid(points, bucket)

	visited := make([]bool, len(points))
	var regions []PlaneRegion

	for seed := range points {
		if visited[seed] {
			continue
		}
		region, members := growRegion(points, grid, visited, seed, tolD2P, tolNormalDeg)
		if len(members) < 3 {
			// too small to support a plane; leave unvisited points for a
			// later seed pass by not marking them, except the seed itself.
			visited[seed] = true
			continue
		}
		for _, idx := range members {
			visited[idx] = true
		}
		regions = append(regions, region)
	}

	return regions
}

func growRegion(points []lodrecon.Point3, grid *pointGrid, visited []bool, seed int, tolD2P, tolNormalDeg float64) (PlaneRegion, []int) {
	members := []int{seed}
	seedNormal, ok := localNormal(points, grid, seed)
	if !ok {
		return PlaneRegion{}, members
	}

	plane, _ := fitPlane([]lodrecon.Point3{points[seed]})
	plane.NX, plane.NY, plane.NZ = seedNormal[0], seedNormal[1], seedNormal[2]
	plane.D = -(plane.NX*points[seed].X + plane.NY*points[seed].Y + plane.NZ*points[seed].Z)

	queue := []int{seed}
	inQueue := map[int]bool{seed: true}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		for _, cand := range grid.neighbors(points[cur], bucketRadius) {
			if visited[cand] || inQueue[cand] {
				continue
			}
			d := planeDistance(plane, points[cand])
			if d > tolD2P {
				continue
			}
			if !withinNormalTolerance(seedNormal, points, grid, cand, tolNormalDeg) {
				continue
			}
			members = append(members, cand)
			inQueue[cand] = true
			queue = append(queue, cand)

			if len(members) >= 4 && len(members)%8 == 0 {
				pts := gather(points, members)
				refit, _ := fitPlane(pts)
				plane = refit
			}
		}
	}

	pts := gather(points, members)
	plane, rms := fitPlane(pts)
	return PlaneRegion{Plane: plane, Points: pts, RMS: rms}, members
}

const bucketRadius = 2.0

func gather(points []lodrecon.Point3, idxs []int) []lodrecon.Point3 {
	out := make([]lodrecon.Point3, len(idxs))
	for i, idx := range idxs {
		out[i] = points[idx]
	}
	return out
}

func normLen(x, y, z float64) float64 {
	return math.Sqrt(x*x + y*y + z*z)
}

func planeDistance(p Plane, pt lodrecon.Point3) float64 {
	num := p.NX*pt.X + p.NY*pt.Y + p.NZ*pt.Z + p.D
	denom := normLen(p.NX, p.NY, p.NZ)
	if denom == 0 {
		return 0
	}
	return math.Abs(num) / denom
}

func withinNormalTolerance(seedNormal [3]float64, points []lodrecon.Point3, grid *pointGrid, idx int, tolDeg float64) bool {
	n, ok := localNormal(points, grid, idx)
	if !ok {
		return true // isolated point: can't evaluate, don't reject
	}
	return angleBetween(seedNormal, n) <= tolDeg
}

// localNormal estimates a point's surface normal from its two nearest
// neighbours in the grid via the cross product of the two vectors to them,
// a coarse but adequate estimator for the roof-point densities this system
// targets.
func localNormal(points []lodrecon.Point3, grid *pointGrid, idx int) ([3]float64, bool) {
	nbrs := grid.neighbors(points[idx], bucketRadius)
	if len(nbrs) < 2 {
		return [3]float64{}, false
	}
	a, b := points[idx], points[nbrs[0]]
	var c lodrecon.Point3
	found := false
	for _, n := range nbrs[1:] {
		if n != nbrs[0] {
			c = points[n]
			found = true
			break
		}
	}
	if !found {
		return [3]float64{}, false
	}
	ux, uy, uz := b.X-a.X, b.Y-a.Y, b.Z-a.Z
	vx, vy, vz := c.X-a.X, c.Y-a.Y, c.Z-a.Z
	nx := uy*vz - uz*vy
	ny := uz*vx - ux*vz
	nz := ux*vy - uy*vx
	l := normLen(nx, ny, nz)
	if l == 0 {
		return [3]float64{}, false
	}
	if nz < 0 {
		nx, ny, nz = -nx, -ny, -nz
	}
	return [3]float64{nx / l, ny / l, nz / l}, true
}

func angleBetween(a, b [3]float64) float64 {
	dot := a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
	if dot > 1 {
		dot = 1
	} else if dot < -1 {
		dot = -1
	}
	return math.Acos(dot) * 180 / math.Pi
}

// fitPlane performs an ordinary least-squares plane fit z = ax + by + c
// (re-expressed as NX*x+NY*y+NZ*z+D=0 with NZ=-1 normalised), solving the
// normal equations' 3x3 system directly: no linear-algebra library in the
// pack covers a fit this small, so it is solved by hand (see DESIGN.md).
func fitPlane(points []lodrecon.Point3) (Plane, float64) {
	if len(points) == 0 {
		return Plane{NZ: -1}, 0
	}
	if len(points) < 3 {
		p := points[0]
		return Plane{NX: 0, NY: 0, NZ: -1, D: p.Z}, 0
	}

	var sx, sy, sxx, sxy, syy, sz, sxz, syz float64
	n := float64(len(points))
	for _, p := range points {
		sx += p.X
		sy += p.Y
		sxx += p.X * p.X
		sxy += p.X * p.Y
		syy += p.Y * p.Y
		sz += p.Z
		sxz += p.X * p.Z
		syz += p.Y * p.Z
	}

	// Solve [[sxx sxy sx][sxy syy sy][sx sy n]] [a b c]^T = [sxz syz sz]^T
	m := [3][4]float64{
		{sxx, sxy, sx, sxz},
		{sxy, syy, sy, syz},
		{sx, sy, n, sz},
	}
	a, b, c, ok := solve3x3(m)
	if !ok {
		return Plane{NX: 0, NY: 0, NZ: -1, D: points[0].Z}, 0
	}

	// z = a*x + b*y + c  =>  a*x + b*y - z + c = 0
	plane := Plane{NX: a, NY: b, NZ: -1, D: c}

	var sumSq float64
	for _, p := range points {
		d := planeDistance(plane, p)
		sumSq += d * d
	}
	rms := math.Sqrt(sumSq / n)
	return plane, rms
}

// solve3x3 solves the 3x3 linear system given as an augmented matrix via
// Gaussian elimination with partial pivoting.
func solve3x3(m [3][4]float64) (x, y, z float64, ok bool) {
	for col := 0; col < 3; col++ {
		pivot := col
		best := math.Abs(m[col][col])
		for r := col + 1; r < 3; r++ {
			if math.Abs(m[r][col]) > best {
				pivot = r
				best = math.Abs(m[r][col])
			}
		}
		if best < 1e-12 {
			return 0, 0, 0, false
		}
		m[col], m[pivot] = m[pivot], m[col]
		for r := 0; r < 3; r++ {
			if r == col {
				continue
			}
			factor := m[r][col] / m[col][col]
			for k := col; k < 4; k++ {
				m[r][k] -= factor * m[col][k]
			}
		}
	}
	return m[0][3] / m[0][0], m[1][3] / m[1][1], m[2][3] / m[2][2], true
}
