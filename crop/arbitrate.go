package crop

import (
	"github.com/sixy6e/lod-recon"
	"github.com/sixy6e/lod-recon/source"

	"github.com/samber/lo"
)

// sourceCandidate is one source's reading for a single footprint, carried
// through arbitration and into the quality report.
type sourceCandidate struct {
	source    source.PointCloudSource
	points    []lodrecon.Point3 // inside the footprint polygon
	rawPoints []lodrecon.Point3 // inside the (wider) read box only
	density   float64
}

// Arbitrate implements spec.md §4.4 step 4: among sources passing the
// density floor, prefer a target-date-restricted source if one exists;
// otherwise take the smallest Quality value, breaking ties by larger point
// count then by larger AcquisitionYear. isMutated is set per the stricter
// reading of spec.md's Open Question (§9): the chosen source's density sits
// below the low-LoD threshold AND another source that passes the density
// floor differs from it in acquisition year.
//
// Determinism (spec.md §8.6) follows directly from the selection loop
// keeping the earlier candidate on a full tie (betterCandidate is strict),
// over candidates in their input order, which callers must keep stable
// across runs (the source list is loaded once and never reordered, spec.md
// §3's Lifecycles).
func Arbitrate(candidates []sourceCandidate, minDensity, lowLoDDensity float64, targetDate int, targetDateSet bool) (chosen sourceCandidate, isMutated bool, ok bool) {
	passing := lo.Filter(candidates, func(c sourceCandidate, _ int) bool { return c.density >= minDensity })
	if len(passing) == 0 {
		return sourceCandidate{}, false, false
	}

	pool := passing
	if targetDateSet {
		restricted := lo.Filter(passing, func(c sourceCandidate, _ int) bool {
			return c.source.SelectOnlyForDate && c.source.AcquisitionYear == targetDate
		})
		if len(restricted) > 0 {
			pool = restricted
		}
	}

	best := pool[0]
	for _, c := range pool[1:] {
		if betterCandidate(c, best) {
			best = c
		}
	}

	// mutation check: any other above-main-threshold source with a
	// different acquisition year, while the chosen source's density is
	// below the low-LoD threshold.
	if best.density < lowLoDDensity {
		for _, c := range passing {
			if c.source.Name == best.source.Name {
				continue
			}
			if c.density >= minDensity && c.source.AcquisitionYear != best.source.AcquisitionYear {
				isMutated = true
				break
			}
		}
	}

	return best, isMutated, true
}

// betterCandidate reports whether b should replace a as the current best,
// applying spec.md §4.4 step 4's tie-break chain: smaller Quality first,
// then larger point count, then larger AcquisitionYear.
func betterCandidate(b, a sourceCandidate) bool {
	if b.source.Quality != a.source.Quality {
		return b.source.Quality < a.source.Quality
	}
	if len(b.points) != len(a.points) {
		return len(b.points) > len(a.points)
	}
	return b.source.AcquisitionYear > a.source.AcquisitionYear
}
