package crop

import (
	"github.com/samber/lo"
)

// QualityInfo summarizes how a Crop's source was arbitrated, in the
// teacher's QualityInfo idiom (qa.go): a flat struct of lo-derived fields
// attached to the record it describes, rather than a logged side-channel.
type QualityInfo struct {
	ChosenSource      string
	SourcesConsidered int
	SourcesPassing    int

	// MinMaxDensity holds the smallest and largest per-source density among
	// the sources considered (empty if none were considered).
	MinMaxDensity []float64

	// DensityBySource lets a caller re-derive why a particular source won
	// without re-running Arbitrate.
	DensityBySource map[string]float64

	// DuplicateAcquisitionYears is true when two or more passing sources
	// share the same AcquisitionYear; this is the point-cloud analogue of
	// qa.go's duplicate-ping detection, and like that field it does not by
	// itself mean anything is wrong, only that arbitration had a genuine
	// choice to make.
	DuplicateAcquisitionYears bool
}

// BuildQualityInfo reports on the full candidate pool and the source
// Arbitrate chose from it.
func BuildQualityInfo(candidates []sourceCandidate, chosen sourceCandidate) QualityInfo {
	qi := QualityInfo{
		ChosenSource:      chosen.source.Name,
		SourcesConsidered: len(candidates),
		DensityBySource:   make(map[string]float64, len(candidates)),
	}

	densities := make([]float64, 0, len(candidates))
	var years []int
	for _, c := range candidates {
		qi.DensityBySource[c.source.Name] = c.density
		densities = append(densities, c.density)
		if c.density >= 0 {
			years = append(years, c.source.AcquisitionYear)
		}
	}
	if len(densities) > 0 {
		qi.MinMaxDensity = []float64{lo.Min(densities), lo.Max(densities)}
	}

	passing := lo.Filter(candidates, func(c sourceCandidate, _ int) bool { return len(c.points) > 0 || c.density > 0 })
	qi.SourcesPassing = len(passing)

	passingYears := lo.Map(passing, func(c sourceCandidate, _ int) int { return c.source.AcquisitionYear })
	if dups := lo.FindDuplicates(passingYears); len(dups) > 0 {
		qi.DuplicateAcquisitionYears = true
	}

	return qi
}
