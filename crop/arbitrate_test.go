package crop

import (
	"testing"

	"github.com/sixy6e/lod-recon"
	"github.com/sixy6e/lod-recon/source"
)

func candidate(name string, quality, year int, density float64, nPoints int) sourceCandidate {
	pts := make([]lodrecon.Point3, nPoints)
	return sourceCandidate{
		source: source.PointCloudSource{Name: name, Quality: quality, AcquisitionYear: year},
		points: pts, density: density,
	}
}

func TestArbitrateRejectsBelowDensityFloor(t *testing.T) {
	candidates := []sourceCandidate{
		candidate("a", 1, 2020, 0.5, 1),
	}
	_, _, ok := Arbitrate(candidates, 1.0, 0.5, 0, false)
	if ok {
		t.Fatal("expected no source to pass a density floor above every candidate's density")
	}
}

func TestArbitratePrefersLowerQuality(t *testing.T) {
	candidates := []sourceCandidate{
		candidate("poor", 5, 2020, 10, 10),
		candidate("good", 1, 2019, 10, 10),
	}
	chosen, _, ok := Arbitrate(candidates, 1.0, 0.5, 0, false)
	if !ok {
		t.Fatal("expected a source to be chosen")
	}
	if chosen.source.Name != "good" {
		t.Fatalf("expected the lower-Quality-value source to win, got %s", chosen.source.Name)
	}
}

func TestArbitrateTieBreaksByPointCountThenYear(t *testing.T) {
	candidates := []sourceCandidate{
		candidate("fewer", 1, 2019, 10, 5),
		candidate("more", 1, 2018, 10, 20),
	}
	chosen, _, ok := Arbitrate(candidates, 1.0, 0.5, 0, false)
	if !ok {
		t.Fatal("expected a source to be chosen")
	}
	if chosen.source.Name != "more" {
		t.Fatalf("expected the source with more in-footprint points to win the quality tie, got %s", chosen.source.Name)
	}

	// same quality, same point count: newer acquisition year wins
	sameCount := []sourceCandidate{
		candidate("older", 1, 2015, 10, 10),
		candidate("newer", 1, 2022, 10, 10),
	}
	chosen, _, ok = Arbitrate(sameCount, 1.0, 0.5, 0, false)
	if !ok {
		t.Fatal("expected a source to be chosen")
	}
	if chosen.source.Name != "newer" {
		t.Fatalf("expected the more recently acquired source to win the final tie-break, got %s", chosen.source.Name)
	}
}

func TestArbitrateTargetDateRestriction(t *testing.T) {
	restricted := candidate("restricted", 1, 2021, 10, 10)
	restricted.source.SelectOnlyForDate = true
	unrestricted := candidate("unrestricted", 5, 2021, 10, 10)

	candidates := []sourceCandidate{unrestricted, restricted}

	chosen, _, ok := Arbitrate(candidates, 1.0, 0.5, 2021, true)
	if !ok {
		t.Fatal("expected a source to be chosen")
	}
	if chosen.source.Name != "restricted" {
		t.Fatalf("expected the date-restricted source to be preferred when its date matches, got %s", chosen.source.Name)
	}

	// requesting a date the restricted source doesn't carry falls back to
	// the full passing pool
	chosen, _, ok = Arbitrate(candidates, 1.0, 0.5, 1999, true)
	if !ok {
		t.Fatal("expected a source to be chosen")
	}
	if chosen.source.Name != "restricted" {
		// unrestricted has worse (higher) Quality, so restricted still wins
		// on the general tie-break even once the date pool is ignored
		t.Fatalf("expected restricted to still win on quality once the date-pool falls back, got %s", chosen.source.Name)
	}
}

func TestArbitrateDeterministic(t *testing.T) {
	candidates := []sourceCandidate{
		candidate("a", 2, 2020, 10, 10),
		candidate("b", 2, 2020, 10, 10),
		candidate("c", 2, 2020, 10, 10),
	}
	first, _, _ := Arbitrate(candidates, 1.0, 0.5, 0, false)
	for i := 0; i < 20; i++ {
		got, _, _ := Arbitrate(candidates, 1.0, 0.5, 0, false)
		if got.source.Name != first.source.Name {
			t.Fatalf("Arbitrate is not deterministic: got %s then %s on an identical tie", first.source.Name, got.source.Name)
		}
	}
}
