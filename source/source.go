// Package source holds the immutable, reference-counted-by-convention
// descriptors loaded once at the start of a run: point-cloud sources and
// building footprints (spec.md §3). Neither type is mutated after load;
// they are shared read-only across every worker (spec.md §5).
package source

import (
	"fmt"
	"os"

	"github.com/sixy6e/lod-recon"
	"gopkg.in/yaml.v2"
)

// PointCloudSource is a named point-cloud acquisition: where to read it,
// how good it is relative to other sources, and the rules that govern when
// it may be chosen (spec.md §3).
type PointCloudSource struct {
	Name     string
	Location string // storage location handle, passed to PointCloudReader

	// Quality: lower is better, used as the primary arbitration key
	// (spec.md §4.4 step 4).
	Quality int

	AcquisitionYear int

	GroundClass   lodrecon.Classification
	BuildingClass lodrecon.Classification

	// ForceLowLoD, if true, forces Path A (spec.md §4.6) for every
	// footprint this source is chosen for.
	ForceLowLoD bool

	// SelectOnlyForDate restricts this source to requests carrying a
	// matching target date (spec.md §4.4 step 4).
	SelectOnlyForDate bool
}

// Footprint is a single building's 2D outline plus the attributes the crop
// and reconstruction stages consume (spec.md §3).
type Footprint struct {
	ID   string
	Ring lodrecon.LinearRing

	HasConstructionYear bool
	ConstructionYear    int

	ForceLowLoD bool
}

// Bounds is a convenience passthrough to the outer ring's bounding box.
func (f Footprint) Bounds() lodrecon.AABB {
	return f.Ring.Bounds()
}

// sourceFile is the on-disk YAML shape search.FindSourceConfigs locates one
// of per acquisition, following config.Config's yaml-tagged-struct loading
// idiom.
type sourceFile struct {
	Name              string `yaml:"name"`
	Location          string `yaml:"location"`
	Quality           int    `yaml:"quality"`
	AcquisitionYear   int    `yaml:"acquisition_year"`
	GroundClass       uint8  `yaml:"ground_class"`
	BuildingClass     uint8  `yaml:"building_class"`
	ForceLowLoD       bool   `yaml:"force_low_lod"`
	SelectOnlyForDate bool   `yaml:"select_only_for_date"`
}

// LoadSource reads one point-cloud source descriptor from a YAML file.
func LoadSource(path string) (PointCloudSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return PointCloudSource{}, fmt.Errorf("%w: reading %s: %v", lodrecon.ErrConfig, path, err)
	}
	var sf sourceFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return PointCloudSource{}, fmt.Errorf("%w: parsing %s: %v", lodrecon.ErrConfig, path, err)
	}
	return PointCloudSource{
		Name:              sf.Name,
		Location:          sf.Location,
		Quality:           sf.Quality,
		AcquisitionYear:   sf.AcquisitionYear,
		GroundClass:       lodrecon.Classification(sf.GroundClass),
		BuildingClass:     lodrecon.Classification(sf.BuildingClass),
		ForceLowLoD:       sf.ForceLowLoD,
		SelectOnlyForDate: sf.SelectOnlyForDate,
	}, nil
}

// LoadSources reads one point-cloud source descriptor per path, in order.
func LoadSources(paths []string) ([]PointCloudSource, error) {
	out := make([]PointCloudSource, 0, len(paths))
	for _, p := range paths {
		src, err := LoadSource(p)
		if err != nil {
			return nil, err
		}
		out = append(out, src)
	}
	return out, nil
}
