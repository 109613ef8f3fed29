// Package config loads and defaults the recognized configuration options of
// spec.md §6, the way the teacher defaults a generic tiledb.Config when no
// config-uri is supplied, adapted to a YAML file via gopkg.in/yaml.v2.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/sixy6e/lod-recon"
	"gopkg.in/yaml.v2"
)

// Config holds every recognized option of spec.md §6.
type Config struct {
	Crop       CropConfig       `yaml:"crop"`
	Validation ValidationConfig `yaml:"validation"`
	Scheduler  SchedulerConfig  `yaml:"scheduler"`

	// FatalAtAnyBuilding, if true, makes a single building's Timeout or
	// InputIOError fail the whole batch (spec.md §7).
	FatalAtAnyBuilding bool `yaml:"fatal_at_any_building"`
}

// CropConfig is spec.md §6's Crop section.
type CropConfig struct {
	MaxPointDensity        float32 `yaml:"max_point_density"`
	CellSize               float32 `yaml:"cellsize"`
	LowLoDArea             int32   `yaml:"low_lod_area"`
	MaxPointDensityLowLoD  float32 `yaml:"max_point_density_low_lod"`
	PolygonDensify         float32 `yaml:"polygon_densify"`
	MinDensity             float32 `yaml:"min_density"`
	BoundingBoxMargin      float32 `yaml:"bounding_box_margin"`
	LowLoDNoDataFraction   float32 `yaml:"low_lod_nodata_fraction"`
}

// ValidationConfig is spec.md §6's Validation section.
type ValidationConfig struct {
	TolPlanarityD2P     float32 `yaml:"tol_planarity_d2p"`
	TolPlanarityNormals float32 `yaml:"tol_planarity_normals"`
}

// SchedulerConfig is spec.md §6's Scheduler section.
type SchedulerConfig struct {
	CropWorkers        int           `yaml:"crop_workers"`
	ReconstructWorkers int           `yaml:"reconstruct_workers"`
	ValidateWorkers    int           `yaml:"validate_workers"`
	WriteWorkers       int           `yaml:"write_workers"`
	QueueCapacity      int           `yaml:"queue_capacity"`
	MemoryCapBytes      int64        `yaml:"memory_cap_bytes"`
	PerBuildingTimeout time.Duration `yaml:"per_building_timeout_s"`
}

// Default returns the configuration of spec.md §6's defaults.
func Default() *Config {
	return &Config{
		Crop: CropConfig{
			MaxPointDensity:       20,
			CellSize:              0.5,
			LowLoDArea:            69000,
			MaxPointDensityLowLoD: 5,
			PolygonDensify:        0.5,
			MinDensity:            1,
			BoundingBoxMargin:     0,
			LowLoDNoDataFraction:  0.1,
		},
		Validation: ValidationConfig{
			TolPlanarityD2P:     0.01,
			TolPlanarityNormals: 20,
		},
		Scheduler: SchedulerConfig{
			CropWorkers:        4,
			ReconstructWorkers: 4,
			ValidateWorkers:    2,
			WriteWorkers:       2,
			QueueCapacity:      0, // 0 means "2x the consuming stage's pool size"; resolved by Scheduler.Run
			MemoryCapBytes:     1 << 30,
			PerBuildingTimeout: 30 * time.Second,
		},
	}
}

// Load reads a YAML configuration file, starting from Default() so that any
// option the file omits keeps its documented default.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", lodrecon.ErrConfig, path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", lodrecon.ErrConfig, path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports a ConfigError if any recognized option is out of range.
func (c *Config) Validate() error {
	if c.Crop.CellSize <= 0 {
		return fmt.Errorf("%w: crop.cellsize must be > 0", lodrecon.ErrConfig)
	}
	if c.Crop.PolygonDensify <= 0 {
		return fmt.Errorf("%w: crop.polygon_densify must be > 0", lodrecon.ErrConfig)
	}
	if c.Validation.TolPlanarityD2P <= 0 {
		return fmt.Errorf("%w: validation.tol_planarity_d2p must be > 0", lodrecon.ErrConfig)
	}
	if c.Scheduler.CropWorkers <= 0 || c.Scheduler.ReconstructWorkers <= 0 || c.Scheduler.ValidateWorkers <= 0 {
		return fmt.Errorf("%w: scheduler worker counts must be > 0", lodrecon.ErrConfig)
	}
	return nil
}
