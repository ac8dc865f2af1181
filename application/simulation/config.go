package simulation

import (
	"github.com/go-playground/validator/v10"

	"github.com/banisterious/obsidian-oneirometrics-sub001/pkg/errors"
)

// ForceConfig holds the tuning parameters of the layout simulation.
// All strength values are multipliers applied on top of the base
// Fruchterman-Reingold forces.
type ForceConfig struct {
	RepulsionStrength float64 `json:"repulsion_strength" yaml:"repulsion_strength" validate:"gt=0"`
	AttractionBase    float64 `json:"attraction_base" yaml:"attraction_base" validate:"gt=0"`
	AttractionPerLink float64 `json:"attraction_per_link" yaml:"attraction_per_link" validate:"gte=0"`
	ClusterStrength   float64 `json:"cluster_strength" yaml:"cluster_strength" validate:"gte=0"`
	ChronoStrength    float64 `json:"chrono_strength" yaml:"chrono_strength" validate:"gte=0"`
	CenterStrength    float64 `json:"center_strength" yaml:"center_strength" validate:"gte=0"`

	Width  float64 `json:"width" yaml:"width" validate:"gt=0"`
	Height float64 `json:"height" yaml:"height" validate:"gt=0"`

	InitialTemperature float64 `json:"initial_temperature" yaml:"initial_temperature" validate:"gt=0"`
	CoolingFactor      float64 `json:"cooling_factor" yaml:"cooling_factor" validate:"gt=0,lt=1"`
	MaxDisplacement    float64 `json:"max_displacement" yaml:"max_displacement" validate:"gt=0"`

	MaxTicks         int     `json:"max_ticks" yaml:"max_ticks" validate:"gt=0"`
	SettleEpsilon    float64 `json:"settle_epsilon" yaml:"settle_epsilon" validate:"gt=0"`
	SettleTicks      int     `json:"settle_ticks" yaml:"settle_ticks" validate:"gt=0"`
	SyncTickBudget   int     `json:"sync_tick_budget" yaml:"sync_tick_budget" validate:"gt=0"`
	BarnesHutAtNodes int     `json:"barnes_hut_at_nodes" yaml:"barnes_hut_at_nodes" validate:"gt=0"`
	BarnesHutTheta   float64 `json:"barnes_hut_theta" yaml:"barnes_hut_theta" validate:"gt=0,lte=2"`

	// ClusterCentroidCutoff switches the cluster force from pairwise
	// member attraction to centroid attraction for clusters at or above
	// this size.
	ClusterCentroidCutoff int `json:"cluster_centroid_cutoff" yaml:"cluster_centroid_cutoff" validate:"gt=1"`

	SnapshotEvery       int `json:"snapshot_every" yaml:"snapshot_every" validate:"gt=0"`
	SnapshotMinInterval int `json:"snapshot_min_interval_ms" yaml:"snapshot_min_interval_ms" validate:"gte=0"`
}

// DefaultForceConfig returns tuning that produces readable layouts for
// journals in the tens-to-hundreds of entries range
func DefaultForceConfig() ForceConfig {
	return ForceConfig{
		RepulsionStrength:     1.0,
		AttractionBase:        1.0,
		AttractionPerLink:     0.25,
		ClusterStrength:       0.08,
		ChronoStrength:        0.02,
		CenterStrength:        0.01,
		Width:                 1600,
		Height:                1000,
		InitialTemperature:    160,
		CoolingFactor:         0.97,
		MaxDisplacement:       40,
		MaxTicks:              300,
		SettleEpsilon:         0.5,
		SettleTicks:           3,
		SyncTickBudget:        60,
		BarnesHutAtNodes:      500,
		BarnesHutTheta:        0.9,
		ClusterCentroidCutoff: 12,
		SnapshotEvery:         3,
		SnapshotMinInterval:   16,
	}
}

var validate = validator.New()

// Validate checks the configuration for internal consistency
func (c ForceConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.NewValidationError("invalid force configuration").WithCause(err)
	}
	if c.SyncTickBudget > c.MaxTicks {
		return errors.NewValidationError("sync tick budget cannot exceed max ticks")
	}
	return nil
}
