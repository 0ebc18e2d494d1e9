package gaze

import (
	"fmt"

	"github.com/banshee-data/gaze/internal/align"
	"github.com/banshee-data/gaze/internal/config"
	"github.com/banshee-data/gaze/internal/eyeball"
	"github.com/banshee-data/gaze/internal/facemodel"
)

// Config holds the processor parameters.
type Config struct {
	Align           align.Config
	Left            eyeball.Config
	Right           eyeball.Config
	ParallelEyes    bool    // update the two estimators concurrently
	ProjectionScale float64 // length of the projected gaze point in gaze-vector units
}

// DefaultConfig returns the built-in parameters with eyes seeded at the
// model's default eye centers.
func DefaultConfig(m facemodel.Model) Config {
	return ConfigFromTuning(config.EmptyTuningConfig(), m)
}

// ConfigFromTuning builds a Config from a loaded TuningConfig.
func ConfigFromTuning(cfg *config.TuningConfig, m facemodel.Model) Config {
	left := eyeball.ConfigFromTuning(cfg, m.LeftEyeCenter)
	right := eyeball.ConfigFromTuning(cfg, m.RightEyeCenter)
	if cfg.InitialEyeRadius == nil {
		left.InitialRadius = m.EyeRadius
		right.InitialRadius = m.EyeRadius
	}
	return Config{
		Align:           align.ConfigFromTuning(cfg),
		Left:            left,
		Right:           right,
		ParallelEyes:    cfg.GetParallelEyes(),
		ProjectionScale: cfg.GetProjectionScale(),
	}
}

// Validate checks both eye configurations.
func (c Config) Validate() error {
	if err := c.Left.Validate(); err != nil {
		return fmt.Errorf("left eye: %w", err)
	}
	if err := c.Right.Validate(); err != nil {
		return fmt.Errorf("right eye: %w", err)
	}
	if c.ProjectionScale < 0 {
		return fmt.Errorf("projection scale must be non-negative, got %f", c.ProjectionScale)
	}
	return nil
}
