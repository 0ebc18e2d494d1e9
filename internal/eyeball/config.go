package eyeball

import (
	"fmt"
	"time"

	"github.com/banshee-data/gaze/internal/config"
	"github.com/banshee-data/gaze/internal/geom"
)

// Bounds is a closed interval.
type Bounds struct {
	Min, Max float64
}

// Contains reports whether v lies in [Min, Max].
func (b Bounds) Contains(v float64) bool {
	return v >= b.Min && v <= b.Max
}

// Config holds the parameters of one Estimator.
type Config struct {
	InitialCenter        geom.Point3   // Seed center in model space
	InitialRadius        float64       // Seed radius
	MinConfidence        float64       // Confidence at which the center counts as detected
	ReasonableConfidence float64       // Confidence at which the search locks
	PointsThreshold      int           // History size needed before fitting
	PointsHistorySize    int           // History capacity
	RefreshTimeThreshold time.Duration // Age after which a lock is released
	RadiusBounds         Bounds        // Admissible sphere radius
	SolverMaxIterations  int           // Major iteration limit for one fit
}

// DefaultConfig returns the built-in parameters for an eye seeded at center.
func DefaultConfig(center geom.Point3) Config {
	return ConfigFromTuning(config.EmptyTuningConfig(), center)
}

// ConfigFromTuning builds a Config from a loaded TuningConfig.
func ConfigFromTuning(cfg *config.TuningConfig, center geom.Point3) Config {
	return Config{
		InitialCenter:        center,
		InitialRadius:        cfg.GetInitialEyeRadius(),
		MinConfidence:        cfg.GetMinConfidence(),
		ReasonableConfidence: cfg.GetReasonableConfidence(),
		PointsThreshold:      cfg.GetPointsThreshold(),
		PointsHistorySize:    cfg.GetPointsHistorySize(),
		RefreshTimeThreshold: cfg.GetRefreshTimeThreshold(),
		RadiusBounds:         Bounds{Min: cfg.GetEyeRadiusMin(), Max: cfg.GetEyeRadiusMax()},
		SolverMaxIterations:  cfg.GetSolverMaxIterations(),
	}
}

// Validate checks the configuration for values the estimator cannot run with.
func (c Config) Validate() error {
	if !geom.IsFinite(c.InitialCenter) {
		return fmt.Errorf("%w: initial center %v is not finite", ErrInvalidConfig, c.InitialCenter)
	}
	if c.InitialRadius <= 0 {
		return fmt.Errorf("%w: initial radius must be positive, got %f", ErrInvalidConfig, c.InitialRadius)
	}
	if c.MinConfidence <= 0 || c.MinConfidence > 1 {
		return fmt.Errorf("%w: min confidence must be in (0, 1], got %f", ErrInvalidConfig, c.MinConfidence)
	}
	if c.ReasonableConfidence < c.MinConfidence || c.ReasonableConfidence > 1 {
		return fmt.Errorf("%w: reasonable confidence must be in [%f, 1], got %f",
			ErrInvalidConfig, c.MinConfidence, c.ReasonableConfidence)
	}
	if c.PointsThreshold < 1 {
		return fmt.Errorf("%w: points threshold must be positive, got %d", ErrInvalidConfig, c.PointsThreshold)
	}
	if c.PointsHistorySize < c.PointsThreshold {
		return fmt.Errorf("%w: history size %d is below points threshold %d",
			ErrInvalidConfig, c.PointsHistorySize, c.PointsThreshold)
	}
	if c.RefreshTimeThreshold < 0 {
		return fmt.Errorf("%w: refresh threshold must be non-negative, got %s", ErrInvalidConfig, c.RefreshTimeThreshold)
	}
	if c.RadiusBounds.Min <= 0 || c.RadiusBounds.Max <= c.RadiusBounds.Min {
		return fmt.Errorf("%w: radius bounds must satisfy 0 < min < max, got (%f, %f)",
			ErrInvalidConfig, c.RadiusBounds.Min, c.RadiusBounds.Max)
	}
	if c.SolverMaxIterations < 0 {
		return fmt.Errorf("%w: solver iterations must be non-negative, got %d", ErrInvalidConfig, c.SolverMaxIterations)
	}
	return nil
}
