package align

import "github.com/banshee-data/gaze/internal/config"

// MinCorrespondences is the minimal sample size for a 12-DOF 3D affine fit.
const MinCorrespondences = 4

// Config holds the robust estimator parameters.
type Config struct {
	InlierThreshold    float64 // Max residual, in scaled model space, for a correspondence to count as an inlier
	Confidence         float64 // Desired probability of drawing one outlier-free sample
	MaxIterations      int     // Upper bound on RANSAC iterations
	MaxConditionNumber float64 // Fits with a worse design-matrix condition are degenerate
	Seed               int64   // Sampler seed; alignment is deterministic for a given seed
}

// DefaultConfig returns the built-in estimator parameters.
func DefaultConfig() Config {
	return ConfigFromTuning(config.EmptyTuningConfig())
}

// ConfigFromTuning builds a Config from a loaded TuningConfig.
func ConfigFromTuning(cfg *config.TuningConfig) Config {
	return Config{
		InlierThreshold:    cfg.GetRansacInlierThreshold(),
		Confidence:         cfg.GetRansacConfidence(),
		MaxIterations:      cfg.GetRansacMaxIterations(),
		MaxConditionNumber: cfg.GetMaxConditionNumber(),
		Seed:               cfg.GetRansacSeed(),
	}
}

// withDefaults fills zero-valued fields so a literal Config{} is usable.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.InlierThreshold <= 0 {
		c.InlierThreshold = def.InlierThreshold
	}
	if c.Confidence <= 0 || c.Confidence >= 1 {
		c.Confidence = def.Confidence
	}
	if c.MaxIterations <= 0 {
		c.MaxIterations = def.MaxIterations
	}
	if c.MaxConditionNumber <= 1 {
		c.MaxConditionNumber = def.MaxConditionNumber
	}
	return c
}
