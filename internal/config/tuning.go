package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
// This is the single source of truth for all default tuning values.
const DefaultConfigPath = "config/tuning.defaults.json"

// Defaults used by the Get* accessors when a field is omitted.
const (
	DefaultInitialEyeRadius      = 0.02
	DefaultMinConfidence         = 0.995
	DefaultReasonableConfidence  = 0.997
	DefaultPointsThreshold       = 300
	DefaultPointsHistorySize     = 400
	DefaultRefreshTimeThreshold  = 10 * time.Second
	DefaultEyeRadiusMin          = 0.015
	DefaultEyeRadiusMax          = 0.025
	DefaultSolverMaxIterations   = 200
	DefaultRansacInlierThreshold = 3.0
	DefaultRansacConfidence      = 0.99
	DefaultRansacMaxIterations   = 1000
	DefaultRansacSeed            = int64(1)
	DefaultMaxConditionNumber    = 1e12
	DefaultProjectionScale       = 5.0
)

// TuningConfig represents the root configuration for tuning parameters.
// Every field is optional: the Get* methods fall back to the package defaults,
// so partial JSON files are safe.
type TuningConfig struct {
	// Eyeball sphere estimator params
	InitialEyeRadius     *float64 `json:"initial_eye_radius,omitempty"`
	MinConfidence        *float64 `json:"min_confidence,omitempty"`
	ReasonableConfidence *float64 `json:"reasonable_confidence,omitempty"`
	PointsThreshold      *int     `json:"points_threshold,omitempty"`
	PointsHistorySize    *int     `json:"points_history_size,omitempty"`
	RefreshTimeThreshold *string  `json:"refresh_time_threshold,omitempty"` // duration string like "10s"
	EyeRadiusMin         *float64 `json:"eye_radius_min,omitempty"`
	EyeRadiusMax         *float64 `json:"eye_radius_max,omitempty"`
	SolverMaxIterations  *int     `json:"solver_max_iterations,omitempty"`

	// Coordinate aligner params
	RansacInlierThreshold *float64 `json:"ransac_inlier_threshold,omitempty"`
	RansacConfidence      *float64 `json:"ransac_confidence,omitempty"`
	RansacMaxIterations   *int     `json:"ransac_max_iterations,omitempty"`
	RansacSeed            *int64   `json:"ransac_seed,omitempty"`
	MaxConditionNumber    *float64 `json:"max_condition_number,omitempty"`

	// Per-frame processor params
	ParallelEyes    *bool    `json:"parallel_eyes,omitempty"`
	ProjectionScale *float64 `json:"projection_scale,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }
func ptrInt64(v int64) *int64       { return &v }

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
// Use LoadTuningConfig to load actual values from the defaults file.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// DefaultTuningConfig returns a TuningConfig with every field populated from
// the package defaults. It matches config/tuning.defaults.json.
func DefaultTuningConfig() *TuningConfig {
	return &TuningConfig{
		InitialEyeRadius:      ptrFloat64(DefaultInitialEyeRadius),
		MinConfidence:         ptrFloat64(DefaultMinConfidence),
		ReasonableConfidence:  ptrFloat64(DefaultReasonableConfidence),
		PointsThreshold:       ptrInt(DefaultPointsThreshold),
		PointsHistorySize:     ptrInt(DefaultPointsHistorySize),
		RefreshTimeThreshold:  ptrString(DefaultRefreshTimeThreshold.String()),
		EyeRadiusMin:          ptrFloat64(DefaultEyeRadiusMin),
		EyeRadiusMax:          ptrFloat64(DefaultEyeRadiusMax),
		SolverMaxIterations:   ptrInt(DefaultSolverMaxIterations),
		RansacInlierThreshold: ptrFloat64(DefaultRansacInlierThreshold),
		RansacConfidence:      ptrFloat64(DefaultRansacConfidence),
		RansacMaxIterations:   ptrInt(DefaultRansacMaxIterations),
		RansacSeed:            ptrInt64(DefaultRansacSeed),
		MaxConditionNumber:    ptrFloat64(DefaultMaxConditionNumber),
		ParallelEyes:          ptrBool(true),
		ProjectionScale:       ptrFloat64(DefaultProjectionScale),
	}
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the max file size.
// Fields omitted from the JSON file retain their default values, so
// partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical tuning defaults from DefaultConfigPath.
// It searches for the file in the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,       // from cmd/<tool>/
		"../../" + DefaultConfigPath,    // from internal/<pkg>/
		"../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	minConf, reasonable := c.GetMinConfidence(), c.GetReasonableConfidence()
	if minConf <= 0 || minConf > 1 {
		return fmt.Errorf("min_confidence must be in (0, 1], got %f", minConf)
	}
	if reasonable <= 0 || reasonable > 1 {
		return fmt.Errorf("reasonable_confidence must be in (0, 1], got %f", reasonable)
	}
	if reasonable < minConf {
		return fmt.Errorf("reasonable_confidence (%f) must be >= min_confidence (%f)", reasonable, minConf)
	}

	if c.PointsThreshold != nil && *c.PointsThreshold < 1 {
		return fmt.Errorf("points_threshold must be positive, got %d", *c.PointsThreshold)
	}
	if c.GetPointsHistorySize() < c.GetPointsThreshold() {
		return fmt.Errorf("points_history_size (%d) must be >= points_threshold (%d)",
			c.GetPointsHistorySize(), c.GetPointsThreshold())
	}

	if c.RefreshTimeThreshold != nil && *c.RefreshTimeThreshold != "" {
		d, err := time.ParseDuration(*c.RefreshTimeThreshold)
		if err != nil {
			return fmt.Errorf("invalid refresh_time_threshold '%s': %w", *c.RefreshTimeThreshold, err)
		}
		if d < 0 {
			return fmt.Errorf("refresh_time_threshold must be non-negative, got %s", d)
		}
	}

	lo, hi := c.GetEyeRadiusMin(), c.GetEyeRadiusMax()
	if lo <= 0 || hi <= lo {
		return fmt.Errorf("eye radius bounds must satisfy 0 < min < max, got (%f, %f)", lo, hi)
	}
	if r := c.GetInitialEyeRadius(); r <= 0 {
		return fmt.Errorf("initial_eye_radius must be positive, got %f", r)
	}
	if c.SolverMaxIterations != nil && *c.SolverMaxIterations < 1 {
		return fmt.Errorf("solver_max_iterations must be positive, got %d", *c.SolverMaxIterations)
	}

	if th := c.GetRansacInlierThreshold(); th <= 0 {
		return fmt.Errorf("ransac_inlier_threshold must be positive, got %f", th)
	}
	if p := c.GetRansacConfidence(); p <= 0 || p >= 1 {
		return fmt.Errorf("ransac_confidence must be in (0, 1), got %f", p)
	}
	if c.RansacMaxIterations != nil && *c.RansacMaxIterations < 1 {
		return fmt.Errorf("ransac_max_iterations must be positive, got %d", *c.RansacMaxIterations)
	}
	if k := c.GetMaxConditionNumber(); k <= 1 {
		return fmt.Errorf("max_condition_number must be > 1, got %g", k)
	}

	if s := c.GetProjectionScale(); s < 0 {
		return fmt.Errorf("projection_scale must be non-negative, got %f", s)
	}

	return nil
}

// GetInitialEyeRadius returns the initial_eye_radius value or the default.
func (c *TuningConfig) GetInitialEyeRadius() float64 {
	if c.InitialEyeRadius == nil {
		return DefaultInitialEyeRadius
	}
	return *c.InitialEyeRadius
}

// GetMinConfidence returns the min_confidence value or the default.
func (c *TuningConfig) GetMinConfidence() float64 {
	if c.MinConfidence == nil {
		return DefaultMinConfidence
	}
	return *c.MinConfidence
}

// GetReasonableConfidence returns the reasonable_confidence value or the default.
func (c *TuningConfig) GetReasonableConfidence() float64 {
	if c.ReasonableConfidence == nil {
		return DefaultReasonableConfidence
	}
	return *c.ReasonableConfidence
}

// GetPointsThreshold returns the points_threshold value or the default.
func (c *TuningConfig) GetPointsThreshold() int {
	if c.PointsThreshold == nil {
		return DefaultPointsThreshold
	}
	return *c.PointsThreshold
}

// GetPointsHistorySize returns the points_history_size value or the default.
func (c *TuningConfig) GetPointsHistorySize() int {
	if c.PointsHistorySize == nil {
		return DefaultPointsHistorySize
	}
	return *c.PointsHistorySize
}

// GetRefreshTimeThreshold parses and returns the RefreshTimeThreshold as a time.Duration.
func (c *TuningConfig) GetRefreshTimeThreshold() time.Duration {
	if c.RefreshTimeThreshold == nil || *c.RefreshTimeThreshold == "" {
		return DefaultRefreshTimeThreshold
	}
	d, err := time.ParseDuration(*c.RefreshTimeThreshold)
	if err != nil {
		return DefaultRefreshTimeThreshold // default on parse error
	}
	return d
}

// GetEyeRadiusMin returns the eye_radius_min value or the default.
func (c *TuningConfig) GetEyeRadiusMin() float64 {
	if c.EyeRadiusMin == nil {
		return DefaultEyeRadiusMin
	}
	return *c.EyeRadiusMin
}

// GetEyeRadiusMax returns the eye_radius_max value or the default.
func (c *TuningConfig) GetEyeRadiusMax() float64 {
	if c.EyeRadiusMax == nil {
		return DefaultEyeRadiusMax
	}
	return *c.EyeRadiusMax
}

// GetSolverMaxIterations returns the solver_max_iterations value or the default.
func (c *TuningConfig) GetSolverMaxIterations() int {
	if c.SolverMaxIterations == nil {
		return DefaultSolverMaxIterations
	}
	return *c.SolverMaxIterations
}

// GetRansacInlierThreshold returns the ransac_inlier_threshold value or the default.
func (c *TuningConfig) GetRansacInlierThreshold() float64 {
	if c.RansacInlierThreshold == nil {
		return DefaultRansacInlierThreshold
	}
	return *c.RansacInlierThreshold
}

// GetRansacConfidence returns the ransac_confidence value or the default.
func (c *TuningConfig) GetRansacConfidence() float64 {
	if c.RansacConfidence == nil {
		return DefaultRansacConfidence
	}
	return *c.RansacConfidence
}

// GetRansacMaxIterations returns the ransac_max_iterations value or the default.
func (c *TuningConfig) GetRansacMaxIterations() int {
	if c.RansacMaxIterations == nil {
		return DefaultRansacMaxIterations
	}
	return *c.RansacMaxIterations
}

// GetRansacSeed returns the ransac_seed value or the default.
func (c *TuningConfig) GetRansacSeed() int64 {
	if c.RansacSeed == nil {
		return DefaultRansacSeed
	}
	return *c.RansacSeed
}

// GetMaxConditionNumber returns the max_condition_number value or the default.
func (c *TuningConfig) GetMaxConditionNumber() float64 {
	if c.MaxConditionNumber == nil {
		return DefaultMaxConditionNumber
	}
	return *c.MaxConditionNumber
}

// GetParallelEyes returns the parallel_eyes value or the default.
func (c *TuningConfig) GetParallelEyes() bool {
	if c.ParallelEyes == nil {
		return true
	}
	return *c.ParallelEyes
}

// GetProjectionScale returns the projection_scale value or the default.
func (c *TuningConfig) GetProjectionScale() float64 {
	if c.ProjectionScale == nil {
		return DefaultProjectionScale
	}
	return *c.ProjectionScale
}
