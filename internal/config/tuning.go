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

// Strategy names accepted by the factory.
const (
	ResamplerSystematic  = "systematic"
	ResamplerMultinomial = "multinomial"

	NoiseUniform  = "uniform"
	NoiseGaussian = "gaussian"

	GeneratorRandom = "random"
	GeneratorEven   = "even"

	FusionIndependent = "independent"
	FusionJoint       = "joint"
)

// FieldBounds bounds the position dimensions in metres.
type FieldBounds struct {
	XMin float64 `json:"xmin"`
	XMax float64 `json:"xmax"`
	YMin float64 `json:"ymin"`
	YMax float64 `json:"ymax"`
	ZMin float64 `json:"zmin"`
	ZMax float64 `json:"zmax"`
}

// TuningConfig represents the root configuration of the pose estimator.
// Pointer fields distinguish "unset" from zero so partial files are safe.
type TuningConfig struct {
	// Population
	ParticleCount *int    `json:"particle_count,omitempty"`
	Generator     *string `json:"generator,omitempty"`
	Seed          *uint64 `json:"seed,omitempty"`

	// Cycle
	PositionResampleNoise    *float64 `json:"position_resample_noise,omitempty"`    // metres
	OrientationResampleNoise *float64 `json:"orientation_resample_noise,omitempty"` // degrees
	WeightMargin             *float64 `json:"weight_margin,omitempty"`              // fraction of stddev
	Resampler                *string  `json:"resampler,omitempty"`
	Noise                    *string  `json:"noise,omitempty"`

	// Smoothing and prediction
	SmoothingWindow  *string `json:"smoothing_window,omitempty"` // duration string like "300ms"
	EnablePrediction *bool   `json:"enable_prediction,omitempty"`
	HistorySize      *int    `json:"history_size,omitempty"`

	FusionMode *string      `json:"fusion_mode,omitempty"`
	Field      *FieldBounds `json:"field,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }
func ptrUint64(v uint64) *uint64    { return &v }

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
// Use LoadTuningConfig to load actual values from the defaults file.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// DefaultTuningConfig returns a TuningConfig with every field set to its
// default value.
func DefaultTuningConfig() *TuningConfig {
	c := &TuningConfig{}
	field := c.GetField()
	return &TuningConfig{
		ParticleCount:            ptrInt(c.GetParticleCount()),
		Generator:                ptrString(c.GetGenerator()),
		Seed:                     ptrUint64(c.GetSeed()),
		PositionResampleNoise:    ptrFloat64(c.GetPositionResampleNoise()),
		OrientationResampleNoise: ptrFloat64(c.GetOrientationResampleNoise()),
		WeightMargin:             ptrFloat64(c.GetWeightMargin()),
		Resampler:                ptrString(c.GetResampler()),
		Noise:                    ptrString(c.GetNoise()),
		SmoothingWindow:          ptrString(c.GetSmoothingWindow().String()),
		EnablePrediction:         ptrBool(c.GetEnablePrediction()),
		HistorySize:              ptrInt(c.GetHistorySize()),
		FusionMode:               ptrString(c.GetFusionMode()),
		Field:                    &field,
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
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
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
	if c.ParticleCount != nil && *c.ParticleCount <= 0 {
		return fmt.Errorf("particle_count must be positive, got %d", *c.ParticleCount)
	}
	if c.PositionResampleNoise != nil && *c.PositionResampleNoise < 0 {
		return fmt.Errorf("position_resample_noise must be non-negative, got %f", *c.PositionResampleNoise)
	}
	if c.OrientationResampleNoise != nil && *c.OrientationResampleNoise < 0 {
		return fmt.Errorf("orientation_resample_noise must be non-negative, got %f", *c.OrientationResampleNoise)
	}
	if c.WeightMargin != nil && (*c.WeightMargin <= 0 || *c.WeightMargin > 1) {
		return fmt.Errorf("weight_margin must be in (0, 1], got %f", *c.WeightMargin)
	}
	if c.HistorySize != nil && *c.HistorySize < 3 {
		return fmt.Errorf("history_size must be at least 3, got %d", *c.HistorySize)
	}

	if c.SmoothingWindow != nil && *c.SmoothingWindow != "" {
		d, err := time.ParseDuration(*c.SmoothingWindow)
		if err != nil {
			return fmt.Errorf("invalid smoothing_window '%s': %w", *c.SmoothingWindow, err)
		}
		if d < 0 {
			return fmt.Errorf("smoothing_window must be non-negative, got %s", d)
		}
	}

	if err := oneOf("resampler", c.Resampler, ResamplerSystematic, ResamplerMultinomial); err != nil {
		return err
	}
	if err := oneOf("noise", c.Noise, NoiseUniform, NoiseGaussian); err != nil {
		return err
	}
	if err := oneOf("generator", c.Generator, GeneratorRandom, GeneratorEven); err != nil {
		return err
	}
	if err := oneOf("fusion_mode", c.FusionMode, FusionIndependent, FusionJoint); err != nil {
		return err
	}

	if f := c.Field; f != nil {
		if !(f.XMin < f.XMax) || !(f.YMin < f.YMax) || !(f.ZMin < f.ZMax) {
			return fmt.Errorf("field bounds must satisfy min < max on every axis, got %+v", *f)
		}
	}
	return nil
}

func oneOf(name string, v *string, allowed ...string) error {
	if v == nil {
		return nil
	}
	for _, a := range allowed {
		if *v == a {
			return nil
		}
	}
	return fmt.Errorf("%s must be one of %v, got %q", name, allowed, *v)
}

// GetParticleCount returns the particle_count value or the default.
func (c *TuningConfig) GetParticleCount() int {
	if c.ParticleCount == nil {
		return 500
	}
	return *c.ParticleCount
}

// GetGenerator returns the generator name or the default.
func (c *TuningConfig) GetGenerator() string {
	if c.Generator == nil {
		return GeneratorRandom
	}
	return *c.Generator
}

// GetSeed returns the seed value or the default.
func (c *TuningConfig) GetSeed() uint64 {
	if c.Seed == nil {
		return 1
	}
	return *c.Seed
}

// GetPositionResampleNoise returns the position_resample_noise value or the default.
func (c *TuningConfig) GetPositionResampleNoise() float64 {
	if c.PositionResampleNoise == nil {
		return 0.05
	}
	return *c.PositionResampleNoise
}

// GetOrientationResampleNoise returns the orientation_resample_noise value or the default.
func (c *TuningConfig) GetOrientationResampleNoise() float64 {
	if c.OrientationResampleNoise == nil {
		return 2.0
	}
	return *c.OrientationResampleNoise
}

// GetWeightMargin returns the weight_margin value or the default.
func (c *TuningConfig) GetWeightMargin() float64 {
	if c.WeightMargin == nil {
		return 0.01
	}
	return *c.WeightMargin
}

// GetResampler returns the resampler name or the default.
func (c *TuningConfig) GetResampler() string {
	if c.Resampler == nil {
		return ResamplerSystematic
	}
	return *c.Resampler
}

// GetNoise returns the noise generator name or the default.
func (c *TuningConfig) GetNoise() string {
	if c.Noise == nil {
		return NoiseUniform
	}
	return *c.Noise
}

// GetSmoothingWindow parses and returns the SmoothingWindow as a time.Duration.
func (c *TuningConfig) GetSmoothingWindow() time.Duration {
	if c.SmoothingWindow == nil || *c.SmoothingWindow == "" {
		return 300 * time.Millisecond // default
	}
	d, err := time.ParseDuration(*c.SmoothingWindow)
	if err != nil {
		return 300 * time.Millisecond // default on parse error
	}
	return d
}

// GetEnablePrediction returns the enable_prediction value or the default.
func (c *TuningConfig) GetEnablePrediction() bool {
	if c.EnablePrediction == nil {
		return false // default: prediction step disabled
	}
	return *c.EnablePrediction
}

// GetHistorySize returns the history_size value or the default.
func (c *TuningConfig) GetHistorySize() int {
	if c.HistorySize == nil {
		return 10
	}
	return *c.HistorySize
}

// GetFusionMode returns the fusion_mode value or the default.
func (c *TuningConfig) GetFusionMode() string {
	if c.FusionMode == nil {
		return FusionIndependent
	}
	return *c.FusionMode
}

// GetField returns the field bounds or a 4m × 2m × 4m room.
func (c *TuningConfig) GetField() FieldBounds {
	if c.Field == nil {
		return FieldBounds{XMin: 0, XMax: 4, YMin: 0, YMax: 2, ZMin: 0, ZMax: 4}
	}
	return *c.Field
}
