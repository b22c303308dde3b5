// Package config loads controller parameters from JSON. Fields are pointers
// so a partial file only overrides what it names; the Get* methods supply the
// canonical defaults for everything else.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/spatial/r3"
)

// DefaultConfigPath is the path to the canonical controller defaults file.
const DefaultConfigPath = "config/controller.defaults.json"

// ControllerConfig is the root configuration for the control laws and the
// thrust-mapping estimator. It is loaded at startup and reloaded only by the
// host on configuration change; a cycle never mutates it.
type ControllerConfig struct {
	// Control law selection: "linear" or "geometric".
	Law *string `json:"law,omitempty"`

	// Feedback gains, per axis.
	Kp *[3]float64 `json:"kp,omitempty"`
	Kv *[3]float64 `json:"kv,omitempty"`

	// Physical constants.
	Gravity *float64 `json:"gravity,omitempty"` // m/s²

	// Thrust model params.
	HoverPercentage  *float64 `json:"hover_percentage,omitempty"`  // (0, 1]
	ForgettingFactor *float64 `json:"forgetting_factor,omitempty"` // (0, 1]

	// Host loop params.
	CycleRateHz *float64 `json:"cycle_rate_hz,omitempty"`
}

// EmptyControllerConfig returns a ControllerConfig with all fields unset.
func EmptyControllerConfig() *ControllerConfig {
	return &ControllerConfig{}
}

// LoadControllerConfig loads a ControllerConfig from a JSON file. The file
// must have a .json extension and stay under the max file size. Omitted fields
// fall back to defaults, so partial configs are safe.
func LoadControllerConfig(path string) (*ControllerConfig, error) {
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

	cfg := EmptyControllerConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical defaults from DefaultConfigPath,
// searching the current directory and common parent directories. Panics if the
// file cannot be loaded; intended for test setup.
func MustLoadDefaultConfig() *ControllerConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath, // from internal/config/
		"../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadControllerConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that configured values are usable.
func (c *ControllerConfig) Validate() error {
	if c.Law != nil && *c.Law != "linear" && *c.Law != "geometric" {
		return fmt.Errorf("law must be \"linear\" or \"geometric\", got %q", *c.Law)
	}
	if c.HoverPercentage != nil {
		if *c.HoverPercentage <= 0 || *c.HoverPercentage > 1 {
			return fmt.Errorf("hover_percentage must be in (0, 1], got %f", *c.HoverPercentage)
		}
	}
	if c.ForgettingFactor != nil {
		if *c.ForgettingFactor <= 0 || *c.ForgettingFactor > 1 {
			return fmt.Errorf("forgetting_factor must be in (0, 1], got %f", *c.ForgettingFactor)
		}
	}
	if c.Gravity != nil && *c.Gravity <= 0 {
		return fmt.Errorf("gravity must be positive, got %f", *c.Gravity)
	}
	if c.CycleRateHz != nil && *c.CycleRateHz <= 0 {
		return fmt.Errorf("cycle_rate_hz must be positive, got %f", *c.CycleRateHz)
	}
	if c.Kp != nil {
		for i, g := range *c.Kp {
			if g < 0 {
				return fmt.Errorf("kp[%d] must be non-negative, got %f", i, g)
			}
		}
	}
	if c.Kv != nil {
		for i, g := range *c.Kv {
			if g < 0 {
				return fmt.Errorf("kv[%d] must be non-negative, got %f", i, g)
			}
		}
	}
	return nil
}

// GetLaw returns the configured law kind or the default.
func (c *ControllerConfig) GetLaw() string {
	if c.Law == nil {
		return "geometric"
	}
	return *c.Law
}

// GetKp returns the proportional gains or the defaults.
func (c *ControllerConfig) GetKp() r3.Vec {
	if c.Kp == nil {
		return r3.Vec{X: 1.5, Y: 1.5, Z: 2.0}
	}
	return r3.Vec{X: c.Kp[0], Y: c.Kp[1], Z: c.Kp[2]}
}

// GetKv returns the velocity gains or the defaults.
func (c *ControllerConfig) GetKv() r3.Vec {
	if c.Kv == nil {
		return r3.Vec{X: 1.2, Y: 1.2, Z: 1.5}
	}
	return r3.Vec{X: c.Kv[0], Y: c.Kv[1], Z: c.Kv[2]}
}

// GetGravity returns the gravitational acceleration or the default.
func (c *ControllerConfig) GetGravity() float64 {
	if c.Gravity == nil {
		return 9.81
	}
	return *c.Gravity
}

// GetHoverPercentage returns the hover throttle percentage or the default.
func (c *ControllerConfig) GetHoverPercentage() float64 {
	if c.HoverPercentage == nil {
		return 0.3
	}
	return *c.HoverPercentage
}

// GetForgettingFactor returns the RLS forgetting factor or the default.
func (c *ControllerConfig) GetForgettingFactor() float64 {
	if c.ForgettingFactor == nil {
		return 0.998
	}
	return *c.ForgettingFactor
}

// GetCycleRateHz returns the control cycle rate or the default.
func (c *ControllerConfig) GetCycleRateHz() float64 {
	if c.CycleRateHz == nil {
		return 100
	}
	return *c.CycleRateHz
}
