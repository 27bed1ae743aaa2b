// Package config loads the navsim configuration with priority
// env > file > defaults.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/signalsfoundry/detector-navigator/core"
	"github.com/signalsfoundry/detector-navigator/internal/logging"
	"github.com/signalsfoundry/detector-navigator/internal/observability"
	"github.com/signalsfoundry/detector-navigator/model"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config is the full navsim configuration.
type Config struct {
	Navigation  NavigationConfig            `yaml:"navigation"`
	Propagation PropagationConfig           `yaml:"propagation"`
	Telescope   TelescopeConfig             `yaml:"telescope"`
	Tracks      TracksConfig                `yaml:"tracks"`
	Workers     int                         `yaml:"workers"`
	Logging     LoggingConfig               `yaml:"logging"`
	Tracing     observability.TracingConfig `yaml:"tracing"`
	Metrics     MetricsConfig               `yaml:"metrics"`
}

// NavigationConfig holds the navigator tolerances.
type NavigationConfig struct {
	Tolerance         float64 `yaml:"tolerance"`
	OverstepTolerance float64 `yaml:"overstep_tolerance"`
	MaskTolerance     float64 `yaml:"mask_tolerance"`
}

// PropagationConfig bounds the driving loop and configures the stepper.
type PropagationConfig struct {
	PathLimit   float64 `yaml:"path_limit"`
	MaxSteps    int     `yaml:"max_steps"`
	MaxStepSize float64 `yaml:"max_step_size"`
	TrustPolicy string  `yaml:"trust_policy"`
}

// TelescopeConfig describes the generated detector.
type TelescopeConfig struct {
	Name              string  `yaml:"name"`
	Volumes           int     `yaml:"volumes"`
	SurfacesPerVolume int     `yaml:"surfaces_per_volume"`
	Spacing           float64 `yaml:"spacing"`
	HalfX             float64 `yaml:"half_x"`
	HalfY             float64 `yaml:"half_y"`
	Envelope          float64 `yaml:"envelope"`
}

// TracksConfig describes the generated track grid.
type TracksConfig struct {
	Origin     [3]float64 `yaml:"origin"`
	ThetaMin   float64    `yaml:"theta_min"`
	ThetaMax   float64    `yaml:"theta_max"`
	ThetaSteps int        `yaml:"theta_steps"`
	PhiSteps   int        `yaml:"phi_steps"`
}

// LoggingConfig selects the log handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus endpoint. An empty address
// disables it.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns the configuration used when nothing else is given.
func Default() Config {
	nav := core.DefaultIntersectConfig()
	prop := core.DefaultPropagationConfig()
	tel := core.DefaultTelescopeConfig()
	trk := core.DefaultUniformTrackConfig()
	return Config{
		Navigation: NavigationConfig{
			Tolerance:         core.DefaultTolerance,
			OverstepTolerance: nav.OverstepTolerance,
			MaskTolerance:     nav.MaskTolerance,
		},
		Propagation: PropagationConfig{
			PathLimit:   prop.PathLimit,
			MaxSteps:    prop.MaxSteps,
			TrustPolicy: core.PolicyDefault.String(),
		},
		Telescope: TelescopeConfig{
			Name:              tel.Name,
			Volumes:           tel.Volumes,
			SurfacesPerVolume: tel.SurfacesPerVolume,
			Spacing:           tel.Spacing,
			HalfX:             tel.HalfX,
			HalfY:             tel.HalfY,
			Envelope:          tel.Envelope,
		},
		Tracks: TracksConfig{
			Origin:     [3]float64{trk.Origin.X, trk.Origin.Y, trk.Origin.Z},
			ThetaMin:   trk.ThetaMin,
			ThetaMax:   trk.ThetaMax,
			ThetaSteps: trk.ThetaStep,
			PhiSteps:   trk.PhiStep,
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Tracing: observability.DefaultTracingConfig(),
	}
}

// Load reads the YAML file at path (optional), applies environment
// overrides and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config file: %w", err)
		}
		if err := Parse(data, &cfg); err != nil {
			return cfg, err
		}
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Parse decodes YAML into cfg. Unknown keys are rejected.
func Parse(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: parse yaml: %v", ErrInvalidConfig, err)
	}
	return nil
}

// ApplyEnv overrides fields from NAVSIM_* variables, plus LOG_LEVEL and
// LOG_FORMAT. Malformed numbers are ignored.
func (c *Config) ApplyEnv() {
	setFloat("NAVSIM_TOLERANCE", &c.Navigation.Tolerance)
	setFloat("NAVSIM_OVERSTEP_TOLERANCE", &c.Navigation.OverstepTolerance)
	setFloat("NAVSIM_MASK_TOLERANCE", &c.Navigation.MaskTolerance)
	setFloat("NAVSIM_PATH_LIMIT", &c.Propagation.PathLimit)
	setInt("NAVSIM_MAX_STEPS", &c.Propagation.MaxSteps)
	setFloat("NAVSIM_MAX_STEP_SIZE", &c.Propagation.MaxStepSize)
	if v := os.Getenv("NAVSIM_TRUST_POLICY"); v != "" {
		c.Propagation.TrustPolicy = v
	}
	setInt("NAVSIM_WORKERS", &c.Workers)
	if v, ok := os.LookupEnv("NAVSIM_METRICS_ADDR"); ok {
		c.Metrics.Addr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	c.Tracing = observability.ApplyTracingEnv(c.Tracing)
}

// Validate checks every section and reports the first problem found.
func (c Config) Validate() error {
	switch {
	case c.Navigation.Tolerance <= 0:
		return invalid("navigation.tolerance must be > 0")
	case c.Navigation.OverstepTolerance > 0:
		return invalid("navigation.overstep_tolerance must be <= 0")
	case c.Navigation.MaskTolerance < 0:
		return invalid("navigation.mask_tolerance must be >= 0")
	case c.Propagation.PathLimit < 0:
		return invalid("propagation.path_limit must be >= 0")
	case c.Propagation.MaxSteps < 0:
		return invalid("propagation.max_steps must be >= 0")
	case c.Propagation.MaxStepSize < 0:
		return invalid("propagation.max_step_size must be >= 0")
	case c.Workers < 0:
		return invalid("workers must be >= 0")
	case c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1:
		return invalid("tracing.sample_ratio must be between 0 and 1")
	}
	if _, err := core.ParseTrustPolicy(c.Propagation.TrustPolicy); err != nil {
		return invalid("propagation.trust_policy: %v", err)
	}
	if err := c.Geometry().Validate(); err != nil {
		return invalid("telescope: %v", err)
	}
	if err := c.TrackGrid().Validate(); err != nil {
		return invalid("tracks: %v", err)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		return invalid("logging.format must be text or json, got %q", c.Logging.Format)
	}
	return nil
}

// Intersection converts the navigation section.
func (c Config) Intersection() core.IntersectConfig {
	return core.IntersectConfig{
		OverstepTolerance: c.Navigation.OverstepTolerance,
		MaskTolerance:     c.Navigation.MaskTolerance,
	}
}

// Limits converts the propagation limits.
func (c Config) Limits() core.PropagationConfig {
	return core.PropagationConfig{
		PathLimit: c.Propagation.PathLimit,
		MaxSteps:  c.Propagation.MaxSteps,
	}
}

// Stepper builds the line stepper. The trust policy is assumed valid.
func (c Config) Stepper() core.LineStepper {
	policy, _ := core.ParseTrustPolicy(c.Propagation.TrustPolicy)
	return core.LineStepper{MaxStepSize: c.Propagation.MaxStepSize, Policy: policy}
}

// Geometry converts the telescope section.
func (c Config) Geometry() core.TelescopeConfig {
	t := c.Telescope
	return core.TelescopeConfig{
		Name:              t.Name,
		Volumes:           t.Volumes,
		SurfacesPerVolume: t.SurfacesPerVolume,
		Spacing:           t.Spacing,
		HalfX:             t.HalfX,
		HalfY:             t.HalfY,
		Envelope:          t.Envelope,
	}
}

// TrackGrid converts the tracks section.
func (c Config) TrackGrid() core.UniformTrackConfig {
	t := c.Tracks
	return core.UniformTrackConfig{
		Origin:    model.Vec3{X: t.Origin[0], Y: t.Origin[1], Z: t.Origin[2]},
		ThetaMin:  t.ThetaMin,
		ThetaMax:  t.ThetaMax,
		ThetaStep: t.ThetaSteps,
		PhiStep:   t.PhiSteps,
	}
}

// Logger builds the structured logger described by the logging section.
func (c Config) Logger(out io.Writer) logging.Logger {
	return logging.New(logging.Config{
		Level:  c.Logging.Level,
		Format: c.Logging.Format,
		Output: out,
	})
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}

func setFloat(key string, dst *float64) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			*dst = i
		}
	}
}
