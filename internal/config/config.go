// Package config loads the run configuration: which groups belong to which
// axis, their seismic factors, the base shear floor and where reports go.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/alexiusacademia/goeq/internal/loadcase"
	"github.com/alexiusacademia/goeq/internal/seismic"
)

const (
	// DefaultFloor leaves the first-mode distribution unscaled. Runs that
	// enforce a minimum base shear set it, typically to 0.8.
	DefaultFloor        = 0.0
	DefaultPeriodReport = "01_period_results.xlsx"
	DefaultForceReport  = "02_eqforce_results.xlsx"
)

// Environment overrides
const (
	EnvModel     = "GOEQ_MODEL"
	EnvOutputDir = "GOEQ_OUTPUT_DIR"
	EnvFloor     = "GOEQ_FLOOR"
	EnvUnits     = "GOEQ_UNITS"
)

var validate = validator.New()

// AxisGroups lists the groups evaluated on one axis and, for force runs,
// their seismic factors in the same order.
type AxisGroups struct {
	Groups  []string  `yaml:"groups" toml:"groups" validate:"dive,required"`
	Factors []float64 `yaml:"factors,omitempty" toml:"factors,omitempty" validate:"dive,gte=0"`
}

// Config is one run of the tool.
type Config struct {
	Model     string `yaml:"model" toml:"model" validate:"required"`
	OutputDir string `yaml:"output_dir,omitempty" toml:"output_dir,omitempty"`
	Units     string `yaml:"units,omitempty" toml:"units,omitempty"`

	// Floor is the fraction of the base shear the first-mode forces of a
	// horizontal group must reach.
	Floor float64 `yaml:"floor" toml:"floor" validate:"gte=0,lte=1"`

	X AxisGroups `yaml:"x" toml:"x"`
	Y AxisGroups `yaml:"y" toml:"y"`
	// Z is positional: superstructure first, substructure second, any
	// further groups after. Factors follow the same order.
	Z AxisGroups `yaml:"z" toml:"z"`

	PeriodReport string `yaml:"period_report,omitempty" toml:"period_report,omitempty"`
	ForceReport  string `yaml:"force_report,omitempty" toml:"force_report,omitempty"`
	PDF          string `yaml:"pdf,omitempty" toml:"pdf,omitempty"`
	PlotDir      string `yaml:"plot_dir,omitempty" toml:"plot_dir,omitempty"`

	// ApplyTo saves the loaded model under another name.
	ApplyTo  string `yaml:"apply_to,omitempty" toml:"apply_to,omitempty"`
	FailFast bool   `yaml:"fail_fast,omitempty" toml:"fail_fast,omitempty"`
}

// ValidationError is a configuration that cannot be run.
type ValidationError struct {
	msg string
	err error
}

func (e *ValidationError) Error() string {
	return e.msg
}

func (e *ValidationError) Unwrap() error {
	return e.err
}

// Default returns a config with the standard floor, units and report names.
func Default() *Config {
	return &Config{
		Units:        loadcase.DefaultUnits.String(),
		Floor:        DefaultFloor,
		PeriodReport: DefaultPeriodReport,
		ForceReport:  DefaultForceReport,
	}
}

// Load reads a YAML (.yaml, .yml) or TOML (.toml) run file over the
// defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	default:
		return nil, fmt.Errorf("config %q: unsupported format, use .yaml or .toml", path)
	}
	if err != nil {
		return nil, fmt.Errorf("parse config %q: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv loads envFile (if it exists) into the process environment and
// then applies the GOEQ_* overrides. Variables already set win over the
// file.
func (c *Config) ApplyEnv(envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	if v := os.Getenv(EnvModel); v != "" {
		c.Model = v
	}
	if v := os.Getenv(EnvOutputDir); v != "" {
		c.OutputDir = v
	}
	if v := os.Getenv(EnvUnits); v != "" {
		c.Units = v
	}
	if v := os.Getenv(EnvFloor); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return &ValidationError{msg: fmt.Sprintf("%s: %q is not a number", EnvFloor, v), err: err}
		}
		c.Floor = f
	}
	return nil
}

// Axis returns the groups configured for an axis.
func (c *Config) Axis(a loadcase.Axis) AxisGroups {
	switch a {
	case loadcase.AxisX:
		return c.X
	case loadcase.AxisY:
		return c.Y
	default:
		return c.Z
	}
}

// Active lists the axes that have at least one group, in X, Y, Z order.
func (c *Config) Active() []loadcase.Axis {
	var axes []loadcase.Axis
	for _, a := range loadcase.Axes {
		if len(c.Axis(a).Groups) > 0 {
			axes = append(axes, a)
		}
	}
	return axes
}

// GroupFactors pairs the groups of an axis with their factors.
func (c *Config) GroupFactors(a loadcase.Axis) ([]seismic.GroupFactor, error) {
	ag := c.Axis(a)
	pairs, err := seismic.PairFactors(ag.Groups, ag.Factors)
	if err != nil {
		return nil, &ValidationError{msg: fmt.Sprintf("%s axis: %v", a, err), err: err}
	}
	return pairs, nil
}

// PresentUnits resolves the units setting.
func (c *Config) PresentUnits() (loadcase.Units, error) {
	if c.Units == "" {
		return loadcase.DefaultUnits, nil
	}
	u, err := loadcase.ParseUnits(c.Units)
	if err != nil {
		return 0, &ValidationError{msg: err.Error(), err: err}
	}
	return u, nil
}

// OutputPath places a report file in the output directory, defaulting to
// the model's directory.
func (c *Config) OutputPath(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	dir := c.OutputDir
	if dir == "" {
		dir = filepath.Dir(c.Model)
	}
	return filepath.Join(dir, name)
}

// ValidatePeriod checks a period run: a model and at least one group.
func (c *Config) ValidatePeriod() error {
	if err := c.validate(); err != nil {
		return err
	}
	if len(c.Active()) == 0 {
		return &ValidationError{msg: "no groups configured on any axis"}
	}
	return nil
}

// ValidateForce checks a force run; every group needs exactly one factor.
func (c *Config) ValidateForce() error {
	if err := c.ValidatePeriod(); err != nil {
		return err
	}
	for _, a := range c.Active() {
		if _, err := c.GroupFactors(a); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validate() error {
	if err := validate.Struct(c); err != nil {
		return formatValidationError(err)
	}
	if _, err := c.PresentUnits(); err != nil {
		return err
	}
	return nil
}

func formatValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	// First failure only
	for _, e := range verrs {
		field := e.Namespace()
		switch e.Tag() {
		case "required":
			return &ValidationError{msg: fmt.Sprintf("%s: field is required", field), err: err}
		case "gte":
			return &ValidationError{msg: fmt.Sprintf("%s: must be at least %s", field, e.Param()), err: err}
		case "lte":
			return &ValidationError{msg: fmt.Sprintf("%s: must not exceed %s", field, e.Param()), err: err}
		default:
			return &ValidationError{msg: fmt.Sprintf("%s: validation failed (%s)", field, e.Tag()), err: err}
		}
	}
	return err
}
