package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/jakechorley/guard-roster/pkg/core/feasibility"
	"github.com/jakechorley/guard-roster/pkg/core/partition"
	"github.com/jakechorley/guard-roster/pkg/core/premium"
	"github.com/jakechorley/guard-roster/pkg/core/solver"
)

const (
	configFileName = "roster_config.yaml"

	// EnvPrefix prefixes every environment override, e.g. ROSTER_OPTIMIZER_NUM_WORKERS
	EnvPrefix = "ROSTER_"
)

// PremiumConfig defines the pay multipliers
type PremiumConfig struct {
	HolidayMultiplier   float64 `yaml:"holiday_multiplier" env:"HOLIDAY_MULTIPLIER" validate:"gte=1"`
	SundayMultiplier    float64 `yaml:"sunday_multiplier" env:"SUNDAY_MULTIPLIER" validate:"gte=1"`
	OvertimeMultiplier  float64 `yaml:"overtime_multiplier" env:"OVERTIME_MULTIPLIER" validate:"gte=1"`
	NightPremiumRate    float64 `yaml:"night_premium_rate" env:"NIGHT_PREMIUM_RATE" validate:"gte=0"`
	NightStartHour      int     `yaml:"night_start_hour" env:"NIGHT_START_HOUR" validate:"gte=0,lte=23"`
	NightEndHour        int     `yaml:"night_end_hour" env:"NIGHT_END_HOUR" validate:"gte=0,lte=23"`
	TravelReimbursement float64 `yaml:"travel_reimbursement" env:"TRAVEL_REIMBURSEMENT" validate:"gte=0"`
}

// OptimizerConfig is the configuration bundle passed to every optimisation run
type OptimizerConfig struct {
	TimeLimitSeconds       float64       `yaml:"time_limit_seconds" env:"TIME_LIMIT_SECONDS" validate:"gt=0"`
	SoftTimeLimitSeconds   float64       `yaml:"soft_time_limit_seconds" env:"SOFT_TIME_LIMIT_SECONDS" validate:"gte=0,ltefield=TimeLimitSeconds"`
	FairnessWeight         float64       `yaml:"fairness_weight" env:"FAIRNESS_WEIGHT" validate:"gte=0,lte=1"`
	MaxDistanceKm          float64       `yaml:"max_distance_km" env:"MAX_DISTANCE_KM" validate:"gte=0"`
	NumWorkers             int           `yaml:"num_workers" env:"NUM_WORKERS" validate:"gte=1"`
	SkipCertificationCheck bool          `yaml:"skip_certification_check" env:"SKIP_CERTIFICATION_CHECK"`
	SkipSkillMatching      bool          `yaml:"skip_skill_matching" env:"SKIP_SKILL_MATCHING"`
	SkipAvailabilityCheck  bool          `yaml:"skip_availability_check" env:"SKIP_AVAILABILITY_CHECK"`
	MinRestHours           float64       `yaml:"min_rest_hours" env:"MIN_REST_HOURS" validate:"gte=0"`
	MaxHoursWeek           float64       `yaml:"max_hours_week" env:"MAX_HOURS_WEEK" validate:"gt=0"`
	Solver                 string        `yaml:"solver" env:"SOLVER" validate:"oneof=hungarian constraint"`
	FloaterPolicy          string        `yaml:"floater_policy" env:"FLOATER_POLICY" validate:"oneof=reconcile none"`
	Premiums               PremiumConfig `yaml:"premiums" envPrefix:"PREMIUMS_"`
}

// DatabaseConfig points at the persistence collaborator
type DatabaseConfig struct {
	DSN      string `yaml:"dsn" env:"DSN"`
	MaxConns int32  `yaml:"max_conns" env:"MAX_CONNS" validate:"gte=0"`
}

// Config represents the application configuration
type Config struct {
	Timezone  string          `yaml:"timezone" env:"TIMEZONE" validate:"required"`
	Optimizer OptimizerConfig `yaml:"optimizer" envPrefix:"OPTIMIZER_"`
	Database  DatabaseConfig  `yaml:"database" envPrefix:"DATABASE_"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Default returns the configuration used when a field is not set
func Default() Config {
	return Config{
		Timezone: "Africa/Johannesburg",
		Optimizer: OptimizerConfig{
			TimeLimitSeconds:     180,
			SoftTimeLimitSeconds: 120,
			FairnessWeight:       0.3,
			MaxDistanceKm:        50,
			NumWorkers:           4,
			MinRestHours:         8,
			MaxHoursWeek:         48,
			Solver:               string(solver.StrategyConstraint),
			FloaterPolicy:        string(partition.FloaterReconcile),
			Premiums: PremiumConfig{
				HolidayMultiplier:   2.0,
				SundayMultiplier:    1.5,
				OvertimeMultiplier:  1.0,
				NightPremiumRate:    0.10,
				NightStartHour:      18,
				NightEndHour:        6,
				TravelReimbursement: 50,
			},
		},
	}
}

// Load loads and validates the configuration from roster_config.yaml
// It looks for the config file in the current directory first, then in the user's home directory
func Load() (*Config, error) {
	return LoadWithEnv("")
}

// LoadWithEnv prefers roster_config.<env>.yaml over roster_config.yaml
func LoadWithEnv(environment string) (*Config, error) {
	configPath, err := findConfigFile(environment)
	if err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	return LoadFromPath(configPath)
}

// LoadFromPath loads the configuration from a specific path, applies defaults
// for missing fields and ROSTER_ environment overrides, then validates it
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := ApplyEnv(&cfg); err != nil {
		return nil, err
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// ApplyEnv overrides fields from ROSTER_-prefixed environment variables
func ApplyEnv(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("failed to parse environment overrides: %w", err)
	}
	return nil
}

// Validate validates the configuration struct and checks the timezone
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
	}

	return nil
}

// Location returns the configured time zone
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Feasibility returns the feasibility evaluator configuration
func (o OptimizerConfig) Feasibility() feasibility.Config {
	return feasibility.Config{
		MinRestHours:           o.MinRestHours,
		MaxHoursWeek:           o.MaxHoursWeek,
		MaxDistanceKm:          o.MaxDistanceKm,
		SkipCertificationCheck: o.SkipCertificationCheck,
		SkipSkillMatching:      o.SkipSkillMatching,
		SkipAvailabilityCheck:  o.SkipAvailabilityCheck,
	}
}

// PremiumRates returns the premium calculator configuration
func (o OptimizerConfig) PremiumRates() premium.Config {
	p := o.Premiums
	return premium.Config{
		HolidayMultiplier:   decimal.NewFromFloat(p.HolidayMultiplier),
		SundayMultiplier:    decimal.NewFromFloat(p.SundayMultiplier),
		OvertimeMultiplier:  decimal.NewFromFloat(p.OvertimeMultiplier),
		NightPremiumRate:    decimal.NewFromFloat(p.NightPremiumRate),
		NightStartHour:      p.NightStartHour,
		NightEndHour:        p.NightEndHour,
		TravelReimbursement: decimal.NewFromFloat(p.TravelReimbursement),
	}
}

// SolverConfig returns the solver configuration
func (o OptimizerConfig) SolverConfig() solver.Config {
	return solver.Config{
		Strategy:       solver.Strategy(o.Solver),
		TimeLimit:      seconds(o.TimeLimitSeconds),
		SoftTimeLimit:  seconds(o.SoftTimeLimitSeconds),
		FairnessWeight: o.FairnessWeight,
		Feasibility:    o.Feasibility(),
	}
}

// PartitionConfig returns the orchestrator configuration
func (o OptimizerConfig) PartitionConfig() partition.Config {
	return partition.Config{
		NumWorkers:    o.NumWorkers,
		FloaterPolicy: partition.FloaterPolicy(o.FloaterPolicy),
		Solver:        o.SolverConfig(),
	}
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// findConfigFile searches for the config file in the current directory and home directory
func findConfigFile(environment string) (string, error) {
	candidates := []string{configFileName}
	if environment != "" {
		candidates = append([]string{fmt.Sprintf("roster_config.%s.yaml", environment)}, candidates...)
	}

	homeDir, homeErr := os.UserHomeDir()

	for _, name := range candidates {
		// Check current directory
		if _, err := os.Stat(name); err == nil {
			return name, nil
		}

		// Check home directory
		if homeErr == nil {
			homeConfigPath := filepath.Join(homeDir, name)
			if _, err := os.Stat(homeConfigPath); err == nil {
				return homeConfigPath, nil
			}
		}
	}

	if homeErr != nil {
		return "", fmt.Errorf("failed to get home directory: %w", homeErr)
	}
	return "", fmt.Errorf("config file not found in current directory or home directory")
}
