// Package config provides Viper-based configuration loading for the wheel.
package config

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/cory-johannsen/wheel/internal/game/audit"
	"github.com/cory-johannsen/wheel/internal/game/spin"
	"github.com/cory-johannsen/wheel/internal/game/tournament"
)

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// RandomConfig selects the random source.
type RandomConfig struct {
	// Seed makes every draw reproducible. Zero selects the crypto source.
	Seed uint64 `mapstructure:"seed"`
}

// SpeedConfig bounds one spin's turns and duration.
type SpeedConfig struct {
	MinSpins    int           `mapstructure:"min_spins"`
	MaxSpins    int           `mapstructure:"max_spins"`
	MinDuration time.Duration `mapstructure:"min_duration"`
	MaxDuration time.Duration `mapstructure:"max_duration"`
}

// Speed converts the preset to the engine's representation.
func (s SpeedConfig) Speed() spin.Speed {
	return spin.Speed{
		MinSpins:    s.MinSpins,
		MaxSpins:    s.MaxSpins,
		MinDuration: s.MinDuration,
		MaxDuration: s.MaxDuration,
	}
}

// WheelConfig holds single-spin settings.
type WheelConfig struct {
	// PointerAngle is the fixed pointer direction in radians.
	PointerAngle float64 `mapstructure:"pointer_angle"`
	// FrameRate is the animation rate in frames per second.
	FrameRate int `mapstructure:"frame_rate"`
	// DefaultPreset names the entry of Presets used when none is requested.
	DefaultPreset string `mapstructure:"default_preset"`
	// Presets maps a lower-case name to its speed bounds.
	Presets map[string]SpeedConfig `mapstructure:"presets"`
}

// Preset returns the named preset, or the default preset when name is empty.
//
// Postcondition: Returns an error naming the known presets if name is unknown.
func (w WheelConfig) Preset(name string) (spin.Speed, error) {
	if name == "" {
		name = w.DefaultPreset
	}
	p, ok := w.Presets[strings.ToLower(name)]
	if !ok {
		return spin.Speed{}, fmt.Errorf("unknown speed preset %q (known: %s)", name, strings.Join(w.PresetNames(), ", "))
	}
	return p.Speed(), nil
}

// PresetNames returns the preset names in sorted order.
func (w WheelConfig) PresetNames() []string {
	names := make([]string, 0, len(w.Presets))
	for n := range w.Presets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// StageConfig configures knockout rounds while at least MinCount candidates remain.
type StageConfig struct {
	MinCount            int           `mapstructure:"min_count"`
	EliminationSpin     SpeedConfig   `mapstructure:"elimination_spin"`
	FinalSpin           SpeedConfig   `mapstructure:"final_spin"`
	InterRoundDelay     time.Duration `mapstructure:"inter_round_delay"`
	KnockoutRevealDelay time.Duration `mapstructure:"knockout_reveal_delay"`
	FinalRevealDelay    time.Duration `mapstructure:"final_reveal_delay"`
	WinnerRevealDelay   time.Duration `mapstructure:"winner_reveal_delay"`
}

// TournamentConfig holds the knockout stage table.
type TournamentConfig struct {
	Stages []StageConfig `mapstructure:"stages"`
}

// StageTable converts the configured stages to the controller's representation.
func (t TournamentConfig) StageTable() []tournament.Stage {
	out := make([]tournament.Stage, len(t.Stages))
	for i, s := range t.Stages {
		out[i] = tournament.Stage{
			MinCount:            s.MinCount,
			EliminationSpin:     s.EliminationSpin.Speed(),
			FinalSpin:           s.FinalSpin.Speed(),
			InterRoundDelay:     s.InterRoundDelay,
			KnockoutRevealDelay: s.KnockoutRevealDelay,
			FinalRevealDelay:    s.FinalRevealDelay,
			WinnerRevealDelay:   s.WinnerRevealDelay,
		}
	}
	return out
}

// AuditConfig holds fairness audit settings.
type AuditConfig struct {
	Iterations int `mapstructure:"iterations"`
}

// ScriptingConfig holds Lua hook settings.
type ScriptingConfig struct {
	// Dir is the directory of *.lua hook scripts. Empty disables scripting.
	Dir string `mapstructure:"dir"`
	// InstructionLimit caps the VM instructions one hook call may execute.
	InstructionLimit int `mapstructure:"instruction_limit"`
}

// Config is the top-level application configuration.
type Config struct {
	Logging    LoggingConfig    `mapstructure:"logging"`
	Random     RandomConfig     `mapstructure:"random"`
	Wheel      WheelConfig      `mapstructure:"wheel"`
	Tournament TournamentConfig `mapstructure:"tournament"`
	Audit      AuditConfig      `mapstructure:"audit"`
	Scripting  ScriptingConfig  `mapstructure:"scripting"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateWheel(c.Wheel); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateTournament(c.Tournament); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Audit.Iterations < 0 {
		errs = append(errs, fmt.Sprintf("audit.iterations must be >= 0, got %d", c.Audit.Iterations))
	}
	if c.Scripting.InstructionLimit < 0 {
		errs = append(errs, fmt.Sprintf("scripting.instruction_limit must be >= 0, got %d", c.Scripting.InstructionLimit))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

func validateSpeed(field string, s SpeedConfig) []string {
	var errs []string
	if s.MinSpins < 0 {
		errs = append(errs, fmt.Sprintf("%s.min_spins must be >= 0, got %d", field, s.MinSpins))
	}
	if s.MaxSpins < s.MinSpins {
		errs = append(errs, fmt.Sprintf("%s.max_spins must be >= min_spins, got %d < %d", field, s.MaxSpins, s.MinSpins))
	}
	if s.MinDuration < 0 {
		errs = append(errs, fmt.Sprintf("%s.min_duration must not be negative", field))
	}
	if s.MaxDuration < s.MinDuration {
		errs = append(errs, fmt.Sprintf("%s.max_duration must be >= min_duration", field))
	}
	return errs
}

func validateWheel(w WheelConfig) error {
	var errs []string
	if math.IsNaN(w.PointerAngle) || math.IsInf(w.PointerAngle, 0) {
		errs = append(errs, "wheel.pointer_angle must be finite")
	}
	if w.FrameRate < 1 || w.FrameRate > 1000 {
		errs = append(errs, fmt.Sprintf("wheel.frame_rate must be 1-1000, got %d", w.FrameRate))
	}
	if len(w.Presets) == 0 {
		errs = append(errs, "wheel.presets must not be empty")
	} else if _, ok := w.Presets[strings.ToLower(w.DefaultPreset)]; !ok {
		errs = append(errs, fmt.Sprintf("wheel.default_preset %q is not a defined preset", w.DefaultPreset))
	}
	for _, name := range w.PresetNames() {
		errs = append(errs, validateSpeed("wheel.presets."+name, w.Presets[name])...)
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateTournament(t TournamentConfig) error {
	var errs []string
	if len(t.Stages) == 0 {
		errs = append(errs, "tournament.stages must not be empty")
	}
	for i, s := range t.Stages {
		field := fmt.Sprintf("tournament.stages[%d]", i)
		if s.MinCount < 1 {
			errs = append(errs, fmt.Sprintf("%s.min_count must be >= 1, got %d", field, s.MinCount))
		}
		errs = append(errs, validateSpeed(field+".elimination_spin", s.EliminationSpin)...)
		errs = append(errs, validateSpeed(field+".final_spin", s.FinalSpin)...)
		delays := []struct {
			name string
			d    time.Duration
		}{
			{"inter_round_delay", s.InterRoundDelay},
			{"knockout_reveal_delay", s.KnockoutRevealDelay},
			{"final_reveal_delay", s.FinalRevealDelay},
			{"winner_reveal_delay", s.WinnerRevealDelay},
		}
		for _, d := range delays {
			if d.d < 0 {
				errs = append(errs, fmt.Sprintf("%s.%s must not be negative", field, d.name))
			}
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result. An empty path loads defaults and
// environment overrides only.
//
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()

	// Environment variable overrides with WHEEL_ prefix
	v.SetEnvPrefix("WHEEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}

	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Defaults returns a Viper instance holding only the built-in defaults.
func Defaults() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("random.seed", 0)

	v.SetDefault("wheel.pointer_angle", spin.DefaultPointerAngle)
	v.SetDefault("wheel.frame_rate", spin.DefaultFrameRate)
	v.SetDefault("wheel.default_preset", "normal")
	setPresetDefault(v, "quick", 3, 5, "1.5s", "2.5s")
	setPresetDefault(v, "normal", 5, 8, "4s", "6s")
	setPresetDefault(v, "dramatic", 8, 12, "7s", "10s")

	v.SetDefault("tournament.stages", []map[string]any{
		{
			"min_count":             10,
			"elimination_spin":      speedDefault(2, 3, "1s", "1.5s"),
			"final_spin":            speedDefault(5, 8, "5s", "7s"),
			"inter_round_delay":     "300ms",
			"knockout_reveal_delay": "500ms",
			"final_reveal_delay":    "1.5s",
			"winner_reveal_delay":   "2s",
		},
		{
			"min_count":             5,
			"elimination_spin":      speedDefault(3, 5, "2s", "3s"),
			"final_spin":            speedDefault(5, 8, "5s", "7s"),
			"inter_round_delay":     "600ms",
			"knockout_reveal_delay": "1s",
			"final_reveal_delay":    "1.5s",
			"winner_reveal_delay":   "2s",
		},
		{
			"min_count":             1,
			"elimination_spin":      speedDefault(4, 6, "3s", "4.5s"),
			"final_spin":            speedDefault(6, 10, "6s", "9s"),
			"inter_round_delay":     "1s",
			"knockout_reveal_delay": "1.5s",
			"final_reveal_delay":    "2s",
			"winner_reveal_delay":   "3s",
		},
	})

	v.SetDefault("audit.iterations", audit.DefaultIterations)

	v.SetDefault("scripting.dir", "")
	v.SetDefault("scripting.instruction_limit", 100000)
}

func setPresetDefault(v *viper.Viper, name string, minSpins, maxSpins int, minDuration, maxDuration string) {
	prefix := "wheel.presets." + name + "."
	v.SetDefault(prefix+"min_spins", minSpins)
	v.SetDefault(prefix+"max_spins", maxSpins)
	v.SetDefault(prefix+"min_duration", minDuration)
	v.SetDefault(prefix+"max_duration", maxDuration)
}

func speedDefault(minSpins, maxSpins int, minDuration, maxDuration string) map[string]any {
	return map[string]any{
		"min_spins":    minSpins,
		"max_spins":    maxSpins,
		"min_duration": minDuration,
		"max_duration": maxDuration,
	}
}
